// Package validation holds the field rules shared by the console form and
// the service boundary.
package validation

import (
	"regexp"
)

type Field string

const (
	FieldNombre                 Field = "nombre"
	FieldDescription            Field = "description"
	FieldFechaInicio            Field = "fechaInicio"
	FieldFechaFin               Field = "fechaFin"
	FieldNombreYapellidoPersona Field = "nombreYapellidoPersona"
)

// Fields lists the task fields in form order.
var Fields = []Field{
	FieldNombre,
	FieldDescription,
	FieldFechaInicio,
	FieldFechaFin,
	FieldNombreYapellidoPersona,
}

const (
	shortTextPattern = `^[\w\s]{3,200}$`
	longTextPattern  = `^[\w\s]{3,400}$`
	datePattern      = `^\d{4}-\d{2}-\d{2}$`
)

var patterns = map[Field]string{
	FieldNombre:                 shortTextPattern,
	FieldDescription:            longTextPattern,
	FieldFechaInicio:            datePattern,
	FieldFechaFin:               datePattern,
	FieldNombreYapellidoPersona: shortTextPattern,
}

var compiled = map[Field]*regexp.Regexp{}

func init() {
	for field, pattern := range patterns {
		compiled[field] = regexp.MustCompile(pattern)
	}
}

const (
	NombreValidationMessage                 = "El nombre de la tarea debe ser de entre 3 y 200 caracteres, con espacios permitidos."
	DescriptionValidationMessage            = "La descripción debe ser de entre 3 y 400 caracteres, con espacios permitidos."
	FechaInicioValidationMessage            = "Verifica que sea una fecha correcta en formato YYYY-MM-DD."
	FechaFinValidationMessage               = "Verifica que sea una fecha correcta en formato YYYY-MM-DD."
	NombreYapellidoPersonaValidationMessage = "El nombre y apellido de la persona debe ser de entre 3 y 200 caracteres, con espacios permitidos."
)

var messages = map[Field]string{
	FieldNombre:                 NombreValidationMessage,
	FieldDescription:            DescriptionValidationMessage,
	FieldFechaInicio:            FechaInicioValidationMessage,
	FieldFechaFin:               FechaFinValidationMessage,
	FieldNombreYapellidoPersona: NombreYapellidoPersonaValidationMessage,
}

func ValidateNombre(nombre string) bool {
	return Validate(FieldNombre, nombre)
}

func ValidateDescription(description string) bool {
	return Validate(FieldDescription, description)
}

func ValidateFechaInicio(fechaInicio string) bool {
	return Validate(FieldFechaInicio, fechaInicio)
}

func ValidateFechaFin(fechaFin string) bool {
	return Validate(FieldFechaFin, fechaFin)
}

func ValidateNombreYapellidoPersona(nombreYapellidoPersona string) bool {
	return Validate(FieldNombreYapellidoPersona, nombreYapellidoPersona)
}

// Validate applies the rule of field to value. Unknown fields never validate.
func Validate(field Field, value string) bool {
	re, ok := compiled[field]
	if !ok {
		return false
	}
	return re.MatchString(value)
}

// Message returns the user-facing message shown when field is invalid.
func Message(field Field) string {
	return messages[field]
}

// Pattern returns the regular expression source for field.
func Pattern(field Field) string {
	return patterns[field]
}
