package tui

import (
	"almacenadora/backend/internal/models"
	"almacenadora/backend/internal/validation"
)

// Mode tells whether submitting the form creates a task or edits one.
type Mode struct {
	editID string
}

var ModeCreate = Mode{}

func ModeEdit(id string) Mode {
	return Mode{editID: id}
}

func (m Mode) IsEdit() bool { return m.editID != "" }

func (m Mode) TaskID() string { return m.editID }

type formField struct {
	field     validation.Field
	label     string
	value     string
	valid     bool
	showError bool
}

var fieldLabels = map[validation.Field]string{
	validation.FieldNombre:                 "Nombre de la tarea",
	validation.FieldDescription:            "Descripción",
	validation.FieldFechaInicio:            "Fecha de inicio",
	validation.FieldFechaFin:               "Fecha de fin",
	validation.FieldNombreYapellidoPersona: "Nombre y apellido de la persona",
}

// Form is the five-field task form. A field is validated when focus leaves
// it; its message only shows after such a failed check.
type Form struct {
	fields []formField
	focus  int
	mode   Mode
}

func NewForm() *Form {
	f := &Form{}
	f.Reset()
	return f
}

// Reset clears every field and returns to create mode.
func (f *Form) Reset() {
	f.fields = make([]formField, len(validation.Fields))
	for i, field := range validation.Fields {
		f.fields[i] = formField{field: field, label: fieldLabels[field]}
	}
	f.focus = 0
	f.mode = ModeCreate
}

// LoadTask fills the form from t and switches to edit mode for it.
func (f *Form) LoadTask(t models.Task) {
	f.Reset()
	f.mode = ModeEdit(t.ID)
	values := map[validation.Field]string{
		validation.FieldNombre:                 t.Nombre,
		validation.FieldDescription:            t.Description,
		validation.FieldFechaInicio:            t.FechaInicio,
		validation.FieldFechaFin:               t.FechaFin,
		validation.FieldNombreYapellidoPersona: t.NombreYapellidoPersona,
	}
	for i := range f.fields {
		f.fields[i].value = values[f.fields[i].field]
		f.fields[i].valid = validation.Validate(f.fields[i].field, f.fields[i].value)
	}
}

func (f *Form) Mode() Mode { return f.mode }

func (f *Form) Focused() int { return f.focus }

func (f *Form) Len() int { return len(f.fields) }

// SetFocus moves focus to field i, validating the field being left.
func (f *Form) SetFocus(i int) {
	if i < 0 || i >= len(f.fields) || i == f.focus {
		return
	}
	f.Blur()
	f.focus = i
}

// Blur validates the focused field as if focus had left it.
func (f *Form) Blur() {
	fld := &f.fields[f.focus]
	fld.valid = validation.Validate(fld.field, fld.value)
	fld.showError = !fld.valid
}

func (f *Form) Insert(s string) {
	fld := &f.fields[f.focus]
	fld.value += s
	fld.valid = validation.Validate(fld.field, fld.value)
}

func (f *Form) Backspace() {
	fld := &f.fields[f.focus]
	runes := []rune(fld.value)
	if len(runes) == 0 {
		return
	}
	fld.value = string(runes[:len(runes)-1])
	fld.valid = validation.Validate(fld.field, fld.value)
}

func (f *Form) Value(field validation.Field) string {
	for _, fld := range f.fields {
		if fld.field == field {
			return fld.value
		}
	}
	return ""
}

// ErrorMessage returns the message to display for field, if any.
func (f *Form) ErrorMessage(field validation.Field) string {
	for _, fld := range f.fields {
		if fld.field == field && fld.showError {
			return validation.Message(field)
		}
	}
	return ""
}

// SubmitDisabled reports whether any field is currently invalid.
func (f *Form) SubmitDisabled() bool {
	for _, fld := range f.fields {
		if !validation.Validate(fld.field, fld.value) {
			return true
		}
	}
	return false
}

func (f *Form) Input() models.TaskInput {
	return models.TaskInput{
		Nombre:                 f.Value(validation.FieldNombre),
		Description:            f.Value(validation.FieldDescription),
		FechaInicio:            f.Value(validation.FieldFechaInicio),
		FechaFin:               f.Value(validation.FieldFechaFin),
		NombreYapellidoPersona: f.Value(validation.FieldNombreYapellidoPersona),
	}
}

// Patch sends every field, as the edit form always shows all of them.
func (f *Form) Patch() models.TaskPatch {
	return models.PatchFromTask(f.Input().ToTask())
}
