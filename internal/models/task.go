package models

import (
	"time"
)

// Task is a to-do item with an assignee and a date range.
type Task struct {
	ID                     string    `json:"id" gorm:"primaryKey;size:36"`
	Nombre                 string    `json:"nombre" gorm:"size:200;not null"`
	Description            string    `json:"description" gorm:"size:400;not null"`
	FechaInicio            string    `json:"fechaInicio" gorm:"size:10;not null"`
	FechaFin               string    `json:"fechaFin" gorm:"size:10;not null"`
	NombreYapellidoPersona string    `json:"nombreYapellidoPersona" gorm:"size:200;not null"`
	Estado                 bool      `json:"estado" gorm:"not null;default:false"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

func (Task) TableName() string {
	return "tareas"
}

// TaskInput carries the fields accepted when creating a task.
type TaskInput struct {
	Nombre                 string `json:"nombre" form:"nombre" binding:"required"`
	Description            string `json:"description" form:"description" binding:"required"`
	FechaInicio            string `json:"fechaInicio" form:"fechaInicio" binding:"required"`
	FechaFin               string `json:"fechaFin" form:"fechaFin" binding:"required"`
	NombreYapellidoPersona string `json:"nombreYapellidoPersona" form:"nombreYapellidoPersona" binding:"required"`
}

// TaskPatch is a partial update. Nil fields are left untouched; there is
// deliberately no Estado field.
type TaskPatch struct {
	Nombre                 *string `json:"nombre,omitempty" form:"nombre"`
	Description            *string `json:"description,omitempty" form:"description"`
	FechaInicio            *string `json:"fechaInicio,omitempty" form:"fechaInicio"`
	FechaFin               *string `json:"fechaFin,omitempty" form:"fechaFin"`
	NombreYapellidoPersona *string `json:"nombreYapellidoPersona,omitempty" form:"nombreYapellidoPersona"`
}

func (in TaskInput) ToTask() Task {
	return Task{
		Nombre:                 in.Nombre,
		Description:            in.Description,
		FechaInicio:            in.FechaInicio,
		FechaFin:               in.FechaFin,
		NombreYapellidoPersona: in.NombreYapellidoPersona,
		Estado:                 false,
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Nombre == nil && p.Description == nil && p.FechaInicio == nil &&
		p.FechaFin == nil && p.NombreYapellidoPersona == nil
}

// Fields returns the patch as a column/value map keyed by JSON field name.
func (p TaskPatch) Fields() map[string]string {
	fields := make(map[string]string)
	if p.Nombre != nil {
		fields["nombre"] = *p.Nombre
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.FechaInicio != nil {
		fields["fechaInicio"] = *p.FechaInicio
	}
	if p.FechaFin != nil {
		fields["fechaFin"] = *p.FechaFin
	}
	if p.NombreYapellidoPersona != nil {
		fields["nombreYapellidoPersona"] = *p.NombreYapellidoPersona
	}
	return fields
}

// Apply merges the patch into t.
func (p TaskPatch) Apply(t *Task) {
	if p.Nombre != nil {
		t.Nombre = *p.Nombre
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.FechaInicio != nil {
		t.FechaInicio = *p.FechaInicio
	}
	if p.FechaFin != nil {
		t.FechaFin = *p.FechaFin
	}
	if p.NombreYapellidoPersona != nil {
		t.NombreYapellidoPersona = *p.NombreYapellidoPersona
	}
}

// PatchFromTask builds a patch that replaces every editable field.
func PatchFromTask(t Task) TaskPatch {
	return TaskPatch{
		Nombre:                 &t.Nombre,
		Description:            &t.Description,
		FechaInicio:            &t.FechaInicio,
		FechaFin:               &t.FechaFin,
		NombreYapellidoPersona: &t.NombreYapellidoPersona,
	}
}
