package services

import (
	"context"
	"fmt"

	"almacenadora/backend/internal/models"
	"almacenadora/backend/internal/repositories"
	"almacenadora/backend/internal/validation"
)

type TaskService interface {
	CreateTask(ctx context.Context, input models.TaskInput) (*models.Task, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) (*models.Task, error)
	ToggleComplete(ctx context.Context, id string) (*models.Task, error)
}

type TaskServiceImpl struct {
	repo repositories.TaskRepository
}

func NewTaskService(repo repositories.TaskRepository) *TaskServiceImpl {
	return &TaskServiceImpl{repo: repo}
}

func (s *TaskServiceImpl) CreateTask(ctx context.Context, input models.TaskInput) (*models.Task, error) {
	var fieldErrors []validation.FieldError

	fechaInicio, err := models.NormalizeDate(input.FechaInicio)
	if err != nil {
		fieldErrors = append(fieldErrors, dateError(validation.FieldFechaInicio))
	} else {
		input.FechaInicio = fechaInicio
	}

	fechaFin, err := models.NormalizeDate(input.FechaFin)
	if err != nil {
		fieldErrors = append(fieldErrors, dateError(validation.FieldFechaFin))
	} else {
		input.FechaFin = fechaFin
	}

	schemaErrors, err := validation.ValidateCreate(input)
	if err != nil {
		return nil, fmt.Errorf("validate task: %w", err)
	}
	if fieldErrors = mergeFieldErrors(fieldErrors, schemaErrors); len(fieldErrors) > 0 {
		return nil, newValidationError(fieldErrors...)
	}

	task := input.ToTask()
	if err := s.repo.Create(ctx, &task); err != nil {
		return nil, classify(err, "create")
	}
	return &task, nil
}

func (s *TaskServiceImpl) ListTasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, classify(err, "list")
	}
	return tasks, nil
}

func (s *TaskServiceImpl) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	var fieldErrors []validation.FieldError

	if patch.FechaInicio != nil {
		fecha, err := models.NormalizeDate(*patch.FechaInicio)
		if err != nil {
			fieldErrors = append(fieldErrors, dateError(validation.FieldFechaInicio))
		} else {
			patch.FechaInicio = &fecha
		}
	}

	if patch.FechaFin != nil {
		fecha, err := models.NormalizeDate(*patch.FechaFin)
		if err != nil {
			fieldErrors = append(fieldErrors, dateError(validation.FieldFechaFin))
		} else {
			patch.FechaFin = &fecha
		}
	}

	schemaErrors, err := validation.ValidateUpdate(patch)
	if err != nil {
		return nil, fmt.Errorf("validate task: %w", err)
	}
	if fieldErrors = mergeFieldErrors(fieldErrors, schemaErrors); len(fieldErrors) > 0 {
		return nil, newValidationError(fieldErrors...)
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, classify(err, "find")
	}

	task, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, classify(err, "update")
	}
	return task, nil
}

func (s *TaskServiceImpl) DeleteTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, classify(err, "delete")
	}
	return task, nil
}

func (s *TaskServiceImpl) ToggleComplete(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.repo.ToggleEstado(ctx, id)
	if err != nil {
		return nil, classify(err, "toggle")
	}
	return task, nil
}

func dateError(field validation.Field) validation.FieldError {
	return validation.FieldError{Field: string(field), Message: validation.Message(field)}
}

func mergeFieldErrors(a, b []validation.FieldError) []validation.FieldError {
	seen := make(map[string]bool, len(a))
	for _, e := range a {
		seen[e.Field] = true
	}
	for _, e := range b {
		if !seen[e.Field] {
			seen[e.Field] = true
			a = append(a, e)
		}
	}
	return a
}
