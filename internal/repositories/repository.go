package repositories

import (
	"context"
	"errors"

	"almacenadora/backend/internal/models"
)

// ErrNotFound is returned when no task matches the given id.
var ErrNotFound = errors.New("task not found")

// TaskRepository is the task record store. Implementations assign IDs on
// Create and never change Estado outside ToggleEstado.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	FindAll(ctx context.Context) ([]models.Task, error)
	FindByID(ctx context.Context, id string) (*models.Task, error)
	Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, id string) (*models.Task, error)
	ToggleEstado(ctx context.Context, id string) (*models.Task, error)
}
