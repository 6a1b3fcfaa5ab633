package repositories

import (
	"context"
	"errors"
	"fmt"

	"almacenadora/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// GormTaskRepository stores tasks in a relational database through GORM.
type GormTaskRepository struct {
	db *gorm.DB
}

func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// Migrate creates or updates the tareas table.
func (r *GormTaskRepository) Migrate() error {
	if err := r.db.AutoMigrate(&models.Task{}); err != nil {
		return fmt.Errorf("failed to migrate tareas: %w", err)
	}
	return nil
}

func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("failed to generate task ID: %w", err)
	}
	task.ID = id.String()
	task.Estado = false

	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *GormTaskRepository) FindAll(ctx context.Context) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := r.db.WithContext(ctx).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (r *GormTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	return findTask(r.db.WithContext(ctx), id)
}

func (r *GormTaskRepository) Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	var updated *models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findTask(tx, id)
		if err != nil {
			return err
		}

		if !patch.IsEmpty() {
			if err := tx.Model(task).Updates(patchColumns(patch)).Error; err != nil {
				return fmt.Errorf("failed to update task: %w", err)
			}
		}

		updated, err = findTask(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *GormTaskRepository) Delete(ctx context.Context, id string) (*models.Task, error) {
	var deleted *models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findTask(tx, id)
		if err != nil {
			return err
		}

		result := tx.Delete(&models.Task{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		deleted = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (r *GormTaskRepository) ToggleEstado(ctx context.Context, id string) (*models.Task, error) {
	var toggled *models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findTask(tx, id)
		if err != nil {
			return err
		}

		if err := tx.Model(task).Update("estado", !task.Estado).Error; err != nil {
			return fmt.Errorf("failed to toggle task: %w", err)
		}

		toggled, err = findTask(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toggled, nil
}

func findTask(db *gorm.DB, id string) (*models.Task, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

func patchColumns(patch models.TaskPatch) map[string]interface{} {
	columns := make(map[string]interface{})
	if patch.Nombre != nil {
		columns["nombre"] = *patch.Nombre
	}
	if patch.Description != nil {
		columns["description"] = *patch.Description
	}
	if patch.FechaInicio != nil {
		columns["fecha_inicio"] = *patch.FechaInicio
	}
	if patch.FechaFin != nil {
		columns["fecha_fin"] = *patch.FechaFin
	}
	if patch.NombreYapellidoPersona != nil {
		columns["nombre_yapellido_persona"] = *patch.NombreYapellidoPersona
	}
	return columns
}
