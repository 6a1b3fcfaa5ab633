package handlers

import (
	"errors"
	"io"
	"net/http"
	"unicode"
	"unicode/utf8"

	"almacenadora/backend/internal/models"
	"almacenadora/backend/internal/services"
	"almacenadora/backend/internal/validation"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	msgCreated      = "Tarea creada correctamente"
	msgListed       = "Tareas listadas correctamente"
	msgEdited       = "Tarea editada correctamente"
	msgDeleted      = "Tarea eliminada correctamente"
	msgMarked       = "Tarea marcada correctamente"
	msgNotFound     = "Tarea no encontrada"
	msgInvalid      = "Datos de la tarea no válidos"
	msgCreateFailed = "Error creando una nueva tarea"
	msgListFailed   = "Error listando las tareas"
	msgEditFailed   = "Error editando la tarea"
	msgDeleteFailed = "Error eliminando tarea"
	msgMarkFailed   = "Error marcando la tarea"
)

type TaskHandler struct {
	taskService services.TaskService
	logger      *log.Logger
}

func NewTaskHandler(taskService services.TaskService, logger *log.Logger) *TaskHandler {
	return &TaskHandler{taskService: taskService, logger: logger}
}

func (h *TaskHandler) CreateTarea(c *gin.Context) {
	var input models.TaskInput
	if err := c.ShouldBind(&input); err != nil {
		h.handleBindError(c, err)
		return
	}

	tarea, err := h.taskService.CreateTask(c.Request.Context(), input)
	if err != nil {
		h.handleTaskError(c, err, msgCreateFailed)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msgCreated, "tarea": tarea})
}

func (h *TaskHandler) ListTareas(c *gin.Context) {
	tareas, err := h.taskService.ListTasks(c.Request.Context())
	if err != nil {
		h.handleTaskError(c, err, msgListFailed)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msgListed, "tareas": tareas})
}

func (h *TaskHandler) EditTarea(c *gin.Context) {
	var patch models.TaskPatch
	if err := c.ShouldBind(&patch); err != nil && !errors.Is(err, io.EOF) {
		h.handleBindError(c, err)
		return
	}

	updatedTarea, err := h.taskService.UpdateTask(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.handleTaskError(c, err, msgEditFailed)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msgEdited, "updatedTarea": updatedTarea})
}

func (h *TaskHandler) DeleteTarea(c *gin.Context) {
	eliminarTarea, err := h.taskService.DeleteTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTaskError(c, err, msgDeleteFailed)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msgDeleted, "eliminarTarea": eliminarTarea})
}

func (h *TaskHandler) MarkTarea(c *gin.Context) {
	tarea, err := h.taskService.ToggleComplete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTaskError(c, err, msgMarkFailed)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msgMarked, "tarea": tarea})
}

func (h *TaskHandler) handleBindError(c *gin.Context, err error) {
	var bindErrs validator.ValidationErrors
	if errors.As(err, &bindErrs) {
		fields := make([]validation.FieldError, 0, len(bindErrs))
		for _, fe := range bindErrs {
			field := validation.Field(jsonFieldName(fe.Field()))
			fields = append(fields, validation.FieldError{
				Field:   string(field),
				Message: validation.Message(field),
			})
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalid, "errors": fields})
		return
	}

	h.logger.Debug("malformed request body", "path", c.FullPath(), "err", err)
	c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalid})
}

// handleTaskError maps service errors onto status codes. Persistence details
// are logged, never returned.
func (h *TaskHandler) handleTaskError(c *gin.Context, err error, failureMessage string) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalid, "errors": validationErr.Fields})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": msgNotFound})
	default:
		h.logger.Error(failureMessage, "path", c.FullPath(), "id", c.Param("id"), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": failureMessage})
	}
}

// jsonFieldName turns a struct field name such as FechaInicio into its JSON
// key.
func jsonFieldName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToLower(r)) + name[size:]
}
