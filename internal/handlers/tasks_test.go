package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"almacenadora/backend/internal/handlers"
	"almacenadora/backend/internal/logging"
	"almacenadora/backend/internal/models"
	"almacenadora/backend/internal/services"
	"almacenadora/backend/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) CreateTask(ctx context.Context, input models.TaskInput) (*models.Task, error) {
	args := m.Called(ctx, input)
	task, _ := args.Get(0).(*models.Task)
	return task, args.Error(1)
}

func (m *MockTaskService) ListTasks(ctx context.Context) ([]models.Task, error) {
	args := m.Called(ctx)
	tasks, _ := args.Get(0).([]models.Task)
	return tasks, args.Error(1)
}

func (m *MockTaskService) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	args := m.Called(ctx, id, patch)
	task, _ := args.Get(0).(*models.Task)
	return task, args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, id string) (*models.Task, error) {
	args := m.Called(ctx, id)
	task, _ := args.Get(0).(*models.Task)
	return task, args.Error(1)
}

func (m *MockTaskService) ToggleComplete(ctx context.Context, id string) (*models.Task, error) {
	args := m.Called(ctx, id)
	task, _ := args.Get(0).(*models.Task)
	return task, args.Error(1)
}

func setupTaskHandler() (*MockTaskService, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	mockService := &MockTaskService{}
	handler := handlers.NewTaskHandler(mockService, logging.Discard())

	router := gin.New()
	group := router.Group("/tarea")
	group.POST("/createTarea", handler.CreateTarea)
	group.GET("/listTareas", handler.ListTareas)
	group.PUT("/editTarea/:id", handler.EditTarea)
	group.DELETE("/deleteTarea/:id", handler.DeleteTarea)
	group.PATCH("/markTarea/:id", handler.MarkTarea)

	return mockService, router
}

func riegoTask() *models.Task {
	return &models.Task{
		ID:                     "b0c5d3f2-4a1e-4c55-9a3e-1f7d0b6c2e11",
		Nombre:                 "Riego",
		Description:            "Riego de parcela norte",
		FechaInicio:            "2024-03-01",
		FechaFin:               "2024-03-02",
		NombreYapellidoPersona: "Juan Perez",
	}
}

func riegoInput() models.TaskInput {
	return models.TaskInput{
		Nombre:                 "Riego",
		Description:            "Riego de parcela norte",
		FechaInicio:            "2024-03-01",
		FechaFin:               "2024-03-02",
		NombreYapellidoPersona: "Juan Perez",
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreateTarea(t *testing.T) {
	mockService, router := setupTaskHandler()
	mockService.On("CreateTask", mock.Anything, riegoInput()).Return(riegoTask(), nil)

	w := doJSON(t, router, http.MethodPost, "/tarea/createTarea", riegoInput())

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Tarea creada correctamente", body["message"])
	tarea := body["tarea"].(map[string]interface{})
	assert.Equal(t, riegoTask().ID, tarea["id"])
	assert.Equal(t, false, tarea["estado"])
	mockService.AssertExpectations(t)
}

func TestCreateTareaFormEncoded(t *testing.T) {
	mockService, router := setupTaskHandler()
	mockService.On("CreateTask", mock.Anything, riegoInput()).Return(riegoTask(), nil)

	form := url.Values{}
	form.Set("nombre", "Riego")
	form.Set("description", "Riego de parcela norte")
	form.Set("fechaInicio", "2024-03-01")
	form.Set("fechaFin", "2024-03-02")
	form.Set("nombreYapellidoPersona", "Juan Perez")

	req := httptest.NewRequest(http.MethodPost, "/tarea/createTarea", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestCreateTareaMissingFields(t *testing.T) {
	mockService, router := setupTaskHandler()

	w := doJSON(t, router, http.MethodPost, "/tarea/createTarea", map[string]string{"nombre": "Riego"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	errs := body["errors"].([]interface{})
	assert.Len(t, errs, 4)
	first := errs[0].(map[string]interface{})
	assert.Equal(t, "description", first["field"])
	mockService.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything)
}

func TestCreateTareaInvalidJSON(t *testing.T) {
	mockService, router := setupTaskHandler()

	req := httptest.NewRequest(http.MethodPost, "/tarea/createTarea", strings.NewReader("invalid json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything)
}

func TestCreateTareaValidationError(t *testing.T) {
	mockService, router := setupTaskHandler()
	input := riegoInput()
	input.Nombre = "ab"
	mockService.On("CreateTask", mock.Anything, input).Return(nil, &services.ValidationError{
		Fields: []validation.FieldError{{Field: "nombre", Message: validation.NombreValidationMessage}},
	})

	w := doJSON(t, router, http.MethodPost, "/tarea/createTarea", input)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	errs := body["errors"].([]interface{})
	require.Len(t, errs, 1)
	assert.Equal(t, validation.NombreValidationMessage, errs[0].(map[string]interface{})["message"])
}

func TestCreateTareaPersistenceError(t *testing.T) {
	mockService, router := setupTaskHandler()
	mockService.On("CreateTask", mock.Anything, riegoInput()).
		Return(nil, fmt.Errorf("%w: create: connection refused", services.ErrPersistence))

	w := doJSON(t, router, http.MethodPost, "/tarea/createTarea", riegoInput())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Error creando una nueva tarea", body["message"])
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestListTareas(t *testing.T) {
	mockService, router := setupTaskHandler()
	mockService.On("ListTasks", mock.Anything).Return([]models.Task{*riegoTask()}, nil)

	w := doJSON(t, router, http.MethodGet, "/tarea/listTareas", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Tareas listadas correctamente", body["message"])
	assert.Len(t, body["tareas"], 1)
}

func TestListTareasEmpty(t *testing.T) {
	mockService, router := setupTaskHandler()
	mockService.On("ListTasks", mock.Anything).Return([]models.Task{}, nil)

	w := doJSON(t, router, http.MethodGet, "/tarea/listTareas", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tareas":[]`)
}

func TestListTareasError(t *testing.T) {
	mockService, router := setupTaskHandler()
	mockService.On("ListTasks", mock.Anything).Return(nil, services.ErrPersistence)

	w := doJSON(t, router, http.MethodGet, "/tarea/listTareas", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error listando las tareas", decode(t, w)["message"])
}

func TestEditTareaPartial(t *testing.T) {
	mockService, router := setupTaskHandler()
	task := riegoTask()
	task.Nombre = "Cosecha"

	mockService.On("UpdateTask", mock.Anything, task.ID, mock.MatchedBy(func(p models.TaskPatch) bool {
		return p.Nombre != nil && *p.Nombre == "Cosecha" &&
			p.Description == nil && p.FechaInicio == nil && p.FechaFin == nil && p.NombreYapellidoPersona == nil
	})).Return(task, nil)

	w := doJSON(t, router, http.MethodPut, "/tarea/editTarea/"+task.ID, map[string]interface{}{
		"nombre": "Cosecha",
		"estado": true,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Tarea editada correctamente", body["message"])
	assert.Equal(t, "Cosecha", body["updatedTarea"].(map[string]interface{})["nombre"])
	mockService.AssertExpectations(t)
}

func TestEditTareaNotFound(t *testing.T) {
	mockService, router := setupTaskHandler()
	mockService.On("UpdateTask", mock.Anything, "missing", mock.Anything).Return(nil, services.ErrNotFound)

	w := doJSON(t, router, http.MethodPut, "/tarea/editTarea/missing", map[string]string{"nombre": "Cosecha"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Tarea no encontrada", decode(t, w)["message"])
}

func TestEditTareaError(t *testing.T) {
	mockService, router := setupTaskHandler()
	mockService.On("UpdateTask", mock.Anything, "abc", mock.Anything).Return(nil, errors.New("boom"))

	w := doJSON(t, router, http.MethodPut, "/tarea/editTarea/abc", map[string]string{"nombre": "Cosecha"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error editando la tarea", decode(t, w)["message"])
}

func TestDeleteTarea(t *testing.T) {
	mockService, router := setupTaskHandler()
	task := riegoTask()
	mockService.On("DeleteTask", mock.Anything, task.ID).Return(task, nil).Once()
	mockService.On("DeleteTask", mock.Anything, task.ID).Return(nil, services.ErrNotFound).Once()

	w := doJSON(t, router, http.MethodDelete, "/tarea/deleteTarea/"+task.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Tarea eliminada correctamente", body["message"])
	assert.Equal(t, task.ID, body["eliminarTarea"].(map[string]interface{})["id"])

	w = doJSON(t, router, http.MethodDelete, "/tarea/deleteTarea/"+task.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertExpectations(t)
}

func TestDeleteTareaError(t *testing.T) {
	mockService, router := setupTaskHandler()
	mockService.On("DeleteTask", mock.Anything, "abc").Return(nil, services.ErrPersistence)

	w := doJSON(t, router, http.MethodDelete, "/tarea/deleteTarea/abc", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error eliminando tarea", decode(t, w)["message"])
}

func TestMarkTarea(t *testing.T) {
	mockService, router := setupTaskHandler()
	task := riegoTask()
	task.Estado = true
	mockService.On("ToggleComplete", mock.Anything, task.ID).Return(task, nil)

	w := doJSON(t, router, http.MethodPatch, "/tarea/markTarea/"+task.ID, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["tarea"].(map[string]interface{})["estado"])
}

func TestMarkTareaNotFound(t *testing.T) {
	mockService, router := setupTaskHandler()
	mockService.On("ToggleComplete", mock.Anything, "missing").Return(nil, services.ErrNotFound)

	w := doJSON(t, router, http.MethodPatch, "/tarea/markTarea/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
