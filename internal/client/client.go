// Package client talks to the tareas HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"almacenadora/backend/internal/models"
)

const (
	DefaultBaseURL = "http://localhost:2676/tarea"
	DefaultTimeout = time.Second
)

var ErrNotFound = errors.New("tarea no encontrada")

// Result carries either a value or the error that prevented it. Every client
// call returns one; none of them panic or return a bare error.
type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

func ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Fields     []FieldError
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tareas api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("tareas api: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

type Option func(*Client)

// WithHTTPClient sends requests through hc. hc itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// New applies the options in any order. Without WithHTTPClient the client
// gets its own http.Client with DefaultTimeout; with it, the caller's
// timeout is kept unless WithTimeout is also given, in which case a copy of
// hc carries the new timeout.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{baseURL: strings.TrimRight(baseURL, "/")}
	for _, opt := range opts {
		opt(c)
	}

	switch {
	case c.httpClient == nil:
		timeout := c.timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	case c.timeout > 0:
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

type tareaEnvelope struct {
	Message      string        `json:"message"`
	Tarea        *models.Task  `json:"tarea"`
	Tareas       []models.Task `json:"tareas"`
	UpdatedTarea *models.Task  `json:"updatedTarea"`
	Eliminar     *models.Task  `json:"eliminarTarea"`
}

func (c *Client) AddTask(ctx context.Context, input models.TaskInput) Result[*models.Task] {
	var env tareaEnvelope
	if err := c.do(ctx, http.MethodPost, "/createTarea", input, &env); err != nil {
		return fail[*models.Task](err)
	}
	return ok(env.Tarea)
}

func (c *Client) GetTasks(ctx context.Context) Result[[]models.Task] {
	var env tareaEnvelope
	if err := c.do(ctx, http.MethodGet, "/listTareas", nil, &env); err != nil {
		return fail[[]models.Task](err)
	}
	if env.Tareas == nil {
		env.Tareas = []models.Task{}
	}
	return ok(env.Tareas)
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) Result[*models.Task] {
	var env tareaEnvelope
	if err := c.do(ctx, http.MethodPut, "/editTarea/"+url.PathEscape(id), patch, &env); err != nil {
		return fail[*models.Task](err)
	}
	return ok(env.UpdatedTarea)
}

func (c *Client) DeleteTask(ctx context.Context, id string) Result[*models.Task] {
	var env tareaEnvelope
	if err := c.do(ctx, http.MethodDelete, "/deleteTarea/"+url.PathEscape(id), nil, &env); err != nil {
		return fail[*models.Task](err)
	}
	return ok(env.Eliminar)
}

func (c *Client) MarkTask(ctx context.Context, id string) Result[*models.Task] {
	var env tareaEnvelope
	if err := c.do(ctx, http.MethodPatch, "/markTarea/"+url.PathEscape(id), nil, &env); err != nil {
		return fail[*models.Task](err)
	}
	return ok(env.Tarea)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Message string       `json:"message"`
			Errors  []FieldError `json:"errors"`
		}
		if json.Unmarshal(data, &payload) == nil {
			apiErr.Message = payload.Message
			apiErr.Fields = payload.Errors
		}
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
