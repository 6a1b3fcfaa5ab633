// Package taskstate keeps the client-side copy of the task list in sync with
// the API.
package taskstate

import (
	"context"
	"sync"

	"almacenadora/backend/internal/client"
	"almacenadora/backend/internal/models"
)

// API is the part of client.Client the store drives.
type API interface {
	GetTasks(ctx context.Context) client.Result[[]models.Task]
	AddTask(ctx context.Context, input models.TaskInput) client.Result[*models.Task]
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch) client.Result[*models.Task]
	DeleteTask(ctx context.Context, id string) client.Result[*models.Task]
	MarkTask(ctx context.Context, id string) client.Result[*models.Task]
}

type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

type Notification struct {
	Level   Level
	Message string
	Err     error
}

type Notifier interface {
	Notify(n Notification)
}

type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

const (
	MsgAdded        = "Tarea agregada correctamente"
	MsgUpdated      = "Tarea actualizada correctamente"
	MsgDeleted      = "Tarea eliminada correctamente"
	MsgMarked       = "Estado de la tarea actualizado"
	MsgAddFailed    = "Error al agregar la tarea"
	MsgUpdateFailed = "Error al actualizar la tarea"
	MsgDeleteFailed = "Error al eliminar la tarea"
	MsgMarkFailed   = "Error al marcar la tarea"
	MsgFetchFailed  = "Error al obtener las tareas"
)

// Snapshot is what subscribers see after every change.
type Snapshot struct {
	Tasks     []models.Task
	IsLoading bool
}

// Store holds the last fetched task list and a loading flag. Every mutation
// is followed by a full refetch whether or not it succeeded; the list is
// never patched locally.
type Store struct {
	api      API
	notifier Notifier

	mu          sync.Mutex
	tasks       []models.Task
	pending     int
	subscribers map[int]func(Snapshot)
	nextID      int
}

func NewStore(api API, notifier Notifier) *Store {
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}
	return &Store{
		api:         api,
		notifier:    notifier,
		tasks:       []models.Task{},
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Tasks returns a copy of the current list.
func (s *Store) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Task(nil), s.tasks...)
}

func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending > 0
}

// Subscribe registers fn for change events and returns a function that
// removes it.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) GetTasks(ctx context.Context) error {
	s.begin()
	defer s.end()

	return s.refetch(ctx)
}

func (s *Store) AddTask(ctx context.Context, input models.TaskInput) error {
	return s.mutate(ctx, MsgAdded, MsgAddFailed, func() error {
		return s.api.AddTask(ctx, input).Err
	})
}

func (s *Store) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) error {
	return s.mutate(ctx, MsgUpdated, MsgUpdateFailed, func() error {
		return s.api.UpdateTask(ctx, id, patch).Err
	})
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.mutate(ctx, MsgDeleted, MsgDeleteFailed, func() error {
		return s.api.DeleteTask(ctx, id).Err
	})
}

func (s *Store) MarkTask(ctx context.Context, id string) error {
	return s.mutate(ctx, MsgMarked, MsgMarkFailed, func() error {
		return s.api.MarkTask(ctx, id).Err
	})
}

// mutate returns the error of the write itself; a failed refetch is only
// notified.
func (s *Store) mutate(ctx context.Context, okMsg, failMsg string, call func() error) error {
	s.begin()
	defer s.end()

	err := call()
	if err != nil {
		s.notifier.Notify(Notification{Level: LevelError, Message: failMsg, Err: err})
	} else {
		s.notifier.Notify(Notification{Level: LevelSuccess, Message: okMsg})
	}

	_ = s.refetch(ctx)
	return err
}

func (s *Store) refetch(ctx context.Context) error {
	res := s.api.GetTasks(ctx)
	if res.Err != nil {
		s.notifier.Notify(Notification{Level: LevelError, Message: MsgFetchFailed, Err: res.Err})
		return res.Err
	}

	tasks := res.Value
	if tasks == nil {
		tasks = []models.Task{}
	}

	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
	s.publish()
	return nil
}

func (s *Store) begin() {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
	s.publish()
}

func (s *Store) end() {
	s.mu.Lock()
	s.pending--
	s.mu.Unlock()
	s.publish()
}

func (s *Store) publish() {
	s.mu.Lock()
	snapshot := Snapshot{
		Tasks:     append([]models.Task(nil), s.tasks...),
		IsLoading: s.pending > 0,
	}
	subscribers := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}
