package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"almacenadora/backend/internal/cache"
	"almacenadora/backend/internal/models"

	"github.com/charmbracelet/log"
)

const (
	listGenerationKey = "tareas:list:gen"
	listKeyPrefix     = "tareas:list:"
)

// listKey names the cached list for one generation of the task set.
func listKey(generation int64) string {
	return listKeyPrefix + strconv.FormatInt(generation, 10)
}

// ListCache is the subset of cache.RedisCache the cached service needs.
type ListCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Counter(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// CachedTaskService keeps the task list in a shared cache. The list is stored
// under the generation that was current before it was read, and every
// successful write bumps the generation, so a list read before a write can
// never be served after it. Cache failures never fail the request.
type CachedTaskService struct {
	taskService TaskService
	cache       ListCache
	ttl         time.Duration
	logger      *log.Logger
}

func NewCachedTaskService(taskService TaskService, listCache ListCache, ttl time.Duration, logger *log.Logger) *CachedTaskService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedTaskService{
		taskService: taskService,
		cache:       listCache,
		ttl:         ttl,
		logger:      logger,
	}
}

func (s *CachedTaskService) ListTasks(ctx context.Context) ([]models.Task, error) {
	generation, err := s.cache.Counter(ctx, listGenerationKey)
	if err != nil {
		s.logger.Warn("task list generation read failed", "err", err)
		return s.taskService.ListTasks(ctx)
	}
	key := listKey(generation)

	var cached []models.Task
	err = s.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("task list cache read failed", "err", err)
	}

	tasks, err := s.taskService.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, tasks, s.ttl); err != nil {
		s.logger.Warn("task list cache write failed", "err", err)
	}

	return tasks, nil
}

func (s *CachedTaskService) CreateTask(ctx context.Context, input models.TaskInput) (*models.Task, error) {
	task, err := s.taskService.CreateTask(ctx, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return task, nil
}

func (s *CachedTaskService) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	task, err := s.taskService.UpdateTask(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return task, nil
}

func (s *CachedTaskService) DeleteTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.taskService.DeleteTask(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return task, nil
}

func (s *CachedTaskService) ToggleComplete(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.taskService.ToggleComplete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return task, nil
}

func (s *CachedTaskService) invalidate(ctx context.Context) {
	generation, err := s.cache.Incr(ctx, listGenerationKey)
	if err != nil {
		s.logger.Warn("task list cache invalidation failed", "err", err)
		return
	}
	if err := s.cache.Delete(ctx, listKey(generation-1)); err != nil {
		s.logger.Warn("stale task list cleanup failed", "err", err)
	}
}
