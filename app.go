package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"almacenadora/backend/internal/cache"
	"almacenadora/backend/internal/config"
	"almacenadora/backend/internal/database"
	"almacenadora/backend/internal/middleware"
	"almacenadora/backend/internal/monitoring"
	"almacenadora/backend/internal/repositories"
	"almacenadora/backend/internal/server"
	"almacenadora/backend/internal/services"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm/logger"
)

// app holds everything main starts and later has to stop.
type app struct {
	cfg         *config.Config
	logger      *log.Logger
	server      *http.Server
	rateLimiter *middleware.RateLimiter
	closers     []namedCloser
}

type namedCloser struct {
	name  string
	close func(ctx context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}
	health := monitoring.NewHealthChecker(0)
	metrics := monitoring.NewMetrics()

	repo, err := a.openTaskStore(ctx, health)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	var taskService services.TaskService = services.NewTaskService(repo)
	if cfg.Redis.Enabled {
		redisCache := cache.NewRedisCache(redisCacheConfig(cfg))
		a.closers = append(a.closers, namedCloser{"redis", func(context.Context) error { return redisCache.Close() }})
		health.RegisterOptional("redis", redisCache.Health)
		metrics.RegisterSource("cache", func() interface{} { return redisCache.Stats() })
		taskService = services.NewCachedTaskService(taskService, redisCache, cfg.Cache.ListTTL, logger)
		logger.Info("task list cache enabled", "addr", cfg.GetRedisAddr(), "ttl", cfg.Cache.ListTTL)
	}

	if cfg.RateLimit.Enabled {
		a.rateLimiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMin,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   cfg.RateLimit.CleanupInterval,
		})
	}

	if cfg.Server.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := server.NewRouter(server.Dependencies{
		Config:      cfg,
		Logger:      logger,
		TaskService: taskService,
		Health:      health,
		Metrics:     metrics,
		RateLimiter: a.rateLimiter,
	})

	a.server = &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return a, nil
}

func (a *app) openTaskStore(ctx context.Context, health *monitoring.HealthChecker) (repositories.TaskRepository, error) {
	cfg := a.cfg

	if cfg.Database.Driver == config.DriverMongo {
		conn, err := database.ConnectMongo(ctx, database.MongoConfig{
			URI:            cfg.Database.MongoURI,
			Database:       cfg.Database.MongoDatabase,
			ConnectTimeout: cfg.Database.ConnectTimeout,
			MaxPoolSize:    uint64(max(cfg.Database.MaxOpenConns, 0)),
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, namedCloser{"mongo", conn.Close})
		health.Register("database", conn.HealthContext)
		a.logger.Info("connected to mongo", "database", cfg.Database.MongoDatabase, "collection", cfg.Database.MongoCollection)

		return repositories.NewMongoTaskRepository(conn.Database.Collection(cfg.Database.MongoCollection)), nil
	}

	logLevel := logger.Warn
	if cfg.IsProduction() {
		logLevel = logger.Error
	}
	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        logLevel,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, namedCloser{cfg.Database.Driver, func(context.Context) error { return pool.Close() }})
	health.Register("database", pool.HealthContext)

	repo := repositories.NewGormTaskRepository(pool.DB)
	if err := repo.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate tasks table: %w", err)
	}
	a.logger.Info("connected to database", "driver", cfg.Database.Driver)

	return repo, nil
}

func redisCacheConfig(cfg *config.Config) *cache.CacheConfig {
	c := cache.DefaultCacheConfig()
	c.Addr = cfg.GetRedisAddr()
	c.Password = cfg.Redis.Password
	c.DB = cfg.Redis.DB
	c.PoolSize = cfg.Redis.PoolSize
	c.MinIdleConns = cfg.Redis.MinIdleConns
	c.MaxRetries = cfg.Redis.MaxRetries
	c.DialTimeout = cfg.Redis.DialTimeout
	c.ReadTimeout = cfg.Redis.ReadTimeout
	c.WriteTimeout = cfg.Redis.WriteTimeout
	return c
}

// start serves HTTP in the background. A listener failure is reported on the
// returned channel.
func (a *app) start(ctx context.Context) <-chan error {
	errCh := make(chan error, 1)

	if a.rateLimiter != nil {
		go a.rateLimiter.Run(ctx)
	}

	go func() {
		a.logger.Info("server listening", "addr", a.server.Addr, "env", a.cfg.Server.Environment)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh
}

func (a *app) shutdown(ctx context.Context) error {
	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}
	if err := a.close(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// close releases store and cache connections in reverse order of opening.
func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
