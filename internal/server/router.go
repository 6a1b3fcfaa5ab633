// Package server assembles the gin engine.
package server

import (
	"almacenadora/backend/internal/config"
	"almacenadora/backend/internal/handlers"
	"almacenadora/backend/internal/middleware"
	"almacenadora/backend/internal/monitoring"
	"almacenadora/backend/internal/services"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Dependencies struct {
	Config      *config.Config
	Logger      *log.Logger
	TaskService services.TaskService
	Health      *monitoring.HealthChecker
	Metrics     *monitoring.Metrics
	// RateLimiter is only consulted when rate limiting is enabled.
	RateLimiter *middleware.RateLimiter
}

func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryWithLog(deps.Logger))
	router.Use(middleware.RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
	}
	router.Use(cors.New(corsConfig(deps.Config.CORS)))
	if deps.Config.RateLimit.Enabled && deps.RateLimiter != nil {
		router.Use(middleware.RateLimit(deps.RateLimiter))
	}

	taskHandler := handlers.NewTaskHandler(deps.TaskService, deps.Logger)

	tarea := router.Group("/tarea")
	{
		tarea.POST("/createTarea", taskHandler.CreateTarea)
		tarea.GET("/listTareas", taskHandler.ListTareas)
		tarea.PUT("/editTarea/:id", taskHandler.EditTarea)
		tarea.DELETE("/deleteTarea/:id", taskHandler.DeleteTarea)
		tarea.PATCH("/markTarea/:id", taskHandler.MarkTarea)
	}

	if deps.Health != nil {
		router.GET("/health", deps.Health.HealthHandler())
		router.GET("/health/ready", deps.Health.ReadinessHandler())
		router.GET("/health/live", deps.Health.LivenessHandler())
	}
	if deps.Metrics != nil {
		router.GET("/metrics", deps.Metrics.Handler())
	}

	return router
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}

	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = cfg.AllowedOrigins
	if len(c.AllowOrigins) == 0 {
		c.AllowAllOrigins = true
	}
	return c
}
