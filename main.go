package main

import (
	"context"
	"os"

	"almacenadora/backend/internal/config"
	"almacenadora/backend/internal/logging"

	gfshutdown "github.com/gelmium/graceful-shutdown"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.New(os.Stderr, logging.Options{}).Fatal("failed to load config", "err", err)
	}

	logger := logging.New(os.Stderr, logging.Options{
		Level:           cfg.Log.Level,
		Format:          cfg.Log.Format,
		ReportTimestamp: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to start", "err", err)
	}

	serveErr := a.start(ctx)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"tareas-api": func(ctx context.Context) error {
				logger.Info("shutting down")
				cancel()
				return a.shutdown(ctx)
			},
		},
	)

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("server stopped", "err", err)
			_ = a.shutdown(context.Background())
			os.Exit(1)
		}
	case code := <-wait:
		logger.Info("server exited", "code", code)
		os.Exit(code)
	}

	os.Exit(<-wait)
}
