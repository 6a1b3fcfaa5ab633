package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"almacenadora/backend/internal/client"
	"almacenadora/backend/internal/config"
	"almacenadora/backend/internal/logging"
	"almacenadora/backend/internal/taskstate"
	"almacenadora/backend/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	logger := logging.New(os.Stderr, logging.Options{Prefix: "tareas-tui"})

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(cfg.Client.BaseURL, client.WithTimeout(cfg.Client.Timeout))
	notes := make(tui.ChannelNotifier, 16)
	store := taskstate.NewStore(api, notes)

	if err := tui.Run(ctx, store, notes); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.Error("console exited", "err", err, "api", cfg.Client.BaseURL)
		os.Exit(1)
	}
}
