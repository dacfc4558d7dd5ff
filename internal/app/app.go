// Package app assembles the bot from its parts: storage backend,
// conversation state, event handler and reminder scheduler. Binaries
// stay thin and delegate here.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"todobot/internal/bot"
	"todobot/internal/config"
	"todobot/internal/dialog"
	"todobot/internal/scheduler"
	"todobot/internal/storage"
	"todobot/internal/telemetry"
)

type Options struct {
	Config    *config.Config
	Responder bot.Responder
	Logger    *log.Logger
	Events    telemetry.Repository
}

type App struct {
	Handler   *bot.Handler
	Scheduler *scheduler.Scheduler

	store  storage.Store
	logger *log.Logger
}

func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	events := opts.Events
	if events == nil {
		events = telemetry.NewMemoryRepository()
	}

	store, err := storage.Open(storage.Options{
		Backend:     cfg.Storage.Backend,
		DataDir:     cfg.Storage.DataDir,
		DatabaseURL: cfg.Storage.DatabaseURL,
		Logger:      logger,
		Events:      events,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Reminders.Timezone)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Reminders.Timezone, err)
	}

	handler := bot.NewHandler(store, dialog.NewStore(), opts.Responder, logger, events)
	sched := scheduler.New(store, bot.NewReminderNotifier(opts.Responder), scheduler.Options{
		Interval:  time.Duration(cfg.Reminders.TickMinutes) * time.Minute,
		FromHour:  cfg.Reminders.FromHour,
		UntilHour: cfg.Reminders.UntilHour,
		Location:  loc,
		Logger:    logger,
		Events:    events,
	})

	return &App{Handler: handler, Scheduler: sched, store: store, logger: logger}, nil
}

// Run drives the reminder loop until ctx is done.
func (a *App) Run(ctx context.Context) {
	a.logger.Printf("reminder scheduler running")
	a.Scheduler.Run(ctx)
}

func (a *App) Close() error {
	return a.store.Close()
}
