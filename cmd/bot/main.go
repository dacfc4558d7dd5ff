package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"todobot/internal/app"
	"todobot/internal/config"
)

func main() {
	cfg, err := config.Load("todobot.yml")
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("load config: %v", err)
		}
		cfg = config.Default()
	}
	config.FromEnv(cfg)

	a, err := app.New(app.Options{
		Config:    cfg,
		Responder: app.LogResponder{Logger: log.Default()},
		Logger:    log.Default(),
	})
	if err != nil {
		log.Fatalf("build app: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("todobot running: backend=%s tz=%s", cfg.Storage.Backend, cfg.Reminders.Timezone)
	a.Run(ctx)
	log.Printf("shutting down")
}
