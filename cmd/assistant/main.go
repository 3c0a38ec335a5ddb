package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/deadline-assistant/deadline-assistant/internal/pkg/bootstrap"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/config"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/env"
)

const shutdownTimeout = 15 * time.Second

func main() {
	env.SetupEnvFile()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := bootstrap.NewApplication(ctx, cfg)
	if err != nil {
		log.Fatalf("[Bootstrap] %v", err)
	}
	if err := application.Check(ctx); err != nil {
		log.Warnf("[Bootstrap] Dependency check failed: %v", err)
	}

	go func() {
		<-ctx.Done()
		log.Info("[Bootstrap] Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := application.Shutdown(shutdownCtx); err != nil {
			log.Errorf("[Bootstrap] Shutdown: %v", err)
		}
	}()

	log.Infof("[Bootstrap] Listening on %s (version %s)", cfg.ListenAddr(), cfg.AppVersion)
	if err := application.App.Listen(cfg.ListenAddr()); err != nil {
		log.Fatal(err)
	}
}
