package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/example/ruangtamu/internal/config"
	"github.com/example/ruangtamu/internal/database"
	"github.com/example/ruangtamu/internal/gateway"
	"github.com/example/ruangtamu/internal/handlers"
	"github.com/example/ruangtamu/internal/routes"
	"github.com/example/ruangtamu/internal/services"
	"github.com/example/ruangtamu/internal/session"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()

	store := session.NewDBStore(db)

	// The gateway reads the bearer token through the session manager, so the
	// two are wired in two steps.
	var sessions *session.Manager
	gw := gateway.New(cfg.BackendBaseURL, cfg.GetGuestWebhookID, cfg.RunnerCompletedWebhookID, func() string {
		if sessions == nil {
			return ""
		}
		return sessions.Token()
	}, zlog.With().Str("component", "gateway").Logger())
	sessions = session.NewManager(store, gw, zlog.With().Str("component", "session").Logger())
	sessions.Restore()

	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat, zlog.With().Str("component", "telegram").Logger())
	audit := services.NewDBAuditLog(db, zlog.With().Str("component", "audit").Logger())
	checkin := services.NewCheckinService(gw, audit, telegramService, zlog.With().Str("component", "checkin").Logger())

	poller := services.NewQueuePoller(gw, cfg.QueuePollInterval, zlog.With().Str("component", "queue").Logger())
	poller.Start(context.Background())

	app := fiber.New(fiber.Config{
		AppName:      "RuangTamu Station Console",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, routes.Deps{
		Config:   cfg,
		Gateway:  gw,
		Sessions: sessions,
		Checkin:  checkin,
		Audit:    audit,
		Poller:   poller,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := gw.Ping(pingCtx); err != nil {
		log.Printf("Backend warm-up failed: %v", err)
	}
	cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		poller.Stop()
		_ = app.Shutdown()
	}()

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
