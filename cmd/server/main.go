package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/stocki/internal/config"
	"github.com/example/stocki/internal/database"
	"github.com/example/stocki/internal/logger"
	"github.com/example/stocki/internal/middleware"
	"github.com/example/stocki/internal/ratelimit"
	"github.com/example/stocki/internal/repository"
	"github.com/example/stocki/internal/routes"
	"github.com/example/stocki/internal/services"
	"github.com/example/stocki/internal/utils"
)

func main() {
	cfg := config.Load()
	appLogger := logger.New(cfg.LogLevel, cfg.AppEnv)

	db, err := database.Connect(cfg, appLogger)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	var notifier services.Notifier
	switch {
	case cfg.SMTPConfigured():
		notifier = services.NewMailer(services.MailerConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		}, appLogger)
	case cfg.IsLocal():
		appLogger.Warn("SMTP not configured, one-time codes are written to the log")
		notifier = services.NewLogNotifier(appLogger)
	default:
		log.Fatal("SMTP_HOST and SMTP_FROM must be set outside local environments")
	}

	telegram := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat, appLogger)
	sessions := utils.NewSessionIssuer(cfg.JWTSecret, cfg.TokenExpires)

	auth := services.NewAuthService(
		repository.NewUserRepository(db),
		notifier,
		sessions,
		appLogger,
		services.WithLoginCodeTTL(cfg.LoginCodeTTL),
		services.WithAdminAlerts(telegram),
	)
	ledger := services.NewLedgerService(repository.NewLedgerRepository(db), appLogger)

	var limiter middleware.Allower
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			appLogger.Warn("redis unreachable, rate limiting fails open", slog.Any("error", err))
		}
		cancel()
		limiter = ratelimit.New(rdb, "stocki:ratelimit", cfg.RateLimit, cfg.RateBurst)
	}

	app := routes.NewApp(routes.Dependencies{
		DB:          db,
		Logger:      appLogger,
		Auth:        auth,
		Ledger:      ledger,
		Sessions:    sessions,
		Limiter:     limiter,
		Contact:     telegram,
		CORSOrigins: cfg.CORSOrigins,
	})

	go func() {
		appLogger.Info("starting server", slog.String("port", cfg.AppPort))
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			log.Fatalf("fiber.Listen error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("shutdown", slog.Any("error", err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
