package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MonkyMars/gecho"

	"github.com/example/storefront/internal/cache"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/routes"
	"github.com/example/storefront/internal/services"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel())

	db, err := database.Connect(cfg.DatabaseURL, cfg.LogSQL)
	if err != nil {
		logger.Fatal("Failed to connect to database", gecho.Field("error", err))
	}

	var revocations services.RevocationStore
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		cancel()
		if err != nil {
			logger.Fatal("Failed to connect to redis", gecho.Field("error", err))
		}
		defer client.Close()
		revocations = cache.NewTokenDenylist(client)
	} else {
		logger.Warn("REDIS_ADDR not set, refresh tokens will not be revoked after use")
	}

	svc := services.New(db, logger, services.TokenSettings{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}, revocations)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := svc.Users.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Fatal("Failed to create bootstrap admin", gecho.Field("error", err))
		}
	}

	app := routes.NewApp(cfg, logger)
	routes.Register(app, svc)

	go func() {
		logger.Info("Starting server", gecho.Field("port", cfg.AppPort), gecho.Field("env", cfg.AppEnv))
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			logger.Fatal("fiber.Listen error", gecho.Field("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("Graceful shutdown failed", gecho.Field("error", err))
	}
}
