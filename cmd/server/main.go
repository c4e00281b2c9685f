package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/MoadE2002/healthcare-sub000/internal/auth"
	"github.com/MoadE2002/healthcare-sub000/internal/config"
	"github.com/MoadE2002/healthcare-sub000/internal/presence"
	"github.com/MoadE2002/healthcare-sub000/internal/server"
	"github.com/MoadE2002/healthcare-sub000/internal/signaling"
	"github.com/MoadE2002/healthcare-sub000/internal/store"
	"github.com/MoadE2002/healthcare-sub000/internal/translate"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()
	logger.Info("rtc server starting",
		zap.String("listen", cfg.ListenAddr),
		zap.String("translate", cfg.TranslateURL),
	)

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	db, err := store.NewPostgres(cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("failed to open postgres", zap.Error(err))
	}
	if err := store.Migrate(db); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	users := store.NewUsers(db)
	notifications := store.NewNotifications(db)

	verifier := auth.NewVerifier(cfg.JWTSecret, users)
	translator := translate.NewClient(cfg.TranslateURL, time.Duration(cfg.TranslateTimeoutSec)*time.Second)

	broker := signaling.New(logger.Named("signaling"), translator)
	coordinator := presence.NewCoordinator(logger.Named("presence"), presence.NewRegistry(), notifications)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.New(logger, broker, coordinator, verifier, notifications, cfg.AllowedOrigins).Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}
