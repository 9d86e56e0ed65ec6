package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"istc-sms/backend/config"
	"istc-sms/backend/internal/api/handler"
	"istc-sms/backend/internal/api/router"
	"istc-sms/backend/internal/grading"
	"istc-sms/backend/internal/repository"
	"istc-sms/backend/internal/service"
	"istc-sms/backend/pkg/database"
	"istc-sms/backend/pkg/jwt"
	applogger "istc-sms/backend/pkg/logger"
	"istc-sms/backend/pkg/redis"
)

func main() {
	// 1. configuration
	cfg, err := config.Load(os.Getenv("ISTC_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. database
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB failed", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	// 4. Redis is optional: without it import progress is only logged and
	// rate limiting is off.
	var progress service.ProgressStore
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, import progress and rate limiting disabled", zap.Error(err))
		rdb = nil
	} else {
		progress = rdb
	}

	// 5. identity tokens
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. grading policy
	scale, err := grading.NewScaleFromConfig(&cfg.Grading)
	if err != nil {
		logger.Fatal("invalid grading scale", zap.Error(err))
	}

	// 7. Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, scale, progress, logger)
	h := handler.NewHandler(svc)

	// 8. routes
	engine := router.Setup(cfg, h, jwtMgr, rdb, db, logger)

	// 9. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	sqlDB.Close()

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("server stopped")
}
