package main // entry point of the exam seating API

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/exam-seating/internal/config"
	"github.com/iliyamo/exam-seating/internal/database"
	"github.com/iliyamo/exam-seating/internal/handler"
	"github.com/iliyamo/exam-seating/internal/layouts"
	"github.com/iliyamo/exam-seating/internal/logger"
	"github.com/iliyamo/exam-seating/internal/middleware"
	"github.com/iliyamo/exam-seating/internal/queue"
	"github.com/iliyamo/exam-seating/internal/repository"
	"github.com/iliyamo/exam-seating/internal/router"
	"github.com/iliyamo/exam-seating/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real environment wins

	cfg := config.Load()
	lc := config.LoadLogConfig()
	zl, err := logger.New(lc.Level, lc.Format, lc.Service)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		zl.Fatal("database connect failed", zap.Error(err))
	}
	defer db.Close()

	seatingCfg := config.LoadSeatingConfig()
	templates, err := layouts.LoadFile(seatingCfg.TemplatesFile)
	if err != nil {
		zl.Fatal("room templates invalid", zap.String("file", seatingCfg.TemplatesFile), zap.Error(err))
	}

	// Redis is optional: without it the cache and the limiter pass through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		zl.Warn("redis unavailable, cache and rate limit disabled")
	} else {
		defer rdb.Close()
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, zl)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, zl)

	rooms := repository.NewRoomRepo(db)
	examinees := repository.NewExamineeRepo(db)
	sessions := repository.NewSessionRepo(db)
	plans := repository.NewPlanRepo(db)
	publisher := service.NewPublisher(cfg.AMQPURL, zl)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			zl.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID))
			return nil
		},
	}))

	router.RegisterRoutes(e, db)
	users := repository.NewUserRepo(db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db), zl), cfg.JWTSecret)
	router.RegisterSeating(e, router.Seating{
		Rooms:      handler.NewRoomHandler(rooms, templates, cache, zl),
		Examinees:  handler.NewExamineeHandler(examinees, cache, zl),
		Sessions:   handler.NewSessionHandler(sessions, plans, cache, zl),
		Allocation: handler.NewAllocationHandler(rooms, examinees, sessions, plans, publisher, cache, seatingCfg, zl),
		Plans:      handler.NewPlanHandler(plans, cache, zl),
		Dashboard:  handler.NewDashboardHandler(repository.NewStatsRepo(db), zl),
		Users:      handler.NewUserHandler(users, zl),
		Cache:      cache,
		Limit:      limiter,
	}, cfg.JWTSecret)

	var wg sync.WaitGroup
	if seatingCfg.ConsumerEnabled {
		consumer := queue.NewConsumer(cfg.AMQPURL, seatingCfg.EventLogDir, zl)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zl.Error("plan consumer stopped", zap.Error(err))
			}
		}()
	}

	addr := ":" + cfg.Port
	go func() {
		zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.Int("templates", len(templates)))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("shutdown failed", zap.Error(err))
	}
	wg.Wait()
}
