package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"task-tracker-api/internal/activity"
	"task-tracker-api/internal/auth"
	"task-tracker-api/internal/config"
	"task-tracker-api/internal/database"
	"task-tracker-api/internal/handlers"
	"task-tracker-api/internal/metrics"
	"task-tracker-api/internal/notify"
	"task-tracker-api/internal/realtime"
	"task-tracker-api/internal/routes"
	"task-tracker-api/internal/tasks"
	"task-tracker-api/internal/users"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/logger"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "server configuration file")
	flag.Parse()

	cfg := config.MustLoad(configPath)
	log := mustMakeLogger(cfg.LogLevel)

	dbLogLevel := logger.Warn
	if cfg.LogLevel == "DEBUG" {
		dbLogLevel = logger.Info
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	db, err := database.InitDB(cfg.DB, dbLogLevel)
	if err != nil {
		log.Error("cannot init database", "driver", cfg.DB.Driver, "error", err)
		os.Exit(1)
	}

	renderer, err := notify.NewRenderer()
	if err != nil {
		log.Error("cannot parse email templates", "error", err)
		os.Exit(1)
	}
	var mailer notify.Mailer = notify.NewLogMailer(log)
	if cfg.Mail.Host != "" {
		mailer = notify.NewSMTPMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
	}

	hub := realtime.GetHub()
	acts := activity.NewLogger(db)
	agg := metrics.NewAggregator(db, cfg.MetricsCacheTTL)
	tokens := auth.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.TTL)

	svc := tasks.NewService(tasks.Deps{
		DB:       db,
		Notifier: notify.NewDispatcher(renderer, mailer, cfg.HTTP.BaseURL),
		Activity: acts,
		Hub:      hub,
		Metrics:  agg,
		Logger:   log,
	})
	dir := users.NewDirectory(db, log)
	h := handlers.New(handlers.Deps{
		Tasks:     svc,
		Users:     dir,
		Activity:  acts,
		Metrics:   agg,
		Tokens:    tokens,
		Hub:       hub,
		UploadDir: cfg.UploadDir,
		Logger:    log,
	})

	server := http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: routes.SetupRoutes(routes.Options{
			Handler:    h,
			Tokens:     tokens,
			Categories: dir.CategoryOf,
			APIKey:     cfg.HTTP.APIKey,
			Logger:     log,
		}),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("task tracker http server", "address", server.Addr, "db", cfg.DB.Driver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

func mustMakeLogger(logLevel string) *slog.Logger {
	var level slog.Level
	switch logLevel {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
