package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"

	"quiethours/internal/config"
	"quiethours/internal/database"
	"quiethours/internal/email"
	"quiethours/internal/logger"
	"quiethours/internal/prefs"
	"quiethours/internal/reminder"
	"quiethours/internal/sessions"
)

func main() {
	lgr := logger.New("reminder-engine")
	logger.SetDefault(lgr)
	lgr.Info("Starting Reminder Engine...")

	cfg, err := config.Load()
	if err != nil {
		lgr.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	lgr.Info("Configuration loaded",
		"port", cfg.Port,
		"timezone", cfg.Timezone.String(),
		"interval", cfg.Interval.String(),
		"tolerance", cfg.Tolerance.String())

	// The pool is owned here: opened once, handed to repositories by
	// reference, closed on the way out.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := database.New(connectCtx, cfg.DBUrl)
	connectCancel()
	if err != nil {
		lgr.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	lgr.Info("Connected to PostgreSQL")

	// Outcome journal is optional: without redis the engine runs with
	// journaling disabled.
	var journal *reminder.Journal
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			lgr.Warn("Redis unreachable, running without outcome journal", "error", err)
			redisClient.Close()
		} else {
			journal = reminder.NewJournal(redisClient, lgr)
			lgr.Info("Outcome journal initialized", "redis", cfg.RedisAddr)
		}
	}

	sessionRepo := sessions.NewRepository(db)
	prefRepo := prefs.NewRepository(db)

	emailConfig := email.NewConfig()
	sender := email.NewSender(emailConfig, lgr)
	lgr.Info("Email sender initialized", "mode", emailConfig.Mode)

	matcher := reminder.NewMatcherWithTolerance(cfg.Timezone, cfg.Tolerance)
	coordinator := reminder.NewCoordinator(sessionRepo, prefRepo, matcher, sender, journal, lgr)
	scheduler := reminder.NewScheduler(coordinator, sessionRepo, cfg.Timezone, cfg.Interval, cfg.StartupDelay, lgr)

	go scheduler.Start(ctx)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	opsHandler := reminder.NewHandler(scheduler, sessionRepo, db, journal, cfg.TriggerToken, lgr)
	sessionHandler := sessions.NewHandler(sessionRepo, cfg.Timezone, lgr)
	prefHandler := prefs.NewHandler(prefRepo, lgr)

	r.GET("/health", opsHandler.HealthCheck)
	r.GET("/stats", opsHandler.Stats)

	cycles := r.Group("/cycles")
	{
		cycles.GET("/status", opsHandler.CycleStatus)
		cycles.POST("", opsHandler.RunCycle)
	}

	sessionsGroup := r.Group("/sessions")
	{
		sessionsGroup.POST("", sessionHandler.CreateSession)
		sessionsGroup.GET("", sessionHandler.GetSessions)
		sessionsGroup.GET("/:id", sessionHandler.GetSession)
		sessionsGroup.PUT("/:id", sessionHandler.UpdateSession)
		sessionsGroup.DELETE("/:id", sessionHandler.DeleteSession)
		sessionsGroup.POST("/:id/reset-reminder", opsHandler.ResetReminder)
		sessionsGroup.GET("/:id/outcome", opsHandler.DeliveryOutcome)
	}

	preferences := r.Group("/preferences")
	{
		preferences.GET("/:user_id", prefHandler.GetPreference)
		preferences.PUT("/:user_id", prefHandler.UpsertPreference)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	go func() {
		lgr.Info("HTTP server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lgr.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lgr.Info("Shutting down Reminder Engine...")

	// Stop scheduling new cycles; a cycle already in flight completes on a
	// detached context before the loop exits.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lgr.Error("HTTP server forced to shutdown", "error", err)
	}

	lgr.Info("Reminder Engine stopped")
}
