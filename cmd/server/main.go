package main

import (
	"alcyxob/fitness-scheduler/internal/api"
	"alcyxob/fitness-scheduler/internal/cache"
	"alcyxob/fitness-scheduler/internal/calendar"
	"alcyxob/fitness-scheduler/internal/config"
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository/mongo"
	"alcyxob/fitness-scheduler/internal/service"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("could not load config")
	}

	logger := newLogger(cfg.Log)
	logger.Info().Str("address", cfg.Server.Address).Msg("starting fitness scheduler")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not connect to MongoDB")
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logger.Info().Str("database", cfg.Database.Name).Msg("database connection established")

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureTemplateIndexes(ctx, appDB.Collection("workout_templates"))
		mongo.EnsureAssignmentIndexes(ctx, appDB.Collection("workout_assignments"))
		logger.Debug().Msg("index creation completed")
	}()

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	templateRepo := mongo.NewMongoTemplateRepository(appDB)
	assignmentRepo := mongo.NewMongoAssignmentRepository(appDB)

	// --- External Calendar Adapter ---
	calendarClient := calendar.NewClient(cfg.Calendar.BaseURL, cfg.Calendar.Token, cfg.Calendar.Timeout, logger)

	// --- Read Cache ---
	listCache := cache.New[[]domain.WorkoutAssignment](cfg.Cache.TTL)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	templateService := service.NewTemplateService(templateRepo)
	syncService := service.NewSyncService(assignmentRepo, userRepo, templateRepo, calendarClient, logger)
	scheduleService := service.NewScheduleService(assignmentRepo, listCache)

	// --- Initialize Gin Engine ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, cfg.JWT.Secret, logger, authService, syncService, scheduleService, templateService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen and serve failed")
		}
	}()
	logger.Info().Str("address", cfg.Server.Address).Msg("server listening")

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited")
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var out = os.Stderr
	logger := zerolog.New(out)
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}
