package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foliocore/foliocore/internal/config"
	"github.com/foliocore/foliocore/internal/database"
	"github.com/foliocore/foliocore/internal/database/repositories"
	"github.com/foliocore/foliocore/internal/modules/allocation"
	"github.com/foliocore/foliocore/internal/modules/analysis"
	scoringapi "github.com/foliocore/foliocore/internal/modules/scoring/api"
	"github.com/foliocore/foliocore/internal/scheduler"
	"github.com/foliocore/foliocore/internal/server"
	"github.com/foliocore/foliocore/pkg/logger"
)

func main() {
	// Load configuration first so the logger gets the configured level
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting foliocore")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Wire the analysis pipeline
	snapshots := repositories.NewAnalysisRepository(db.Conn(), log)
	optimizerClient := analysis.NewClient(cfg.OptimizerServiceURL, cfg.OptimizerTimeout, log)
	coordinator := analysis.NewCoordinator(optimizerClient, cfg.AnalysisCacheTTL, log)
	analysisService := analysis.NewService(coordinator, snapshots, log)

	// Background jobs
	sched := scheduler.New(log)
	if err := sched.AddJob("@every 1m", scheduler.NewCacheSweepJob(coordinator, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache sweep job")
	}
	if err := sched.AddJob("0 0 3 * * *", scheduler.NewSnapshotPruneJob(snapshots, cfg.SnapshotMaxAge, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register snapshot prune job")
	}
	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:       cfg.Port,
		Log:        log,
		DB:         db,
		DevMode:    cfg.DevMode,
		Allocation: allocation.NewHandler(log),
		Scoring:    scoringapi.NewHandler(log),
		Analysis:   analysis.NewHandler(analysisService, snapshots, log),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
