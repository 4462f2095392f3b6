// Package main is the entry point for the CPTrack Hub service.
//
// One process serves both sides of the system: the REST API for tracker
// connection, manual refreshes, the leaderboard and edit request review,
// and the background scheduler that keeps every tracker's platform
// statistics fresh.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cptrack/cptrack-hub/config"
	"github.com/cptrack/cptrack-hub/internal/application/editrequest"
	"github.com/cptrack/cptrack-hub/internal/application/leaderboard"
	"github.com/cptrack/cptrack-hub/internal/application/updater"
	"github.com/cptrack/cptrack-hub/internal/infrastructure/external/platforms"
	"github.com/cptrack/cptrack-hub/internal/infrastructure/persistence/postgres"
	"github.com/cptrack/cptrack-hub/internal/infrastructure/persistence/redis"
	"github.com/cptrack/cptrack-hub/internal/infrastructure/scheduler"
	"github.com/cptrack/cptrack-hub/internal/infrastructure/scheduler/jobs"
	httpapi "github.com/cptrack/cptrack-hub/internal/interface/http"
	"github.com/cptrack/cptrack-hub/pkg/logger"
	"github.com/cptrack/cptrack-hub/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// CONFIGURATION AND LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting CPTrack Hub",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// DATABASE
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	dbCfg := postgres.Config{
		URL:             cfg.Database.URL,
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}
	dbConn, err := postgres.NewConnection(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if cfg.Database.Migrate {
		log.Info("applying database migrations")
		if err := postgres.Migrate(ctx, dbConn); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	log.Info("database ready")

	// ─────────────────────────────────────────────────────────────────────────
	// REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var snapshotCache leaderboard.Cache

	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("redis unavailable, leaderboard snapshots disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			snapshotCache = redis.NewLeaderboardCache(redisCache)
			log.Info("redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// REPOSITORIES AND SERVICES
	// ─────────────────────────────────────────────────────────────────────────
	trackerRepo := postgres.NewTrackerRepository(dbConn)
	editRequestRepo := postgres.NewEditRequestRepository(dbConn)

	registry := platforms.NewRegistry(platformsConfig(cfg), log)

	updaterCfg := updater.DefaultConfig()
	updaterCfg.BatchDelay = cfg.Scheduler.BatchDelay
	updaterCfg.StaleAfter = cfg.Scheduler.StaleAfter
	updaterSvc := updater.NewService(trackerRepo, registry, updaterCfg, log)

	leaderboardSvc := leaderboard.NewService(trackerRepo, snapshotCache, leaderboard.DefaultConfig(), log)
	editRequestSvc := editrequest.NewService(trackerRepo, editRequestRepo, log)

	// ─────────────────────────────────────────────────────────────────────────
	// SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(log)

	refreshJob := jobs.NewRefreshAllJob(updaterSvc, leaderboardSvc, log)
	if err := sched.Register(refreshJob, scheduler.Every(cfg.Scheduler.RefreshInterval)); err != nil {
		return fmt.Errorf("failed to register refresh job: %w", err)
	}

	cleanupJob := jobs.NewCleanupStaleJob(updaterSvc, log)
	cleanupAt := scheduler.DailyAt(cfg.Scheduler.CleanupHour, cfg.Scheduler.CleanupMinute, cfg.Scheduler.Location())
	if err := sched.Register(cleanupJob, cleanupAt); err != nil {
		return fmt.Errorf("failed to register cleanup job: %w", err)
	}

	cohortInterval := cfg.Scheduler.CohortRefreshInterval
	if cohortInterval <= 0 {
		cohortInterval = cfg.Scheduler.RefreshInterval
	}
	for _, cohort := range cfg.Scheduler.Cohorts {
		cohortJob := jobs.NewCohortRefreshJob(cohort, updaterSvc, leaderboardSvc, log)
		if err := sched.Register(cohortJob, scheduler.Every(cohortInterval)); err != nil {
			return fmt.Errorf("failed to register cohort refresh job %q: %w", cohort, err)
		}
		log.Info("cohort refresh registered", "cohort", cohort, "interval", cohortInterval.String())
	}

	if cfg.Scheduler.Enabled {
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		log.Info("scheduler started",
			"refresh_interval", cfg.Scheduler.RefreshInterval.String(),
			"cleanup_at", fmt.Sprintf("%02d:%02d %s", cfg.Scheduler.CleanupHour, cfg.Scheduler.CleanupMinute, cfg.Scheduler.Timezone),
		)
	} else {
		log.Info("scheduler disabled by configuration")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	healthCheckers := map[string]httpapi.HealthChecker{
		"postgres": dbConn,
	}
	if redisCache != nil {
		healthCheckers["redis"] = redisCache
	}

	server := httpapi.NewServer(httpapi.Config{
		Host:         cfg.HTTP.Host,
		Port:         cfg.HTTP.Port,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		AdminToken:   cfg.HTTP.AdminToken,
	}, httpapi.Dependencies{
		Updater:        updaterSvc,
		Leaderboard:    leaderboardSvc,
		EditRequests:   editRequestSvc,
		Scheduler:      sched,
		HealthCheckers: healthCheckers,
		Logger:         log,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown failed", "error", err)
	}
	if cfg.Scheduler.Enabled {
		if err := sched.Stop(); err != nil && err != scheduler.ErrNotRunning {
			log.Warn("scheduler stop failed", "error", err)
		}
	}

	log.Info("shutdown completed")
	return nil
}

// platformsConfig maps application config onto the platform client config.
// Empty URL overrides keep the production endpoints.
func platformsConfig(cfg *config.Config) platforms.Config {
	pc := platforms.DefaultConfig()
	if cfg.Platforms.RequestTimeout > 0 {
		pc.Timeout = cfg.Platforms.RequestTimeout
	}
	if cfg.Platforms.LeetCodeURL != "" {
		pc.LeetCodeBaseURL = cfg.Platforms.LeetCodeURL
	}
	if cfg.Platforms.CodeForcesURL != "" {
		pc.CodeForcesBaseURL = cfg.Platforms.CodeForcesURL
	}
	if cfg.Platforms.CodeChefURL != "" {
		pc.CodeChefBaseURL = cfg.Platforms.CodeChefURL
	}
	if cfg.Platforms.AtCoderURL != "" {
		pc.AtCoderBaseURL = cfg.Platforms.AtCoderURL
	}
	if cfg.Platforms.AtCoderProblemsURL != "" {
		pc.AtCoderProblemsBaseURL = cfg.Platforms.AtCoderProblemsURL
	}

	retryCfg := retry.DefaultConfig()
	if cfg.Platforms.MaxRetries > 0 {
		retryCfg.MaxAttempts = cfg.Platforms.MaxRetries
	}
	if cfg.Platforms.RetryBaseDelay > 0 {
		retryCfg.InitialDelay = cfg.Platforms.RetryBaseDelay
	}
	if cfg.Platforms.RetryMaxDelay > 0 {
		retryCfg.MaxDelay = cfg.Platforms.RetryMaxDelay
	}
	pc.Retry = retryCfg

	if cfg.Platforms.BreakerThreshold > 0 {
		pc.BreakerThreshold = cfg.Platforms.BreakerThreshold
	}
	if cfg.Platforms.BreakerTimeout > 0 {
		pc.BreakerTimeout = cfg.Platforms.BreakerTimeout
	}

	return pc
}

// setupLogger builds the process-wide structured logger.
func setupLogger(cfg *config.Config) *slog.Logger {
	format := logger.Format(cfg.App.LogFormat)
	if cfg.IsDevelopment() {
		format = logger.FormatText
	}
	return logger.New(logger.Options{
		Level:  cfg.App.LogLevel,
		Format: format,
	})
}
