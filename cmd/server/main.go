// Command server runs the Autolab self-service portal HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/UB-CSE-IT/Autolab-Self-Service/config"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/api/handler"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/api/router"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/metrics"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/repository"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/service"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/autolab"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/database"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/jwt"
	applogger "github.com/UB-CSE-IT/Autolab-Self-Service/pkg/logger"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/redis"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/tango"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "Run the Autolab self-service portal API",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(configPath)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serve(configPath string) error {
	// 1. config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting portal",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("developer_mode", cfg.Feature.DeveloperMode),
	)

	// 3. database and migrations
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return fmt.Errorf("database connection: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("close database", zap.Error(err))
		}
	}()
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return fmt.Errorf("database migration: %w", err)
	}

	// 4. redis is optional; without it the portal runs without locks,
	// revocation, rate limits or the shared caches.
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, running degraded", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	// 5. learning platform and autograder clients
	var (
		platformCache autolab.Cache
		tangoCache    tango.Cache
	)
	if rdb != nil {
		platformCache = rdb
		tangoCache = rdb
	}
	platform := autolab.NewCachedClient(
		autolab.NewClient(autolab.Options{
			BaseURL:      cfg.Autolab.BaseURL,
			ClientID:     cfg.Autolab.ClientID,
			ClientSecret: cfg.Autolab.ClientSecret,
			RedirectURI:  cfg.Autolab.RedirectURI,
			Timeout:      cfg.Autolab.Timeout,
			Tokens:       autolab.FileTokenStore{Path: cfg.Autolab.RefreshTokenFile},
		}, logger),
		platformCache,
		autolab.TTLs{
			UserCourses: cfg.Cache.UserCoursesTTL,
			CourseUsers: cfg.Cache.CourseUsersTTL,
			Assessments: cfg.Cache.AssessmentsTTL,
			Submissions: cfg.Cache.SubmissionsTTL,
		},
		logger,
	)

	var feed service.SubmissionFeed
	if cfg.Tango.Host != "" {
		feed = tango.NewClient(tango.Options{
			Host:        cfg.Tango.Host,
			Key:         cfg.Tango.Key,
			MaxPollRate: cfg.Tango.MaxPollRate,
			Timeout:     cfg.Tango.Timeout,
		}, tangoCache, logger)
	}

	// 6. metrics
	var (
		recorder metrics.Recorder
		gatherer prometheus.Gatherer
	)
	if cfg.Feature.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewPrometheus(reg, "portal")
		gatherer = reg
	}

	// 7. repository -> service -> handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, platform, feed, jwtMgr, rdb, recorder, logger)
	h := handler.NewHandler(cfg, svc)

	engine := router.Setup(cfg, h, jwtMgr, rdb, db, gatherer, logger)

	// 8. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     engine,
		ReadTimeout: 15 * time.Second,
		// Allocation runs wait on the platform.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	logger.Info("server stopped")
	return nil
}
