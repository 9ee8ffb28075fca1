// Command portalctl runs maintenance tasks against the portal database.
//
//	portalctl db migrate
//	portalctl db status
//	portalctl roster sync cse116-f24
//	portalctl autolab init
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/UB-CSE-IT/Autolab-Self-Service/config"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/database"
	applogger "github.com/UB-CSE-IT/Autolab-Self-Service/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "portalctl",
	Short:         "Maintenance commands for the Autolab self-service portal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
}

// env is what every subcommand needs.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func openEnv() (*env, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, db: db}, nil
}

func (e *env) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = e.logger.Sync()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
