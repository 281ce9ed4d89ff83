package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/user/deadpage-hunter/pkg/config"
	"github.com/user/deadpage-hunter/pkg/logger"
	"github.com/user/deadpage-hunter/pkg/metrics"
)

// NewRootCmd creates the root command for deadpage.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deadpage",
		Short: "Detect and report dead (404) pages while browsing",
		Long: `deadpage attaches to Chrome over the DevTools protocol, checks every page
the active tab finishes loading for not-found indicators, and reports dead
URLs to a collection endpoint (API_URL).

Configuration is read from the environment and an optional .env file.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("env-file", ".env", "Optional env file with configuration")
	cmd.PersistentFlags().String("log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewPopupCmd())
	cmd.AddCommand(NewSubmitCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewVerifyCmd())
	cmd.AddCommand(NewArchiveCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and initialises logging and metrics. Every
// subcommand calls it first.
func setup(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	level := logger.ParseLevel(cfg.LogLevel)
	logger.Init(cmd.ErrOrStderr(), level)
	slog.Debug("Logger initialized", "level", level.String())

	metrics.Init()
	return cfg, nil
}

func newRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("unable to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}
	slog.Info("Redis connection established", "addr", cfg.RedisAddr)
	return rdb, nil
}
