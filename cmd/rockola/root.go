package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/keshon/rockola/internal/config"
	"github.com/keshon/rockola/internal/discord"
	"github.com/keshon/rockola/internal/logger"
	"github.com/keshon/rockola/internal/stats"
	"github.com/keshon/rockola/internal/storage"
)

const (
	appName     = "rockola"
	redisPrefix = "rockola"
)

var envFiles []string

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "Rockola plays music in Discord voice channels through Lavalink.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runBot(cmd.Context())
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Discord and Lavalink and serve commands (default)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runBot(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")
}

// Execute runs the CLI until SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles what every subcommand opens.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store *storage.Storage
	tally stats.Store
	redis *redis.Client
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	})
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}

	store, err := storage.New(ctx, cfg.StoragePath)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, store: store}
	if err := a.openStats(ctx); err != nil {
		_ = a.close()
		return nil, err
	}
	return a, nil
}

// openStats picks the play tally backend.
func (a *app) openStats(ctx context.Context) error {
	switch a.cfg.StatsBackend {
	case "redis":
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return errors.Wrapf(err, "ping redis at %s", a.cfg.Redis.Addr)
		}
		a.tally = stats.NewRedisStore(a.redis, redisPrefix)
	case "datastore":
		a.tally = stats.NewPersistentStore(a.store)
	default:
		a.tally = stats.NewMemoryStore()
	}
	a.log.Info("play tally backend selected", zap.String("backend", a.cfg.StatsBackend))
	return nil
}

func (a *app) close() error {
	var err error
	if a.redis != nil {
		err = a.redis.Close()
	}
	if cerr := a.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	_ = a.log.Sync()
	return err
}

func runBot(ctx context.Context) error {
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			a.log.Warn("close resources", zap.Error(err))
		}
	}()

	a.log.Info("starting bot", zap.String("app", appName), zap.String("lavalink", a.cfg.Lavalink.Host))
	bot, err := discord.New(a.cfg, a.store, a.tally, a.log)
	if err != nil {
		return err
	}
	if err := bot.Run(ctx); err != nil {
		return err
	}
	a.log.Info("bot exited cleanly")
	return nil
}
