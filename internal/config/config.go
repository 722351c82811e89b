// Package config loads settings from the environment, reading a .env file
// first when one exists.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	DiscordToken     string `env:"DISCORD_TOKEN,required"`
	ClientID         string `env:"CLIENT_ID"`
	GuildID          string `env:"GUILD_ID"`
	RegisterCommands bool   `env:"REGISTER_COMMANDS" envDefault:"false"`

	Lavalink Lavalink

	DefaultSearchPlatform string        `env:"DEFAULT_SEARCH_PLATFORM" envDefault:"ytsearch"`
	DefaultVolume         int           `env:"DEFAULT_VOLUME" envDefault:"50"`
	QueuePageSize         int           `env:"QUEUE_PAGE_SIZE" envDefault:"10"`
	SearchCacheTTL        time.Duration `env:"SEARCH_CACHE_TTL" envDefault:"10m"`
	EmptyQueueTimeout     time.Duration `env:"EMPTY_QUEUE_TIMEOUT" envDefault:"30s"`
	MaxPreviousTracks     int           `env:"MAX_PREVIOUS_TRACKS" envDefault:"25"`

	Reconnect Reconnect

	StoragePath  string `env:"STORAGE_PATH" envDefault:"data/datastore.json"`
	StatsBackend string `env:"STATS_BACKEND" envDefault:"memory"`
	Redis        Redis

	Log Log
}

type Lavalink struct {
	NodeID   string  `env:"LAVALINK_NODE_ID" envDefault:"main-node"`
	Host     string  `env:"LAVALINK_HOST" envDefault:"localhost"`
	Port     int     `env:"LAVALINK_PORT" envDefault:"8080"`
	Password string  `env:"LAVALINK_PASSWORD" envDefault:"youshallnotpass"`
	Secure   bool    `env:"LAVALINK_SECURE" envDefault:"false"`
	RPS      float64 `env:"LAVALINK_RPS" envDefault:"5"`
}

type Reconnect struct {
	BaseDelay   time.Duration `env:"RECONNECT_BASE_DELAY" envDefault:"3s"`
	MaxAttempts int           `env:"RECONNECT_MAX_ATTEMPTS" envDefault:"10"`
}

type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type Log struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	File       string `env:"LOG_FILE"`
	MaxSize    int    `env:"LOG_MAX_SIZE" envDefault:"50"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	MaxAge     int    `env:"LOG_MAX_AGE" envDefault:"28"`
}

// Load reads .env files (missing ones are fine), parses the environment and
// validates the result.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "read .env")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the bot cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.DiscordToken) == "":
		return errors.New("DISCORD_TOKEN is empty")
	case c.QueuePageSize <= 0:
		return errors.Errorf("QUEUE_PAGE_SIZE must be positive, got %d", c.QueuePageSize)
	case c.SearchCacheTTL <= 0:
		return errors.Errorf("SEARCH_CACHE_TTL must be positive, got %s", c.SearchCacheTTL)
	case c.Reconnect.MaxAttempts <= 0:
		return errors.Errorf("RECONNECT_MAX_ATTEMPTS must be positive, got %d", c.Reconnect.MaxAttempts)
	case c.Reconnect.BaseDelay <= 0:
		return errors.Errorf("RECONNECT_BASE_DELAY must be positive, got %s", c.Reconnect.BaseDelay)
	case c.Lavalink.Port <= 0 || c.Lavalink.Port > 65535:
		return errors.Errorf("LAVALINK_PORT out of range: %d", c.Lavalink.Port)
	}

	switch c.StatsBackend {
	case "memory", "datastore", "redis":
	default:
		return errors.Errorf("STATS_BACKEND must be memory, datastore or redis, got %q", c.StatsBackend)
	}
	return nil
}
