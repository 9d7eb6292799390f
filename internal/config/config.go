package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/parleylive/room-coordinator/internal/coordinator"
	"github.com/parleylive/room-coordinator/internal/events"
	"github.com/parleylive/room-coordinator/internal/provider"
	"github.com/parleylive/room-coordinator/pkg/log"
)

type Config struct {
	Server   ServerConfig
	Provider provider.Config
	Token    TokenConfig
	Room     coordinator.Config
	Events   events.Config
	Log      log.Config
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type TokenConfig struct {
	// TTL bounds issued access credentials.
	TTL time.Duration `mapstructure:"ttl"`
}

type MetricsConfig struct {
	// Interval between periodic room-count log lines.
	Interval time.Duration `mapstructure:"interval"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file, rely on defaults and env vars.
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8085)
	v.SetDefault("provider.driver", "livekit")
	v.SetDefault("provider.livekit.url", "http://localhost:7880")
	v.SetDefault("provider.livekit.ws_url", "")
	v.SetDefault("provider.livekit.timeout", 10*time.Second)
	v.SetDefault("token.ttl", 24*time.Hour)
	v.SetDefault("room.max_participants", 0)
	v.SetDefault("room.empty_timeout", 5*time.Minute)
	v.SetDefault("room.provider_timeout", 10*time.Second)
	v.SetDefault("events.driver", "memory")
	v.SetDefault("events.redis.address", "localhost:6379")
	v.SetDefault("events.redis.db", 0)
	v.SetDefault("events.redis.prefix", "room-coordinator")
	v.SetDefault("metrics.interval", time.Minute)
	v.SetDefault("log.level", "info")

	// Bind environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("provider.driver", "PROVIDER_DRIVER")
	v.BindEnv("provider.livekit.url", "LIVEKIT_URL")
	v.BindEnv("provider.livekit.ws_url", "LIVEKIT_WS_URL")
	v.BindEnv("provider.livekit.api_key", "LIVEKIT_API_KEY")
	v.BindEnv("provider.livekit.api_secret", "LIVEKIT_API_SECRET")
	v.BindEnv("token.ttl", "TOKEN_TTL")
	v.BindEnv("room.max_participants", "ROOM_MAX_PARTICIPANTS")
	v.BindEnv("events.driver", "EVENTS_DRIVER")
	v.BindEnv("events.redis.address", "REDIS_ADDRESS")
	v.BindEnv("events.redis.password", "REDIS_PASSWORD")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
