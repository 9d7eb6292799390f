package events

import "fmt"

// Config selects the pub/sub driver.
type Config struct {
	Driver string      `mapstructure:"driver"` // "memory", "redis"
	Redis  RedisConfig `mapstructure:"redis"`
}

// New resolves the configured pub/sub driver.
func New(cfg Config) (PubSub, error) {
	switch cfg.Driver {
	case "memory", "":
		return NewMemoryPubSub(), nil
	case "redis":
		return NewRedisPubSub(cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown events driver: %q", cfg.Driver)
	}
}
