package provider

import (
	"fmt"

	"github.com/parleylive/room-coordinator/internal/token"
)

// Config selects and configures the active provider variant. The
// variant is resolved once at startup, never per call.
type Config struct {
	Driver  string        `mapstructure:"driver"` // "livekit", "local"
	LiveKit LiveKitConfig `mapstructure:"livekit"`
}

// New resolves the configured provider variant.
func New(cfg Config, issuer *token.Issuer) (Provider, error) {
	switch cfg.Driver {
	case "livekit":
		return NewLiveKitProvider(cfg.LiveKit, issuer)
	case "local", "":
		return NewLocalProvider(issuer, cfg.LiveKit.WSURL), nil
	default:
		return nil, fmt.Errorf("unknown provider driver: %q", cfg.Driver)
	}
}
