// Package provider isolates the coordinator from the media backend's
// protocol. Exactly one concrete variant is active per process, chosen
// once at startup via config.
package provider

import (
	"context"
	"time"
)

// Status classifies backend health.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// HealthStatus is the transient result of a health probe.
type HealthStatus struct {
	Status    Status        `json:"status"`
	Latency   time.Duration `json:"-"`
	LatencyMs int64         `json:"latency_ms"`
	Message   string        `json:"message,omitempty"`
}

// RoomInfo describes a room as the backend sees it.
type RoomInfo struct {
	RoomID          string            `json:"room_id"`
	NumParticipants int               `json:"num_participants"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// CreateRoomOptions tunes backend-side room behaviour.
type CreateRoomOptions struct {
	MaxParticipants int
	// EmptyTimeout is how long the backend keeps a room alive with no
	// participants before expiring it on its own.
	EmptyTimeout time.Duration
}

// TokenOptions controls the capability grant embedded in an access
// credential. Zero value means publish/subscribe/data all allowed and
// the issuer's default TTL.
type TokenOptions struct {
	CanPublish     *bool
	CanSubscribe   *bool
	CanPublishData *bool
	TTL            time.Duration
}

// Provider is the capability contract against the media backend.
//
// CreateRoom must tolerate the backend already knowing the id: some
// backends auto-create rooms on first join, so re-creating is not
// fatal. DeleteRoom is best effort; backend-driven empty-room expiry is
// an acceptable substitute. GenerateToken returns a signed credential
// cryptographically bound to the exact room+participant pair, expiring
// no later than now plus the requested TTL. HealthCheck never returns
// an error: probe failures and timeouts map to StatusUnhealthy.
type Provider interface {
	CreateRoom(ctx context.Context, roomID string, opts CreateRoomOptions) (*RoomInfo, error)
	DeleteRoom(ctx context.Context, roomID string) error
	GenerateToken(ctx context.Context, roomID, participantID, participantName string, opts TokenOptions) (string, error)
	GetRoomInfo(ctx context.Context, roomID string) (*RoomInfo, error)
	HealthCheck(ctx context.Context) HealthStatus

	// ClientURL is the URL participants connect to with their token.
	ClientURL() string
}
