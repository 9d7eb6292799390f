package provider

import (
	"context"
	"time"

	"github.com/parleylive/room-coordinator/internal/token"
)

// LocalProvider issues real tokens but performs no backend calls. It is
// meant for development and tests against an SFU that auto-creates
// rooms on first join.
type LocalProvider struct {
	issuer    *token.Issuer
	clientURL string
}

// NewLocalProvider creates a backend-less provider.
func NewLocalProvider(issuer *token.Issuer, clientURL string) *LocalProvider {
	if clientURL == "" {
		clientURL = "ws://localhost:7880"
	}
	return &LocalProvider{issuer: issuer, clientURL: clientURL}
}

func (p *LocalProvider) ClientURL() string {
	return p.clientURL
}

func (p *LocalProvider) CreateRoom(ctx context.Context, roomID string, opts CreateRoomOptions) (*RoomInfo, error) {
	return &RoomInfo{RoomID: roomID, CreatedAt: time.Now()}, nil
}

func (p *LocalProvider) DeleteRoom(ctx context.Context, roomID string) error {
	return nil
}

func (p *LocalProvider) GenerateToken(ctx context.Context, roomID, participantID, participantName string, opts TokenOptions) (string, error) {
	tok, err := p.issuer.AccessToken(roomID, participantID, participantName, token.AccessGrant{
		CanPublish:     opts.CanPublish,
		CanSubscribe:   opts.CanSubscribe,
		CanPublishData: opts.CanPublishData,
		TTL:            opts.TTL,
	})
	if err != nil {
		return "", opError("generate_token", err)
	}
	return tok, nil
}

func (p *LocalProvider) GetRoomInfo(ctx context.Context, roomID string) (*RoomInfo, error) {
	return &RoomInfo{RoomID: roomID}, nil
}

func (p *LocalProvider) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{Status: StatusHealthy}
}
