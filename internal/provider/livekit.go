package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/parleylive/room-coordinator/internal/token"
)

const (
	healthCheckTimeout = 5 * time.Second

	// Degraded above this probe latency.
	degradedLatency = 1 * time.Second
)

// LiveKitConfig holds LiveKit backend configuration.
type LiveKitConfig struct {
	// URL is the HTTP API base, e.g. "http://localhost:7880".
	URL string `mapstructure:"url"`
	// WSURL is handed to clients for the media connection. Defaults to
	// URL with the scheme swapped to ws/wss.
	WSURL     string `mapstructure:"ws_url"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	// Timeout bounds every API call.
	Timeout time.Duration `mapstructure:"timeout"`
}

// LiveKitProvider drives a LiveKit-compatible SFU through its
// Twirp-style HTTP room API.
type LiveKitProvider struct {
	baseURL   string
	clientURL string
	issuer    *token.Issuer
	http      *http.Client
}

// NewLiveKitProvider creates a LiveKit-backed provider.
func NewLiveKitProvider(cfg LiveKitConfig, issuer *token.Issuer) (*LiveKitProvider, error) {
	if cfg.URL == "" {
		return nil, errors.New("livekit url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	clientURL := cfg.WSURL
	if clientURL == "" {
		clientURL = strings.Replace(cfg.URL, "http", "ws", 1)
	}

	return &LiveKitProvider{
		baseURL:   strings.TrimRight(cfg.URL, "/"),
		clientURL: clientURL,
		issuer:    issuer,
		http:      &http.Client{Timeout: timeout},
	}, nil
}

// ClientURL returns the URL participants connect to.
func (p *LiveKitProvider) ClientURL() string {
	return p.clientURL
}

type lkRoom struct {
	Sid             string `json:"sid"`
	Name            string `json:"name"`
	NumParticipants int    `json:"num_participants"`
	Metadata        string `json:"metadata"`
	CreationTime    int64  `json:"creation_time,string"`
}

type lkListRoomsResponse struct {
	Rooms []lkRoom `json:"rooms"`
}

// CreateRoom asks the backend to create a room. The backend call is
// idempotent: an id it already knows is returned as-is.
func (p *LiveKitProvider) CreateRoom(ctx context.Context, roomID string, opts CreateRoomOptions) (*RoomInfo, error) {
	req := map[string]interface{}{
		"name": roomID,
	}
	if opts.MaxParticipants > 0 {
		req["max_participants"] = opts.MaxParticipants
	}
	if opts.EmptyTimeout > 0 {
		req["empty_timeout"] = int(opts.EmptyTimeout.Seconds())
	}

	var room lkRoom
	if err := p.call(ctx, "CreateRoom", req, &room); err != nil {
		return nil, opError("create_room", err)
	}
	return roomInfoFromLK(&room), nil
}

// DeleteRoom removes a room on the backend. A room the backend no
// longer knows is not an error.
func (p *LiveKitProvider) DeleteRoom(ctx context.Context, roomID string) error {
	err := p.call(ctx, "DeleteRoom", map[string]interface{}{"room": roomID}, nil)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil
		}
		return opError("delete_room", err)
	}
	return nil
}

// GenerateToken signs an access credential for the room+participant
// pair. Signing is local, so this never touches the network.
func (p *LiveKitProvider) GenerateToken(ctx context.Context, roomID, participantID, participantName string, opts TokenOptions) (string, error) {
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

// GetRoomInfo fetches backend-side room state.
func (p *LiveKitProvider) GetRoomInfo(ctx context.Context, roomID string) (*RoomInfo, error) {
	var resp lkListRoomsResponse
	if err := p.call(ctx, "ListRooms", map[string]interface{}{"names": []string{roomID}}, &resp); err != nil {
		return nil, opError("get_room_info", err)
	}
	for i := range resp.Rooms {
		if resp.Rooms[i].Name == roomID {
			return roomInfoFromLK(&resp.Rooms[i]), nil
		}
	}
	return nil, opError("get_room_info", fmt.Errorf("room %q not known to backend", roomID))
}

// HealthCheck probes the backend with a bounded-timeout room list.
// Failures never propagate as errors: they map to StatusUnhealthy.
func (p *LiveKitProvider) HealthCheck(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	err := p.call(ctx, "ListRooms", map[string]interface{}{}, nil)
	latency := time.Since(start)

	hs := HealthStatus{Latency: latency, LatencyMs: latency.Milliseconds()}
	switch {
	case err != nil:
		hs.Status = StatusUnhealthy
		hs.Message = err.Error()
	case latency > degradedLatency:
		hs.Status = StatusDegraded
		hs.Message = "backend responding slowly"
	default:
		hs.Status = StatusHealthy
	}
	return hs
}

type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Body)
}

// call POSTs a JSON request to the Twirp-style room service endpoint.
func (p *LiveKitProvider) call(ctx context.Context, method string, req interface{}, out interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	url := p.baseURL + "/twirp/livekit.RoomService/" + method
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	adminToken, err := p.issuer.AdminToken()
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+adminToken)

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return &apiError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s response: %w", method, err)
		}
	}
	return nil
}

func roomInfoFromLK(room *lkRoom) *RoomInfo {
	info := &RoomInfo{
		RoomID:          room.Name,
		NumParticipants: room.NumParticipants,
	}
	if room.CreationTime > 0 {
		info.CreatedAt = time.Unix(room.CreationTime, 0)
	}
	if room.Metadata != "" {
		md := map[string]string{}
		if err := json.Unmarshal([]byte(room.Metadata), &md); err == nil {
			info.Metadata = md
		}
	}
	return info
}
