package coordinator

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/parleylive/room-coordinator/internal/domain"
	"github.com/parleylive/room-coordinator/internal/events"
	"github.com/parleylive/room-coordinator/internal/provider"
	"github.com/parleylive/room-coordinator/pkg/log"
)

const maxParticipantNameLength = 256

// Config holds coordinator tuning.
type Config struct {
	// MaxParticipants caps room size on the backend. Zero means no cap.
	MaxParticipants int `mapstructure:"max_participants"`
	// EmptyTimeout is passed to the backend so it expires rooms the
	// coordinator failed to clean up.
	EmptyTimeout time.Duration `mapstructure:"empty_timeout"`
	// ProviderTimeout bounds every provider call made on behalf of a
	// room operation.
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`
}

func (c *Config) providerTimeout() time.Duration {
	if c.ProviderTimeout <= 0 {
		return 10 * time.Second
	}
	return c.ProviderTimeout
}

// roomCoordinator implements Coordinator with per-room locking. The
// store map has its own short-lived lock; provider I/O is only ever
// performed while holding, at most, the lock of the one room involved.
type roomCoordinator struct {
	provider provider.Provider
	bus      events.PubSub
	store    *store
	cfg      Config
}

// New creates a coordinator on top of the given provider and event bus.
func New(p provider.Provider, bus events.PubSub, cfg Config) Coordinator {
	return &roomCoordinator{
		provider: p,
		bus:      bus,
		store:    newStore(),
		cfg:      cfg,
	}
}

// CreateRoom creates the room on the backend, issues the first
// participant's token, and only then registers the room locally. Either
// provider call failing leaves the store untouched.
func (c *roomCoordinator) CreateRoom(ctx context.Context, req *domain.CreateRoomRequest) (*domain.CreateRoomResult, error) {
	l := log.Ctx(ctx)

	name, err := normalizeName(req.ParticipantName)
	if err != nil {
		return nil, err
	}

	roomID := newRoomID()
	participantID := newParticipantID()

	pctx, cancel := context.WithTimeout(ctx, c.cfg.providerTimeout())
	defer cancel()

	if _, err := c.provider.CreateRoom(pctx, roomID, provider.CreateRoomOptions{
		MaxParticipants: c.cfg.MaxParticipants,
		EmptyTimeout:    c.cfg.EmptyTimeout,
	}); err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("provider room creation failed")
		return nil, err
	}

	tok, err := c.provider.GenerateToken(pctx, roomID, participantID, name, provider.TokenOptions{})
	if err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("token issuance failed, abandoning room")
		c.deleteProviderRoom(roomID)
		return nil, err
	}

	for {
		room := newRoomState(roomID, req.Metadata)
		room.participants[participantID] = domain.Participant{
			ID:       participantID,
			Name:     name,
			JoinedAt: time.Now(),
		}
		if c.store.insert(room) {
			break
		}

		// Random id collision. Redo the provider sequence under a
		// fresh id; the earlier token is bound to the colliding id and
		// must not be handed out.
		roomID = newRoomID()
		if _, err := c.provider.CreateRoom(pctx, roomID, provider.CreateRoomOptions{
			MaxParticipants: c.cfg.MaxParticipants,
			EmptyTimeout:    c.cfg.EmptyTimeout,
		}); err != nil {
			return nil, err
		}
		tok, err = c.provider.GenerateToken(pctx, roomID, participantID, name, provider.TokenOptions{})
		if err != nil {
			c.deleteProviderRoom(roomID)
			return nil, err
		}
	}

	l.Info().
		Str(log.FieldRoomID, roomID).
		Str(log.FieldParticipantID, participantID).
		Msg("room created")

	c.publish(ctx, events.TopicRooms, events.NewEvent(events.TypeRoomCreated, roomID, participantID, name))

	return &domain.CreateRoomResult{
		RoomID:        roomID,
		ParticipantID: participantID,
		Token:         tok,
		URL:           c.provider.ClientURL(),
	}, nil
}

// JoinRoom adds a participant. Unknown ids are implicitly created; the
// backend auto-creates the room when the participant connects.
func (c *roomCoordinator) JoinRoom(ctx context.Context, roomID string, req *domain.JoinRoomRequest) (*domain.JoinRoomResult, error) {
	l := log.Ctx(ctx)

	if roomID == "" {
		return nil, ErrRoomNotFound
	}

	name, err := normalizeName(req.ParticipantName)
	if err != nil {
		return nil, err
	}

	participantID := newParticipantID()
	joined := domain.Participant{ID: participantID, Name: name}

	// One token per successful join. The loop below may switch between
	// the implicit-create and existing-room paths when racing with
	// other callers, but a token issued on an earlier attempt is still
	// bound to this room+participant pair and is reused.
	var tok string

	for {
		room, ok := c.store.get(roomID)
		if !ok {
			if tok == "" {
				tok, err = c.generateToken(ctx, roomID, participantID, name)
				if err != nil {
					l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("token issuance failed")
					return nil, err
				}
			}

			fresh := newRoomState(roomID, nil)
			joined.JoinedAt = time.Now()
			fresh.participants[participantID] = joined
			if !c.store.insert(fresh) {
				// Lost the race to another implicit create; join the
				// winner's room instead.
				continue
			}

			// A mistyped room id lands here too, silently producing a
			// new room, hence info-level visibility.
			l.Info().
				Str(log.FieldRoomID, roomID).
				Str(log.FieldParticipantID, participantID).
				Msg("implicit room creation on join")
			break
		}

		room.mu.Lock()
		if room.deleted {
			room.mu.Unlock()
			continue
		}

		if tok == "" {
			tok, err = c.generateToken(ctx, roomID, participantID, name)
			if err != nil {
				room.mu.Unlock()
				l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("token issuance failed")
				return nil, err
			}
		}

		joined.JoinedAt = time.Now()
		room.participants[participantID] = joined
		room.mu.Unlock()

		l.Info().
			Str(log.FieldRoomID, roomID).
			Str(log.FieldParticipantID, participantID).
			Msg("participant joined")
		break
	}

	c.publish(ctx, events.RoomTopic(roomID), events.NewEvent(events.TypeParticipantJoin, roomID, participantID, name))

	return &domain.JoinRoomResult{
		ParticipantID: participantID,
		Token:         tok,
		URL:           c.provider.ClientURL(),
	}, nil
}

// LeaveRoom removes the participant and, if the room becomes empty,
// removes the room in the same critical section.
func (c *roomCoordinator) LeaveRoom(ctx context.Context, roomID, participantID string) error {
	l := log.Ctx(ctx)

	room, ok := c.store.get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	if room.deleted {
		room.mu.Unlock()
		return ErrRoomNotFound
	}

	left, ok := room.participants[participantID]
	if !ok {
		room.mu.Unlock()
		return ErrParticipantNotFound
	}

	delete(room.participants, participantID)
	empty := len(room.participants) == 0
	if empty {
		room.deleted = true
		c.store.remove(roomID, room)
	}
	room.mu.Unlock()

	l.Info().
		Str(log.FieldRoomID, roomID).
		Str(log.FieldParticipantID, participantID).
		Bool("room_removed", empty).
		Msg("participant left")

	if empty {
		c.deleteProviderRoom(roomID)
	}

	c.publish(ctx, events.RoomTopic(roomID), events.NewEvent(events.TypeParticipantLeft, roomID, participantID, left.Name))
	return nil
}

// GetRoom returns a detached snapshot.
func (c *roomCoordinator) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	room, ok := c.store.get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.deleted {
		return nil, ErrRoomNotFound
	}
	return room.snapshot(), nil
}

// ListRooms returns a point-in-time snapshot of every room.
func (c *roomCoordinator) ListRooms(ctx context.Context) *domain.ListRoomsResult {
	states := c.store.list()
	rooms := make([]domain.Room, 0, len(states))
	for _, room := range states {
		room.mu.Lock()
		if !room.deleted && len(room.participants) > 0 {
			rooms = append(rooms, *room.snapshot())
		}
		room.mu.Unlock()
	}
	return &domain.ListRoomsResult{Rooms: rooms, Total: len(rooms)}
}

// CountRooms returns the current room count.
func (c *roomCoordinator) CountRooms(ctx context.Context) int {
	return c.store.count()
}

// Health probes the backend.
func (c *roomCoordinator) Health(ctx context.Context) provider.HealthStatus {
	return c.provider.HealthCheck(ctx)
}

func (c *roomCoordinator) generateToken(ctx context.Context, roomID, participantID, name string) (string, error) {
	pctx, cancel := context.WithTimeout(ctx, c.cfg.providerTimeout())
	defer cancel()
	return c.provider.GenerateToken(pctx, roomID, participantID, name, provider.TokenOptions{})
}

// deleteProviderRoom is best effort: the backend's own empty-room
// expiry covers any failure here.
func (c *roomCoordinator) deleteProviderRoom(roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.providerTimeout())
	defer cancel()
	if err := c.provider.DeleteRoom(ctx, roomID); err != nil {
		l := log.L()
		l.Warn().Err(err).Str(log.FieldRoomID, roomID).Msg("provider room deletion failed")
	}
}

// publish is fire and forget: a failing event bus never fails the room
// operation that triggered the event.
func (c *roomCoordinator) publish(ctx context.Context, topic string, ev *events.Event) {
	if err := c.bus.Publish(ctx, topic, ev); err != nil {
		l := log.Ctx(ctx)
		l.Warn().
			Err(err).
			Str(log.FieldTopic, topic).
			Str("event_type", ev.Type).
			Msg("failed to publish event")
	}
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.DefaultParticipantName, nil
	}
	if utf8.RuneCountInString(name) > maxParticipantNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}
