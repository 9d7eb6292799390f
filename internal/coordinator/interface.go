package coordinator

import (
	"context"

	"github.com/parleylive/room-coordinator/internal/domain"
	"github.com/parleylive/room-coordinator/internal/provider"
)

// Coordinator is the authoritative owner of room state. Operations on
// the same room are linearizable: they never interleave, and their
// effects are visible in a single consistent order. Operations on
// different rooms run concurrently.
//
// A provider failure during CreateRoom or JoinRoom leaves the room
// store completely unmodified.
type Coordinator interface {
	// CreateRoom creates a room on the backend, issues a token for the
	// first participant, and registers the room locally.
	CreateRoom(ctx context.Context, req *domain.CreateRoomRequest) (*domain.CreateRoomResult, error)

	// JoinRoom adds a participant to a room. An unknown room id is an
	// implicit creation: backends auto-create rooms on first connect,
	// so the coordinator issues a token and registers the room with
	// this participant as sole member.
	JoinRoom(ctx context.Context, roomID string, req *domain.JoinRoomRequest) (*domain.JoinRoomResult, error)

	// LeaveRoom removes a participant. When the last participant
	// leaves, the room is removed in the same step: a room with zero
	// participants is never observable.
	LeaveRoom(ctx context.Context, roomID, participantID string) error

	// GetRoom returns a detached snapshot of one room.
	GetRoom(ctx context.Context, roomID string) (*domain.Room, error)

	// ListRooms returns a point-in-time snapshot of all rooms, not a
	// live view.
	ListRooms(ctx context.Context) *domain.ListRoomsResult

	// CountRooms returns the number of live rooms.
	CountRooms(ctx context.Context) int

	// Health probes the media backend.
	Health(ctx context.Context) provider.HealthStatus
}
