package domain

import (
	"time"
)

// DefaultParticipantName is used when a caller joins without a name.
const DefaultParticipantName = "Anonymous"

// Participant is one connected identity inside a room. Participant ids
// are generated by the coordinator and never reused across rooms.
type Participant struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

// Room is a point-in-time snapshot of a conference room. Snapshots are
// detached copies: mutating one never affects coordinator state.
type Room struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"created_at"`
	Participants []Participant     `json:"participants"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ParticipantCount returns the number of participants in the snapshot.
func (r *Room) ParticipantCount() int {
	return len(r.Participants)
}

// Participant returns the participant with the given id, if present.
func (r *Room) Participant(id string) (Participant, bool) {
	for _, p := range r.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

// CreateRoomRequest is the payload for creating a room.
type CreateRoomRequest struct {
	ParticipantName string            `json:"participant_name"`
	Metadata        map[string]string `json:"metadata"`
}

// JoinRoomRequest is the payload for joining a room.
type JoinRoomRequest struct {
	ParticipantName string `json:"participant_name"`
}

// LeaveRoomRequest is the payload for leaving a room.
type LeaveRoomRequest struct {
	ParticipantID string `json:"participant_id" binding:"required"`
}

// CreateRoomResult is returned to the first participant of a new room.
type CreateRoomResult struct {
	RoomID        string `json:"room_id"`
	ParticipantID string `json:"participant_id"`
	Token         string `json:"token"`
	URL           string `json:"url"`
}

// JoinRoomResult is returned to a participant joining an existing room.
type JoinRoomResult struct {
	ParticipantID string `json:"participant_id"`
	Token         string `json:"token"`
	URL           string `json:"url"`
}

// ListRoomsResult wraps a room list snapshot.
type ListRoomsResult struct {
	Rooms []Room `json:"rooms"`
	Total int    `json:"total"`
}
