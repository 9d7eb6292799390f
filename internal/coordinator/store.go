package coordinator

import (
	"sort"
	"sync"
	"time"

	"github.com/parleylive/room-coordinator/internal/domain"
)

// roomState is the live record for one room. Its mutex serializes all
// mutations on the room, including the provider call a join performs,
// so same-room operations never interleave while unrelated rooms stay
// unblocked.
type roomState struct {
	mu sync.Mutex

	id           string
	createdAt    time.Time
	metadata     map[string]string
	participants map[string]domain.Participant

	// deleted marks a room that was removed from the store while a
	// concurrent operation still held a reference to it. Holders must
	// check it after locking and treat the room as gone.
	deleted bool
}

func newRoomState(id string, metadata map[string]string) *roomState {
	var md map[string]string
	if len(metadata) > 0 {
		md = make(map[string]string, len(metadata))
		for k, v := range metadata {
			md[k] = v
		}
	}
	return &roomState{
		id:           id,
		createdAt:    time.Now(),
		metadata:     md,
		participants: make(map[string]domain.Participant),
	}
}

// snapshot returns a detached copy. Callers must hold r.mu.
func (r *roomState) snapshot() *domain.Room {
	participants := make([]domain.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		participants = append(participants, p)
	}
	sort.Slice(participants, func(i, j int) bool {
		if participants[i].JoinedAt.Equal(participants[j].JoinedAt) {
			return participants[i].ID < participants[j].ID
		}
		return participants[i].JoinedAt.Before(participants[j].JoinedAt)
	})

	var md map[string]string
	if len(r.metadata) > 0 {
		md = make(map[string]string, len(r.metadata))
		for k, v := range r.metadata {
			md[k] = v
		}
	}

	return &domain.Room{
		ID:           r.id,
		CreatedAt:    r.createdAt,
		Participants: participants,
		Metadata:     md,
	}
}

// store is the in-memory room map, owned exclusively by the
// coordinator. Its mutex only guards the map itself; per-room state is
// guarded by each roomState's own mutex.
type store struct {
	mu    sync.RWMutex
	rooms map[string]*roomState
}

func newStore() *store {
	return &store{rooms: make(map[string]*roomState)}
}

func (s *store) get(id string) (*roomState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	return room, ok
}

// insert adds the room if its id is free. Returns false on conflict.
func (s *store) insert(room *roomState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[room.id]; exists {
		return false
	}
	s.rooms[room.id] = room
	return true
}

// remove deletes the entry for id if it still points at room.
func (s *store) remove(id string, room *roomState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.rooms[id]; ok && current == room {
		delete(s.rooms, id)
	}
}

func (s *store) list() []*roomState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*roomState, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (s *store) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
