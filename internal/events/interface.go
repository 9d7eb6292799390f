// Package events fans lifecycle notifications out to topic subscribers.
//
// Delivery is best effort and fire-and-forget: an event reaches the
// listeners subscribed at publish time, late subscribers see nothing
// (no replay), and a slow subscriber loses events rather than blocking
// the publisher.
package events

import (
	"context"
	"fmt"
	"time"
)

// Event types.
const (
	TypeRoomCreated     = "room-created"
	TypeParticipantJoin = "participant-joined"
	TypeParticipantLeft = "participant-left"
)

// TopicRooms carries room-created events for all rooms.
const TopicRooms = "rooms"

// RoomTopic returns the per-room topic carrying participant events.
func RoomTopic(roomID string) string {
	return fmt.Sprintf("room:%s", roomID)
}

// Event is the envelope delivered to subscribers.
type Event struct {
	Type            string    `json:"type"`
	RoomID          string    `json:"room_id"`
	ParticipantID   string    `json:"participant_id,omitempty"`
	ParticipantName string    `json:"participant_name,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType, roomID, participantID, participantName string) *Event {
	return &Event{
		Type:            eventType,
		RoomID:          roomID,
		ParticipantID:   participantID,
		ParticipantName: participantName,
		Timestamp:       time.Now(),
	}
}

// Subscription is a live feed of one topic. Close it when done; C is
// closed afterwards.
type Subscription struct {
	C      <-chan *Event
	cancel func()
}

// Close tears the subscription down. Safe to call more than once.
func (s *Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// PubSub is the topic-scoped fan-out used for lifecycle events.
type PubSub interface {
	// Publish delivers the event to current subscribers of the topic.
	// It never blocks on slow subscribers.
	Publish(ctx context.Context, topic string, event *Event) error

	// Subscribe opens a feed of future events on the topic.
	Subscribe(ctx context.Context, topic string) (*Subscription, error)

	Close() error
}
