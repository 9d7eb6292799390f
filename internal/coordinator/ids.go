package coordinator

import (
	"crypto/rand"

	"github.com/google/uuid"
)

const roomIDLength = 10

const roomIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// newRoomID generates a short opaque room id. Uniqueness is enforced at
// insert time; the caller retries on the (unlikely) collision.
func newRoomID() string {
	b := make([]byte, roomIDLength)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is effectively fatal elsewhere; fall back
		// to a UUID rather than returning an error here.
		return uuid.New().String()
	}
	for i := range b {
		b[i] = roomIDAlphabet[int(b[i])%len(roomIDAlphabet)]
	}
	return string(b)
}

// newParticipantID generates a participant id. Participant ids are
// never caller-supplied and never reused across rooms.
func newParticipantID() string {
	return uuid.New().String()
}
