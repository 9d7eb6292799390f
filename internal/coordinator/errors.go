package coordinator

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrNameTooLong         = errors.New("participant name too long")
)
