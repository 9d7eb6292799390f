package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Domain
	FieldRoomID          = "room_id"
	FieldParticipantID   = "participant_id"
	FieldParticipantName = "participant_name"
	FieldTopic           = "topic"
	FieldProvider        = "provider"

	// Service
	FieldService = "service"
)
