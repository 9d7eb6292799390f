package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parleylive/room-coordinator/internal/coordinator"
	"github.com/parleylive/room-coordinator/internal/domain"
	"github.com/parleylive/room-coordinator/internal/provider"
	"github.com/parleylive/room-coordinator/pkg/log"
	"github.com/parleylive/room-coordinator/pkg/response"
)

// Handler exposes coordinator operations over HTTP.
type Handler struct {
	coord coordinator.Coordinator
}

// NewHandler creates a new HTTP handler.
func NewHandler(coord coordinator.Coordinator) *Handler {
	return &Handler{coord: coord}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	{
		rooms := api.Group("/rooms")
		{
			rooms.POST("", h.CreateRoom)
			rooms.GET("", h.ListRooms)
			rooms.GET("/:id", h.GetRoom)
			rooms.POST("/:id/join", h.JoinRoom)
			rooms.POST("/:id/leave", h.LeaveRoom)
		}
	}
}

// CreateRoom creates a new room with the caller as first participant.
func (h *Handler) CreateRoom(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		l.Warn().Err(err).Msg("failed to bind create room request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.coord.CreateRoom(ctx, &req)
	if err != nil {
		h.writeError(c, err, "failed to create room")
		return
	}

	response.Created(c, result)
}

// JoinRoom joins an existing room, or implicitly creates it.
func (h *Handler) JoinRoom(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		l.Warn().Err(err).Msg("failed to bind join room request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.coord.JoinRoom(ctx, c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err, "failed to join room")
		return
	}

	response.Success(c, result)
}

// LeaveRoom removes a participant from a room.
func (h *Handler) LeaveRoom(c *gin.Context) {
	ctx := c.Request.Context()

	var req domain.LeaveRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.coord.LeaveRoom(ctx, c.Param("id"), req.ParticipantID); err != nil {
		h.writeError(c, err, "failed to leave room")
		return
	}

	response.Success(c, gin.H{"left": true})
}

// GetRoom returns a room snapshot.
func (h *Handler) GetRoom(c *gin.Context) {
	room, err := h.coord.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "failed to get room")
		return
	}
	response.Success(c, room)
}

// ListRooms returns a snapshot of all rooms.
func (h *Handler) ListRooms(c *gin.Context) {
	response.Success(c, h.coord.ListRooms(c.Request.Context()))
}

// Health reports backend health and the current room count.
func (h *Handler) Health(c *gin.Context) {
	hs := h.coord.Health(c.Request.Context())

	body := gin.H{
		"status":     hs.Status,
		"latency_ms": hs.LatencyMs,
		"rooms":      h.coord.CountRooms(c.Request.Context()),
	}
	if hs.Message != "" {
		body["message"] = hs.Message
	}

	code := http.StatusOK
	if hs.Status == provider.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, body)
}

// writeError maps error kinds to transport status codes: not-found
// outcomes are expected and distinguishable from provider faults.
func (h *Handler) writeError(c *gin.Context, err error, msg string) {
	l := log.Ctx(c.Request.Context())

	switch {
	case errors.Is(err, coordinator.ErrRoomNotFound):
		response.NotFound(c, "room not found")
	case errors.Is(err, coordinator.ErrParticipantNotFound):
		response.NotFound(c, "participant not found")
	case errors.Is(err, coordinator.ErrNameTooLong):
		response.BadRequest(c, err.Error())
	default:
		var provErr *provider.Error
		if errors.As(err, &provErr) {
			l.Error().Err(err).Msg(msg)
			response.BadGateway(c, "media backend unavailable")
			return
		}
		l.Error().Err(err).Msg(msg)
		response.InternalError(c, msg)
	}
}
