package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/parleylive/room-coordinator/internal/coordinator"
	"github.com/parleylive/room-coordinator/internal/events"
	"github.com/parleylive/room-coordinator/internal/provider"
	"github.com/parleylive/room-coordinator/internal/token"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	issuer, err := token.NewIssuer("testkey", "testsecret-0123456789abcdef", 0)
	require.NoError(t, err)

	bus := events.NewMemoryPubSub()
	t.Cleanup(func() { bus.Close() })

	coord := coordinator.New(
		provider.NewLocalProvider(issuer, "ws://sfu.test"),
		bus,
		coordinator.Config{ProviderTimeout: time.Second},
	)

	r := gin.New()
	NewHandler(coord).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	resp := map[string]interface{}{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestCreateJoinLeaveFlow(t *testing.T) {
	r := newTestRouter(t)

	// Create
	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/rooms", map[string]interface{}{
		"participant_name": "Alice",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	data := resp["data"].(map[string]interface{})
	roomID := data["room_id"].(string)
	aliceID := data["participant_id"].(string)
	require.NotEmpty(t, roomID)
	require.NotEmpty(t, data["token"])
	require.Equal(t, "ws://sfu.test", data["url"])

	// Join
	w, resp = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/rooms/%s/join", roomID), map[string]interface{}{
		"participant_name": "Bob",
	})
	require.Equal(t, http.StatusOK, w.Code)
	bobID := resp["data"].(map[string]interface{})["participant_id"].(string)
	require.NotEqual(t, aliceID, bobID)

	// Get
	w, resp = doJSON(t, r, http.MethodGet, "/api/v1/rooms/"+roomID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	room := resp["data"].(map[string]interface{})
	require.Len(t, room["participants"], 2)

	// List
	w, resp = doJSON(t, r, http.MethodGet, "/api/v1/rooms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(1), resp["data"].(map[string]interface{})["total"])

	// Leave both
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/rooms/%s/leave", roomID), map[string]interface{}{
		"participant_id": aliceID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/rooms/%s/leave", roomID), map[string]interface{}{
		"participant_id": bobID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Room is gone once empty.
	w, resp = doJSON(t, r, http.MethodGet, "/api/v1/rooms/"+roomID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "NOT_FOUND", resp["error"].(map[string]interface{})["code"])
}

func TestCreateRoom_EmptyBodyDefaults(t *testing.T) {
	r := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/rooms", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotEmpty(t, resp["data"].(map[string]interface{})["token"])
}

func TestJoinUnknownRoomImplicitlyCreates(t *testing.T) {
	r := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/rooms/mistyped1/join", map[string]interface{}{
		"participant_name": "Bob",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/rooms/mistyped1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].(map[string]interface{})["participants"], 1)
}

func TestLeaveUnknownRoomIs404(t *testing.T) {
	r := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/rooms/nope/leave", map[string]interface{}{
		"participant_id": "p1",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeaveRequiresParticipantID(t *testing.T) {
	r := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/rooms/any/leave", map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "healthy", resp["status"])
	require.Equal(t, float64(0), resp["rooms"])
}
