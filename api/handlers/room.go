// Package handlers provides HTTP API request handlers.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/draw-together/backend/internal/model"
	"github.com/draw-together/backend/internal/oplog"
	"github.com/draw-together/backend/internal/registry"
	"github.com/draw-together/backend/internal/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// RoomHandler handles read-only HTTP requests for room inspection.
// All room mutations happen over the WebSocket relay; these endpoints
// never create rooms or alter canvases.
type RoomHandler struct {
	registry *registry.Registry
	store    *oplog.Store
	archive  *repository.ArchiveRepository
}

// NewRoomHandler creates a new RoomHandler.
func NewRoomHandler(reg *registry.Registry, store *oplog.Store, archive *repository.ArchiveRepository) *RoomHandler {
	return &RoomHandler{
		registry: reg,
		store:    store,
		archive:  archive,
	}
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID           string                  `json:"id"`
	MemberCount  int                     `json:"memberCount"`
	Members      map[string]model.Member `json:"members,omitempty"`
	Operations   int                     `json:"operations"`
	Visible      int                     `json:"visible"`
	NextSequence int64                   `json:"nextSequence"`
	LastActive   string                  `json:"lastActive,omitempty"`
}

// HistoryEntryResponse represents one archived operation.
type HistoryEntryResponse struct {
	Operation model.Operation `json:"operation"`
	Removed   bool            `json:"removed"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// sendError sends an error response with the appropriate status code.
func sendError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// toRoomResponse converts room log info and membership into a response.
func (h *RoomHandler) toRoomResponse(roomID string, info oplog.Info, withMembers bool) *RoomResponse {
	resp := &RoomResponse{
		ID:           roomID,
		MemberCount:  h.registry.MemberCount(roomID),
		Operations:   info.Operations,
		Visible:      info.Visible,
		NextSequence: info.NextSeq,
	}
	if !info.LastActive.IsZero() {
		resp.LastActive = info.LastActive.Format(time.RFC3339)
	}
	if withMembers {
		resp.Members = h.registry.MembersOf(roomID)
	}
	return resp
}

// knownRoom reports whether the room has a drawing log or members.
func (h *RoomHandler) knownRoom(roomID string) (oplog.Info, bool) {
	info, ok := h.store.Info(roomID)
	if ok {
		return info, true
	}
	if h.registry.MemberCount(roomID) > 0 {
		return oplog.Info{}, true
	}
	return oplog.Info{}, false
}

// List handles GET /api/rooms - lists every known room.
func (h *RoomHandler) List(c *gin.Context) {
	seen := make(map[string]bool)
	for _, roomID := range h.store.RoomIDs() {
		seen[roomID] = true
	}
	for _, roomID := range h.registry.Rooms() {
		seen[roomID] = true
	}

	response := make([]*RoomResponse, 0, len(seen))
	for roomID := range seen {
		info, _ := h.store.Info(roomID)
		response = append(response, h.toRoomResponse(roomID, info, false))
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/rooms/:id - gets one room with its member list.
func (h *RoomHandler) Get(c *gin.Context) {
	roomID := c.Param("id")
	if roomID == "" {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Room ID is required")
		return
	}

	info, ok := h.knownRoom(roomID)
	if !ok {
		sendError(c, http.StatusNotFound, "ROOM_NOT_FOUND", "Room "+roomID+" not found")
		return
	}

	c.JSON(http.StatusOK, h.toRoomResponse(roomID, info, true))
}

// GetOperations handles GET /api/rooms/:id/operations - returns the
// visible canvas, the operations a joining client would replay.
func (h *RoomHandler) GetOperations(c *gin.Context) {
	roomID := c.Param("id")
	if roomID == "" {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Room ID is required")
		return
	}

	if _, ok := h.knownRoom(roomID); !ok {
		sendError(c, http.StatusNotFound, "ROOM_NOT_FOUND", "Room "+roomID+" not found")
		return
	}

	ops := h.store.VisibleSnapshot(roomID)
	if ops == nil {
		ops = []*model.Operation{}
	}
	c.JSON(http.StatusOK, ops)
}

// GetHistory handles GET /api/rooms/:id/history - returns archived
// operations newest first, including ones hidden or already evicted
// from the live canvas. The archive is written asynchronously, so very
// recent strokes may not have landed yet.
func (h *RoomHandler) GetHistory(c *gin.Context) {
	roomID := c.Param("id")
	if roomID == "" {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Room ID is required")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit <= 0 {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer")
		return
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	archived, err := h.archive.RecentOperations(c.Request.Context(), roomID, limit)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read history: "+err.Error())
		return
	}

	response := make([]*HistoryEntryResponse, len(archived))
	for i, entry := range archived {
		response[i] = &HistoryEntryResponse{
			Operation: entry.Operation,
			Removed:   entry.Removed,
		}
	}

	c.JSON(http.StatusOK, response)
}

// RegisterRoutes registers the room handler routes on a Gin router group.
func (h *RoomHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rooms := rg.Group("/rooms")
	{
		rooms.GET("", h.List)
		rooms.GET("/:id", h.Get)
		rooms.GET("/:id/operations", h.GetOperations)
		rooms.GET("/:id/history", h.GetHistory)
	}
}
