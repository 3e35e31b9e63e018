package handlers

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/draw-together/backend/internal/relay"
)

// WebSocketHandler exposes the drawing relay over a WebSocket route.
type WebSocketHandler struct {
	relayHandler *relay.Handler
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(relayHandler *relay.Handler) *WebSocketHandler {
	return &WebSocketHandler{
		relayHandler: relayHandler,
	}
}

// Connect handles GET /ws - upgrades the request and hands the
// connection to the relay. An optional name query parameter suggests
// the session's display name.
func (h *WebSocketHandler) Connect(c *gin.Context) {
	if err := h.relayHandler.HandleConnection(c.Writer, c.Request); err != nil {
		// The upgrader has already written its own error response.
		log.Printf("WebSocket upgrade failed: %v", err)
	}
}

// RegisterRoutes registers the WebSocket route on a Gin router group.
func (h *WebSocketHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws", h.Connect)
}
