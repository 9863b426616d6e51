// Package handlers provides HTTP API request handlers.
package handlers

import (
	"log"

	"github.com/collab-code-editor/backend/internal/ws"
	"github.com/gin-gonic/gin"
)

// WebSocketHandler upgrades editor connections to the sync protocol.
type WebSocketHandler struct {
	service *ws.Service
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(service *ws.Service) *WebSocketHandler {
	return &WebSocketHandler{
		service: service,
	}
}

// RegisterRoutes registers the WebSocket route on a Gin engine.
func (h *WebSocketHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.Attach)
}

// Attach handles GET /ws - joins the shared editing session.
func (h *WebSocketHandler) Attach(c *gin.Context) {
	if err := h.service.Handler().HandleConnection(c.Writer, c.Request); err != nil {
		// The upgrader has already written the HTTP error response.
		log.Printf("WebSocket upgrade failed: %v", err)
	}
}
