package websocket

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/hackup/backend/internal/auth"
	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/util"
	"go.uber.org/zap"
)

// Handler handles WebSocket HTTP upgrade requests
type Handler struct {
	hub            *Hub
	auth           auth.AuthServiceInterface
	originPatterns []string
}

// NewHandler creates a new WebSocket handler. originPatterns follow
// websocket.AcceptOptions; a "*" entry disables the origin check.
func NewHandler(hub *Hub, authService auth.AuthServiceInterface, originPatterns []string) *Handler {
	return &Handler{
		hub:            hub,
		auth:           authService,
		originPatterns: originPatterns,
	}
}

func (h *Handler) acceptOptions() *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionContextTakeover,
	}
	for _, pattern := range h.originPatterns {
		if pattern == "*" {
			opts.InsecureSkipVerify = true
			return opts
		}
	}
	opts.OriginPatterns = h.originPatterns
	return opts
}

// rawWriter returns the writer under gin's wrapper. Handing gin's writer to
// Accept makes gin flush its own header before the hijack, which fails the upgrade.
func rawWriter(c *gin.Context) http.ResponseWriter {
	if u, ok := c.Writer.(interface{ Unwrap() http.ResponseWriter }); ok {
		return u.Unwrap()
	}
	return c.Writer
}

// HandleWebSocket upgrades an authenticated request.
// The JWT comes from ?token=... or an Authorization: Bearer header.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := auth.TokenFromRequest(c.Request)
	if token == "" {
		util.RespondUnauthorized(c, "no authentication token provided")
		return
	}

	user, err := h.auth.ValidateToken(c.Request.Context(), token)
	if err != nil {
		logger.Log.Debug("WebSocket auth failed", zap.Error(err), logger.WithIP(c.ClientIP()))
		util.RespondUnauthorized(c, "invalid or expired token")
		return
	}

	conn, err := websocket.Accept(rawWriter(c), c.Request, h.acceptOptions())
	if err != nil {
		logger.Log.Warn("WebSocket upgrade failed", logger.WithUserID(user.ID), zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, user.ID, user.Username)
	client.RemoteAddr = c.ClientIP()
	client.UserAgent = c.GetHeader("User-Agent")

	h.hub.Register(client)

	_ = client.Send(NewMessage(MessageTypeSystem, SystemPayload{
		Event:   "connected",
		Message: "Welcome to HackUp!",
		Data: map[string]interface{}{
			"user_id":     user.ID,
			"username":    user.Username,
			"server_time": time.Now().UTC().UnixMilli(),
			"session_id":  fmt.Sprintf("%p", client),
		},
	}))

	go client.WritePump()
	client.ReadPump() // blocks until the client disconnects
}

// HandleMetrics returns hub counters for monitoring
func (h *Handler) HandleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"websocket": h.hub.GetMetrics(),
		"timestamp": time.Now().UTC(),
	})
}

// Shutdown gracefully shuts down the hub
func (h *Handler) Shutdown(ctx context.Context) error {
	return h.hub.Shutdown(ctx)
}
