package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 16 * 1024
	sendBufferSize = 256
)

var (
	errClientClosed = errors.New("client connection closed")
	errBufferFull   = errors.New("send buffer full")
)

// Client is one authenticated connection. A user may hold several.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	UserID      string
	Username    string
	RemoteAddr  string
	UserAgent   string
	ConnectedAt time.Time

	send    chan []byte
	limiter *rate.Limiter

	// post IDs this connection follows; only touched by the hub's Run loop
	watching map[string]struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// newInboundLimiter bounds how fast a client may send frames
func newInboundLimiter(cfg RateLimitConfig) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(cfg.MaxMessagesPerSecond), cfg.BurstSize)
}

// NewClient wraps an accepted connection for user
func NewClient(hub *Hub, conn *websocket.Conn, userID, username string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:         hub,
		conn:        conn,
		UserID:      userID,
		Username:    username,
		ConnectedAt: time.Now(),
		send:        make(chan []byte, sendBufferSize),
		limiter:     newInboundLimiter(hub.GetRateLimitConfig()),
		watching:    make(map[string]struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// ReadPump handles inbound frames until the peer goes away
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)

	for {
		readCtx, readCancel := context.WithTimeout(c.ctx, pongWait)
		_, data, err := c.conn.Read(readCtx)
		readCancel()
		if err != nil {
			c.logReadError(err)
			return
		}

		if !c.limiter.Allow() {
			c.hub.metrics.Errors.Add(1)
			c.SendError("rate_limited", "Too many messages, please slow down")
			continue
		}
		c.hub.metrics.MessagesReceived.Add(1)

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.SendError("invalid_json", "Failed to parse message")
			continue
		}
		metrics.RecordWebsocketMessage("in", msg.Type)
		c.dispatch(&msg)
	}
}

func (c *Client) logReadError(err error) {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		logger.Log.Debug("Client disconnected", logger.WithUserID(c.UserID))
	default:
		if c.ctx.Err() == nil {
			c.hub.metrics.Errors.Add(1)
			logger.Log.Warn("WebSocket read failed", logger.WithUserID(c.UserID), zap.Error(err))
		}
	}
}

// WritePump drains the send buffer and pings the peer
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return

		case data := <-c.send:
			if err := c.write(data); err != nil {
				if c.ctx.Err() == nil {
					c.hub.metrics.Errors.Add(1)
					logger.Log.Warn("WebSocket write failed", logger.WithUserID(c.UserID), zap.Error(err))
				}
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				logger.Log.Debug("Ping failed", logger.WithUserID(c.UserID), zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) write(data []byte) error {
	ctx, cancel := context.WithTimeout(c.ctx, writeWait)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *Client) dispatch(msg *Message) {
	switch msg.Type {
	case MessageTypePing:
		c.pong(msg)
	case MessageTypeWatchPost, MessageTypeUnwatchPost:
		var p WatchPayload
		if err := msg.ParsePayload(&p); err != nil || strings.TrimSpace(p.PostID) == "" {
			c.SendError("invalid_payload", "post_id is required")
			return
		}
		c.hub.setWatch(watchRequest{
			client:  c,
			postID:  strings.TrimSpace(p.PostID),
			watch:   msg.Type == MessageTypeWatchPost,
			replyTo: msg.ID,
		})
	default:
		c.SendError("unknown_type", fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (c *Client) pong(msg *Message) {
	var ping PingPayload
	_ = msg.ParsePayload(&ping)

	now := time.Now().UnixMilli()
	reply := PongPayload{ClientTime: ping.ClientTime, ServerTime: now}
	if ping.ClientTime > 0 {
		reply.Latency = now - ping.ClientTime
	}
	_ = c.Send(NewReply(msg, MessageTypePong, reply))
}

// Send queues msg without blocking
func (c *Client) Send(msg *Message) error {
	if c.ctx.Err() != nil {
		return errClientClosed
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errBufferFull
	}
}

// SendError queues an error frame
func (c *Client) SendError(code, message string) {
	_ = c.Send(NewErrorMessage(code, message))
}

// Close tears the connection down once
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.conn.Close(websocket.StatusNormalClosure, "closing")
	})
}

// IsClosed reports whether Close or the hub ended this client
func (c *Client) IsClosed() bool {
	return c.ctx.Err() != nil
}
