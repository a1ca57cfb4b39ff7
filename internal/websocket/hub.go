// Package websocket pushes live post, comment and karma updates to connected clients.
// Uses github.com/coder/websocket, the context-aware WebSocket library for Go.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/metrics"
	"go.uber.org/zap"
)

// MaxWatchedPosts caps how many post threads one connection can follow
const MaxWatchedPosts = 20

type audience int

const (
	toEveryone audience = iota
	toUser
	toThread
)

// envelope is one outbound message and who receives it. A non-empty
// closeThread drops that thread's watchers after delivery.
type envelope struct {
	audience    audience
	key         string
	msg         *Message
	closeThread string
}

type watchRequest struct {
	client  *Client
	postID  string
	watch   bool
	replyTo string
}

// Hub tracks connections by user and by watched post thread.
// Every map is owned by the Run goroutine; mu only guards reads from
// other goroutines.
type Hub struct {
	byUser  map[string]map[*Client]struct{}
	threads map[string]map[*Client]struct{}
	all     map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	outbound   chan envelope
	watches    chan watchRequest

	mu      sync.RWMutex
	metrics *Metrics

	rateLimitConfig RateLimitConfig

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Metrics tracks WebSocket statistics
type Metrics struct {
	TotalConnections   atomic.Int64
	ActiveConnections  atomic.Int64
	MessagesReceived   atomic.Int64
	MessagesSent       atomic.Int64
	Errors             atomic.Int64
	ConnectionsDropped atomic.Int64
}

// RateLimitConfig bounds inbound frames per connection
type RateLimitConfig struct {
	MaxMessagesPerSecond int
	BurstSize            int
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{MaxMessagesPerSecond: 10, BurstSize: 20}
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		byUser:          make(map[string]map[*Client]struct{}),
		threads:         make(map[string]map[*Client]struct{}),
		all:             make(map[*Client]struct{}),
		register:        make(chan *Client, 64),
		unregister:      make(chan *Client, 64),
		outbound:        make(chan envelope, 512),
		watches:         make(chan watchRequest, 64),
		metrics:         &Metrics{},
		rateLimitConfig: DefaultRateLimitConfig(),
		ctx:             ctx,
		cancel:          cancel,
		done:            make(chan struct{}),
	}
}

// Run is the hub's event loop. It returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)
	logger.Log.Info("🔌 WebSocket hub starting")

	for {
		select {
		case <-h.ctx.Done():
			h.disconnectAll()
			logger.Log.Info("🔌 WebSocket hub stopped")
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case req := <-h.watches:
			h.applyWatch(req)
		case env := <-h.outbound:
			h.route(env)
		}
	}
}

func addTo(m map[string]map[*Client]struct{}, key string, c *Client) {
	if m[key] == nil {
		m[key] = make(map[*Client]struct{})
	}
	m[key][c] = struct{}{}
}

func removeFrom(m map[string]map[*Client]struct{}, key string, c *Client) {
	set, ok := m[key]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(m, key)
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	addTo(h.byUser, c.UserID, c)
	h.all[c] = struct{}{}
	h.mu.Unlock()

	h.metrics.TotalConnections.Add(1)
	active := h.metrics.ActiveConnections.Add(1)
	metrics.SetWebsocketConnections(active)
	logger.Log.Info("✅ Client connected", logger.WithUserID(c.UserID), zap.Int64("active", active))
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.all[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.all, c)
	removeFrom(h.byUser, c.UserID, c)
	for postID := range c.watching {
		removeFrom(h.threads, postID, c)
	}
	h.mu.Unlock()

	// the send channel stays open so a late Send cannot panic
	c.cancel()

	active := h.metrics.ActiveConnections.Add(-1)
	metrics.SetWebsocketConnections(active)
	logger.Log.Info("❌ Client disconnected", logger.WithUserID(c.UserID), zap.Int64("active", active))
}

func (h *Hub) applyWatch(req watchRequest) {
	c := req.client
	h.mu.Lock()
	if _, ok := h.all[c]; !ok {
		h.mu.Unlock()
		return
	}
	if req.watch {
		if _, already := c.watching[req.postID]; !already && len(c.watching) >= MaxWatchedPosts {
			h.mu.Unlock()
			c.SendError("watch_limit", fmt.Sprintf("A connection can watch at most %d posts", MaxWatchedPosts))
			return
		}
		c.watching[req.postID] = struct{}{}
		addTo(h.threads, req.postID, c)
	} else {
		delete(c.watching, req.postID)
		removeFrom(h.threads, req.postID, c)
	}
	h.mu.Unlock()

	ack := NewMessage(MessageTypeWatchAck, WatchAckPayload{PostID: req.postID, Watching: req.watch})
	ack.ReplyTo = req.replyTo
	_ = c.Send(ack)
}

func (h *Hub) recipients(env envelope) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var set map[*Client]struct{}
	switch env.audience {
	case toEveryone:
		set = h.all
	case toUser:
		set = h.byUser[env.key]
	case toThread:
		set = h.threads[env.key]
	}
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (h *Hub) route(env envelope) {
	targets := h.recipients(env)
	if len(targets) > 0 {
		data, err := json.Marshal(env.msg)
		if err != nil {
			logger.Log.Error("Failed to marshal outbound message", zap.String("type", env.msg.Type), zap.Error(err))
			return
		}
		metrics.RecordWebsocketMessage("out", env.msg.Type)
		for _, c := range targets {
			h.deliver(c, data)
		}
	}

	if env.closeThread != "" {
		h.mu.Lock()
		for c := range h.threads[env.closeThread] {
			delete(c.watching, env.closeThread)
		}
		delete(h.threads, env.closeThread)
		h.mu.Unlock()
	}
}

func (h *Hub) deliver(c *Client, data []byte) {
	select {
	case c.send <- data:
		h.metrics.MessagesSent.Add(1)
	default:
		// slow consumer; remove it off the loop goroutine
		h.metrics.ConnectionsDropped.Add(1)
		go h.Unregister(c)
	}
}

func (h *Hub) publish(env envelope) {
	select {
	case h.outbound <- env:
	case <-h.ctx.Done():
	}
}

// Broadcast sends msg to every connection
func (h *Hub) Broadcast(msg *Message) {
	h.publish(envelope{audience: toEveryone, msg: msg})
}

// SendToUser sends msg to every connection of one user
func (h *Hub) SendToUser(userID string, msg *Message) {
	h.publish(envelope{audience: toUser, key: userID, msg: msg})
}

// SendToThread sends msg to connections watching postID
func (h *Hub) SendToThread(postID string, msg *Message) {
	h.publish(envelope{audience: toThread, key: postID, msg: msg})
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

func (h *Hub) setWatch(req watchRequest) {
	select {
	case h.watches <- req:
	case <-h.ctx.Done():
	}
}

// IsUserOnline reports whether the user has any open connection
func (h *Hub) IsUserOnline(userID string) bool {
	return h.GetUserConnectionCount(userID) > 0
}

func (h *Hub) GetUserConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

// ThreadWatchers returns how many connections follow postID
func (h *Hub) ThreadWatchers(postID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.threads[postID])
}

// GetMetrics returns current WebSocket metrics
func (h *Hub) GetMetrics() MetricsSnapshot {
	h.mu.RLock()
	threads := len(h.threads)
	h.mu.RUnlock()

	return MetricsSnapshot{
		TotalConnections:   h.metrics.TotalConnections.Load(),
		ActiveConnections:  h.metrics.ActiveConnections.Load(),
		WatchedThreads:     threads,
		MessagesReceived:   h.metrics.MessagesReceived.Load(),
		MessagesSent:       h.metrics.MessagesSent.Load(),
		Errors:             h.metrics.Errors.Load(),
		ConnectionsDropped: h.metrics.ConnectionsDropped.Load(),
	}
}

// MetricsSnapshot is a point-in-time copy of the hub counters
type MetricsSnapshot struct {
	TotalConnections   int64 `json:"total_connections"`
	ActiveConnections  int64 `json:"active_connections"`
	WatchedThreads     int   `json:"watched_threads"`
	MessagesReceived   int64 `json:"messages_received"`
	MessagesSent       int64 `json:"messages_sent"`
	Errors             int64 `json:"errors"`
	ConnectionsDropped int64 `json:"connections_dropped"`
}

func (m MetricsSnapshot) String() string {
	return fmt.Sprintf(
		"connections=%d/%d threads=%d messages=rx:%d/tx:%d errors=%d dropped=%d",
		m.ActiveConnections, m.TotalConnections, m.WatchedThreads,
		m.MessagesReceived, m.MessagesSent,
		m.Errors, m.ConnectionsDropped,
	)
}

// Shutdown stops the loop and disconnects every client
func (h *Hub) Shutdown(ctx context.Context) error {
	h.cancel()
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("websocket hub shutdown: %w", ctx.Err())
	}
}

func (h *Hub) disconnectAll() {
	data, _ := json.Marshal(NewMessage(MessageTypeSystem, SystemPayload{Event: "server_shutdown"}))

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.all {
		select {
		case c.send <- data:
		default:
		}
		c.cancel()
	}
	logger.Log.Info("🔌 Closed connections during shutdown", zap.Int("count", len(h.all)))

	h.byUser = make(map[string]map[*Client]struct{})
	h.threads = make(map[string]map[*Client]struct{})
	h.all = make(map[*Client]struct{})
	h.metrics.ActiveConnections.Store(0)
	metrics.SetWebsocketConnections(0)
}

// SetRateLimitConfig applies to connections opened afterwards
func (h *Hub) SetRateLimitConfig(cfg RateLimitConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rateLimitConfig = cfg
}

func (h *Hub) GetRateLimitConfig() RateLimitConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rateLimitConfig
}
