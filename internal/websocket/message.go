package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hackup/backend/internal/karma"
)

// FlexibleTime handles both Unix millisecond timestamps and RFC3339 strings
type FlexibleTime struct {
	time.Time
}

// UnmarshalJSON accepts Unix milliseconds or an RFC3339 string
func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	var ms int64
	if err := json.Unmarshal(b, &ms); err == nil {
		ft.Time = time.UnixMilli(ms)
		return nil
	}

	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("timestamp must be Unix milliseconds (integer) or RFC3339 string")
	}

	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return err
	}
	ft.Time = t
	return nil
}

// MarshalJSON always writes RFC3339
func (ft FlexibleTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(ft.Time)
}

// Message types for WebSocket communication
const (
	MessageTypeSystem = "system"
	MessageTypePing   = "ping"
	MessageTypePong   = "pong"
	MessageTypeError  = "error"

	// sent by clients to follow a post's comment thread
	MessageTypeWatchPost   = "watch_post"
	MessageTypeUnwatchPost = "unwatch_post"
	MessageTypeWatchAck    = "watch_ack"

	MessageTypePostCreated         = "post_created"
	MessageTypePostDeleted         = "post_deleted"
	MessageTypePostStatsUpdated    = "post_stats_updated"
	MessageTypeCommentCreated      = "comment_created"
	MessageTypeCommentStatsUpdated = "comment_stats_updated"
	MessageTypeKarmaUpdated        = "karma_updated"
)

// Message represents a WebSocket message
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`

	// ID is a client-chosen identifier echoed back in ReplyTo
	ID      string `json:"id,omitempty"`
	ReplyTo string `json:"reply_to,omitempty"`

	Timestamp FlexibleTime `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType string, payload interface{}) *Message {
	return &Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// NewReply creates a reply message to an original message
func NewReply(original *Message, msgType string, payload interface{}) *Message {
	return &Message{
		Type:      msgType,
		ReplyTo:   original.ID,
		Payload:   payload,
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// NewErrorMessage creates an error message
func NewErrorMessage(code string, message string) *Message {
	return NewMessage(MessageTypeError, ErrorPayload{
		Code:    code,
		Message: message,
	})
}

// ParsePayload re-decodes the generic payload into target
func (m *Message) ParsePayload(target interface{}) error {
	if m.Payload == nil {
		return nil
	}
	data, err := json.Marshal(m.Payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PingPayload struct {
	ClientTime int64 `json:"client_time"`
}

type PongPayload struct {
	ClientTime int64 `json:"client_time"`
	ServerTime int64 `json:"server_time"`
	Latency    int64 `json:"latency_ms"`
}

// WatchPayload names the post a client wants to (un)follow
type WatchPayload struct {
	PostID string `json:"post_id"`
}

type WatchAckPayload struct {
	PostID   string `json:"post_id"`
	Watching bool   `json:"watching"`
}

// SystemPayload represents system event payloads
type SystemPayload struct {
	Event   string                 `json:"event"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// PostPayload announces a new post
type PostPayload struct {
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// PostDeletedPayload announces a removed post
type PostDeletedPayload struct {
	PostID string `json:"post_id"`
}

// PostStatsPayload carries fresh counters after a vote, like or comment
type PostStatsPayload struct {
	PostID       string `json:"post_id"`
	UpVotes      int64  `json:"up_votes"`
	DownVotes    int64  `json:"down_votes"`
	LikeCount    int64  `json:"like_count"`
	CommentCount int64  `json:"comment_count"`
}

// CommentPayload announces a new comment
type CommentPayload struct {
	CommentID string    `json:"comment_id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentStatsPayload carries fresh counters for a comment
type CommentStatsPayload struct {
	CommentID string `json:"comment_id"`
	PostID    string `json:"post_id"`
	UpVotes   int64  `json:"up_votes"`
	DownVotes int64  `json:"down_votes"`
	LikeCount int64  `json:"like_count"`
}

// KarmaPayload is sent only to the user whose karma changed
type KarmaPayload struct {
	UserID     string          `json:"user_id"`
	KarmaScore int64           `json:"karma_score"`
	Formatted  karma.Formatted `json:"formatted"`
}
