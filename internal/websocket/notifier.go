package websocket

// Notifier publishes domain events to connected clients. Request handlers
// depend on this rather than on Hub so they can run without one.
type Notifier interface {
	PostCreated(payload PostPayload)
	PostDeleted(postID string)
	PostStatsUpdated(payload PostStatsPayload)
	CommentCreated(payload CommentPayload)
	CommentStatsUpdated(payload CommentStatsPayload)
	KarmaUpdated(payload KarmaPayload)
}

var (
	_ Notifier = (*Hub)(nil)
	_ Notifier = NopNotifier{}
)

func (h *Hub) PostCreated(payload PostPayload) {
	h.Broadcast(NewMessage(MessageTypePostCreated, payload))
}

// PostDeleted tells everyone and ends the post's thread
func (h *Hub) PostDeleted(postID string) {
	h.publish(envelope{
		audience:    toEveryone,
		msg:         NewMessage(MessageTypePostDeleted, PostDeletedPayload{PostID: postID}),
		closeThread: postID,
	})
}

func (h *Hub) PostStatsUpdated(payload PostStatsPayload) {
	h.Broadcast(NewMessage(MessageTypePostStatsUpdated, payload))
}

// Comment events only reach connections watching the parent post

func (h *Hub) CommentCreated(payload CommentPayload) {
	h.SendToThread(payload.PostID, NewMessage(MessageTypeCommentCreated, payload))
}

func (h *Hub) CommentStatsUpdated(payload CommentStatsPayload) {
	h.SendToThread(payload.PostID, NewMessage(MessageTypeCommentStatsUpdated, payload))
}

// KarmaUpdated goes only to the affected user's connections
func (h *Hub) KarmaUpdated(payload KarmaPayload) {
	h.SendToUser(payload.UserID, NewMessage(MessageTypeKarmaUpdated, payload))
}

// NopNotifier drops every event
type NopNotifier struct{}

func (NopNotifier) PostCreated(PostPayload)                 {}
func (NopNotifier) PostDeleted(string)                      {}
func (NopNotifier) PostStatsUpdated(PostStatsPayload)       {}
func (NopNotifier) CommentCreated(CommentPayload)           {}
func (NopNotifier) CommentStatsUpdated(CommentStatsPayload) {}
func (NopNotifier) KarmaUpdated(KarmaPayload)               {}
