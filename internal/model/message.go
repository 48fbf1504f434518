package model

import (
	"errors"
	"time"
)

// Message is a direct message between two users. Rows are immutable once
// created; there is no edit or delete.
type Message struct {
	ID         string    `db:"id" json:"id"`
	SenderID   string    `db:"sender_id" json:"senderId"`
	ReceiverID string    `db:"receiver_id" json:"receiverId"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`

	// Joined participant summaries
	Sender   *UserSummary `json:"sender,omitempty"`
	Receiver *UserSummary `json:"receiver,omitempty"`
}

// Conversation is a derived grouping of messages by the counterpart user id.
// It is never stored; it exists only in the conversation-list response.
type Conversation struct {
	UserID      string       `json:"userId"`
	User        *UserSummary `json:"user"`
	LastMessage *Message     `json:"lastMessage"`
	UnreadCount int64        `json:"unreadCount"`
}

// SendMessageRequest is the request body for POST /messages/send.
type SendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

// SendMessageResponse wraps the created message.
type SendMessageResponse struct {
	Message string   `json:"message"`
	Data    *Message `json:"data"`
}

// Stream frame discriminators. The stream emits exactly one "connected"
// frame at open, then "new_message" frames as polls observe messages.
const (
	StreamEventConnected  = "connected"
	StreamEventNewMessage = "new_message"
)

// StreamFrame is the JSON payload of one `data: <json>\n\n` event-stream
// frame. Message holds a plain string on connected frames and a *Message on
// new_message frames, matching the wire contract. Consumers must
// de-duplicate by message id: the latest message of a conversation is
// redelivered on every poll cycle until a newer one arrives.
type StreamFrame struct {
	Type    string      `json:"type"`
	Message interface{} `json:"message,omitempty"`
}

// ConnectedFrame is the single frame emitted when a stream opens.
func ConnectedFrame() StreamFrame {
	return StreamFrame{Type: StreamEventConnected, Message: "Connected to message stream"}
}

// NewMessageFrame wraps a message observed by the poll loop.
func NewMessageFrame(m *Message) StreamFrame {
	return StreamFrame{Type: StreamEventNewMessage, Message: m}
}

// Messaging errors
var (
	ErrReceiverNotFound       = errors.New("receiver not found")
	ErrMessageContentRequired = errors.New("receiver id and content are required")
)
