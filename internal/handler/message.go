package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"socialcircle/internal/httputil"
	"socialcircle/internal/model"
	"socialcircle/internal/service"
	"socialcircle/internal/transport/http/middleware"
)

// MessageHandler serves direct messaging endpoints, including the long-lived
// event stream.
type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// Send stores a new message.
// POST /messages/send
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	senderID, _ := middleware.GetUserIDFromContext(r.Context())

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	msg, err := h.messageService.Send(r.Context(), senderID, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrMessageContentRequired):
			httputil.WriteBadRequest(w, "Content is required")
		case errors.Is(err, model.ErrReceiverNotFound):
			httputil.WriteNotFound(w, "Receiver not found")
		default:
			log.Printf("[ERROR] SendMessage handler: %v", err)
			httputil.WriteInternalError(w, "Failed to send message")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.SendMessageResponse{
		Message: "Message sent successfully",
		Data:    msg,
	})
}

// Conversation returns the full history with one counterpart and marks it
// read.
// GET /messages/conversation?userId=<id>
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())
	otherID := r.URL.Query().Get("userId")
	if otherID == "" {
		httputil.WriteBadRequest(w, "userId is required")
		return
	}

	messages, err := h.messageService.Conversation(r.Context(), viewerID, otherID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] Conversation handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load conversation")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
	})
}

// Conversations returns the grouped conversation list with unread counts.
// GET /messages/conversations
func (h *MessageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	conversations, err := h.messageService.Conversations(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] Conversations handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load conversations")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"conversations": conversations,
	})
}

// Stream opens the long-lived per-conversation event stream. Frames are
// `data: <json>\n\n` and each write is flushed immediately. The connection
// lives until the client disconnects; request context cancellation stops
// the poll loop and releases the connection's timer.
// GET /messages/stream?userId=<id>
func (h *MessageHandler) Stream(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())
	otherID := r.URL.Query().Get("userId")
	if otherID == "" {
		httputil.WriteBadRequest(w, "userId is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteInternalError(w, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	emit := func(frame model.StreamFrame) error {
		payload, err := json.Marshal(frame)
		if err != nil {
			return fmt.Errorf("marshal frame: %w", err)
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	// Blocks until client disconnect; write failures end the loop inside
	if err := h.messageService.Stream(r.Context(), viewerID, otherID, emit); err != nil {
		log.Printf("[ERROR] Stream handler: viewer=%s other=%s err=%v", viewerID, otherID, err)
	}
}
