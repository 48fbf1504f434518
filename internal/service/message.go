package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"socialcircle/internal/cache"
	"socialcircle/internal/model"
	"socialcircle/internal/repository"
)

// StreamPollInterval is how often an open message stream re-queries the
// conversation for its latest message.
const StreamPollInterval = 2 * time.Second

// MessageService handles direct messages: sending, conversation reads, the
// grouped conversation list, and the long-lived per-conversation stream.
//
// The stream is a poll loop, not a push channel: every tick it re-reads the
// newest message and emits it as a frame. The same message is redelivered
// until something newer arrives, so consumers deduplicate by message id.
type MessageService struct {
	messageRepo  repository.MessageRepository
	userRepo     repository.UserRepository
	unread       cache.UnreadCache
	pollInterval time.Duration
}

func NewMessageService(messageRepo repository.MessageRepository, userRepo repository.UserRepository, unread cache.UnreadCache) *MessageService {
	return &MessageService{
		messageRepo:  messageRepo,
		userRepo:     userRepo,
		unread:       unread,
		pollInterval: StreamPollInterval,
	}
}

// Send stores a message and bumps the receiver's unread counter for this
// sender. An empty content or unknown receiver creates no row.
func (s *MessageService) Send(ctx context.Context, senderID string, req *model.SendMessageRequest) (*model.Message, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, model.ErrMessageContentRequired
	}
	if req.ReceiverID == "" {
		return nil, fmt.Errorf("receiverId is required")
	}

	if _, err := s.userRepo.GetByID(ctx, req.ReceiverID); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrReceiverNotFound
		}
		return nil, fmt.Errorf("failed to look up receiver: %w", err)
	}

	msg := &model.Message{
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Content:    strings.TrimSpace(req.Content),
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	// Unread counters are presentation state; a failed bump must not fail
	// the send.
	if err := s.unread.Increment(ctx, req.ReceiverID, senderID); err != nil {
		log.Printf("[Message] Unread increment FAILED: receiver=%s sender=%s err=%v", req.ReceiverID, senderID, err)
	}

	log.Printf("[Message] Send OK: id=%s sender=%s receiver=%s", msg.ID, senderID, req.ReceiverID)
	return msg, nil
}

// Conversation returns the full message history with one counterpart,
// oldest first, and clears the viewer's unread counter for them. Opening a
// conversation is what marks it read.
func (s *MessageService) Conversation(ctx context.Context, viewerID, otherID string) ([]model.Message, error) {
	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.GetConversation(ctx, viewerID, otherID)
	if err != nil {
		return nil, err
	}

	if err := s.unread.Reset(ctx, viewerID, otherID); err != nil {
		log.Printf("[Message] Unread reset FAILED: reader=%s sender=%s err=%v", viewerID, otherID, err)
	}

	return messages, nil
}

// Conversations groups the user's messages by counterpart, keeping the
// newest message per conversation, sorted by that message's time descending.
func (s *MessageService) Conversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	messages, err := s.messageRepo.ListTouching(ctx, userID)
	if err != nil {
		return nil, err
	}

	unread, err := s.unread.GetAll(ctx, userID)
	if err != nil {
		log.Printf("[Message] Unread lookup FAILED: user=%s err=%v", userID, err)
		unread = map[string]int64{}
	}

	// Messages arrive newest first, so the first message seen for each
	// counterpart is that conversation's latest, and insertion order is
	// already the required sort order.
	var conversations []model.Conversation
	seen := make(map[string]bool)
	for i := range messages {
		m := messages[i]

		counterpartID := m.SenderID
		counterpart := m.Sender
		if m.SenderID == userID {
			counterpartID = m.ReceiverID
			counterpart = m.Receiver
		}

		if seen[counterpartID] {
			continue
		}
		seen[counterpartID] = true

		conversations = append(conversations, model.Conversation{
			UserID:      counterpartID,
			User:        counterpart,
			LastMessage: &messages[i],
			UnreadCount: unread[counterpartID],
		})
	}

	return conversations, nil
}

// Stream runs the poll loop for one open conversation stream. It emits a
// connected frame immediately, then on every tick emits the latest message
// if the conversation has one. The loop ends when ctx is cancelled (client
// disconnect) or when emit reports a write failure; a failed poll is logged
// and the loop continues.
func (s *MessageService) Stream(ctx context.Context, viewerID, otherID string, emit func(model.StreamFrame) error) error {
	if err := emit(model.ConnectedFrame()); err != nil {
		return err
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	log.Printf("[Message] Stream open: viewer=%s other=%s", viewerID, otherID)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[Message] Stream closed: viewer=%s other=%s", viewerID, otherID)
			return nil
		case <-ticker.C:
			latest, err := s.messageRepo.GetLatest(ctx, viewerID, otherID)
			if err != nil {
				log.Printf("[Message] Stream poll FAILED: viewer=%s other=%s err=%v", viewerID, otherID, err)
				continue
			}
			if latest == nil {
				continue
			}
			if err := emit(model.NewMessageFrame(latest)); err != nil {
				log.Printf("[Message] Stream write FAILED: viewer=%s other=%s err=%v", viewerID, otherID, err)
				return err
			}
		}
	}
}
