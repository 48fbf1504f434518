package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"socialcircle/internal/model"
	"socialcircle/internal/service"
	"socialcircle/internal/transport/http/middleware"
)

// Stub repositories covering just the send path; everything else returns
// not-found or empty.

type stubUserRepo struct {
	users map[string]*model.User
}

func (s *stubUserRepo) Create(ctx context.Context, user *model.User) error { return nil }
func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, model.ErrUserNotFound
}
func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, model.ErrUserNotFound
}
func (s *stubUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}
func (s *stubUserRepo) Delete(ctx context.Context, id string) error { return nil }
func (s *stubUserRepo) SetEmailVerified(ctx context.Context, email string, at time.Time) error {
	return nil
}
func (s *stubUserRepo) UpdateProfile(ctx context.Context, id, name string, image *string) (*model.User, error) {
	return nil, model.ErrUserNotFound
}
func (s *stubUserRepo) GetCard(ctx context.Context, id string) (*model.UserCard, error) {
	return nil, model.ErrUserNotFound
}
func (s *stubUserRepo) ListOthers(ctx context.Context, excludeID string) ([]model.UserCard, error) {
	return nil, nil
}
func (s *stubUserRepo) ListWithInlineImages(ctx context.Context) ([]model.User, error) {
	return nil, nil
}
func (s *stubUserRepo) UpdateImage(ctx context.Context, id, image string) error { return nil }

type stubMessageRepo struct {
	users    map[string]*model.User
	messages []*model.Message
}

func (s *stubMessageRepo) Create(ctx context.Context, m *model.Message) error {
	m.ID = "msg-1"
	m.CreatedAt = time.Now()
	m.Sender = summaryFor(s.users[m.SenderID], m.SenderID)
	m.Receiver = summaryFor(s.users[m.ReceiverID], m.ReceiverID)
	s.messages = append(s.messages, m)
	return nil
}

func (s *stubMessageRepo) GetConversation(ctx context.Context, viewerID, otherID string) ([]model.Message, error) {
	return nil, nil
}

func (s *stubMessageRepo) GetLatest(ctx context.Context, viewerID, otherID string) (*model.Message, error) {
	return nil, nil
}

func (s *stubMessageRepo) ListTouching(ctx context.Context, userID string) ([]model.Message, error) {
	return nil, nil
}

func summaryFor(u *model.User, id string) *model.UserSummary {
	if u == nil {
		return &model.UserSummary{ID: id}
	}
	return &model.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Image: u.Image}
}

type stubUnreadCache struct{}

func (stubUnreadCache) Increment(ctx context.Context, receiverID, senderID string) error { return nil }
func (stubUnreadCache) Reset(ctx context.Context, readerID, senderID string) error       { return nil }
func (stubUnreadCache) GetAll(ctx context.Context, userID string) (map[string]int64, error) {
	return nil, nil
}

func newMessageHandlerForTest() (*MessageHandler, *stubMessageRepo) {
	users := map[string]*model.User{
		"alice": {ID: "alice", Name: "Alice", Email: "alice@example.com"},
		"bob":   {ID: "bob", Name: "Bob", Email: "bob@example.com"},
	}
	messageRepo := &stubMessageRepo{users: users}
	svc := service.NewMessageService(messageRepo, &stubUserRepo{users: users}, stubUnreadCache{})
	return NewMessageHandler(svc), messageRepo
}

func authedRequest(method, target, body, userID string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
}

func TestMessageHandler_Send_WrapsMessageInEnvelope(t *testing.T) {
	h, repo := newMessageHandlerForTest()

	req := authedRequest(http.MethodPost, "/messages/send",
		`{"receiverId":"bob","content":"hey"}`, "alice")
	w := httptest.NewRecorder()
	h.Send(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp model.SendMessageResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != "Message sent successfully" {
		t.Errorf("message = %q, want %q", resp.Message, "Message sent successfully")
	}
	if resp.Data == nil {
		t.Fatal("data is missing from the response envelope")
	}
	if resp.Data.SenderID != "alice" || resp.Data.ReceiverID != "bob" || resp.Data.Content != "hey" {
		t.Errorf("data = %+v, want alice->bob %q", resp.Data, "hey")
	}
	if resp.Data.Sender == nil || resp.Data.Sender.Name != "Alice" {
		t.Error("sender summary missing from the created message")
	}
	if resp.Data.Receiver == nil || resp.Data.Receiver.Name != "Bob" {
		t.Error("receiver summary missing from the created message")
	}
	if len(repo.messages) != 1 {
		t.Errorf("message rows = %d, want 1", len(repo.messages))
	}
}

func TestMessageHandler_Send_UnknownReceiver(t *testing.T) {
	h, repo := newMessageHandlerForTest()

	req := authedRequest(http.MethodPost, "/messages/send",
		`{"receiverId":"nobody","content":"hey"}`, "alice")
	w := httptest.NewRecorder()
	h.Send(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if len(repo.messages) != 0 {
		t.Errorf("message rows = %d, want 0", len(repo.messages))
	}
}
