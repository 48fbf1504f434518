package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"socialcircle/internal/model"
	"socialcircle/internal/queue"
)

// Mock repositories with function fields so each test defines only the
// behavior it cares about. Unset lookups default to "not found"; unset
// mutations default to success.

type mockUserRepository struct {
	createFn        func(ctx context.Context, user *model.User) error
	getByIDFn       func(ctx context.Context, id string) (*model.User, error)
	getByEmailFn    func(ctx context.Context, email string) (*model.User, error)
	existsByEmailFn func(ctx context.Context, email string) (bool, error)

	createCalls   []*model.User
	deleteCalls   []string
	verifiedCalls []string
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{}
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	m.deleteCalls = append(m.deleteCalls, id)
	return nil
}

func (m *mockUserRepository) SetEmailVerified(ctx context.Context, email string, at time.Time) error {
	m.verifiedCalls = append(m.verifiedCalls, email)
	return nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, id string, name string, image *string) (*model.User, error) {
	return &model.User{ID: id, Name: name, Image: image}, nil
}

func (m *mockUserRepository) GetCard(ctx context.Context, id string) (*model.UserCard, error) {
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ListOthers(ctx context.Context, excludeID string) ([]model.UserCard, error) {
	return nil, nil
}

func (m *mockUserRepository) ListWithInlineImages(ctx context.Context) ([]model.User, error) {
	return nil, nil
}

func (m *mockUserRepository) UpdateImage(ctx context.Context, id string, image string) error {
	return nil
}

type mockLoginTokenRepository struct {
	findValidFn func(ctx context.Context, email, tokenHash, purpose string) (*model.LoginToken, error)

	tokens             []*model.LoginToken
	consumeCalls       []string
	deleteExpiredCalls int
}

func (m *mockLoginTokenRepository) Create(ctx context.Context, token *model.LoginToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	token.CreatedAt = time.Now()
	m.tokens = append(m.tokens, token)
	return nil
}

func (m *mockLoginTokenRepository) FindValid(ctx context.Context, email, tokenHash, purpose string) (*model.LoginToken, error) {
	if m.findValidFn != nil {
		return m.findValidFn(ctx, email, tokenHash, purpose)
	}
	for i := len(m.tokens) - 1; i >= 0; i-- {
		t := m.tokens[i]
		if t.Email == email && t.TokenHash == tokenHash && t.Purpose == purpose && !t.IsConsumed() {
			return t, nil
		}
	}
	return nil, model.ErrLoginTokenNotFound
}

func (m *mockLoginTokenRepository) Consume(ctx context.Context, id string) error {
	m.consumeCalls = append(m.consumeCalls, id)
	for _, t := range m.tokens {
		if t.ID == id {
			now := time.Now()
			t.ConsumedAt = &now
			return nil
		}
	}
	return model.ErrLoginTokenNotFound
}

func (m *mockLoginTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	m.deleteExpiredCalls++
	return 0, nil
}

// mockFollowRepository keeps real edge state so toggle tests exercise the
// flip logic end to end.
type mockFollowRepository struct {
	edges map[string]bool
}

func newMockFollowRepository() *mockFollowRepository {
	return &mockFollowRepository{edges: make(map[string]bool)}
}

func followKey(followerID, followeeID string) string {
	return followerID + "->" + followeeID
}

func (m *mockFollowRepository) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	return m.edges[followKey(followerID, followeeID)], nil
}

func (m *mockFollowRepository) Create(ctx context.Context, followerID, followeeID string) error {
	m.edges[followKey(followerID, followeeID)] = true
	return nil
}

func (m *mockFollowRepository) Delete(ctx context.Context, followerID, followeeID string) error {
	delete(m.edges, followKey(followerID, followeeID))
	return nil
}

func (m *mockFollowRepository) ListFollowers(ctx context.Context, userID string) ([]model.UserCard, error) {
	return nil, nil
}

func (m *mockFollowRepository) ListFollowing(ctx context.Context, userID string) ([]model.UserCard, error) {
	return nil, nil
}

func (m *mockFollowRepository) CountFollowers(ctx context.Context, userID string) (int, error) {
	n := 0
	for k, v := range m.edges {
		if v && len(k) > len(userID) && k[len(k)-len(userID):] == userID {
			n++
		}
	}
	return n, nil
}

func (m *mockFollowRepository) CountFollowing(ctx context.Context, userID string) (int, error) {
	n := 0
	for k, v := range m.edges {
		if v && len(k) > len(userID) && k[:len(userID)] == userID {
			n++
		}
	}
	return n, nil
}

// mockPostRepository keeps posts and likes in memory, computing like counts
// by counting rows the way the real repository does. When comments is set,
// Delete cascades into it the way the real repository's single-statement
// cascade removes comment rows.
type mockPostRepository struct {
	posts map[string]*model.Post
	likes map[string]bool // userID|postID

	comments      *mockCommentRepository
	deletedWithTx []string // post ids deleted while a transaction was open
}

func newMockPostRepository() *mockPostRepository {
	return &mockPostRepository{
		posts: make(map[string]*model.Post),
		likes: make(map[string]bool),
	}
}

func likeKey(userID, postID string) string {
	return userID + "|" + postID
}

func (m *mockPostRepository) Create(ctx context.Context, post *model.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	post.CreatedAt = time.Now()
	m.posts[post.ID] = post
	return nil
}

func (m *mockPostRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	copied := *p
	copied.LikeCount, _ = m.CountLikes(ctx, id)
	return &copied, nil
}

func (m *mockPostRepository) GetOwned(ctx context.Context, id, authorID string) (*model.Post, error) {
	p, ok := m.posts[id]
	if !ok || p.AuthorID != authorID {
		return nil, model.ErrPostNotFound
	}
	return p, nil
}

func (m *mockPostRepository) Delete(ctx context.Context, tx *sqlx.Tx, id string) error {
	if _, ok := m.posts[id]; !ok {
		return model.ErrPostNotFound
	}
	if tx != nil {
		m.deletedWithTx = append(m.deletedWithTx, id)
	}
	for k := range m.likes {
		if strings.HasSuffix(k, "|"+id) {
			delete(m.likes, k)
		}
	}
	if m.comments != nil {
		m.comments.deleteByPost(id)
	}
	delete(m.posts, id)
	return nil
}

func (m *mockPostRepository) FeedPage(ctx context.Context, offset, limit int) ([]model.Post, error) {
	return nil, nil
}

func (m *mockPostRepository) CountAll(ctx context.Context) (int, error) {
	return len(m.posts), nil
}

func (m *mockPostRepository) ListByAuthor(ctx context.Context, authorID string) ([]model.Post, error) {
	return nil, nil
}

func (m *mockPostRepository) CountByAuthor(ctx context.Context, authorID string) (int, error) {
	n := 0
	for _, p := range m.posts {
		if p.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

func (m *mockPostRepository) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := m.posts[id]
	return ok, nil
}

func (m *mockPostRepository) CheckLikes(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(postIDs))
	for _, id := range postIDs {
		result[id] = m.likes[likeKey(userID, id)]
	}
	return result, nil
}

func (m *mockPostRepository) LikeExists(ctx context.Context, userID, postID string) (bool, error) {
	return m.likes[likeKey(userID, postID)], nil
}

func (m *mockPostRepository) Like(ctx context.Context, userID, postID string) error {
	m.likes[likeKey(userID, postID)] = true
	return nil
}

func (m *mockPostRepository) Unlike(ctx context.Context, userID, postID string) error {
	delete(m.likes, likeKey(userID, postID))
	return nil
}

func (m *mockPostRepository) CountLikes(ctx context.Context, postID string) (int, error) {
	n := 0
	for k, v := range m.likes {
		if v && k[len(k)-len(postID):] == postID {
			n++
		}
	}
	return n, nil
}

type mockCommentRepository struct {
	comments []*model.Comment
}

func (m *mockCommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	comment.CreatedAt = time.Now()
	m.comments = append(m.comments, comment)
	return nil
}

func (m *mockCommentRepository) ListByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	var out []model.Comment
	for _, c := range m.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCommentRepository) deleteByPost(postID string) {
	kept := m.comments[:0]
	for _, c := range m.comments {
		if c.PostID != postID {
			kept = append(kept, c)
		}
	}
	m.comments = kept
}

// Fake database/sql driver so services that open transactions can run
// against mock repositories. No statement ever reaches it; only BeginTx,
// Commit, and Rollback are exercised.

type fakeTxDriver struct{}

func (fakeTxDriver) Open(name string) (driver.Conn, error) { return fakeConn{}, nil }

type fakeConnector struct{}

func (fakeConnector) Connect(ctx context.Context) (driver.Conn, error) { return fakeConn{}, nil }
func (fakeConnector) Driver() driver.Driver                            { return fakeTxDriver{} }

type fakeConn struct{}

func (fakeConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("statements are not supported")
}
func (fakeConn) Close() error              { return nil }
func (fakeConn) Begin() (driver.Tx, error) { return fakeTx{}, nil }

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

func newTxDB() *sqlx.DB {
	return sqlx.NewDb(sql.OpenDB(fakeConnector{}), "postgres")
}

// mockMessageRepository keeps messages in memory. getLatestFn lets stream
// tests script what each poll observes.
type mockMessageRepository struct {
	getLatestFn func(ctx context.Context, viewerID, otherID string) (*model.Message, error)

	messages []*model.Message
}

func (m *mockMessageRepository) Create(ctx context.Context, message *model.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	message.CreatedAt = time.Now()
	message.Sender = &model.UserSummary{ID: message.SenderID}
	message.Receiver = &model.UserSummary{ID: message.ReceiverID}
	m.messages = append(m.messages, message)
	return nil
}

func (m *mockMessageRepository) GetConversation(ctx context.Context, viewerID, otherID string) ([]model.Message, error) {
	var out []model.Message
	for _, msg := range m.messages {
		if (msg.SenderID == viewerID && msg.ReceiverID == otherID) ||
			(msg.SenderID == otherID && msg.ReceiverID == viewerID) {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (m *mockMessageRepository) GetLatest(ctx context.Context, viewerID, otherID string) (*model.Message, error) {
	if m.getLatestFn != nil {
		return m.getLatestFn(ctx, viewerID, otherID)
	}
	conv, _ := m.GetConversation(ctx, viewerID, otherID)
	if len(conv) == 0 {
		return nil, nil
	}
	return &conv[len(conv)-1], nil
}

func (m *mockMessageRepository) ListTouching(ctx context.Context, userID string) ([]model.Message, error) {
	// Newest first, matching the real query's ORDER BY created_at DESC
	var out []model.Message
	for i := len(m.messages) - 1; i >= 0; i-- {
		msg := m.messages[i]
		if msg.SenderID == userID || msg.ReceiverID == userID {
			out = append(out, *msg)
		}
	}
	return out, nil
}

// mockUnreadCache mirrors the Redis hash semantics in plain maps.
type mockUnreadCache struct {
	counts map[string]map[string]int64
}

func newMockUnreadCache() *mockUnreadCache {
	return &mockUnreadCache{counts: make(map[string]map[string]int64)}
}

func (m *mockUnreadCache) Increment(ctx context.Context, receiverID, senderID string) error {
	if m.counts[receiverID] == nil {
		m.counts[receiverID] = make(map[string]int64)
	}
	m.counts[receiverID][senderID]++
	return nil
}

func (m *mockUnreadCache) Reset(ctx context.Context, readerID, senderID string) error {
	if m.counts[readerID] != nil {
		delete(m.counts[readerID], senderID)
	}
	return nil
}

func (m *mockUnreadCache) GetAll(ctx context.Context, userID string) (map[string]int64, error) {
	out := make(map[string]int64)
	for sender, n := range m.counts[userID] {
		if n > 0 {
			out[sender] = n
		}
	}
	return out, nil
}

type mockMailer struct {
	failVerification bool
	failSignIn       bool

	verificationSends []string
	signInSends       []string
}

var errSimulated = errors.New("simulated failure")

func (m *mockMailer) SendVerificationEmail(ctx context.Context, to, name, verifyURL string) error {
	if m.failVerification {
		return errSimulated
	}
	m.verificationSends = append(m.verificationSends, to)
	return nil
}

func (m *mockMailer) SendSignInEmail(ctx context.Context, to, signinURL string) error {
	if m.failSignIn {
		return errSimulated
	}
	m.signInSends = append(m.signInSends, to)
	return nil
}

type mockPublisher struct {
	failFor   map[string]bool
	published []queue.MaintenanceEvent
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.MaintenanceEvent) (string, error) {
	if m.failFor[event.UserID] {
		return "", errSimulated
	}
	m.published = append(m.published, event)
	return "1-0", nil
}
