package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"socialcircle/internal/model"
)

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

type messageRow struct {
	ID            string         `db:"id"`
	SenderID      string         `db:"sender_id"`
	ReceiverID    string         `db:"receiver_id"`
	Content       string         `db:"content"`
	CreatedAt     sql.NullTime   `db:"created_at"`
	SenderName    string         `db:"sender_name"`
	SenderEmail   string         `db:"sender_email"`
	SenderImage   sql.NullString `db:"sender_image"`
	ReceiverName  string         `db:"receiver_name"`
	ReceiverEmail string         `db:"receiver_email"`
	ReceiverImage sql.NullString `db:"receiver_image"`
}

const messageSelect = `
	SELECT m.id, m.sender_id, m.receiver_id, m.content, m.created_at,
	       s.name AS sender_name, s.email AS sender_email, s.image AS sender_image,
	       r.name AS receiver_name, r.email AS receiver_email, r.image AS receiver_image
	FROM messages m
	JOIN users s ON s.id = m.sender_id
	JOIN users r ON r.id = m.receiver_id
`

func (row messageRow) toMessage() model.Message {
	m := model.Message{
		ID:         row.ID,
		SenderID:   row.SenderID,
		ReceiverID: row.ReceiverID,
		Content:    row.Content,
		Sender: &model.UserSummary{
			ID:    row.SenderID,
			Name:  row.SenderName,
			Email: row.SenderEmail,
		},
		Receiver: &model.UserSummary{
			ID:    row.ReceiverID,
			Name:  row.ReceiverName,
			Email: row.ReceiverEmail,
		},
	}
	if row.CreatedAt.Valid {
		m.CreatedAt = row.CreatedAt.Time
	}
	if row.SenderImage.Valid {
		img := row.SenderImage.String
		m.Sender.Image = &img
	}
	if row.ReceiverImage.Valid {
		img := row.ReceiverImage.String
		m.Receiver.Image = &img
	}
	return m
}

// Create inserts a message and loads the participant summaries so the send
// response matches what the conversation endpoints return.
func (r *messageRepository) Create(ctx context.Context, m *model.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	query := `
		INSERT INTO messages (id, sender_id, receiver_id, content, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`
	row := r.db.QueryRowxContext(ctx, query, m.ID, m.SenderID, m.ReceiverID, m.Content)
	if err := row.Scan(&m.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	var full messageRow
	if err := r.db.GetContext(ctx, &full, messageSelect+` WHERE m.id = $1`, m.ID); err != nil {
		return fmt.Errorf("failed to load message: %w", err)
	}
	*m = full.toMessage()
	return nil
}

// GetConversation returns every message between the two users, oldest first.
func (r *messageRepository) GetConversation(ctx context.Context, userID, otherID string) ([]model.Message, error) {
	query := messageSelect + `
		WHERE (m.sender_id = $1 AND m.receiver_id = $2)
		   OR (m.sender_id = $2 AND m.receiver_id = $1)
		ORDER BY m.created_at ASC
	`
	var rows []messageRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, otherID); err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	messages := make([]model.Message, len(rows))
	for i, row := range rows {
		messages[i] = row.toMessage()
	}
	return messages, nil
}

// GetLatest returns the newest message between the two users, or nil when
// the conversation is empty. The stream poll loop calls this every tick.
func (r *messageRepository) GetLatest(ctx context.Context, userID, otherID string) (*model.Message, error) {
	query := messageSelect + `
		WHERE (m.sender_id = $1 AND m.receiver_id = $2)
		   OR (m.sender_id = $2 AND m.receiver_id = $1)
		ORDER BY m.created_at DESC
		LIMIT 1
	`
	var row messageRow
	err := r.db.GetContext(ctx, &row, query, userID, otherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest message: %w", err)
	}
	m := row.toMessage()
	return &m, nil
}

// ListTouching returns every message the user sent or received, newest
// first. The conversation list is grouped from this in memory.
func (r *messageRepository) ListTouching(ctx context.Context, userID string) ([]model.Message, error) {
	query := messageSelect + `
		WHERE m.sender_id = $1 OR m.receiver_id = $1
		ORDER BY m.created_at DESC
	`
	var rows []messageRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]model.Message, len(rows))
	for i, row := range rows {
		messages[i] = row.toMessage()
	}
	return messages, nil
}
