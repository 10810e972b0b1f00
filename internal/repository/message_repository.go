package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/quantboard/chat/internal/model"
)

var (
	ErrMessageNotFound = errors.New("message not found")
)

type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new message
func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	query := `
		INSERT INTO messages (room_id, sender_id, type, content, file_url, file_name, file_size, reply_to_id)
		VALUES (:room_id, :sender_id, :type, :content, :file_url, :file_name, :file_size, :reply_to_id)
		RETURNING id, is_deleted, created_at, updated_at`

	rows, err := r.db.NamedQueryContext(ctx, query, msg)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&msg.ID, &msg.IsDeleted, &msg.CreatedAt, &msg.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan created message: %w", err)
		}
	}

	return nil
}

// GetByID retrieves a message by ID, deleted or not
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*model.Message, error) {
	var msg model.Message
	query := `SELECT * FROM messages WHERE id = $1`

	if err := r.db.GetContext(ctx, &msg, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return &msg, nil
}

// GetByIDWithSender retrieves a message joined with the sender's username
func (r *MessageRepository) GetByIDWithSender(ctx context.Context, id string) (*model.MessageWithSender, error) {
	var msg model.MessageWithSender
	query := `
		SELECT m.*, u.username AS sender_name
		FROM messages m
		INNER JOIN users u ON m.sender_id = u.id
		WHERE m.id = $1`

	if err := r.db.GetContext(ctx, &msg, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message with sender: %w", err)
	}

	return &msg, nil
}

// SoftDelete flags the message as deleted without touching its content. The
// WHERE clause makes a second delete a no-op so deleted_at is only ever set
// once. Returns whether this call performed the deletion.
func (r *MessageRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET is_deleted = true, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND is_deleted = false`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to soft delete message: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows == 1, nil
}

// ListByRoomID lists non-deleted messages for a room, newest first
func (r *MessageRepository) ListByRoomID(ctx context.Context, roomID string, limit, offset int) ([]*model.MessageWithSender, error) {
	query := `
		SELECT m.*, u.username AS sender_name
		FROM messages m
		INNER JOIN users u ON m.sender_id = u.id
		WHERE m.room_id = $1 AND m.is_deleted = false
		ORDER BY m.created_at DESC
		LIMIT $2 OFFSET $3`

	var messages []*model.MessageWithSender
	if err := r.db.SelectContext(ctx, &messages, query, roomID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}

// CountByRoomID counts non-deleted messages in a room
func (r *MessageRepository) CountByRoomID(ctx context.Context, roomID string) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM messages WHERE room_id = $1 AND is_deleted = false`

	if err := r.db.GetContext(ctx, &count, query, roomID); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}

	return count, nil
}
