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
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomNameTaken = errors.New("room name already taken")
	ErrRoomInactive  = errors.New("room is inactive")
	ErrRoomFull      = errors.New("room is full")
)

type RoomRepository struct {
	db *sqlx.DB
}

func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create creates a new room with zero members. Name uniqueness is
// case-insensitive, backed by a unique index on LOWER(name).
func (r *RoomRepository) Create(ctx context.Context, room *model.Room) error {
	query := `
		INSERT INTO rooms (name, description, type, creator_id, capacity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, member_count, is_active, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		room.Name,
		room.Description,
		room.Type,
		room.CreatorID,
		room.Capacity,
	).Scan(&room.ID, &room.MemberCount, &room.IsActive, &room.CreatedAt, &room.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err, "rooms_name_lower_key") {
			return ErrRoomNameTaken
		}
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

// GetByID retrieves a room by ID, active or not
func (r *RoomRepository) GetByID(ctx context.Context, id string) (*model.Room, error) {
	var room model.Room
	query := `SELECT * FROM rooms WHERE id = $1`

	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room by id: %w", err)
	}

	return &room, nil
}

// ExistsByName checks room name uniqueness, case-insensitively
func (r *RoomRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM rooms WHERE LOWER(name) = LOWER($1))`

	if err := r.db.GetContext(ctx, &exists, query, name); err != nil {
		return false, fmt.Errorf("failed to check room name: %w", err)
	}

	return exists, nil
}

// Update updates a room's mutable fields
func (r *RoomRepository) Update(ctx context.Context, room *model.Room) error {
	query := `
		UPDATE rooms
		SET name = $2, description = $3, type = $4, capacity = $5, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		room.ID,
		room.Name,
		room.Description,
		room.Type,
		room.Capacity,
	)
	if err != nil {
		if isUniqueViolation(err, "rooms_name_lower_key") {
			return ErrRoomNameTaken
		}
		return fmt.Errorf("failed to update room: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrRoomNotFound
	}

	return nil
}

// Deactivate soft-deletes a room. Memberships are left untouched but the
// room stops accepting joins.
func (r *RoomRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE rooms SET is_active = false, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate room: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrRoomNotFound
	}

	return nil
}

// ListActive lists active rooms, newest first, optionally filtered by type
func (r *RoomRepository) ListActive(ctx context.Context, typeFilter model.RoomType, limit, offset int) ([]*model.Room, error) {
	var rooms []*model.Room
	var err error

	if typeFilter != "" {
		query := `
			SELECT * FROM rooms
			WHERE is_active = true AND type = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3`
		err = r.db.SelectContext(ctx, &rooms, query, typeFilter, limit, offset)
	} else {
		query := `
			SELECT * FROM rooms
			WHERE is_active = true
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2`
		err = r.db.SelectContext(ctx, &rooms, query, limit, offset)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list active rooms: %w", err)
	}

	return rooms, nil
}
