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
	ErrNotMember = errors.New("no membership record for this room and user")
)

type MembershipRepository struct {
	db *sqlx.DB
}

func NewMembershipRepository(db *sqlx.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// claimSeat atomically takes one seat in the room. The guarded UPDATE is the
// sole capacity arbiter: it only succeeds when the room is active and below
// capacity, so the counter can never exceed the ceiling regardless of how
// many joins race.
func claimSeat(ctx context.Context, tx *sqlx.Tx, roomID string) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE rooms
		SET member_count = member_count + 1, updated_at = NOW()
		WHERE id = $1
		  AND is_active = true
		  AND (capacity IS NULL OR member_count < capacity)`,
		roomID,
	)
	if err != nil {
		return fmt.Errorf("failed to claim seat: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 1 {
		return nil
	}

	// Seat not claimed; find out why
	var room struct {
		IsActive bool `db:"is_active"`
	}
	err = tx.GetContext(ctx, &room, `SELECT is_active FROM rooms WHERE id = $1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRoomNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to inspect room: %w", err)
	}
	if !room.IsActive {
		return ErrRoomInactive
	}
	return ErrRoomFull
}

// releaseSeat decrements the member counter, flooring at zero
func releaseSeat(ctx context.Context, tx *sqlx.Tx, roomID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE rooms
		SET member_count = GREATEST(member_count - 1, 0), updated_at = NOW()
		WHERE id = $1`,
		roomID,
	)
	if err != nil {
		return fmt.Errorf("failed to release seat: %w", err)
	}
	return nil
}

// Join adds the user to the room, reactivating an old membership row when one
// exists. The seat claim and the membership mutation share one transaction so
// the counter cannot drift. Returns the resulting membership and whether the
// call changed anything (false means the membership was already active).
func (r *MembershipRepository) Join(ctx context.Context, roomID, userID string) (*model.Membership, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin join transaction: %w", err)
	}
	defer tx.Rollback()

	var m model.Membership
	err = tx.GetContext(ctx, &m, `
		SELECT * FROM memberships
		WHERE room_id = $1 AND user_id = $2
		FOR UPDATE`,
		roomID, userID,
	)

	switch {
	case err == nil && m.IsActive:
		// Already an active member; idempotent
		return &m, false, nil

	case err == nil:
		// Inactive row: reactivate with a fresh joined_at
		if err := claimSeat(ctx, tx, roomID); err != nil {
			return nil, false, err
		}
		err = tx.GetContext(ctx, &m, `
			UPDATE memberships
			SET is_active = true, joined_at = NOW()
			WHERE id = $1
			RETURNING *`,
			m.ID,
		)
		if err != nil {
			return nil, false, fmt.Errorf("failed to reactivate membership: %w", err)
		}

	case errors.Is(err, sql.ErrNoRows):
		if err := claimSeat(ctx, tx, roomID); err != nil {
			return nil, false, err
		}
		err = tx.GetContext(ctx, &m, `
			INSERT INTO memberships (room_id, user_id, role)
			VALUES ($1, $2, $3)
			RETURNING *`,
			roomID, userID, model.MemberRoleMember,
		)
		if err != nil {
			if isUniqueViolation(err, "memberships_room_id_user_id_key") {
				// Lost a first-join race; the transaction rolls back the seat
				// claim and the winner's row is returned as idempotent success
				_ = tx.Rollback()
				existing, getErr := r.Get(ctx, roomID, userID)
				if getErr != nil {
					return nil, false, getErr
				}
				return existing, false, nil
			}
			return nil, false, fmt.Errorf("failed to insert membership: %w", err)
		}

	default:
		return nil, false, fmt.Errorf("failed to lock membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit join: %w", err)
	}

	return &m, true, nil
}

// Leave marks the membership inactive and releases the seat in one
// transaction. A leave with no membership row fails; a leave while already
// inactive is a no-op. Returns whether the call changed anything.
func (r *MembershipRepository) Leave(ctx context.Context, roomID, userID string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin leave transaction: %w", err)
	}
	defer tx.Rollback()

	var m model.Membership
	err = tx.GetContext(ctx, &m, `
		SELECT * FROM memberships
		WHERE room_id = $1 AND user_id = $2
		FOR UPDATE`,
		roomID, userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotMember
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock membership: %w", err)
	}

	if !m.IsActive {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE memberships SET is_active = false WHERE id = $1`, m.ID,
	); err != nil {
		return false, fmt.Errorf("failed to deactivate membership: %w", err)
	}

	if err := releaseSeat(ctx, tx, roomID); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit leave: %w", err)
	}

	return true, nil
}

// Get retrieves the membership row for a (room, user) pair
func (r *MembershipRepository) Get(ctx context.Context, roomID, userID string) (*model.Membership, error) {
	var m model.Membership
	query := `SELECT * FROM memberships WHERE room_id = $1 AND user_id = $2`

	if err := r.db.GetContext(ctx, &m, query, roomID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return &m, nil
}

// GetActive retrieves the membership only if it is currently active
func (r *MembershipRepository) GetActive(ctx context.Context, roomID, userID string) (*model.Membership, error) {
	m, err := r.Get(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !m.IsActive {
		return nil, ErrNotMember
	}
	return m, nil
}

// ListActive lists active memberships for a room with user info
func (r *MembershipRepository) ListActive(ctx context.Context, roomID string) ([]*model.MembershipWithUser, error) {
	query := `
		SELECT m.*, u.username
		FROM memberships m
		INNER JOIN users u ON m.user_id = u.id
		WHERE m.room_id = $1 AND m.is_active = true
		ORDER BY m.role, m.joined_at`

	var members []*model.MembershipWithUser
	if err := r.db.SelectContext(ctx, &members, query, roomID); err != nil {
		return nil, fmt.Errorf("failed to list active members: %w", err)
	}

	return members, nil
}

// UpdateLastReadAt updates the member's last read timestamp
func (r *MembershipRepository) UpdateLastReadAt(ctx context.Context, roomID, userID string) error {
	query := `UPDATE memberships SET last_read_at = NOW() WHERE room_id = $1 AND user_id = $2`

	if _, err := r.db.ExecContext(ctx, query, roomID, userID); err != nil {
		return fmt.Errorf("failed to update last read at: %w", err)
	}

	return nil
}
