package model

import (
	"database/sql"
	"fmt"
	"time"
)

type RoomType string

const (
	RoomTypePublic  RoomType = "public"
	RoomTypePrivate RoomType = "private"
	RoomTypeDirect  RoomType = "direct"
)

// ParseRoomType parses a room type string at the API boundary.
func ParseRoomType(s string) (RoomType, error) {
	switch RoomType(s) {
	case RoomTypePublic, RoomTypePrivate, RoomTypeDirect:
		return RoomType(s), nil
	default:
		return "", fmt.Errorf("unsupported room type %q", s)
	}
}

type Room struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description sql.NullString `db:"description" json:"description,omitempty"`
	Type        RoomType       `db:"type" json:"type"`
	CreatorID   string         `db:"creator_id" json:"creator_id"`
	Capacity    sql.NullInt32  `db:"capacity" json:"capacity,omitempty"`
	MemberCount int            `db:"member_count" json:"member_count"`
	IsActive    bool           `db:"is_active" json:"is_active"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// GetDescription returns description or empty string
func (r *Room) GetDescription() string {
	if r.Description.Valid {
		return r.Description.String
	}
	return ""
}

// GetCapacity returns the capacity, or 0 when the room is unbounded.
func (r *Room) GetCapacity() int {
	if r.Capacity.Valid {
		return int(r.Capacity.Int32)
	}
	return 0
}

// HasCapacity reports whether the room has a capacity ceiling at all.
func (r *Room) HasCapacity() bool {
	return r.Capacity.Valid
}

// IsFull reports whether the room's member counter has reached its capacity.
func (r *Room) IsFull() bool {
	return r.Capacity.Valid && r.MemberCount >= int(r.Capacity.Int32)
}

// IsPublic checks if room is public
func (r *Room) IsPublic() bool {
	return r.Type == RoomTypePublic
}

// IsPrivate checks if room is private
func (r *Room) IsPrivate() bool {
	return r.Type == RoomTypePrivate
}

// RoomDetail includes creator info
type RoomDetail struct {
	Room
	Creator *UserProfile `json:"creator,omitempty"`
}
