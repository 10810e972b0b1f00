package model

import (
	"database/sql"
	"fmt"
	"time"
)

type MemberRole string

const (
	MemberRoleMember    MemberRole = "member"
	MemberRoleModerator MemberRole = "moderator"
	MemberRoleAdmin     MemberRole = "admin"
)

// ParseMemberRole parses a member role string at the API boundary.
func ParseMemberRole(s string) (MemberRole, error) {
	switch MemberRole(s) {
	case MemberRoleMember, MemberRoleModerator, MemberRoleAdmin:
		return MemberRole(s), nil
	default:
		return "", fmt.Errorf("unsupported member role %q", s)
	}
}

// Membership is a user's participation record in a room. Rows are never
// hard-deleted: leaving flips is_active off and re-joining flips it back on.
type Membership struct {
	ID         string       `db:"id" json:"id"`
	RoomID     string       `db:"room_id" json:"room_id"`
	UserID     string       `db:"user_id" json:"user_id"`
	Role       MemberRole   `db:"role" json:"role"`
	IsActive   bool         `db:"is_active" json:"is_active"`
	JoinedAt   time.Time    `db:"joined_at" json:"joined_at"`
	LastReadAt sql.NullTime `db:"last_read_at" json:"last_read_at,omitempty"`
}

// CanModerate checks if the member can moderate (moderator or admin role)
func (m *Membership) CanModerate() bool {
	return m.Role == MemberRoleModerator || m.Role == MemberRoleAdmin
}

// MembershipWithUser includes user info
type MembershipWithUser struct {
	Membership
	Username string `db:"username" json:"username"`
}
