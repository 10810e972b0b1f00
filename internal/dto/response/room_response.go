package response

import (
	"time"

	"github.com/quantboard/chat/internal/model"
)

// RoomResponse represents a room. Capacity is null for unlimited rooms.
type RoomResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	CreatorID   string `json:"creator_id"`
	Capacity    *int32 `json:"capacity"`
	MemberCount int    `json:"member_count"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// capacityPtr converts the room's nullable capacity to a pointer,
// nil when the room is unbounded.
func capacityPtr(room *model.Room) *int32 {
	if room.Capacity.Valid {
		v := room.Capacity.Int32
		return &v
	}
	return nil
}

// NewRoomResponse creates a room response from model
func NewRoomResponse(room *model.Room) *RoomResponse {
	return &RoomResponse{
		ID:          room.ID,
		Name:        room.Name,
		Description: room.GetDescription(),
		Type:        string(room.Type),
		CreatorID:   room.CreatorID,
		Capacity:    capacityPtr(room),
		MemberCount: room.MemberCount,
		IsActive:    room.IsActive,
		CreatedAt:   room.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   room.UpdatedAt.Format(time.RFC3339),
	}
}

// NewRoomListResponse creates a list of room responses
func NewRoomListResponse(rooms []*model.Room) []*RoomResponse {
	out := make([]*RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, NewRoomResponse(room))
	}
	return out
}

// RoomDetailResponse represents a room with its creator's profile
type RoomDetailResponse struct {
	RoomResponse
	Creator *ProfileResponse `json:"creator,omitempty"`
}

// NewRoomDetailResponse creates a detailed room response
func NewRoomDetailResponse(detail *model.RoomDetail) *RoomDetailResponse {
	resp := &RoomDetailResponse{
		RoomResponse: *NewRoomResponse(&detail.Room),
	}
	if detail.Creator != nil {
		resp.Creator = NewProfileResponse(detail.Creator)
	}
	return resp
}

// MemberResponse represents a room member
type MemberResponse struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	JoinedAt   string `json:"joined_at"`
	LastReadAt string `json:"last_read_at,omitempty"`
}

// NewMemberResponse creates a member response from model
func NewMemberResponse(m *model.MembershipWithUser) *MemberResponse {
	resp := &MemberResponse{
		UserID:   m.UserID,
		Username: m.Username,
		Role:     string(m.Role),
		JoinedAt: m.JoinedAt.Format(time.RFC3339),
	}
	if m.LastReadAt.Valid {
		resp.LastReadAt = m.LastReadAt.Time.Format(time.RFC3339)
	}
	return resp
}

// NewMemberListResponse creates a list of member responses
func NewMemberListResponse(members []*model.MembershipWithUser) []*MemberResponse {
	out := make([]*MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, NewMemberResponse(m))
	}
	return out
}

// JoinResponse reports the outcome of a join call
type JoinResponse struct {
	RoomID   string `json:"room_id"`
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	JoinedAt string `json:"joined_at"`
	Changed  bool   `json:"changed"`
}
