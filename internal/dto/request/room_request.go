package request

import "encoding/json"

// OptionalInt32 distinguishes an absent JSON field from an explicit null.
// Absent means leave unchanged; null means clear the value.
type OptionalInt32 struct {
	Set   bool
	Valid bool
	Value int32
}

func (o *OptionalInt32) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Valid = false
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// CreateRoomRequest represents a room creation request. A nil capacity means
// no member limit.
type CreateRoomRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Description string `json:"description,omitempty" binding:"omitempty,max=500"`
	Type        string `json:"type,omitempty" binding:"omitempty,oneof=public private direct"` // default: public
	Capacity    *int32 `json:"capacity,omitempty" binding:"omitempty,min=1,max=10000"`
}

// UpdateRoomRequest represents a room update request. Nil fields are left
// untouched; capacity set to null removes the member limit.
type UpdateRoomRequest struct {
	Name        *string       `json:"name,omitempty" binding:"omitempty,min=2,max=100"`
	Description *string       `json:"description,omitempty" binding:"omitempty,max=500"`
	Type        *string       `json:"type,omitempty" binding:"omitempty,oneof=public private direct"`
	Capacity    OptionalInt32 `json:"capacity"`
}

// ListRoomsQuery represents room listing query parameters
type ListRoomsQuery struct {
	Type   string `form:"type" binding:"omitempty,oneof=public private direct"`
	Limit  int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	Offset int    `form:"offset,default=0" binding:"omitempty,min=0"`
}
