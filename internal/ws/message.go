package ws

import (
	"encoding/json"
	"time"
)

// FrameType represents the type of a WebSocket frame
type FrameType string

const (
	// Client -> Server frames
	FrameTypeJoinRoom    FrameType = "join_room"
	FrameTypeLeaveRoom   FrameType = "leave_room"
	FrameTypeSendMessage FrameType = "send_message"
	FrameTypePing        FrameType = "ping"

	// Server -> Client frames
	FrameTypeRoomJoined FrameType = "room_joined"
	FrameTypeRoomLeft   FrameType = "room_left"
	FrameTypeNewMessage FrameType = "new_message"
	FrameTypeAck        FrameType = "ack"
	FrameTypePong       FrameType = "pong"
	FrameTypeError      FrameType = "error"
)

// Frame is the envelope for every WebSocket message in either direction
type Frame struct {
	Type      FrameType       `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewFrame creates a frame with the payload marshalled in
func NewFrame(frameType FrameType, payload interface{}) (*Frame, error) {
	frame := &Frame{
		Type:      frameType,
		Timestamp: time.Now().UTC(),
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		frame.Payload = data
	}

	return frame, nil
}

// ParsePayload unmarshals the frame payload into v
func (f *Frame) ParsePayload(v interface{}) error {
	if len(f.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(f.Payload, v)
}

// JoinRoomPayload represents a join room request
type JoinRoomPayload struct {
	RoomID string `json:"room_id"`
}

// LeaveRoomPayload represents a leave room request
type LeaveRoomPayload struct {
	RoomID string `json:"room_id"`
}

// SendMessagePayload represents a message send over the socket. It follows
// the REST send shape.
type SendMessagePayload struct {
	RoomID    string `json:"room_id"`
	Type      string `json:"type,omitempty"` // text, image, file
	Content   string `json:"content"`
	FileURL   string `json:"file_url,omitempty"`
	FileName  string `json:"file_name,omitempty"`
	FileSize  int64  `json:"file_size,omitempty"`
	ReplyToID string `json:"reply_to_id,omitempty"`
}

// RoomJoinedPayload confirms a join
type RoomJoinedPayload struct {
	RoomID      string `json:"room_id"`
	Role        string `json:"role"`
	MemberCount int    `json:"member_count"`
}

// RoomLeftPayload confirms a leave
type RoomLeftPayload struct {
	RoomID string `json:"room_id"`
}

// AckPayload confirms a send
type AckPayload struct {
	RequestID string `json:"request_id,omitempty"`
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
}

// ErrorPayload carries an error to the client
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
