package model

import (
	"database/sql"
	"fmt"
	"time"
)

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

// ParseMessageType parses a message type string at the API boundary.
func ParseMessageType(s string) (MessageType, error) {
	switch MessageType(s) {
	case MessageTypeText, MessageTypeImage, MessageTypeFile, MessageTypeSystem:
		return MessageType(s), nil
	default:
		return "", fmt.Errorf("unsupported message type %q", s)
	}
}

// Message is an append-only, soft-deletable room message. Content is retained
// after deletion so reply references stay resolvable.
type Message struct {
	ID        string         `db:"id" json:"id"`
	RoomID    string         `db:"room_id" json:"room_id"`
	SenderID  string         `db:"sender_id" json:"sender_id"`
	Type      MessageType    `db:"type" json:"type"`
	Content   string         `db:"content" json:"content"`
	FileURL   sql.NullString `db:"file_url" json:"file_url,omitempty"`
	FileName  sql.NullString `db:"file_name" json:"file_name,omitempty"`
	FileSize  sql.NullInt64  `db:"file_size" json:"file_size,omitempty"`
	ReplyToID sql.NullString `db:"reply_to_id" json:"reply_to_id,omitempty"`
	IsDeleted bool           `db:"is_deleted" json:"is_deleted"`
	DeletedAt sql.NullTime   `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// GetReplyToID returns reply_to_id or empty string
func (m *Message) GetReplyToID() string {
	if m.ReplyToID.Valid {
		return m.ReplyToID.String
	}
	return ""
}

// GetFileURL returns file_url or empty string
func (m *Message) GetFileURL() string {
	if m.FileURL.Valid {
		return m.FileURL.String
	}
	return ""
}

// GetFileName returns file_name or empty string
func (m *Message) GetFileName() string {
	if m.FileName.Valid {
		return m.FileName.String
	}
	return ""
}

// GetFileSize returns file_size or zero
func (m *Message) GetFileSize() int64 {
	if m.FileSize.Valid {
		return m.FileSize.Int64
	}
	return 0
}

// MessageWithSender includes sender info
type MessageWithSender struct {
	Message
	SenderName string `db:"sender_name" json:"sender_name"`
}

// FileMeta carries optional file metadata attached to an image/file message.
type FileMeta struct {
	URL  string
	Name string
	Size int64
}
