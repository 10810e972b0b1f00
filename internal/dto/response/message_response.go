package response

import (
	"time"

	"github.com/quantboard/chat/internal/model"
)

// MessageResponse represents a message
type MessageResponse struct {
	ID         string `json:"id"`
	RoomID     string `json:"room_id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Type       string `json:"type"`
	Content    string `json:"content"`
	FileURL    string `json:"file_url,omitempty"`
	FileName   string `json:"file_name,omitempty"`
	FileSize   int64  `json:"file_size,omitempty"`
	ReplyToID  string `json:"reply_to_id,omitempty"`
	IsDeleted  bool   `json:"is_deleted"`
	CreatedAt  string `json:"created_at"`
}

// NewMessageResponse creates a message response from model
func NewMessageResponse(msg *model.MessageWithSender) *MessageResponse {
	return &MessageResponse{
		ID:         msg.ID,
		RoomID:     msg.RoomID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Type:       string(msg.Type),
		Content:    msg.Content,
		FileURL:    msg.GetFileURL(),
		FileName:   msg.GetFileName(),
		FileSize:   msg.GetFileSize(),
		ReplyToID:  msg.GetReplyToID(),
		IsDeleted:  msg.IsDeleted,
		CreatedAt:  msg.CreatedAt.Format(time.RFC3339),
	}
}

// MessagePageResponse represents a page of messages, newest first
type MessagePageResponse struct {
	Messages []*MessageResponse `json:"messages"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// NewMessagePageResponse creates a message page response
func NewMessagePageResponse(messages []*model.MessageWithSender, total int64, page, pageSize int) *MessagePageResponse {
	out := make([]*MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, NewMessageResponse(m))
	}
	return &MessagePageResponse{
		Messages: out,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
}

// NewMessageListResponse creates a flat list of message responses
func NewMessageListResponse(messages []*model.MessageWithSender) []*MessageResponse {
	out := make([]*MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, NewMessageResponse(m))
	}
	return out
}
