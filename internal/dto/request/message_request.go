package request

// SendMessageRequest represents a message send request. Type defaults to
// text when unspecified.
type SendMessageRequest struct {
	Type      string `json:"type,omitempty" binding:"omitempty,oneof=text image file system"`
	Content   string `json:"content" binding:"max=5000"`
	FileURL   string `json:"file_url,omitempty" binding:"omitempty,url,max=500"`
	FileName  string `json:"file_name,omitempty" binding:"omitempty,max=255"`
	FileSize  int64  `json:"file_size,omitempty" binding:"omitempty,min=0"`
	ReplyToID string `json:"reply_to_id,omitempty" binding:"omitempty,uuid"`
}

// ListMessagesQuery represents message listing query parameters
type ListMessagesQuery struct {
	Page     int `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize int `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}

// RecentMessagesQuery represents recent message query parameters
type RecentMessagesQuery struct {
	Limit int `form:"limit,default=50" binding:"omitempty,min=1,max=100"`
}
