// Package relay moves persisted messages between server instances over Redis
// pub/sub. Every local fan-out, including one triggered by a client on this
// very instance, flows through the subscriber so REST and WebSocket sends
// share one delivery path.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/quantboard/chat/internal/model"
)

const channelPrefix = "chat:room:"

// ChannelForRoom returns the pub/sub channel for a room
func ChannelForRoom(roomID string) string {
	return channelPrefix + roomID
}

// Event is the transport-neutral wire form of a relayed message
type Event struct {
	ID          string `json:"id"`
	RoomID      string `json:"roomId"`
	SenderID    string `json:"senderId"`
	SenderName  string `json:"senderName"`
	MessageType string `json:"messageType"`
	Content     string `json:"content"`
	FileURL     string `json:"fileUrl,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	FileSize    int64  `json:"fileSize,omitempty"`
	ReplyToID   string `json:"replyToId,omitempty"`
	Deleted     bool   `json:"deleted"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// EventFromMessage builds the wire event for a persisted message
func EventFromMessage(msg *model.MessageWithSender) *Event {
	return &Event{
		ID:          msg.ID,
		RoomID:      msg.RoomID,
		SenderID:    msg.SenderID,
		SenderName:  msg.SenderName,
		MessageType: string(msg.Type),
		Content:     msg.Content,
		FileURL:     msg.GetFileURL(),
		FileName:    msg.GetFileName(),
		FileSize:    msg.GetFileSize(),
		ReplyToID:   msg.GetReplyToID(),
		Deleted:     msg.IsDeleted,
		CreatedAt:   msg.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   msg.UpdatedAt.Format(time.RFC3339),
	}
}

// Publisher pushes events onto the room channel
type Publisher struct {
	redis  *redis.Client
	logger *zap.Logger
}

func NewPublisher(redisClient *redis.Client, logger *zap.Logger) *Publisher {
	return &Publisher{
		redis:  redisClient,
		logger: logger,
	}
}

// Publish serializes the event and hands it to the broker. The error is
// surfaced to the caller; the message itself is already persisted and stays
// persisted regardless.
func (p *Publisher) Publish(ctx context.Context, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal relay event: %w", err)
	}

	if err := p.redis.Publish(ctx, ChannelForRoom(event.RoomID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish relay event: %w", err)
	}

	return nil
}

// Broadcaster delivers a decoded event to the sessions of one room on this
// instance. Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastRoom(roomID string, event *Event)
}

// Subscriber listens on all room channels and forwards decoded events to the
// local broadcaster
type Subscriber struct {
	redis       *redis.Client
	broadcaster Broadcaster
	logger      *zap.Logger
}

func NewSubscriber(redisClient *redis.Client, broadcaster Broadcaster, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		redis:       redisClient,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Run blocks consuming relay events until the context is cancelled
func (s *Subscriber) Run(ctx context.Context) {
	pubsub := s.redis.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	s.logger.Info("Relay subscriber started", zap.String("pattern", channelPrefix+"*"))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Relay subscriber stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				s.logger.Warn("Relay subscription channel closed")
				return
			}
			s.dispatch(msg.Channel, []byte(msg.Payload))
		}
	}
}

// dispatch decodes one payload and forwards it. Malformed payloads are
// logged and dropped so one bad producer cannot stall delivery.
func (s *Subscriber) dispatch(channel string, payload []byte) {
	roomID := strings.TrimPrefix(channel, channelPrefix)
	if roomID == channel || roomID == "" {
		s.logger.Warn("Relay event on unexpected channel", zap.String("channel", channel))
		return
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn("Failed to decode relay event",
			zap.String("channel", channel),
			zap.Error(err),
		)
		return
	}

	s.broadcaster.BroadcastRoom(roomID, &event)
}
