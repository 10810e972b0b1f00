package service

import (
	"context"
	"database/sql"

	"github.com/quantboard/chat/internal/model"
	apperrors "github.com/quantboard/chat/internal/pkg/errors"
	"github.com/quantboard/chat/internal/pkg/utils"
	"github.com/quantboard/chat/internal/relay"
	"github.com/quantboard/chat/internal/repository"
	"go.uber.org/zap"
)

// DefaultRecentLimit caps a listRecent call when the client asks for nothing
// specific
const DefaultRecentLimit = 50

type MessageService struct {
	messageRepo    *repository.MessageRepository
	membershipRepo *repository.MembershipRepository
	roomRepo       *repository.RoomRepository
	userRepo       *repository.UserRepository
	gate           *AccessGate
	publisher      *relay.Publisher
	logger         *zap.Logger
}

func NewMessageService(
	messageRepo *repository.MessageRepository,
	membershipRepo *repository.MembershipRepository,
	roomRepo *repository.RoomRepository,
	userRepo *repository.UserRepository,
	gate *AccessGate,
	publisher *relay.Publisher,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		messageRepo:    messageRepo,
		membershipRepo: membershipRepo,
		roomRepo:       roomRepo,
		userRepo:       userRepo,
		gate:           gate,
		publisher:      publisher,
		logger:         logger,
	}
}

// AppendInput represents a message send
type AppendInput struct {
	RoomID    string
	SenderID  string
	Type      model.MessageType
	Content   string
	File      *model.FileMeta
	ReplyToID string
}

// Append persists a message and relays it to the room channel. The message
// stays persisted even when the relay publish fails; that failure surfaces as
// an internal error so the sender knows fan-out did not happen.
func (s *MessageService) Append(ctx context.Context, input *AppendInput) (*model.MessageWithSender, error) {
	room, err := s.roomRepo.GetByID(ctx, input.RoomID)
	if err != nil {
		if err == repository.ErrRoomNotFound {
			return nil, apperrors.ErrRoomNotFound
		}
		s.logger.Error("Failed to get room", zap.Error(err))
		return nil, apperrors.ErrInternal
	}
	if !room.IsActive {
		return nil, apperrors.ErrRoomInactive
	}

	sender, err := s.userRepo.GetByID(ctx, input.SenderID)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		s.logger.Error("Failed to get sender", zap.Error(err))
		return nil, apperrors.ErrInternal
	}

	actor := Actor{ID: input.SenderID}
	if err := s.gate.RequireActiveMembership(ctx, input.RoomID, actor); err != nil {
		return nil, err
	}

	msgType := input.Type
	if msgType == "" {
		msgType = model.MessageTypeText
	}
	content := utils.SanitizeString(input.Content)
	if msgType == model.MessageTypeText && content == "" {
		return nil, apperrors.ErrBlankContent
	}

	if input.ReplyToID != "" {
		target, err := s.messageRepo.GetByID(ctx, input.ReplyToID)
		if err != nil {
			if err == repository.ErrMessageNotFound {
				return nil, apperrors.ErrReplyNotFound
			}
			s.logger.Error("Failed to get reply target", zap.Error(err))
			return nil, apperrors.ErrInternal
		}
		if target.RoomID != input.RoomID {
			return nil, apperrors.ErrReplyWrongRoom
		}
	}

	msg := &model.Message{
		RoomID:   input.RoomID,
		SenderID: input.SenderID,
		Type:     msgType,
		Content:  content,
	}
	if input.File != nil {
		msg.FileURL = sql.NullString{String: input.File.URL, Valid: input.File.URL != ""}
		msg.FileName = sql.NullString{String: input.File.Name, Valid: input.File.Name != ""}
		msg.FileSize = sql.NullInt64{Int64: input.File.Size, Valid: input.File.Size > 0}
	}
	if input.ReplyToID != "" {
		msg.ReplyToID = sql.NullString{String: input.ReplyToID, Valid: true}
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		s.logger.Error("Failed to create message", zap.Error(err))
		return nil, apperrors.ErrInternal
	}

	// Sending implies having read the room up to now
	if err := s.membershipRepo.UpdateLastReadAt(ctx, input.RoomID, input.SenderID); err != nil {
		s.logger.Warn("Failed to update last read at", zap.Error(err))
	}

	withSender := &model.MessageWithSender{
		Message:    *msg,
		SenderName: sender.Username,
	}

	if err := s.publisher.Publish(ctx, relay.EventFromMessage(withSender)); err != nil {
		s.logger.Error("Relay publish failed, message stays persisted",
			zap.String("message_id", msg.ID),
			zap.String("room_id", msg.RoomID),
			zap.Error(err),
		)
		return nil, apperrors.ErrRelay
	}

	return withSender, nil
}

// ListPage returns non-deleted messages for a room, newest first
func (s *MessageService) ListPage(ctx context.Context, roomID string, page, pageSize int) ([]*model.MessageWithSender, int64, error) {
	if _, err := s.roomRepo.GetByID(ctx, roomID); err != nil {
		if err == repository.ErrRoomNotFound {
			return nil, 0, apperrors.ErrRoomNotFound
		}
		s.logger.Error("Failed to get room", zap.Error(err))
		return nil, 0, apperrors.ErrInternal
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	messages, err := s.messageRepo.ListByRoomID(ctx, roomID, pageSize, (page-1)*pageSize)
	if err != nil {
		s.logger.Error("Failed to list messages", zap.Error(err))
		return nil, 0, apperrors.ErrInternal
	}

	total, err := s.messageRepo.CountByRoomID(ctx, roomID)
	if err != nil {
		s.logger.Error("Failed to count messages", zap.Error(err))
		return nil, 0, apperrors.ErrInternal
	}

	return messages, total, nil
}

// ListRecent returns the most recent non-deleted messages, newest first
func (s *MessageService) ListRecent(ctx context.Context, roomID string, limit int) ([]*model.MessageWithSender, error) {
	if _, err := s.roomRepo.GetByID(ctx, roomID); err != nil {
		if err == repository.ErrRoomNotFound {
			return nil, apperrors.ErrRoomNotFound
		}
		s.logger.Error("Failed to get room", zap.Error(err))
		return nil, apperrors.ErrInternal
	}

	if limit <= 0 || limit > 100 {
		limit = DefaultRecentLimit
	}

	messages, err := s.messageRepo.ListByRoomID(ctx, roomID, limit, 0)
	if err != nil {
		s.logger.Error("Failed to list recent messages", zap.Error(err))
		return nil, apperrors.ErrInternal
	}
	return messages, nil
}

// Delete soft-deletes a message. The sender or a platform admin may delete;
// deleting an already-deleted message is a no-op.
func (s *MessageService) Delete(ctx context.Context, messageID string, actor Actor) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if err == repository.ErrMessageNotFound {
			return apperrors.ErrMessageNotFound
		}
		s.logger.Error("Failed to get message", zap.Error(err))
		return apperrors.ErrInternal
	}

	if err := s.gate.RequireSelfOrPlatformAdmin(msg.SenderID, actor); err != nil {
		return err
	}

	deleted, err := s.messageRepo.SoftDelete(ctx, messageID)
	if err != nil {
		s.logger.Error("Failed to delete message", zap.Error(err))
		return apperrors.ErrInternal
	}

	if deleted {
		s.logger.Info("Message deleted",
			zap.String("message_id", messageID),
			zap.String("actor_id", actor.ID),
		)
	}

	return nil
}
