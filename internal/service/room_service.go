package service

import (
	"context"
	"database/sql"

	"github.com/quantboard/chat/internal/model"
	apperrors "github.com/quantboard/chat/internal/pkg/errors"
	"github.com/quantboard/chat/internal/repository"
	"go.uber.org/zap"
)

type RoomService struct {
	roomRepo *repository.RoomRepository
	userRepo *repository.UserRepository
	gate     *AccessGate
	logger   *zap.Logger
}

func NewRoomService(
	roomRepo *repository.RoomRepository,
	userRepo *repository.UserRepository,
	gate *AccessGate,
	logger *zap.Logger,
) *RoomService {
	return &RoomService{
		roomRepo: roomRepo,
		userRepo: userRepo,
		gate:     gate,
		logger:   logger,
	}
}

// CreateRoomInput represents room creation input
type CreateRoomInput struct {
	Name        string
	Description string
	Type        model.RoomType
	CreatorID   string
	Capacity    *int32
}

// Create creates a new room. The caller is responsible for joining the
// creator through the membership service afterwards.
func (s *RoomService) Create(ctx context.Context, input *CreateRoomInput) (*model.Room, error) {
	exists, err := s.userRepo.ExistsByID(ctx, input.CreatorID)
	if err != nil {
		s.logger.Error("Failed to check creator", zap.Error(err))
		return nil, apperrors.ErrInternal
	}
	if !exists {
		return nil, apperrors.ErrUserNotFound
	}

	room := &model.Room{
		Name:      input.Name,
		Type:      input.Type,
		CreatorID: input.CreatorID,
	}
	if input.Description != "" {
		room.Description = sql.NullString{String: input.Description, Valid: true}
	}
	if input.Capacity != nil {
		room.Capacity = sql.NullInt32{Int32: *input.Capacity, Valid: true}
	}

	if err := s.roomRepo.Create(ctx, room); err != nil {
		if err == repository.ErrRoomNameTaken {
			return nil, apperrors.ErrRoomNameTaken
		}
		s.logger.Error("Failed to create room", zap.Error(err))
		return nil, apperrors.ErrInternal
	}

	s.logger.Info("Room created",
		zap.String("room_id", room.ID),
		zap.String("name", room.Name),
		zap.String("creator_id", input.CreatorID),
	)

	return room, nil
}

// GetByID retrieves a room by ID
func (s *RoomService) GetByID(ctx context.Context, id string) (*model.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrRoomNotFound {
			return nil, apperrors.ErrRoomNotFound
		}
		s.logger.Error("Failed to get room", zap.Error(err))
		return nil, apperrors.ErrInternal
	}
	return room, nil
}

// GetByIDWithDetails retrieves a room with its creator's profile
func (s *RoomService) GetByIDWithDetails(ctx context.Context, id string) (*model.RoomDetail, error) {
	room, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &model.RoomDetail{Room: *room}

	creator, err := s.userRepo.GetByID(ctx, room.CreatorID)
	if err != nil {
		s.logger.Warn("Failed to get room creator", zap.Error(err))
	} else {
		detail.Creator = creator.ToProfile()
	}

	return detail, nil
}

// List lists active rooms, newest first, optionally filtered by type
func (s *RoomService) List(ctx context.Context, typeFilter model.RoomType, limit, offset int) ([]*model.Room, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rooms, err := s.roomRepo.ListActive(ctx, typeFilter, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list rooms", zap.Error(err))
		return nil, apperrors.ErrInternal
	}
	return rooms, nil
}

// UpdateRoomInput represents a room update. Nil fields are left untouched;
// ClearCapacity removes the member limit.
type UpdateRoomInput struct {
	Name          *string
	Description   *string
	Type          *model.RoomType
	Capacity      *int32
	ClearCapacity bool
}

// Update updates a room's mutable fields. Only the creator or a platform
// admin may update; existence is checked before authorization.
func (s *RoomService) Update(ctx context.Context, roomID string, actor Actor, input *UpdateRoomInput) (*model.Room, error) {
	room, err := s.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.RequireRoomAdmin(room, actor); err != nil {
		return nil, err
	}

	if input.Name != nil {
		room.Name = *input.Name
	}
	if input.Description != nil {
		if *input.Description == "" {
			room.Description = sql.NullString{}
		} else {
			room.Description = sql.NullString{String: *input.Description, Valid: true}
		}
	}
	if input.Type != nil {
		room.Type = *input.Type
	}
	if input.ClearCapacity {
		room.Capacity = sql.NullInt32{}
	} else if input.Capacity != nil {
		room.Capacity = sql.NullInt32{Int32: *input.Capacity, Valid: true}
	}

	if err := s.roomRepo.Update(ctx, room); err != nil {
		switch err {
		case repository.ErrRoomNotFound:
			return nil, apperrors.ErrRoomNotFound
		case repository.ErrRoomNameTaken:
			return nil, apperrors.ErrRoomNameTaken
		}
		s.logger.Error("Failed to update room", zap.Error(err))
		return nil, apperrors.ErrInternal
	}

	s.logger.Info("Room updated",
		zap.String("room_id", room.ID),
		zap.String("actor_id", actor.ID),
	)

	return room, nil
}

// Deactivate soft-deletes a room. Only the creator or a platform admin may
// deactivate; messages and membership history are retained.
func (s *RoomService) Deactivate(ctx context.Context, roomID string, actor Actor) error {
	room, err := s.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if err := s.gate.RequireRoomAdmin(room, actor); err != nil {
		return err
	}

	if err := s.roomRepo.Deactivate(ctx, roomID); err != nil {
		if err == repository.ErrRoomNotFound {
			return apperrors.ErrRoomNotFound
		}
		s.logger.Error("Failed to deactivate room", zap.Error(err))
		return apperrors.ErrInternal
	}

	s.logger.Info("Room deactivated",
		zap.String("room_id", roomID),
		zap.String("actor_id", actor.ID),
	)

	return nil
}
