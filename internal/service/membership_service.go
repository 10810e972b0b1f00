package service

import (
	"context"

	"github.com/quantboard/chat/internal/model"
	apperrors "github.com/quantboard/chat/internal/pkg/errors"
	"github.com/quantboard/chat/internal/repository"
	"go.uber.org/zap"
)

type MembershipService struct {
	membershipRepo *repository.MembershipRepository
	roomRepo       *repository.RoomRepository
	userRepo       *repository.UserRepository
	logger         *zap.Logger
}

func NewMembershipService(
	membershipRepo *repository.MembershipRepository,
	roomRepo *repository.RoomRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
) *MembershipService {
	return &MembershipService{
		membershipRepo: membershipRepo,
		roomRepo:       roomRepo,
		userRepo:       userRepo,
		logger:         logger,
	}
}

// JoinResult carries the membership and whether the join changed state.
// Changed is false for a repeat join by an already active member.
type JoinResult struct {
	Membership *model.Membership
	Changed    bool
}

// Join adds the user to the room. Capacity, room liveness and the membership
// mutation are settled atomically by the repository transaction.
func (s *MembershipService) Join(ctx context.Context, roomID, userID string) (*JoinResult, error) {
	exists, err := s.userRepo.ExistsByID(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to check user", zap.Error(err))
		return nil, apperrors.ErrInternal
	}
	if !exists {
		return nil, apperrors.ErrUserNotFound
	}

	m, changed, err := s.membershipRepo.Join(ctx, roomID, userID)
	if err != nil {
		switch err {
		case repository.ErrRoomNotFound:
			return nil, apperrors.ErrRoomNotFound
		case repository.ErrRoomInactive:
			return nil, apperrors.ErrRoomInactive
		case repository.ErrRoomFull:
			return nil, apperrors.ErrRoomFull
		}
		s.logger.Error("Failed to join room", zap.Error(err))
		return nil, apperrors.ErrInternal
	}

	if changed {
		s.logger.Info("User joined room",
			zap.String("room_id", roomID),
			zap.String("user_id", userID),
		)
	}

	return &JoinResult{Membership: m, Changed: changed}, nil
}

// Leave deactivates the user's membership. Leaving while already inactive is
// a no-op; leaving without ever having joined is an error. Returns whether
// the call changed state.
func (s *MembershipService) Leave(ctx context.Context, roomID, userID string) (bool, error) {
	// Room existence first so a bad room ID never reads as a membership error
	if _, err := s.roomRepo.GetByID(ctx, roomID); err != nil {
		if err == repository.ErrRoomNotFound {
			return false, apperrors.ErrRoomNotFound
		}
		s.logger.Error("Failed to get room", zap.Error(err))
		return false, apperrors.ErrInternal
	}

	changed, err := s.membershipRepo.Leave(ctx, roomID, userID)
	if err != nil {
		if err == repository.ErrNotMember {
			return false, apperrors.ErrNotMember
		}
		s.logger.Error("Failed to leave room", zap.Error(err))
		return false, apperrors.ErrInternal
	}

	if changed {
		s.logger.Info("User left room",
			zap.String("room_id", roomID),
			zap.String("user_id", userID),
		)
	}

	return changed, nil
}

// ListActiveMembers lists the room's active members with user info
func (s *MembershipService) ListActiveMembers(ctx context.Context, roomID string) ([]*model.MembershipWithUser, error) {
	if _, err := s.roomRepo.GetByID(ctx, roomID); err != nil {
		if err == repository.ErrRoomNotFound {
			return nil, apperrors.ErrRoomNotFound
		}
		s.logger.Error("Failed to get room", zap.Error(err))
		return nil, apperrors.ErrInternal
	}

	members, err := s.membershipRepo.ListActive(ctx, roomID)
	if err != nil {
		s.logger.Error("Failed to list members", zap.Error(err))
		return nil, apperrors.ErrInternal
	}
	return members, nil
}
