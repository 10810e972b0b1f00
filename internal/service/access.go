package service

import (
	"context"

	"github.com/quantboard/chat/internal/model"
	apperrors "github.com/quantboard/chat/internal/pkg/errors"
	"github.com/quantboard/chat/internal/repository"
	"go.uber.org/zap"
)

// Actor identifies the authenticated caller of an operation. IsAdmin carries
// the platform-wide admin flag resolved from the token, not a room role.
type Actor struct {
	ID      string
	IsAdmin bool
}

// AccessGate centralizes the authorization checks shared by the room,
// membership and message services. Callers resolve resource existence before
// consulting the gate so a missing resource never reads as access denied.
type AccessGate struct {
	membershipRepo *repository.MembershipRepository
	logger         *zap.Logger
}

func NewAccessGate(membershipRepo *repository.MembershipRepository, logger *zap.Logger) *AccessGate {
	return &AccessGate{
		membershipRepo: membershipRepo,
		logger:         logger,
	}
}

// RequireRoomAdmin passes when the actor created the room or holds the
// platform admin flag
func (g *AccessGate) RequireRoomAdmin(room *model.Room, actor Actor) error {
	if actor.IsAdmin || room.CreatorID == actor.ID {
		return nil
	}
	return apperrors.ErrAccessDenied
}

// RequireActiveMembership passes when the actor has an active membership in
// the room
func (g *AccessGate) RequireActiveMembership(ctx context.Context, roomID string, actor Actor) error {
	_, err := g.membershipRepo.GetActive(ctx, roomID, actor.ID)
	if err == repository.ErrNotMember {
		return apperrors.ErrNotMember
	}
	if err != nil {
		g.logger.Error("Failed to check membership", zap.Error(err))
		return apperrors.ErrInternal
	}
	return nil
}

// RequireSelfOrPlatformAdmin passes when the actor owns the resource or holds
// the platform admin flag
func (g *AccessGate) RequireSelfOrPlatformAdmin(resourceOwnerID string, actor Actor) error {
	if actor.IsAdmin || resourceOwnerID == actor.ID {
		return nil
	}
	return apperrors.ErrAccessDenied
}
