package service

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	apperrors "github.com/quantboard/chat/internal/pkg/errors"
	"github.com/quantboard/chat/internal/repository"
)

func setupMembershipService(t *testing.T) (*MembershipService, *sqlx.DB, string) {
	t.Helper()

	db, prefix := repository.SetupIsolatedTestDB(t)

	membershipRepo := repository.NewMembershipRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	userRepo := repository.NewUserRepository(db)
	logger := zap.NewNop()

	return NewMembershipService(membershipRepo, roomRepo, userRepo, logger), db, prefix
}

func TestMembershipService_JoinAndLeave(t *testing.T) {
	svc, db, prefix := setupMembershipService(t)
	defer db.Close()
	defer repository.CleanupTestDataByPrefix(t, db, prefix)

	user := repository.CreateIsolatedTestUser(t, db, prefix, "user")
	room := repository.CreateIsolatedTestRoom(t, db, prefix, user)
	ctx := context.Background()

	result, err := svc.Join(ctx, room.ID, user.ID)
	if err != nil {
		t.Fatalf("Failed to join: %v", err)
	}
	if !result.Changed {
		t.Error("Expected first join to report a change")
	}

	// Repeat join is idempotent
	result, err = svc.Join(ctx, room.ID, user.ID)
	if err != nil {
		t.Fatalf("Failed on repeat join: %v", err)
	}
	if result.Changed {
		t.Error("Expected repeat join to be a no-op")
	}

	changed, err := svc.Leave(ctx, room.ID, user.ID)
	if err != nil {
		t.Fatalf("Failed to leave: %v", err)
	}
	if !changed {
		t.Error("Expected leave to report a change")
	}

	// Repeat leave is a no-op
	changed, err = svc.Leave(ctx, room.ID, user.ID)
	if err != nil {
		t.Fatalf("Failed on repeat leave: %v", err)
	}
	if changed {
		t.Error("Expected repeat leave to be a no-op")
	}
}

func TestMembershipService_Join_Errors(t *testing.T) {
	svc, db, prefix := setupMembershipService(t)
	defer db.Close()
	defer repository.CleanupTestDataByPrefix(t, db, prefix)

	user := repository.CreateIsolatedTestUser(t, db, prefix, "user")
	room := repository.CreateIsolatedTestRoom(t, db, prefix, user)
	ctx := context.Background()

	if _, err := svc.Join(ctx, room.ID, svcNonExistentUUID); err != apperrors.ErrUserNotFound {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.Join(ctx, svcNonExistentUUID, user.ID); err != apperrors.ErrRoomNotFound {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}

func TestMembershipService_Leave_Errors(t *testing.T) {
	svc, db, prefix := setupMembershipService(t)
	defer db.Close()
	defer repository.CleanupTestDataByPrefix(t, db, prefix)

	user := repository.CreateIsolatedTestUser(t, db, prefix, "user")
	room := repository.CreateIsolatedTestRoom(t, db, prefix, user)
	ctx := context.Background()

	if _, err := svc.Leave(ctx, svcNonExistentUUID, user.ID); err != apperrors.ErrRoomNotFound {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
	if _, err := svc.Leave(ctx, room.ID, user.ID); err != apperrors.ErrNotMember {
		t.Errorf("Expected ErrNotMember, got %v", err)
	}
}

func TestMembershipService_ListActiveMembers(t *testing.T) {
	svc, db, prefix := setupMembershipService(t)
	defer db.Close()
	defer repository.CleanupTestDataByPrefix(t, db, prefix)

	user := repository.CreateIsolatedTestUser(t, db, prefix, "user")
	other := repository.CreateIsolatedTestUser(t, db, prefix, "other")
	room := repository.CreateIsolatedTestRoom(t, db, prefix, user)
	ctx := context.Background()

	for _, id := range []string{user.ID, other.ID} {
		if _, err := svc.Join(ctx, room.ID, id); err != nil {
			t.Fatalf("Failed to join: %v", err)
		}
	}

	members, err := svc.ListActiveMembers(ctx, room.ID)
	if err != nil {
		t.Fatalf("Failed to list members: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("Expected 2 members, got %d", len(members))
	}

	if _, err := svc.ListActiveMembers(ctx, svcNonExistentUUID); err != apperrors.ErrRoomNotFound {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}
