package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/quantboard/chat/internal/model"
)

const messageNonExistentUUID = "00000000-0000-0000-0000-000000000000"

func TestMessageRepository_Create(t *testing.T) {
	db, prefix := SetupIsolatedTestDB(t)
	defer db.Close()
	defer CleanupTestDataByPrefix(t, db, prefix)

	user := CreateIsolatedTestUser(t, db, prefix, "sender")
	room := CreateIsolatedTestRoom(t, db, prefix, user)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	msg := &model.Message{
		RoomID:   room.ID,
		SenderID: user.ID,
		Type:     model.MessageTypeText,
		Content:  prefix + " long SPY, stop at 480",
	}

	if err := repo.Create(ctx, msg); err != nil {
		t.Fatalf("Failed to create message: %v", err)
	}

	if msg.ID == "" {
		t.Error("Expected message ID to be set")
	}
	if msg.CreatedAt.IsZero() {
		t.Error("Expected created_at to be set")
	}
	if msg.IsDeleted {
		t.Error("Expected new message not to be deleted")
	}
}

func TestMessageRepository_Create_WithFileAndReply(t *testing.T) {
	db, prefix := SetupIsolatedTestDB(t)
	defer db.Close()
	defer CleanupTestDataByPrefix(t, db, prefix)

	user := CreateIsolatedTestUser(t, db, prefix, "sender")
	room := CreateIsolatedTestRoom(t, db, prefix, user)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	parent := &model.Message{
		RoomID:   room.ID,
		SenderID: user.ID,
		Type:     model.MessageTypeText,
		Content:  prefix + " original",
	}
	if err := repo.Create(ctx, parent); err != nil {
		t.Fatalf("Failed to create parent message: %v", err)
	}

	reply := &model.Message{
		RoomID:    room.ID,
		SenderID:  user.ID,
		Type:      model.MessageTypeFile,
		Content:   prefix + " backtest results attached",
		FileURL:   sql.NullString{String: "https://files.example.com/results.csv", Valid: true},
		FileName:  sql.NullString{String: "results.csv", Valid: true},
		FileSize:  sql.NullInt64{Int64: 2048, Valid: true},
		ReplyToID: sql.NullString{String: parent.ID, Valid: true},
	}
	if err := repo.Create(ctx, reply); err != nil {
		t.Fatalf("Failed to create reply: %v", err)
	}

	found, err := repo.GetByID(ctx, reply.ID)
	if err != nil {
		t.Fatalf("Failed to get reply: %v", err)
	}
	if found.GetReplyToID() != parent.ID {
		t.Errorf("Expected reply_to_id %s, got %s", parent.ID, found.GetReplyToID())
	}
	if found.GetFileName() != "results.csv" {
		t.Errorf("Expected file name results.csv, got %s", found.GetFileName())
	}
	if found.GetFileSize() != 2048 {
		t.Errorf("Expected file size 2048, got %d", found.GetFileSize())
	}
}

func TestMessageRepository_GetByIDWithSender(t *testing.T) {
	db, prefix := SetupIsolatedTestDB(t)
	defer db.Close()
	defer CleanupTestDataByPrefix(t, db, prefix)

	user := CreateIsolatedTestUser(t, db, prefix, "sender")
	room := CreateIsolatedTestRoom(t, db, prefix, user)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	msg := &model.Message{
		RoomID:   room.ID,
		SenderID: user.ID,
		Type:     model.MessageTypeText,
		Content:  prefix + " hello",
	}
	if err := repo.Create(ctx, msg); err != nil {
		t.Fatalf("Failed to create message: %v", err)
	}

	found, err := repo.GetByIDWithSender(ctx, msg.ID)
	if err != nil {
		t.Fatalf("Failed to get message: %v", err)
	}
	if found.SenderName != user.Username {
		t.Errorf("Expected sender %s, got %s", user.Username, found.SenderName)
	}

	_, err = repo.GetByIDWithSender(ctx, messageNonExistentUUID)
	if err != ErrMessageNotFound {
		t.Errorf("Expected ErrMessageNotFound, got %v", err)
	}
}

func TestMessageRepository_SoftDelete(t *testing.T) {
	db, prefix := SetupIsolatedTestDB(t)
	defer db.Close()
	defer CleanupTestDataByPrefix(t, db, prefix)

	user := CreateIsolatedTestUser(t, db, prefix, "sender")
	room := CreateIsolatedTestRoom(t, db, prefix, user)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	msg := &model.Message{
		RoomID:   room.ID,
		SenderID: user.ID,
		Type:     model.MessageTypeText,
		Content:  prefix + " to be deleted",
	}
	if err := repo.Create(ctx, msg); err != nil {
		t.Fatalf("Failed to create message: %v", err)
	}

	deleted, err := repo.SoftDelete(ctx, msg.ID)
	if err != nil {
		t.Fatalf("Failed to delete message: %v", err)
	}
	if !deleted {
		t.Error("Expected delete to report a change")
	}

	found, err := repo.GetByID(ctx, msg.ID)
	if err != nil {
		t.Fatalf("Expected deleted message to remain readable: %v", err)
	}
	if !found.IsDeleted {
		t.Error("Expected message to be flagged deleted")
	}
	if !found.DeletedAt.Valid {
		t.Error("Expected deleted_at to be set")
	}
	if found.Content != msg.Content {
		t.Error("Expected content to be retained after delete")
	}

	// A second delete is a no-op and must not touch deleted_at
	firstDeletedAt := found.DeletedAt.Time
	deleted, err = repo.SoftDelete(ctx, msg.ID)
	if err != nil {
		t.Fatalf("Failed on repeat delete: %v", err)
	}
	if deleted {
		t.Error("Expected repeat delete to be a no-op")
	}
	found, _ = repo.GetByID(ctx, msg.ID)
	if !found.DeletedAt.Time.Equal(firstDeletedAt) {
		t.Error("Expected deleted_at to be unchanged on repeat delete")
	}
}

func TestMessageRepository_ListByRoomID(t *testing.T) {
	db, prefix := SetupIsolatedTestDB(t)
	defer db.Close()
	defer CleanupTestDataByPrefix(t, db, prefix)

	user := CreateIsolatedTestUser(t, db, prefix, "sender")
	room := CreateIsolatedTestRoom(t, db, prefix, user)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	var deletedID string
	for i := 0; i < 5; i++ {
		msg := &model.Message{
			RoomID:   room.ID,
			SenderID: user.ID,
			Type:     model.MessageTypeText,
			Content:  fmt.Sprintf("%s message %d", prefix, i),
		}
		if err := repo.Create(ctx, msg); err != nil {
			t.Fatalf("Failed to create message: %v", err)
		}
		if i == 2 {
			deletedID = msg.ID
		}
	}
	if _, err := repo.SoftDelete(ctx, deletedID); err != nil {
		t.Fatalf("Failed to delete message: %v", err)
	}

	messages, err := repo.ListByRoomID(ctx, room.ID, 10, 0)
	if err != nil {
		t.Fatalf("Failed to list messages: %v", err)
	}
	if len(messages) != 4 {
		t.Fatalf("Expected 4 messages, got %d", len(messages))
	}
	for _, m := range messages {
		if m.ID == deletedID {
			t.Error("Expected deleted message to be excluded")
		}
	}
	// Newest first
	for i := 1; i < len(messages); i++ {
		if messages[i].CreatedAt.After(messages[i-1].CreatedAt) {
			t.Error("Expected messages ordered newest first")
		}
	}

	count, err := repo.CountByRoomID(ctx, room.ID)
	if err != nil {
		t.Fatalf("Failed to count messages: %v", err)
	}
	if count != 4 {
		t.Errorf("Expected count 4, got %d", count)
	}

	// Pagination
	page, err := repo.ListByRoomID(ctx, room.ID, 2, 2)
	if err != nil {
		t.Fatalf("Failed to list page: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("Expected 2 messages on page, got %d", len(page))
	}
}
