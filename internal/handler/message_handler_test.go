package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/quantboard/chat/internal/middleware"
	"github.com/quantboard/chat/internal/pkg/utils"
	"github.com/quantboard/chat/internal/relay"
	"github.com/quantboard/chat/internal/repository"
	"github.com/quantboard/chat/internal/service"
)

func setupMessageHandlerTest(t *testing.T) (*gin.Engine, *utils.JWTManager, *sqlx.DB, string) {
	t.Helper()

	db, prefix := repository.SetupIsolatedTestDB(t)

	redisClient := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		db.Close()
		t.Skipf("Skipping test, could not connect to redis: %v", err)
	}
	t.Cleanup(func() { redisClient.Close() })

	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	gate := service.NewAccessGate(membershipRepo, logger)
	publisher := relay.NewPublisher(redisClient, logger)
	messageService := service.NewMessageService(messageRepo, membershipRepo, roomRepo, userRepo, gate, publisher, logger)

	jwtManager := utils.NewJWTManager("test-secret", 15*time.Minute, 7*24*time.Hour, "test")
	messageHandler := NewMessageHandler(messageService)

	router := gin.New()

	authed := router.Group("/api/v1", middleware.Auth(jwtManager))
	{
		authed.POST("/rooms/:id/messages", messageHandler.Send)
		authed.GET("/rooms/:id/messages", messageHandler.List)
		authed.GET("/rooms/:id/messages/recent", messageHandler.Recent)
		authed.DELETE("/messages/:id", messageHandler.Delete)
	}

	return router, jwtManager, db, prefix
}

func joinRoomForMessageTest(t *testing.T, db *sqlx.DB, roomID, userID string) {
	t.Helper()
	membershipRepo := repository.NewMembershipRepository(db)
	if _, _, err := membershipRepo.Join(context.Background(), roomID, userID); err != nil {
		t.Fatalf("Failed to join room: %v", err)
	}
}

func TestMessageHandler_Send(t *testing.T) {
	router, jwtManager, db, prefix := setupMessageHandlerTest(t)
	defer db.Close()
	defer repository.CleanupTestDataByPrefix(t, db, prefix)

	sender := repository.CreateIsolatedTestUser(t, db, prefix, "sender")
	room := repository.CreateIsolatedTestRoom(t, db, prefix, sender)
	joinRoomForMessageTest(t, db, room.ID, sender.ID)

	body := map[string]interface{}{"content": "NVDA beat estimates"}
	w := doJSON(router, "POST", "/api/v1/rooms/"+room.ID+"/messages", authHeaderFor(t, jwtManager, sender), body)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp["content"] != "NVDA beat estimates" {
		t.Errorf("Unexpected content: %v", resp["content"])
	}
	if resp["type"] != "text" {
		t.Errorf("Expected default text type, got %v", resp["type"])
	}
	if resp["sender_name"] != sender.Username {
		t.Errorf("Expected sender %q, got %v", sender.Username, resp["sender_name"])
	}
}

func TestMessageHandler_Send_NotMember(t *testing.T) {
	router, jwtManager, db, prefix := setupMessageHandlerTest(t)
	defer db.Close()
	defer repository.CleanupTestDataByPrefix(t, db, prefix)

	creator := repository.CreateIsolatedTestUser(t, db, prefix, "creator")
	outsider := repository.CreateIsolatedTestUser(t, db, prefix, "outsider")
	room := repository.CreateIsolatedTestRoom(t, db, prefix, creator)

	body := map[string]interface{}{"content": "let me in"}
	w := doJSON(router, "POST", "/api/v1/rooms/"+room.ID+"/messages", authHeaderFor(t, jwtManager, outsider), body)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for non-member, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMessageHandler_Send_BlankText(t *testing.T) {
	router, jwtManager, db, prefix := setupMessageHandlerTest(t)
	defer db.Close()
	defer repository.CleanupTestDataByPrefix(t, db, prefix)

	sender := repository.CreateIsolatedTestUser(t, db, prefix, "sender")
	room := repository.CreateIsolatedTestRoom(t, db, prefix, sender)
	joinRoomForMessageTest(t, db, room.ID, sender.ID)

	body := map[string]interface{}{"content": "   "}
	w := doJSON(router, "POST", "/api/v1/rooms/"+room.ID+"/messages", authHeaderFor(t, jwtManager, sender), body)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for blank text, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMessageHandler_Send_RoomNotFound(t *testing.T) {
	router, jwtManager, db, prefix := setupMessageHandlerTest(t)
	defer db.Close()
	defer repository.CleanupTestDataByPrefix(t, db, prefix)

	sender := repository.CreateIsolatedTestUser(t, db, prefix, "sender")

	body := map[string]interface{}{"content": "hello"}
	w := doJSON(router, "POST", "/api/v1/rooms/00000000-0000-0000-0000-000000000000/messages", authHeaderFor(t, jwtManager, sender), body)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestMessageHandler_List(t *testing.T) {
	router, jwtManager, db, prefix := setupMessageHandlerTest(t)
	defer db.Close()
	defer repository.CleanupTestDataByPrefix(t, db, prefix)

	sender := repository.CreateIsolatedTestUser(t, db, prefix, "sender")
	room := repository.CreateIsolatedTestRoom(t, db, prefix, sender)
	joinRoomForMessageTest(t, db, room.ID, sender.ID)
	auth := authHeaderFor(t, jwtManager, sender)

	for _, content := range []string{"first", "second", "third"} {
		body := map[string]interface{}{"content": content}
		if w := doJSON(router, "POST", "/api/v1/rooms/"+room.ID+"/messages", auth, body); w.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
		}
	}

	w := doJSON(router, "GET", "/api/v1/rooms/"+room.ID+"/messages?page=1&page_size=2", auth, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp["total"] != float64(3) {
		t.Errorf("Expected total 3, got %v", resp["total"])
	}
	messages := resp["messages"].([]interface{})
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages on page, got %d", len(messages))
	}
	// Newest first
	newest := messages[0].(map[string]interface{})
	if newest["content"] != "third" {
		t.Errorf("Expected newest message first, got %v", newest["content"])
	}
}

func TestMessageHandler_Recent(t *testing.T) {
	router, jwtManager, db, prefix := setupMessageHandlerTest(t)
	defer db.Close()
	defer repository.CleanupTestDataByPrefix(t, db, prefix)

	sender := repository.CreateIsolatedTestUser(t, db, prefix, "sender")
	room := repository.CreateIsolatedTestRoom(t, db, prefix, sender)
	joinRoomForMessageTest(t, db, room.ID, sender.ID)
	auth := authHeaderFor(t, jwtManager, sender)

	for _, content := range []string{"one", "two", "three"} {
		body := map[string]interface{}{"content": content}
		if w := doJSON(router, "POST", "/api/v1/rooms/"+room.ID+"/messages", auth, body); w.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
		}
	}

	w := doJSON(router, "GET", "/api/v1/rooms/"+room.ID+"/messages/recent?limit=2", auth, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var messages []map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &messages)

	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	if messages[0]["content"] != "three" {
		t.Errorf("Expected newest message first, got %v", messages[0]["content"])
	}
}

func TestMessageHandler_Delete(t *testing.T) {
	router, jwtManager, db, prefix := setupMessageHandlerTest(t)
	defer db.Close()
	defer repository.CleanupTestDataByPrefix(t, db, prefix)

	sender := repository.CreateIsolatedTestUser(t, db, prefix, "sender")
	room := repository.CreateIsolatedTestRoom(t, db, prefix, sender)
	joinRoomForMessageTest(t, db, room.ID, sender.ID)
	auth := authHeaderFor(t, jwtManager, sender)

	body := map[string]interface{}{"content": "delete me"}
	w := doJSON(router, "POST", "/api/v1/rooms/"+room.ID+"/messages", auth, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var created map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &created)
	messageID := created["id"].(string)

	w = doJSON(router, "DELETE", "/api/v1/messages/"+messageID, auth, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d: %s", w.Code, w.Body.String())
	}

	// Deleting again stays a no-op
	w = doJSON(router, "DELETE", "/api/v1/messages/"+messageID, auth, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204 on repeat delete, got %d: %s", w.Code, w.Body.String())
	}

	// Deleted messages disappear from history
	w = doJSON(router, "GET", "/api/v1/rooms/"+room.ID+"/messages", auth, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["total"] != float64(0) {
		t.Errorf("Expected empty history after delete, got total %v", resp["total"])
	}
}

func TestMessageHandler_Delete_ByStranger(t *testing.T) {
	router, jwtManager, db, prefix := setupMessageHandlerTest(t)
	defer db.Close()
	defer repository.CleanupTestDataByPrefix(t, db, prefix)

	sender := repository.CreateIsolatedTestUser(t, db, prefix, "sender")
	stranger := repository.CreateIsolatedTestUser(t, db, prefix, "stranger")
	room := repository.CreateIsolatedTestRoom(t, db, prefix, sender)
	joinRoomForMessageTest(t, db, room.ID, sender.ID)

	body := map[string]interface{}{"content": "mine"}
	w := doJSON(router, "POST", "/api/v1/rooms/"+room.ID+"/messages", authHeaderFor(t, jwtManager, sender), body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var created map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &created)
	messageID := created["id"].(string)

	w = doJSON(router, "DELETE", "/api/v1/messages/"+messageID, authHeaderFor(t, jwtManager, stranger), nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for non-sender, got %d: %s", w.Code, w.Body.String())
	}
}
