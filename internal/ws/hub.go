package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quantboard/chat/internal/pkg/cache"
	"github.com/quantboard/chat/internal/relay"
	"github.com/quantboard/chat/internal/service"
)

const presenceTTL = 5 * time.Minute

// roomBroadcast carries one serialized frame bound for every session
// subscribed to a room on this instance
type roomBroadcast struct {
	roomID string
	data   []byte
}

// Hub tracks the live WebSocket sessions on this instance and fans relayed
// events out to them. It implements relay.Broadcaster; all room fan-out,
// including for sends that originated here, arrives through the relay
// subscriber.
type Hub struct {
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool
	users   map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomBroadcast

	mu sync.RWMutex

	roomService       *service.RoomService
	membershipService *service.MembershipService
	messageService    *service.MessageService
	publisher         *relay.Publisher
	presence          *cache.Cache

	logger *zap.Logger
}

func NewHub(
	roomService *service.RoomService,
	membershipService *service.MembershipService,
	messageService *service.MessageService,
	publisher *relay.Publisher,
	presence *cache.Cache,
	logger *zap.Logger,
) *Hub {
	return &Hub{
		clients:           make(map[*Client]bool),
		rooms:             make(map[string]map[*Client]bool),
		users:             make(map[string]map[*Client]bool),
		register:          make(chan *Client),
		unregister:        make(chan *Client),
		broadcast:         make(chan *roomBroadcast, 256),
		roomService:       roomService,
		membershipService: membershipService,
		messageService:    messageService,
		publisher:         publisher,
		presence:          presence,
		logger:            logger,
	}
}

// Run drives the hub until the process exits
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case msg := <-h.broadcast:
			h.deliverToRoom(msg)
		}
	}
}

// BroadcastRoom delivers a relayed event to this instance's sessions for the
// room. System events arrive here too; they share the new_message frame with
// a system message type.
func (h *Hub) BroadcastRoom(roomID string, event *relay.Event) {
	frame, err := NewFrame(FrameTypeNewMessage, event)
	if err != nil {
		h.logger.Warn("Failed to build broadcast frame", zap.Error(err))
		return
	}
	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Warn("Failed to marshal broadcast frame", zap.Error(err))
		return
	}

	h.broadcast <- &roomBroadcast{roomID: roomID, data: data}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	if h.users[client.userID] == nil {
		h.users[client.userID] = make(map[*Client]bool)
	}
	h.users[client.userID][client] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("Client connected",
		zap.String("user_id", client.userID),
		zap.String("username", client.username),
		zap.Int("total_clients", total),
	)

	if h.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		key := fmt.Sprintf(cache.KeyUserOnline, client.userID)
		if err := h.presence.Set(ctx, key, time.Now().Unix(), presenceTTL); err != nil {
			h.logger.Warn("Failed to mark user online", zap.Error(err))
		}
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)

	for roomID := range client.rooms {
		if room := h.rooms[roomID]; room != nil {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}

	if sessions := h.users[client.userID]; sessions != nil {
		delete(sessions, client)
		if len(sessions) == 0 {
			delete(h.users, client.userID)
		}
	}
	lastSession := h.users[client.userID] == nil
	h.mu.Unlock()

	h.logger.Info("Client disconnected",
		zap.String("user_id", client.userID),
		zap.String("username", client.username),
	)

	if h.presence != nil && lastSession {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		key := fmt.Sprintf(cache.KeyUserOnline, client.userID)
		if err := h.presence.Delete(ctx, key); err != nil {
			h.logger.Warn("Failed to clear user presence", zap.Error(err))
		}
	}
}

func (h *Hub) deliverToRoom(msg *roomBroadcast) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[msg.roomID] {
		select {
		case client.send <- msg.data:
		default:
			// Slow consumer, drop the frame rather than block the hub
			h.logger.Warn("Dropping frame for slow client",
				zap.String("user_id", client.userID),
				zap.String("room_id", msg.roomID),
			)
		}
	}
}

// subscribeLocal attaches a session to a room's local delivery set
func (h *Hub) subscribeLocal(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.rooms[roomID] = true
}

// unsubscribeLocal detaches a session from a room's local delivery set
func (h *Hub) unsubscribeLocal(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room := h.rooms[roomID]; room != nil {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
	delete(client.rooms, roomID)
}

// publishSystemNotice relays a non-persisted system event to the room, for
// example a join or leave notice
func (h *Hub) publishSystemNotice(ctx context.Context, roomID, userID, username, text string) {
	event := &relay.Event{
		RoomID:      roomID,
		SenderID:    userID,
		SenderName:  username,
		MessageType: "system",
		Content:     text,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.logger.Warn("Failed to publish system notice",
			zap.String("room_id", roomID),
			zap.Error(err),
		)
	}
}

// Register queues a session for registration
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister queues a session for removal
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// IsUserOnline reports whether the user has at least one live session on
// this instance
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

// RoomSessionCount returns the number of live sessions in a room on this
// instance
func (h *Hub) RoomSessionCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Stats returns hub counters for the health endpoint
func (h *Hub) Stats() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]int{
		"total_clients": len(h.clients),
		"online_users":  len(h.users),
		"active_rooms":  len(h.rooms),
	}
}
