package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/quantboard/chat/internal/model"
	apperrors "github.com/quantboard/chat/internal/pkg/errors"
	"github.com/quantboard/chat/internal/service"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Send buffer size
	sendBufferSize = 256

	// Budget for one frame's service calls
	frameTimeout = 5 * time.Second
)

// Client represents one authenticated WebSocket session
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	userID   string
	username string
	isAdmin  bool

	// Guarded by hub.mu
	rooms map[string]bool

	logger *zap.Logger
}

// NewClient creates a session bound to the hub
func NewClient(hub *Hub, conn *websocket.Conn, userID, username string, isAdmin bool, logger *zap.Logger) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		userID:   userID,
		username: username,
		isAdmin:  isAdmin,
		rooms:    make(map[string]bool),
		logger:   logger,
	}
}

// ReadPump pumps frames from the socket into the handlers. It owns the
// connection's read side and unregisters the session on exit.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error",
					zap.String("user_id", c.userID),
					zap.Error(err),
				)
			}
			break
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.sendError("", apperrors.ErrBadRequest)
			continue
		}

		c.handleFrame(&frame)
	}
}

// WritePump pumps frames from the hub to the socket. It owns the
// connection's write side.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleFrame(frame *Frame) {
	switch frame.Type {
	case FrameTypeJoinRoom:
		c.handleJoinRoom(frame)
	case FrameTypeLeaveRoom:
		c.handleLeaveRoom(frame)
	case FrameTypeSendMessage:
		c.handleSendMessage(frame)
	case FrameTypePing:
		c.handlePing(frame)
	default:
		c.sendError(frame.RequestID, apperrors.Validation("unknown frame type"))
	}
}

func (c *Client) handleJoinRoom(frame *Frame) {
	var payload JoinRoomPayload
	if err := frame.ParsePayload(&payload); err != nil || payload.RoomID == "" {
		c.sendError(frame.RequestID, apperrors.ErrBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	result, err := c.hub.membershipService.Join(ctx, payload.RoomID, c.userID)
	if err != nil {
		c.sendError(frame.RequestID, err)
		return
	}

	c.hub.subscribeLocal(c, payload.RoomID)

	memberCount := 0
	if room, err := c.hub.roomService.GetByID(ctx, payload.RoomID); err == nil {
		memberCount = room.MemberCount
	}

	c.sendFrame(FrameTypeRoomJoined, &RoomJoinedPayload{
		RoomID:      payload.RoomID,
		Role:        string(result.Membership.Role),
		MemberCount: memberCount,
	}, frame.RequestID)

	if result.Changed {
		c.hub.publishSystemNotice(ctx, payload.RoomID, c.userID, c.username,
			c.username+" joined the room")
	}
}

func (c *Client) handleLeaveRoom(frame *Frame) {
	var payload LeaveRoomPayload
	if err := frame.ParsePayload(&payload); err != nil || payload.RoomID == "" {
		c.sendError(frame.RequestID, apperrors.ErrBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	changed, err := c.hub.membershipService.Leave(ctx, payload.RoomID, c.userID)
	if err != nil {
		c.sendError(frame.RequestID, err)
		return
	}

	c.hub.unsubscribeLocal(c, payload.RoomID)

	c.sendFrame(FrameTypeRoomLeft, &RoomLeftPayload{RoomID: payload.RoomID}, frame.RequestID)

	if changed {
		c.hub.publishSystemNotice(ctx, payload.RoomID, c.userID, c.username,
			c.username+" left the room")
	}
}

func (c *Client) handleSendMessage(frame *Frame) {
	var payload SendMessagePayload
	if err := frame.ParsePayload(&payload); err != nil || payload.RoomID == "" {
		c.sendError(frame.RequestID, apperrors.ErrBadRequest)
		return
	}

	msgType := model.MessageTypeText
	if payload.Type != "" {
		parsed, err := model.ParseMessageType(payload.Type)
		if err != nil {
			c.sendError(frame.RequestID, apperrors.Validation(err.Error()))
			return
		}
		msgType = parsed
	}

	input := &service.AppendInput{
		RoomID:    payload.RoomID,
		SenderID:  c.userID,
		Type:      msgType,
		Content:   payload.Content,
		ReplyToID: payload.ReplyToID,
	}
	if payload.FileURL != "" || payload.FileName != "" || payload.FileSize > 0 {
		input.File = &model.FileMeta{
			URL:  payload.FileURL,
			Name: payload.FileName,
			Size: payload.FileSize,
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	// Fan-out to this room's sessions comes back through the relay
	// subscriber, the same path REST sends take
	msg, err := c.hub.messageService.Append(ctx, input)
	if err != nil {
		c.sendError(frame.RequestID, err)
		return
	}

	c.sendFrame(FrameTypeAck, &AckPayload{
		RequestID: frame.RequestID,
		Success:   true,
		MessageID: msg.ID,
	}, frame.RequestID)
}

func (c *Client) handlePing(frame *Frame) {
	c.sendFrame(FrameTypePong, nil, frame.RequestID)
}

// sendFrame marshals and queues a frame for this session
func (c *Client) sendFrame(frameType FrameType, payload interface{}, requestID string) {
	frame, err := NewFrame(frameType, payload)
	if err != nil {
		c.logger.Warn("Failed to build frame", zap.Error(err))
		return
	}
	frame.RequestID = requestID

	data, err := json.Marshal(frame)
	if err != nil {
		c.logger.Warn("Failed to marshal frame", zap.Error(err))
		return
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn("Dropping frame for slow client", zap.String("user_id", c.userID))
	}
}

func (c *Client) sendError(requestID string, err error) {
	c.sendFrame(FrameTypeError, &ErrorPayload{
		Code:    string(apperrors.GetCode(err)),
		Message: apperrors.GetMessage(err),
	}, requestID)
}
