package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/quantboard/chat/internal/dto/request"
	"github.com/quantboard/chat/internal/dto/response"
	"github.com/quantboard/chat/internal/middleware"
	"github.com/quantboard/chat/internal/model"
	apperrors "github.com/quantboard/chat/internal/pkg/errors"
	"github.com/quantboard/chat/internal/pkg/utils"
	"github.com/quantboard/chat/internal/service"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// Send godoc
// @Summary Send a message
// @Description Persists a message in the room and relays it to connected members
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param request body request.SendMessageRequest true "Message data"
// @Success 201 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /api/v1/rooms/{id}/messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	roomID := c.Param("id")
	if !utils.ValidateUUID(roomID) {
		response.Error(c, apperrors.Validation("invalid room id"))
		return
	}

	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.Validation(err.Error()))
		return
	}

	msgType := model.MessageTypeText
	if req.Type != "" {
		parsed, err := model.ParseMessageType(req.Type)
		if err != nil {
			response.Error(c, apperrors.Validation(err.Error()))
			return
		}
		msgType = parsed
	}

	input := &service.AppendInput{
		RoomID:    roomID,
		SenderID:  middleware.GetUserID(c),
		Type:      msgType,
		Content:   req.Content,
		ReplyToID: req.ReplyToID,
	}
	if req.FileURL != "" || req.FileName != "" || req.FileSize > 0 {
		input.File = &model.FileMeta{
			URL:  req.FileURL,
			Name: req.FileName,
			Size: req.FileSize,
		}
	}

	msg, err := h.messageService.Append(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, response.NewMessageResponse(msg))
}

// List godoc
// @Summary List room messages
// @Description Returns a page of non-deleted messages, newest first
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} response.MessagePageResponse
// @Failure 404 {object} response.ErrorBody
// @Router /api/v1/rooms/{id}/messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	roomID := c.Param("id")
	if !utils.ValidateUUID(roomID) {
		response.Error(c, apperrors.Validation("invalid room id"))
		return
	}

	var req request.ListMessagesQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, apperrors.Validation(err.Error()))
		return
	}

	messages, total, err := h.messageService.ListPage(c.Request.Context(), roomID, req.Page, req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, response.NewMessagePageResponse(messages, total, req.Page, req.PageSize))
}

// Recent godoc
// @Summary Recent room messages
// @Description Returns the most recent non-deleted messages, newest first
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param limit query int false "Max messages" default(50)
// @Success 200 {object} []response.MessageResponse
// @Failure 404 {object} response.ErrorBody
// @Router /api/v1/rooms/{id}/messages/recent [get]
func (h *MessageHandler) Recent(c *gin.Context) {
	roomID := c.Param("id")
	if !utils.ValidateUUID(roomID) {
		response.Error(c, apperrors.Validation("invalid room id"))
		return
	}

	var req request.RecentMessagesQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, apperrors.Validation(err.Error()))
		return
	}

	messages, err := h.messageService.ListRecent(c.Request.Context(), roomID, req.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, response.NewMessageListResponse(messages))
}

// Delete godoc
// @Summary Delete a message
// @Description Soft-deletes a message. Sender or platform admin only; repeating the call is a no-op.
// @Tags messages
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 204
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /api/v1/messages/{id} [delete]
func (h *MessageHandler) Delete(c *gin.Context) {
	messageID := c.Param("id")
	if !utils.ValidateUUID(messageID) {
		response.Error(c, apperrors.Validation("invalid message id"))
		return
	}

	if err := h.messageService.Delete(c.Request.Context(), messageID, actorFrom(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
