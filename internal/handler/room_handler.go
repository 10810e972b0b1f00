package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quantboard/chat/internal/dto/request"
	"github.com/quantboard/chat/internal/dto/response"
	"github.com/quantboard/chat/internal/middleware"
	"github.com/quantboard/chat/internal/model"
	apperrors "github.com/quantboard/chat/internal/pkg/errors"
	"github.com/quantboard/chat/internal/pkg/utils"
	"github.com/quantboard/chat/internal/service"
)

type RoomHandler struct {
	roomService       *service.RoomService
	membershipService *service.MembershipService
	logger            *zap.Logger
}

func NewRoomHandler(
	roomService *service.RoomService,
	membershipService *service.MembershipService,
	logger *zap.Logger,
) *RoomHandler {
	return &RoomHandler{
		roomService:       roomService,
		membershipService: membershipService,
		logger:            logger,
	}
}

func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{
		ID:      middleware.GetUserID(c),
		IsAdmin: middleware.GetIsAdmin(c),
	}
}

// Create godoc
// @Summary Create a room
// @Description Creates a room and joins the creator as its first member
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body request.CreateRoomRequest true "Room data"
// @Success 201 {object} response.RoomResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /api/v1/rooms [post]
func (h *RoomHandler) Create(c *gin.Context) {
	var req request.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.Validation(err.Error()))
		return
	}

	userID := middleware.GetUserID(c)

	roomType := model.RoomTypePublic
	if req.Type != "" {
		parsed, err := model.ParseRoomType(req.Type)
		if err != nil {
			response.Error(c, apperrors.Validation(err.Error()))
			return
		}
		roomType = parsed
	}

	room, err := h.roomService.Create(c.Request.Context(), &service.CreateRoomInput{
		Name:        req.Name,
		Description: req.Description,
		Type:        roomType,
		CreatorID:   userID,
		Capacity:    req.Capacity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	// The creator occupies the first seat of the new room
	if _, err := h.membershipService.Join(c.Request.Context(), room.ID, userID); err != nil {
		h.logger.Error("Failed to join creator to new room",
			zap.String("room_id", room.ID),
			zap.String("creator_id", userID),
			zap.Error(err),
		)
		response.Error(c, err)
		return
	}

	// Re-read so the response carries the seat taken by the creator
	created, err := h.roomService.GetByID(c.Request.Context(), room.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, response.NewRoomResponse(created))
}

// List godoc
// @Summary List rooms
// @Description Lists active rooms, newest first, optionally filtered by type
// @Tags rooms
// @Produce json
// @Param type query string false "Room type filter" Enums(public, private, direct)
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} []response.RoomResponse
// @Router /api/v1/rooms [get]
func (h *RoomHandler) List(c *gin.Context) {
	var req request.ListRoomsQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, apperrors.Validation(err.Error()))
		return
	}

	rooms, err := h.roomService.List(c.Request.Context(), model.RoomType(req.Type), req.Limit, req.Offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, response.NewRoomListResponse(rooms))
}

// GetByID godoc
// @Summary Get room details
// @Description Returns the room with its creator's profile
// @Tags rooms
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.RoomDetailResponse
// @Failure 404 {object} response.ErrorBody
// @Router /api/v1/rooms/{id} [get]
func (h *RoomHandler) GetByID(c *gin.Context) {
	roomID := c.Param("id")
	if !utils.ValidateUUID(roomID) {
		response.Error(c, apperrors.Validation("invalid room id"))
		return
	}

	detail, err := h.roomService.GetByIDWithDetails(c.Request.Context(), roomID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, response.NewRoomDetailResponse(detail))
}

// Update godoc
// @Summary Update a room
// @Description Updates mutable room fields. Creator or platform admin only.
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param request body request.UpdateRoomRequest true "Fields to update"
// @Success 200 {object} response.RoomResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /api/v1/rooms/{id} [patch]
func (h *RoomHandler) Update(c *gin.Context) {
	roomID := c.Param("id")
	if !utils.ValidateUUID(roomID) {
		response.Error(c, apperrors.Validation("invalid room id"))
		return
	}

	var req request.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.Validation(err.Error()))
		return
	}

	input := &service.UpdateRoomInput{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Type != nil {
		parsed, err := model.ParseRoomType(*req.Type)
		if err != nil {
			response.Error(c, apperrors.Validation(err.Error()))
			return
		}
		input.Type = &parsed
	}
	if req.Capacity.Set {
		if req.Capacity.Valid {
			if req.Capacity.Value < 1 {
				response.Error(c, apperrors.Validation("capacity must be at least 1"))
				return
			}
			input.Capacity = &req.Capacity.Value
		} else {
			input.ClearCapacity = true
		}
	}

	room, err := h.roomService.Update(c.Request.Context(), roomID, actorFrom(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, response.NewRoomResponse(room))
}

// Deactivate godoc
// @Summary Deactivate a room
// @Description Soft-deletes a room. Creator or platform admin only. Messages and membership history are retained.
// @Tags rooms
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Success 204
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /api/v1/rooms/{id} [delete]
func (h *RoomHandler) Deactivate(c *gin.Context) {
	roomID := c.Param("id")
	if !utils.ValidateUUID(roomID) {
		response.Error(c, apperrors.Validation("invalid room id"))
		return
	}

	if err := h.roomService.Deactivate(c.Request.Context(), roomID, actorFrom(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Join godoc
// @Summary Join a room
// @Description Joins the authenticated user to the room. A repeat join by an active member succeeds without change.
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Success 200 {object} response.JoinResponse
// @Failure 404 {object} response.ErrorBody
// @Failure 400 {object} response.ErrorBody
// @Router /api/v1/rooms/{id}/join [post]
func (h *RoomHandler) Join(c *gin.Context) {
	roomID := c.Param("id")
	if !utils.ValidateUUID(roomID) {
		response.Error(c, apperrors.Validation("invalid room id"))
		return
	}

	userID := middleware.GetUserID(c)

	result, err := h.membershipService.Join(c.Request.Context(), roomID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, &response.JoinResponse{
		RoomID:   result.Membership.RoomID,
		UserID:   result.Membership.UserID,
		Role:     string(result.Membership.Role),
		JoinedAt: result.Membership.JoinedAt.UTC().Format(time.RFC3339),
		Changed:  result.Changed,
	})
}

// Leave godoc
// @Summary Leave a room
// @Description Removes the authenticated user from the room. Leaving a room you are not in is a no-op.
// @Tags rooms
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Success 204
// @Failure 404 {object} response.ErrorBody
// @Router /api/v1/rooms/{id}/leave [post]
func (h *RoomHandler) Leave(c *gin.Context) {
	roomID := c.Param("id")
	if !utils.ValidateUUID(roomID) {
		response.Error(c, apperrors.Validation("invalid room id"))
		return
	}

	userID := middleware.GetUserID(c)

	if _, err := h.membershipService.Leave(c.Request.Context(), roomID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListMembers godoc
// @Summary List room members
// @Description Lists the active members of a room
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Success 200 {object} []response.MemberResponse
// @Failure 404 {object} response.ErrorBody
// @Router /api/v1/rooms/{id}/members [get]
func (h *RoomHandler) ListMembers(c *gin.Context) {
	roomID := c.Param("id")
	if !utils.ValidateUUID(roomID) {
		response.Error(c, apperrors.Validation("invalid room id"))
		return
	}

	members, err := h.membershipService.ListActiveMembers(c.Request.Context(), roomID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, response.NewMemberListResponse(members))
}
