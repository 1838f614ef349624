// Room HTTP handlers.
//
//   - POST /rooms        resolve or create a room with the caller
//   - GET  /rooms        caller's rooms with their latest message (ETag)
//   - GET  /rooms/{id}   one room, members only
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-chat-relay/internal/domain"
	"github.com/tbourn/go-chat-relay/internal/services"
)

// CreateRoomRequest is the JSON payload for resolving a room.
type CreateRoomRequest struct {
	// UserIDs lists the other members. The caller is always added.
	UserIDs []uint `json:"userIds" binding:"required,min=1" example:"9"`
}

// ListRoomsResponse wraps the caller's rooms.
type ListRoomsResponse struct {
	Rooms []domain.ChatRoom `json:"rooms"`
}

// CreateRoom godoc
// @ID          createRoom
// @Summary     Resolve or create a room
// @Description Returns the existing room when exactly two distinct users are requested and
// @Description one already exists (200); otherwise creates a room (201). The caller is always a member.
// @Tags        Rooms
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.CreateRoomRequest  true  "Members"
//
// @Success     200  {object}  domain.ChatRoom  "Existing room"
// @Success     201  {object}  domain.ChatRoom  "Created room"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /rooms [post]
func (h *Handlers) CreateRoom(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "userIds required")
		return
	}

	ids := append([]uint{uid}, req.UserIDs...)
	room, created, err := h.rooms.CreateRoom(c.Request.Context(), ids)
	switch {
	case errors.Is(err, services.ErrInvalidMembership):
		fail(c, http.StatusBadRequest, ErrCodeInvalidMembership, err.Error())
		return
	case errors.Is(err, services.ErrUnknownUser):
		fail(c, http.StatusBadRequest, ErrCodeUnknownUser, err.Error())
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ok(c, status, room)
}

// ListRooms godoc
// @ID          listRooms
// @Summary     List the caller's rooms
// @Description Rooms the caller belongs to, most recently active first, each with its latest message.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Rooms
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {object}  handlers.ListRoomsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /rooms [get]
func (h *Handlers) ListRooms(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	ctx := c.Request.Context()

	// ETag pre-check is best effort; a stats failure just skips it.
	if count, latest, err := h.rooms.RoomsStats(ctx, uid); err == nil {
		if notModified(c, "rooms:"+strconv.FormatUint(uint64(uid), 10), count, latest) {
			return
		}
	}

	rooms, err := h.rooms.RoomsForUser(ctx, uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListRoomsResponse{Rooms: rooms})
}

// GetRoom godoc
// @ID          getRoom
// @Summary     Get a room
// @Tags        Rooms
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  int  true  "Room ID"  minimum(1)
//
// @Success     200  {object}  domain.ChatRoom
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a member"
// @Failure     404  {object}  handlers.ErrorResponse  "Room not found"
// @Router      /rooms/{id} [get]
func (h *Handlers) GetRoom(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	roomID, okID := pathID(c, "id")
	if !okID {
		return
	}

	room, err := h.rooms.GetRoom(c.Request.Context(), roomID, uid)
	if err != nil {
		failRoomAccess(c, err)
		return
	}
	ok(c, http.StatusOK, room)
}

// failRoomAccess maps room lookup errors to 404/403/500.
func failRoomAccess(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRoomNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrNotMember):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
