// Message HTTP handlers.
//
//   - GET /rooms/{id}/messages   paginated history, newest first (ETag)
//
// Messages are only written over the WebSocket; this surface is read-only.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-chat-relay/internal/domain"
)

// ListMessagesResponse contains a page of messages and pagination metadata.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List messages in a room
// @Description Returns a page of the room's messages, newest first. Members only.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
//
// @Param       id             path    int     true   "Room ID"  minimum(1)
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {object}  handlers.ListMessagesResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a member"
// @Failure     404  {object}  handlers.ErrorResponse  "Room not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /rooms/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	roomID, okID := pathID(c, "id")
	if !okID {
		return
	}
	ctx := c.Request.Context()

	// Authorize before exposing anything, ETag included.
	if _, err := h.rooms.GetRoom(ctx, roomID, uid); err != nil {
		failRoomAccess(c, err)
		return
	}

	page, pageSize := clampPagination(c)
	if count, latest, err := h.msgs.HistoryStats(ctx, roomID); err == nil {
		scope := "messages:" + strconv.FormatUint(uint64(roomID), 10) + ":" + strconv.Itoa(page) + ":" + strconv.Itoa(pageSize)
		if notModified(c, scope, count, latest) {
			return
		}
	}

	items, total, err := h.msgs.History(ctx, uid, roomID, page, pageSize)
	if err != nil {
		failRoomAccess(c, err)
		return
	}
	ok(c, http.StatusOK, ListMessagesResponse{
		Messages:   items,
		Pagination: newPagination(page, pageSize, total),
	})
}
