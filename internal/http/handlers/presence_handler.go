package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PresenceResponse reports a user's live connections on this instance.
type PresenceResponse struct {
	UserID      uint `json:"userId" example:"9"`
	Online      bool `json:"online" example:"true"`
	Connections int  `json:"connections" example:"2"`
}

// GetPresence godoc
// @ID          getPresence
// @Summary     Get a user's presence
// @Description Live WebSocket connections the user holds on this relay instance.
// @Tags        Presence
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  int  true  "User ID"  minimum(1)
//
// @Success     200  {object}  handlers.PresenceResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /users/{id}/presence [get]
func (h *Handlers) GetPresence(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	resp := PresenceResponse{UserID: id}
	if h.hub != nil {
		resp.Connections = h.hub.Connections(id)
		resp.Online = resp.Connections > 0
	}
	ok(c, http.StatusOK, resp)
}
