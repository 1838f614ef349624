package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-chat-relay/internal/chathub"
	"github.com/tbourn/go-chat-relay/internal/http/middleware"
)

// ServeWS godoc
// @ID          serveWS
// @Summary     Open the realtime socket
// @Description Upgrades to a WebSocket. The token is read from the Authorization header or the
// @Description token query parameter; an invalid token is rejected with 401 before the upgrade.
// @Tags        Realtime
// @Security    BearerAuth
//
// @Param       token  query  string  false  "JWT when headers cannot be set"
//
// @Success     101  {string}  string  "Switching Protocols"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     503  {object}  handlers.ErrorResponse  "Realtime disabled"
// @Router      /ws [get]
func (h *Handlers) ServeWS(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	if h.hub == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeInternal, "realtime disabled")
		return
	}

	// The 101 is written on the hijacked connection, bypassing gin's writer;
	// record it up front for the access log and metrics. A failed upgrade
	// overwrites it with its own error status.
	c.Status(http.StatusSwitchingProtocols)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied (400/403).
		middleware.LoggerFrom(c).Warn().Err(err).Uint("user_id", uid).Msg("websocket upgrade failed")
		return
	}

	// Keep request values (trace span) but not the handshake's cancellation.
	ctx := context.WithoutCancel(c.Request.Context())
	chathub.NewClient(h.hub, conn, uid, h.client).Run(ctx)
}
