// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file authenticates requests with bearer tokens. The verified user id
// is stored in the Gin context under "userID" as a uint.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-chat-relay/internal/auth"
)

// ctxKeyUserID holds the authenticated user id.
const ctxKeyUserID = "userID"

// TokenValidator resolves a raw token to a user id. Implemented by
// auth.Validator.
type TokenValidator interface {
	Validate(token string) (uint, error)
}

// AuthOptions configures RequireAuth.
type AuthOptions struct {
	// AllowQueryToken accepts ?token=<jwt> in addition to the Authorization
	// header. Browsers cannot set headers on WebSocket handshakes.
	AllowQueryToken bool
}

// RequireAuth rejects requests without a valid token with 401 and stores
// the caller's id for downstream handlers.
func RequireAuth(v TokenValidator, opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := BearerToken(c.Request, opts.AllowQueryToken)
		uid, err := v.Validate(raw)
		if err != nil {
			msg := "invalid token"
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				msg = "missing bearer token"
			case errors.Is(err, auth.ErrExpiredToken):
				msg = "token expired"
			}
			LoggerFrom(c).Debug().Err(err).Msg("authentication failed")
			c.Header("WWW-Authenticate", `Bearer realm="chat"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    msg,
			})
			return
		}
		c.Set(ctxKeyUserID, uid)
		c.Next()
	}
}

// BearerToken extracts the raw token from "Authorization: Bearer <t>" or,
// when allowQuery is set and the header is absent, from the token query
// parameter. It returns "" if neither is present.
func BearerToken(r *http.Request, allowQuery bool) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		scheme, tok, found := strings.Cut(h, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
		return ""
	}
	if allowQuery {
		return strings.TrimSpace(r.URL.Query().Get("token"))
	}
	return ""
}

// UserID returns the authenticated user id set by RequireAuth.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return 0, false
	}
	uid, ok := v.(uint)
	return uid, ok && uid != 0
}
