package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/tbourn/go-chat-relay/internal/chathub"
	"github.com/tbourn/go-chat-relay/internal/domain"
	"github.com/tbourn/go-chat-relay/internal/http/middleware"
	"github.com/tbourn/go-chat-relay/internal/utils"
)

// RoomService is the room API consumed by the handlers. Implemented by
// services.RoomService.
type RoomService interface {
	CreateRoom(ctx context.Context, userIDs []uint) (*domain.ChatRoom, bool, error)
	RoomsForUser(ctx context.Context, userID uint) ([]domain.ChatRoom, error)
	RoomsStats(ctx context.Context, userID uint) (int64, *time.Time, error)
	GetRoom(ctx context.Context, roomID, requester uint) (*domain.ChatRoom, error)
}

// MessageService is the history API consumed by the handlers. Implemented
// by services.MessageService.
type MessageService interface {
	History(ctx context.Context, userID, roomID uint, page, pageSize int) ([]domain.Message, int64, error)
	HistoryStats(ctx context.Context, roomID uint) (int64, *time.Time, error)
}

// WSOptions configures the WebSocket endpoint.
type WSOptions struct {
	AllowedOrigins []string
	Client         chathub.ClientOptions
}

// Handlers groups the REST endpoints and the WebSocket entrypoint.
type Handlers struct {
	rooms    RoomService
	msgs     MessageService
	hub      *chathub.Manager
	upgrader websocket.Upgrader
	client   chathub.ClientOptions
}

// New wires Handlers. hub may be nil when only the REST surface is served.
func New(rooms RoomService, msgs MessageService, hub *chathub.Manager, ws WSOptions) *Handlers {
	return &Handlers{
		rooms: rooms,
		msgs:  msgs,
		hub:   hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     chathub.OriginChecker(ws.AllowedOrigins),
		},
		client: ws.Client,
	}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination reads page and page_size, defaulting to 1 and 20 and
// capping page_size at 100.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// currentUser returns the authenticated caller or writes 401.
func currentUser(c *gin.Context) (uint, bool) {
	uid, ok := middleware.UserID(c)
	if !ok {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	}
	return uid, ok
}

// pathID parses a positive numeric path parameter or writes 400.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a positive integer")
	}
	return id, ok
}

// notModified sets a weak ETag derived from (scope, count, latest) and
// reports whether the request's If-None-Match already matches it.
func notModified(c *gin.Context, scope string, count int64, latest *time.Time) bool {
	var ts int64
	if latest != nil {
		ts = latest.UnixNano()
	}
	etag := fmt.Sprintf(`W/"%s:%d:%d"`, scope, count, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}
