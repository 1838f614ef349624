// Package services – MessageService
//
// This file implements MessageService, which owns message text validation,
// persistence, and paginated history. Membership for realtime sends is
// checked by the caller (chathub) before Send is invoked, so an unauthorized
// message never reaches the database.
//
// Observability: public methods are OpenTelemetry-instrumented; spans
// include room/user identifiers and pagination parameters where applicable.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-chat-relay/internal/domain"
	"github.com/tbourn/go-chat-relay/internal/repo"
)

// DefaultMaxMessageRunes caps message length when MaxRunes is unset.
const DefaultMaxMessageRunes = 4000

// MessageRepo defines the repository contract required by MessageService.
type MessageRepo interface {
	CreateMessage(ctx context.Context, db *gorm.DB, text string, senderID, roomID uint) (*domain.Message, error)
	CountMessages(ctx context.Context, db *gorm.DB, roomID uint) (int64, error)
	ListMessagesPage(ctx context.Context, db *gorm.DB, roomID uint, offset, limit int) ([]domain.Message, error)
	MessagesStats(ctx context.Context, db *gorm.DB, roomID uint) (int64, *time.Time, error)
}

// MessageService coordinates message persistence and history retrieval.
type MessageService struct {
	DB    *gorm.DB
	Repo  MessageRepo
	Rooms RoomRepo

	// MaxRunes caps message text length; zero means DefaultMaxMessageRunes.
	MaxRunes int
}

// NewMessageService constructs a MessageService with the default length cap.
func NewMessageService(db *gorm.DB, msgs MessageRepo, rooms RoomRepo) *MessageService {
	return &MessageService{DB: db, Repo: msgs, Rooms: rooms, MaxRunes: DefaultMaxMessageRunes}
}

// Normalize trims surrounding whitespace, converts line endings to LF, and
// applies Unicode NFC. It returns ErrEmptyMessage or ErrTooLong when the
// result violates the text rules.
func (s *MessageService) Normalize(text string) (string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = norm.NFC.String(strings.TrimSpace(text))
	if text == "" {
		return "", ErrEmptyMessage
	}
	limit := s.MaxRunes
	if limit <= 0 {
		limit = DefaultMaxMessageRunes
	}
	if utf8.RuneCountInString(text) > limit {
		return "", ErrTooLong
	}
	return text, nil
}

// Send validates text and persists it as a message from senderID in roomID.
// The caller must have verified membership.
func (s *MessageService) Send(ctx context.Context, senderID, roomID uint, text string) (*domain.Message, error) {
	ctx, span := tracer().Start(ctx, "MessageService.Send",
		trace.WithAttributes(
			attribute.Int64("room.id", int64(roomID)),
			attribute.Int64("user.id", int64(senderID)),
		),
	)
	defer span.End()

	text, err := s.Normalize(text)
	if err != nil {
		return nil, err
	}
	m, err := s.Repo.CreateMessage(ctx, s.DB, text, senderID, roomID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("message.id", int64(m.ID)))
	return m, nil
}

// History returns a page of roomID's messages, newest first, together with
// the total count. The requester must be a member of the room.
func (s *MessageService) History(ctx context.Context, userID, roomID uint, page, pageSize int) ([]domain.Message, int64, error) {
	ctx, span := tracer().Start(ctx, "MessageService.History",
		trace.WithAttributes(
			attribute.Int64("room.id", int64(roomID)),
			attribute.Int64("user.id", int64(userID)),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	if err := s.authorize(ctx, roomID, userID); err != nil {
		return nil, 0, err
	}

	total, err := s.Repo.CountMessages(ctx, s.DB, roomID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}

	items, err := s.Repo.ListMessagesPage(ctx, s.DB, roomID, offset, pageSize)
	return items, total, err
}

// HistoryStats returns the message count and latest update for roomID.
func (s *MessageService) HistoryStats(ctx context.Context, roomID uint) (int64, *time.Time, error) {
	return s.Repo.MessagesStats(ctx, s.DB, roomID)
}

func (s *MessageService) authorize(ctx context.Context, roomID, userID uint) error {
	ok, err := s.Rooms.IsUserInRoom(ctx, s.DB, roomID, userID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	// Distinguish a missing room from a non-member.
	if _, err := s.Rooms.GetRoomByID(ctx, s.DB, roomID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrRoomNotFound
		}
		return err
	}
	return ErrNotMember
}
