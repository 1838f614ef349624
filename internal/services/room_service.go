// Package services – RoomService
//
// This file implements RoomService, which resolves chat rooms between users.
// It enforces the membership rules (at least two distinct users, pair rooms
// are never duplicated) and answers membership questions for the realtime
// layer before any message is persisted.
package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-chat-relay/internal/domain"
	"github.com/tbourn/go-chat-relay/internal/repo"
)

// RoomRepo defines the repository contract required by RoomService.
type RoomRepo interface {
	// CreateRoom inserts a room with the given (already deduplicated) members.
	CreateRoom(ctx context.Context, db *gorm.DB, userIDs []uint) (*domain.ChatRoom, error)

	// FindRoomByMembers returns the room whose member set is exactly {a, b}.
	FindRoomByMembers(ctx context.Context, db *gorm.DB, a, b uint) (*domain.ChatRoom, error)

	// FindRoomsByUser returns the user's rooms, most recently active first.
	FindRoomsByUser(ctx context.Context, db *gorm.DB, userID uint) ([]domain.ChatRoom, error)

	// GetRoomByID fetches a room with its members.
	GetRoomByID(ctx context.Context, db *gorm.DB, id uint) (*domain.ChatRoom, error)

	// IsUserInRoom reports room membership.
	IsUserInRoom(ctx context.Context, db *gorm.DB, roomID, userID uint) (bool, error)

	// GetRoomParticipants lists member ids of a room.
	GetRoomParticipants(ctx context.Context, db *gorm.DB, roomID uint) ([]uint, error)

	// RoomsStats returns the room count and latest activity for a user.
	RoomsStats(ctx context.Context, db *gorm.DB, userID uint) (int64, *time.Time, error)
}

// RoomService provides room resolution and membership checks.
type RoomService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the room repository used by this service.
	Repo RoomRepo
}

// NewRoomService constructs a RoomService.
func NewRoomService(db *gorm.DB, r RoomRepo) *RoomService {
	return &RoomService{DB: db, Repo: r}
}

func tracer() trace.Tracer { return otel.Tracer("services") }

// CreateRoom resolves a room for userIDs. Ids are deduplicated (zero ids are
// dropped); fewer than two distinct ids yields ErrInvalidMembership. For
// exactly two users an existing pair room is returned instead of creating a
// duplicate. The boolean result reports whether a new room was created.
func (s *RoomService) CreateRoom(ctx context.Context, userIDs []uint) (*domain.ChatRoom, bool, error) {
	ctx, span := tracer().Start(ctx, "RoomService.CreateRoom",
		trace.WithAttributes(attribute.Int("room.requested_members", len(userIDs))),
	)
	defer span.End()

	ids := dedupeIDs(userIDs)
	if len(ids) < 2 {
		return nil, false, ErrInvalidMembership
	}

	if len(ids) == 2 {
		room, err := s.Repo.FindRoomByMembers(ctx, s.DB, ids[0], ids[1])
		switch {
		case err == nil:
			span.AddEvent("existing room", trace.WithAttributes(attribute.Int64("room.id", int64(room.ID))))
			return room, false, nil
		case !errors.Is(err, repo.ErrNotFound):
			return nil, false, err
		}
	}

	room, err := s.Repo.CreateRoom(ctx, s.DB, ids)
	if err != nil {
		if errors.Is(err, repo.ErrUnknownUsers) {
			return nil, false, ErrUnknownUser
		}
		return nil, false, err
	}
	span.SetAttributes(attribute.Int64("room.id", int64(room.ID)))
	return room, true, nil
}

// RoomsForUser returns every room the user belongs to, each annotated with
// its latest message, most recently active first.
func (s *RoomService) RoomsForUser(ctx context.Context, userID uint) ([]domain.ChatRoom, error) {
	ctx, span := tracer().Start(ctx, "RoomService.RoomsForUser",
		trace.WithAttributes(attribute.Int64("user.id", int64(userID))),
	)
	defer span.End()

	rooms, err := s.Repo.FindRoomsByUser(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []domain.ChatRoom{}
	}
	return rooms, nil
}

// RoomsStats exposes the listing fingerprint used for conditional responses.
func (s *RoomService) RoomsStats(ctx context.Context, userID uint) (int64, *time.Time, error) {
	return s.Repo.RoomsStats(ctx, s.DB, userID)
}

// GetRoom returns a room with its members. It fails with ErrRoomNotFound if
// the room does not exist and ErrNotMember if requester is not a member.
func (s *RoomService) GetRoom(ctx context.Context, roomID, requester uint) (*domain.ChatRoom, error) {
	ctx, span := tracer().Start(ctx, "RoomService.GetRoom",
		trace.WithAttributes(
			attribute.Int64("room.id", int64(roomID)),
			attribute.Int64("user.id", int64(requester)),
		),
	)
	defer span.End()

	room, err := s.Repo.GetRoomByID(ctx, s.DB, roomID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	for _, u := range room.Users {
		if u.ID == requester {
			return room, nil
		}
	}
	return nil, ErrNotMember
}

// IsMember reports whether userID belongs to roomID. A missing room is
// reported as not a member.
func (s *RoomService) IsMember(ctx context.Context, roomID, userID uint) (bool, error) {
	return s.Repo.IsUserInRoom(ctx, s.DB, roomID, userID)
}

// Participants returns the member ids of roomID.
func (s *RoomService) Participants(ctx context.Context, roomID uint) ([]uint, error) {
	return s.Repo.GetRoomParticipants(ctx, s.DB, roomID)
}

// dedupeIDs removes zero and repeated ids, keeping first-seen order.
func dedupeIDs(in []uint) []uint {
	seen := make(map[uint]struct{}, len(in))
	out := make([]uint, 0, len(in))
	for _, id := range in {
		if id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
