// Package repo implements the persistence gateway for users, rooms, and
// messages, backed by GORM. This file provides repository functions for the
// ChatRoom model and its membership join table.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only
// persistence and query composition.
//
// Error semantics:
//   - When a room is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - CreateRoom returns ErrUnknownUsers when a member id has no user row.
//   - On other DB errors the raw gorm error is propagated.
//
// Usage:
//
//	room, err := repo.FindRoomByMembers(ctx, db, 7, 9)
//	if errors.Is(err, repo.ErrNotFound) {
//	    room, err = repo.CreateRoom(ctx, db, []uint{7, 9})
//	}
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-chat-relay/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrUnknownUsers is returned by CreateRoom when one or more member ids do
// not reference an existing user.
var ErrUnknownUsers = errors.New("repo: unknown users")

// membersOrdered preloads room members in a stable order.
func membersOrdered(db *gorm.DB) *gorm.DB {
	return db.Order("users.id ASC")
}

// CreateRoom inserts a new ChatRoom with the given members in one
// transaction. The caller is responsible for deduplicating userIDs.
// The returned room has its Users populated.
func CreateRoom(ctx context.Context, db *gorm.DB, userIDs []uint) (*domain.ChatRoom, error) {
	var room domain.ChatRoom
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users []domain.User
		if err := tx.Where("id IN ?", userIDs).Order("id ASC").Find(&users).Error; err != nil {
			return err
		}
		if len(users) != len(userIDs) {
			return ErrUnknownUsers
		}
		room.Users = users
		// Users already exist; only the room and join rows are written.
		return tx.Omit("Users.*").Create(&room).Error
	})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// FindRoomByMembers returns the room whose member set is exactly {a, b}.
// Group rooms that merely contain both users do not match. If no such room
// exists it returns ErrNotFound.
func FindRoomByMembers(ctx context.Context, db *gorm.DB, a, b uint) (*domain.ChatRoom, error) {
	q := db.WithContext(ctx)
	withA := q.Model(&domain.RoomMember{}).Select("chat_room_id").Where("user_id = ?", a)
	withB := q.Model(&domain.RoomMember{}).Select("chat_room_id").Where("user_id = ?", b)

	var ids []uint
	err := q.Model(&domain.RoomMember{}).
		Where("chat_room_id IN (?) AND chat_room_id IN (?)", withA, withB).
		Group("chat_room_id").
		Having("COUNT(*) = ?", 2).
		Order("chat_room_id ASC").
		Limit(1).
		Pluck("chat_room_id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNotFound
	}
	return GetRoomByID(ctx, db, ids[0])
}

// FindRoomsByUser returns every room userID belongs to, most recently
// updated first, with members and the latest message populated.
// It returns an empty slice if the user has no rooms.
func FindRoomsByUser(ctx context.Context, db *gorm.DB, userID uint) ([]domain.ChatRoom, error) {
	q := db.WithContext(ctx)
	mine := q.Model(&domain.RoomMember{}).Select("chat_room_id").Where("user_id = ?", userID)

	var rooms []domain.ChatRoom
	err := q.Where("id IN (?)", mine).
		Preload("Users", membersOrdered).
		Order("updated_at DESC, id DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(rooms))
	for i := range rooms {
		ids[i] = rooms[i].ID
	}
	last, err := LastMessages(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	for i := range rooms {
		rooms[i].LastMessage = last[rooms[i].ID]
	}
	return rooms, nil
}

// GetRoomByID fetches a room with its members. If the record does not exist,
// it returns ErrNotFound.
func GetRoomByID(ctx context.Context, db *gorm.DB, id uint) (*domain.ChatRoom, error) {
	var room domain.ChatRoom
	err := db.WithContext(ctx).
		Preload("Users", membersOrdered).
		First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// IsUserInRoom reports whether userID is a member of roomID. A missing room
// is reported as false, not as an error.
func IsUserInRoom(ctx context.Context, db *gorm.DB, roomID, userID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.RoomMember{}).
		Where("chat_room_id = ? AND user_id = ?", roomID, userID).
		Count(&n).Error
	return n > 0, err
}

// GetRoomParticipants returns the ids of every member of roomID in ascending
// order. A missing room yields an empty slice.
func GetRoomParticipants(ctx context.Context, db *gorm.DB, roomID uint) ([]uint, error) {
	var ids []uint
	err := db.WithContext(ctx).
		Model(&domain.RoomMember{}).
		Where("chat_room_id = ?", roomID).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}
