package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-chat-relay/internal/domain"
)

// RoomStore adapts the room free functions to services.RoomRepo.
type RoomStore struct{}

// CreateRoom proxies CreateRoom.
func (RoomStore) CreateRoom(ctx context.Context, db *gorm.DB, userIDs []uint) (*domain.ChatRoom, error) {
	return CreateRoom(ctx, db, userIDs)
}

// FindRoomByMembers proxies FindRoomByMembers.
func (RoomStore) FindRoomByMembers(ctx context.Context, db *gorm.DB, a, b uint) (*domain.ChatRoom, error) {
	return FindRoomByMembers(ctx, db, a, b)
}

// FindRoomsByUser proxies FindRoomsByUser.
func (RoomStore) FindRoomsByUser(ctx context.Context, db *gorm.DB, userID uint) ([]domain.ChatRoom, error) {
	return FindRoomsByUser(ctx, db, userID)
}

// GetRoomByID proxies GetRoomByID.
func (RoomStore) GetRoomByID(ctx context.Context, db *gorm.DB, id uint) (*domain.ChatRoom, error) {
	return GetRoomByID(ctx, db, id)
}

// IsUserInRoom proxies IsUserInRoom.
func (RoomStore) IsUserInRoom(ctx context.Context, db *gorm.DB, roomID, userID uint) (bool, error) {
	return IsUserInRoom(ctx, db, roomID, userID)
}

// GetRoomParticipants proxies GetRoomParticipants.
func (RoomStore) GetRoomParticipants(ctx context.Context, db *gorm.DB, roomID uint) ([]uint, error) {
	return GetRoomParticipants(ctx, db, roomID)
}

// RoomsStats proxies RoomsStats.
func (RoomStore) RoomsStats(ctx context.Context, db *gorm.DB, userID uint) (int64, *time.Time, error) {
	return RoomsStats(ctx, db, userID)
}

// MessageStore adapts the message free functions to services.MessageRepo.
type MessageStore struct{}

// CreateMessage proxies CreateMessage.
func (MessageStore) CreateMessage(ctx context.Context, db *gorm.DB, text string, senderID, roomID uint) (*domain.Message, error) {
	return CreateMessage(ctx, db, text, senderID, roomID)
}

// CountMessages proxies CountMessages.
func (MessageStore) CountMessages(ctx context.Context, db *gorm.DB, roomID uint) (int64, error) {
	return CountMessages(ctx, db, roomID)
}

// ListMessagesPage proxies ListMessagesPage.
func (MessageStore) ListMessagesPage(ctx context.Context, db *gorm.DB, roomID uint, offset, limit int) ([]domain.Message, error) {
	return ListMessagesPage(ctx, db, roomID, offset, limit)
}

// MessagesStats proxies MessagesStats.
func (MessageStore) MessagesStats(ctx context.Context, db *gorm.DB, roomID uint) (int64, *time.Time, error) {
	return MessagesStats(ctx, db, roomID)
}
