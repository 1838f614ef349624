// Package repo implements the persistence gateway for users, rooms, and
// messages, backed by GORM. This file provides repository functions for the
// Message model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-chat-relay/internal/domain"
)

// CreateMessage inserts a message and bumps the owning room's UpdatedAt in
// the same transaction, so room listings reflect the new activity. The
// returned message has its Sender populated.
func CreateMessage(ctx context.Context, db *gorm.DB, text string, senderID, roomID uint) (*domain.Message, error) {
	now := time.Now().UTC()
	m := &domain.Message{
		Text:      text,
		SenderID:  senderID,
		RoomID:    roomID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Sender", "Room").Create(m).Error; err != nil {
			return err
		}
		res := tx.Model(&domain.ChatRoom{}).Where("id = ?", roomID).UpdateColumn("updated_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.First(&m.Sender, senderID).Error
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error.
func CountMessages(ctx context.Context, db *gorm.DB, roomID uint) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM messages WHERE room_id = ?", roomID).Scan(&total).Error
	return total, err
}

// ListMessagesPage returns a window of a room's messages, newest first
// (CreatedAt DESC, ID DESC), with senders populated.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListMessagesPage(ctx context.Context, db *gorm.DB, roomID uint, offset, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Preload("Sender").
		Where("room_id = ?", roomID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// LastMessage returns the most recent message in roomID, or ErrNotFound if
// the room has none.
func LastMessage(ctx context.Context, db *gorm.DB, roomID uint) (*domain.Message, error) {
	var m domain.Message
	err := db.WithContext(ctx).
		Preload("Sender").
		Where("room_id = ?", roomID).
		Order("created_at DESC, id DESC").
		Take(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// LastMessages returns the most recent message of each room in roomIDs,
// keyed by room id, in a single query plus the sender preload. Rooms
// without messages are absent from the map.
func LastMessages(ctx context.Context, db *gorm.DB, roomIDs []uint) (map[uint]*domain.Message, error) {
	out := make(map[uint]*domain.Message, len(roomIDs))
	if len(roomIDs) == 0 {
		return out, nil
	}
	// Same ordering as LastMessage: created_at, then id on ties.
	var msgs []domain.Message
	err := db.WithContext(ctx).
		Preload("Sender").
		Where("room_id IN ?", roomIDs).
		Where(`NOT EXISTS (SELECT 1 FROM messages n WHERE n.room_id = messages.room_id
			AND (n.created_at > messages.created_at
			OR (n.created_at = messages.created_at AND n.id > messages.id)))`).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		out[msgs[i].RoomID] = &msgs[i]
	}
	return out, nil
}
