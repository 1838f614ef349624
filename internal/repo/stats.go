// Package repo implements the persistence gateway for users, rooms, and
// messages, backed by GORM. This file provides small aggregate/statistics
// queries used for conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-chat-relay/internal/domain"
)

// RoomsStats returns aggregate metadata for the rooms userID belongs to:
// the number of rooms and the greatest UpdatedAt among them. Because
// CreateMessage bumps the room's UpdatedAt, the pair changes whenever a new
// message lands in any of the user's rooms.
//
// When the user has no rooms, the returned count is 0 and maxUpdatedAt is nil.
func RoomsStats(ctx context.Context, db *gorm.DB, userID uint) (count int64, maxUpdatedAt *time.Time, err error) {
	base := db.WithContext(ctx)
	mine := base.Model(&domain.RoomMember{}).Select("chat_room_id").Where("user_id = ?", userID)
	q := base.Model(&domain.ChatRoom{}).Where("id IN (?)", mine).Session(&gorm.Session{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}
	return latestUpdatedAt(q, count)
}

// MessagesStats returns aggregate metadata for messages within roomID:
// the total number of rows and the maximum UpdatedAt timestamp among them.
//
// When the room has no messages, the returned count is 0 and maxUpdatedAt is nil.
func MessagesStats(ctx context.Context, db *gorm.DB, roomID uint) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Message{}).Where("room_id = ?", roomID).Session(&gorm.Session{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}
	return latestUpdatedAt(q, count)
}

// latestUpdatedAt avoids MAX(), which comes back as TEXT in SQLite.
func latestUpdatedAt(q *gorm.DB, count int64) (int64, *time.Time, error) {
	var row struct {
		UpdatedAt time.Time
	}
	if err := q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
