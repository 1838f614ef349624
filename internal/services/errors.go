// Package services defines the business logic for rooms and messages.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into HTTP status codes or realtime error events is performed
// by the transport layers (handlers and chathub).
package services

import "errors"

// Room-related errors.
var (
	// ErrInvalidMembership is returned when a room is requested with fewer
	// than two distinct users.
	ErrInvalidMembership = errors.New("room requires at least two distinct users")

	// ErrUnknownUser is returned when a room is requested for a user id that
	// does not exist.
	ErrUnknownUser = errors.New("unknown user")

	// ErrRoomNotFound indicates that the requested room does not exist.
	ErrRoomNotFound = errors.New("room not found")

	// ErrNotMember is returned when the requesting user is not a member of
	// the room.
	ErrNotMember = errors.New("you are not a member of this room")
)

// Message-related errors.
var (
	// ErrEmptyMessage is returned when message text is empty after trimming.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrTooLong is returned when message text exceeds the configured
	// maximum rune count.
	ErrTooLong = errors.New("message too long")
)
