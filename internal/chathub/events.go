// Package chathub is the realtime core of the relay. It tracks live
// connections per user, parses inbound socket events, and fans persisted
// messages out to every open connection of every room participant.
//
// Wire format (JSON text frames):
//
//	inbound:  {"type":"JOIN_ROOM","roomId":1}
//	          {"type":"SEND_MESSAGE","roomId":1,"text":"hi"}
//	outbound: {"type":"JOINED_ROOM","payload":{"roomId":1,"status":"success"}}
//	          {"type":"NEW_MESSAGE","payload":{"id":3,"text":"hi","senderId":7,"roomId":1,"createdAt":"..."}}
//	          {"type":"ERROR","payload":{"reason":"not_a_member","roomId":1}}
package chathub

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tbourn/go-chat-relay/internal/domain"
)

// Event type discriminators.
const (
	TypeJoinRoom    = "JOIN_ROOM"
	TypeSendMessage = "SEND_MESSAGE"
	TypeJoinedRoom  = "JOINED_ROOM"
	TypeNewMessage  = "NEW_MESSAGE"
	TypeError       = "ERROR"
)

// Machine-readable reasons carried by ERROR events.
const (
	ReasonMalformedEvent     = "malformed_event"
	ReasonNotAMember         = "not_a_member"
	ReasonRoomNotFound       = "room_not_found"
	ReasonEmptyMessage       = "empty_message"
	ReasonMessageTooLong     = "message_too_long"
	ReasonPersistenceFailure = "persistence_failure"
	ReasonRateLimited        = "rate_limited"
)

// ErrMalformedEvent wraps every ParseEvent failure.
var ErrMalformedEvent = errors.New("malformed event")

// Event is an inbound client event: one of JoinRoom, SendMessage, Unknown.
type Event interface {
	eventType() string
}

// JoinRoom asks the relay to confirm membership of a room.
type JoinRoom struct {
	RoomID uint
}

// SendMessage asks the relay to persist Text in RoomID and fan it out.
type SendMessage struct {
	RoomID uint
	Text   string
}

// Unknown is any event with an unrecognized type. It is ignored.
type Unknown struct {
	Type string
}

func (JoinRoom) eventType() string    { return TypeJoinRoom }
func (SendMessage) eventType() string { return TypeSendMessage }
func (u Unknown) eventType() string   { return u.Type }

type envelope struct {
	Type string `json:"type"`
}

type roomFrame struct {
	RoomID uint   `json:"roomId"`
	Text   string `json:"text"`
}

// ParseEvent decodes a raw frame into a typed Event. A frame that is not a
// JSON object or lacks a type is malformed. Fields are only decoded for
// known types, so an unknown event of any shape is returned as Unknown.
// Known events with a missing or non-numeric roomId are malformed.
func ParseEvent(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	switch env.Type {
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	case TypeJoinRoom, TypeSendMessage:
	default:
		return Unknown{Type: env.Type}, nil
	}

	var f roomFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if f.RoomID == 0 {
		return nil, fmt.Errorf("%w: missing roomId", ErrMalformedEvent)
	}
	if env.Type == TypeJoinRoom {
		return JoinRoom{RoomID: f.RoomID}, nil
	}
	return SendMessage{RoomID: f.RoomID, Text: f.Text}, nil
}

// Outbound is the envelope of every server-to-client event.
type Outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// JoinedRoomPayload acknowledges a JOIN_ROOM.
type JoinedRoomPayload struct {
	RoomID uint   `json:"roomId"`
	Status string `json:"status"`
}

// NewMessagePayload carries a persisted message.
type NewMessagePayload struct {
	ID        uint      `json:"id"`
	Text      string    `json:"text"`
	SenderID  uint      `json:"senderId"`
	RoomID    uint      `json:"roomId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrorPayload reports a rejected event to its originating connection.
type ErrorPayload struct {
	Reason string `json:"reason"`
	RoomID uint   `json:"roomId,omitempty"`
}

// JoinedRoom builds a JOINED_ROOM acknowledgement.
func JoinedRoom(roomID uint) Outbound {
	return Outbound{Type: TypeJoinedRoom, Payload: JoinedRoomPayload{RoomID: roomID, Status: "success"}}
}

// NewMessage builds a NEW_MESSAGE event from a persisted message.
func NewMessage(m *domain.Message) Outbound {
	return Outbound{Type: TypeNewMessage, Payload: NewMessagePayload{
		ID:        m.ID,
		Text:      m.Text,
		SenderID:  m.SenderID,
		RoomID:    m.RoomID,
		CreatedAt: m.CreatedAt,
	}}
}

// ErrorEvent builds an ERROR event. roomID may be zero.
func ErrorEvent(reason string, roomID uint) Outbound {
	return Outbound{Type: TypeError, Payload: ErrorPayload{Reason: reason, RoomID: roomID}}
}
