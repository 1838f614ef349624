package chathub

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-chat-relay/internal/domain"
	"github.com/tbourn/go-chat-relay/internal/services"
)

// Rooms answers membership questions. Implemented by services.RoomService.
type Rooms interface {
	IsMember(ctx context.Context, roomID, userID uint) (bool, error)
	Participants(ctx context.Context, roomID uint) ([]uint, error)
}

// Messages persists validated messages. Implemented by services.MessageService.
type Messages interface {
	Send(ctx context.Context, senderID, roomID uint, text string) (*domain.Message, error)
}

// Presence is notified when a user gains a first connection or loses the
// last one. Implemented by the presence package.
type Presence interface {
	Online(ctx context.Context, userID uint) error
	Offline(ctx context.Context, userID uint) error
}

// Manager owns the connection registry and dispatches inbound events.
// It is safe for concurrent use by any number of connection goroutines.
type Manager struct {
	rooms    Rooms
	messages Messages
	presence Presence
	registry *Registry
	log      zerolog.Logger
	closed   atomic.Bool
}

// NewManager wires a Manager. presence may be nil.
func NewManager(rooms Rooms, messages Messages, presence Presence, log zerolog.Logger) *Manager {
	return &Manager{
		rooms:    rooms,
		messages: messages,
		presence: presence,
		registry: NewRegistry(),
		log:      log.With().Str("component", "chathub").Logger(),
	}
}

// AddUser registers an authenticated connection. After Shutdown the
// connection is closed immediately instead.
func (m *Manager) AddUser(ctx context.Context, userID uint, c Conn) {
	if m.closed.Load() {
		c.Close()
		return
	}
	first := m.registry.Add(userID, c)
	wsConnections.Inc()
	if m.closed.Load() {
		// Lost a race with Shutdown.
		m.RemoveUser(ctx, userID, c)
		c.Close()
		return
	}
	registryUsers.Set(float64(m.registry.Users()))

	m.log.Debug().Uint("user_id", userID).Int("connections", m.registry.Count(userID)).Msg("connection registered")
	if first && m.presence != nil {
		if err := m.presence.Online(ctx, userID); err != nil {
			m.log.Warn().Err(err).Uint("user_id", userID).Msg("presence online failed")
		}
	}
}

// RemoveUser deregisters a connection. Unknown connections are ignored, so
// it is safe to call from every close path.
func (m *Manager) RemoveUser(ctx context.Context, userID uint, c Conn) {
	removed, emptied := m.registry.Remove(userID, c)
	if !removed {
		return
	}
	wsConnections.Dec()
	registryUsers.Set(float64(m.registry.Users()))

	m.log.Debug().Uint("user_id", userID).Bool("last", emptied).Msg("connection removed")
	if emptied && m.presence != nil {
		if err := m.presence.Offline(ctx, userID); err != nil {
			m.log.Warn().Err(err).Uint("user_id", userID).Msg("presence offline failed")
		}
	}
}

// IsOnline reports whether userID has at least one live connection here.
func (m *Manager) IsOnline(userID uint) bool { return m.registry.Has(userID) }

// Connections returns the number of live connections userID has here.
func (m *Manager) Connections(userID uint) int { return m.registry.Count(userID) }

// HandleMessage processes one raw inbound frame from c, owned by userID.
// Failures are reported to c as ERROR events and never close it.
func (m *Manager) HandleMessage(ctx context.Context, userID uint, c Conn, raw []byte) {
	ev, err := ParseEvent(raw)
	if err != nil {
		m.log.Debug().Err(err).Uint("user_id", userID).Msg("malformed event")
		events.WithLabelValues(eventLabel(nil), outcomeRejected).Inc()
		m.reply(userID, c, ErrorEvent(ReasonMalformedEvent, 0))
		return
	}

	switch e := ev.(type) {
	case JoinRoom:
		m.joinRoom(ctx, userID, c, e)
	case SendMessage:
		m.sendMessage(ctx, userID, c, e)
	default:
		m.log.Debug().Str("type", e.eventType()).Uint("user_id", userID).Msg("ignoring unknown event")
		events.WithLabelValues(eventLabel(ev), outcomeIgnored).Inc()
	}
}

func (m *Manager) joinRoom(ctx context.Context, userID uint, c Conn, e JoinRoom) {
	if reason, ok := m.checkMember(ctx, userID, e.RoomID); !ok {
		events.WithLabelValues(TypeJoinRoom, outcomeFor(reason)).Inc()
		m.reply(userID, c, ErrorEvent(reason, e.RoomID))
		return
	}
	events.WithLabelValues(TypeJoinRoom, outcomeOK).Inc()
	m.reply(userID, c, JoinedRoom(e.RoomID))
}

func (m *Manager) sendMessage(ctx context.Context, userID uint, c Conn, e SendMessage) {
	// Membership is checked before anything is written.
	if reason, ok := m.checkMember(ctx, userID, e.RoomID); !ok {
		events.WithLabelValues(TypeSendMessage, outcomeFor(reason)).Inc()
		m.reply(userID, c, ErrorEvent(reason, e.RoomID))
		return
	}

	msg, err := m.messages.Send(ctx, userID, e.RoomID, e.Text)
	if err != nil {
		reason := sendFailureReason(err)
		if reason == ReasonPersistenceFailure {
			m.log.Error().Err(err).Uint("user_id", userID).Uint("room_id", e.RoomID).Msg("persist message failed")
		}
		events.WithLabelValues(TypeSendMessage, outcomeFor(reason)).Inc()
		m.reply(userID, c, ErrorEvent(reason, e.RoomID))
		return
	}

	participants, err := m.rooms.Participants(ctx, e.RoomID)
	if err != nil {
		m.log.Error().Err(err).Uint("room_id", e.RoomID).Uint("message_id", msg.ID).Msg("resolve participants failed")
		events.WithLabelValues(TypeSendMessage, outcomeFailed).Inc()
		m.reply(userID, c, ErrorEvent(ReasonPersistenceFailure, e.RoomID))
		return
	}

	out := NewMessage(msg)
	for _, pid := range participants {
		for _, conn := range m.registry.Get(pid) {
			m.deliver(pid, conn, out)
		}
	}
	events.WithLabelValues(TypeSendMessage, outcomeOK).Inc()
}

// checkMember returns ("", true) when userID belongs to roomID, otherwise
// the ERROR reason to report.
func (m *Manager) checkMember(ctx context.Context, userID, roomID uint) (string, bool) {
	ok, err := m.rooms.IsMember(ctx, roomID, userID)
	if err != nil {
		m.log.Error().Err(err).Uint("user_id", userID).Uint("room_id", roomID).Msg("membership check failed")
		return ReasonPersistenceFailure, false
	}
	if !ok {
		return ReasonNotAMember, false
	}
	return "", true
}

func sendFailureReason(err error) string {
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		return ReasonEmptyMessage
	case errors.Is(err, services.ErrTooLong):
		return ReasonMessageTooLong
	case errors.Is(err, services.ErrRoomNotFound):
		return ReasonRoomNotFound
	default:
		return ReasonPersistenceFailure
	}
}

func outcomeFor(reason string) string {
	if reason == ReasonPersistenceFailure {
		return outcomeFailed
	}
	return outcomeRejected
}

// reply sends ev to the originating connection only.
func (m *Manager) reply(userID uint, c Conn, ev Outbound) {
	if !c.Send(ev) {
		m.drop(userID, c)
	}
}

// deliver queues a fan-out event; a connection that cannot accept it is
// dropped without affecting the other recipients.
func (m *Manager) deliver(userID uint, c Conn, ev Outbound) {
	if c.Send(ev) {
		deliveries.WithLabelValues("queued").Inc()
		return
	}
	deliveries.WithLabelValues("dropped").Inc()
	m.drop(userID, c)
}

func (m *Manager) drop(userID uint, c Conn) {
	m.log.Warn().Uint("user_id", userID).Msg("dropping slow or closed connection")
	m.RemoveUser(context.Background(), userID, c)
	c.Close()
}

// Shutdown closes every registered connection and rejects new ones.
// Presence updates stop once ctx is done; ctx.Err() is returned then.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.closed.Store(true)
	drained := m.registry.Drain()
	registryUsers.Set(0)

	for _, list := range drained {
		for _, c := range list {
			c.Close()
			wsConnections.Dec()
		}
	}
	for userID := range drained {
		if err := ctx.Err(); err != nil {
			return err
		}
		if m.presence != nil {
			if err := m.presence.Offline(ctx, userID); err != nil {
				m.log.Warn().Err(err).Uint("user_id", userID).Msg("presence offline failed")
			}
		}
	}
	m.log.Info().Int("users", len(drained)).Msg("chat hub shut down")
	return nil
}
