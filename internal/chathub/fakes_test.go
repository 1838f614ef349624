package chathub

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/tbourn/go-chat-relay/internal/domain"
)

// fakeConn records queued events. A full fakeConn rejects every Send.
type fakeConn struct {
	mu     sync.Mutex
	events []Outbound
	full   bool
	closed bool
}

func (f *fakeConn) Send(ev Outbound) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full || f.closed {
		return false
	}
	f.events = append(f.events, ev)
	return true
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeConn) received() []Outbound {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Outbound(nil), f.events...)
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type mockRooms struct{ mock.Mock }

func (m *mockRooms) IsMember(ctx context.Context, roomID, userID uint) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRooms) Participants(ctx context.Context, roomID uint) ([]uint, error) {
	args := m.Called(ctx, roomID)
	ids, _ := args.Get(0).([]uint)
	return ids, args.Error(1)
}

type mockMessages struct{ mock.Mock }

func (m *mockMessages) Send(ctx context.Context, senderID, roomID uint, text string) (*domain.Message, error) {
	args := m.Called(ctx, senderID, roomID, text)
	msg, _ := args.Get(0).(*domain.Message)
	return msg, args.Error(1)
}

type mockPresence struct{ mock.Mock }

func (m *mockPresence) Online(ctx context.Context, userID uint) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockPresence) Offline(ctx context.Context, userID uint) error {
	return m.Called(ctx, userID).Error(0)
}
