package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-chat-relay/internal/domain"
)

func TestCreateMessage_PersistsAndBumpsRoom(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()
	u := seedUsers(t, db, "alice", "bob")
	past := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	room := seedRoomAt(t, db, past, u[0], u[1])

	start := time.Now().UTC().Add(-time.Minute)
	msg, err := CreateMessage(ctx, db, "hello", u[0].ID, room.ID)
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if msg.ID == 0 || msg.Text != "hello" || msg.SenderID != u[0].ID || msg.RoomID != room.ID {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.CreatedAt.Before(start) {
		t.Fatalf("CreatedAt seems unset/really old: %v", msg.CreatedAt)
	}
	if msg.Sender.Name != "alice" {
		t.Fatalf("expected sender populated, got %+v", msg.Sender)
	}

	var reloaded domain.ChatRoom
	if err := db.First(&reloaded, room.ID).Error; err != nil {
		t.Fatalf("reload room: %v", err)
	}
	if !reloaded.UpdatedAt.After(past) {
		t.Fatalf("expected room updated_at to be bumped, got %v", reloaded.UpdatedAt)
	}
}

func TestCreateMessage_UnknownRoomRollsBack(t *testing.T) {
	db := newMigratedDB(t)
	u := seedUsers(t, db, "alice")

	_, err := CreateMessage(context.Background(), db, "x", u[0].ID, 404)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	n, err := CountMessages(context.Background(), db, 404)
	if err != nil || n != 0 {
		t.Fatalf("expected rollback, got count=%d err=%v", n, err)
	}
}

func TestCountMessages_Error_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if _, err := CountMessages(context.Background(), db, 1); err == nil {
		t.Fatalf("expected error due to missing messages table")
	}
}

func TestListMessagesPage_NewestFirst(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()
	u := seedUsers(t, db, "alice", "bob")
	room := seedRoomAt(t, db, time.Now().UTC(), u[0], u[1])
	other := seedRoomAt(t, db, time.Now().UTC(), u[0], u[1])

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"m0", "m1", "m2", "m3", "m4"} {
		at := base.Add(time.Duration(i) * time.Minute)
		m := &domain.Message{Text: text, SenderID: u[i%2].ID, RoomID: room.ID, CreatedAt: at, UpdatedAt: at}
		if err := db.Omit("Sender", "Room").Create(m).Error; err != nil {
			t.Fatalf("seed %s: %v", text, err)
		}
	}
	if _, err := CreateMessage(ctx, db, "elsewhere", u[0].ID, other.ID); err != nil {
		t.Fatalf("seed other: %v", err)
	}

	total, err := CountMessages(ctx, db, room.ID)
	if err != nil || total != 5 {
		t.Fatalf("CountMessages = %d, %v; want 5", total, err)
	}

	page1, err := ListMessagesPage(ctx, db, room.ID, 0, 2)
	if err != nil {
		t.Fatalf("page1: %v", err)
	}
	page3, err := ListMessagesPage(ctx, db, room.ID, 4, 2)
	if err != nil {
		t.Fatalf("page3: %v", err)
	}
	if len(page1) != 2 || page1[0].Text != "m4" || page1[1].Text != "m3" {
		t.Fatalf("unexpected page1: %+v", page1)
	}
	if len(page3) != 1 || page3[0].Text != "m0" {
		t.Fatalf("unexpected page3: %+v", page3)
	}
	if page1[0].Sender.ID == 0 {
		t.Fatalf("expected sender preloaded")
	}

	last, err := LastMessage(ctx, db, room.ID)
	if err != nil || last.Text != "m4" {
		t.Fatalf("LastMessage = %+v, %v; want m4", last, err)
	}
}

func TestLastMessage_EmptyRoom(t *testing.T) {
	db := newMigratedDB(t)
	if _, err := LastMessage(context.Background(), db, 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLastMessages_PerRoom(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()
	u := seedUsers(t, db, "alice", "bob")
	a := seedRoomAt(t, db, time.Now().UTC(), u[0], u[1])
	b := seedRoomAt(t, db, time.Now().UTC(), u[0], u[1])
	empty := seedRoomAt(t, db, time.Now().UTC(), u[0], u[1])

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	seed := func(text string, sender, room uint, at time.Time) {
		t.Helper()
		m := &domain.Message{Text: text, SenderID: sender, RoomID: room, CreatedAt: at, UpdatedAt: at}
		if err := db.Omit("Sender", "Room").Create(m).Error; err != nil {
			t.Fatalf("seed %s: %v", text, err)
		}
	}
	// Insertion order differs from timestamp order in room a; the last two tie.
	seed("a-late", u[0].ID, a.ID, base.Add(2*time.Minute))
	seed("a-early", u[1].ID, a.ID, base)
	seed("a-tie", u[1].ID, a.ID, base.Add(2*time.Minute))
	seed("b-only", u[0].ID, b.ID, base)

	got, err := LastMessages(ctx, db, []uint{a.ID, b.ID, empty.ID})
	if err != nil {
		t.Fatalf("LastMessages: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rooms with messages, got %d", len(got))
	}
	if m := got[a.ID]; m == nil || m.Text != "a-tie" || m.Sender.Name != "bob" {
		t.Fatalf("room a last = %+v", m)
	}
	if m := got[b.ID]; m == nil || m.Text != "b-only" || m.Sender.Name != "alice" {
		t.Fatalf("room b last = %+v", m)
	}
	if _, ok := got[empty.ID]; ok {
		t.Fatalf("empty room must be absent")
	}

	// Agrees with the single-room lookup.
	one, err := LastMessage(ctx, db, a.ID)
	if err != nil || one.ID != got[a.ID].ID {
		t.Fatalf("LastMessage = %+v, %v; want id %d", one, err, got[a.ID].ID)
	}

	none, err := LastMessages(ctx, db, nil)
	if err != nil || len(none) != 0 {
		t.Fatalf("LastMessages(nil) = %v, %v", none, err)
	}
}

func TestMessageStore_ProxiesFreeFunctions(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()
	u := seedUsers(t, db, "alice", "bob")
	room := seedRoomAt(t, db, time.Now().UTC(), u[0], u[1])
	var s MessageStore

	if _, err := s.CreateMessage(ctx, db, "hi", u[1].ID, room.ID); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if n, err := s.CountMessages(ctx, db, room.ID); err != nil || n != 1 {
		t.Fatalf("CountMessages: %d %v", n, err)
	}
	if items, err := s.ListMessagesPage(ctx, db, room.ID, 0, 10); err != nil || len(items) != 1 {
		t.Fatalf("ListMessagesPage: %v %v", items, err)
	}
	if n, at, err := s.MessagesStats(ctx, db, room.ID); err != nil || n != 1 || at == nil {
		t.Fatalf("MessagesStats: %d %v %v", n, at, err)
	}
}
