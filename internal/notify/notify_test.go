package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/reqarr/internal/database"
	"github.com/vmunix/reqarr/internal/events"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sent struct {
	endpoint Endpoint
	msg      Message
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (s *recordingSender) Send(_ context.Context, e Endpoint, m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sent{e, m})
	return s.err
}

func (s *recordingSender) all() []sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sent(nil), s.sent...)
}

func TestEndpointStore(t *testing.T) {
	store := NewEndpointStore(setupTestDB(t))
	ctx := context.Background()

	n, err := store.Count(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, n)

	e := &Endpoint{UserID: "alice", Kind: KindDiscord, Target: " https://discord.example/hook "}
	require.NoError(t, store.Add(ctx, e))
	assert.Positive(t, e.ID)
	assert.Equal(t, "https://discord.example/hook", e.Target)

	err = store.Add(ctx, &Endpoint{UserID: "alice", Kind: KindDiscord, Target: "https://discord.example/hook"})
	assert.ErrorIs(t, err, ErrDuplicate)

	require.NoError(t, store.Add(ctx, &Endpoint{UserID: "alice", Kind: KindEmail, Target: "alice@example.com"}))
	n, err = store.Count(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := store.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, KindDiscord, list[0].Kind)

	got, err := store.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserID)

	require.NoError(t, store.Delete(ctx, e.ID))
	assert.ErrorIs(t, store.Delete(ctx, e.ID), ErrNotFound)
	_, err = store.Get(ctx, e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEndpointStore_Invalid(t *testing.T) {
	store := NewEndpointStore(setupTestDB(t))
	tests := []Endpoint{
		{Kind: KindEmail, Target: "a@example.com"},
		{UserID: "u", Kind: "pager", Target: "x"},
		{UserID: "u", Kind: KindTelegram, Target: "  "},
		{UserID: "u", Kind: KindWebhook, Target: "ftp://example.com"},
	}
	for _, e := range tests {
		err := store.Add(context.Background(), &e)
		assert.ErrorIs(t, err, ErrInvalid, "%+v", e)
	}
}

func info(requestID string) events.RequestInfo {
	return events.RequestInfo{RequestID: requestID, MediaType: "movie", Title: "Fight Club", RequestedBy: "alice"}
}

func TestDispatcher_Recipients(t *testing.T) {
	db := setupTestDB(t)
	store := NewEndpointStore(db)
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, &Endpoint{UserID: "alice", Kind: KindEmail, Target: "alice@example.com"}))
	require.NoError(t, store.Add(ctx, &Endpoint{UserID: "admin", Kind: KindEmail, Target: "admin@example.com"}))

	sender := &recordingSender{}
	d := NewDispatcher(events.NewBus(nil, nil), store, sender, []string{"admin"}, testLogger())

	d.Dispatch(ctx, &events.RequestCreated{
		BaseEvent: events.NewBaseEvent(events.EventRequestCreated, events.EntityRequest, 550), RequestInfo: info("r1"),
	})
	d.Dispatch(ctx, &events.RequestCreated{
		BaseEvent: events.NewBaseEvent(events.EventRequestCreated, events.EntityRequest, 551), RequestInfo: info("r2"),
		AutoApproved: true,
	})
	d.Dispatch(ctx, &events.RequestDenied{
		BaseEvent: events.NewBaseEvent(events.EventRequestDenied, events.EntityRequest, 550), RequestInfo: info("r1"),
		Reason: "duplicate of 4K",
	})

	got := sender.all()
	require.Len(t, got, 2)
	assert.Equal(t, "admin", got[0].endpoint.UserID, "pending requests go to admins")
	assert.Equal(t, "r1", got[0].msg.RequestID)
	assert.Equal(t, "alice", got[1].endpoint.UserID)
	assert.Contains(t, got[1].msg.Body, "duplicate of 4K")
	assert.Equal(t, int64(550), got[1].msg.TMDBID)
}

func TestDispatcher_FailedGoesToBoth(t *testing.T) {
	db := setupTestDB(t)
	store := NewEndpointStore(db)
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, &Endpoint{UserID: "alice", Kind: KindEmail, Target: "alice@example.com"}))
	require.NoError(t, store.Add(ctx, &Endpoint{UserID: "admin", Kind: KindTelegram, Target: "@admin"}))

	sender := &recordingSender{err: errors.New("smtp down")}
	d := NewDispatcher(events.NewBus(nil, nil), store, sender, []string{"admin", "alice"}, testLogger())

	d.Dispatch(ctx, &events.RequestFailed{
		BaseEvent: events.NewBaseEvent(events.EventRequestFailed, events.EntityRequest, 550), RequestInfo: info("r1"),
		Error: "radarr unavailable",
	})

	got := sender.all()
	require.Len(t, got, 2, "each user once, delivery errors don't stop the rest")
}

func TestDispatcher_Run(t *testing.T) {
	db := setupTestDB(t)
	store := NewEndpointStore(db)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, store.Add(ctx, &Endpoint{UserID: "alice", Kind: KindEmail, Target: "alice@example.com"}))

	bus := events.NewBus(nil, nil)
	defer bus.Close()
	sender := &recordingSender{}
	d := NewDispatcher(bus, store, sender, nil, testLogger())

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	// Publish until the subscription is live.
	require.Eventually(t, func() bool {
		_ = bus.Publish(ctx, &events.RequestAvailable{
			BaseEvent: events.NewBaseEvent(events.EventRequestAvailable, events.EntityRequest, 550), RequestInfo: info("r1"),
		})
		return len(sender.all()) > 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

func TestWebhookSender(t *testing.T) {
	var got Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	fallback := &recordingSender{}
	s := NewWebhookSender(time.Second, fallback)
	ctx := context.Background()

	err := s.Send(ctx, Endpoint{Kind: KindWebhook, Target: server.URL}, Message{Event: events.EventRequestApproved, RequestID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, "r1", got.RequestID)

	require.NoError(t, s.Send(ctx, Endpoint{Kind: KindEmail, Target: "a@example.com"}, Message{RequestID: "r2"}))
	require.Len(t, fallback.all(), 1)
}

func TestWebhookSender_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewWebhookSender(time.Second, nil).Send(context.Background(), Endpoint{Kind: KindWebhook, Target: server.URL}, Message{})
	assert.Error(t, err)
}
