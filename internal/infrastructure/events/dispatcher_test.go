package events

import (
	"context"
	"sync"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	natsservertest "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/application/ports"
)

// fakeSessions runs the given fn directly against the caller's context,
// mirroring the ledger package's in-memory fake: there is no real
// database here, just the outbox store below.
type fakeSessions struct{}

func (fakeSessions) RunSerializable(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type fakeOutboxStore struct {
	mu        sync.Mutex
	pending   []ports.OutboxEntry
	published map[uuid.UUID]bool
	failed    map[uuid.UUID]string
}

func newFakeOutboxStore(entries ...ports.OutboxEntry) *fakeOutboxStore {
	return &fakeOutboxStore{
		pending:   entries,
		published: map[uuid.UUID]bool{},
		failed:    map[uuid.UUID]string{},
	}
}

func (s *fakeOutboxStore) FindUnpublished(ctx context.Context, limit int) ([]ports.OutboxEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.pending) {
		limit = len(s.pending)
	}
	batch := s.pending[:limit]
	s.pending = s.pending[limit:]
	return batch, nil
}

func (s *fakeOutboxStore) MarkPublished(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published[id] = true
	return nil
}

func (s *fakeOutboxStore) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[id] = reason
	return nil
}

func (s *fakeOutboxStore) CleanupPublished(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

func runEmbeddedNats(t *testing.T) (*natsserver.Server, string) {
	t.Helper()
	opts := natsservertest.DefaultTestOptions
	opts.Port = -1
	srv := natsservertest.RunServer(&opts)
	t.Cleanup(srv.Shutdown)
	return srv, srv.ClientURL()
}

func TestDispatcher_RunOnce_PublishesAndMarksEntries(t *testing.T) {
	_, url := runEmbeddedNats(t)
	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()

	sub, err := nc.SubscribeSync("ledgercore.events.posting.committed")
	require.NoError(t, err)

	entryID := uuid.New()
	store := newFakeOutboxStore(ports.OutboxEntry{
		ID:        entryID,
		EventType: "posting.committed",
		Payload:   []byte(`{"accountId":"` + uuid.New().String() + `"}`),
		Status:    "PENDING",
		CreatedAt: time.Now(),
	})

	d := NewDispatcher(fakeSessions{}, store, nc, DefaultConfig(), nil)
	processed, err := d.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.True(t, store.published[entryID])

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	assert.Contains(t, string(msg.Data), "accountId")
}

func TestDispatcher_RunOnce_MarksFailedOnPublishError(t *testing.T) {
	_, url := runEmbeddedNats(t)
	nc, err := nats.Connect(url)
	require.NoError(t, err)
	nc.Close() // closed connection: every Publish call returns an error

	entryID := uuid.New()
	store := newFakeOutboxStore(ports.OutboxEntry{
		ID:        entryID,
		EventType: "posting.committed",
		Payload:   []byte(`{}`),
		Status:    "PENDING",
	})

	d := NewDispatcher(fakeSessions{}, store, nc, DefaultConfig(), nil)
	processed, err := d.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.False(t, store.published[entryID])
	assert.NotEmpty(t, store.failed[entryID])
}
