package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore records all batches that were inserted.
type mockStore struct {
	mu       sync.Mutex
	batches  [][]Entry
	insertFn func(ctx context.Context, entries []Entry) error
}

func (m *mockStore) BatchInsert(ctx context.Context, entries []Entry) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, entries)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	m.batches = append(m.batches, cp)
	return nil
}

func (m *mockStore) totalInserted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

func sampleEntry(action string) Entry {
	return Entry{
		ActorID:      "u-1",
		ActorEmail:   "admin@cybersport.org",
		ActorRole:    "ADMIN",
		Action:       action,
		ResourceType: "team",
		ResourceID:   "t-1",
	}
}

func TestCollector_RecordBuffersAndStampsTime(t *testing.T) {
	ms := &mockStore{}
	c := NewCollector(ms, 100, time.Hour)

	c.Record(sampleEntry("team.create"))
	c.Record(sampleEntry("team.update"))

	assert.Equal(t, 2, c.Pending())
	assert.Zero(t, ms.totalInserted())

	c.mu.Lock()
	stamped := c.buffer[0].OccurredAt
	c.mu.Unlock()
	assert.False(t, stamped.IsZero())
}

func TestCollector_FlushOnBatchSize(t *testing.T) {
	tests := []struct {
		name      string
		batchSize int
		records   int
		wantFlush int
	}{
		{name: "exact batch size triggers flush", batchSize: 3, records: 3, wantFlush: 3},
		{name: "under batch size does not flush", batchSize: 5, records: 3, wantFlush: 0},
		{name: "double batch size triggers two flushes", batchSize: 2, records: 4, wantFlush: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := &mockStore{}
			c := NewCollector(ms, tt.batchSize, time.Hour)

			for i := 0; i < tt.records; i++ {
				c.Record(sampleEntry("game.create"))
			}

			assert.Equal(t, tt.wantFlush, ms.totalInserted())
		})
	}
}

func TestCollector_StopDoesFinalFlush(t *testing.T) {
	ms := &mockStore{}
	c := NewCollector(ms, 100, time.Hour)

	done := make(chan struct{})
	go func() {
		c.Start(context.Background())
		close(done)
	}()

	c.Record(sampleEntry("user.delete"))
	c.Record(sampleEntry("user.update"))
	c.Stop()
	c.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}
	assert.Equal(t, 2, ms.totalInserted())
}

func TestCollector_TimerFlush(t *testing.T) {
	ms := &mockStore{}
	c := NewCollector(ms, 100, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx)

	c.Record(sampleEntry("tournament.create"))

	require.Eventually(t, func() bool { return ms.totalInserted() == 1 }, 2*time.Second, 10*time.Millisecond)
	c.Stop()
}

func TestCollector_OnFlushReportsErrors(t *testing.T) {
	boom := errors.New("boom")
	ms := &mockStore{insertFn: func(context.Context, []Entry) error { return boom }}
	c := NewCollector(ms, 2, time.Hour)

	var gotN int
	var gotErr error
	c.OnFlush(func(n int, err error) { gotN, gotErr = n, err })

	c.Record(sampleEntry("a"))
	c.Record(sampleEntry("b"))

	assert.Equal(t, 2, gotN)
	assert.ErrorIs(t, gotErr, boom)
	assert.Zero(t, c.Pending())
}

func TestCollector_ConcurrentRecords(t *testing.T) {
	ms := &mockStore{}
	c := NewCollector(ms, 10, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Record(sampleEntry("player.create"))
		}()
	}
	wg.Wait()
	c.Flush()

	assert.Equal(t, 50, ms.totalInserted())
}

func TestQueryNormalize(t *testing.T) {
	assert.Equal(t, DefaultLimit, Query{}.Normalize().Limit)
	assert.Equal(t, MaxLimit, Query{Limit: 10_000}.Normalize().Limit)
	assert.Equal(t, 7, Query{Limit: 7}.Normalize().Limit)
	assert.Zero(t, Query{Before: -3}.Normalize().Before)
}
