package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/axellelanca/linkforge/internal/models"
	"github.com/axellelanca/linkforge/internal/repository"
	"github.com/axellelanca/linkforge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeClicks records events and counts, failing the first failFirst calls.
type fakeClicks struct {
	repository.ClickRepository

	mu        sync.Mutex
	events    []models.ClickEvent
	counts    map[string]int
	calls     int
	failFirst int
	err       error
	missing   map[string]bool

	// gate holds calls made from the worker pool until closed; entered is
	// closed when the first of them arrives.
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
}

func newFakeClicks() *fakeClicks {
	return &fakeClicks{counts: map[string]int{}, missing: map[string]bool{}}
}

// inlineKey marks contexts passed by the test, so inline writes can be told
// apart from worker writes.
type inlineKey struct{}

func (f *fakeClicks) Record(ctx context.Context, event *models.ClickEvent) (bool, error) {
	if f.gate != nil && ctx.Value(inlineKey{}) == nil {
		if f.entered != nil {
			f.once.Do(func() { close(f.entered) })
		}
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failFirst {
		return false, errors.New("database is locked")
	}
	if f.err != nil {
		return false, f.err
	}
	f.events = append(f.events, *event)
	if f.missing[event.Code] {
		return false, nil
	}
	f.counts[event.Code]++
	return true, nil
}

func (f *fakeClicks) count(code string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[code]
}

func (f *fakeClicks) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *fakeClicks) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func stop(t *testing.T, r *ClickRecorder) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))
}

func TestRecordWritesEventAndCounter(t *testing.T) {
	clicks := newFakeClicks()
	r := StartClickRecorder(clicks, zap.NewNop(), Options{BufferSize: 10, WorkerCount: 2, MaxRetries: 1})

	r.Record(context.Background(), "abcd123", "curl/8.0", "203.0.113.9")
	stop(t, r)

	assert.Equal(t, 1, clicks.count("abcd123"))
	require.Equal(t, 1, clicks.len())
	ev := clicks.events[0]
	assert.Equal(t, "abcd123", ev.Code)
	assert.Equal(t, "curl/8.0", ev.UserAgent)
	assert.Equal(t, "203.0.113.9", ev.IPAddress)
	assert.False(t, ev.OccurredAt.IsZero())
}

func TestFullBufferDoesNotDropOrBlock(t *testing.T) {
	clicks := newFakeClicks()
	clicks.gate = make(chan struct{})
	r := StartClickRecorder(clicks, zap.NewNop(), Options{BufferSize: 1, WorkerCount: 1, MaxRetries: 1})

	const n = 20
	done := make(chan struct{})
	go func() {
		for i := 0; i < n; i++ {
			r.Record(context.Background(), "abcd123", "", "")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked while the worker was stalled")
	}

	close(clicks.gate)
	stop(t, r)
	assert.Equal(t, n, clicks.count("abcd123"))
	assert.Equal(t, n, clicks.len())
}

func TestOverflowIsBoundedThenInline(t *testing.T) {
	clicks := newFakeClicks()
	clicks.gate = make(chan struct{})
	clicks.entered = make(chan struct{})
	r := StartClickRecorder(clicks, zap.NewNop(), Options{BufferSize: 1, WorkerCount: 1, MaxOverflow: 2, MaxRetries: 1})

	ctx := context.WithValue(context.Background(), inlineKey{}, true)

	// The worker takes the first event and stalls on it.
	r.Record(ctx, "abcd123", "", "")
	<-clicks.entered

	// One fills the buffer, two take the overflow slots.
	for i := 0; i < 3; i++ {
		r.Record(ctx, "abcd123", "", "")
	}
	assert.Zero(t, clicks.len())
	assert.Len(t, r.slots, 2)

	// Every slot is taken: these are written on the calling goroutine.
	r.Record(ctx, "abcd123", "", "")
	r.Record(ctx, "abcd123", "", "")
	assert.Equal(t, 2, clicks.len())
	assert.Len(t, r.slots, 2)

	close(clicks.gate)
	stop(t, r)
	assert.Equal(t, 6, clicks.count("abcd123"))
	assert.Empty(t, r.slots)
}

func TestFailuresAreRetried(t *testing.T) {
	clicks := newFakeClicks()
	clicks.failFirst = 2
	r := StartClickRecorder(clicks, zap.NewNop(), Options{BufferSize: 4, WorkerCount: 1, MaxRetries: 3, RetryDelay: time.Millisecond})

	r.Record(context.Background(), "abcd123", "", "")
	stop(t, r)

	assert.Equal(t, 3, clicks.callCount())
	assert.Equal(t, 1, clicks.count("abcd123"), "write succeeds on the third attempt")
}

func TestFailuresAreSwallowed(t *testing.T) {
	clicks := newFakeClicks()
	clicks.err = errors.New("disk full")
	r := StartClickRecorder(clicks, zap.NewNop(), Options{BufferSize: 4, WorkerCount: 1, MaxRetries: 2, RetryDelay: time.Millisecond})

	assert.NotPanics(t, func() { r.Record(context.Background(), "abcd123", "", "") })
	stop(t, r)

	assert.Equal(t, 2, clicks.callCount())
	assert.Zero(t, clicks.len())
}

func TestClickForDeletedLinkKeepsEvent(t *testing.T) {
	clicks := newFakeClicks()
	clicks.missing["gone0000"] = true
	r := StartClickRecorder(clicks, zap.NewNop(), Options{BufferSize: 4, WorkerCount: 1, MaxRetries: 5, RetryDelay: time.Hour})

	r.Record(context.Background(), "gone0000", "", "")
	stop(t, r)

	assert.Equal(t, 1, clicks.callCount())
	assert.Equal(t, 1, clicks.len())
	assert.Zero(t, clicks.count("gone0000"))
}

func TestRecordAfterStopIsInline(t *testing.T) {
	clicks := newFakeClicks()
	r := StartClickRecorder(clicks, zap.NewNop(), Options{BufferSize: 4, WorkerCount: 1, MaxRetries: 1})
	stop(t, r)
	stop(t, r)

	r.Record(context.Background(), "abcd123", "", "")
	assert.Equal(t, 1, clicks.count("abcd123"))
}

func TestSyncMode(t *testing.T) {
	clicks := newFakeClicks()
	r := StartClickRecorder(clicks, zap.NewNop(), Options{Sync: true, MaxRetries: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Record(ctx, "abcd123", "", "")

	assert.Equal(t, 1, clicks.count("abcd123"))
	assert.Equal(t, 1, clicks.len())
	assert.NoError(t, r.Stop(context.Background()))
}

func TestConcurrentRecordsAgainstSQLite(t *testing.T) {
	db := testutil.NewDB(t)
	links := repository.NewLinkRepository(db)
	clicks := repository.NewClickRepository(db)
	ctx := context.Background()

	require.NoError(t, links.Create(ctx, &models.ShortLink{Code: "abcd123", OriginalURL: "https://example.com", ShortURL: "http://s/abcd123"}))

	r := StartClickRecorder(clicks, zap.NewNop(), Options{BufferSize: 8, WorkerCount: 4, MaxRetries: 3, RetryDelay: time.Millisecond})

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Record(ctx, "abcd123", "go-test", "127.0.0.1")
		}()
	}
	wg.Wait()
	stop(t, r)

	link, err := links.FindByCode(ctx, "abcd123")
	require.NoError(t, err)
	assert.Equal(t, int64(n), link.Clicks)

	count, err := clicks.CountByCode(ctx, "abcd123")
	require.NoError(t, err)
	assert.Equal(t, int64(n), count)
}
