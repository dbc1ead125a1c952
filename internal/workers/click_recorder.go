// Package workers runs the background click recording pool.
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/axellelanca/linkforge/internal/metrics"
	"github.com/axellelanca/linkforge/internal/models"
	"github.com/axellelanca/linkforge/internal/repository"
	"go.uber.org/zap"
)

// DefaultMaxOverflow bounds the goroutines holding events for a full buffer.
const DefaultMaxOverflow = 1000

// Options tunes a ClickRecorder.
type Options struct {
	BufferSize  int
	WorkerCount int
	// MaxOverflow caps deferred events waiting for buffer space. Past it,
	// Record writes inline and the visitor waits for the store.
	MaxOverflow int
	MaxRetries  int
	RetryDelay  time.Duration
	// Sync records inline on the calling goroutine, for hosts that cannot run
	// work after the response is sent.
	Sync bool
}

// ClickRecorder appends click events and bumps the link counter off the
// redirect path. Record never returns an error.
//
// When the buffer is full the event is handed to a short-lived goroutine
// instead of being dropped, up to MaxOverflow of them; beyond that Record
// writes inline. Each write is retried, so a write that committed but
// reported failure can be applied twice: counts may run high, never low.
type ClickRecorder struct {
	clicks repository.ClickRepository
	logger *zap.Logger
	opts   Options

	events chan models.ClickEvent
	slots  chan struct{}

	mu       sync.RWMutex
	closed   bool
	overflow sync.WaitGroup
	workers  sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

// StartClickRecorder creates a recorder and launches its worker goroutines.
func StartClickRecorder(clicks repository.ClickRepository, logger *zap.Logger, opts Options) *ClickRecorder {
	if opts.BufferSize < 0 {
		opts.BufferSize = 0
	}
	if opts.WorkerCount < 1 {
		opts.WorkerCount = 1
	}
	if opts.MaxOverflow < 1 {
		opts.MaxOverflow = DefaultMaxOverflow
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}

	r := &ClickRecorder{
		clicks:  clicks,
		logger:  logger.Named("clicks"),
		opts:    opts,
		stopped: make(chan struct{}),
	}
	if opts.Sync {
		return r
	}

	r.events = make(chan models.ClickEvent, opts.BufferSize)
	r.slots = make(chan struct{}, opts.MaxOverflow)
	r.logger.Info("starting click workers", zap.Int("workers", opts.WorkerCount), zap.Int("buffer", opts.BufferSize))
	for i := 0; i < opts.WorkerCount; i++ {
		r.workers.Add(1)
		go r.work()
	}
	return r
}

// Record captures a visit to code. The event time is taken now.
func (r *ClickRecorder) Record(ctx context.Context, code, userAgent, ipAddress string) {
	event := models.ClickEvent{
		Code:       code,
		OccurredAt: time.Now().UTC(),
		UserAgent:  truncate(userAgent, 255),
		IPAddress:  truncate(ipAddress, 50),
	}

	if r.opts.Sync {
		r.persist(context.WithoutCancel(ctx), event)
		return
	}

	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		r.persist(context.WithoutCancel(ctx), event)
		return
	}
	select {
	case r.events <- event:
		metrics.ClickQueueDepth.Set(float64(len(r.events)))
		r.mu.RUnlock()
	default:
		r.deferOrPersist(ctx, event)
	}
}

// deferOrPersist is called with the read lock held and releases it.
func (r *ClickRecorder) deferOrPersist(ctx context.Context, event models.ClickEvent) {
	select {
	case r.slots <- struct{}{}:
		r.overflow.Add(1)
		r.mu.RUnlock()
		metrics.Clicks.WithLabelValues("overflow").Inc()
		r.logger.Warn("click buffer full, deferring event", zap.String("code", event.Code))
		go func() {
			defer r.overflow.Done()
			r.events <- event
			<-r.slots
		}()
	default:
		r.mu.RUnlock()
		metrics.Clicks.WithLabelValues("inline").Inc()
		r.logger.Warn("click overflow full, recording inline", zap.String("code", event.Code))
		r.persist(context.WithoutCancel(ctx), event)
	}
}

func (r *ClickRecorder) work() {
	defer r.workers.Done()
	for event := range r.events {
		metrics.ClickQueueDepth.Set(float64(len(r.events)))
		r.persist(context.Background(), event)
	}
}

// persist writes the event and the counter together, retrying on failure.
func (r *ClickRecorder) persist(ctx context.Context, event models.ClickEvent) {
	counted := false
	err := retryWithBackoff(ctx, r.opts.MaxRetries, r.opts.RetryDelay, func(ctx context.Context) error {
		e := event
		var err error
		counted, err = r.clicks.Record(ctx, &e)
		return err
	})
	if err != nil {
		metrics.Clicks.WithLabelValues("failed").Inc()
		r.logger.Error("failed to record click",
			zap.String("code", event.Code),
			zap.String("operation", "clicks.record"),
			zap.Error(err))
		return
	}
	if !counted {
		// Deleted between resolve and record. The event stays attributable by code.
		r.logger.Debug("click for deleted link", zap.String("code", event.Code))
	}
	metrics.Clicks.WithLabelValues("recorded").Inc()
}

// Stop refuses new buffered events, waits for deferred and queued events to be
// written and stops the workers. Events recorded after Stop are written inline.
func (r *ClickRecorder) Stop(ctx context.Context) error {
	if r.opts.Sync {
		return nil
	}

	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()

		go func() {
			r.overflow.Wait()
			close(r.events)
			r.workers.Wait()
			close(r.stopped)
		}()
	})

	select {
	case <-r.stopped:
		r.logger.Info("click workers stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
