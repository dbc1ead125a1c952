package monitor

import (
	"context"
	"sync"

	"github.com/axellelanca/linkforge/internal/metrics"
	"github.com/axellelanca/linkforge/internal/repository"
	"go.uber.org/zap"
)

// Reconciler raises link counters that fell behind their recorded click
// events, such as events loaded without going through Record. Counters are
// never lowered; a retried Record may leave them high.
type Reconciler struct {
	links   repository.LinkRepository
	clicks  repository.ClickRepository
	logger  *zap.Logger
	running sync.Mutex
}

func NewReconciler(links repository.LinkRepository, clicks repository.ClickRepository, logger *zap.Logger) *Reconciler {
	return &Reconciler{links: links, clicks: clicks, logger: logger.Named("reconciler")}
}

// Run is the cron job body.
func (r *Reconciler) Run() {
	if !r.running.TryLock() {
		return
	}
	defer r.running.Unlock()
	if _, err := r.Reconcile(context.Background()); err != nil {
		r.logger.Error("click reconciliation failed", zap.String("operation", "reconcile"), zap.Error(err))
	}
}

// Reconcile returns the number of links whose counter was raised.
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	// Events are counted before links are read. Record commits an event and its
	// increment together, so a click landing between the two reads is already
	// in the counter and never looks like drift.
	counts, err := r.clicks.CountsByCode(ctx)
	if err != nil {
		return 0, err
	}
	links, err := r.links.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	fixed := 0
	for _, link := range links {
		events := counts[link.Code]
		if events <= link.Clicks {
			continue
		}
		changed, err := r.links.RaiseClicks(ctx, link.Code, events)
		if err != nil {
			return fixed, err
		}
		if changed {
			fixed++
			r.logger.Info("click counter raised",
				zap.String("code", link.Code), zap.Int64("from", link.Clicks), zap.Int64("to", events))
		}
	}
	metrics.ReconciledLinks.Add(float64(fixed))
	return fixed, nil
}
