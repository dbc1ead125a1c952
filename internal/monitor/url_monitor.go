package monitor

import (
	"context"
	"sync"

	"github.com/axellelanca/linkforge/internal/metrics"
	"github.com/axellelanca/linkforge/internal/repository"
	"go.uber.org/zap"
)

// Prober answers whether a long URL currently responds.
type Prober interface {
	Reachable(ctx context.Context, rawURL string) bool
}

// URLMonitor checks every registered long URL and logs when one changes
// between accessible and inaccessible.
type URLMonitor struct {
	links  repository.LinkRepository
	prober Prober
	logger *zap.Logger

	mu          sync.Mutex
	knownStates map[string]bool // code -> accessible
	running     sync.Mutex
}

func NewURLMonitor(links repository.LinkRepository, prober Prober, logger *zap.Logger) *URLMonitor {
	return &URLMonitor{
		links:       links,
		prober:      prober,
		logger:      logger.Named("monitor"),
		knownStates: make(map[string]bool),
	}
}

// Run performs one pass. It is the cron job body; overlapping runs are skipped.
func (m *URLMonitor) Run() {
	if !m.running.TryLock() {
		m.logger.Warn("previous url check still running, skipping")
		return
	}
	defer m.running.Unlock()
	m.CheckURLs(context.Background())
}

// CheckURLs probes all links once and returns the number of state changes seen.
func (m *URLMonitor) CheckURLs(ctx context.Context) int {
	m.logger.Debug("starting url status verification")

	links, err := m.links.ListAll(ctx)
	if err != nil {
		m.logger.Error("failed to list links for monitoring", zap.String("operation", "monitor.list"), zap.Error(err))
		return 0
	}

	changes := 0
	accessible, inaccessible := 0, 0
	seen := make(map[string]struct{}, len(links))
	for _, link := range links {
		current := m.prober.Reachable(ctx, link.OriginalURL)
		seen[link.Code] = struct{}{}
		if current {
			accessible++
		} else {
			inaccessible++
		}

		m.mu.Lock()
		previous, exists := m.knownStates[link.Code]
		m.knownStates[link.Code] = current
		m.mu.Unlock()

		if !exists {
			m.logger.Debug("initial url state",
				zap.String("code", link.Code), zap.String("url", link.OriginalURL), zap.String("state", formatState(current)))
			continue
		}
		if current != previous {
			changes++
			m.logger.Warn("url state changed",
				zap.String("code", link.Code),
				zap.String("url", link.OriginalURL),
				zap.String("from", formatState(previous)),
				zap.String("to", formatState(current)))
		}
	}

	// Forget deleted links.
	m.mu.Lock()
	for code := range m.knownStates {
		if _, ok := seen[code]; !ok {
			delete(m.knownStates, code)
		}
	}
	m.mu.Unlock()

	metrics.MonitoredURLs.WithLabelValues("accessible").Set(float64(accessible))
	metrics.MonitoredURLs.WithLabelValues("inaccessible").Set(float64(inaccessible))
	m.logger.Debug("url status verification completed", zap.Int("links", len(links)), zap.Int("changes", changes))
	return changes
}

// State returns the last observed state of code.
func (m *URLMonitor) State(code string) (accessible, known bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	accessible, known = m.knownStates[code]
	return accessible, known
}

func formatState(accessible bool) string {
	if accessible {
		return "ACCESSIBLE"
	}
	return "INACCESSIBLE"
}
