package ingestion

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Manager runs the aggregator on a fixed interval for the server binary.
// One run at a time; the ticker never overlaps runs because the loop is
// single-goroutine.
type Manager struct {
	agg      *Aggregator
	interval time.Duration
	wg       sync.WaitGroup
}

func NewManager(agg *Aggregator, interval time.Duration) *Manager {
	return &Manager{
		agg:      agg,
		interval: interval,
	}
}

func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.run(ctx)
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	slog.Info("starting periodic ingestion", "interval", m.interval)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Initial run
	m.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("periodic ingestion shutting down")
			return
		case <-ticker.C:
			m.runOnce(ctx)
		}
	}
}

func (m *Manager) runOnce(ctx context.Context) {
	if _, err := m.agg.Run(ctx); err != nil {
		// Fatal for the run, not for the process; the next interval
		// retries from scratch and dedup keeps it idempotent.
		slog.Error("ingestion run failed", "error", err)
	}
}

func (m *Manager) Stop() {
	m.wg.Wait()
	slog.Info("ingestion manager stopped")
}
