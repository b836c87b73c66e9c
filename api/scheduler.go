/*
scheduler.go - Background ranking reconciler

PURPOSE:
  Periodically rebuilds the ranking from the users collection and saves it
  when the persisted one has drifted. Drift happens when a ranking save
  fails after a mutation (the mutation itself still succeeds), when the
  process crashes between saves, or when the files are edited by hand.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on start
  - Each pass is one Engine.ReconcileRanking call, so it serialises with
    mutations and never races them

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 minute)
  - Enabled: Whether the reconciler is active (default: true)

USAGE:
  reconciler := NewRankingReconciler(engine, log)
  reconciler.Start()
  // ... later
  reconciler.Stop()

SEE ALSO:
  - ledger/engine.go: ReconcileRanking
  - ledger/ranking.go: RankingMatches, RebuildRanking
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/points-ledger/ledger"
)

// RankingReconciler repairs a stale ranking in the background.
type RankingReconciler struct {
	Engine        *ledger.Engine
	Log           logrus.FieldLogger
	CheckInterval time.Duration
	Enabled       bool

	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	lastRun time.Time
	repairs int
}

// NewRankingReconciler creates a new reconciler.
func NewRankingReconciler(engine *ledger.Engine, log logrus.FieldLogger) *RankingReconciler {
	if log == nil {
		log = engine.Log
	}
	return &RankingReconciler{
		Engine:        engine,
		Log:           log.WithField("component", "ranking-reconciler"),
		CheckInterval: time.Minute,
		Enabled:       true,
	}
}

// Start begins the reconciler. It is a no-op when disabled, when the
// interval is not positive or when already running.
func (rr *RankingReconciler) Start() {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if !rr.Enabled || rr.CheckInterval <= 0 {
		rr.Log.Info("Disabled, not starting")
		return
	}
	if rr.ticker != nil {
		return
	}

	rr.ticker = time.NewTicker(rr.CheckInterval)
	rr.stop = make(chan struct{})
	rr.wg.Add(1)

	go rr.run(rr.ticker, rr.stop)

	rr.Log.WithField("interval", rr.CheckInterval.String()).Info("Started")
}

// Stop stops the reconciler and waits for an in-flight pass to finish.
func (rr *RankingReconciler) Stop() {
	rr.mu.Lock()
	if rr.ticker == nil {
		rr.mu.Unlock()
		return
	}
	rr.ticker.Stop()
	close(rr.stop)
	rr.ticker = nil
	rr.mu.Unlock()

	rr.wg.Wait()
	rr.Log.Info("Stopped")
}

func (rr *RankingReconciler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rr.wg.Done()

	// Run immediately on start
	rr.RunNow(context.Background())

	for {
		select {
		case <-ticker.C:
			rr.RunNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow performs one reconciliation pass and reports whether the ranking
// was rewritten.
func (rr *RankingReconciler) RunNow(ctx context.Context) bool {
	changed, err := rr.Engine.ReconcileRanking(ctx)

	rr.mu.Lock()
	rr.lastRun = time.Now()
	if changed {
		rr.repairs++
	}
	rr.mu.Unlock()

	entry := rr.Log.WithField("next_run", rr.GetNextRunTime().Format(time.RFC3339))
	if err != nil {
		entry.WithError(err).Error("Ranking reconciliation failed")
		return false
	}
	if changed {
		entry.Warn("Ranking was stale, rebuilt from users")
	} else {
		entry.Debug("Ranking up to date")
	}
	return changed
}

// Repairs returns how many passes rewrote the ranking.
func (rr *RankingReconciler) Repairs() int {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return rr.repairs
}

// GetNextRunTime returns when the next scheduled check will occur.
func (rr *RankingReconciler) GetNextRunTime() time.Time {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if rr.lastRun.IsZero() {
		return time.Now()
	}
	return rr.lastRun.Add(rr.CheckInterval)
}
