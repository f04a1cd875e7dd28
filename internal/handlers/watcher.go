package handlers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cryptofolio/portfolio-engine/internal/engine"
	"github.com/cryptofolio/portfolio-engine/internal/market"
	"github.com/cryptofolio/portfolio-engine/internal/models"
)

// AlertWatcher periodically evaluates the active alerts against the market
// feed snapshot and broadcasts the alerts that fire.
type AlertWatcher struct {
	engine   *engine.Engine
	feed     *market.Feed
	interval time.Duration
	log      *zap.Logger

	subMu sync.Mutex
	subs  map[chan models.PriceAlert]struct{}
}

// NewAlertWatcher creates a watcher over the given feed.
func NewAlertWatcher(eng *engine.Engine, feed *market.Feed, interval time.Duration, log *zap.Logger) *AlertWatcher {
	return &AlertWatcher{
		engine:   eng,
		feed:     feed,
		interval: interval,
		log:      log,
		subs:     make(map[chan models.PriceAlert]struct{}),
	}
}

// Run sweeps on a ticker until the context is canceled.
func (w *AlertWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("alert watcher stopped")
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

// sweep evaluates all active alerts against the current snapshot once.
func (w *AlertWatcher) sweep() []models.PriceAlert {
	triggered := w.engine.EvaluateAlerts(w.feed.Snapshot())
	for _, alert := range triggered {
		w.log.Info("price alert fired",
			zap.String("alert_id", alert.ID),
			zap.String("client_id", alert.ClientID),
			zap.String("symbol", alert.Symbol),
			zap.String("condition", string(alert.Condition)))
		w.broadcast(alert)
	}
	return triggered
}

// Subscribe registers a channel receiving fired alerts. Slow subscribers
// drop alerts rather than block the sweep.
func (w *AlertWatcher) Subscribe() chan models.PriceAlert {
	ch := make(chan models.PriceAlert, 16)
	w.subMu.Lock()
	w.subs[ch] = struct{}{}
	w.subMu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel.
func (w *AlertWatcher) Unsubscribe(ch chan models.PriceAlert) {
	w.subMu.Lock()
	delete(w.subs, ch)
	w.subMu.Unlock()
}

func (w *AlertWatcher) broadcast(alert models.PriceAlert) {
	w.subMu.Lock()
	defer w.subMu.Unlock()
	for ch := range w.subs {
		select {
		case ch <- alert:
		default:
		}
	}
}
