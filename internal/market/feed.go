// Package market provides a simulated price feed. The engine never fetches
// prices itself; this feed stands in for the external market data collaborator
// so the service is runnable end to end.
package market

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Update is one simulated price movement.
type Update struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	ChangePercent float64         `json:"change_percent"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Feed holds the current simulated prices and pushes movements to
// subscribers. Each tick moves one random symbol by -2% to +2%.
type Feed struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal

	subMu sync.Mutex
	subs  map[chan Update]struct{}

	symbols  []string
	rng      *rand.Rand
	interval time.Duration
	log      *zap.Logger
}

// DefaultSeedPrices returns starting prices for the simulated majors.
func DefaultSeedPrices() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"BTC":  decimal.NewFromInt(65000),
		"ETH":  decimal.NewFromInt(3400),
		"SOL":  decimal.NewFromInt(150),
		"BNB":  decimal.NewFromInt(580),
		"XRP":  decimal.NewFromFloat(0.52),
		"ADA":  decimal.NewFromFloat(0.45),
		"DOGE": decimal.NewFromFloat(0.12),
		"USDT": decimal.NewFromInt(1),
	}
}

// NewFeed creates a feed over the given seed prices.
func NewFeed(seed map[string]decimal.Decimal, interval time.Duration, log *zap.Logger) *Feed {
	prices := make(map[string]decimal.Decimal, len(seed))
	symbols := make([]string, 0, len(seed))
	for symbol, price := range seed {
		prices[symbol] = price
		symbols = append(symbols, symbol)
	}
	return &Feed{
		prices:   prices,
		subs:     make(map[chan Update]struct{}),
		symbols:  symbols,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		interval: interval,
		log:      log,
	}
}

// Snapshot returns a copy of the current prices.
func (f *Feed) Snapshot() map[string]decimal.Decimal {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[string]decimal.Decimal, len(f.prices))
	for symbol, price := range f.prices {
		out[symbol] = price
	}
	return out
}

// Tick moves one random symbol by -2% to +2% and returns the update.
func (f *Feed) Tick() Update {
	f.mu.Lock()
	symbol := f.symbols[f.rng.Intn(len(f.symbols))]
	changePercent := (f.rng.Float64() - 0.5) * 4
	price := f.prices[symbol].Mul(decimal.NewFromFloat(1 + changePercent/100))
	f.prices[symbol] = price
	f.mu.Unlock()

	return Update{
		Symbol:        symbol,
		Price:         price,
		ChangePercent: changePercent,
		Timestamp:     time.Now(),
	}
}

// Run ticks the feed until the context is canceled, broadcasting each
// movement to subscribers.
func (f *Feed) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.log.Info("market feed stopped")
			return
		case <-ticker.C:
			update := f.Tick()
			f.log.Debug("price update",
				zap.String("symbol", update.Symbol),
				zap.String("price", update.Price.StringFixed(2)),
				zap.Float64("change_pct", update.ChangePercent))
			f.broadcast(update)
		}
	}
}

// Subscribe registers a channel that receives every price movement. Slow
// subscribers drop updates rather than block the feed.
func (f *Feed) Subscribe() chan Update {
	ch := make(chan Update, 16)
	f.subMu.Lock()
	f.subs[ch] = struct{}{}
	f.subMu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel.
func (f *Feed) Unsubscribe(ch chan Update) {
	f.subMu.Lock()
	delete(f.subs, ch)
	f.subMu.Unlock()
}

func (f *Feed) broadcast(update Update) {
	f.subMu.Lock()
	defer f.subMu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- update:
		default:
		}
	}
}
