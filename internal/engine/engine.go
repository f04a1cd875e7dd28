// Package engine implements the portfolio analytics calculators: rebalancing
// evaluation, the tax ledger and estimator, price alert evaluation, and the
// trade simulator. All operations are synchronous computations over the
// injected registry store; nothing here blocks on I/O.
package engine

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cryptofolio/portfolio-engine/internal/store"
)

var (
	// ErrRuleNotFound is returned when a client has no stored rebalancing rule.
	ErrRuleNotFound = errors.New("rebalancing rule not found")
	// ErrPriceUnavailable is returned when a simulation references an asset
	// with no current price.
	ErrPriceUnavailable = errors.New("price unavailable")
)

// Engine owns the four calculators and the registries behind them. One
// instance per deployment; construct it at process start and inject it into
// request handlers.
type Engine struct {
	store store.Store
	risk  *RiskTable
	log   *zap.Logger
	now   func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the time source. Tests use a fixed clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand replaces the random source backing price projections so tests can
// assert exact values from a known seed.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithRiskTable replaces the default volatility table.
func WithRiskTable(rt *RiskTable) Option {
	return func(e *Engine) { e.risk = rt }
}

// New creates an Engine over the given store.
func New(s store.Store, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store: s,
		risk:  DefaultRiskTable(),
		log:   log,
		now:   time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// randFloat returns a uniform float in [0,1). math/rand.Rand is not safe for
// concurrent use, so access is serialized.
func (e *Engine) randFloat() float64 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Float64()
}
