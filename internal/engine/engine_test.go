package engine

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/cryptofolio/portfolio-engine/internal/store"
)

// testNow is the fixed evaluation moment used across the engine tests.
var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(opts ...Option) *Engine {
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithRand(rand.New(rand.NewSource(1))),
	}
	return New(store.NewMemoryStore(), zap.NewNop(), append(base, opts...)...)
}
