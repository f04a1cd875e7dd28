package handlers

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cryptofolio/portfolio-engine/internal/engine"
	"github.com/cryptofolio/portfolio-engine/internal/store"
)

func testPrices() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"BTC": decimal.NewFromInt(65000),
		"ETH": decimal.NewFromInt(3400),
	}
}

func TestSimProcessor_Submit(t *testing.T) {
	eng := engine.New(store.NewMemoryStore(), zap.NewNop())
	sp := NewSimProcessor(1, eng, zap.NewNop())
	sp.Start()
	defer sp.Stop()

	result := sp.Submit(SimRequest{
		ClientID:   "client-1",
		FromSymbol: "ETH",
		ToSymbol:   "BTC",
		Amount:     decimal.NewFromInt(10),
	}, testPrices())

	require.NoError(t, result.Err)
	assert.True(t, result.Simulation.EffectiveAmount.Equal(decimal.NewFromFloat(9.97)))
}

func TestSimProcessor_PriceUnavailable(t *testing.T) {
	eng := engine.New(store.NewMemoryStore(), zap.NewNop())
	sp := NewSimProcessor(1, eng, zap.NewNop())
	sp.Start()
	defer sp.Stop()

	result := sp.Submit(SimRequest{
		FromSymbol: "ETH",
		ToSymbol:   "XMR",
		Amount:     decimal.NewFromInt(10),
	}, testPrices())

	assert.ErrorIs(t, result.Err, engine.ErrPriceUnavailable)
}

func TestSimProcessor_ConcurrentSubmissions(t *testing.T) {
	eng := engine.New(store.NewMemoryStore(), zap.NewNop())
	sp := NewSimProcessor(5, eng, zap.NewNop())
	sp.Start()
	defer sp.Stop()

	const submissions = 20
	results := make(chan SimResult, submissions)

	for i := 0; i < submissions; i++ {
		go func() {
			results <- sp.Submit(SimRequest{
				ClientID:   "client-1",
				FromSymbol: "ETH",
				ToSymbol:   "BTC",
				Amount:     decimal.NewFromInt(1),
			}, testPrices())
		}()
	}

	for i := 0; i < submissions; i++ {
		result := <-results
		require.NoError(t, result.Err)
		assert.True(t, result.Simulation.Fees.TotalCost.Equal(decimal.NewFromFloat(0.003)))
	}
}
