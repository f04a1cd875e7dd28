package store

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptofolio/portfolio-engine/internal/models"
)

func TestMemoryStore_RuleRoundTrip(t *testing.T) {
	s := NewMemoryStore()

	_, ok := s.Rule("client-1")
	assert.False(t, ok)

	rule := models.RebalancingRule{
		TargetAllocation:   map[string]decimal.Decimal{"BTC": decimal.NewFromInt(100)},
		ThresholdDeviation: decimal.NewFromInt(5),
	}
	require.NoError(t, s.SetRule("client-1", rule))

	stored, ok := s.Rule("client-1")
	require.True(t, ok)
	assert.True(t, stored.TargetAllocation["BTC"].Equal(decimal.NewFromInt(100)))

	// Overwrite replaces the rule wholesale.
	replacement := models.RebalancingRule{
		TargetAllocation: map[string]decimal.Decimal{"ETH": decimal.NewFromInt(100)},
	}
	require.NoError(t, s.SetRule("client-1", replacement))
	stored, _ = s.Rule("client-1")
	_, hasBTC := stored.TargetAllocation["BTC"]
	assert.False(t, hasBTC)
}

func TestMemoryStore_ConcurrentLedgerAppends(t *testing.T) {
	s := NewMemoryStore()

	const appends = 50
	var wg sync.WaitGroup
	for i := 0; i < appends; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			event := models.TaxEvent{
				Date:     time.Now(),
				Kind:     models.TaxEventSell,
				GainLoss: decimal.NewFromInt(1),
			}
			if err := s.AppendTaxEvent("client-1", event); err != nil {
				t.Errorf("append failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// No lost updates under parallel appends.
	assert.Len(t, s.TaxEvents("client-1"), appends)
}

func TestMemoryStore_TaxEventsReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.AppendTaxEvent("client-1", models.TaxEvent{Kind: models.TaxEventBuy}))

	events := s.TaxEvents("client-1")
	events[0].Kind = models.TaxEventSell

	assert.Equal(t, models.TaxEventBuy, s.TaxEvents("client-1")[0].Kind)
}

func TestMemoryStore_MarkAlertTriggeredExactlyOnce(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.SaveAlert(models.PriceAlert{ID: "alert-1", Active: true}))

	const attempts = 20
	results := make(chan bool, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.MarkAlertTriggered("alert-1", time.Now())
		}()
	}
	wg.Wait()
	close(results)

	// Exactly one goroutine wins; no double fire.
	fired := 0
	for won := range results {
		if won {
			fired++
		}
	}
	assert.Equal(t, 1, fired)

	alert, ok := s.Alert("alert-1")
	require.True(t, ok)
	assert.False(t, alert.Active)
	assert.NotNil(t, alert.TriggeredAt)
}

func TestMemoryStore_MarkAlertTriggeredUnknown(t *testing.T) {
	s := NewMemoryStore()
	assert.False(t, s.MarkAlertTriggered("nope", time.Now()))
}

func TestMemoryStore_DeactivateAlert(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.SaveAlert(models.PriceAlert{ID: "alert-1", Active: true}))

	assert.True(t, s.DeactivateAlert("alert-1"))
	assert.True(t, s.DeactivateAlert("alert-1")) // idempotent
	assert.False(t, s.DeactivateAlert("missing"))

	assert.Empty(t, s.ActiveAlerts())
	assert.Len(t, s.Alerts(), 1)
}

func TestClientLocker_IndependentClients(t *testing.T) {
	locker := NewClientLocker()

	locker.Lock("client-a")
	done := make(chan struct{})
	go func() {
		// A different client must not block on client-a's lock.
		locker.Lock("client-b")
		locker.Unlock("client-b")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for a different client blocked")
	}
	locker.Unlock("client-a")
}
