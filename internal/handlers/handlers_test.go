package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cryptofolio/portfolio-engine/internal/engine"
	"github.com/cryptofolio/portfolio-engine/internal/market"
	"github.com/cryptofolio/portfolio-engine/internal/models"
	"github.com/cryptofolio/portfolio-engine/internal/store"
)

type testServer struct {
	router *gin.Engine
	sims   *SimProcessor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	eng := engine.New(store.NewMemoryStore(), log)
	feed := market.NewFeed(market.DefaultSeedPrices(), time.Second, log)
	watcher := NewAlertWatcher(eng, feed, time.Second, log)

	sims := NewSimProcessor(2, eng, log)
	sims.Start()
	t.Cleanup(sims.Stop)

	router := gin.New()
	New(eng, nil, feed, watcher, sims, log).RegisterRoutes(router)
	return &testServer{router: router, sims: sims}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRebalanceOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	rule := gin.H{
		"target_allocation":   gin.H{"BTC": 50, "ETH": 50},
		"threshold_deviation": 5,
		"frequency":           "weekly",
	}
	w := ts.do(t, http.MethodPut, "/api/clients/client-1/rebalance/rule", rule)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/clients/client-1/rebalance/evaluate", gin.H{
		"values": gin.H{"BTC": 700, "ETH": 300},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result models.RebalanceResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.NeedsRebalancing)
	require.Len(t, result.Actions, 2)
	assert.Equal(t, models.SideSell, result.Actions[0].Action)
	assert.True(t, result.Actions[0].Amount.Equal(decimal.NewFromInt(200)))
}

func TestRebalanceOverHTTP_RuleNotFound(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/clients/nobody/rebalance/evaluate", gin.H{
		"values": gin.H{"BTC": 100},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaxOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	event := gin.H{
		"date":         "2024-03-10T00:00:00Z",
		"kind":         "sell",
		"from_symbol":  "BTC",
		"to_symbol":    "USDT",
		"quantity":     0.5,
		"cost_basis":   1000,
		"market_value": 1500,
	}
	w := ts.do(t, http.MethodPost, "/api/clients/client-1/tax/events", event)
	require.Equal(t, http.StatusCreated, w.Code)

	var recorded models.TaxEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recorded))
	assert.True(t, recorded.GainLoss.Equal(decimal.NewFromInt(500)))

	w = ts.do(t, http.MethodGet, "/api/clients/client-1/tax/liability?year=2024", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var liability models.TaxLiability
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &liability))
	assert.True(t, liability.EstimatedTax.Equal(decimal.NewFromInt(100)))

	w = ts.do(t, http.MethodGet, "/api/clients/client-1/tax/report?year=2024", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestTaxOverHTTP_InvalidYear(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/clients/client-1/tax/liability?year=banana", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAlertsOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/alerts", gin.H{
		"client_id":    "client-1",
		"symbol":       "BTC",
		"condition":    "above",
		"target_value": 50000,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.PriceAlert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Active)

	// Explicit prices fire the alert once.
	w = ts.do(t, http.MethodPost, "/api/alerts/evaluate", gin.H{
		"prices": gin.H{"BTC": 51000},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var eval struct {
		Triggered []models.PriceAlert `json:"triggered"`
		Count     int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &eval))
	require.Equal(t, 1, eval.Count)
	assert.Equal(t, created.ID, eval.Triggered[0].ID)

	// A second evaluation returns nothing.
	w = ts.do(t, http.MethodPost, "/api/alerts/evaluate", gin.H{
		"prices": gin.H{"BTC": 60000},
	})
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &eval))
	assert.Equal(t, 0, eval.Count)

	w = ts.do(t, http.MethodGet, "/api/alerts", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestDeactivateAlertOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/alerts", gin.H{
		"symbol":       "ETH",
		"condition":    "below",
		"target_value": 3000,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.PriceAlert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/alerts/%s", created.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/alerts/not-a-real-id", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSimulateOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/simulations", gin.H{
		"client_id":   "client-1",
		"from_symbol": "ETH",
		"to_symbol":   "BTC",
		"amount":      10,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var sim models.TradeSimulation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sim))
	assert.True(t, sim.Fees.TotalCost.Equal(decimal.NewFromFloat(0.03)))
	assert.Len(t, sim.Projections, 3)
}

func TestSimulateOverHTTP_PriceUnavailable(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/simulations", gin.H{
		"from_symbol": "ETH",
		"to_symbol":   "XMR",
		"amount":      10,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
