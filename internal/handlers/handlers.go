// Package handlers maps the analytics engine's operations onto the HTTP
// surface and runs the background pieces around it (alert watcher,
// simulation worker pool, websocket stream).
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cryptofolio/portfolio-engine/internal/db"
	"github.com/cryptofolio/portfolio-engine/internal/engine"
	"github.com/cryptofolio/portfolio-engine/internal/market"
	"github.com/cryptofolio/portfolio-engine/internal/models"
)

// Handler bundles the engine with its collaborators for the HTTP layer.
type Handler struct {
	engine   *engine.Engine
	holdings *db.HoldingsStore // nil when the holdings database is disabled
	feed     *market.Feed
	watcher  *AlertWatcher
	sims     *SimProcessor
	log      *zap.Logger
}

// New wires a Handler. holdings may be nil; rebalance evaluation then
// requires explicit values in the request body.
func New(eng *engine.Engine, holdings *db.HoldingsStore, feed *market.Feed, watcher *AlertWatcher, sims *SimProcessor, log *zap.Logger) *Handler {
	return &Handler{
		engine:   eng,
		holdings: holdings,
		feed:     feed,
		watcher:  watcher,
		sims:     sims,
		log:      log,
	}
}

// RegisterRoutes attaches all endpoints to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.PUT("/clients/:clientId/rebalance/rule", h.SetRebalancingRule)
		api.POST("/clients/:clientId/rebalance/evaluate", h.EvaluateRebalance)

		api.POST("/clients/:clientId/tax/events", h.RecordTaxEvent)
		api.GET("/clients/:clientId/tax/liability", h.GetTaxLiability)
		api.GET("/clients/:clientId/tax/report", h.GetTaxReport)

		api.POST("/alerts", h.CreateAlert)
		api.GET("/alerts", h.ListAlerts)
		api.POST("/alerts/evaluate", h.EvaluateAlerts)
		api.DELETE("/alerts/:alertId", h.DeactivateAlert)

		api.POST("/simulations", h.Simulate)
	}

	router.GET("/ws/prices", h.HandleWebSocket)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
}

// SetRebalancingRule handles PUT /api/clients/:clientId/rebalance/rule
func (h *Handler) SetRebalancingRule(c *gin.Context) {
	var rule models.RebalancingRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.engine.SetRebalancingRule(c.Param("clientId"), rule); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store rule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Rebalancing rule saved"})
}

type evaluateRebalanceRequest struct {
	Values map[string]decimal.Decimal `json:"values"`
}

// EvaluateRebalance handles POST /api/clients/:clientId/rebalance/evaluate
//
// The caller either supplies per-asset monetary values directly, or omits
// them and the client's stored holdings are priced with the live feed.
func (h *Handler) EvaluateRebalance(c *gin.Context) {
	clientID := c.Param("clientId")

	var req evaluateRebalanceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	values := req.Values
	if len(values) == 0 {
		loaded, err := h.portfolioValues(c, clientID)
		if err != nil {
			return // response already written
		}
		values = loaded
	}

	result, err := h.engine.EvaluateRebalance(clientID, values)
	if errors.Is(err, engine.ErrRuleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No rebalancing rule for client"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Evaluation failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// portfolioValues loads the client's holdings and prices them with the feed
// snapshot. Holdings without a current price are skipped.
func (h *Handler) portfolioValues(c *gin.Context, clientID string) (map[string]decimal.Decimal, error) {
	if h.holdings == nil {
		err := errors.New("holdings store disabled")
		c.JSON(http.StatusBadRequest, gin.H{"error": "No values supplied and holdings store is disabled"})
		return nil, err
	}

	holdings, err := h.holdings.Holdings(c.Request.Context(), clientID)
	if err != nil {
		h.log.Error("load holdings", zap.String("client_id", clientID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load holdings"})
		return nil, err
	}

	prices := h.feed.Snapshot()
	values := make(map[string]decimal.Decimal, len(holdings))
	for _, holding := range holdings {
		price, ok := prices[holding.Symbol]
		if !ok {
			continue
		}
		values[holding.Symbol] = holding.Quantity.Mul(price)
	}
	return values, nil
}

// RecordTaxEvent handles POST /api/clients/:clientId/tax/events
func (h *Handler) RecordTaxEvent(c *gin.Context) {
	var event models.TaxEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recorded, err := h.engine.RecordTaxEvent(c.Param("clientId"), event)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record event"})
		return
	}

	c.JSON(http.StatusCreated, recorded)
}

// GetTaxLiability handles GET /api/clients/:clientId/tax/liability?year=2025
func (h *Handler) GetTaxLiability(c *gin.Context) {
	year, ok := h.yearParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.engine.ComputeTaxLiability(c.Param("clientId"), year))
}

// GetTaxReport handles GET /api/clients/:clientId/tax/report?year=2025
func (h *Handler) GetTaxReport(c *gin.Context) {
	year, ok := h.yearParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.engine.GenerateTaxReport(c.Param("clientId"), year))
}

func (h *Handler) yearParam(c *gin.Context) (int, bool) {
	raw := c.Query("year")
	if raw == "" {
		return time.Now().Year(), true
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
		return 0, false
	}
	return year, true
}

// CreateAlert handles POST /api/alerts
func (h *Handler) CreateAlert(c *gin.Context) {
	var alert models.PriceAlert
	if err := c.ShouldBindJSON(&alert); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.engine.CreatePriceAlert(alert)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create alert"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListAlerts handles GET /api/alerts
func (h *Handler) ListAlerts(c *gin.Context) {
	alerts := h.engine.Alerts()
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

type evaluateAlertsRequest struct {
	Prices map[string]decimal.Decimal `json:"prices"`
}

// EvaluateAlerts handles POST /api/alerts/evaluate
//
// Evaluates against caller-supplied prices, or the live feed snapshot when
// the body is empty. Returns only the alerts fired by this call.
func (h *Handler) EvaluateAlerts(c *gin.Context) {
	var req evaluateAlertsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	prices := req.Prices
	if len(prices) == 0 {
		prices = h.feed.Snapshot()
	}

	triggered := h.engine.EvaluateAlerts(prices)
	c.JSON(http.StatusOK, gin.H{"triggered": triggered, "count": len(triggered)})
}

// DeactivateAlert handles DELETE /api/alerts/:alertId
func (h *Handler) DeactivateAlert(c *gin.Context) {
	if !h.engine.DeactivateAlert(c.Param("alertId")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Alert deactivated"})
}

// Simulate handles POST /api/simulations
func (h *Handler) Simulate(c *gin.Context) {
	var req SimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.sims.Submit(req, h.feed.Snapshot())
	if errors.Is(result.Err, engine.ErrPriceUnavailable) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": result.Err.Error()})
		return
	}
	if result.Err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Simulation failed"})
		return
	}

	c.JSON(http.StatusOK, result.Simulation)
}
