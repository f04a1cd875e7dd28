package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cryptofolio/portfolio-engine/internal/models"
)

// CreatePriceAlert stores a new single-shot alert and returns it with a
// generated id and creation timestamp.
func (e *Engine) CreatePriceAlert(alert models.PriceAlert) (models.PriceAlert, error) {
	alert.ID = uuid.NewString()
	alert.Active = true
	alert.CreatedAt = e.now()
	alert.TriggeredAt = nil

	if err := e.store.SaveAlert(alert); err != nil {
		e.log.Error("save price alert", zap.String("client_id", alert.ClientID), zap.Error(err))
		return models.PriceAlert{}, fmt.Errorf("create price alert: %w", err)
	}
	return alert, nil
}

// EvaluateAlerts checks every active alert against the supplied prices and
// returns the alerts that fired on this call only. Alerts whose asset has no
// current price are skipped without error so the rest can still be
// evaluated. A fired alert is permanently inactive; the mark is a
// check-and-set, so parallel evaluations cannot fire the same alert twice.
func (e *Engine) EvaluateAlerts(prices map[string]decimal.Decimal) []models.PriceAlert {
	triggered := make([]models.PriceAlert, 0)
	now := e.now()

	for _, alert := range e.store.ActiveAlerts() {
		price, ok := prices[alert.Symbol]
		if !ok {
			continue
		}
		if !conditionMet(alert, price) {
			continue
		}
		if !e.store.MarkAlertTriggered(alert.ID, now) {
			continue
		}
		alert.Active = false
		at := now
		alert.TriggeredAt = &at
		triggered = append(triggered, alert)
	}
	return triggered
}

func conditionMet(alert models.PriceAlert, price decimal.Decimal) bool {
	switch alert.Condition {
	case models.AlertAbove:
		return price.GreaterThanOrEqual(alert.TargetValue)
	case models.AlertBelow:
		return price.LessThanOrEqual(alert.TargetValue)
	case models.AlertPercentChange:
		if alert.ReferenceValue == nil || alert.ReferenceValue.IsZero() {
			return false
		}
		move := price.Sub(*alert.ReferenceValue).Div(*alert.ReferenceValue).Mul(hundred).Abs()
		return move.GreaterThanOrEqual(alert.TargetValue)
	}
	return false
}

// DeactivateAlert turns an alert off before it fires and reports whether the
// alert existed. Deactivating a fired or already-inactive alert is a no-op.
func (e *Engine) DeactivateAlert(id string) bool {
	return e.store.DeactivateAlert(id)
}

// Alerts returns every registered alert, fired or not.
func (e *Engine) Alerts() []models.PriceAlert {
	return e.store.Alerts()
}
