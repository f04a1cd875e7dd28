package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cryptofolio/portfolio-engine/internal/models"
)

// taxRate is the flat estimator rate over net realized gains. Not bracketed,
// not netted against prior-year carryforward.
var taxRate = decimal.NewFromFloat(0.20)

// RecordTaxEvent derives the event's gain/loss from market value and cost
// basis, then appends it to the client's ledger. The ledger is created on
// first use. Events are append-only; nothing is ever recomputed.
func (e *Engine) RecordTaxEvent(clientID string, event models.TaxEvent) (models.TaxEvent, error) {
	event.GainLoss = event.MarketValue.Sub(event.CostBasis)
	if event.Date.IsZero() {
		event.Date = e.now()
	}
	if err := e.store.AppendTaxEvent(clientID, event); err != nil {
		e.log.Error("append tax event", zap.String("client_id", clientID), zap.Error(err))
		return models.TaxEvent{}, fmt.Errorf("record tax event: %w", err)
	}
	return event, nil
}

// ComputeTaxLiability filters the client's ledger to the given calendar year
// (by the date's year component, not a rolling window) and estimates the
// liability as a flat 20% of net gains, floored at zero. An empty or missing
// ledger yields a zero liability, not an error.
func (e *Engine) ComputeTaxLiability(clientID string, year int) models.TaxLiability {
	liability := models.TaxLiability{
		Year:        year,
		TotalGains:  decimal.Zero,
		TotalLosses: decimal.Zero,
		Events:      make([]models.TaxEvent, 0),
	}

	for _, event := range e.store.TaxEvents(clientID) {
		if event.Date.Year() != year {
			continue
		}
		liability.Events = append(liability.Events, event)
		switch {
		case event.GainLoss.IsPositive():
			liability.TotalGains = liability.TotalGains.Add(event.GainLoss)
		case event.GainLoss.IsNegative():
			liability.TotalLosses = liability.TotalLosses.Add(event.GainLoss.Abs())
		}
	}

	liability.NetGainLoss = liability.TotalGains.Sub(liability.TotalLosses)
	tax := liability.NetGainLoss.Mul(taxRate)
	if tax.IsNegative() {
		tax = decimal.Zero
	}
	liability.EstimatedTax = tax
	return liability
}

// GenerateTaxReport wraps ComputeTaxLiability and splits the year's gains
// into short-term and long-term buckets. An event counts as short-term when
// its date falls within one year of now - a holding-period proxy relative to
// the evaluation moment, not to when the position was opened.
func (e *Engine) GenerateTaxReport(clientID string, year int) models.TaxReport {
	liability := e.ComputeTaxLiability(clientID, year)

	breakdown := models.TaxBreakdown{
		ShortTermGains:   decimal.Zero,
		LongTermGains:    decimal.Zero,
		DeductibleLosses: liability.TotalLosses,
	}
	cutoff := e.now().AddDate(-1, 0, 0)
	for _, event := range liability.Events {
		if !event.GainLoss.IsPositive() {
			continue
		}
		if event.Date.After(cutoff) {
			breakdown.ShortTermGains = breakdown.ShortTermGains.Add(event.GainLoss)
		} else {
			breakdown.LongTermGains = breakdown.LongTermGains.Add(event.GainLoss)
		}
	}

	tips := make([]string, 0)
	if liability.TotalLosses.IsPositive() {
		tips = append(tips, "Consider tax-loss harvesting to offset realized gains")
	}
	if breakdown.ShortTermGains.IsPositive() {
		tips = append(tips, "Holding positions for over a year moves gains into the long-term bucket")
	}
	if liability.EstimatedTax.IsPositive() {
		tips = append(tips, "Set aside funds for the estimated liability before the filing deadline")
	}

	return models.TaxReport{
		Liability: liability,
		Breakdown: breakdown,
		Tips:      tips,
	}
}
