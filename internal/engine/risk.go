package engine

import (
	"github.com/cryptofolio/portfolio-engine/internal/models"
)

// defaultVolatility is assumed for symbols missing from the table.
const defaultVolatility = 0.05

// RiskTable maps asset symbols to daily volatility coefficients in (0,1).
// Configuration data; never mutated at runtime.
type RiskTable struct {
	volatility map[string]float64
}

// DefaultRiskTable returns the built-in coefficients for the majors.
func DefaultRiskTable() *RiskTable {
	return &RiskTable{volatility: map[string]float64{
		"BTC":  0.045,
		"ETH":  0.055,
		"BNB":  0.050,
		"SOL":  0.080,
		"XRP":  0.065,
		"ADA":  0.070,
		"DOGE": 0.095,
		"DOT":  0.075,
		"USDT": 0.002,
		"USDC": 0.002,
	}}
}

// NewRiskTable builds a table from explicit coefficients.
func NewRiskTable(volatility map[string]float64) *RiskTable {
	return &RiskTable{volatility: volatility}
}

// Volatility returns the coefficient for a symbol, or the mid-range default
// for unknown symbols.
func (rt *RiskTable) Volatility(symbol string) float64 {
	if v, ok := rt.volatility[symbol]; ok {
		return v
	}
	return defaultVolatility
}

// Bucket derives the qualitative risk bucket for a symbol.
func (rt *RiskTable) Bucket(symbol string) models.RiskBucket {
	v := rt.Volatility(symbol)
	switch {
	case v < 0.03:
		return models.RiskLow
	case v < 0.07:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}
