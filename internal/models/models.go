package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RebalanceFrequency describes how often a client wants their portfolio
// rebalanced. It is descriptive metadata only - the engine never schedules
// anything itself.
type RebalanceFrequency string

const (
	FrequencyDaily   RebalanceFrequency = "daily"
	FrequencyWeekly  RebalanceFrequency = "weekly"
	FrequencyMonthly RebalanceFrequency = "monthly"
)

// RebalancingRule holds a client's target allocation and the deviation
// threshold beyond which an asset is considered out of balance. Target
// percentages conceptually sum to 100 but this is not enforced.
type RebalancingRule struct {
	TargetAllocation   map[string]decimal.Decimal `json:"target_allocation" binding:"required"`
	ThresholdDeviation decimal.Decimal            `json:"threshold_deviation"`
	Frequency          RebalanceFrequency         `json:"frequency"`
}

// TradeSide is the direction of a proposed rebalancing action.
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// RebalanceAction is one proposed buy or sell needed to move an asset back
// toward its target allocation.
type RebalanceAction struct {
	Symbol string          `json:"symbol"`
	Action TradeSide       `json:"action"`
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// RebalanceResult is the outcome of evaluating a client's portfolio against
// their stored rule.
type RebalanceResult struct {
	NeedsRebalancing bool              `json:"needs_rebalancing"`
	Actions          []RebalanceAction `json:"actions"`
	EstimatedCost    decimal.Decimal   `json:"estimated_cost"`
	EstimatedTime    string            `json:"estimated_time"`
}

// TaxEventKind classifies a realized trade event.
type TaxEventKind string

const (
	TaxEventBuy   TaxEventKind = "buy"
	TaxEventSell  TaxEventKind = "sell"
	TaxEventTrade TaxEventKind = "trade"
)

// TaxEvent is an immutable record of a realized trade. GainLoss is derived
// at insertion time (market value minus cost basis) and never recomputed.
type TaxEvent struct {
	Date        time.Time       `json:"date"`
	Kind        TaxEventKind    `json:"kind" binding:"required"`
	FromSymbol  string          `json:"from_symbol"`
	ToSymbol    string          `json:"to_symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	CostBasis   decimal.Decimal `json:"cost_basis"`
	MarketValue decimal.Decimal `json:"market_value"`
	GainLoss    decimal.Decimal `json:"gain_loss"`
}

// TaxLiability summarizes realized gains and losses for one calendar year.
type TaxLiability struct {
	Year         int             `json:"year"`
	TotalGains   decimal.Decimal `json:"total_gains"`
	TotalLosses  decimal.Decimal `json:"total_losses"`
	NetGainLoss  decimal.Decimal `json:"net_gain_loss"`
	EstimatedTax decimal.Decimal `json:"estimated_tax"`
	Events       []TaxEvent      `json:"events"`
}

// TaxBreakdown splits the year's gains into short-term and long-term buckets.
type TaxBreakdown struct {
	ShortTermGains   decimal.Decimal `json:"short_term_gains"`
	LongTermGains    decimal.Decimal `json:"long_term_gains"`
	DeductibleLosses decimal.Decimal `json:"deductible_losses"`
}

// TaxReport is the full report for a client and year.
type TaxReport struct {
	Liability TaxLiability `json:"liability"`
	Breakdown TaxBreakdown `json:"breakdown"`
	Tips      []string     `json:"tips"`
}

// AlertCondition is the trigger kind of a price alert.
type AlertCondition string

const (
	AlertAbove         AlertCondition = "above"
	AlertBelow         AlertCondition = "below"
	AlertPercentChange AlertCondition = "percent_change"
)

// PriceAlert is a single-shot watch on an asset's price. Once Active becomes
// false (fired or manually deactivated) it can never become true again.
type PriceAlert struct {
	ID             string           `json:"id"`
	ClientID       string           `json:"client_id"`
	Symbol         string           `json:"symbol" binding:"required"`
	Condition      AlertCondition   `json:"condition" binding:"required"`
	TargetValue    decimal.Decimal  `json:"target_value"`
	ReferenceValue *decimal.Decimal `json:"reference_value,omitempty"`
	Active         bool             `json:"active"`
	CreatedAt      time.Time        `json:"created_at"`
	TriggeredAt    *time.Time       `json:"triggered_at,omitempty"`
}

// RiskBucket is a coarse classification derived from an asset's volatility
// coefficient.
type RiskBucket string

const (
	RiskLow    RiskBucket = "Low"
	RiskMedium RiskBucket = "Medium"
	RiskHigh   RiskBucket = "High"
)

// FeeBreakdown details the modeled costs of a simulated trade.
type FeeBreakdown struct {
	TradingFee  decimal.Decimal `json:"trading_fee"`
	Slippage    decimal.Decimal `json:"slippage"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	CostPercent decimal.Decimal `json:"cost_percent"`
}

// PriceProjection is one horizon of the random-walk price model.
type PriceProjection struct {
	Days           int             `json:"days"`
	ProjectedPrice decimal.Decimal `json:"projected_price"`
	ChangePercent  decimal.Decimal `json:"change_percent"`
}

// HistoricalComparison is a placeholder comparison against recent history.
// Not wired to real historical data.
type HistoricalComparison struct {
	WeekChangePercent  decimal.Decimal `json:"week_change_percent"`
	MonthChangePercent decimal.Decimal `json:"month_change_percent"`
}

// RiskAssessment pairs the risk buckets of both sides of a trade with a
// qualitative recommendation.
type RiskAssessment struct {
	FromBucket     RiskBucket `json:"from_bucket"`
	ToBucket       RiskBucket `json:"to_bucket"`
	FromVolatility float64    `json:"from_volatility"`
	ToVolatility   float64    `json:"to_volatility"`
	Recommendation string     `json:"recommendation"`
}

// TradeSimulation is the projected outcome of a hypothetical asset-to-asset
// trade.
type TradeSimulation struct {
	FromSymbol      string               `json:"from_symbol"`
	ToSymbol        string               `json:"to_symbol"`
	InputAmount     decimal.Decimal      `json:"input_amount"`
	EffectiveAmount decimal.Decimal      `json:"effective_amount"`
	FromValue       decimal.Decimal      `json:"from_value"`
	ToAmount        decimal.Decimal      `json:"to_amount"`
	Fees            FeeBreakdown         `json:"fees"`
	Projections     []PriceProjection    `json:"projections"`
	Historical      HistoricalComparison `json:"historical"`
	Risk            RiskAssessment       `json:"risk"`
}
