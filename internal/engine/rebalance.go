package engine

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cryptofolio/portfolio-engine/internal/models"
)

// tradingFeeRate is the flat modeled trading fee (0.1%).
var tradingFeeRate = decimal.NewFromFloat(0.001)

var hundred = decimal.NewFromInt(100)

// rebalanceTimeEstimate is a fixed human-readable estimate; the engine does
// not model execution time.
const rebalanceTimeEstimate = "5-10 minutes depending on market conditions"

// SetRebalancingRule stores or overwrites the rule for a client. Target
// percentages are not validated to sum to 100; that is the caller's
// responsibility.
func (e *Engine) SetRebalancingRule(clientID string, rule models.RebalancingRule) error {
	if err := e.store.SetRule(clientID, rule); err != nil {
		e.log.Error("store rebalancing rule", zap.String("client_id", clientID), zap.Error(err))
		return fmt.Errorf("set rebalancing rule: %w", err)
	}
	return nil
}

// EvaluateRebalance compares the client's current per-asset monetary values
// against their stored rule and proposes buy/sell actions for every target
// asset whose allocation deviates beyond the threshold.
//
// Assets held in the portfolio but absent from the target allocation are
// never actioned; there is no implicit 0% target.
func (e *Engine) EvaluateRebalance(clientID string, values map[string]decimal.Decimal) (models.RebalanceResult, error) {
	rule, ok := e.store.Rule(clientID)
	if !ok {
		return models.RebalanceResult{}, fmt.Errorf("client %s: %w", clientID, ErrRuleNotFound)
	}

	result := models.RebalanceResult{
		Actions:       make([]models.RebalanceAction, 0),
		EstimatedCost: decimal.Zero,
		EstimatedTime: rebalanceTimeEstimate,
	}

	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	// An empty portfolio deviates from nothing.
	if total.IsZero() {
		return result, nil
	}

	// Map iteration order is randomized, so walk the targets in sorted
	// symbol order to keep the action list stable.
	symbols := make([]string, 0, len(rule.TargetAllocation))
	for symbol := range rule.TargetAllocation {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		targetPct := rule.TargetAllocation[symbol]
		current := values[symbol]
		currentPct := current.Mul(hundred).Div(total)

		deviation := currentPct.Sub(targetPct).Abs()
		if !deviation.GreaterThan(rule.ThresholdDeviation) {
			continue
		}

		targetValue := targetPct.Div(hundred).Mul(total)
		difference := targetValue.Sub(current)
		action := models.SideSell
		if difference.IsPositive() {
			action = models.SideBuy
		}
		result.Actions = append(result.Actions, models.RebalanceAction{
			Symbol: symbol,
			Action: action,
			Amount: difference.Abs(),
			Reason: fmt.Sprintf("%s is at %s%% of portfolio, target %s%% (deviation %s%%)",
				symbol, currentPct.StringFixed(2), targetPct.StringFixed(2), deviation.StringFixed(2)),
		})
	}

	result.NeedsRebalancing = len(result.Actions) > 0
	for _, action := range result.Actions {
		result.EstimatedCost = result.EstimatedCost.Add(action.Amount.Mul(tradingFeeRate))
	}
	return result, nil
}
