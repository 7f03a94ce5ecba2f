package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskLevel buckets early-assignment probability into coarse tiers.
type RiskLevel string

const (
	// RiskLow indicates assignment probability <= 25%
	RiskLow RiskLevel = "LOW"
	// RiskMedium indicates assignment probability in (25%, 50%]
	RiskMedium RiskLevel = "MEDIUM"
	// RiskHigh indicates assignment probability > 50%
	RiskHigh RiskLevel = "HIGH"
)

// EarlyAssignmentRisk estimates the chance the short call is assigned before
// expiration, with the contributing factors listed for the report consumer.
type EarlyAssignmentRisk struct {
	Level       RiskLevel       `json:"risk_level"`
	Probability decimal.Decimal `json:"probability"` // percent, capped at 90
	Factors     []string        `json:"factors,omitempty"`
}

// PositionSizing recommends contract counts under the account's risk and
// capital budgets.
type PositionSizing struct {
	AccountSize          decimal.Decimal `json:"account_size"`
	RiskBudget           decimal.Decimal `json:"risk_budget"`
	CapitalBudget        decimal.Decimal `json:"capital_budget"`
	MaxContracts         int             `json:"max_contracts"`
	RecommendedContracts int             `json:"recommended_contracts"`
}

// ScenarioOutcome is the position P&L (per contract, in dollars) at one
// hypothetical underlying price at short-call expiration.
type ScenarioOutcome struct {
	MovePct decimal.Decimal `json:"move_pct"`
	Price   decimal.Decimal `json:"price"`
	PnL     decimal.Decimal `json:"pnl"`
}

// ScenarioAnalysis evaluates the position across the fixed scenario grid.
type ScenarioAnalysis struct {
	Outcomes []ScenarioOutcome `json:"outcomes"`
	Best     ScenarioOutcome   `json:"best_case"`
	Worst    ScenarioOutcome   `json:"worst_case"`
	Expected ScenarioOutcome   `json:"expected_case"` // the +5% scenario
}

// ComprehensiveRisk bundles every downstream analytic for one opportunity.
// Derived and read-only; one record per analysis request.
type ComprehensiveRisk struct {
	OpportunityID string `json:"opportunity_id"`
	Symbol        string `json:"symbol"`

	NetDebit  decimal.Decimal `json:"net_debit"`
	MaxProfit decimal.Decimal `json:"max_profit"`
	MaxLoss   decimal.Decimal `json:"max_loss"`
	Breakeven decimal.Decimal `json:"breakeven"`

	Assignment EarlyAssignmentRisk `json:"early_assignment_risk"`
	Sizing     PositionSizing      `json:"position_sizing"`
	Scenarios  ScenarioAnalysis    `json:"scenario_analysis"`

	VaR95             decimal.Decimal `json:"var_95"`
	ExpectedShortfall decimal.Decimal `json:"expected_shortfall"`
	SharpeRatio       float64         `json:"sharpe_ratio"`

	ThetaDecayRate decimal.Decimal `json:"theta_decay_rate"` // net theta: leaps - short
	VegaRisk       decimal.Decimal `json:"vega_risk"`        // |leaps vega - short vega|

	AnalyzedAt time.Time `json:"analyzed_at"`
}

// DividendInfo describes the next dividend on the underlying, consumed by the
// early-assignment analyzer.
type DividendInfo struct {
	ExDate time.Time       `json:"ex_dividend_date"`
	Amount decimal.Decimal `json:"amount"`
}
