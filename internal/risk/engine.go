package risk

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
)

// AnalysisOptions carries the optional account and market context for one
// analysis. Zero values fall back to defaults (100k account, 0% risk-free
// rate, no dividend).
type AnalysisOptions struct {
	AccountSize     decimal.Decimal
	RiskFreeRatePct decimal.Decimal
	Dividend        *models.DividendInfo
}

// Analyzer produces a ComprehensiveRisk per opportunity. Stateless apart from
// the clock; safe for concurrent use.
type Analyzer struct {
	logger *logrus.Logger
	now    func() time.Time
}

// NewAnalyzer builds an analyzer.
func NewAnalyzer(logger *logrus.Logger) *Analyzer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Analyzer{logger: logger, now: time.Now}
}

// WithNow overrides the analyzer clock, used by tests.
func (a *Analyzer) WithNow(now func() time.Time) *Analyzer {
	if now != nil {
		a.now = now
	}
	return a
}

// Analyze runs every risk analytic for one opportunity.
func (a *Analyzer) Analyze(o *models.Opportunity, opts AnalysisOptions) *models.ComprehensiveRisk {
	report := &models.ComprehensiveRisk{
		OpportunityID: o.ID,
		Symbol:        o.Symbol,
		NetDebit:      o.NetDebit,
		MaxProfit:     o.MaxProfit,
		MaxLoss:       o.MaxLoss,
		Breakeven:     o.Breakeven,
		AnalyzedAt:    a.now().UTC(),
	}

	report.Assignment = AnalyzeEarlyAssignment(&o.Short, o.Quote, opts.Dividend)
	report.Sizing = SizePosition(o.NetDebit, o.MaxLoss, opts.AccountSize)
	report.Scenarios = RunScenarios(o)

	pnls := make([]decimal.Decimal, 0, len(report.Scenarios.Outcomes))
	for _, outcome := range report.Scenarios.Outcomes {
		pnls = append(pnls, outcome.PnL)
	}
	report.VaR95 = VaR95(pnls)
	report.ExpectedShortfall = ExpectedShortfall(pnls)
	report.SharpeRatio = SharpeRatio(o, opts.RiskFreeRatePct)

	if o.LEAPS.Greeks != nil && o.Short.Greeks != nil {
		report.ThetaDecayRate = o.LEAPS.Greeks.Theta.Sub(o.Short.Greeks.Theta)
		report.VegaRisk = o.LEAPS.Greeks.Vega.Sub(o.Short.Greeks.Vega).Abs()
	}

	a.logger.WithFields(logrus.Fields{
		"opportunity":     o.ID,
		"symbol":          o.Symbol,
		"assignment_risk": report.Assignment.Level,
		"var_95":          report.VaR95,
		"max_contracts":   report.Sizing.MaxContracts,
	}).Debug("risk analysis complete")

	return report
}
