package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/eddiefleurent/pmcc_scout/internal/models"
	"github.com/eddiefleurent/pmcc_scout/internal/provider"
)

// Config bundles everything one scan needs beyond the chain itself.
type Config struct {
	LEAPS LEAPSCriteria
	Short ShortCallCriteria
	Pair  PairConfig

	Weights ScoringWeights

	// MaxOpportunities bounds the ranked result list; 0 means unbounded.
	MaxOpportunities int
}

// Validate surfaces caller misuse before any scanning begins.
func (c *Config) Validate() error {
	if err := c.LEAPS.Validate(); err != nil {
		return err
	}
	if err := c.Short.Validate(); err != nil {
		return err
	}
	if c.Pair.MinRiskReward.Sign() < 0 {
		return fmt.Errorf("pair config: min_risk_reward must be non-negative")
	}
	if c.Pair.MinPremiumCoverage.Sign() < 0 {
		return fmt.Errorf("pair config: min_premium_coverage must be non-negative")
	}
	if c.MaxOpportunities < 0 {
		return fmt.Errorf("max_opportunities must be non-negative")
	}
	return nil
}

// ScanResult is everything one symbol's evaluation produced.
type ScanResult struct {
	Symbol        string               `json:"symbol"`
	Quote         models.StockQuote    `json:"quote"`
	Opportunities []models.Opportunity `json:"opportunities"`
	Feasibility   *FeasibilityReport   `json:"feasibility"`
	ScannedAt     time.Time            `json:"scanned_at"`

	LEAPSCandidates int `json:"leaps_candidates"`
	ShortCandidates int `json:"short_candidates"`
}

// Best returns the top-ranked opportunity, or nil when none were found.
// Callers use this for best-per-symbol deduplication.
func (r *ScanResult) Best() *models.Opportunity {
	if len(r.Opportunities) == 0 {
		return nil
	}
	return &r.Opportunities[0]
}

// Engine runs the PMCC pipeline for one symbol at a time. Evaluation is
// purely synchronous, CPU-bound work over already-fetched data; callers may
// run many engines (or ScanSymbols) in parallel because no state is shared
// between symbol evaluations.
type Engine struct {
	provider provider.DataProvider
	config   Config
	logger   *logrus.Logger
	now      func() time.Time
}

// NewEngine validates the config and builds an engine.
func NewEngine(p provider.DataProvider, cfg Config, logger *logrus.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scan config: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		provider: p,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// EvaluateSymbol fetches quote and chain for one symbol and runs the full
// pipeline: filter, pair, score, rank, diagnose. An empty or sparse chain is
// not an error; the result simply carries zero opportunities and a
// feasibility report explaining why.
func (e *Engine) EvaluateSymbol(ctx context.Context, symbol string) (*ScanResult, error) {
	quote, err := e.provider.GetStockQuote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("quote for %s: %w", symbol, err)
	}
	chain, err := e.provider.GetOptionsChain(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("chain for %s: %w", symbol, err)
	}

	return e.Evaluate(chain, *quote), nil
}

// Evaluate runs the pipeline over an already-fetched chain. This is the
// synchronous, deterministic core: identical inputs produce an identical
// ordered result.
func (e *Engine) Evaluate(chain []models.OptionContract, quote models.StockQuote) *ScanResult {
	asOf := e.now().UTC()
	result := &ScanResult{
		Symbol:    quote.Symbol,
		Quote:     quote,
		ScannedAt: asOf,
	}

	leapsPool, leapsRej := FilterLEAPS(chain, e.config.LEAPS, quote)
	shortPool, shortRej := FilterShortCalls(chain, e.config.Short, quote)
	result.LEAPSCandidates = len(leapsPool)
	result.ShortCandidates = len(shortPool)

	opportunities, pairRej := BuildOpportunities(leapsPool, shortPool, quote, e.config.Pair, asOf)
	ScoreAndRank(opportunities, e.config.Weights)

	if e.config.MaxOpportunities > 0 && len(opportunities) > e.config.MaxOpportunities {
		opportunities = opportunities[:e.config.MaxOpportunities]
	}
	result.Opportunities = opportunities

	// The diagnostics reporter re-walks the chain independently so it works
	// even if this pipeline changes its short-circuit behavior.
	result.Feasibility = BuildFeasibilityReport(chain, quote, e.config.LEAPS, e.config.Short, e.config.Pair, asOf)

	e.logger.WithFields(logrus.Fields{
		"symbol":        quote.Symbol,
		"chain_size":    len(chain),
		"leaps_pool":    len(leapsPool),
		"short_pool":    len(shortPool),
		"opportunities": len(opportunities),
		"leaps_rejects": leapsRej.Total(),
		"short_rejects": shortRej.Total(),
		"pair_rejects":  pairRej.Total(),
	}).Info("symbol evaluated")

	return result
}

// ScanSymbols evaluates each symbol with bounded parallelism. Per-symbol
// failures are logged and skipped rather than failing the batch; only context
// cancellation aborts the scan. Results are returned in input order with nil
// entries removed.
func (e *Engine) ScanSymbols(ctx context.Context, symbols []string, parallelism int) ([]*ScanResult, error) {
	if parallelism <= 0 {
		parallelism = 1
	}

	results := make([]*ScanResult, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := e.EvaluateSymbol(gctx, symbol)
			if err != nil {
				e.logger.WithField("symbol", symbol).WithError(err).Warn("symbol scan failed")
				return nil
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	compacted := make([]*ScanResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			compacted = append(compacted, r)
		}
	}
	return compacted, nil
}

// WithNow overrides the engine clock, used by tests for reproducible
// AnalyzedAt stamps.
func (e *Engine) WithNow(now func() time.Time) *Engine {
	if now != nil {
		e.now = now
	}
	return e
}

// DefaultConfig returns a ready-to-use scan configuration with the standard
// criteria, gates, and weights.
func DefaultConfig() Config {
	return Config{
		LEAPS:            DefaultLEAPSCriteria(),
		Short:            DefaultShortCallCriteria(),
		Pair:             PairConfig{MinRiskReward: DefaultMinRiskReward, MinPremiumCoverage: decimal.Zero},
		Weights:          DefaultScoringWeights(),
		MaxOpportunities: 10,
	}
}
