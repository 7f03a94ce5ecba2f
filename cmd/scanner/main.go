package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/pmcc_scout/internal/config"
	"github.com/eddiefleurent/pmcc_scout/internal/dashboard"
	"github.com/eddiefleurent/pmcc_scout/internal/provider"
	"github.com/eddiefleurent/pmcc_scout/internal/risk"
	"github.com/eddiefleurent/pmcc_scout/internal/scan"
	"github.com/eddiefleurent/pmcc_scout/internal/storage"
)

// Scanner wires the provider, engine, analyzer, and storage into the
// periodic scan loop.
type Scanner struct {
	config   *config.Config
	engine   *scan.Engine
	analyzer *risk.Analyzer
	storage  storage.Interface
	logger   *logrus.Logger
	stop     chan struct{}
}

func main() {
	var configPath string
	var once bool
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.BoolVar(&once, "once", false, "Run a single scan cycle and exit")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(cfg.Environment.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	logger.Infof("Starting PMCC scout in %s mode", cfg.Environment.Mode)

	dataProvider, err := buildProvider(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to build data provider: %v", err)
	}

	engine, err := scan.NewEngine(dataProvider, cfg.ToScanConfig(), logger)
	if err != nil {
		logger.Fatalf("Failed to build scan engine: %v", err)
	}

	storagePath := cfg.Storage.Path
	if storagePath == "" {
		storagePath = "scans.json"
	}
	store, err := storage.NewStorage(storagePath)
	if err != nil {
		logger.Fatalf("Failed to open storage: %v", err)
	}

	scanner := &Scanner{
		config:   cfg,
		engine:   engine,
		analyzer: risk.NewAnalyzer(logger),
		storage:  store,
		logger:   logger,
		stop:     make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, stopping scanner...")
		close(scanner.stop)
		cancel()
	}()

	var server *dashboard.Server
	if cfg.Dashboard.Enabled {
		server = dashboard.NewServer(dashboard.Config{
			ListenAddr: cfg.Dashboard.ListenAddr,
			AuthToken:  cfg.Dashboard.AuthToken,
		}, store, logger)
		go func() {
			if err := server.Start(); err != nil && err.Error() != "http: Server closed" {
				logger.WithError(err).Error("Report server stopped")
			}
		}()
	}

	if once {
		scanner.runCycle(ctx)
	} else if err := scanner.Run(ctx); err != nil {
		logger.Fatalf("Scanner error: %v", err)
	}

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Report server shutdown failed")
		}
	}

	logger.Info("Scanner stopped")
}

// buildProvider assembles the data provider with retry and circuit breaker
// decorators. Paper mode with the mock provider needs neither.
func buildProvider(cfg *config.Config, logger *logrus.Logger) (provider.DataProvider, error) {
	switch cfg.Provider.Name {
	case "mock":
		return provider.NewMockProvider(decimal.NewFromInt(100), time.Now().UTC()), nil
	case "tradier":
		tradier := provider.NewTradierProvider(cfg.Provider.APIKey, cfg.Provider.Sandbox, logger)
		stdLogger := log.New(logger.Writer(), "", 0)
		retried := provider.NewRetryProvider(tradier, stdLogger)
		return provider.NewCircuitBreakerProvider(retried), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Name)
	}
}

// Run executes scan cycles on the configured interval until stopped.
func (s *Scanner) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.config.ScanInterval())
	defer ticker.Stop()

	// Run immediately on start.
	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scanner) runCycle(ctx context.Context) {
	started := time.Now()
	s.logger.WithField("symbols", len(s.config.Scan.Symbols)).Info("Starting scan cycle")

	results, err := s.engine.ScanSymbols(ctx, s.config.Scan.Symbols, s.config.Parallelism())
	if err != nil {
		s.logger.WithError(err).Warn("Scan cycle aborted")
		return
	}

	for _, result := range results {
		if _, err := s.storage.SaveScan(result); err != nil {
			s.logger.WithField("symbol", result.Symbol).WithError(err).Error("Failed to persist scan")
		}
		s.logBest(result)
	}

	s.logger.WithFields(logrus.Fields{
		"symbols_scanned": len(results),
		"elapsed":         time.Since(started).Round(time.Millisecond),
	}).Info("Scan cycle complete")
}

// logBest runs the risk analyzer on each symbol's top opportunity so the scan
// log carries an actionable summary.
func (s *Scanner) logBest(result *scan.ScanResult) {
	best := result.Best()
	if best == nil {
		if result.Feasibility != nil && len(result.Feasibility.Recommendations) > 0 {
			s.logger.WithFields(logrus.Fields{
				"symbol": result.Symbol,
				"hint":   result.Feasibility.Recommendations[0],
			}).Info("No opportunities")
		}
		return
	}

	report := s.analyzer.Analyze(best, risk.AnalysisOptions{
		AccountSize:     s.config.AccountSize(),
		RiskFreeRatePct: s.config.RiskFreeRatePct(),
	})

	s.logger.WithFields(logrus.Fields{
		"symbol":          result.Symbol,
		"leaps":           best.LEAPS.Symbol,
		"short":           best.Short.Symbol,
		"net_debit":       best.NetDebit,
		"max_profit":      best.MaxProfit,
		"total_score":     fmt.Sprintf("%.1f", best.TotalScore),
		"assignment_risk": report.Assignment.Level,
		"var_95":          report.VaR95,
		"contracts":       report.Sizing.RecommendedContracts,
	}).Info("Top opportunity")
}
