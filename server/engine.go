package server

import (
	"context"
	"fmt"
	"time"

	limbo "github.com/Ashenafi-pixel/limbo-crash-engine"
	"github.com/Ashenafi-pixel/limbo-crash-engine/config"
	"github.com/Ashenafi-pixel/limbo-crash-engine/games/crash"
	"github.com/Ashenafi-pixel/limbo-crash-engine/metrics"
	"github.com/Ashenafi-pixel/limbo-crash-engine/round"
	"github.com/Ashenafi-pixel/limbo-crash-engine/wallet"

	"go.uber.org/zap"
)

// buildEngine wires the controller for real-time play: frame ticks, optional
// wallet, metrics, the JSON results file and, when DATABASE_URL is set, Postgres.
func buildEngine(cfg *config.Config, log *zap.Logger, m *metrics.Metrics) (*round.Controller, error) {
	opts := round.Options{
		GrowthRate:    cfg.GrowthRate,
		MinTarget:     cfg.MinTarget,
		Epsilon:       cfg.Epsilon,
		HistoryLength: cfg.HistoryLength,
		Scheduler:     round.NewFrameScheduler(cfg.FrameInterval),
		Logger:        log.Named("round"),
		Recorders:     []round.Recorder{m},
	}
	if cfg.Wallet {
		w, err := wallet.Parse(cfg.InitialBalance)
		if err != nil {
			return nil, fmt.Errorf("wallet: %w", err)
		}
		opts.Funds = w
	}
	if cfg.RecordResults {
		opts.Recorders = append(opts.Recorders, round.NewResultsStore(cfg.DataDir))
	}
	if ledger := openLedger(log); ledger != nil {
		opts.Recorders = append(opts.Recorders, ledger)
	}
	return round.NewController(crash.NewGenerator(nil), opts), nil
}

// openLedger returns the Postgres ledger, or nil when no database is configured or reachable.
func openLedger(log *zap.Logger) *round.PGLedger {
	db, err := limbo.GetDB()
	if err != nil {
		log.Warn("settlement ledger disabled", zap.Error(err))
		return nil
	}
	if db == nil {
		return nil
	}
	ledger := round.NewPGLedger(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ledger.EnsureSchema(ctx); err != nil {
		log.Warn("settlement ledger disabled", zap.Error(err))
		return nil
	}
	log.Info("settlement ledger enabled")
	return ledger
}
