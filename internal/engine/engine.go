// Package engine is the polling scheduler. After the one-time bootstrap scan
// it repeats forever: refresh the market table wholesale, fan the account
// registry out across a bounded worker pool, and run funding settlement,
// margin evaluation, and (conditionally) liquidation for every tracked
// account. Failures are isolated per account; nothing inside a cycle is
// fatal.
package engine

import (
	"context"
	"log/slog"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/sync/errgroup"

	"github.com/perpwatch/liquidator/internal/chain"
	"github.com/perpwatch/liquidator/internal/executor"
	"github.com/perpwatch/liquidator/internal/metrics"
	"github.com/perpwatch/liquidator/internal/registry"
	"github.com/perpwatch/liquidator/internal/risk"
	"github.com/perpwatch/liquidator/internal/venue"
)

// Engine drives the cycle loop over a bootstrapped working set. Venue params
// are read once at bootstrap and held for the life of the process.
type Engine struct {
	ledger    chain.Ledger
	registry  *registry.Registry
	tableAddr solana.PublicKey
	threshold *big.Int // partial margin ratio; at or below is liquidatable
	executor  *executor.Executor
	workers   int
	logger    *slog.Logger
}

// cycleStats aggregates per-cycle counters across workers.
type cycleStats struct {
	evaluated  atomic.Int64
	liquidated atomic.Int64
	failed     atomic.Int64
}

// New creates an Engine over a bootstrapped registry. workers bounds the
// fan-out; threshold is the venue's partial margin ratio.
func New(
	ledger chain.Ledger,
	reg *registry.Registry,
	tableAddr solana.PublicKey,
	threshold *big.Int,
	exec *executor.Executor,
	workers int,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		ledger:    ledger,
		registry:  reg,
		tableAddr: tableAddr,
		threshold: threshold,
		executor:  exec,
		workers:   workers,
		logger:    logger.With(slog.String("component", "engine")),
	}
}

// Run repeats cycles until the context is cancelled. There is no pacing
// beyond the latency of the network round trips themselves.
func (e *Engine) Run(ctx context.Context) error {
	metrics.TrackedAccounts.Set(float64(e.registry.Len()))
	e.logger.InfoContext(ctx, "engine started",
		slog.Int("tracked_accounts", e.registry.Len()),
		slog.Int("workers", e.workers),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		e.runCycle(ctx)
	}
}

// runCycle refreshes the market table once and fans the registry out across
// the worker pool. The refreshed table is an immutable snapshot for the
// whole fan-out; workers never write to it.
func (e *Engine) runCycle(ctx context.Context) {
	start := time.Now()

	table, err := e.refreshMarketTable(ctx)
	if err != nil {
		metrics.AccountErrors.WithLabelValues("refresh").Inc()
		e.logger.WarnContext(ctx, "market table refresh failed, skipping cycle",
			slog.String("error", err.Error()),
		)
		return
	}

	var stats cycleStats
	var group errgroup.Group
	group.SetLimit(e.workers)
	for _, account := range e.registry.Accounts() {
		account := account
		group.Go(func() error {
			e.evaluateAccount(ctx, account, table, &stats)
			return nil
		})
	}
	_ = group.Wait()

	elapsed := time.Since(start)
	metrics.CyclesTotal.Inc()
	metrics.CycleDuration.Observe(elapsed.Seconds())
	e.logger.InfoContext(ctx, "cycle complete",
		slog.Int64("evaluated", stats.evaluated.Load()),
		slog.Int64("liquidated", stats.liquidated.Load()),
		slog.Int64("failed", stats.failed.Load()),
		slog.Duration("elapsed", elapsed),
	)
}

func (e *Engine) refreshMarketTable(ctx context.Context) (*venue.MarketTable, error) {
	data, err := e.ledger.AccountData(ctx, e.tableAddr)
	if err != nil {
		return nil, err
	}
	return venue.DecodeMarketTable(data)
}

// evaluateAccount runs one account through fetch, settle, evaluate, and
// (when sub-margin) liquidate. Any failure logs, counts, and leaves the
// registry entry for the next cycle; it never propagates.
func (e *Engine) evaluateAccount(ctx context.Context, account *registry.TrackedAccount, table *venue.MarketTable, stats *cycleStats) {
	// Both reads must land before settlement; they are independent, so they
	// are issued together.
	var positionData, traderData []byte
	fetch, fetchCtx := errgroup.WithContext(ctx)
	fetch.Go(func() error {
		var err error
		positionData, err = e.ledger.AccountData(fetchCtx, account.Trader.Positions)
		return err
	})
	fetch.Go(func() error {
		var err error
		traderData, err = e.ledger.AccountData(fetchCtx, account.Address)
		return err
	})
	if err := fetch.Wait(); err != nil {
		stats.failed.Add(1)
		metrics.AccountErrors.WithLabelValues("fetch").Inc()
		e.logger.WarnContext(ctx, "account fetch failed",
			slog.String("account", account.Address.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	positions, err := venue.DecodePositionSet(positionData)
	if err == nil {
		var trader *venue.Trader
		trader, err = venue.DecodeTrader(traderData)
		if err == nil {
			account.Trader = *trader
		}
	}
	if err != nil {
		stats.failed.Add(1)
		metrics.AccountErrors.WithLabelValues("decode").Inc()
		e.logger.WarnContext(ctx, "account decode failed",
			slog.String("account", account.Address.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	// Settle funding so collateral is current before the margin check.
	if err := risk.SettleFunding(&account.Trader, positions, table); err != nil {
		stats.failed.Add(1)
		metrics.AccountErrors.WithLabelValues("funding").Inc()
		e.logger.WarnContext(ctx, "funding settlement failed",
			slog.String("account", account.Address.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	assessment, err := risk.Evaluate(&account.Trader, positions, table)
	if err != nil {
		stats.failed.Add(1)
		metrics.AccountErrors.WithLabelValues("evaluate").Inc()
		e.logger.WarnContext(ctx, "margin evaluation failed",
			slog.String("account", account.Address.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	stats.evaluated.Add(1)
	metrics.AccountsEvaluated.Inc()

	if !assessment.Liquidatable(e.threshold) {
		return
	}

	e.logger.InfoContext(ctx, "account below partial margin",
		slog.String("account", account.Address.String()),
		slog.String("margin_ratio", assessment.MarginRatio.String()),
		slog.String("total_collateral", assessment.TotalCollateral.String()),
		slog.String("unrealized_pnl", assessment.UnrealizedPnL.String()),
		slog.String("base_asset_value", assessment.BaseAssetValue.String()),
	)
	if err := e.executor.Liquidate(ctx, account, positions, table); err != nil {
		stats.failed.Add(1)
		e.logger.WarnContext(ctx, "liquidation failed",
			slog.String("account", account.Address.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	stats.liquidated.Add(1)
}
