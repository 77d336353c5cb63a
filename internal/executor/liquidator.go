// Package executor assembles and submits liquidation transactions against
// the venue program and resynchronizes the target account afterwards.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/perpwatch/liquidator/internal/chain"
	"github.com/perpwatch/liquidator/internal/metrics"
	"github.com/perpwatch/liquidator/internal/notify"
	"github.com/perpwatch/liquidator/internal/registry"
	"github.com/perpwatch/liquidator/internal/venue"
)

// Executor turns a sub-margin verdict into a signed liquidate transaction.
// It is safe for concurrent use: all fields are read-only after construction
// and each call works on a distinct registry entry.
type Executor struct {
	ledger     chain.Ledger
	payer      solana.PrivateKey
	program    solana.PublicKey
	paramsAddr solana.PublicKey
	params     *venue.Params
	ownAccount solana.PublicKey
	notifier   *notify.Notifier
	logger     *slog.Logger
}

// New creates an Executor. ownAccount is the submitter's own venue account,
// credited with the liquidation reward.
func New(
	ledger chain.Ledger,
	payer solana.PrivateKey,
	program solana.PublicKey,
	paramsAddr solana.PublicKey,
	params *venue.Params,
	ownAccount solana.PublicKey,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *Executor {
	return &Executor{
		ledger:     ledger,
		payer:      payer,
		program:    program,
		paramsAddr: paramsAddr,
		params:     params,
		ownAccount: ownAccount,
		notifier:   notifier,
		logger:     logger.With(slog.String("component", "executor")),
	}
}

// Liquidate builds the liquidate instruction for target, signs it with the
// payer as fee payer against the latest blockhash, and submits it. On a
// successful submit the target principal is unconditionally re-read so the
// registry reflects the post-liquidation state. Submission is
// fire-and-forget: there is no confirmation tracking and no retry.
func (e *Executor) Liquidate(ctx context.Context, target *registry.TrackedAccount, positions *venue.PositionSet, table *venue.MarketTable) error {
	attemptID := uuid.New()

	accounts, err := e.accountMetas(target, positions, table)
	if err != nil {
		return fmt.Errorf("executor: assemble account list: %w", err)
	}

	blockhash, err := e.ledger.LatestBlockhash(ctx)
	if err != nil {
		metrics.Liquidations.WithLabelValues("failed").Inc()
		return fmt.Errorf("executor: %w", err)
	}

	instruction := solana.NewInstruction(e.program, accounts, venue.LiquidateOpcode)
	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		blockhash,
		solana.TransactionPayer(e.payer.PublicKey()),
	)
	if err != nil {
		return fmt.Errorf("executor: build transaction: %w", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(e.payer.PublicKey()) {
			return &e.payer
		}
		return nil
	}); err != nil {
		return fmt.Errorf("executor: sign transaction: %w", err)
	}

	signature, err := e.ledger.SendTransaction(ctx, tx)
	if err != nil {
		metrics.Liquidations.WithLabelValues("failed").Inc()
		return fmt.Errorf("executor: %w", err)
	}

	metrics.Liquidations.WithLabelValues("submitted").Inc()
	e.logger.InfoContext(ctx, "liquidation submitted",
		slog.String("attempt_id", attemptID.String()),
		slog.String("account", target.Address.String()),
		slog.String("signature", signature.String()),
		slog.Int("oracles", len(accounts)-fixedAccountCount),
	)
	if err := e.notifier.Notify(ctx, "liquidation",
		"Liquidation submitted",
		fmt.Sprintf("account %s\ntx %s", target.Address, signature),
	); err != nil {
		e.logger.WarnContext(ctx, "liquidation notification failed", slog.String("error", err.Error()))
	}

	return e.resync(ctx, target)
}

// fixedAccountCount is the number of account metas that precede the
// per-market oracle references.
const fixedAccountCount = 14

// accountMetas returns the account list in the fixed order the clearing
// program's liquidate instruction requires, followed by the oracle of every
// market where the target holds exposure, in position order.
func (e *Executor) accountMetas(target *registry.TrackedAccount, positions *venue.PositionSet, table *venue.MarketTable) (solana.AccountMetaSlice, error) {
	accounts := solana.AccountMetaSlice{
		solana.Meta(e.paramsAddr),
		solana.Meta(e.payer.PublicKey()).WRITE().SIGNER(),
		solana.Meta(e.ownAccount).WRITE(),
		solana.Meta(target.Address).WRITE(),
		solana.Meta(e.params.CollateralVault).WRITE(),
		solana.Meta(e.params.CollateralVaultAuthority),
		solana.Meta(e.params.InsuranceVault).WRITE(),
		solana.Meta(e.params.InsuranceVaultAuthority),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(e.params.Markets).WRITE(),
		solana.Meta(target.Trader.Positions).WRITE(),
		solana.Meta(e.params.TradeHistory).WRITE(),
		solana.Meta(e.params.LiquidationHistory).WRITE(),
		solana.Meta(e.params.FundingPaymentHistory).WRITE(),
	}

	for i := range positions.Positions {
		pos := &positions.Positions[i]
		if !pos.Active() {
			continue
		}
		market, err := table.MarketAt(pos.MarketIndex)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, solana.Meta(market.Amm.Oracle))
	}
	return accounts, nil
}

// resync re-reads the target's principal record so the registry reflects the
// possibly partially-closed post-liquidation state.
func (e *Executor) resync(ctx context.Context, target *registry.TrackedAccount) error {
	data, err := e.ledger.AccountData(ctx, target.Address)
	if err != nil {
		return fmt.Errorf("executor: resync %s: %w", target.Address, err)
	}
	trader, err := venue.DecodeTrader(data)
	if err != nil {
		return fmt.Errorf("executor: resync %s: %w", target.Address, err)
	}
	target.Trader = *trader
	return nil
}
