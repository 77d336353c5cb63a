// Package registry builds and holds the working set of tracked accounts. The
// set is assembled once, from a full enumeration of the venue program's
// accounts, and mutated in place for the life of the process; entries are
// never removed during a run.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/perpwatch/liquidator/internal/chain"
	"github.com/perpwatch/liquidator/internal/venue"
)

// TrackedAccount is one venue principal under watch. During a cycle's
// fan-out each entry is owned exclusively by its worker; the principal
// record is replaced wholesale on every refresh, never patched.
type TrackedAccount struct {
	Address solana.PublicKey
	Trader  venue.Trader
}

// Registry is the in-memory list of tracked accounts.
type Registry struct {
	accounts []*TrackedAccount
}

// Accounts returns the tracked entries. Callers must not reorder the slice.
func (r *Registry) Accounts() []*TrackedAccount {
	return r.accounts
}

// Len returns the number of tracked accounts.
func (r *Registry) Len() int {
	return len(r.accounts)
}

// BootstrapResult carries everything the one-time scan discovers: the
// tracked-account registry, the venue's market table and parameters record
// (address and decoded value for both), and the submitter's own venue
// account, identified by its authority matching the signing key.
type BootstrapResult struct {
	Registry   *Registry
	TableAddr  solana.PublicKey
	Table      *venue.MarketTable
	ParamsAddr solana.PublicKey
	Params     *venue.Params
	OwnAccount solana.PublicKey
}

// Bootstrap enumerates every account owned by program and classifies each
// into trader, market table, or params; bytes matching no layout are
// silently dropped. Missing market table or params is fatal: the venue
// cannot be evaluated without them.
func Bootstrap(ctx context.Context, ledger chain.Ledger, program, authority solana.PublicKey, logger *slog.Logger) (*BootstrapResult, error) {
	start := time.Now()

	raw, err := ledger.ProgramAccounts(ctx, program)
	if err != nil {
		return nil, fmt.Errorf("registry: bootstrap scan: %w", err)
	}

	result := &BootstrapResult{Registry: &Registry{}}
	for _, account := range raw {
		classified := venue.Classify(account.Data)
		switch classified.Kind {
		case venue.KindTrader:
			if classified.Trader.Authority.Equals(authority) {
				result.OwnAccount = account.Address
			}
			result.Registry.accounts = append(result.Registry.accounts, &TrackedAccount{
				Address: account.Address,
				Trader:  *classified.Trader,
			})
		case venue.KindMarketTable:
			result.TableAddr = account.Address
			result.Table = classified.Table
		case venue.KindParams:
			result.ParamsAddr = account.Address
			result.Params = classified.Params
		}
	}

	if result.Table == nil {
		return nil, fmt.Errorf("registry: no market table among %d program accounts", len(raw))
	}
	if result.Params == nil {
		return nil, fmt.Errorf("registry: no venue params among %d program accounts", len(raw))
	}
	if result.OwnAccount.IsZero() {
		logger.Warn("no venue account found for signing authority; liquidations will be rejected by the program",
			slog.String("authority", authority.String()),
		)
	}

	logger.Info("bootstrap scan complete",
		slog.Int("tracked_accounts", result.Registry.Len()),
		slog.Int("total_accounts", len(raw)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}
