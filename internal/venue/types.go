// Package venue defines the on-chain account layouts of the clearing program
// being watched, their borsh decoding, and the precision constants of its
// fixed-point risk model. Account shapes mirror the program's storage
// exactly; all 128-bit fields use the wire representation from
// gagliardetto/binary and are converted to big.Int for arithmetic.
package venue

import (
	"math/big"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/perpwatch/liquidator/internal/domain"
)

// Trader is a tracked account principal: the trader's top-level risk record.
// Collateral is quote-precision; Positions points at the trader's PositionSet
// account.
type Trader struct {
	Authority          solana.PublicKey
	Collateral         bin.Uint128
	CumulativeDeposits bin.Int128
	TotalFeePaid       bin.Uint128
	Positions          solana.PublicKey
}

// Position is one per-market exposure inside a PositionSet. BaseAssetAmount
// is signed at reserve precision; zero means the slot is flat and inactive.
// QuoteAssetAmount is the quote-precision cost basis.
// LastCumulativeFundingRate is the funding checkpoint this position last
// settled against.
type Position struct {
	MarketIndex               uint64
	BaseAssetAmount           bin.Int128
	QuoteAssetAmount          bin.Uint128
	LastCumulativeFundingRate bin.Int128
	LastFundingRateTs         int64
}

// Active reports whether the slot carries exposure.
func (p *Position) Active() bool {
	return p.BaseAssetAmount.BigInt().Sign() != 0
}

// PositionSet is a trader's fixed array of per-market positions. It is
// refreshed wholesale from the ledger every cycle, never patched.
type PositionSet struct {
	Trader    solana.PublicKey
	Positions [MaxPositions]Position
}

// AMM is the embedded pricing and funding block of a market.
type AMM struct {
	Oracle                     solana.PublicKey
	BaseAssetReserve           bin.Uint128
	QuoteAssetReserve          bin.Uint128
	PegMultiplier              bin.Uint128
	CumulativeFundingRateLong  bin.Int128
	CumulativeFundingRateShort bin.Int128
	LastFundingRate            bin.Int128
	LastFundingRateTs          int64
	FundingPeriod              int64
}

// MarkPrice returns the instantaneous AMM price at mark-price precision.
func (a *AMM) MarkPrice() *big.Int {
	base := a.BaseAssetReserve.BigInt()
	if base.Sign() == 0 {
		return new(big.Int)
	}
	price := new(big.Int).Mul(a.QuoteAssetReserve.BigInt(), a.PegMultiplier.BigInt())
	price.Mul(price, big.NewInt(priceToPegRatio))
	return price.Quo(price, base)
}

// Market is one slot of the market table.
type Market struct {
	Initialized  bool
	OpenInterest bin.Uint128
	Amm          AMM
}

// MarketTable is the venue's global per-asset pricing and funding state,
// shared read-only within a cycle and replaced wholesale at the top of each.
type MarketTable struct {
	Markets [MaxMarkets]Market
}

// MarketAt returns the initialized market at index. Every active position
// must reference a valid slot; anything else is domain.ErrMarketIndex.
func (t *MarketTable) MarketAt(index uint64) (*Market, error) {
	if index >= MaxMarkets {
		return nil, domain.ErrMarketIndex
	}
	m := &t.Markets[index]
	if !m.Initialized {
		return nil, domain.ErrMarketIndex
	}
	return m, nil
}

// Params is the venue's global configuration record: margin thresholds and
// the auxiliary accounts a liquidate instruction must name. Loaded once at
// bootstrap and treated as static for the life of the process.
type Params struct {
	Admin                    solana.PublicKey
	CollateralVault          solana.PublicKey
	CollateralVaultAuthority solana.PublicKey
	InsuranceVault           solana.PublicKey
	InsuranceVaultAuthority  solana.PublicKey
	Markets                  solana.PublicKey
	MarginRatioInitial       bin.Uint128
	MarginRatioPartial       bin.Uint128
	MarginRatioMaintenance   bin.Uint128
	TradeHistory             solana.PublicKey
	LiquidationHistory       solana.PublicKey
	FundingPaymentHistory    solana.PublicKey
}
