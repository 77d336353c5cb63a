package risk

import (
	"math/big"

	"github.com/perpwatch/liquidator/internal/fpmath"
	"github.com/perpwatch/liquidator/internal/venue"
)

// Assessment is the full solvency readout for one account. Only MarginRatio
// drives the liquidation decision; the other fields are surfaced for
// diagnostics.
type Assessment struct {
	TotalCollateral *big.Int
	UnrealizedPnL   *big.Int
	BaseAssetValue  *big.Int
	MarginRatio     *big.Int
}

// Liquidatable reports whether the assessed ratio is at or below the given
// threshold. The boundary is inclusive.
func (a Assessment) Liquidatable(threshold *big.Int) bool {
	return a.MarginRatio.Cmp(threshold) <= 0
}

// Evaluate computes aggregate notional exposure, unrealized PnL, adjusted
// collateral, and the margin ratio for one account against the current
// market table. An account with zero aggregate exposure is maximally safe:
// both TotalCollateral and MarginRatio take the unsigned 128-bit maximum and
// no division ever happens.
func Evaluate(trader *venue.Trader, positions *venue.PositionSet, table *venue.MarketTable) (Assessment, error) {
	baseAssetValue := new(big.Int)
	unrealizedPnL := new(big.Int)

	for i := range positions.Positions {
		pos := &positions.Positions[i]
		if !pos.Active() {
			continue
		}

		market, err := table.MarketAt(pos.MarketIndex)
		if err != nil {
			return Assessment{}, err
		}

		value, pnl, err := positionValueAndPnL(pos, &market.Amm)
		if err != nil {
			return Assessment{}, err
		}

		baseAssetValue, err = fpmath.AddU128(baseAssetValue, value)
		if err != nil {
			return Assessment{}, err
		}
		unrealizedPnL, err = fpmath.AddI128(unrealizedPnL, pnl)
		if err != nil {
			return Assessment{}, err
		}
	}

	if baseAssetValue.Sign() == 0 {
		return Assessment{
			TotalCollateral: fpmath.MaxUint128(),
			UnrealizedPnL:   unrealizedPnL,
			BaseAssetValue:  baseAssetValue,
			MarginRatio:     fpmath.MaxUint128(),
		}, nil
	}

	totalCollateral, err := fpmath.UpdatedCollateral(trader.Collateral.BigInt(), unrealizedPnL)
	if err != nil {
		return Assessment{}, err
	}
	scaled, err := fpmath.MulU128(totalCollateral, big.NewInt(venue.MarginPrecision))
	if err != nil {
		return Assessment{}, err
	}
	marginRatio := new(big.Int).Quo(scaled, baseAssetValue)

	return Assessment{
		TotalCollateral: totalCollateral,
		UnrealizedPnL:   unrealizedPnL,
		BaseAssetValue:  baseAssetValue,
		MarginRatio:     marginRatio,
	}, nil
}

// positionValueAndPnL returns the quote-precision notional value of the
// position at the current mark price and its signed unrealized PnL against
// the stored cost basis.
func positionValueAndPnL(pos *venue.Position, amm *venue.AMM) (*big.Int, *big.Int, error) {
	base := pos.BaseAssetAmount.BigInt()

	value := new(big.Int).Mul(new(big.Int).Abs(base), amm.MarkPrice())
	value.Quo(value, big.NewInt(venue.MarkPricePrecision))
	value.Quo(value, big.NewInt(venue.AmmToQuotePrecisionRatio))

	cost := pos.QuoteAssetAmount.BigInt()
	var pnl *big.Int
	var err error
	if base.Sign() > 0 {
		pnl, err = fpmath.SubI128(value, cost)
	} else {
		pnl, err = fpmath.SubI128(cost, value)
	}
	if err != nil {
		return nil, nil, err
	}
	return value, pnl, nil
}
