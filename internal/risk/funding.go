// Package risk implements the venue's solvency model: lazy funding
// settlement and margin-ratio evaluation. Both are pure computations over
// decoded venue accounts; SettleFunding mutates its trader and position-set
// arguments in place, Evaluate touches nothing.
package risk

import (
	"math/big"

	"github.com/perpwatch/liquidator/internal/fpmath"
	"github.com/perpwatch/liquidator/internal/venue"
)

// SettleFunding reconciles a trader's funding checkpoints against the
// current market table and folds the resulting payment into collateral.
//
// Each AMM tracks a cumulative funding rate per side; each position records
// the rate it last settled at. When the two diverge the position owes or is
// owed funding for the delta. A positive rate delta charges longs and
// credits shorts. Checkpoints (rate and timestamp) advance to the market's
// current values, which makes a second call under an unchanged table a
// no-op.
func SettleFunding(trader *venue.Trader, positions *venue.PositionSet, table *venue.MarketTable) error {
	total := new(big.Int)

	for i := range positions.Positions {
		pos := &positions.Positions[i]
		base := pos.BaseAssetAmount.BigInt()
		if base.Sign() == 0 {
			continue
		}

		market, err := table.MarketAt(pos.MarketIndex)
		if err != nil {
			return err
		}
		amm := &market.Amm

		current := amm.CumulativeFundingRateLong
		if base.Sign() < 0 {
			current = amm.CumulativeFundingRateShort
		}
		if current.BigInt().Cmp(pos.LastCumulativeFundingRate.BigInt()) == 0 {
			continue
		}

		payment, err := fundingPayment(current.BigInt(), pos.LastCumulativeFundingRate.BigInt(), base)
		if err != nil {
			return err
		}
		total, err = fpmath.AddI128(total, payment)
		if err != nil {
			return err
		}

		pos.LastCumulativeFundingRate = current
		pos.LastFundingRateTs = amm.LastFundingRateTs
	}

	// Truncating conversion from reserve precision to collateral precision.
	collateralDelta := fpmath.Quo(total, venue.AmmToQuotePrecisionRatio)

	updated, err := fpmath.UpdatedCollateral(trader.Collateral.BigInt(), collateralDelta)
	if err != nil {
		return err
	}
	wire, err := fpmath.ToU128(updated)
	if err != nil {
		return err
	}
	trader.Collateral = wire
	return nil
}

// fundingPayment returns the signed reserve-precision payment owed for the
// rate delta on the given exposure. Longs pay (negative result) when the
// cumulative rate has risen.
func fundingPayment(current, last, base *big.Int) (*big.Int, error) {
	delta, err := fpmath.SubI128(current, last)
	if err != nil {
		return nil, err
	}
	prod, err := fpmath.MulI128(delta, base)
	if err != nil {
		return nil, err
	}
	payment := fpmath.Quo(prod, venue.MarkPricePrecision)
	payment = fpmath.Quo(payment, venue.FundingRateBuffer)
	return payment.Neg(payment), nil
}
