package risk

import (
	"math/big"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perpwatch/liquidator/internal/fpmath"
	"github.com/perpwatch/liquidator/internal/venue"
)

func TestEvaluateZeroExposureSentinel(t *testing.T) {
	trader := venue.Trader{Collateral: bin.Uint128{Lo: 0}}
	var positions venue.PositionSet
	table := tableWith(map[uint64]venue.Market{1: unitMarket(t, 0, 0)})

	got, err := Evaluate(&trader, &positions, table)
	require.NoError(t, err)

	assert.Zero(t, got.MarginRatio.Cmp(fpmath.MaxUint128()))
	assert.Zero(t, got.TotalCollateral.Cmp(fpmath.MaxUint128()))
	assert.Zero(t, got.BaseAssetValue.Sign())
	// Zero exposure is never liquidatable, whatever the threshold.
	assert.False(t, got.Liquidatable(big.NewInt(625)))
}

func TestEvaluateLong(t *testing.T) {
	// One unit long at mark price 1.0: notional 1e6, cost basis 5e5,
	// unrealized +5e5. With 1e6 stored collateral the ratio is
	// (1e6+5e5) * 1e4 / 1e6 = 15000.
	trader := venue.Trader{Collateral: bin.Uint128{Lo: venue.QuotePrecision}}
	var positions venue.PositionSet
	positions.Positions[0] = position(t, 1, venue.AmmReservePrecision, 500_000, 0)
	table := tableWith(map[uint64]venue.Market{1: unitMarket(t, 0, 0)})

	got, err := Evaluate(&trader, &positions, table)
	require.NoError(t, err)

	assert.Equal(t, int64(venue.QuotePrecision), got.BaseAssetValue.Int64())
	assert.Equal(t, int64(500_000), got.UnrealizedPnL.Int64())
	assert.Equal(t, int64(1_500_000), got.TotalCollateral.Int64())
	assert.Equal(t, int64(15_000), got.MarginRatio.Int64())
}

func TestEvaluateShort(t *testing.T) {
	// One unit short opened at 1.2, marked at 1.0: unrealized +2e5.
	trader := venue.Trader{Collateral: bin.Uint128{Lo: venue.QuotePrecision}}
	var positions venue.PositionSet
	positions.Positions[0] = position(t, 1, -venue.AmmReservePrecision, 1_200_000, 0)
	table := tableWith(map[uint64]venue.Market{1: unitMarket(t, 0, 0)})

	got, err := Evaluate(&trader, &positions, table)
	require.NoError(t, err)

	assert.Equal(t, int64(200_000), got.UnrealizedPnL.Int64())
	assert.Equal(t, int64(12_000), got.MarginRatio.Int64())
}

func TestEvaluateMonotonicInCollateral(t *testing.T) {
	var positions venue.PositionSet
	positions.Positions[0] = position(t, 1, venue.AmmReservePrecision, 900_000, 0)
	table := tableWith(map[uint64]venue.Market{1: unitMarket(t, 0, 0)})

	prev := fpmath.MaxUint128()
	for collateral := int64(2_000_000); collateral >= 0; collateral -= 250_000 {
		trader := venue.Trader{Collateral: bin.Uint128{Lo: uint64(collateral)}}
		got, err := Evaluate(&trader, &positions, table)
		require.NoError(t, err)
		assert.LessOrEqual(t, got.MarginRatio.Cmp(prev), 0,
			"ratio rose when collateral dropped to %d", collateral)
		prev = got.MarginRatio
	}
}

func TestEvaluateLossSaturatesCollateral(t *testing.T) {
	// Losses beyond stored collateral clamp total collateral, and so the
	// ratio, at zero.
	trader := venue.Trader{Collateral: bin.Uint128{Lo: 100_000}}
	var positions venue.PositionSet
	positions.Positions[0] = position(t, 1, venue.AmmReservePrecision, 5_000_000, 0)
	table := tableWith(map[uint64]venue.Market{1: unitMarket(t, 0, 0)})

	got, err := Evaluate(&trader, &positions, table)
	require.NoError(t, err)

	assert.Zero(t, got.TotalCollateral.Sign())
	assert.Zero(t, got.MarginRatio.Sign())
	assert.True(t, got.Liquidatable(big.NewInt(625)))
}

func TestEvaluateAggregatesAcrossMarkets(t *testing.T) {
	trader := venue.Trader{Collateral: bin.Uint128{Lo: venue.QuotePrecision}}
	var positions venue.PositionSet
	positions.Positions[0] = position(t, 1, venue.AmmReservePrecision, 1_000_000, 0)
	positions.Positions[3] = position(t, 4, 2*venue.AmmReservePrecision, 2_000_000, 0)
	table := tableWith(map[uint64]venue.Market{
		1: unitMarket(t, 0, 0),
		4: unitMarket(t, 0, 0),
	})

	got, err := Evaluate(&trader, &positions, table)
	require.NoError(t, err)

	assert.Equal(t, int64(3*venue.QuotePrecision), got.BaseAssetValue.Int64())
	assert.Zero(t, got.UnrealizedPnL.Sign())
	// 1e6 * 1e4 / 3e6, truncated.
	assert.Equal(t, int64(3_333), got.MarginRatio.Int64())
}

func TestLiquidatableBoundaryIsInclusive(t *testing.T) {
	a := Assessment{MarginRatio: big.NewInt(625)}
	assert.True(t, a.Liquidatable(big.NewInt(625)))
	assert.True(t, a.Liquidatable(big.NewInt(626)))
	assert.False(t, a.Liquidatable(big.NewInt(624)))
}
