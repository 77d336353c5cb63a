package risk

import (
	"math/big"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/perpwatch/liquidator/internal/fpmath"
	"github.com/perpwatch/liquidator/internal/venue"
)

func u128(t *testing.T, v *big.Int) bin.Uint128 {
	t.Helper()
	wire, err := fpmath.ToU128(v)
	require.NoError(t, err)
	return wire
}

func i128(t *testing.T, v *big.Int) bin.Int128 {
	t.Helper()
	wire, err := fpmath.ToI128(v)
	require.NoError(t, err)
	return wire
}

// unitMarket returns a market priced at exactly 1.0 (equal reserves, neutral
// peg) with the given cumulative funding rates.
func unitMarket(t *testing.T, cumLong, cumShort int64) venue.Market {
	t.Helper()
	return venue.Market{
		Initialized: true,
		Amm: venue.AMM{
			Oracle:                     solana.NewWallet().PublicKey(),
			BaseAssetReserve:           bin.Uint128{Lo: venue.AmmReservePrecision},
			QuoteAssetReserve:          bin.Uint128{Lo: venue.AmmReservePrecision},
			PegMultiplier:              bin.Uint128{Lo: venue.PegPrecision},
			CumulativeFundingRateLong:  i128(t, big.NewInt(cumLong)),
			CumulativeFundingRateShort: i128(t, big.NewInt(cumShort)),
			LastFundingRateTs:          7_000,
		},
	}
}

func tableWith(markets map[uint64]venue.Market) *venue.MarketTable {
	var table venue.MarketTable
	for index, m := range markets {
		table.Markets[index] = m
	}
	return &table
}

func position(t *testing.T, marketIndex uint64, base, cost, lastRate int64) venue.Position {
	t.Helper()
	return venue.Position{
		MarketIndex:               marketIndex,
		BaseAssetAmount:           i128(t, big.NewInt(base)),
		QuoteAssetAmount:          u128(t, big.NewInt(cost)),
		LastCumulativeFundingRate: i128(t, big.NewInt(lastRate)),
		LastFundingRateTs:         1_000,
	}
}
