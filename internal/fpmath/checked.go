// Package fpmath provides checked 128-bit fixed-point arithmetic on big.Int
// values. Every operation that could leave the 128-bit range returns
// domain.ErrMathOverflow instead of wrapping or panicking, so one account's
// bad data can never halt the scheduler.
package fpmath

import (
	"math/big"

	bin "github.com/gagliardetto/binary"

	"github.com/perpwatch/liquidator/internal/domain"
)

var (
	two64   = new(big.Int).Lsh(big.NewInt(1), 64)
	two128  = new(big.Int).Lsh(big.NewInt(1), 128)
	maxU128 = new(big.Int).Sub(two128, big.NewInt(1))
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// MaxUint128 returns a fresh copy of 2^128-1, the sentinel used for
// "infinitely solvent" margin ratios.
func MaxUint128() *big.Int {
	return new(big.Int).Set(maxU128)
}

func checkI128(v *big.Int) (*big.Int, error) {
	if v.Cmp(minI128) < 0 || v.Cmp(maxI128) > 0 {
		return nil, domain.ErrMathOverflow
	}
	return v, nil
}

func checkU128(v *big.Int) (*big.Int, error) {
	if v.Sign() < 0 || v.Cmp(maxU128) > 0 {
		return nil, domain.ErrMathOverflow
	}
	return v, nil
}

// AddI128 returns a+b within the signed 128-bit range.
func AddI128(a, b *big.Int) (*big.Int, error) {
	return checkI128(new(big.Int).Add(a, b))
}

// SubI128 returns a-b within the signed 128-bit range.
func SubI128(a, b *big.Int) (*big.Int, error) {
	return checkI128(new(big.Int).Sub(a, b))
}

// MulI128 returns a*b within the signed 128-bit range.
func MulI128(a, b *big.Int) (*big.Int, error) {
	return checkI128(new(big.Int).Mul(a, b))
}

// AddU128 returns a+b within the unsigned 128-bit range.
func AddU128(a, b *big.Int) (*big.Int, error) {
	return checkU128(new(big.Int).Add(a, b))
}

// MulU128 returns a*b within the unsigned 128-bit range.
func MulU128(a, b *big.Int) (*big.Int, error) {
	return checkU128(new(big.Int).Mul(a, b))
}

// Quo returns a/b truncated toward zero. Division cannot overflow the range
// of its dividend, so no check is needed.
func Quo(a *big.Int, b int64) *big.Int {
	return new(big.Int).Quo(a, big.NewInt(b))
}

// UpdatedCollateral applies a signed quote-precision delta to an unsigned
// collateral balance. A loss larger than the balance saturates at zero; a
// gain is checked against the unsigned 128-bit range.
func UpdatedCollateral(collateral, delta *big.Int) (*big.Int, error) {
	if delta.Sign() < 0 {
		loss := new(big.Int).Neg(delta)
		if loss.Cmp(collateral) > 0 {
			return new(big.Int), nil
		}
		return new(big.Int).Sub(collateral, loss), nil
	}
	return AddU128(collateral, delta)
}

// ToU128 converts a big.Int in [0, 2^128) to its wire representation.
func ToU128(v *big.Int) (bin.Uint128, error) {
	if _, err := checkU128(v); err != nil {
		return bin.Uint128{}, err
	}
	return bin.Uint128{
		Lo: new(big.Int).Mod(v, two64).Uint64(),
		Hi: new(big.Int).Rsh(v, 64).Uint64(),
	}, nil
}

// ToI128 converts a big.Int in the signed 128-bit range to its two's
// complement wire representation.
func ToI128(v *big.Int) (bin.Int128, error) {
	if _, err := checkI128(v); err != nil {
		return bin.Int128{}, err
	}
	rep := v
	if v.Sign() < 0 {
		rep = new(big.Int).Add(v, two128)
	}
	return bin.Int128{
		Lo: new(big.Int).Mod(rep, two64).Uint64(),
		Hi: new(big.Int).Rsh(rep, 64).Uint64(),
	}, nil
}
