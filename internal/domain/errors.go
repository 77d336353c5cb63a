// Package domain holds the sentinel errors shared across the liquidator.
package domain

import "errors"

var (
	// ErrDecodeMismatch reports account bytes that do not carry the expected
	// layout's discriminator. During bootstrap classification this is a
	// negative match, not a failure.
	ErrDecodeMismatch = errors.New("account bytes do not match layout")

	// ErrMathOverflow reports a checked fixed-point operation whose result
	// left the 128-bit range. It aborts one account's evaluation for the
	// cycle, never the process.
	ErrMathOverflow = errors.New("arithmetic outside 128-bit range")

	// ErrMarketIndex reports a position referencing a market slot that is out
	// of range or not initialized.
	ErrMarketIndex = errors.New("position references unknown market")

	ErrNotFound = errors.New("account not found")
)
