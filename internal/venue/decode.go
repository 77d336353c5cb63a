package venue

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"

	"github.com/perpwatch/liquidator/internal/domain"
)

// Every account of the clearing program is prefixed with the first 8 bytes
// of sha256("account:<Name>"), which makes classification a discriminator
// match rather than a speculative parse.
var (
	traderDiscriminator      = discriminator("Trader")
	positionSetDiscriminator = discriminator("PositionSet")
	marketTableDiscriminator = discriminator("MarketTable")
	paramsDiscriminator      = discriminator("Params")
)

func discriminator(name string) []byte {
	sum := sha256.Sum256([]byte("account:" + name))
	return sum[:8]
}

func decode(disc, data []byte, out interface{}) error {
	if len(data) < 8 || !bytes.Equal(data[:8], disc) {
		return domain.ErrDecodeMismatch
	}
	if err := bin.NewBorshDecoder(data[8:]).Decode(out); err != nil {
		return fmt.Errorf("venue: decode %T: %w", out, err)
	}
	return nil
}

// DecodeTrader decodes an account principal record.
func DecodeTrader(data []byte) (*Trader, error) {
	var t Trader
	if err := decode(traderDiscriminator, data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DecodePositionSet decodes a trader's position set.
func DecodePositionSet(data []byte) (*PositionSet, error) {
	var p PositionSet
	if err := decode(positionSetDiscriminator, data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DecodeMarketTable decodes the global market table.
func DecodeMarketTable(data []byte) (*MarketTable, error) {
	var t MarketTable
	if err := decode(marketTableDiscriminator, data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DecodeParams decodes the venue parameters record.
func DecodeParams(data []byte) (*Params, error) {
	var p Params
	if err := decode(paramsDiscriminator, data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Kind discriminates the account shapes relevant to bootstrap
// classification.
type Kind int

const (
	KindUnknown Kind = iota
	KindTrader
	KindMarketTable
	KindParams
)

func (k Kind) String() string {
	switch k {
	case KindTrader:
		return "trader"
	case KindMarketTable:
		return "market_table"
	case KindParams:
		return "params"
	default:
		return "unknown"
	}
}

// Classified is the tagged result of matching raw account bytes against the
// known layouts. Exactly one of the value fields is set for a known Kind.
type Classified struct {
	Kind   Kind
	Trader *Trader
	Table  *MarketTable
	Params *Params
}

// Classify matches raw account bytes against each known layout in a fixed
// order (trader, market table, params) and returns the first hit together
// with its decoded value. Bytes matching no layout classify as KindUnknown;
// the caller drops those, it does not retry them.
func Classify(data []byte) Classified {
	if t, err := DecodeTrader(data); err == nil {
		return Classified{Kind: KindTrader, Trader: t}
	}
	if t, err := DecodeMarketTable(data); err == nil {
		return Classified{Kind: KindMarketTable, Table: t}
	}
	if p, err := DecodeParams(data); err == nil {
		return Classified{Kind: KindParams, Params: p}
	}
	return Classified{Kind: KindUnknown}
}
