package venue

// Fixed-point scales used by the clearing program. Exposure is carried at
// reserve precision, prices at mark-price precision, collateral and cost
// bases at quote precision. The margin ratio is a quote-per-quote scalar at
// margin precision.
const (
	MarkPricePrecision  = 10_000_000_000     // 1e10
	FundingRateBuffer   = 1_000              // 1e3
	AmmReservePrecision = 10_000_000_000_000 // 1e13
	QuotePrecision      = 1_000_000          // 1e6
	PegPrecision        = 1_000              // 1e3
	MarginPrecision     = 10_000             // 1e4

	// AmmToQuotePrecisionRatio converts an accumulated funding total from
	// reserve precision down to collateral (quote) precision.
	AmmToQuotePrecisionRatio = AmmReservePrecision / QuotePrecision // 1e7

	// priceToPegRatio lifts a peg-precision price to mark-price precision.
	priceToPegRatio = MarkPricePrecision / PegPrecision // 1e7

	// MaxPositions is the fixed size of a position set.
	MaxPositions = 8
	// MaxMarkets is the fixed size of the market table.
	MaxMarkets = 64
)

// LiquidateOpcode is the 8-byte tag of the clearing program's liquidate
// entry point. It is the only instruction this process ever submits.
var LiquidateOpcode = []byte{0xdf, 0xb3, 0xe2, 0x7d, 0x30, 0x2e, 0x27, 0x4a}
