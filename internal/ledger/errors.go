package ledger

import "errors"

// Sentinel errors for ledger operations. Callers match them with errors.Is;
// the concrete error carries the offending trade's detail.
var (
	// ErrInvalidTrade marks a malformed trade: non-positive quantity or
	// price, or an empty symbol. Rejected at the boundary before folding.
	ErrInvalidTrade = errors.New("invalid trade")

	// ErrInsufficientPosition marks a sell that would drive a symbol's net
	// quantity negative. Raised before any running total is touched, so a
	// rejected trade has no partial effect.
	ErrInsufficientPosition = errors.New("insufficient position")

	// ErrPriceUnavailable marks a valuation-only failure: the market data
	// collaborator could not supply a price for a symbol. Degrades that
	// symbol to "position known, market value unknown".
	ErrPriceUnavailable = errors.New("price unavailable")
)
