package service

import "errors"

// Operation errors of the simulation core. All of them are recoverable: a
// failed operation leaves the simulation state untouched and the caller
// presents the failure to the user.
var (
	ErrUnknownSymbol      = errors.New("unknown symbol")
	ErrPriceUnavailable   = errors.New("price unavailable")
	ErrMarketClosed       = errors.New("market closed")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrMarketCapExceeded  = errors.New("market cap exceeded")
	ErrBackwardJump       = errors.New("backward jump rejected")
	ErrInvalidDate        = errors.New("invalid date")
	ErrNotInvented        = errors.New("asset not invented yet")
)
