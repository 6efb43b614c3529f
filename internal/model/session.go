package model

type state int

const (
	DefaultState state = iota
	ExpectingBuyTicker
	ExpectingBuyQuantity
	ExpectingSellQuantity
	ExpectingJumpDate
	ExpectingPinTicker
)

// Session is what the bot keeps per chat: the dialog state machine plus the
// whole simulation. One chat owns exactly one simulation; access to it is
// serialized by the transport, which loads, mutates and stores the session
// around every update.
type Session struct {
	State      state       `json:"state"`
	BuySymbol  string      `json:"buy_symbol,omitempty"`
	SellSymbol string      `json:"sell_symbol,omitempty"`
	Simulation *Simulation `json:"simulation,omitempty"`
}
