package tgCallback

// Callback unique identifiers. Sell, SellAll, Unpin and Chart carry the
// symbol as the callback payload.
const (
	AdvanceTick = "advance_tick"
	JumpWeek    = "jump_week"
	JumpMonth   = "jump_month"
	JumpYear    = "jump_year"
	SkipWeekend = "skip_weekend"
	JumpDate    = "jump_date"
	Buy         = "buy"
	ValueChart  = "value_chart"
	Report      = "report"
	Reset       = "reset"
	Pin         = "pin"
	Sell        = "sell"
	SellAll     = "sell_all"
	Unpin       = "unpin"
	Chart       = "chart"
)
