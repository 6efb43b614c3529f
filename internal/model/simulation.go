package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TimeOfDay string

const (
	TimeOfDayOpen  TimeOfDay = "open"
	TimeOfDayClose TimeOfDay = "close"
)

type TransactionKind string

const (
	TransactionBuy     TransactionKind = "BUY"
	TransactionSell    TransactionKind = "SELL"
	TransactionSellAll TransactionKind = "SELL_ALL"
)

type Holding struct {
	Shares  decimal.Decimal `json:"shares"`
	AvgCost decimal.Decimal `json:"avg_cost"`
}

// Transaction is one entry of the append-only trade log. Entries are never
// mutated after being written.
type Transaction struct {
	Date       time.Time        `json:"date"`
	TimeOfDay  TimeOfDay        `json:"time_of_day"`
	Kind       TransactionKind  `json:"kind"`
	Symbol     string           `json:"symbol"`
	Shares     decimal.Decimal  `json:"shares"`
	Price      decimal.Decimal  `json:"price"`
	Total      decimal.Decimal  `json:"total"`
	ProfitLoss *decimal.Decimal `json:"profit_loss,omitempty"`
}

// Snapshot is the portfolio value at one simulation tick, appended in
// non-decreasing date order.
type Snapshot struct {
	Date      time.Time       `json:"date"`
	TimeOfDay TimeOfDay       `json:"time_of_day"`
	Value     decimal.Decimal `json:"value"`
}

// Simulation is the full replay state of one player: the forward-only clock,
// the decimal-exact ledger and the value history it produces.
type Simulation struct {
	CurrentDate  time.Time          `json:"current_date"`
	TimeOfDay    TimeOfDay          `json:"time_of_day"`
	Cash         decimal.Decimal    `json:"cash"`
	Holdings     map[string]Holding `json:"holdings"`
	Transactions []Transaction      `json:"transactions"`
	History      []Snapshot         `json:"history"`
	Pinned       []string           `json:"pinned"`
}

func NewSimulation(startDate time.Time, startCash decimal.Decimal) *Simulation {
	return &Simulation{
		CurrentDate: startDate,
		TimeOfDay:   TimeOfDayOpen,
		Cash:        startCash,
		Holdings:    make(map[string]Holding),
		History: []Snapshot{{
			Date:      startDate,
			TimeOfDay: TimeOfDayOpen,
			Value:     startCash,
		}},
	}
}

func (s *Simulation) Holding(symbol string) (Holding, bool) {
	h, ok := s.Holdings[symbol]
	return h, ok
}

func (s *Simulation) IsPinned(symbol string) bool {
	for _, p := range s.Pinned {
		if p == symbol {
			return true
		}
	}
	return false
}

func (s *Simulation) Pin(symbol string) {
	if !s.IsPinned(symbol) {
		s.Pinned = append(s.Pinned, symbol)
	}
}

func (s *Simulation) Unpin(symbol string) {
	for i, p := range s.Pinned {
		if p == symbol {
			s.Pinned = append(s.Pinned[:i], s.Pinned[i+1:]...)
			return
		}
	}
}

// QuantitySpec is either an explicit share count or a cash amount converted
// to shares at the traded price. Exactly one side should be set.
type QuantitySpec struct {
	Shares *decimal.Decimal
	Cash   *decimal.Decimal
}

func SharesQuantity(shares decimal.Decimal) QuantitySpec {
	return QuantitySpec{Shares: &shares}
}

func CashQuantity(cash decimal.Decimal) QuantitySpec {
	return QuantitySpec{Cash: &cash}
}

type PriceChange struct {
	Delta   decimal.Decimal
	Percent decimal.Decimal
}

type ChartPoint struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

type PositionView struct {
	Symbol          string
	Shares          decimal.Decimal
	AvgCost         decimal.Decimal
	Price           decimal.Decimal
	Change          *PriceChange
	PositionValue   decimal.Decimal
	GainLoss        decimal.Decimal
	GainLossPercent decimal.Decimal
}

// Quote is a watchlist entry; Available is false when no price resolves for
// the simulated date.
type Quote struct {
	Symbol    string
	Name      string
	Price     decimal.Decimal
	Change    *PriceChange
	Available bool
}

type PortfolioOverview struct {
	Date         time.Time
	TimeOfDay    TimeOfDay
	IsWeekend    bool
	Cash         decimal.Decimal
	TotalValue   decimal.Decimal
	Positions    []PositionView
	Transactions []Transaction // most recent first, bounded window
	Pinned       []Quote
	Cryptos      []Quote
}
