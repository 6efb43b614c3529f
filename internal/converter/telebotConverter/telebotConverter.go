package telebotConverter

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/timetrader/market_replay_bot/internal/model"
	"github.com/timetrader/market_replay_bot/internal/model/tg/tgCallback"
	"github.com/timetrader/market_replay_bot/utils"
	tele "gopkg.in/telebot.v4"
)

func FormatCurrency(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func FormatSignedCurrency(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "+$" + d.StringFixed(2)
}

func FormatShares(d decimal.Decimal) string {
	s := utils.QuantizeShares(d).String()
	if s == "" {
		return "0"
	}
	return s
}

func formatChange(change *model.PriceChange) string {
	if change == nil {
		return ""
	}
	return fmt.Sprintf(" (%s, %s%%)", FormatSignedCurrency(change.Delta), change.Percent.Round(2).String())
}

// PortfolioResponse renders the dashboard: clock, cash, positions, recent
// trades, pinned quotes and the crypto board, with the action keyboard.
func PortfolioResponse(overview model.PortfolioOverview, buyQuote *model.Quote) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📅 %s (%s), at %s\n", utils.FormatDate(overview.Date), overview.Date.Weekday(), overview.TimeOfDay))
	if overview.IsWeekend {
		sb.WriteString("🚫 Stock market is closed on weekends. Crypto still trades.\n")
	}
	sb.WriteString(fmt.Sprintf("💵 Cash: %s\n", FormatCurrency(overview.Cash)))
	sb.WriteString(fmt.Sprintf("💰 Portfolio value: %s\n\n", FormatCurrency(overview.TotalValue)))

	sellBtns := make([]tele.Btn, 0, len(overview.Positions)*2)
	if len(overview.Positions) > 0 {
		sb.WriteString("📋 Positions:\n")
		for _, position := range overview.Positions {
			sb.WriteString(fmt.Sprintf(
				"• %s — %s sh @ %s, now %s%s, value %s, P/L %s\n",
				position.Symbol,
				FormatShares(position.Shares),
				FormatCurrency(position.AvgCost),
				FormatCurrency(position.Price),
				formatChange(position.Change),
				FormatCurrency(position.PositionValue),
				FormatSignedCurrency(position.GainLoss),
			))
			sellBtns = append(sellBtns,
				markup.Data("Sell "+position.Symbol, tgCallback.Sell, position.Symbol),
				markup.Data("Sell all "+position.Symbol, tgCallback.SellAll, position.Symbol),
				markup.Data("📊 "+position.Symbol, tgCallback.Chart, position.Symbol),
			)
		}
		sb.WriteString("\n")
	}

	if buyQuote != nil {
		if buyQuote.Available {
			sb.WriteString(fmt.Sprintf(
				"🔎 %s (%s): %s%s\n\n",
				buyQuote.Symbol, buyQuote.Name, FormatCurrency(buyQuote.Price), formatChange(buyQuote.Change),
			))
		} else {
			sb.WriteString(fmt.Sprintf("🔎 %s (%s): no price data for this date\n\n", buyQuote.Symbol, buyQuote.Name))
		}
	}

	if len(overview.Pinned) > 0 {
		sb.WriteString("📌 Watchlist:\n")
		for _, quote := range overview.Pinned {
			if quote.Available {
				sb.WriteString(fmt.Sprintf("• %s (%s): %s%s\n", quote.Symbol, quote.Name, FormatCurrency(quote.Price), formatChange(quote.Change)))
			} else {
				sb.WriteString(fmt.Sprintf("• %s (%s): no price data\n", quote.Symbol, quote.Name))
			}
		}
		sb.WriteString("\n")
	}

	if len(overview.Cryptos) > 0 {
		sb.WriteString("🪙 Crypto:\n")
		for _, quote := range overview.Cryptos {
			sb.WriteString(fmt.Sprintf("• %s (%s): %s%s\n", quote.Symbol, quote.Name, FormatCurrency(quote.Price), formatChange(quote.Change)))
		}
		sb.WriteString("\n")
	}

	if len(overview.Transactions) > 0 {
		sb.WriteString("🧾 Recent trades:\n")
		for _, tx := range overview.Transactions {
			line := fmt.Sprintf(
				"%s %s %s %s sh @ %s = %s",
				utils.FormatDate(tx.Date), tx.Kind, tx.Symbol, FormatShares(tx.Shares), FormatCurrency(tx.Price), FormatCurrency(tx.Total),
			)
			if tx.ProfitLoss != nil {
				line += fmt.Sprintf(" (P/L %s)", FormatSignedCurrency(*tx.ProfitLoss))
			}
			sb.WriteString(line + "\n")
		}
	}

	advanceRow := markup.Row(
		markup.Data("⏭ Next", tgCallback.AdvanceTick),
		markup.Data("+1w", tgCallback.JumpWeek),
		markup.Data("+1m", tgCallback.JumpMonth),
		markup.Data("+1y", tgCallback.JumpYear),
	)

	actionBtns := []tele.Btn{
		markup.Data("🛒 Buy", tgCallback.Buy),
		markup.Data("📌 Pin", tgCallback.Pin),
		markup.Data("📆 Jump to date", tgCallback.JumpDate),
	}
	if overview.IsWeekend {
		actionBtns = append(actionBtns, markup.Data("⏩ Skip weekend", tgCallback.SkipWeekend))
	}

	rows := []tele.Row{advanceRow, markup.Row(actionBtns...)}
	if len(sellBtns) > 0 {
		rows = append(rows, markup.Row(sellBtns...))
	}

	unpinBtns := make([]tele.Btn, 0, len(overview.Pinned))
	for _, quote := range overview.Pinned {
		unpinBtns = append(unpinBtns, markup.Data("Unpin "+quote.Symbol, tgCallback.Unpin, quote.Symbol))
	}
	if len(unpinBtns) > 0 {
		rows = append(rows, markup.Row(unpinBtns...))
	}

	rows = append(rows, markup.Row(
		markup.Data("📉 Value chart", tgCallback.ValueChart),
		markup.Data("📈 Report", tgCallback.Report),
		markup.Data("🔄 Reset", tgCallback.Reset),
	))

	markup.Inline(rows...)

	return sb.String(), markup
}

// ChartResponse renders an aggregated value series as a text table, oldest
// first.
func ChartResponse(title string, points []model.ChartPoint) string {
	var sb strings.Builder
	sb.WriteString(title + "\n")
	for _, point := range points {
		sb.WriteString(fmt.Sprintf("%s  %s\n", utils.FormatDate(point.Date), FormatCurrency(point.Value)))
	}
	return sb.String()
}

func TransactionResponse(tx model.Transaction) string {
	text := fmt.Sprintf(
		"✅ %s %s %s sh @ %s, total %s",
		tx.Kind, tx.Symbol, FormatShares(tx.Shares), FormatCurrency(tx.Price), FormatCurrency(tx.Total),
	)
	if tx.ProfitLoss != nil {
		text += fmt.Sprintf(", P/L %s", FormatSignedCurrency(*tx.ProfitLoss))
	}
	return text
}
