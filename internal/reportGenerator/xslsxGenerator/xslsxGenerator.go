package xslsxGenerator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/timetrader/market_replay_bot/internal/model"
	"github.com/timetrader/market_replay_bot/utils"
	"github.com/xuri/excelize/v2"
)

type XSLSXGenerator struct{}

func New() *XSLSXGenerator {
	return &XSLSXGenerator{}
}

// Generate builds the replay report: one sheet with the current holdings,
// one with the trade log, one with the aggregated value history.
func (g *XSLSXGenerator) Generate(ctx context.Context, overview model.PortfolioOverview, history []model.ChartPoint) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XSLSXGenerator.Generate"

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#cfe2f3"},
		},
	})
	if err != nil {
		return nil, "", err
	}

	if err := g.fillHoldingsSheet(f, overview, headerStyle); err != nil {
		return nil, "", err
	}

	if err := g.fillTransactionsSheet(f, overview, headerStyle); err != nil {
		return nil, "", err
	}

	if err := g.fillHistorySheet(f, history, headerStyle); err != nil {
		return nil, "", err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while Saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func (g *XSLSXGenerator) fillHoldingsSheet(f *excelize.File, overview model.PortfolioOverview, headerStyle int) error {
	const sheetName = "Holdings"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	headers := []string{"Symbol", "Shares", "Avg Cost", "Price", "Value", "Gain/Loss", "Gain/Loss %"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheetName, cell, h)
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for row, position := range overview.Positions {
		values := []any{
			position.Symbol,
			position.Shares.String(),
			position.AvgCost.String(),
			position.Price.String(),
			position.PositionValue.String(),
			position.GainLoss.String(),
			position.GainLossPercent.Round(2).String(),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			f.SetCellValue(sheetName, cell, v)
		}
	}

	summaryRow := len(overview.Positions) + 3
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow), "Cash")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", summaryRow), overview.Cash.String())
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow+1), "Total value")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", summaryRow+1), overview.TotalValue.String())

	return nil
}

func (g *XSLSXGenerator) fillTransactionsSheet(f *excelize.File, overview model.PortfolioOverview, headerStyle int) error {
	const sheetName = "Transactions"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	headers := []string{"Date", "Time", "Kind", "Symbol", "Shares", "Price", "Total", "Profit/Loss"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheetName, cell, h)
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for row, tx := range overview.Transactions {
		profitLoss := ""
		if tx.ProfitLoss != nil {
			profitLoss = tx.ProfitLoss.String()
		}

		values := []any{
			utils.FormatDate(tx.Date),
			string(tx.TimeOfDay),
			string(tx.Kind),
			tx.Symbol,
			tx.Shares.String(),
			tx.Price.String(),
			tx.Total.String(),
			profitLoss,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			f.SetCellValue(sheetName, cell, v)
		}
	}

	return nil
}

func (g *XSLSXGenerator) fillHistorySheet(f *excelize.File, history []model.ChartPoint, headerStyle int) error {
	const sheetName = "Value History"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	headers := []string{"Date", "Portfolio Value"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheetName, cell, h)
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for row, point := range history {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row+2), utils.FormatDate(point.Date))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row+2), point.Value.StringFixed(2))
	}

	return nil
}
