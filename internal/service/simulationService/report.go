package simulationService

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/timetrader/market_replay_bot/internal/model"
	"github.com/timetrader/market_replay_bot/utils"
)

// GenerateReport builds the xlsx replay report, uploads it to cloud storage
// and returns the file alongside the download link so the transport can send
// whichever fits its limits.
func (s *SimulationService) GenerateReport(ctx context.Context, sim *model.Simulation) (fileBytes []byte, filename string, downloadLink string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "SimulationService.GenerateReport"

	slog.Debug("GenerateReport start", slog.String("rqID", rqID), slog.String("op", op))

	overview := s.PortfolioOverview(ctx, sim)
	history := s.AggregatedHistory(ctx, sim)

	fileBytes, fileExtension, err := s.reportGen.Generate(ctx, overview, history)
	if err != nil {
		slog.Error("got error from reportGen.Generate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", "", err
	}

	filename = fmt.Sprintf("replay_report_%s%s", utils.FormatDate(sim.CurrentDate), fileExtension)

	downloadLink, err = s.cloudStorage.UploadFile(ctx, bytes.NewReader(fileBytes), filename)
	if err != nil {
		slog.Error("got error from cloudStorage.UploadFile", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", "", err
	}

	slog.Debug("GenerateReport completed", slog.String("rqID", rqID), slog.String("op", op), slog.String("filename", filename))

	return fileBytes, filename, downloadLink, nil
}
