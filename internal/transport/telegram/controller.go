package telegram

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/timetrader/market_replay_bot/config"
	"github.com/timetrader/market_replay_bot/data/session"
	"github.com/timetrader/market_replay_bot/internal/converter/telebotConverter"
	"github.com/timetrader/market_replay_bot/internal/model"
	"github.com/timetrader/market_replay_bot/internal/service"
	"github.com/timetrader/market_replay_bot/utils"
	tele "gopkg.in/telebot.v4"
)

const internalErrMsg = "something went wrong, try again..."

type SimulationService interface {
	NewSimulation(ctx context.Context) (*model.Simulation, error)
	SearchStock(ctx context.Context, sim *model.Simulation, symbol string) (model.Quote, error)
	Buy(ctx context.Context, sim *model.Simulation, symbol string, spec model.QuantitySpec) (model.Transaction, error)
	Sell(ctx context.Context, sim *model.Simulation, symbol string, spec model.QuantitySpec) (model.Transaction, error)
	SellAll(ctx context.Context, sim *model.Simulation, symbol string) (model.Transaction, error)
	AdvanceTick(ctx context.Context, sim *model.Simulation)
	AdvanceByDays(ctx context.Context, sim *model.Simulation, days int)
	AdvanceByMonths(ctx context.Context, sim *model.Simulation, months int)
	AdvanceByYears(ctx context.Context, sim *model.Simulation, years int)
	SkipWeekend(ctx context.Context, sim *model.Simulation)
	JumpToDate(ctx context.Context, sim *model.Simulation, target time.Time) error
	PortfolioOverview(ctx context.Context, sim *model.Simulation) model.PortfolioOverview
	AggregatedHistory(ctx context.Context, sim *model.Simulation) []model.ChartPoint
	SymbolHistory(ctx context.Context, sim *model.Simulation, symbol string) ([]model.ChartPoint, error)
	GenerateReport(ctx context.Context, sim *model.Simulation) (fileBytes []byte, filename string, downloadLink string, err error)
}

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, session model.Session) error
	DeleteSession(ctx context.Context, key string) error
}

type Controller struct {
	cfg               *config.Config
	simulationService SimulationService
	session           Session
}

func NewController(cfg *config.Config, simulationService SimulationService, session Session) *Controller {
	return &Controller{
		cfg:               cfg,
		simulationService: simulationService,
		session:           session,
	}
}

func (ctrl *Controller) getSessionFromTeleCtxOrStorage(ctx context.Context, c tele.Context) (model.Session, error) {
	chatSession, ok := c.Get("session").(model.Session)
	if ok {
		return chatSession, nil
	}

	rqID := utils.GetRequestIDFromCtx(ctx)
	chatSession, err := ctrl.session.GetSession(ctx, strconv.FormatInt(c.Chat().ID, 10))
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		}
		return model.Session{}, err
	}
	return chatSession, nil
}

func (ctrl *Controller) saveSession(ctx context.Context, c tele.Context, chatSession model.Session) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	err := ctrl.session.SetSession(ctx, strconv.FormatInt(c.Chat().ID, 10), chatSession)
	if err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
	}
	return err
}

// getSimulation loads the chat session and ensures it carries a running
// simulation. Chats without one are told to /start.
func (ctrl *Controller) getSimulation(ctx context.Context, c tele.Context) (model.Session, error) {
	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return model.Session{}, err
	}

	if chatSession.Simulation == nil {
		return model.Session{}, session.ErrNotFound
	}

	return chatSession, nil
}

func (ctrl *Controller) sendPortfolio(ctx context.Context, c tele.Context, sim *model.Simulation, edit bool) error {
	overview := ctrl.simulationService.PortfolioOverview(ctx, sim)
	text, markup := telebotConverter.PortfolioResponse(overview, nil)
	if edit {
		if err := c.Edit(text, markup); err == nil {
			return nil
		}
		// Edit fails when the message is too old or unchanged, fall back
		// to sending a fresh one.
	}
	return c.Send(text, markup)
}

// Start begins a fresh replay for the chat, replacing any previous one.
func (ctrl *Controller) Start(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	sim, err := ctrl.simulationService.NewSimulation(ctx)
	if err != nil {
		slog.Error("got error from simulationService.NewSimulation", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	chatSession := model.Session{State: model.DefaultState, Simulation: sim}
	if err := ctrl.saveSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return ctrl.sendPortfolio(ctx, c, sim, false)
}

// Portfolio re-renders the dashboard on demand.
func (ctrl *Controller) Portfolio(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSimulation(ctx, c)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return c.Send("no replay running, use /start to begin")
		}
		return c.Send(internalErrMsg)
	}

	return ctrl.sendPortfolio(ctx, c, chatSession.Simulation, false)
}

func (ctrl *Controller) Reset(c tele.Context) error {
	return ctrl.Start(c)
}

func (ctrl *Controller) InitBuy(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSimulation(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	chatSession.State = model.ExpectingBuyTicker
	if err := ctrl.saveSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send("Enter a ticker (e.g. AAPL, BTC-USD):")
}

func (ctrl *Controller) ProcessBuyTicker(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSimulation(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	symbol := strings.ToUpper(strings.TrimSpace(c.Message().Text))

	quote, err := ctrl.simulationService.SearchStock(ctx, chatSession.Simulation, symbol)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownSymbol):
			return c.Send("ticker not found, try another one")
		case errors.Is(err, service.ErrNotInvented):
			return c.Send("this asset does not exist yet at the simulated date")
		default:
			return c.Send(internalErrMsg)
		}
	}

	if !quote.Available {
		return c.Send("no price data for this ticker at the simulated date, try another one")
	}

	chatSession.State = model.ExpectingBuyQuantity
	chatSession.BuySymbol = symbol
	if err := ctrl.saveSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	price := telebotConverter.FormatCurrency(quote.Price)
	return c.Send(quote.Symbol + " (" + quote.Name + ") at " + price + "\nEnter a share count, or a dollar amount like $500:")
}

func (ctrl *Controller) ProcessBuyQuantity(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSimulation(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	spec, err := parseQuantity(c.Message().Text)
	if err != nil {
		return c.Send("enter a positive share count or a dollar amount like $500")
	}

	tx, err := ctrl.simulationService.Buy(ctx, chatSession.Simulation, chatSession.BuySymbol, spec)
	if err != nil {
		if msg, ok := tradeErrMessage(err); ok {
			return c.Send(msg)
		}
		return c.Send(internalErrMsg)
	}

	chatSession.State = model.DefaultState
	chatSession.BuySymbol = ""
	if err := ctrl.saveSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	if err := c.Send(telebotConverter.TransactionResponse(tx)); err != nil {
		return err
	}

	return ctrl.sendPortfolio(ctx, c, chatSession.Simulation, false)
}

func (ctrl *Controller) InitSell(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSimulation(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	symbol := strings.ToUpper(strings.TrimSpace(c.Data()))
	if _, ok := chatSession.Simulation.Holding(symbol); !ok {
		return c.Send("you don't hold this position")
	}

	chatSession.State = model.ExpectingSellQuantity
	chatSession.SellSymbol = symbol
	if err := ctrl.saveSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send("Enter a share count to sell, or a dollar amount like $500:")
}

func (ctrl *Controller) ProcessSellQuantity(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSimulation(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	spec, err := parseQuantity(c.Message().Text)
	if err != nil {
		return c.Send("enter a positive share count or a dollar amount like $500")
	}

	tx, err := ctrl.simulationService.Sell(ctx, chatSession.Simulation, chatSession.SellSymbol, spec)
	if err != nil {
		if msg, ok := tradeErrMessage(err); ok {
			return c.Send(msg)
		}
		return c.Send(internalErrMsg)
	}

	chatSession.State = model.DefaultState
	chatSession.SellSymbol = ""
	if err := ctrl.saveSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	if err := c.Send(telebotConverter.TransactionResponse(tx)); err != nil {
		return err
	}

	return ctrl.sendPortfolio(ctx, c, chatSession.Simulation, false)
}

func (ctrl *Controller) SellAll(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSimulation(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	symbol := strings.ToUpper(strings.TrimSpace(c.Data()))

	tx, err := ctrl.simulationService.SellAll(ctx, chatSession.Simulation, symbol)
	if err != nil {
		if msg, ok := tradeErrMessage(err); ok {
			return c.Send(msg)
		}
		return c.Send(internalErrMsg)
	}

	if err := ctrl.saveSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	if err := c.Send(telebotConverter.TransactionResponse(tx)); err != nil {
		return err
	}

	return ctrl.sendPortfolio(ctx, c, chatSession.Simulation, true)
}

func (ctrl *Controller) AdvanceTick(c tele.Context) error {
	return ctrl.advance(c, func(ctx context.Context, sim *model.Simulation) {
		ctrl.simulationService.AdvanceTick(ctx, sim)
	})
}

func (ctrl *Controller) JumpWeek(c tele.Context) error {
	return ctrl.advance(c, func(ctx context.Context, sim *model.Simulation) {
		ctrl.simulationService.AdvanceByDays(ctx, sim, 7)
	})
}

func (ctrl *Controller) JumpMonth(c tele.Context) error {
	return ctrl.advance(c, func(ctx context.Context, sim *model.Simulation) {
		ctrl.simulationService.AdvanceByMonths(ctx, sim, 1)
	})
}

func (ctrl *Controller) JumpYear(c tele.Context) error {
	return ctrl.advance(c, func(ctx context.Context, sim *model.Simulation) {
		ctrl.simulationService.AdvanceByYears(ctx, sim, 1)
	})
}

func (ctrl *Controller) SkipWeekend(c tele.Context) error {
	return ctrl.advance(c, func(ctx context.Context, sim *model.Simulation) {
		ctrl.simulationService.SkipWeekend(ctx, sim)
	})
}

func (ctrl *Controller) advance(c tele.Context, move func(ctx context.Context, sim *model.Simulation)) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSimulation(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	move(ctx, chatSession.Simulation)

	if err := ctrl.saveSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return ctrl.sendPortfolio(ctx, c, chatSession.Simulation, true)
}

func (ctrl *Controller) InitJumpDate(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSimulation(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	chatSession.State = model.ExpectingJumpDate
	if err := ctrl.saveSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send("Enter a date to jump to (YYYY-MM-DD):")
}

func (ctrl *Controller) ProcessJumpDate(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSimulation(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	target, err := utils.ParseDate(strings.TrimSpace(c.Message().Text))
	if err != nil {
		return c.Send("that doesn't look like a date, use YYYY-MM-DD")
	}

	if err := ctrl.simulationService.JumpToDate(ctx, chatSession.Simulation, target); err != nil {
		if errors.Is(err, service.ErrBackwardJump) {
			return c.Send("time only moves forward here, pick a later date")
		}
		return c.Send(internalErrMsg)
	}

	chatSession.State = model.DefaultState
	if err := ctrl.saveSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return ctrl.sendPortfolio(ctx, c, chatSession.Simulation, false)
}

func (ctrl *Controller) InitPin(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSimulation(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	chatSession.State = model.ExpectingPinTicker
	if err := ctrl.saveSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send("Enter a ticker to pin to the watchlist:")
}

func (ctrl *Controller) ProcessPinTicker(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSimulation(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	symbol := strings.ToUpper(strings.TrimSpace(c.Message().Text))

	if _, err := ctrl.simulationService.SearchStock(ctx, chatSession.Simulation, symbol); err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownSymbol):
			return c.Send("ticker not found, try another one")
		case errors.Is(err, service.ErrNotInvented):
			return c.Send("this asset does not exist yet at the simulated date")
		default:
			return c.Send(internalErrMsg)
		}
	}

	chatSession.Simulation.Pin(symbol)
	chatSession.State = model.DefaultState
	if err := ctrl.saveSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return ctrl.sendPortfolio(ctx, c, chatSession.Simulation, false)
}

func (ctrl *Controller) Unpin(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSimulation(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	chatSession.Simulation.Unpin(strings.ToUpper(strings.TrimSpace(c.Data())))

	if err := ctrl.saveSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return ctrl.sendPortfolio(ctx, c, chatSession.Simulation, true)
}

// ValueChart sends the aggregated portfolio value series as text.
func (ctrl *Controller) ValueChart(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSimulation(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	points := ctrl.simulationService.AggregatedHistory(ctx, chatSession.Simulation)
	return c.Send(telebotConverter.ChartResponse("📉 Portfolio value", points))
}

// SymbolChart sends the monthly close series of the symbol in the callback
// payload.
func (ctrl *Controller) SymbolChart(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSimulation(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	symbol := strings.ToUpper(strings.TrimSpace(c.Data()))

	points, err := ctrl.simulationService.SymbolHistory(ctx, chatSession.Simulation, symbol)
	if err != nil {
		if errors.Is(err, service.ErrUnknownSymbol) {
			return c.Send("ticker not found")
		}
		return c.Send(internalErrMsg)
	}

	return c.Send(telebotConverter.ChartResponse("📊 "+symbol, points))
}

func (ctrl *Controller) Report(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSimulation(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	if err := c.Send("building the report..."); err != nil {
		return err
	}

	fileBytes, filename, link, err := ctrl.simulationService.GenerateReport(ctx, chatSession.Simulation)
	if err != nil {
		slog.Error("got error from simulationService.GenerateReport", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	if len(fileBytes) <= ctrl.cfg.Telegram.FileLimitInBytes {
		doc := &tele.Document{File: tele.FromReader(bytes.NewReader(fileBytes)), FileName: filename}
		if err := c.Send(doc); err != nil {
			slog.Error("failed to send report document", slog.String("rqID", rqID), slog.String("err", err.Error()))
		}
	}

	return c.Send("📈 Report uploaded: " + link)
}

// parseQuantity reads either a share count ("12.5") or a dollar amount
// ("$500").
func parseQuantity(text string) (model.QuantitySpec, error) {
	text = strings.TrimSpace(text)

	if cash, ok := strings.CutPrefix(text, "$"); ok {
		d, err := utils.ParseDecimal(strings.TrimSpace(cash))
		if err != nil {
			return model.QuantitySpec{}, err
		}
		return model.CashQuantity(d), nil
	}

	d, err := utils.ParseDecimal(text)
	if err != nil {
		return model.QuantitySpec{}, err
	}
	return model.SharesQuantity(d), nil
}

// tradeErrMessage maps ledger rejections to user-facing replies. Unknown
// errors fall through to the generic message.
func tradeErrMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrMarketClosed):
		return "🚫 stock market is closed on weekends, skip to Monday or trade crypto", true
	case errors.Is(err, service.ErrInsufficientFunds):
		return "not enough cash for this purchase", true
	case errors.Is(err, service.ErrInsufficientShares):
		return "you don't hold that many shares", true
	case errors.Is(err, service.ErrMarketCapExceeded):
		return "this order would exceed the company's market cap", true
	case errors.Is(err, service.ErrInvalidQuantity):
		return "enter a positive share count or a dollar amount like $500", true
	case errors.Is(err, service.ErrPriceUnavailable):
		return "no price data at the simulated date", true
	case errors.Is(err, service.ErrNotInvented):
		return "this asset does not exist yet at the simulated date", true
	default:
		return "", false
	}
}
