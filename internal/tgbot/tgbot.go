package tgbot

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/timetrader/market_replay_bot/config"
	"github.com/timetrader/market_replay_bot/internal/model"
	"github.com/timetrader/market_replay_bot/internal/model/tg/tgCallback"
	"github.com/timetrader/market_replay_bot/internal/transport/telegram"
	customMW "github.com/timetrader/market_replay_bot/internal/transport/telegram/middleware"
	"github.com/timetrader/market_replay_bot/utils"
	tele "gopkg.in/telebot.v4"
	"gopkg.in/telebot.v4/middleware"
)

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, session model.Session) error
}

type TGBot struct {
	bot     *tele.Bot
	ctrl    *telegram.Controller
	session Session
}

func New(cfg *config.Config, ctrl *telegram.Controller, session Session) *TGBot {
	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &tele.LongPoller{Timeout: cfg.Telegram.UpdTimeout},
	}

	b, err := tele.NewBot(settings)
	if err != nil {
		slog.Error("error while tele.NewBot", slog.String("err", err.Error()))
		panic(err)
	}

	return &TGBot{bot: b, ctrl: ctrl, session: session}
}

func (b *TGBot) Start() {
	b.bot.Use(middleware.Recover(), customMW.Logger())

	b.setupRoutes()

	go b.bot.Start()
	slog.Info("tgbot started!")
}

func (b *TGBot) Stop() {
	slog.Info("start stopping tgbot")
	b.bot.Stop()
	slog.Info("tgbot stopped")
}

func (b *TGBot) setupRoutes() {
	// Free text lands here; the session state decides which dialog step it
	// belongs to.
	b.bot.Handle(tele.OnText, func(c tele.Context) error {
		ctx := utils.CreateCtxWithRqID(c)
		rqID := utils.GetRequestIDFromCtx(ctx)
		chatSession, err := b.session.GetSession(ctx, strconv.FormatInt(c.Chat().ID, 10))
		if err != nil {
			slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
			return c.Send("no replay running, use /start to begin")
		}

		c.Set("session", chatSession)

		switch chatSession.State {
		case model.ExpectingBuyTicker:
			return b.ctrl.ProcessBuyTicker(c)
		case model.ExpectingBuyQuantity:
			return b.ctrl.ProcessBuyQuantity(c)
		case model.ExpectingSellQuantity:
			return b.ctrl.ProcessSellQuantity(c)
		case model.ExpectingJumpDate:
			return b.ctrl.ProcessJumpDate(c)
		case model.ExpectingPinTicker:
			return b.ctrl.ProcessPinTicker(c)
		default:
			return c.Send("use the buttons below the portfolio, or /portfolio to show it")
		}
	})

	b.bot.Handle("/start", b.ctrl.Start)
	b.bot.Handle("/portfolio", b.ctrl.Portfolio)
	b.bot.Handle("/reset", b.ctrl.Reset)
	b.bot.Handle("/report", b.ctrl.Report)

	b.bot.Handle(&tele.Btn{Unique: tgCallback.AdvanceTick}, b.ctrl.AdvanceTick)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.JumpWeek}, b.ctrl.JumpWeek)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.JumpMonth}, b.ctrl.JumpMonth)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.JumpYear}, b.ctrl.JumpYear)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.SkipWeekend}, b.ctrl.SkipWeekend)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.JumpDate}, b.ctrl.InitJumpDate)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.Buy}, b.ctrl.InitBuy)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.Sell}, b.ctrl.InitSell)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.SellAll}, b.ctrl.SellAll)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.Pin}, b.ctrl.InitPin)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.Unpin}, b.ctrl.Unpin)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.Chart}, b.ctrl.SymbolChart)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.ValueChart}, b.ctrl.ValueChart)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.Report}, b.ctrl.Report)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.Reset}, b.ctrl.Reset)
}
