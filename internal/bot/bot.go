package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"muadhin/internal/app"
	"muadhin/internal/cache"
)

// Linker records which chat receives reminders and whether delivery is
// allowed. *cache.Cache implements it.
type Linker interface {
	SetChat(ctx context.Context, chatID int64) error
	SetPermission(ctx context.Context, granted bool) error
	Permission(ctx context.Context) (bool, error)
}

var _ Linker = (*cache.Cache)(nil)

// Bot wraps the Telegram bot. It reads the shared state to answer queries
// and links the chat that reminders are delivered to.
type Bot struct {
	bot    *tele.Bot
	state  *app.State
	linker Linker
	now    func() time.Time
}

var htmlOpts = &tele.SendOptions{ParseMode: tele.ModeHTML}

var mainMenu = &tele.ReplyMarkup{
	ResizeKeyboard: true,
	ReplyKeyboard: [][]tele.ReplyButton{
		{{Text: menuBtnTimes}, {Text: menuBtnTest}},
		{{Text: menuBtnStop}, {Text: menuBtnHelp}},
	},
}

// New creates and configures the Telegram bot.
func New(token string, state *app.State, linker Linker) (*Bot, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	bot := &Bot{
		bot:    b,
		state:  state,
		linker: linker,
		now:    time.Now,
	}

	bot.registerHandlers()

	if err := b.SetCommands([]tele.Command{
		{Text: "times", Description: "Today's prayer times"},
		{Text: "test", Description: "Send a test notification"},
		{Text: "start", Description: "Turn reminders on for this chat"},
		{Text: "stop", Description: "Turn reminders off"},
		{Text: "help", Description: "Command help"},
	}); err != nil {
		log.Warn().Err(err).Str("component", "bot").Msg("failed to set commands")
	}

	return bot, nil
}

// NewSender returns a bot that only sends messages and never polls.
func NewSender(token string) (*tele.Bot, error) {
	b, err := tele.NewBot(tele.Settings{Token: token, Offline: true})
	if err != nil {
		return nil, fmt.Errorf("create sender: %w", err)
	}
	return b, nil
}

// Start begins polling for Telegram updates. Call as a goroutine.
func (b *Bot) Start() {
	log.Info().Str("component", "bot").Msg("starting Telegram bot polling")
	b.bot.Start()
}

// Stop gracefully stops the bot.
func (b *Bot) Stop() {
	b.bot.Stop()
}

// TeleBot returns the underlying telebot instance (used by the listener).
func (b *Bot) TeleBot() *tele.Bot {
	return b.bot
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.handleStart)
	b.bot.Handle("/stop", b.handleStop)
	b.bot.Handle("/times", b.handleTimes)
	b.bot.Handle("/test", b.handleTest)
	b.bot.Handle("/help", b.handleHelp)

	b.bot.Handle(tele.OnText, b.handleMenuButton)
}

func (b *Bot) handleMenuButton(c tele.Context) error {
	switch c.Text() {
	case menuBtnTimes:
		return b.handleTimes(c)
	case menuBtnTest:
		return b.handleTest(c)
	case menuBtnStop:
		return b.handleStop(c)
	case menuBtnHelp:
		return b.handleHelp(c)
	}
	return nil
}
