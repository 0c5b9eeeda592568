package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"muadhin/internal/app"
	"muadhin/internal/locale"
	"muadhin/internal/models"
	"muadhin/internal/schedule"
)

func (b *Bot) handleStart(c tele.Context) error {
	log.Info().Str("component", "bot").Int64("user", c.Sender().ID).Str("username", c.Sender().Username).Msg("/start")
	ctx := context.Background()
	if err := b.linker.SetChat(ctx, c.Chat().ID); err != nil {
		log.Error().Err(err).Str("component", "bot").Msg("link chat")
		return c.Send(msgError)
	}
	if err := b.linker.SetPermission(ctx, true); err != nil {
		log.Error().Err(err).Str("component", "bot").Msg("grant permission")
		return c.Send(msgError)
	}
	texts := b.state.Texts()
	return c.Send(texts.Subscribed+"\n\n"+msgHelp, tele.ModeHTML, mainMenu)
}

func (b *Bot) handleHelp(c tele.Context) error {
	log.Info().Str("component", "bot").Int64("user", c.Sender().ID).Msg("/help")
	return c.Send(msgHelp, htmlOpts)
}

func (b *Bot) handleStop(c tele.Context) error {
	log.Info().Str("component", "bot").Int64("user", c.Sender().ID).Msg("/stop")
	if err := b.linker.SetPermission(context.Background(), false); err != nil {
		log.Error().Err(err).Str("component", "bot").Msg("revoke permission")
		return c.Send(msgError)
	}
	return c.Send(b.state.Texts().Unsubscribed)
}

// handleTimes reloads the shared state first; settings are edited by the
// API service.
func (b *Bot) handleTimes(c tele.Context) error {
	log.Info().Str("component", "bot").Int64("user", c.Sender().ID).Msg("/times")
	if err := b.state.Load(context.Background()); err != nil {
		log.Warn().Err(err).Str("component", "bot").Msg("reload state, using cached copy")
	}

	texts := b.state.Texts()
	city, ok := b.state.City()
	if !ok {
		return c.Send(texts.NoCity)
	}
	now := b.now()
	events, err := b.state.Schedule(now)
	if len(events) == 0 {
		if err != nil && !errors.Is(err, app.ErrNoCity) {
			log.Warn().Err(err).Str("component", "bot").Str("city", city.Name).Msg("schedule unavailable")
		}
		return c.Send(texts.InvalidInput)
	}
	return c.Send(formatTimes(texts, city, b.state.Settings().Method, events, now, err != nil), htmlOpts)
}

func (b *Bot) handleTest(c tele.Context) error {
	log.Info().Str("component", "bot").Int64("user", c.Sender().ID).Msg("/test")
	texts := b.state.Texts()
	return c.Send(formatNotification(texts.TestTitle, texts.TestBody), htmlOpts)
}

// formatTimes renders the day's schedule with the next prayer highlighted
// and a countdown to it. stale marks a schedule carried over after the
// current date could not be computed.
func formatTimes(texts locale.Texts, city models.City, method models.CalculationMethod, events []models.PrayerEvent, now time.Time, stale bool) string {
	var bld strings.Builder
	bld.WriteString(fmt.Sprintf(msgTimesHeader, html.EscapeString(city.Name), html.EscapeString(city.Country), method.Title()))

	for _, e := range events {
		line := msgTimesLine
		if e.IsNext {
			line = msgTimesLineNext
		}
		other := e.NameArabic
		if texts.Lang == models.LangArabic {
			other = e.NameEnglish
		}
		bld.WriteString(fmt.Sprintf(line, texts.Name(e.ID), e.Time.Format("15:04"), other))
	}

	if next, ok := schedule.Next(events); ok {
		bld.WriteString(fmt.Sprintf(msgTimesNext, texts.NextPrayer, texts.Name(next.ID), schedule.Countdown(events, now)))
	} else {
		bld.WriteString("\n" + texts.AllPassed)
	}
	if stale {
		bld.WriteString(fmt.Sprintf(msgTimesStale, texts.InvalidInput))
	}
	return bld.String()
}

func formatNotification(title, body string) string {
	return fmt.Sprintf(msgNotification, html.EscapeString(title), html.EscapeString(body))
}
