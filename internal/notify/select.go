package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Select picks the scheduler variant once at startup: native when a host is
// available, polling otherwise. The two never run side by side.
func Select(host Host, display Display, source AlarmSource, channelID string, pollInterval time.Duration) Scheduler {
	if display == nil {
		display = LogDisplay{}
	}
	if host != nil {
		log.Info().Str("component", "notify").Str("channel", channelID).Msg("using native scheduling")
		return NewNativeScheduler(host, display, PrayerChannel(channelID))
	}
	log.Warn().Str("component", "notify").Msg("native scheduling unavailable, falling back to polling")
	return NewPollingScheduler(source, display, pollInterval)
}

// LogDisplay writes notifications to the log. It stands in when no chat is
// configured.
type LogDisplay struct{}

func (LogDisplay) Show(ctx context.Context, title, body string) error {
	log.Info().Str("component", "display").Str("title", title).Msg(body)
	return nil
}
