// Package dispatch moves alarms that fell due in the Redis registry onto the
// delivery queue.
package dispatch

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"muadhin/internal/mq"
	"muadhin/internal/notify"
)

// Claimer hands out due alarms, each exactly once.
type Claimer interface {
	ClaimDue(ctx context.Context, channelID string, now time.Time) ([]notify.Registration, error)
}

// Publisher delivers a due alarm.
type Publisher interface {
	PublishAlarm(ctx context.Context, msg mq.AlarmDueMsg) error
}

// maxLateness drops alarms claimed long after their fire time (worker down).
const maxLateness = 10 * time.Minute

type Dispatcher struct {
	claimer   Claimer
	publisher Publisher
	channelID string
	now       func() time.Time
}

func New(claimer Claimer, publisher Publisher, channelID string) *Dispatcher {
	return &Dispatcher{
		claimer:   claimer,
		publisher: publisher,
		channelID: channelID,
		now:       time.Now,
	}
}

// Start runs a background loop that claims and publishes due alarms.
func (d *Dispatcher) Start(ctx context.Context, intervalSec int) {
	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	log.Info().Str("component", "worker").Int("interval_sec", intervalSec).Str("channel", d.channelID).Msg("dispatcher started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("component", "worker").Msg("dispatcher stopped")
			return
		case <-ticker.C:
			d.dispatchDue(ctx)
		}
	}
}

// dispatchDue returns the number of alarms published.
func (d *Dispatcher) dispatchDue(ctx context.Context) int {
	now := d.now()
	regs, err := d.claimer.ClaimDue(ctx, d.channelID, now)
	if err != nil {
		log.Error().Err(err).Str("component", "worker").Msg("claim due alarms")
	}

	published := 0
	for _, r := range regs {
		if late := now.Sub(r.FireAt); late > maxLateness {
			log.Warn().Str("component", "worker").Int32("alarm", r.ID).Dur("late", late).Msg("dropping stale alarm")
			continue
		}
		msg := mq.AlarmDueMsg{
			AlarmID:   r.ID,
			ChannelID: r.ChannelID,
			PrayerID:  r.PrayerID,
			Title:     r.Title,
			Body:      r.Body,
			FireAt:    r.FireAt,
		}
		if err := d.publisher.PublishAlarm(ctx, msg); err != nil {
			log.Error().Err(err).Str("component", "worker").Int32("alarm", r.ID).Msg("publish due alarm")
			continue
		}
		log.Info().Str("component", "worker").Int32("alarm", r.ID).Str("prayer", string(r.PrayerID)).Msg("alarm dispatched")
		published++
	}
	return published
}
