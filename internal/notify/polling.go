package notify

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"muadhin/internal/alarm"
	"muadhin/internal/models"
)

const (
	minuteKeyLayout = "2006-01-02 15:04"
	// fireWindow is how far into its minute an alarm may sit and still fire.
	fireWindow = 10 * time.Second
	// maxCatchUp caps how many skipped minutes a late tick replays.
	maxCatchUp = 10
)

// PollingScheduler fires reminders itself by watching minute boundaries.
// It keeps no registered set: every evaluated minute rederives alarms from
// the source.
type PollingScheduler struct {
	source   AlarmSource
	display  Display
	interval time.Duration
	now      func() time.Time

	mu         sync.Mutex
	lastMinute string // minute key of the last evaluated tick
	fired      map[string]time.Time
}

func NewPollingScheduler(source AlarmSource, display Display, interval time.Duration) *PollingScheduler {
	return &PollingScheduler{
		source:   source,
		display:  display,
		interval: interval,
		now:      time.Now,
		fired:    make(map[string]time.Time),
	}
}

func (p *PollingScheduler) Native() bool { return false }

// ScheduleAlarms is a no-op: the next tick rederives alarms from the source.
func (p *PollingScheduler) ScheduleAlarms(ctx context.Context, alarms []models.AlarmInstant) error {
	return nil
}

func (p *PollingScheduler) RequestPermission(ctx context.Context) error {
	perm, ok := p.display.(Permissions)
	if !ok {
		return nil
	}
	granted, err := perm.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("request permission: %w", err)
	}
	if !granted {
		return ErrPermissionDenied
	}
	return nil
}

func (p *PollingScheduler) Show(ctx context.Context, title, body string) error {
	return p.display.Show(ctx, title, body)
}

// Run ticks every interval until ctx is done.
func (p *PollingScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log.Info().Str("component", "polling").Dur("interval", p.interval).Msg("polling fallback started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("component", "polling").Msg("polling fallback stopped")
			return
		case <-ticker.C:
			p.Tick(ctx, p.now())
		}
	}
}

// Tick evaluates every minute between the previous tick and now, at most
// maxCatchUp of them, and shows the alarms due in each. It returns how many
// notifications were shown. Repeated ticks within one minute do nothing.
func (p *PollingScheduler) Tick(ctx context.Context, now time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := now.Truncate(time.Minute)
	key := current.Format(minuteKeyLayout)
	if key == p.lastMinute {
		return 0
	}

	minutes := []time.Time{current}
	if last, err := time.ParseInLocation(minuteKeyLayout, p.lastMinute, now.Location()); err == nil && last.Before(current) {
		minutes = minutes[:0]
		start := last.Add(time.Minute)
		if earliest := current.Add(-(maxCatchUp - 1) * time.Minute); start.Before(earliest) {
			start = earliest
		}
		for m := start; !m.After(current); m = m.Add(time.Minute) {
			minutes = append(minutes, m)
		}
	}
	p.lastMinute = key

	shown := 0
	for _, m := range minutes {
		shown += p.fireMinute(ctx, m)
	}
	p.prune(now)
	return shown
}

func (p *PollingScheduler) fireMinute(ctx context.Context, minute time.Time) int {
	// the reference sits just before the minute so alarms due exactly on it
	// survive, but the day is the minute's own: at 00:00 the previous
	// instant belongs to yesterday.
	alarms, ok := p.source.AlarmsAt(minute, minute.Add(-time.Nanosecond))
	if !ok {
		return 0
	}
	shown := 0
	for _, a := range alarm.Due(alarms, minute, minute.Add(fireWindow)) {
		k := strconv.FormatInt(int64(a.ID), 10) + "@" + a.FireAt.Format(time.RFC3339)
		if _, done := p.fired[k]; done {
			continue
		}
		p.fired[k] = a.FireAt
		if err := p.display.Show(ctx, a.Title, a.Body); err != nil {
			log.Error().Err(err).Str("component", "polling").Str("prayer", string(a.PrayerID)).Msg("show reminder")
			continue
		}
		log.Info().Str("component", "polling").Str("prayer", string(a.PrayerID)).Time("fire_at", a.FireAt).Msg("reminder shown")
		shown++
	}
	return shown
}

// prune forgets fired alarms older than a day.
func (p *PollingScheduler) prune(now time.Time) {
	for k, at := range p.fired {
		if now.Sub(at) > 24*time.Hour {
			delete(p.fired, k)
		}
	}
}
