// Package schedule turns provider output into a displayable day of prayer
// events and tracks which one is next.
package schedule

import (
	"fmt"
	"time"

	"muadhin/internal/locale"
	"muadhin/internal/models"
	"muadhin/internal/prayer"
)

// Build computes the day containing date and marks the first event strictly
// after ref as next. Errors from the provider are returned unchanged.
func Build(p prayer.Provider, coords models.Coordinates, method models.CalculationMethod, date, ref time.Time) ([]models.PrayerEvent, error) {
	entries, err := p.DailyTimes(coords, method, date)
	if err != nil {
		return nil, err
	}
	events := make([]models.PrayerEvent, 0, len(entries))
	for _, e := range entries {
		events = append(events, models.PrayerEvent{
			ID:             e.ID,
			DisplayNameKey: string(e.ID),
			NameEnglish:    locale.EnglishName(e.ID),
			NameArabic:     locale.ArabicName(e.ID),
			Time:           e.Time,
		})
	}
	return MarkNext(events, ref), nil
}

// MarkNext returns a copy of events with IsNext recomputed against ref.
func MarkNext(events []models.PrayerEvent, ref time.Time) []models.PrayerEvent {
	out := make([]models.PrayerEvent, len(events))
	copy(out, events)
	marked := false
	for i := range out {
		out[i].IsNext = !marked && out[i].Time.After(ref)
		if out[i].IsNext {
			marked = true
		}
	}
	return out
}

// Next returns the event marked next, if any.
func Next(events []models.PrayerEvent) (models.PrayerEvent, bool) {
	for _, e := range events {
		if e.IsNext {
			return e, true
		}
	}
	return models.PrayerEvent{}, false
}

// Countdown formats the time left until the next event as HH:MM:SS, or
// "---" when every event of the day has passed.
func Countdown(events []models.PrayerEvent, now time.Time) string {
	next, ok := Next(MarkNext(events, now))
	if !ok {
		return "---"
	}
	left := next.Time.Sub(now).Truncate(time.Second)
	h := int(left.Hours())
	m := int(left.Minutes()) % 60
	s := int(left.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
