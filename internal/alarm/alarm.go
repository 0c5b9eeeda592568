// Package alarm derives the reminder instants to register for a day.
package alarm

import (
	"time"

	"github.com/cespare/xxhash/v2"

	"muadhin/internal/locale"
	"muadhin/internal/models"
)

// ID returns the registration id of a reminder. It hashes the prayer, its
// civil date and the fire minute, so ids stay stable across recomputations
// and differ between days.
func ID(prayerID models.PrayerID, prayerTime, fireAt time.Time) int32 {
	key := string(prayerID) + "|" + prayerTime.Format("2006-01-02") + "|" + fireAt.Format("15:04")
	return int32(xxhash.Sum64String(key) & 0x7fffffff)
}

// Derive returns one reminder per enabled alarmable event whose fire time,
// the event minus offsetMinutes, is strictly after ref. The result is a
// complete replacement set.
func Derive(events []models.PrayerEvent, enabled map[models.PrayerID]bool, offsetMinutes int, ref time.Time, texts locale.Texts) []models.AlarmInstant {
	if offsetMinutes < 0 {
		offsetMinutes = 0
	}
	lead := time.Duration(offsetMinutes) * time.Minute

	var out []models.AlarmInstant
	for _, e := range events {
		if !e.ID.Alarmable() || !enabled[e.ID] {
			continue
		}
		fireAt := e.Time.Add(-lead)
		if !fireAt.After(ref) {
			continue
		}
		out = append(out, models.AlarmInstant{
			ID:         ID(e.ID, e.Time, fireAt),
			PrayerID:   e.ID,
			PrayerTime: e.Time,
			FireAt:     fireAt,
			Title:      texts.UpcomingPrayer,
			Body:       texts.AlarmBody(offsetMinutes, e.ID),
		})
	}
	return out
}

// Due returns the alarms whose fire time lies in [from, to).
func Due(alarms []models.AlarmInstant, from, to time.Time) []models.AlarmInstant {
	var out []models.AlarmInstant
	for _, a := range alarms {
		if !a.FireAt.Before(from) && a.FireAt.Before(to) {
			out = append(out, a)
		}
	}
	return out
}
