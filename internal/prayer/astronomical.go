package prayer

import (
	"math"
	"time"

	"github.com/mnadev/adhango/pkg/calc"
	"github.com/mnadev/adhango/pkg/data"
	"github.com/mnadev/adhango/pkg/util"

	"muadhin/internal/models"
)

const (
	// highLatitude is where fajr and isha are bounded by a seventh of the
	// night instead of half of it.
	highLatitude = 48

	minYear = 1900
	maxYear = 2200
)

// Astronomical computes prayer times with adhango.
//
// Extreme latitudes: when the sun never reaches the fajr or isha depression,
// or when |latitude| >= 48 and the computed time lies beyond the bound, fajr
// is placed one seventh of the night before sunrise and isha one seventh of
// the night after sunset. Days without a sunrise or a sunset fail with
// InvalidInputError, as do days whose markers would leave the civil day.
type Astronomical struct{}

// NewAstronomical returns the default provider.
func NewAstronomical() *Astronomical {
	return &Astronomical{}
}

// compute returns fajr, sunrise, dhuhr, asr, maghrib and isha in UTC.
// ishaAngle overrides the method's isha depression when positive.
func compute(coords models.Coordinates, day time.Time, m methodConfig, ishaAngle float64) ([6]time.Time, error) {
	var out [6]time.Time
	c, err := util.NewCoordinates(coords.Latitude, coords.Longitude)
	if err != nil {
		return out, invalid("%v", err)
	}

	params := calc.GetMethodParameters(m.preset)
	if m.fajrAngle > 0 {
		params.FajrAngle = m.fajrAngle
	}
	if ishaAngle > 0 {
		params.IshaAngle = ishaAngle
	}
	params.HighLatitudeRule = calc.MIDDLE_OF_THE_NIGHT
	if math.Abs(coords.Latitude) >= highLatitude {
		params.HighLatitudeRule = calc.SEVENTH_OF_THE_NIGHT
	}

	pt, err := calc.NewPrayerTimes(c, data.NewDateComponents(day), params)
	if err != nil {
		return out, invalid("no sunrise or sunset at latitude %.4f on %s: %v", coords.Latitude, day.Format("2006-01-02"), err)
	}
	out = [6]time.Time{pt.Fajr, pt.Sunrise, pt.Dhuhr, pt.Asr, pt.Maghrib, pt.Isha}
	for _, t := range out {
		if t.IsZero() {
			return out, invalid("no sunrise or sunset at latitude %.4f on %s", coords.Latitude, day.Format("2006-01-02"))
		}
	}
	return out, nil
}

// DailyTimes implements Provider.
func (a *Astronomical) DailyTimes(coords models.Coordinates, method models.CalculationMethod, date time.Time) ([]Entry, error) {
	if err := coords.Validate(); err != nil {
		return nil, invalid("%v", err)
	}
	m, ok := methods[method]
	if !ok {
		return nil, invalid("unknown calculation method %q", method)
	}
	loc := date.Location()
	y, mo, d := date.Date()
	if y < minYear || y > maxYear {
		return nil, invalid("year %d outside %d..%d", y, minYear, maxYear)
	}
	day := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)

	t, err := compute(coords, day, m, m.ishaAngle)
	if err != nil {
		return nil, err
	}
	if m.maghribAngle > 0 {
		// maghrib at a depression is isha computed at that angle
		dusk, err := compute(coords, day, m, m.maghribAngle)
		if err == nil && dusk[5].After(t[4]) && dusk[5].Before(t[5]) {
			t[4] = dusk[5]
		}
	}

	entries := make([]Entry, len(t))
	for i, at := range t {
		entries[i] = Entry{ID: models.PrayerOrder[i], Time: at.Round(time.Minute).In(loc)}
	}
	for i, e := range entries {
		ey, em, ed := e.Time.Date()
		if ey != y || em != mo || ed != d {
			return nil, invalid("%s at %s falls outside %04d-%02d-%02d", e.ID, e.Time.Format(time.RFC3339), y, mo, d)
		}
		if i > 0 && !e.Time.After(entries[i-1].Time) {
			return nil, invalid("%s does not follow %s at latitude %.4f", e.ID, entries[i-1].ID, coords.Latitude)
		}
	}
	return entries, nil
}
