package models

import (
	"fmt"
	"strings"
	"time"
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate reports whether both components are inside their ranges.
func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 || c.Latitude != c.Latitude {
		return fmt.Errorf("latitude %v out of range [-90, 90]", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 || c.Longitude != c.Longitude {
		return fmt.Errorf("longitude %v out of range [-180, 180]", c.Longitude)
	}
	return nil
}

// CalculationMethod selects the astronomical convention used for fajr, isha and asr.
type CalculationMethod string

const (
	MethodMWL      CalculationMethod = "MWL"
	MethodISNA     CalculationMethod = "ISNA"
	MethodEgyptian CalculationMethod = "EGYPTIAN"
	MethodMakkah   CalculationMethod = "MAKKAH"
	MethodKarachi  CalculationMethod = "KARACHI"
	MethodTehran   CalculationMethod = "TEHRAN"
)

// Methods lists every supported method in display order.
var Methods = []CalculationMethod{
	MethodEgyptian, MethodMWL, MethodISNA, MethodMakkah, MethodKarachi, MethodTehran,
}

var methodTitles = map[CalculationMethod]string{
	MethodEgyptian: "Egyptian General Authority",
	MethodMWL:      "Muslim World League",
	MethodISNA:     "ISNA (North America)",
	MethodMakkah:   "Umm Al-Qura (Makkah)",
	MethodKarachi:  "Karachi (Hanfi)",
	MethodTehran:   "Tehran (Institute of Geophysics)",
}

// Title returns the human-readable method name.
func (m CalculationMethod) Title() string {
	if t, ok := methodTitles[m]; ok {
		return t
	}
	return string(m)
}

// Valid reports whether m is one of the supported methods.
func (m CalculationMethod) Valid() bool {
	_, ok := methodTitles[m]
	return ok
}

// ParseMethod accepts a method name in any letter case.
func ParseMethod(s string) (CalculationMethod, error) {
	m := CalculationMethod(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown calculation method %q", s)
	}
	return m, nil
}

// PrayerID identifies one of the six daily markers.
type PrayerID string

const (
	Fajr    PrayerID = "fajr"
	Sunrise PrayerID = "sunrise"
	Dhuhr   PrayerID = "dhuhr"
	Asr     PrayerID = "asr"
	Maghrib PrayerID = "maghrib"
	Isha    PrayerID = "isha"
)

// PrayerOrder is the fixed chronological order of a day's markers.
var PrayerOrder = []PrayerID{Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha}

// Alarmable reports whether reminders may be scheduled for the marker.
// Sunrise is shown in the timeline but never alarmed.
func (id PrayerID) Alarmable() bool {
	switch id {
	case Fajr, Dhuhr, Asr, Maghrib, Isha:
		return true
	}
	return false
}

// Valid reports whether id is one of the six markers.
func (id PrayerID) Valid() bool {
	return id == Sunrise || id.Alarmable()
}

// PrayerEvent is one entry of a daily schedule.
type PrayerEvent struct {
	ID             PrayerID  `json:"id"`
	DisplayNameKey string    `json:"display_name_key"`
	NameEnglish    string    `json:"name_english"`
	NameArabic     string    `json:"name_arabic"`
	Time           time.Time `json:"time"`
	IsNext         bool      `json:"is_next"`
}

// AlarmInstant is a derived reminder. It is recomputed on every trigger and
// never persisted.
type AlarmInstant struct {
	ID         int32     `json:"id"`
	PrayerID   PrayerID  `json:"prayer_id"`
	PrayerTime time.Time `json:"prayer_time"`
	FireAt     time.Time `json:"fire_at"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
}

// City is the selected location.
type City struct {
	Name    string      `json:"name"`
	Country string      `json:"country"`
	Coords  Coordinates `json:"coords"`
}
