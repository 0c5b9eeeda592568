// Package prayer computes the six daily prayer markers for a location,
// calculation method and civil date.
package prayer

import (
	"errors"
	"fmt"
	"time"

	"muadhin/internal/models"
)

// ErrInvalidInput is matched by every InvalidInputError.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports coordinates, dates or methods the provider cannot
// compute, including locations with no sunrise or sunset on the date.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "prayer times: " + e.Reason
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(format string, args ...any) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}

// Entry is one computed marker.
type Entry struct {
	ID   models.PrayerID
	Time time.Time
}

// Provider computes a day's markers. Implementations must be deterministic.
//
// The civil day is the year, month and day of date in date.Location(); the
// returned times are in that location and strictly increasing in
// models.PrayerOrder.
type Provider interface {
	DailyTimes(coords models.Coordinates, method models.CalculationMethod, date time.Time) ([]Entry, error)
}
