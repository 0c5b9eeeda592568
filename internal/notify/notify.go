// Package notify registers reminders with the host notification subsystem,
// or fires them by polling the clock when the host cannot schedule.
package notify

import (
	"context"
	"errors"
	"time"

	"muadhin/internal/models"
)

var (
	// ErrChannelExists is returned by Host.CreateChannel for a known channel
	// and counts as success.
	ErrChannelExists = errors.New("notification channel already exists")
	// ErrPermissionDenied means the user refused notifications.
	ErrPermissionDenied = errors.New("notification permission denied")
	// ErrSchedulingIO wraps every host registration failure.
	ErrSchedulingIO = errors.New("notification scheduling failed")
)

// Importance levels understood by hosts.
const (
	ImportanceDefault = 3
	ImportanceHigh    = 5
)

// Channel describes a host delivery channel.
type Channel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Importance  int    `json:"importance"`
	Sound       string `json:"sound,omitempty"` // empty selects the system default
	Vibration   bool   `json:"vibration"`
	Lights      bool   `json:"lights"`
}

// PrayerChannel returns the high-priority channel every reminder uses.
func PrayerChannel(id string) Channel {
	return Channel{
		ID:          id,
		Name:        "Prayer Alarms",
		Description: "High priority alerts for prayer times",
		Importance:  ImportanceHigh,
		Vibration:   true,
		Lights:      true,
	}
}

// Registration is one alarm handed to the host.
type Registration struct {
	ID             int32           `json:"id"`
	PrayerID       models.PrayerID `json:"prayer_id"`
	Title          string          `json:"title"`
	Body           string          `json:"body"`
	FireAt         time.Time       `json:"fire_at"`
	ChannelID      string          `json:"channel_id"`
	AllowWhileIdle bool            `json:"allow_while_idle"`
}

// Host is the native notification subsystem.
type Host interface {
	CreateChannel(ctx context.Context, ch Channel) error
	RequestPermission(ctx context.Context) (bool, error)
	ListPending(ctx context.Context, channelID string) ([]int32, error)
	Cancel(ctx context.Context, channelID string, ids []int32) error
	Schedule(ctx context.Context, regs []Registration) error
}

// Replacer is implemented by hosts that can swap a channel's whole pending
// set in one step. Readers never observe the channel half cleared.
type Replacer interface {
	Replace(ctx context.Context, channelID string, regs []Registration) error
}

// Display shows a notification immediately.
type Display interface {
	Show(ctx context.Context, title, body string) error
}

// Permissions is implemented by displays that gate delivery on consent.
type Permissions interface {
	RequestPermission(ctx context.Context) (bool, error)
}

// AlarmSource recomputes the alarm set of the civil day holding day,
// keeping only alarms that fire after ref. ok is false while there is
// nothing to schedule (no location yet, or onboarding unfinished).
type AlarmSource interface {
	AlarmsAt(day, ref time.Time) (alarms []models.AlarmInstant, ok bool)
}

// Scheduler is the capability chosen once at startup.
type Scheduler interface {
	// ScheduleAlarms replaces every registered alarm with alarms.
	ScheduleAlarms(ctx context.Context, alarms []models.AlarmInstant) error
	// RequestPermission returns ErrPermissionDenied when refused.
	RequestPermission(ctx context.Context) error
	// Show fires a notification immediately.
	Show(ctx context.Context, title, body string) error
	// Run blocks until ctx is done.
	Run(ctx context.Context)
	Native() bool
}
