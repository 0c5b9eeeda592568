// Package app owns the user's settings and location and runs the
// recompute-and-resubmit cycle after every change.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"muadhin/internal/alarm"
	"muadhin/internal/database"
	"muadhin/internal/locale"
	"muadhin/internal/models"
	"muadhin/internal/notify"
	"muadhin/internal/prayer"
	"muadhin/internal/schedule"
)

var (
	ErrInvalidSettings = errors.New("invalid settings")
	ErrNotAlarmable    = errors.New("prayer cannot carry an alarm")
	ErrNoCity          = errors.New("no location selected")
)

// Snapshot is the mutable part of the state handed to Update.
type Snapshot struct {
	Settings models.AppSettings
	City     *models.City
}

// State is the single owner of settings and location. Every mutation goes
// through Update, which persists the change and resubmits alarms before
// returning, so a later change always wins over an earlier one.
type State struct {
	store    database.Store
	provider prayer.Provider
	loc      *time.Location
	now      func() time.Time

	mu        sync.Mutex
	sched     notify.Scheduler
	settings  models.AppSettings
	city      *models.City
	lastGood  []models.PrayerEvent
	lastCycle string // local date of the last completed cycle
}

func New(store database.Store, provider prayer.Provider, loc *time.Location) *State {
	if loc == nil {
		loc = time.Local
	}
	return &State{
		store:    store,
		provider: provider,
		loc:      loc,
		now:      time.Now,
		settings: models.DefaultSettings(),
	}
}

// SetScheduler sets the scheduler (used to break the circular dependency
// with the polling variant at startup).
func (s *State) SetScheduler(sched notify.Scheduler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sched = sched
}

// Load reads the persisted documents. Missing or malformed documents leave
// the defaults in place.
func (s *State) Load(ctx context.Context) error {
	settingsDoc, err := s.store.GetDocument(ctx, database.SettingsKey)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	cityDoc, err := s.store.GetDocument(ctx, database.CityKey)
	if err != nil {
		return fmt.Errorf("load city: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = models.DecodeSettings(settingsDoc)
	s.city = nil
	if c, ok := models.DecodeCity(cityDoc); ok {
		s.city = &c
	}
	log.Info().Str("component", "app").
		Str("method", string(s.settings.Method)).
		Bool("city", s.city != nil).
		Bool("onboarded", s.settings.HasCompletedOnboarding).
		Msg("state loaded")
	return nil
}

// Settings returns a copy of the current settings.
func (s *State) Settings() models.AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Clone()
}

// City returns the selected location.
func (s *State) City() (models.City, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.city == nil {
		return models.City{}, false
	}
	return *s.city, true
}

// Update applies fn to a copy of the state, validates and persists the
// result, then runs one full recompute-and-resubmit cycle. Nothing changes
// when fn, validation or persistence fails.
func (s *State) Update(ctx context.Context, fn func(*Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Settings: s.settings.Clone()}
	if s.city != nil {
		c := *s.city
		snap.City = &c
	}
	if err := fn(&snap); err != nil {
		return err
	}
	if err := snap.Settings.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if snap.City != nil {
		if err := snap.City.Coords.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
		}
	}

	if err := s.persist(ctx, database.SettingsKey, snap.Settings); err != nil {
		return err
	}
	cityChanged := snap.City != nil && (s.city == nil || *snap.City != *s.city)
	if cityChanged {
		if err := s.persist(ctx, database.CityKey, snap.City); err != nil {
			return err
		}
	}

	s.settings = snap.Settings
	s.city = snap.City
	if cityChanged {
		s.lastGood = nil
	}
	s.cycleLocked(ctx, s.now())
	return nil
}

func (s *State) persist(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.store.PutDocument(ctx, key, data); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// SelectCity replaces the location.
func (s *State) SelectCity(ctx context.Context, city models.City) error {
	return s.Update(ctx, func(snap *Snapshot) error {
		snap.City = &city
		return nil
	})
}

// TogglePrayer enables or disables a prayer's reminder. Enabling asks for
// notification permission first; on refusal the flag is left unchanged and
// notify.ErrPermissionDenied is returned.
func (s *State) TogglePrayer(ctx context.Context, id models.PrayerID, enabled bool) error {
	if !id.Alarmable() {
		return fmt.Errorf("%w: %s", ErrNotAlarmable, id)
	}
	if enabled {
		if err := s.requestPermission(ctx); err != nil {
			return err
		}
	}
	return s.Update(ctx, func(snap *Snapshot) error {
		snap.Settings.EnabledPrayers[id] = enabled
		return nil
	})
}

// SettingsPatch is a partial settings change; nil fields are left alone.
type SettingsPatch struct {
	Method                *string         `json:"method"`
	PreAdhanOffsetMinutes *int            `json:"preAdhanOffsetMinutes"`
	Language              *string         `json:"language"`
	EnabledPrayers        map[string]bool `json:"enabledPrayers"`
}

// UpdateSettings applies a patch. Turning any reminder on asks for
// permission first, as TogglePrayer does.
func (s *State) UpdateSettings(ctx context.Context, p SettingsPatch) error {
	current := s.Settings()
	for name, on := range p.EnabledPrayers {
		id := models.PrayerID(name)
		if !id.Alarmable() {
			return fmt.Errorf("%w: %s", ErrNotAlarmable, name)
		}
		if on && !current.EnabledPrayers[id] {
			if err := s.requestPermission(ctx); err != nil {
				return err
			}
			break
		}
	}

	return s.Update(ctx, func(snap *Snapshot) error {
		if p.Method != nil {
			m, err := models.ParseMethod(*p.Method)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
			}
			snap.Settings.Method = m
		}
		if p.PreAdhanOffsetMinutes != nil {
			snap.Settings.PreAdhanOffsetMinutes = *p.PreAdhanOffsetMinutes
		}
		if p.Language != nil {
			snap.Settings.Language = models.Language(*p.Language)
		}
		for name, on := range p.EnabledPrayers {
			snap.Settings.EnabledPrayers[models.PrayerID(name)] = on
		}
		return nil
	})
}

// CompleteOnboarding marks onboarding done; reminders start once a city is
// also selected.
func (s *State) CompleteOnboarding(ctx context.Context) error {
	return s.Update(ctx, func(snap *Snapshot) error {
		snap.Settings.HasCompletedOnboarding = true
		return nil
	})
}

// Refresh runs the cycle with the current state.
func (s *State) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycleLocked(ctx, s.now())
}

// RunDaily reruns the cycle whenever the local date changes, checking every
// interval until ctx is done.
func (s *State) RunDaily(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Str("component", "app").Dur("interval", interval).Msg("daily re-trigger started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("component", "app").Msg("daily re-trigger stopped")
			return
		case <-ticker.C:
			s.refreshIfNewDay(ctx, s.now())
		}
	}
}

func (s *State) refreshIfNewDay(ctx context.Context, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.In(s.loc).Format(time.DateOnly) == s.lastCycle {
		return false
	}
	s.cycleLocked(ctx, now)
	return true
}

// cycleLocked recomputes today's alarms and submits them as a complete
// replacement set. Scheduling failures are logged; the next cycle retries.
func (s *State) cycleLocked(ctx context.Context, now time.Time) {
	if s.city == nil || !s.settings.HasCompletedOnboarding || s.sched == nil {
		return
	}
	now = now.In(s.loc)
	s.lastCycle = now.Format(time.DateOnly)

	events, err := schedule.Build(s.provider, s.city.Coords, s.settings.Method, now, now)
	var alarms []models.AlarmInstant
	if err != nil {
		// stale alarms from a previous location must not fire
		log.Warn().Err(err).Str("component", "app").Str("city", s.city.Name).Msg("cannot compute schedule, clearing alarms")
	} else {
		s.lastGood = events
		alarms = alarm.Derive(events, s.settings.EnabledPrayers, s.settings.PreAdhanOffsetMinutes, now, locale.For(s.settings.Language))
	}

	if err := s.sched.ScheduleAlarms(ctx, alarms); err != nil {
		log.Error().Err(err).Str("component", "app").Int("alarms", len(alarms)).Msg("alarm registration failed, will retry on next change")
		return
	}
	log.Debug().Str("component", "app").Int("alarms", len(alarms)).Msg("alarms submitted")
}

// Schedule returns today's events with the next one marked against now.
// When the provider rejects the input, the last good schedule is returned
// along with the error.
func (s *State) Schedule(now time.Time) ([]models.PrayerEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.city == nil {
		return nil, ErrNoCity
	}
	now = now.In(s.loc)
	events, err := schedule.Build(s.provider, s.city.Coords, s.settings.Method, now, now)
	if err != nil {
		if s.lastGood == nil {
			return nil, err
		}
		return schedule.MarkNext(s.lastGood, now), err
	}
	s.lastGood = events
	return events, nil
}

// AlarmsAt implements notify.AlarmSource.
func (s *State) AlarmsAt(day, ref time.Time) ([]models.AlarmInstant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.city == nil || !s.settings.HasCompletedOnboarding {
		return nil, false
	}
	ref = ref.In(s.loc)
	events, err := schedule.Build(s.provider, s.city.Coords, s.settings.Method, day.In(s.loc), ref)
	if err != nil {
		return nil, false
	}
	return alarm.Derive(events, s.settings.EnabledPrayers, s.settings.PreAdhanOffsetMinutes, ref, locale.For(s.settings.Language)), true
}

// Alarms returns the alarms a cycle at now would register.
func (s *State) Alarms(now time.Time) []models.AlarmInstant {
	alarms, _ := s.AlarmsAt(now, now)
	return alarms
}

// TestNotification asks for permission and shows the localized test
// notification immediately.
func (s *State) TestNotification(ctx context.Context) error {
	if err := s.requestPermission(ctx); err != nil {
		return err
	}
	texts := locale.For(s.Settings().Language)
	sched := s.scheduler()
	if err := sched.Show(ctx, texts.TestTitle, texts.TestBody); err != nil {
		return fmt.Errorf("show test notification: %w", err)
	}
	return nil
}

// Texts returns the string table of the current language.
func (s *State) Texts() locale.Texts {
	return locale.For(s.Settings().Language)
}

func (s *State) scheduler() notify.Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched
}

func (s *State) requestPermission(ctx context.Context) error {
	sched := s.scheduler()
	if sched == nil {
		return notify.ErrPermissionDenied
	}
	return sched.RequestPermission(ctx)
}
