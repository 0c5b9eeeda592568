package models

import (
	"encoding/json"
	"fmt"
)

// Language is a supported UI language.
type Language string

const (
	LangEnglish Language = "en"
	LangArabic  Language = "ar"
)

const (
	// DefaultOffsetMinutes is the first-run reminder lead time.
	DefaultOffsetMinutes = 10
	// MaxOffsetMinutes bounds the lead time. Larger leads would push fajr
	// reminders of early-fajr cities before local midnight, outside the
	// day whose alarms are registered.
	MaxOffsetMinutes = 60
)

// AppSettings is the user's persisted preference record.
type AppSettings struct {
	Method                 CalculationMethod `json:"method"`
	PreAdhanOffsetMinutes  int               `json:"preAdhanOffsetMinutes"`
	EnabledPrayers         map[PrayerID]bool `json:"enabledPrayers"`
	HasCompletedOnboarding bool              `json:"hasCompletedOnboarding"`
	Language               Language          `json:"language"`
}

// DefaultSettings returns the first-run settings: Egyptian method, a ten
// minute lead, every alarmable prayer enabled.
func DefaultSettings() AppSettings {
	enabled := make(map[PrayerID]bool, 5)
	for _, id := range PrayerOrder {
		if id.Alarmable() {
			enabled[id] = true
		}
	}
	return AppSettings{
		Method:                MethodEgyptian,
		PreAdhanOffsetMinutes: DefaultOffsetMinutes,
		EnabledPrayers:        enabled,
		Language:              LangEnglish,
	}
}

// Clone returns a copy that shares no map with s.
func (s AppSettings) Clone() AppSettings {
	out := s
	out.EnabledPrayers = make(map[PrayerID]bool, len(s.EnabledPrayers))
	for k, v := range s.EnabledPrayers {
		out.EnabledPrayers[k] = v
	}
	return out
}

// Validate checks values coming from a user mutation.
func (s AppSettings) Validate() error {
	if !s.Method.Valid() {
		return fmt.Errorf("unknown calculation method %q", s.Method)
	}
	if s.PreAdhanOffsetMinutes < 0 || s.PreAdhanOffsetMinutes > MaxOffsetMinutes {
		return fmt.Errorf("offset %d out of range [0, %d]", s.PreAdhanOffsetMinutes, MaxOffsetMinutes)
	}
	if s.Language != LangEnglish && s.Language != LangArabic {
		return fmt.Errorf("unsupported language %q", s.Language)
	}
	for id := range s.EnabledPrayers {
		if !id.Alarmable() {
			return fmt.Errorf("prayer %q cannot carry an alarm", id)
		}
	}
	return nil
}

// DecodeSettings reads a persisted settings document. Every field that is
// missing or malformed keeps its default; the document as a whole is never
// rejected.
func DecodeSettings(data []byte) AppSettings {
	s := DefaultSettings()
	if len(data) == 0 {
		return s
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return s
	}

	if v, ok := raw["method"]; ok {
		var name string
		if json.Unmarshal(v, &name) == nil {
			if m, err := ParseMethod(name); err == nil {
				s.Method = m
			}
		}
	}
	if v, ok := raw["preAdhanOffsetMinutes"]; ok {
		var n int
		if json.Unmarshal(v, &n) == nil && n >= 0 && n <= MaxOffsetMinutes {
			s.PreAdhanOffsetMinutes = n
		}
	}
	if v, ok := raw["enabledPrayers"]; ok {
		var fields map[string]json.RawMessage
		if json.Unmarshal(v, &fields) == nil {
			for name, fv := range fields {
				id := PrayerID(name)
				var on bool
				if id.Alarmable() && json.Unmarshal(fv, &on) == nil {
					s.EnabledPrayers[id] = on
				}
			}
		}
	}
	if v, ok := raw["hasCompletedOnboarding"]; ok {
		var done bool
		if json.Unmarshal(v, &done) == nil {
			s.HasCompletedOnboarding = done
		}
	}
	if v, ok := raw["language"]; ok {
		var lang string
		if json.Unmarshal(v, &lang) == nil && (Language(lang) == LangEnglish || Language(lang) == LangArabic) {
			s.Language = Language(lang)
		}
	}
	return s
}

// DecodeCity reads a persisted city document. ok is false when the document
// is absent, malformed or carries out-of-range coordinates.
func DecodeCity(data []byte) (City, bool) {
	if len(data) == 0 {
		return City{}, false
	}
	var c City
	if err := json.Unmarshal(data, &c); err != nil {
		return City{}, false
	}
	if c.Name == "" || c.Coords.Validate() != nil {
		return City{}, false
	}
	return c, true
}
