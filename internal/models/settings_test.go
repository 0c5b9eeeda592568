package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, MethodEgyptian, s.Method)
	assert.Equal(t, 10, s.PreAdhanOffsetMinutes)
	assert.False(t, s.HasCompletedOnboarding)
	assert.Len(t, s.EnabledPrayers, 5)
	assert.NotContains(t, s.EnabledPrayers, Sunrise)
	for id, on := range s.EnabledPrayers {
		assert.True(t, on, id)
	}
}

func TestDecodeSettings(t *testing.T) {
	t.Run("empty document", func(t *testing.T) {
		assert.Equal(t, DefaultSettings(), DecodeSettings(nil))
	})

	t.Run("not json", func(t *testing.T) {
		assert.Equal(t, DefaultSettings(), DecodeSettings([]byte("{oops")))
	})

	t.Run("partial document merges over defaults", func(t *testing.T) {
		s := DecodeSettings([]byte(`{"method":"makkah","enabledPrayers":{"asr":false}}`))
		assert.Equal(t, MethodMakkah, s.Method)
		assert.False(t, s.EnabledPrayers[Asr])
		assert.True(t, s.EnabledPrayers[Fajr])
		assert.Equal(t, LangEnglish, s.Language)
	})

	t.Run("malformed fields fall back individually", func(t *testing.T) {
		s := DecodeSettings([]byte(`{
			"method": "LUNAR",
			"preAdhanOffsetMinutes": -5,
			"enabledPrayers": {"sunrise": true, "isha": "yes", "fajr": false},
			"hasCompletedOnboarding": true,
			"language": "fr"
		}`))
		assert.Equal(t, MethodEgyptian, s.Method)
		assert.Equal(t, DefaultOffsetMinutes, s.PreAdhanOffsetMinutes)
		assert.NotContains(t, s.EnabledPrayers, Sunrise)
		assert.True(t, s.EnabledPrayers[Isha])
		assert.False(t, s.EnabledPrayers[Fajr])
		assert.True(t, s.HasCompletedOnboarding)
		assert.Equal(t, LangEnglish, s.Language)
	})

	t.Run("offset above the cap keeps the default", func(t *testing.T) {
		s := DecodeSettings([]byte(`{"preAdhanOffsetMinutes": 120}`))
		assert.Equal(t, DefaultOffsetMinutes, s.PreAdhanOffsetMinutes)
	})

	t.Run("encoded settings decode to themselves", func(t *testing.T) {
		in := DefaultSettings()
		in.Method = MethodTehran
		in.PreAdhanOffsetMinutes = 15
		in.EnabledPrayers[Maghrib] = false
		in.Language = LangArabic
		data, err := json.Marshal(in)
		require.NoError(t, err)
		assert.Equal(t, in, DecodeSettings(data))
	})
}

func TestSettingsValidate(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())

	bad := s.Clone()
	bad.PreAdhanOffsetMinutes = -1
	assert.Error(t, bad.Validate())

	edge := s.Clone()
	edge.PreAdhanOffsetMinutes = 60
	assert.NoError(t, edge.Validate())
	edge.PreAdhanOffsetMinutes = 61
	assert.Error(t, edge.Validate())

	bad = s.Clone()
	bad.EnabledPrayers[Sunrise] = true
	assert.Error(t, bad.Validate())

	bad = s.Clone()
	bad.Method = "X"
	assert.Error(t, bad.Validate())
}

func TestCloneDoesNotShareMap(t *testing.T) {
	s := DefaultSettings()
	c := s.Clone()
	c.EnabledPrayers[Fajr] = false
	assert.True(t, s.EnabledPrayers[Fajr])
}

func TestDecodeCity(t *testing.T) {
	c, ok := DecodeCity([]byte(`{"name":"Cairo","country":"Egypt","coords":{"latitude":30.0444,"longitude":31.2357}}`))
	require.True(t, ok)
	assert.Equal(t, "Cairo", c.Name)
	assert.InDelta(t, 31.2357, c.Coords.Longitude, 1e-9)

	_, ok = DecodeCity([]byte(`{"name":"Nowhere","coords":{"latitude":123,"longitude":0}}`))
	assert.False(t, ok)
	_, ok = DecodeCity(nil)
	assert.False(t, ok)
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod(" isna ")
	require.NoError(t, err)
	assert.Equal(t, MethodISNA, m)

	_, err = ParseMethod("jafari")
	assert.Error(t, err)
}

func TestCoordinatesValidate(t *testing.T) {
	assert.NoError(t, Coordinates{Latitude: 90, Longitude: -180}.Validate())
	assert.Error(t, Coordinates{Latitude: 90.1}.Validate())
	assert.Error(t, Coordinates{Longitude: 181}.Validate())
}
