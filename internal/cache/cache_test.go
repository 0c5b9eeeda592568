package cache

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muadhin/internal/models"
	"muadhin/internal/notify"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := New("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func reg(id int32, prayer models.PrayerID, fireAt time.Time) notify.Registration {
	return notify.Registration{
		ID:             id,
		PrayerID:       prayer,
		Title:          "Upcoming Prayer",
		Body:           string(prayer),
		FireAt:         fireAt,
		ChannelID:      "prayer_alarms_v2",
		AllowWhileIdle: true,
	}
}

func TestCreateChannelOnce(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	ch := notify.PrayerChannel("prayer_alarms_v2")

	require.NoError(t, c.CreateChannel(ctx, ch))
	assert.ErrorIs(t, c.CreateChannel(ctx, ch), notify.ErrChannelExists)

	got, err := c.GetChannel(ctx, ch.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, notify.ImportanceHigh, got.Importance)

	missing, err := c.GetChannel(ctx, "other")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPermission(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	granted, err := c.RequestPermission(ctx)
	require.NoError(t, err)
	assert.False(t, granted)

	require.NoError(t, c.SetPermission(ctx, true))
	granted, err = c.RequestPermission(ctx)
	require.NoError(t, err)
	assert.True(t, granted)

	require.NoError(t, c.SetPermission(ctx, false))
	granted, _ = c.RequestPermission(ctx)
	assert.False(t, granted)
}

func TestChat(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	id, err := c.Chat(ctx)
	require.NoError(t, err)
	assert.Zero(t, id)

	require.NoError(t, c.SetChat(ctx, -100200300))
	id, err = c.Chat(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(-100200300), id)
}

func TestScheduleListCancel(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, c.Schedule(ctx, []notify.Registration{
		reg(11, models.Dhuhr, base.Add(20*time.Minute)),
		reg(12, models.Asr, base.Add(3*time.Hour)),
		reg(13, models.Isha, base.Add(8*time.Hour)),
	}))

	ids, err := c.ListPending(ctx, "prayer_alarms_v2")
	require.NoError(t, err)
	assert.Equal(t, []int32{11, 12, 13}, ids)

	other, err := c.ListPending(ctx, "another_channel")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, c.Cancel(ctx, "prayer_alarms_v2", []int32{11, 13}))
	ids, err = c.ListPending(ctx, "prayer_alarms_v2")
	require.NoError(t, err)
	assert.Equal(t, []int32{12}, ids)
}

func TestClaimDue(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, c.Schedule(ctx, []notify.Registration{
		reg(1, models.Fajr, base.Add(-6*time.Hour)),
		reg(2, models.Dhuhr, base),
		reg(3, models.Asr, base.Add(time.Minute)),
	}))

	claimed, err := c.ClaimDue(ctx, "prayer_alarms_v2", base)
	require.NoError(t, err)
	var prayers []string
	for _, r := range claimed {
		prayers = append(prayers, string(r.PrayerID))
		assert.True(t, r.AllowWhileIdle)
	}
	sort.Strings(prayers)
	assert.Equal(t, []string{"dhuhr", "fajr"}, prayers)

	again, err := c.ClaimDue(ctx, "prayer_alarms_v2", base)
	require.NoError(t, err)
	assert.Empty(t, again)

	ids, err := c.ListPending(ctx, "prayer_alarms_v2")
	require.NoError(t, err)
	assert.Equal(t, []int32{3}, ids)
}

func TestNativeSchedulerAgainstRedis(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	s := notify.NewNativeScheduler(c, notify.LogDisplay{}, notify.PrayerChannel("prayer_alarms_v2"))
	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	first := []models.AlarmInstant{
		{ID: 21, PrayerID: models.Dhuhr, FireAt: base.Add(20 * time.Minute)},
		{ID: 22, PrayerID: models.Asr, FireAt: base.Add(3 * time.Hour)},
	}
	require.NoError(t, s.ScheduleAlarms(ctx, first))
	require.NoError(t, s.ScheduleAlarms(ctx, first[1:]))

	ids, err := c.ListPending(ctx, "prayer_alarms_v2")
	require.NoError(t, err)
	assert.Equal(t, []int32{22}, ids)
}

func TestReplace(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	other := reg(9, models.Fajr, base)
	other.ChannelID = "another_channel"
	require.NoError(t, c.Schedule(ctx, []notify.Registration{
		reg(1, models.Dhuhr, base.Add(time.Hour)),
		reg(2, models.Asr, base.Add(3*time.Hour)),
		other,
	}))

	require.NoError(t, c.Replace(ctx, "prayer_alarms_v2", []notify.Registration{
		reg(3, models.Maghrib, base.Add(7*time.Hour)),
	}))
	ids, err := c.ListPending(ctx, "prayer_alarms_v2")
	require.NoError(t, err)
	assert.Equal(t, []int32{3}, ids)

	// payloads of replaced alarms are gone too
	claimed, err := c.ClaimDue(ctx, "prayer_alarms_v2", base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, models.Maghrib, claimed[0].PrayerID)

	ids, err = c.ListPending(ctx, "another_channel")
	require.NoError(t, err)
	assert.Equal(t, []int32{9}, ids)

	require.NoError(t, c.Replace(ctx, "another_channel", nil))
	ids, err = c.ListPending(ctx, "another_channel")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
