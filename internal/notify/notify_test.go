package notify

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muadhin/internal/alarm"
	"muadhin/internal/locale"
	"muadhin/internal/models"
)

type fakeHost struct {
	mu          sync.Mutex
	channels    map[string]Channel
	createCalls int
	pending     map[int32]Registration
	granted     bool
	failList    error
	failSched   error
	calls       []string
}

func newFakeHost() *fakeHost {
	return &fakeHost{channels: map[string]Channel{}, pending: map[int32]Registration{}, granted: true}
}

func (h *fakeHost) CreateChannel(_ context.Context, ch Channel) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.createCalls++
	h.calls = append(h.calls, "create")
	if _, ok := h.channels[ch.ID]; ok {
		return ErrChannelExists
	}
	h.channels[ch.ID] = ch
	return nil
}

func (h *fakeHost) RequestPermission(context.Context) (bool, error) {
	return h.granted, nil
}

func (h *fakeHost) ListPending(_ context.Context, channelID string) ([]int32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, "list")
	if h.failList != nil {
		return nil, h.failList
	}
	var ids []int32
	for id, r := range h.pending {
		if r.ChannelID == channelID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (h *fakeHost) Cancel(_ context.Context, _ string, ids []int32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, "cancel")
	for _, id := range ids {
		delete(h.pending, id)
	}
	return nil
}

func (h *fakeHost) Schedule(_ context.Context, regs []Registration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, "schedule")
	if h.failSched != nil {
		return h.failSched
	}
	for _, r := range regs {
		h.pending[r.ID] = r
	}
	return nil
}

func (h *fakeHost) pendingPrayers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, r := range h.pending {
		out = append(out, string(r.PrayerID))
	}
	sort.Strings(out)
	return out
}

// replacingHost swaps the pending set in one call.
type replacingHost struct {
	*fakeHost
}

func (h replacingHost) Replace(_ context.Context, channelID string, regs []Registration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, "replace")
	for id, r := range h.pending {
		if r.ChannelID == channelID {
			delete(h.pending, id)
		}
	}
	for _, r := range regs {
		h.pending[r.ID] = r
	}
	return nil
}

type recordingDisplay struct {
	mu     sync.Mutex
	shown  []string
	denied bool
}

func (d *recordingDisplay) Show(_ context.Context, title, body string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown = append(d.shown, body)
	return nil
}

func (d *recordingDisplay) RequestPermission(context.Context) (bool, error) {
	return !d.denied, nil
}

var en = locale.For(models.LangEnglish)

func at(clock string) time.Time {
	t, err := time.Parse("15:04:05", clock)
	if err != nil {
		panic(err)
	}
	return time.Date(2024, 6, 15, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func dayEvents() []models.PrayerEvent {
	clocks := []string{"04:30:00", "05:50:00", "12:20:00", "15:40:00", "19:05:00", "20:35:00"}
	out := make([]models.PrayerEvent, len(clocks))
	for i, c := range clocks {
		out[i] = models.PrayerEvent{ID: models.PrayerOrder[i], Time: at(c)}
	}
	return out
}

func derive(enabled map[models.PrayerID]bool, offset int, ref time.Time) []models.AlarmInstant {
	return alarm.Derive(dayEvents(), enabled, offset, ref, en)
}

func TestNativeReplacesPendingSet(t *testing.T) {
	host := newFakeHost()
	s := NewNativeScheduler(host, &recordingDisplay{}, PrayerChannel("prayer_alarms_v2"))
	ctx := context.Background()
	enabled := models.DefaultSettings().EnabledPrayers

	require.NoError(t, s.ScheduleAlarms(ctx, derive(enabled, 0, at("00:00:00"))))
	assert.Equal(t, []string{"asr", "dhuhr", "fajr", "isha", "maghrib"}, host.pendingPrayers())

	enabled[models.Asr] = false
	require.NoError(t, s.ScheduleAlarms(ctx, derive(enabled, 10, at("00:00:00"))))
	require.NoError(t, s.ScheduleAlarms(ctx, derive(enabled, 10, at("00:00:00"))))
	assert.Equal(t, []string{"dhuhr", "fajr", "isha", "maghrib"}, host.pendingPrayers())
	for _, r := range host.pending {
		assert.Equal(t, "prayer_alarms_v2", r.ChannelID)
		assert.True(t, r.AllowWhileIdle)
		assert.Equal(t, r.FireAt.Add(10*time.Minute).Format("15:04"),
			map[models.PrayerID]string{"fajr": "04:30", "dhuhr": "12:20", "maghrib": "19:05", "isha": "20:35"}[r.PrayerID])
	}

	require.NoError(t, s.ScheduleAlarms(ctx, nil))
	assert.Empty(t, host.pendingPrayers())
	assert.Equal(t, 1, host.createCalls)
}

func TestNativeCancelsBeforeRegistering(t *testing.T) {
	host := newFakeHost()
	s := NewNativeScheduler(host, &recordingDisplay{}, PrayerChannel("c"))
	ctx := context.Background()

	require.NoError(t, s.ScheduleAlarms(ctx, derive(models.DefaultSettings().EnabledPrayers, 0, at("00:00:00"))))
	host.calls = nil
	require.NoError(t, s.ScheduleAlarms(ctx, derive(models.DefaultSettings().EnabledPrayers, 0, at("00:00:00"))))
	assert.Equal(t, []string{"list", "cancel", "schedule"}, host.calls)
}

func TestNativeToleratesExistingChannel(t *testing.T) {
	host := newFakeHost()
	host.channels["c"] = Channel{ID: "c"}
	s := NewNativeScheduler(host, &recordingDisplay{}, PrayerChannel("c"))

	require.NoError(t, s.ScheduleAlarms(context.Background(), nil))
	require.NoError(t, s.ScheduleAlarms(context.Background(), nil))
	assert.Equal(t, 1, host.createCalls)
}

func TestNativeWrapsHostFailures(t *testing.T) {
	host := newFakeHost()
	host.failSched = errors.New("quota exceeded")
	s := NewNativeScheduler(host, &recordingDisplay{}, PrayerChannel("c"))

	err := s.ScheduleAlarms(context.Background(), derive(models.DefaultSettings().EnabledPrayers, 0, at("00:00:00")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchedulingIO))
	assert.Contains(t, err.Error(), "quota exceeded")

	host.failSched = nil
	host.failList = errors.New("io")
	err = s.ScheduleAlarms(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrSchedulingIO))
}

func TestNativeUsesReplaceWhenAvailable(t *testing.T) {
	host := replacingHost{newFakeHost()}
	s := NewNativeScheduler(host, &recordingDisplay{}, PrayerChannel("c"))
	ctx := context.Background()
	enabled := models.DefaultSettings().EnabledPrayers

	require.NoError(t, s.ScheduleAlarms(ctx, derive(enabled, 0, at("00:00:00"))))
	require.NoError(t, s.ScheduleAlarms(ctx, derive(enabled, 0, at("13:00:00"))))
	assert.Equal(t, []string{"asr", "isha", "maghrib"}, host.pendingPrayers())
	assert.Equal(t, []string{"create", "replace", "replace"}, host.calls)
}

func TestNativePermission(t *testing.T) {
	host := newFakeHost()
	s := NewNativeScheduler(host, &recordingDisplay{}, PrayerChannel("c"))
	require.NoError(t, s.RequestPermission(context.Background()))
	assert.Contains(t, host.channels, "c")

	host.granted = false
	assert.ErrorIs(t, s.RequestPermission(context.Background()), ErrPermissionDenied)
}

type fixedSource struct {
	enabled map[models.PrayerID]bool
	offset  int
	ok      bool
	refs    []time.Time
	days    []time.Time
}

func (f *fixedSource) AlarmsAt(day, ref time.Time) ([]models.AlarmInstant, bool) {
	f.refs = append(f.refs, ref)
	f.days = append(f.days, day)
	if !f.ok {
		return nil, false
	}
	return derive(f.enabled, f.offset, ref), true
}

func newPolling(offset int) (*PollingScheduler, *recordingDisplay, *fixedSource) {
	src := &fixedSource{enabled: models.DefaultSettings().EnabledPrayers, offset: offset, ok: true}
	d := &recordingDisplay{}
	return NewPollingScheduler(src, d, 5*time.Second), d, src
}

func TestPollingDedupWithinMinute(t *testing.T) {
	p, d, _ := newPolling(10)
	ctx := context.Background()

	assert.Equal(t, 1, p.Tick(ctx, at("12:10:02")))
	assert.Equal(t, 0, p.Tick(ctx, at("12:10:07")))
	assert.Equal(t, 0, p.Tick(ctx, at("12:10:55")))
	assert.Equal(t, []string{"Prayer time in 10 minutes (Dhuhr)"}, d.shown)
}

func TestPollingFiresOnNextMinuteAfterJitter(t *testing.T) {
	p, d, _ := newPolling(0)
	ctx := context.Background()

	assert.Equal(t, 0, p.Tick(ctx, at("12:19:58")))
	assert.Equal(t, 1, p.Tick(ctx, at("12:20:03")))
	assert.Equal(t, []string{"It is time for prayer (Dhuhr)"}, d.shown)
}

func TestPollingCatchesUpSkippedMinutes(t *testing.T) {
	p, d, src := newPolling(0)
	ctx := context.Background()

	p.Tick(ctx, at("12:18:30"))
	// a stalled timer skips the whole 12:20 minute
	assert.Equal(t, 1, p.Tick(ctx, at("12:21:04")))
	assert.Len(t, d.shown, 1)
	assert.Len(t, src.refs, 4)
}

func TestPollingCatchUpIsBounded(t *testing.T) {
	p, _, src := newPolling(0)
	ctx := context.Background()

	p.Tick(ctx, at("08:00:00"))
	src.refs = nil
	p.Tick(ctx, at("12:00:00"))
	assert.Len(t, src.refs, maxCatchUp)
}

func TestPollingAsksForTheMinutesOwnDay(t *testing.T) {
	p, _, src := newPolling(0)
	midnight := time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)

	p.Tick(context.Background(), midnight.Add(2*time.Second))
	require.Len(t, src.days, 1)
	assert.Equal(t, midnight, src.days[0])
	assert.True(t, src.refs[0].Before(midnight))
}

func TestPollingSkipsWithoutContext(t *testing.T) {
	p, d, src := newPolling(0)
	src.ok = false
	assert.Equal(t, 0, p.Tick(context.Background(), at("12:20:01")))
	assert.Empty(t, d.shown)
}

func TestPollingScheduleIsNoop(t *testing.T) {
	p, d, _ := newPolling(0)
	require.NoError(t, p.ScheduleAlarms(context.Background(), derive(models.DefaultSettings().EnabledPrayers, 0, at("00:00:00"))))
	assert.Empty(t, d.shown)
	assert.False(t, p.Native())
}

func TestPollingPermission(t *testing.T) {
	p, d, _ := newPolling(0)
	require.NoError(t, p.RequestPermission(context.Background()))
	d.denied = true
	assert.ErrorIs(t, p.RequestPermission(context.Background()), ErrPermissionDenied)
}

func TestPollingRunStopsOnCancel(t *testing.T) {
	p, _, _ := newPolling(0)
	p.interval = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSelect(t *testing.T) {
	src := &fixedSource{}
	assert.True(t, Select(newFakeHost(), nil, src, "c", time.Second).Native())
	assert.False(t, Select(nil, nil, src, "c", time.Second).Native())
}
