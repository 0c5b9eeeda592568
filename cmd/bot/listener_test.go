package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muadhin/internal/models"
	"muadhin/internal/mq"
)

type recordingDisplay struct{ shown []string }

func (d *recordingDisplay) Show(_ context.Context, title, body string) error {
	d.shown = append(d.shown, title+"|"+body)
	return nil
}

type staticPermission bool

func (p staticPermission) Permission(context.Context) (bool, error) { return bool(p), nil }

func alarmPayload(t *testing.T) []byte {
	t.Helper()
	data, err := json.Marshal(mq.AlarmDueMsg{
		AlarmID:  12,
		PrayerID: models.Asr,
		Title:    "Upcoming Prayer",
		Body:     "Prayer time in 10 minutes (Asr)",
		FireAt:   time.Date(2024, 6, 15, 15, 31, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return data
}

func TestHandleAlarmDue(t *testing.T) {
	d := &recordingDisplay{}
	l := newListener(d, staticPermission(true), nil)
	l.handleAlarmDue(context.Background(), alarmPayload(t))
	assert.Equal(t, []string{"Upcoming Prayer|Prayer time in 10 minutes (Asr)"}, d.shown)
}

func TestHandleAlarmDueWhileStopped(t *testing.T) {
	d := &recordingDisplay{}
	l := newListener(d, staticPermission(false), nil)
	l.handleAlarmDue(context.Background(), alarmPayload(t))
	assert.Empty(t, d.shown)
}

func TestHandleShowIgnoresGarbage(t *testing.T) {
	d := &recordingDisplay{}
	l := newListener(d, staticPermission(true), nil)
	l.handleShow(context.Background(), []byte("{"))
	assert.Empty(t, d.shown)

	l.handleShow(context.Background(), []byte(`{"title":"Test Notification","body":"hi"}`))
	assert.Equal(t, []string{"Test Notification|hi"}, d.shown)
}
