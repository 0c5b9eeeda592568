package main

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"muadhin/internal/mq"
	"muadhin/internal/notify"
)

// permissionSource reports whether reminders may be delivered.
type permissionSource interface {
	Permission(ctx context.Context) (bool, error)
}

// listener consumes due alarms and show requests from RabbitMQ and
// delivers them to the linked chat.
type listener struct {
	display  notify.Display
	perms    permissionSource
	consumer *mq.Consumer
}

func newListener(display notify.Display, perms permissionSource, consumer *mq.Consumer) *listener {
	return &listener{display: display, perms: perms, consumer: consumer}
}

func (l *listener) start(ctx context.Context) {
	alarmCh, err := l.consumer.Consume(mq.QueueAlarmDue)
	if err != nil {
		log.Fatal().Err(err).Str("component", "listener").Str("queue", mq.QueueAlarmDue).Msg("failed to consume")
	}
	showCh, err := l.consumer.Consume(mq.QueueNotifyShow)
	if err != nil {
		log.Fatal().Err(err).Str("component", "listener").Str("queue", mq.QueueNotifyShow).Msg("failed to consume")
	}

	log.Info().Str("component", "listener").Msg("consuming from alarm_due, notify_show")

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("component", "listener").Msg("stopped")
			return
		case d, ok := <-alarmCh:
			if !ok {
				return
			}
			l.handleAlarmDue(ctx, d.Body)
			d.Ack(false)
		case d, ok := <-showCh:
			if !ok {
				return
			}
			l.handleShow(ctx, d.Body)
			d.Ack(false)
		}
	}
}

// handleAlarmDue drops alarms while reminders are switched off with /stop.
func (l *listener) handleAlarmDue(ctx context.Context, payload []byte) {
	var msg mq.AlarmDueMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.Warn().Err(err).Str("component", "listener").Msg("bad alarm_due message")
		return
	}
	granted, err := l.perms.Permission(ctx)
	if err != nil {
		log.Error().Err(err).Str("component", "listener").Msg("read permission")
		return
	}
	if !granted {
		log.Info().Str("component", "listener").Int32("alarm", msg.AlarmID).Msg("reminders off, alarm dropped")
		return
	}
	if err := l.display.Show(ctx, msg.Title, msg.Body); err != nil {
		log.Error().Err(err).Str("component", "listener").Int32("alarm", msg.AlarmID).Msg("deliver alarm")
		return
	}
	log.Info().Str("component", "listener").Int32("alarm", msg.AlarmID).Str("prayer", string(msg.PrayerID)).Msg("alarm delivered")
}

func (l *listener) handleShow(ctx context.Context, payload []byte) {
	var msg mq.ShowMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.Warn().Err(err).Str("component", "listener").Msg("bad notify_show message")
		return
	}
	if err := l.display.Show(ctx, msg.Title, msg.Body); err != nil {
		log.Error().Err(err).Str("component", "listener").Str("message", msg.MessageID).Msg("deliver notification")
	}
}
