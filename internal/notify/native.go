package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"muadhin/internal/models"
)

// NativeScheduler hands alarms to a Host that fires them on its own.
type NativeScheduler struct {
	host    Host
	display Display
	channel Channel

	mu           sync.Mutex
	channelReady bool
}

func NewNativeScheduler(host Host, display Display, channel Channel) *NativeScheduler {
	return &NativeScheduler{host: host, display: display, channel: channel}
}

func (n *NativeScheduler) Native() bool { return true }

// ensureChannel creates the delivery channel once per process. Must be
// called with mu held.
func (n *NativeScheduler) ensureChannel(ctx context.Context) error {
	if n.channelReady {
		return nil
	}
	err := n.host.CreateChannel(ctx, n.channel)
	if err != nil && !errors.Is(err, ErrChannelExists) {
		return fmt.Errorf("%w: create channel %s: %w", ErrSchedulingIO, n.channel.ID, err)
	}
	n.channelReady = true
	return nil
}

// ScheduleAlarms cancels everything pending on the channel and registers
// alarms. The whole exchange runs under one lock so concurrent calls cannot
// interleave. Hosts implementing Replacer do both in a single step.
func (n *NativeScheduler) ScheduleAlarms(ctx context.Context, alarms []models.AlarmInstant) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.ensureChannel(ctx); err != nil {
		return err
	}

	if r, ok := n.host.(Replacer); ok {
		regs := n.registrations(alarms)
		if err := r.Replace(ctx, n.channel.ID, regs); err != nil {
			return fmt.Errorf("%w: replace with %d alarms: %w", ErrSchedulingIO, len(regs), err)
		}
		log.Info().Str("component", "notify").Int("registered", len(regs)).Msg("alarms replaced")
		return nil
	}

	pending, err := n.host.ListPending(ctx, n.channel.ID)
	if err != nil {
		return fmt.Errorf("%w: list pending: %w", ErrSchedulingIO, err)
	}
	if len(pending) > 0 {
		if err := n.host.Cancel(ctx, n.channel.ID, pending); err != nil {
			return fmt.Errorf("%w: cancel %d pending: %w", ErrSchedulingIO, len(pending), err)
		}
	}

	if len(alarms) == 0 {
		log.Debug().Str("component", "notify").Int("cancelled", len(pending)).Msg("no alarms to register")
		return nil
	}

	regs := n.registrations(alarms)
	if err := n.host.Schedule(ctx, regs); err != nil {
		return fmt.Errorf("%w: register %d alarms: %w", ErrSchedulingIO, len(regs), err)
	}
	log.Info().Str("component", "notify").
		Int("cancelled", len(pending)).
		Int("registered", len(regs)).
		Msg("alarms replaced")
	return nil
}

func (n *NativeScheduler) registrations(alarms []models.AlarmInstant) []Registration {
	regs := make([]Registration, 0, len(alarms))
	for _, a := range alarms {
		regs = append(regs, Registration{
			ID:             a.ID,
			PrayerID:       a.PrayerID,
			Title:          a.Title,
			Body:           a.Body,
			FireAt:         a.FireAt,
			ChannelID:      n.channel.ID,
			AllowWhileIdle: true,
		})
	}
	return regs
}

func (n *NativeScheduler) RequestPermission(ctx context.Context) error {
	granted, err := n.host.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("request permission: %w", err)
	}
	if !granted {
		return ErrPermissionDenied
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ensureChannel(ctx)
}

func (n *NativeScheduler) Show(ctx context.Context, title, body string) error {
	return n.display.Show(ctx, title, body)
}

// Run only waits for ctx; the host fires registered alarms.
func (n *NativeScheduler) Run(ctx context.Context) {
	<-ctx.Done()
}
