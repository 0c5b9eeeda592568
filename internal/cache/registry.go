package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"muadhin/internal/notify"
)

// Redis-backed notification host. Pending alarms are claimed by the worker
// as they fall due.
var (
	_ notify.Host     = (*Cache)(nil)
	_ notify.Replacer = (*Cache)(nil)
)

func (c *Cache) CreateChannel(ctx context.Context, ch notify.Channel) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("marshal channel: %w", err)
	}
	created, err := c.Client.HSetNX(ctx, channelsKey, ch.ID, data).Result()
	if err != nil {
		return err
	}
	if !created {
		return notify.ErrChannelExists
	}
	return nil
}

// GetChannel returns a stored channel, nil when absent.
func (c *Cache) GetChannel(ctx context.Context, id string) (*notify.Channel, error) {
	data, err := c.Client.HGet(ctx, channelsKey, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ch notify.Channel
	if err := json.Unmarshal(data, &ch); err != nil {
		return nil, fmt.Errorf("decode channel %s: %w", id, err)
	}
	return &ch, nil
}

// RequestPermission answers from the consent recorded by the bot; it never
// prompts.
func (c *Cache) RequestPermission(ctx context.Context) (bool, error) {
	return c.Permission(ctx)
}

func (c *Cache) ListPending(ctx context.Context, channelID string) ([]int32, error) {
	members, err := c.Client.ZRange(ctx, pendingPrefix+channelID, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int32, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, int32(id))
	}
	return ids, nil
}

func (c *Cache) Cancel(ctx context.Context, channelID string, ids []int32) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]any, len(ids))
	fields := make([]string, len(ids))
	for i, id := range ids {
		s := strconv.FormatInt(int64(id), 10)
		members[i] = s
		fields[i] = s
	}
	pipe := c.Client.TxPipeline()
	pipe.ZRem(ctx, pendingPrefix+channelID, members...)
	pipe.HDel(ctx, payloadPrefix+channelID, fields...)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *Cache) Schedule(ctx context.Context, regs []notify.Registration) error {
	if len(regs) == 0 {
		return nil
	}
	pipe := c.Client.TxPipeline()
	if err := queueRegistrations(ctx, pipe, regs); err != nil {
		return err
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Replace drops everything pending on the channel and registers regs in one
// MULTI, so the worker never claims from a half-replaced set.
func (c *Cache) Replace(ctx context.Context, channelID string, regs []notify.Registration) error {
	pipe := c.Client.TxPipeline()
	pipe.Del(ctx, pendingPrefix+channelID, payloadPrefix+channelID)
	if err := queueRegistrations(ctx, pipe, regs); err != nil {
		return err
	}
	_, err := pipe.Exec(ctx)
	return err
}

func queueRegistrations(ctx context.Context, pipe redis.Pipeliner, regs []notify.Registration) error {
	for _, r := range regs {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal alarm %d: %w", r.ID, err)
		}
		member := strconv.FormatInt(int64(r.ID), 10)
		pipe.ZAdd(ctx, pendingPrefix+r.ChannelID, redis.Z{Score: float64(r.FireAt.Unix()), Member: member})
		pipe.HSet(ctx, payloadPrefix+r.ChannelID, member, data)
	}
	return nil
}

// ClaimDue removes and returns every alarm on the channel whose fire time
// is at or before now. Each alarm is handed to exactly one claimer.
func (c *Cache) ClaimDue(ctx context.Context, channelID string, now time.Time) ([]notify.Registration, error) {
	members, err := c.Client.ZRangeByScore(ctx, pendingPrefix+channelID, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("range due alarms: %w", err)
	}

	var claimed []notify.Registration
	for _, m := range members {
		removed, err := c.Client.ZRem(ctx, pendingPrefix+channelID, m).Result()
		if err != nil {
			return claimed, fmt.Errorf("claim alarm %s: %w", m, err)
		}
		if removed == 0 {
			continue // another worker got it
		}
		data, err := c.Client.HGet(ctx, payloadPrefix+channelID, m).Bytes()
		if err != nil {
			continue
		}
		c.Client.HDel(ctx, payloadPrefix+channelID, m)

		var r notify.Registration
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		claimed = append(claimed, r)
	}
	return claimed, nil
}
