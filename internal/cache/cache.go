package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "muadhin:"
	channelsKey   = keyPrefix + "channels"
	permissionKey = keyPrefix + "permission"
	chatKey       = keyPrefix + "chat"
	pendingPrefix = keyPrefix + "pending:" // zset per channel, scored by fire time
	payloadPrefix = keyPrefix + "alarm:"   // hash per channel, id -> registration JSON
)

const (
	permissionGranted = "granted"
	permissionDenied  = "denied"
)

type Cache struct {
	Client *redis.Client
}

func New(redisURL string) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Cache{Client: client}, nil
}

func (c *Cache) Close() error {
	return c.Client.Close()
}

// Ping reports whether Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// SetPermission records the user's notification consent.
func (c *Cache) SetPermission(ctx context.Context, granted bool) error {
	val := permissionDenied
	if granted {
		val = permissionGranted
	}
	return c.Client.Set(ctx, permissionKey, val, 0).Err()
}

// Permission returns the stored consent; false when never given.
func (c *Cache) Permission(ctx context.Context) (bool, error) {
	val, err := c.Client.Get(ctx, permissionKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == permissionGranted, nil
}

// SetChat links the Telegram chat that receives reminders.
func (c *Cache) SetChat(ctx context.Context, chatID int64) error {
	return c.Client.Set(ctx, chatKey, chatID, 0).Err()
}

// Chat returns the linked chat, 0 when none.
func (c *Cache) Chat(ctx context.Context) (int64, error) {
	val, err := c.Client.Get(ctx, chatKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}
