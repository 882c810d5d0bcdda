// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"school-activities/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RosterPubSub is the connection roster events are published on. The service
// only ever PUBLISHes, so the pool stays small and reads are short.
type RosterPubSub struct {
	Client *redis.Client
	addr   string
}

// NewRosterPubSub configures the publisher connection. Nothing is dialled
// until Ping or the first publish.
func NewRosterPubSub(cfg config.RedisConfig) *RosterPubSub {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     4,
		MinIdleConns: 1,
	})

	return &RosterPubSub{Client: rdb, addr: cfg.Address}
}

// Ping doubles as the /ready check for roster delivery.
func (p *RosterPubSub) Ping(ctx context.Context) error {
	if err := p.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s failed: %w", p.addr, err)
	}
	return nil
}

// Subscribers returns how many clients currently listen on channel.
// Roster events published with no listeners are dropped by Redis.
func (p *RosterPubSub) Subscribers(ctx context.Context, channel string) (int64, error) {
	counts, err := p.Client.PubSubNumSub(ctx, channel).Result()
	if err != nil {
		return 0, fmt.Errorf("redis pubsub numsub %s: %w", channel, err)
	}
	return counts[channel], nil
}

func (p *RosterPubSub) Close() error {
	if p.Client != nil {
		return p.Client.Close()
	}
	return nil
}
