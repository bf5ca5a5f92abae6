// Package cache holds the Redis-backed presence store: which users are
// online, which connections they hold, and when they were last seen.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/automatehub/messaging/config"
)

const connTTL = 24 * time.Hour

type Presence struct {
	rdb    *redis.Client
	prefix string
	log    *zap.SugaredLogger
}

// NewPresence connects to Redis and pings it.
func NewPresence(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*Presence, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPwd,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	log.Info("redis connected")
	return &Presence{rdb: rdb, prefix: cfg.RedisPrefix, log: log}, nil
}

func (p *Presence) onlineKey() string            { return p.prefix + ":online_users" }
func (p *Presence) connKey(userID string) string { return p.prefix + ":conns:" + userID }
func (p *Presence) seenKey(userID string) string { return p.prefix + ":last_seen:" + userID }

// Connected records a new connection for the user and marks them online.
func (p *Presence) Connected(ctx context.Context, userID, connID string) error {
	pipe := p.rdb.Pipeline()
	pipe.SAdd(ctx, p.connKey(userID), connID)
	pipe.Expire(ctx, p.connKey(userID), connTTL)
	pipe.SAdd(ctx, p.onlineKey(), userID)
	pipe.Set(ctx, p.seenKey(userID), time.Now().Unix(), 0)
	_, err := pipe.Exec(ctx)
	return err
}

// Disconnected drops one connection; the user only goes offline when their
// last device disconnects.
func (p *Presence) Disconnected(ctx context.Context, userID, connID string, last bool) error {
	pipe := p.rdb.Pipeline()
	pipe.SRem(ctx, p.connKey(userID), connID)
	pipe.Set(ctx, p.seenKey(userID), time.Now().Unix(), 0)
	if last {
		pipe.SRem(ctx, p.onlineKey(), userID)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// OnlineUsers lists user ids currently holding at least one connection.
func (p *Presence) OnlineUsers(ctx context.Context) ([]string, error) {
	return p.rdb.SMembers(ctx, p.onlineKey()).Result()
}

// LastSeen returns when the user last connected or disconnected.
func (p *Presence) LastSeen(ctx context.Context, userID string) (time.Time, error) {
	val, err := p.rdb.Get(ctx, p.seenKey(userID)).Result()
	if err != nil {
		return time.Time{}, err
	}
	ts, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(ts, 0), nil
}

func (p *Presence) Close() error {
	return p.rdb.Close()
}
