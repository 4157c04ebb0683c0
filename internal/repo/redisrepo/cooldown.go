// Package redisrepo holds small pieces of shared volatile state kept in
// redis so that bot restarts do not reset them.
package redisrepo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldown rate-limits informational replies per room. When redis is
// not configured it degrades to an in-process map, which is enough for
// a single bot instance.
type Cooldown struct {
	rdb *redis.Client
	ttl time.Duration

	mu   sync.Mutex
	last map[string]time.Time
	now  func() time.Time
}

func NewCooldown(addr string, ttl time.Duration) *Cooldown {
	c := &Cooldown{
		ttl:  ttl,
		last: make(map[string]time.Time),
		now:  time.Now,
	}
	if strings.TrimSpace(addr) != "" {
		c.rdb = redis.NewClient(&redis.Options{Addr: addr})
	}
	return c
}

// Allow reports whether an informational reply may be sent to the room
// and, if so, starts a new cooldown window.
func (c *Cooldown) Allow(ctx context.Context, room string) (bool, error) {
	if c.rdb == nil {
		return c.allowLocal(room), nil
	}

	ok, err := c.rdb.SetNX(ctx, "cooldown:"+room, 1, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cooldown for %s: %w", room, err)
	}
	return ok, nil
}

func (c *Cooldown) allowLocal(room string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if last, ok := c.last[room]; ok && now.Sub(last) < c.ttl {
		return false
	}
	c.last[room] = now
	return true
}

func (c *Cooldown) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
