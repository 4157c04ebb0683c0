package redisrepo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestCooldownRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	c := NewCooldown(mr.Addr(), time.Minute)
	defer c.Close()
	ctx := context.Background()

	ok, err := c.Allow(ctx, "arena@conference.example.org")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !ok {
		t.Fatal("first reply not allowed")
	}

	ok, err = c.Allow(ctx, "arena@conference.example.org")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Fatal("second reply allowed within cooldown")
	}

	// Other rooms cool down independently.
	ok, err = c.Allow(ctx, "tavern@conference.example.org")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !ok {
		t.Fatal("unrelated room blocked")
	}

	mr.FastForward(2 * time.Minute)
	ok, err = c.Allow(ctx, "arena@conference.example.org")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !ok {
		t.Fatal("reply still blocked after expiry")
	}
}

func TestCooldownLocalFallback(t *testing.T) {
	c := NewCooldown("", time.Minute)
	defer c.Close()
	ctx := context.Background()

	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	if ok, _ := c.Allow(ctx, "room"); !ok {
		t.Fatal("first reply not allowed")
	}
	if ok, _ := c.Allow(ctx, "room"); ok {
		t.Fatal("second reply allowed within cooldown")
	}

	now = now.Add(2 * time.Minute)
	if ok, _ := c.Allow(ctx, "room"); !ok {
		t.Fatal("reply still blocked after expiry")
	}
}
