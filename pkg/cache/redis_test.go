package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// memRedis is an in-process stand-in for a Redis server.
type memRedis struct {
	data  map[string]string
	ttls  map[string]time.Duration
	fails int
}

func newMemRedis() *memRedis {
	return &memRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memRedis) fail() error {
	if m.fails > 0 {
		m.fails--
		return errors.New("connection reset")
	}
	return nil
}

func (m *memRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if err := m.fail(); err != nil {
		return redis.NewStringResult("", err)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	if err := m.fail(); err != nil {
		return redis.NewStatusResult("", err)
	}
	m.data[key] = string(value.([]byte))
	m.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (m *memRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (m *memRedis) Scan(_ context.Context, _ uint64, match string, _ int64) *redis.ScanCmd {
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return redis.NewScanCmdResult(keys, 0, nil)
}

func (m *memRedis) Close() error { return nil }

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mem := newMemRedis()
	c := &RedisCache{client: mem}

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get() of missing key = %v, %v, want miss", hit, err)
	}
	if err := c.Set(ctx, "artifact:1", []byte("<svg/>"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if mem.ttls["artifact:1"] != time.Hour {
		t.Errorf("ttl = %v, want 1h", mem.ttls["artifact:1"])
	}
	data, hit, err := c.Get(ctx, "artifact:1")
	if err != nil || !hit || string(data) != "<svg/>" {
		t.Errorf("Get() = %q, %v, %v, want <svg/>", data, hit, err)
	}
	if err := c.Delete(ctx, "artifact:1"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if _, hit, _ := c.Get(ctx, "artifact:1"); hit {
		t.Error("entry survived Delete()")
	}
}

func TestRedisCacheRetries(t *testing.T) {
	ctx := context.Background()
	mem := newMemRedis()
	mem.data["k"] = "v"
	c := &RedisCache{client: mem}

	mem.fails = 2
	if data, hit, err := c.Get(ctx, "k"); err != nil || !hit || string(data) != "v" {
		t.Errorf("Get() after two failures = %q, %v, %v, want v", data, hit, err)
	}

	mem.fails = 3
	_, _, err := c.Get(ctx, "k")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Get() error = %v, want ErrUnavailable", err)
	}
}

func TestRedisCacheClear(t *testing.T) {
	ctx := context.Background()
	mem := newMemRedis()
	for _, k := range []string{"engrave:a", "engrave:b", "other:c"} {
		mem.data[k] = k
	}
	c := &RedisCache{client: mem}
	n, err := c.Clear(ctx, "engrave:")
	if err != nil || n != 2 {
		t.Errorf("Clear() = %d, %v, want 2", n, err)
	}
	if _, ok := mem.data["other:c"]; !ok {
		t.Error("Clear() removed a key outside the prefix")
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "http://not-redis"); err == nil {
		t.Error("NewRedisCache() with bad url succeeded")
	}
}
