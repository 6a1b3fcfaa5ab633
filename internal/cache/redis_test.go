package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestDefaultCacheConfig(t *testing.T) {
	config := DefaultCacheConfig()

	if config.Addr != "localhost:6379" {
		t.Errorf("Expected Addr to be localhost:6379, got %s", config.Addr)
	}

	if config.PoolSize != 10 {
		t.Errorf("Expected PoolSize to be 10, got %d", config.PoolSize)
	}

	if config.OpTimeout != 3*time.Second {
		t.Errorf("Expected OpTimeout to be 3s, got %v", config.OpTimeout)
	}

	if config.Breaker == nil || config.Breaker.MaxFailures != 5 {
		t.Errorf("Expected default breaker with 5 max failures, got %+v", config.Breaker)
	}
}

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	config := DefaultCacheConfig()
	config.Addr = mr.Addr()
	config.MaxRetries = 0

	cache := NewRedisCache(config)
	t.Cleanup(func() { cache.Close() })
	return cache, mr
}

func TestNewRedisCache_WithNilConfig(t *testing.T) {
	cache := NewRedisCache(nil)
	defer cache.Close()

	if cache.client == nil {
		t.Error("Expected Redis client to be initialized")
	}
	if cache.breaker == nil {
		t.Error("Expected circuit breaker to be initialized")
	}
}

func TestNewRedisCacheFromClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cache := NewRedisCacheFromClient(client)
	defer cache.Close()

	if err := cache.Health(context.Background()); err != nil {
		t.Errorf("Expected healthy cache, got %v", err)
	}
}

func TestRedisCache_SetAndGet(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	type testData struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}

	original := testData{Name: "Riego", Value: 42}

	if err := cache.Set(ctx, "tareas:test", original, time.Minute); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}

	var retrieved testData
	if err := cache.Get(ctx, "tareas:test", &retrieved); err != nil {
		t.Fatalf("Failed to get from cache: %v", err)
	}

	if retrieved != original {
		t.Errorf("Expected %+v, got %+v", original, retrieved)
	}

	stats := cache.metrics.GetStats()
	if stats.Hits != 1 || stats.Sets != 1 {
		t.Errorf("Expected 1 hit and 1 set, got %+v", stats)
	}
}

func TestRedisCache_Get_CacheMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	var result string
	err := cache.Get(context.Background(), "non-existent-key", &result)

	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
	if cache.metrics.GetStats().Misses != 1 {
		t.Error("Expected miss to be recorded")
	}
	if cache.breaker.GetState() != CircuitBreakerClosed {
		t.Error("Expected a miss not to count as a breaker failure")
	}
}

func TestRedisCache_Expiration(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "tareas:ttl", "data", time.Minute); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	var result string
	if err := cache.Get(ctx, "tareas:ttl", &result); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after expiry, got %v", err)
	}
}

func TestRedisCache_Set_InvalidData(t *testing.T) {
	cache, _ := setupTestRedis(t)

	ch := make(chan int)
	if err := cache.Set(context.Background(), "tareas:key", ch, time.Minute); err == nil {
		t.Error("Expected error when setting unmarshalable data")
	}
}

func TestRedisCache_Get_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)

	mr.Set("tareas:invalid", "invalid-json")

	var result map[string]interface{}
	if err := cache.Get(context.Background(), "tareas:invalid", &result); err == nil {
		t.Error("Expected error when getting invalid JSON")
	}
}

func TestRedisCache_Delete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	for _, key := range []string{"tareas:a", "tareas:b"} {
		if err := cache.Set(ctx, key, "data", time.Minute); err != nil {
			t.Fatalf("Failed to set cache key %s: %v", key, err)
		}
	}

	if err := cache.Delete(ctx, "tareas:a", "tareas:b"); err != nil {
		t.Fatalf("Failed to delete from cache: %v", err)
	}

	if mr.Exists("tareas:a") || mr.Exists("tareas:b") {
		t.Error("Expected keys to be deleted")
	}

	if err := cache.Delete(ctx); err != nil {
		t.Errorf("Expected no error deleting nothing, got %v", err)
	}
}

func TestRedisCache_CounterAndIncr(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	n, err := cache.Counter(ctx, "tareas:gen")
	if err != nil || n != 0 {
		t.Errorf("Expected missing counter to read 0, got %d err=%v", n, err)
	}

	for want := int64(1); want <= 2; want++ {
		got, err := cache.Incr(ctx, "tareas:gen")
		if err != nil {
			t.Fatalf("Failed to increment: %v", err)
		}
		if got != want {
			t.Errorf("Expected %d after increment, got %d", want, got)
		}
	}

	n, err = cache.Counter(ctx, "tareas:gen")
	if err != nil || n != 2 {
		t.Errorf("Expected counter to read 2, got %d err=%v", n, err)
	}

	mr.Set("tareas:gen", "not-a-number")
	if _, err := cache.Counter(ctx, "tareas:gen"); err == nil {
		t.Error("Expected error reading a non-numeric counter")
	}
}

func TestRedisCache_BreakerOpensWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)

	config := DefaultCacheConfig()
	config.Addr = mr.Addr()
	config.MaxRetries = 0
	config.DialTimeout = 100 * time.Millisecond
	config.Breaker = &CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Minute, HalfOpenMaxCalls: 1}
	cache := NewRedisCache(config)
	defer cache.Close()

	mr.Close()

	ctx := context.Background()
	var result string
	for i := 0; i < 2; i++ {
		if err := cache.Get(ctx, "tareas:list", &result); err == nil || errors.Is(err, ErrCacheMiss) {
			t.Fatalf("Expected connection error, got %v", err)
		}
	}

	if cache.breaker.GetState() != CircuitBreakerOpen {
		t.Fatalf("Expected breaker to be open, got %v", cache.breaker.GetState())
	}

	err := cache.Get(ctx, "tareas:list", &result)
	if !errors.Is(err, ErrCacheDown) {
		t.Errorf("Expected ErrCacheDown, got %v", err)
	}
}

func TestRedisCache_Health(t *testing.T) {
	cache, mr := setupTestRedis(t)

	if err := cache.Health(context.Background()); err != nil {
		t.Errorf("Expected healthy cache, got %v", err)
	}

	mr.Close()

	if err := cache.Health(context.Background()); err == nil {
		t.Error("Expected health check to fail after redis is closed")
	}
}

func TestRedisCache_Stats(t *testing.T) {
	cache, _ := setupTestRedis(t)

	stats := cache.Stats()
	for _, key := range []string{"hits", "misses", "hit_rate", "breaker", "pool_total"} {
		if _, ok := stats[key]; !ok {
			t.Errorf("Expected stats to contain %s", key)
		}
	}
}

func TestCacheMetrics_HitRate(t *testing.T) {
	m := NewCacheMetrics()

	if m.HitRate() != 0 {
		t.Errorf("Expected 0 hit rate with no lookups, got %f", m.HitRate())
	}

	m.RecordHit()
	m.RecordHit()
	m.RecordHit()
	m.RecordMiss()

	if m.HitRate() != 75.0 {
		t.Errorf("Expected 75%% hit rate, got %f", m.HitRate())
	}

	if stats := m.GetStats(); stats.Hits != 3 || stats.Misses != 1 || stats.HitRate != 75.0 {
		t.Errorf("Expected snapshot to match counters, got %+v", stats)
	}
}
