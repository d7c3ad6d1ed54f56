package internal

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReportCache mirrors the most recently emitted report for each track
// into Redis so an external dashboard can poll current stream quality
// without tailing the SRT files. Optional, config-gated by
// database.redis_enabled.
type ReportCache struct {
	Client  *redis.Client
	Ctx     context.Context
	Enabled bool
	TTL     time.Duration
	mu      sync.Mutex
}

// NewReportCache connects to Redis if database.redis_enabled is set,
// otherwise returns a disabled cache whose methods are no-ops.
func NewReportCache(cfg *Config) *ReportCache {
	if !cfg.Database.RedisEnabled {
		return &ReportCache{Enabled: false}
	}

	log.Println("🔌 Connecting to Redis at:", cfg.Database.RedisAddr)

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Database.RedisAddr,
		DB:   0,
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("❌ Redis connection failed, disabling report cache: %v", err)
		return &ReportCache{Enabled: false}
	}

	ttl := time.Duration(cfg.Database.RedisCleanupInterval) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	log.Println("✅ Redis connected successfully.")
	return &ReportCache{
		Client:  rdb,
		Ctx:     ctx,
		Enabled: true,
		TTL:     ttl,
	}
}

// StoreReport marshals payload and writes it under probe:track:<ssrc>.
func (r *ReportCache) StoreReport(ssrc uint32, payload any) {
	if r == nil || !r.Enabled {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("❌ Failed to marshal report for cache: %v", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := reportKey(ssrc)
	if err := r.Client.Set(r.Ctx, key, data, r.TTL).Err(); err != nil {
		log.Printf("❌ Failed to store report in Redis: %v", err)
	}
}

// GetReport retrieves the raw JSON for a track's latest report.
func (r *ReportCache) GetReport(ssrc uint32) (string, error) {
	if r == nil || !r.Enabled {
		return "", nil
	}

	val, err := r.Client.Get(r.Ctx, reportKey(ssrc)).Result()
	if err == redis.Nil {
		return "", nil
	} else if err != nil {
		return "", err
	}
	return val, nil
}

func reportKey(ssrc uint32) string {
	return "probe:track:" + strconv.FormatUint(uint64(ssrc), 10)
}

// AutoCleanup pings Redis at a fixed cadence and logs failed pings. It
// evicts nothing itself; keys expire through their Redis TTL.
func (r *ReportCache) AutoCleanup(interval time.Duration) {
	if r == nil || !r.Enabled {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if err := r.Client.Ping(r.Ctx).Err(); err != nil {
			log.Printf("🚨 Redis health check failed: %v", err)
		}
	}
}

// Close gracefully shuts down the Redis connection.
func (r *ReportCache) Close() error {
	if r == nil || !r.Enabled {
		return nil
	}
	log.Println("🔌 Closing Redis connection...")
	return r.Client.Close()
}
