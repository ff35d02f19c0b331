package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateDecision is the outcome of counting one request against a limit.
type RateDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateCounter counts requests per key (an account id) within a window.
type RateCounter interface {
	Allow(ctx context.Context, key string) (RateDecision, error)
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LimiterPool keeps one token bucket per key.
type LimiterPool struct {
	mutex    sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
}

func NewLimiterPool(r rate.Limit, burst int) *LimiterPool {
	return &LimiterPool{
		limiters: make(map[string]*limiterEntry),
		rate:     r,
		burst:    burst,
	}
}

// PerMinute builds a pool allowing requestsPerMinute with the given burst.
func PerMinute(requestsPerMinute, burst int) *LimiterPool {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	return NewLimiterPool(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst)
}

// Reserve takes one token for key at now. When none is available it reports
// how long until one will be.
func (p *LimiterPool) Reserve(key string, now time.Time) (bool, time.Duration) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	entry, exists := p.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(p.rate, p.burst)}
		p.limiters[key] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, time.Minute
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Tokens reports the tokens left for key, or the burst for an unseen key.
func (p *LimiterPool) Tokens(key string, now time.Time) int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	entry, exists := p.limiters[key]
	if !exists {
		return p.burst
	}
	return int(entry.limiter.TokensAt(now))
}

// Cleanup drops limiters not used since now-idle and returns how many were removed.
func (p *LimiterPool) Cleanup(now time.Time, idle time.Duration) int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	removed := 0
	for key, entry := range p.limiters {
		if now.Sub(entry.lastSeen) > idle {
			delete(p.limiters, key)
			removed++
		}
	}
	return removed
}

func (p *LimiterPool) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.limiters)
}

// LocalRateCounter is the in-process fallback: limits hold per instance only.
type LocalRateCounter struct {
	pool *LimiterPool
	now  func() time.Time
}

func NewLocalRateCounter(max int, window time.Duration) *LocalRateCounter {
	if max <= 0 {
		max = 1
	}
	return &LocalRateCounter{
		pool: NewLimiterPool(rate.Every(window/time.Duration(max)), max),
		now:  time.Now,
	}
}

func (c *LocalRateCounter) Pool() *LimiterPool { return c.pool }

func (c *LocalRateCounter) Allow(_ context.Context, key string) (RateDecision, error) {
	now := c.now()
	allowed, retryAfter := c.pool.Reserve(key, now)
	return RateDecision{
		Allowed:    allowed,
		Remaining:  c.pool.Tokens(key, now),
		RetryAfter: retryAfter,
	}, nil
}

// RedisRateCounter is a fixed-window counter shared by every instance. Keys
// look like "ratelimit:<key>:<window start unix>" and expire with the window.
type RedisRateCounter struct {
	client *redis.Client
	max    int
	window time.Duration
	now    func() time.Time
}

func NewRedisRateCounter(client *redis.Client, max int, window time.Duration) *RedisRateCounter {
	return &RedisRateCounter{client: client, max: max, window: window, now: time.Now}
}

func (c *RedisRateCounter) Allow(ctx context.Context, key string) (RateDecision, error) {
	now := c.now()
	windowStart := now.Truncate(c.window)
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, windowStart.Unix())

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, c.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return RateDecision{}, fmt.Errorf("rate counter: %w", err)
	}

	count := int(incr.Val())
	if count > c.max {
		return RateDecision{Allowed: false, RetryAfter: windowStart.Add(c.window).Sub(now)}, nil
	}
	return RateDecision{Allowed: true, Remaining: c.max - count}, nil
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis (ping failed): %w", err)
	}
	return client, nil
}
