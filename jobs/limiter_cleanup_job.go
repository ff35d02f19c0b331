package jobs

import (
	"time"

	"motomar-api/logger"
)

// Sweeper drops rate limiters that have been idle for longer than idle.
type Sweeper interface {
	Cleanup(now time.Time, idle time.Duration) int
}

// LimiterCleanupJob periodically removes idle in-process rate limiters.
type LimiterCleanupJob struct {
	name     string
	pools    []Sweeper
	idle     time.Duration
	interval time.Duration
	now      func() time.Time
	ticker   *time.Ticker
	done     chan struct{}
	stopped  chan struct{}
}

func NewLimiterCleanupJob(name string, interval, idle time.Duration, pools ...Sweeper) *LimiterCleanupJob {
	return &LimiterCleanupJob{
		name:     name,
		pools:    pools,
		idle:     idle,
		interval: interval,
		now:      time.Now,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start begins the cleanup job
func (j *LimiterCleanupJob) Start() {
	logger.Log.Infow("cleanup job started", "job", j.name, "interval", j.interval)
	j.ticker = time.NewTicker(j.interval)

	go func() {
		defer close(j.stopped)
		for {
			select {
			case <-j.ticker.C:
				j.cleanup()
			case <-j.done:
				logger.Log.Infow("cleanup job stopped", "job", j.name)
				return
			}
		}
	}()
}

// Stop halts the job and waits for the running sweep to finish.
func (j *LimiterCleanupJob) Stop() {
	j.ticker.Stop()
	close(j.done)
	<-j.stopped
}

func (j *LimiterCleanupJob) cleanup() int {
	removed := 0
	now := j.now()
	for _, pool := range j.pools {
		removed += pool.Cleanup(now, j.idle)
	}
	if removed > 0 {
		logger.Log.Debugw("idle rate limiters removed", "job", j.name, "removed", removed)
	}
	return removed
}
