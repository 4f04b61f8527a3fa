package scheduler

import (
	"github.com/rs/zerolog"
)

// Sweeper is anything with an evictable cache.
type Sweeper interface {
	Sweep() int
}

// CacheSweepJob evicts expired analysis responses so the cache does not
// grow unbounded between requests.
type CacheSweepJob struct {
	sweeper Sweeper
	log     zerolog.Logger
}

// NewCacheSweepJob creates a cache sweep job
func NewCacheSweepJob(sweeper Sweeper, log zerolog.Logger) *CacheSweepJob {
	return &CacheSweepJob{
		sweeper: sweeper,
		log:     log.With().Str("job", "cache_sweep").Logger(),
	}
}

// Name returns the job name
func (j *CacheSweepJob) Name() string { return "cache_sweep" }

// Run evicts expired cache entries
func (j *CacheSweepJob) Run() error {
	removed := j.sweeper.Sweep()
	if removed > 0 {
		j.log.Debug().Int("removed", removed).Msg("Evicted expired analysis cache entries")
	}
	return nil
}
