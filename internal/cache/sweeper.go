package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweepable is any cache that can evict expired entries in bulk.
type Sweepable interface {
	Sweep() int
}

// Sweeper periodically evicts expired entries from registered caches.
// Sweeping is a hygiene pass only; correctness relies on lazy expiry in Get.
type Sweeper struct {
	interval time.Duration
	caches   []Sweepable
	log      *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewSweeper(interval time.Duration, log *zap.Logger, caches ...Sweepable) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		interval: interval,
		caches:   caches,
		log:      log.Named("cache.sweeper"),
	}
}

func (s *Sweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := 0
				for _, c := range s.caches {
					removed += c.Sweep()
				}
				if removed > 0 {
					s.log.Debug("swept expired cache entries", zap.Int("removed", removed))
				}
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}
