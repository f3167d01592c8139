package jobs

import (
	"context"
	"log"
	"time"
)

type Sweeper interface {
	Sweep(now time.Time) int
}

func StartSessionSweep(ctx context.Context, interval time.Duration, sweeper Sweeper) {
	if sweeper == nil {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if evicted := sweeper.Sweep(time.Now().UTC()); evicted > 0 {
					log.Printf("session sweep evicted %d idle sessions", evicted)
				}
			}
		}
	}()
}
