package jobs

import (
	"context"
	"log"
	"time"
)

// StartBackendProbe reports backend reachability once immediately and then
// on every interval. Only transitions are logged.
func StartBackendProbe(ctx context.Context, interval, timeout time.Duration, probe func(context.Context) error, report func(healthy bool)) {
	if probe == nil || report == nil {
		return
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	var last *bool
	check := func() {
		tickCtx, cancel := context.WithTimeout(ctx, timeout)
		err := probe(tickCtx)
		cancel()
		if ctx.Err() != nil {
			return
		}
		healthy := err == nil
		if last == nil || *last != healthy {
			if healthy {
				log.Printf("backend probe: backend reachable")
			} else {
				log.Printf("backend probe: backend unreachable: %v", err)
			}
		}
		last = &healthy
		report(healthy)
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		check()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				check()
			}
		}
	}()
}
