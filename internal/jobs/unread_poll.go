package jobs

import (
	"context"
	"log"
	"time"
)

// StartUnreadPoll fetches the unread notification count right away and then
// on every interval until ctx is cancelled. Failed ticks are logged and
// leave the last published value in place.
func StartUnreadPoll(ctx context.Context, interval, timeout time.Duration, fetch func(context.Context) (int, error), publish func(int)) {
	if fetch == nil || publish == nil {
		log.Printf("unread poll disabled: fetch or publish not configured")
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	tick := func() {
		tickCtx, cancel := context.WithTimeout(ctx, timeout)
		count, err := fetch(tickCtx)
		cancel()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("unread poll error: %v", err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		publish(count)
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		tick()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tick()
			}
		}
	}()
}
