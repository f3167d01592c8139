package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestUnreadPollPublishesImmediatelyAndOnTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int32
	published := make(chan int, 10)
	StartUnreadPoll(ctx, 10*time.Millisecond, time.Second, func(context.Context) (int, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 2 {
			return 0, errors.New("backend down")
		}
		return int(n), nil
	}, func(count int) {
		published <- count
	})

	first := waitValue(t, published)
	if first != 1 {
		t.Fatalf("expected immediate publish of 1, got %d", first)
	}
	second := waitValue(t, published)
	if second != 3 {
		t.Fatalf("expected failed tick to be skipped, got %d", second)
	}
}

func TestUnreadPollStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	published := make(chan int, 100)
	StartUnreadPoll(ctx, 5*time.Millisecond, time.Second, func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 4, nil
	}, func(count int) {
		published <- count
	})
	waitValue(t, published)
	cancel()
	time.Sleep(20 * time.Millisecond)
	settled := atomic.LoadInt32(&calls)
	time.Sleep(40 * time.Millisecond)
	if after := atomic.LoadInt32(&calls); after != settled {
		t.Fatalf("expected poller stopped, calls went from %d to %d", settled, after)
	}
}

type countingSweeper struct {
	calls int32
}

func (s *countingSweeper) Sweep(time.Time) int {
	atomic.AddInt32(&s.calls, 1)
	return 1
}

func TestSessionSweepRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper := &countingSweeper{}
	StartSessionSweep(ctx, 5*time.Millisecond, sweeper)

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&sweeper.calls) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected sweeps to run")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBackendProbeReports(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int32
	reports := make(chan bool, 10)
	StartBackendProbe(ctx, 10*time.Millisecond, time.Second, func(context.Context) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return errors.New("refused")
		}
		return nil
	}, func(healthy bool) {
		reports <- healthy
	})

	select {
	case healthy := <-reports:
		if healthy {
			t.Fatalf("expected first probe unhealthy")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for probe")
	}
	select {
	case healthy := <-reports:
		if !healthy {
			t.Fatalf("expected second probe healthy")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for probe")
	}
}

func waitValue(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for value")
		return 0
	}
}
