package checker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunner_PreservesIndexOrder(t *testing.T) {
	runner := &Runner{Concurrency: 4}
	out := make([]int, 10)

	runner.Run(context.Background(), len(out), func(ctx context.Context, i int) {
		// Later indexes finish first.
		time.Sleep(time.Duration(10-i) * time.Millisecond)
		out[i] = i * i
	})

	for i, v := range out {
		if v != i*i {
			t.Fatalf("index %d: expected %d, got %d", i, i*i, v)
		}
	}
}

func TestRunner_RespectsConcurrency(t *testing.T) {
	runner := &Runner{Concurrency: 2}
	var inFlight, peak int32
	var mu sync.Mutex

	runner.Run(context.Background(), 8, func(ctx context.Context, i int) {
		cur := atomic.AddInt32(&inFlight, 1)
		mu.Lock()
		if cur > peak {
			peak = cur
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	})

	if peak > 2 {
		t.Fatalf("expected at most 2 concurrent units, observed %d", peak)
	}
}

func TestRunner_ZeroUnits(t *testing.T) {
	called := false
	(&Runner{}).Run(context.Background(), 0, func(ctx context.Context, i int) { called = true })
	if called {
		t.Fatal("fn must not be called for zero units")
	}
}

func TestRunner_NilRunnerRunsSequentially(t *testing.T) {
	var r *Runner
	var count int32
	r.Run(context.Background(), 3, func(ctx context.Context, i int) { atomic.AddInt32(&count, 1) })
	if count != 3 {
		t.Fatalf("expected 3 calls, got %d", count)
	}
}

func TestRunner_RateLimitCancelledContextSkipsWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var count int32
	runner := &Runner{Concurrency: 1, RateLimit: 1}
	runner.Run(ctx, 5, func(ctx context.Context, i int) { atomic.AddInt32(&count, 1) })

	if count != 0 {
		t.Fatalf("expected no work with cancelled context, got %d", count)
	}
}

func TestRunner_PanicReraisedAfterAllUnits(t *testing.T) {
	var count int32
	defer func() {
		if r := recover(); r != "boom" {
			t.Fatalf("expected panic to reach the caller, got %v", r)
		}
		if got := atomic.LoadInt32(&count); got != 3 {
			t.Fatalf("expected other units to finish, got %d", got)
		}
	}()

	runner := &Runner{Concurrency: 2}
	runner.Run(context.Background(), 4, func(ctx context.Context, i int) {
		if i == 1 {
			panic("boom")
		}
		atomic.AddInt32(&count, 1)
	})
	t.Fatal("expected Run to panic")
}

func TestDefaultChecksOrder(t *testing.T) {
	checks := DefaultChecks(Options{Prober: &stubProber{}})
	want := []string{"security-headers", "transport-security", "sensitive-paths"}
	if len(checks) != len(want) {
		t.Fatalf("expected %d checks, got %d", len(want), len(checks))
	}
	for i, c := range checks {
		if c.Name() != want[i] {
			t.Errorf("check %d: expected %s, got %s", i, want[i], c.Name())
		}
	}
}
