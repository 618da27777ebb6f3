package checker

import (
	"context"
	"sync"
	"time"

	"github.com/khanhnv2901/vulnscan/internal/domain/scan"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Checker is the interface that all check implementations must satisfy
type Checker interface {
	// Check produces the findings for a single target. It never fails:
	// probe errors are absorbed and simply contribute no findings.
	Check(ctx context.Context, target scan.Target) []scan.Finding

	// Name returns the name of this checker (e.g., "security-headers")
	Name() string
}

// Options configures the default check set.
type Options struct {
	Prober         Prober
	Logger         *zap.Logger
	HeaderTimeout  time.Duration
	PathTimeout    time.Duration
	SensitivePaths []string
	PathWorkers    int
	PathRateLimit  int
}

// DefaultChecks returns the fixed check set in execution order:
// security headers, transport security, sensitive paths.
func DefaultChecks(opts Options) []Checker {
	return []Checker{
		&SecurityHeaderChecker{
			Prober:  opts.Prober,
			Timeout: opts.HeaderTimeout,
			Logger:  opts.Logger,
		},
		&TransportSecurityChecker{},
		&SensitivePathChecker{
			Prober:  opts.Prober,
			Timeout: opts.PathTimeout,
			Paths:   opts.SensitivePaths,
			Runner:  &Runner{Concurrency: opts.PathWorkers, RateLimit: opts.PathRateLimit},
			Logger:  opts.Logger,
		},
	}
}

// Runner executes independent units of work with bounded concurrency and an
// optional global rate limit.
type Runner struct {
	Concurrency int // Maximum number of units in flight (<=0 means 1)
	RateLimit   int // Units started per second (<=0 disables limiting)
}

// Run calls fn once for every index in [0, n) and returns when all calls have
// finished. Callers store results by index to keep input order regardless of
// completion order. An index whose rate-limit wait is interrupted by ctx is
// skipped. A panic in fn is re-raised on the caller's goroutine once every
// call has returned, so callers can recover it.
func (r *Runner) Run(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	if n <= 0 {
		return
	}

	concurrency := 1
	var limiter *rate.Limiter
	if r != nil {
		if r.Concurrency > 0 {
			concurrency = r.Concurrency
		}
		if r.RateLimit > 0 {
			limiter = rate.NewLimiter(rate.Limit(r.RateLimit), r.RateLimit)
		}
	}
	if concurrency > n {
		concurrency = n
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var panicOnce sync.Once
	var panicked interface{}

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					panicOnce.Do(func() { panicked = p })
				}
			}()

			sem <- struct{}{}
			defer func() { <-sem }()

			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
			}

			fn(ctx, idx)
		}(i)
	}

	wg.Wait()

	if panicked != nil {
		panic(panicked)
	}
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
