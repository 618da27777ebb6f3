package scan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/khanhnv2901/vulnscan/internal/checker"
	"github.com/khanhnv2901/vulnscan/internal/domain/scan"
	apperrors "github.com/khanhnv2901/vulnscan/internal/shared/errors"
	"go.uber.org/zap"
)

// Orchestrator runs a fixed list of checks against one target and folds their
// findings into a scored report. It holds no per-scan state and is safe for
// concurrent use.
type Orchestrator struct {
	checks  []checker.Checker
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithScanTimeout bounds a whole scan. Probes still running at the deadline
// fail as transport errors and contribute no findings. Zero disables it.
func WithScanTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// NewOrchestrator creates an orchestrator. Findings are reported in the order
// checks are given here, regardless of which check finishes first.
func NewOrchestrator(checks []checker.Checker, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		checks: append([]checker.Checker(nil), checks...),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Scan validates rawURL and runs every check against it. Only validation and
// internal failures are returned; probe failures are absorbed by the checks.
func (o *Orchestrator) Scan(ctx context.Context, rawURL string) (*scan.Report, error) {
	target, err := scan.ParseTarget(rawURL)
	if err != nil {
		return nil, err
	}

	start := o.now()
	logger := o.logger.With(zap.String("url", target.String()))
	logger.Info("scan started", zap.Int("checks", len(o.checks)))

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	results := make([][]scan.Finding, len(o.checks))
	failures := make([]error, len(o.checks))

	var wg sync.WaitGroup
	for i, c := range o.checks {
		wg.Add(1)
		go func(idx int, c checker.Checker) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					failures[idx] = fmt.Errorf("check %s panicked: %v", c.Name(), r)
				}
			}()

			checkStart := o.now()
			results[idx] = c.Check(ctx, target)
			logger.Debug("check completed",
				zap.String("check", c.Name()),
				zap.Int("findings", len(results[idx])),
				zap.Duration("duration", o.now().Sub(checkStart)),
			)
		}(i, c)
	}
	wg.Wait()

	for _, failure := range failures {
		if failure != nil {
			logger.Error("scan failed", zap.Error(failure))
			return nil, apperrors.Internal("scan", failure)
		}
	}

	var findings []scan.Finding
	for _, r := range results {
		findings = append(findings, r...)
	}

	report := scan.NewReport(findings, o.now().Sub(start))
	logger.Info("scan completed",
		zap.Int("findings", len(report.Findings)),
		zap.Uint("severity_score", report.SeverityScore),
		zap.Uint64("duration_ms", report.DurationMs),
	)
	return report, nil
}

// Checks returns the names of the configured checks in execution order.
func (o *Orchestrator) Checks() []string {
	names := make([]string, len(o.checks))
	for i, c := range o.checks {
		names[i] = c.Name()
	}
	return names
}
