package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/khanhnv2901/vulnscan/internal/domain/scan"
	consts "github.com/khanhnv2901/vulnscan/internal/shared/constants"
	"go.uber.org/zap"
)

// DefaultSensitivePaths are probed on every target, in reporting order.
var DefaultSensitivePaths = []string{
	"/.git/config",
	"/.env",
	"/config.php",
	"/wp-config.php",
	"/admin",
	"/phpmyadmin",
}

// SensitivePathChecker probes well-known sensitive files and directories
// under the target and reports those that answer with a 2xx status.
type SensitivePathChecker struct {
	Prober  Prober
	Timeout time.Duration // Per-probe timeout
	// Paths overrides DefaultSensitivePaths when non-nil.
	Paths  []string
	Runner *Runner
	Logger *zap.Logger
}

// Check probes every configured path. Paths are independent: a failed or
// non-2xx probe contributes nothing and does not stop the others. Findings
// follow the configured path order.
func (c *SensitivePathChecker) Check(ctx context.Context, target scan.Target) []scan.Finding {
	paths := c.paths()
	base := target.Base()
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = consts.PathProbeTimeout
	}
	logger := loggerOrNop(c.Logger)

	runner := c.Runner
	if runner == nil {
		runner = &Runner{Concurrency: consts.DefaultPathWorkers}
	}

	hits := make([]*scan.Finding, len(paths))
	runner.Run(ctx, len(paths), func(ctx context.Context, i int) {
		path := paths[i]
		probeURL := base + path

		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		resp, err := c.Prober.Fetch(probeCtx, probeURL)
		if err != nil {
			logger.Debug("sensitive path probe failed",
				zap.String("check", c.Name()),
				zap.String("url", probeURL),
				zap.Error(err),
			)
			return
		}
		if !resp.IsSuccess() {
			return
		}

		hits[i] = &scan.Finding{
			Kind:           "Sensitive File Exposed",
			Severity:       scan.SeverityHigh,
			Description:    fmt.Sprintf("Sensitive file or directory accessible: %s", path),
			Location:       probeURL,
			Recommendation: "Restrict access to sensitive files and directories. Use .htaccess or server configuration.",
		}
	})

	var findings []scan.Finding
	for _, hit := range hits {
		if hit != nil {
			findings = append(findings, *hit)
		}
	}
	return findings
}

// Name returns the name of this checker
func (c *SensitivePathChecker) Name() string {
	return "sensitive-paths"
}

func (c *SensitivePathChecker) paths() []string {
	if c.Paths != nil {
		return c.Paths
	}
	return DefaultSensitivePaths
}
