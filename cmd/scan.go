package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	appscan "github.com/khanhnv2901/vulnscan/internal/application/scan"
	"github.com/khanhnv2901/vulnscan/internal/checker"
	"github.com/khanhnv2901/vulnscan/internal/domain/scan"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Run the security checks once against a URL",
	Long: `Run the security-header, transport-security and sensitive-path checks
against a single http:// or https:// URL and print the findings with an
aggregate severity score.`,
	Example: `  vulnscan scan https://example.com
  vulnscan scan http://localhost:3000 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scanType, _ := cmd.Flags().GetString("scan-type")
		asJSON, _ := cmd.Flags().GetBool("json")

		orchestrator, prober := newOrchestrator(appConfig.Scan, logger)
		defer prober.CloseIdleConnections()

		logger.Debug("scan requested", zap.String("url", args[0]), zap.String("scan_type", scanType))
		report, err := orchestrator.Scan(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		if asJSON {
			return writeJSONOutput(cmd.OutOrStdout(), report)
		}
		renderReport(cmd.OutOrStdout(), args[0], report)
		return nil
	},
}

func init() {
	scanCmd.Flags().String("scan-type", "full", "Scan type label (recorded only; every check always runs)")
	scanCmd.Flags().Bool("json", false, "Print the report as JSON")
	scanCmd.Flags().Duration("header-timeout", 0, "Timeout for the security header probe")
	scanCmd.Flags().Duration("path-timeout", 0, "Timeout for each sensitive path probe")
	scanCmd.Flags().Duration("scan-timeout", 0, "Deadline for the whole scan (0 = none)")
	scanCmd.Flags().Int("path-workers", 0, "Concurrent sensitive path probes")
}

// newOrchestrator wires the default check set to a shared HTTP prober.
func newOrchestrator(cfg ScanConfig, log *zap.Logger) (*appscan.Orchestrator, *checker.HTTPProber) {
	probeTimeout := cfg.HeaderTimeout
	if cfg.PathTimeout > probeTimeout {
		probeTimeout = cfg.PathTimeout
	}
	prober := checker.NewHTTPProber(probeTimeout)

	checks := checker.DefaultChecks(checker.Options{
		Prober:         prober,
		Logger:         log,
		HeaderTimeout:  cfg.HeaderTimeout,
		PathTimeout:    cfg.PathTimeout,
		SensitivePaths: cfg.SensitivePaths,
		PathWorkers:    cfg.PathWorkers,
		PathRateLimit:  cfg.PathRateLimit,
	})
	orchestrator := appscan.NewOrchestrator(checks,
		appscan.WithLogger(log),
		appscan.WithScanTimeout(cfg.Timeout),
	)
	return orchestrator, prober
}

func renderReport(w io.Writer, target string, report *scan.Report) {
	fmt.Fprintf(w, "%s Scan results for %s\n", colorInfo("→"), colorBold(target))

	if len(report.Findings) == 0 {
		fmt.Fprintf(w, "%s No vulnerabilities found\n", colorSuccess("✓"))
	}
	for i, f := range report.Findings {
		fmt.Fprintf(w, "\n%d. [%s] %s\n", i+1, formatSeverityWithColor(f.Severity), f.Kind)
		fmt.Fprintf(w, "   Location:       %s\n", f.Location)
		fmt.Fprintf(w, "   Description:    %s\n", f.Description)
		fmt.Fprintf(w, "   Recommendation: %s\n", f.Recommendation)
	}

	counts := report.CountBySeverity()
	fmt.Fprintf(w, "\nFindings: %d (critical %d, high %d, medium %d, low %d)\n",
		len(report.Findings),
		counts[scan.SeverityCritical],
		counts[scan.SeverityHigh],
		counts[scan.SeverityMedium],
		counts[scan.SeverityLow],
	)
	fmt.Fprintf(w, "Severity score: %d\n", report.SeverityScore)
	fmt.Fprintf(w, "Duration: %dms\n", report.DurationMs)
}

func writeJSONOutput(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
