package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/khanhnv2901/vulnscan/internal/checker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var portsCmd = &cobra.Command{
	Use:   "ports <host>",
	Short: "Scan common TCP ports on a host",
	Long: `Attempt a TCP connection to each port and report which are open.
Without --ports the configured default list of common service ports is used.`,
	Example: `  vulnscan ports example.com
  vulnscan ports 10.0.0.5 --ports 22,80,443 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, _ := cmd.Flags().GetIntSlice("ports")
		asJSON, _ := cmd.Flags().GetBool("json")

		scanner := newPortScanner(appConfig.Ports, logger)
		var progress *progressPrinter
		if !asJSON {
			progress = newProgressPrinter(cmd.ErrOrStderr(), len(effectivePorts(ports, appConfig.Ports)), "ports")
			scanner.OnResult = func(r checker.PortResult) {
				progress.Increment(r.Status == checker.PortOpen)
			}
			progress.Start()
		}

		report, err := scanner.ScanPorts(cmd.Context(), args[0], ports)
		if progress != nil {
			progress.Stop()
		}
		if err != nil {
			return fmt.Errorf("port scan failed: %w", err)
		}

		if asJSON {
			return writeJSONOutput(cmd.OutOrStdout(), report)
		}
		renderPortReport(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	portsCmd.Flags().IntSlice("ports", nil, "Comma-separated ports to scan (default: common service ports)")
	portsCmd.Flags().Bool("json", false, "Print the report as JSON")
	portsCmd.Flags().Duration("port-timeout", 0, "Per-port connect timeout")
	portsCmd.Flags().Int("port-workers", 0, "Concurrent connection attempts")
}

func newPortScanner(cfg PortsConfig, log *zap.Logger) *checker.PortScanner {
	return &checker.PortScanner{
		Timeout: cfg.Timeout,
		Workers: cfg.Workers,
		Ports:   cfg.Default,
		Logger:  log,
	}
}

// effectivePorts mirrors the scanner's fallback to size the progress line.
func effectivePorts(requested []int, cfg PortsConfig) []int {
	if len(requested) > 0 {
		return requested
	}
	if len(cfg.Default) > 0 {
		return cfg.Default
	}
	return checker.DefaultPorts
}

func renderPortReport(w io.Writer, report *checker.PortScanReport) {
	fmt.Fprintf(w, "%s Port scan for %s\n\n", colorInfo("→"), colorBold(report.Host))
	fmt.Fprintf(w, "%-8s %-8s %s\n", "PORT", "STATUS", "SERVICE")
	for _, r := range report.Results {
		// Pad outside the color codes so columns stay aligned.
		pad := strings.Repeat(" ", max(0, 8-len(r.Status)))
		fmt.Fprintf(w, "%-8d %s%s %s\n", r.Port, formatPortStatusWithColor(r.Status), pad, r.Service)
	}
	fmt.Fprintf(w, "\n%d scanned, %d open\n", report.Total, report.Open)
}
