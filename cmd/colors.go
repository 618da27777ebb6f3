package cmd

import (
	"strings"

	"github.com/fatih/color"
	"github.com/khanhnv2901/vulnscan/internal/checker"
	"github.com/khanhnv2901/vulnscan/internal/domain/scan"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorBold    = color.New(color.Bold).SprintFunc()
)

func formatSeverityWithColor(sev scan.Severity) string {
	label := strings.ToUpper(sev.String())
	switch sev {
	case scan.SeverityCritical, scan.SeverityHigh:
		return colorError(label)
	case scan.SeverityMedium:
		return colorWarn(label)
	case scan.SeverityLow:
		return colorInfo(label)
	default:
		return label
	}
}

func formatPortStatusWithColor(status string) string {
	switch status {
	case checker.PortOpen:
		return colorSuccess(status)
	case checker.PortClosed:
		return colorWarn(status)
	default:
		return status
	}
}
