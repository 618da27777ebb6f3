package checker

import (
	"context"
	"net"
	"strconv"
	"time"

	consts "github.com/khanhnv2901/vulnscan/internal/shared/constants"
	apperrors "github.com/khanhnv2901/vulnscan/internal/shared/errors"
	"go.uber.org/zap"
)

// Port states
const (
	PortOpen   = "open"
	PortClosed = "closed"
)

// DefaultPorts is scanned when a request names no ports.
var DefaultPorts = []int{21, 22, 23, 25, 80, 110, 143, 443, 445, 3306, 3389, 5432, 8080}

// portServices maps well-known ports to service names
var portServices = map[int]string{
	20:    "FTP-Data",
	21:    "FTP",
	22:    "SSH",
	23:    "Telnet",
	25:    "SMTP",
	53:    "DNS",
	80:    "HTTP",
	110:   "POP3",
	143:   "IMAP",
	443:   "HTTPS",
	445:   "SMB",
	3306:  "MySQL",
	3389:  "RDP",
	5432:  "PostgreSQL",
	5900:  "VNC",
	8080:  "HTTP-Proxy",
	8443:  "HTTPS-Alt",
	27017: "MongoDB",
}

// PortResult is the state of one scanned port.
type PortResult struct {
	Port    int    `json:"port"`
	Status  string `json:"status"`
	Service string `json:"service"`
}

// PortScanReport summarizes a port scan. Results follow the requested port order.
type PortScanReport struct {
	Host    string       `json:"host"`
	Results []PortResult `json:"results"`
	Total   int          `json:"total_scanned"`
	Open    int          `json:"open_ports"`
}

// PortScanner performs TCP connect scans.
type PortScanner struct {
	Timeout time.Duration // Per-port dial timeout
	Workers int           // Concurrent dials
	Ports   []int         // Ports scanned when a request names none (nil = DefaultPorts)
	Logger  *zap.Logger
	// OnResult, if set, is called from worker goroutines as each port finishes.
	OnResult func(PortResult)
}

// ScanPorts dials every port on host. An empty port list scans s.Ports, or
// DefaultPorts when that is unset.
func (s *PortScanner) ScanPorts(ctx context.Context, host string, ports []int) (*PortScanReport, error) {
	host = ExtractHost(host)
	if host == "" {
		return nil, apperrors.Validation("scan ports", apperrors.ErrEmptyHost)
	}
	if len(ports) == 0 {
		ports = s.Ports
	}
	if len(ports) == 0 {
		ports = DefaultPorts
	}
	for _, p := range ports {
		if p < 1 || p > 65535 {
			return nil, apperrors.Validation("scan ports", apperrors.ErrInvalidPort)
		}
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = consts.PortProbeTimeout
	}
	workers := s.Workers
	if workers <= 0 {
		workers = consts.DefaultPortWorkers
	}
	logger := loggerOrNop(s.Logger)
	logger.Info("starting port scan", zap.String("host", host), zap.Ints("ports", ports))

	results := make([]PortResult, len(ports))
	runner := &Runner{Concurrency: workers}
	runner.Run(ctx, len(ports), func(ctx context.Context, i int) {
		results[i] = checkPort(ctx, host, ports[i], timeout)
		if s.OnResult != nil {
			s.OnResult(results[i])
		}
	})

	report := &PortScanReport{
		Host:    host,
		Results: results,
		Total:   len(ports),
	}
	for i := range results {
		// Ports skipped by a cancelled context are reported closed.
		if results[i].Status == "" {
			results[i] = PortResult{Port: ports[i], Status: PortClosed}
		}
		if results[i].Status == PortOpen {
			report.Open++
		}
	}

	logger.Info("port scan completed",
		zap.String("host", host),
		zap.Int("total", report.Total),
		zap.Int("open", report.Open),
	)
	return report, nil
}

// checkPort reports whether a TCP connection to host:port can be established
func checkPort(ctx context.Context, host string, port int, timeout time.Duration) PortResult {
	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return PortResult{Port: port, Status: PortClosed}
	}
	_ = conn.Close()

	return PortResult{
		Port:    port,
		Status:  PortOpen,
		Service: ServiceName(port),
	}
}

// ServiceName returns the common service name for a port
func ServiceName(port int) string {
	if name, ok := portServices[port]; ok {
		return name
	}
	return "Unknown"
}
