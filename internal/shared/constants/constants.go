package constants

import "time"

const (
	// HeaderProbeTimeout bounds the single request made by header inspection.
	HeaderProbeTimeout = 10 * time.Second
	// PathProbeTimeout bounds each sensitive-path probe; many are issued per scan.
	PathProbeTimeout = 5 * time.Second
	// PortProbeTimeout bounds each TCP connect during a port scan.
	PortProbeTimeout = 2 * time.Second
)

const (
	// DefaultPathWorkers caps concurrent sensitive-path probes against one target.
	DefaultPathWorkers = 6
	// DefaultPortWorkers caps concurrent TCP connects during a port scan.
	DefaultPortWorkers = 20
	// ProbeBodyDrainLimit is how much of a probe response body is read before closing.
	ProbeBodyDrainLimit = 4096
	// MaxScanRequestBytes caps inbound JSON request bodies.
	MaxScanRequestBytes = 4096
	// DefaultJobRetention is how many async scan jobs are kept in memory.
	DefaultJobRetention = 1000
)

// UserAgent identifies outbound probes.
const UserAgent = "vulnscan/1.0 (+opportunistic security checks)"
