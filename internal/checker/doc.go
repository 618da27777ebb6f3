// Package checker implements the probes and checks that make up a scan.
//
// Architecture overview:
//
//   - Prober issues single outbound GET requests. HTTPProber is the production
//     implementation: it accepts invalid certificates and reports DNS, connect,
//     timeout and TLS failures as transport errors.
//   - Checkers implement the Checker interface (Name + Check) for one category
//     of issue: SecurityHeaderChecker, TransportSecurityChecker and
//     SensitivePathChecker. A transport failure never escapes a checker; it is
//     logged and yields no findings for that probe.
//   - Runner fans work out over a bounded number of goroutines with optional
//     rate limiting while callers keep results in input order.
//   - PortScanner performs TCP connect scans for the standalone port endpoint.
//
// DefaultChecks returns the fixed check set in execution order, so callers
// such as the scan orchestrator iterate checks instead of naming them.
package checker
