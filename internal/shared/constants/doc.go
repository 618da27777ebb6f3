// Package constants centralizes timeouts and limits shared across the scanner.
//
// Probe timeouts, worker caps and request limits live here so the checker,
// API and CLI packages reference the same values without import cycles.
package constants
