// Package scan holds the data model of a scan: the validated Target, the
// Finding produced by checks, the Severity weight table, and the Report
// assembled once per invocation. Values here are immutable once built and
// carry no state between scans.
package scan
