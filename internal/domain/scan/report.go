package scan

import "time"

// Report is the outcome of one scan invocation.
type Report struct {
	Findings      []Finding `json:"vulnerabilities"`
	SeverityScore uint      `json:"severityScore"`
	DurationMs    uint64    `json:"scanDurationMs"`
}

// NewReport assembles a report from findings in their final order and the
// elapsed scan time. The findings slice is copied.
func NewReport(findings []Finding, elapsed time.Duration) *Report {
	copied := make([]Finding, len(findings))
	copy(copied, findings)

	ms := elapsed.Milliseconds()
	if ms < 0 {
		ms = 0
	}

	return &Report{
		Findings:      copied,
		SeverityScore: Score(copied),
		DurationMs:    uint64(ms),
	}
}

// Score sums the severity weight of every finding.
func Score(findings []Finding) uint {
	var total uint
	for _, f := range findings {
		total += f.Severity.Weight()
	}
	return total
}

// CountBySeverity tallies findings per severity.
func (r *Report) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int, len(SeverityWeights))
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}
