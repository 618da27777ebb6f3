package scan

// Severity ranks a finding.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// SeverityWeights is the contribution of each severity to a report's score.
// Severities missing from the table weigh 0.
var SeverityWeights = map[Severity]uint{
	SeverityCritical: 10,
	SeverityHigh:     7,
	SeverityMedium:   4,
	SeverityLow:      1,
}

// Weight returns the score contribution of s.
func (s Severity) Weight() uint {
	return SeverityWeights[s]
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	_, ok := SeverityWeights[s]
	return ok
}

func (s Severity) String() string {
	return string(s)
}
