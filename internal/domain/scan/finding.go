package scan

// Finding is one discovered issue. Field names on the wire follow the
// service's public response format.
type Finding struct {
	Kind           string   `json:"vulnType"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Location       string   `json:"location"`
	Recommendation string   `json:"recommendation"`
}
