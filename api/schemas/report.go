package schemas

import (
	"encoding/json"
	"time"
)

// -- Aggregated Report Schemas --

// ToolReport captures one scanner's contribution to a run.
type ToolReport struct {
	Tool     Tool       `json:"tool"`
	Status   ToolStatus `json:"status"`
	Findings int        `json:"findings"`
}

// AggregatedReport is the final artifact of a run: the union of all
// canonical findings, the analysis tier's assessment, and the rendered
// comment body. It is built once per run and immutable after construction.
type AggregatedReport struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Findings []Finding         `json:"findings"`
	Severity map[Severity]int  `json:"severity_histogram"`
	Tools    []ToolReport      `json:"tools"`
	Analysis TierResult        `json:"analysis"`

	RiskAssessment  RiskLevel `json:"risk_assessment"`
	ActionRequired  bool      `json:"action_required"`
	RequiresReview  bool      `json:"requires_review"`
	SecurityScore   float64   `json:"security_score"`
	Recommendations []string  `json:"recommendations"`

	// Markdown is the rendered comment body, marker included.
	Markdown string `json:"markdown"`
}

// TotalFindings is the sum over all tools' parsed findings.
func (r *AggregatedReport) TotalFindings() int {
	return len(r.Findings)
}

// CountBySeverity returns the histogram entry for s, zero when absent.
func (r *AggregatedReport) CountBySeverity(s Severity) int {
	return r.Severity[s]
}

// ToJSON serializes the report for the machine-readable artifact.
func (r *AggregatedReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
