package schemas

import "strings"

// -- Analysis (tier) Schemas --

// RiskLevel is the overall assessment attached to a run.
type RiskLevel string

const (
	RiskMinimal  RiskLevel = "MINIMAL" // Only valid as an input hint, never as an assessment.
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
	RiskUnknown  RiskLevel = "UNKNOWN"
)

// Rank orders risk levels so the aggregator can take a maximum. Higher is
// worse.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskCritical:
		return 4
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// ParseRiskLevel maps a free-form label (CI inputs, AI responses) onto the
// enum. Unrecognized values resolve to UNKNOWN rather than failing the run.
func ParseRiskLevel(raw string) RiskLevel {
	switch RiskLevel(strings.ToUpper(strings.TrimSpace(raw))) {
	case RiskMinimal:
		return RiskMinimal
	case RiskLow:
		return RiskLow
	case RiskMedium:
		return RiskMedium
	case RiskHigh:
		return RiskHigh
	case RiskCritical:
		return RiskCritical
	default:
		return RiskUnknown
	}
}

// RiskForSeverity translates an observed finding severity into the minimum
// acceptable aggregate risk level.
func RiskForSeverity(s Severity) RiskLevel {
	switch s {
	case SeverityCritical:
		return RiskCritical
	case SeverityHigh:
		return RiskHigh
	case SeverityMedium:
		return RiskMedium
	default:
		return RiskLow
	}
}

// AIVulnerability is the lightweight finding-like record an analysis backend
// may report. It is kept separate from the canonical Finding list, which
// always comes from deterministic parsing.
type AIVulnerability struct {
	Title       string `json:"title"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Remediation string `json:"remediation,omitempty"`
}

// TierMetadata records which strategy actually produced a TierResult. A
// result without metadata is invalid and must never be published.
type TierMetadata struct {
	// Tier is the human-facing label of the producing strategy, e.g.
	// "Primary AI", "Secondary AI", "Template-Only", "Optimized", "Emergency".
	Tier string `json:"tier"`

	// Provider names the backend ("gemini", "openai", "template").
	Provider string `json:"provider"`

	// EstimatedTokens is a cost-audit approximation, populated only when an
	// AI backend answered. Observability only; never drives control flow.
	EstimatedTokens int `json:"estimated_tokens,omitempty"`

	// FallbackReason carries the originating error message when an earlier
	// tier failed, so an auditor can answer why the assessment was downgraded.
	FallbackReason string `json:"fallback_reason,omitempty"`
}

// TierResult is the terminal output of the analysis orchestrator. The
// orchestrator guarantees a well-formed result even when every backend fails.
type TierResult struct {
	SecurityScore        float64           `json:"security_score"`
	RiskAssessment       RiskLevel         `json:"risk_assessment"`
	ActionRequired       bool              `json:"action_required"`
	VulnerabilitiesFound []AIVulnerability `json:"vulnerabilities_found"`
	Recommendations      []string          `json:"recommendations"`
	Metadata             TierMetadata      `json:"metadata"`
}

// Valid reports whether the result satisfies the publishing invariant:
// populated metadata and a score inside [0,10].
func (r *TierResult) Valid() bool {
	if r == nil || r.Metadata.Tier == "" {
		return false
	}
	return r.SecurityScore >= 0 && r.SecurityScore <= 10
}
