package schemas

import (
	"strings"
)

// -- Finding Schemas --

// Tool identifies the scanner that produced a finding. The set is closed;
// adapters are registered against these values.
type Tool string

// Constants for the seven supported scan sources.
const (
	ToolTrivy      Tool = "trivy"       // Container image vulnerability scan (SARIF variant).
	ToolOSV        Tool = "osv-scanner" // Open-source dependency vulnerability scan (JSON).
	ToolSemgrep    Tool = "semgrep"     // Static analysis (SARIF).
	ToolCheckov    Tool = "checkov"     // Infrastructure-as-code scan (SARIF).
	ToolZAP        Tool = "zap"         // Dynamic application scan (site/alert JSON).
	ToolGitleaks   Tool = "gitleaks"    // Secret detections surfaced through the issue tracker.
	ToolDependabot Tool = "dependabot"  // Dependency alert feed.
)

// AllTools lists every supported source in report order.
var AllTools = []Tool{
	ToolTrivy, ToolOSV, ToolSemgrep, ToolCheckov, ToolZAP, ToolGitleaks, ToolDependabot,
}

// Severity is the canonical four-level scale every adapter must map into.
// SeverityInformational is permitted for dynamic-scan output only.
type Severity string

const (
	SeverityCritical      Severity = "CRITICAL"
	SeverityHigh          Severity = "HIGH"
	SeverityMedium        Severity = "MEDIUM"
	SeverityLow           Severity = "LOW"
	SeverityInformational Severity = "INFORMATIONAL"
)

// Rank orders severities for sorting, critical first. Unknown values sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	case SeverityInformational:
		return 4
	default:
		return 99
	}
}

// CVSSNotAvailable is the sentinel stored when a source reports no score.
const CVSSNotAvailable = "N/A"

// UnknownID and UnknownPackage are the fallbacks adapters use when a source
// omits the corresponding field. The canonical model never carries empty
// identifiers.
const (
	UnknownID      = "Unknown"
	UnknownPackage = "Unknown package"
)

// Finding is the canonical, normalized record for one issue reported by one
// scanner. Findings are created fresh each run by the adapters and never
// mutated afterwards.
type Finding struct {
	Tool     Tool     `json:"tool"`
	Severity Severity `json:"severity"`

	// VulnerabilityID is the tool-native identifier (CVE, CWE, rule name).
	VulnerabilityID string `json:"vulnerability_id"`

	// Message is the human-readable description, markup-stripped when the
	// source format embeds HTML.
	Message string `json:"message"`

	// Location is a best-effort "file:line", "host:port" or "issue #N"
	// reference depending on the tool.
	Location string `json:"location"`

	// Package names the affected artifact where one can be extracted.
	Package string `json:"package"`

	// CVSSScore is either a numeric string ("8.1") or CVSSNotAvailable. It
	// only feeds severity derivation at adapter time.
	CVSSScore string `json:"cvss_score"`
}

// SeverityFromScore maps a numeric security-severity value onto the
// canonical scale using the standard CVSS-style thresholds.
func SeverityFromScore(score float64) Severity {
	switch {
	case score >= 9.0:
		return SeverityCritical
	case score >= 7.0:
		return SeverityHigh
	case score >= 4.0:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// SeverityFromString normalizes a tool-supplied severity word. Matching is
// case-insensitive and substring-based ("moderate" counts as medium).
// Unrecognized input defaults to medium rather than leaking an unknown level
// into the aggregate.
func SeverityFromString(raw string) Severity {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "critical"):
		return SeverityCritical
	case strings.Contains(s, "high"):
		return SeverityHigh
	case strings.Contains(s, "medium"), strings.Contains(s, "moderate"):
		return SeverityMedium
	case strings.Contains(s, "low"):
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// SeverityFromLevel maps the coarse SARIF level taxonomy onto the canonical
// scale. Used only when a result carries no numeric security-severity.
func SeverityFromLevel(level string) Severity {
	switch strings.ToLower(level) {
	case "error":
		return SeverityHigh
	case "warning":
		return SeverityMedium
	default: // "note", "none", absent
		return SeverityLow
	}
}

// -- Tool Status --

// ToolStatus records the per-tool outcome of a run. A missing input file is
// Missing; a present-but-unparseable one is Error; both contribute zero
// findings without aborting the run.
type ToolStatus string

const (
	StatusCompleted ToolStatus = "Completed"
	StatusMissing   ToolStatus = "Missing"
	StatusError     ToolStatus = "Error"
)
