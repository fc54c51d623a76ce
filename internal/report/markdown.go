// File: internal/report/markdown.go
package report

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/sentinel/api/schemas"
)

// Marker identifies the tracked comment on a review unit. It must appear in
// every rendered body so repeated runs update in place instead of
// duplicating.
const Marker = "<!-- sentinel-security-report -->"

const footer = `---
**Resources**
- [Security review guidelines](https://github.com/xkilldash9x/sentinel/blob/main/docs/security-review.md)
- [Severity taxonomy](https://github.com/xkilldash9x/sentinel/blob/main/docs/severity.md)
- [Report an analysis problem](https://github.com/xkilldash9x/sentinel/issues/new)`

// Render produces the full markdown comment body. highDisplayLimit caps the
// collapsible high-priority section; overflow is summarized.
func Render(r *schemas.AggregatedReport, highDisplayLimit int) string {
	var sb strings.Builder

	sb.WriteString(Marker + "\n")
	sb.WriteString("## Security Scan Report\n\n")

	// -- Executive summary --
	sb.WriteString("| Risk | Score | Action Required | Findings |\n")
	sb.WriteString("|------|-------|-----------------|----------|\n")
	fmt.Fprintf(&sb, "| %s | %.1f/10 | %s | %d |\n\n",
		r.RiskAssessment, r.SecurityScore, yesNo(r.ActionRequired), r.TotalFindings())

	// -- Per-tool status --
	sb.WriteString("| Tool | Status | Findings | Critical | High | Medium | Low |\n")
	sb.WriteString("|------|--------|----------|----------|------|--------|-----|\n")
	perTool := toolHistograms(r.Findings)
	for _, tool := range r.Tools {
		h := perTool[tool.Tool]
		fmt.Fprintf(&sb, "| %s | %s | %d | %d | %d | %d | %d |\n",
			tool.Tool, tool.Status, tool.Findings,
			h[schemas.SeverityCritical], h[schemas.SeverityHigh],
			h[schemas.SeverityMedium], h[schemas.SeverityLow])
	}
	sb.WriteString("\n")

	renderCriticalSection(&sb, r)
	renderHighSection(&sb, r, highDisplayLimit)
	renderRecommendations(&sb, r)

	// The metadata line lets a reviewer calibrate trust without reading logs.
	fmt.Fprintf(&sb, "_Assessment produced by: %s (provider: %s)", r.Analysis.Metadata.Tier, r.Analysis.Metadata.Provider)
	if r.Analysis.Metadata.EstimatedTokens > 0 {
		fmt.Fprintf(&sb, ", ~%d tokens", r.Analysis.Metadata.EstimatedTokens)
	}
	fmt.Fprintf(&sb, " | run %s at %s_\n\n", r.RunID, r.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))

	sb.WriteString(footer + "\n")
	return sb.String()
}

// renderCriticalSection is always present, explicitly stating when nothing
// was found.
func renderCriticalSection(sb *strings.Builder, r *schemas.AggregatedReport) {
	sb.WriteString("### Critical Issues\n\n")

	var criticals []schemas.Finding
	for _, f := range r.Findings {
		if f.Severity == schemas.SeverityCritical {
			criticals = append(criticals, f)
		}
	}

	if len(criticals) == 0 {
		sb.WriteString("None found.\n\n")
		return
	}
	for _, f := range criticals {
		fmt.Fprintf(sb, "- **%s** (%s) in `%s`: %s\n", f.VulnerabilityID, f.Tool, f.Location, f.Message)
	}
	sb.WriteString("\n")
}

func renderHighSection(sb *strings.Builder, r *schemas.AggregatedReport, limit int) {
	var highs []schemas.Finding
	for _, f := range r.Findings {
		if f.Severity == schemas.SeverityHigh {
			highs = append(highs, f)
		}
	}
	if len(highs) == 0 {
		return
	}

	fmt.Fprintf(sb, "<details>\n<summary>High Priority (%d)</summary>\n\n", len(highs))
	for i, f := range highs {
		if i == limit {
			fmt.Fprintf(sb, "- ...and %d more\n", len(highs)-limit)
			break
		}
		fmt.Fprintf(sb, "- **%s** (%s) in `%s`: %s\n", f.VulnerabilityID, f.Tool, f.Location, f.Message)
	}
	sb.WriteString("\n</details>\n\n")
}

func renderRecommendations(sb *strings.Builder, r *schemas.AggregatedReport) {
	if len(r.Recommendations) == 0 {
		return
	}
	sb.WriteString("### Recommendations\n\n")
	for i, rec := range r.Recommendations {
		fmt.Fprintf(sb, "%d. %s\n", i+1, rec)
	}
	sb.WriteString("\n")
}

func toolHistograms(findings []schemas.Finding) map[schemas.Tool]map[schemas.Severity]int {
	out := make(map[schemas.Tool]map[schemas.Severity]int)
	for _, f := range findings {
		if out[f.Tool] == nil {
			out[f.Tool] = make(map[schemas.Severity]int)
		}
		out[f.Tool][f.Severity]++
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
