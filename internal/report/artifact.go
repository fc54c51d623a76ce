// File: internal/report/artifact.go
package report

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xkilldash9x/sentinel/api/schemas"
)

// WriteReportFile persists the full report as a JSON artifact for later
// pipeline stages.
func WriteReportFile(path string, r *schemas.AggregatedReport) error {
	data, err := r.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteOutputs appends the report's key variables in GITHUB_OUTPUT
// key=value format so downstream workflow steps can gate on them. Multiline
// values use the heredoc delimiter syntax the runner expects.
func WriteOutputs(path string, r *schemas.AggregatedReport) error {
	var b strings.Builder

	writeVar := func(key, value string) {
		if strings.ContainsAny(value, "\n\r") {
			b.WriteString(key)
			b.WriteString("<<SENTINEL_EOF\n")
			b.WriteString(value)
			b.WriteString("\nSENTINEL_EOF\n")
			return
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(value)
		b.WriteByte('\n')
	}

	writeVar("risk_assessment", string(r.RiskAssessment))
	writeVar("action_required", strconv.FormatBool(r.ActionRequired))
	writeVar("security_score", strconv.FormatFloat(r.SecurityScore, 'f', 1, 64))
	writeVar("vulnerability_count", strconv.Itoa(r.TotalFindings()))
	writeVar("requires_review", strconv.FormatBool(r.RequiresReview))
	writeVar("recommendations", strings.Join(r.Recommendations, "\n"))
	writeVar("provider", r.Analysis.Metadata.Provider)
	writeVar("tier", r.Analysis.Metadata.Tier)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
