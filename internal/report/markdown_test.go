// File: internal/report/markdown_test.go
package report

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/sentinel/api/schemas"
)

func TestRenderContainsMarkerAndSummary(t *testing.T) {
	body := Render(sampleReport(), 5)

	assert.True(t, strings.HasPrefix(body, Marker), "marker must lead the body")
	assert.Contains(t, body, "## Security Scan Report")
	assert.Contains(t, body, "| CRITICAL | 8.2/10 | Yes | 2 |")
	assert.Contains(t, body, "| trivy | Completed | 1 | 1 | 0 | 0 | 0 |")
	assert.Contains(t, body, "| semgrep | Completed | 1 | 0 | 1 | 0 | 0 |")
}

func TestRenderCriticalSectionAlwaysPresent(t *testing.T) {
	r := sampleReport()
	body := Render(r, 5)
	assert.Contains(t, body, "### Critical Issues")
	assert.Contains(t, body, "**CVE-2026-0001** (trivy) in `Dockerfile`: RCE in libfoo")

	// No criticals still shows the section, explicitly empty.
	clean := sampleReport()
	clean.Findings = nil
	clean.Severity = nil
	body = Render(clean, 5)
	assert.Contains(t, body, "### Critical Issues")
	assert.Contains(t, body, "None found.")
}

func TestRenderHighSectionCapped(t *testing.T) {
	r := sampleReport()
	r.Findings = nil
	for i := 0; i < 8; i++ {
		r.Findings = append(r.Findings, schemas.Finding{
			Tool:            schemas.ToolSemgrep,
			Severity:        schemas.SeverityHigh,
			VulnerabilityID: fmt.Sprintf("rule-%d", i),
			Message:         "issue",
			Location:        "main.go:1",
		})
	}

	body := Render(r, 5)
	require.Contains(t, body, "<summary>High Priority (8)</summary>")
	assert.Contains(t, body, "rule-4")
	assert.NotContains(t, body, "rule-5")
	assert.Contains(t, body, "- ...and 3 more")
}

func TestRenderMetadataLine(t *testing.T) {
	body := Render(sampleReport(), 5)
	assert.Contains(t, body, "_Assessment produced by: Primary AI (provider: gemini), ~1200 tokens | run run-1234 at 2026-03-01 12:00:00 UTC_")
}

func TestRenderRecommendationsNumbered(t *testing.T) {
	body := Render(sampleReport(), 5)
	assert.Contains(t, body, "1. 1 critical vulnerabilities found - address before merge")
	assert.Contains(t, body, "2. Rotate affected credentials")
}

func TestRenderOmitsTokenCountWhenZero(t *testing.T) {
	r := sampleReport()
	r.Analysis.Metadata.EstimatedTokens = 0
	body := Render(r, 5)
	assert.NotContains(t, body, "~0 tokens")
	assert.Contains(t, body, "_Assessment produced by: Primary AI (provider: gemini) | run run-1234")
}
