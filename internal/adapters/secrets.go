// File: internal/adapters/secrets.go
package adapters

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/sentinel/api/schemas"
)

// SecretIssue is a pre-summarized secret detection surfaced through the
// issue tracker rather than a scanner output file.
type SecretIssue struct {
	Number int
	Title  string
	Body   string
}

// FindingsFromSecretIssues normalizes tracker-derived secret detections.
// Exposed credentials are always HIGH severity; the location is the issue
// reference since there is no reliable file position by the time a secret is
// triaged through the tracker.
func FindingsFromSecretIssues(issues []SecretIssue) []schemas.Finding {
	findings := make([]schemas.Finding, 0, len(issues))
	for _, issue := range issues {
		findings = append(findings, schemas.Finding{
			Tool:            schemas.ToolGitleaks,
			Severity:        schemas.SeverityHigh,
			VulnerabilityID: orUnknown(secretRuleFromTitle(issue.Title), schemas.UnknownID),
			Message:         orUnknown(strings.TrimSpace(issue.Title), "Secret detected"),
			Location:        fmt.Sprintf("issue #%d", issue.Number),
			Package:         schemas.UnknownPackage,
			CVSSScore:       schemas.CVSSNotAvailable,
		})
	}
	return findings
}

// secretRuleFromTitle pulls a rule identifier out of the conventional
// "[rule-id] description" issue title, when present.
func secretRuleFromTitle(title string) string {
	title = strings.TrimSpace(title)
	if strings.HasPrefix(title, "[") {
		if end := strings.Index(title, "]"); end > 1 {
			return title[1:end]
		}
	}
	return ""
}
