// File: internal/adapters/depalerts.go
package adapters

import (
	"github.com/xkilldash9x/sentinel/api/schemas"
)

// DependencyAlert is one record from the dependency-alert feed, already
// summarized by the alert API.
type DependencyAlert struct {
	ID       string
	Summary  string
	Severity string
	Package  string
	URL      string
}

// FindingsFromDependencyAlerts normalizes alert-feed records. Severity is
// taken from the tool-reported string; the location is the alert reference.
func FindingsFromDependencyAlerts(alerts []DependencyAlert) []schemas.Finding {
	findings := make([]schemas.Finding, 0, len(alerts))
	for _, alert := range alerts {
		findings = append(findings, schemas.Finding{
			Tool:            schemas.ToolDependabot,
			Severity:        schemas.SeverityFromString(alert.Severity),
			VulnerabilityID: orUnknown(alert.ID, schemas.UnknownID),
			Message:         orUnknown(alert.Summary, "Vulnerable dependency reported"),
			Location:        orUnknown(alert.URL, "unknown"),
			Package:         orUnknown(alert.Package, schemas.UnknownPackage),
			CVSSScore:       schemas.CVSSNotAvailable,
		})
	}
	return findings
}
