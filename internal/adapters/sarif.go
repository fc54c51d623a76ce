// File: internal/adapters/sarif.go
package adapters

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/sentinel/api/schemas"
)

// sarifAdapter handles the generic rule-based report shape shared by the
// static-analysis, infrastructure and container scanners. The container
// variant additionally extracts the affected package from the result message.
type sarifAdapter struct {
	tool             schemas.Tool
	containerVariant bool
}

type sarifDoc struct {
	Runs []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool struct {
		Driver struct {
			Rules []sarifRule `json:"rules"`
		} `json:"driver"`
	} `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifRule struct {
	ID               string `json:"id"`
	ShortDescription struct {
		Text string `json:"text"`
	} `json:"shortDescription"`
	Properties map[string]any `json:"properties"`
}

type sarifResult struct {
	RuleID  string `json:"ruleId"`
	Level   string `json:"level"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
	Locations []struct {
		PhysicalLocation struct {
			ArtifactLocation struct {
				URI string `json:"uri"`
			} `json:"artifactLocation"`
			Region struct {
				StartLine int `json:"startLine"`
			} `json:"region"`
		} `json:"physicalLocation"`
	} `json:"locations"`
	Properties map[string]any `json:"properties"`
}

func (a *sarifAdapter) Tool() schemas.Tool { return a.tool }

func (a *sarifAdapter) Parse(doc []byte) ([]schemas.Finding, error) {
	var parsed sarifDoc
	if err := json.Unmarshal(doc, &parsed); err != nil {
		return nil, fmt.Errorf("invalid SARIF document: %w", err)
	}

	var findings []schemas.Finding
	for _, run := range parsed.Runs {
		// Rule metadata carries security-severity when results do not.
		rules := make(map[string]sarifRule, len(run.Tool.Driver.Rules))
		for _, rule := range run.Tool.Driver.Rules {
			rules[rule.ID] = rule
		}

		for _, result := range run.Results {
			findings = append(findings, a.normalizeResult(result, rules))
		}
	}
	return findings, nil
}

func (a *sarifAdapter) normalizeResult(result sarifResult, rules map[string]sarifRule) schemas.Finding {
	severity, cvss := a.deriveSeverity(result, rules)

	message := strings.TrimSpace(result.Message.Text)
	if message == "" {
		if rule, ok := rules[result.RuleID]; ok {
			message = rule.ShortDescription.Text
		}
	}

	pkg := schemas.UnknownPackage
	if a.containerVariant {
		pkg = orUnknown(packageFromMessage(result.Message.Text), schemas.UnknownPackage)
	}

	return schemas.Finding{
		Tool:            a.tool,
		Severity:        severity,
		VulnerabilityID: orUnknown(result.RuleID, schemas.UnknownID),
		Message:         orUnknown(message, "No description provided"),
		Location:        sarifLocation(result),
		Package:         pkg,
		CVSSScore:       cvss,
	}
}

// deriveSeverity prefers a numeric security-severity property (result first,
// then rule metadata) and falls back to the coarse level taxonomy.
func (a *sarifAdapter) deriveSeverity(result sarifResult, rules map[string]sarifRule) (schemas.Severity, string) {
	if score, ok := securitySeverity(result.Properties); ok {
		return schemas.SeverityFromScore(score), strconv.FormatFloat(score, 'f', 1, 64)
	}
	if rule, ok := rules[result.RuleID]; ok {
		if score, ok := securitySeverity(rule.Properties); ok {
			return schemas.SeverityFromScore(score), strconv.FormatFloat(score, 'f', 1, 64)
		}
	}
	return schemas.SeverityFromLevel(result.Level), schemas.CVSSNotAvailable
}

// securitySeverity coerces the "security-severity" property, which tools emit
// as either a JSON number or a numeric string.
func securitySeverity(props map[string]any) (float64, bool) {
	raw, ok := props["security-severity"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func sarifLocation(result sarifResult) string {
	if len(result.Locations) == 0 {
		return "unknown"
	}
	loc := result.Locations[0].PhysicalLocation
	uri := loc.ArtifactLocation.URI
	if uri == "" {
		return "unknown"
	}
	if loc.Region.StartLine > 0 {
		return fmt.Sprintf("%s:%d", uri, loc.Region.StartLine)
	}
	return uri
}

// packageFromMessage scans the container scanner's multi-line message text for
// its "Package:" field.
func packageFromMessage(message string) string {
	for _, line := range strings.Split(message, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "Package: "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
