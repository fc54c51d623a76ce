// File: internal/adapters/zapscan.go
package adapters

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/sentinel/api/schemas"
)

// zapAdapter handles the dynamic-scan site/alert tree. This format has no
// critical level: riskcode tops out at 3 (high).
type zapAdapter struct{}

// The traditional dynamic-scan JSON export encodes every scalar as a string,
// attribute-style keys included.
type zapDoc struct {
	Site []struct {
		Name   string `json:"@name"`
		Host   string `json:"@host"`
		Port   string `json:"@port"`
		Alerts []struct {
			Alert      string `json:"alert"`
			PluginID   string `json:"pluginid"`
			RiskCode   string `json:"riskcode"`
			Confidence string `json:"confidence"`
			Desc       string `json:"desc"`
			Solution   string `json:"solution"`
			Reference  string `json:"reference"`
			CWEID      string `json:"cweid"`
			Instances  []struct {
				URI string `json:"uri"`
			} `json:"instances"`
		} `json:"alerts"`
	} `json:"site"`
}

func (a *zapAdapter) Tool() schemas.Tool { return schemas.ToolZAP }

func (a *zapAdapter) Parse(doc []byte) ([]schemas.Finding, error) {
	var parsed zapDoc
	if err := json.Unmarshal(doc, &parsed); err != nil {
		return nil, fmt.Errorf("invalid dynamic scan document: %w", err)
	}

	var findings []schemas.Finding
	for _, site := range parsed.Site {
		location := siteLocation(site.Host, site.Port, site.Name)

		for _, alert := range site.Alerts {
			message := strings.TrimSpace(StripHTML(alert.Desc))
			if message == "" {
				message = orUnknown(alert.Alert, "No description provided")
			}
			if conf := confidenceLabel(alert.Confidence); conf != "" {
				message = fmt.Sprintf("%s (Confidence: %s)", message, conf)
			}
			if solution := strings.TrimSpace(StripHTML(alert.Solution)); solution != "" {
				message = fmt.Sprintf("%s Solution: %s", message, solution)
			}

			findings = append(findings, schemas.Finding{
				Tool:            schemas.ToolZAP,
				Severity:        severityFromRiskCode(alert.RiskCode),
				VulnerabilityID: alertID(alert.CWEID, alert.PluginID, alert.Alert),
				Message:         message,
				Location:        location,
				Package:         orUnknown(firstInstanceURI(alert.Instances), schemas.UnknownPackage),
				CVSSScore:       schemas.CVSSNotAvailable,
			})
		}
	}
	return findings, nil
}

// severityFromRiskCode maps the 0..3 risk code. Confidence never affects
// severity. An unparseable code defaults to medium like every other adapter.
func severityFromRiskCode(code string) schemas.Severity {
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return schemas.SeverityMedium
	}
	switch n {
	case 0:
		return schemas.SeverityInformational
	case 1:
		return schemas.SeverityLow
	case 2:
		return schemas.SeverityMedium
	default:
		return schemas.SeverityHigh
	}
}

// confidenceLabel renders the confidence integer for display only.
func confidenceLabel(confidence string) string {
	switch strings.TrimSpace(confidence) {
	case "1":
		return "Low"
	case "2":
		return "Medium"
	case "3":
		return "High"
	default:
		return ""
	}
}

func alertID(cweID, pluginID, name string) string {
	cweID = strings.TrimSpace(cweID)
	if cweID != "" && cweID != "-1" {
		return "CWE-" + cweID
	}
	if pluginID != "" {
		return pluginID
	}
	return orUnknown(name, schemas.UnknownID)
}

func siteLocation(host, port, name string) string {
	if host != "" && port != "" {
		return host + ":" + port
	}
	if host != "" {
		return host
	}
	return orUnknown(name, "unknown")
}

func firstInstanceURI(instances []struct {
	URI string `json:"uri"`
}) string {
	if len(instances) > 0 {
		return instances[0].URI
	}
	return ""
}
