// File: internal/adapters/osv.go
package adapters

import (
	"fmt"
	"strconv"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/sentinel/api/schemas"
)

// osvAdapter handles the dependency-vulnerability JSON shape:
// results[].packages[].vulnerabilities[].
type osvAdapter struct{}

type osvDoc struct {
	Results []struct {
		Source struct {
			Path string `json:"path"`
		} `json:"source"`
		Packages []struct {
			Package struct {
				Name      string `json:"name"`
				Ecosystem string `json:"ecosystem"`
			} `json:"package"`
			Vulnerabilities []struct {
				ID               string `json:"id"`
				Summary          string `json:"summary"`
				DatabaseSpecific struct {
					Severity  string  `json:"severity"`
					CVSSScore float64 `json:"cvss_score"`
				} `json:"database_specific"`
			} `json:"vulnerabilities"`
		} `json:"packages"`
	} `json:"results"`
}

func (a *osvAdapter) Tool() schemas.Tool { return schemas.ToolOSV }

func (a *osvAdapter) Parse(doc []byte) ([]schemas.Finding, error) {
	var parsed osvDoc
	if err := json.Unmarshal(doc, &parsed); err != nil {
		return nil, fmt.Errorf("invalid dependency scan document: %w", err)
	}

	var findings []schemas.Finding
	for _, result := range parsed.Results {
		location := orUnknown(result.Source.Path, "unknown")
		for _, pkg := range result.Packages {
			name := orUnknown(pkg.Package.Name, schemas.UnknownPackage)
			for _, vuln := range pkg.Vulnerabilities {
				cvss := schemas.CVSSNotAvailable
				if vuln.DatabaseSpecific.CVSSScore > 0 {
					cvss = strconv.FormatFloat(vuln.DatabaseSpecific.CVSSScore, 'f', 1, 64)
				}

				findings = append(findings, schemas.Finding{
					Tool:            schemas.ToolOSV,
					Severity:        schemas.SeverityFromString(vuln.DatabaseSpecific.Severity),
					VulnerabilityID: orUnknown(vuln.ID, schemas.UnknownID),
					Message:         orUnknown(vuln.Summary, "No description provided"),
					Location:        location,
					Package:         name,
					CVSSScore:       cvss,
				})
			}
		}
	}
	return findings, nil
}
