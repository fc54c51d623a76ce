// File: internal/orchestrator/prompt.go
package orchestrator

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/sentinel/api/schemas"
)

// promptFindingLimit caps how many individual findings are spelled out in
// the prompt; the histogram always carries the full picture.
const promptFindingLimit = 25

const responseContract = `Respond with a single JSON object, no prose, of the shape:
{
  "security_score": <number 0.0-10.0, higher is riskier>,
  "risk_assessment": "LOW" | "MEDIUM" | "HIGH" | "CRITICAL",
  "action_required": <bool>,
  "vulnerabilities": [{"title": "...", "severity": "...", "description": "...", "remediation": "..."}],
  "recommendations": ["ordered, most important first"]
}`

// buildPrompt renders the analysis request. The focused variant narrows the
// task to dependency vulnerabilities, which is what the secondary tier is
// specialized for in secondary-only mode.
func (o *Orchestrator) buildPrompt(input RunInput, focused bool) string {
	var sb strings.Builder

	if focused {
		sb.WriteString("You are a dependency-security reviewer. Assess only the supply-chain and dependency risk of this change.\n\n")
	} else {
		sb.WriteString("You are a security reviewer. Assess the overall security risk of this change.\n\n")
	}

	fmt.Fprintf(&sb, "Declared risk hint: %s\n", input.RiskHint)
	fmt.Fprintf(&sb, "Changed files (%d):\n", len(input.ChangedFiles))
	for _, f := range input.ChangedFiles {
		sb.WriteString("  - " + f + "\n")
	}

	histogram := map[schemas.Severity]int{}
	for _, f := range input.Findings {
		histogram[f.Severity]++
	}
	fmt.Fprintf(&sb, "\nScanner findings: %d total (critical=%d high=%d medium=%d low=%d informational=%d)\n",
		len(input.Findings),
		histogram[schemas.SeverityCritical],
		histogram[schemas.SeverityHigh],
		histogram[schemas.SeverityMedium],
		histogram[schemas.SeverityLow],
		histogram[schemas.SeverityInformational])

	for i, f := range input.Findings {
		if i == promptFindingLimit {
			fmt.Fprintf(&sb, "  ...and %d more\n", len(input.Findings)-promptFindingLimit)
			break
		}
		if focused && f.Tool != schemas.ToolOSV && f.Tool != schemas.ToolDependabot {
			continue
		}
		fmt.Fprintf(&sb, "  [%s/%s] %s: %s (%s)\n",
			f.Tool, f.Severity, f.VulnerabilityID, f.Message, f.Location)
	}

	sb.WriteString("\n")
	sb.WriteString(responseContract)
	return sb.String()
}
