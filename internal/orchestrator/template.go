// File: internal/orchestrator/template.go
package orchestrator

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/sentinel/api/schemas"
)

// Deterministic template scoring. The template tier has no external
// dependency and can never fail.
const (
	templateBaseScore = 5.0

	criticalWeight = 2.0
	highWeight     = 1.0
	mediumWeight   = 0.3
	lowWeight      = 0.1

	// riskHintBump is added when the caller already flagged the change as
	// high or critical risk.
	riskHintBump = 0.5

	// filePatternBump is added once per matched file-pattern category.
	filePatternBump = 0.3

	// smallChangeThreshold is the file count under which a change can
	// qualify for the cost-optimization short-circuit.
	smallChangeThreshold = 5
)

// Security-relevant file patterns, matched as lowercase substrings of the
// changed paths.
var (
	dependencyManifests = []string{
		"go.mod", "go.sum", "package.json", "package-lock.json", "yarn.lock",
		"requirements.txt", "pipfile", "pom.xml", "build.gradle", "gemfile",
		"cargo.toml", "composer.json",
	}
	containerFiles = []string{"dockerfile", "docker-compose"}
	iacFiles       = []string{".tf", ".tfvars", "cloudformation", "helm", "k8s/", "kubernetes/"}
	sensitivePaths = []string{"auth", "login", "password", "session", "token", "crypto", "secret", "permission"}
)

// isTriviallyLowRisk gates the short-circuit from NOT_STARTED: a minimal
// risk hint, a small change, no security-relevant artifacts, and nothing
// already found by the scanners.
func isTriviallyLowRisk(input RunInput) bool {
	if input.RiskHint != schemas.RiskMinimal {
		return false
	}
	if len(input.Findings) > 0 {
		return false
	}
	if len(input.ChangedFiles) > smallChangeThreshold {
		return false
	}
	return len(matchedFileCategories(input.ChangedFiles)) == 0
}

// matchedFileCategories names the security-relevant categories touched by
// the change.
func matchedFileCategories(files []string) []string {
	var categories []string
	match := func(patterns []string) bool {
		for _, file := range files {
			lower := strings.ToLower(file)
			for _, p := range patterns {
				if strings.Contains(lower, p) {
					return true
				}
			}
		}
		return false
	}

	if match(dependencyManifests) {
		categories = append(categories, "dependency manifests")
	}
	if match(containerFiles) {
		categories = append(categories, "container build files")
	}
	if match(iacFiles) {
		categories = append(categories, "infrastructure definitions")
	}
	if match(sensitivePaths) {
		categories = append(categories, "authentication or secret handling code")
	}
	return categories
}

// templateAnalyze computes the deterministic assessment: a fixed base score
// adjusted by the observed finding histogram, the risk hint, and file-pattern
// heuristics. Metadata is filled in by the caller, which knows why the
// template ran.
func templateAnalyze(input RunInput) schemas.TierResult {
	histogram := map[schemas.Severity]int{}
	for _, f := range input.Findings {
		histogram[f.Severity]++
	}

	score := templateBaseScore
	score += float64(histogram[schemas.SeverityCritical]) * criticalWeight
	score += float64(histogram[schemas.SeverityHigh]) * highWeight
	score += float64(histogram[schemas.SeverityMedium]) * mediumWeight
	score += float64(histogram[schemas.SeverityLow]) * lowWeight

	if input.RiskHint == schemas.RiskHigh || input.RiskHint == schemas.RiskCritical {
		score += riskHintBump
	}

	categories := matchedFileCategories(input.ChangedFiles)
	score += float64(len(categories)) * filePatternBump

	if score > 10 {
		score = 10
	}
	if score < 0 {
		score = 0
	}

	risk := schemas.RiskLow
	switch {
	case histogram[schemas.SeverityCritical] > 0:
		risk = schemas.RiskCritical
	case histogram[schemas.SeverityHigh] > 0:
		risk = schemas.RiskHigh
	case histogram[schemas.SeverityMedium] > 0:
		risk = schemas.RiskMedium
	}
	if input.RiskHint.Rank() > risk.Rank() && input.RiskHint != schemas.RiskMinimal {
		risk = input.RiskHint
	}

	recommendations := templateRecommendations(histogram, categories)

	return schemas.TierResult{
		SecurityScore:   score,
		RiskAssessment:  risk,
		ActionRequired:  risk.Rank() >= schemas.RiskHigh.Rank(),
		Recommendations: recommendations,
	}
}

func templateRecommendations(histogram map[schemas.Severity]int, categories []string) []string {
	var recs []string
	if n := histogram[schemas.SeverityCritical]; n > 0 {
		recs = append(recs, fmt.Sprintf("Remediate the %d critical finding(s) before merging", n))
	}
	if n := histogram[schemas.SeverityHigh]; n > 0 {
		recs = append(recs, fmt.Sprintf("Review the %d high-severity finding(s) and schedule fixes", n))
	}
	for _, category := range categories {
		recs = append(recs, "Manually review changes touching "+category)
	}
	if len(recs) == 0 {
		recs = append(recs, "No immediate action required; keep dependencies and base images current")
	}
	return recs
}
