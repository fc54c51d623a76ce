// File: internal/aggregate/aggregator.go
// Description: Merges the deterministically parsed findings with the
// analysis tier's assessment. Directly observed counts always win over the
// AI tier's opinion; the AI only adds prioritization and narrative.

package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sentinel/api/schemas"
	"github.com/xkilldash9x/sentinel/internal/adapters"
)

// Aggregator builds the immutable per-run report.
type Aggregator struct {
	logger *zap.Logger
}

// New creates an Aggregator.
func New(logger *zap.Logger) *Aggregator {
	return &Aggregator{logger: logger.Named("aggregate")}
}

// Build merges all tool contributions and the tier result into one report.
// The returned report is complete except for the rendered markdown body,
// which the publisher attaches.
func (a *Aggregator) Build(sources []adapters.SourceResult, analysis schemas.TierResult) *schemas.AggregatedReport {
	report := &schemas.AggregatedReport{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Severity:    make(map[schemas.Severity]int),
		Analysis:    analysis,
	}

	for _, source := range sources {
		report.Tools = append(report.Tools, schemas.ToolReport{
			Tool:     source.Tool,
			Status:   source.Status,
			Findings: len(source.Findings),
		})
		for _, finding := range source.Findings {
			report.Findings = append(report.Findings, finding)
			report.Severity[finding.Severity]++
		}
	}

	prioritize(report.Findings)

	report.RiskAssessment = analysis.RiskAssessment
	report.ActionRequired = analysis.ActionRequired
	report.SecurityScore = analysis.SecurityScore

	// Ground truth overrides opinion: observed critical or high findings
	// force the aggregate risk up regardless of what the AI concluded.
	if floor := observedRiskFloor(report.Severity); floor.Rank() > report.RiskAssessment.Rank() {
		a.logger.Info("Overriding analysis risk with observed findings",
			zap.String("analysis_risk", string(report.RiskAssessment)),
			zap.String("observed_floor", string(floor)))
		report.RiskAssessment = floor
	}
	if report.Severity[schemas.SeverityCritical] > 0 || report.Severity[schemas.SeverityHigh] > 0 {
		report.ActionRequired = true
	}

	report.RequiresReview = report.ActionRequired ||
		report.RiskAssessment.Rank() >= schemas.RiskHigh.Rank() ||
		report.TotalFindings() > 0

	// Deterministic recommendations come first; the AI's narrative follows.
	report.Recommendations = append(deterministicRecommendations(report.Severity), analysis.Recommendations...)

	a.logger.Info("Aggregated report built",
		zap.String("run_id", report.RunID),
		zap.Int("findings", report.TotalFindings()),
		zap.String("risk", string(report.RiskAssessment)),
		zap.Bool("action_required", report.ActionRequired))

	return report
}

// observedRiskFloor is the minimum aggregate risk the histogram allows. Only
// critical and high findings force an upgrade; medium and below never
// override judgment.
func observedRiskFloor(histogram map[schemas.Severity]int) schemas.RiskLevel {
	switch {
	case histogram[schemas.SeverityCritical] > 0:
		return schemas.RiskCritical
	case histogram[schemas.SeverityHigh] > 0:
		return schemas.RiskHigh
	default:
		return schemas.RiskUnknown
	}
}

func deterministicRecommendations(histogram map[schemas.Severity]int) []string {
	var recs []string
	if n := histogram[schemas.SeverityCritical]; n > 0 {
		recs = append(recs, fmt.Sprintf("%d critical vulnerabilities found - address before merge", n))
	}
	if n := histogram[schemas.SeverityHigh]; n > 0 {
		recs = append(recs, fmt.Sprintf("%d high-severity vulnerabilities found - review required", n))
	}
	return recs
}

// prioritize sorts findings critical-first, then by identifier for a stable
// rendering order.
func prioritize(findings []schemas.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Severity.Rank() != findings[j].Severity.Rank() {
			return findings[i].Severity.Rank() < findings[j].Severity.Rank()
		}
		return findings[i].VulnerabilityID < findings[j].VulnerabilityID
	})
}
