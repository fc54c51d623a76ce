// File: internal/orchestrator/orchestrator.go
// Description: The tier-fallback analysis state machine. Attempts the
// configured AI backends in order and always terminates with a well-formed
// result, degrading to the deterministic template analyzer when every
// backend fails.

package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/sentinel/api/schemas"
	"github.com/xkilldash9x/sentinel/internal/config"
	"github.com/xkilldash9x/sentinel/internal/llmclient"
	"github.com/xkilldash9x/sentinel/internal/llmutil"
)

// Tier labels recorded in result metadata. Auditors rely on these to answer
// which strategy actually produced an assessment.
const (
	TierPrimary          = "Primary AI"
	TierSecondary        = "Secondary AI"
	TierTemplateOnly     = "Template-Only"
	TierTemplateFallback = "Template Fallback"
	TierOptimized        = "Optimized"
	TierEmergency        = "Emergency"
)

const templateProvider = "template"

// RunInput is everything the analysis tiers see: the deterministically
// parsed findings plus the run's risk context.
type RunInput struct {
	Findings     []schemas.Finding
	RiskHint     schemas.RiskLevel
	ChangedFiles []string
}

// state tracks progress through the fallback machine.
type state int

const (
	stateNotStarted state = iota
	stateAttemptTier1
	stateAttemptTier2
	stateTemplateFallback
	stateDone
)

// Orchestrator drives the ordered tier attempts. Providers may be nil when
// the corresponding tier is unavailable by construction (missing API key or
// mode gating); a nil provider is treated as an instant tier failure.
type Orchestrator struct {
	cfg       config.AnalysisConfig
	logger    *zap.Logger
	primary   llmclient.Provider
	secondary llmclient.Provider
}

// New creates an Orchestrator. Only the configuration and logger are
// mandatory; absent providers simply make their tiers unreachable.
func New(cfg config.AnalysisConfig, primary, secondary llmclient.Provider, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		logger:    logger.Named("orchestrator"),
		primary:   primary,
		secondary: secondary,
	}
}

// Analyze runs the state machine to completion. The returned result is
// always valid: the template tier has no external dependency and cannot fail.
func (o *Orchestrator) Analyze(ctx context.Context, input RunInput) schemas.TierResult {
	st := stateNotStarted

	// Cost-optimization short-circuit: trivially low-risk input skips the AI
	// tiers entirely. This is a DONE-reaching shortcut, not a failure path,
	// and the metadata says so.
	if o.cfg.Mode != config.ModeTemplateOnly && isTriviallyLowRisk(input) {
		o.logger.Info("Input judged trivially low-risk, routing directly to template analysis")
		result := templateAnalyze(input)
		result.Metadata.Tier = TierOptimized
		result.Metadata.Provider = templateProvider
		return result
	}

	var fallbackReason string

	switch o.cfg.Mode {
	case config.ModeStandard:
		st = stateAttemptTier1
	case config.ModeSecondaryOnly:
		st = stateAttemptTier2
	case config.ModeTemplateOnly:
		st = stateTemplateFallback
	}

	for st != stateDone {
		switch st {
		case stateAttemptTier1:
			result, err := o.attemptProvider(ctx, o.primary, TierPrimary, o.buildPrompt(input, false))
			if err == nil {
				return result
			}
			fallbackReason = err.Error()
			o.logger.Warn("Primary tier failed, advancing", zap.Error(err))
			st = stateAttemptTier2

		case stateAttemptTier2:
			focused := o.cfg.Mode == config.ModeSecondaryOnly
			result, err := o.attemptProvider(ctx, o.secondary, TierSecondary, o.buildPrompt(input, focused))
			if err == nil {
				result.Metadata.FallbackReason = fallbackReason
				return result
			}
			if fallbackReason != "" {
				fallbackReason += "; "
			}
			fallbackReason += err.Error()
			o.logger.Warn("Secondary tier failed, advancing", zap.Error(err))
			st = stateTemplateFallback

		case stateTemplateFallback:
			result := templateAnalyze(input)
			result.Metadata.Provider = templateProvider
			if o.cfg.Mode == config.ModeTemplateOnly {
				result.Metadata.Tier = TierTemplateOnly
			} else {
				result.Metadata.Tier = TierTemplateFallback
				result.Metadata.FallbackReason = fallbackReason
			}
			o.logger.Info("Template analysis produced terminal result",
				zap.String("tier", result.Metadata.Tier),
				zap.Float64("score", result.SecurityScore))
			return result
		}
	}

	// Unreachable: the template state always returns. Kept so the machine is
	// total even if a future state forgets to.
	return EmergencyResult("orchestrator reached DONE without a result")
}

// attemptProvider invokes one AI tier and parses its response into the
// TierResult shape. Malformed output is a tier failure, exactly like a
// provider failure; it is never silently accepted.
func (o *Orchestrator) attemptProvider(ctx context.Context, provider llmclient.Provider, tier, prompt string) (schemas.TierResult, error) {
	if provider == nil {
		return schemas.TierResult{}, fmt.Errorf("%s: no provider configured", tier)
	}

	raw, err := llmclient.Invoke(ctx, provider, prompt, o.cfg.RetryBaseDelay, o.logger)
	if err != nil {
		return schemas.TierResult{}, err
	}

	result, err := parseAIResponse(raw)
	if err != nil {
		return schemas.TierResult{}, fmt.Errorf("%s returned unusable output: %w", provider.Name(), err)
	}

	result.Metadata = schemas.TierMetadata{
		Tier:            tier,
		Provider:        provider.Name(),
		EstimatedTokens: llmclient.EstimateTokens(prompt + raw),
	}
	return result, nil
}

// aiResponse is the wire shape an AI backend must produce. Pointer fields
// distinguish absent from zero.
type aiResponse struct {
	SecurityScore   *float64                  `json:"security_score"`
	RiskAssessment  string                    `json:"risk_assessment"`
	ActionRequired  bool                      `json:"action_required"`
	Vulnerabilities []schemas.AIVulnerability `json:"vulnerabilities"`
	Recommendations []string                  `json:"recommendations"`
}

// parseAIResponse extracts the first balanced JSON object from the raw text
// and checks the required fields.
func parseAIResponse(raw string) (schemas.TierResult, error) {
	parsed, err := llmutil.ParseJSONResponse[aiResponse](raw)
	if err != nil {
		return schemas.TierResult{}, err
	}

	if parsed.SecurityScore == nil {
		return schemas.TierResult{}, fmt.Errorf("response missing required field security_score")
	}
	if *parsed.SecurityScore < 0 || *parsed.SecurityScore > 10 {
		return schemas.TierResult{}, fmt.Errorf("security_score %.2f outside [0,10]", *parsed.SecurityScore)
	}

	risk, err := parseRiskLevel(parsed.RiskAssessment)
	if err != nil {
		return schemas.TierResult{}, err
	}

	return schemas.TierResult{
		SecurityScore:        *parsed.SecurityScore,
		RiskAssessment:       risk,
		ActionRequired:       parsed.ActionRequired,
		VulnerabilitiesFound: parsed.Vulnerabilities,
		Recommendations:      parsed.Recommendations,
	}, nil
}

func parseRiskLevel(raw string) (schemas.RiskLevel, error) {
	switch schemas.RiskLevel(strings.ToUpper(strings.TrimSpace(raw))) {
	case schemas.RiskLow:
		return schemas.RiskLow, nil
	case schemas.RiskMedium:
		return schemas.RiskMedium, nil
	case schemas.RiskHigh:
		return schemas.RiskHigh, nil
	case schemas.RiskCritical:
		return schemas.RiskCritical, nil
	case "":
		return schemas.RiskUnknown, fmt.Errorf("response missing required field risk_assessment")
	default:
		return schemas.RiskUnknown, fmt.Errorf("unrecognized risk_assessment %q", raw)
	}
}

// EmergencyResult is the §total-system-failure answer: a fixed conservative
// assessment so downstream automation never sees an absent result.
func EmergencyResult(reason string) schemas.TierResult {
	return schemas.TierResult{
		SecurityScore:  5.0,
		RiskAssessment: schemas.RiskUnknown,
		ActionRequired: true,
		Recommendations: []string{
			"Automated security analysis failed - perform a manual security review before merging",
		},
		Metadata: schemas.TierMetadata{
			Tier:           TierEmergency,
			Provider:       templateProvider,
			FallbackReason: reason,
		},
	}
}
