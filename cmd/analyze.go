// File: cmd/analyze.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sentinel/api/schemas"
	"github.com/xkilldash9x/sentinel/internal/adapters"
	"github.com/xkilldash9x/sentinel/internal/aggregate"
	"github.com/xkilldash9x/sentinel/internal/config"
	"github.com/xkilldash9x/sentinel/internal/ghsource"
	"github.com/xkilldash9x/sentinel/internal/llmclient"
	"github.com/xkilldash9x/sentinel/internal/observability"
	"github.com/xkilldash9x/sentinel/internal/orchestrator"
	"github.com/xkilldash9x/sentinel/internal/report"
)

// newAnalyzeCmd creates and configures the `analyze` command: one full run
// from scanner artifacts to published report.
func newAnalyzeCmd() *cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Aggregates scanner output, runs tiered analysis, and publishes the report",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their corresponding Viper keys so command-line
			// flags correctly override values from the config file and
			// environment variables.
			bindings := map[string]string{
				"github.owner":            "owner",
				"github.repo":             "repo",
				"github.pr_number":        "pr",
				"github.fetch_live":       "fetch-live",
				"inputs.dir":              "inputs-dir",
				"inputs.risk_hint":        "risk-hint",
				"inputs.changed_files":    "changed-files",
				"analysis.secondary_only": "secondary-only",
				"analysis.template_only":  "template-only",
				"output.report_file":      "report-file",
				"output.outputs_file":     "outputs-file",
			}
			for key, flag := range bindings {
				if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use the context passed from main.go (signal-aware).
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			return runAnalyze(ctx, cfg, logger)
		},
	}

	// Review unit and repository coordinates.
	analyzeCmd.Flags().String("owner", "", "Repository owner. (Overrides config/env)")
	analyzeCmd.Flags().String("repo", "", "Repository name. (Overrides config/env)")
	analyzeCmd.Flags().Int("pr", 0, "Pull request number to comment on. 0 skips the comment.")
	analyzeCmd.Flags().Bool("fetch-live", false, "Also fetch secret issues and dependency alerts from the GitHub API.")

	// Run inputs.
	analyzeCmd.Flags().String("inputs-dir", "scan-results", "Directory containing the scanner result files.")
	analyzeCmd.Flags().String("risk-hint", "UNKNOWN", "Upstream risk hint for the change set (MINIMAL..CRITICAL).")
	analyzeCmd.Flags().StringSlice("changed-files", nil, "Files changed in the review unit, comma-separated.")

	// Analysis mode switches.
	analyzeCmd.Flags().Bool("secondary-only", false, "Skip the primary AI backend.")
	analyzeCmd.Flags().Bool("template-only", false, "Skip all AI backends and use the deterministic analyzer.")

	// Artifacts.
	analyzeCmd.Flags().String("report-file", "security-report.json", "Path for the JSON report artifact.")
	analyzeCmd.Flags().String("outputs-file", "", "Path for workflow output variables (e.g. $GITHUB_OUTPUT).")

	return analyzeCmd
}

// runAnalyze executes the full pipeline. The report is published even when
// the analysis layer fails outright: downstream gates must always see a
// result, and a silent run is indistinguishable from a clean one. The
// original failure still decides the exit code.
func runAnalyze(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	start := time.Now()

	sources := adapters.LoadAll(cfg.Inputs.Dir, logger)

	if cfg.GitHub.FetchLive {
		feed, err := ghsource.NewGithubFeedFacade(cfg.GitHub)
		if err != nil {
			return err
		}
		sources = append(sources, ghsource.NewFetcher(cfg.GitHub, feed, logger).FetchAll(ctx)...)
	}

	var findings []schemas.Finding
	for _, src := range sources {
		findings = append(findings, src.Findings...)
	}
	logger.Info("Inputs collected",
		zap.Int("sources", len(sources)),
		zap.Int("findings", len(findings)),
		zap.Duration("elapsed", time.Since(start)))

	input := orchestrator.RunInput{
		Findings:     findings,
		RiskHint:     schemas.ParseRiskLevel(cfg.Inputs.RiskHint),
		ChangedFiles: cfg.Inputs.ChangedFiles,
	}

	analysisStart := time.Now()
	analysis, analysisErr := runAnalysis(ctx, cfg.Analysis, input, logger)
	logger.Info("Analysis finished",
		zap.String("tier", analysis.Metadata.Tier),
		zap.Duration("elapsed", time.Since(analysisStart)))

	aggregated := aggregate.New(logger).Build(sources, analysis)

	var facade report.GithubCommentFacade
	if cfg.GitHub.PRNumber > 0 {
		var err error
		facade, err = report.NewGithubFacade(cfg.GitHub)
		if err != nil {
			return err
		}
	}

	publisher := report.NewPublisher(cfg.GitHub, cfg.Output, facade, logger)
	if err := publisher.Publish(ctx, aggregated); err != nil {
		return err
	}

	logger.Info("Run complete",
		zap.String("run_id", aggregated.RunID),
		zap.String("risk", string(aggregated.RiskAssessment)),
		zap.Float64("score", aggregated.SecurityScore),
		zap.Int("findings", aggregated.TotalFindings()),
		zap.Duration("elapsed", time.Since(start)))

	return analysisErr
}

// runAnalysis constructs the providers and drives the tier orchestrator. A
// panic anywhere in the analysis layer degrades to the emergency result
// instead of losing the run.
func runAnalysis(ctx context.Context, cfg config.AnalysisConfig, input orchestrator.RunInput, logger *zap.Logger) (result schemas.TierResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Analysis layer panicked", zap.Any("panic", r))
			result = orchestrator.EmergencyResult(fmt.Sprintf("analysis layer panic: %v", r))
			err = fmt.Errorf("analysis layer failed: %v", r)
		}
	}()

	primary := buildProvider(cfg.Primary, logger)
	secondary := buildProvider(cfg.Secondary, logger)

	return orchestrator.New(cfg, primary, secondary, logger).Analyze(ctx, input), nil
}

// buildProvider returns nil when the backend is unconfigured or its
// configuration is unusable. A nil provider makes the tier unreachable; the
// orchestrator falls through to the next tier.
func buildProvider(pc config.ProviderConfig, logger *zap.Logger) llmclient.Provider {
	if !pc.Configured() {
		return nil
	}
	provider, err := llmclient.NewProvider(pc, logger)
	if err != nil {
		logger.Warn("Provider unavailable, tier will be skipped",
			zap.String("kind", string(pc.Kind)),
			zap.Error(err))
		return nil
	}
	return provider
}
