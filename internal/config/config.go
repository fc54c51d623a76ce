// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// AnalysisMode selects which analysis tiers a run may attempt. It is decided
// exactly once, at configuration load, from the two boolean mode switches; no
// component re-reads environment state afterwards.
type AnalysisMode string

const (
	// ModeStandard attempts the primary AI tier, then the secondary, then
	// the deterministic template.
	ModeStandard AnalysisMode = "standard"
	// ModeSecondaryOnly skips the primary tier; the secondary runs with a
	// dependency-focused prompt before falling back to the template.
	ModeSecondaryOnly AnalysisMode = "secondary-only"
	// ModeTemplateOnly skips both AI tiers entirely.
	ModeTemplateOnly AnalysisMode = "template-only"
)

// DecideMode collapses the two switches into the closed mode enum. When both
// are set the more conservative template-only mode wins.
func DecideMode(secondaryOnly, templateOnly bool) AnalysisMode {
	switch {
	case templateOnly:
		return ModeTemplateOnly
	case secondaryOnly:
		return ModeSecondaryOnly
	default:
		return ModeStandard
	}
}

// ProviderKind identifies a supported analysis backend.
type ProviderKind string

const (
	ProviderGemini   ProviderKind = "gemini"
	ProviderOpenAI   ProviderKind = "openai"
	ProviderTemplate ProviderKind = "template"
)

// LoggerConfig controls the zap logger construction.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSizeMB   int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// ProviderConfig configures one AI analysis backend. An empty APIKey means
// the tier is unavailable by construction, which is not an error.
type ProviderConfig struct {
	Kind       ProviderKind  `mapstructure:"kind" yaml:"kind"`
	Model      string        `mapstructure:"model" yaml:"model"`
	APIKey     string        `mapstructure:"api_key" yaml:"api_key"`
	Endpoint   string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	MaxTokens  int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// Configured reports whether this backend can be attempted at all.
func (p ProviderConfig) Configured() bool { return p.APIKey != "" }

// AnalysisConfig configures the tier orchestrator.
type AnalysisConfig struct {
	SecondaryOnly bool           `mapstructure:"secondary_only" yaml:"secondary_only"`
	TemplateOnly  bool           `mapstructure:"template_only" yaml:"template_only"`
	Primary       ProviderConfig `mapstructure:"primary" yaml:"primary"`
	Secondary     ProviderConfig `mapstructure:"secondary" yaml:"secondary"`

	// RetryBaseDelay is the unit of the linear provider backoff
	// (attempt n waits n * RetryBaseDelay).
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" yaml:"retry_base_delay"`

	// Mode is derived from the switches by Load; components match on it
	// exhaustively instead of threading string flags around.
	Mode AnalysisMode `mapstructure:"-" yaml:"-"`
}

// GitHubConfig identifies the review unit and how to reach the comment API.
// PRNumber 0 means a scheduled scan run with no comment target.
type GitHubConfig struct {
	Owner        string `mapstructure:"owner" yaml:"owner"`
	Repo         string `mapstructure:"repo" yaml:"repo"`
	PRNumber     int    `mapstructure:"pr_number" yaml:"pr_number"`
	Token        string `mapstructure:"token" yaml:"token"`
	BaseURL      string `mapstructure:"base_url" yaml:"base_url"`
	SecretsLabel string `mapstructure:"secrets_label" yaml:"secrets_label"`

	// FetchLive enables the issue-tracker and dependency-alert feeds.
	FetchLive bool `mapstructure:"fetch_live" yaml:"fetch_live"`

	// RateLimit bounds live API fetches, requests per second.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// InputsConfig locates the materialized scanner output files and carries the
// run's risk context.
type InputsConfig struct {
	Dir          string   `mapstructure:"dir" yaml:"dir"`
	RiskHint     string   `mapstructure:"risk_hint" yaml:"risk_hint"`
	ChangedFiles []string `mapstructure:"changed_files" yaml:"changed_files"`
}

// OutputConfig names the run's artifacts.
type OutputConfig struct {
	ReportFile  string `mapstructure:"report_file" yaml:"report_file"`
	OutputsFile string `mapstructure:"outputs_file" yaml:"outputs_file"`

	// HighDisplayLimit caps the collapsible high-priority section; overflow
	// is summarized as "...and N more".
	HighDisplayLimit int `mapstructure:"high_display_limit" yaml:"high_display_limit"`
}

// Config is the single immutable configuration value constructed at process
// entry and passed into every component constructor.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	GitHub   GitHubConfig   `mapstructure:"github" yaml:"github"`
	Inputs   InputsConfig   `mapstructure:"inputs" yaml:"inputs"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
}

// SetDefaults initializes default values on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "sentinel")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	v.SetDefault("analysis.secondary_only", false)
	v.SetDefault("analysis.template_only", false)
	v.SetDefault("analysis.retry_base_delay", "2s")
	v.SetDefault("analysis.primary.kind", string(ProviderGemini))
	v.SetDefault("analysis.primary.model", "gemini-2.5-pro")
	v.SetDefault("analysis.primary.api_timeout", "60s")
	v.SetDefault("analysis.primary.max_tokens", 4096)
	v.SetDefault("analysis.secondary.kind", string(ProviderOpenAI))
	v.SetDefault("analysis.secondary.model", "gpt-4o-mini")
	v.SetDefault("analysis.secondary.api_timeout", "60s")
	v.SetDefault("analysis.secondary.max_tokens", 4096)

	v.SetDefault("github.secrets_label", "security:secret")
	v.SetDefault("github.fetch_live", false)
	v.SetDefault("github.rate_limit", 2.0)

	v.SetDefault("inputs.dir", "scan-results")
	v.SetDefault("inputs.risk_hint", "UNKNOWN")

	v.SetDefault("output.report_file", "security-report.json")
	v.SetDefault("output.high_display_limit", 5)
}

// NewConfigFromViper unmarshals, derives the analysis mode, and validates.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Secrets only ever arrive through the environment.
	v.BindEnv("github.token", "SENTINEL_GITHUB_TOKEN", "GITHUB_TOKEN")
	v.BindEnv("analysis.primary.api_key", "SENTINEL_PRIMARY_API_KEY")
	v.BindEnv("analysis.secondary.api_key", "SENTINEL_SECONDARY_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Analysis.Mode = DecideMode(cfg.Analysis.SecondaryOnly, cfg.Analysis.TemplateOnly)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Analysis.RetryBaseDelay <= 0 {
		return fmt.Errorf("analysis.retry_base_delay must be a positive duration")
	}
	if c.Output.HighDisplayLimit <= 0 {
		return fmt.Errorf("output.high_display_limit must be a positive integer")
	}
	if c.GitHub.PRNumber < 0 {
		return fmt.Errorf("github.pr_number must not be negative")
	}
	if (c.GitHub.PRNumber > 0 || c.GitHub.FetchLive) && c.GitHub.Token == "" {
		return fmt.Errorf("GitHub token is required when publishing a comment or fetching live alerts. Set SENTINEL_GITHUB_TOKEN")
	}
	if (c.GitHub.PRNumber > 0 || c.GitHub.FetchLive) && (c.GitHub.Owner == "" || c.GitHub.Repo == "") {
		return fmt.Errorf("github.owner and github.repo are required when the GitHub API is used")
	}
	return nil
}
