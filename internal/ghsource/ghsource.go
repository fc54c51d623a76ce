// File: internal/ghsource/ghsource.go

// Package ghsource fetches the live GitHub feeds that have no file artifact:
// open secret-detection issues and dependency alerts. Feed failures degrade
// to an Error status for that tool; they never abort the run, because the
// file-backed scanners can still produce a useful report without them.
package ghsource

import (
	"context"
	"fmt"

	"github.com/google/go-github/v58/github"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/sentinel/api/schemas"
	"github.com/xkilldash9x/sentinel/internal/adapters"
	"github.com/xkilldash9x/sentinel/internal/config"
)

// GithubFeedFacade is the slice of the GitHub API the fetcher needs.
type GithubFeedFacade interface {
	ListIssuesByRepo(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error)
	ListRepoDependabotAlerts(ctx context.Context, owner, repo string, opts *github.ListAlertsOptions) ([]*github.DependabotAlert, *github.Response, error)
}

type githubFeedFacade struct {
	client *github.Client
}

func (f *githubFeedFacade) ListIssuesByRepo(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error) {
	return f.client.Issues.ListByRepo(ctx, owner, repo, opts)
}

func (f *githubFeedFacade) ListRepoDependabotAlerts(ctx context.Context, owner, repo string, opts *github.ListAlertsOptions) ([]*github.DependabotAlert, *github.Response, error) {
	return f.client.Dependabot.ListRepoAlerts(ctx, owner, repo, opts)
}

// NewGithubFeedFacade builds the production facade from the run configuration.
func NewGithubFeedFacade(cfg config.GitHubConfig) (GithubFeedFacade, error) {
	client := github.NewClient(nil).WithAuthToken(cfg.Token)
	if cfg.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL %q: %w", cfg.BaseURL, err)
		}
	}
	return &githubFeedFacade{client: client}, nil
}

// Fetcher pulls both live feeds under a shared rate limiter so CI runs stay
// well inside the API quota.
type Fetcher struct {
	cfg     config.GitHubConfig
	gh      GithubFeedFacade
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewFetcher creates a Fetcher. A non-positive rate limit disables throttling.
func NewFetcher(cfg config.GitHubConfig, gh GithubFeedFacade, logger *zap.Logger) *Fetcher {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &Fetcher{
		cfg:     cfg,
		gh:      gh,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.Named("ghsource"),
	}
}

// FetchAll returns one SourceResult per live feed. Each feed fails
// independently.
func (f *Fetcher) FetchAll(ctx context.Context) []adapters.SourceResult {
	return []adapters.SourceResult{
		f.fetchSecretIssues(ctx),
		f.fetchDependencyAlerts(ctx),
	}
}

func (f *Fetcher) fetchSecretIssues(ctx context.Context) adapters.SourceResult {
	result := adapters.SourceResult{Tool: schemas.ToolGitleaks, Status: schemas.StatusCompleted}

	var issues []adapters.SecretIssue
	opts := &github.IssueListByRepoOptions{
		State:       "open",
		Labels:      []string{f.cfg.SecretsLabel},
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		if err := f.limiter.Wait(ctx); err != nil {
			return f.feedError(result, err)
		}
		page, resp, err := f.gh.ListIssuesByRepo(ctx, f.cfg.Owner, f.cfg.Repo, opts)
		if err != nil {
			return f.feedError(result, err)
		}
		for _, issue := range page {
			// Pull requests share the issues API; only real issues carry
			// secret detections.
			if issue.IsPullRequest() {
				continue
			}
			issues = append(issues, adapters.SecretIssue{
				Number: issue.GetNumber(),
				Title:  issue.GetTitle(),
				Body:   issue.GetBody(),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	result.Findings = adapters.FindingsFromSecretIssues(issues)
	f.logger.Info("Fetched secret detections",
		zap.String("label", f.cfg.SecretsLabel),
		zap.Int("count", len(result.Findings)))
	return result
}

func (f *Fetcher) fetchDependencyAlerts(ctx context.Context) adapters.SourceResult {
	result := adapters.SourceResult{Tool: schemas.ToolDependabot, Status: schemas.StatusCompleted}

	var alerts []adapters.DependencyAlert
	// The alerts endpoint paginates by cursor, not page number.
	opts := &github.ListAlertsOptions{
		State:             github.String("open"),
		ListCursorOptions: github.ListCursorOptions{PerPage: 100},
	}
	for {
		if err := f.limiter.Wait(ctx); err != nil {
			return f.feedError(result, err)
		}
		page, resp, err := f.gh.ListRepoDependabotAlerts(ctx, f.cfg.Owner, f.cfg.Repo, opts)
		if err != nil {
			return f.feedError(result, err)
		}
		for _, alert := range page {
			alerts = append(alerts, dependencyAlertFrom(alert))
		}
		if resp == nil || resp.After == "" {
			break
		}
		opts.ListCursorOptions.After = resp.After
	}

	result.Findings = adapters.FindingsFromDependencyAlerts(alerts)
	f.logger.Info("Fetched dependency alerts", zap.Int("count", len(result.Findings)))
	return result
}

func dependencyAlertFrom(alert *github.DependabotAlert) adapters.DependencyAlert {
	out := adapters.DependencyAlert{URL: alert.GetHTMLURL()}
	if adv := alert.SecurityAdvisory; adv != nil {
		out.ID = adv.GetGHSAID()
		if out.ID == "" {
			out.ID = adv.GetCVEID()
		}
		out.Summary = adv.GetSummary()
		out.Severity = adv.GetSeverity()
	}
	if dep := alert.Dependency; dep != nil && dep.Package != nil {
		out.Package = dep.Package.GetName()
	}
	return out
}

func (f *Fetcher) feedError(result adapters.SourceResult, err error) adapters.SourceResult {
	f.logger.Warn("Live feed fetch failed",
		zap.String("tool", string(result.Tool)),
		zap.Error(err))
	result.Status = schemas.StatusError
	result.Findings = nil
	return result
}
