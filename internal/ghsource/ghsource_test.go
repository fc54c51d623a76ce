// File: internal/ghsource/ghsource_test.go
package ghsource

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-github/v58/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sentinel/api/schemas"
	"github.com/xkilldash9x/sentinel/internal/config"
)

type fakeFeed struct {
	issues    []*github.Issue
	issuesErr error

	alerts    []*github.DependabotAlert
	alertsErr error

	issueLabels []string
}

func (f *fakeFeed) ListIssuesByRepo(_ context.Context, _, _ string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error) {
	f.issueLabels = opts.Labels
	if f.issuesErr != nil {
		return nil, nil, f.issuesErr
	}
	return f.issues, &github.Response{}, nil
}

func (f *fakeFeed) ListRepoDependabotAlerts(_ context.Context, _, _ string, _ *github.ListAlertsOptions) ([]*github.DependabotAlert, *github.Response, error) {
	if f.alertsErr != nil {
		return nil, nil, f.alertsErr
	}
	return f.alerts, &github.Response{}, nil
}

func feedConfig() config.GitHubConfig {
	return config.GitHubConfig{
		Owner:        "acme",
		Repo:         "widgets",
		Token:        "tok",
		SecretsLabel: "security:secret",
		FetchLive:    true,
	}
}

func TestFetchSecretIssues(t *testing.T) {
	fake := &fakeFeed{
		issues: []*github.Issue{
			{Number: github.Int(12), Title: github.String("[aws-access-key] Secret detected in config.py")},
			// PRs share the issues API and must be skipped.
			{Number: github.Int(13), Title: github.String("a pull request"), PullRequestLinks: &github.PullRequestLinks{URL: github.String("x")}},
		},
	}
	f := NewFetcher(feedConfig(), fake, zap.NewNop())

	results := f.FetchAll(context.Background())
	require.Len(t, results, 2)

	secrets := results[0]
	assert.Equal(t, schemas.ToolGitleaks, secrets.Tool)
	assert.Equal(t, schemas.StatusCompleted, secrets.Status)
	require.Len(t, secrets.Findings, 1)
	assert.Equal(t, schemas.SeverityHigh, secrets.Findings[0].Severity)
	assert.Equal(t, "aws-access-key", secrets.Findings[0].VulnerabilityID)
	assert.Equal(t, "issue #12", secrets.Findings[0].Location)

	// The configured label drives the query.
	assert.Equal(t, []string{"security:secret"}, fake.issueLabels)
}

func TestFetchDependencyAlerts(t *testing.T) {
	fake := &fakeFeed{
		alerts: []*github.DependabotAlert{
			{
				SecurityAdvisory: &github.DependabotSecurityAdvisory{
					GHSAID:   github.String("GHSA-xxxx-yyyy-zzzz"),
					Summary:  github.String("Prototype pollution in lodash"),
					Severity: github.String("moderate"),
				},
				Dependency: &github.Dependency{
					Package: &github.VulnerabilityPackage{Name: github.String("lodash")},
				},
				HTMLURL: github.String("https://github.com/acme/widgets/security/dependabot/1"),
			},
		},
	}
	f := NewFetcher(feedConfig(), fake, zap.NewNop())

	results := f.FetchAll(context.Background())
	alerts := results[1]

	assert.Equal(t, schemas.ToolDependabot, alerts.Tool)
	assert.Equal(t, schemas.StatusCompleted, alerts.Status)
	require.Len(t, alerts.Findings, 1)
	assert.Equal(t, "GHSA-xxxx-yyyy-zzzz", alerts.Findings[0].VulnerabilityID)
	assert.Equal(t, schemas.SeverityMedium, alerts.Findings[0].Severity)
	assert.Equal(t, "lodash", alerts.Findings[0].Package)
}

func TestFeedFailuresAreIsolated(t *testing.T) {
	fake := &fakeFeed{
		issuesErr: errors.New("403 forbidden"),
		alerts: []*github.DependabotAlert{
			{SecurityAdvisory: &github.DependabotSecurityAdvisory{
				GHSAID:   github.String("GHSA-aaaa"),
				Severity: github.String("high"),
			}},
		},
	}
	f := NewFetcher(feedConfig(), fake, zap.NewNop())

	results := f.FetchAll(context.Background())
	require.Len(t, results, 2)

	// The failed feed reports Error with no findings; the healthy feed is
	// unaffected.
	assert.Equal(t, schemas.StatusError, results[0].Status)
	assert.Empty(t, results[0].Findings)
	assert.Equal(t, schemas.StatusCompleted, results[1].Status)
	require.Len(t, results[1].Findings, 1)
}

func TestFetchBothFeedsFail(t *testing.T) {
	fake := &fakeFeed{
		issuesErr: errors.New("boom"),
		alertsErr: errors.New("boom"),
	}
	f := NewFetcher(feedConfig(), fake, zap.NewNop())

	results := f.FetchAll(context.Background())
	for _, r := range results {
		assert.Equal(t, schemas.StatusError, r.Status)
	}
}
