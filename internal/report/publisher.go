// File: internal/report/publisher.go
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v58/github"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sentinel/api/schemas"
	"github.com/xkilldash9x/sentinel/internal/config"
)

// GithubCommentFacade is the narrow slice of the GitHub Issues API the
// publisher needs. Tests inject fakes; production wraps *github.Client.
type GithubCommentFacade interface {
	ListIssueComments(ctx context.Context, owner, repo string, number int, opts *github.IssueListCommentsOptions) ([]*github.IssueComment, *github.Response, error)
	CreateIssueComment(ctx context.Context, owner, repo string, number int, comment *github.IssueComment) (*github.IssueComment, *github.Response, error)
	EditIssueComment(ctx context.Context, owner, repo string, commentID int64, comment *github.IssueComment) (*github.IssueComment, *github.Response, error)
}

// githubFacade adapts *github.Client to the facade interface.
type githubFacade struct {
	client *github.Client
}

func (f *githubFacade) ListIssueComments(ctx context.Context, owner, repo string, number int, opts *github.IssueListCommentsOptions) ([]*github.IssueComment, *github.Response, error) {
	return f.client.Issues.ListComments(ctx, owner, repo, number, opts)
}

func (f *githubFacade) CreateIssueComment(ctx context.Context, owner, repo string, number int, comment *github.IssueComment) (*github.IssueComment, *github.Response, error) {
	return f.client.Issues.CreateComment(ctx, owner, repo, number, comment)
}

func (f *githubFacade) EditIssueComment(ctx context.Context, owner, repo string, commentID int64, comment *github.IssueComment) (*github.IssueComment, *github.Response, error) {
	return f.client.Issues.EditComment(ctx, owner, repo, commentID, comment)
}

// NewGithubFacade builds the production facade from the run configuration.
func NewGithubFacade(cfg config.GitHubConfig) (GithubCommentFacade, error) {
	client := github.NewClient(nil).WithAuthToken(cfg.Token)
	if cfg.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL %q: %w", cfg.BaseURL, err)
		}
	}
	return &githubFacade{client: client}, nil
}

// Publisher renders the report and upserts the single tracked comment on the
// review unit. Publishing is idempotent across repeated CI executions.
type Publisher struct {
	cfg    config.GitHubConfig
	output config.OutputConfig
	gh     GithubCommentFacade
	logger *zap.Logger
}

// NewPublisher creates a Publisher. gh may be nil when no review unit is
// configured (scheduled runs publish artifacts only).
func NewPublisher(cfg config.GitHubConfig, output config.OutputConfig, gh GithubCommentFacade, logger *zap.Logger) *Publisher {
	return &Publisher{
		cfg:    cfg,
		output: output,
		gh:     gh,
		logger: logger.Named("publisher"),
	}
}

// Publish renders the markdown body, writes the file artifacts, and upserts
// the tracked comment. Comment API failures are fatal: an unreported run is
// indistinguishable from a clean one, which is worse than a visible failure.
func (p *Publisher) Publish(ctx context.Context, r *schemas.AggregatedReport) error {
	r.Markdown = Render(r, p.output.HighDisplayLimit)

	if err := WriteReportFile(p.output.ReportFile, r); err != nil {
		return fmt.Errorf("failed to write report artifact: %w", err)
	}
	if p.output.OutputsFile != "" {
		if err := WriteOutputs(p.output.OutputsFile, r); err != nil {
			return fmt.Errorf("failed to write output variables: %w", err)
		}
	}

	if p.cfg.PRNumber == 0 {
		p.logger.Info("No review unit configured, skipping comment upsert",
			zap.String("run_id", r.RunID))
		return nil
	}

	return p.upsertComment(ctx, r.Markdown)
}

// upsertComment searches every page of existing comments for the marker and
// edits in place when found; otherwise exactly one new comment is created.
func (p *Publisher) upsertComment(ctx context.Context, body string) error {
	existing, err := p.findTrackedComment(ctx)
	if err != nil {
		return err
	}

	comment := &github.IssueComment{Body: github.String(body)}

	if existing != nil {
		if _, _, err := p.gh.EditIssueComment(ctx, p.cfg.Owner, p.cfg.Repo, existing.GetID(), comment); err != nil {
			return fmt.Errorf("failed to update tracked comment %d: %w", existing.GetID(), err)
		}
		p.logger.Info("Updated tracked comment", zap.Int64("comment_id", existing.GetID()))
		return nil
	}

	created, _, err := p.gh.CreateIssueComment(ctx, p.cfg.Owner, p.cfg.Repo, p.cfg.PRNumber, comment)
	if err != nil {
		return fmt.Errorf("failed to create tracked comment: %w", err)
	}
	p.logger.Info("Created tracked comment", zap.Int64("comment_id", created.GetID()))
	return nil
}

func (p *Publisher) findTrackedComment(ctx context.Context) (*github.IssueComment, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		comments, resp, err := p.gh.ListIssueComments(ctx, p.cfg.Owner, p.cfg.Repo, p.cfg.PRNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list review unit comments: %w", err)
		}
		for _, c := range comments {
			if strings.Contains(c.GetBody(), Marker) {
				return c, nil
			}
		}
		if resp == nil || resp.NextPage == 0 {
			return nil, nil
		}
		opts.Page = resp.NextPage
	}
}
