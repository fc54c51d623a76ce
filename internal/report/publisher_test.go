// File: internal/report/publisher_test.go
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-github/v58/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sentinel/api/schemas"
	"github.com/xkilldash9x/sentinel/internal/config"
)

// fakeFacade is an in-memory comment store implementing GithubCommentFacade.
type fakeFacade struct {
	comments []*github.IssueComment
	nextID   int64

	listErr   error
	createErr error
	editErr   error

	creates int
	edits   int
}

func (f *fakeFacade) ListIssueComments(_ context.Context, _, _ string, _ int, _ *github.IssueListCommentsOptions) ([]*github.IssueComment, *github.Response, error) {
	if f.listErr != nil {
		return nil, nil, f.listErr
	}
	return f.comments, &github.Response{}, nil
}

func (f *fakeFacade) CreateIssueComment(_ context.Context, _, _ string, _ int, c *github.IssueComment) (*github.IssueComment, *github.Response, error) {
	if f.createErr != nil {
		return nil, nil, f.createErr
	}
	f.creates++
	f.nextID++
	stored := &github.IssueComment{ID: github.Int64(f.nextID), Body: c.Body}
	f.comments = append(f.comments, stored)
	return stored, &github.Response{}, nil
}

func (f *fakeFacade) EditIssueComment(_ context.Context, _, _ string, id int64, c *github.IssueComment) (*github.IssueComment, *github.Response, error) {
	if f.editErr != nil {
		return nil, nil, f.editErr
	}
	f.edits++
	for _, existing := range f.comments {
		if existing.GetID() == id {
			existing.Body = c.Body
			return existing, &github.Response{}, nil
		}
	}
	return nil, nil, fmt.Errorf("comment %d not found", id)
}

func sampleReport() *schemas.AggregatedReport {
	return &schemas.AggregatedReport{
		RunID:       "run-1234",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Findings: []schemas.Finding{
			{Tool: schemas.ToolTrivy, Severity: schemas.SeverityCritical, VulnerabilityID: "CVE-2026-0001", Message: "RCE in libfoo", Location: "Dockerfile"},
			{Tool: schemas.ToolSemgrep, Severity: schemas.SeverityHigh, VulnerabilityID: "go.lang.sqli", Message: "possible SQL injection", Location: "db/query.go:42"},
		},
		Severity: map[schemas.Severity]int{
			schemas.SeverityCritical: 1,
			schemas.SeverityHigh:     1,
		},
		Tools: []schemas.ToolReport{
			{Tool: schemas.ToolTrivy, Status: schemas.StatusCompleted, Findings: 1},
			{Tool: schemas.ToolSemgrep, Status: schemas.StatusCompleted, Findings: 1},
		},
		Analysis: schemas.TierResult{
			SecurityScore:  8.2,
			RiskAssessment: schemas.RiskCritical,
			Metadata: schemas.TierMetadata{
				Tier:            "Primary AI",
				Provider:        "gemini",
				EstimatedTokens: 1200,
			},
		},
		RiskAssessment:  schemas.RiskCritical,
		ActionRequired:  true,
		RequiresReview:  true,
		SecurityScore:   8.2,
		Recommendations: []string{"1 critical vulnerabilities found - address before merge", "Rotate affected credentials"},
	}
}

func publisherConfig(prNumber int, dir string) (config.GitHubConfig, config.OutputConfig) {
	gh := config.GitHubConfig{Owner: "acme", Repo: "widgets", PRNumber: prNumber, Token: "tok"}
	out := config.OutputConfig{
		ReportFile:       filepath.Join(dir, "security-report.json"),
		OutputsFile:      filepath.Join(dir, "outputs.txt"),
		HighDisplayLimit: 5,
	}
	return gh, out
}

func TestPublishCreatesTrackedComment(t *testing.T) {
	gh, out := publisherConfig(7, t.TempDir())
	fake := &fakeFacade{}
	p := NewPublisher(gh, out, fake, zap.NewNop())

	require.NoError(t, p.Publish(context.Background(), sampleReport()))

	require.Len(t, fake.comments, 1)
	assert.Equal(t, 1, fake.creates)
	assert.Equal(t, 0, fake.edits)
	assert.Contains(t, fake.comments[0].GetBody(), Marker)
	assert.Contains(t, fake.comments[0].GetBody(), "CVE-2026-0001")
}

func TestPublishIsIdempotent(t *testing.T) {
	gh, out := publisherConfig(7, t.TempDir())
	fake := &fakeFacade{}
	p := NewPublisher(gh, out, fake, zap.NewNop())

	first := sampleReport()
	require.NoError(t, p.Publish(context.Background(), first))

	second := sampleReport()
	second.SecurityScore = 9.1
	require.NoError(t, p.Publish(context.Background(), second))

	// Second publish updates in place, never duplicates.
	require.Len(t, fake.comments, 1)
	assert.Equal(t, 1, fake.creates)
	assert.Equal(t, 1, fake.edits)
	assert.Contains(t, fake.comments[0].GetBody(), "9.1/10")
}

func TestPublishIgnoresUnrelatedComments(t *testing.T) {
	gh, out := publisherConfig(7, t.TempDir())
	fake := &fakeFacade{
		comments: []*github.IssueComment{
			{ID: github.Int64(99), Body: github.String("LGTM, nice work")},
		},
		nextID: 99,
	}
	p := NewPublisher(gh, out, fake, zap.NewNop())

	require.NoError(t, p.Publish(context.Background(), sampleReport()))

	require.Len(t, fake.comments, 2)
	assert.Equal(t, "LGTM, nice work", fake.comments[0].GetBody())
	assert.Contains(t, fake.comments[1].GetBody(), Marker)
}

func TestPublishSkipsCommentWithoutReviewUnit(t *testing.T) {
	gh, out := publisherConfig(0, t.TempDir())
	fake := &fakeFacade{}
	p := NewPublisher(gh, out, fake, zap.NewNop())

	require.NoError(t, p.Publish(context.Background(), sampleReport()))

	assert.Empty(t, fake.comments)

	// Artifacts are still written.
	_, err := os.Stat(out.ReportFile)
	assert.NoError(t, err)
}

func TestPublishCommentFailuresAreFatal(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeFacade
	}{
		{name: "list fails", fake: &fakeFacade{listErr: errors.New("boom")}},
		{name: "create fails", fake: &fakeFacade{createErr: errors.New("boom")}},
		{name: "edit fails", fake: &fakeFacade{
			editErr:  errors.New("boom"),
			comments: []*github.IssueComment{{ID: github.Int64(1), Body: github.String(Marker + " old")}},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gh, out := publisherConfig(7, t.TempDir())
			p := NewPublisher(gh, out, tc.fake, zap.NewNop())

			err := p.Publish(context.Background(), sampleReport())
			require.Error(t, err)
		})
	}
}

func TestWriteOutputsVariables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "outputs.txt")

	require.NoError(t, WriteOutputs(path, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "risk_assessment=CRITICAL\n")
	assert.Contains(t, content, "action_required=true\n")
	assert.Contains(t, content, "security_score=8.2\n")
	assert.Contains(t, content, "vulnerability_count=2\n")
	assert.Contains(t, content, "requires_review=true\n")
	assert.Contains(t, content, "provider=gemini\n")
	assert.Contains(t, content, "tier=Primary AI\n")

	// Multiline recommendations use the heredoc form.
	assert.Contains(t, content, "recommendations<<SENTINEL_EOF\n")
	assert.Contains(t, content, "Rotate affected credentials\nSENTINEL_EOF\n")
}

func TestWriteOutputsEmergencyReportHasAllKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "outputs.txt")

	r := &schemas.AggregatedReport{
		RunID:          "run-err",
		GeneratedAt:    time.Now().UTC(),
		RiskAssessment: schemas.RiskUnknown,
		ActionRequired: true,
		SecurityScore:  5.0,
		Analysis: schemas.TierResult{
			Metadata: schemas.TierMetadata{Tier: "Emergency", Provider: "none"},
		},
		Recommendations: []string{"Manual security review required: analysis pipeline failed"},
	}
	require.NoError(t, WriteOutputs(path, r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	for _, key := range []string{
		"risk_assessment", "action_required", "security_score",
		"vulnerability_count", "requires_review", "recommendations",
		"provider", "tier",
	} {
		assert.True(t, strings.Contains(content, key+"=") || strings.Contains(content, key+"<<"),
			"missing output variable %s", key)
	}
	assert.Contains(t, content, "tier=Emergency\n")
}

func TestWriteReportFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	require.NoError(t, WriteReportFile(path, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run_id": "run-1234"`)
	assert.Contains(t, string(data), `"risk_assessment": "CRITICAL"`)
}
