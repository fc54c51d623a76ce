package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sentinel/api/schemas"
)

const validOSVDoc = `{
	"results": [{
		"source": {"path": "go.sum"},
		"packages": [{
			"package": {"name": "golang.org/x/text", "ecosystem": "Go"},
			"vulnerabilities": [
				{"id": "GO-2021-0113", "summary": "Out-of-bounds read", "database_specific": {"severity": "HIGH", "cvss_score": 7.5}},
				{"id": "GO-2022-0001", "summary": "Denial of service", "database_specific": {"severity": "moderate"}}
			]
		}]
	}]
}`

func TestOSVAdapter_Parse(t *testing.T) {
	adapter := &osvAdapter{}
	findings, err := adapter.Parse([]byte(validOSVDoc))
	require.NoError(t, err)
	require.Len(t, findings, 2)

	assert.Equal(t, schemas.SeverityHigh, findings[0].Severity)
	assert.Equal(t, "GO-2021-0113", findings[0].VulnerabilityID)
	assert.Equal(t, "golang.org/x/text", findings[0].Package)
	assert.Equal(t, "go.sum", findings[0].Location)
	assert.Equal(t, "7.5", findings[0].CVSSScore)

	// "moderate" counts as medium; no score reported means the sentinel.
	assert.Equal(t, schemas.SeverityMedium, findings[1].Severity)
	assert.Equal(t, schemas.CVSSNotAvailable, findings[1].CVSSScore)
}

func TestOSVAdapter_MalformedDocument(t *testing.T) {
	adapter := &osvAdapter{}
	_, err := adapter.Parse([]byte(`not json at all`))
	require.Error(t, err)
}

// Five input slots, three populated (one of them malformed) and two absent:
// statuses must isolate per tool and the well-formed documents must still
// contribute all their findings.
func TestLoadAll_FailureIsolation(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "osv-results.json"), []byte(validOSVDoc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "semgrep-results.sarif"),
		buildSARIF("G101", "error", `"9.5"`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zap-report.json"), []byte(`{"site": [`), 0o644))

	results := LoadAll(dir, zap.NewNop())
	require.Len(t, results, len(FileTools()))

	statuses := make(map[schemas.Tool]schemas.ToolStatus)
	total := 0
	for _, r := range results {
		statuses[r.Tool] = r.Status
		total += len(r.Findings)
	}

	assert.Equal(t, schemas.StatusCompleted, statuses[schemas.ToolOSV])
	assert.Equal(t, schemas.StatusCompleted, statuses[schemas.ToolSemgrep])
	assert.Equal(t, schemas.StatusError, statuses[schemas.ToolZAP])
	assert.Equal(t, schemas.StatusMissing, statuses[schemas.ToolTrivy])
	assert.Equal(t, schemas.StatusMissing, statuses[schemas.ToolCheckov])

	// 2 dependency findings + 1 static finding; the broken document
	// contributes nothing.
	assert.Equal(t, 3, total)
}

func TestLoadAll_EmptyDirectory(t *testing.T) {
	results := LoadAll(t.TempDir(), zap.NewNop())
	for _, r := range results {
		assert.Equal(t, schemas.StatusMissing, r.Status)
		assert.Empty(t, r.Findings)
	}
}

func TestFindingsFromSecretIssues(t *testing.T) {
	findings := FindingsFromSecretIssues([]SecretIssue{
		{Number: 17, Title: "[aws-access-key] key committed in config.py"},
		{Number: 18, Title: ""},
	})
	require.Len(t, findings, 2)

	assert.Equal(t, schemas.SeverityHigh, findings[0].Severity)
	assert.Equal(t, "aws-access-key", findings[0].VulnerabilityID)
	assert.Equal(t, "issue #17", findings[0].Location)

	// Secrets are always HIGH, even with no usable title.
	assert.Equal(t, schemas.SeverityHigh, findings[1].Severity)
	assert.Equal(t, schemas.UnknownID, findings[1].VulnerabilityID)
	assert.Equal(t, "Secret detected", findings[1].Message)
}

func TestFindingsFromDependencyAlerts(t *testing.T) {
	findings := FindingsFromDependencyAlerts([]DependencyAlert{
		{ID: "GHSA-1234", Summary: "Prototype pollution", Severity: "critical", Package: "lodash", URL: "https://example.test/alerts/1"},
		{Severity: "nonsense"},
	})
	require.Len(t, findings, 2)

	assert.Equal(t, schemas.SeverityCritical, findings[0].Severity)
	assert.Equal(t, "lodash", findings[0].Package)
	assert.Equal(t, "https://example.test/alerts/1", findings[0].Location)

	assert.Equal(t, schemas.SeverityMedium, findings[1].Severity)
	assert.Equal(t, schemas.UnknownPackage, findings[1].Package)
}

func TestForTool_RegistryCoversFileTools(t *testing.T) {
	for _, tool := range FileTools() {
		adapter, ok := ForTool(tool)
		require.True(t, ok, "missing adapter for %s", tool)
		assert.Equal(t, tool, adapter.Tool())
	}
}
