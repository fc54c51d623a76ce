// File: internal/adapters/adapter.go
package adapters

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/xkilldash9x/sentinel/api/schemas"
)

// FormatAdapter normalizes one scanner's raw output document into canonical
// findings. Implementations must tolerate malformed-but-parseable input; a
// document that fails to parse at all returns an error, which the loader
// isolates into a per-tool Error status instead of aborting the run.
type FormatAdapter interface {
	Tool() schemas.Tool
	Parse(doc []byte) ([]schemas.Finding, error)
}

// registry maps every file-backed tool to its adapter. The secret and
// dependency-alert sources are API-fed and normalized through the converters
// in secrets.go and depalerts.go instead.
var registry = map[schemas.Tool]FormatAdapter{
	schemas.ToolTrivy:   &sarifAdapter{tool: schemas.ToolTrivy, containerVariant: true},
	schemas.ToolSemgrep: &sarifAdapter{tool: schemas.ToolSemgrep},
	schemas.ToolCheckov: &sarifAdapter{tool: schemas.ToolCheckov},
	schemas.ToolOSV:     &osvAdapter{},
	schemas.ToolZAP:     &zapAdapter{},
}

// inputFilenames are the well-known per-tool output filenames the calling
// workflow materializes into the scan-results directory.
var inputFilenames = map[schemas.Tool]string{
	schemas.ToolTrivy:   "trivy-results.sarif",
	schemas.ToolSemgrep: "semgrep-results.sarif",
	schemas.ToolCheckov: "checkov-results.sarif",
	schemas.ToolOSV:     "osv-results.json",
	schemas.ToolZAP:     "zap-report.json",
}

// ForTool returns the registered adapter for a file-backed tool.
func ForTool(tool schemas.Tool) (FormatAdapter, bool) {
	a, ok := registry[tool]
	return a, ok
}

// FileTools lists the file-backed tools in report order.
func FileTools() []schemas.Tool {
	return []schemas.Tool{
		schemas.ToolTrivy, schemas.ToolOSV, schemas.ToolSemgrep,
		schemas.ToolCheckov, schemas.ToolZAP,
	}
}

// SourceResult is one tool's contribution to a run.
type SourceResult struct {
	Tool     schemas.Tool
	Status   schemas.ToolStatus
	Findings []schemas.Finding
}

// LoadAll reads and parses every file-backed tool's document from dir.
// Failures are isolated per tool: an absent file yields Missing, an
// unparseable one yields Error, and neither stops the remaining tools from
// being processed.
func LoadAll(dir string, logger *zap.Logger) []SourceResult {
	log := logger.Named("adapters")
	results := make([]SourceResult, 0, len(inputFilenames))

	for _, tool := range FileTools() {
		path := filepath.Join(dir, inputFilenames[tool])
		results = append(results, loadOne(tool, path, log))
	}
	return results
}

func loadOne(tool schemas.Tool, path string, log *zap.Logger) SourceResult {
	doc, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info("Scanner output not present, skipping",
				zap.String("tool", string(tool)), zap.String("path", path))
			return SourceResult{Tool: tool, Status: schemas.StatusMissing}
		}
		log.Warn("Failed to read scanner output",
			zap.String("tool", string(tool)), zap.Error(err))
		return SourceResult{Tool: tool, Status: schemas.StatusError}
	}

	adapter, ok := ForTool(tool)
	if !ok {
		log.Warn("No adapter registered for tool", zap.String("tool", string(tool)))
		return SourceResult{Tool: tool, Status: schemas.StatusError}
	}

	findings, err := adapter.Parse(doc)
	if err != nil {
		log.Warn("Failed to parse scanner output",
			zap.String("tool", string(tool)), zap.Error(err))
		return SourceResult{Tool: tool, Status: schemas.StatusError}
	}

	log.Info("Parsed scanner output",
		zap.String("tool", string(tool)), zap.Int("findings", len(findings)))
	return SourceResult{Tool: tool, Status: schemas.StatusCompleted, Findings: findings}
}

func orUnknown(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
