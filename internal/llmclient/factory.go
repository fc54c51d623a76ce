// -- internal/llmclient/factory.go --
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/sentinel/internal/config"
)

// NewProvider is a factory function that builds a client for the configured
// backend kind. An unconfigured ProviderConfig (no API key) should be
// filtered out by the caller before reaching here; the orchestrator receives
// a list of zero-to-two configured provider handles rather than probing for
// availability itself.
func NewProvider(cfg config.ProviderConfig, logger *zap.Logger) (Provider, error) {
	switch cfg.Kind {
	case config.ProviderGemini:
		return NewGeminiClient(cfg, logger)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s, %s]",
			cfg.Kind, config.ProviderGemini, config.ProviderOpenAI)
	}
}
