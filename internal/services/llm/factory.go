package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curo/internal/common"
	"github.com/ternarybob/curo/internal/interfaces"
)

// NewLLMService creates the LLM service implementation selected by
// llm.default_provider. Gemini is the default; Claude is chat-only.
func NewLLMService(cfg *common.Config, logger arbor.ILogger) (interfaces.LLMService, error) {
	provider := cfg.LLM.DefaultProvider
	if provider == "" {
		provider = string(interfaces.LLMProviderGemini)
	}

	logger.Info().Str("provider", provider).Msg("Initializing LLM service")

	switch interfaces.LLMProvider(provider) {
	case interfaces.LLMProviderGemini:
		return NewGeminiService(cfg, logger)

	case interfaces.LLMProviderClaude:
		return NewClaudeService(&cfg.Claude, logger)

	default:
		return nil, fmt.Errorf("unsupported LLM provider '%s': must be 'gemini' or 'claude'", provider)
	}
}
