package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// Backend selector values accepted by NewService.
const (
	BackendClaudeCode   = "claude-code"
	BackendAnthropicAPI = "anthropic-api"
	BackendOpenAI       = "openai"
)

// Settings selects and configures an inference backend at construction
// time. The chosen backend is fixed for the life of the service.
type Settings struct {
	Backend       string       // One of the Backend* constants
	ClaudeCommand string       // Local backend: CLI binary path or name
	MaxTurns      int          // Local backend: agentic turns per invocation
	Remote        RemoteConfig // Remote backends
}

// NewService creates the inference backend named by settings.Backend.
// Unknown backends are a configuration error.
func NewService(settings Settings, logger *zap.Logger) (Service, error) {
	switch settings.Backend {
	case BackendClaudeCode:
		return NewClaudeCLIService(settings.ClaudeCommand, settings.MaxTurns, logger), nil
	case BackendAnthropicAPI:
		return NewAnthropicService(settings.Remote, logger)
	case BackendOpenAI:
		return NewOpenAICompatibleService(settings.Remote, logger)
	default:
		return nil, fmt.Errorf("unknown LLM backend: %q", settings.Backend)
	}
}
