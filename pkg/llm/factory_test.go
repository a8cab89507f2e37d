package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewService(t *testing.T) {
	logger := zap.NewNop()

	t.Run("claude-code backend", func(t *testing.T) {
		svc, err := NewService(Settings{Backend: BackendClaudeCode, MaxTurns: 1}, logger)
		require.NoError(t, err)
		assert.IsType(t, &ClaudeCLIService{}, svc)
	})

	t.Run("anthropic backend", func(t *testing.T) {
		svc, err := NewService(Settings{
			Backend: BackendAnthropicAPI,
			Remote:  RemoteConfig{APIKey: "sk-test", Model: "claude-sonnet-4-5-20250929"},
		}, logger)
		require.NoError(t, err)
		assert.IsType(t, &AnthropicService{}, svc)
	})

	t.Run("anthropic backend without key fails", func(t *testing.T) {
		_, err := NewService(Settings{Backend: BackendAnthropicAPI}, logger)
		require.Error(t, err)
		assert.Equal(t, ErrorTypeCredential, GetErrorType(err))
	})

	t.Run("openai backend", func(t *testing.T) {
		svc, err := NewService(Settings{
			Backend: BackendOpenAI,
			Remote:  RemoteConfig{BaseURL: "http://localhost:11434/v1", Model: "llama3"},
		}, logger)
		require.NoError(t, err)
		assert.IsType(t, &OpenAICompatibleService{}, svc)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewService(Settings{Backend: "gpt-telepathy"}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown LLM backend")
	})
}
