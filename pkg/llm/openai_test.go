package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/synchrony-solutions/curation-enricher-ai/pkg/models"
	"github.com/synchrony-solutions/curation-enricher-ai/pkg/retry"
)

func fastRemoteRetry() *retry.Config {
	return &retry.Config{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		JitterFactor: 0,
	}
}

// chatCompletionStub serves the OpenAI chat completion endpoint, answering
// every request with the given content.
func chatCompletionStub(t *testing.T, content string) *OpenAICompatibleService {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(server.Close)

	svc, err := NewOpenAICompatibleService(RemoteConfig{
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1",
		Model:   "test-model",
		Retry:   fastRemoteRetry(),
	}, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestNewOpenAICompatibleServiceValidation(t *testing.T) {
	t.Run("base URL required", func(t *testing.T) {
		_, err := NewOpenAICompatibleService(RemoteConfig{Model: "m"}, zap.NewNop())
		require.Error(t, err)
		assert.Equal(t, ErrorTypeCredential, GetErrorType(err))
	})

	t.Run("model required", func(t *testing.T) {
		_, err := NewOpenAICompatibleService(RemoteConfig{BaseURL: "http://localhost:11434/v1"}, zap.NewNop())
		require.Error(t, err)
		assert.Equal(t, ErrorTypeCredential, GetErrorType(err))
	})

	t.Run("API key optional", func(t *testing.T) {
		svc, err := NewOpenAICompatibleService(RemoteConfig{
			BaseURL: "http://localhost:11434/v1",
			Model:   "llama3",
		}, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, "openai-compatible (llama3)", svc.BackendName())
	})
}

func TestOpenAIGenerateColumnDescriptions(t *testing.T) {
	svc := chatCompletionStub(t, "```json\n{\"id\": \"Primary key\"}\n```")

	descriptions, err := svc.GenerateColumnDescriptions(context.Background(), "users",
		[]models.SchemaField{{FieldPath: "id", NativeDataType: "bigint"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"id": "Primary key"}, descriptions)
}

func TestOpenAIDetectPIIColumns(t *testing.T) {
	svc := chatCompletionStub(t,
		`{"pii_columns": [{"field_path": "email", "confidence": "high"}, {"field_path": "notes", "confidence": "low"}]}`)

	piiFields, err := svc.DetectPIIColumns(context.Background(), "users",
		[]models.SchemaField{{FieldPath: "email"}, {FieldPath: "notes"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"email"}, piiFields)
}

func TestOpenAISuggestTags(t *testing.T) {
	svc := chatCompletionStub(t, `{"suggested_tags": [{"tag": "finance"}]}`)

	tags, err := svc.SuggestTags(context.Background(), "orders", "Order records", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"finance"}, tags)
}

func TestOpenAIRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": `{"suggested_tags": []}`}},
			},
		})
	}))
	defer server.Close()

	svc, err := NewOpenAICompatibleService(RemoteConfig{
		BaseURL: server.URL + "/v1",
		Model:   "test-model",
		Retry:   fastRemoteRetry(),
	}, zap.NewNop())
	require.NoError(t, err)

	tags, err := svc.SuggestTags(context.Background(), "orders", "", nil)
	require.NoError(t, err)
	assert.Empty(t, tags)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenAIAuthFailureNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error": {"message": "invalid api key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	svc, err := NewOpenAICompatibleService(RemoteConfig{
		APIKey:  "wrong",
		BaseURL: server.URL + "/v1",
		Model:   "test-model",
		Retry:   fastRemoteRetry(),
	}, zap.NewNop())
	require.NoError(t, err)

	_, err = svc.GenerateColumnDescriptions(context.Background(), "users", nil)
	require.Error(t, err)
	assert.Equal(t, ErrorTypeCredential, GetErrorType(err))
	assert.Equal(t, int32(1), calls.Load(), "credential failures must not be retried")
}

func TestOpenAICheckConnection(t *testing.T) {
	svc := chatCompletionStub(t, "ok")
	assert.True(t, svc.CheckConnection(context.Background()))

	down, err := NewOpenAICompatibleService(RemoteConfig{
		BaseURL: "http://127.0.0.1:1/v1",
		Model:   "test-model",
		Retry:   fastRemoteRetry(),
	}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, down.CheckConnection(context.Background()))
}
