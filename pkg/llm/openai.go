package llm

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/synchrony-solutions/curation-enricher-ai/pkg/models"
	"github.com/synchrony-solutions/curation-enricher-ai/pkg/prompts"
	"github.com/synchrony-solutions/curation-enricher-ai/pkg/retry"
)

// OpenAICompatibleService calls any endpoint that speaks the OpenAI chat
// completion protocol, which covers self-hosted vLLM and Ollama deployments
// as well as OpenAI itself. The API key is optional for local endpoints.
type OpenAICompatibleService struct {
	client      *openai.Client
	endpoint    string
	model       string
	maxTokens   int
	temperature float64
	limiter     *rate.Limiter
	retryCfg    *retry.Config
	logger      *zap.Logger
}

// NewOpenAICompatibleService creates the OpenAI-compatible backend. BaseURL
// and Model are required; APIKey is not, since local endpoints rarely
// enforce one.
func NewOpenAICompatibleService(cfg RemoteConfig, logger *zap.Logger) (*OpenAICompatibleService, error) {
	if cfg.BaseURL == "" {
		return nil, NewError(ErrorTypeCredential,
			"base URL is required for the openai-compatible backend", false, nil)
	}
	if cfg.Model == "" {
		return nil, NewError(ErrorTypeCredential,
			"model is required for the openai-compatible backend", false, nil)
	}
	if cfg.Retry == nil {
		cfg.Retry = retry.DefaultConfig()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &OpenAICompatibleService{
		client:      openai.NewClientWithConfig(clientConfig),
		endpoint:    cfg.BaseURL,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		limiter:     cfg.limiter(),
		retryCfg:    cfg.Retry,
		logger:      logger.Named("openai"),
	}, nil
}

// invoke sends one prompt as a chat completion and returns the answer text.
func (s *OpenAICompatibleService) invoke(ctx context.Context, prompt string) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	var text string
	err := retry.Do(ctx, s.retryCfg, func() error {
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       s.model,
			MaxTokens:   s.maxTokens,
			Temperature: float32(s.temperature),
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			classified := ClassifyError(err)
			s.logger.Warn("Inference call failed",
				zap.String("model", s.model),
				zap.String("error_type", string(classified.Type)),
				zap.Bool("retryable", classified.Retryable),
				zap.Error(err))
			return classified
		}
		if len(resp.Choices) == 0 {
			return NewError(ErrorTypeEmptyResponse, "no choices in response", false, nil)
		}
		text = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", NewError(ErrorTypeEmptyResponse, "API returned no text content", false, nil)
	}
	return text, nil
}

// GenerateColumnDescriptions implements Service.
func (s *OpenAICompatibleService) GenerateColumnDescriptions(ctx context.Context, datasetName string, fields []models.SchemaField) (map[string]string, error) {
	prompt := prompts.BuildColumnDescriptionPrompt(datasetName, fields)
	response, err := s.invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	descriptions := projectDescriptions(s.logger, datasetName, response)
	s.logger.Info("Generated column descriptions",
		zap.String("dataset", datasetName),
		zap.Int("count", len(descriptions)))
	return descriptions, nil
}

// DetectPIIColumns implements Service.
func (s *OpenAICompatibleService) DetectPIIColumns(ctx context.Context, datasetName string, fields []models.SchemaField) ([]string, error) {
	prompt := prompts.BuildPIIDetectionPrompt(datasetName, fields)
	response, err := s.invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	piiFields := projectPIIColumns(s.logger, datasetName, response)
	s.logger.Info("Detected PII columns",
		zap.String("dataset", datasetName),
		zap.Int("count", len(piiFields)))
	return piiFields, nil
}

// SuggestTags implements Service.
func (s *OpenAICompatibleService) SuggestTags(ctx context.Context, datasetName, datasetDescription string, fields []models.SchemaField) ([]string, error) {
	prompt := prompts.BuildTagSuggestionPrompt(datasetName, datasetDescription, fields)
	response, err := s.invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	tags := projectTags(s.logger, datasetName, response)
	s.logger.Info("Suggested tags",
		zap.String("dataset", datasetName),
		zap.Int("count", len(tags)))
	return tags, nil
}

// CheckConnection implements Service.
func (s *OpenAICompatibleService) CheckConnection(ctx context.Context) bool {
	_, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: 10,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "Say 'ok'"},
		},
	})
	if err != nil {
		s.logger.Error("API connection check failed",
			zap.String("endpoint", s.endpoint),
			zap.Error(err))
		return false
	}

	s.logger.Info("API connection verified",
		zap.String("endpoint", s.endpoint),
		zap.String("model", s.model))
	return true
}

// BackendName implements Service.
func (s *OpenAICompatibleService) BackendName() string {
	return "openai-compatible (" + s.model + ")"
}
