package llm

import (
	"context"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/synchrony-solutions/curation-enricher-ai/pkg/models"
	"github.com/synchrony-solutions/curation-enricher-ai/pkg/prompts"
	"github.com/synchrony-solutions/curation-enricher-ai/pkg/retry"
)

// RemoteConfig holds the settings shared by the remote API backends.
type RemoteConfig struct {
	APIKey       string
	BaseURL      string // OpenAI-compatible backend only
	Model        string
	MaxTokens    int
	Temperature  float64
	RateLimitRPS float64       // 0 disables client-side rate limiting
	Retry        *retry.Config // nil uses retry.DefaultConfig
}

func (c *RemoteConfig) limiter() *rate.Limiter {
	if c.RateLimitRPS <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(c.RateLimitRPS), 1)
}

// AnthropicService calls a managed Anthropic inference endpoint. Use it for
// deployments where an API key is available and the local CLI is not, such
// as CI pipelines.
type AnthropicService struct {
	client      *anthropic.Client
	model       string
	maxTokens   int
	temperature float64
	limiter     *rate.Limiter
	retryCfg    *retry.Config
	logger      *zap.Logger
}

// NewAnthropicService creates the remote API backend. A missing API key
// fails here, before any call is attempted.
func NewAnthropicService(cfg RemoteConfig, logger *zap.Logger) (*AnthropicService, error) {
	if cfg.APIKey == "" {
		return nil, NewError(ErrorTypeCredential,
			"anthropic API key is required for the API backend", false, nil)
	}
	if cfg.Retry == nil {
		cfg.Retry = retry.DefaultConfig()
	}

	return &AnthropicService{
		client:      anthropic.NewClient(cfg.APIKey),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		limiter:     cfg.limiter(),
		retryCfg:    cfg.Retry,
		logger:      logger.Named("anthropic"),
	}, nil
}

// invoke sends one prompt and returns the model's text answer. Each network
// call is rate limited and wrapped in the retry policy.
func (s *AnthropicService) invoke(ctx context.Context, prompt string) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	temp := float32(s.temperature)

	var text string
	err := retry.Do(ctx, s.retryCfg, func() error {
		resp, err := s.client.CreateMessages(ctx, anthropic.MessagesRequest{
			Model:       anthropic.Model(s.model),
			MaxTokens:   s.maxTokens,
			Temperature: &temp,
			Messages: []anthropic.Message{
				{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
					{Type: "text", Text: &prompt},
				}},
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
		text = firstTextBlock(resp.Content)
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

// firstTextBlock returns the first text block of a messages response.
func firstTextBlock(content []anthropic.MessageContent) string {
	for _, block := range content {
		if block.Type == "text" && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}

// GenerateColumnDescriptions implements Service.
func (s *AnthropicService) GenerateColumnDescriptions(ctx context.Context, datasetName string, fields []models.SchemaField) (map[string]string, error) {
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
func (s *AnthropicService) DetectPIIColumns(ctx context.Context, datasetName string, fields []models.SchemaField) ([]string, error) {
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
func (s *AnthropicService) SuggestTags(ctx context.Context, datasetName, datasetDescription string, fields []models.SchemaField) ([]string, error) {
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

// CheckConnection implements Service. It sends a minimal completion to
// verify the key and model are accepted.
func (s *AnthropicService) CheckConnection(ctx context.Context) bool {
	probe := "Say 'ok'"
	_, err := s.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(s.model),
		MaxTokens: 10,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &probe},
			}},
		},
	})
	if err != nil {
		s.logger.Error("API connection check failed", zap.Error(err))
		return false
	}

	s.logger.Info("API connection verified", zap.String("model", s.model))
	return true
}

// BackendName implements Service.
func (s *AnthropicService) BackendName() string {
	return "anthropic-api (" + s.model + ")"
}
