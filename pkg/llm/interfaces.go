// Package llm provides the pluggable inference backends that turn catalog
// schemas into metadata-enrichment suggestions.
package llm

import (
	"context"

	"github.com/synchrony-solutions/curation-enricher-ai/pkg/models"
)

// Service is the contract every inference backend implements. Backends
// build a prompt, invoke the underlying transport, and project the model's
// free-text answer into the method's shape. A malformed or off-topic answer
// degrades that one method to its empty result; only transport-level
// failures surface as errors.
type Service interface {
	// GenerateColumnDescriptions returns suggested descriptions keyed by
	// field path.
	GenerateColumnDescriptions(ctx context.Context, datasetName string, fields []models.SchemaField) (map[string]string, error)

	// DetectPIIColumns returns the field paths of columns likely to hold
	// PII or other sensitive data (medium confidence or better).
	DetectPIIColumns(ctx context.Context, datasetName string, fields []models.SchemaField) ([]string, error)

	// SuggestTags returns suggested dataset-level tags.
	SuggestTags(ctx context.Context, datasetName, datasetDescription string, fields []models.SchemaField) ([]string, error)

	// CheckConnection reports whether the backend is reachable and
	// configured. It is a cheap liveness probe with no side effects beyond
	// the probe call itself.
	CheckConnection(ctx context.Context) bool

	// BackendName returns a human-readable identity for logging and
	// selection.
	BackendName() string
}

// Compile-time checks that every backend satisfies the contract.
var (
	_ Service = (*ClaudeCLIService)(nil)
	_ Service = (*AnthropicService)(nil)
	_ Service = (*OpenAICompatibleService)(nil)
	_ Service = (*MockService)(nil)
)
