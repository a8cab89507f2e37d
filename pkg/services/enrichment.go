// Package services contains the enrichment orchestration: fanning dataset
// schemas out to the inference backend and turning its answers into
// catalog suggestions.
package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/synchrony-solutions/curation-enricher-ai/pkg/config"
	"github.com/synchrony-solutions/curation-enricher-ai/pkg/llm"
	"github.com/synchrony-solutions/curation-enricher-ai/pkg/logging"
	"github.com/synchrony-solutions/curation-enricher-ai/pkg/models"
)

// tagURNPrefix turns a bare tag name into a catalog tag URN.
const tagURNPrefix = "urn:li:tag:"

// CatalogStore is the catalog surface enrichment depends on.
type CatalogStore interface {
	GetDatasetSchema(ctx context.Context, datasetURN string) (*models.DatasetSchema, error)
	ListDatasets(ctx context.Context, platform string, limit int) ([]models.DatasetSummary, error)
	UpdateDescription(ctx context.Context, datasetURN, fieldPath, description string) error
	AddTag(ctx context.Context, datasetURN, fieldPath, tagURN string) error
}

// EnrichmentService generates and applies metadata suggestions.
type EnrichmentService interface {
	// Enrich produces suggestions for one dataset. A dataset that does not
	// exist or has no columns yields no suggestions and no error.
	Enrich(ctx context.Context, datasetURN string) ([]models.Suggestion, error)

	// EnrichBatch processes many datasets with bounded parallelism. Every
	// input URN gets an entry in the result; a dataset whose enrichment
	// failed maps to an empty slice. Failures never abort the batch.
	EnrichBatch(ctx context.Context, datasetURNs []string) map[string][]models.Suggestion

	// Apply writes one suggestion back to the catalog and reports whether
	// the write succeeded.
	Apply(ctx context.Context, suggestion models.Suggestion) bool
}

type enrichmentService struct {
	catalog  CatalogStore
	backend  llm.Service
	features config.FeatureFlags
	pool     *llm.WorkerPool
	logger   *zap.Logger
}

// NewEnrichmentService creates the orchestrator. batchSize bounds how many
// datasets are enriched concurrently during EnrichBatch.
func NewEnrichmentService(
	catalog CatalogStore,
	backend llm.Service,
	features config.FeatureFlags,
	batchSize int,
	logger *zap.Logger,
) EnrichmentService {
	return &enrichmentService{
		catalog:  catalog,
		backend:  backend,
		features: features,
		pool:     llm.NewWorkerPool(batchSize, logger),
		logger:   logger.Named("enrichment"),
	}
}

// enrichmentTask is one independent unit of dataset enrichment. Tasks run
// concurrently; the slot index fixes the order of the combined output so
// results do not depend on completion timing.
type enrichmentTask struct {
	name string
	run  func(ctx context.Context) ([]models.Suggestion, error)
}

func (s *enrichmentService) Enrich(ctx context.Context, datasetURN string) ([]models.Suggestion, error) {
	schema, err := s.catalog.GetDatasetSchema(ctx, datasetURN)
	if err != nil {
		return nil, err
	}
	if schema == nil {
		s.logger.Warn("Dataset not found in catalog", zap.String("dataset", datasetURN))
		return []models.Suggestion{}, nil
	}
	if len(schema.Fields) == 0 {
		s.logger.Info("Dataset has no columns, nothing to enrich",
			zap.String("dataset", datasetURN))
		return []models.Suggestion{}, nil
	}

	tasks := s.buildTasks(schema)
	if len(tasks) == 0 {
		s.logger.Info("All enrichment tasks disabled", zap.String("dataset", datasetURN))
		return []models.Suggestion{}, nil
	}

	results := make([][]models.Suggestion, len(tasks))
	errs := make([]error, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(slot int, task enrichmentTask) {
			defer wg.Done()
			results[slot], errs[slot] = task.run(ctx)
		}(i, task)
	}
	wg.Wait()

	// First failure in task order wins; partial results are discarded so a
	// half-enriched dataset is never mistaken for a fully enriched one.
	for i, err := range errs {
		if err != nil {
			s.logger.Error("Enrichment task failed",
				zap.String("dataset", datasetURN),
				zap.String("task", tasks[i].name),
				zap.String("error", logging.SanitizeError(err)))
			return nil, err
		}
	}

	var suggestions []models.Suggestion
	for _, r := range results {
		suggestions = append(suggestions, r...)
	}
	if suggestions == nil {
		suggestions = []models.Suggestion{}
	}

	s.logger.Info("Dataset enriched",
		zap.String("dataset", datasetURN),
		zap.Int("suggestions", len(suggestions)))
	return suggestions, nil
}

// buildTasks assembles the enabled tasks in their fixed output order:
// column descriptions, then PII tags, then dataset tags.
func (s *enrichmentService) buildTasks(schema *models.DatasetSchema) []enrichmentTask {
	var tasks []enrichmentTask

	if s.features.ColumnDescriptions {
		tasks = append(tasks, enrichmentTask{
			name: "column-descriptions",
			run: func(ctx context.Context) ([]models.Suggestion, error) {
				return s.describeColumns(ctx, schema)
			},
		})
	}
	if s.features.PIIDetection {
		tasks = append(tasks, enrichmentTask{
			name: "pii-detection",
			run: func(ctx context.Context) ([]models.Suggestion, error) {
				return s.detectPII(ctx, schema)
			},
		})
	}
	if s.features.TagSuggestions {
		tasks = append(tasks, enrichmentTask{
			name: "tag-suggestions",
			run: func(ctx context.Context) ([]models.Suggestion, error) {
				return s.suggestTags(ctx, schema)
			},
		})
	}
	return tasks
}

// describeColumns turns the backend's field-path mapping into description
// suggestions, ordered by the schema's own column order.
func (s *enrichmentService) describeColumns(ctx context.Context, schema *models.DatasetSchema) ([]models.Suggestion, error) {
	descriptions, err := s.backend.GenerateColumnDescriptions(ctx, schema.Name, schema.Fields)
	if err != nil {
		return nil, err
	}

	suggestions := make([]models.Suggestion, 0, len(descriptions))
	for _, field := range schema.Fields {
		desc, ok := descriptions[field.FieldPath]
		if !ok || desc == "" {
			continue
		}
		suggestions = append(suggestions,
			models.NewFieldSuggestion(schema.URN, field.FieldPath, models.SuggestionDescription, desc))
	}
	return suggestions, nil
}

// detectPII proposes a pii tag on each column the backend flagged. Flagged
// paths are not checked against the schema: the catalog's own validation is
// the authority, and a path the model invented simply fails to apply.
func (s *enrichmentService) detectPII(ctx context.Context, schema *models.DatasetSchema) ([]models.Suggestion, error) {
	piiFields, err := s.backend.DetectPIIColumns(ctx, schema.Name, schema.Fields)
	if err != nil {
		return nil, err
	}

	suggestions := make([]models.Suggestion, 0, len(piiFields))
	for _, fieldPath := range piiFields {
		suggestions = append(suggestions,
			models.NewFieldSuggestion(schema.URN, fieldPath, models.SuggestionPIITag, "pii"))
	}
	return suggestions, nil
}

// suggestTags proposes dataset-level tags.
func (s *enrichmentService) suggestTags(ctx context.Context, schema *models.DatasetSchema) ([]models.Suggestion, error) {
	tags, err := s.backend.SuggestTags(ctx, schema.Name, schema.Description, schema.Fields)
	if err != nil {
		return nil, err
	}

	suggestions := make([]models.Suggestion, 0, len(tags))
	for _, tag := range tags {
		suggestions = append(suggestions,
			models.NewDatasetSuggestion(schema.URN, models.SuggestionDatasetTag, tag))
	}
	return suggestions, nil
}

func (s *enrichmentService) EnrichBatch(ctx context.Context, datasetURNs []string) map[string][]models.Suggestion {
	items := make([]llm.WorkItem[[]models.Suggestion], len(datasetURNs))
	for i, urn := range datasetURNs {
		urn := urn
		items[i] = llm.WorkItem[[]models.Suggestion]{
			ID: urn,
			Execute: func(ctx context.Context) ([]models.Suggestion, error) {
				return s.Enrich(ctx, urn)
			},
		}
	}

	results := llm.Process(ctx, s.pool, items, func(completed, total int) {
		s.logger.Info("Batch progress",
			zap.Int("completed", completed),
			zap.Int("total", total))
	})

	out := make(map[string][]models.Suggestion, len(datasetURNs))
	for _, urn := range datasetURNs {
		out[urn] = []models.Suggestion{}
	}
	for _, r := range results {
		if r.Err != nil {
			s.logger.Error("Dataset enrichment failed, continuing batch",
				zap.String("dataset", r.ID),
				zap.String("error", logging.SanitizeError(r.Err)))
			continue
		}
		out[r.ID] = r.Result
	}
	return out
}

func (s *enrichmentService) Apply(ctx context.Context, suggestion models.Suggestion) bool {
	fieldPath := ""
	if suggestion.FieldPath != nil {
		fieldPath = *suggestion.FieldPath
	}

	var err error
	switch suggestion.Kind {
	case models.SuggestionDescription:
		err = s.catalog.UpdateDescription(ctx, suggestion.DatasetURN, fieldPath, suggestion.Value)
	case models.SuggestionPIITag, models.SuggestionDatasetTag:
		err = s.catalog.AddTag(ctx, suggestion.DatasetURN, fieldPath, tagURNPrefix+suggestion.Value)
	default:
		s.logger.Warn("Unknown suggestion kind",
			zap.String("kind", string(suggestion.Kind)))
		return false
	}

	if err != nil {
		s.logger.Warn("Failed to apply suggestion",
			zap.String("dataset", suggestion.DatasetURN),
			zap.String("kind", string(suggestion.Kind)),
			zap.String("field_path", fieldPath),
			zap.String("error", logging.SanitizeError(err)))
		return false
	}
	return true
}
