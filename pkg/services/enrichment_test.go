package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/synchrony-solutions/curation-enricher-ai/pkg/config"
	"github.com/synchrony-solutions/curation-enricher-ai/pkg/llm"
	"github.com/synchrony-solutions/curation-enricher-ai/pkg/models"
)

// mockCatalog is a function-field mock of CatalogStore.
type mockCatalog struct {
	GetDatasetSchemaFunc  func(ctx context.Context, datasetURN string) (*models.DatasetSchema, error)
	ListDatasetsFunc      func(ctx context.Context, platform string, limit int) ([]models.DatasetSummary, error)
	UpdateDescriptionFunc func(ctx context.Context, datasetURN, fieldPath, description string) error
	AddTagFunc            func(ctx context.Context, datasetURN, fieldPath, tagURN string) error

	UpdateDescriptionCalls int
	AddTagCalls            int
}

func (m *mockCatalog) GetDatasetSchema(ctx context.Context, datasetURN string) (*models.DatasetSchema, error) {
	if m.GetDatasetSchemaFunc != nil {
		return m.GetDatasetSchemaFunc(ctx, datasetURN)
	}
	return nil, nil
}

func (m *mockCatalog) ListDatasets(ctx context.Context, platform string, limit int) ([]models.DatasetSummary, error) {
	if m.ListDatasetsFunc != nil {
		return m.ListDatasetsFunc(ctx, platform, limit)
	}
	return nil, nil
}

func (m *mockCatalog) UpdateDescription(ctx context.Context, datasetURN, fieldPath, description string) error {
	m.UpdateDescriptionCalls++
	if m.UpdateDescriptionFunc != nil {
		return m.UpdateDescriptionFunc(ctx, datasetURN, fieldPath, description)
	}
	return nil
}

func (m *mockCatalog) AddTag(ctx context.Context, datasetURN, fieldPath, tagURN string) error {
	m.AddTagCalls++
	if m.AddTagFunc != nil {
		return m.AddTagFunc(ctx, datasetURN, fieldPath, tagURN)
	}
	return nil
}

func allFeatures() config.FeatureFlags {
	return config.FeatureFlags{
		ColumnDescriptions: true,
		PIIDetection:       true,
		TagSuggestions:     true,
	}
}

func usersSchema(urn string) *models.DatasetSchema {
	return &models.DatasetSchema{
		URN:         urn,
		Name:        "users",
		Description: "User accounts",
		Fields: []models.SchemaField{
			{FieldPath: "id", NativeDataType: "bigint"},
			{FieldPath: "email", NativeDataType: "varchar", Nullable: true},
			{FieldPath: "created_at", NativeDataType: "timestamp"},
		},
	}
}

func schemaCatalog(schemas map[string]*models.DatasetSchema) *mockCatalog {
	return &mockCatalog{
		GetDatasetSchemaFunc: func(ctx context.Context, urn string) (*models.DatasetSchema, error) {
			return schemas[urn], nil
		},
	}
}

func TestEnrichCombinesTasksInFixedOrder(t *testing.T) {
	const urn = "urn:li:dataset:users"
	catalog := schemaCatalog(map[string]*models.DatasetSchema{urn: usersSchema(urn)})

	backend := llm.NewMockService()
	backend.GenerateColumnDescriptionsFunc = func(ctx context.Context, name string, fields []models.SchemaField) (map[string]string, error) {
		// Slow task: descriptions must still come first in the output.
		time.Sleep(20 * time.Millisecond)
		return map[string]string{"id": "Primary key", "email": "Contact address"}, nil
	}
	backend.DetectPIIColumnsFunc = func(ctx context.Context, name string, fields []models.SchemaField) ([]string, error) {
		return []string{"email"}, nil
	}
	backend.SuggestTagsFunc = func(ctx context.Context, name, desc string, fields []models.SchemaField) ([]string, error) {
		return []string{"accounts"}, nil
	}

	svc := NewEnrichmentService(catalog, backend, allFeatures(), 1, zap.NewNop())

	suggestions, err := svc.Enrich(context.Background(), urn)
	require.NoError(t, err)
	require.Len(t, suggestions, 4)

	assert.Equal(t, models.SuggestionDescription, suggestions[0].Kind)
	assert.Equal(t, "id", *suggestions[0].FieldPath)
	assert.Equal(t, models.SuggestionDescription, suggestions[1].Kind)
	assert.Equal(t, "email", *suggestions[1].FieldPath)

	assert.Equal(t, models.SuggestionPIITag, suggestions[2].Kind)
	assert.Equal(t, "email", *suggestions[2].FieldPath)
	assert.Equal(t, "pii", suggestions[2].Value)

	assert.Equal(t, models.SuggestionDatasetTag, suggestions[3].Kind)
	assert.Nil(t, suggestions[3].FieldPath)
	assert.Equal(t, "accounts", suggestions[3].Value)
}

func TestEnrichDescriptionsFollowSchemaOrder(t *testing.T) {
	const urn = "urn:li:dataset:users"
	catalog := schemaCatalog(map[string]*models.DatasetSchema{urn: usersSchema(urn)})

	backend := llm.NewMockService()
	backend.GenerateColumnDescriptionsFunc = func(ctx context.Context, name string, fields []models.SchemaField) (map[string]string, error) {
		return map[string]string{
			"created_at": "Row creation time",
			"id":         "Primary key",
		}, nil
	}

	svc := NewEnrichmentService(catalog, backend,
		config.FeatureFlags{ColumnDescriptions: true}, 1, zap.NewNop())

	suggestions, err := svc.Enrich(context.Background(), urn)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "id", *suggestions[0].FieldPath)
	assert.Equal(t, "created_at", *suggestions[1].FieldPath)
}

func TestEnrichMissingDataset(t *testing.T) {
	backend := llm.NewMockService()
	svc := NewEnrichmentService(schemaCatalog(nil), backend, allFeatures(), 1, zap.NewNop())

	suggestions, err := svc.Enrich(context.Background(), "urn:li:dataset:missing")
	require.NoError(t, err)
	assert.Empty(t, suggestions)
	assert.NotNil(t, suggestions)
	assert.Zero(t, backend.GenerateColumnDescriptionsCalls, "no backend calls for a missing dataset")
}

func TestEnrichZeroColumnDataset(t *testing.T) {
	const urn = "urn:li:dataset:empty"
	catalog := schemaCatalog(map[string]*models.DatasetSchema{
		urn: {URN: urn, Name: "empty"},
	})
	backend := llm.NewMockService()
	svc := NewEnrichmentService(catalog, backend, allFeatures(), 1, zap.NewNop())

	suggestions, err := svc.Enrich(context.Background(), urn)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
	assert.Zero(t, backend.GenerateColumnDescriptionsCalls)
	assert.Zero(t, backend.DetectPIIColumnsCalls)
	assert.Zero(t, backend.SuggestTagsCalls)
}

func TestEnrichCatalogErrorPropagates(t *testing.T) {
	boom := errors.New("catalog unavailable")
	catalog := &mockCatalog{
		GetDatasetSchemaFunc: func(ctx context.Context, urn string) (*models.DatasetSchema, error) {
			return nil, boom
		},
	}
	svc := NewEnrichmentService(catalog, llm.NewMockService(), allFeatures(), 1, zap.NewNop())

	_, err := svc.Enrich(context.Background(), "urn:li:dataset:x")
	assert.ErrorIs(t, err, boom)
}

func TestEnrichTaskFailureDiscardsPartialResults(t *testing.T) {
	const urn = "urn:li:dataset:users"
	catalog := schemaCatalog(map[string]*models.DatasetSchema{urn: usersSchema(urn)})

	boom := errors.New("backend exploded")
	backend := llm.NewMockService()
	backend.GenerateColumnDescriptionsFunc = func(ctx context.Context, name string, fields []models.SchemaField) (map[string]string, error) {
		return map[string]string{"id": "Primary key"}, nil
	}
	backend.DetectPIIColumnsFunc = func(ctx context.Context, name string, fields []models.SchemaField) ([]string, error) {
		return nil, boom
	}

	svc := NewEnrichmentService(catalog, backend, allFeatures(), 1, zap.NewNop())

	suggestions, err := svc.Enrich(context.Background(), urn)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, suggestions)
}

func TestEnrichFeatureFlagsDisableTasks(t *testing.T) {
	const urn = "urn:li:dataset:users"
	catalog := schemaCatalog(map[string]*models.DatasetSchema{urn: usersSchema(urn)})

	backend := llm.NewMockService()
	backend.SuggestTagsFunc = func(ctx context.Context, name, desc string, fields []models.SchemaField) ([]string, error) {
		return []string{"accounts"}, nil
	}

	svc := NewEnrichmentService(catalog, backend,
		config.FeatureFlags{TagSuggestions: true}, 1, zap.NewNop())

	suggestions, err := svc.Enrich(context.Background(), urn)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, models.SuggestionDatasetTag, suggestions[0].Kind)
	assert.Zero(t, backend.GenerateColumnDescriptionsCalls)
	assert.Zero(t, backend.DetectPIIColumnsCalls)
}

func TestEnrichBatchIsolatesFailures(t *testing.T) {
	schemas := map[string]*models.DatasetSchema{
		"urn:li:dataset:a": usersSchema("urn:li:dataset:a"),
		"urn:li:dataset:b": usersSchema("urn:li:dataset:b"),
	}
	catalog := &mockCatalog{
		GetDatasetSchemaFunc: func(ctx context.Context, urn string) (*models.DatasetSchema, error) {
			if urn == "urn:li:dataset:broken" {
				return nil, errors.New("catalog unavailable")
			}
			return schemas[urn], nil
		},
	}

	backend := llm.NewMockService()
	backend.SuggestTagsFunc = func(ctx context.Context, name, desc string, fields []models.SchemaField) ([]string, error) {
		return []string{"accounts"}, nil
	}

	svc := NewEnrichmentService(catalog, backend,
		config.FeatureFlags{TagSuggestions: true}, 2, zap.NewNop())

	results := svc.EnrichBatch(context.Background(),
		[]string{"urn:li:dataset:a", "urn:li:dataset:broken", "urn:li:dataset:b"})

	require.Len(t, results, 3, "every dataset gets an entry")
	assert.Len(t, results["urn:li:dataset:a"], 1)
	assert.Len(t, results["urn:li:dataset:b"], 1)
	assert.Empty(t, results["urn:li:dataset:broken"])
	assert.NotNil(t, results["urn:li:dataset:broken"])
}

func TestEnrichBatchEmpty(t *testing.T) {
	svc := NewEnrichmentService(schemaCatalog(nil), llm.NewMockService(), allFeatures(), 2, zap.NewNop())
	results := svc.EnrichBatch(context.Background(), nil)
	assert.Empty(t, results)
}

func TestApply(t *testing.T) {
	const urn = "urn:li:dataset:users"

	t.Run("description", func(t *testing.T) {
		catalog := &mockCatalog{
			UpdateDescriptionFunc: func(ctx context.Context, datasetURN, fieldPath, description string) error {
				assert.Equal(t, urn, datasetURN)
				assert.Equal(t, "email", fieldPath)
				assert.Equal(t, "Contact address", description)
				return nil
			},
		}
		svc := NewEnrichmentService(catalog, llm.NewMockService(), allFeatures(), 1, zap.NewNop())

		ok := svc.Apply(context.Background(),
			models.NewFieldSuggestion(urn, "email", models.SuggestionDescription, "Contact address"))
		assert.True(t, ok)
		assert.Equal(t, 1, catalog.UpdateDescriptionCalls)
	})

	t.Run("pii tag targets the column", func(t *testing.T) {
		catalog := &mockCatalog{
			AddTagFunc: func(ctx context.Context, datasetURN, fieldPath, tagURN string) error {
				assert.Equal(t, "ssn", fieldPath)
				assert.Equal(t, "urn:li:tag:pii", tagURN)
				return nil
			},
		}
		svc := NewEnrichmentService(catalog, llm.NewMockService(), allFeatures(), 1, zap.NewNop())

		ok := svc.Apply(context.Background(),
			models.NewFieldSuggestion(urn, "ssn", models.SuggestionPIITag, "pii"))
		assert.True(t, ok)
	})

	t.Run("dataset tag has no sub-resource", func(t *testing.T) {
		catalog := &mockCatalog{
			AddTagFunc: func(ctx context.Context, datasetURN, fieldPath, tagURN string) error {
				assert.Empty(t, fieldPath)
				assert.Equal(t, "urn:li:tag:finance", tagURN)
				return nil
			},
		}
		svc := NewEnrichmentService(catalog, llm.NewMockService(), allFeatures(), 1, zap.NewNop())

		ok := svc.Apply(context.Background(),
			models.NewDatasetSuggestion(urn, models.SuggestionDatasetTag, "finance"))
		assert.True(t, ok)
	})

	t.Run("catalog failure reports false", func(t *testing.T) {
		catalog := &mockCatalog{
			UpdateDescriptionFunc: func(ctx context.Context, datasetURN, fieldPath, description string) error {
				return errors.New("write rejected")
			},
		}
		svc := NewEnrichmentService(catalog, llm.NewMockService(), allFeatures(), 1, zap.NewNop())

		ok := svc.Apply(context.Background(),
			models.NewFieldSuggestion(urn, "id", models.SuggestionDescription, "Primary key"))
		assert.False(t, ok)
	})

	t.Run("unknown kind reports false without writes", func(t *testing.T) {
		catalog := &mockCatalog{}
		svc := NewEnrichmentService(catalog, llm.NewMockService(), allFeatures(), 1, zap.NewNop())

		ok := svc.Apply(context.Background(), models.Suggestion{
			DatasetURN: urn,
			Kind:       "rename-column",
			Value:      "x",
		})
		assert.False(t, ok)
		assert.Zero(t, catalog.UpdateDescriptionCalls)
		assert.Zero(t, catalog.AddTagCalls)
	})
}
