package llm

import (
	"context"

	"github.com/synchrony-solutions/curation-enricher-ai/pkg/models"
)

// MockService is a configurable mock for testing enrichment flows. Set the
// function fields to control behavior; nil fields return empty results.
type MockService struct {
	GenerateColumnDescriptionsFunc func(ctx context.Context, datasetName string, fields []models.SchemaField) (map[string]string, error)
	DetectPIIColumnsFunc           func(ctx context.Context, datasetName string, fields []models.SchemaField) ([]string, error)
	SuggestTagsFunc                func(ctx context.Context, datasetName, datasetDescription string, fields []models.SchemaField) ([]string, error)
	CheckConnectionFunc            func(ctx context.Context) bool

	// Name is returned by BackendName. Defaults to "mock".
	Name string

	// Call tracking for verification.
	GenerateColumnDescriptionsCalls int
	DetectPIIColumnsCalls           int
	SuggestTagsCalls                int
}

// NewMockService creates a mock with sensible defaults.
func NewMockService() *MockService {
	return &MockService{Name: "mock"}
}

// GenerateColumnDescriptions implements Service.
func (m *MockService) GenerateColumnDescriptions(ctx context.Context, datasetName string, fields []models.SchemaField) (map[string]string, error) {
	m.GenerateColumnDescriptionsCalls++
	if m.GenerateColumnDescriptionsFunc != nil {
		return m.GenerateColumnDescriptionsFunc(ctx, datasetName, fields)
	}
	return map[string]string{}, nil
}

// DetectPIIColumns implements Service.
func (m *MockService) DetectPIIColumns(ctx context.Context, datasetName string, fields []models.SchemaField) ([]string, error) {
	m.DetectPIIColumnsCalls++
	if m.DetectPIIColumnsFunc != nil {
		return m.DetectPIIColumnsFunc(ctx, datasetName, fields)
	}
	return []string{}, nil
}

// SuggestTags implements Service.
func (m *MockService) SuggestTags(ctx context.Context, datasetName, datasetDescription string, fields []models.SchemaField) ([]string, error) {
	m.SuggestTagsCalls++
	if m.SuggestTagsFunc != nil {
		return m.SuggestTagsFunc(ctx, datasetName, datasetDescription, fields)
	}
	return []string{}, nil
}

// CheckConnection implements Service.
func (m *MockService) CheckConnection(ctx context.Context) bool {
	if m.CheckConnectionFunc != nil {
		return m.CheckConnectionFunc(ctx)
	}
	return true
}

// BackendName implements Service.
func (m *MockService) BackendName() string {
	if m.Name == "" {
		return "mock"
	}
	return m.Name
}
