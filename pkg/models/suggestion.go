package models

// SuggestionKind identifies what a suggestion proposes to change.
type SuggestionKind string

const (
	// SuggestionDescription proposes a description for a single column.
	SuggestionDescription SuggestionKind = "description"
	// SuggestionPIITag proposes a sensitive-data tag on a single column.
	SuggestionPIITag SuggestionKind = "pii-tag"
	// SuggestionDatasetTag proposes a tag on the dataset itself.
	SuggestionDatasetTag SuggestionKind = "dataset-tag"
)

// Suggestion is one proposed metadata change for a catalog dataset.
// FieldPath is nil only for dataset-level suggestions (SuggestionDatasetTag);
// description and pii-tag suggestions always carry a field path.
type Suggestion struct {
	DatasetURN string         `json:"dataset_id"`
	FieldPath  *string        `json:"field_path"`
	Kind       SuggestionKind `json:"kind"`
	Value      string         `json:"value"`
	Confidence float64        `json:"confidence"`
}

// NewFieldSuggestion builds a field-scoped suggestion with full confidence.
func NewFieldSuggestion(datasetURN, fieldPath string, kind SuggestionKind, value string) Suggestion {
	return Suggestion{
		DatasetURN: datasetURN,
		FieldPath:  &fieldPath,
		Kind:       kind,
		Value:      value,
		Confidence: 1.0,
	}
}

// NewDatasetSuggestion builds a dataset-level suggestion with full confidence.
func NewDatasetSuggestion(datasetURN string, kind SuggestionKind, value string) Suggestion {
	return Suggestion{
		DatasetURN: datasetURN,
		Kind:       kind,
		Value:      value,
		Confidence: 1.0,
	}
}
