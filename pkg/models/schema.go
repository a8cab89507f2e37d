package models

// SchemaField is one column in a dataset's schema, as fetched from the
// catalog. Snapshots are immutable for the duration of one enrichment run.
type SchemaField struct {
	FieldPath      string   `json:"field_path"`
	NativeDataType string   `json:"native_data_type"`
	Description    string   `json:"description,omitempty"`
	Nullable       bool     `json:"nullable"`
	Tags           []string `json:"tags,omitempty"`
}

// DatasetSchema holds the catalog metadata needed to enrich one dataset.
type DatasetSchema struct {
	URN         string        `json:"urn"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Fields      []SchemaField `json:"fields"`
}

// DatasetSummary is a catalog search hit, used when listing datasets for
// batch enrichment.
type DatasetSummary struct {
	URN      string `json:"urn"`
	Name     string `json:"name"`
	Platform string `json:"platform,omitempty"`
}
