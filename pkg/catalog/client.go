// Package catalog provides a client for the data catalog's GraphQL API
// (DataHub GMS): schema reads, dataset search, and metadata write-back.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/synchrony-solutions/curation-enricher-ai/pkg/logging"
	"github.com/synchrony-solutions/curation-enricher-ai/pkg/models"
	"github.com/synchrony-solutions/curation-enricher-ai/pkg/retry"
)

// DefaultTimeout is the maximum time to wait for one catalog response.
const DefaultTimeout = 30 * time.Second

// Client talks to the catalog's GraphQL endpoint. Safe for concurrent use.
type Client struct {
	gmsURL     string
	token      string
	httpClient *http.Client
	retryCfg   *retry.Config
	logger     *zap.Logger
}

// NewClient creates a catalog client. token may be empty for unauthenticated
// deployments. A nil retryCfg uses retry.DefaultConfig.
func NewClient(gmsURL, token string, retryCfg *retry.Config, logger *zap.Logger) *Client {
	return &Client{
		gmsURL:     strings.TrimSuffix(gmsURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		retryCfg:   retryCfg,
		logger:     logger.Named("catalog"),
	}
}

// graphQLError is a failure reported by the GraphQL layer itself. These are
// deterministic (bad query, unknown entity type), so they are never retried.
type graphQLError struct {
	messages []string
}

func (e *graphQLError) Error() string {
	return "graphql errors: " + strings.Join(e.messages, "; ")
}

func (e *graphQLError) IsRetryable() bool { return false }

// query executes one GraphQL request with retry and returns the data
// payload.
func (c *Client) query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	return retry.DoWithResult(ctx, c.retryCfg, func() (json.RawMessage, error) {
		return c.doQuery(ctx, payload)
	})
}

func (c *Client) doQuery(ctx context.Context, payload []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gmsURL+"/api/graphql", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-RestLi-Protocol-Version", "2.0.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Catalog request failed",
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("call catalog: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Catalog returned non-OK status",
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("catalog returned status %d: %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("parse graphql response: %w", err)
	}

	// GraphQL reports failures on HTTP 200.
	if len(envelope.Errors) > 0 {
		messages := make([]string, len(envelope.Errors))
		for i, e := range envelope.Errors {
			messages[i] = e.Message
		}
		gqlErr := &graphQLError{messages: messages}
		c.logger.Warn("Catalog query returned errors",
			zap.Strings("messages", messages))
		return nil, gqlErr
	}

	return envelope.Data, nil
}

const getDatasetQuery = `
query getDataset($urn: String!) {
    dataset(urn: $urn) {
        urn
        name
        description
        schemaMetadata {
            fields {
                fieldPath
                nativeDataType
                description
                nullable
                tags {
                    tags {
                        tag {
                            name
                        }
                    }
                }
            }
        }
    }
}`

// Wire shapes for the getDataset response.
type tagAssociations struct {
	Tags []struct {
		Tag struct {
			Name string `json:"name"`
		} `json:"tag"`
	} `json:"tags"`
}

func (t *tagAssociations) names() []string {
	if t == nil || len(t.Tags) == 0 {
		return nil
	}
	names := make([]string, 0, len(t.Tags))
	for _, assoc := range t.Tags {
		if assoc.Tag.Name != "" {
			names = append(names, assoc.Tag.Name)
		}
	}
	return names
}

type datasetWire struct {
	URN            string `json:"urn"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	SchemaMetadata *struct {
		Fields []struct {
			FieldPath      string           `json:"fieldPath"`
			NativeDataType string           `json:"nativeDataType"`
			Description    string           `json:"description"`
			Nullable       bool             `json:"nullable"`
			Tags           *tagAssociations `json:"tags"`
		} `json:"fields"`
	} `json:"schemaMetadata"`
}

// GetDatasetSchema fetches schema metadata for one dataset. A dataset that
// does not exist returns (nil, nil): "nothing to enrich" is not an error.
func (c *Client) GetDatasetSchema(ctx context.Context, datasetURN string) (*models.DatasetSchema, error) {
	data, err := c.query(ctx, getDatasetQuery, map[string]any{"urn": datasetURN})
	if err != nil {
		return nil, err
	}

	var result struct {
		Dataset *datasetWire `json:"dataset"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	if result.Dataset == nil {
		return nil, nil
	}

	schema := &models.DatasetSchema{
		URN:         result.Dataset.URN,
		Name:        result.Dataset.Name,
		Description: result.Dataset.Description,
	}
	if result.Dataset.SchemaMetadata != nil {
		for _, f := range result.Dataset.SchemaMetadata.Fields {
			schema.Fields = append(schema.Fields, models.SchemaField{
				FieldPath:      f.FieldPath,
				NativeDataType: f.NativeDataType,
				Description:    f.Description,
				Nullable:       f.Nullable,
				Tags:           f.Tags.names(),
			})
		}
	}
	return schema, nil
}

const searchDatasetsQuery = `
query searchDatasets($input: SearchInput!) {
    search(input: $input) {
        total
        searchResults {
            entity {
                ... on Dataset {
                    urn
                    name
                    platform {
                        name
                    }
                }
            }
        }
    }
}`

// ListDatasets returns up to limit datasets, optionally filtered by
// platform (e.g. "snowflake", "postgres").
func (c *Client) ListDatasets(ctx context.Context, platform string, limit int) ([]models.DatasetSummary, error) {
	input := map[string]any{
		"type":  "DATASET",
		"query": "*",
		"start": 0,
		"count": limit,
	}
	if platform != "" {
		input["filters"] = []map[string]any{{"field": "platform", "value": platform}}
	}

	data, err := c.query(ctx, searchDatasetsQuery, map[string]any{"input": input})
	if err != nil {
		return nil, err
	}

	var result struct {
		Search struct {
			SearchResults []struct {
				Entity struct {
					URN      string `json:"urn"`
					Name     string `json:"name"`
					Platform *struct {
						Name string `json:"name"`
					} `json:"platform"`
				} `json:"entity"`
			} `json:"searchResults"`
		} `json:"search"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	summaries := make([]models.DatasetSummary, 0, len(result.Search.SearchResults))
	for _, r := range result.Search.SearchResults {
		summary := models.DatasetSummary{URN: r.Entity.URN, Name: r.Entity.Name}
		if r.Entity.Platform != nil {
			summary.Platform = r.Entity.Platform.Name
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// CheckConnection verifies the catalog is reachable and the token, when
// set, is accepted. It runs a minimal search rather than a health endpoint
// so the probe exercises the same authenticated path the client uses.
func (c *Client) CheckConnection(ctx context.Context) error {
	input := map[string]any{
		"type":  "DATASET",
		"query": "*",
		"start": 0,
		"count": 1,
	}
	_, err := c.query(ctx, searchDatasetsQuery, map[string]any{"input": input})
	return err
}

const updateDescriptionMutation = `
mutation updateDescription($input: DescriptionUpdateInput!) {
    updateDescription(input: $input)
}`

// UpdateDescription writes a description back to the catalog. A non-empty
// fieldPath targets that column; an empty fieldPath targets the dataset.
func (c *Client) UpdateDescription(ctx context.Context, datasetURN, fieldPath, description string) error {
	input := map[string]any{
		"description": description,
		"resourceUrn": datasetURN,
	}
	if fieldPath != "" {
		input["subResource"] = fieldPath
		input["subResourceType"] = "DATASET_FIELD"
	}

	data, err := c.query(ctx, updateDescriptionMutation, map[string]any{"input": input})
	if err != nil {
		return err
	}

	var result struct {
		UpdateDescription bool `json:"updateDescription"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("parse updateDescription result: %w", err)
	}
	if !result.UpdateDescription {
		return fmt.Errorf("catalog rejected description update for %s", datasetURN)
	}

	c.logger.Info("Updated description",
		zap.String("dataset", datasetURN),
		zap.String("field_path", fieldPath))
	return nil
}

const addTagMutation = `
mutation addTag($input: TagAssociationInput!) {
    addTag(input: $input)
}`

// AddTag associates a tag with a dataset or, when fieldPath is non-empty,
// with one of its columns. tagURN must be a full tag URN.
func (c *Client) AddTag(ctx context.Context, datasetURN, fieldPath, tagURN string) error {
	input := map[string]any{
		"tagUrn":      tagURN,
		"resourceUrn": datasetURN,
	}
	if fieldPath != "" {
		input["subResource"] = fieldPath
		input["subResourceType"] = "DATASET_FIELD"
	}

	data, err := c.query(ctx, addTagMutation, map[string]any{"input": input})
	if err != nil {
		return err
	}

	var result struct {
		AddTag bool `json:"addTag"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("parse addTag result: %w", err)
	}
	if !result.AddTag {
		return fmt.Errorf("catalog rejected tag %s for %s", tagURN, datasetURN)
	}

	c.logger.Info("Added tag",
		zap.String("dataset", datasetURN),
		zap.String("field_path", fieldPath),
		zap.String("tag", tagURN))
	return nil
}
