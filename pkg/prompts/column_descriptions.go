// Package prompts builds the natural-language prompts sent to inference
// backends. Builders are pure functions over catalog schema snapshots; the
// response-format sections must stay in sync with the envelope parsing in
// pkg/llm.
package prompts

import (
	"fmt"
	"strings"

	"github.com/synchrony-solutions/curation-enricher-ai/pkg/models"
)

// BuildColumnDescriptionPrompt creates the prompt for generating column
// descriptions. The expected answer is a flat JSON object mapping field
// paths to description strings.
func BuildColumnDescriptionPrompt(datasetName string, fields []models.SchemaField) string {
	var sb strings.Builder

	sb.WriteString("You are a data catalog documentation assistant. Your task is to generate clear,\n")
	sb.WriteString("concise descriptions for database columns based on their names and data types.\n\n")
	sb.WriteString(fmt.Sprintf("Dataset: %s\n\n", datasetName))
	sb.WriteString("Columns:\n")

	for _, f := range fields {
		sb.WriteString(fmt.Sprintf("- %s (%s)", f.FieldPath, f.NativeDataType))
		if !f.Nullable {
			sb.WriteString(" [NOT NULL]")
		}
		sb.WriteString("\n")
		if f.Description != "" {
			sb.WriteString(fmt.Sprintf("  Current description: %s\n", f.Description))
		}
	}

	sb.WriteString(`
Please provide a brief, informative description for each column. The description should:
1. Explain what the column represents in plain English
2. Include any business context you can infer from the name
3. Be 1-2 sentences maximum
4. Avoid repeating the column name verbatim
5. Focus on the purpose and content, not technical details

Format your response as a JSON object where keys are column names and values are descriptions:

{
  "column_name": "description",
  "another_column": "description"
}

Only include columns that need descriptions (skip those with good existing descriptions).`)

	return sb.String()
}
