package prompts

import (
	"fmt"
	"strings"

	"github.com/synchrony-solutions/curation-enricher-ai/pkg/models"
)

// tagPromptColumnLimit caps how many column names are shown in the tag
// prompt; a sample is enough to characterize the dataset.
const tagPromptColumnLimit = 20

// BuildTagSuggestionPrompt creates the prompt for suggesting dataset-level
// tags. The expected answer is a suggested_tags envelope.
func BuildTagSuggestionPrompt(datasetName, datasetDescription string, fields []models.SchemaField) string {
	names := make([]string, 0, len(fields))
	for i, f := range fields {
		if i >= tagPromptColumnLimit {
			break
		}
		names = append(names, f.FieldPath)
	}
	columnsText := strings.Join(names, ", ")
	if len(fields) > tagPromptColumnLimit {
		columnsText += fmt.Sprintf(", ... and %d more", len(fields)-tagPromptColumnLimit)
	}

	descText := datasetDescription
	if descText == "" {
		descText = "No description provided"
	}

	var sb strings.Builder
	sb.WriteString("You are a data governance expert helping to classify and tag datasets in a data catalog.\n\n")
	sb.WriteString(fmt.Sprintf("Dataset: %s\n", datasetName))
	sb.WriteString(fmt.Sprintf("Description: %s\n", descText))
	sb.WriteString(fmt.Sprintf("Sample Columns: %s\n", columnsText))

	sb.WriteString(`
Based on the dataset name, description, and column structure, suggest relevant tags that would help
users discover and understand this dataset.

Consider these tag categories:

1. **Domain/Subject**: What business area does this relate to?
   Examples: finance, marketing, sales, hr, operations, customer_data

2. **Data Type/Format**: What kind of data is this?
   Examples: transactional, analytical, reference_data, time_series, dimensional

3. **Sensitivity**: What's the sensitivity level?
   Examples: public, internal, confidential, restricted

4. **Quality/Status**: What's the data quality or maturity?
   Examples: production, staging, raw, curated, deprecated

5. **Source System**: Where does this data come from?
   Examples: crm, erp, warehouse, api, third_party

6. **Use Case**: How is this data typically used?
   Examples: reporting, ml_training, analytics, compliance, audit

Guidelines:
- Suggest 3-7 tags maximum
- Use lowercase with underscores (e.g., customer_data)
- Be specific but not overly detailed
- Focus on tags that aid discovery and governance
- Avoid redundant tags

Format your response as a JSON object:

{
  "suggested_tags": [
    {
      "tag": "tag_name",
      "category": "domain|data_type|sensitivity|quality|source|use_case",
      "confidence": "high|medium|low",
      "reason": "Brief explanation"
    }
  ]
}`)

	return sb.String()
}
