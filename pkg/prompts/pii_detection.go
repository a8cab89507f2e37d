package prompts

import (
	"fmt"
	"strings"

	"github.com/synchrony-solutions/curation-enricher-ai/pkg/models"
)

// BuildPIIDetectionPrompt creates the prompt for detecting sensitive
// columns. The expected answer is a pii_columns envelope with per-column
// confidence levels.
func BuildPIIDetectionPrompt(datasetName string, fields []models.SchemaField) string {
	var sb strings.Builder

	sb.WriteString("You are a data privacy and security expert. Your task is to identify columns that\n")
	sb.WriteString("may contain Personally Identifiable Information (PII) or other sensitive data.\n\n")
	sb.WriteString(fmt.Sprintf("Dataset: %s\n\n", datasetName))
	sb.WriteString("Columns:\n")

	for _, f := range fields {
		sb.WriteString(fmt.Sprintf("- %s (%s)\n", f.FieldPath, f.NativeDataType))
		if f.Description != "" {
			sb.WriteString(fmt.Sprintf("  Description: %s\n", f.Description))
		}
	}

	sb.WriteString(`
Analyze each column and identify those that may contain:

1. **Direct PII**: Names, email addresses, phone numbers, SSN, passport numbers, etc.
2. **Indirect PII**: Birth dates, zip codes, IP addresses, device IDs, etc.
3. **Sensitive Data**: Health information, financial data, credentials, etc.
4. **Identifiers**: User IDs, customer IDs, account numbers (if they could identify individuals)

Consider:
- Column names and their semantic meaning
- Data types (strings often hold PII)
- Common naming patterns (e.g., email, phone, ssn, dob)
- Business context inferred from the dataset name

Format your response as a JSON object:

{
  "pii_columns": [
    {
      "field_path": "column_name",
      "pii_type": "email|phone|ssn|name|etc",
      "confidence": "high|medium|low",
      "reason": "Brief explanation"
    }
  ]
}

Only include columns where you have at least medium confidence that they contain PII or sensitive data.`)

	return sb.String()
}
