package llm

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/synchrony-solutions/curation-enricher-ai/pkg/jsonutil"
)

// Expected response envelopes. Backends share these projections so that a
// model answer is interpreted identically regardless of transport; no state
// is shared, only the parsing.

// piiEnvelope is the expected shape for sensitive-column detection.
type piiEnvelope struct {
	PIIColumns []piiFinding `json:"pii_columns"`
}

type piiFinding struct {
	FieldPath  string `json:"field_path"`
	PIIType    string `json:"pii_type"`
	Confidence string `json:"confidence"`
	Reason     string `json:"reason"`
}

// tagEnvelope is the expected shape for tag suggestion.
type tagEnvelope struct {
	SuggestedTags []tagFinding `json:"suggested_tags"`
}

type tagFinding struct {
	Tag        string `json:"tag"`
	Category   string `json:"category"`
	Confidence string `json:"confidence"`
	Reason     string `json:"reason"`
}

// projectDescriptions interprets a response as a flat field-path to
// description mapping. Anything else yields the empty map.
func projectDescriptions(logger *zap.Logger, datasetName, response string) map[string]string {
	jsonStr, err := ExtractJSON(response)
	if err != nil {
		logger.Warn("Failed to extract column descriptions",
			zap.String("dataset", datasetName),
			zap.Error(err))
		return map[string]string{}
	}

	// Values decoded flexibly: models sometimes emit numbers or booleans
	// where a string was requested.
	descriptions, err := jsonutil.FlexibleStringMap([]byte(jsonStr))
	if err != nil {
		logger.Warn("Column description response was not an object",
			zap.String("dataset", datasetName),
			zap.Error(err))
		return map[string]string{}
	}

	return descriptions
}

// projectPIIColumns interprets a response as a pii_columns envelope and
// keeps only findings with high or medium confidence. Anything else yields
// the empty list.
func projectPIIColumns(logger *zap.Logger, datasetName, response string) []string {
	parsed, err := ParseJSONResponse[piiEnvelope](response)
	if err != nil || parsed.PIIColumns == nil {
		logger.Warn("Failed to parse PII detection response",
			zap.String("dataset", datasetName),
			zap.Error(err))
		return []string{}
	}

	fields := make([]string, 0, len(parsed.PIIColumns))
	for _, finding := range parsed.PIIColumns {
		if finding.FieldPath == "" {
			continue
		}
		if finding.Confidence == "high" || finding.Confidence == "medium" {
			fields = append(fields, finding.FieldPath)
		}
	}
	return fields
}

// projectTags interprets a response as a suggested_tags envelope. Anything
// else yields the empty list.
func projectTags(logger *zap.Logger, datasetName, response string) []string {
	parsed, err := ParseJSONResponse[tagEnvelope](response)
	if err != nil || parsed.SuggestedTags == nil {
		logger.Warn("Failed to parse tag suggestion response",
			zap.String("dataset", datasetName),
			zap.Error(err))
		return []string{}
	}

	tags := make([]string, 0, len(parsed.SuggestedTags))
	for _, finding := range parsed.SuggestedTags {
		if finding.Tag != "" {
			tags = append(tags, finding.Tag)
		}
	}
	return tags
}

// cliEnvelope is the transport framing emitted by the local CLI in JSON
// output mode: an object whose result field holds the answer text.
type cliEnvelope struct {
	Result *string `json:"result"`
}

// unwrapCLIEnvelope extracts the answer text from the CLI's JSON framing.
// Raw, unframed output is used directly: the transport must tolerate both.
func unwrapCLIEnvelope(stdout string) string {
	var env cliEnvelope
	if err := json.Unmarshal([]byte(stdout), &env); err == nil && env.Result != nil {
		return *env.Result
	}
	return stdout
}
