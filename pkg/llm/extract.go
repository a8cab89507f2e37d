package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// extractionPreviewLimit bounds the response preview carried by an
// ExtractionError so failed responses cannot bloat error payloads or logs.
const extractionPreviewLimit = 200

// fencePattern matches a markdown code fence with an optional json tag.
var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// ExtractionError means no parseable JSON could be recovered from a model
// response. Callers treat it as "no suggestions from this task", never as
// fatal.
type ExtractionError struct {
	Preview string // Truncated copy of the original response
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("could not extract JSON from response: %s", e.Preview)
}

// ExtractJSON recovers the JSON value a model embedded in free-form text.
// Models reliably violate "return only JSON" instructions by adding prose,
// headers, or markdown fences around the value. Strategies are tried in
// order, first success wins:
//
//  1. the whole trimmed response is valid JSON;
//  2. a fenced code block whose interior is valid JSON;
//  3. a bracket scan from the first '{' or '[', tracking nesting depth
//     until the structure balances, then the other bracket kind.
//
// Single-quoted and trailing-comma variants are deliberately not recovered;
// they fail extraction rather than risk guessing at the model's intent.
func ExtractJSON(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	if m := fencePattern.FindStringSubmatch(text); m != nil {
		inner := strings.TrimSpace(m[1])
		if json.Valid([]byte(inner)) {
			return inner, nil
		}
	}

	objStart := strings.IndexByte(text, '{')
	arrStart := strings.IndexByte(text, '[')

	objFirst := objStart >= 0 && (arrStart < 0 || objStart < arrStart)
	if objFirst {
		if s, ok := scanBalanced(text, '{', '}'); ok && json.Valid([]byte(s)) {
			return s, nil
		}
		if s, ok := scanBalanced(text, '[', ']'); ok && json.Valid([]byte(s)) {
			return s, nil
		}
	} else {
		if s, ok := scanBalanced(text, '[', ']'); ok && json.Valid([]byte(s)) {
			return s, nil
		}
		if s, ok := scanBalanced(text, '{', '}'); ok && json.Valid([]byte(s)) {
			return s, nil
		}
	}

	return "", &ExtractionError{Preview: truncate(text, extractionPreviewLimit)}
}

// scanBalanced captures the first balanced structure opened by openChar,
// counting bracket depth while skipping string literals and escapes.
func scanBalanced(s string, openChar, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

// ParseJSONResponse extracts JSON from a model response and unmarshals it
// into T.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("unmarshal extracted JSON: %w", err)
	}

	return result, nil
}

// truncate shortens s to at most limit bytes, backing up to a rune boundary
// so the preview stays valid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
