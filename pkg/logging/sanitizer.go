package logging

import (
	"regexp"
)

// RedactedText replaces sensitive data in log output.
const RedactedText = "[REDACTED]"

var (
	// Bearer tokens (catalog personal access tokens are JWT-shaped).
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_]+(\.[A-Za-z0-9-_]+)*`)

	// API keys passed in query strings or error payloads.
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|x-api-key)[=:]\s*[A-Za-z0-9-_]{16,}`)

	// Credentials embedded in URLs (user:pass@host).
	urlCredsPattern = regexp.MustCompile(`://[^:/\s]+:[^@/\s]+@`)
)

// SanitizeError strips bearer tokens, API keys, and URL-embedded credentials
// from an error message before it is logged. HTTP client errors echo the
// request URL and headers, which may carry the catalog token or backend key.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return Sanitize(err.Error())
}

// Sanitize applies the redaction patterns to an arbitrary string.
func Sanitize(s string) string {
	s = bearerPattern.ReplaceAllString(s, "Bearer "+RedactedText)
	s = apiKeyPattern.ReplaceAllString(s, "${1}="+RedactedText)
	s = urlCredsPattern.ReplaceAllString(s, "://"+RedactedText+"@")
	return s
}
