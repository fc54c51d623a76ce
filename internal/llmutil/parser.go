// internal/llmutil/parser.go
package llmutil

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Regex uses \x60 for backticks because Go raw strings cannot contain them.
// fenceRegex extracts the payload of a markdown code fence, json-tagged or not.
var fenceRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*(.*?)\\s*\x60\x60\x60")

// ExtractJSONObject returns the first balanced JSON object found in an LLM
// response, tolerating markdown fences and surrounding conversational text.
// The second return value is false when no balanced object exists.
func ExtractJSONObject(response string) (string, bool) {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```") {
		if m := fenceRegex.FindStringSubmatch(response); len(m) > 1 {
			response = m[1]
		}
	}

	start := strings.Index(response, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		c := response[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return response[start : i+1], true
			}
		}
	}
	return "", false
}

// ParseJSONResponse extracts the first balanced JSON object from an LLM
// response and unmarshals it into T.
func ParseJSONResponse[T any](response string) (*T, error) {
	raw, ok := ExtractJSONObject(response)
	if !ok {
		return nil, fmt.Errorf("no balanced JSON object found in response (truncated): %s", truncate(response, 200))
	}

	var result T
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal LLM JSON response: %w. Extracted JSON (truncated): %s", err, truncate(raw, 500))
	}
	return &result, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
