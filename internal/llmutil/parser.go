// internal/llmutil/parser.go
package llmutil

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	// Regex definitions use \x60 for backticks because Go raw strings cannot contain backticks.

	// jsonObjectRegex extracts a JSON object wrapped in a markdown code block.
	jsonObjectRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*({.*})\\s*\x60\x60\x60")
	// jsonArrayRegex extracts a JSON array wrapped in a markdown code block.
	jsonArrayRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*(\\[.*\\])\\s*\x60\x60\x60")
)

// ParseJSONResponse parses an LLM response into a target Go type, tolerating
// the common formatting quirks: markdown code fences and conversational text
// surrounding the JSON payload.
func ParseJSONResponse[T any](response string) (*T, error) {
	response = strings.TrimSpace(response)
	jsonStringToParse := response

	isObject := strings.Contains(response, "{")
	isArray := strings.Contains(response, "[")

	if strings.HasPrefix(response, "```") {
		// Markdown wrapping, the most common case.
		var matches []string
		if isObject {
			matches = jsonObjectRegex.FindStringSubmatch(response)
		}
		if len(matches) <= 1 && isArray {
			matches = jsonArrayRegex.FindStringSubmatch(response)
		}
		if len(matches) > 1 {
			jsonStringToParse = matches[1]
		}
	} else if (isObject || isArray) && (!strings.HasPrefix(response, "{") && !strings.HasPrefix(response, "[")) {
		// JSON embedded in conversational text: take the widest bracket span.
		// The span opening first encloses the other (an array of objects must
		// win over the object inside it).
		objSpan, objOK := bracketSpan(response, "{", "}")
		arrSpan, arrOK := bracketSpan(response, "[", "]")
		switch {
		case objOK && arrOK:
			if strings.Index(response, "[") < strings.Index(response, "{") {
				jsonStringToParse = arrSpan
			} else {
				jsonStringToParse = objSpan
			}
		case objOK:
			jsonStringToParse = objSpan
		case arrOK:
			jsonStringToParse = arrSpan
		}
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStringToParse), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal LLM JSON response: %w. Extracted JSON (truncated): %s", err, truncateString(jsonStringToParse, 500))
	}

	return &result, nil
}

// bracketSpan returns the substring from the first open bracket to the last
// close bracket, if such a span exists.
func bracketSpan(s, open, close string) (string, bool) {
	first := strings.Index(s, open)
	last := strings.LastIndex(s, close)
	if first == -1 || last == -1 || last <= first {
		return "", false
	}
	return s[first : last+1], true
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
