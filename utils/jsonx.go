package utils

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json)?(.*?)```")

// CleanJSONResponse strips markdown code fences the model tends to wrap its
// JSON in.
func CleanJSONResponse(response string) string {
	cleaned := fenceRe.ReplaceAllString(response, "$1")
	return strings.TrimSpace(cleaned)
}

// ExtractJSONSpan returns the first balanced {...} or [...] span in s,
// ignoring braces inside JSON strings. Returns "" when no balanced span
// exists.
func ExtractJSONSpan(s string) string {
	start := -1
	for i, r := range s {
		if r == '{' || r == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	open := s[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// DecodeLooseJSON parses a model response that should contain one JSON object
// or array, tolerating surrounding prose and markdown fencing.
func DecodeLooseJSON(response string, v interface{}) error {
	span := ExtractJSONSpan(CleanJSONResponse(response))
	if span == "" {
		return errors.New("no JSON object or array found in response")
	}
	return json.Unmarshal([]byte(span), v)
}
