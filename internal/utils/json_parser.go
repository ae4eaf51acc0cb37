package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fencedJSON     = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")
	trailingCommas = regexp.MustCompile(`,\s*([}\]])`)
	controlChars   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
)

// ParseLenientJSON decodes JSON that may have been relayed from a language
// model by the backend. It accepts:
// - Pure JSON
// - JSON wrapped in markdown code fences
// - JSON embedded in surrounding prose
// - JSON with trailing commas or stray control characters
func ParseLenientJSON(input []byte, target interface{}) error {
	s := strings.TrimSpace(strings.TrimPrefix(string(input), "\ufeff"))
	if s == "" {
		return fmt.Errorf("empty input")
	}

	if err := json.Unmarshal([]byte(s), target); err == nil {
		return nil
	}

	candidates := []string{}
	if m := fencedJSON.FindStringSubmatch(s); len(m) > 1 {
		candidates = append(candidates, m[1])
	}
	if start := strings.IndexByte(s, '{'); start >= 0 {
		if obj := balancedObject(s[start:]); obj != "" {
			candidates = append(candidates, obj)
		}
	}

	for _, c := range candidates {
		if err := json.Unmarshal([]byte(c), target); err == nil {
			return nil
		}
		if err := json.Unmarshal([]byte(cleanJSON(c)), target); err == nil {
			return nil
		}
	}

	if err := json.Unmarshal([]byte(cleanJSON(s)), target); err == nil {
		return nil
	}

	return fmt.Errorf("failed to parse JSON from input: %s", truncate(s, 100))
}

// balancedObject returns the first brace-balanced object at the start of
// input, honoring string literals and escapes.
func balancedObject(input string) string {
	depth := 0
	inString := false
	escape := false

	for i, ch := range input {
		switch {
		case escape:
			escape = false
		case ch == '\\' && inString:
			escape = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return input[:i+1]
			}
		}
	}
	return ""
}

func cleanJSON(s string) string {
	s = trailingCommas.ReplaceAllString(s, "$1")
	return controlChars.ReplaceAllString(s, "")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// StringList reads a JSON value that may be a string, a comma separated
// string, an array of strings or null. Empty entries are dropped.
func StringList(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return SplitList(single, ",")
	}

	var many []interface{}
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil
	}
	items := make([]string, 0, len(many))
	for _, v := range many {
		switch t := v.(type) {
		case string:
			items = append(items, t)
		case float64:
			items = append(items, FormatNumber(t))
		}
	}
	return Dedupe(items)
}

// NumberField reads a JSON number or numeric string. Anything else, including
// negative values, yields nil.
func NumberField(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 {
			return nil
		}
		return &n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseNonNegativeFloat(s)
	}
	return nil
}

// IntField is NumberField restricted to whole numbers.
func IntField(raw json.RawMessage) *int {
	n := NumberField(raw)
	if n == nil || *n != float64(int(*n)) {
		return nil
	}
	v := int(*n)
	return &v
}
