package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON decodes the expected JSON object from a completion. Models
// frequently wrap the object in prose or markdown fences, so a direct
// parse is tried first and then the first balanced {...} region is
// extracted. The result is decoded into v.
func ExtractJSON(text string, v interface{}) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("empty completion")
	}

	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}

	blob, ok := firstBalancedObject(text)
	if !ok {
		return fmt.Errorf("no JSON object found in completion")
	}

	if err := json.Unmarshal([]byte(blob), v); err != nil {
		return fmt.Errorf("decode extracted JSON: %w", err)
	}
	return nil
}

// firstBalancedObject returns the first {...} region with balanced
// braces, ignoring braces inside JSON string literals.
func firstBalancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

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
				return text[start : i+1], true
			}
		}
	}

	return "", false
}
