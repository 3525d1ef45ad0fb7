package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parsePlanJSON extracts and parses the plan object from a model response
// that may wrap the JSON in surrounding prose or a code fence.
func parsePlanJSON(response string) (*Plan, error) {
	var plan Plan
	if err := json.Unmarshal([]byte(response), &plan); err == nil {
		return &plan, nil
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	depth := 0
	end := -1
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
				end = i + 1
			}
		}
		if end != -1 {
			break
		}
	}
	if end == -1 {
		return nil, fmt.Errorf("no matching closing brace found")
	}

	if err := json.Unmarshal([]byte(response[start:end]), &plan); err != nil {
		return nil, fmt.Errorf("failed to parse extracted JSON: %w", err)
	}
	return &plan, nil
}
