package envelope

import (
	"encoding/json"
	"strings"
)

const EmptyResponseMessage = "empty response"

// Outcome is the decoded form of a response body. Exactly one of Value or
// Message is meaningful, selected by Success.
type Outcome struct {
	Success bool
	Value   any
	Message string
}

var successPaths = [][]string{
	{"result", "data", "json"},
	{"json"},
	{"result", "data"},
}

var errorPaths = [][]string{
	{"error", "json", "message"},
	{"error", "message"},
	{"error", "data", "message"},
	{"message"},
}

// Decode never fails. A body that carries none of the known success paths
// yields the best error message found, the trimmed raw text, or
// EmptyResponseMessage.
func Decode(format Format, body []byte) Outcome {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return Outcome{Message: EmptyResponseMessage}
	}

	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return Outcome{Message: text}
	}

	if items, ok := parsed.([]any); ok {
		if format != FormatBatch || len(items) == 0 {
			return Outcome{Message: text}
		}
		parsed = items[0]
	}

	object, ok := parsed.(map[string]any)
	if !ok {
		return Outcome{Message: text}
	}
	for _, path := range successPaths {
		if value, found := lookup(object, path); found {
			return Outcome{Success: true, Value: value}
		}
	}
	if message := ErrorMessage(object); message != "" {
		return Outcome{Message: message}
	}
	return Outcome{Message: text}
}

// ErrorMessage returns the first non-empty message found on the known error
// paths of a decoded body.
func ErrorMessage(object map[string]any) string {
	for _, path := range errorPaths {
		value, found := lookup(object, path)
		if !found {
			continue
		}
		if message, ok := value.(string); ok && strings.TrimSpace(message) != "" {
			return strings.TrimSpace(message)
		}
	}
	return ""
}

// lookup walks path through nested objects. A key present with a null value
// counts as found.
func lookup(object map[string]any, path []string) (any, bool) {
	var current any = object
	for _, key := range path {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
