package logging

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maxLoggedString bounds string values in logged arguments; text frame content
// can be arbitrarily long.
const maxLoggedString = 200

var secretKeys = map[string]bool{
	"api_key":       true,
	"apikey":        true,
	"authorization": true,
	"password":      true,
	"token":         true,
	"secret":        true,
}

// RedactValue masks all but the last four characters of value.
func RedactValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return "****"
	}
	return "****" + trimmed[len(trimmed)-4:]
}

// RedactAny returns a copy of value safe for logging: secret keys are masked
// and long strings are truncated.
func RedactAny(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, val := range typed {
			if isSecretKey(key) {
				out[key] = RedactValue(fmt.Sprint(val))
				continue
			}
			out[key] = RedactAny(val)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, val := range typed {
			out[i] = RedactAny(val)
		}
		return out
	case string:
		return truncate(typed)
	default:
		return value
	}
}

// RedactJSON decodes raw and redacts it. Undecodable input is truncated.
func RedactJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return truncate(strings.TrimSpace(string(raw)))
	}
	return RedactAny(payload)
}

func isSecretKey(key string) bool {
	return secretKeys[strings.ToLower(strings.TrimSpace(key))]
}

func truncate(s string) string {
	if len(s) <= maxLoggedString {
		return s
	}
	return fmt.Sprintf("%s…(%d bytes)", s[:maxLoggedString], len(s))
}
