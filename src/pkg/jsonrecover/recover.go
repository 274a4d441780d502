// Package jsonrecover implements C5: extracting the first valid JSON object
// from free-form LLM output, whether fenced in a markdown code block,
// embedded among surrounding prose, or the whole trimmed body. It is total
// and pure — grounded on the brace-span recovery
// (original_source/backend/app/services/extraction_service.py's
// `re.search(r'\{[\s\S]*\}', raw)`), generalized into the three-tier
// cascade this spec names.
package jsonrecover

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlockRegexp = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)```")

// Parse attempts, in order: (a) the content of the first triple-backtick
// fenced block (optionally labeled json); (b) the substring from the first
// '{' through the last '}' inclusive; (c) the whole trimmed body. It
// returns the first candidate that parses as a JSON object, or ok=false if
// none does.
func Parse(raw string) (value map[string]any, ok bool) {
	candidates := candidates(raw)
	for _, candidate := range candidates {
		trimmed := strings.TrimSpace(candidate)
		if trimmed == "" {
			continue
		}
		var parsed map[string]any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
			return parsed, true
		}
	}
	return nil, false
}

func candidates(raw string) []string {
	var out []string

	if m := fencedBlockRegexp.FindStringSubmatch(raw); m != nil {
		out = append(out, m[1])
	}

	if start := strings.IndexByte(raw, '{'); start >= 0 {
		if end := strings.LastIndexByte(raw, '}'); end >= start {
			out = append(out, raw[start:end+1])
		}
	}

	out = append(out, raw)

	return out
}
