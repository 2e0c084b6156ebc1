package oracle

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/liliang-cn/docflow/internal/domain"
)

// ParseRecord reads a flat JSON object out of raw oracle text.
// Code fences and surrounding prose are ignored; scalars are stringified and
// null becomes "". Nested objects and arrays are kept as their raw JSON.
func ParseRecord(raw string) (domain.Record, bool) {
	block := extractObject(stripCodeFences(raw))
	if block == "" || !gjson.Valid(block) {
		return nil, false
	}
	parsed := gjson.Parse(block)
	if !parsed.IsObject() {
		return nil, false
	}

	rec := domain.Record{}
	parsed.ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.Null:
			rec[key.String()] = ""
		case gjson.JSON:
			rec[key.String()] = value.Raw
		default:
			rec[key.String()] = strings.TrimSpace(value.String())
		}
		return true
	})
	return rec, true
}

func stripCodeFences(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// extractObject finds the first balanced { ... } block in the text.
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
