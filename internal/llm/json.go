// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fencedBlockPattern matches markdown code fences with an optional
// language tag.
var fencedBlockPattern = regexp.MustCompile("(?s)```" + `(\w*)[ \t]*\n(.+?)\n[ \t]*` + "```")

// ExtractJSONObjects pulls every JSON object out of model output. Objects
// inside ```json fences (or untagged fences) are taken first; when no fence
// yields one, the raw text is scanned for brace-balanced candidates.
// Candidates that do not parse are skipped. Per prd004-workflow-execution R4.3.
func ExtractJSONObjects(text string) []map[string]any {
	var objects []map[string]any
	for _, match := range fencedBlockPattern.FindAllStringSubmatch(text, -1) {
		lang := strings.ToLower(match[1])
		if lang != "" && lang != "json" {
			continue
		}
		objects = append(objects, decodeObjects(strings.TrimSpace(match[2]))...)
	}
	if len(objects) > 0 {
		return objects
	}
	return decodeObjects(text)
}

// decodeObjects scans text for brace-balanced candidates and keeps the
// ones that parse as JSON objects.
func decodeObjects(text string) []map[string]any {
	var objects []map[string]any
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		candidate := matchBraces(text[i:])
		if candidate == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(candidate), &obj); err == nil {
			objects = append(objects, obj)
			i += len(candidate) - 1
		}
	}
	return objects
}

// matchBraces returns the prefix of s up to the brace balancing s[0], or ""
// when the braces never balance. Braces inside string literals are ignored.
func matchBraces(s string) string {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}
