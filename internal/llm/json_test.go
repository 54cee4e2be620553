// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"reflect"
	"testing"
)

func TestExtractJSONObjects(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []map[string]any
	}{
		{
			"fenced json block",
			"Let me check the price.\n```json\n{\"tool\": \"market.quote\", \"args\": {\"symbol\": \"AAPL\"}}\n```\n",
			[]map[string]any{{"tool": "market.quote", "args": map[string]any{"symbol": "AAPL"}}},
		},
		{
			"untagged fence",
			"```\n{\"answer\": \"done\"}\n```",
			[]map[string]any{{"answer": "done"}},
		},
		{
			"raw object in prose",
			"I will call {\"tool\": \"market.history\", \"args\": {\"days\": 30}} next.",
			[]map[string]any{{"tool": "market.history", "args": map[string]any{"days": float64(30)}}},
		},
		{
			"braces inside string values",
			"{\"note\": \"a } inside\", \"n\": 2}",
			[]map[string]any{{"note": "a } inside", "n": float64(2)}},
		},
		{
			"multiple raw objects in order",
			"{\"a\": 1} and then {\"b\": 2}",
			[]map[string]any{{"a": float64(1)}, {"b": float64(2)}},
		},
		{
			"fence wins over stray raw object",
			"```json\n{\"tool\": \"quote\"}\n```\nignore {\"tool\": \"history\"}",
			[]map[string]any{{"tool": "quote"}},
		},
		{
			"invalid outer braces, valid inner object",
			"result {bad {\"tool\": \"regime\"} }",
			[]map[string]any{{"tool": "regime"}},
		},
		{
			"no json at all",
			"The trend looks bullish overall.",
			nil,
		},
		{
			"unbalanced braces",
			"{\"tool\": \"quote\"",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSONObjects(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractJSONObjects() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
