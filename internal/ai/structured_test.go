package ai

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"bare array", `[{"subject":"Maths"}]`, `[{"subject":"Maths"}]`},
		{"json fence", "```json\n{\"days\": []}\n```", `{"days": []}`},
		{"plain fence", "```\n[1, 2]\n```", `[1, 2]`},
		{"prose around", "Here is your plan:\n{\"x\": \"}\"}\nGood luck!", `{"x": "}"}`},
		{"array before object", `noise [{"a": {"b": 2}}] tail {"c":3}`, `[{"a": {"b": 2}}]`},
		{"escaped quote", `{"q": "say \"hi\" {"}`, `{"q": "say \"hi\" {"}`},
		{"line comment", "{\n\"a\": 1 // one\n}", "{\n\"a\": 1 \n}"},
		{"block comment", `{"a": /* note */ 1}`, `{"a":  1}`},
		{"slashes in string", `{"url": "https://x.y/z"}`, `{"url": "https://x.y/z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.raw)
			if err != nil {
				t.Fatalf("ExtractJSON() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSON_Invalid(t *testing.T) {
	tests := []string{
		"",
		"no json at all",
		`{"unterminated": [1, 2}`,
		`{"a": 1,}`,
		`{"a": 1`,
	}
	for _, raw := range tests {
		_, err := ExtractJSON(raw)
		if !errors.Is(err, ErrInvalidOutput) {
			t.Errorf("ExtractJSON(%q) error = %v, want ErrInvalidOutput", raw, err)
		}
	}
}
