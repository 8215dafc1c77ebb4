package genai

import "testing"

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"intent":"question"}`, `{"intent":"question"}`},
		{"```json\n{\"intent\":\"question\"}\n```", `{"intent":"question"}`},
		{"```\n[]\n```", `[]`},
		{"  {\"subject\":\"hi\"}  ", `{"subject":"hi"}`},
	}
	for _, tc := range tests {
		if got := stripFences(tc.in); got != tc.want {
			t.Errorf("stripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	if _, err := NewOpenAIClient("", "gpt-4o-mini"); err == nil {
		t.Error("expected error for empty API key")
	}
	if _, err := NewOpenAIClient("sk-test", "gpt-4o-mini"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
