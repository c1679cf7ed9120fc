package cli

import "testing"

func TestSanitizeForTerminal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text", input: "hello world", want: "hello world"},
		{name: "keeps tabs and newlines", input: "a\tb\nc", want: "a\tb\nc"},
		{name: "strips escape sequences", input: "a\x1b[31mred", want: "a[31mred"},
		{name: "strips skin tone modifier", input: "ok \U0001F44D\U0001F3FD", want: "ok \U0001F44D"},
		{name: "strips zero-width joiner", input: "a\u200db", want: "ab"},
		{name: "strips variation selector", input: "\u2764\ufe0f", want: "\u2764"},
		{name: "empty string", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeForTerminal(tt.input); got != tt.want {
				t.Errorf("sanitizeForTerminal(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
