package parser

import "testing"

func TestNormalizeLineEndings(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"a\r\nb", "a\nb"},
		{"a\rb", "a\nb"},
		{"a\nb", "a\nb"},
		{"a`nb", "a\nb"},
		{"", ""},
		{"no breaks", "no breaks"},
		{"a\r\n\r\nb", "a\n\nb"},
		{"a\n\rb", "a\n\nb"},
		{"tick ` alone", "tick ` alone"},
		{"line1`nline2\r\nline3\rline4", "line1\nline2\nline3\nline4"},
		{"\t$1,000  ", "\t$1,000  "},
	}

	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"a\r\nb\rc\nd`ne",
		"``nn",
		"`\r\n",
		"\r\r\n\n",
		"ends with backtick `",
	}

	for _, s := range inputs {
		once := Normalize(s)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", s, once, twice)
		}
	}
}
