package language_test

import (
	"testing"

	"github.com/hirelala/audio2vtt/internal/language"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		hint string
		want string
	}{
		{"", ""},
		{"en", "en"},
		{"  en  ", "en"},
		{"en-US", "en"},
		{"eng", "en"},
		{"pt-BR", "pt"},
		{"ja", "ja"},
	}
	for _, tc := range cases {
		got, err := language.Canonicalize(tc.hint)
		if err != nil {
			t.Fatalf("Canonicalize(%q) failed: %v", tc.hint, err)
		}
		if got != tc.want {
			t.Fatalf("Canonicalize(%q) = %q, want %q", tc.hint, got, tc.want)
		}
	}
}

func TestCanonicalizeRejectsGarbage(t *testing.T) {
	if _, err := language.Canonicalize("not a language!"); err == nil {
		t.Fatal("expected error for invalid hint")
	}
}

func TestDisplayName(t *testing.T) {
	if got := language.DisplayName("en"); got != "English" {
		t.Fatalf("DisplayName(en) = %q", got)
	}
	if got := language.DisplayName(""); got != "auto" {
		t.Fatalf("DisplayName(\"\") = %q", got)
	}
}
