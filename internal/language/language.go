// Package language normalizes user-supplied language hints into the primary
// subtags whisper models expect.
package language

import (
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Canonicalize reduces a language hint ("en", "eng", "en-US", "pt-BR") to its
// primary subtag. An empty hint stays empty, which means auto-detect.
func Canonicalize(hint string) (string, error) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return "", nil
	}
	tag, err := xlanguage.Parse(hint)
	if err != nil {
		return "", fmt.Errorf("unknown language %q", hint)
	}
	base, _ := tag.Base()
	return base.String(), nil
}

// DisplayName returns the English name for a language code, or the code
// itself when it cannot be resolved.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "auto"
	}
	tag, err := xlanguage.Parse(code)
	if err != nil {
		return code
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return code
	}
	return name
}
