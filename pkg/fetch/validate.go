package fetch

import (
	"regexp"
	"strings"

	"github.com/matzehuels/sourcedeps/pkg/scan"
)

var scriptRe = regexp.MustCompile(
	`\b(?:function|var|let|const|class|import|export)\b|=>|\bmodule\.exports\b|\bdefine\s*\(|["']use strict["']`,
)

// LooksLikeScript reports whether prefix resembles script source rather
// than an error page or placeholder. Markup is always rejected.
func LooksLikeScript(prefix string) bool {
	trimmed := strings.TrimLeft(prefix, "\ufeff \t\r\n")
	if trimmed == "" || strings.HasPrefix(trimmed, "<") {
		return false
	}
	return scriptRe.MatchString(prefix)
}

// ValidFile reports whether the first n bytes of the file at path pass
// [LooksLikeScript].
func ValidFile(path string, n int) (bool, error) {
	prefix, err := scan.ReadPrefix(path, n)
	if err != nil {
		return false, err
	}
	return LooksLikeScript(prefix), nil
}
