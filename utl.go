package pulso

import (
	"regexp"
	"strings"
)

var (
	reMultiSpace          = regexp.MustCompile(`(\s)+`)
	reMoreThan2Linebreaks = regexp.MustCompile(`(\n){2,}`)
)

// smartTrim collapses runs of whitespace while respecting single line breaks.
func smartTrim(s string) string {
	var out []string
	for _, line := range strings.Split(reMoreThan2Linebreaks.ReplaceAllString(s, "\n"), "\n") {
		line = strings.TrimSpace(reMultiSpace.ReplaceAllString(line, "$1"))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func ptr[T any](v T) *T { return &v }
