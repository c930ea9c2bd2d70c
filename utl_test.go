package pulso

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func Test_smartTrim(t *testing.T) {
	tt := []struct {
		name  string
		given string
		want  string
	}{
		{"plain", "hola", "hola"},
		{"collapses_spaces", "hola   mundo", "hola mundo"},
		{"trims_edges", "  hola mundo  ", "hola mundo"},
		{"keeps_single_linebreak", "hola\nmundo", "hola\nmundo"},
		{"collapses_linebreaks", "hola\n\n\nmundo", "hola\nmundo"},
		{"drops_blank_lines", "hola\n   \nmundo", "hola\nmundo"},
		{"empty", "   ", ""},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, smartTrim(tc.given))
		})
	}
}
