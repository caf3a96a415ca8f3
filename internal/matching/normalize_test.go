package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"blank", "   \t ", ""},
		{"separators", "LED-Wall  System", "led wall system"},
		{"slashes and underscores", "audio/visual_system", "audio visual system"},
		{"punctuation", "ISO 27001:2013!", "iso 270012013"},
		{"unicode letters kept", "Café Müller", "café müller"},
		{"devanagari kept", "सरकार विभाग", "सरकार विभाग"},
		{"punctuation between words", "a . b", "a b"},
		{"no-break space", "LED\u00a0Wall", "led wall"},
		{"em space", "Audio\u2003Visual", "audio visual"},
		{"vertical tab and next line", "a\vb\u0085c", "a b c"},
		{"ideographic space run", "museum\u3000\u00a0 gallery", "museum gallery"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_CaseAndWhitespaceInsensitive(t *testing.T) {
	assert.Equal(t, Normalize("led wall system"), Normalize("LED-Wall  System"))
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, in := range []string{
		"LED-Wall  System", " a . b ", "Audio/Visual -- Equipment", "ISO 9001:2015", "x__y//z", "LED\u00a0\u2003Wall", "",
	} {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeAll_DropsBlanks(t *testing.T) {
	assert.Equal(t, []string{"java", "it services"}, normalizeAll([]string{"Java", " ", "", "IT-Services"}))
}
