package openfda

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "ibuprofen", "ibuprofen"},
		{"trims", "  advil  ", "advil"},
		{"escapes quotes", `say "hi"`, `say \"hi\"`},
		{"escapes backslash before quote", `a\"b`, `a\\\"b`},
		{"control chars become spaces", "a\x00b\x1fc", "a b c"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, EscapeValue(tt.in))
		})
	}
}

func TestQstr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"ibuprofen"`, Qstr("ibuprofen"))
	assert.Equal(t, `"say \"hi\""`, Qstr(`say "hi"`))
	assert.Equal(t, `""`, Qstr(""))
}

func TestQDigits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		minLen int
		maxLen int
		want   string
	}{
		{"strips non digits", "rxcui: 310965", 1, 16, "310965"},
		{"within bounds", "12345", 5, 5, "12345"},
		{"too short", "1234", 5, 10, ""},
		{"too long", "12345678901234567", 1, 16, ""},
		{"no digits", "abc", 1, 16, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, QDigits(tt.in, tt.minLen, tt.maxLen))
		})
	}
}
