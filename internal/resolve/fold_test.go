package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Ibuprofen", "ibuprofen"},
		{"trims", "  advil  ", "advil"},
		{"collapses whitespace", "acetaminophen \t and\n codeine", "acetaminophen and codeine"},
		{"empty", "", ""},
		{"only whitespace", " \t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestFoldAlnum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips punctuation", "Doxorubicin (Adriamycin)", "doxorubicin adriamycin"},
		{"hyphenated", "medroxyPROGESTERone-acetate", "medroxyprogesterone acetate"},
		{"digits kept", "Interferon alfa-2b", "interferon alfa 2b"},
		{"already clean", "warfarin", "warfarin"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FoldAlnum(tt.in))
		})
	}
}
