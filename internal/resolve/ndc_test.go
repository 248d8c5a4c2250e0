package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rxindex/medinfo-cli/internal/model"
)

func TestNormalizeNDC_Canonical11Digits(t *testing.T) {
	t.Parallel()

	norm := NormalizeNDC("00573015002")

	assert.Equal(t, "00573015002", norm.NDC11)
	assert.Equal(t, "00573015002", norm.Digits)
	assert.Empty(t, norm.Candidates)
}

func TestNormalizeNDC_Hyphenated(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"4-4-2 pads labeler", "0573-0150-02", "00573015002"},
		{"5-3-2 pads product", "50090-354-01", "50090035401"},
		{"5-4-1 pads package", "50090-3543-1", "50090354301"},
		{"5-4-2 already canonical", "50090-3543-01", "50090354301"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			norm := NormalizeNDC(tt.in)
			assert.Equal(t, tt.want, norm.NDC11)
			assert.Empty(t, norm.Candidates)
		})
	}
}

func TestNormalizeNDC_Bare10DigitsIsAmbiguous(t *testing.T) {
	t.Parallel()

	norm := NormalizeNDC("0573015002")

	assert.Empty(t, norm.NDC11)
	assert.Equal(t, []model.NDCCandidate{
		{Value: "00573015002", Schema: model.NDCSchema442},
		{Value: "05730015002", Schema: model.NDCSchema532},
		{Value: "05730150002", Schema: model.NDCSchema541},
	}, norm.Candidates)
}

func TestNormalizeNDC_CollidingCandidatesKeepFirstSchema(t *testing.T) {
	t.Parallel()

	norm := NormalizeNDC("0000000000")

	assert.Equal(t, []model.NDCCandidate{
		{Value: "00000000000", Schema: model.NDCSchema442},
	}, norm.Candidates)
}

func TestNormalizeNDC_Unrecognized(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{"product ndc only", "0573-0150"},
		{"odd segment lengths", "123-45-6"},
		{"too short", "12345"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			norm := NormalizeNDC(tt.in)
			assert.Empty(t, norm.NDC11)
			assert.Empty(t, norm.Candidates)
		})
	}
}

func TestNormalizeNDC_StripsJunkCharacters(t *testing.T) {
	t.Parallel()

	norm := NormalizeNDC(" NDC 0573-0150-02 ")

	assert.Equal(t, "00573015002", norm.NDC11)
	assert.Equal(t, "0573015002", norm.Digits)
}
