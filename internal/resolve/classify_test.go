package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rxindex/medinfo-cli/internal/model"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want model.InputKind
	}{
		{"set id lowercase", "9f3a8c77-0d12-4a9b-8f7e-1b2c3d4e5f60", model.KindSetID},
		{"set id uppercase", "9F3A8C77-0D12-4A9B-8F7E-1B2C3D4E5F60", model.KindSetID},
		{"set id padded", "  9f3a8c77-0d12-4a9b-8f7e-1b2c3d4e5f60  ", model.KindSetID},
		{"bare 10 digit ndc", "0573015002", model.KindNDC},
		{"bare 11 digit ndc", "00573015002", model.KindNDC},
		{"product ndc", "0573-0150", model.KindNDC},
		{"package ndc 5-4-2", "50090-3543-01", model.KindNDC},
		{"package ndc 5-4-1", "50090-3543-1", model.KindNDC},
		{"drug name", "ibuprofen", model.KindName},
		{"name with digits", "tylenol 500", model.KindName},
		{"too many digits", "123456789012", model.KindName},
		{"too few digits", "123456789", model.KindName},
		{"short labeler segment", "123-4567", model.KindName},
		{"set id with suffix", "9f3a8c77-0d12-4a9b-8f7e-1b2c3d4e5f60 v2", model.KindName},
		{"empty", "", model.KindName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.in))
		})
	}
}

func TestIsSetID(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSetID("abcd1234-1111-2222-3333-444455556666"))
	assert.False(t, IsSetID("abcd1234-1111-2222-3333-44445555666"))
	assert.False(t, IsSetID("ghijklmn-1111-2222-3333-444455556666"))
}

func TestIsProbableNDC(t *testing.T) {
	t.Parallel()

	assert.True(t, IsProbableNDC("1234-567"))
	assert.True(t, IsProbableNDC("12345-6789-12"))
	assert.False(t, IsProbableNDC("1234-567-123"))
	assert.False(t, IsProbableNDC("ibuprofen"))
}
