package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputKindValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind InputKind
		want string
	}{
		{KindSetID, "set_id"},
		{KindNDC, "ndc"},
		{KindName, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(tt.kind))
		})
	}
}

func TestNDCSchemaValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		schema string
		want   string
	}{
		{NDCSchema442, "4-4-2"},
		{NDCSchema532, "5-3-2"},
		{NDCSchema541, "5-4-1"},
		{NDCSchema542, "5-4-2"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.schema)
		})
	}
}
