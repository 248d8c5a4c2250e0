package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type parsedList struct {
	OK      bool     `json:"ok"`
	Count   int      `json:"count"`
	Records []string `json:"records"`
}

func TestDecodeJSONObject(t *testing.T) {
	input := `{"ok": true, "count": 2, "records": ["methotrexate", "warfarin"]}`
	obj, err := DecodeJSONObject[parsedList](strings.NewReader(input))
	require.NoError(t, err)
	assert.True(t, obj.OK)
	assert.Equal(t, 2, obj.Count)
	assert.Equal(t, []string{"methotrexate", "warfarin"}, obj.Records)
}

func TestDecodeJSONObject_Malformed(t *testing.T) {
	_, err := DecodeJSONObject[parsedList](strings.NewReader(`{"ok": tru`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode object")
}

func TestDecodeJSONObject_UnknownFieldsIgnored(t *testing.T) {
	input := `{"ok": false, "reason": "pdftotext not installed", "records": []}`
	obj, err := DecodeJSONObject[parsedList](strings.NewReader(input))
	require.NoError(t, err)
	assert.False(t, obj.OK)
	assert.Empty(t, obj.Records)
}
