package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormatDirectives(t *testing.T) {
	format, err := ParseFormat(`%N\n%R\n\n`)
	require.NoError(t, err)

	assert.Equal(t, Format{
		{Item: ItemName},
		{Item: ItemChars, Text: "\n"},
		{Item: ItemFirstLine},
		{Item: ItemChars, Text: "\n\n"},
	}, format)
}

func TestParseFormatLiteralPercent(t *testing.T) {
	format, err := ParseFormat("100%% done %R")
	require.NoError(t, err)

	assert.Equal(t, Format{
		{Item: ItemChars, Text: "100% done "},
		{Item: ItemFirstLine},
	}, format)
}

func TestParseFormatInvalidDirective(t *testing.T) {
	_, err := ParseFormat("%X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'X'")
}

func TestParseFormatEmpty(t *testing.T) {
	format, err := ParseFormat("")
	require.NoError(t, err)
	assert.Empty(t, format)
}

func TestParseFormatTabEscape(t *testing.T) {
	format, err := ParseFormat(`%R\t%B`)
	require.NoError(t, err)
	require.Len(t, format, 3)
	assert.Equal(t, FormatPart{Item: ItemChars, Text: "\t"}, format[1])
}

func TestPrettifyBody(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": 1\n}", prettifyBody(`{"a": 1}`))
	assert.Equal(t, "[1,2]", prettifyBody("[1,2]"))
	assert.Equal(t, "plain text", prettifyBody("plain text"))
	assert.Equal(t, "", prettifyBody(""))
}
