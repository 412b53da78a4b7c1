package persist

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testState is a struct for round-trip codec testing.
type testState struct {
	Name   string   `json:"name"`
	Count  int      `json:"count"`
	Values []string `json:"values"`
}

func TestJSONCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := NewJSONCodec()

	original := testState{
		Name:   "test",
		Count:  42,
		Values: []string{"a", "b"},
	}

	var buf bytes.Buffer

	require.NoError(t, codec.Encode(&buf, original))

	var decoded testState

	require.NoError(t, codec.Decode(&buf, &decoded))

	assert.Equal(t, original, decoded)
}

func TestJSONCodec_Extension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".json", NewJSONCodec().Extension())
}

func TestJSONCodec_CompactNoIndent(t *testing.T) {
	t.Parallel()

	codec := &JSONCodec{Indent: ""}

	var buf bytes.Buffer

	require.NoError(t, codec.Encode(&buf, testState{Name: "compact", Count: 1}))

	// Compact JSON has at most one trailing newline (from json.Encoder).
	assert.LessOrEqual(t, strings.Count(buf.String(), "\n"), 1)
}

func TestJSONCodec_DoesNotEscapeURLs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, NewJSONCodec().Encode(&buf, testState{Name: "https://example.com/?a=1&b=<2>"}))

	assert.Contains(t, buf.String(), "https://example.com/?a=1&b=<2>")
}

func TestJSONCodec_StrictRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	codec := &JSONCodec{Strict: true}

	var decoded testState

	err := codec.Decode(strings.NewReader(`{"name":"x","extra":1}`), &decoded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json decode")
}

func TestJSONCodec_StrictRejectsTrailingData(t *testing.T) {
	t.Parallel()

	codec := &JSONCodec{Strict: true}

	var decoded testState

	err := codec.Decode(strings.NewReader(`{"name":"x"} {"name":"y"}`), &decoded)
	require.ErrorIs(t, err, ErrTrailingData)
}

func TestJSONCodec_LenientAcceptsUnknownFields(t *testing.T) {
	t.Parallel()

	var decoded testState

	err := NewJSONCodec().Decode(strings.NewReader(`{"name":"x","extra":1}`), &decoded)
	require.NoError(t, err)
	assert.Equal(t, "x", decoded.Name)
}

func TestJSONCodec_DecodeInvalid(t *testing.T) {
	t.Parallel()

	var decoded testState

	err := NewJSONCodec().Decode(strings.NewReader("{not json"), &decoded)
	require.Error(t, err)
}
