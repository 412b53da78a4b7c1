package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/crqscan/pkg/docstore"
)

func validate(t *testing.T, schema *Schema, doc any) *gojsonschema.Result {
	t.Helper()

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(doc))
	require.NoError(t, err)

	return result
}

func TestGenerateSchema_Article(t *testing.T) {
	t.Parallel()

	schema := generateSchema("article", &docstore.Article{})

	assert.Equal(t, "Article document", schema.Title)
	assert.ElementsMatch(t, []string{"title", "url", "revision_id", "content", "links"}, schema.Required)
	assert.Contains(t, schema.Definitions, "Link")

	revision := uint64(7)

	for _, article := range []docstore.Article{
		{Title: "t", URL: "https://example.com"},
		{Title: "t", RevisionID: &revision, Links: []docstore.Link{{Href: "/a", Text: "a"}}},
	} {
		result := validate(t, schema, article)
		assert.True(t, result.Valid(), "%v", result.Errors())
	}
}

func TestGenerateSchema_RejectsUnknownField(t *testing.T) {
	t.Parallel()

	schema := generateSchema("entity", &docstore.Entity{})

	result := validate(t, schema, map[string]any{
		"id": "Q1", "label": "x", "facts": nil, "extra": true,
	})
	assert.False(t, result.Valid())
}

func TestWriteSchema(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	require.NoError(t, writeSchema(dir, "entity", generateSchema("entity", &docstore.Entity{})))

	data, err := os.ReadFile(filepath.Join(dir, "entity.json"))
	require.NoError(t, err)

	var decoded map[string]any

	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "object", decoded["type"])
	assert.Equal(t, false, decoded["additionalProperties"])
}
