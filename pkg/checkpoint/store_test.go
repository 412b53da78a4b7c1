package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/crqscan/pkg/gitlib"
)

const sampleHash = "0123456789abcdef0123456789abcdef01234567"

func writeCheckpoint(t *testing.T, content string) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scan_checkpoint.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return NewStore(path)
}

func TestStore_LoadMissingIsEmpty(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "cache", "scan_checkpoint.json"))

	cp, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, cp.LastScannedCommit)
	assert.Zero(t, cp.TrackingIDs.Len())
	assert.Zero(t, cp.URLs.Len())
	assert.Zero(t, cp.Terms.Len())
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "cache", "scan_checkpoint.json"))

	head, err := gitlib.ParseHash(sampleHash)
	require.NoError(t, err)

	cp := New()
	cp.TrackingIDs.Merge([]string{"CRQ-2", "CRQ-1"})
	cp.URLs.Merge([]string{"https://example.com/a?x=1&y=2"})
	cp.Terms.Merge([]string{"fix", "café"})
	cp.Advance(head)

	require.NoError(t, store.Save(cp))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded.LastScannedCommit)
	assert.Equal(t, head, *loaded.LastScannedCommit)
	assert.Equal(t, []string{"CRQ-2", "CRQ-1"}, loaded.TrackingIDs.Values())
	assert.Equal(t, []string{"https://example.com/a?x=1&y=2"}, loaded.URLs.Values())
	assert.Equal(t, []string{"fix", "café"}, loaded.Terms.Values())
}

func TestStore_SaveWritesDocumentKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "scan_checkpoint.json"))

	require.NoError(t, store.Save(New()))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	var raw map[string]any

	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, 4)
	assert.Nil(t, raw["last_scanned_commit"])
	assert.Equal(t, []any{}, raw["found_crq_links"])
	assert.Equal(t, []any{}, raw["found_urls"])
	assert.Equal(t, []any{}, raw["found_terms"])
}

func TestStore_LoadDocument(t *testing.T) {
	t.Parallel()

	store := writeCheckpoint(t, `{
  "last_scanned_commit": "`+strings.ToUpper(sampleHash)+`",
  "found_crq_links": ["CRQ-7", "CRQ-7"],
  "found_urls": [],
  "found_terms": ["a"]
}`)

	cp, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, cp.LastScannedCommit)
	assert.Equal(t, sampleHash, cp.LastScannedCommit.String())
	assert.Equal(t, []string{"CRQ-7"}, cp.TrackingIDs.Values())
	assert.Equal(t, []string{"a"}, cp.Terms.Values())
}

func TestStore_LoadCorrupt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "empty file", content: ""},
		{name: "not json", content: "{"},
		{name: "array document", content: `[]`},
		{name: "missing key", content: `{"last_scanned_commit": null, "found_crq_links": [], "found_urls": []}`},
		{name: "unknown key", content: `{"last_scanned_commit": null, "found_crq_links": [], "found_urls": [], "found_terms": [], "extra": 1}`},
		{name: "short hash", content: `{"last_scanned_commit": "abc", "found_crq_links": [], "found_urls": [], "found_terms": []}`},
		{name: "non hex hash", content: `{"last_scanned_commit": "` + strings.Repeat("z", 40) + `", "found_crq_links": [], "found_urls": [], "found_terms": []}`},
		{name: "wrong item type", content: `{"last_scanned_commit": null, "found_crq_links": [1], "found_urls": [], "found_terms": []}`},
		{name: "null list", content: `{"last_scanned_commit": null, "found_crq_links": null, "found_urls": [], "found_terms": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cp, err := writeCheckpoint(t, tt.content).Load()
			require.ErrorIs(t, err, ErrCorrupt)
			assert.Nil(t, cp)
		})
	}
}

func TestStore_LoadUnreadableIsCorrupt(t *testing.T) {
	t.Parallel()

	// A directory in place of the file cannot be read.
	path := filepath.Join(t.TempDir(), "scan_checkpoint.json")
	require.NoError(t, os.Mkdir(path, 0o750))

	_, err := NewStore(path).Load()
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestStore_SaveFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "cache")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0o600))

	err := NewStore(filepath.Join(blocker, "scan_checkpoint.json")).Save(New())
	require.ErrorIs(t, err, ErrWrite)
}

func TestStore_SaveReplacesPrevious(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "scan_checkpoint.json"))

	first := New()
	first.Terms.Merge([]string{"one", "two", "three"})
	require.NoError(t, store.Save(first))

	second := New()
	second.Terms.Merge([]string{"four"})
	require.NoError(t, store.Save(second))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"four"}, loaded.Terms.Values())
}

func TestPathFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join("/repo", "cache", "scan_checkpoint.json"), PathFor("/repo", ""))
	assert.Equal(t, filepath.Join("/repo", "state.json"), PathFor("/repo", "state.json"))
	assert.Equal(t, "/abs/state.json", PathFor("/repo", "/abs/state.json"))
}

func TestCheckpoint_Advance(t *testing.T) {
	t.Parallel()

	head, err := gitlib.ParseHash(sampleHash)
	require.NoError(t, err)

	cp := New()
	cp.Advance(head)

	require.NotNil(t, cp.LastScannedCommit)
	assert.Equal(t, head, *cp.LastScannedCommit)
}
