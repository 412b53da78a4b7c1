package gitlib

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"
)

// TestRepo is a throwaway on-disk repository for tests in this and dependent packages.
type TestRepo struct {
	tb     testing.TB
	Path   string
	native *git2go.Repository
}

// NewTestRepo initializes an empty non-bare repository in a temporary directory.
// The repository is freed when the test ends.
func NewTestRepo(tb testing.TB) *TestRepo {
	tb.Helper()

	dir := tb.TempDir()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(tb, err)

	tb.Cleanup(repo.Free)

	return &TestRepo{tb: tb, Path: dir, native: repo}
}

// WriteFile creates or overwrites a file in the working directory.
func (tr *TestRepo) WriteFile(name, content string) {
	tr.tb.Helper()

	path := filepath.Join(tr.Path, name)

	err := os.MkdirAll(filepath.Dir(path), 0o755)
	require.NoError(tr.tb, err)

	err = os.WriteFile(path, []byte(content), 0o644)
	require.NoError(tr.tb, err)
}

// RemoveFile deletes a file from the working directory.
func (tr *TestRepo) RemoveFile(name string) {
	tr.tb.Helper()

	err := os.Remove(filepath.Join(tr.Path, name))
	require.NoError(tr.tb, err)
}

// Commit stages the whole working directory and commits it on top of HEAD.
func (tr *TestRepo) Commit(message string) Hash {
	tr.tb.Helper()

	var parents []Hash

	head, err := tr.native.Head()
	if err == nil {
		parents = append(parents, HashFromOid(head.Target()))

		head.Free()
	}

	return tr.CommitWithParents(message, parents...)
}

// CommitWithParents stages the whole working directory and commits it with the given
// parents, moving HEAD to the new commit. It is used to build merges and side branches.
func (tr *TestRepo) CommitWithParents(message string, parents ...Hash) Hash {
	tr.tb.Helper()

	index, err := tr.native.Index()
	require.NoError(tr.tb, err)

	defer index.Free()

	err = index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil)
	require.NoError(tr.tb, err)

	err = index.UpdateAll([]string{"*"}, nil)
	require.NoError(tr.tb, err)

	err = index.Write()
	require.NoError(tr.tb, err)

	treeID, err := index.WriteTree()
	require.NoError(tr.tb, err)

	tree, err := tr.native.LookupTree(treeID)
	require.NoError(tr.tb, err)

	defer tree.Free()

	sig := &git2go.Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  time.Now(),
	}

	nativeParents := make([]*git2go.Commit, 0, len(parents))

	for _, parent := range parents {
		commit, lookupErr := tr.native.LookupCommit(parent.ToOid())
		require.NoError(tr.tb, lookupErr)

		nativeParents = append(nativeParents, commit)
	}

	defer func() {
		for _, commit := range nativeParents {
			commit.Free()
		}
	}()

	oid, err := tr.native.CreateCommit("", sig, sig, message, tree, nativeParents...)
	require.NoError(tr.tb, err)

	ref, err := tr.native.References.Create("refs/heads/master", oid, true, message)
	require.NoError(tr.tb, err)
	ref.Free()

	err = tr.native.SetHead("refs/heads/master")
	require.NoError(tr.tb, err)

	return HashFromOid(oid)
}
