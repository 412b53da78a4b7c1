package gitlib

import (
	"errors"
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// Sentinel errors for repository access.
var (
	// ErrRepositoryOpen is returned when the path is not a valid repository root.
	ErrRepositoryOpen = errors.New("open repository")
	// ErrNoHead is returned when HEAD cannot be resolved to a commit.
	ErrNoHead = errors.New("repository has no HEAD commit")
)

// Repository wraps a libgit2 repository. It is only ever read from.
type Repository struct {
	repo *git2go.Repository
}

// OpenRepository opens the git repository rooted at path.
// Parent directories are not searched.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepositoryExtended(path, git2go.RepositoryOpenNoSearch, "")
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrRepositoryOpen, path, err)
	}

	return &Repository{repo: repo}, nil
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// Head resolves HEAD to the commit it points at.
func (r *Repository) Head() (Hash, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return Hash{}, fmt.Errorf("%w: %w", ErrNoHead, err)
	}
	defer ref.Free()

	resolved, err := ref.Resolve()
	if err != nil {
		return Hash{}, fmt.Errorf("%w: resolve: %w", ErrNoHead, err)
	}
	defer resolved.Free()

	target := resolved.Target()
	if target == nil {
		return Hash{}, ErrNoHead
	}

	return HashFromOid(target), nil
}

// LookupCommit returns the commit with the given hash.
func (r *Repository) LookupCommit(hash Hash) (*Commit, error) {
	commit, err := r.repo.LookupCommit(hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup commit %s: %w", hash, err)
	}

	return &Commit{commit: commit, repo: r}, nil
}

// Walk creates a new revision walker.
func (r *Repository) Walk() (*RevWalk, error) {
	walk, err := r.repo.Walk()
	if err != nil {
		return nil, fmt.Errorf("create revwalk: %w", err)
	}

	return &RevWalk{walk: walk, repo: r}, nil
}

// DiffTreeToTree computes the diff between two trees. A nil oldTree means the empty tree.
func (r *Repository) DiffTreeToTree(oldTree, newTree *Tree) (*Diff, error) {
	opts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("get diff options: %w", err)
	}

	var oldT, newT *git2go.Tree
	if oldTree != nil {
		oldT = oldTree.tree
	}

	if newTree != nil {
		newT = newTree.tree
	}

	diff, err := r.repo.DiffTreeToTree(oldT, newT, &opts)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	return &Diff{diff: diff}, nil
}
