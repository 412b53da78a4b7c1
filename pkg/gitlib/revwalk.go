package gitlib

import (
	"errors"
	"fmt"
	"iter"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrTraversal is returned when the commit graph cannot be walked.
var ErrTraversal = errors.New("traverse history")

// RevWalk wraps a libgit2 revision walker.
type RevWalk struct {
	walk *git2go.RevWalk
	repo *Repository
}

// Push adds a commit to start walking from.
func (w *RevWalk) Push(hash Hash) error {
	err := w.walk.Push(hash.ToOid())
	if err != nil {
		return fmt.Errorf("push to revwalk: %w", err)
	}

	return nil
}

// Hide marks a commit and all of its ancestors as uninteresting.
func (w *RevWalk) Hide(hash Hash) error {
	err := w.walk.Hide(hash.ToOid())
	if err != nil {
		return fmt.Errorf("hide %s from revwalk: %w", hash, err)
	}

	return nil
}

// Sorting sets the sorting mode for the walker.
func (w *RevWalk) Sorting(mode git2go.SortType) {
	w.walk.Sorting(mode)
}

// Next returns the next commit hash in the walk. done is true once the walk is exhausted.
func (w *RevWalk) Next() (hash Hash, done bool, err error) {
	oid := new(git2go.Oid)

	nextErr := w.walk.Next(oid)
	if git2go.IsErrorCode(nextErr, git2go.ErrorCodeIterOver) {
		return Hash{}, true, nil
	}

	if nextErr != nil {
		return Hash{}, false, fmt.Errorf("revwalk next: %w", nextErr)
	}

	return HashFromOid(oid), false, nil
}

// Free releases the walker resources.
func (w *RevWalk) Free() {
	if w.walk != nil {
		w.walk.Free()
		w.walk = nil
	}
}

// Traverse yields every commit reachable from `from` that is neither `exclude` nor one of
// its ancestors. A nil exclude walks the whole history. Commits come newest first in
// topological order, so no commit is yielded before one of its descendants.
//
// The sequence is single use. On failure the error is yielded once and the sequence ends.
func (r *Repository) Traverse(from Hash, exclude *Hash) iter.Seq2[Hash, error] {
	return func(yield func(Hash, error) bool) {
		walk, err := r.Walk()
		if err != nil {
			yield(Hash{}, fmt.Errorf("%w: %w", ErrTraversal, err))

			return
		}
		defer walk.Free()

		walk.Sorting(git2go.SortTopological | git2go.SortTime)

		err = walk.Push(from)
		if err != nil {
			yield(Hash{}, fmt.Errorf("%w: %w", ErrTraversal, err))

			return
		}

		if exclude != nil {
			err = walk.Hide(*exclude)
			if err != nil {
				yield(Hash{}, fmt.Errorf("%w: %w", ErrTraversal, err))

				return
			}
		}

		for {
			hash, done, nextErr := walk.Next()
			if nextErr != nil {
				yield(Hash{}, fmt.Errorf("%w: %w", ErrTraversal, nextErr))

				return
			}

			if done || !yield(hash, nil) {
				return
			}
		}
	}
}
