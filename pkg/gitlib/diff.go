package gitlib

import (
	"errors"
	"fmt"
	"iter"
	"unicode/utf8"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/src-d/enry/v2"
)

// ErrDiffComputation is returned when a commit cannot be diffed against its first parent.
var ErrDiffComputation = errors.New("compute diff")

// errStopIteration aborts a libgit2 diff walk when the consumer stops ranging.
var errStopIteration = errors.New("stop iteration")

// LineOrigin classifies a diffed line.
type LineOrigin int

const (
	// OriginContext is an unchanged line shown around a change.
	OriginContext LineOrigin = iota
	// OriginAdded is a line present only on the new side.
	OriginAdded
	// OriginRemoved is a line present only on the old side.
	OriginRemoved
)

// String returns a short name for the origin.
func (o LineOrigin) String() string {
	switch o {
	case OriginContext:
		return "context"
	case OriginAdded:
		return "added"
	case OriginRemoved:
		return "removed"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// Line is one line of a commit diff.
type Line struct {
	Origin LineOrigin
	// Path is the new-side path of the file the line belongs to.
	Path string
	// NewLineno is the 1-based line number on the new side, or 0 for removed lines.
	NewLineno int
	Content   []byte
}

// Text returns the line content as a string. ok is false when the content is not valid UTF-8.
func (l Line) Text() (text string, ok bool) {
	if !utf8.Valid(l.Content) {
		return "", false
	}

	return string(l.Content), true
}

// InResult reports whether the line is part of the commit's resulting state,
// i.e. an added or context line with a position on the new side.
func (l Line) InResult() bool {
	return (l.Origin == OriginAdded || l.Origin == OriginContext) && l.NewLineno > 0
}

// DiffOptions tunes which files DiffLines visits.
type DiffOptions struct {
	// SkipVendored drops files whose path looks like vendored third-party code.
	SkipVendored bool
}

func (o *DiffOptions) skip(path string) bool {
	return o != nil && o.SkipVendored && enry.IsVendor(path)
}

// lineFromNative converts a libgit2 line. Header, binary and EOF-marker lines are dropped.
func lineFromNative(path string, native git2go.DiffLine) (Line, bool) {
	var origin LineOrigin

	switch native.Origin {
	case git2go.DiffLineContext:
		origin = OriginContext
	case git2go.DiffLineAddition:
		origin = OriginAdded
	case git2go.DiffLineDeletion:
		origin = OriginRemoved
	case git2go.DiffLineContextEOFNL,
		git2go.DiffLineAddEOFNL,
		git2go.DiffLineDelEOFNL,
		git2go.DiffLineFileHdr,
		git2go.DiffLineHunkHdr,
		git2go.DiffLineBinary:
		return Line{}, false
	default:
		return Line{}, false
	}

	newLineno := native.NewLineno
	if newLineno < 0 {
		newLineno = 0
	}

	return Line{
		Origin:    origin,
		Path:      path,
		NewLineno: newLineno,
		Content:   []byte(native.Content),
	}, true
}

// DiffLines yields every line of the diff between the commit's first parent and the commit.
// A root commit is diffed against the empty tree, so all of its lines are added lines.
//
// The sequence is lazy and single use. Breaking out of the range loop stops the diff walk.
// On failure an error wrapping ErrDiffComputation is yielded once and the sequence ends.
func (r *Repository) DiffLines(hash Hash, opts *DiffOptions) iter.Seq2[Line, error] {
	return func(yield func(Line, error) bool) {
		stopped := false

		err := r.forEachCommitLine(hash, opts, func(line Line) error {
			if !yield(line, nil) {
				stopped = true

				return errStopIteration
			}

			return nil
		})
		if err != nil && !stopped {
			yield(Line{}, fmt.Errorf("%w: commit %s: %w", ErrDiffComputation, hash, err))
		}
	}
}

func (r *Repository) forEachCommitLine(hash Hash, opts *DiffOptions, visit func(Line) error) error {
	commit, err := r.LookupCommit(hash)
	if err != nil {
		return err
	}
	defer commit.Free()

	tree, err := commit.Tree()
	if err != nil {
		return err
	}
	defer tree.Free()

	var parentTree *Tree

	if commit.NumParents() > 0 {
		parent, parentErr := commit.Parent(0)
		if parentErr != nil {
			return parentErr
		}
		defer parent.Free()

		parentTree, err = parent.Tree()
		if err != nil {
			return err
		}
		defer parentTree.Free()
	}

	diff, err := r.DiffTreeToTree(parentTree, tree)
	if err != nil {
		return err
	}
	defer diff.Free()

	return diff.ForEach(func(delta DiffDelta, _ float64) (git2go.DiffForEachHunkCallback, error) {
		path := delta.NewFile.Path
		if opts.skip(path) {
			return nil, nil
		}

		return func(_ git2go.DiffHunk) (git2go.DiffForEachLineCallback, error) {
			return func(native git2go.DiffLine) error {
				line, ok := lineFromNative(path, native)
				if !ok {
					return nil
				}

				return visit(line)
			}, nil
		}, nil
	}, git2go.DiffDetailLines)
}

// Diff wraps a libgit2 diff.
type Diff struct {
	diff *git2go.Diff
}

// ForEach iterates over the diff with callbacks for files, hunks, and lines.
func (d *Diff) ForEach(
	fileCallback func(delta DiffDelta, progress float64) (git2go.DiffForEachHunkCallback, error),
	detail git2go.DiffDetail,
) error {
	err := d.diff.ForEach(func(delta git2go.DiffDelta, progress float64) (git2go.DiffForEachHunkCallback, error) {
		wrappedDelta := DiffDelta{
			Status:  delta.Status,
			OldFile: DiffFile{Path: delta.OldFile.Path, Hash: HashFromOid(delta.OldFile.Oid)},
			NewFile: DiffFile{Path: delta.NewFile.Path, Hash: HashFromOid(delta.NewFile.Oid)},
		}

		return fileCallback(wrappedDelta, progress)
	}, detail)
	if err != nil {
		return fmt.Errorf("diff foreach: %w", err)
	}

	return nil
}

// Free releases the diff resources.
func (d *Diff) Free() {
	if d.diff == nil {
		return
	}

	// Free errors are not actionable during cleanup.
	_ = d.diff.Free()
	d.diff = nil
}

// DiffDelta represents a file change in a diff.
type DiffDelta struct {
	Status  git2go.Delta
	OldFile DiffFile
	NewFile DiffFile
}

// DiffFile represents a file in a diff delta.
type DiffFile struct {
	Path string
	Hash Hash
}
