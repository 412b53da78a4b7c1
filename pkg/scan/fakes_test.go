package scan_test

import (
	"iter"

	"github.com/Sumatoshi-tech/crqscan/pkg/checkpoint"
	"github.com/Sumatoshi-tech/crqscan/pkg/gitlib"
)

// fakeHistory serves a fixed linear history, newest first.
type fakeHistory struct {
	head    gitlib.Hash
	headErr error

	// commits lists the history newest first.
	commits     []gitlib.Hash
	traverseErr error

	diffs    map[gitlib.Hash][]gitlib.Line
	diffErrs map[gitlib.Hash]error

	diffed []gitlib.Hash
}

func (h *fakeHistory) Head() (gitlib.Hash, error) {
	return h.head, h.headErr
}

func (h *fakeHistory) Traverse(_ gitlib.Hash, exclude *gitlib.Hash) iter.Seq2[gitlib.Hash, error] {
	return func(yield func(gitlib.Hash, error) bool) {
		if h.traverseErr != nil {
			yield(gitlib.Hash{}, h.traverseErr)

			return
		}

		for _, hash := range h.commits {
			if exclude != nil && hash == *exclude {
				return
			}

			if !yield(hash, nil) {
				return
			}
		}
	}
}

func (h *fakeHistory) DiffLines(hash gitlib.Hash, _ *gitlib.DiffOptions) iter.Seq2[gitlib.Line, error] {
	return func(yield func(gitlib.Line, error) bool) {
		h.diffed = append(h.diffed, hash)

		if err := h.diffErrs[hash]; err != nil {
			yield(gitlib.Line{}, err)

			return
		}

		for _, line := range h.diffs[hash] {
			if !yield(line, nil) {
				return
			}
		}
	}
}

// memStore keeps the checkpoint in memory.
type memStore struct {
	cp      *checkpoint.Checkpoint
	loadErr error
	saveErr error
	saves   int
}

func (s *memStore) Load() (*checkpoint.Checkpoint, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}

	if s.cp == nil {
		return checkpoint.New(), nil
	}

	return s.cp, nil
}

func (s *memStore) Save(cp *checkpoint.Checkpoint) error {
	if s.saveErr != nil {
		return s.saveErr
	}

	s.saves++
	s.cp = cp

	return nil
}

func hashOf(b byte) gitlib.Hash {
	var h gitlib.Hash
	h[0] = b

	return h
}

func addedLine(content string) gitlib.Line {
	return gitlib.Line{Origin: gitlib.OriginAdded, Path: "file.txt", NewLineno: 1, Content: []byte(content)}
}

func contextLine(content string) gitlib.Line {
	return gitlib.Line{Origin: gitlib.OriginContext, Path: "file.txt", NewLineno: 1, Content: []byte(content)}
}

func removedLine(content string) gitlib.Line {
	return gitlib.Line{Origin: gitlib.OriginRemoved, Path: "file.txt", Content: []byte(content)}
}
