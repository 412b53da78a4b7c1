package scan

import (
	"time"

	"github.com/Sumatoshi-tech/crqscan/pkg/gitlib"
	"github.com/Sumatoshi-tech/crqscan/pkg/patterns"
)

// Findings are the candidates gathered by one run, in order of appearance and
// not deduplicated.
type Findings struct {
	TrackingIDs []string
	URLs        []string
	Terms       []string
}

func (f *Findings) add(m *patterns.Matches) {
	f.TrackingIDs = append(f.TrackingIDs, m.TrackingIDs...)
	f.URLs = append(f.URLs, m.URLs...)
	f.Terms = append(f.Terms, m.Terms...)
}

// CategoryCount is the outcome of a run for one finding category.
type CategoryCount struct {
	Name string
	// New is how many values this run appended to the persisted set.
	New int
	// Total is the size of the persisted set after the run.
	Total int
}

// Summary describes a successful run.
type Summary struct {
	Head gitlib.Hash
	// Previous is the checkpoint commit the run started from, nil on a first run.
	Previous *gitlib.Hash

	Commits      int
	Lines        int
	SkippedLines int

	Categories [3]CategoryCount
	Duration   time.Duration
}

// NewValues returns the number of values appended across all categories.
func (s *Summary) NewValues() int {
	total := 0
	for _, c := range s.Categories {
		total += c.New
	}

	return total
}
