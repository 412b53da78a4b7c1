// Package scan runs one incremental pass over a repository's history: it loads the
// checkpoint, diffs every commit not yet scanned, extracts findings from the added and
// context lines, merges them into the checkpoint and persists it.
//
// A run either completes and advances the checkpoint, or aborts and leaves the
// checkpoint file exactly as it was.
package scan

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/crqscan/pkg/checkpoint"
	"github.com/Sumatoshi-tech/crqscan/pkg/gitlib"
	"github.com/Sumatoshi-tech/crqscan/pkg/observability"
	"github.com/Sumatoshi-tech/crqscan/pkg/patterns"
)

// History is the read side of a repository. *gitlib.Repository implements it.
type History interface {
	Head() (gitlib.Hash, error)
	Traverse(from gitlib.Hash, exclude *gitlib.Hash) iter.Seq2[gitlib.Hash, error]
	DiffLines(hash gitlib.Hash, opts *gitlib.DiffOptions) iter.Seq2[gitlib.Line, error]
}

// Store loads and saves the checkpoint. *checkpoint.Store implements it.
type Store interface {
	Load() (*checkpoint.Checkpoint, error)
	Save(cp *checkpoint.Checkpoint) error
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) { s.logger = logger }
}

// WithTracer sets the tracer used for the run span.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Scanner) { s.tracer = tracer }
}

// WithMetrics records every finished run, successful or not.
func WithMetrics(metrics *observability.ScanMetrics) Option {
	return func(s *Scanner) { s.metrics = metrics }
}

// WithStateHook calls hook on every state transition, including the final one.
func WithStateHook(hook func(State)) Option {
	return func(s *Scanner) { s.hook = hook }
}

// WithDiffOptions sets the options passed to every per-commit diff.
func WithDiffOptions(opts gitlib.DiffOptions) Option {
	return func(s *Scanner) { s.diffOpts = &opts }
}

// WithMatchers replaces the default pattern matchers.
func WithMatchers(matchers *patterns.Matchers) Option {
	return func(s *Scanner) { s.matchers = matchers }
}

// Scanner runs scans. It is not safe for concurrent use.
type Scanner struct {
	history  History
	store    Store
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *observability.ScanMetrics
	hook     func(State)
	diffOpts *gitlib.DiffOptions
	matchers *patterns.Matchers

	state State
}

// New returns a scanner over history that keeps its checkpoint in store.
func New(history History, store Store, opts ...Option) *Scanner {
	s := &Scanner{
		history:  history,
		store:    store,
		logger:   observability.NopLogger(),
		tracer:   nooptrace.NewTracerProvider().Tracer(""),
		matchers: patterns.Default,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// State returns the state reached by the last run.
func (s *Scanner) State() State {
	return s.state
}

// run holds the counters of one pass.
type run struct {
	commits  int
	lines    int
	skipped  int
	findings Findings
}

// Run performs one scan. On failure it returns a *StageError and the checkpoint
// file is left untouched. The context is checked between commits only.
func (s *Scanner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "crqscan.scan")
	defer span.End()

	summary, stats, err := s.run(ctx)
	stats.Duration = time.Since(start)

	if err != nil {
		s.enter(StateAborted)

		span.RecordError(err)
		span.SetStatus(codes.Error, "scan aborted")

		stats.Status = observability.StatusAborted
		s.metrics.RecordRun(ctx, stats)

		s.logger.ErrorContext(ctx, "scan aborted", "error", err)

		return nil, err
	}

	summary.Duration = stats.Duration

	s.enter(StateDone)

	span.SetAttributes(
		attribute.String("scan.head", summary.Head.String()),
		attribute.Int("scan.commits", summary.Commits),
	)

	stats.Status = observability.StatusOK
	s.metrics.RecordRun(ctx, stats)

	s.logger.InfoContext(ctx, "scan finished",
		"head", summary.Head.String(),
		"commits", summary.Commits,
		"lines", summary.Lines,
		"skipped_lines", summary.SkippedLines,
		"new_values", summary.NewValues(),
		"duration", summary.Duration,
	)

	return summary, nil
}

func (s *Scanner) run(ctx context.Context) (*Summary, observability.ScanStats, error) {
	var stats observability.ScanStats

	s.enter(StateLoading)

	cp, err := s.store.Load()
	if err != nil {
		return nil, stats, s.abort(err)
	}

	s.enter(StateResolving)

	head, err := s.history.Head()
	if err != nil {
		return nil, stats, s.abort(err)
	}

	previous := cp.LastScannedCommit

	s.logger.InfoContext(ctx, "scan started", "head", head.String(), "checkpoint", hashAttr(previous))

	s.enter(StateTraversing)

	var pass run

	err = s.traverse(ctx, head, previous, &pass)

	stats.Commits = int64(pass.commits)
	stats.Lines = int64(pass.lines)
	stats.SkippedLines = int64(pass.skipped)

	if err != nil {
		return nil, stats, s.abort(err)
	}

	s.enter(StateMerging)

	categories := [3]CategoryCount{
		{Name: patterns.CategoryTrackingIDs, New: cp.TrackingIDs.Merge(pass.findings.TrackingIDs)},
		{Name: patterns.CategoryURLs, New: cp.URLs.Merge(pass.findings.URLs)},
		{Name: patterns.CategoryTerms, New: cp.Terms.Merge(pass.findings.Terms)},
	}
	categories[0].Total = cp.TrackingIDs.Len()
	categories[1].Total = cp.URLs.Len()
	categories[2].Total = cp.Terms.Len()

	cp.Advance(head)

	s.enter(StatePersisting)

	err = s.store.Save(cp)
	if err != nil {
		return nil, stats, s.abort(err)
	}

	stats.Appended = make(map[string]int64, len(categories))
	for _, c := range categories {
		stats.Appended[c.Name] = int64(c.New)
	}

	return &Summary{
		Head:         head,
		Previous:     previous,
		Commits:      pass.commits,
		Lines:        pass.lines,
		SkippedLines: pass.skipped,
		Categories:   categories,
	}, stats, nil
}

func (s *Scanner) traverse(ctx context.Context, head gitlib.Hash, exclude *gitlib.Hash, pass *run) error {
	for hash, err := range s.history.Traverse(head, exclude) {
		if err != nil {
			return err
		}

		err = ctx.Err()
		if err != nil {
			return fmt.Errorf("scan interrupted before commit %s: %w", hash, err)
		}

		err = s.scanCommit(ctx, hash, pass)
		if err != nil {
			return err
		}

		pass.commits++
	}

	return nil
}

func (s *Scanner) scanCommit(ctx context.Context, hash gitlib.Hash, pass *run) error {
	var matches patterns.Matches

	lines, skipped := 0, 0

	for line, err := range s.history.DiffLines(hash, s.diffOpts) {
		if err != nil {
			return err
		}

		if !line.InResult() {
			continue
		}

		text, ok := line.Text()
		if !ok {
			skipped++

			s.logger.DebugContext(ctx, "skipping line that is not valid UTF-8",
				"commit", hash.String(), "path", line.Path, "line", line.NewLineno)

			continue
		}

		lines++

		s.matchers.ExtractInto(text, &matches)
	}

	pass.lines += lines
	pass.skipped += skipped
	pass.findings.add(&matches)

	s.logger.DebugContext(ctx, "commit scanned",
		"commit", hash.String(), "lines", lines, "candidates", matches.Len())

	return nil
}

func (s *Scanner) enter(state State) {
	s.state = state

	if s.hook != nil {
		s.hook(state)
	}
}

func (s *Scanner) abort(err error) error {
	return &StageError{State: s.state, Err: err}
}

func hashAttr(h *gitlib.Hash) string {
	if h == nil {
		return "none"
	}

	return h.String()
}
