// Package ingest turns result files into scored output.
//
// A Service checks size and format, decodes the file, runs the scoring
// pipeline and, when a store is configured, writes each file's results in
// one transaction followed by a file-status record. Zip archives are
// expanded and every member is processed as its own file.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/swimscore/internal/config"
	"github.com/JonMunkholm/swimscore/internal/core"
	"github.com/JonMunkholm/swimscore/internal/logging"
	"github.com/JonMunkholm/swimscore/internal/meetfile"
	"github.com/JonMunkholm/swimscore/internal/metrics"
	"github.com/JonMunkholm/swimscore/internal/sheet"
	"github.com/JonMunkholm/swimscore/internal/store"
)

// ErrNoFiles is returned by ProcessFiles when called without paths.
var ErrNoFiles = errors.New("no file provided")

// Store is the persistence the service needs. *store.Store satisfies it.
type Store interface {
	EnsureMeet(ctx context.Context, name string, course core.Course) (string, error)
	WithinFile(ctx context.Context, meetID string, fn func(core.Sink) error) error
	RecordFile(ctx context.Context, rec store.FileRecord) error
}

// FileResult is the outcome of one file. Output is nil when Err is set.
type FileResult struct {
	Name   string
	Kind   string
	RunID  string
	Output *core.Output
	Err    error
}

// Batch is the outcome of several files plus their combined view.
type Batch struct {
	Files    []FileResult
	Combined *core.Output
}

// Failed returns the files that could not be processed.
func (b *Batch) Failed() []FileResult {
	var failed []FileResult
	for _, f := range b.Files {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}

// Service processes result files.
type Service struct {
	cfg     config.IngestConfig
	scoring config.ScoringConfig
	scorer  core.Scorer
	store   Store
	metrics *metrics.Manager
	limiter *Limiter
}

// NewService builds a Service. st and m may be nil: without a store
// nothing is persisted, without a manager nothing is measured.
func NewService(cfg *config.Config, scorer core.Scorer, st Store, m *metrics.Manager) *Service {
	return &Service{
		cfg:     cfg.Ingest,
		scoring: cfg.Scoring,
		scorer:  scorer,
		store:   st,
		metrics: m,
		limiter: NewLimiter(cfg.Ingest.MaxConcurrent, cfg.Ingest.MaxWaitTime),
	}
}

// Limiter exposes the concurrency limiter for status reporting.
func (s *Service) Limiter() *Limiter { return s.limiter }

// WaitForDrain blocks until no file is being processed or ctx ends.
func (s *Service) WaitForDrain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// ProcessFile reads and processes the file at path.
func (s *Service) ProcessFile(ctx context.Context, path string) []FileResult {
	name := filepath.Base(path)
	info, err := os.Stat(path)
	if err != nil {
		return []FileResult{s.reject(ctx, name, err)}
	}
	if s.cfg.MaxFileSize > 0 && info.Size() > s.cfg.MaxFileSize {
		return []FileResult{s.reject(ctx, name, fmt.Errorf("%s: file too large (%d bytes)", name, info.Size()))}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return []FileResult{s.reject(ctx, name, err)}
	}
	return s.ProcessData(ctx, name, data)
}

// ProcessData processes an in-memory file. Archives yield one result per
// supported member.
func (s *Service) ProcessData(ctx context.Context, name string, data []byte) []FileResult {
	if sheet.KindOf(name) != sheet.KindZip {
		return []FileResult{s.processOne(ctx, name, data)}
	}

	files, err := sheet.Unzip(data, s.cfg.MaxFileSize)
	if err != nil {
		return []FileResult{s.reject(ctx, name, fmt.Errorf("%s: %w", name, err))}
	}
	if len(files) == 0 {
		return []FileResult{s.reject(ctx, name, fmt.Errorf("%s: %w", name, core.ErrEmptyInput))}
	}

	results := make([]FileResult, 0, len(files))
	for _, f := range files {
		results = append(results, s.processOne(ctx, name+"/"+f.Name, f.Data))
	}
	return results
}

// ProcessFiles processes paths concurrently, bounded by the limiter's
// capacity, and merges every successful output into a combined view.
// File results keep the order of paths.
func (s *Service) ProcessFiles(ctx context.Context, paths []string) (*Batch, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	perPath := make([][]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limiter.MaxConcurrent())
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			perPath[i] = s.ProcessFile(gctx, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := &Batch{}
	var outputs []*core.Output
	for _, rs := range perPath {
		for _, r := range rs {
			b.Files = append(b.Files, r)
			if r.Output != nil {
				outputs = append(outputs, r.Output)
			}
		}
	}
	b.Combined = core.Merge(outputs...)
	return b, ctx.Err()
}

// reject records a file that failed before decoding.
func (s *Service) reject(ctx context.Context, name string, err error) FileResult {
	runID := uuid.NewString()
	logging.WithFields(logging.WithRunID(ctx, runID), "file", name).Error("file rejected", "error", err)
	s.metrics.RecordFile(metrics.StatusRejected, 0)
	s.record(ctx, store.FileRecord{ID: runID, FileName: name, FileType: sheet.KindOf(name).String(), Errors: err.Error()})
	return FileResult{Name: name, Kind: sheet.KindOf(name).String(), RunID: runID, Err: err}
}

func (s *Service) processOne(ctx context.Context, name string, data []byte) (res FileResult) {
	kind := sheet.KindOf(name)
	res = FileResult{Name: name, Kind: kind.String(), RunID: uuid.NewString()}

	ctx = logging.WithRunID(ctx, res.RunID)
	log := logging.WithFields(ctx, "file", name, "kind", res.Kind)
	start := time.Now()

	if !s.limiter.TryAcquire() {
		log.Info("waiting for a free slot", "active", s.limiter.ActiveCount())
		if err := s.limiter.Acquire(ctx); err != nil {
			res.Err = fmt.Errorf("%s: %w", name, err)
			log.Error("file rejected", "error", err)
			s.metrics.RecordFile(metrics.StatusRejected, time.Since(start))
			s.record(ctx, store.FileRecord{ID: res.RunID, FileName: name, FileType: res.Kind, Errors: res.Err.Error()})
			return res
		}
	}
	defer s.limiter.Release()
	s.metrics.FileStarted()
	defer s.metrics.FileDone()

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while processing file", "panic", r)
			res.Output = nil
			res.Err = fmt.Errorf("%s: internal error: %v", name, r)
			s.finish(ctx, &res, "", time.Since(start))
		}
	}()

	runCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	meetID, out, err := s.dispatch(runCtx, name, kind, data)
	if err != nil {
		res.Err = err
	} else {
		res.Output = out
	}
	s.finish(ctx, &res, meetID, time.Since(start))
	return res
}

// dispatch decodes data by kind and scores it.
func (s *Service) dispatch(ctx context.Context, name string, kind sheet.Kind, data []byte) (string, *core.Output, error) {
	if s.cfg.MaxFileSize > 0 && int64(len(data)) > s.cfg.MaxFileSize {
		return "", nil, fmt.Errorf("%s: file too large (%d bytes)", name, len(data))
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", nil, fmt.Errorf("%s: %w", name, core.ErrEmptyInput)
	}

	switch kind {
	case sheet.KindCSV, sheet.KindXLSX, sheet.KindXLS:
		decoded, err := sheet.Decode(name, data)
		if err != nil {
			return "", nil, err
		}
		tables := make([]core.Table, 0, len(decoded))
		rows := 0
		for _, d := range decoded {
			t, err := core.NewTable(d.Name, d.Records, s.cfg.HeaderSearchRows)
			if err != nil {
				return "", nil, err
			}
			rows += len(t.Rows)
			tables = append(tables, t)
		}
		s.metrics.RecordRows(rows)

		return s.run(ctx, s.cfg.MeetName, core.CourseSCY, func(opts core.Options) (*core.Output, error) {
			outs := make([]*core.Output, 0, len(tables))
			for _, t := range tables {
				out, err := core.ProcessTable(ctx, t, opts)
				if err != nil {
					return nil, err
				}
				outs = append(outs, out)
			}
			if len(outs) == 1 {
				return outs[0], nil
			}
			return core.Merge(outs...), nil
		})

	case sheet.KindMeet:
		m, err := meetfile.Decode(data)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", name, err)
		}
		entries := 0
		for _, ev := range m.Events {
			entries += len(ev.Entries)
		}
		s.metrics.RecordRows(entries)

		meetName := m.Name
		if strings.TrimSpace(meetName) == "" {
			meetName = s.cfg.MeetName
		}
		return s.run(ctx, meetName, m.Course, func(opts core.Options) (*core.Output, error) {
			return core.ProcessMeet(ctx, m, opts)
		})

	default:
		return "", nil, fmt.Errorf("%s: %w %q", name, sheet.ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// run executes process, inside a file transaction when a store is set.
func (s *Service) run(ctx context.Context, meetName string, course core.Course, process func(core.Options) (*core.Output, error)) (string, *core.Output, error) {
	opts := core.Options{
		Scorer:           s.scorer,
		RawScoreFallback: s.scoring.RawScoreFallback,
		Logger:           logging.FromContext(ctx),
	}
	if s.store == nil {
		out, err := process(opts)
		return "", out, err
	}

	meetID, err := s.store.EnsureMeet(ctx, meetName, course)
	if err != nil {
		return "", nil, err
	}
	var out *core.Output
	err = s.store.WithinFile(ctx, meetID, func(snk core.Sink) error {
		opts.Sink = snk
		var err error
		out, err = process(opts)
		return err
	})
	if err != nil {
		return meetID, nil, err
	}
	return meetID, out, nil
}

// finish logs, measures and records the outcome of a processed file.
func (s *Service) finish(ctx context.Context, res *FileResult, meetID string, elapsed time.Duration) {
	log := logging.WithFields(ctx, "file", res.Name, "kind", res.Kind)
	rec := store.FileRecord{ID: res.RunID, FileName: res.Name, FileType: res.Kind, MeetID: meetID}

	if res.Err != nil {
		// Input problems are expected; anything unmapped is a bug or an outage.
		if core.IsUserFacing(res.Err) {
			log.Warn("file failed", "error", res.Err, "duration", elapsed)
		} else {
			log.Error("file failed", "error", res.Err, "duration", elapsed)
		}
		s.metrics.RecordFile(metrics.StatusFailed, elapsed)
		rec.Errors = res.Err.Error()
		s.record(ctx, rec)
		return
	}

	out := res.Output
	skipped := 0
	for _, re := range out.RowErrors {
		if re.Skipped {
			skipped++
		}
	}
	for _, g := range out.Groups {
		s.metrics.RecordResults(g.Kind.String(), len(g.Results))
	}
	s.metrics.RecordRowErrors(skipped, len(out.RowErrors)-skipped)
	s.metrics.RecordFile(metrics.StatusProcessed, elapsed)

	log.Info("file processed",
		"events", len(out.Groups),
		"results", out.Len(),
		"row_errors", len(out.RowErrors),
		"duration", elapsed,
	)

	rec.Processed = true
	if len(out.RowErrors) > 0 {
		rec.Errors = summarizeRowErrors(out.RowErrors)
	}
	s.record(ctx, rec)
}

// record writes a file-status record. It runs outside the file
// transaction and ignores cancellation so failures are kept too.
func (s *Service) record(ctx context.Context, rec store.FileRecord) {
	if s.store == nil {
		return
	}
	if err := s.store.RecordFile(context.WithoutCancel(ctx), rec); err != nil {
		logging.FromContext(ctx).Error("record file status", "file", rec.FileName, "error", err)
	}
}

// maxSummarizedRowErrors caps the row errors stored with a file record.
const maxSummarizedRowErrors = 20

func summarizeRowErrors(errs []core.RowError) string {
	var b strings.Builder
	for i, re := range errs {
		if i == maxSummarizedRowErrors {
			fmt.Fprintf(&b, "... and %d more", len(errs)-i)
			break
		}
		b.WriteString(re.Error())
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
