package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ContextCheckInterval is how often (in rows) cancellation is checked.
const ContextCheckInterval = 100

// Options configures a pipeline run.
type Options struct {
	// Scorer converts values into points. Required.
	Scorer Scorer
	// Sink persists results when set.
	Sink Sink
	// RawScoreFallback reports a dryland score as its own points when no
	// table yields any.
	RawScoreFallback bool
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Table is decoded tabular input: a header row and its data rows.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
	// FirstLine is the 1-based line number of Rows[0].
	FirstLine int
}

// NewTable locates the header row within the first searchRows records and
// splits the records around it.
func NewTable(name string, records [][]string, searchRows int) (Table, error) {
	if len(records) == 0 {
		return Table{}, fmt.Errorf("%s: %w", name, ErrEmptyInput)
	}
	h := FindHeaderRow(records, searchRows)
	header := make([]string, len(records[h]))
	for i, c := range records[h] {
		header[i] = CleanCell(c)
	}
	return Table{
		Name:      name,
		Header:    header,
		Rows:      records[h+1:],
		FirstLine: h + 2,
	}, nil
}

// ProcessTable scores a dryland table. A file-level problem (no name or
// event column, sink failure, cancellation) is returned as an error; row
// problems are collected on the output.
func ProcessTable(ctx context.Context, t Table, opts Options) (*Output, error) {
	if opts.Scorer == nil {
		return nil, errors.New("process table: no scorer configured")
	}
	log := opts.logger().With("table", t.Name)

	cols := IdentifyColumns(t.Header)
	if err := cols.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", t.Name, err)
	}

	x := Extract(cols, t.Rows, t.FirstLine)
	for _, re := range x.RowErrors {
		log.Debug("row error", "line", re.Line, "column", re.Column, "reason", re.Reason, "skipped", re.Skipped)
	}

	out := NewOutput()
	out.RowErrors = x.RowErrors

	for i, entry := range x.Entries {
		if i%ContextCheckInterval == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		for _, sc := range entry.Scores {
			r := scoreEntry(entry, sc, opts)
			if opts.Sink != nil {
				if err := persist(ctx, opts.Sink, r); err != nil {
					return nil, fmt.Errorf("line %d: persist result: %w", entry.Line, err)
				}
			}
			out.Add(r)
		}
	}

	out.Sort()
	log.Debug("table processed",
		"entries", len(x.Entries),
		"results", out.Len(),
		"skipped", x.Skipped(),
	)
	return out, nil
}

func scoreEntry(entry Entry, sc Score, opts Options) Result {
	p := entry.Participant
	bucket := ReportingBucket(p.Age)
	ev := EventDescriptor{
		Number: DrylandEventNumber(sc.Column.Index, bucket),
		Kind:   KindScore,
		Label:  sc.Column.Label,
		Gender: p.Gender,
		MinAge: IntPtr(bucket.Min),
		MaxAge: IntPtr(bucket.Max),
	}

	points := opts.Scorer.Points(ev.EventKey(), sc.Value, p.Age, nil)
	if points == 0 && opts.RawScoreFallback {
		points = sc.Value
	}

	value := sc.Value
	return Result{
		Participant: p,
		Event:       ev,
		Final:       &value,
		FinalPoints: points,
		BestPoints:  points,
	}
}

// ProcessMeet scores a pre-parsed meet record. Entries without swimmers
// are reported as row errors after those the decoder collected. Relays
// are credited to their first swimmer and scored at the event's age limit.
func ProcessMeet(ctx context.Context, m *Meet, opts Options) (*Output, error) {
	if opts.Scorer == nil {
		return nil, errors.New("process meet: no scorer configured")
	}
	if m == nil {
		return nil, ErrEmptyInput
	}
	log := opts.logger().With("meet", m.Name)

	teams := make(map[string]string, len(m.Teams))
	for _, t := range m.Teams {
		teams[strings.ToUpper(t.Code)] = t.Name
	}

	out := NewOutput()
	out.RowErrors = append(out.RowErrors, m.RowErrors...)
	for _, me := range m.Events {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		ev := EventDescriptor{
			Number:   me.Number,
			Kind:     KindRace,
			Distance: me.Distance,
			Stroke:   me.Stroke,
			Relay:    me.Relay,
			Gender:   me.Gender,
			MinAge:   me.MinAge,
			MaxAge:   me.MaxAge,
			Course:   me.Course,
		}
		if ev.Course == "" {
			ev.Course = m.Course
		}

		for i, entry := range me.Entries {
			if len(entry.Swimmers) == 0 {
				out.RowErrors = append(out.RowErrors, RowError{
					Line:    i + 1,
					Column:  fmt.Sprintf("event %d", me.Number),
					Reason:  "entry has no swimmers",
					Skipped: true,
				})
				continue
			}
			r := scoreMeetEntry(ev, entry, teams, opts)
			if opts.Sink != nil {
				if err := persist(ctx, opts.Sink, r); err != nil {
					return nil, fmt.Errorf("event %d: persist result: %w", me.Number, err)
				}
			}
			out.Add(r)
		}
	}

	out.Sort()
	log.Debug("meet processed", "events", len(m.Events), "results", out.Len())
	return out, nil
}

func scoreMeetEntry(ev EventDescriptor, entry MeetEntry, teams map[string]string, opts Options) Result {
	s := entry.Swimmers[0]
	p := Participant{
		FullName:  s.FullName(),
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Age:       s.Age,
		Gender:    s.Gender,
		TeamCode:  strings.ToUpper(strings.TrimSpace(s.TeamCode)),
	}
	if p.Gender == GenderUnknown {
		p.Gender = ev.Gender
	}
	if p.TeamCode == "" {
		p.TeamCode, p.TeamName = "UNA", "Unattached"
	} else if name, ok := teams[p.TeamCode]; ok && name != "" {
		p.TeamName = name
	} else {
		p.TeamName = p.TeamCode
	}

	age := p.Age
	if ev.Relay {
		age = nil
	}

	r := Result{
		Participant:  p,
		Event:        ev,
		Prelim:       entry.Prelim,
		SwimOff:      entry.SwimOff,
		Final:        entry.Final,
		Disqualified: entry.Disqualified,
	}
	if entry.Disqualified {
		return r
	}

	key := ev.EventKey()
	phase := func(v *float64) float64 {
		if v == nil || *v <= 0 {
			return 0
		}
		return opts.Scorer.Points(key, *v, age, ev.MaxAge)
	}
	r.PrelimPoints = phase(entry.Prelim)
	r.SwimOffPoints = phase(entry.SwimOff)
	r.FinalPoints = phase(entry.Final)
	r.BestPoints = max(r.PrelimPoints, r.SwimOffPoints, r.FinalPoints)
	return r
}
