package core

import (
	"math"
	"sort"
	"strconv"
)

// EventGroup is the ranked results of one event label.
type EventGroup struct {
	Label   string
	Key     string
	Kind    EventKind
	Results []Result
}

// Output is the normalized result of processing one or more inputs:
// event groups in first-seen order plus the row errors met on the way.
type Output struct {
	Groups    []*EventGroup
	RowErrors []RowError

	index map[string]*EventGroup
}

// NewOutput returns an empty Output.
func NewOutput() *Output {
	return &Output{index: make(map[string]*EventGroup)}
}

// Add appends a result to the group for its event display label.
func (o *Output) Add(r Result) {
	label := r.Event.DisplayLabel()
	g := o.Group(label)
	if g == nil {
		g = &EventGroup{Label: label, Key: r.Event.EventKey(), Kind: r.Event.Kind}
		o.Groups = append(o.Groups, g)
		o.index[label] = g
	}
	g.Results = append(g.Results, r)
}

// Group returns the group with the given label, or nil.
func (o *Output) Group(label string) *EventGroup {
	if o.index == nil {
		o.index = make(map[string]*EventGroup, len(o.Groups))
		for _, g := range o.Groups {
			o.index[g.Label] = g
		}
	}
	return o.index[label]
}

// Len returns the total number of results.
func (o *Output) Len() int {
	n := 0
	for _, g := range o.Groups {
		n += len(g.Results)
	}
	return n
}

// Sort ranks every group: races ascending by best time with missing,
// zero and disqualified swims last, score events descending by score.
func (o *Output) Sort() {
	for _, g := range o.Groups {
		g.Sort()
	}
}

// Sort ranks the group's results in place. Ties keep input order.
func (g *EventGroup) Sort() {
	sort.SliceStable(g.Results, func(i, j int) bool {
		return rankValue(g.Results[i]) < rankValue(g.Results[j])
	})
}

// rankValue maps a result onto an ascending sort key.
func rankValue(r Result) float64 {
	v, ok := r.BestValue()
	if !ok || r.Disqualified {
		return math.Inf(1)
	}
	if r.Event.Kind == KindScore {
		return -v
	}
	return v
}

// Records returns the canonical output: display label to ordered
// records.
func (o *Output) Records() map[string][]ResultRecord {
	out := make(map[string][]ResultRecord, len(o.Groups))
	for _, g := range o.Groups {
		recs := make([]ResultRecord, 0, len(g.Results))
		for _, r := range g.Results {
			recs = append(recs, r.Record())
		}
		out[g.Label] = recs
	}
	return out
}

// Labels returns the group labels in output order.
func (o *Output) Labels() []string {
	labels := make([]string, 0, len(o.Groups))
	for _, g := range o.Groups {
		labels = append(labels, g.Label)
	}
	return labels
}

// Merge combines outputs into one combined view. Results that repeat the
// same name, age, team, event and best value are kept once.
func Merge(outputs ...*Output) *Output {
	merged := NewOutput()
	seen := make(map[string]struct{})
	for _, o := range outputs {
		if o == nil {
			continue
		}
		merged.RowErrors = append(merged.RowErrors, o.RowErrors...)
		for _, g := range o.Groups {
			for _, r := range g.Results {
				k := dedupeKey(g.Label, r)
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
				merged.Add(r)
			}
		}
	}
	merged.Sort()
	return merged
}

func dedupeKey(label string, r Result) string {
	age := "-"
	if r.Participant.Age != nil {
		age = strconv.Itoa(*r.Participant.Age)
	}
	return r.Participant.FullName + "\x00" + age + "\x00" + r.Participant.TeamCode +
		"\x00" + label + "\x00" + r.BestFormatted()
}
