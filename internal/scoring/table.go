// Package scoring converts swim times and dryland scores into points.
//
// Point tables are loaded once into an immutable [Tables] value and shared
// by every [Engine] call; no locking is needed.
package scoring

import (
	"fmt"
	"math"
	"sort"
)

// OpenAge is the table key for athletes 15 and older.
const OpenAge = 15

// Genders with point tables.
const (
	Men   = "Men's"
	Women = "Women's"
)

// Point is one (performance value, points) pair.
type Point struct {
	Value  float64
	Points float64
}

// Curve is a point table for one age, gender and event, sorted strictly
// ascending by value.
type Curve []Point

// Entry is the unvalidated form of one curve, as read from a table file.
type Entry struct {
	Age    int
	Gender string
	Event  string
	Points []Point
}

// Tables holds every curve keyed by age, gender and canonical event
// descriptor. It is never modified after NewTables returns.
type Tables struct {
	curves map[int]map[string]map[string]Curve
	ages   []int
}

// NewTables validates entries and builds the lookup structure. Every curve
// must be non-empty with finite values given in strictly ascending order.
func NewTables(entries []Entry) (*Tables, error) {
	t := &Tables{curves: make(map[int]map[string]map[string]Curve)}

	for _, e := range entries {
		if e.Age < 1 {
			return nil, fmt.Errorf("table %q: invalid age %d", e.Event, e.Age)
		}
		if e.Gender != Men && e.Gender != Women {
			return nil, fmt.Errorf("table %q age %d: invalid gender %q", e.Event, e.Age, e.Gender)
		}
		curve, err := newCurve(e.Points)
		if err != nil {
			return nil, fmt.Errorf("table %s %s age %d: %w", e.Gender, e.Event, e.Age, err)
		}

		byGender, ok := t.curves[e.Age]
		if !ok {
			byGender = make(map[string]map[string]Curve)
			t.curves[e.Age] = byGender
			t.ages = append(t.ages, e.Age)
		}
		byEvent, ok := byGender[e.Gender]
		if !ok {
			byEvent = make(map[string]Curve)
			byGender[e.Gender] = byEvent
		}
		desc := Canonical(e.Event)
		if _, dup := byEvent[desc]; dup {
			return nil, fmt.Errorf("table %s %s age %d: duplicate event", e.Gender, desc, e.Age)
		}
		byEvent[desc] = curve
	}

	sort.Ints(t.ages)
	return t, nil
}

func newCurve(points []Point) (Curve, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no points")
	}
	c := make(Curve, len(points))
	for i, p := range points {
		if !finite(p.Value) || !finite(p.Points) {
			return nil, fmt.Errorf("non-finite point %v", p)
		}
		if i > 0 && p.Value <= points[i-1].Value {
			return nil, fmt.Errorf("values not strictly ascending at %v", p.Value)
		}
		c[i] = p
	}
	return c, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Ages returns the ages with tables, ascending.
func (t *Tables) Ages() []int {
	return append([]int(nil), t.ages...)
}

// Len returns the number of curves.
func (t *Tables) Len() int {
	n := 0
	for _, byGender := range t.curves {
		for _, byEvent := range byGender {
			n += len(byEvent)
		}
	}
	return n
}

// ageTable picks the table used for a scoring age: the exact age, the
// youngest table for ages below it, otherwise the open table.
func (t *Tables) ageTable(age int) (map[string]map[string]Curve, bool) {
	if tbl, ok := t.curves[age]; ok {
		return tbl, true
	}
	if len(t.ages) > 0 && age < t.ages[0] {
		return t.curves[t.ages[0]], true
	}
	tbl, ok := t.curves[OpenAge]
	return tbl, ok
}

// Curve returns the curve for a scoring age, gender and event descriptor.
func (t *Tables) Curve(age int, gender, event string) (Curve, bool) {
	tbl, ok := t.ageTable(age)
	if !ok {
		return nil, false
	}
	c, ok := tbl[gender][Canonical(event)]
	return c, ok
}
