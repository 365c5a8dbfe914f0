package scoring

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Policy decides how values outside a curve's range are scored.
type Policy int

const (
	// PolicyClamp returns the best entry's points beyond the best end and
	// subtracts a linear penalty beyond the worst end.
	PolicyClamp Policy = iota
	// PolicyExtrapolate extends the first and last segments linearly.
	PolicyExtrapolate
)

// DefaultPenaltyPerUnit is the clamp policy's penalty per second (or score
// unit) beyond the worst tabled value.
const DefaultPenaltyPerUnit = 10

func (p Policy) String() string {
	if p == PolicyExtrapolate {
		return "extrapolate"
	}
	return "clamp"
}

// ParsePolicy parses "clamp" or "extrapolate".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp":
		return PolicyClamp, nil
	case "extrapolate":
		return PolicyExtrapolate, nil
	}
	return PolicyClamp, fmt.Errorf("unknown boundary policy %q", s)
}

// MissFunc is called when a lookup finds no curve.
type MissFunc func(eventKey string, scoringAge int)

// Engine scores performances against immutable tables. It is safe for
// concurrent use.
type Engine struct {
	tables  *Tables
	policy  Policy
	penalty float64
	logger  *slog.Logger
	onMiss  MissFunc

	warned sync.Map
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithPolicy sets the boundary policy.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithPenaltyPerUnit sets the clamp policy's penalty slope.
func WithPenaltyPerUnit(penalty float64) Option {
	return func(e *Engine) {
		if penalty >= 0 && finite(penalty) {
			e.penalty = penalty
		}
	}
}

// WithLogger sets the logger lookup misses are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMissObserver registers a callback for every lookup miss.
func WithMissObserver(fn MissFunc) Option {
	return func(e *Engine) {
		e.onMiss = fn
	}
}

// New creates an Engine over tables. A nil tables value scores everything 0.
func New(tables *Tables, opts ...Option) *Engine {
	if tables == nil {
		tables, _ = NewTables(nil)
	}
	e := &Engine{
		tables:  tables,
		policy:  PolicyClamp,
		penalty: DefaultPenaltyPerUnit,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the engine's boundary policy.
func (e *Engine) Policy() Policy { return e.policy }

// ErrNoTable is returned by Lookup when no curve matches an event key.
var ErrNoTable = errors.New("no point table for event key")

// Points converts a performance value into points for the event key
// ("Women's 50 Freestyle (SCY)", "Men's Chin-Ups"). It never fails: keys
// without a table and non-positive values score 0.
func (e *Engine) Points(eventKey string, value float64, age, maxAge *int) float64 {
	pts, err := e.Lookup(eventKey, value, age, maxAge)
	if err != nil {
		e.miss(eventKey, ScoringAge(age, maxAge), err)
		return 0
	}
	return pts
}

// Lookup is Points without the fallback: a key with no table returns an
// error wrapping ErrNoTable. Non-positive values still score 0.
func (e *Engine) Lookup(eventKey string, value float64, age, maxAge *int) (float64, error) {
	if !finite(value) || value <= 0 {
		return 0, nil
	}
	sa := ScoringAge(age, maxAge)

	gender, desc, ok := SplitKey(eventKey)
	if !ok {
		return 0, fmt.Errorf("%w: invalid event key %q", ErrNoTable, eventKey)
	}
	c, ok := e.tables.Curve(sa, gender, desc)
	if !ok {
		return 0, fmt.Errorf("%w: %q at age %d", ErrNoTable, eventKey, sa)
	}
	return c.Evaluate(value, e.policy, e.penalty), nil
}

func (e *Engine) miss(key string, age int, err error) {
	if e.onMiss != nil {
		e.onMiss(key, age)
	}
	if _, seen := e.warned.LoadOrStore(key+"|"+strconv.Itoa(age), struct{}{}); seen {
		return
	}
	e.logger.Warn("score lookup missed", "event_key", key, "scoring_age", age, "error", err)
}

// SplitKey separates an event key into its table gender and descriptor.
// Mixed keys use the men's tables.
func SplitKey(key string) (gender, desc string, ok bool) {
	k := strings.TrimSpace(key)
	i := strings.IndexByte(k, ' ')
	if i <= 0 {
		return "", "", false
	}
	desc = strings.TrimSpace(k[i+1:])
	if desc == "" {
		return "", "", false
	}
	switch k[:i] {
	case Men, "Mixed":
		return Men, desc, true
	case Women:
		return Women, desc, true
	}
	return "", "", false
}

// ScoringAge resolves the age whose table is queried. A valid age (>= 1)
// is used as is up to 14, older athletes use the open table. Without a
// valid age the event's max age is used the same way, and without either
// the open table.
func ScoringAge(age, maxAge *int) int {
	for _, a := range []*int{age, maxAge} {
		if a == nil || *a < 1 {
			continue
		}
		if *a < OpenAge {
			return *a
		}
		return OpenAge
	}
	return OpenAge
}

// Evaluate interpolates value along the curve. Inside the tabled range
// points are piecewise linear; outside it the policy applies. The result
// is never negative.
func (c Curve) Evaluate(value float64, policy Policy, penalty float64) float64 {
	n := len(c)
	if n == 0 || !finite(value) || value <= 0 {
		return 0
	}
	if n == 1 {
		return math.Max(0, c[0].Points)
	}

	first, last := c[0], c[n-1]
	if value >= first.Value && value <= last.Value {
		i := sort.Search(n, func(i int) bool { return c[i].Value >= value })
		if c[i].Value == value {
			return math.Max(0, c[i].Points)
		}
		return math.Max(0, lerp(c[i-1], c[i], value))
	}

	if policy == PolicyExtrapolate {
		if value < first.Value {
			return math.Max(0, lerp(c[0], c[1], value))
		}
		return math.Max(0, lerp(c[n-2], c[n-1], value))
	}

	// Points rising with value means a score curve: the best end is the
	// largest value. Otherwise it is a race curve.
	if last.Points > first.Points {
		if value > last.Value {
			return math.Max(0, last.Points)
		}
		return math.Max(0, first.Points-penalty*(first.Value-value))
	}
	if value < first.Value {
		return math.Max(0, first.Points)
	}
	return math.Max(0, last.Points-penalty*(value-last.Value))
}

func lerp(a, b Point, v float64) float64 {
	return a.Points + (b.Points-a.Points)*(v-a.Value)/(b.Value-a.Value)
}
