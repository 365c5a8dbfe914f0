package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Gender is the competition gender of a participant or an event.
type Gender string

const (
	GenderMale    Gender = "M"
	GenderFemale  Gender = "F"
	GenderMixed   Gender = "X"
	GenderUnknown Gender = ""
)

// Prefix returns the display prefix used in event labels.
// Mixed and unknown genders both render as "Mixed".
func (g Gender) Prefix() string {
	switch g {
	case GenderMale:
		return "Men's"
	case GenderFemale:
		return "Women's"
	default:
		return "Mixed"
	}
}

// ScoringPrefix returns the prefix used to build event keys for point-table
// lookups. Only men's and women's tables exist, so mixed and unknown
// genders score against the men's tables.
func (g Gender) ScoringPrefix() string {
	if g == GenderFemale {
		return "Women's"
	}
	return "Men's"
}

// Course is the pool configuration a swim was recorded in.
type Course string

const (
	CourseSCY Course = "SCY"
	CourseSCM Course = "SCM"
	CourseLCM Course = "LCM"
)

// ParseCourse maps the usual course spellings onto a Course.
// Unknown values default to short course yards.
func ParseCourse(s string) Course {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LCM", "L", "LC":
		return CourseLCM
	case "SCM", "S", "SC":
		return CourseSCM
	default:
		return CourseSCY
	}
}

// Stroke identifies a swimming stroke or relay type.
type Stroke string

const (
	StrokeFree   Stroke = "FR"
	StrokeBack   Stroke = "BK"
	StrokeBreast Stroke = "BR"
	StrokeFly    Stroke = "FL"
	StrokeIM     Stroke = "IM"
)

var strokeNames = map[Stroke]string{
	StrokeFree:   "Freestyle",
	StrokeBack:   "Backstroke",
	StrokeBreast: "Breaststroke",
	StrokeFly:    "Butterfly",
	StrokeIM:     "Individual Medley",
}

// Name returns the display name of the stroke.
func (s Stroke) Name() string {
	if n, ok := strokeNames[s]; ok {
		return n
	}
	return string(s)
}

// ParseStroke accepts both stroke codes and display names.
func ParseStroke(s string) (Stroke, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	for code, name := range strokeNames {
		if v == string(code) || v == strings.ToUpper(name) {
			return code, nil
		}
	}
	switch v {
	case "FREE":
		return StrokeFree, nil
	case "MEDLEY":
		return StrokeIM, nil
	}
	return "", &FormatError{Input: s, Reason: "unknown stroke"}
}

// EventKind separates timed races from magnitude-scored events.
type EventKind int

const (
	// KindRace events rank ascending by elapsed time.
	KindRace EventKind = iota
	// KindScore events (dryland exercises) rank descending by score.
	KindScore
)

func (k EventKind) String() string {
	if k == KindScore {
		return "dryland"
	}
	return "swim"
}

// Participant is one athlete as resolved from a row or meet entry.
type Participant struct {
	FullName  string
	FirstName string
	LastName  string
	Age       *int
	Gender    Gender
	TeamCode  string
	TeamName  string
}

// NaturalKey identifies the participant within a meet. Untrusted input
// carries no durable ID, so identity is the name plus the team.
func (p Participant) NaturalKey() string {
	return strings.ToLower(strings.Join(strings.Fields(p.FullName), " ")) + "|" + strings.ToUpper(p.TeamCode)
}

// EventDescriptor describes one event. Label is the activity name for
// score events; Stroke and Distance describe races.
type EventDescriptor struct {
	Number   int
	Kind     EventKind
	Distance int
	Stroke   Stroke
	Label    string
	Relay    bool
	Gender   Gender
	MinAge   *int
	MaxAge   *int
	Course   Course
}

// Descriptor returns the gender-less part of the event key.
func (e EventDescriptor) Descriptor() string {
	if e.Kind == KindScore {
		return strings.TrimSpace(e.Label)
	}
	return fmt.Sprintf("%d %s (%s)", e.Distance, e.strokeLabel(), e.course())
}

// EventKey is the join key into the point tables. Its format must stay
// stable: every table lookup depends on it.
func (e EventDescriptor) EventKey() string {
	return e.Gender.ScoringPrefix() + " " + e.Descriptor()
}

// DisplayLabel is the label results are grouped under.
func (e EventDescriptor) DisplayLabel() string {
	if e.Kind == KindScore {
		bucket := AgeBucket{Min: YoungestBucket, Max: YoungestBucket}
		if e.MinAge != nil && e.MaxAge != nil {
			bucket = AgeBucket{Min: *e.MinAge, Max: *e.MaxAge}
		}
		return fmt.Sprintf("%s %s - %s", e.Gender.Prefix(), DrylandBase(e.Label), bucket.Display())
	}
	return fmt.Sprintf("%s %s%d %s (%s)", e.Gender.Prefix(), ageGroupText(e.MinAge, e.MaxAge),
		e.Distance, e.strokeLabel(), e.course())
}

func (e EventDescriptor) strokeLabel() string {
	if !e.Relay {
		return e.Stroke.Name()
	}
	if e.Stroke == StrokeIM {
		return "Medley Relay"
	}
	return "Freestyle Relay"
}

func (e EventDescriptor) course() Course {
	if e.Course == "" {
		return CourseSCY
	}
	return e.Course
}

// ageGroupText renders "10 & Under ", "11-12 ", "13 & Over " or "" for open events.
func ageGroupText(minAge, maxAge *int) string {
	lo, hi := 0, OpenMaxAge
	if minAge != nil {
		lo = *minAge
	}
	if maxAge != nil {
		hi = *maxAge
	}
	switch {
	case lo <= 0 && hi >= OpenMaxAge:
		return ""
	case lo <= 0:
		return strconv.Itoa(hi) + " & Under "
	case hi >= OpenMaxAge:
		return strconv.Itoa(lo) + " & Over "
	case lo == hi:
		return strconv.Itoa(lo) + " "
	default:
		return fmt.Sprintf("%d-%d ", lo, hi)
	}
}

// Result is one participant's performance in one event.
type Result struct {
	Participant Participant
	Event       EventDescriptor

	Prelim  *float64
	SwimOff *float64
	Final   *float64

	PrelimPoints  float64
	SwimOffPoints float64
	FinalPoints   float64
	BestPoints    float64

	Disqualified bool
}

// BestValue picks the value a result is ranked by: final, then prelim,
// then swim-off. Non-positive values never count.
func (r Result) BestValue() (float64, bool) {
	for _, v := range []*float64{r.Final, r.Prelim, r.SwimOff} {
		if v != nil && *v > 0 {
			return *v, true
		}
	}
	return 0, false
}

// FormatValue renders a value the way the event kind displays it.
func (r Result) FormatValue(v *float64) string {
	if v == nil {
		return FormatDuration(0)
	}
	if r.Event.Kind == KindScore {
		return FormatScore(*v)
	}
	return FormatDuration(*v)
}

// BestFormatted is the displayed best value.
func (r Result) BestFormatted() string {
	v, ok := r.BestValue()
	if !ok {
		return r.FormatValue(nil)
	}
	return r.FormatValue(&v)
}

// ResultRecord is the flat, display-ready form of a Result.
type ResultRecord struct {
	Swimmer       string  `json:"swimmer" yaml:"swimmer"`
	FirstName     string  `json:"first_name" yaml:"first_name"`
	LastName      string  `json:"last_name" yaml:"last_name"`
	Age           *int    `json:"age" yaml:"age"`
	Gender        string  `json:"gender" yaml:"gender"`
	TeamCode      string  `json:"team_code" yaml:"team_code"`
	TeamName      string  `json:"team_name" yaml:"team_name"`
	Prelim        string  `json:"prelim" yaml:"prelim"`
	SwimOff       string  `json:"swim_off" yaml:"swim_off"`
	Final         string  `json:"final" yaml:"final"`
	Best          string  `json:"best" yaml:"best"`
	PrelimPoints  float64 `json:"prelim_points" yaml:"prelim_points"`
	SwimOffPoints float64 `json:"swim_off_points" yaml:"swim_off_points"`
	FinalPoints   float64 `json:"final_points" yaml:"final_points"`
	BestPoints    float64 `json:"best_points" yaml:"best_points"`
	Disqualified  bool    `json:"disqualified,omitempty" yaml:"disqualified,omitempty"`
	EventType     string  `json:"event_type" yaml:"event_type"`
}

// Record flattens the result for output.
func (r Result) Record() ResultRecord {
	return ResultRecord{
		Swimmer:       r.Participant.FullName,
		FirstName:     r.Participant.FirstName,
		LastName:      r.Participant.LastName,
		Age:           r.Participant.Age,
		Gender:        r.Participant.Gender.Prefix(),
		TeamCode:      r.Participant.TeamCode,
		TeamName:      r.Participant.TeamName,
		Prelim:        r.FormatValue(r.Prelim),
		SwimOff:       r.FormatValue(r.SwimOff),
		Final:         r.FormatValue(r.Final),
		Best:          r.BestFormatted(),
		PrelimPoints:  r.PrelimPoints,
		SwimOffPoints: r.SwimOffPoints,
		FinalPoints:   r.FinalPoints,
		BestPoints:    r.BestPoints,
		Disqualified:  r.Disqualified,
		EventType:     r.Event.Kind.String(),
	}
}

// Team is a club as listed in a meet record.
type Team struct {
	Code string
	Name string
}

// Meet is a pre-parsed meet record, the shape produced by line-record
// decoders.
type Meet struct {
	Name   string
	Course Course
	Teams  []Team
	Events []MeetEvent

	// RowErrors lists events and entries dropped while decoding.
	RowErrors []RowError
}

// MeetEvent is one event of a meet together with its entries.
type MeetEvent struct {
	Number   int
	Distance int
	Stroke   Stroke
	Gender   Gender
	Relay    bool
	MinAge   *int
	MaxAge   *int
	Course   Course
	Entries  []MeetEntry
}

// MeetEntry is one swim (or relay leg list) with its phase times.
type MeetEntry struct {
	Swimmers     []Swimmer
	Prelim       *float64
	SwimOff      *float64
	Final        *float64
	Disqualified bool
}

// Swimmer is an athlete as named in a meet record.
type Swimmer struct {
	FirstName     string
	MiddleInitial string
	LastName      string
	Age           *int
	Gender        Gender
	TeamCode      string
}

// FullName joins first, middle initial and last name.
func (s Swimmer) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.FirstName, s.MiddleInitial, s.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }
