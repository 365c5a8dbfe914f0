package core

import (
	"strings"
	"unicode"
)

// Role is the semantic role a header column plays.
type Role int

const (
	RoleUnrecognized Role = iota
	RoleFirstName
	RoleLastName
	RoleFullName
	RoleAge
	RoleTeam
	RoleGender
	RoleEvent
)

func (r Role) String() string {
	switch r {
	case RoleFirstName:
		return "first_name"
	case RoleLastName:
		return "last_name"
	case RoleFullName:
		return "name"
	case RoleAge:
		return "age"
	case RoleTeam:
		return "team"
	case RoleGender:
		return "gender"
	case RoleEvent:
		return "event"
	default:
		return "unrecognized"
	}
}

// Header synonym tables. Matching is exact on the lower-cased, trimmed
// header unless noted.
var (
	firstNameHeaders = []string{"first name", "firstname", "first", "fname", "given name"}
	lastNameHeaders  = []string{"last name", "lastname", "last", "lname", "surname", "family name"}
	fullNameHeaders  = []string{"name", "athlete", "swimmer", "athlete name", "swimmer name", "full name"}
	ageHeaders       = []string{"age", "athlete age", "swimmer age"}
	teamHeaders      = []string{"team", "club", "team name", "club name", "team code"}
	genderHeaders    = []string{"sex", "m/f", "male/female"}

	// eventKeywords mark exercise columns by substring.
	eventKeywords = []string{
		"chin-up", "chinup", "chin up", "pull-up", "pullup", "pull up",
		"dip", "vertical jump", "vert jump", "jump",
		"push-up", "pushup", "push up", "press-up", "pressup",
		"sit-up", "situp", "sit up", "crunch",
		"plank", "burpee",
		"sprint", "run", "dash", "mile", "100m", "200m", "400m",
		"squat", "leg press", "bench", "deadlift", "dead lift",
	}

	// claimedLabels never become event columns.
	claimedLabels = []string{"age", "team", "name", "first", "last", "gender"}

	// headerMarkers identify the header row of a sheet.
	headerMarkers = []string{"name", "athlete", "swimmer"}
)

// DefaultHeaderSearchRows is how many leading rows are scanned for a
// header row.
const DefaultHeaderSearchRows = 10

// ClassifyHeader returns the role a single header label plays on its own.
// Whether a full-name column is used depends on the other headers; see
// IdentifyColumns.
func ClassifyHeader(header string) Role {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return RoleUnrecognized
	}

	switch {
	case contains(firstNameHeaders, h):
		return RoleFirstName
	case contains(lastNameHeaders, h):
		return RoleLastName
	case contains(fullNameHeaders, h):
		return RoleFullName
	case contains(ageHeaders, h):
		return RoleAge
	case contains(teamHeaders, h):
		return RoleTeam
	case strings.Contains(h, "gender") || contains(genderHeaders, h):
		return RoleGender
	case isEventHeader(h):
		return RoleEvent
	}
	return RoleUnrecognized
}

func isEventHeader(h string) bool {
	for _, kw := range eventKeywords {
		if strings.Contains(h, kw) {
			return true
		}
	}
	if contains(claimedLabels, h) {
		return false
	}
	stripped := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(h)
	if len([]rune(h)) <= 2 || stripped == "" {
		return false
	}
	for _, r := range stripped {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// EventColumn is a score column: its original header and position.
type EventColumn struct {
	Label string `json:"label"`
	Index int    `json:"index"`
}

// ColumnMap records where each role lives. Absent roles are -1.
type ColumnMap struct {
	FirstName int
	LastName  int
	FullName  int
	Age       int
	Team      int
	Gender    int
	Events    []EventColumn
}

// IdentifyColumns classifies a header row. The first header wins each
// single-valued role; a full-name column is only kept when no split-name
// column precedes it; event columns keep their left-to-right order.
func IdentifyColumns(header []string) ColumnMap {
	m := ColumnMap{FirstName: -1, LastName: -1, FullName: -1, Age: -1, Team: -1, Gender: -1}

	claim := func(slot *int, i int) {
		if *slot < 0 {
			*slot = i
		}
	}

	for i, h := range header {
		switch ClassifyHeader(h) {
		case RoleFirstName:
			claim(&m.FirstName, i)
		case RoleLastName:
			claim(&m.LastName, i)
		case RoleFullName:
			if m.FirstName < 0 && m.LastName < 0 {
				claim(&m.FullName, i)
			}
		case RoleAge:
			claim(&m.Age, i)
		case RoleTeam:
			claim(&m.Team, i)
		case RoleGender:
			claim(&m.Gender, i)
		case RoleEvent:
			m.Events = append(m.Events, EventColumn{Label: strings.TrimSpace(h), Index: i})
		}
	}
	return m
}

// HasSplitName reports whether both first and last name columns exist.
func (m ColumnMap) HasSplitName() bool {
	return m.FirstName >= 0 && m.LastName >= 0
}

// Validate returns a SchemaError when the file cannot produce results.
func (m ColumnMap) Validate() error {
	var missing []string
	if !m.HasSplitName() && m.FullName < 0 {
		missing = append(missing, "name")
	}
	if len(m.Events) == 0 {
		missing = append(missing, "event")
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// FindHeaderRow returns the index of the first row within the first limit
// rows holding a "name", "athlete" or "swimmer" cell, or 0 when none does.
func FindHeaderRow(records [][]string, limit int) int {
	if limit <= 0 {
		limit = DefaultHeaderSearchRows
	}
	if len(records) < limit {
		limit = len(records)
	}

	for i := 0; i < limit; i++ {
		for _, cell := range records[i] {
			if contains(headerMarkers, strings.ToLower(CleanCell(cell))) {
				return i
			}
		}
	}
	return 0
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
