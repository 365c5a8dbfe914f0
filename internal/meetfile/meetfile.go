// Package meetfile decodes pre-parsed meet records from YAML or JSON.
//
// Line-record decoders (HY3, CL2) run outside this program and export their
// result in this shape:
//
//	name: Winter Invite
//	course: SCY
//	teams:
//	  - {code: SSC, name: Sharks Swim Club}
//	events:
//	  - number: 1
//	    distance: 50
//	    stroke: FR
//	    gender: F
//	    max_age: 10
//	    entries:
//	      - swimmers: [{first_name: Jane, last_name: Doe, age: 10, team: SSC}]
//	        prelim: "34.50"
//	        final: "33.90"
package meetfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/swimscore/internal/core"
)

type meetDoc struct {
	Name   string     `yaml:"name"`
	Course string     `yaml:"course"`
	Teams  []teamDoc  `yaml:"teams"`
	Events []eventDoc `yaml:"events"`
}

type teamDoc struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

type eventDoc struct {
	Number   int        `yaml:"number"`
	Distance int        `yaml:"distance"`
	Stroke   string     `yaml:"stroke"`
	Gender   string     `yaml:"gender"`
	Relay    bool       `yaml:"relay"`
	MinAge   *int       `yaml:"min_age"`
	MaxAge   *int       `yaml:"max_age"`
	Course   string     `yaml:"course"`
	Entries  []entryDoc `yaml:"entries"`
}

type entryDoc struct {
	Swimmers     []swimmerDoc `yaml:"swimmers"`
	Prelim       timeText     `yaml:"prelim"`
	SwimOff      timeText     `yaml:"swim_off"`
	Final        timeText     `yaml:"final"`
	Disqualified bool         `yaml:"dq"`
}

type swimmerDoc struct {
	FirstName     string `yaml:"first_name"`
	MiddleInitial string `yaml:"middle_initial"`
	LastName      string `yaml:"last_name"`
	Age           *int   `yaml:"age"`
	Gender        string `yaml:"gender"`
	Team          string `yaml:"team"`
}

// timeText accepts times written as strings ("1:03.21") or numbers (63.21).
// A non-scalar value is kept as an error so only its entry is dropped.
type timeText struct {
	raw string
	err error
}

func (t *timeText) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		t.err = fmt.Errorf("line %d: time must be a scalar", n.Line)
		return nil
	}
	t.raw = n.Value
	return nil
}

func (t timeText) seconds() (*float64, error) {
	if t.err != nil {
		return nil, t.err
	}
	v, err := core.ParseDuration(t.raw)
	if err != nil || v <= 0 {
		return nil, err
	}
	return &v, nil
}

// Decode parses a meet record. JSON input is accepted as YAML. Events
// with an unknown stroke or distance and entries with an unreadable time
// are dropped and reported in Meet.RowErrors; a disqualified entry with
// an unreadable time keeps no time instead.
func Decode(data []byte) (*core.Meet, error) {
	var doc meetDoc
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, core.ErrEmptyInput
		}
		return nil, fmt.Errorf("decode meet: %w", err)
	}

	m := &core.Meet{
		Name:   doc.Name,
		Course: core.ParseCourse(doc.Course),
	}
	for _, t := range doc.Teams {
		m.Teams = append(m.Teams, core.Team{Code: t.Code, Name: t.Name})
	}

	for i, ed := range doc.Events {
		ev, rowErrs, err := convertEvent(ed, m.Course)
		if err != nil {
			m.RowErrors = append(m.RowErrors, core.RowError{
				Line:    i + 1,
				Column:  eventColumn(ed.Number),
				Reason:  "event skipped: " + err.Error(),
				Skipped: true,
			})
			continue
		}
		m.RowErrors = append(m.RowErrors, rowErrs...)
		m.Events = append(m.Events, ev)
	}
	return m, nil
}

func eventColumn(number int) string {
	return fmt.Sprintf("event %d", number)
}

func convertEvent(ed eventDoc, course core.Course) (core.MeetEvent, []core.RowError, error) {
	stroke, err := core.ParseStroke(ed.Stroke)
	if err != nil {
		return core.MeetEvent{}, nil, err
	}
	if ed.Distance <= 0 {
		return core.MeetEvent{}, nil, fmt.Errorf("invalid distance %d", ed.Distance)
	}

	ev := core.MeetEvent{
		Number:   ed.Number,
		Distance: ed.Distance,
		Stroke:   stroke,
		Gender:   core.ParseGender(ed.Gender),
		Relay:    ed.Relay,
		MinAge:   ed.MinAge,
		MaxAge:   ed.MaxAge,
		Course:   course,
	}
	if ed.Course != "" {
		ev.Course = core.ParseCourse(ed.Course)
	}

	var rowErrs []core.RowError
	for i, en := range ed.Entries {
		entry, err := convertEntry(en)
		if err != nil {
			rowErrs = append(rowErrs, core.RowError{
				Line:    i + 1,
				Column:  eventColumn(ed.Number),
				Reason:  err.Error(),
				Data:    swimmerNames(entry.Swimmers),
				Skipped: true,
			})
			continue
		}
		ev.Entries = append(ev.Entries, entry)
	}
	return ev, rowErrs, nil
}

func convertEntry(en entryDoc) (core.MeetEntry, error) {
	entry := core.MeetEntry{Disqualified: en.Disqualified}
	for _, s := range en.Swimmers {
		entry.Swimmers = append(entry.Swimmers, core.Swimmer{
			FirstName:     s.FirstName,
			MiddleInitial: s.MiddleInitial,
			LastName:      s.LastName,
			Age:           s.Age,
			Gender:        core.ParseGender(s.Gender),
			TeamCode:      s.Team,
		})
	}

	phases := []struct {
		dst  **float64
		text timeText
	}{
		{&entry.Prelim, en.Prelim},
		{&entry.SwimOff, en.SwimOff},
		{&entry.Final, en.Final},
	}
	for _, ph := range phases {
		v, err := ph.text.seconds()
		if err != nil && !entry.Disqualified {
			return entry, err
		}
		*ph.dst = v
	}
	return entry, nil
}

func swimmerNames(swimmers []core.Swimmer) []string {
	var names []string
	for _, s := range swimmers {
		if n := s.FullName(); n != "" {
			names = append(names, n)
		}
	}
	return names
}
