package core

import (
	"strings"
)

const (
	// DefaultTeamCode and DefaultTeamName stand in for a blank team cell.
	DefaultTeamCode = "UNKNOWN"
	DefaultTeamName = "Unknown Team"

	teamCodeLength = 10
)

// Score is one positive event value read from a row.
type Score struct {
	Column EventColumn
	Value  float64
}

// Entry is one extracted data row.
type Entry struct {
	Line        int
	Participant Participant
	Scores      []Score
}

// Extraction holds everything extracted from a table's data rows.
type Extraction struct {
	Entries   []Entry
	RowErrors []RowError
}

// Skipped counts rows that produced no entry.
func (x Extraction) Skipped() int {
	n := 0
	for _, e := range x.RowErrors {
		if e.Skipped {
			n++
		}
	}
	return n
}

// Extract converts data rows into entries. firstLine is the 1-based line
// number of rows[0]. Bad rows are reported and skipped; bad numeric cells
// are reported and treated as blank.
func Extract(cols ColumnMap, rows [][]string, firstLine int) Extraction {
	var x Extraction
	for i, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		entry, errs := ExtractRow(cols, row, firstLine+i)
		x.RowErrors = append(x.RowErrors, errs...)
		if entry != nil {
			x.Entries = append(x.Entries, *entry)
		}
	}
	return x
}

// ExtractRow extracts a single row. A nil entry means the row was
// skipped; the returned errors say why.
func ExtractRow(cols ColumnMap, row []string, line int) (*Entry, []RowError) {
	var errs []RowError
	rowErr := func(column, reason string, skipped bool) RowError {
		return RowError{Line: line, Column: column, Reason: reason, Data: row, Skipped: skipped}
	}

	var first, last, full string
	switch {
	case cols.HasSplitName():
		first = cell(row, cols.FirstName)
		last = cell(row, cols.LastName)
		full = strings.TrimSpace(first + " " + last)
	case cols.FullName >= 0:
		full = strings.Join(strings.Fields(cell(row, cols.FullName)), " ")
		first, last = SplitName(full)
	default:
		return nil, []RowError{rowErr("", "no name column", true)}
	}
	if first == "" {
		return nil, []RowError{rowErr("", "missing athlete name", true)}
	}

	p := Participant{
		FullName:  full,
		FirstName: first,
		LastName:  last,
		Gender:    ParseGender(cell(row, cols.Gender)),
	}

	if cols.Age >= 0 {
		age, err := ParseOptionalInt(cell(row, cols.Age))
		switch {
		case err != nil:
			errs = append(errs, rowErr("age", err.Error(), false))
		case age != nil && *age < 0:
			errs = append(errs, rowErr("age", "negative age", false))
		default:
			p.Age = age
		}
	}

	team := cell(row, cols.Team)
	p.TeamName = team
	p.TeamCode = truncateRunes(team, teamCodeLength)
	if team == "" {
		p.TeamName = DefaultTeamName
		p.TeamCode = DefaultTeamCode
	}

	entry := &Entry{Line: line, Participant: p}
	for _, ev := range cols.Events {
		if ev.Index >= len(row) {
			continue
		}
		v, err := ParseOptionalFloat(row[ev.Index])
		if err != nil {
			errs = append(errs, rowErr(ev.Label, err.Error(), false))
			continue
		}
		if v == nil || *v <= 0 {
			continue
		}
		entry.Scores = append(entry.Scores, Score{Column: ev, Value: *v})
	}
	return entry, errs
}

// cell returns the cleaned cell at idx, or "" when idx is absent or out of
// range.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return CleanCell(row[idx])
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
