package core

import (
	"testing"
)

func TestExtractRow(t *testing.T) {
	cols := IdentifyColumns([]string{"First Name", "Last Name", "Age", "Team", "Gender", "Chin-Ups", "Dips"})

	tests := []struct {
		name        string
		row         []string
		wantEntry   bool
		wantFull    string
		wantAge     *int
		wantTeam    string
		wantCode    string
		wantScores  int
		wantErrors  int
		wantSkipped bool
	}{
		{
			name:       "complete row",
			row:        []string{"Jane", "Doe", "12", "Sharks Swim Club", "F", "8", "15"},
			wantEntry:  true,
			wantFull:   "Jane Doe",
			wantAge:    IntPtr(12),
			wantTeam:   "Sharks Swim Club",
			wantCode:   "Sharks Swi",
			wantScores: 2,
		},
		{
			name:       "zero and negative scores dropped",
			row:        []string{"Jane", "Doe", "12", "SSC", "F", "0", "-2"},
			wantEntry:  true,
			wantFull:   "Jane Doe",
			wantAge:    IntPtr(12),
			wantTeam:   "SSC",
			wantCode:   "SSC",
			wantScores: 0,
		},
		{
			name:       "malformed age is blank and reported",
			row:        []string{"Jane", "Doe", "twelve", "", "F", "8", ""},
			wantEntry:  true,
			wantFull:   "Jane Doe",
			wantTeam:   DefaultTeamName,
			wantCode:   DefaultTeamCode,
			wantScores: 1,
			wantErrors: 1,
		},
		{
			name:       "malformed score is reported",
			row:        []string{"Jane", "Doe", "12", "SSC", "F", "n/a", "4"},
			wantEntry:  true,
			wantFull:   "Jane Doe",
			wantAge:    IntPtr(12),
			wantTeam:   "SSC",
			wantCode:   "SSC",
			wantScores: 1,
			wantErrors: 1,
		},
		{
			name:       "short row",
			row:        []string{"Jane", "Doe", "12", "SSC", "F", "6"},
			wantEntry:  true,
			wantFull:   "Jane Doe",
			wantAge:    IntPtr(12),
			wantTeam:   "SSC",
			wantCode:   "SSC",
			wantScores: 1,
		},
		{
			name:        "missing first name skips row",
			row:         []string{"", "Doe", "12", "SSC", "F", "6", "2"},
			wantErrors:  1,
			wantSkipped: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, errs := ExtractRow(cols, tt.row, 7)
			if len(errs) != tt.wantErrors {
				t.Fatalf("ExtractRow() errors = %v, want %d", errs, tt.wantErrors)
			}
			for _, e := range errs {
				if e.Line != 7 {
					t.Errorf("RowError.Line = %d, want 7", e.Line)
				}
				if e.Skipped != tt.wantSkipped {
					t.Errorf("RowError.Skipped = %v, want %v", e.Skipped, tt.wantSkipped)
				}
			}
			if (entry != nil) != tt.wantEntry {
				t.Fatalf("ExtractRow() entry = %v, want entry %v", entry, tt.wantEntry)
			}
			if entry == nil {
				return
			}
			p := entry.Participant
			if p.FullName != tt.wantFull {
				t.Errorf("FullName = %q, want %q", p.FullName, tt.wantFull)
			}
			if (p.Age == nil) != (tt.wantAge == nil) || (p.Age != nil && *p.Age != *tt.wantAge) {
				t.Errorf("Age = %v, want %v", p.Age, tt.wantAge)
			}
			if p.TeamName != tt.wantTeam || p.TeamCode != tt.wantCode {
				t.Errorf("Team = (%q, %q), want (%q, %q)", p.TeamCode, p.TeamName, tt.wantCode, tt.wantTeam)
			}
			if len(entry.Scores) != tt.wantScores {
				t.Errorf("Scores = %v, want %d", entry.Scores, tt.wantScores)
			}
		})
	}
}

func TestExtractRow_FullNameColumn(t *testing.T) {
	cols := IdentifyColumns([]string{"Athlete", "Gender", "Push-Ups"})

	entry, errs := ExtractRow(cols, []string{"Jane Q  Doe", "female", "20"}, 2)
	if len(errs) != 0 {
		t.Fatalf("ExtractRow() errors = %v", errs)
	}
	p := entry.Participant
	if p.FirstName != "Jane" || p.LastName != "Q Doe" || p.FullName != "Jane Q Doe" {
		t.Errorf("name = (%q, %q, %q)", p.FirstName, p.LastName, p.FullName)
	}
	if p.Gender != GenderFemale {
		t.Errorf("Gender = %q, want %q", p.Gender, GenderFemale)
	}
	if p.Age != nil {
		t.Errorf("Age = %v, want nil", *p.Age)
	}
}

func TestExtract(t *testing.T) {
	cols := IdentifyColumns([]string{"Name", "Age", "Dips"})
	rows := [][]string{
		{"Ann Lee", "10", "5"},
		{"", "", ""},
		{"", "11", "4"},
		{"Bo Chen", "11", "0"},
	}

	x := Extract(cols, rows, 2)

	if len(x.Entries) != 2 {
		t.Fatalf("Entries = %d, want 2", len(x.Entries))
	}
	if x.Entries[0].Line != 2 || x.Entries[1].Line != 5 {
		t.Errorf("lines = %d, %d, want 2, 5", x.Entries[0].Line, x.Entries[1].Line)
	}
	if got := x.Skipped(); got != 1 {
		t.Errorf("Skipped() = %d, want 1", got)
	}
	if x.RowErrors[0].Line != 4 {
		t.Errorf("RowErrors[0].Line = %d, want 4", x.RowErrors[0].Line)
	}
}
