package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestClassifyHeader(t *testing.T) {
	tests := []struct {
		header string
		want   Role
	}{
		{"First Name", RoleFirstName},
		{"fname", RoleFirstName},
		{"Last Name", RoleLastName},
		{"Surname", RoleLastName},
		{"Name", RoleFullName},
		{"Swimmer Name", RoleFullName},
		{"Athlete", RoleFullName},
		{" AGE ", RoleAge},
		{"Club", RoleTeam},
		{"Team Code", RoleTeam},
		{"Gender", RoleGender},
		{"Athlete Gender", RoleGender},
		{"M/F", RoleGender},
		{"Sex", RoleGender},
		{"Chin-Ups", RoleEvent},
		{"Vertical Jump (in)", RoleEvent},
		{"Plank Hold", RoleEvent},
		{"Broad Throw", RoleEvent},
		{"Notes #", RoleUnrecognized},
		{"ID", RoleUnrecognized},
		{"", RoleUnrecognized},
		{"   ", RoleUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := ClassifyHeader(tt.header); got != tt.want {
				t.Errorf("ClassifyHeader(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestIdentifyColumns(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   ColumnMap
	}{
		{
			name:   "split names",
			header: []string{"First Name", "Last Name", "Age", "Team", "Gender", "Chin-Ups"},
			want: ColumnMap{
				FirstName: 0, LastName: 1, FullName: -1, Age: 2, Team: 3, Gender: 4,
				Events: []EventColumn{{Label: "Chin-Ups", Index: 5}},
			},
		},
		{
			name:   "full name fallback",
			header: []string{"Name", "Age", "Dips", "Push-Ups"},
			want: ColumnMap{
				FirstName: -1, LastName: -1, FullName: 0, Age: 1, Team: -1, Gender: -1,
				Events: []EventColumn{{Label: "Dips", Index: 2}, {Label: "Push-Ups", Index: 3}},
			},
		},
		{
			name:   "full name never overrides split name",
			header: []string{"First", "Last", "Name", "Sit-Ups"},
			want: ColumnMap{
				FirstName: 0, LastName: 1, FullName: -1, Age: -1, Team: -1, Gender: -1,
				Events: []EventColumn{{Label: "Sit-Ups", Index: 3}},
			},
		},
		{
			name:   "first header wins",
			header: []string{"Name", "Age", "Swimmer Age", "Team", "Club", "Pull-Ups"},
			want: ColumnMap{
				FirstName: -1, LastName: -1, FullName: 0, Age: 1, Team: 3, Gender: -1,
				Events: []EventColumn{{Label: "Pull-Ups", Index: 5}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IdentifyColumns(tt.header)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("IdentifyColumns() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestColumnMap_Validate(t *testing.T) {
	tests := []struct {
		name        string
		header      []string
		wantMissing []string
	}{
		{name: "complete", header: []string{"Name", "Dips"}},
		{name: "no name", header: []string{"Age", "Dips"}, wantMissing: []string{"name"}},
		{name: "only first name", header: []string{"First Name", "Dips"}, wantMissing: []string{"name"}},
		{name: "no events", header: []string{"Name", "Age"}, wantMissing: []string{"event"}},
		{name: "nothing", header: []string{"#"}, wantMissing: []string{"name", "event"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := IdentifyColumns(tt.header).Validate()
			if tt.wantMissing == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("Validate() = %v, want SchemaError", err)
			}
			if !reflect.DeepEqual(se.Missing, tt.wantMissing) {
				t.Errorf("Missing = %v, want %v", se.Missing, tt.wantMissing)
			}
		})
	}
}

func TestFindHeaderRow(t *testing.T) {
	tests := []struct {
		name    string
		records [][]string
		limit   int
		want    int
	}{
		{
			name:    "header first",
			records: [][]string{{"Name", "Dips"}, {"Ann", "3"}},
			want:    0,
		},
		{
			name:    "title rows above header",
			records: [][]string{{"Spring Dryland"}, {""}, {"Athlete", "Dips"}, {"Ann", "3"}},
			want:    2,
		},
		{
			name:    "no marker uses first row",
			records: [][]string{{"First Name", "Dips"}, {"Ann", "3"}},
			want:    0,
		},
		{
			name:    "marker beyond search window",
			records: [][]string{{"x"}, {"x"}, {"Swimmer"}},
			limit:   2,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindHeaderRow(tt.records, tt.limit); got != tt.want {
				t.Errorf("FindHeaderRow() = %d, want %d", got, tt.want)
			}
		})
	}
}
