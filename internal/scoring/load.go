package scoring

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// tableFile is the on-disk layout: age -> gender -> event -> value -> points.
// Ages are "1".."14" plus "15", "15+" or "15plus" for the open table.
// JSON documents decode the same way.
type tableFile map[string]map[string]map[string]map[string]float64

// Decode reads a point-table document and validates it.
//
//	"10":
//	  "Women's":
//	    "50 Freestyle (SCY)":
//	      "33.50": 1000
//	      "41.20": 800
func Decode(r io.Reader) (*Tables, error) {
	var doc tableFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return NewTables(nil)
		}
		return nil, fmt.Errorf("decode point tables: %w", err)
	}

	var entries []Entry
	for ageKey, byGender := range doc {
		age, err := parseAgeKey(ageKey)
		if err != nil {
			return nil, err
		}
		for gender, byEvent := range byGender {
			for event, raw := range byEvent {
				points, err := parsePoints(raw)
				if err != nil {
					return nil, fmt.Errorf("table %s %s age %s: %w", gender, event, ageKey, err)
				}
				entries = append(entries, Entry{Age: age, Gender: gender, Event: event, Points: points})
			}
		}
	}

	// Map iteration order is random; keep errors deterministic.
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Age != b.Age {
			return a.Age < b.Age
		}
		if a.Gender != b.Gender {
			return a.Gender < b.Gender
		}
		return a.Event < b.Event
	})
	return NewTables(entries)
}

// LoadFile reads point tables from a YAML or JSON file.
func LoadFile(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open point tables: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func parseAgeKey(key string) (int, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	switch k {
	case "15+", "15plus", "open":
		return OpenAge, nil
	}
	age, err := strconv.Atoi(k)
	if err != nil || age < 1 {
		return 0, fmt.Errorf("invalid age key %q", key)
	}
	if age > OpenAge {
		return 0, fmt.Errorf("age key %q above open age %d", key, OpenAge)
	}
	return age, nil
}

// parsePoints converts a value->points map into an ascending curve.
// Keys that parse to the same value are rejected.
func parsePoints(raw map[string]float64) ([]Point, error) {
	points := make([]Point, 0, len(raw))
	for k, pts := range raw {
		v, err := strconv.ParseFloat(strings.TrimSpace(k), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", k)
		}
		points = append(points, Point{Value: v, Points: pts})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Value < points[j].Value })
	return points, nil
}
