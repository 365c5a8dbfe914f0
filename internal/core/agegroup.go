package core

import (
	"strconv"
	"strings"
)

const (
	// YoungestBucket is the youngest reporting age; younger athletes are
	// reported with it.
	YoungestBucket = 6
	// OpenMinAge and OpenMaxAge bound the open reporting bucket.
	OpenMinAge = 15
	OpenMaxAge = 99
	// DefaultReportingAge is used to group athletes whose age is unknown.
	DefaultReportingAge = 12
)

// AgeBucket is a closed, integer reporting age range. It only affects
// grouping and labels; point tables are chosen by scoring age.
type AgeBucket struct {
	Min int
	Max int
}

// ReportingBucket maps an age to its reporting bucket: singletons for 6
// through 14, (6,6) below that and the open bucket (15,99) from 15 up.
func ReportingBucket(age *int) AgeBucket {
	a := DefaultReportingAge
	if age != nil {
		a = *age
	}
	switch {
	case a < YoungestBucket:
		return AgeBucket{Min: YoungestBucket, Max: YoungestBucket}
	case a >= OpenMinAge:
		return AgeBucket{Min: OpenMinAge, Max: OpenMaxAge}
	default:
		return AgeBucket{Min: a, Max: a}
	}
}

// IsOpen reports whether b is the open bucket.
func (b AgeBucket) IsOpen() bool {
	return b.Min >= OpenMinAge
}

// Display renders the bucket as used in dryland labels.
func (b AgeBucket) Display() string {
	if b.IsOpen() {
		return "Open"
	}
	if b.Min == b.Max {
		return strconv.Itoa(b.Min)
	}
	return strconv.Itoa(b.Min) + "-" + strconv.Itoa(b.Max)
}

// DrylandBase normalizes an exercise header for display: "Chin-Ups (reps)"
// stays "Chin-Ups (reps)", stray spacing around the unit is removed.
func DrylandBase(header string) string {
	h := strings.Join(strings.Fields(header), " ")
	open := strings.Index(h, "(")
	if open < 0 {
		return h
	}
	end := strings.Index(h[open:], ")")
	if end < 0 {
		return strings.TrimSpace(h[:open])
	}
	name := strings.TrimSpace(h[:open])
	unit := strings.TrimSpace(h[open+1 : open+end])
	if unit == "" {
		return name
	}
	if name == "" {
		return unit
	}
	return name + " (" + unit + ")"
}

// DrylandEventNumber is the synthetic event number dryland columns are
// stored under.
func DrylandEventNumber(columnIndex int, bucket AgeBucket) int {
	return 9000 + columnIndex + bucket.Min*100
}
