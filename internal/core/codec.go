package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseDuration converts "H:MM:SS.ss", "M:SS.ss" or "SS.ss" into seconds.
// Empty input and the "-" / "---" placeholders mean no time and return 0.
// Negative parts and minutes or seconds of 60 or more after a ':' are
// rejected.
func ParseDuration(text string) (float64, error) {
	s := strings.TrimSpace(text)
	if s == "" || s == "-" || s == "---" {
		return 0, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, &FormatError{Input: text, Reason: "too many ':' separated parts"}
	}

	var total float64
	for i, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &FormatError{Input: text, Reason: fmt.Sprintf("invalid time part %q", p)}
		}
		if v < 0 || strings.HasPrefix(p, "-") {
			return 0, &FormatError{Input: text, Reason: fmt.Sprintf("negative time part %q", p)}
		}
		// Only the leading part may exceed 59.
		if i > 0 && v >= 60 {
			return 0, &FormatError{Input: text, Reason: fmt.Sprintf("time part %q out of range", p)}
		}
		total = total*60 + v
	}
	return total, nil
}

// FormatDuration renders seconds for display. Non-positive values
// render as "---".
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || seconds <= 0 {
		return "---"
	}

	// Work in hundredths so rounding never yields "60.00" seconds.
	total := int64(math.Round(seconds * 100))
	if total <= 0 {
		return "---"
	}
	hours := total / 360000
	minutes := (total / 6000) % 60
	secs := (total / 100) % 60
	hundredths := total % 100

	switch {
	case hours > 0:
		return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, hundredths)
	case minutes > 0:
		return fmt.Sprintf("%d:%02d.%02d", minutes, secs, hundredths)
	default:
		return fmt.Sprintf("%d.%02d", secs, hundredths)
	}
}

// FormatScore renders a dryland score: integral values without decimals,
// fractional values to two places.
func FormatScore(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return "---"
	}
	if value == math.Trunc(value) {
		return strconv.FormatFloat(value, 'f', 0, 64)
	}
	return strconv.FormatFloat(value, 'f', 2, 64)
}

// ParseOptionalInt parses an integer cell. Blank cells return nil with no
// error; decimal notation ("12.0") is truncated.
func ParseOptionalInt(text string) (*int, error) {
	s := CleanCell(text)
	if s == "" {
		return nil, nil
	}
	if i, err := strconv.Atoi(s); err == nil {
		return &i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &FormatError{Input: text, Reason: "invalid number"}
	}
	i := int(f)
	return &i, nil
}

// ParseOptionalFloat parses a numeric cell. Blank cells return nil with
// no error. Cells holding a time ("1:02.5") are accepted as seconds.
func ParseOptionalFloat(text string) (*float64, error) {
	s := CleanCell(text)
	if s == "" {
		return nil, nil
	}
	if strings.Contains(s, ":") {
		v, err := ParseDuration(s)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &FormatError{Input: text, Reason: "invalid number"}
	}
	return &f, nil
}

// ParseGender maps free-form gender cells onto a Gender.
func ParseGender(text string) Gender {
	switch strings.ToLower(CleanCell(text)) {
	case "m", "male", "man", "men", "boy", "boys":
		return GenderMale
	case "f", "female", "woman", "women", "girl", "girls", "w":
		return GenderFemale
	case "x", "mixed", "other", "non-binary", "nonbinary", "nb":
		return GenderMixed
	default:
		return GenderUnknown
	}
}

// SplitName splits a combined name into first and last name. A single
// token is a first name only; anything after the first token is the last
// name.
func SplitName(full string) (first, last string) {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, an Excel formula wrapper (="...") and
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
