package scoring

import "strings"

// canonicalRule maps any descriptor containing all keywords onto Name.
type canonicalRule struct {
	Keywords []string
	Name     string
}

var canonicalRules = []canonicalRule{
	{Keywords: []string{"chin", "up"}, Name: "Chin-Ups"},
	{Keywords: []string{"pull", "up"}, Name: "Pull-Ups"},
	{Keywords: []string{"push", "up"}, Name: "Push-Ups"},
	{Keywords: []string{"sit", "up"}, Name: "Sit-Ups"},
	{Keywords: []string{"dip"}, Name: "Dips"},
	{Keywords: []string{"vertical", "jump"}, Name: "Vertical Jump"},
}

// Canonical normalizes an event descriptor so spelling variants of one
// exercise ("Chin-ups", "chin up", "Chin-Up (reps)") share a table.
// Descriptors matching no rule only have their whitespace collapsed.
func Canonical(desc string) string {
	d := strings.Join(strings.Fields(desc), " ")
	lower := strings.ToLower(d)
	for _, r := range canonicalRules {
		if containsAll(lower, r.Keywords) {
			return r.Name
		}
	}
	return d
}

func containsAll(s string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(s, kw) {
			return false
		}
	}
	return true
}
