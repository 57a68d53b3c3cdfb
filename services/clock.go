package services

import "time"

// Clock supplies "now". Services take an injected Clock so lock transitions
// and cadence windows stay deterministic under test.
type Clock func() time.Time

const dateKeyLayout = "2006-01-02"

// resolveLocation resolves an IANA timezone name, falling back to UTC when
// the name is empty or unresolvable.
func resolveLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// dateKeyIn renders the calendar date of t in loc. All cadence comparisons
// are by date-key equality, never raw instant comparison.
func dateKeyIn(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateKeyLayout)
}
