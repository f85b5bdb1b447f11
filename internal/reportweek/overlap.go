package reportweek

// Span is an existing report week period as seen by the overlap check.
type Span struct {
	ID             string
	WeekEndingDate Date
	Period         Period
}

// FirstOverlap returns the first span in existing that intersects candidate,
// skipping excludeID (the record being edited, if any).
func FirstOverlap(candidate Period, existing []Span, excludeID string) (Span, bool) {
	for _, s := range existing {
		if excludeID != "" && s.ID == excludeID {
			continue
		}
		if candidate.Overlaps(s.Period) {
			return s, true
		}
	}
	return Span{}, false
}

// HasOverlap reports whether candidate intersects any span other than excludeID.
func HasOverlap(candidate Period, existing []Span, excludeID string) bool {
	_, ok := FirstOverlap(candidate, existing, excludeID)
	return ok
}
