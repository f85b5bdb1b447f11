package reportweek

import "time"

// IsFriday reports whether d falls on a Friday.
func IsFriday(d Date) bool {
	return d.Weekday() == time.Friday
}

// IsValidFridayDate fails closed: malformed, out-of-range and non-Friday
// inputs all return false.
func IsValidFridayDate(s string) bool {
	d, err := ParseDate(s)
	if err != nil {
		return false
	}
	return IsFriday(d)
}

// ParseFriday parses a week-ending date and requires it to be a Friday.
func ParseFriday(s string) (Date, error) {
	d, err := ParseDate(s)
	if err != nil {
		return Date{}, Validationf("week_ending_date %q is not a valid YYYY-MM-DD date", s)
	}
	if !IsFriday(d) {
		return Date{}, Validationf("week_ending_date %s is a %s, must be a Friday", d, d.Weekday())
	}
	return d, nil
}

// MondayOf returns the first day of the reporting week ending on friday.
func MondayOf(friday Date) Date {
	return friday.AddDays(-4)
}
