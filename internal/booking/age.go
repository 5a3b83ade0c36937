package booking

import (
	"strings"
	"time"
)

// AdultAge is the age from which a traveler may go without a guardian.
const AdultAge = 18

const dateLayout = "2006-01-02"

// ParseDOB parses a YYYY-MM-DD date of birth.
func ParseDOB(raw string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(raw))
}

// Age returns the number of whole years elapsed between dob and now.
// A birthday later in the year than now has not been counted yet.
func Age(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// IsMinor reports whether a parseable date of birth makes the traveler younger than AdultAge.
// Empty or malformed dates are not minors; Validate reports them separately.
func IsMinor(rawDOB string, now time.Time) bool {
	if strings.TrimSpace(rawDOB) == "" {
		return false
	}
	dob, err := ParseDOB(rawDOB)
	if err != nil {
		return false
	}
	return Age(dob, now) < AdultAge
}
