package normalize

import (
	"strings"
	"time"
)

// Clock is a time of day in the caller's local timezone.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// DayTimes holds the configurable instants behind the day-phrase shortcuts.
// The defaults follow the convention the assistant advertises to users:
// "end of day" is the last second of the day, "close of business" is 17:00.
type DayTimes struct {
	EndOfDay        Clock
	CloseOfBusiness Clock
}

// DefaultDayTimes returns the stock convention.
func DefaultDayTimes() DayTimes {
	return DayTimes{
		EndOfDay:        Clock{Hour: 23, Minute: 59, Second: 59},
		CloseOfBusiness: Clock{Hour: 17},
	}
}

// TimeResult is the outcome of a day-phrase normalization.
type TimeResult struct {
	// Time is the resolved instant in UTC.
	Time time.Time

	// Matched is false when the phrase is not a known day-phrase. Time is
	// the zero value in that case.
	Matched bool

	// Confident is false when no timezone was supplied and UTC was
	// assumed; the orchestrator may confirm with the user.
	Confident bool
}

// TimeOfDay resolves "end of day" / "close of business" style phrases
// against the given reference date. loc carries the caller's timezone; nil
// means UTC with the low-confidence flag set.
func (d DayTimes) TimeOfDay(phrase string, ref time.Time, loc *time.Location) TimeResult {
	confident := loc != nil
	if loc == nil {
		loc = time.UTC
	}

	var clock Clock
	switch canonicalDayPhrase(phrase) {
	case "eod":
		clock = d.EndOfDay
	case "cob":
		clock = d.CloseOfBusiness
	default:
		return TimeResult{}
	}

	local := ref.In(loc)
	resolved := time.Date(local.Year(), local.Month(), local.Day(), clock.Hour, clock.Minute, clock.Second, 0, loc)

	return TimeResult{
		Time:      resolved.UTC(),
		Matched:   true,
		Confident: confident,
	}
}

// TimeOfDay resolves a day phrase using the default convention.
func TimeOfDay(phrase string, ref time.Time, loc *time.Location) TimeResult {
	return DefaultDayTimes().TimeOfDay(phrase, ref, loc)
}

func canonicalDayPhrase(phrase string) string {
	p := strings.ToLower(strings.TrimSpace(phrase))
	p = strings.TrimSuffix(p, ".")
	switch p {
	case "eod", "end of day", "end of the day", "by end of day", "by eod", "tonight":
		return "eod"
	case "cob", "close of business", "by close of business", "by cob", "end of business":
		return "cob"
	}
	return ""
}
