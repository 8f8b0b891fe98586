package normalize

import (
	"strings"
	"time"
)

// sundayStartRegions lists region codes whose calendars start the week on
// Sunday. Everything else follows the ISO Monday convention.
var sundayStartRegions = map[string]bool{
	"US": true,
	"CA": true,
	"JP": true,
	"BR": true,
	"MX": true,
	"PH": true,
	"KR": true,
}

// WeekStartForLocale derives the first day of the week from a BCP-47 locale
// tag ("en-US", "de_DE", "ja"). Unknown or empty locales default to Monday.
func WeekStartForLocale(locale string) time.Weekday {
	region := regionOf(locale)
	if sundayStartRegions[region] {
		return time.Sunday
	}
	return time.Monday
}

func regionOf(locale string) string {
	locale = strings.ReplaceAll(locale, "_", "-")
	parts := strings.Split(locale, "-")
	for _, p := range parts[1:] {
		if len(p) == 2 {
			return strings.ToUpper(p)
		}
	}
	return ""
}

// DateRange is an inclusive span of calendar days. Both bounds are
// midnight-normalized in the reference location.
type DateRange struct {
	From time.Time
	To   time.Time
}

// WeekRange computes the inclusive date range of the week containing ref,
// given the week-start day. Pure function of its inputs.
func WeekRange(ref time.Time, weekStart time.Weekday) DateRange {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())

	// Days since the start of the week, always in [0, 6].
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7

	from := day.AddDate(0, 0, -offset)
	to := from.AddDate(0, 0, 6)
	return DateRange{From: from, To: to}
}

// NextWeekRange computes the inclusive date range of the week after the one
// containing ref.
func NextWeekRange(ref time.Time, weekStart time.Weekday) DateRange {
	this := WeekRange(ref, weekStart)
	return DateRange{
		From: this.From.AddDate(0, 0, 7),
		To:   this.To.AddDate(0, 0, 7),
	}
}
