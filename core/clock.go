package core

import (
	"time"

	"github.com/pkg/errors"
)

const (
	DayLayout   = "2006-01-02"
	MonthLayout = "2006-01"
)

var (
	// KST is the class' reference time zone; calendar days (attendance, streaks) are KST days.
	KST = time.FixedZone("KST", 9*60*60)

	NowFunc = time.Now // mockable
)

// Now returns the current time in UTC.
func Now() time.Time {
	return NowFunc().UTC()
}

// Day returns the KST calendar day of t as "YYYY-MM-DD".
func Day(t time.Time) string {
	return t.In(KST).Format(DayLayout)
}

// Today returns the current KST calendar day.
func Today() string {
	return Day(NowFunc())
}

// AddDays shifts a "YYYY-MM-DD" day by n days.
func AddDays(day string, n int) (string, error) {
	t, err := time.ParseInLocation(DayLayout, day, KST)
	if err != nil {
		return "", errors.Wrapf(err, "parsing day %q", day)
	}
	return t.AddDate(0, 0, n).Format(DayLayout), nil
}

// MonthRange returns the first and last day of a "YYYY-MM" month.
func MonthRange(month string) (first, last string, err error) {
	t, err := time.ParseInLocation(MonthLayout, month, KST)
	if err != nil {
		return "", "", errors.Wrapf(err, "parsing month %q", month)
	}
	return t.Format(DayLayout), t.AddDate(0, 1, -1).Format(DayLayout), nil
}

// CurrentMonth returns the current KST month as "YYYY-MM".
func CurrentMonth() string {
	return NowFunc().In(KST).Format(MonthLayout)
}
