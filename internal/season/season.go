// Package season maps calendar dates to meteorological-style seasons using a
// fixed day table: Winter Dec 21 to Mar 20, Spring Mar 21 to Jun 20,
// Summer Jun 21 to Sep 22, Fall Sep 23 to Dec 20. Boundaries are inclusive.
package season

import (
	"time"

	"github.com/tphakala/soilplanner/internal/errors"
)

// Season names the four seasons of the table
type Season string

const (
	Winter Season = "Winter"
	Spring Season = "Spring"
	Summer Season = "Summer"
	Fall   Season = "Fall"
)

// String implements fmt.Stringer
func (s Season) String() string { return string(s) }

type window struct {
	season       Season
	fromMonth    time.Month
	fromDay      int
	throughMonth time.Month
	throughDay   int
}

// Windows that do not wrap the year end. Anything outside them is Winter.
var windows = []window{
	{Spring, time.March, 21, time.June, 20},
	{Summer, time.June, 21, time.September, 22},
	{Fall, time.September, 23, time.December, 20},
}

// For returns the season containing date. Only the month and day are used,
// so the result does not depend on time zone or time of day of an already
// localised date. Every date maps to exactly one season.
func For(date time.Time) Season {
	key := monthDay(date.Month(), date.Day())
	for _, w := range windows {
		if key >= monthDay(w.fromMonth, w.fromDay) && key <= monthDay(w.throughMonth, w.throughDay) {
			return w.season
		}
	}
	// Dec 21 through Mar 20, including the Jan 1 to Mar 20 tail
	return Winter
}

// Parse converts a season name produced by String back to a Season.
func Parse(name string) (Season, error) {
	switch Season(name) {
	case Winter, Spring, Summer, Fall:
		return Season(name), nil
	}
	return "", errors.Newf("invalid season %q", name).
		Component("season").
		Category(errors.CategoryValidation).
		Build()
}

func monthDay(m time.Month, d int) int {
	return int(m)*100 + d
}
