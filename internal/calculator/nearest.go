package calculator

import (
	"sort"
	"time"

	"EarningsChart/internal/model"
)

// ResolveNearest returns the trading date in calendar closest to target.
// The calendar must be strictly ascending. Distances are measured in whole
// calendar days, so weekend and holiday gaps count. On an exact tie the
// earlier date wins.
func ResolveNearest(calendar []time.Time, target time.Time) (time.Time, error) {
	if len(calendar) == 0 {
		return time.Time{}, model.Errorf(model.KindInvalidInput, "trading calendar is empty")
	}
	target = model.DateOf(target)

	pos := sort.Search(len(calendar), func(i int) bool {
		return !model.DateOf(calendar[i]).Before(target)
	})
	if pos < len(calendar) && model.DateOf(calendar[pos]).Equal(target) {
		return calendar[pos], nil
	}
	if pos == 0 {
		return calendar[0], nil
	}
	if pos == len(calendar) {
		return calendar[len(calendar)-1], nil
	}

	before, after := calendar[pos-1], calendar[pos]
	if dayDistance(before, target) <= dayDistance(target, after) {
		return before, nil
	}
	return after, nil
}

// indexOf returns the position of date's calendar day in calendar, or -1.
// Both sides are compared as calendar dates.
func indexOf(calendar []time.Time, date time.Time) int {
	date = model.DateOf(date)
	pos := sort.Search(len(calendar), func(i int) bool {
		return !model.DateOf(calendar[i]).Before(date)
	})
	if pos < len(calendar) && model.DateOf(calendar[pos]).Equal(date) {
		return pos
	}
	return -1
}

func dayDistance(a, b time.Time) int {
	d := int(model.DateOf(b).Sub(model.DateOf(a)).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}
