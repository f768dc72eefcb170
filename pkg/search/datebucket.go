package search

import (
	"time"

	"github.com/yair/whats-on/pkg/domain"
)

const DateLayout = "2006-01-02"

// ResolveDate maps a symbolic date token to a calendar date in now's
// location. Unknown or empty tokens produce no constraint.
//
// this_weekend is the next Saturday on or after today, so on a Saturday it is
// today itself.
func ResolveDate(token string, now time.Time) (string, bool) {
	var offset int
	switch token {
	case domain.DateToday:
		offset = 0
	case domain.DateTomorrow:
		offset = 1
	case domain.DateThisWeekend:
		offset = (6 - int(now.Weekday()) + 7) % 7
	default:
		return "", false
	}

	year, month, day := now.Date()
	target := time.Date(year, month, day+offset, 12, 0, 0, 0, now.Location())
	return target.Format(DateLayout), true
}
