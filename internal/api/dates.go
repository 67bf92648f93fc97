package api

import (
	"fmt"
	"regexp"
	"time"
)

const isoDate = "2006-01-02"

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ResolveDateToken turns a relative date token into a concrete ISO
// date. Accepted tokens: "today", "tomorrow", "weekend" (the upcoming
// Saturday; on a Saturday or Sunday, that day itself), or an ISO date
// passed through verbatim.
func ResolveDateToken(token string, now time.Time) (string, error) {
	switch token {
	case "", "today":
		return now.Format(isoDate), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format(isoDate), nil
	case "weekend", "this-weekend":
		return upcomingWeekend(now).Format(isoDate), nil
	}
	if isoDatePattern.MatchString(token) {
		if _, err := time.Parse(isoDate, token); err == nil {
			return token, nil
		}
	}
	return "", fmt.Errorf("unrecognized date token %q", token)
}

func upcomingWeekend(now time.Time) time.Time {
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return now
	default:
		days := int(time.Saturday - now.Weekday())
		return now.AddDate(0, 0, days)
	}
}
