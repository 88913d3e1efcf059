package models

import "time"

func timeWeekday(n int) time.Weekday {
	if n < 0 || n > 6 {
		return time.Sunday
	}
	return time.Weekday(n)
}
