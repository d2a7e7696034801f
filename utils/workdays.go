package utils

import "time"

// AddWorkingDays moves n working days forward from t, skipping Saturdays and
// Sundays. The start day itself is never counted.
func AddWorkingDays(t time.Time, n int) time.Time {
	d := t
	for added := 0; added < n; {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return d
}
