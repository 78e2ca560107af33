package forecast

import (
	"time"
)

const secondsPerDay = 24 * 60 * 60

// Window is the range of calendar dates the provider can answer for,
// starting today and spanning MaxDays days inclusive.
type Window struct {
	Today   time.Time
	Last    time.Time
	MaxDays int
}

// NewWindow computes the window for now in now's location.
func NewWindow(now time.Time, maxDays int) Window {
	today := civilDate(now.Year(), now.Month(), now.Day())
	return Window{
		Today:   today,
		Last:    today.AddDate(0, 0, maxDays-1),
		MaxDays: maxDays,
	}
}

// ParseDate parses a YYYY-MM-DD string into a civil date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return civilDate(t.Year(), t.Month(), t.Day()), nil
}

// Check returns a BadRequest error when date lies past the last day of the
// window. Dates before today pass; the provider simply has no data for them.
func (w Window) Check(date time.Time, raw string) error {
	if !date.After(w.Last) {
		return nil
	}
	return BadRequest("The requested date (%s) is %d days out. Forecast is limited to %d days, up to %s.",
		raw, w.DaysOut(date), w.MaxDays, w.Last.Format(DateLayout))
}

// DaysOut is the number of calendar days from today to date. It works on
// Unix seconds because time.Duration overflows past roughly 292 years.
func (w Window) DaysOut(date time.Time) int {
	return int((date.Unix() - w.Today.Unix()) / secondsPerDay)
}

// civilDate pins a calendar date to UTC midnight so that date arithmetic is
// not skewed by DST transitions in the clock's location.
func civilDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
