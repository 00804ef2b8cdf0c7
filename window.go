package touringbot

import (
	"fmt"
	"time"
)

// dateLayout is the date format used by the archive search.
const dateLayout = "2006-01-02"

// Window is a half-year campaign window. Half 0 covers January through June,
// half 1 covers July through December.
type Window struct {
	Year int
	Half int
}

// From returns the first day of the window.
func (w Window) From() string {
	return time.Date(w.Year, w.startMonth(), 1, 0, 0, 0, 0, time.UTC).Format(dateLayout)
}

// To returns the last day of the window.
func (w Window) To() string {
	next := time.Date(w.Year, w.startMonth()+6, 1, 0, 0, 0, 0, time.UTC)
	return next.AddDate(0, 0, -1).Format(dateLayout)
}

// Next returns the window that follows w.
func (w Window) Next() Window {
	if w.Half == 0 {
		return Window{Year: w.Year, Half: 1}
	}
	return Window{Year: w.Year + 1, Half: 0}
}

// Before reports whether w starts before o.
func (w Window) Before(o Window) bool {
	if w.Year != o.Year {
		return w.Year < o.Year
	}
	return w.Half < o.Half
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.From(), w.To())
}

func (w Window) startMonth() time.Month {
	if w.Half == 0 {
		return time.January
	}
	return time.July
}

// Windows returns the half-year windows covering years
// [startYear, startYear+years) in order.
func Windows(startYear, years int) []Window {
	var windows []Window
	for year := startYear; year < startYear+years; year++ {
		windows = append(windows, Window{Year: year, Half: 0}, Window{Year: year, Half: 1})
	}
	return windows
}
