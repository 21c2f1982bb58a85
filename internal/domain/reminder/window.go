package reminder

import "time"

// Window is a [Start, End) interval aligned to the top of a UTC hour.
type Window struct {
	Start time.Time
	End   time.Time
}

// HourWindow returns the UTC hour window containing t.
func HourWindow(t time.Time) Window {
	start := t.UTC().Truncate(time.Hour)
	return Window{Start: start, End: start.Add(time.Hour)}
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
