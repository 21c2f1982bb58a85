package reminder

import "time"

// Preference is a user's reminder configuration joined with the time zone of the owning user.
type Preference struct {
	UserID               string
	ReminderHourLocal    int
	NotificationsEnabled bool
	Timezone             string
}

func validHour(h int) bool { return h >= 0 && h <= 23 }

// IsDue reports whether p should be reminded during the UTC hour containing now.
// Unresolvable zones are never due.
func IsDue(now time.Time, p Preference) bool {
	if !p.NotificationsEnabled || !validHour(p.ReminderHourLocal) {
		return false
	}
	hour, ok := LocalHour(now, p.Timezone)
	if !ok {
		return false
	}
	return hour == p.ReminderHourLocal
}

// DueSet filters prefs down to those due in the UTC hour containing now.
func DueSet(now time.Time, prefs []Preference) []Preference {
	out := make([]Preference, 0, len(prefs))
	for _, p := range prefs {
		if IsDue(now, p) {
			out = append(out, p)
		}
	}
	return out
}
