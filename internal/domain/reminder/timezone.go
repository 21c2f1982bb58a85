package reminder

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const dateKeyLayout = "2006-01-02"

// Zone data never changes for the life of the process, so lookups are kept forever.
// A nil location records an identifier that failed to resolve.
var locations = cache.New(cache.NoExpiration, 0)

func resolveLocation(tz string) (*time.Location, bool) {
	// time.LoadLocation maps "" and "Local" to process-dependent zones; neither is an IANA name.
	if tz == "" || tz == "Local" {
		return nil, false
	}
	if v, ok := locations.Get(tz); ok {
		loc := v.(*time.Location)
		return loc, loc != nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		locations.SetDefault(tz, (*time.Location)(nil))
		return nil, false
	}
	locations.SetDefault(tz, loc)
	return loc, true
}

// LocalHour returns the hour of day (0-23) of instant in tz.
// ok is false when tz is not a resolvable zone identifier.
func LocalHour(instant time.Time, tz string) (hour int, ok bool) {
	loc, ok := resolveLocation(tz)
	if !ok {
		return 0, false
	}
	return instant.In(loc).Hour(), true
}

// LocalDateKey returns the YYYY-MM-DD calendar date of instant in tz.
// The key is descriptive metadata only; idempotency is keyed by the UTC hour window.
func LocalDateKey(instant time.Time, tz string) (string, bool) {
	loc, ok := resolveLocation(tz)
	if !ok {
		return "", false
	}
	return instant.In(loc).Format(dateKeyLayout), true
}
