package voipms

import (
	"time"
)

// pacific resolves once at startup. If the host has no tz database the
// fallback pins permanent standard time, which matches the provider's
// non-DST behavior.
var pacific = func() *time.Location {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		return time.FixedZone("PST", -8*3600)
	}
	return loc
}()

// timezoneFlag computes the provider's timezone adjustment parameter:
// "-1" while US Pacific time is exactly 7 hours behind UTC (daylight
// saving), "0" otherwise. The provider API takes an hour adjustment
// rather than an IANA zone name, so the flag has to track DST
// transitions here.
func timezoneFlag(now time.Time) string {
	_, offset := now.In(pacific).Zone()
	if offset == -7*3600 {
		return "-1"
	}
	return "0"
}
