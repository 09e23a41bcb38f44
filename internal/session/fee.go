package session

import "time"

// FeeCents prices a parking duration against an hourly rate in cents, rounding
// up to the next cent so any started fraction of a cent is billed. Durations
// round up to whole seconds first, so even a one-second stay is charged.
func FeeCents(d time.Duration, hourlyRateCents int64) int64 {
	if d <= 0 || hourlyRateCents <= 0 {
		return 0
	}

	secs := int64((d + time.Second - 1) / time.Second)
	return (secs*hourlyRateCents + 3599) / 3600
}
