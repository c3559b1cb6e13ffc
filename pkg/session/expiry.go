package session

import "time"

// Expiry values arrive in one of three shapes: millisecond epoch
// timestamps, second epoch timestamps, or raw durations in seconds. The
// thresholds below distinguish them; anything past ~Sep 2001 in
// milliseconds is clearly an epoch value.
const (
	msEpochThreshold  = int64(1e12)
	secEpochThreshold = int64(1e9)
)

// ExpiryFromRaw converts a wire expiry value into an absolute instant.
// This is the single point where duration-shaped values become absolute:
// callers must apply it once, at the moment the value is received.
func ExpiryFromRaw(v int64, now time.Time) time.Time {
	switch {
	case v <= 0:
		return time.Time{}
	case v > msEpochThreshold:
		return time.UnixMilli(v)
	case v > secEpochThreshold:
		return time.Unix(v, 0)
	default:
		return now.Add(time.Duration(v) * time.Second)
	}
}

// IsExpired reports whether a raw expiry value has passed. Values above
// the millisecond threshold compare directly; values above the second
// threshold are normalized by a factor of 1000. A small positive value is
// an un-normalized duration that leaked into storage; it is treated as
// NOT expired so the guard attempts a refresh instead of forcing a
// spurious logout. Zero or negative is always expired.
func IsExpired(v int64, now time.Time) bool {
	if v <= 0 {
		return true
	}
	ms := now.UnixMilli()
	switch {
	case v > msEpochThreshold:
		return v < ms
	case v > secEpochThreshold:
		return v*1000 < ms
	default:
		return false
	}
}

// IsExpiredAt applies the same policy to a stored absolute instant. The
// zero time means no expiry was ever recorded, which counts as expired.
func IsExpiredAt(t time.Time, now time.Time) bool {
	if t.IsZero() {
		return true
	}
	return IsExpired(t.UnixMilli(), now)
}
