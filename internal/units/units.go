// Package units provides the time-base conversions used by trajectory files.
// Containers store time stamps and durations in microseconds; raw logs carry
// nanoseconds and velocities are expressed per second.
package units

// Conversion factors
const (
	NanosPerMicro   = 1000
	MicrosPerSec    = 1_000_000
	SecondsPerMicro = 1e-6
	MicrosPerNano   = 1e-3
)

// NanosToMicros converts an integer nanosecond value to microseconds,
// truncating toward zero.
func NanosToMicros(ns int64) int64 {
	return ns / NanosPerMicro
}

// FloatNanosToMicros converts a nanosecond value logged as a float to
// microseconds, truncating toward zero.
func FloatNanosToMicros(ns float64) int64 {
	return int64(ns * MicrosPerNano)
}

// MicrosToSeconds converts microseconds to seconds.
func MicrosToSeconds(us uint64) float64 {
	return float64(us) * SecondsPerMicro
}

// SecondsToMicros converts seconds to whole microseconds, truncating.
func SecondsToMicros(s float64) uint64 {
	return uint64(s * MicrosPerSec)
}
