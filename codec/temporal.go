package codec

import "time"

// TimeUnit mirrors the resolution carried by LocalTime/LocalDateTime/
// Instant kinds (spec §3); duplicated here (rather than imported) to keep
// this package import-free of the root package and usable standalone.
type TimeUnit uint8

const (
	Millisecond TimeUnit = iota
	Microsecond
	Nanosecond
)

func unitScale(u TimeUnit) int64 {
	switch u {
	case Millisecond:
		return int64(time.Millisecond)
	case Microsecond:
		return int64(time.Microsecond)
	default:
		return int64(time.Nanosecond)
	}
}

var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// EncodeDate returns the signed count of days since 1970-01-01 (spec §4.4
// LocalDate encoding). The date's own location is ignored; only the
// calendar fields matter.
func EncodeDate(year int, month time.Month, day int) int32 {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return int32(d.Sub(epoch) / (24 * time.Hour))
}

// DecodeDate reconstructs the UTC midnight instant for a day count.
func DecodeDate(days int32) time.Time {
	return epoch.AddDate(0, 0, int(days))
}

// EncodeTimeOfDay scales a nanosecond-of-day value to the given unit
// (spec §4.4 LocalTime encoding: nanos-of-day scaled to the configured
// unit).
func EncodeTimeOfDay(nanosOfDay int64, unit TimeUnit) int64 {
	return nanosOfDay / unitScale(unit)
}

// DecodeTimeOfDay reverses EncodeTimeOfDay.
func DecodeTimeOfDay(value int64, unit TimeUnit) int64 {
	return value * unitScale(unit)
}

// NanosOfDay extracts the nanosecond-of-day component of t, ignoring its
// date and location.
func NanosOfDay(t time.Time) int64 {
	return int64(t.Hour())*int64(time.Hour) +
		int64(t.Minute())*int64(time.Minute) +
		int64(t.Second())*int64(time.Second) +
		int64(t.Nanosecond())
}

// EncodeInstant returns epoch units (spec §4.4) for an absolute instant:
// true elapsed time since 1970-01-01T00:00:00Z, zone-aware.
func EncodeInstant(t time.Time, unit TimeUnit) int64 {
	return t.UTC().Sub(epoch).Nanoseconds() / unitScale(unit)
}

// DecodeInstant reverses EncodeInstant, producing a UTC time.Time.
func DecodeInstant(value int64, unit TimeUnit) time.Time {
	return epoch.Add(time.Duration(value * unitScale(unit)))
}

// EncodeLocalDateTime returns epoch units for a naive timestamp: t's wall
// clock fields are interpreted as if already in UTC, with no zone math
// applied (spec §4.4) — this differs from EncodeInstant only in that it
// discards t's actual location before computing the offset.
func EncodeLocalDateTime(t time.Time, unit TimeUnit) int64 {
	naive := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return naive.Sub(epoch).Nanoseconds() / unitScale(unit)
}

// DecodeLocalDateTime reverses EncodeLocalDateTime, producing a time.Time
// whose fields are the naive wall-clock value (UTC-labeled, not
// zone-converted).
func DecodeLocalDateTime(value int64, unit TimeUnit) time.Time {
	return epoch.Add(time.Duration(value * unitScale(unit)))
}
