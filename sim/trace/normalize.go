package trace

// TimeUnit is the unit a source format expresses its raw timestamps in.
type TimeUnit int

const (
	UnitMilliseconds TimeUnit = iota
	UnitMicroseconds
	UnitSeconds
	Unit100Nanoseconds // MSR Cambridge traces: ticks of 100ns
)

// Normalize converts a RawRecord's timestamp to milliseconds given the
// source format's declared unit (spec.md §4.5 step 1, §6).
func Normalize(r RawRecord, unit TimeUnit) NormalizedRecord {
	var ms float64
	switch unit {
	case UnitMilliseconds:
		ms = r.TimestampRaw
	case UnitMicroseconds:
		ms = r.TimestampRaw / 1e3
	case UnitSeconds:
		ms = r.TimestampRaw * 1e3
	case Unit100Nanoseconds:
		ms = r.TimestampRaw / 1e4
	}
	return NormalizedRecord{
		TimestampMs: int64(ms),
		LBA:         r.LBA,
		SizeBytes:   r.SizeBytes,
		Op:          r.Op,
	}
}
