package leave

import "time"

// Civil-time layouts shared by the stores and the HTTP layer. The
// system runs in a single fixed local-time convention; no zone math.
const (
	DateLayout      = "2006-01-02"
	MonthLayout     = "2006-01"
	TimestampLayout = "2006-01-02 15:04:05"
)

// ParseDate parses a YYYY-MM-DD civil date.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

// ResolveDates computes the actual calendar dates of a leave span from
// its reference date and the start/end day-offsets.
//
// The start date is ref plus the start offset. The end offset is then
// applied to the RESOLVED start date, not to the reference date: an
// end offset of 0 means "same calendar day the leave started on", so a
// span starting 02:00(+1) and ending 06:30 begins and ends on ref+1.
// This asymmetry is intentional (it keeps the common "next-day start,
// same-shift end" case single-marker) and callers must not normalize
// it away.
func ResolveDates(ref time.Time, startOffset, endOffset int) (start, end time.Time) {
	start = ref.AddDate(0, 0, startOffset)
	end = start.AddDate(0, 0, endOffset)
	return start, end
}

// DaysBetween returns the whole calendar days from one civil date to
// another. Both arguments are expected at day granularity.
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
