/*
Package leave provides the core leave-interval engine.

PURPOSE:
  This package contains the domain types and pure algorithms for leave
  requests: the clock-time codec with its next-day marker, calendar date
  resolution for spans that roll past midnight, rest-window deduction,
  hour accounting, and staged input validation.

KEY CONCEPTS IN THIS FILE (timevalue.go):
  - TimeValue: A clock time plus a 0/1 day-offset relative to a
    reference date. "23:30" is today, "02:00(+1)" is tomorrow morning.
  - The (+1) marker: Trailing suffix on the wire/file representation
    denoting day-offset 1. Only early-morning times (<= 07:00) may
    carry it; a leave never runs a full day past its reference date
    from the selection UI.
  - 15-minute granularity: every legal value lands on a quarter hour.

DESIGN PRINCIPLES:
  1. Parsing never fails: malformed input simply validates to false.
     Callers gate on ValidTimeValue before trusting ParseTimeValue.
  2. Round-trip stability: FormatTimeValue(ParseTimeValue(v)) == v for
     every legal v.
  3. Precision: hour amounts use decimal.Decimal (see calc.go), never
     float64.

SEE ALSO:
  - dates.go:    Resolving actual calendar dates from day-offsets
  - calc.go:     Elapsed minutes and rest-window deduction
  - validate.go: Staged validation over raw string input
*/
package leave

import (
	"fmt"
	"strings"
)

const (
	minutesPerDay = 24 * 60

	// nextDayMarker is the wire and file suffix for day-offset 1.
	nextDayMarker = "(+1)"

	// maxNextDayClock is the latest clock allowed on a (+1) value.
	maxNextDayClock = 7 * 60 // 07:00

	// slotMinutes is the selection granularity.
	slotMinutes = 15
)

// TimeValue is a clock time at minute granularity plus a day-offset of
// 0 ("the reference date") or 1 ("the day after the reference date").
type TimeValue struct {
	Clock     int // minutes since midnight, 0..1439
	DayOffset int // 0 or 1
}

// ParseTimeValue parses "HH:MM" or "HH:MM(+1)". It never fails: for
// malformed input the zero TimeValue comes back. Validate first with
// ValidTimeValue when the input is untrusted.
func ParseTimeValue(value string) TimeValue {
	clockPart, offset := splitMarker(strings.TrimSpace(value))
	clock, ok := parseClock(clockPart)
	if !ok {
		return TimeValue{}
	}
	return TimeValue{Clock: clock, DayOffset: offset}
}

// FormatTimeValue is the inverse of ParseTimeValue: "HH:MM" plus the
// (+1) marker iff the day-offset is 1.
func FormatTimeValue(tv TimeValue) string {
	s := fmt.Sprintf("%02d:%02d", tv.Clock/60, tv.Clock%60)
	if tv.DayOffset == 1 {
		s += nextDayMarker
	}
	return s
}

// ValidTimeValue reports whether value is a legal selection: HH:MM in
// 24-hour form, on a 15-minute boundary, and no later than 07:00 when
// the (+1) marker is present.
func ValidTimeValue(value string) bool {
	clockPart, offset := splitMarker(strings.TrimSpace(value))
	clock, ok := parseClock(clockPart)
	if !ok {
		return false
	}
	if clock%slotMinutes != 0 {
		return false
	}
	if offset == 1 && clock > maxNextDayClock {
		return false
	}
	return true
}

// LegalTimeValues enumerates every legal selection in ascending order:
// 96 same-day values followed by 29 next-day values, 125 total.
func LegalTimeValues() []string {
	values := make([]string, 0, 125)
	for clock := 0; clock < minutesPerDay; clock += slotMinutes {
		values = append(values, FormatTimeValue(TimeValue{Clock: clock}))
	}
	for clock := 0; clock <= maxNextDayClock; clock += slotMinutes {
		values = append(values, FormatTimeValue(TimeValue{Clock: clock, DayOffset: 1}))
	}
	return values
}

func splitMarker(value string) (clockPart string, offset int) {
	if rest, found := strings.CutSuffix(value, nextDayMarker); found {
		return rest, 1
	}
	return value, 0
}

// parseClock converts "HH:MM" to minutes since midnight. Strict: two
// digits, a colon, two digits, HH 0-23, MM 0-59.
func parseClock(s string) (int, bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	hh := int(s[0]-'0')*10 + int(s[1]-'0')
	mm := int(s[3]-'0')*10 + int(s[4]-'0')
	if hh > 23 || mm > 59 {
		return 0, false
	}
	return hh*60 + mm, true
}
