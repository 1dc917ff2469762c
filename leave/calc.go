/*
calc.go - Elapsed-interval and leave-hour calculation

PURPOSE:
  Turns a (reference date, start TimeValue, end TimeValue) span into a
  net leave-hour figure: elapsed minutes, minus the minutes overlapping
  configured rest windows, the deduction capped globally per span.

ALGORITHM:
  1. Resolve both endpoints to absolute minutes since reference-date
     midnight (the end offset applies to the resolved start date, see
     dates.go).
  2. A non-positive elapsed total is an ErrEndNotAfterStart failure.
  3. Rest windows recur on every civil day, so each day the span
     touches is checked against each window; overlaps are summed.
  4. The summed deduction is capped (default 30 minutes) for the WHOLE
     span - not per day, not per window.
  5. Net hours = (total - capped deduction) / 60, rounded to two
     decimals, floored at zero.

EXAMPLES (default windows 12:00-12:30 and 17:00-17:30):
  09:00 -> 17:00          8h  - 30m midday           = 7.5
  11:00 -> 18:00          7h  - cap(30m + 30m) = 30m = 6.5
  22:00 -> 06:00(+1)      8h  - nothing overnight    = 8

SEE ALSO:
  - timevalue.go: TimeValue representation
  - validate.go:  String-level validation that front-runs this
*/
package leave

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RestPeriod is a recurring day-local break window, in minutes since
// midnight, half-open [Start, End).
type RestPeriod struct {
	Start int
	End   int
}

// DefaultRestPeriods are the midday and late-afternoon breaks of the
// standard shift schedule.
var DefaultRestPeriods = []RestPeriod{
	{Start: 12 * 60, End: 12*60 + 30}, // 12:00-12:30
	{Start: 17 * 60, End: 17*60 + 30}, // 17:00-17:30
}

// DefaultDeductionCap is the per-span ceiling on deducted rest minutes.
const DefaultDeductionCap = 30

// Calculator computes net leave hours for a span under a fixed rest
// schedule. It is pure and safe for concurrent use.
type Calculator struct {
	rests      []RestPeriod
	capMinutes int
}

// NewCalculator builds a Calculator. A nil rests slice selects
// DefaultRestPeriods; a non-positive cap selects DefaultDeductionCap.
func NewCalculator(rests []RestPeriod, capMinutes int) *Calculator {
	if rests == nil {
		rests = DefaultRestPeriods
	}
	if capMinutes <= 0 {
		capMinutes = DefaultDeductionCap
	}
	return &Calculator{rests: rests, capMinutes: capMinutes}
}

// Minutes returns the elapsed and deducted minutes for a span.
// ErrEndNotAfterStart is returned when the end instant is not strictly
// after the start; when neither endpoint carries a day-offset the
// message points at the (+1) marker, the usual omission.
func (c *Calculator) Minutes(ref time.Time, start, end TimeValue) (total, deducted int, err error) {
	startAbs := start.Clock + minutesPerDay*start.DayOffset
	_, endDate := ResolveDates(ref, start.DayOffset, end.DayOffset)
	endAbs := end.Clock + minutesPerDay*DaysBetween(ref, endDate)

	total = endAbs - startAbs
	if total <= 0 {
		if start.DayOffset == 0 && end.DayOffset == 0 {
			return 0, 0, fmt.Errorf("%w; mark the end time with %s if the leave runs past midnight",
				ErrEndNotAfterStart, nextDayMarker)
		}
		return 0, 0, ErrEndNotAfterStart
	}

	// Rest windows are day-local, so every day the span touches gets
	// its own instances.
	for day := startAbs / minutesPerDay; day <= (endAbs-1)/minutesPerDay; day++ {
		base := day * minutesPerDay
		for _, rp := range c.rests {
			lo := max(startAbs, base+rp.Start)
			hi := min(endAbs, base+rp.End)
			if hi > lo {
				deducted += hi - lo
			}
		}
	}
	if deducted > c.capMinutes {
		deducted = c.capMinutes
	}
	return total, deducted, nil
}

// Hours returns the net leave hours for a span, rounded to two
// decimals and never negative.
func (c *Calculator) Hours(ref time.Time, start, end TimeValue) (decimal.Decimal, error) {
	total, deducted, err := c.Minutes(ref, start, end)
	if err != nil {
		return decimal.Zero, err
	}
	net := total - deducted
	if net < 0 {
		net = 0
	}
	return decimal.NewFromInt(int64(net)).Div(decimal.NewFromInt(60)).Round(2), nil
}
