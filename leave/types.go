package leave

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATEGORY - Fixed leave-type set
// =============================================================================

type Category string

const (
	CategoryAnnual       Category = "annual"
	CategoryPersonal     Category = "personal"
	CategorySick         Category = "sick"
	CategoryOfficial     Category = "official"
	CategoryCompensatory Category = "compensatory"
)

// Categories returns the fixed leave-type set in display order.
func Categories() []Category {
	return []Category{
		CategoryAnnual,
		CategoryPersonal,
		CategorySick,
		CategoryOfficial,
		CategoryCompensatory,
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryAnnual, CategoryPersonal, CategorySick, CategoryOfficial, CategoryCompensatory:
		return true
	}
	return false
}

// =============================================================================
// STATUS - Approval workflow state
// =============================================================================

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// =============================================================================
// RECORD - Persisted leave request
// =============================================================================

// Record is a persisted leave request. Date is the reference date the
// requester anchored the span on; EndDate is the resolved calendar
// date of the end instant (see ResolveDates). Hours is always
// reproducible by feeding the span back through the Calculator, except
// where an administrator overrode it explicitly.
type Record struct {
	ID         string
	EmployeeID string
	Name       string
	Category   Category
	Date       time.Time // reference date
	StartTime  TimeValue
	EndDate    time.Time // resolved end date
	EndTime    TimeValue
	Hours      decimal.Decimal
	Reason     string
	Status     Status
	SubmittedAt time.Time
	// ApprovedAt doubles as the last-modified stamp: every admin
	// update refreshes it together with Approver, whatever fields
	// changed. Zero until the record is first touched.
	ApprovedAt time.Time
	Approver   string
}

// StartDate is the resolved calendar date of the start instant.
func (r Record) StartDate() time.Time {
	return r.Date.AddDate(0, 0, r.StartTime.DayOffset)
}

// Validate checks the invariants a record must satisfy before it may
// be persisted. Failures wrap ErrInvalidRecord.
func (r Record) Validate() error {
	switch {
	case strings.TrimSpace(r.EmployeeID) == "":
		return fmt.Errorf("%w: employee id is required", ErrInvalidRecord)
	case !r.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalidRecord, r.Category)
	case r.Date.IsZero():
		return fmt.Errorf("%w: reference date is required", ErrInvalidRecord)
	case !r.Hours.IsPositive():
		return fmt.Errorf("%w: hours must be positive", ErrInvalidRecord)
	case !r.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, r.Status)
	}
	startAbs := r.StartTime.Clock + minutesPerDay*r.StartTime.DayOffset
	endAbs := r.EndTime.Clock + minutesPerDay*DaysBetween(r.Date, r.EndDate)
	if endAbs <= startAbs {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, ErrEndNotAfterStart)
	}
	return nil
}

// =============================================================================
// EMPLOYEE - Master data (companion file)
// =============================================================================

// Employee is a row of the subject master file. Credential is opaque
// here: verification belongs to the external auth collaborator.
type Employee struct {
	ID           string
	Credential   string
	Name         string
	Role         string
	Entitlements map[Category]decimal.Decimal // annual hours per category
}

// =============================================================================
// FILTER - Conjunctive query over records
// =============================================================================

// Filter narrows a query. Zero-valued fields do not constrain.
// FromMonth/ToMonth are inclusive YYYY-MM bounds on the reference date.
type Filter struct {
	EmployeeID string
	Category   Category
	Status     Status
	FromMonth  string
	ToMonth    string
}

// Match reports whether a record satisfies every set constraint.
func (f Filter) Match(r Record) bool {
	if f.EmployeeID != "" && r.EmployeeID != f.EmployeeID {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	month := r.Date.Format(MonthLayout)
	if f.FromMonth != "" && month < f.FromMonth {
		return false
	}
	if f.ToMonth != "" && month > f.ToMonth {
		return false
	}
	return true
}

// =============================================================================
// PATCH - Partial administrative update
// =============================================================================

// Patch is a partial field set merged into a stored record. Nil
// pointers leave the field alone. Hours set explicitly wins over the
// recomputation that otherwise follows any temporal change.
type Patch struct {
	EmployeeID *string
	Name       *string
	Category   *Category
	Date       *time.Time
	StartTime  *TimeValue
	EndTime    *TimeValue
	Hours      *decimal.Decimal
	Reason     *string
	Status     *Status
	Approver   string
}

// Apply merges the patch into rec. When any of date/start/end change,
// the end date and hours are rederived so the persisted span stays
// consistent. The ApprovedAt/Approver pair is stamped unconditionally,
// even for updates touching nothing temporal.
func (p Patch) Apply(rec Record, calc *Calculator, now time.Time) (Record, error) {
	if p.EmployeeID != nil {
		rec.EmployeeID = *p.EmployeeID
	}
	if p.Name != nil {
		rec.Name = *p.Name
	}
	if p.Category != nil {
		if !p.Category.Valid() {
			return Record{}, fmt.Errorf("%w: unknown category %q", ErrInvalidRecord, *p.Category)
		}
		rec.Category = *p.Category
	}
	if p.Reason != nil {
		rec.Reason = *p.Reason
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return Record{}, fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, *p.Status)
		}
		rec.Status = *p.Status
	}

	temporal := p.Date != nil || p.StartTime != nil || p.EndTime != nil
	if p.Date != nil {
		rec.Date = *p.Date
	}
	if p.StartTime != nil {
		rec.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		rec.EndTime = *p.EndTime
	}
	if temporal {
		_, rec.EndDate = ResolveDates(rec.Date, rec.StartTime.DayOffset, rec.EndTime.DayOffset)
		if p.Hours == nil {
			hours, err := calc.Hours(rec.Date, rec.StartTime, rec.EndTime)
			if err != nil {
				return Record{}, err
			}
			rec.Hours = hours
		}
	}
	if p.Hours != nil {
		rec.Hours = *p.Hours
	}

	rec.ApprovedAt = now
	rec.Approver = p.Approver
	return rec, nil
}

// UsageByCategory sums the hours of every non-rejected record whose
// reference date falls in year. Pending requests count: a reserved
// span must not be spendable twice while awaiting review.
func UsageByCategory(records []Record, year int) map[Category]decimal.Decimal {
	used := make(map[Category]decimal.Decimal, len(Categories()))
	for _, c := range Categories() {
		used[c] = decimal.Zero
	}
	for _, r := range records {
		if r.Status == StatusRejected || r.Date.Year() != year {
			continue
		}
		used[r.Category] = used[r.Category].Add(r.Hours)
	}
	return used
}
