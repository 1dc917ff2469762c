package file_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/file"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *file.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := file.New(filepath.Join(dir, "leaves.csv"), filepath.Join(dir, "employees.csv"), leave.NewCalculator(nil, 0))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func tv(t *testing.T, value string) leave.TimeValue {
	t.Helper()
	require.True(t, leave.ValidTimeValue(value))
	return leave.ParseTimeValue(value)
}

func pendingRecord(t *testing.T) leave.Record {
	ref := date(2024, time.June, 15)
	return leave.Record{
		EmployeeID:  "E001",
		Name:        "Lin Wei",
		Category:    leave.CategoryAnnual,
		Date:        ref,
		StartTime:   tv(t, "09:00"),
		EndDate:     ref,
		EndTime:     tv(t, "17:00"),
		Hours:       decimal.RequireFromString("7.5"),
		Reason:      "family trip",
		Status:      leave.StatusPending,
		SubmittedAt: time.Date(2024, time.June, 10, 9, 30, 0, 0, time.UTC),
	}
}

// =============================================================================
// CREATE / READ ROUND TRIP
// =============================================================================

func TestCreateThenGet_RoundTrip(t *testing.T) {
	// GIVEN: a freshly created record
	// WHEN:  reading it back through the file
	// THEN:  every field survives, id allocated sequentially
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, pendingRecord(t))
	require.NoError(t, err)
	assert.Equal(t, "000001", created.ID)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.EmployeeID, got.EmployeeID)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, created.Category, got.Category)
	assert.Equal(t, created.Date, got.Date)
	assert.Equal(t, created.EndDate, got.EndDate)
	assert.Equal(t, created.StartTime, got.StartTime)
	assert.Equal(t, created.EndTime, got.EndTime)
	assert.True(t, created.Hours.Equal(got.Hours))
	assert.Equal(t, created.Reason, got.Reason)
	assert.Equal(t, created.Status, got.Status)
	assert.Equal(t, created.SubmittedAt, got.SubmittedAt)
}

func TestCreate_OvernightSpan_OffsetSurvivesReread(t *testing.T) {
	// GIVEN: a 22:00 -> 06:00(+1) span
	// THEN:  the reread end time still carries day-offset 1 and the
	//        end date sits one day past the reference
	s := newTestStore(t)
	ctx := context.Background()

	rec := pendingRecord(t)
	rec.StartTime = tv(t, "22:00")
	rec.EndTime = tv(t, "06:00(+1)")
	rec.EndDate = date(2024, time.June, 16)
	rec.Hours = decimal.RequireFromString("8")

	created, err := s.Create(ctx, rec)
	require.NoError(t, err)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.EndTime.DayOffset)
	assert.Equal(t, date(2024, time.June, 16), got.EndDate)
}

func TestCreate_SequentialIDs_SurviveDeletes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Create(ctx, pendingRecord(t))
	require.NoError(t, err)
	second, err := s.Create(ctx, pendingRecord(t))
	require.NoError(t, err)
	assert.Equal(t, "000001", first.ID)
	assert.Equal(t, "000002", second.ID)

	// Allocation follows the maximum, so deleting the head does not
	// recycle ids.
	require.NoError(t, s.Delete(ctx, first.ID))
	third, err := s.Create(ctx, pendingRecord(t))
	require.NoError(t, err)
	assert.Equal(t, "000003", third.ID)
}

func TestCreate_RejectsInvalidRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bad := pendingRecord(t)
	bad.Category = "holiday"
	_, err := s.Create(ctx, bad)
	assert.ErrorIs(t, err, leave.ErrInvalidRecord)

	bad = pendingRecord(t)
	bad.Hours = decimal.Zero
	_, err = s.Create(ctx, bad)
	assert.ErrorIs(t, err, leave.ErrInvalidRecord)
}

// =============================================================================
// LEGACY ROW RECONSTRUCTION
// =============================================================================

func TestReadAll_LegacyRowWithoutEndMarker(t *testing.T) {
	// Files written by older tools store an overnight end as a bare
	// HH:MM; the offset must come back from the date comparison.
	dir := t.TempDir()
	path := filepath.Join(dir, "leaves.csv")
	raw := strings.Join([]string{
		"id(單號),employee_id(員工編號),name(姓名),category(假別),date(開始日期),end_date(結束日期),start_time(開始時間),end_time(結束時間),hours(請假時數),reason(事由),status(狀態),submitted_at(申請時間),approved_at(簽核時間),approver(簽核人)",
		"000001,E001,Lin Wei,annual,2024-06-15,2024-06-16,22:00,06:00,8,,pending,2024-06-10 09:30:00,,",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	s, err := file.New(path, filepath.Join(dir, "employees.csv"), leave.NewCalculator(nil, 0))
	require.NoError(t, err)

	got, err := s.Get(context.Background(), "000001")
	require.NoError(t, err)
	assert.Equal(t, 1, got.EndTime.DayOffset, "offset reconstructed from the date columns")
	assert.Equal(t, "06:00(+1)", leave.FormatTimeValue(got.EndTime))
}

// =============================================================================
// QUERY
// =============================================================================

func TestQuery_ConjunctiveFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := pendingRecord(t)
	_, err := s.Create(ctx, a)
	require.NoError(t, err)

	b := pendingRecord(t)
	b.EmployeeID = "E002"
	b.Category = leave.CategorySick
	b.Date = date(2024, time.September, 2)
	b.EndDate = b.Date
	_, err = s.Create(ctx, b)
	require.NoError(t, err)

	got, err := s.Query(ctx, leave.Filter{EmployeeID: "E002"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, leave.CategorySick, got[0].Category)

	got, err = s.Query(ctx, leave.Filter{FromMonth: "2024-06", ToMonth: "2024-06"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "E001", got[0].EmployeeID)

	got, err = s.Query(ctx, leave.Filter{EmployeeID: "E002", Category: leave.CategoryAnnual})
	require.NoError(t, err)
	assert.Empty(t, got, "filters compose conjunctively")
}

// =============================================================================
// UPDATE
// =============================================================================

func TestUpdate_TemporalChangeRecomputesStoredDates(t *testing.T) {
	// GIVEN: a stored same-day record
	// WHEN:  the admin moves the end to 06:00(+1)
	// THEN:  the persisted end date and hours move with it
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, pendingRecord(t))
	require.NoError(t, err)

	end := tv(t, "06:00(+1)")
	updated, err := s.Update(ctx, created.ID, leave.Patch{EndTime: &end, Approver: "admin"})
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.June, 16), updated.EndDate)
	assert.Equal(t, "20.5", updated.Hours.String())

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.June, 16), got.EndDate)
	assert.Equal(t, 1, got.EndTime.DayOffset)
}

func TestUpdate_UnrelatedFieldStillStamps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, pendingRecord(t))
	require.NoError(t, err)
	require.True(t, created.ApprovedAt.IsZero())

	reason := "updated justification"
	updated, err := s.Update(ctx, created.ID, leave.Patch{Reason: &reason, Approver: "admin"})
	require.NoError(t, err)
	assert.False(t, updated.ApprovedAt.IsZero(), "stamp refreshes even for unrelated fields")
	assert.Equal(t, "admin", updated.Approver)
	assert.Equal(t, "7.5", updated.Hours.String())
}

func TestUpdate_NotFound(t *testing.T) {
	s := newTestStore(t)
	reason := "x"
	_, err := s.Update(context.Background(), "999999", leave.Patch{Reason: &reason})
	assert.ErrorIs(t, err, leave.ErrNotFound)
}

// =============================================================================
// DELETE
// =============================================================================

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, pendingRecord(t))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, created.ID))
	_, err = s.Get(ctx, created.ID)
	assert.ErrorIs(t, err, leave.ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, created.ID), leave.ErrNotFound)
}

// =============================================================================
// EMPLOYEE MASTER
// =============================================================================

func TestEmployeeMaster_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteEmployees([]leave.Employee{
		{
			ID: "E001", Credential: "secret", Name: "Lin Wei", Role: "staff",
			Entitlements: map[leave.Category]decimal.Decimal{
				leave.CategoryAnnual: decimal.RequireFromString("112"),
				leave.CategorySick:   decimal.RequireFromString("240"),
			},
		},
	}))

	emp, err := s.GetEmployee(ctx, "E001")
	require.NoError(t, err)
	assert.Equal(t, "Lin Wei", emp.Name)
	assert.Equal(t, "112", emp.Entitlements[leave.CategoryAnnual].String())
	assert.Equal(t, "0", emp.Entitlements[leave.CategoryPersonal].String(), "absent entitlements read as zero")

	_, err = s.GetEmployee(ctx, "E999")
	assert.ErrorIs(t, err, leave.ErrNotFound)
}
