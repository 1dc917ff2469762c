package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/file"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	calc := leave.NewCalculator(nil, 0)
	s, err := file.New(filepath.Join(dir, "leaves.csv"), filepath.Join(dir, "employees.csv"), calc)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.WriteEmployees([]leave.Employee{
		{
			ID: "E001", Credential: "opaque", Name: "Lin Wei", Role: "staff",
			Entitlements: map[leave.Category]decimal.Decimal{
				leave.CategoryAnnual: decimal.RequireFromString("112"),
				leave.CategorySick:   decimal.RequireFromString("240"),
			},
		},
	}))

	h := api.NewHandler(s, s, calc, zerolog.Nop())
	return api.NewRouter(h, zerolog.Nop(), api.RouterOptions{})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

// =============================================================================
// CALCULATION BOUNDARY
// =============================================================================

func TestCalculate(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/calculate", api.CalculateRequest{
		Date: "2024-06-15", StartTime: "09:00", EndTime: "17:00",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.CalculateResponse](t, rec)
	assert.Equal(t, 7.5, resp.LeaveHours)
}

func TestCalculate_InvertedSpanMentionsMarker(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/calculate", api.CalculateRequest{
		Date: "2024-06-15", StartTime: "17:00", EndTime: "09:00",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[api.ValidationResponse](t, rec)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, leave.ErrKindRange, resp.Errors[0].Kind)
	assert.Contains(t, resp.Errors[0].Message, "(+1)")
}

func TestCalculate_StageOrdering(t *testing.T) {
	router := newTestRouter(t)

	// Missing start: one required error, nothing else.
	rec := doJSON(t, router, http.MethodPost, "/api/calculate", api.CalculateRequest{
		Date: "2024-06-15", EndTime: "17:00",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[api.ValidationResponse](t, rec)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, leave.FieldStartTime, resp.Errors[0].Field)
	assert.Equal(t, leave.ErrKindRequired, resp.Errors[0].Kind)

	// Malformed start: a format error, never a range error.
	rec = doJSON(t, router, http.MethodPost, "/api/calculate", api.CalculateRequest{
		Date: "2024-06-15", StartTime: "25:00", EndTime: "17:00",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp = decode[api.ValidationResponse](t, rec)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, leave.ErrKindFormat, resp.Errors[0].Kind)
}

// =============================================================================
// SUBMISSION AND REVIEW FLOW
// =============================================================================

func TestSubmitQueryAndDecide(t *testing.T) {
	router := newTestRouter(t)

	// Submit an overnight request; the name comes from the master file.
	rec := doJSON(t, router, http.MethodPost, "/api/leaves", api.SubmitLeaveRequest{
		EmployeeID: "E001", Category: "annual", Date: "2024-06-15",
		StartTime: "22:00", EndTime: "06:00(+1)", Reason: "night shift swap",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	submitted := decode[api.SubmitLeaveResponse](t, rec)
	assert.Equal(t, "000001", submitted.ID)
	assert.Equal(t, 8.0, submitted.LeaveHours)

	// Read it back.
	rec = doJSON(t, router, http.MethodGet, "/api/leaves/"+submitted.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[api.LeaveDTO](t, rec)
	assert.Equal(t, "Lin Wei", got.Name)
	assert.Equal(t, "06:00(+1)", got.EndTime)
	assert.Equal(t, "2024-06-16", got.EndDate)
	assert.Equal(t, "pending", got.Status)

	// Query narrows conjunctively.
	rec = doJSON(t, router, http.MethodGet, "/api/leaves?employee_id=E001&from=2024-06&to=2024-06", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]api.LeaveDTO](t, rec), 1)

	rec = doJSON(t, router, http.MethodGet, "/api/leaves?employee_id=E001&status=approved", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]api.LeaveDTO](t, rec))

	// Approve.
	rec = doJSON(t, router, http.MethodPost, "/api/leaves/"+submitted.ID+"/approve", api.DecisionRequest{Approver: "manager"})
	require.Equal(t, http.StatusOK, rec.Code)
	decided := decode[api.LeaveDTO](t, rec)
	assert.Equal(t, "approved", decided.Status)
	assert.Equal(t, "manager", decided.Approver)
	assert.NotEmpty(t, decided.ApprovedAt)
}

func TestDecide_EmptyBody(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/leaves", api.SubmitLeaveRequest{
		EmployeeID: "E001", Category: "sick", Date: "2024-06-15",
		StartTime: "09:00", EndTime: "17:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	submitted := decode[api.SubmitLeaveResponse](t, rec)

	// The approver field is optional; a decision without a body works.
	rec = doJSON(t, router, http.MethodPost, "/api/leaves/"+submitted.ID+"/reject", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decided := decode[api.LeaveDTO](t, rec)
	assert.Equal(t, "rejected", decided.Status)
	assert.Empty(t, decided.Approver)
	assert.NotEmpty(t, decided.ApprovedAt)
}

func TestSubmit_UnknownCategory(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/leaves", api.SubmitLeaveRequest{
		EmployeeID: "E001", Category: "holiday", Date: "2024-06-15",
		StartTime: "09:00", EndTime: "17:00",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[api.ValidationResponse](t, rec)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "category", resp.Errors[0].Field)
}

func TestUpdate_RecomputesAndStamps(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/leaves", api.SubmitLeaveRequest{
		EmployeeID: "E001", Category: "annual", Date: "2024-06-15",
		StartTime: "09:00", EndTime: "17:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	submitted := decode[api.SubmitLeaveResponse](t, rec)

	endTime := "06:00(+1)"
	rec = doJSON(t, router, http.MethodPut, "/api/leaves/"+submitted.ID, api.UpdateLeaveRequest{
		EndTime: &endTime, Approver: "admin",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[api.LeaveDTO](t, rec)
	assert.Equal(t, "2024-06-16", updated.EndDate)
	assert.Equal(t, 20.5, updated.LeaveHours)
	assert.Equal(t, "admin", updated.Approver)

	// An unrelated-field update still refreshes the stamp.
	reason := "rescheduled"
	rec = doJSON(t, router, http.MethodPut, "/api/leaves/"+submitted.ID, api.UpdateLeaveRequest{
		Reason: &reason, Approver: "admin2",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated = decode[api.LeaveDTO](t, rec)
	assert.Equal(t, "admin2", updated.Approver)
	assert.Equal(t, 20.5, updated.LeaveHours)
}

func TestGetUpdateDelete_NotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/leaves/999999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	reason := "x"
	rec = doJSON(t, router, http.MethodPut, "/api/leaves/999999", api.UpdateLeaveRequest{Reason: &reason})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/leaves/999999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_CredentialNeverLeaks(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "opaque")
}

func TestEmployeeSummary(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/leaves", api.SubmitLeaveRequest{
		EmployeeID: "E001", Category: "annual", Date: "2024-06-15",
		StartTime: "09:00", EndTime: "17:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/employees/E001/summary?year=2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[api.SummaryResponse](t, rec)
	assert.Equal(t, 2024, summary.Year)

	byCat := map[string]api.CategorySummaryDTO{}
	for _, c := range summary.Categories {
		byCat[c.Category] = c
	}
	assert.Equal(t, 7.5, byCat["annual"].UsedHours, "pending requests count as used")
	assert.Equal(t, 112.0, byCat["annual"].EntitlementHours)
	assert.Equal(t, 240.0, byCat["sick"].EntitlementHours)
	assert.Equal(t, 0.0, byCat["personal"].UsedHours)
}
