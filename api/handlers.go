/*
handlers.go - HTTP handlers for the leave engine

PURPOSE:
  Exposes the calculation engine and record store over REST. Handlers
  parse and validate input, delegate to the domain, and map the
  failure taxonomy onto status codes.

ENDPOINTS:
  Calculation:
    POST   /api/calculate              Hours for a span, no persistence

  Leave records:
    POST   /api/leaves                 Submit a request
    GET    /api/leaves                 Query (filters via query params)
    GET    /api/leaves/{id}            Read one
    PUT    /api/leaves/{id}            Partial administrative update
    DELETE /api/leaves/{id}            Administrative delete
    POST   /api/leaves/{id}/approve    Decision shortcut
    POST   /api/leaves/{id}/reject     Decision shortcut

  Employees:
    GET    /api/employees              Master list (credentials omitted)
    GET    /api/employees/{id}         One master row
    GET    /api/employees/{id}/summary Hours used vs entitlement per category

ERROR HANDLING:
  - 400 validation failures, field-tagged where fields are involved
  - 404 stale record references
  - 500 storage failures: full detail goes to the log, the caller
        gets a generic message with no internal paths
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/metrics"
)

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	Store     leave.Store
	Employees leave.EmployeeStore
	Calc      *leave.Calculator
	Log       zerolog.Logger
}

func NewHandler(store leave.Store, employees leave.EmployeeStore, calc *leave.Calculator, log zerolog.Logger) *Handler {
	return &Handler{Store: store, Employees: employees, Calc: calc, Log: log}
}

// =============================================================================
// CALCULATION BOUNDARY
// =============================================================================

// Calculate returns the net leave hours for a span without persisting
// anything. The presentation layer calls this as the user picks times.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ref, fieldErrs := h.parseSpanInput(req.Date, req.StartTime, req.EndTime)
	if len(fieldErrs) > 0 {
		metrics.IncCalcFailure()
		writeValidation(w, fieldErrs)
		return
	}

	hours, err := h.Calc.Hours(ref, leave.ParseTimeValue(req.StartTime), leave.ParseTimeValue(req.EndTime))
	if err != nil {
		metrics.IncCalcFailure()
		writeValidation(w, []leave.FieldError{{Field: leave.FieldEndTime, Kind: leave.ErrKindRange, Message: err.Error()}})
		return
	}
	writeJSON(w, http.StatusOK, CalculateResponse{LeaveHours: hours.InexactFloat64()})
}

// parseSpanInput validates the date and runs the staged span checks.
// The returned errors follow the stage ordering contract: everything
// from exactly one failing stage, nothing past it.
func (h *Handler) parseSpanInput(date, startTime, endTime string) (time.Time, []leave.FieldError) {
	if date == "" {
		return time.Time{}, []leave.FieldError{{Field: "date", Kind: leave.ErrKindRequired, Message: "reference date is required"}}
	}
	ref, err := leave.ParseDate(date)
	if err != nil {
		return time.Time{}, []leave.FieldError{{Field: "date", Kind: leave.ErrKindFormat, Message: "reference date must be YYYY-MM-DD"}}
	}
	if result := h.Calc.ValidateSpan(startTime, endTime); !result.Valid {
		return time.Time{}, result.Errors
	}
	return ref, nil
}

// =============================================================================
// LEAVE RECORD HANDLERS
// =============================================================================

// SubmitLeave validates a submission, computes the authoritative hour
// count, resolves the span dates and creates the record.
func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	var req SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var fieldErrs []leave.FieldError
	if req.EmployeeID == "" {
		fieldErrs = append(fieldErrs, leave.FieldError{Field: "employee_id", Kind: leave.ErrKindRequired, Message: "employee id is required"})
	}
	if req.Category == "" {
		fieldErrs = append(fieldErrs, leave.FieldError{Field: "category", Kind: leave.ErrKindRequired, Message: "category is required"})
	} else if !leave.Category(req.Category).Valid() {
		fieldErrs = append(fieldErrs, leave.FieldError{Field: "category", Kind: leave.ErrKindFormat, Message: "unknown leave category"})
	}
	if len(fieldErrs) > 0 {
		writeValidation(w, fieldErrs)
		return
	}

	ref, fieldErrs := h.parseSpanInput(req.Date, req.StartTime, req.EndTime)
	if len(fieldErrs) > 0 {
		writeValidation(w, fieldErrs)
		return
	}

	start := leave.ParseTimeValue(req.StartTime)
	end := leave.ParseTimeValue(req.EndTime)
	hours, err := h.Calc.Hours(ref, start, end)
	if err != nil {
		writeValidation(w, []leave.FieldError{{Field: leave.FieldEndTime, Kind: leave.ErrKindRange, Message: err.Error()}})
		return
	}
	_, endDate := leave.ResolveDates(ref, start.DayOffset, end.DayOffset)

	name := req.Name
	if name == "" {
		// Display name comes from the master file when the client
		// does not carry it.
		emp, err := h.Employees.GetEmployee(r.Context(), req.EmployeeID)
		switch {
		case err == nil:
			name = emp.Name
		case !leave.IsNotFound(err):
			h.Log.Warn().Err(err).Str("employee_id", req.EmployeeID).Msg("master lookup failed")
		}
	}

	rec, err := h.Store.Create(r.Context(), leave.Record{
		EmployeeID:  req.EmployeeID,
		Name:        name,
		Category:    leave.Category(req.Category),
		Date:        ref,
		StartTime:   start,
		EndDate:     endDate,
		EndTime:     end,
		Hours:       hours,
		Reason:      req.Reason,
		Status:      leave.StatusPending,
		SubmittedAt: time.Now(),
	})
	if err != nil {
		h.storeError(w, err, "create leave record")
		return
	}

	metrics.IncLeaveSubmitted(string(rec.Category))
	writeJSON(w, http.StatusCreated, SubmitLeaveResponse{ID: rec.ID, LeaveHours: rec.Hours.InexactFloat64()})
}

// ListLeaves queries records by employee, category, status and an
// inclusive year-month range; filters compose conjunctively.
func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := leave.Filter{
		EmployeeID: q.Get("employee_id"),
		Category:   leave.Category(q.Get("category")),
		Status:     leave.Status(q.Get("status")),
		FromMonth:  q.Get("from"),
		ToMonth:    q.Get("to"),
	}
	for _, m := range []string{f.FromMonth, f.ToMonth} {
		if m == "" {
			continue
		}
		if _, err := time.Parse(leave.MonthLayout, m); err != nil {
			writeError(w, http.StatusBadRequest, "Month filters must be YYYY-MM", nil)
			return
		}
	}

	records, err := h.Store.Query(r.Context(), f)
	if err != nil {
		h.storeError(w, err, "query leave records")
		return
	}
	dtos := make([]LeaveDTO, len(records))
	for i, rec := range records {
		dtos[i] = newLeaveDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, err, "get leave record")
		return
	}
	writeJSON(w, http.StatusOK, newLeaveDTO(rec))
}

// UpdateLeave merges a partial field set into a record. Whatever the
// fields, the record's approval stamp and approver refresh.
func (h *Handler) UpdateLeave(w http.ResponseWriter, r *http.Request) {
	var req UpdateLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	patch, fieldErrs := patchFromRequest(req)
	if len(fieldErrs) > 0 {
		writeValidation(w, fieldErrs)
		return
	}

	rec, err := h.Store.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.storeError(w, err, "update leave record")
		return
	}
	writeJSON(w, http.StatusOK, newLeaveDTO(rec))
}

func patchFromRequest(req UpdateLeaveRequest) (leave.Patch, []leave.FieldError) {
	var errs []leave.FieldError
	p := leave.Patch{
		EmployeeID: req.EmployeeID,
		Name:       req.Name,
		Reason:     req.Reason,
		Approver:   req.Approver,
	}
	if req.Category != nil {
		c := leave.Category(*req.Category)
		if !c.Valid() {
			errs = append(errs, leave.FieldError{Field: "category", Kind: leave.ErrKindFormat, Message: "unknown leave category"})
		}
		p.Category = &c
	}
	if req.Status != nil {
		s := leave.Status(*req.Status)
		if !s.Valid() {
			errs = append(errs, leave.FieldError{Field: "status", Kind: leave.ErrKindFormat, Message: "unknown approval status"})
		}
		p.Status = &s
	}
	if req.Date != nil {
		d, err := leave.ParseDate(*req.Date)
		if err != nil {
			errs = append(errs, leave.FieldError{Field: "date", Kind: leave.ErrKindFormat, Message: "reference date must be YYYY-MM-DD"})
		}
		p.Date = &d
	}
	if req.StartTime != nil {
		if !leave.ValidTimeValue(*req.StartTime) {
			errs = append(errs, leave.FieldError{Field: leave.FieldStartTime, Kind: leave.ErrKindFormat, Message: "start time must be HH:MM on a 15-minute boundary"})
		}
		tv := leave.ParseTimeValue(*req.StartTime)
		p.StartTime = &tv
	}
	if req.EndTime != nil {
		if !leave.ValidTimeValue(*req.EndTime) {
			errs = append(errs, leave.FieldError{Field: leave.FieldEndTime, Kind: leave.ErrKindFormat, Message: "end time must be HH:MM on a 15-minute boundary"})
		}
		tv := leave.ParseTimeValue(*req.EndTime)
		p.EndTime = &tv
	}
	if req.LeaveHours != nil {
		d := decimal.NewFromFloat(*req.LeaveHours).Round(2)
		if !d.IsPositive() {
			errs = append(errs, leave.FieldError{Field: "leave_hours", Kind: leave.ErrKindRange, Message: "leave hours must be positive"})
		}
		p.Hours = &d
	}
	return p, errs
}

func (h *Handler) DeleteLeave(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.storeError(w, err, "delete leave record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApproveLeave and RejectLeave are decision shortcuts over Update.
func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, leave.StatusApproved)
}

func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, leave.StatusRejected)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, status leave.Status) {
	// The approver field is optional, so a body-less decision is fine.
	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	rec, err := h.Store.Update(r.Context(), chi.URLParam(r, "id"), leave.Patch{
		Status:   &status,
		Approver: req.Approver,
	})
	if err != nil {
		h.storeError(w, err, "decide leave record")
		return
	}
	metrics.IncLeaveDecision(string(status))
	writeJSON(w, http.StatusOK, newLeaveDTO(rec))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Employees.ListEmployees(r.Context())
	if err != nil {
		h.storeError(w, err, "list employees")
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = newEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Employees.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, err, "get employee")
		return
	}
	writeJSON(w, http.StatusOK, newEmployeeDTO(emp))
}

// EmployeeSummary reports hours used per category for a year next to
// the annual entitlements from the master file. Pending and approved
// records count as used; rejected ones do not.
func (h *Handler) EmployeeSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	emp, err := h.Employees.GetEmployee(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "get employee")
		return
	}

	year := time.Now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		year, err = strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Year must be numeric", nil)
			return
		}
	}

	records, err := h.Store.Query(r.Context(), leave.Filter{
		EmployeeID: id,
		FromMonth:  strconv.Itoa(year) + "-01",
		ToMonth:    strconv.Itoa(year) + "-12",
	})
	if err != nil {
		h.storeError(w, err, "query leave records")
		return
	}

	used := leave.UsageByCategory(records, year)
	resp := SummaryResponse{EmployeeID: emp.ID, Name: emp.Name, Year: year}
	for _, cat := range leave.Categories() {
		resp.Categories = append(resp.Categories, CategorySummaryDTO{
			Category:         string(cat),
			UsedHours:        used[cat].InexactFloat64(),
			EntitlementHours: emp.Entitlements[cat].InexactFloat64(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// storeError maps the failure taxonomy onto status codes. Storage
// failures log in full and surface generically.
func (h *Handler) storeError(w http.ResponseWriter, err error, op string) {
	switch {
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Leave record not found", nil)
	case leave.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		metrics.IncStoreFailure()
		h.Log.Error().Err(err).Str("op", op).Msg("storage failure")
		writeError(w, http.StatusInternalServerError, "Internal storage failure", nil)
	}
}

func writeValidation(w http.ResponseWriter, errs []leave.FieldError) {
	writeJSON(w, http.StatusBadRequest, ValidationResponse{Error: "validation failed", Errors: errs})
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
