/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures decoupling the domain model from the API contract.
  Dates travel as YYYY-MM-DD, clock times as HH:MM with the optional
  (+1) next-day marker, hours as plain numbers.

NAMING CONVENTION:
  - *DTO:      Response types returned to clients
  - *Request:  Request body types from clients
  - *Response: Response wrappers

The employee credential column never leaves the server: EmployeeDTO
deliberately has no field for it.
*/
package api

import (
	"github.com/warp/leave-engine/leave"
)

// CalculateRequest is the calculation boundary input.
type CalculateRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type CalculateResponse struct {
	LeaveHours float64 `json:"leave_hours"`
}

// SubmitLeaveRequest is the record submission boundary input. The
// employee identity is supplied by the authentication collaborator.
type SubmitLeaveRequest struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Reason     string `json:"reason"`
}

type SubmitLeaveResponse struct {
	ID         string  `json:"id"`
	LeaveHours float64 `json:"leave_hours"`
}

// UpdateLeaveRequest is the partial administrative update. Absent
// fields stay untouched; leave_hours is the explicit admin override.
type UpdateLeaveRequest struct {
	EmployeeID *string  `json:"employee_id"`
	Name       *string  `json:"name"`
	Category   *string  `json:"category"`
	Date       *string  `json:"date"`
	StartTime  *string  `json:"start_time"`
	EndTime    *string  `json:"end_time"`
	LeaveHours *float64 `json:"leave_hours"`
	Reason     *string  `json:"reason"`
	Status     *string  `json:"status"`
	Approver   string   `json:"approver"`
}

// DecisionRequest accompanies approve/reject calls.
type DecisionRequest struct {
	Approver string `json:"approver"`
}

// LeaveDTO is a record in API responses.
type LeaveDTO struct {
	ID          string  `json:"id"`
	EmployeeID  string  `json:"employee_id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	EndDate     string  `json:"end_date"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	LeaveHours  float64 `json:"leave_hours"`
	Reason      string  `json:"reason,omitempty"`
	Status      string  `json:"status"`
	SubmittedAt string  `json:"submitted_at,omitempty"`
	ApprovedAt  string  `json:"approved_at,omitempty"`
	Approver    string  `json:"approver,omitempty"`
}

func newLeaveDTO(r leave.Record) LeaveDTO {
	dto := LeaveDTO{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		Name:       r.Name,
		Category:   string(r.Category),
		Date:       r.Date.Format(leave.DateLayout),
		EndDate:    r.EndDate.Format(leave.DateLayout),
		StartTime:  leave.FormatTimeValue(r.StartTime),
		EndTime:    leave.FormatTimeValue(r.EndTime),
		LeaveHours: r.Hours.InexactFloat64(),
		Reason:     r.Reason,
		Status:     string(r.Status),
	}
	if !r.SubmittedAt.IsZero() {
		dto.SubmittedAt = r.SubmittedAt.Format(leave.TimestampLayout)
	}
	if !r.ApprovedAt.IsZero() {
		dto.ApprovedAt = r.ApprovedAt.Format(leave.TimestampLayout)
		dto.Approver = r.Approver
	}
	return dto
}

// EmployeeDTO is a master row in API responses, credential excluded.
type EmployeeDTO struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Role         string             `json:"role"`
	Entitlements map[string]float64 `json:"entitlements"`
}

func newEmployeeDTO(e leave.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:           e.ID,
		Name:         e.Name,
		Role:         e.Role,
		Entitlements: make(map[string]float64, len(e.Entitlements)),
	}
	for cat, hours := range e.Entitlements {
		dto.Entitlements[string(cat)] = hours.InexactFloat64()
	}
	return dto
}

// CategorySummaryDTO pairs hours used against the annual entitlement.
type CategorySummaryDTO struct {
	Category         string  `json:"category"`
	UsedHours        float64 `json:"used_hours"`
	EntitlementHours float64 `json:"entitlement_hours"`
}

type SummaryResponse struct {
	EmployeeID string               `json:"employee_id"`
	Name       string               `json:"name"`
	Year       int                  `json:"year"`
	Categories []CategorySummaryDTO `json:"categories"`
}

// ErrorResponse is the generic failure payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ValidationResponse carries field-tagged validation errors.
type ValidationResponse struct {
	Error  string             `json:"error"`
	Errors []leave.FieldError `json:"errors"`
}
