/*
dto.go - Request/response data structures for the HTTP API

All wire types live here so handlers.go stays focused on flow. Decimal
day amounts travel as JSON strings to keep half-day precision exact;
dates travel as "2006-01-02"; timestamps as RFC3339.

SEE ALSO:
  - handlers.go: Handler implementations
  - server.go: Route definitions
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/attendance"
	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// ERROR RESPONSE
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

type SubmitRequestDTO struct {
	EmployeeID     string `json:"employee_id"`
	LeaveTypeID    string `json:"leave_type_id"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date,omitempty"`
	StartBreakdown string `json:"start_breakdown,omitempty"`
	EndBreakdown   string `json:"end_breakdown,omitempty"`
	Description    string `json:"description,omitempty"`
	HasAttachment  bool   `json:"has_attachment,omitempty"`
}

type CancelRequestDTO struct {
	Status string `json:"status"` // "cancelled" or "rejected"
	Reason string `json:"reason,omitempty"`
}

type LeaveRequestDTO struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employee_id"`
	LeaveTypeID    string `json:"leave_type_id"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	StartBreakdown string `json:"start_breakdown"`
	EndBreakdown   string `json:"end_breakdown"`
	RequestedDays  string `json:"requested_days"`
	Description    string `json:"description,omitempty"`
	HasAttachment  bool   `json:"has_attachment"`
	Status         string `json:"status"`
	RejectReason   string `json:"reject_reason,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toLeaveRequestDTO(r *leave.LeaveRequest) LeaveRequestDTO {
	return LeaveRequestDTO{
		ID:             r.ID,
		EmployeeID:     r.EmployeeID,
		LeaveTypeID:    r.LeaveTypeID,
		StartDate:      r.StartDate.String(),
		EndDate:        r.EndDate.String(),
		StartBreakdown: string(r.StartBreakdown),
		EndBreakdown:   string(r.EndBreakdown),
		RequestedDays:  r.RequestedDays.String(),
		Description:    r.Description,
		HasAttachment:  r.HasAttachment,
		Status:         string(r.Status),
		RejectReason:   r.RejectReason,
		CreatedAt:      r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// =============================================================================
// BALANCE AND ALLOCATION
// =============================================================================

type BalanceDTO struct {
	EmployeeID       string `json:"employee_id"`
	LeaveTypeID      string `json:"leave_type_id"`
	AvailableDays    string `json:"available_days"`
	CarryforwardDays string `json:"carryforward_days"`
	TotalDays        string `json:"total_days"`
	AssignedDate     string `json:"assigned_date"`
}

func toBalanceDTO(al *leave.AvailableLeave) BalanceDTO {
	return BalanceDTO{
		EmployeeID:       al.EmployeeID,
		LeaveTypeID:      al.LeaveTypeID,
		AvailableDays:    al.AvailableDays.String(),
		CarryforwardDays: al.CarryforwardDays.String(),
		TotalDays:        al.TotalLeaveDays().String(),
		AssignedDate:     al.AssignedDate.String(),
	}
}

type AllocationDTO struct {
	EmployeeID  string `json:"employee_id"`
	LeaveTypeID string `json:"leave_type_id"`
	// Days empty means "assign the type's full entitlement once".
	Days string `json:"days,omitempty"`
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

type LeaveTypeDTO struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	TotalDays           string `json:"total_days"`
	ExcludeHoliday      bool   `json:"exclude_holiday"`
	ExcludeCompanyLeave bool   `json:"exclude_company_leave"`
	RequireAttachment   bool   `json:"require_attachment"`
	CarryforwardPolicy  string `json:"carryforward_policy,omitempty"`
	CarryforwardMax     string `json:"carryforward_max,omitempty"`
}

func toLeaveTypeDTO(lt *leave.LeaveType) LeaveTypeDTO {
	dto := LeaveTypeDTO{
		ID:                  lt.ID,
		Name:                lt.Name,
		TotalDays:           lt.TotalDays.String(),
		ExcludeHoliday:      lt.ExcludeHoliday,
		ExcludeCompanyLeave: lt.ExcludeCompanyLeave,
		RequireAttachment:   lt.RequireAttachment,
		CarryforwardPolicy:  string(lt.CarryforwardPolicy),
	}
	if lt.CarryforwardMax != nil {
		dto.CarryforwardMax = lt.CarryforwardMax.String()
	}
	return dto
}

// =============================================================================
// CALENDAR
// =============================================================================

type HolidayDTO struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
	Recurring bool   `json:"recurring,omitempty"`
}

func toHolidayDTO(h calendar.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:        h.ID,
		Name:      h.Name,
		StartDate: h.StartDate.String(),
		EndDate:   h.EndDate.String(),
		Recurring: h.Recurring,
	}
}

type CompanyLeaveDTO struct {
	ID      string `json:"id,omitempty"`
	Week    *int   `json:"week,omitempty"` // 0-based ordinal; nil = every week
	Weekday int    `json:"weekday"`        // 0=Sunday .. 6=Saturday
}

func toCompanyLeaveDTO(cl calendar.CompanyLeave) CompanyLeaveDTO {
	return CompanyLeaveDTO{ID: cl.ID, Week: cl.Week, Weekday: int(cl.Weekday)}
}

// =============================================================================
// ATTENDANCE
// =============================================================================

type ShiftEntryDTO struct {
	Weekday     int    `json:"weekday"` // 0=Sunday .. 6=Saturday
	MinimumHour string `json:"minimum_hour"`
	Start       string `json:"start"` // "HH:MM"
	End         string `json:"end"`   // "HH:MM"; before start = night shift
}

type ShiftDTO struct {
	ID      string          `json:"id,omitempty"`
	Name    string          `json:"name"`
	Entries []ShiftEntryDTO `json:"entries"`
}

type AssignShiftDTO struct {
	EmployeeID string `json:"employee_id"`
}

type PunchDTO struct {
	EmployeeID string `json:"employee_id"`
	At         string `json:"at,omitempty"` // RFC3339; defaults to now
}

type AttendanceRecordDTO struct {
	ID              string `json:"id"`
	EmployeeID      string `json:"employee_id"`
	ShiftID         string `json:"shift_id"`
	AttendanceDate  string `json:"attendance_date"`
	Day             int    `json:"day"`
	ClockInTime     string `json:"clock_in_time"`
	ClockOutTime    string `json:"clock_out_time,omitempty"`
	MinimumHour     string `json:"minimum_hour"`
	AtWorkSeconds   int    `json:"at_work_seconds"`
	OvertimeSeconds int    `json:"overtime_seconds"`
	PendingSeconds  int    `json:"pending_seconds"`
	EarlyOut        bool   `json:"early_out"`
}

func toAttendanceRecordDTO(r *attendance.Record) AttendanceRecordDTO {
	dto := AttendanceRecordDTO{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		ShiftID:         r.ShiftID,
		AttendanceDate:  r.AttendanceDate.String(),
		Day:             int(r.Day),
		ClockInTime:     r.ClockInTime.UTC().Format(time.RFC3339),
		MinimumHour:     r.MinimumHour,
		AtWorkSeconds:   r.AtWorkSeconds,
		OvertimeSeconds: r.OvertimeSeconds,
		PendingSeconds:  r.PendingSeconds(),
		EarlyOut:        r.EarlyOut,
	}
	if !r.ClockOutTime.IsZero() {
		dto.ClockOutTime = r.ClockOutTime.UTC().Format(time.RFC3339)
	}
	return dto
}

type MetricsDTO struct {
	Record          AttendanceRecordDTO `json:"record"`
	AtWork          string              `json:"at_work"`  // "HH:MM"
	Overtime        string              `json:"overtime"` // "HH:MM"
	Pending         string              `json:"pending"`  // "HH:MM"
	EarlyOut        bool                `json:"early_out"`
}
