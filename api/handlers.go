/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the leave ledger, request lifecycle, calendar administration and
  attendance clock via REST. Handles HTTP request/response and JSON
  serialization, delegating all semantics to the domain services.

ENDPOINTS:
  Leave:
    POST   /api/leave/requests               Submit a leave request
    GET    /api/leave/requests/{id}          Get a request
    POST   /api/leave/requests/{id}/approve  Approve (debits the ledger)
    POST   /api/leave/requests/{id}/cancel   Cancel or reject
    GET    /api/leave/balance                Ledger row for employee+type
    POST   /api/leave/allocations            Assign or top up a ledger row
    GET    /api/leave/types                  List leave types
    POST   /api/leave/types                  Create a leave type

  Calendar:
    GET    /api/holidays                     List holidays
    POST   /api/holidays                     Create holiday
    DELETE /api/holidays/{id}                Delete holiday
    GET    /api/company-leaves               List company-leave rules
    POST   /api/company-leaves               Create company-leave rule
    DELETE /api/company-leaves/{id}          Delete company-leave rule

  Attendance:
    POST   /api/shifts                       Create a shift schedule
    GET    /api/shifts                       List shifts
    POST   /api/shifts/{id}/assign           Assign the shift to an employee
    POST   /api/attendance/clock-in          Open an activity segment
    POST   /api/attendance/clock-out         Close it and reconcile the day
    GET    /api/attendance/metrics           Worked/overtime/pending seconds

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown ids
  - 409: Illegal status transitions, overlapping requests
  - 500: Internal errors

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/attendance"
	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/duration"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Leave      *leave.Service
	Attendance *attendance.Service
	Calendar   calendar.Store
	Shifts     attendance.Store

	// Punch timestamps default to Now; tests pin it.
	Now func() time.Time
}

// NewHandler creates a new handler wired to the domain services.
func NewHandler(leaveSvc *leave.Service, attendanceSvc *attendance.Service, calStore calendar.Store, shiftStore attendance.Store) *Handler {
	return &Handler{
		Leave:      leaveSvc,
		Attendance: attendanceSvc,
		Calendar:   calStore,
		Shifts:     shiftStore,
		Now:        time.Now,
	}
}

// =============================================================================
// LEAVE REQUEST ENDPOINTS
// =============================================================================

// SubmitRequest validates and persists a new leave request.
// POST /api/leave/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EmployeeID == "" || req.LeaveTypeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id and leave_type_id are required", nil)
		return
	}

	start, err := calendar.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid start_date: %s", req.StartDate), err)
		return
	}
	in := leave.SubmitInput{
		EmployeeID:     req.EmployeeID,
		LeaveTypeID:    req.LeaveTypeID,
		StartDate:      start,
		StartBreakdown: leave.Breakdown(req.StartBreakdown),
		EndBreakdown:   leave.Breakdown(req.EndBreakdown),
		Description:    req.Description,
		HasAttachment:  req.HasAttachment,
	}
	if req.EndDate != "" {
		if in.EndDate, err = calendar.ParseDate(req.EndDate); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid end_date: %s", req.EndDate), err)
			return
		}
	}

	request, err := h.Leave.Submit(r.Context(), in)
	if err != nil {
		writeLeaveError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveRequestDTO(request))
}

// GetRequest returns one request by id.
// GET /api/leave/requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.Leave.Request(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeLeaveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(request))
}

// ApproveRequest moves a request to approved and debits the ledger.
// POST /api/leave/requests/{id}/approve
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.Leave.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeLeaveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(request))
}

// CancelRequest moves a request to a terminal status, crediting back any
// recorded approval debit.
// POST /api/leave/requests/{id}/cancel
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	var req CancelRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	target := leave.Status(req.Status)
	request, err := h.Leave.CancelOrReject(r.Context(), chi.URLParam(r, "id"), target, req.Reason)
	if err != nil {
		writeLeaveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(request))
}

// =============================================================================
// BALANCE AND ALLOCATION ENDPOINTS
// =============================================================================

// GetBalance returns the ledger row for an (employee, leave type) pair.
// GET /api/leave/balance?employee=&leave_type=
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	employeeID := r.URL.Query().Get("employee")
	leaveTypeID := r.URL.Query().Get("leave_type")
	if employeeID == "" || leaveTypeID == "" {
		writeError(w, http.StatusBadRequest, "employee and leave_type are required", nil)
		return
	}

	ledger, err := h.Leave.Balance(r.Context(), employeeID, leaveTypeID)
	if err != nil {
		if errors.Is(err, leave.ErrNoLeaveTypeAssigned) {
			writeError(w, http.StatusNotFound, "No ledger row for this pair", err)
			return
		}
		writeLeaveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(ledger))
}

// CreateAllocation assigns a leave type to an employee or tops up the
// existing row.
// POST /api/leave/allocations
func (h *Handler) CreateAllocation(w http.ResponseWriter, r *http.Request) {
	var req AllocationDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EmployeeID == "" || req.LeaveTypeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id and leave_type_id are required", nil)
		return
	}

	var (
		ledger *leave.AvailableLeave
		err    error
	)
	if req.Days == "" {
		ledger, err = h.Leave.Assign(r.Context(), req.EmployeeID, req.LeaveTypeID)
	} else {
		var days decimal.Decimal
		if days, err = decimal.NewFromString(req.Days); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid days: %s", req.Days), err)
			return
		}
		ledger, err = h.Leave.Allocate(r.Context(), req.EmployeeID, req.LeaveTypeID, days)
	}
	if err != nil {
		writeLeaveError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBalanceDTO(ledger))
}

// =============================================================================
// LEAVE TYPE ENDPOINTS
// =============================================================================

// ListLeaveTypes returns all leave types.
// GET /api/leave/types
func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Leave.LeaveTypes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list leave types", err)
		return
	}
	dtos := make([]LeaveTypeDTO, 0, len(types))
	for _, lt := range types {
		dtos = append(dtos, toLeaveTypeDTO(lt))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateLeaveType creates or updates a leave type.
// POST /api/leave/types
func (h *Handler) CreateLeaveType(w http.ResponseWriter, r *http.Request) {
	var req LeaveTypeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	lt := &leave.LeaveType{
		ID:                  req.ID,
		Name:                req.Name,
		ExcludeHoliday:      req.ExcludeHoliday,
		ExcludeCompanyLeave: req.ExcludeCompanyLeave,
		RequireAttachment:   req.RequireAttachment,
		CarryforwardPolicy:  leave.CarryforwardPolicy(req.CarryforwardPolicy),
	}
	if lt.ID == "" {
		lt.ID = uuid.NewString()
	}
	if lt.CarryforwardPolicy == "" {
		lt.CarryforwardPolicy = leave.CarryforwardNone
	}
	var err error
	if lt.TotalDays, err = decimal.NewFromString(req.TotalDays); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid total_days: %s", req.TotalDays), err)
		return
	}
	if req.CarryforwardMax != "" {
		max, err := decimal.NewFromString(req.CarryforwardMax)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid carryforward_max: %s", req.CarryforwardMax), err)
			return
		}
		lt.CarryforwardMax = &max
	}

	if err := h.Leave.SaveLeaveType(r.Context(), lt); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save leave type", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveTypeDTO(lt))
}

// =============================================================================
// CALENDAR ENDPOINTS
// =============================================================================

// ListHolidays returns all holidays.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Calendar.ListHolidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}
	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, holiday := range holidays {
		dtos = append(dtos, toHolidayDTO(holiday))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday creates a holiday; end_date defaults to start_date.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	holiday := calendar.Holiday{ID: req.ID, Name: req.Name, Recurring: req.Recurring}
	if holiday.ID == "" {
		holiday.ID = uuid.NewString()
	}
	var err error
	if holiday.StartDate, err = calendar.ParseDate(req.StartDate); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid start_date: %s", req.StartDate), err)
		return
	}
	holiday.EndDate = holiday.StartDate
	if req.EndDate != "" {
		if holiday.EndDate, err = calendar.ParseDate(req.EndDate); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid end_date: %s", req.EndDate), err)
			return
		}
	}

	if err := h.Calendar.SaveHoliday(r.Context(), &holiday); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

// DeleteHoliday removes a holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Calendar.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCompanyLeaves returns all company-leave rules.
// GET /api/company-leaves
func (h *Handler) ListCompanyLeaves(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Calendar.ListCompanyLeaves(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list company leaves", err)
		return
	}
	dtos := make([]CompanyLeaveDTO, 0, len(rules))
	for _, rule := range rules {
		dtos = append(dtos, toCompanyLeaveDTO(rule))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCompanyLeave creates a weekday/ordinal exclusion rule.
// POST /api/company-leaves
func (h *Handler) CreateCompanyLeave(w http.ResponseWriter, r *http.Request) {
	var req CompanyLeaveDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Weekday < 0 || req.Weekday > 6 {
		writeError(w, http.StatusBadRequest, "weekday must be 0..6", nil)
		return
	}
	if req.Week != nil && (*req.Week < 0 || *req.Week > 4) {
		writeError(w, http.StatusBadRequest, "week must be 0..4", nil)
		return
	}

	rule := calendar.CompanyLeave{ID: req.ID, Week: req.Week, Weekday: time.Weekday(req.Weekday)}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if err := h.Calendar.SaveCompanyLeave(r.Context(), &rule); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save company leave", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCompanyLeaveDTO(rule))
}

// DeleteCompanyLeave removes a rule.
// DELETE /api/company-leaves/{id}
func (h *Handler) DeleteCompanyLeave(w http.ResponseWriter, r *http.Request) {
	if err := h.Calendar.DeleteCompanyLeave(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete company leave", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ATTENDANCE ENDPOINTS
// =============================================================================

// CreateShift creates a shift schedule with per-weekday windows.
// POST /api/shifts
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req ShiftDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	shift := &attendance.Shift{ID: req.ID, Name: req.Name, Days: make(map[time.Weekday]attendance.ScheduleEntry)}
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	for _, e := range req.Entries {
		if e.Weekday < 0 || e.Weekday > 6 {
			writeError(w, http.StatusBadRequest, "weekday must be 0..6", nil)
			return
		}
		start, err := duration.Parse(e.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid start: %s", e.Start), err)
			return
		}
		end, err := duration.Parse(e.End)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid end: %s", e.End), err)
			return
		}
		if _, err := duration.Parse(e.MinimumHour); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid minimum_hour: %s", e.MinimumHour), err)
			return
		}
		shift.Days[time.Weekday(e.Weekday)] = attendance.ScheduleEntry{
			MinimumHour:  e.MinimumHour,
			StartSeconds: start,
			EndSeconds:   end,
		}
	}

	if err := h.Shifts.SaveShift(r.Context(), shift); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save shift", err)
		return
	}
	writeJSON(w, http.StatusCreated, toShiftDTO(shift))
}

// ListShifts returns all shift schedules.
// GET /api/shifts
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.Shifts.ListShifts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list shifts", err)
		return
	}
	dtos := make([]ShiftDTO, 0, len(shifts))
	for _, s := range shifts {
		dtos = append(dtos, toShiftDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AssignShift assigns the shift to an employee.
// POST /api/shifts/{id}/assign
func (h *Handler) AssignShift(w http.ResponseWriter, r *http.Request) {
	var req AssignShiftDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return
	}

	if err := h.Shifts.AssignShift(r.Context(), req.EmployeeID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, attendance.ErrShiftNotFound) {
			writeError(w, http.StatusNotFound, "Shift not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to assign shift", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClockIn opens an activity segment for the employee.
// POST /api/attendance/clock-in
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	employeeID, at, ok := h.parsePunch(w, r)
	if !ok {
		return
	}
	record, err := h.Attendance.ClockIn(r.Context(), employeeID, at)
	if err != nil {
		writeAttendanceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttendanceRecordDTO(record))
}

// ClockOut closes the open segment and reconciles the shift day.
// POST /api/attendance/clock-out
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	employeeID, at, ok := h.parsePunch(w, r)
	if !ok {
		return
	}
	record, err := h.Attendance.ClockOut(r.Context(), employeeID, at)
	if err != nil {
		writeAttendanceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttendanceRecordDTO(record))
}

// GetMetrics returns worked/overtime/pending for one shift day.
// GET /api/attendance/metrics?employee=&date=
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	employeeID := r.URL.Query().Get("employee")
	dateStr := r.URL.Query().Get("date")
	if employeeID == "" || dateStr == "" {
		writeError(w, http.StatusBadRequest, "employee and date are required", nil)
		return
	}
	date, err := calendar.ParseDate(dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid date: %s", dateStr), err)
		return
	}

	metrics, err := h.Attendance.DailyMetrics(r.Context(), employeeID, date)
	if err != nil {
		writeAttendanceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MetricsDTO{
		Record:   toAttendanceRecordDTO(metrics.Record),
		AtWork:   duration.Format(metrics.AtWorkSeconds),
		Overtime: duration.Format(metrics.OvertimeSeconds),
		Pending:  duration.Format(metrics.PendingSeconds),
		EarlyOut: metrics.EarlyOut,
	})
}

func (h *Handler) parsePunch(w http.ResponseWriter, r *http.Request) (string, time.Time, bool) {
	var req PunchDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return "", time.Time{}, false
	}
	if req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return "", time.Time{}, false
	}
	at := h.Now().UTC()
	if req.At != "" {
		t, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid at: %s", req.At), err)
			return "", time.Time{}, false
		}
		at = t.UTC()
	}
	return req.EmployeeID, at, true
}

func toShiftDTO(s *attendance.Shift) ShiftDTO {
	dto := ShiftDTO{ID: s.ID, Name: s.Name, Entries: make([]ShiftEntryDTO, 0, len(s.Days))}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		entry, ok := s.Days[wd]
		if !ok {
			continue
		}
		dto.Entries = append(dto.Entries, ShiftEntryDTO{
			Weekday:     int(wd),
			MinimumHour: entry.MinimumHour,
			Start:       duration.Format(entry.StartSeconds),
			End:         duration.Format(entry.EndSeconds),
		})
	}
	return dto
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeLeaveError maps domain errors onto HTTP statuses.
func writeLeaveError(w http.ResponseWriter, err error) {
	switch {
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, leave.ErrInvalidTransition), errors.Is(err, leave.ErrOverlappingRequest):
		writeError(w, http.StatusConflict, "Conflict", err)
	case leave.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeAttendanceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, attendance.ErrNoAttendance), errors.Is(err, attendance.ErrShiftNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, attendance.ErrAlreadyClockedIn), errors.Is(err, attendance.ErrNotClockedIn):
		writeError(w, http.StatusConflict, "Conflict", err)
	case attendance.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
