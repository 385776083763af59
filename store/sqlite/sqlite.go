/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

INTERFACES IMPLEMENTED:
  leave.Store:      leave types, ledger rows, requests
  calendar.Store:   holidays, company leaves
  attendance.Store: shifts, assignments, records, activity segments

ATOMICITY:
  SaveRequestAndLedger writes the request and its ledger row inside one
  database transaction, so a status change is never visible without its
  balance mutation.

KEY TABLES:
  leave_types:           Entitlement categories and exclusion policies
  available_leaves:      One ledger row per (employee, leave type)
  leave_requests:        Request lifecycle with recorded approval split
  holidays:              Literal and yearly-recurring exclusion dates
  company_leaves:        Weekday/ordinal exclusion rules
  shifts, shift_entries: Shift windows per weekday
  attendance_records:    One row per (employee, shift day)
  attendance_activities: Individual clock-in/out segments

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - leave/store.go, calendar/store.go, attendance/store.go: interfaces
  - store/memory: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/attendance"
	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/leave"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Leave types
	CREATE TABLE IF NOT EXISTS leave_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		total_days TEXT NOT NULL,
		exclude_holiday BOOLEAN NOT NULL DEFAULT FALSE,
		exclude_company_leave BOOLEAN NOT NULL DEFAULT FALSE,
		require_attachment BOOLEAN NOT NULL DEFAULT FALSE,
		carryforward_policy TEXT NOT NULL DEFAULT 'none',
		carryforward_max TEXT
	);

	-- Ledger rows: one per (employee, leave type)
	CREATE TABLE IF NOT EXISTS available_leaves (
		employee_id TEXT NOT NULL,
		leave_type_id TEXT NOT NULL,
		available_days TEXT NOT NULL,
		carryforward_days TEXT NOT NULL,
		assigned_date TEXT NOT NULL,
		PRIMARY KEY (employee_id, leave_type_id)
	);

	CREATE INDEX IF NOT EXISTS idx_available_leaves_employee
		ON available_leaves(employee_id);

	-- Leave requests
	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		start_breakdown TEXT NOT NULL,
		end_breakdown TEXT NOT NULL,
		requested_days TEXT NOT NULL,
		description TEXT,
		has_attachment BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'requested',
		reject_reason TEXT,
		approved_available_days TEXT NOT NULL DEFAULT '0',
		approved_carryforward_days TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leave_requests_employee
		ON leave_requests(employee_id);
	CREATE INDEX IF NOT EXISTS idx_leave_requests_status
		ON leave_requests(status);
	-- Overlap checks scan the employee's ranges (hot path on submit)
	CREATE INDEX IF NOT EXISTS idx_leave_requests_employee_dates
		ON leave_requests(employee_id, start_date, end_date);

	-- Holidays
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		recurring BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_dates
		ON holidays(start_date, end_date);

	-- Company leaves (week NULL means every matching weekday)
	CREATE TABLE IF NOT EXISTS company_leaves (
		id TEXT PRIMARY KEY,
		week INTEGER,
		weekday INTEGER NOT NULL
	);

	-- Shifts and their per-weekday windows
	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shift_entries (
		shift_id TEXT NOT NULL REFERENCES shifts(id) ON DELETE CASCADE,
		weekday INTEGER NOT NULL,
		minimum_hour TEXT NOT NULL,
		start_seconds INTEGER NOT NULL,
		end_seconds INTEGER NOT NULL,
		PRIMARY KEY (shift_id, weekday)
	);

	-- One shift per employee
	CREATE TABLE IF NOT EXISTS shift_assignments (
		employee_id TEXT PRIMARY KEY,
		shift_id TEXT NOT NULL REFERENCES shifts(id)
	);

	-- Attendance records: one per (employee, shift day)
	CREATE TABLE IF NOT EXISTS attendance_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		shift_id TEXT NOT NULL,
		attendance_date TEXT NOT NULL,
		day INTEGER NOT NULL,
		clock_in_time TEXT NOT NULL,
		clock_out_time TEXT,
		minimum_hour TEXT NOT NULL,
		start_seconds INTEGER NOT NULL,
		end_seconds INTEGER NOT NULL,
		at_work_seconds INTEGER NOT NULL DEFAULT 0,
		overtime_seconds INTEGER NOT NULL DEFAULT 0,
		early_out BOOLEAN NOT NULL DEFAULT FALSE,
		validated BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (employee_id, attendance_date)
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_records_employee_date
		ON attendance_records(employee_id, attendance_date DESC);

	-- Activity segments; at most one open (clock_out NULL) per employee
	CREATE TABLE IF NOT EXISTS attendance_activities (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		attendance_date TEXT NOT NULL,
		clock_in TEXT NOT NULL,
		clock_out TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_activities_employee_date
		ON attendance_activities(employee_id, attendance_date);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_activities_open
		ON attendance_activities(employee_id) WHERE clock_out IS NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEAVE TYPES (leave.Store)
// =============================================================================

func (s *Store) SaveLeaveType(ctx context.Context, lt *leave.LeaveType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var max sql.NullString
	if lt.CarryforwardMax != nil {
		max = sql.NullString{String: lt.CarryforwardMax.String(), Valid: true}
	}

	query := `
		INSERT INTO leave_types
		(id, name, total_days, exclude_holiday, exclude_company_leave,
		 require_attachment, carryforward_policy, carryforward_max)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			total_days = excluded.total_days,
			exclude_holiday = excluded.exclude_holiday,
			exclude_company_leave = excluded.exclude_company_leave,
			require_attachment = excluded.require_attachment,
			carryforward_policy = excluded.carryforward_policy,
			carryforward_max = excluded.carryforward_max
	`
	_, err := s.db.ExecContext(ctx, query,
		lt.ID, lt.Name, lt.TotalDays.String(),
		lt.ExcludeHoliday, lt.ExcludeCompanyLeave, lt.RequireAttachment,
		string(lt.CarryforwardPolicy), max,
	)
	if err != nil {
		return fmt.Errorf("failed to save leave type: %w", err)
	}
	return nil
}

func (s *Store) LeaveTypeByID(ctx context.Context, id string) (*leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, total_days, exclude_holiday, exclude_company_leave,
		       require_attachment, carryforward_policy, carryforward_max
		FROM leave_types WHERE id = ?
	`, id)

	lt, err := scanLeaveType(row)
	if err == sql.ErrNoRows {
		return nil, leave.ErrLeaveTypeNotFound
	}
	return lt, err
}

func (s *Store) ListLeaveTypes(ctx context.Context) ([]*leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, total_days, exclude_holiday, exclude_company_leave,
		       require_attachment, carryforward_policy, carryforward_max
		FROM leave_types ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave types: %w", err)
	}
	defer rows.Close()

	var out []*leave.LeaveType
	for rows.Next() {
		lt, err := scanLeaveType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lt)
	}
	return out, rows.Err()
}

func scanLeaveType(row scanner) (*leave.LeaveType, error) {
	var (
		lt        leave.LeaveType
		totalDays string
		policy    string
		max       sql.NullString
	)
	err := row.Scan(&lt.ID, &lt.Name, &totalDays,
		&lt.ExcludeHoliday, &lt.ExcludeCompanyLeave, &lt.RequireAttachment,
		&policy, &max)
	if err != nil {
		return nil, err
	}
	if lt.TotalDays, err = decimal.NewFromString(totalDays); err != nil {
		return nil, fmt.Errorf("failed to parse total_days: %w", err)
	}
	lt.CarryforwardPolicy = leave.CarryforwardPolicy(policy)
	if max.Valid {
		d, err := decimal.NewFromString(max.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse carryforward_max: %w", err)
		}
		lt.CarryforwardMax = &d
	}
	return &lt, nil
}

// =============================================================================
// LEDGER ROWS (leave.Store)
// =============================================================================

func (s *Store) SaveAvailableLeave(ctx context.Context, al *leave.AvailableLeave) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return execSaveAvailableLeave(ctx, s.db, al)
}

func execSaveAvailableLeave(ctx context.Context, db execer, al *leave.AvailableLeave) error {
	query := `
		INSERT INTO available_leaves
		(employee_id, leave_type_id, available_days, carryforward_days, assigned_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, leave_type_id) DO UPDATE SET
			available_days = excluded.available_days,
			carryforward_days = excluded.carryforward_days,
			assigned_date = excluded.assigned_date
	`
	_, err := db.ExecContext(ctx, query,
		al.EmployeeID, al.LeaveTypeID,
		al.AvailableDays.String(), al.CarryforwardDays.String(),
		al.AssignedDate.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save available leave: %w", err)
	}
	return nil
}

func (s *Store) AvailableLeaveFor(ctx context.Context, employeeID, leaveTypeID string) (*leave.AvailableLeave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT employee_id, leave_type_id, available_days, carryforward_days, assigned_date
		FROM available_leaves WHERE employee_id = ? AND leave_type_id = ?
	`, employeeID, leaveTypeID)

	al, err := scanAvailableLeave(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return al, err
}

func (s *Store) ListAvailableLeaves(ctx context.Context, employeeID string) ([]*leave.AvailableLeave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, leave_type_id, available_days, carryforward_days, assigned_date
		FROM available_leaves WHERE employee_id = ? ORDER BY leave_type_id
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query available leaves: %w", err)
	}
	defer rows.Close()

	var out []*leave.AvailableLeave
	for rows.Next() {
		al, err := scanAvailableLeave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, al)
	}
	return out, rows.Err()
}

func scanAvailableLeave(row scanner) (*leave.AvailableLeave, error) {
	var (
		al                          leave.AvailableLeave
		available, carried, assigned string
	)
	if err := row.Scan(&al.EmployeeID, &al.LeaveTypeID, &available, &carried, &assigned); err != nil {
		return nil, err
	}
	var err error
	if al.AvailableDays, err = decimal.NewFromString(available); err != nil {
		return nil, fmt.Errorf("failed to parse available_days: %w", err)
	}
	if al.CarryforwardDays, err = decimal.NewFromString(carried); err != nil {
		return nil, fmt.Errorf("failed to parse carryforward_days: %w", err)
	}
	if al.AssignedDate, err = calendar.ParseDate(assigned); err != nil {
		return nil, fmt.Errorf("failed to parse assigned_date: %w", err)
	}
	return &al, nil
}

// =============================================================================
// LEAVE REQUESTS (leave.Store)
// =============================================================================

func (s *Store) SaveRequest(ctx context.Context, r *leave.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return execSaveRequest(ctx, s.db, r)
}

func execSaveRequest(ctx context.Context, db execer, r *leave.LeaveRequest) error {
	query := `
		INSERT INTO leave_requests
		(id, employee_id, leave_type_id, start_date, end_date,
		 start_breakdown, end_breakdown, requested_days, description,
		 has_attachment, status, reject_reason,
		 approved_available_days, approved_carryforward_days,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			reject_reason = excluded.reject_reason,
			approved_available_days = excluded.approved_available_days,
			approved_carryforward_days = excluded.approved_carryforward_days,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query,
		r.ID, r.EmployeeID, r.LeaveTypeID,
		r.StartDate.String(), r.EndDate.String(),
		string(r.StartBreakdown), string(r.EndBreakdown),
		r.RequestedDays.String(), nullString(r.Description),
		r.HasAttachment, string(r.Status), nullString(r.RejectReason),
		r.ApprovedAvailableDays.String(), r.ApprovedCarryforwardDays.String(),
		r.CreatedAt.UTC().Format(time.RFC3339), r.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save leave request: %w", err)
	}
	return nil
}

const requestColumns = `
	id, employee_id, leave_type_id, start_date, end_date,
	start_breakdown, end_breakdown, requested_days, description,
	has_attachment, status, reject_reason,
	approved_available_days, approved_carryforward_days,
	created_at, updated_at
`

func (s *Store) RequestByID(ctx context.Context, id string) (*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM leave_requests WHERE id = ?`, id)

	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, leave.ErrRequestNotFound
	}
	return r, err
}

func (s *Store) ListRequests(ctx context.Context, employeeID string) ([]*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM leave_requests WHERE employee_id = ? ORDER BY created_at`,
		employeeID)
}

func (s *Store) OverlappingRequests(ctx context.Context, employeeID string, start, end calendar.Date) ([]*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Terminal statuses never block a new request.
	return s.queryRequests(ctx, `
		SELECT `+requestColumns+`
		FROM leave_requests
		WHERE employee_id = ?
		  AND status IN ('requested', 'approved')
		  AND start_date <= ? AND end_date >= ?
		ORDER BY start_date
	`, employeeID, end.String(), start.String())
}

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]*leave.LeaveRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer rows.Close()

	var out []*leave.LeaveRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRequest(row scanner) (*leave.LeaveRequest, error) {
	var (
		r                        leave.LeaveRequest
		startDate, endDate       string
		startBreakdown           string
		endBreakdown             string
		requestedDays            string
		description, rejectReason sql.NullString
		status                   string
		approvedAvail, approvedCF string
		createdAt, updatedAt     string
	)
	err := row.Scan(&r.ID, &r.EmployeeID, &r.LeaveTypeID,
		&startDate, &endDate, &startBreakdown, &endBreakdown,
		&requestedDays, &description, &r.HasAttachment, &status, &rejectReason,
		&approvedAvail, &approvedCF, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if r.StartDate, err = calendar.ParseDate(startDate); err != nil {
		return nil, fmt.Errorf("failed to parse start_date: %w", err)
	}
	if r.EndDate, err = calendar.ParseDate(endDate); err != nil {
		return nil, fmt.Errorf("failed to parse end_date: %w", err)
	}
	r.StartBreakdown = leave.Breakdown(startBreakdown)
	r.EndBreakdown = leave.Breakdown(endBreakdown)
	if r.RequestedDays, err = decimal.NewFromString(requestedDays); err != nil {
		return nil, fmt.Errorf("failed to parse requested_days: %w", err)
	}
	r.Description = description.String
	r.Status = leave.Status(status)
	r.RejectReason = rejectReason.String
	if r.ApprovedAvailableDays, err = decimal.NewFromString(approvedAvail); err != nil {
		return nil, fmt.Errorf("failed to parse approved_available_days: %w", err)
	}
	if r.ApprovedCarryforwardDays, err = decimal.NewFromString(approvedCF); err != nil {
		return nil, fmt.Errorf("failed to parse approved_carryforward_days: %w", err)
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &r, nil
}

// SaveRequestAndLedger persists both records atomically.
func (s *Store) SaveRequestAndLedger(ctx context.Context, r *leave.LeaveRequest, al *leave.AvailableLeave) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := execSaveRequest(ctx, tx, r); err != nil {
		return err
	}
	if err := execSaveAvailableLeave(ctx, tx, al); err != nil {
		return err
	}
	return tx.Commit()
}

// =============================================================================
// HOLIDAYS AND COMPANY LEAVES (calendar.Store)
// =============================================================================

func (s *Store) SaveHoliday(ctx context.Context, h *calendar.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	end := h.EndDate
	if end.IsZero() {
		end = h.StartDate
	}
	query := `
		INSERT INTO holidays (id, name, start_date, end_date, recurring)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			recurring = excluded.recurring
	`
	_, err := s.db.ExecContext(ctx, query,
		h.ID, h.Name, h.StartDate.String(), end.String(), h.Recurring)
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

func (s *Store) ListHolidays(ctx context.Context) ([]calendar.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, start_date, end_date, recurring
		FROM holidays ORDER BY start_date
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var out []calendar.Holiday
	for rows.Next() {
		var (
			h          calendar.Holiday
			start, end string
		)
		if err := rows.Scan(&h.ID, &h.Name, &start, &end, &h.Recurring); err != nil {
			return nil, err
		}
		if h.StartDate, err = calendar.ParseDate(start); err != nil {
			return nil, fmt.Errorf("failed to parse holiday start_date: %w", err)
		}
		if h.EndDate, err = calendar.ParseDate(end); err != nil {
			return nil, fmt.Errorf("failed to parse holiday end_date: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	return nil
}

func (s *Store) SaveCompanyLeave(ctx context.Context, cl *calendar.CompanyLeave) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var week sql.NullInt64
	if cl.Week != nil {
		week = sql.NullInt64{Int64: int64(*cl.Week), Valid: true}
	}
	query := `
		INSERT INTO company_leaves (id, week, weekday)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			week = excluded.week,
			weekday = excluded.weekday
	`
	_, err := s.db.ExecContext(ctx, query, cl.ID, week, int(cl.Weekday))
	if err != nil {
		return fmt.Errorf("failed to save company leave: %w", err)
	}
	return nil
}

func (s *Store) ListCompanyLeaves(ctx context.Context) ([]calendar.CompanyLeave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, week, weekday FROM company_leaves ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query company leaves: %w", err)
	}
	defer rows.Close()

	var out []calendar.CompanyLeave
	for rows.Next() {
		var (
			cl      calendar.CompanyLeave
			week    sql.NullInt64
			weekday int
		)
		if err := rows.Scan(&cl.ID, &week, &weekday); err != nil {
			return nil, err
		}
		if week.Valid {
			w := int(week.Int64)
			cl.Week = &w
		}
		cl.Weekday = time.Weekday(weekday)
		out = append(out, cl)
	}
	return out, rows.Err()
}

func (s *Store) DeleteCompanyLeave(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM company_leaves WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete company leave: %w", err)
	}
	return nil
}

// =============================================================================
// SHIFTS (attendance.Store)
// =============================================================================

func (s *Store) SaveShift(ctx context.Context, shift *attendance.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO shifts (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, shift.ID, shift.Name)
	if err != nil {
		return fmt.Errorf("failed to save shift: %w", err)
	}

	// Entries are replaced wholesale so removed weekdays disappear.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM shift_entries WHERE shift_id = ?", shift.ID); err != nil {
		return fmt.Errorf("failed to clear shift entries: %w", err)
	}
	for wd, entry := range shift.Days {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO shift_entries (shift_id, weekday, minimum_hour, start_seconds, end_seconds)
			VALUES (?, ?, ?, ?, ?)
		`, shift.ID, int(wd), entry.MinimumHour, entry.StartSeconds, entry.EndSeconds)
		if err != nil {
			return fmt.Errorf("failed to save shift entry: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) ShiftByID(ctx context.Context, id string) (*attendance.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadShift(ctx, id)
}

func (s *Store) loadShift(ctx context.Context, id string) (*attendance.Shift, error) {
	shift := &attendance.Shift{ID: id, Days: make(map[time.Weekday]attendance.ScheduleEntry)}
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM shifts WHERE id = ?", id).Scan(&shift.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query shift: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT weekday, minimum_hour, start_seconds, end_seconds
		FROM shift_entries WHERE shift_id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query shift entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			weekday int
			entry   attendance.ScheduleEntry
		)
		if err := rows.Scan(&weekday, &entry.MinimumHour, &entry.StartSeconds, &entry.EndSeconds); err != nil {
			return nil, err
		}
		shift.Days[time.Weekday(weekday)] = entry
	}
	return shift, rows.Err()
}

func (s *Store) ListShifts(ctx context.Context) ([]*attendance.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id FROM shifts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []*attendance.Shift
	for _, id := range ids {
		shift, err := s.loadShift(ctx, id)
		if err != nil {
			return nil, err
		}
		if shift != nil {
			out = append(out, shift)
		}
	}
	return out, nil
}

func (s *Store) AssignShift(ctx context.Context, employeeID, shiftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM shifts WHERE id = ?", shiftID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check shift: %w", err)
	}
	if exists == 0 {
		return attendance.ErrShiftNotFound
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO shift_assignments (employee_id, shift_id) VALUES (?, ?)
		ON CONFLICT(employee_id) DO UPDATE SET shift_id = excluded.shift_id
	`, employeeID, shiftID)
	if err != nil {
		return fmt.Errorf("failed to assign shift: %w", err)
	}
	return nil
}

func (s *Store) ShiftForEmployee(ctx context.Context, employeeID string) (*attendance.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var shiftID string
	err := s.db.QueryRowContext(ctx,
		"SELECT shift_id FROM shift_assignments WHERE employee_id = ?",
		employeeID).Scan(&shiftID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query shift assignment: %w", err)
	}
	return s.loadShift(ctx, shiftID)
}

// =============================================================================
// ATTENDANCE RECORDS AND ACTIVITIES (attendance.Store)
// =============================================================================

func (s *Store) SaveRecord(ctx context.Context, r *attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var clockOut sql.NullString
	if !r.ClockOutTime.IsZero() {
		clockOut = sql.NullString{String: r.ClockOutTime.UTC().Format(time.RFC3339), Valid: true}
	}
	query := `
		INSERT INTO attendance_records
		(id, employee_id, shift_id, attendance_date, day,
		 clock_in_time, clock_out_time, minimum_hour, start_seconds, end_seconds,
		 at_work_seconds, overtime_seconds, early_out, validated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			clock_out_time = excluded.clock_out_time,
			at_work_seconds = excluded.at_work_seconds,
			overtime_seconds = excluded.overtime_seconds,
			early_out = excluded.early_out,
			validated = excluded.validated
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.EmployeeID, r.ShiftID, r.AttendanceDate.String(), int(r.Day),
		r.ClockInTime.UTC().Format(time.RFC3339), clockOut,
		r.MinimumHour, r.StartSeconds, r.EndSeconds,
		r.AtWorkSeconds, r.OvertimeSeconds, r.EarlyOut, r.Validated,
	)
	if err != nil {
		return fmt.Errorf("failed to save attendance record: %w", err)
	}
	return nil
}

const recordColumns = `
	id, employee_id, shift_id, attendance_date, day,
	clock_in_time, clock_out_time, minimum_hour, start_seconds, end_seconds,
	at_work_seconds, overtime_seconds, early_out, validated
`

func (s *Store) RecordFor(ctx context.Context, employeeID string, date calendar.Date) (*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM attendance_records WHERE employee_id = ? AND attendance_date = ?`,
		employeeID, date.String())

	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func (s *Store) LatestRecord(ctx context.Context, employeeID string) (*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM attendance_records WHERE employee_id = ?
		 ORDER BY attendance_date DESC LIMIT 1`, employeeID)

	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func scanRecord(row scanner) (*attendance.Record, error) {
	var (
		r              attendance.Record
		date           string
		day            int
		clockIn        string
		clockOut       sql.NullString
	)
	err := row.Scan(&r.ID, &r.EmployeeID, &r.ShiftID, &date, &day,
		&clockIn, &clockOut, &r.MinimumHour, &r.StartSeconds, &r.EndSeconds,
		&r.AtWorkSeconds, &r.OvertimeSeconds, &r.EarlyOut, &r.Validated)
	if err != nil {
		return nil, err
	}
	if r.AttendanceDate, err = calendar.ParseDate(date); err != nil {
		return nil, fmt.Errorf("failed to parse attendance_date: %w", err)
	}
	r.Day = time.Weekday(day)
	r.ClockInTime, _ = time.Parse(time.RFC3339, clockIn)
	if clockOut.Valid {
		r.ClockOutTime, _ = time.Parse(time.RFC3339, clockOut.String)
	}
	return &r, nil
}

func (s *Store) SaveActivity(ctx context.Context, a *attendance.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var clockOut sql.NullString
	if a.ClockOut != nil {
		clockOut = sql.NullString{String: a.ClockOut.UTC().Format(time.RFC3339), Valid: true}
	}
	query := `
		INSERT INTO attendance_activities
		(id, employee_id, attendance_date, clock_in, clock_out)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET clock_out = excluded.clock_out
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.EmployeeID, a.AttendanceDate.String(),
		a.ClockIn.UTC().Format(time.RFC3339), clockOut)
	if err != nil {
		if isUniqueConstraintError(err) {
			return attendance.ErrAlreadyClockedIn
		}
		return fmt.Errorf("failed to save activity: %w", err)
	}
	return nil
}

func (s *Store) OpenActivity(ctx context.Context, employeeID string) (*attendance.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, attendance_date, clock_in, clock_out
		FROM attendance_activities
		WHERE employee_id = ? AND clock_out IS NULL
	`, employeeID)

	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (s *Store) ActivitiesFor(ctx context.Context, employeeID string, date calendar.Date) ([]*attendance.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, attendance_date, clock_in, clock_out
		FROM attendance_activities
		WHERE employee_id = ? AND attendance_date = ?
		ORDER BY clock_in
	`, employeeID, date.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var out []*attendance.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanActivity(row scanner) (*attendance.Activity, error) {
	var (
		a        attendance.Activity
		date     string
		clockIn  string
		clockOut sql.NullString
	)
	if err := row.Scan(&a.ID, &a.EmployeeID, &date, &clockIn, &clockOut); err != nil {
		return nil, err
	}
	var err error
	if a.AttendanceDate, err = calendar.ParseDate(date); err != nil {
		return nil, fmt.Errorf("failed to parse attendance_date: %w", err)
	}
	a.ClockIn, _ = time.Parse(time.RFC3339, clockIn)
	if clockOut.Valid {
		t, _ := time.Parse(time.RFC3339, clockOut.String)
		a.ClockOut = &t
	}
	return &a, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && contains(err.Error(), "UNIQUE constraint failed")
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
