/*
Package sqlite provides the embedded-database implementation of the leave store.

PURPOSE:
  Same contract as store/file, different durability story. Deployments
  whose record volume outgrows full-file rewrites switch backends with
  one flag; the create/read/query/update/delete semantics - including
  sequential zero-padded ids and the unconditional approval stamp on
  update - stay identical.

ENCODING:
  Times are stored exactly as the flat files store them, "HH:MM" with
  an optional (+1) marker, so a file-store export loads unchanged.
  Hours are stored as decimal text, never floats.

CONCURRENCY:
  A mutex serializes mutations just like the file store. SQLite is
  opened in WAL mode so readers do not block behind the writer.

SEE ALSO:
  - leave/store.go:     Interface and invariants
  - store/file/file.go: Flat-file reference implementation
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

	"github.com/warp/leave-engine/leave"
)

// Store implements leave.Store and leave.EmployeeStore over SQLite.
type Store struct {
	db   *sql.DB
	calc *leave.Calculator
	mu   sync.Mutex
}

// New opens (and migrates) the database at dbPath. Use ":memory:" for
// an in-memory database.
func New(dbPath string, calc *leave.Calculator) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &Store{db: db, calc: calc}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS leaves (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		hours TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		submitted_at TEXT NOT NULL DEFAULT '',
		approved_at TEXT NOT NULL DEFAULT '',
		approver TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_leaves_employee_date ON leaves(employee_id, date);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		password TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT '',
		annual_hours TEXT NOT NULL DEFAULT '0',
		personal_hours TEXT NOT NULL DEFAULT '0',
		sick_hours TEXT NOT NULL DEFAULT '0',
		official_hours TEXT NOT NULL DEFAULT '0',
		compensatory_hours TEXT NOT NULL DEFAULT '0'
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEAVE RECORDS
// =============================================================================

const leaveFields = `id, employee_id, name, category, date, end_date,
	start_time, end_time, hours, reason, status, submitted_at, approved_at, approver`

func (s *Store) Create(ctx context.Context, rec leave.Record) (leave.Record, error) {
	if err := rec.Validate(); err != nil {
		return leave.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadAll(ctx)
	if err != nil {
		return leave.Record{}, err
	}
	rec.ID = leave.NextRecordID(records)

	_, err = s.db.ExecContext(ctx, `INSERT INTO leaves (`+leaveFields+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.EmployeeID, rec.Name, string(rec.Category),
		rec.Date.Format(leave.DateLayout), rec.EndDate.Format(leave.DateLayout),
		leave.FormatTimeValue(rec.StartTime), leave.FormatTimeValue(rec.EndTime),
		rec.Hours.String(), rec.Reason, string(rec.Status),
		formatStamp(rec.SubmittedAt), formatStamp(rec.ApprovedAt), rec.Approver)
	if err != nil {
		return leave.Record{}, fmt.Errorf("insert leave record: %w", err)
	}
	return rec, nil
}

func (s *Store) Get(ctx context.Context, id string) (leave.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+leaveFields+` FROM leaves WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return leave.Record{}, &leave.NotFoundError{ID: id}
	}
	if err != nil {
		return leave.Record{}, fmt.Errorf("load leave record: %w", err)
	}
	return rec, nil
}

func (s *Store) List(ctx context.Context) ([]leave.Record, error) {
	return s.loadAll(ctx)
}

// Query filters in memory over the full result so the semantics match
// the flat-file store exactly.
func (s *Store) Query(ctx context.Context, f leave.Filter) ([]leave.Record, error) {
	records, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]leave.Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

func (s *Store) Update(ctx context.Context, id string, p leave.Patch) (leave.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.Get(ctx, id)
	if err != nil {
		return leave.Record{}, err
	}
	updated, err := p.Apply(rec, s.calc, time.Now())
	if err != nil {
		return leave.Record{}, err
	}

	_, err = s.db.ExecContext(ctx, `UPDATE leaves SET employee_id = ?, name = ?,
		category = ?, date = ?, end_date = ?, start_time = ?, end_time = ?,
		hours = ?, reason = ?, status = ?, approved_at = ?, approver = ?
		WHERE id = ?`,
		updated.EmployeeID, updated.Name, string(updated.Category),
		updated.Date.Format(leave.DateLayout), updated.EndDate.Format(leave.DateLayout),
		leave.FormatTimeValue(updated.StartTime), leave.FormatTimeValue(updated.EndTime),
		updated.Hours.String(), updated.Reason, string(updated.Status),
		formatStamp(updated.ApprovedAt), updated.Approver, id)
	if err != nil {
		return leave.Record{}, fmt.Errorf("update leave record: %w", err)
	}
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM leaves WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete leave record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete leave record: %w", err)
	}
	if n == 0 {
		return &leave.NotFoundError{ID: id}
	}
	return nil
}

func (s *Store) loadAll(ctx context.Context) ([]leave.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+leaveFields+` FROM leaves ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load leave records: %w", err)
	}
	defer rows.Close()

	var records []leave.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("load leave records: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (leave.Record, error) {
	var rec leave.Record
	var category, date, endDate, startTime, endTime, hours, status, submittedAt, approvedAt string
	if err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.Name, &category, &date, &endDate,
		&startTime, &endTime, &hours, &rec.Reason, &status, &submittedAt, &approvedAt,
		&rec.Approver); err != nil {
		return leave.Record{}, err
	}

	rec.Category = leave.Category(category)
	rec.Status = leave.Status(status)
	var err error
	if rec.Date, err = leave.ParseDate(date); err != nil {
		return leave.Record{}, fmt.Errorf("bad reference date: %w", err)
	}
	if rec.EndDate, err = leave.ParseDate(endDate); err != nil {
		return leave.Record{}, fmt.Errorf("bad end date: %w", err)
	}
	rec.StartTime = leave.ParseTimeValue(startTime)
	rec.EndTime = leave.ParseTimeValue(endTime)
	// Same legacy fallback as the flat files: an unmarked end time on
	// a later end date means day-offset 1.
	if rec.EndTime.DayOffset == 0 && rec.EndDate.After(rec.StartDate()) {
		rec.EndTime.DayOffset = 1
	}
	if rec.Hours, err = decimal.NewFromString(hours); err != nil {
		return leave.Record{}, fmt.Errorf("bad hours: %w", err)
	}
	if rec.SubmittedAt, err = parseStamp(submittedAt); err != nil {
		return leave.Record{}, fmt.Errorf("bad submission timestamp: %w", err)
	}
	if rec.ApprovedAt, err = parseStamp(approvedAt); err != nil {
		return leave.Record{}, fmt.Errorf("bad approval timestamp: %w", err)
	}
	return rec, nil
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(leave.TimestampLayout)
}

func parseStamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(leave.TimestampLayout, s)
}

// =============================================================================
// EMPLOYEE MASTER
// =============================================================================

const employeeFields = `id, password, name, role,
	annual_hours, personal_hours, sick_hours, official_hours, compensatory_hours`

func (s *Store) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+employeeFields+` FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}
	defer rows.Close()

	var employees []leave.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("load employees: %w", err)
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, id string) (leave.Employee, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+employeeFields+` FROM employees WHERE id = ?`, id)
	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return leave.Employee{}, &leave.NotFoundError{ID: id}
	}
	if err != nil {
		return leave.Employee{}, fmt.Errorf("load employee: %w", err)
	}
	return emp, nil
}

// SeedEmployees upserts master rows. Provisioning and tests only.
func (s *Store) SeedEmployees(ctx context.Context, employees []leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range employees {
		_, err := s.db.ExecContext(ctx, `INSERT INTO employees (`+employeeFields+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET password = excluded.password,
				name = excluded.name, role = excluded.role,
				annual_hours = excluded.annual_hours,
				personal_hours = excluded.personal_hours,
				sick_hours = excluded.sick_hours,
				official_hours = excluded.official_hours,
				compensatory_hours = excluded.compensatory_hours`,
			e.ID, e.Credential, e.Name, e.Role,
			e.Entitlements[leave.CategoryAnnual].String(),
			e.Entitlements[leave.CategoryPersonal].String(),
			e.Entitlements[leave.CategorySick].String(),
			e.Entitlements[leave.CategoryOfficial].String(),
			e.Entitlements[leave.CategoryCompensatory].String())
		if err != nil {
			return fmt.Errorf("seed employee %s: %w", e.ID, err)
		}
	}
	return nil
}

func scanEmployee(row scanner) (leave.Employee, error) {
	var emp leave.Employee
	var annual, personal, sick, official, comp string
	if err := row.Scan(&emp.ID, &emp.Credential, &emp.Name, &emp.Role,
		&annual, &personal, &sick, &official, &comp); err != nil {
		return leave.Employee{}, err
	}
	emp.Entitlements = make(map[leave.Category]decimal.Decimal, 5)
	for cat, raw := range map[leave.Category]string{
		leave.CategoryAnnual:       annual,
		leave.CategoryPersonal:     personal,
		leave.CategorySick:         sick,
		leave.CategoryOfficial:     official,
		leave.CategoryCompensatory: comp,
	} {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return leave.Employee{}, fmt.Errorf("bad %s entitlement: %w", cat, err)
		}
		emp.Entitlements[cat] = d
	}
	return emp, nil
}
