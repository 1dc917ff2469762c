/*
Package file provides the flat-file implementation of the leave store.

PURPOSE:
  One comma-delimited UTF-8 file per entity type: leave records here,
  employee master data in employees.go. The first row is a bilingual
  header whose cells pair a stable column key with a display title,
  "id(單號)"; readers bind columns by key so titles and column order
  can change without breaking old files.

REWRITE DISCIPLINE:
  Every mutation is a full read -> in-memory mutate -> full rewrite
  cycle. There is no row-level write. A single mutex serializes the
  whole cycle, so two in-process writers cannot clobber each other;
  the rewrite itself goes through a temp file + rename so a crash
  mid-write never truncates the store.

DAY-OFFSET PERSISTENCE:
  Time cells carry the (+1) marker for next-day values, start and end
  alike, so offsets are explicit on disk. Files written by older tools
  left the end marker off; for those rows the end offset is
  reconstructed by comparing the stored end date against the resolved
  start date.

ID ALLOCATION:
  Sequential, zero-padded, max-scan + 1 - performed inside the locked
  rewrite cycle so the scan and the append are one atomic step.

SEE ALSO:
  - leave/store.go:         Interface and invariants
  - store/sqlite/sqlite.go: Embedded-database alternative
*/
package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/leave"
)

// column pairs a stable key with its bilingual display title.
type column struct {
	key   string
	title string
}

var leaveColumns = []column{
	{"id", "單號"},
	{"employee_id", "員工編號"},
	{"name", "姓名"},
	{"category", "假別"},
	{"date", "開始日期"},
	{"end_date", "結束日期"},
	{"start_time", "開始時間"},
	{"end_time", "結束時間"},
	{"hours", "請假時數"},
	{"reason", "事由"},
	{"status", "狀態"},
	{"submitted_at", "申請時間"},
	{"approved_at", "簽核時間"},
	{"approver", "簽核人"},
}

// Store is the flat-file record + employee store.
type Store struct {
	mu           sync.Mutex
	path         string
	employeePath string
	calc         *leave.Calculator
}

// New opens (and if necessary creates) the leave-record file. The
// employee master file is read-only and not created here.
func New(path, employeePath string, calc *leave.Calculator) (*Store, error) {
	s := &Store{path: path, employeePath: employeePath, calc: calc}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		if err := s.writeAll(nil); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat leave file: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return nil }

// =============================================================================
// STORE OPERATIONS
// =============================================================================

// Create validates rec, allocates its id and appends it. Full rewrite.
func (s *Store) Create(_ context.Context, rec leave.Record) (leave.Record, error) {
	if err := rec.Validate(); err != nil {
		return leave.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return leave.Record{}, err
	}
	rec.ID = leave.NextRecordID(records)
	records = append(records, rec)
	if err := s.writeAll(records); err != nil {
		return leave.Record{}, err
	}
	return rec, nil
}

func (s *Store) Get(_ context.Context, id string) (leave.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return leave.Record{}, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return leave.Record{}, &leave.NotFoundError{ID: id}
}

func (s *Store) List(_ context.Context) ([]leave.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll()
}

func (s *Store) Query(_ context.Context, f leave.Filter) ([]leave.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
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

// Update merges p into the record with the given id and rewrites the
// whole file, changed and unchanged rows alike.
func (s *Store) Update(_ context.Context, id string, p leave.Patch) (leave.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return leave.Record{}, err
	}
	for i, r := range records {
		if r.ID != id {
			continue
		}
		updated, err := p.Apply(r, s.calc, time.Now())
		if err != nil {
			return leave.Record{}, err
		}
		records[i] = updated
		if err := s.writeAll(records); err != nil {
			return leave.Record{}, err
		}
		return updated, nil
	}
	return leave.Record{}, &leave.NotFoundError{ID: id}
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return err
	}
	kept := records[:0]
	found := false
	for _, r := range records {
		if r.ID == id {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return &leave.NotFoundError{ID: id}
	}
	return s.writeAll(kept)
}

// =============================================================================
// FILE CODEC
// =============================================================================

func headerCell(c column) string { return fmt.Sprintf("%s(%s)", c.key, c.title) }

// headerKey strips the display-title suffix from a header cell.
func headerKey(cell string) string {
	if i := strings.IndexByte(cell, '('); i >= 0 {
		return strings.TrimSpace(cell[:i])
	}
	return strings.TrimSpace(cell)
}

func (s *Store) readAll() ([]leave.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open leave file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read leave file: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read leave file: missing header row")
	}

	idx := make(map[string]int, len(rows[0]))
	for i, cell := range rows[0] {
		idx[headerKey(cell)] = i
	}
	cell := func(row []string, key string) string {
		i, ok := idx[key]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]leave.Record, 0, len(rows)-1)
	for n, row := range rows[1:] {
		rec, err := decodeRecord(row, cell)
		if err != nil {
			return nil, fmt.Errorf("leave file row %d: %w", n+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeRecord(row []string, cell func([]string, string) string) (leave.Record, error) {
	rec := leave.Record{
		ID:         cell(row, "id"),
		EmployeeID: cell(row, "employee_id"),
		Name:       cell(row, "name"),
		Category:   leave.Category(cell(row, "category")),
		Reason:     cell(row, "reason"),
		Status:     leave.Status(cell(row, "status")),
		Approver:   cell(row, "approver"),
	}

	date, err := leave.ParseDate(cell(row, "date"))
	if err != nil {
		return leave.Record{}, fmt.Errorf("bad reference date: %w", err)
	}
	rec.Date = date

	rec.StartTime = leave.ParseTimeValue(cell(row, "start_time"))
	rec.EndTime = leave.ParseTimeValue(cell(row, "end_time"))

	if v := cell(row, "end_date"); v != "" {
		if rec.EndDate, err = leave.ParseDate(v); err != nil {
			return leave.Record{}, fmt.Errorf("bad end date: %w", err)
		}
	} else {
		_, rec.EndDate = leave.ResolveDates(rec.Date, rec.StartTime.DayOffset, rec.EndTime.DayOffset)
	}

	// Legacy rows carry no (+1) marker on the end time; the offset is
	// recovered from the date columns instead.
	if rec.EndTime.DayOffset == 0 && rec.EndDate.After(rec.StartDate()) {
		rec.EndTime.DayOffset = 1
	}

	if v := cell(row, "hours"); v != "" {
		if rec.Hours, err = decimal.NewFromString(v); err != nil {
			return leave.Record{}, fmt.Errorf("bad hours: %w", err)
		}
	}
	if v := cell(row, "submitted_at"); v != "" {
		if rec.SubmittedAt, err = time.Parse(leave.TimestampLayout, v); err != nil {
			return leave.Record{}, fmt.Errorf("bad submission timestamp: %w", err)
		}
	}
	if v := cell(row, "approved_at"); v != "" {
		if rec.ApprovedAt, err = time.Parse(leave.TimestampLayout, v); err != nil {
			return leave.Record{}, fmt.Errorf("bad approval timestamp: %w", err)
		}
	}
	return rec, nil
}

func encodeRecord(r leave.Record) []string {
	approvedAt := ""
	if !r.ApprovedAt.IsZero() {
		approvedAt = r.ApprovedAt.Format(leave.TimestampLayout)
	}
	submittedAt := ""
	if !r.SubmittedAt.IsZero() {
		submittedAt = r.SubmittedAt.Format(leave.TimestampLayout)
	}
	return []string{
		r.ID,
		r.EmployeeID,
		r.Name,
		string(r.Category),
		r.Date.Format(leave.DateLayout),
		r.EndDate.Format(leave.DateLayout),
		leave.FormatTimeValue(r.StartTime),
		leave.FormatTimeValue(r.EndTime),
		r.Hours.String(),
		r.Reason,
		string(r.Status),
		submittedAt,
		approvedAt,
		r.Approver,
	}
}

// writeAll rewrites the whole file through a temp file + rename.
func (s *Store) writeAll(records []leave.Record) error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create leave file: %w", err)
	}

	w := csv.NewWriter(f)
	header := make([]string, len(leaveColumns))
	for i, c := range leaveColumns {
		header[i] = headerCell(c)
	}
	rows := [][]string{header}
	for _, r := range records {
		rows = append(rows, encodeRecord(r))
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write leave file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close leave file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace leave file: %w", err)
	}
	return nil
}
