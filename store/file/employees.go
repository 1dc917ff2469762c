package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/leave"
)

// Employee master columns. The credential cell is opaque data for the
// external auth collaborator; this service never interprets it.
var employeeColumns = []column{
	{"id", "員工編號"},
	{"password", "密碼"},
	{"name", "姓名"},
	{"role", "職別"},
	{"annual_hours", "特休時數"},
	{"personal_hours", "事假時數"},
	{"sick_hours", "病假時數"},
	{"official_hours", "公假時數"},
	{"compensatory_hours", "補休時數"},
}

var entitlementColumns = map[string]leave.Category{
	"annual_hours":       leave.CategoryAnnual,
	"personal_hours":     leave.CategoryPersonal,
	"sick_hours":         leave.CategorySick,
	"official_hours":     leave.CategoryOfficial,
	"compensatory_hours": leave.CategoryCompensatory,
}

// ListEmployees reads the whole master file.
func (s *Store) ListEmployees(_ context.Context) ([]leave.Employee, error) {
	f, err := os.Open(s.employeePath)
	if err != nil {
		return nil, fmt.Errorf("open employee file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read employee file: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read employee file: missing header row")
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

	employees := make([]leave.Employee, 0, len(rows)-1)
	for n, row := range rows[1:] {
		emp := leave.Employee{
			ID:           cell(row, "id"),
			Credential:   cell(row, "password"),
			Name:         cell(row, "name"),
			Role:         cell(row, "role"),
			Entitlements: make(map[leave.Category]decimal.Decimal, len(entitlementColumns)),
		}
		for key, cat := range entitlementColumns {
			v := cell(row, key)
			if v == "" {
				emp.Entitlements[cat] = decimal.Zero
				continue
			}
			d, err := decimal.NewFromString(v)
			if err != nil {
				return nil, fmt.Errorf("employee file row %d: bad %s: %w", n+2, key, err)
			}
			emp.Entitlements[cat] = d
		}
		employees = append(employees, emp)
	}
	return employees, nil
}

// GetEmployee returns the master row for id.
func (s *Store) GetEmployee(ctx context.Context, id string) (leave.Employee, error) {
	employees, err := s.ListEmployees(ctx)
	if err != nil {
		return leave.Employee{}, err
	}
	for _, e := range employees {
		if e.ID == id {
			return e, nil
		}
	}
	return leave.Employee{}, &leave.NotFoundError{ID: id}
}

// WriteEmployees replaces the master file. Used by provisioning
// tooling and tests; the service itself only reads master data.
func (s *Store) WriteEmployees(employees []leave.Employee) error {
	tmp := s.employeePath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create employee file: %w", err)
	}

	w := csv.NewWriter(f)
	header := make([]string, len(employeeColumns))
	for i, c := range employeeColumns {
		header[i] = headerCell(c)
	}
	rows := [][]string{header}
	for _, e := range employees {
		row := []string{e.ID, e.Credential, e.Name, e.Role}
		for _, c := range employeeColumns[4:] {
			row = append(row, e.Entitlements[entitlementColumns[c.key]].String())
		}
		rows = append(rows, row)
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write employee file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close employee file: %w", err)
	}
	if err := os.Rename(tmp, s.employeePath); err != nil {
		return fmt.Errorf("replace employee file: %w", err)
	}
	return nil
}
