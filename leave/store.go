/*
store.go - Persistence contracts for leave records and employee master data

PURPOSE:
  Defines the interface between the domain logic and the backing
  store. The reference implementation keeps one flat comma-delimited
  file per entity type and rewrites it whole on every mutation
  (store/file); an embedded SQLite backend with the identical contract
  exists for deployments that outgrow that (store/sqlite).

CONCURRENCY CONTRACT:
  Implementations serialize all mutating operations on a single
  in-process lock per store. That closes the read-modify-rewrite
  lost-update race between concurrent requests in one process;
  multi-process writers remain out of scope.

SEE ALSO:
  - store/file/file.go:     Flat-file implementation
  - store/sqlite/sqlite.go: Embedded-database implementation
*/
package leave

import (
	"context"
	"fmt"
	"strconv"
)

// Store provides create/read/query/update/delete over leave records.
type Store interface {
	// Create validates the record, allocates the next sequential id
	// and persists it. The stored record comes back.
	Create(ctx context.Context, rec Record) (Record, error)

	// Get returns the record with the given id, or a failure wrapping
	// ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// List returns every record, ordered by id.
	List(ctx context.Context) ([]Record, error)

	// Query returns the records matching every set filter field.
	Query(ctx context.Context, f Filter) ([]Record, error)

	// Update merges the patch into the record with the given id,
	// rederives the span-dependent fields and stamps the
	// ApprovedAt/Approver pair. ErrNotFound when absent.
	Update(ctx context.Context, id string, p Patch) (Record, error)

	// Delete removes the record outright. ErrNotFound when absent.
	Delete(ctx context.Context, id string) error

	Close() error
}

// EmployeeStore reads the subject master data.
type EmployeeStore interface {
	ListEmployees(ctx context.Context) ([]Employee, error)

	// GetEmployee returns the master row for id, or a failure
	// wrapping ErrNotFound.
	GetEmployee(ctx context.Context, id string) (Employee, error)
}

// recordIDWidth is the zero-padding of allocated record ids.
const recordIDWidth = 6

// NextRecordID allocates the id following the numeric maximum among
// existing records, zero-padded. Callers must hold the store's write
// lock so the scan and the subsequent append are one atomic step.
func NextRecordID(records []Record) string {
	maxSeen := 0
	for _, r := range records {
		if n, err := strconv.Atoi(r.ID); err == nil && n > maxSeen {
			maxSeen = n
		}
	}
	return fmt.Sprintf("%0*d", recordIDWidth, maxSeen+1)
}
