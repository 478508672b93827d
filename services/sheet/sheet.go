package sheet

import (
	"context"
)

// Store represents the shared tabular store holding the catalog. There is
// no partial-update operation; every write rewrites the whole table.
type Store interface {
	// LoadAllRows returns every row of the table, header row first
	LoadAllRows(ctx context.Context) ([][]interface{}, error)

	// ReplaceAllRows rewrites the whole table with the given records
	ReplaceAllRows(ctx context.Context, records [][]interface{}) error
}
