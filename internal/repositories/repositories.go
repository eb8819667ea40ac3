// package repositories provides persistence layer implementations for locally stored state.
//
// Each repository works on one table created by the migrations in the shared package.
package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/ztx/internal/shared"
)

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// expectAffected turns an update or delete that matched no row into [shared.ErrNotFound].
func expectAffected(result sql.Result, what, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %s", shared.ErrNotFound, what, id)
	}
	return nil
}
