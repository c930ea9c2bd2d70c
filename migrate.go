package pulso

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var sqlSchema string

// MigrateSQL applies the embedded schema.
// Every statement uses IF NOT EXISTS so reruns are safe.
func MigrateSQL(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, sqlSchema); err != nil {
		return fmt.Errorf("sql exec schema: %w", err)
	}
	return nil
}
