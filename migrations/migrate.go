// Package migrations applies the embedded schema at startup. Statements are
// idempotent (CREATE TABLE IF NOT EXISTS), so re-running on boot is safe.
package migrations

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema.sql
var schema string

// Apply runs every statement in schema.sql. The MySQL driver executes one
// statement per call, so the file is split on the terminating semicolons.
func Apply(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}
