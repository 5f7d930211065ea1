package postgres

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// ChangeChannel is the NOTIFY channel the table triggers publish on.
const ChangeChannel = "table_changes"

// Migrate applies the schema. Every statement is idempotent, so it runs on each start of the
// migrate mode without bookkeeping.
func Migrate(ctx context.Context, db DB) error {
	// без аргументов pgx использует simple protocol, поэтому несколько statement'ов за раз допустимы
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
