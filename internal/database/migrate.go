package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/iliyamo/table-reservation/internal/model"
)

//go:embed schema.sql
var schema string

// Migrate creates the tables used by the reservation store when they do not
// exist yet. The DSN must allow multiple statements.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// SeedTables inserts the configured floor plan when restaurant_tables is
// empty. An existing floor plan is left untouched.
func SeedTables(ctx context.Context, db *sql.DB, tables []model.Table) error {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM restaurant_tables`).Scan(&n); err != nil {
		return err
	}
	if n > 0 || len(tables) == 0 {
		return nil
	}
	query := `INSERT INTO restaurant_tables (number, capacity) VALUES `
	args := make([]interface{}, 0, len(tables)*2)
	for i, t := range tables {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, t.Number, t.Capacity)
	}
	_, err := db.ExecContext(ctx, query, args...)
	return err
}
