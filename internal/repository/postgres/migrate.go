package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"txguard/migrations"

	"github.com/pressly/goose/v3"
)

// RunMigrations executes a goose command (up, down, status, ...) against db
// using the embedded migration files.
func RunMigrations(ctx context.Context, db *sql.DB, command string, args ...string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, db, ".", args...); err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	return nil
}
