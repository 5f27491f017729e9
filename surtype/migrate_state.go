// Package surtype provides state tracking for migrations.
package surtype

import (
	"context"
	"fmt"
	"time"

	"github.com/CaliLuke/go-surreal/surql"
)

// migrationTable is the record table holding one row per applied
// migration.
const migrationTable = "_migrations"

// appliedRecord is one row of the migration table.
type appliedRecord struct {
	Name      string
	Checksum  string
	AppliedAt time.Time
}

// migrationState tracks applied migrations in the database.
type migrationState struct {
	c Executor
}

// newMigrationState creates a new state tracker.
func newMigrationState(c Executor) *migrationState {
	return &migrationState{c: c}
}

// EnsureSchema creates the migration table. Idempotent.
func (s *migrationState) EnsureSchema(ctx context.Context) error {
	stmt := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", migrationTable)
	if _, err := execStatement(ctx, s.c, stmt); err != nil {
		return fmt.Errorf("migration state: ensure schema: %w", err)
	}
	return nil
}

// Applied returns the recorded migrations keyed by name.
func (s *migrationState) Applied(ctx context.Context) (map[string]appliedRecord, error) {
	stmt, err := surql.Select(migrationTable).Build()
	if err != nil {
		return nil, fmt.Errorf("migration state: query applied: %w", err)
	}
	rows, err := execStatement(ctx, s.c, stmt)
	if err != nil {
		return nil, fmt.Errorf("migration state: query applied: %w", err)
	}

	applied := make(map[string]appliedRecord)
	for _, row := range rows {
		name, _ := row["name"].(string)
		if name == "" {
			continue
		}
		rec := appliedRecord{Name: name}
		rec.Checksum, _ = row["checksum"].(string)
		switch v := row["applied_at"].(type) {
		case time.Time:
			rec.AppliedAt = v
		case string:
			if parsed, parseErr := time.Parse(time.RFC3339, v); parseErr == nil {
				rec.AppliedAt = parsed
			}
		}
		applied[name] = rec
	}
	return applied, nil
}

// Record inserts a migration record. The record id is the migration
// name, so recording the same migration twice fails instead of
// duplicating.
func (s *migrationState) Record(ctx context.Context, name, checksum string) error {
	stmt, err := surql.Create(surql.NewThing(migrationTable, name)).
		Content(map[string]any{
			"name":       name,
			"checksum":   checksum,
			"applied_at": time.Now().UTC().Format(time.RFC3339),
		}).
		Return(surql.ReturnNone).
		Build()
	if err != nil {
		return fmt.Errorf("migration state: record %q: %w", name, err)
	}
	if _, err := execStatement(ctx, s.c, stmt); err != nil {
		return fmt.Errorf("migration state: record %q: %w", name, err)
	}
	return nil
}

// Delete removes a migration record (for rollback).
func (s *migrationState) Delete(ctx context.Context, name string) error {
	stmt, err := surql.Delete(surql.NewThing(migrationTable, name)).Build()
	if err != nil {
		return fmt.Errorf("migration state: delete %q: %w", name, err)
	}
	if _, err := execStatement(ctx, s.c, stmt); err != nil {
		return fmt.Errorf("migration state: delete %q: %w", name, err)
	}
	return nil
}
