// Package surtype provides a sequential, file-based migration runner.
package surtype

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
)

// Migration represents a single named migration with up statements and
// optional down statements.
type Migration struct {
	// Name is the unique identifier, typically prefixed with a sortable
	// timestamp (e.g. "20240101_create_users").
	Name string
	// Up holds the statements that apply the migration.
	Up []string
	// Down holds the statements that reverse it. Empty when rollback is
	// not supported.
	Down []string
}

// MigrationInfo describes the status of a single migration.
type MigrationInfo struct {
	Name      string
	Applied   bool
	AppliedAt string // RFC3339 or empty
}

// MigrationError is returned when applying or rolling back a migration
// fails.
type MigrationError struct {
	Name  string
	Cause error
}

// Error returns the error message.
func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %q: %v", e.Name, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *MigrationError) Unwrap() error {
	return e.Cause
}

// ChecksumMismatchError is returned when an already-applied migration's
// up statements no longer match what was recorded at apply time.
type ChecksumMismatchError struct {
	Name     string
	Expected string
	Actual   string
}

// Error returns the error message.
func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("migration %q: checksum mismatch: recorded %s, current %s", e.Name, e.Expected, e.Actual)
}

// ValidationIssue describes a problem found during migration validation.
type ValidationIssue struct {
	Name     string
	Message  string
	Severity string // "error" or "warning"
}

// Checksum returns a fingerprint of the migration's up statements, used
// to detect edits to an already-applied migration.
func Checksum(m Migration) string {
	h := sha256.New()
	for _, stmt := range m.Up {
		h.Write([]byte(stmt))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LoadDir reads migrations from a directory of .surql scripts. Each
// NAME.surql file becomes one migration named NAME, with its content
// split into statements; an optional NAME.down.surql provides the
// rollback statements. Migrations come back sorted by name.
func LoadDir(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base := entry.Name()
		if !strings.HasSuffix(base, ".surql") || strings.HasSuffix(base, ".down.surql") {
			continue
		}
		name := strings.TrimSuffix(base, ".surql")

		up, err := readStatements(fsys, path.Join(dir, base))
		if err != nil {
			return nil, err
		}
		m := Migration{Name: name, Up: up}

		downPath := path.Join(dir, name+".down.surql")
		if _, err := fs.Stat(fsys, downPath); err == nil {
			down, err := readStatements(fsys, downPath)
			if err != nil {
				return nil, err
			}
			m.Down = down
		}
		migrations = append(migrations, m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Name < migrations[j].Name
	})
	return migrations, nil
}

func readStatements(fsys fs.FS, p string) ([]string, error) {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	stmts, err := SplitStatements(string(data))
	if err != nil {
		return nil, fmt.Errorf("load migrations: %s: %w", p, err)
	}
	return stmts, nil
}

// migrationOptions holds configuration for the migration entry points.
type migrationOptions struct {
	dryRun bool
	target string
	logger *slog.Logger
}

// MigrationOption configures RunMigrations and StampMigrations.
type MigrationOption func(*migrationOptions)

// WithDryRun enables dry-run mode: validate and report pending
// migrations without executing anything.
func WithDryRun() MigrationOption {
	return func(o *migrationOptions) { o.dryRun = true }
}

// WithTarget stops after applying the named migration.
func WithTarget(name string) MigrationOption {
	return func(o *migrationOptions) { o.target = name }
}

// WithLogger sets the logger for migration progress messages.
func WithLogger(logger *slog.Logger) MigrationOption {
	return func(o *migrationOptions) { o.logger = logger }
}

// ValidateMigrations checks migrations for structural issues without
// touching the database.
func ValidateMigrations(migrations []Migration) []ValidationIssue {
	var issues []ValidationIssue
	seen := make(map[string]bool)

	for i, m := range migrations {
		if m.Name == "" {
			issues = append(issues, ValidationIssue{
				Name:     fmt.Sprintf("[index %d]", i),
				Message:  "migration name is empty",
				Severity: "error",
			})
			continue
		}
		if seen[m.Name] {
			issues = append(issues, ValidationIssue{
				Name:     m.Name,
				Message:  "duplicate migration name",
				Severity: "error",
			})
		}
		seen[m.Name] = true
		if len(m.Up) == 0 {
			issues = append(issues, ValidationIssue{
				Name:     m.Name,
				Message:  "no up statements",
				Severity: "error",
			})
		}
	}

	sorted := sort.SliceIsSorted(migrations, func(i, j int) bool {
		return migrations[i].Name < migrations[j].Name
	})
	if !sorted && len(migrations) > 1 {
		issues = append(issues, ValidationIssue{
			Message:  "migrations are not in sorted order; they will be sorted automatically",
			Severity: "warning",
		})
	}

	return issues
}

// hasValidationErrors returns true if any issue has severity "error".
func hasValidationErrors(issues []ValidationIssue) bool {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}

// RunMigrations validates, sorts, and applies pending migrations.
// Returns the names of migrations that were applied (or would be
// applied in dry-run mode).
func RunMigrations(ctx context.Context, c Executor, migrations []Migration, opts ...MigrationOption) ([]string, error) {
	cfg := &migrationOptions{}
	for _, opt := range opts {
		opt(cfg)
	}
	log := cfg.logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	issues := ValidateMigrations(migrations)
	if hasValidationErrors(issues) {
		return nil, fmt.Errorf("migration validation failed: %s", formatIssues(issues))
	}

	sorted := sortedByName(migrations)

	state := newMigrationState(c)
	if err := state.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("migrate: ensure state schema: %w", err)
	}
	applied, err := state.Applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate: query applied: %w", err)
	}

	// Validate checksums of already-applied migrations
	for _, m := range sorted {
		rec, ok := applied[m.Name]
		if !ok || rec.Checksum == "" {
			continue
		}
		if current := Checksum(m); current != rec.Checksum {
			return nil, &ChecksumMismatchError{
				Name:     m.Name,
				Expected: rec.Checksum,
				Actual:   current,
			}
		}
	}

	pending := pendingOf(sorted, applied, cfg.target)

	if cfg.dryRun {
		names := make([]string, len(pending))
		for i, m := range pending {
			names[i] = m.Name
			log.Info("pending migration", "name", m.Name, "statements", len(m.Up))
		}
		return names, nil
	}

	var appliedNames []string
	for _, m := range pending {
		log.Info("applying migration", "name", m.Name)
		for _, stmt := range m.Up {
			if _, err := execStatement(ctx, c, stmt); err != nil {
				return appliedNames, &MigrationError{Name: m.Name, Cause: err}
			}
		}
		if err := state.Record(ctx, m.Name, Checksum(m)); err != nil {
			return appliedNames, fmt.Errorf("migrate: record %q: %w", m.Name, err)
		}
		appliedNames = append(appliedNames, m.Name)
		log.Info("applied migration", "name", m.Name)
	}

	return appliedNames, nil
}

// StampMigrations marks the given migrations as applied without running
// their up statements. Migrations that are already applied are skipped.
// Returns the names of newly stamped migrations.
//
// This is useful when a database's schema was applied in bulk and the
// migration records need to catch up to reflect the current state.
func StampMigrations(ctx context.Context, c Executor, migrations []Migration, opts ...MigrationOption) ([]string, error) {
	if len(migrations) == 0 {
		return nil, nil
	}

	cfg := &migrationOptions{}
	for _, opt := range opts {
		opt(cfg)
	}
	log := cfg.logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sorted := sortedByName(migrations)

	state := newMigrationState(c)
	if err := state.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("stamp: ensure state schema: %w", err)
	}
	applied, err := state.Applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("stamp: query applied: %w", err)
	}

	pending := pendingOf(sorted, applied, cfg.target)

	if cfg.dryRun {
		names := make([]string, len(pending))
		for i, m := range pending {
			names[i] = m.Name
			log.Info("would stamp migration", "name", m.Name)
		}
		return names, nil
	}

	var stampedNames []string
	for _, m := range pending {
		if err := state.Record(ctx, m.Name, Checksum(m)); err != nil {
			return stampedNames, fmt.Errorf("stamp: record %q: %w", m.Name, err)
		}
		stampedNames = append(stampedNames, m.Name)
		log.Info("stamped migration", "name", m.Name)
	}

	return stampedNames, nil
}

// MigrationStatus returns the status of all provided migrations.
func MigrationStatus(ctx context.Context, c Executor, migrations []Migration) ([]MigrationInfo, error) {
	state := newMigrationState(c)
	if err := state.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("migration status: ensure schema: %w", err)
	}
	applied, err := state.Applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: query applied: %w", err)
	}

	sorted := sortedByName(migrations)
	infos := make([]MigrationInfo, len(sorted))
	for i, m := range sorted {
		info := MigrationInfo{Name: m.Name}
		if rec, ok := applied[m.Name]; ok {
			info.Applied = true
			if !rec.AppliedAt.IsZero() {
				info.AppliedAt = rec.AppliedAt.Format("2006-01-02T15:04:05Z")
			}
		}
		infos[i] = info
	}
	return infos, nil
}

// RollbackMigrations rolls back the last N applied migrations in
// reverse name order. Returns the names of rolled-back migrations.
func RollbackMigrations(ctx context.Context, c Executor, migrations []Migration, steps int) ([]string, error) {
	if steps <= 0 {
		return nil, nil
	}

	state := newMigrationState(c)
	if err := state.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("rollback: ensure schema: %w", err)
	}
	applied, err := state.Applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("rollback: query applied: %w", err)
	}

	byName := make(map[string]Migration, len(migrations))
	for _, m := range migrations {
		byName[m.Name] = m
	}

	// Most recent first by name
	appliedNames := make([]string, 0, len(applied))
	for name := range applied {
		appliedNames = append(appliedNames, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(appliedNames)))

	if steps > len(appliedNames) {
		steps = len(appliedNames)
	}

	var rolledBack []string
	for _, name := range appliedNames[:steps] {
		m, ok := byName[name]
		if !ok {
			return rolledBack, fmt.Errorf("rollback: migration %q not found in provided migrations", name)
		}
		if len(m.Down) == 0 {
			return rolledBack, fmt.Errorf("rollback: migration %q has no down statements", name)
		}
		for _, stmt := range m.Down {
			if _, err := execStatement(ctx, c, stmt); err != nil {
				return rolledBack, &MigrationError{Name: name, Cause: err}
			}
		}
		if err := state.Delete(ctx, name); err != nil {
			return rolledBack, fmt.Errorf("rollback: delete record %q: %w", name, err)
		}
		rolledBack = append(rolledBack, name)
	}

	return rolledBack, nil
}

// sortedByName copies the migrations and orders them by name.
func sortedByName(migrations []Migration) []Migration {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// pendingOf filters out applied migrations, stopping after target when
// one is named.
func pendingOf(sorted []Migration, applied map[string]appliedRecord, target string) []Migration {
	var pending []Migration
	for _, m := range sorted {
		if _, ok := applied[m.Name]; ok {
			continue
		}
		pending = append(pending, m)
		if target != "" && m.Name == target {
			break
		}
	}
	return pending
}

// formatIssues formats validation issues into a single error string.
func formatIssues(issues []ValidationIssue) string {
	var parts []string
	for _, issue := range issues {
		if issue.Severity == "error" {
			label := issue.Name
			if label == "" {
				label = "(global)"
			}
			parts = append(parts, fmt.Sprintf("%s: %s", label, issue.Message))
		}
	}
	return strings.Join(parts, "; ")
}
