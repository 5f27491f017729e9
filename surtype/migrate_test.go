package surtype

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/CaliLuke/go-surreal/driver"
)

func testMigrations() []Migration {
	return []Migration{
		{
			Name: "001_people",
			Up:   []string{"DEFINE TABLE person SCHEMALESS"},
			Down: []string{"REMOVE TABLE person"},
		},
		{
			Name: "002_items",
			Up:   []string{"DEFINE TABLE item SCHEMALESS"},
			Down: []string{"REMOVE TABLE item"},
		},
	}
}

func appliedRow(m Migration) map[string]any {
	return map[string]any{
		"name":       m.Name,
		"checksum":   Checksum(m),
		"applied_at": "2024-01-01T00:00:00Z",
	}
}

func TestChecksum(t *testing.T) {
	m := Migration{Name: "001", Up: []string{"DEFINE TABLE a SCHEMALESS", "DEFINE TABLE b SCHEMALESS"}}

	first := Checksum(m)
	if len(first) != 64 {
		t.Errorf("checksum length: got %d, want 64", len(first))
	}
	if second := Checksum(m); second != first {
		t.Errorf("checksum not stable: %s vs %s", first, second)
	}

	changed := m
	changed.Up = []string{"DEFINE TABLE a SCHEMALESS", "DEFINE TABLE c SCHEMALESS"}
	if Checksum(changed) == first {
		t.Error("checksum should change when statements change")
	}

	// Statement boundaries matter: ["ab"] and ["a","b"] must differ.
	joined := Checksum(Migration{Up: []string{"ab"}})
	split := Checksum(Migration{Up: []string{"a", "b"}})
	if joined == split {
		t.Error("checksum should distinguish statement boundaries")
	}

	if Checksum(Migration{Name: "x", Up: m.Up}) != first {
		t.Error("checksum should not depend on the migration name")
	}
}

func TestValidateMigrations(t *testing.T) {
	tests := []struct {
		name       string
		migrations []Migration
		wantIssues int
		wantErrors bool
	}{
		{
			name:       "clean",
			migrations: testMigrations(),
			wantIssues: 0,
			wantErrors: false,
		},
		{
			name: "empty name",
			migrations: []Migration{
				{Name: "", Up: []string{"DEFINE TABLE a SCHEMALESS"}},
			},
			wantIssues: 1,
			wantErrors: true,
		},
		{
			name: "duplicate name",
			migrations: []Migration{
				{Name: "001", Up: []string{"DEFINE TABLE a SCHEMALESS"}},
				{Name: "001", Up: []string{"DEFINE TABLE b SCHEMALESS"}},
			},
			wantIssues: 1,
			wantErrors: true,
		},
		{
			name: "no up statements",
			migrations: []Migration{
				{Name: "001"},
			},
			wantIssues: 1,
			wantErrors: true,
		},
		{
			name: "unsorted is a warning",
			migrations: []Migration{
				{Name: "002", Up: []string{"DEFINE TABLE b SCHEMALESS"}},
				{Name: "001", Up: []string{"DEFINE TABLE a SCHEMALESS"}},
			},
			wantIssues: 1,
			wantErrors: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := ValidateMigrations(tt.migrations)
			if len(issues) != tt.wantIssues {
				t.Errorf("issues: got %d (%v), want %d", len(issues), issues, tt.wantIssues)
			}
			if got := hasValidationErrors(issues); got != tt.wantErrors {
				t.Errorf("hasValidationErrors: got %v, want %v", got, tt.wantErrors)
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_items.surql": &fstest.MapFile{
			Data: []byte("DEFINE TABLE item SCHEMALESS;"),
		},
		"migrations/001_people.surql": &fstest.MapFile{
			Data: []byte("-- people\nDEFINE TABLE person SCHEMALESS;\nDEFINE INDEX slug ON person FIELDS slug UNIQUE;"),
		},
		"migrations/001_people.down.surql": &fstest.MapFile{
			Data: []byte("REMOVE TABLE person;"),
		},
		"migrations/README.md": &fstest.MapFile{
			Data: []byte("not a migration"),
		},
	}

	migrations, err := LoadDir(fsys, "migrations")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("migrations: got %d, want 2", len(migrations))
	}

	first := migrations[0]
	if first.Name != "001_people" {
		t.Errorf("first name: got %q, want 001_people", first.Name)
	}
	if len(first.Up) != 2 {
		t.Errorf("first up statements: got %d, want 2", len(first.Up))
	}
	if len(first.Down) != 1 || first.Down[0] != "REMOVE TABLE person" {
		t.Errorf("first down statements: got %v", first.Down)
	}

	second := migrations[1]
	if second.Name != "002_items" {
		t.Errorf("second name: got %q, want 002_items", second.Name)
	}
	if len(second.Down) != 0 {
		t.Errorf("second down statements: got %v, want none", second.Down)
	}
}

func TestRunMigrations(t *testing.T) {
	fake := &fakeClient{}
	migrations := testMigrations()

	applied, err := RunMigrations(context.Background(), fake, migrations)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(applied) != 2 || applied[0] != "001_people" || applied[1] != "002_items" {
		t.Fatalf("applied: got %v", applied)
	}

	if fake.statements[0] != "DEFINE TABLE IF NOT EXISTS _migrations SCHEMALESS" {
		t.Errorf("schema statement: got %q", fake.statements[0])
	}
	if fake.statements[1] != "SELECT * FROM _migrations" {
		t.Errorf("applied query: got %q", fake.statements[1])
	}
	if fake.statements[2] != "DEFINE TABLE person SCHEMALESS" {
		t.Errorf("first up statement: got %q", fake.statements[2])
	}

	record := fake.statements[3]
	if !strings.HasPrefix(record, "CREATE _migrations:001_people CONTENT ") {
		t.Errorf("record statement: got %q", record)
	}
	if !strings.Contains(record, Checksum(migrations[0])) {
		t.Errorf("record statement missing checksum: %q", record)
	}
	if !strings.HasSuffix(record, "RETURN NONE") {
		t.Errorf("record statement: got %q", record)
	}

	if fake.statements[4] != "DEFINE TABLE item SCHEMALESS" {
		t.Errorf("second up statement: got %q", fake.statements[4])
	}
	if len(fake.statements) != 6 {
		t.Errorf("statements: got %d, want 6", len(fake.statements))
	}
}

func TestRunMigrations_SkipsApplied(t *testing.T) {
	migrations := testMigrations()
	fake := &fakeClient{results: [][]driver.QueryResult{
		okRows(),
		okRows(appliedRow(migrations[0])),
	}}

	applied, err := RunMigrations(context.Background(), fake, migrations)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(applied) != 1 || applied[0] != "002_items" {
		t.Fatalf("applied: got %v, want [002_items]", applied)
	}
	for _, stmt := range fake.statements {
		if stmt == "DEFINE TABLE person SCHEMALESS" {
			t.Error("already-applied migration was re-run")
		}
	}
}

func TestRunMigrations_ChecksumMismatch(t *testing.T) {
	migrations := testMigrations()
	row := appliedRow(migrations[0])
	row["checksum"] = "0000000000000000000000000000000000000000000000000000000000000000"
	fake := &fakeClient{results: [][]driver.QueryResult{
		okRows(),
		okRows(row),
	}}

	var mismatch *ChecksumMismatchError
	_, err := RunMigrations(context.Background(), fake, migrations)
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected ChecksumMismatchError, got %v", err)
	}
	if mismatch.Name != "001_people" {
		t.Errorf("Name: got %q, want 001_people", mismatch.Name)
	}
	if len(fake.statements) != 2 {
		t.Errorf("statements: got %d, want 2 (nothing applied)", len(fake.statements))
	}
}

func TestRunMigrations_DryRun(t *testing.T) {
	fake := &fakeClient{}

	pending, err := RunMigrations(context.Background(), fake, testMigrations(), WithDryRun())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending: got %v", pending)
	}
	if len(fake.statements) != 2 {
		t.Errorf("statements: got %d, want 2 (schema and query only)", len(fake.statements))
	}
}

func TestRunMigrations_Target(t *testing.T) {
	fake := &fakeClient{}

	applied, err := RunMigrations(context.Background(), fake, testMigrations(), WithTarget("001_people"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(applied) != 1 || applied[0] != "001_people" {
		t.Fatalf("applied: got %v, want [001_people]", applied)
	}
}

func TestRunMigrations_ValidationFailure(t *testing.T) {
	fake := &fakeClient{}
	migrations := []Migration{
		{Name: "001", Up: []string{"DEFINE TABLE a SCHEMALESS"}},
		{Name: "001", Up: []string{"DEFINE TABLE b SCHEMALESS"}},
	}

	_, err := RunMigrations(context.Background(), fake, migrations)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if len(fake.statements) != 0 {
		t.Errorf("statements: got %d, want 0", len(fake.statements))
	}
}

func TestRunMigrations_FailedStatement(t *testing.T) {
	fake := &fakeClient{results: [][]driver.QueryResult{
		okRows(),
		okRows(),
		errStatement("table already defined"),
	}}

	var migErr *MigrationError
	applied, err := RunMigrations(context.Background(), fake, testMigrations())
	if !errors.As(err, &migErr) {
		t.Fatalf("expected MigrationError, got %v", err)
	}
	if migErr.Name != "001_people" {
		t.Errorf("Name: got %q, want 001_people", migErr.Name)
	}
	if len(applied) != 0 {
		t.Errorf("applied: got %v, want none", applied)
	}
	if len(fake.statements) != 3 {
		t.Errorf("statements: got %d, want 3 (no record after failure)", len(fake.statements))
	}
}

func TestStampMigrations(t *testing.T) {
	fake := &fakeClient{}

	stamped, err := StampMigrations(context.Background(), fake, testMigrations())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stamped) != 2 {
		t.Fatalf("stamped: got %v", stamped)
	}

	for _, stmt := range fake.statements {
		if stmt == "DEFINE TABLE person SCHEMALESS" || stmt == "DEFINE TABLE item SCHEMALESS" {
			t.Errorf("stamp executed an up statement: %q", stmt)
		}
	}
	if !strings.HasPrefix(fake.statements[2], "CREATE _migrations:001_people CONTENT ") {
		t.Errorf("record statement: got %q", fake.statements[2])
	}
}

func TestMigrationStatus(t *testing.T) {
	migrations := testMigrations()
	fake := &fakeClient{results: [][]driver.QueryResult{
		okRows(),
		okRows(appliedRow(migrations[0])),
	}}

	infos, err := MigrationStatus(context.Background(), fake, migrations)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("infos: got %d, want 2", len(infos))
	}

	if !infos[0].Applied {
		t.Error("001_people should be applied")
	}
	if infos[0].AppliedAt != "2024-01-01T00:00:00Z" {
		t.Errorf("AppliedAt: got %q", infos[0].AppliedAt)
	}
	if infos[1].Applied {
		t.Error("002_items should be pending")
	}
	if infos[1].AppliedAt != "" {
		t.Errorf("pending AppliedAt: got %q, want empty", infos[1].AppliedAt)
	}
}

func TestRollbackMigrations(t *testing.T) {
	migrations := testMigrations()
	fake := &fakeClient{results: [][]driver.QueryResult{
		okRows(),
		okRows(appliedRow(migrations[0]), appliedRow(migrations[1])),
	}}

	rolledBack, err := RollbackMigrations(context.Background(), fake, migrations, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rolledBack) != 1 || rolledBack[0] != "002_items" {
		t.Fatalf("rolledBack: got %v, want [002_items]", rolledBack)
	}

	if fake.statements[2] != "REMOVE TABLE item" {
		t.Errorf("down statement: got %q", fake.statements[2])
	}
	if fake.statements[3] != "DELETE _migrations:002_items" {
		t.Errorf("delete record: got %q", fake.statements[3])
	}
}

func TestRollbackMigrations_RequiresDown(t *testing.T) {
	m := Migration{Name: "001_nodown", Up: []string{"DEFINE TABLE a SCHEMALESS"}}
	fake := &fakeClient{results: [][]driver.QueryResult{
		okRows(),
		okRows(appliedRow(m)),
	}}

	_, err := RollbackMigrations(context.Background(), fake, []Migration{m}, 1)
	if err == nil || !strings.Contains(err.Error(), "no down statements") {
		t.Fatalf("expected missing down error, got %v", err)
	}
}

func TestRollbackMigrations_ZeroSteps(t *testing.T) {
	fake := &fakeClient{}

	rolledBack, err := RollbackMigrations(context.Background(), fake, testMigrations(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rolledBack != nil {
		t.Errorf("rolledBack: got %v, want nil", rolledBack)
	}
	if len(fake.statements) != 0 {
		t.Errorf("statements: got %d, want 0", len(fake.statements))
	}
}
