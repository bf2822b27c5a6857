package graph

import (
	"context"
	"testing"
)

// newTestStore opens a fresh in-memory Store for a single test.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesSchemaAtCurrentVersion(t *testing.T) {
	s := newTestStore(t)
	var version int
	if err := s.db.QueryRow(`SELECT schema_version FROM graph_meta`).Scan(&version); err != nil {
		t.Fatalf("read schema_version: %v", err)
	}
	if version != schemaVersion {
		t.Fatalf("want schema_version %d, got %d", schemaVersion, version)
	}
}

func TestOpenRejectsNewerSchemaVersion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.db.Exec(`UPDATE graph_meta SET schema_version = ?`, schemaVersion+1); err != nil {
		t.Fatalf("bump schema_version: %v", err)
	}
	if err := s.init(ctx); !Is(err, KindSchema) {
		t.Fatalf("want KindSchema, got %v", err)
	}
}

func TestCountEntities(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	n, err := s.CountEntities(ctx)
	if err != nil {
		t.Fatalf("CountEntities: %v", err)
	}
	if n != 0 {
		t.Fatalf("want 0, got %d", n)
	}
	if _, err := s.InsertEntity(ctx, "file", "a.go", nil, nil); err != nil {
		t.Fatalf("InsertEntity: %v", err)
	}
	n, err = s.CountEntities(ctx)
	if err != nil {
		t.Fatalf("CountEntities: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1, got %d", n)
	}
}

func TestMetricsTracksExecutedTransactions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	before := s.Metrics()
	if before.Transactions == 0 {
		t.Fatalf("want at least one transaction from Open's init, got 0")
	}

	if _, err := s.InsertEntity(ctx, "file", "a.go", nil, nil); err != nil {
		t.Fatalf("InsertEntity: %v", err)
	}
	after := s.Metrics()
	if after.StatementsExecuted <= before.StatementsExecuted {
		t.Fatalf("want StatementsExecuted to increase, before=%d after=%d", before.StatementsExecuted, after.StatementsExecuted)
	}
}

func TestRunMigrationDryRunReportsEmptyPlanAtCurrentVersion(t *testing.T) {
	s := newTestStore(t)
	plan, err := s.RunMigration(context.Background(), true)
	if err != nil {
		t.Fatalf("RunMigration: %v", err)
	}
	if plan.FromVersion != schemaVersion || plan.ToVersion != schemaVersion {
		t.Fatalf("want plan at current version, got %+v", plan)
	}
	if len(plan.Statements) != 0 {
		t.Fatalf("want no pending statements, got %v", plan.Statements)
	}
}

func TestPathReturnsOpenPath(t *testing.T) {
	s := newTestStore(t)
	if s.Path() != ":memory:" {
		t.Fatalf("want :memory:, got %q", s.Path())
	}
}

func TestLockWriterUnlockWriterSerializesExternalWriters(t *testing.T) {
	s := newTestStore(t)
	s.LockWriter()
	s.UnlockWriter()
}

func TestDBReturnsUnderlyingConnection(t *testing.T) {
	s := newTestStore(t)
	if s.DB() == nil {
		t.Fatal("want non-nil *sql.DB")
	}
}
