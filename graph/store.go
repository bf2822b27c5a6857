package graph

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Options configures a Store at open time.
type Options struct {
	// AllowSelfLoops permits InsertEdge(a, a, ...); rejected by default
	// per SPEC_FULL.md §4.1.
	AllowSelfLoops bool
	// Logger receives lifecycle and migration events. Defaults to
	// slog.New(slog.DiscardHandler) when nil, so library callers who
	// construct a Store directly never need to wire one.
	Logger *slog.Logger
	// Fault, when non-nil, is consulted by BulkTxn/Recovery through
	// this Store for fault-injection checks. A Store constructed
	// without one behaves as if no fault point is ever armed.
	Fault FaultRegistry
}

// FaultRegistry is the minimal interface BulkTxn and Recovery need from
// a fault-injection registry, satisfied by internal/fault.Registry.
// Declared here (not imported from internal/fault) so package graph has
// no dependency on the fault package; callers inject a concrete
// registry through Options.
type FaultRegistry interface {
	Check(point string) error
}

// noFault is the default FaultRegistry: every point is always disarmed.
type noFault struct{}

func (noFault) Check(string) error { return nil }

// Store is the sqlite-backed implementor of the graph storage contract.
// It owns the single database connection, the two adjacency caches, and
// the in-process metrics counters. Safe for concurrent use: one writer
// at a time via writeMu; readers do not take writeMu, but all queries
// share the pool's single connection.
type Store struct {
	db   *sql.DB
	path string
	opts Options
	log  *slog.Logger

	writeMu sync.Mutex

	outCache *adjacencyCache
	inCache  *adjacencyCache

	stmtsMu sync.Mutex
	stmts   map[string]*sql.Stmt

	metricsPrepared atomic.Int64
	metricsExecuted atomic.Int64
	metricsTxns     atomic.Int64
}

// Open opens (creating if necessary) a sqlite-backed Store at path.
// path may be "" or ":memory:" for an ephemeral database (":memory:" is
// opened as "file::memory:?mode=memory&cache=private"). The DSN and pragma set mirror this codebase's existing
// ephemeral-store pattern: WAL journal mode, a busy timeout, and
// foreign keys enabled, with the pool capped to a single connection
// since the core never needs more than one writer per SPEC_FULL.md §5.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	const op = "graph.Open"

	dsn := path
	if path != "" && path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, NewConnectionError(op, fmt.Errorf("create db dir: %w", err))
			}
		}
		dsn = fmt.Sprintf("file:%s?_journal=WAL&_busy_timeout=5000&_foreign_keys=1", path)
	} else if path == ":memory:" {
		dsn = "file::memory:?mode=memory&cache=private"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, NewConnectionError(op, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, NewConnectionError(op, err)
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Fault == nil {
		opts.Fault = noFault{}
	}

	s := &Store{
		db:       db,
		path:     path,
		opts:     opts,
		log:      opts.Logger,
		outCache: newAdjacencyCache(),
		inCache:  newAdjacencyCache(),
		stmts:    make(map[string]*sql.Stmt),
	}

	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s.log.Info("graph store opened", "path", path)
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	const op = "graph.Store.init"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewConnectionError(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, baseSchema); err != nil {
		return NewSchemaError(op, fmt.Errorf("create schema: %w", err))
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM graph_meta`).Scan(&count); err != nil {
		return NewSchemaError(op, fmt.Errorf("read meta: %w", err))
	}
	if count == 0 {
		if _, err := tx.ExecContext(ctx, `INSERT INTO graph_meta (schema_version) VALUES (?)`, schemaVersion); err != nil {
			return NewSchemaError(op, fmt.Errorf("seed meta: %w", err))
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO graph_meta_history (version, applied_at) VALUES (?, datetime('now'))`, schemaVersion); err != nil {
			return NewSchemaError(op, fmt.Errorf("seed meta history: %w", err))
		}
	} else {
		var version int
		if err := tx.QueryRowContext(ctx, `SELECT schema_version FROM graph_meta`).Scan(&version); err != nil {
			return NewSchemaError(op, fmt.Errorf("read schema version: %w", err))
		}
		if version > schemaVersion {
			return NewSchemaError(op, fmt.Errorf("store schema version %d newer than known version %d", version, schemaVersion))
		}
	}

	if err := tx.Commit(); err != nil {
		return NewTransactionError(op, err)
	}
	s.metricsTxns.Add(1)
	return nil
}

// Close releases the Store's database connection and prepared
// statements.
func (s *Store) Close() error {
	s.stmtsMu.Lock()
	for _, stmt := range s.stmts {
		_ = stmt.Close()
	}
	s.stmts = nil
	s.stmtsMu.Unlock()
	return s.db.Close()
}

// Path returns the filesystem path (or ":memory:") the Store was
// opened with.
func (s *Store) Path() string { return s.path }

// DB returns the underlying *sql.DB for components (Recovery, BulkTxn,
// SafetyAudit) that need direct transaction control.
func (s *Store) DB() *sql.DB { return s.db }

// LockWriter and UnlockWriter let components outside package graph
// (BulkTxn, Recovery) that issue their own transactions directly
// against DB() serialize with the Store's own writer mutex, preserving
// the single-writer discipline of SPEC_FULL.md §5 across package
// boundaries.
func (s *Store) LockWriter()   { s.writeMu.Lock() }
func (s *Store) UnlockWriter() { s.writeMu.Unlock() }

// Fault returns the Store's configured fault registry (noFault if none
// was supplied at Open time).
func (s *Store) Fault() FaultRegistry { return s.opts.Fault }

// RecordTransaction increments the Store's transaction counter, for
// components that commit transactions directly against DB().
func (s *Store) RecordTransaction() { s.metricsTxns.Add(1) }

// CountEntities returns the total number of entities, used by the CLI's
// status command.
func (s *Store) CountEntities(ctx context.Context) (int64, error) {
	const op = "graph.Store.CountEntities"
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM graph_entities`).Scan(&n); err != nil {
		return 0, NewQueryError(op, err)
	}
	return n, nil
}

// Logger returns the Store's configured logger.
func (s *Store) Logger() *slog.Logger { return s.log }

// prepare returns a cached prepared statement for query, preparing and
// caching it on first use. Mirrors the "statement tracking" share of
// the Store's responsibility named in SPEC_FULL.md §2.
func (s *Store) prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	s.stmtsMu.Lock()
	defer s.stmtsMu.Unlock()
	if stmt, ok := s.stmts[query]; ok {
		return stmt, nil
	}
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	s.stmts[query] = stmt
	s.metricsPrepared.Add(1)
	return stmt, nil
}

// Metrics returns a snapshot of the Store's instrumented counters.
func (s *Store) Metrics() MetricsSnapshot {
	out := s.CacheStats()
	return MetricsSnapshot{
		StatementsPrepared: s.metricsPrepared.Load(),
		StatementsExecuted: s.metricsExecuted.Load(),
		Transactions:       s.metricsTxns.Load(),
		CacheHits:          out.Outgoing.Hits + out.Incoming.Hits,
		CacheMisses:        out.Outgoing.Misses + out.Incoming.Misses,
	}
}

// RunMigration computes and, unless dryRun, applies the pending schema
// steps between the store's current version and schemaVersion. In
// dry-run mode it returns the plan's statements without changing state.
func (s *Store) RunMigration(ctx context.Context, dryRun bool) (MigrationPlan, error) {
	const op = "graph.Store.RunMigration"

	var current int
	if err := s.db.QueryRowContext(ctx, `SELECT schema_version FROM graph_meta`).Scan(&current); err != nil {
		return MigrationPlan{}, NewSchemaError(op, err)
	}

	steps := pendingMigrations(current)
	plan := MigrationPlan{FromVersion: current, ToVersion: schemaVersion}
	for _, step := range steps {
		plan.Statements = append(plan.Statements, step.statements...)
	}

	if dryRun || len(steps) == 0 {
		return plan, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return plan, NewTransactionError(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, step := range steps {
		for _, stmt := range step.statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return plan, NewSchemaError(op, fmt.Errorf("migration %s: %w", step.name, err))
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE graph_meta SET schema_version = ?`, step.toVersion); err != nil {
			return plan, NewSchemaError(op, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO graph_meta_history (version, applied_at) VALUES (?, datetime('now'))`, step.toVersion); err != nil {
			return plan, NewSchemaError(op, err)
		}
		s.log.Info("schema migration applied", "name", step.name, "to_version", step.toVersion)
	}

	if err := tx.Commit(); err != nil {
		return plan, NewTransactionError(op, err)
	}
	s.metricsTxns.Add(1)
	return plan, nil
}
