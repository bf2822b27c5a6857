package graph

// schemaVersion is the latest schema version this build knows how to
// reach. graph_meta.schema_version must never exceed it; Store.Open
// fails with a Schema error when it does.
const schemaVersion = 1

// baseSchema creates the tables at schema version 1 directly; there is
// no version 0 to migrate from for a freshly created file. Table names
// match SPEC_FULL.md §6's "opaque relational file" layout.
const baseSchema = `
CREATE TABLE IF NOT EXISTS graph_entities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	file_path TEXT,
	data TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS graph_edges (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	from_id INTEGER NOT NULL,
	to_id INTEGER NOT NULL,
	edge_type TEXT NOT NULL,
	data TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_graph_edges_from ON graph_edges(from_id);
CREATE INDEX IF NOT EXISTS idx_graph_edges_to ON graph_edges(to_id);

CREATE TABLE IF NOT EXISTS graph_labels (
	entity_id INTEGER NOT NULL,
	label TEXT NOT NULL,
	UNIQUE(entity_id, label)
);

CREATE INDEX IF NOT EXISTS idx_graph_labels_label ON graph_labels(label);

CREATE TABLE IF NOT EXISTS graph_properties (
	entity_id INTEGER NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_graph_properties_kv ON graph_properties(key, value);

CREATE TABLE IF NOT EXISTS graph_meta (
	schema_version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS graph_meta_history (
	version INTEGER NOT NULL,
	applied_at TEXT NOT NULL
);
`

// migrationStep is one named, idempotent schema change between two
// schema_version values.
type migrationStep struct {
	fromVersion int
	toVersion   int
	name        string
	statements  []string
}

// migrations lists every step beyond the version the base schema
// already creates. Empty today: schemaVersion 1 is the base schema
// itself. Future migrations append steps here; MigrationPlan computes
// the pending subset for a given current version.
var migrations = []migrationStep{}

// MigrationPlan is the result of computing pending schema steps
// between a store's current version and schemaVersion.
type MigrationPlan struct {
	FromVersion int
	ToVersion   int
	Statements  []string
}

// pendingMigrations returns the migration steps needed to go from
// currentVersion to schemaVersion, in order.
func pendingMigrations(currentVersion int) []migrationStep {
	var pending []migrationStep
	for _, m := range migrations {
		if m.fromVersion >= currentVersion {
			pending = append(pending, m)
		}
	}
	return pending
}
