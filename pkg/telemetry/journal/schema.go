package journal

// SchemaVersion is the current journal schema version.
const SchemaVersion = 1

// Schema creates the journal tables and indexes. All statements are
// idempotent so reopening an existing database is safe.
const Schema = `
CREATE TABLE IF NOT EXISTS attempts (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	provider    TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	kind        TEXT NOT NULL DEFAULT '',
	latency_ms  INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attempts_provider ON attempts(provider);
CREATE INDEX IF NOT EXISTS idx_attempts_recorded_at ON attempts(recorded_at);

CREATE TABLE IF NOT EXISTS schema_version (
	version    INTEGER PRIMARY KEY,
	applied_at INTEGER NOT NULL
);
`

// InsertSchemaVersion records the schema version if not already present.
const InsertSchemaVersion = `
INSERT OR IGNORE INTO schema_version (version, applied_at)
VALUES (?, strftime('%s', 'now'));
`

// GetSchemaVersion reads the highest applied schema version.
const GetSchemaVersion = `SELECT MAX(version) FROM schema_version;`

// InsertAttempt persists one attempt outcome.
const InsertAttempt = `
INSERT INTO attempts (provider, outcome, kind, latency_ms, recorded_at)
VALUES (?, ?, ?, ?, ?);
`

// SelectRecent reads the newest attempts, newest first.
const SelectRecent = `
SELECT provider, outcome, kind, latency_ms, recorded_at
FROM attempts
ORDER BY recorded_at DESC, id DESC
LIMIT ?;
`

// SelectOutcomeCounts aggregates outcomes per provider since a cutoff.
const SelectOutcomeCounts = `
SELECT provider, outcome, COUNT(*)
FROM attempts
WHERE recorded_at >= ?
GROUP BY provider, outcome;
`

// DeleteBefore removes attempts recorded before a cutoff.
const DeleteBefore = `DELETE FROM attempts WHERE recorded_at < ?;`
