package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"mercator-hq/callisto/pkg/resilience"
)

// Config contains configuration for the outcome journal.
type Config struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// AsyncBuffer is the size of the async write channel buffer. When the
	// buffer is full new entries are dropped rather than blocking the
	// dispatch path.
	// Default: 1000
	AsyncBuffer int
}

// DefaultConfig returns the default journal configuration.
func DefaultConfig() Config {
	return Config{
		Path:        "data/journal.db",
		BusyTimeout: 5 * time.Second,
		AsyncBuffer: 1000,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Path == "" {
		c.Path = def.Path
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = def.BusyTimeout
	}
	if c.AsyncBuffer <= 0 {
		c.AsyncBuffer = def.AsyncBuffer
	}
	return c
}

// Entry is one persisted attempt outcome.
type Entry struct {
	Provider   string
	Outcome    resilience.Outcome
	Kind       resilience.ErrorKind
	Latency    time.Duration
	RecordedAt time.Time
}

// Journal persists attempt outcomes to SQLite. Writes are asynchronous so
// the dispatch path never blocks on disk; a full buffer drops entries and
// counts them.
//
// Journal implements resilience.Sink.
type Journal struct {
	cfg    Config
	db     *sql.DB
	insert *sql.Stmt
	logger *slog.Logger

	entries  chan resilience.AttemptResult
	dropped  atomic.Int64
	enqueued atomic.Int64
	written  atomic.Int64

	wg       sync.WaitGroup
	stopOnce sync.Once
	done     chan struct{}
}

// Open creates or opens the journal database, applies the schema, and
// starts the async writer.
func Open(cfg Config) (*Journal, error) {
	cfg = cfg.withDefaults()
	logger := slog.Default().With("component", "telemetry.journal")

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database %q: %w", cfg.Path, err)
	}

	j := &Journal{
		cfg:     cfg,
		db:      db,
		logger:  logger,
		entries: make(chan resilience.AttemptResult, cfg.AsyncBuffer),
		done:    make(chan struct{}),
	}

	if err := j.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	j.insert, err = db.Prepare(InsertAttempt)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	j.wg.Add(1)
	go j.worker()

	logger.Info("outcome journal opened",
		"path", cfg.Path,
		"async_buffer", cfg.AsyncBuffer,
	)
	return j, nil
}

// initialize enables WAL mode, sets the busy timeout, and applies the
// schema.
func (j *Journal) initialize() error {
	if _, err := j.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := j.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", j.cfg.BusyTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := j.db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := j.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	var version int
	if err := j.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("schema version mismatch: expected %d, got %d", SchemaVersion, version)
	}
	return nil
}

// RecordAttempt implements resilience.Sink. The entry is enqueued for the
// async writer; if the buffer is full it is dropped and counted.
func (j *Journal) RecordAttempt(result resilience.AttemptResult) {
	select {
	case j.entries <- result:
		j.enqueued.Add(1)
	case <-j.done:
	default:
		j.dropped.Add(1)
	}
}

// Dropped returns the number of entries dropped due to a full buffer.
func (j *Journal) Dropped() int64 {
	return j.dropped.Load()
}

// worker drains the entry channel into the database.
func (j *Journal) worker() {
	defer j.wg.Done()

	for {
		select {
		case <-j.done:
			// Drain whatever is already buffered before exiting.
			for {
				select {
				case result := <-j.entries:
					j.write(result)
				default:
					return
				}
			}
		case result := <-j.entries:
			j.write(result)
		}
	}
}

// write persists one entry. Failures are logged and dropped; the journal
// is an observability aid, not a source of truth.
func (j *Journal) write(result resilience.AttemptResult) {
	ts := result.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := j.insert.Exec(
		result.Provider,
		string(result.Outcome),
		string(result.Kind),
		result.Latency.Milliseconds(),
		ts.Unix(),
	)
	if err != nil {
		j.logger.Error("failed to persist attempt outcome",
			"provider", result.Provider,
			"error", err,
		)
	}
	j.written.Add(1)
}

// Recent returns the newest entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := j.db.QueryContext(ctx, SelectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent attempts: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			outcome   string
			kind      string
			latencyMs int64
			recorded  int64
		)
		if err := rows.Scan(&e.Provider, &outcome, &kind, &latencyMs, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan attempt row: %w", err)
		}
		e.Outcome = resilience.Outcome(outcome)
		e.Kind = resilience.ErrorKind(kind)
		e.Latency = time.Duration(latencyMs) * time.Millisecond
		e.RecordedAt = time.Unix(recorded, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

// OutcomeCounts aggregates outcomes per provider for entries recorded at
// or after since. The outer map is keyed by provider, the inner by
// outcome.
func (j *Journal) OutcomeCounts(ctx context.Context, since time.Time) (map[string]map[resilience.Outcome]int, error) {
	rows, err := j.db.QueryContext(ctx, SelectOutcomeCounts, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query outcome counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]map[resilience.Outcome]int)
	for rows.Next() {
		var (
			provider string
			outcome  string
			n        int
		)
		if err := rows.Scan(&provider, &outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		if counts[provider] == nil {
			counts[provider] = make(map[resilience.Outcome]int)
		}
		counts[provider][resilience.Outcome(outcome)] = n
	}
	return counts, rows.Err()
}

// Flush blocks until every entry enqueued before the call has been
// written, or the context expires.
func (j *Journal) Flush(ctx context.Context) error {
	target := j.enqueued.Load()
	for j.written.Load() < target {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
	return nil
}

// Close stops the async writer, drains the buffer, and closes the
// database. Safe to call more than once.
func (j *Journal) Close() error {
	var err error
	j.stopOnce.Do(func() {
		close(j.done)
		j.wg.Wait()

		if j.insert != nil {
			j.insert.Close()
		}
		err = j.db.Close()

		if dropped := j.dropped.Load(); dropped > 0 {
			j.logger.Warn("journal closed with dropped entries", "dropped", dropped)
		}
	})
	return err
}
