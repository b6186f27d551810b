package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migration upgrades a database to version.
type migration struct {
	version int
	name    string
	stmt    string
}

// migrations run in order against databases whose user_version is lower.
// schema.sql holds the version 0 tables.
var migrations = []migration{
	{1, "index questions by author", `CREATE INDEX IF NOT EXISTS idx_questions_author ON questions(author, id)`},
	{2, "index questions by author and creation time", `CREATE INDEX IF NOT EXISTS idx_questions_author_created ON questions(author, created_at)`},
}

// currentSchemaVersion is the user_version of a fully migrated database.
var currentSchemaVersion = migrations[len(migrations)-1].version

// connParams are applied by the driver to every connection it opens.
var connParams = url.Values{
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
	"_busy_timeout": {"5000"},
	"_foreign_keys": {"on"},
}

// Store persists messages, questions and profiles for the reference backend.
type Store struct {
	db    *sql.DB
	clock *Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the wall clock that timestamps are drawn from.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.clock = NewClock(now)
	}
}

// Open creates or opens the SQLite database at path and migrates it to the
// current schema. Opening an up-to-date database changes nothing.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?"+connParams.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers; SQLite allows only one anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, clock: NewClock(time.Now)}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := s.migrate(); err != nil {
		return err
	}
	return s.resumeClock()
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate applies each pending migration in its own transaction, bumping
// user_version with it.
func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to v%d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			tx.Rollback()
			return fmt.Errorf("set user_version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
	}
	return nil
}

// resumeClock moves the clock past every stored timestamp, so records
// written after a restart (or a wall-clock step back) still sort last.
func (s *Store) resumeClock() error {
	var last int64
	err := s.db.QueryRow(`
		SELECT MAX(v) FROM (
			SELECT COALESCE(MAX(ts), 0) AS v FROM messages
			UNION ALL
			SELECT COALESCE(MAX(MAX(created_at, COALESCE(modified_at, 0))), 0) FROM questions
		)
	`).Scan(&last)
	if err != nil {
		return fmt.Errorf("resume clock: %w", err)
	}
	s.clock.Observe(last)
	return nil
}

// pragma returns the current value of a connection pragma.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("query %s: %w", name, err)
	}
	return value, nil
}
