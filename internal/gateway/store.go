package gateway

import (
	"database/sql"
	_ "embed"
	"fmt"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema
const currentSchemaVersion = 1

// Store owns the SQLite database shared by every collection gateway and
// the in-process change-feed hubs. Uses WAL mode so readers are not
// blocked by the single writer.
type Store struct {
	db         *sql.DB
	nextClient atomic.Int64

	guardFeed      *feed[GuardChange]
	scheduleFeed   *feed[ScheduleChange]
	attendanceFeed *feed[AttendanceChange]
}

// Open creates or opens the database at path (":memory:" works for tests),
// applies pragmas, and runs schema migrations. Idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// SQLite supports one writer at a time; a single pooled connection
	// avoids SQLITE_BUSY under concurrent clients.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{
		db:             db,
		guardFeed:      newFeed[GuardChange](),
		scheduleFeed:   newFeed[ScheduleChange](),
		attendanceFeed: newFeed[AttendanceChange](),
	}, nil
}

// Close closes the database. Feed subscriptions should be unsubscribed
// first; events emitted after Close are impossible since mutations fail.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NewClient returns a client handle with its own gateway views. Change
// feeds opened through one client never deliver that client's own
// mutations back to it.
func (s *Store) NewClient() *Client {
	return &Client{store: s, id: s.nextClient.Add(1)}
}

// Client is one tab's or device's view on the shared store.
type Client struct {
	store *Store
	id    int64
}

// Guards returns the guard collection gateway for this client.
func (c *Client) Guards() Guards { return &guardGateway{client: c} }

// Shifts returns the shift reference-data gateway for this client.
func (c *Client) Shifts() Shifts { return &shiftGateway{client: c} }

// Schedule returns the schedule gateway for this client.
func (c *Client) Schedule() Schedule { return &scheduleGateway{client: c} }

// Attendance returns the attendance gateway for this client.
func (c *Client) Attendance() Attendance { return &attendanceGateway{client: c} }

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return runMigrations(db)
}

// runMigrations applies incremental migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	// No incremental migrations yet; new databases start at the current
	// version and future ALTERs slot in here.

	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}
