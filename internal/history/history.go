// Package history records completed run results into an append-only
// SQLite database (SPEC_FULL §4.12). It is purely additive: a failure to
// open the store or record a row is logged and otherwise ignored, since
// history is a Reporters-adjacent enrichment, not part of the engine's
// correctness surface.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/quickstrom/quickstrom-go/internal/log"
	"github.com/quickstrom/quickstrom-go/internal/trace"
)

// Store appends one row per completed trace.Result.
type Store struct {
	conn *sql.DB
}

// Open connects to path (created if absent) and applies pending
// migrations.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping sqlite: %w", err)
	}

	migrationsFS, err := fs.Sub(MigrationFS, "migrations")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: migrations sub-fs: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, conn, migrationsFS)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: create migration provider: %w", err)
	}
	if _, err := provider.Up(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply migrations: %w", err)
	}

	return &Store{conn: conn}, nil
}

// Record appends one row per result, best-effort: the first failure is
// logged and the rest are skipped, never returned to the caller.
func (s *Store) Record(module, origin, browser string, results []trace.Result) {
	if s == nil {
		return
	}
	for _, r := range results {
		if err := s.recordOne(module, origin, browser, r); err != nil {
			log.L().Sugar().Warnw("history: failed to record result", "error", err)
			return
		}
	}
}

func (s *Store) recordOne(module, origin, browser string, r trace.Result) error {
	outcome, certainty, valid, transitions, errMsg := summarize(r)
	_, err := s.conn.Exec(
		`INSERT INTO runs (module, origin, browser, outcome, certainty, valid, transitions, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		module, origin, browser, outcome, certainty, valid, transitions, errMsg,
	)
	return err
}

func summarize(r trace.Result) (outcome string, certainty *string, valid *bool, transitions int, errMsg *string) {
	switch r.Kind {
	case trace.KindPassed:
		outcome = "passed"
		if len(r.Passed) > 0 {
			c := string(r.Passed[0].Validity.Certainty)
			v := r.Passed[0].Validity.Value
			certainty, valid = &c, &v
			transitions = len(r.Passed[0].Transitions)
		}
	case trace.KindFailed:
		outcome = "failed"
		if r.Failed != nil {
			c := string(r.Failed.Validity.Certainty)
			v := r.Failed.Validity.Value
			certainty, valid = &c, &v
			transitions = len(r.Failed.Transitions)
		}
	case trace.KindErrored:
		outcome = "errored"
		transitions = r.Tests
		e := r.Error
		errMsg = &e
	}
	return outcome, certainty, valid, transitions, errMsg
}

// Close closes the underlying connection. Safe to call on a nil Store.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.conn.Close()
}
