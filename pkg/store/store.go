// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/inframind/build-advisor/pkg/defaults"
	"github.com/inframind/build-advisor/pkg/errors"
)

// DefaultDSN is the database used when none is configured.
const DefaultDSN = "./data/inframind.db"

const (
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"

	// timeLayout is fixed width so TEXT columns sort chronologically.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

var openDB = sql.Open

// Store persists pipelines, runs, steps, features, suggestions and model records.
// It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to dsn and creates the schema. postgres:// and postgresql://
// URLs use PostgreSQL; anything else is a SQLite path, file: URI or sqlite:// URL.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}

	driver, source, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := openDB(driver, source)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, "failed to open database", err)
	}

	s := &Store{db: db, driver: driver}

	if driver == driverSQLite {
		// one writer; pragmas below are per connection
		db.SetMaxOpenConns(1)
		if err := s.applyPragmas(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(errors.ErrCodeUnavailable, "database not reachable", err)
	}

	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	slog.Debug("store opened", "driver", driver)

	return s, nil
}

func parseDSN(dsn string) (driver, source string, err error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return driverPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		dsn = strings.TrimPrefix(dsn, "sqlite://")
	case strings.Contains(dsn, "://"):
		return "", "", errors.NewWithContext(errors.ErrCodeInvalidRequest, "unsupported database URL",
			map[string]any{"dsn": redact(dsn)})
	}

	if dsn == "" {
		return "", "", errors.New(errors.ErrCodeInvalidRequest, "empty database path")
	}

	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", "", errors.Wrap(errors.ErrCodeInternal, "failed to create database directory", err)
			}
		}
	}

	return driverSQLite, dsn, nil
}

// redact hides the password of a URL-style DSN.
func redact(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if user, _, ok := strings.Cut(creds, ":"); ok {
		return dsn[:scheme+3] + user + ":***" + dsn[at:]
	}
	return dsn
}

func (s *Store) applyPragmas(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = " + strconv.FormatInt(defaults.SQLiteBusyTimeout.Milliseconds(), 10),
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.ExecContext(ctx, p); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("pragma %q failed", p), err)
		}
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == driverPostgres {
		id = "BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS pipelines (
			id         ` + id + `,
			name       TEXT NOT NULL UNIQUE,
			repo       TEXT NOT NULL DEFAULT 'unknown',
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id             ` + id + `,
			pipeline_id    BIGINT NOT NULL REFERENCES pipelines(id),
			run_id         TEXT NOT NULL UNIQUE,
			status         TEXT NOT NULL,
			duration_s     DOUBLE PRECISION,
			started_at     TEXT NOT NULL,
			finished_at    TEXT,
			image          TEXT NOT NULL DEFAULT '',
			node           TEXT NOT NULL DEFAULT '',
			branch         TEXT NOT NULL DEFAULT '',
			git_commit     TEXT NOT NULL DEFAULT '',
			git            TEXT NOT NULL DEFAULT '',
			tools          TEXT NOT NULL DEFAULT '[]',
			cpu_req        DOUBLE PRECISION NOT NULL DEFAULT 0,
			mem_req_gb     DOUBLE PRECISION NOT NULL DEFAULT 0,
			concurrency    BIGINT NOT NULL DEFAULT 0,
			artifact_bytes BIGINT NOT NULL DEFAULT 0,
			cache          TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_pipeline_started ON runs(pipeline_id, started_at)`,
		`CREATE TABLE IF NOT EXISTS steps (
			id            ` + id + `,
			run_id        TEXT NOT NULL REFERENCES runs(run_id),
			stage         TEXT NOT NULL,
			step          TEXT NOT NULL,
			span_id       TEXT NOT NULL DEFAULT '',
			start_ts      TEXT,
			end_ts        TEXT,
			cpu_time_s    DOUBLE PRECISION NOT NULL DEFAULT 0,
			rss_max_bytes BIGINT NOT NULL DEFAULT 0,
			io_r_bytes    BIGINT NOT NULL DEFAULT 0,
			io_w_bytes    BIGINT NOT NULL DEFAULT 0,
			cache_hits    BIGINT NOT NULL DEFAULT 0,
			cache_misses  BIGINT NOT NULL DEFAULT 0,
			UNIQUE (run_id, stage, step)
		)`,
		`CREATE TABLE IF NOT EXISTS features (
			id         ` + id + `,
			run_id     TEXT NOT NULL UNIQUE REFERENCES runs(run_id),
			vector     TEXT NOT NULL,
			label      TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS suggestions (
			id          ` + id + `,
			pipeline_id BIGINT NOT NULL REFERENCES pipelines(id),
			run_id      TEXT,
			payload     TEXT NOT NULL,
			applied     BIGINT NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_suggestions_pipeline ON suggestions(pipeline_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS models (
			id         ` + id + `,
			version    TEXT NOT NULL UNIQUE,
			algo       TEXT NOT NULL,
			metrics    TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, "schema migration failed", err)
		}
	}
	return nil
}

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string {
	return s.driver
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeUnavailable, "database ping failed", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != driverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		// rows written by other tools
		t, err = time.Parse(time.RFC3339Nano, v)
	}
	return t, err
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := parseTime(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func dbError(op string, err error) error {
	return errors.WrapWithContext(errors.ErrCodeInternal, "database operation failed", err,
		map[string]any{"op": op})
}
