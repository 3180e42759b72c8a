package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

// Driver names a supported database backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

const (
	defaultSQLiteDSN   = "file:pulse.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
	defaultPostgresDSN = "postgres://localhost:5432/pulse?sslmode=disable"
)

// ParseDriver validates a driver name.
func ParseDriver(name string) (Driver, error) {
	switch d := Driver(name); d {
	case DriverSQLite, DriverPostgres:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, name)
	}
}

// OpenDB opens a database and ensures the schema exists. An empty dsn selects
// a local default for the driver.
func OpenDB(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = defaultSQLiteDSN
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = defaultPostgresDSN
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if err := ensureSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	schema := schemaSQLite
	if driver == DriverPostgres {
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Score and metric cells are TEXT so that malformed legacy values reach the
// normalizer instead of failing the whole read.
const schemaSQLite = `
CREATE TABLE IF NOT EXISTS students (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  program TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS courses (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL DEFAULT '',
  faculty_id TEXT NOT NULL DEFAULT '',
  faculty_name TEXT NOT NULL DEFAULT '',
  faculty_email TEXT NOT NULL DEFAULT '',
  schedule TEXT NOT NULL DEFAULT '',
  program TEXT NOT NULL DEFAULT '',
  module TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS enrollments (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  student_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  UNIQUE (student_id, course_id)
);

CREATE TABLE IF NOT EXISTS ratings (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL DEFAULT '',
  student_id TEXT NOT NULL,
  course_id TEXT NOT NULL DEFAULT '',
  faculty_id TEXT NOT NULL DEFAULT '',
  score TEXT NOT NULL,
  rating_date TEXT NOT NULL,
  rating_time TEXT NOT NULL DEFAULT '',
  notes TEXT
);
CREATE INDEX IF NOT EXISTS ratings_student_idx ON ratings (student_id);

CREATE TABLE IF NOT EXISTS metrics (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  student_id TEXT NOT NULL,
  snapshot_date TEXT NOT NULL,
  attendance_percent TEXT,
  assignment_completion TEXT,
  login_frequency TEXT,
  discussion_participation TEXT,
  average_grade TEXT
);
CREATE INDEX IF NOT EXISTS metrics_student_idx ON metrics (student_id);

CREATE TABLE IF NOT EXISTS periods (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  trimester_id INTEGER NOT NULL,
  start_date TEXT NOT NULL,
  end_date TEXT NOT NULL,
  week_number INTEGER NOT NULL DEFAULT 0,
  unit_number INTEGER NOT NULL DEFAULT 0,
  is_summative INTEGER NOT NULL DEFAULT 0,
  is_break INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS watermarks (
  course_id TEXT NOT NULL,
  session_date TEXT NOT NULL,
  claimed_at INTEGER NOT NULL,
  PRIMARY KEY (course_id, session_date)
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS students (
  seq BIGSERIAL PRIMARY KEY,
  id TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  program TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS courses (
  seq BIGSERIAL PRIMARY KEY,
  id TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL DEFAULT '',
  faculty_id TEXT NOT NULL DEFAULT '',
  faculty_name TEXT NOT NULL DEFAULT '',
  faculty_email TEXT NOT NULL DEFAULT '',
  schedule TEXT NOT NULL DEFAULT '',
  program TEXT NOT NULL DEFAULT '',
  module TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS enrollments (
  seq BIGSERIAL PRIMARY KEY,
  student_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  UNIQUE (student_id, course_id)
);

CREATE TABLE IF NOT EXISTS ratings (
  seq BIGSERIAL PRIMARY KEY,
  id TEXT NOT NULL DEFAULT '',
  student_id TEXT NOT NULL,
  course_id TEXT NOT NULL DEFAULT '',
  faculty_id TEXT NOT NULL DEFAULT '',
  score TEXT NOT NULL,
  rating_date TEXT NOT NULL,
  rating_time TEXT NOT NULL DEFAULT '',
  notes TEXT
);
CREATE INDEX IF NOT EXISTS ratings_student_idx ON ratings (student_id);

CREATE TABLE IF NOT EXISTS metrics (
  seq BIGSERIAL PRIMARY KEY,
  student_id TEXT NOT NULL,
  snapshot_date TEXT NOT NULL,
  attendance_percent TEXT,
  assignment_completion TEXT,
  login_frequency TEXT,
  discussion_participation TEXT,
  average_grade TEXT
);
CREATE INDEX IF NOT EXISTS metrics_student_idx ON metrics (student_id);

CREATE TABLE IF NOT EXISTS periods (
  seq BIGSERIAL PRIMARY KEY,
  trimester_id INTEGER NOT NULL,
  start_date TEXT NOT NULL,
  end_date TEXT NOT NULL,
  week_number INTEGER NOT NULL DEFAULT 0,
  unit_number INTEGER NOT NULL DEFAULT 0,
  is_summative INTEGER NOT NULL DEFAULT 0,
  is_break INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS watermarks (
  course_id TEXT NOT NULL,
  session_date TEXT NOT NULL,
  claimed_at BIGINT NOT NULL,
  PRIMARY KEY (course_id, session_date)
);
`
