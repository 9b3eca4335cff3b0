package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:educode.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/educode?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS universities (
  uid TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email_id TEXT NOT NULL DEFAULT '',
  user_id TEXT NOT NULL DEFAULT '',
  password TEXT NOT NULL DEFAULT '',
  logo_link TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS batches (
  batch_id TEXT PRIMARY KEY,
  uni_id TEXT NOT NULL,
  batch_name TEXT NOT NULL,
  registered_courses_json TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS students (
  student_id TEXT PRIMARY KEY,
  student_name TEXT NOT NULL,
  uni_id TEXT NOT NULL,
  batch_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  password TEXT NOT NULL,
  email_id TEXT NOT NULL DEFAULT '',
  phone_num TEXT NOT NULL DEFAULT '',
  uni_reg_id TEXT NOT NULL DEFAULT '',
  section TEXT NOT NULL DEFAULT '',
  profile_image_link TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS courses_metadata (
  course_id TEXT PRIMARY KEY,
  course_name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  thumbnail_link TEXT NOT NULL DEFAULT ''
);

-- Hierarchical course content, one JSON document per course.
CREATE TABLE IF NOT EXISTS course_docs (
  course_id TEXT PRIMARY KEY,
  doc_json TEXT NOT NULL
);

-- Per-(student, sub-unit) resumable test state, one row per key, two tracks.
CREATE TABLE IF NOT EXISTS resume_state (
  student_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  unit_id TEXT NOT NULL,
  sub_unit_id TEXT NOT NULL,
  coding_ids_json TEXT NOT NULL DEFAULT '[]',
  coding_status TEXT NOT NULL DEFAULT 'not_started',
  mcq_ids_json TEXT NOT NULL DEFAULT '[]',
  mcq_status TEXT NOT NULL DEFAULT 'not_started',
  PRIMARY KEY (student_id, course_id, unit_id, sub_unit_id)
);

-- Latest attempt per question only; every new attempt replaces the row.
CREATE TABLE IF NOT EXISTS submissions (
  student_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  unit_id TEXT NOT NULL,
  sub_unit_id TEXT NOT NULL,
  question_id TEXT NOT NULL,
  code TEXT NOT NULL,
  language_id INTEGER NOT NULL,
  status TEXT NOT NULL,
  submitted_at INTEGER NOT NULL,
  PRIMARY KEY (student_id, course_id, unit_id, sub_unit_id, question_id)
);

-- No unique constraint on the natural key: replacement is enforced by an
-- explicit delete before insert.
CREATE TABLE IF NOT EXISTS results (
  university_id TEXT NOT NULL,
  student_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  unit_id TEXT NOT NULL,
  sub_unit_id TEXT NOT NULL,
  result_type TEXT NOT NULL,
  marks_obtained REAL NOT NULL DEFAULT 0,
  total_marks REAL NOT NULL,
  submitted_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  offset INTEGER PRIMARY KEY AUTOINCREMENT, -- BIGSERIAL in Postgres
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,                        -- e.g., TestResultRecorded
  key TEXT NOT NULL,                        -- natural key of the subject row
  data TEXT NOT NULL,                       -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS universities (
  uid TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email_id TEXT NOT NULL DEFAULT '',
  user_id TEXT NOT NULL DEFAULT '',
  password TEXT NOT NULL DEFAULT '',
  logo_link TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS batches (
  batch_id TEXT PRIMARY KEY,
  uni_id TEXT NOT NULL,
  batch_name TEXT NOT NULL,
  registered_courses_json TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS students (
  student_id TEXT PRIMARY KEY,
  student_name TEXT NOT NULL,
  uni_id TEXT NOT NULL,
  batch_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  password TEXT NOT NULL,
  email_id TEXT NOT NULL DEFAULT '',
  phone_num TEXT NOT NULL DEFAULT '',
  uni_reg_id TEXT NOT NULL DEFAULT '',
  section TEXT NOT NULL DEFAULT '',
  profile_image_link TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS courses_metadata (
  course_id TEXT PRIMARY KEY,
  course_name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  thumbnail_link TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS course_docs (
  course_id TEXT PRIMARY KEY,
  doc_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS resume_state (
  student_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  unit_id TEXT NOT NULL,
  sub_unit_id TEXT NOT NULL,
  coding_ids_json TEXT NOT NULL DEFAULT '[]',
  coding_status TEXT NOT NULL DEFAULT 'not_started',
  mcq_ids_json TEXT NOT NULL DEFAULT '[]',
  mcq_status TEXT NOT NULL DEFAULT 'not_started',
  PRIMARY KEY (student_id, course_id, unit_id, sub_unit_id)
);

CREATE TABLE IF NOT EXISTS submissions (
  student_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  unit_id TEXT NOT NULL,
  sub_unit_id TEXT NOT NULL,
  question_id TEXT NOT NULL,
  code TEXT NOT NULL,
  language_id INTEGER NOT NULL,
  status TEXT NOT NULL,
  submitted_at BIGINT NOT NULL,
  PRIMARY KEY (student_id, course_id, unit_id, sub_unit_id, question_id)
);

CREATE TABLE IF NOT EXISTS results (
  university_id TEXT NOT NULL,
  student_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  unit_id TEXT NOT NULL,
  sub_unit_id TEXT NOT NULL,
  result_type TEXT NOT NULL,
  marks_obtained DOUBLE PRECISION NOT NULL DEFAULT 0,
  total_marks DOUBLE PRECISION NOT NULL,
  submitted_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  offset BIGSERIAL PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
