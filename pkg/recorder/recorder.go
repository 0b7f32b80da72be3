// Package recorder logs pose samples to a SQLite database so a run can be
// inspected after the fact.
package recorder

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/teslashibe/go-aruco/internal/log"
	"github.com/teslashibe/go-aruco/pkg/telemetry"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrClosed is returned when publishing to a closed recorder.
var ErrClosed = errors.New("recorder: closed")

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
}

const insertSample = `INSERT INTO pose_samples (
	session, stage, marker_id, frame, recorded_unix_nanos,
	marker_x, marker_y, marker_z, marker_roll, marker_pitch, marker_yaw,
	camera_x, camera_y, camera_z, camera_roll, camera_pitch, camera_yaw
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Recorder is a telemetry.Publisher backed by SQLite.
type Recorder struct {
	db     *sql.DB
	insert *sql.Stmt
	path   string

	mu     sync.Mutex
	closed bool
}

// Open opens (or creates) the database at path and migrates it to the
// latest schema.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	insert, err := db.Prepare(insertSample)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}

	log.Component("recorder").Info("recording poses", "path", path)
	return &Recorder{db: db, insert: insert, path: path}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	// m is not closed: that would close db as well.
	m.Log = migrateLogger{}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// migrateLogger implements migrate.Logger
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	log.Component("migrate").Debug(fmt.Sprintf(format, v...))
}

func (migrateLogger) Verbose() bool {
	return false
}

// Path returns the database file path.
func (r *Recorder) Path() string {
	return r.path
}

// Publish inserts one sample.
func (r *Recorder) Publish(s telemetry.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	_, err := r.insert.Exec(
		s.Session, s.Stage, s.MarkerID, s.Frame, s.Time.UnixNano(),
		s.MarkerPosition.X, s.MarkerPosition.Y, s.MarkerPosition.Z,
		s.MarkerAttitude.Roll, s.MarkerAttitude.Pitch, s.MarkerAttitude.Yaw,
		s.CameraPosition.X, s.CameraPosition.Y, s.CameraPosition.Z,
		s.CameraAttitude.Roll, s.CameraAttitude.Pitch, s.CameraAttitude.Yaw,
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// Count returns the number of recorded samples across all sessions.
func (r *Recorder) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM pose_samples`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Samples returns the samples of one session in frame order.
func (r *Recorder) Samples(session string) ([]telemetry.Sample, error) {
	rows, err := r.db.Query(`SELECT
		session, stage, marker_id, frame, recorded_unix_nanos,
		marker_x, marker_y, marker_z, marker_roll, marker_pitch, marker_yaw,
		camera_x, camera_y, camera_z, camera_roll, camera_pitch, camera_yaw
		FROM pose_samples WHERE session = ? ORDER BY frame, sample_id`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []telemetry.Sample
	for rows.Next() {
		var s telemetry.Sample
		var nanos int64
		if err := rows.Scan(
			&s.Session, &s.Stage, &s.MarkerID, &s.Frame, &nanos,
			&s.MarkerPosition.X, &s.MarkerPosition.Y, &s.MarkerPosition.Z,
			&s.MarkerAttitude.Roll, &s.MarkerAttitude.Pitch, &s.MarkerAttitude.Yaw,
			&s.CameraPosition.X, &s.CameraPosition.Y, &s.CameraPosition.Z,
			&s.CameraAttitude.Roll, &s.CameraAttitude.Pitch, &s.CameraAttitude.Yaw,
		); err != nil {
			return nil, err
		}
		s.Time = time.Unix(0, nanos)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close finalizes the statement and closes the database.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	r.insert.Close()
	return r.db.Close()
}
