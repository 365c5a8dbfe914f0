// Package store persists scored results in SQLite or PostgreSQL.
//
// Every file is written inside one transaction ([Store.WithinFile]), so a
// failure part way through leaves no teams, participants, events or results
// behind. File status records ([Store.RecordFile]) are written outside that
// transaction and survive a failed import.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite

	"github.com/JonMunkholm/swimscore/internal/core"
)

// Driver selects the database backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps the database handle.
type Store struct {
	db     *sql.DB
	driver Driver
	now    func() time.Time
}

// Open opens a database and ensures the schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*Store, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:swimscore.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			return nil, errors.New("postgres driver requires a database URL")
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// One writer at a time; avoids SQLITE_BUSY between pooled connections.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, driver: driver, now: time.Now}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// SetMaxOpenConns caps the connection pool. SQLite always uses one.
func (s *Store) SetMaxOpenConns(n int) {
	if s.driver != DriverSQLite && n > 0 {
		s.db.SetMaxOpenConns(n)
	}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	schema := schemaPostgres
	if s.driver == DriverSQLite {
		schema = schemaSQLite
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// EnsureMeet returns the id of the meet with the given name, creating it
// when needed. Meets are matched by slug.
func (s *Store) EnsureMeet(ctx context.Context, name string, course core.Course) (string, error) {
	name = strings.TrimSpace(name)
	slug := Slugify(name)
	if slug == "" {
		return "", errors.New("ensure meet: empty meet name")
	}
	if course == "" {
		course = core.CourseSCY
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meets (id, name, slug, course, created_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (slug) DO NOTHING`,
		uuid.NewString(), name, slug, string(course), s.now().Unix())
	if err != nil {
		return "", fmt.Errorf("ensure meet: %w", err)
	}

	var id string
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM meets WHERE slug = $1`, slug).Scan(&id); err != nil {
		return "", fmt.Errorf("ensure meet: %w", err)
	}
	return id, nil
}

// WithinFile runs fn with a sink bound to meetID inside one transaction.
// The transaction commits only if fn returns nil.
func (s *Store) WithinFile(ctx context.Context, meetID string, fn func(core.Sink) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sink{q: tx, meetID: meetID, now: s.now}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FileRecord is the processing status of one uploaded file.
type FileRecord struct {
	ID        string
	FileName  string
	FileType  string
	MeetID    string
	Processed bool
	Errors    string
}

// RecordFile stores the status of a processed file. It runs outside any
// file transaction so failures are recorded too.
func (s *Store) RecordFile(ctx context.Context, rec FileRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	var meetID any
	if rec.MeetID != "" {
		meetID = rec.MeetID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO uploaded_files (id, file_name, file_type, meet_id, is_processed, processing_errors, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.FileName, rec.FileType, meetID, rec.Processed, rec.Errors, s.now().Unix())
	if err != nil {
		return fmt.Errorf("record file: %w", err)
	}
	return nil
}

// GetFile loads a file status record.
func (s *Store) GetFile(ctx context.Context, id string) (FileRecord, error) {
	var rec FileRecord
	var meetID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, file_name, file_type, meet_id, is_processed, processing_errors
		 FROM uploaded_files WHERE id = $1`, id).
		Scan(&rec.ID, &rec.FileName, &rec.FileType, &meetID, &rec.Processed, &rec.Errors)
	if err != nil {
		return FileRecord{}, fmt.Errorf("get file %s: %w", id, err)
	}
	rec.MeetID = meetID.String
	return rec, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
