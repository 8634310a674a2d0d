// Package persistence provides the relational-container layer: opening,
// creating and verifying OAIF files, which are single SQLite databases
// identified by a fixed application_id.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// ApplicationID is the magic marker stored in the SQLite header ("OAIF" in
// ASCII). A file without it is not a file of this format.
const ApplicationID int64 = 0x4F414946

// FormatVersion is the container format version this engine reads and writes.
const FormatVersion = "1.0"

// Required metadata keys. A file missing any of them fails to open.
const (
	MetaVersion      = "oaif_version"
	MetaMinReader    = "oaif_min_reader"
	MetaCreatedAt    = "created_at"
	MetaCreatedBy    = "created_by"
	MetaSourceSystem = "source_system"
	MetaCompanyName  = "company_name"
	MetaBaseCurrency = "base_currency"
)

// RequiredMetadataKeys lists the keys every file must declare.
var RequiredMetadataKeys = []string{
	MetaVersion,
	MetaMinReader,
	MetaCreatedAt,
	MetaCreatedBy,
	MetaSourceSystem,
	MetaCompanyName,
	MetaBaseCurrency,
}

// Querier supports database operations for both the connection and transactions.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Ensure interfaces are satisfied (compile-time check)
var _ Querier = (*sql.DB)(nil)
var _ Querier = (*sql.Tx)(nil)

// SQLiteDB wraps one opened container file.
type SQLiteDB struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// CreateMeta carries the authoring metadata written into a new file.
type CreateMeta struct {
	CreatedBy    string
	SourceSystem string
	CompanyName  string
	BaseCurrency string
}

// Open opens an existing OAIF file and verifies its identity: the
// application_id magic, the required metadata keys and the minimum-reader
// version gate. Unknown tables and columns beyond the required set are
// tolerated.
func Open(ctx context.Context, logger *slog.Logger, path string, readOnly bool) (*SQLiteDB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot open ledger file: %w", err)
	}

	db, err := openSQLite(path, readOnly)
	if err != nil {
		return nil, err
	}

	s := &SQLiteDB{db: db, path: path, logger: logger}

	var appID int64
	if err := db.QueryRowContext(ctx, "PRAGMA application_id").Scan(&appID); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read application_id: %w", err)
	}
	if appID != ApplicationID {
		db.Close()
		return nil, NotAFileOfThisFormatError{Path: path, ApplicationID: appID}
	}

	meta, err := s.Metadata(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	var missing []string
	for _, key := range RequiredMetadataKeys {
		if meta[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		db.Close()
		sort.Strings(missing)
		return nil, MissingMetadataError{Keys: missing}
	}

	if compareVersions(FormatVersion, meta[MetaMinReader]) < 0 {
		db.Close()
		return nil, UnsupportedVersionError{MinReader: meta[MetaMinReader], Reader: FormatVersion}
	}

	logger.Info("Opened ledger file",
		"path", path,
		"company", meta[MetaCompanyName],
		"base_currency", meta[MetaBaseCurrency],
		"version", meta[MetaVersion],
	)
	return s, nil
}

// Create authors a new OAIF file at path: sets the identifying pragmas, runs
// the schema migrations and writes the required metadata.
func Create(ctx context.Context, logger *slog.Logger, path string, meta CreateMeta) (*SQLiteDB, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("refusing to overwrite existing file: %s", path)
	}
	if meta.BaseCurrency == "" {
		return nil, fmt.Errorf("base currency is required")
	}

	db, err := openSQLite(path, false)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA application_id = %d", ApplicationID)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set application_id: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA user_version = 1"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set user_version: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	pairs := map[string]string{
		MetaVersion:      FormatVersion,
		MetaMinReader:    FormatVersion,
		MetaCreatedAt:    now,
		MetaCreatedBy:    meta.CreatedBy,
		MetaSourceSystem: meta.SourceSystem,
		MetaCompanyName:  meta.CompanyName,
		MetaBaseCurrency: meta.BaseCurrency,
	}
	for key, value := range pairs {
		if _, err := db.ExecContext(ctx,
			"INSERT INTO oaif_metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, value,
		); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to write metadata %q: %w", key, err)
		}
	}

	logger.Info("Created ledger file", "path", path, "company", meta.CompanyName, "base_currency", meta.BaseCurrency)
	return &SQLiteDB{db: db, path: path, logger: logger}, nil
}

func openSQLite(path string, readOnly bool) (*sql.DB, error) {
	// mode=ro is only honored on URI filenames, hence the file: prefix.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)", path)
	if readOnly {
		dsn += "&mode=ro&_pragma=query_only(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	// Single connection: the format assumes single-writer-per-file semantics
	// and this sidesteps SQLite locking issues entirely.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// DB exposes the underlying connection.
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}

// Path returns the file path of the container.
func (s *SQLiteDB) Path() string {
	return s.path
}

// Close closes the container.
func (s *SQLiteDB) Close() error {
	err := s.db.Close()
	s.logger.Info("Closed ledger file", "path", s.path)
	return err
}

// Metadata returns every key/value pair of the metadata table.
func (s *SQLiteDB) Metadata(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM oaif_metadata")
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		meta[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	return meta, nil
}

// SetMetadata writes one metadata key.
func (s *SQLiteDB) SetMetadata(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO oaif_metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write metadata %q: %w", key, err)
	}
	return nil
}

// ExecuteTx runs fn in a transaction, rolling back on error or panic. Every
// mutating engine operation goes through here so a failed multi-line write is
// never partially observable.
func (s *SQLiteDB) ExecuteTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback() // Attempt rollback on panic
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %v, rb err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

// compareVersions compares two "major.minor" version strings. Missing or
// malformed segments compare as zero.
func compareVersions(a, b string) int {
	as := strings.SplitN(a, ".", 2)
	bs := strings.SplitN(b, ".", 2)
	for i := 0; i < 2; i++ {
		var av, bv int
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}
