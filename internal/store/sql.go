package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"product-catalog-client/internal/domain"
	domainerrors "product-catalog-client/internal/errors"
)

// Dialect captures what differs between the SQL backends.
type Dialect struct {
	Name       string // database/sql driver name
	Schema     string
	positional bool // $1, $2 ... instead of ?
}

var (
	// SQLiteDialect is the on-device default.
	SQLiteDialect = Dialect{
		Name: "sqlite",
		Schema: `
		CREATE TABLE IF NOT EXISTS local_products (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			product_id TEXT,
			name       TEXT NOT NULL,
			type       TEXT NOT NULL,
			price      TEXT NOT NULL,
			tax        TEXT NOT NULL,
			image      BLOB,
			image_type TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
	}

	// PostgresDialect targets a shared PostgreSQL database.
	PostgresDialect = Dialect{
		Name: "postgres",
		Schema: `
		CREATE TABLE IF NOT EXISTS local_products (
			id         BIGSERIAL PRIMARY KEY,
			product_id TEXT,
			name       TEXT NOT NULL,
			type       TEXT NOT NULL,
			price      NUMERIC NOT NULL,
			tax        NUMERIC NOT NULL,
			image      BYTEA,
			image_type TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		positional: true,
	}
)

// rebind rewrites ? placeholders into the dialect's form.
func (d Dialect) rebind(query string) string {
	if !d.positional {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const (
	insertRecordQuery = `
		INSERT INTO local_products (product_id, name, type, price, tax, image, image_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id;`
	listRecordsQuery = `
		SELECT id, product_id, name, type, price, tax, image, image_type, created_at
		FROM local_products
		ORDER BY id ASC;`
	deleteRecordQuery = `DELETE FROM local_products WHERE id = ?;`
)

// SQLStore implements LocalStore on top of database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
	now     func() time.Time
}

// NewSQLStore wraps an open database. It does not create the schema; see Migrate.
func NewSQLStore(db *sql.DB, dialect Dialect, logger *zap.Logger) *SQLStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLStore{
		db:      db,
		dialect: dialect,
		logger:  logger.Named("store").With(zap.String("driver", dialect.Name)),
		now:     time.Now,
	}
}

// OpenSQLite opens (creating if needed) the on-device store file at path.
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLStore, error) {
	db, err := sql.Open(SQLiteDialect.Name, path)
	if err != nil {
		return nil, domainerrors.Storage("store: open sqlite", err)
	}
	// One writer at a time; WAL lets readers proceed alongside it.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, domainerrors.Storage(fmt.Sprintf("store: exec %q", pragma), err)
		}
	}

	s := NewSQLStore(db, SQLiteDialect, logger)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenPostgres connects to PostgreSQL with dsn and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*SQLStore, error) {
	db, err := sql.Open(PostgresDialect.Name, dsn)
	if err != nil {
		return nil, domainerrors.Storage("store: open postgres", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, domainerrors.Storage("store: ping postgres", err)
	}

	s := NewSQLStore(db, PostgresDialect, logger)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the local_products table when it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Schema); err != nil {
		return domainerrors.Storage("store: create schema", err)
	}
	return nil
}

// Create inserts rec inside a transaction and fills in its ID and CreatedAt.
func (s *SQLStore) Create(ctx context.Context, rec *domain.LocalProductRecord) error {
	if rec == nil {
		return domainerrors.Storage("store: Create called with nil record", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domainerrors.Storage("store: Create failed to begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	createdAt := s.now().UTC()
	var newID int64
	err = tx.QueryRowContext(ctx, s.dialect.rebind(insertRecordQuery),
		nullableString(rec.ProductID), rec.Name, string(rec.Type), rec.Price, rec.Tax,
		rec.Image, rec.ImageType, formatTime(createdAt),
	).Scan(&newID)
	if err != nil {
		return domainerrors.Storage("store: Create failed to insert record", err)
	}

	if err := tx.Commit(); err != nil {
		return domainerrors.Storage("store: Create failed to commit", err)
	}

	rec.ID = newID
	rec.CreatedAt = createdAt
	s.logger.Debug("local record created", zap.Int64("id", newID), zap.String("name", rec.Name))
	return nil
}

// ListAll returns all records ordered by ID.
func (s *SQLStore) ListAll(ctx context.Context) ([]domain.LocalProductRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(listRecordsQuery))
	if err != nil {
		return []domain.LocalProductRecord{}, domainerrors.Storage("store: ListAll failed to query records", err)
	}
	defer rows.Close()

	records := make([]domain.LocalProductRecord, 0)
	for rows.Next() {
		var (
			rec       domain.LocalProductRecord
			productID sql.NullString
			typ       string
			createdAt string
		)
		if err := rows.Scan(
			&rec.ID, &productID, &rec.Name, &typ, &rec.Price, &rec.Tax,
			&rec.Image, &rec.ImageType, &createdAt,
		); err != nil {
			return []domain.LocalProductRecord{}, domainerrors.Storage("store: ListAll failed to scan record row", err)
		}
		rec.Type = domain.ProductType(typ)
		if productID.Valid {
			pid := productID.String
			rec.ProductID = &pid
		}
		if rec.CreatedAt, err = parseTime(createdAt); err != nil {
			return []domain.LocalProductRecord{}, domainerrors.Storage("store: ListAll found a malformed created_at", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return []domain.LocalProductRecord{}, domainerrors.Storage("store: ListAll iteration error", err)
	}
	return records, nil
}

// Delete removes one record. A missing ID is not an error.
func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.dialect.rebind(deleteRecordQuery), id)
	if err != nil {
		return domainerrors.Storage("store: Delete failed to execute delete", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domainerrors.Storage("store: Delete failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		s.logger.Debug("delete of missing local record ignored", zap.Int64("id", id))
	}
	return nil
}

// Close closes the database handle.
func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return domainerrors.Storage("store: close database", err)
	}
	return nil
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// nullableString returns a sql.NullString from a *string.
func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
