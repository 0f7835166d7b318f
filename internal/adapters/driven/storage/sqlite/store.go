package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/tutor/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.ChunkStore     = (*Store)(nil)
	_ driven.BatchWriter    = (*Store)(nil)
	_ driven.ChunkDeleter   = (*Store)(nil)
	_ driven.RawChunkReader = (*Store)(nil)
)

// Store is a SQLite-backed chunk store.
type Store struct {
	db       *sql.DB
	path     string
	chunkCap int
}

// Option configures the store.
type Option func(*Store)

// WithChunkCap sets the per-chunk text cap applied on read.
func WithChunkCap(n int) Option {
	return func(s *Store) {
		s.chunkCap = n
	}
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.tutor/data/chunks.db.
func NewStore(dataDir string, opts ...Option) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tutor", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "chunks.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:       db,
		path:     dbPath,
		chunkCap: domain.DefaultChunkTextCap,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations and records each applied version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) applyMigration(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ensureCollection inserts the collection row if it is missing.
func ensureCollection(ctx context.Context, exec interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, collectionID string) error {
	_, err := exec.ExecContext(ctx,
		"INSERT INTO collections (collection_id) VALUES (?) ON CONFLICT(collection_id) DO NOTHING",
		collectionID)
	if err != nil {
		return fmt.Errorf("registering collection: %w", err)
	}
	return nil
}

// WriteChunk stores or replaces a chunk.
func (s *Store) WriteChunk(ctx context.Context, chunk *domain.Chunk) error {
	if chunk == nil {
		return domain.ErrInvalidInput
	}
	if err := chunk.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ensureCollection(ctx, tx, chunk.CollectionID); err != nil {
		return err
	}

	var createdAt int64
	if !chunk.CreatedAt.IsZero() {
		createdAt = chunk.CreatedAt.Unix()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chunks (collection_id, chunk_id, subject, title, page_start, page_end, text, source_file, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection_id, chunk_id) DO UPDATE SET
			subject = excluded.subject,
			title = excluded.title,
			page_start = excluded.page_start,
			page_end = excluded.page_end,
			text = excluded.text,
			source_file = excluded.source_file,
			created_at = excluded.created_at
	`, chunk.CollectionID, chunk.ChunkID, chunk.Subject, chunk.Title,
		nullInt(chunk.PageStart), nullInt(chunk.PageEnd), chunk.Text, chunk.SourceFile, createdAt)
	if err != nil {
		return fmt.Errorf("saving chunk: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// WriteChunks stores a batch of chunks in one transaction.
func (s *Store) WriteChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (collection_id, chunk_id, subject, title, page_start, page_end, text, source_file, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection_id, chunk_id) DO UPDATE SET
			subject = excluded.subject,
			title = excluded.title,
			page_start = excluded.page_start,
			page_end = excluded.page_end,
			text = excluded.text,
			source_file = excluded.source_file,
			created_at = excluded.created_at
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	seen := make(map[string]bool)
	for i := range chunks {
		c := &chunks[i]
		if err := c.Validate(); err != nil {
			return err
		}
		if !seen[c.CollectionID] {
			if err := ensureCollection(ctx, tx, c.CollectionID); err != nil {
				return err
			}
			seen[c.CollectionID] = true
		}
		var createdAt int64
		if !c.CreatedAt.IsZero() {
			createdAt = c.CreatedAt.Unix()
		}
		if _, err := stmt.ExecContext(ctx, c.CollectionID, c.ChunkID, c.Subject, c.Title,
			nullInt(c.PageStart), nullInt(c.PageEnd), c.Text, c.SourceFile, createdAt); err != nil {
			return fmt.Errorf("saving chunk %s: %w", c.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// WriteTOC stores or replaces the table of contents.
func (s *Store) WriteTOC(ctx context.Context, toc *domain.TableOfContents) error {
	if toc == nil || toc.CollectionID == "" {
		return domain.NewValidationError("book_id", domain.ErrInvalidInput)
	}

	data, err := json.Marshal(toc)
	if err != nil {
		return fmt.Errorf("marshalling toc: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ensureCollection(ctx, tx, toc.CollectionID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tocs (collection_id, data, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(collection_id) DO UPDATE SET
			data = excluded.data,
			created_at = excluded.created_at
	`, toc.CollectionID, string(data), toc.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving toc: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListChunkIDs returns chunk IDs in lexical order.
func (s *Store) ListChunkIDs(ctx context.Context, collectionID string, limit int) ([]string, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM collections WHERE collection_id = ?", collectionID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking collection: %w", err)
	}
	if exists == 0 {
		return nil, domain.ErrUnknownCollection
	}

	query := "SELECT chunk_id FROM chunks WHERE collection_id = ? ORDER BY chunk_id"
	args := []any{collectionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunk ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk ids: %w", err)
	}
	return ids, nil
}

// GetChunk retrieves a chunk with its text capped.
func (s *Store) GetChunk(ctx context.Context, collectionID, chunkID string) (*domain.Chunk, error) {
	chunk, err := s.GetChunkRaw(ctx, collectionID, chunkID)
	if err != nil {
		return nil, err
	}
	capped := chunk.Capped(s.chunkCap)
	return &capped, nil
}

// GetChunkRaw retrieves a chunk with its full text.
func (s *Store) GetChunkRaw(ctx context.Context, collectionID, chunkID string) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT collection_id, chunk_id, subject, title, page_start, page_end, text, source_file, created_at
		FROM chunks WHERE collection_id = ? AND chunk_id = ?
	`, collectionID, chunkID)
	return scanChunkRow(row)
}

// ListCollections returns collection IDs in lexical order.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT collection_id FROM collections ORDER BY collection_id")
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning collection id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collections: %w", err)
	}
	return ids, nil
}

// GetTOC retrieves the table of contents.
func (s *Store) GetTOC(ctx context.Context, collectionID string) (*domain.TableOfContents, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM tocs WHERE collection_id = ?", collectionID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying toc: %w", err)
	}

	var toc domain.TableOfContents
	if err := json.Unmarshal([]byte(data), &toc); err != nil {
		return nil, fmt.Errorf("unmarshalling toc: %w", err)
	}
	return &toc, nil
}

// DeleteChunks removes chunks of a collection in one transaction.
func (s *Store) DeleteChunks(ctx context.Context, collectionID string, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM chunks WHERE collection_id = ? AND chunk_id = ?")
	if err != nil {
		return fmt.Errorf("preparing delete: %w", err)
	}
	defer stmt.Close()

	for _, id := range chunkIDs {
		if _, err := stmt.ExecContext(ctx, collectionID, id); err != nil {
			return fmt.Errorf("deleting chunk %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteCollection removes a collection with all its chunks and its toc.
func (s *Store) DeleteCollection(ctx context.Context, collectionID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM collections WHERE collection_id = ?", collectionID)
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// scanChunkRow scans a chunk from *sql.Row.
func scanChunkRow(row *sql.Row) (*domain.Chunk, error) {
	var (
		chunk              domain.Chunk
		pageStart, pageEnd sql.NullInt64
		createdAt          int64
	)

	if err := row.Scan(&chunk.CollectionID, &chunk.ChunkID, &chunk.Subject, &chunk.Title,
		&pageStart, &pageEnd, &chunk.Text, &chunk.SourceFile, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.PageStart = intPtr(pageStart)
	chunk.PageEnd = intPtr(pageEnd)
	if createdAt > 0 {
		chunk.CreatedAt = time.Unix(createdAt, 0).UTC()
	}
	return &chunk, nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
