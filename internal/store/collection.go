package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Aman-CERP/docrag/internal/chunk"
)

// record is one persisted chunk with its embedding.
type record struct {
	chunk  chunk.Chunk
	vector []float32
}

// openDatabase opens the semantic database at path and ensures the schema.
// Uses modernc.org/sqlite (pure Go, no CGO).
func openDatabase(path string) (*sql.DB, error) {
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer to prevent lock contention
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// DSN params may be ignored by modernc.org/sqlite
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		dimensions INTEGER NOT NULL,
		metric TEXT NOT NULL,
		model TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS records (
		collection TEXT NOT NULL,
		position INTEGER NOT NULL,
		chunk_id TEXT NOT NULL,
		source TEXT NOT NULL,
		text TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		start_offset INTEGER NOT NULL,
		end_offset INTEGER NOT NULL,
		vector BLOB NOT NULL,
		PRIMARY KEY (collection, position)
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := db.Exec(schema)
	return err
}

// replaceCollection swaps the collection's rows in one transaction. Readers
// see the previous records until commit.
func replaceCollection(ctx context.Context, db *sql.DB, info CollectionInfo, records []record) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM records WHERE collection = ?`, info.Name); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO collections (name, dimensions, metric, model, created_at) VALUES (?, ?, ?, ?, ?)`,
		info.Name, info.Dimensions, info.Metric, info.Model, info.CreatedAt.UnixMilli()); err != nil {
		return fmt.Errorf("failed to save collection: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records
		(collection, position, chunk_id, source, text, chunk_index, start_offset, end_offset, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for pos, r := range records {
		c := r.chunk
		if _, err = stmt.ExecContext(ctx, info.Name, pos, c.ID, c.Source, c.Text, c.Index, c.Start, c.End,
			encodeVector(r.vector)); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", pos, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit collection: %w", err)
	}
	return nil
}

// readCollectionInfo returns the collection row and its record count.
// A missing collection returns sql.ErrNoRows.
func readCollectionInfo(ctx context.Context, db *sql.DB, name string) (CollectionInfo, error) {
	info := CollectionInfo{Name: name}
	var created int64
	err := db.QueryRowContext(ctx,
		`SELECT dimensions, metric, model, created_at FROM collections WHERE name = ?`, name).
		Scan(&info.Dimensions, &info.Metric, &info.Model, &created)
	if err != nil {
		return info, err
	}
	info.CreatedAt = time.UnixMilli(created)

	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE collection = ?`, name).Scan(&info.Count); err != nil {
		return info, fmt.Errorf("failed to count records: %w", err)
	}
	return info, nil
}

// readRecords loads every record of the collection in position order.
func readRecords(ctx context.Context, db *sql.DB, name string, dims int) ([]record, error) {
	rows, err := db.QueryContext(ctx, `SELECT chunk_id, source, text, chunk_index, start_offset, end_offset, vector
		FROM records WHERE collection = ? ORDER BY position`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []record
	for rows.Next() {
		var r record
		var blob []byte
		if err := rows.Scan(&r.chunk.ID, &r.chunk.Source, &r.chunk.Text, &r.chunk.Index,
			&r.chunk.Start, &r.chunk.End, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.vector, err = decodeVector(blob)
		if err != nil {
			return nil, err
		}
		if len(r.vector) != dims {
			return nil, fmt.Errorf("record %s has %d dimensions, collection has %d", r.chunk.ID, len(r.vector), dims)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// encodeVector packs float32 values little-endian.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}

// databasePath returns the database location inside dir.
func databasePath(dir string) string {
	return filepath.Join(dir, DatabaseName)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
