package internal

import (
	"database/sql"
	"fmt"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

// blobRowsReadTotal counts blob rows whose payload has been read from any
// store in this process. Surfaced by `agent-peek inspect` alongside the parse
// attempt count.
var blobRowsReadTotal atomic.Int64

// BlobRowsReadTotal returns the process-wide count of blob rows read.
func BlobRowsReadTotal() int64 {
	return blobRowsReadTotal.Load()
}

// BlobRow is one row of the blobs table. Seq is the sqlite rowid, which is
// the only meaningful (chronological) order for blobs.
type BlobRow struct {
	Seq  int64
	Data []byte
}

// MetaRow is one key/value row of the meta table.
type MetaRow struct {
	Key   string
	Value string
}

// Fingerprint is a cheap content stamp over the blobs table. Any append and
// most in-place edits change at least one field, so a matching fingerprint
// validates a cache entry without re-reading blob payloads.
type Fingerprint struct {
	MaxSeq     int64
	TotalBytes int64
}

// StoreReader reads a single cursor-agent store.db file. Every method opens
// its own short-lived read-only connection; the store is written by
// cursor-agent itself and may be transiently locked, so opens use a short
// busy timeout and callers treat failures as "no data".
type StoreReader struct {
	dbPath string
}

// NewStoreReader creates a StoreReader for the given store.db path
func NewStoreReader(dbPath string) *StoreReader {
	return &StoreReader{dbPath: dbPath}
}

// Path returns the store.db path, used as the store identity in cache keys.
func (r *StoreReader) Path() string {
	return r.dbPath
}

// open opens the database read-only and validates the connection with a
// query against sqlite_master. Some sqlite builds accept mode=ro but fail on
// the first statement (read-only sandboxes that cannot create -wal/-shm
// files), so a second attempt adds immutable=1.
func (r *StoreReader) open() (*sql.DB, error) {
	candidates := []string{
		"file:" + r.dbPath + "?mode=ro&_pragma=busy_timeout(200)",
		"file:" + r.dbPath + "?mode=ro&immutable=1&_pragma=busy_timeout(200)",
	}

	var lastErr error
	for _, dsn := range candidates {
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			lastErr = err
			continue
		}
		rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' LIMIT 1")
		if err != nil {
			lastErr = err
			_ = db.Close()
			continue
		}
		_ = rows.Close()
		return db, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("unable to open database file")
	}
	return nil, fmt.Errorf("failed to open store read-only: %w", lastErr)
}

// FetchFingerprint computes the store fingerprint with a single aggregate
// query; blob payloads are never read.
func (r *StoreReader) FetchFingerprint() (Fingerprint, error) {
	db, err := r.open()
	if err != nil {
		return Fingerprint{}, err
	}
	defer db.Close()

	var fp Fingerprint
	row := db.QueryRow("SELECT COALESCE(MAX(rowid), 0), COALESCE(SUM(LENGTH(data)), 0) FROM blobs")
	if err := row.Scan(&fp.MaxSeq, &fp.TotalBytes); err != nil {
		return Fingerprint{}, fmt.Errorf("fingerprint query failed: %w", err)
	}
	return fp, nil
}

// StreamRowsAscending visits blob rows in ascending rowid order until fn
// returns false or limit rows have been visited. Rows past the stop are never
// pulled from the store, which keeps from-start extraction cheap even against
// a very large store.
func (r *StoreReader) StreamRowsAscending(limit int, fn func(BlobRow) bool) error {
	db, err := r.open()
	if err != nil {
		return err
	}
	defer db.Close()

	query := "SELECT rowid, data FROM blobs ORDER BY rowid ASC"
	var rows *sql.Rows
	if limit == NoLimit {
		rows, err = db.Query(query)
	} else {
		rows, err = db.Query(query+" LIMIT ?", limit)
	}
	if err != nil {
		return fmt.Errorf("blobs query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var br BlobRow
		if err := rows.Scan(&br.Seq, &br.Data); err != nil {
			LogWarn("Failed to scan blob row: %v", err)
			continue
		}
		blobRowsReadTotal.Add(1)
		if !fn(br) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows iteration error: %w", err)
	}
	return nil
}

// FetchRowsDescending returns blob rows in descending rowid order. A limit
// of NoLimit returns every row.
func (r *StoreReader) FetchRowsDescending(limit int) ([]BlobRow, error) {
	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := "SELECT rowid, data FROM blobs ORDER BY rowid DESC"
	var rows *sql.Rows
	if limit == NoLimit {
		rows, err = db.Query(query)
	} else {
		rows, err = db.Query(query+" LIMIT ?", limit)
	}
	if err != nil {
		return nil, fmt.Errorf("blobs query failed: %w", err)
	}
	defer rows.Close()

	var out []BlobRow
	for rows.Next() {
		var br BlobRow
		if err := rows.Scan(&br.Seq, &br.Data); err != nil {
			LogWarn("Failed to scan blob row: %v", err)
			continue
		}
		blobRowsReadTotal.Add(1)
		out = append(out, br)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	LogDebug("FetchRowsDescending(limit=%d): %d rows from %s", limit, len(out), r.dbPath)
	return out, nil
}

// FetchMetaRows returns all key/value rows of the meta table.
func (r *StoreReader) FetchMetaRows() ([]MetaRow, error) {
	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query("SELECT key, value FROM meta WHERE value IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("meta query failed: %w", err)
	}
	defer rows.Close()

	var out []MetaRow
	for rows.Next() {
		var mr MetaRow
		if err := rows.Scan(&mr.Key, &mr.Value); err != nil {
			LogWarn("Failed to scan meta row: %v", err)
			continue
		}
		out = append(out, mr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}

// FetchBlobByID returns the payload of a single blob, or nil when the blob
// does not exist.
func (r *StoreReader) FetchBlobByID(id string) ([]byte, error) {
	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var data []byte
	row := db.QueryRow("SELECT data FROM blobs WHERE id = ? LIMIT 1", id)
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("blob lookup failed: %w", err)
	}
	return data, nil
}

// CountBlobs returns the number of rows in the blobs table.
func (r *StoreReader) CountBlobs() (int64, error) {
	db, err := r.open()
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var n int64
	if err := db.QueryRow("SELECT COUNT(*) FROM blobs").Scan(&n); err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	return n, nil
}
