package testutil

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// Blob is one row inserted into a fixture store.db blobs table. Insertion
// order determines rowid order.
type Blob struct {
	ID   string
	Data []byte
}

// CreateStoreDB creates a store.db fixture with the cursor-agent schema
// (blobs + meta tables) and the given blob rows, returning its path.
func CreateStoreDB(t *testing.T, dir string, blobs ...Blob) string {
	t.Helper()
	dbPath := filepath.Join(dir, "store.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open fixture database: %v", err)
	}
	defer func() { _ = db.Close() }()

	createSQL := `
	CREATE TABLE IF NOT EXISTS blobs (
		id TEXT PRIMARY KEY,
		data BLOB
	);
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT
	);`
	if _, err := db.Exec(createSQL); err != nil {
		t.Fatalf("Failed to create fixture schema: %v", err)
	}

	for _, blob := range blobs {
		if _, err := db.Exec("INSERT INTO blobs (id, data) VALUES (?, ?)", blob.ID, blob.Data); err != nil {
			t.Fatalf("Failed to insert blob %s: %v", blob.ID, err)
		}
	}
	return dbPath
}

// AppendBlob inserts one more blob row into an existing fixture.
func AppendBlob(t *testing.T, dbPath string, blob Blob) {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open fixture database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec("INSERT INTO blobs (id, data) VALUES (?, ?)", blob.ID, blob.Data); err != nil {
		t.Fatalf("Failed to append blob %s: %v", blob.ID, err)
	}
}

// SetMetaRows replaces the meta table contents with the given key/value
// pairs.
func SetMetaRows(t *testing.T, dbPath string, rows map[string]string) {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open fixture database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec("DELETE FROM meta"); err != nil {
		t.Fatalf("Failed to clear meta table: %v", err)
	}
	for k, v := range rows {
		if _, err := db.Exec("INSERT INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			t.Fatalf("Failed to insert meta row %s: %v", k, err)
		}
	}
}

// SetHexMeta stores the given object as the single hex-encoded-JSON meta row
// (the legacy cursor-agent encoding).
func SetHexMeta(t *testing.T, dbPath string, obj map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("Failed to marshal meta object: %v", err)
	}
	SetMetaRows(t, dbPath, map[string]string{"0": hex.EncodeToString(raw)})
}

// MessageJSON serializes a message object the way cursor-agent embeds them
// in blobs: id, role and a content parts list.
func MessageJSON(t *testing.T, id, role, text string) []byte {
	t.Helper()
	obj := map[string]interface{}{
		"id":   id,
		"role": role,
		"content": []map[string]interface{}{
			{"type": "text", "text": text},
		},
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("Failed to marshal message: %v", err)
	}
	return raw
}

// FramedBlob wraps payloads in binary framing noise the way cursor-agent
// root blobs interleave length prefixes and unrelated bytes.
func FramedBlob(payloads ...[]byte) []byte {
	var out []byte
	for i, p := range payloads {
		out = append(out, 0x0a, byte(i), 0x00, 0xff)
		out = append(out, p...)
	}
	out = append(out, 0x00, 0x01)
	return out
}
