package internal

import (
	"bytes"
	"testing"

	"github.com/iksnae/agent-peek/testutil"
)

func threeBlobStore(t *testing.T) string {
	t.Helper()
	dir := testutil.CreateTempDir(t)
	return testutil.CreateStoreDB(t, dir,
		testutil.Blob{ID: "first", Data: []byte("aaaa")},
		testutil.Blob{ID: "second", Data: []byte("bb")},
		testutil.Blob{ID: "third", Data: []byte("cccccc")},
	)
}

func TestFetchFingerprint(t *testing.T) {
	dbPath := threeBlobStore(t)
	r := NewStoreReader(dbPath)

	fp, err := r.FetchFingerprint()
	if err != nil {
		t.Fatalf("FetchFingerprint: %v", err)
	}
	want := Fingerprint{MaxSeq: 3, TotalBytes: 12}
	if fp != want {
		t.Errorf("fingerprint = %+v, want %+v", fp, want)
	}

	testutil.AppendBlob(t, dbPath, testutil.Blob{ID: "fourth", Data: []byte("d")})
	fp2, err := r.FetchFingerprint()
	if err != nil {
		t.Fatalf("FetchFingerprint after append: %v", err)
	}
	if fp2 == fp {
		t.Error("fingerprint unchanged after append")
	}
	if fp2.MaxSeq != 4 || fp2.TotalBytes != 13 {
		t.Errorf("fingerprint after append = %+v, want {4 13}", fp2)
	}
}

func TestFetchFingerprint_EmptyStore(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	dbPath := testutil.CreateStoreDB(t, dir)

	fp, err := NewStoreReader(dbPath).FetchFingerprint()
	if err != nil {
		t.Fatalf("FetchFingerprint: %v", err)
	}
	if fp != (Fingerprint{}) {
		t.Errorf("fingerprint = %+v, want zero value", fp)
	}
}

func streamAll(t *testing.T, r *StoreReader, limit int) []BlobRow {
	t.Helper()
	var out []BlobRow
	if err := r.StreamRowsAscending(limit, func(br BlobRow) bool {
		out = append(out, br)
		return true
	}); err != nil {
		t.Fatalf("StreamRowsAscending: %v", err)
	}
	return out
}

func TestStreamRowsAscending(t *testing.T) {
	r := NewStoreReader(threeBlobStore(t))

	asc := streamAll(t, r, NoLimit)
	if len(asc) != 3 {
		t.Fatalf("ascending stream visited %d rows, want 3", len(asc))
	}
	if !bytes.Equal(asc[0].Data, []byte("aaaa")) || !bytes.Equal(asc[2].Data, []byte("cccccc")) {
		t.Errorf("ascending order wrong: %q .. %q", asc[0].Data, asc[2].Data)
	}
	if asc[0].Seq >= asc[1].Seq || asc[1].Seq >= asc[2].Seq {
		t.Errorf("ascending seqs not increasing: %d %d %d", asc[0].Seq, asc[1].Seq, asc[2].Seq)
	}

	one := streamAll(t, r, 1)
	if len(one) != 1 || !bytes.Equal(one[0].Data, []byte("aaaa")) {
		t.Errorf("ascending limit 1 = %v", one)
	}
}

func TestStreamRowsAscending_StopEndsReads(t *testing.T) {
	r := NewStoreReader(threeBlobStore(t))

	before := BlobRowsReadTotal()
	visited := 0
	err := r.StreamRowsAscending(NoLimit, func(BlobRow) bool {
		visited++
		return false
	})
	if err != nil {
		t.Fatalf("StreamRowsAscending: %v", err)
	}
	if visited != 1 {
		t.Errorf("callback ran %d times after returning false, want 1", visited)
	}
	if read := BlobRowsReadTotal() - before; read != 1 {
		t.Errorf("stream read %d rows, want 1 (stop must end the read)", read)
	}
}

func TestFetchRowsDescending(t *testing.T) {
	r := NewStoreReader(threeBlobStore(t))

	desc, err := r.FetchRowsDescending(2)
	if err != nil {
		t.Fatalf("FetchRowsDescending: %v", err)
	}
	if len(desc) != 2 {
		t.Fatalf("descending limit 2 returned %d rows", len(desc))
	}
	if !bytes.Equal(desc[0].Data, []byte("cccccc")) || !bytes.Equal(desc[1].Data, []byte("bb")) {
		t.Errorf("descending order wrong: %q, %q", desc[0].Data, desc[1].Data)
	}

	all, err := r.FetchRowsDescending(NoLimit)
	if err != nil {
		t.Fatalf("FetchRowsDescending(NoLimit): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("descending unbounded returned %d rows, want 3", len(all))
	}
}

func TestFetchBlobByID(t *testing.T) {
	r := NewStoreReader(threeBlobStore(t))

	data, err := r.FetchBlobByID("second")
	if err != nil {
		t.Fatalf("FetchBlobByID: %v", err)
	}
	if !bytes.Equal(data, []byte("bb")) {
		t.Errorf("blob data = %q, want bb", data)
	}

	data, err = r.FetchBlobByID("missing")
	if err != nil {
		t.Fatalf("FetchBlobByID(missing): %v", err)
	}
	if data != nil {
		t.Errorf("missing blob returned %q, want nil", data)
	}
}

func TestCountBlobs(t *testing.T) {
	r := NewStoreReader(threeBlobStore(t))
	n, err := r.CountBlobs()
	if err != nil {
		t.Fatalf("CountBlobs: %v", err)
	}
	if n != 3 {
		t.Errorf("CountBlobs = %d, want 3", n)
	}
}

func TestFetchMetaRows(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	dbPath := testutil.CreateStoreDB(t, dir)
	testutil.SetMetaRows(t, dbPath, map[string]string{"agentId": "a1", "name": "n1"})

	rows, err := NewStoreReader(dbPath).FetchMetaRows()
	if err != nil {
		t.Fatalf("FetchMetaRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("FetchMetaRows returned %d rows, want 2", len(rows))
	}
	got := make(map[string]string, len(rows))
	for _, row := range rows {
		got[row.Key] = row.Value
	}
	if got["agentId"] != "a1" || got["name"] != "n1" {
		t.Errorf("meta rows = %v", got)
	}
}

func TestStoreReader_MissingFile(t *testing.T) {
	r := NewStoreReader("/nonexistent/dir/store.db")

	if _, err := r.FetchFingerprint(); err == nil {
		t.Error("FetchFingerprint on missing file succeeded")
	}
	if err := r.StreamRowsAscending(NoLimit, func(BlobRow) bool { return true }); err == nil {
		t.Error("StreamRowsAscending on missing file succeeded")
	}
	if _, err := r.FetchRowsDescending(NoLimit); err == nil {
		t.Error("FetchRowsDescending on missing file succeeded")
	}
	if _, err := r.FetchMetaRows(); err == nil {
		t.Error("FetchMetaRows on missing file succeeded")
	}
}

func TestStoreReader_Path(t *testing.T) {
	if got := NewStoreReader("/tmp/x/store.db").Path(); got != "/tmp/x/store.db" {
		t.Errorf("Path = %q", got)
	}
}
