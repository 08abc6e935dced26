package indexdb

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteIndex_RunAndChunksPersist(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index", "runs.sqlite")
	idx, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	runID, err := idx.BeginRun(RunRow{
		World:     "lakes",
		Seed:      42,
		Height:    128,
		Region:    [4]int{-1, -1, 0, 0},
		Workers:   1,
		Resources: []string{"Ore(COAL_ORE,16,20,100,0,128,STONE)"},
	})
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if len(runID) != 36 {
		t.Fatalf("expected a uuid run id, got %q", runID)
	}
	for cx := -1; cx <= 0; cx++ {
		for cz := -1; cz <= 0; cz++ {
			idx.RecordChunk(ChunkRow{RunID: runID, CX: cx, CZ: cz, Digest: "d", Writes: 3, PerResource: []int{3}, Duration: time.Millisecond})
		}
	}
	if err := idx.FinishRun(RunRow{RunID: runID, Chunks: 4, Writes: 12, Snapshot: "lakes.snap.zst"}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := idx.BeginRun(RunRow{World: "late"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("BeginRun after Close should fail, got %v", err)
	}
	idx.RecordChunk(ChunkRow{RunID: runID})

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	var (
		world    string
		seed     int64
		chunks   int
		writes   int
		snapPath string
		finished sql.NullString
	)
	if err := db.QueryRow(`SELECT world, seed, chunks, writes, snapshot_path, finished_at FROM runs WHERE run_id=?`, runID).
		Scan(&world, &seed, &chunks, &writes, &snapPath, &finished); err != nil {
		t.Fatalf("query run: %v", err)
	}
	if world != "lakes" || seed != 42 || chunks != 4 || writes != 12 || snapPath != "lakes.snap.zst" || !finished.Valid {
		t.Fatalf("unexpected run row %s %d %d %d %s %v", world, seed, chunks, writes, snapPath, finished)
	}

	var n, total int
	if err := db.QueryRow(`SELECT COUNT(*), SUM(writes) FROM chunks WHERE run_id=?`, runID).Scan(&n, &total); err != nil {
		t.Fatalf("query chunks: %v", err)
	}
	if n != 4 || total != 12 {
		t.Fatalf("got %d chunks with %d writes", n, total)
	}
	var per string
	if err := db.QueryRow(`SELECT per_resource_json FROM chunks WHERE run_id=? AND cx=-1 AND cz=0`, runID).Scan(&per); err != nil {
		t.Fatalf("query chunk: %v", err)
	}
	if per != "[3]" {
		t.Fatalf("unexpected per-resource json %s", per)
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.RecordChunk(ChunkRow{CX: 1})
	s.RecordChunk(ChunkRow{CX: 2})
	s.RecordChunk(ChunkRow{CX: 3})

	st := s.Stats()
	if st.DropChunkTotal != 2 {
		t.Fatalf("DropChunkTotal=%d want=2", st.DropChunkTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
