package chunklog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriter_WriteReadAll(t *testing.T) {
	p := Path(filepath.Join(t.TempDir(), "runs"), "chunks", "r-1")
	if filepath.Base(p) != "chunks-r-1.jsonl.zst" {
		t.Fatalf("unexpected path %s", p)
	}
	w, err := Create(p)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := w.Write(Entry{RunID: "r-1", CX: i, CZ: -i, Digest: "ab", Writes: i * 2, PerResource: []int{i, i}}); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if w.Count() != 3 {
		t.Fatalf("Count=%d want 3", w.Count())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Write(Entry{}); err != os.ErrClosed {
		t.Fatalf("write after close: %v", err)
	}

	got, err := ReadAll(p)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 3 || got[2].CX != 2 || got[2].CZ != -2 || got[2].Writes != 4 || len(got[1].PerResource) != 2 {
		t.Fatalf("unexpected entries %+v", got)
	}
}
