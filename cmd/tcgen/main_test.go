package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"terraincontrol.ai/internal/gen/material"
	"terraincontrol.ai/internal/persistence/chunklog"
	"terraincontrol.ai/internal/persistence/snapshot"
)

const testWorld = `name: isle
seed: 4242
height: 64
sea_level: 24
objects_dir: objects
resources:
  - Ore(COAL_ORE,16,20,100,0,64,STONE)
  - CustomObject()
  - Tree(2,Tree,100)
`

const marker = `[META]
rarity=0
dig=true
[DATA]
0,0,0:GLOWSTONE
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "objects"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "objects", "Marker.bo2"), []byte(marker), 0o644); err != nil {
		t.Fatalf("write object: %v", err)
	}
	p := filepath.Join(dir, "world.yaml")
	if err := os.WriteFile(p, []byte(testWorld), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestRun_WritesSnapshotAndIndex(t *testing.T) {
	out := t.TempDir()
	opts := options{
		Config:  writeConfig(t),
		Region:  "0,0,1,1",
		Out:     filepath.Join(out, "isle.snap.zst"),
		DB:      filepath.Join(out, "index.sqlite"),
		LogDir:  filepath.Join(out, "logs"),
		Workers: 1,
		Spawn:   "marker@8,2,8",
		Save:    filepath.Join(out, "saved.yaml"),
		Strict:  true,
	}
	if err := run(context.Background(), opts, zap.NewNop()); err != nil {
		t.Fatalf("run: %v", err)
	}

	snap, err := snapshot.ReadSnapshot(opts.Out)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if snap.Header.WorldID != "isle" || snap.Header.Seed != 4242 || snap.Height != 64 {
		t.Fatalf("unexpected header %+v", snap.Header)
	}
	if len(snap.Resources) != 3 || snap.Resources[1] != "CustomObject(UseWorld)" {
		t.Fatalf("unexpected resource lines %v", snap.Resources)
	}
	if len(snap.Chunks) < 4 {
		t.Fatalf("expected at least the four region chunks, got %d", len(snap.Chunks))
	}
	store, err := snap.Restore(nil, nil)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if id := store.BlockID(8, 2, 8); id != 89 {
		t.Fatalf("spawned marker missing, got block %d", id)
	}

	db, err := sql.Open("sqlite", opts.DB)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	var runID, snapPath string
	var chunks int
	if err := db.QueryRow(`SELECT run_id, chunks, snapshot_path FROM runs`).Scan(&runID, &chunks, &snapPath); err != nil {
		t.Fatalf("query run: %v", err)
	}
	if runID != snap.Header.RunID || chunks != 4 || snapPath != opts.Out {
		t.Fatalf("unexpected run row %s %d %s", runID, chunks, snapPath)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM chunks WHERE run_id=?`, runID).Scan(&n); err != nil {
		t.Fatalf("query chunks: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 chunk rows, got %d", n)
	}

	entries, err := chunklog.ReadAll(chunklog.Path(opts.LogDir, "isle", runID))
	if err != nil {
		t.Fatalf("chunk log: %v", err)
	}
	if len(entries) != 4 || entries[0].RunID != runID {
		t.Fatalf("unexpected chunk log %+v", entries)
	}

	if _, err := os.Stat(opts.Save); err != nil {
		t.Fatalf("saved config missing: %v", err)
	}
}

func TestRun_Reproducible(t *testing.T) {
	cfg := writeConfig(t)
	digests := make([]string, 2)
	for i := range digests {
		out := filepath.Join(t.TempDir(), "w.snap.zst")
		if err := run(context.Background(), options{Config: cfg, Region: "-1,-1,0,0", Out: out, Workers: 1}, zap.NewNop()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		snap, err := snapshot.ReadSnapshot(out)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		for _, c := range snap.Chunks {
			digests[i] += c.Blocks
		}
	}
	if digests[0] != digests[1] {
		t.Fatalf("two runs with the same seed produced different chunks")
	}
}

func TestRun_RejectsBadInput(t *testing.T) {
	cfg := writeConfig(t)
	cases := []options{
		{Config: cfg, Region: "1,2"},
		{Config: cfg, Region: "0,0,0,0", Spawn: "marker"},
		{Config: cfg, Region: "0,0,0,0", Spawn: "nothing@1,2,3"},
		{Config: filepath.Join(t.TempDir(), "missing.yaml"), Region: "0,0,0,0"},
	}
	for _, o := range cases {
		if err := run(context.Background(), o, zap.NewNop()); err == nil {
			t.Fatalf("expected error for %+v", o)
		}
	}
}

func TestRun_CustomBlockCatalog(t *testing.T) {
	dir := t.TempDir()
	defs := []material.Def{{ID: 200, Name: "LANTERN", Solid: true}}
	for _, d := range material.Default().Defs {
		defs = append(defs, d)
	}
	raw, err := json.Marshal(defs)
	if err != nil {
		t.Fatalf("marshal catalog: %v", err)
	}
	catalog := filepath.Join(dir, "blocks.json")
	if err := os.WriteFile(catalog, raw, 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	cfg := filepath.Join(dir, "world.yaml")
	world := "name: lit\nseed: 9\nheight: 64\nsea_level: 24\nresources:\n  - Ore(LANTERN,8,4,100,0,40,STONE)\n"
	if err := os.WriteFile(cfg, []byte(world), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := run(context.Background(), options{Config: cfg, Region: "0,0,0,0", Strict: true}, zap.NewNop()); err == nil {
		t.Fatalf("LANTERN should be unknown to the built-in catalog")
	}

	out := filepath.Join(dir, "lit.snap.zst")
	saved := filepath.Join(dir, "saved.yaml")
	opts := options{Config: cfg, Materials: catalog, Region: "0,0,0,0", Out: out, Save: saved, Strict: true}
	if err := run(context.Background(), opts, zap.NewNop()); err != nil {
		t.Fatalf("run with catalog: %v", err)
	}
	b, err := os.ReadFile(saved)
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	if !strings.Contains(string(b), "Ore(LANTERN,8,4,100,0,40,STONE)") {
		t.Fatalf("saved config lost the catalog name:\n%s", b)
	}
	snap, err := snapshot.ReadSnapshot(out)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if len(snap.Resources) != 1 || snap.Resources[0] != "Ore(LANTERN,8,4,100,0,40,STONE)" {
		t.Fatalf("unexpected resource lines %v", snap.Resources)
	}

	if err := run(context.Background(), options{Config: cfg, Materials: filepath.Join(dir, "missing.json"), Region: "0,0,0,0"}, zap.NewNop()); err == nil {
		t.Fatalf("expected an error for a missing catalog")
	}
}
