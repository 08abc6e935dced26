// Package snapshot saves populated chunks to disk. A file is a zstd stream
// holding one JSON header line followed by the gob-encoded snapshot.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"terraincontrol.ai/internal/encoding"
	"terraincontrol.ai/internal/gen/material"
	"terraincontrol.ai/internal/gen/terrain"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Seed    int64  `json:"seed"`
	RunID   string `json:"run_id,omitempty"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Height int `json:"height"`
	// Resources are the canonical resource lines the chunks were populated
	// with, in order.
	Resources []string  `json:"resources"`
	Chunks    []ChunkV1 `json:"chunks"`
}

type ChunkV1 struct {
	CX     int    `json:"cx"`
	CZ     int    `json:"cz"`
	Blocks string `json:"blocks"` // encoding.EncodeRLE of packed id<<4|data
}

// Capture copies every loaded chunk of s.
func Capture(h Header, resources []string, s *terrain.ChunkStore) SnapshotV1 {
	h.Version = Version
	snap := SnapshotV1{Header: h, Height: s.Height(), Resources: resources}
	for _, k := range s.LoadedChunkKeys() {
		snap.Chunks = append(snap.Chunks, ChunkV1{
			CX:     k.CX,
			CZ:     k.CZ,
			Blocks: encoding.EncodeRLE(s.ChunkBlocks(k.CX, k.CZ)),
		})
	}
	return snap
}

// Restore rebuilds a store holding the snapshot's chunks. gen fills chunks
// the snapshot does not contain.
func (snap SnapshotV1) Restore(gen terrain.BaseGen, mats *material.Table) (*terrain.ChunkStore, error) {
	if snap.Header.Version != Version {
		return nil, fmt.Errorf("snapshot version %d not supported", snap.Header.Version)
	}
	s := terrain.NewChunkStore(gen, mats, snap.Height)
	want := 16 * 16 * s.Height()
	for _, c := range snap.Chunks {
		blocks, err := encoding.DecodeRLE(c.Blocks, want)
		if err != nil {
			return nil, fmt.Errorf("chunk %d,%d: %w", c.CX, c.CZ, err)
		}
		if err := s.PutChunk(c.CX, c.CZ, blocks); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func WriteSnapshot(path string, snap SnapshotV1) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadHeader decodes only the leading header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	return h, nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The gob body repeats the header.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
