// Package indexdb keeps a queryable SQLite record of population runs and the
// chunks each run produced. Snapshots stay the source of truth; the index is
// written asynchronously.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrClosed = errors.New("indexdb: closed")

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once
	// mu orders sends against Close so no send hits a closed channel.
	mu     sync.RWMutex
	closed atomic.Bool

	dropChunk  atomic.Uint64
	execErrors atomic.Uint64
}

type reqKind int

const (
	reqRun reqKind = iota + 1
	reqFinish
	reqChunk
)

type req struct {
	kind  reqKind
	run   RunRow
	chunk ChunkRow
}

// RunRow describes one invocation of the populator over a region.
type RunRow struct {
	RunID     string
	World     string
	Seed      int64
	Height    int
	Region    [4]int
	Workers   int
	Resources []string
	StartedAt time.Time

	// Set by FinishRun.
	FinishedAt time.Time
	Chunks     int
	Writes     int
	Snapshot   string
}

type ChunkRow struct {
	RunID       string
	CX, CZ      int
	Digest      string
	Writes      int
	PerResource []int
	Duration    time.Duration
}

type Stats struct {
	QueueDepth     int
	QueueCapacity  int
	DropChunkTotal uint64
	ExecErrorTotal uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			world TEXT NOT NULL,
			seed INTEGER NOT NULL,
			height INTEGER NOT NULL,
			min_cx INTEGER NOT NULL,
			min_cz INTEGER NOT NULL,
			max_cx INTEGER NOT NULL,
			max_cz INTEGER NOT NULL,
			workers INTEGER NOT NULL,
			resources_json TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			chunks INTEGER NOT NULL DEFAULT 0,
			writes INTEGER NOT NULL DEFAULT 0,
			snapshot_path TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			cx INTEGER NOT NULL,
			cz INTEGER NOT NULL,
			digest TEXT NOT NULL,
			writes INTEGER NOT NULL,
			per_resource_json TEXT NOT NULL,
			duration_us INTEGER NOT NULL,
			PRIMARY KEY (run_id, cx, cz)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_pos ON chunks(cx, cz);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_world ON runs(world, started_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains the queue, commits and closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed.Store(true)
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// BeginRun queues a run row and returns its id. An empty RunID gets a fresh
// UUID. Unlike chunk rows, run rows are never dropped; BeginRun blocks while
// the queue is full.
func (s *SQLiteIndex) BeginRun(r RunRow) (string, error) {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	if err := s.send(req{kind: reqRun, run: r}); err != nil {
		return "", err
	}
	return r.RunID, nil
}

// FinishRun records the totals of a run started with BeginRun.
func (s *SQLiteIndex) FinishRun(r RunRow) error {
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now().UTC()
	}
	return s.send(req{kind: reqFinish, run: r})
}

func (s *SQLiteIndex) send(r req) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		return ErrClosed
	}
	s.ch <- r
	return nil
}

// RecordChunk queues a chunk row. If the writer falls behind the row is
// dropped and counted in Stats.
func (s *SQLiteIndex) RecordChunk(c ChunkRow) {
	if s == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqChunk, chunk: c}:
	default:
		s.dropChunk.Add(1)
	}
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:     len(s.ch),
		QueueCapacity:  cap(s.ch),
		DropChunkTotal: s.dropChunk.Load(),
		ExecErrorTotal: s.execErrors.Load(),
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertRun, _ := s.db.Prepare(`INSERT OR REPLACE INTO runs(run_id,world,seed,height,min_cx,min_cz,max_cx,max_cz,workers,resources_json,started_at) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	finishRun, _ := s.db.Prepare(`UPDATE runs SET finished_at=?, chunks=?, writes=?, snapshot_path=? WHERE run_id=?`)
	insertChunk, _ := s.db.Prepare(`INSERT OR REPLACE INTO chunks(run_id,cx,cz,digest,writes,per_resource_json,duration_us) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertRun, finishRun, insertChunk} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.execErrors.Add(1)
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) {
		if st == nil {
			s.execErrors.Add(1)
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			s.execErrors.Add(1)
			return
		}
		opCount++
	}

	ticker := time.NewTicker(commitMaxWait)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if tx != nil && time.Since(lastCommit) >= commitMaxWait {
				commit()
			}
			continue
		case r, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			begin()
			if tx == nil {
				s.execErrors.Add(1)
				continue
			}
			switch r.kind {
			case reqRun:
				ru := r.run
				res, _ := json.Marshal(ru.Resources)
				exec(insertRun,
					ru.RunID, ru.World, ru.Seed, ru.Height,
					ru.Region[0], ru.Region[1], ru.Region[2], ru.Region[3],
					ru.Workers, string(res),
					ru.StartedAt.UTC().Format(time.RFC3339Nano),
				)
			case reqFinish:
				ru := r.run
				exec(finishRun,
					ru.FinishedAt.UTC().Format(time.RFC3339Nano),
					ru.Chunks, ru.Writes, ru.Snapshot, ru.RunID,
				)
			case reqChunk:
				c := r.chunk
				per, _ := json.Marshal(c.PerResource)
				exec(insertChunk,
					c.RunID, c.CX, c.CZ, c.Digest, c.Writes, string(per),
					c.Duration.Microseconds(),
				)
			}
			if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
				commit()
			}
		}
	}
}
