package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"terraincontrol.ai/internal/gen/engine"
	"terraincontrol.ai/internal/gen/material"
	"terraincontrol.ai/internal/gen/populate"
	"terraincontrol.ai/internal/gen/rng"
	"terraincontrol.ai/internal/gen/terrain"
	"terraincontrol.ai/internal/gen/worldconfig"
	"terraincontrol.ai/internal/persistence/chunklog"
	"terraincontrol.ai/internal/persistence/indexdb"
	"terraincontrol.ai/internal/persistence/snapshot"
	"terraincontrol.ai/internal/transport/ws"
)

type options struct {
	Config    string
	Materials string
	Region    string
	Out       string
	DB        string
	LogDir    string
	Listen    string
	Limit     int
	Workers   int
	Spawn     string
	Save      string
	Strict    bool
}

func main() {
	var (
		opts options
		dev  bool
	)
	flag.StringVar(&opts.Config, "config", "", "path to world.yaml (empty for defaults)")
	flag.StringVar(&opts.Materials, "materials", "", "block catalog JSON replacing the built-in one")
	flag.StringVar(&opts.Region, "region", "-2,-2,1,1", "chunks to populate: minCX,minCZ,maxCX,maxCZ")
	flag.StringVar(&opts.Out, "out", "", "write a snapshot of the populated chunks to this path")
	flag.StringVar(&opts.DB, "db", "", "record the run in this sqlite index")
	flag.StringVar(&opts.LogDir, "chunklog", "", "append per-chunk records to a compressed JSONL file in this directory")
	flag.StringVar(&opts.Listen, "listen", "", "serve on-demand population over websocket at this address")
	flag.IntVar(&opts.Limit, "limit", 1024, "largest |cx| or |cz| served over websocket")
	flag.IntVar(&opts.Workers, "workers", 1, "populate workers (more than one trades reproducibility for speed)")
	flag.StringVar(&opts.Spawn, "spawn", "", "place one object before populating: name@x,y,z")
	flag.StringVar(&opts.Save, "save", "", "write the compiled config with canonical resource lines")
	flag.BoolVar(&opts.Strict, "strict", false, "fail if any resource line is invalid")
	flag.BoolVar(&dev, "dev", false, "human-readable debug logging")
	flag.Parse()

	logger, err := newLogger(dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signalContext()
	defer cancel()

	if err := run(ctx, opts, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("tcgen", zap.Error(err))
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, opts options, logger *zap.Logger) error {
	cfg, err := worldconfig.Load(opts.Config)
	if err != nil {
		return err
	}
	region, err := populate.ParseRegion(opts.Region)
	if err != nil {
		return err
	}

	var mats *material.Table
	if opts.Materials != "" {
		mats, err = material.LoadTable(opts.Materials)
		if err != nil {
			return fmt.Errorf("load materials: %w", err)
		}
		logger.Info("block catalog loaded", zap.String("path", opts.Materials), zap.String("digest", mats.Digest))
	}

	eng := engine.New(engine.WithLogger(logger), engine.WithMaterials(mats))
	if err := eng.Start(); err != nil {
		return err
	}
	defer eng.Stop()

	settings, err := worldconfig.Compile(cfg, eng)
	if err != nil {
		if opts.Strict {
			return err
		}
		logger.Warn("some resources were skipped", zap.Error(err))
	}
	log := logger.With(zap.String("world", settings.Name()))
	log.Info("world compiled",
		zap.Int64("seed", cfg.Seed),
		zap.Int("resources", len(settings.Resources)),
		zap.Strings("object_dirs", settings.ObjectDirs()))

	if opts.Save != "" {
		if err := settings.Save(opts.Save); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
	}

	store := terrain.NewChunkStore(terrain.NewHeightGen(cfg.Seed, cfg.SeaLevel, eng.Materials()), eng.Materials(), cfg.Height)
	pop := &populate.Populator{Seed: cfg.Seed, Resources: settings.Resources, Logger: log.Named("populate")}

	if opts.Spawn != "" {
		if err := spawnOne(settings, store, cfg.Seed, opts.Spawn); err != nil {
			return err
		}
	}

	var idx *indexdb.SQLiteIndex
	if opts.DB != "" {
		idx, err = indexdb.OpenSQLite(opts.DB)
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer func() {
			if err := idx.Close(); err != nil {
				log.Warn("close index", zap.Error(err))
			}
		}()
	}

	gen := &populate.OnDemand{Populator: pop, Store: store, Limit: opts.Limit}
	row := indexdb.RunRow{
		RunID:     uuid.NewString(),
		World:     settings.Name(),
		Seed:      cfg.Seed,
		Height:    cfg.Height,
		Region:    [4]int{region.MinCX, region.MinCZ, region.MaxCX, region.MaxCZ},
		Workers:   opts.Workers,
		Resources: settings.ResourceLines(),
	}
	if idx != nil {
		if _, err := idx.BeginRun(row); err != nil {
			return err
		}
	}
	var clog *chunklog.Writer
	if opts.LogDir != "" {
		clog, err = chunklog.Create(chunklog.Path(opts.LogDir, settings.Name(), row.RunID))
		if err != nil {
			return fmt.Errorf("chunk log: %w", err)
		}
		defer func() {
			if err := clog.Close(); err != nil {
				log.Warn("close chunk log", zap.Error(err))
			}
		}()
	}

	record := func(st populate.ChunkStats) {
		gen.Mark(st)
		row.Chunks++
		row.Writes += st.Writes
		if idx == nil && clog == nil {
			return
		}
		d := store.ChunkDigest(st.CX, st.CZ)
		digest := hex.EncodeToString(d[:])
		if idx != nil {
			idx.RecordChunk(indexdb.ChunkRow{
				RunID:       row.RunID,
				CX:          st.CX,
				CZ:          st.CZ,
				Digest:      digest,
				Writes:      st.Writes,
				PerResource: st.PerResource,
				Duration:    st.Duration,
			})
		}
		if clog != nil {
			err := clog.Write(chunklog.Entry{
				RunID:       row.RunID,
				CX:          st.CX,
				CZ:          st.CZ,
				Digest:      digest,
				Writes:      st.Writes,
				PerResource: st.PerResource,
				DurationUS:  st.Duration.Microseconds(),
			})
			if err != nil {
				log.Warn("chunk log write", zap.Error(err))
			}
		}
	}

	start := time.Now()
	if err := pop.PopulateRegion(ctx, store, region, opts.Workers, record); err != nil {
		return err
	}
	log.Info("region populated",
		zap.Int("chunks", row.Chunks),
		zap.Int("writes", row.Writes),
		zap.Duration("took", time.Since(start)))

	if opts.Out != "" {
		snap := snapshot.Capture(snapshot.Header{WorldID: settings.Name(), Seed: cfg.Seed, RunID: row.RunID}, settings.ResourceLines(), store)
		if err := snapshot.WriteSnapshot(opts.Out, snap); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		row.Snapshot = opts.Out
		log.Info("snapshot written", zap.String("path", opts.Out), zap.Int("chunks", len(snap.Chunks)))
	}
	if idx != nil {
		if err := idx.FinishRun(row); err != nil {
			return err
		}
	}

	if opts.Listen == "" {
		return nil
	}
	return serve(ctx, opts.Listen, ws.NewServer(settings.Name(), gen, log.Named("ws")), log)
}

func serve(ctx context.Context, addr string, s *ws.Server, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx2)
	}()
	log.Info("listening", zap.String("addr", addr), zap.String("path", ws.Path))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// spawnOne parses name@x,y,z and places that object.
func spawnOne(s *worldconfig.Settings, w terrain.World, seed int64, arg string) error {
	name, pos, ok := strings.Cut(arg, "@")
	if !ok {
		return fmt.Errorf("spawn %q: want name@x,y,z", arg)
	}
	parts := strings.Split(pos, ",")
	if len(parts) != 3 {
		return fmt.Errorf("spawn %q: want name@x,y,z", arg)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("spawn %q: %w", arg, err)
		}
		v[i] = n
	}
	placed, err := s.SpawnObject(w, rng.NewJava(seed), strings.TrimSpace(name), v[0], v[1], v[2])
	if err != nil {
		return err
	}
	if !placed {
		return fmt.Errorf("spawn %q: object could not be placed there", arg)
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(ch)
	}()
	return ctx, cancel
}
