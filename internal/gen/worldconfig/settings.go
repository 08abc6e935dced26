package worldconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"terraincontrol.ai/internal/gen/customobject"
	"terraincontrol.ai/internal/gen/engine"
	"terraincontrol.ai/internal/gen/resource"
	"terraincontrol.ai/internal/gen/rng"
	"terraincontrol.ai/internal/gen/terrain"
)

var ErrObjectNotFound = errors.New("custom object not found")

// Settings is a compiled world configuration. It is the custom object
// context for every resource it owns.
type Settings struct {
	Config    Config
	Resources []resource.Resource

	eng *engine.Engine

	objectsOnce sync.Once
	objects     []customobject.CustomObject
}

// Compile loads every resource line of cfg. Lines are independent: a line
// that fails is reported in the joined error and left out, the others are
// kept. The returned Settings is usable even when the error is non-nil.
func Compile(cfg Config, eng *engine.Engine) (*Settings, error) {
	if !eng.Started() {
		return nil, engine.ErrNotStarted
	}
	s := &Settings{Config: cfg, eng: eng}
	log := eng.Logger().With(zap.String("world", cfg.Name))

	if cfg.Resources == nil {
		for _, d := range DefaultResources(cfg.Height) {
			res, err := eng.CreateResource(s, d.Name, d.Args...)
			if err != nil {
				log.Warn("invalid default resource", zap.String("type", d.Name), zap.Error(err))
				continue
			}
			s.Resources = append(s.Resources, res)
		}
		return s, nil
	}

	s.Resources = make([]resource.Resource, 0, len(cfg.Resources))
	var errs []error
	for i, line := range cfg.Resources {
		res, err := eng.ParseResource(s, line)
		if err != nil {
			err = fmt.Errorf("resources line %d %q: %w", i+1, line, err)
			log.Warn("skipping resource", zap.Error(err))
			errs = append(errs, err)
			continue
		}
		s.Resources = append(s.Resources, res)
	}
	return s, errors.Join(errs...)
}

func (s *Settings) Name() string { return s.Config.Name }

// ObjectDirs lists the world's own object directory before the global one.
func (s *Settings) ObjectDirs() []string {
	var dirs []string
	for _, d := range []string{s.Config.ObjectsDir, s.Config.GlobalObjectsDir} {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// WorldObjects loads the world object directory on first use.
func (s *Settings) WorldObjects() []customobject.CustomObject {
	s.objectsOnce.Do(func() {
		objs := s.eng.Objects()
		if objs == nil || s.Config.ObjectsDir == "" {
			return
		}
		s.objects = objs.ListDir(s.Config.ObjectsDir)
	})
	return s.objects
}

// ResourceLines renders the compiled resources in their canonical form.
func (s *Settings) ResourceLines() []string {
	out := make([]string, len(s.Resources))
	for i, r := range s.Resources {
		out[i] = r.String()
	}
	return out
}

// CountByType groups the compiled resources by their type tag.
func (s *Settings) CountByType() map[resource.Type]int {
	out := map[resource.Type]int{}
	for _, r := range s.Resources {
		out[r.Type()]++
	}
	return out
}

// Save writes the configuration back with the canonical resource lines.
// Object directories are written relative to the saved file, so Load reads
// them back to the same place.
func (s *Settings) Save(path string) error {
	cfg := s.Config
	cfg.Resources = s.ResourceLines()
	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return err
	}
	cfg.ObjectsDir = relativeDir(base, cfg.ObjectsDir)
	cfg.GlobalObjectsDir = relativeDir(base, cfg.GlobalObjectsDir)
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// SpawnObject places a named object at an exact position.
func (s *Settings) SpawnObject(w terrain.World, r rng.Random, name string, x, y, z int) (bool, error) {
	objs := s.eng.Objects()
	if objs == nil {
		return false, engine.ErrNotStarted
	}
	obj := objs.GetObjectFromString(name, s)
	if obj == nil || !obj.CanSpawnAsObject() {
		return false, fmt.Errorf("%w: %s", ErrObjectNotFound, name)
	}
	return obj.Spawn(w, r, x, y, z), nil
}
