package customobject

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrNoLoader = errors.New("no custom object loader")
	ErrNotFound = errors.New("custom object not found")
)

// cacheKey scopes a resolved token to the world name and its search path,
// so two worlds sharing a name but not directories never share objects.
type cacheKey struct {
	ctx   string
	dirs  string
	token string
}

// Manager maps object tokens to objects. Loader extensions and special names
// are stored lower case, so every lookup is case-insensitive.
//
// Cache entries are written once, on first resolution, and never replaced.
type Manager struct {
	log *zap.Logger

	mu       sync.RWMutex
	loaders  map[string]Loader
	specials map[string]CustomObject
	cache    map[cacheKey]CustomObject
}

func NewManager(loaders map[string]Loader, specials map[string]CustomObject, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		log:      logger,
		loaders:  make(map[string]Loader, len(loaders)),
		specials: make(map[string]CustomObject, len(specials)),
		cache:    map[cacheKey]CustomObject{},
	}
	for ext, l := range loaders {
		m.loaders[strings.ToLower(ext)] = l
	}
	for name, o := range specials {
		m.specials[strings.ToLower(name)] = o
	}
	return m
}

// RegisterLoader registers a loader for a file extension given without the dot.
func (m *Manager) RegisterLoader(ext string, l Loader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaders[strings.ToLower(strings.TrimPrefix(ext, "."))] = l
}

func (m *Manager) RegisterSpecial(name string, o CustomObject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.specials[strings.ToLower(name)] = o
}

func (m *Manager) Loader(ext string) (Loader, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.loaders[strings.ToLower(ext)]
	return l, ok
}

func (m *Manager) Special(name string) (CustomObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.specials[strings.ToLower(name)]
	return o, ok
}

// SpecialNames returns the registered special names, sorted.
func (m *Manager) SpecialNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.specials))
	for name := range m.specials {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Clear drops every loader, special object and cached object.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaders = map[string]Loader{}
	m.specials = map[string]CustomObject{}
	m.cache = map[cacheKey]CustomObject{}
}

// GetObjectFromString resolves a token against the special objects first and
// then against definition files in the context's search path. It returns nil
// when nothing matches or the file does not parse.
func (m *Manager) GetObjectFromString(token string, ctx Context) CustomObject {
	tok := strings.TrimSpace(token)
	if tok == "" {
		return nil
	}
	if sp, ok := m.Special(tok); ok {
		if b, ok := sp.(Binder); ok && ctx != nil {
			return b.Bind(ctx)
		}
		return sp
	}
	if ctx == nil {
		return nil
	}

	dirs := ctx.ObjectDirs()
	key := cacheKey{ctx: ctx.Name(), dirs: strings.Join(dirs, "\x00"), token: strings.ToLower(tok)}
	m.mu.RLock()
	obj, ok := m.cache[key]
	m.mu.RUnlock()
	if ok {
		return obj
	}

	path := m.find(tok, dirs)
	if path == "" {
		return nil
	}
	obj, err := m.LoadFile(path)
	if err != nil {
		m.log.Warn("custom object failed to load", zap.String("token", tok), zap.String("path", path), zap.Error(err))
		return nil
	}

	m.mu.Lock()
	if existing, ok := m.cache[key]; ok {
		obj = existing
	} else {
		m.cache[key] = obj
	}
	m.mu.Unlock()
	return obj
}

// LoadFile parses one definition file with the loader registered for its
// last extension.
func (m *Manager) LoadFile(path string) (CustomObject, error) {
	file := filepath.Base(path)
	ext := Extension(file)
	l, ok := m.Loader(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoLoader, ext)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	obj, err := l.Load(file, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return obj, nil
}

// ListDir loads every file in dir that has a registered loader, in file name
// order. Files that fail to parse are logged and skipped.
func (m *Manager) ListDir(dir string) []CustomObject {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []CustomObject
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		if _, ok := m.Loader(Extension(e.Name())); !ok {
			continue
		}
		obj, err := m.LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			m.log.Warn("skipping custom object", zap.String("dir", dir), zap.Error(err))
			continue
		}
		out = append(out, obj)
	}
	return out
}

func (m *Manager) find(tok string, dirs []string) string {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		ents, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range ents {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			if _, ok := m.Loader(Extension(name)); !ok {
				continue
			}
			if strings.EqualFold(name, tok) || strings.EqualFold(ObjectName(name), tok) {
				return filepath.Join(dir, name)
			}
		}
	}
	return ""
}

// Extension returns the last dot-separated segment of a file name, lower case.
func Extension(file string) string {
	i := strings.LastIndexByte(file, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(file[i+1:])
}

// ObjectName strips every extension from a file name.
func ObjectName(file string) string {
	name, _, _ := strings.Cut(filepath.Base(file), ".")
	return name
}
