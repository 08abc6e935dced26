// Package engine owns the process-wide registries: resource types, custom
// object loaders and special objects. Registrations made before Start are
// buffered and merged into the live tables when Start builds them.
package engine

import (
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"terraincontrol.ai/internal/gen/customobject"
	"terraincontrol.ai/internal/gen/material"
	"terraincontrol.ai/internal/gen/resource"
)

var (
	ErrAlreadyStarted = errors.New("engine already started")
	ErrNotStarted     = errors.New("engine not started")
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger handed to the object manager.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMaterials replaces the built-in material table.
func WithMaterials(t *material.Table) Option {
	return func(e *Engine) {
		if t != nil {
			e.mats = t
		}
	}
}

type Engine struct {
	log  *zap.Logger
	mats *material.Table

	mu      sync.Mutex
	started bool

	pendingTypes    map[string]resource.Factory
	pendingLoaders  map[string]customobject.Loader
	pendingSpecials map[string]customobject.CustomObject

	resources *resource.Registry
	objects   *customobject.Manager
}

// New returns an engine with the built-in resource types, the bo2, json and
// zst loaders, UseWorld and the built-in trees already queued.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:             zap.NewNop(),
		mats:            material.Default(),
		pendingTypes:    map[string]resource.Factory{},
		pendingLoaders:  map[string]customobject.Loader{},
		pendingSpecials: map[string]customobject.CustomObject{},
	}
	for _, opt := range opts {
		opt(e)
	}

	for name, f := range resource.Builtins() {
		e.RegisterResourceType(name, f)
	}
	e.RegisterCustomObjectLoader("bo2", customobject.BO2Loader{Materials: e.mats})
	e.RegisterCustomObjectLoader("json", customobject.JSONLoader{Materials: e.mats})
	e.RegisterCustomObjectLoader("zst", customobject.ZstdLoader{Lookup: e.loader})
	e.RegisterSpecialCustomObject(customobject.UseWorldName, customobject.UseWorld{})
	for _, t := range customobject.BuiltinTrees(e.mats) {
		e.RegisterSpecialCustomObject(t.Name(), t)
	}
	return e
}

func (e *Engine) loader(ext string) (customobject.Loader, bool) {
	objs := e.Objects()
	if objs == nil {
		return nil, false
	}
	return objs.Loader(ext)
}

func (e *Engine) RegisterResourceType(name string, f resource.Factory) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resources != nil {
		e.resources.Register(name, f)
		e.log.Debug("resource type registered", zap.String("name", name))
		return
	}
	e.pendingTypes[strings.ToLower(name)] = f
}

func (e *Engine) RegisterCustomObjectLoader(ext string, l customobject.Loader) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.objects != nil {
		e.objects.RegisterLoader(ext, l)
		e.log.Debug("custom object loader registered", zap.String("ext", ext))
		return
	}
	e.pendingLoaders[strings.ToLower(strings.TrimPrefix(ext, "."))] = l
}

func (e *Engine) RegisterSpecialCustomObject(name string, o customobject.CustomObject) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.objects != nil {
		e.objects.RegisterSpecial(name, o)
		e.log.Debug("special custom object registered", zap.String("name", name))
		return
	}
	e.pendingSpecials[strings.ToLower(name)] = o
}

// Start builds the live registries from everything registered so far. It
// may be called once per engine.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return ErrAlreadyStarted
	}
	e.started = true
	e.resources = resource.NewRegistry(e.pendingTypes)
	e.objects = customobject.NewManager(e.pendingLoaders, e.pendingSpecials, e.log.Named("objects"))
	e.log.Info("engine started",
		zap.Int("resource_types", len(e.pendingTypes)),
		zap.Int("loaders", len(e.pendingLoaders)),
		zap.Int("specials", len(e.pendingSpecials)))
	e.pendingTypes = map[string]resource.Factory{}
	e.pendingLoaders = map[string]customobject.Loader{}
	e.pendingSpecials = map[string]customobject.CustomObject{}
	return nil
}

// Stop drops every table. The engine cannot be started again.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.objects != nil {
		e.objects.Clear()
	}
	e.resources = nil
	e.objects = nil
	e.pendingTypes = map[string]resource.Factory{}
	e.pendingLoaders = map[string]customobject.Loader{}
	e.pendingSpecials = map[string]customobject.CustomObject{}
}

func (e *Engine) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started && e.resources != nil
}

func (e *Engine) Resources() *resource.Registry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resources
}

func (e *Engine) Objects() *customobject.Manager {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.objects
}

func (e *Engine) Materials() *material.Table { return e.mats }

func (e *Engine) Logger() *zap.Logger { return e.log }

// Env returns the lookup environment resources load against for ctx.
func (e *Engine) Env(ctx customobject.Context) (resource.Env, error) {
	objs := e.Objects()
	if objs == nil {
		return resource.Env{}, ErrNotStarted
	}
	return resource.Env{Materials: e.mats, Objects: objs, Context: ctx}, nil
}

// ParseResource parses one configuration line for the world described by
// ctx.
func (e *Engine) ParseResource(ctx customobject.Context, line string) (resource.Resource, error) {
	reg := e.Resources()
	env, err := e.Env(ctx)
	if err != nil || reg == nil {
		return nil, ErrNotStarted
	}
	return resource.Parse(reg, env, line)
}

// CreateResource builds a resource from typed arguments.
func (e *Engine) CreateResource(ctx customobject.Context, name string, args ...any) (resource.Resource, error) {
	reg := e.Resources()
	env, err := e.Env(ctx)
	if err != nil || reg == nil {
		return nil, ErrNotStarted
	}
	return resource.Create(reg, env, name, args...)
}
