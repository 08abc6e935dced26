package resource

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory returns a new, unloaded resource.
type Factory func() Resource

// Registry maps lower-cased type names to factories. Reads may run
// concurrently with each other and with Register.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Factory
}

func NewRegistry(types map[string]Factory) *Registry {
	r := &Registry{types: make(map[string]Factory, len(types))}
	for name, f := range types {
		r.types[strings.ToLower(name)] = f
	}
	return r
}

func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[strings.ToLower(name)] = f
}

// Create returns a fresh instance of the named type.
func (r *Registry) Create(name string) (Resource, error) {
	r.mu.RLock()
	f, ok := r.types[strings.ToLower(strings.TrimSpace(name))]
	r.mu.RUnlock()
	if !ok || f == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return f(), nil
}

// Names returns the registered type names, lower case and sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.types))
	for name := range r.types {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Parse turns one configuration line into a loaded resource.
func Parse(reg *Registry, env Env, line string) (Resource, error) {
	name, args, err := ParseLine(line)
	if err != nil {
		return nil, err
	}
	res, err := reg.Create(name)
	if err != nil {
		return nil, err
	}
	if err := res.Load(env, args); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return res, nil
}

// Create builds a resource from typed arguments, each rendered with
// fmt.Sprint. Used for default resource lists.
func Create(reg *Registry, env Env, name string, args ...any) (Resource, error) {
	strs := make([]string, len(args))
	for i, a := range args {
		strs[i] = fmt.Sprint(a)
	}
	res, err := reg.Create(name)
	if err != nil {
		return nil, err
	}
	if err := res.Load(env, strs); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return res, nil
}
