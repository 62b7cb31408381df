package graph

import (
	"context"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/stagehand/internal/host"
	"github.com/zjrosen/stagehand/internal/log"
)

// Registry is the reverse index from a materialized host object back to
// its originating descriptor. Entries are keyed by the object's resolved
// path — host object identity is not stable across independent lookups —
// and hold only the descriptor, so they never extend the host object's
// lifetime. Lookups probe the host and evict entries whose path no
// longer resolves.
type Registry struct {
	cache *gocache.Cache

	mu       sync.Mutex
	resolver host.Resolver
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithResolver sets the prober used to detect stale entries. Engines
// install their host automatically when the registry has no prober yet.
func WithResolver(r host.Resolver) RegistryOption {
	return func(reg *Registry) {
		reg.resolver = r
	}
}

// WithTTL bounds entry retention. Without it entries live until probed
// stale or explicitly forgotten.
func WithTTL(ttl time.Duration) RegistryOption {
	return func(reg *Registry) {
		reg.cache = gocache.New(ttl, ttl)
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	reg := &Registry{
		cache: gocache.New(gocache.NoExpiration, 30*time.Minute),
	}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry used by engines and
// Wrap unless an explicit one is supplied.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// adoptResolver installs a staleness prober if none is set yet.
func (reg *Registry) adoptResolver(r host.Resolver) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.resolver == nil {
		reg.resolver = r
	}
}

// Register records that the descriptor materialized the object at the
// given resolved path.
func (reg *Registry) Register(path string, d *Descriptor) {
	if path == "" || d == nil {
		return
	}
	reg.cache.Set(path, d, gocache.DefaultExpiration)
	log.Debug(log.CatCache, "registered", "path", path)
}

// Lookup returns the descriptor that materialized the given object, or
// false when the object is unknown or its path no longer resolves on
// the host.
func (reg *Registry) Lookup(ctx context.Context, obj host.Object) (*Descriptor, bool) {
	if obj == nil {
		return nil, false
	}
	return reg.LookupPath(ctx, obj.Path())
}

// LookupPath is Lookup keyed directly by resolved path.
func (reg *Registry) LookupPath(ctx context.Context, path string) (*Descriptor, bool) {
	v, ok := reg.cache.Get(path)
	if !ok {
		return nil, false
	}

	reg.mu.Lock()
	resolver := reg.resolver
	reg.mu.Unlock()
	if resolver != nil {
		if _, err := resolver.ResolveByPath(ctx, path); err != nil {
			// The host object is gone; the entry is stale.
			reg.cache.Delete(path)
			log.Debug(log.CatCache, "evicted stale entry", "path", path)
			return nil, false
		}
	}

	d, ok := v.(*Descriptor)
	if !ok {
		return nil, false
	}
	return d, true
}

// Forget drops the entry for a path.
func (reg *Registry) Forget(path string) {
	reg.cache.Delete(path)
}

// Flush drops all entries.
func (reg *Registry) Flush() {
	reg.cache.Flush()
}

// Wrap returns a descriptor for a pre-existing host object. If the
// object was materialized by a descriptor known to this registry, that
// original is returned; otherwise a wrapper descriptor is built from the
// object's path and registered so later wraps of the same object agree.
func (reg *Registry) Wrap(obj host.Object) *Descriptor {
	if obj == nil {
		return nil
	}
	if d, ok := reg.cache.Get(obj.Path()); ok {
		if desc, ok := d.(*Descriptor); ok {
			return desc
		}
	}

	path := obj.Path()
	idx := strings.LastIndex(path, "/")
	parent := "/"
	name := path
	if idx >= 0 {
		if idx > 0 {
			parent = path[:idx]
		}
		name = path[idx+1:]
	}
	desc := &Descriptor{
		parent:  Path(parent),
		name:    name,
		attrs:   make(map[string]any),
		wrapped: obj,
	}
	reg.Register(path, desc)
	return desc
}

// Lookup consults the process-wide default registry.
func Lookup(ctx context.Context, obj host.Object) (*Descriptor, bool) {
	return DefaultRegistry().Lookup(ctx, obj)
}

// Wrap wraps a pre-existing host object as a descriptor via the
// process-wide default registry, preferring the original descriptor when
// the object was created by one.
func Wrap(obj host.Object) *Descriptor {
	return DefaultRegistry().Wrap(obj)
}
