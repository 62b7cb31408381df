// Package host defines the contract stagehand uses to drive an external
// 3D-authoring application. The core graph engine only ever talks to a
// Host; concrete implementations live in subpackages (memhost) and in
// internal/bridge.
package host

import (
	"context"
	"errors"
)

// ErrNotFound is returned by ResolveByPath when no object exists at the
// requested path.
var ErrNotFound = errors.New("host: object not found")

// FlagKind identifies a per-node toggle flag on the host.
type FlagKind int

const (
	// FlagDisplay controls whether the node is shown in the viewport.
	FlagDisplay FlagKind = iota
	// FlagRender controls whether the node is used at render time.
	FlagRender
)

func (k FlagKind) String() string {
	switch k {
	case FlagDisplay:
		return "display"
	case FlagRender:
		return "render"
	default:
		return "unknown"
	}
}

// Object is a handle to a materialized node inside the host. Host object
// identity is not guaranteed stable across independent lookups; the
// resolved path is the only durable address.
type Object interface {
	// Path returns the object's resolved absolute path, e.g. "/obj/geo1/box1".
	Path() string
}

// Host is the set of primitives the creation engine drives. All methods
// take a context because implementations may cross a process boundary.
type Host interface {
	// CreateChild creates a new node of the given type under parent.
	// An empty name lets the host pick one. Fails if parent or typeName
	// is invalid.
	CreateChild(ctx context.Context, parent Object, typeName, name string) (Object, error)

	// SetParameter sets a single parameter value on a node. Fails on an
	// unknown parameter name or an incompatible value.
	SetParameter(ctx context.Context, obj Object, name string, value any) error

	// ConnectInput wires source's output into obj's input slot. Fails if
	// either index is out of range.
	ConnectInput(ctx context.Context, obj Object, input int, source Object, sourceOutput int) error

	// SetFlag toggles a node flag.
	SetFlag(ctx context.Context, obj Object, kind FlagKind, enabled bool) error

	// ResolveByPath looks up a node by absolute path. Returns ErrNotFound
	// when nothing exists there.
	ResolveByPath(ctx context.Context, path string) (Object, error)

	// OutputCount reports how many outputs a node exposes, used to
	// validate output indices before connecting.
	OutputCount(ctx context.Context, obj Object) (int, error)
}

// Resolver is the subset of Host needed to probe whether a path still
// resolves. The registry uses it for staleness checks without taking a
// dependency on the full Host surface.
type Resolver interface {
	ResolveByPath(ctx context.Context, path string) (Object, error)
}

// Compile-time check that Host satisfies Resolver.
var _ Resolver = (Host)(nil)
