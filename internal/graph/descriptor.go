package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/zjrosen/stagehand/internal/host"
)

// Parent identifies where a descriptor's node is created: either another
// descriptor (materialized first) or a path string resolved on the host
// at creation time.
type Parent interface {
	isParent()
}

// Path is an absolute host path used as a descriptor parent, e.g.
// Path("/obj").
type Path string

func (Path) isParent() {}

func (*Descriptor) isParent() {}

// Descriptor is a deferred specification of one host node. It is
// immutable after construction except for the creation cache the engine
// fills in; Copy produces modified variants without touching the
// original.
type Descriptor struct {
	parent   Parent
	typeName string
	name     string
	attrs    map[string]any
	inputs   []Input
	display  *bool
	render   *bool

	// wrapped is a pre-existing host object returned instead of creating
	// anything. Set only by Wrap.
	wrapped host.Object

	// created caches the materialized reference. Once populated it never
	// changes for this descriptor identity.
	created host.Object
}

// Option configures a Descriptor during construction, and doubles as a
// Copy override.
type Option func(*Descriptor)

// WithName sets an explicit node name. Without it a stable name is
// generated from the type at construction time.
func WithName(name string) Option {
	return func(d *Descriptor) {
		d.name = name
	}
}

// WithAttr sets one attribute value. Keys are unique; last write wins.
func WithAttr(name string, value any) Option {
	return func(d *Descriptor) {
		d.attrs[name] = value
	}
}

// WithAttrs merges a set of attribute values, last write winning per key.
func WithAttrs(attrs map[string]any) Option {
	return func(d *Descriptor) {
		for k, v := range attrs {
			d.attrs[k] = v
		}
	}
}

// WithInputs appends input specs after any already present.
func WithInputs(inputs ...Input) Option {
	return func(d *Descriptor) {
		d.inputs = append(d.inputs, inputs...)
	}
}

// WithInputAt sets the input spec at an exact slot, growing the list
// with explicit skips as needed. Used for positional replacement during
// Copy.
func WithInputAt(slot int, in Input) Option {
	return func(d *Descriptor) {
		for len(d.inputs) <= slot {
			d.inputs = append(d.inputs, NoInput())
		}
		d.inputs[slot] = in
	}
}

// WithDisplay requests the display flag be set (or cleared) after
// creation. Unset means inherit the host default.
func WithDisplay(on bool) Option {
	return func(d *Descriptor) {
		d.display = &on
	}
}

// WithRender requests the render flag be set (or cleared) after creation.
func WithRender(on bool) Option {
	return func(d *Descriptor) {
		d.render = &on
	}
}

// New builds a descriptor for a future node of the given type under
// parent. Nothing is validated here: type names, attributes, and input
// references are only checked when the graph is created, so descriptors
// may freely reference nodes that do not exist yet.
func New(parent Parent, typeName string, opts ...Option) *Descriptor {
	d := &Descriptor{
		parent:   parent,
		typeName: typeName,
		attrs:    make(map[string]any),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.name == "" {
		d.name = generatedName(typeName)
	}
	return d
}

// generatedName derives a stable node name for descriptors constructed
// without one. The name is fixed at construction so the expected path
// does not drift between calls.
func generatedName(typeName string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s", typeName, suffix)
}

// Copy returns a new, not-yet-materialized descriptor with the given
// overrides applied. Attributes merge (override wins, absent keys are
// preserved), inputs append unless positionally replaced with
// WithInputAt, and flags are inherited unless explicitly supplied. The
// copy's creation cache starts empty regardless of the original's state;
// copying never transfers an already-created identity.
func (d *Descriptor) Copy(opts ...Option) *Descriptor {
	out := &Descriptor{
		parent:   d.parent,
		typeName: d.typeName,
		name:     d.name,
		attrs:    make(map[string]any, len(d.attrs)),
		inputs:   append([]Input(nil), d.inputs...),
		display:  d.display,
		render:   d.render,
	}
	for k, v := range d.attrs {
		out.attrs[k] = v
	}
	for _, opt := range opts {
		opt(out)
	}
	return out
}

// Parent returns the descriptor's parent reference.
func (d *Descriptor) Parent() Parent { return d.parent }

// TypeName returns the host node type this descriptor creates.
func (d *Descriptor) TypeName() string { return d.typeName }

// Name returns the explicit or generated node name.
func (d *Descriptor) Name() string { return d.name }

// Attributes returns a copy of the attribute map.
func (d *Descriptor) Attributes() map[string]any {
	out := make(map[string]any, len(d.attrs))
	for k, v := range d.attrs {
		out[k] = v
	}
	return out
}

// Inputs returns a copy of the ordered input list.
func (d *Descriptor) Inputs() []Input {
	return append([]Input(nil), d.inputs...)
}

// ExpectedPath computes the path the node will occupy once created,
// from the parent's path and the descriptor's name. For wrapped objects
// it is the wrapped object's resolved path. It is computable before
// creation and matches the registry key afterwards, provided the host
// accepts the requested name unchanged.
func (d *Descriptor) ExpectedPath() string {
	if d.wrapped != nil {
		return d.wrapped.Path()
	}
	switch p := d.parent.(type) {
	case Path:
		return joinPath(string(p), d.name)
	case *Descriptor:
		return joinPath(p.ExpectedPath(), d.name)
	default:
		return "/" + d.name
	}
}

func joinPath(parent, name string) string {
	if parent == "" || parent == "/" {
		return "/" + name
	}
	return strings.TrimRight(parent, "/") + "/" + name
}

// Created returns the cached materialized reference, if the descriptor
// has been created.
func (d *Descriptor) Created() (host.Object, bool) {
	if d.created == nil {
		return nil, false
	}
	return d.created, true
}

// First returns the descriptor itself, mirroring Chain.First.
func (d *Descriptor) First() *Descriptor { return d }

// Last returns the descriptor itself, mirroring Chain.Last.
func (d *Descriptor) Last() *Descriptor { return d }

// Create materializes the descriptor (and everything it references)
// through the engine. Idempotent: repeated calls return the identical
// host object.
func (d *Descriptor) Create(ctx context.Context, e *Engine) (host.Object, error) {
	return e.Materialize(ctx, d)
}
