package graph

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/stagehand/internal/host"
	"github.com/zjrosen/stagehand/internal/log"
)

// Created pairs a descriptor with the host object it materialized into.
type Created struct {
	Descriptor *Descriptor
	Object     host.Object
}

// Engine materializes descriptor graphs through a Host. Materialization
// is depth-first and memoized by descriptor identity: everything
// reachable through parent and input references is created at most once,
// dependencies strictly before dependents. The engine is the only writer
// of the creation cache and the registry; the creation path itself is
// single-threaded and synchronous.
type Engine struct {
	host     host.Host
	registry *Registry
	tracer   trace.Tracer
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRegistry uses a specific registry instead of the process default.
func WithRegistry(r *Registry) EngineOption {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithTracer uses a specific tracer for materialization spans.
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) {
		e.tracer = t
	}
}

// NewEngine creates an engine driving the given host. Unless overridden
// it records creations in the process-wide default registry, and wires
// the host in as the registry's staleness prober if it has none yet.
func NewEngine(h host.Host, opts ...EngineOption) *Engine {
	e := &Engine{
		host:     h,
		registry: DefaultRegistry(),
		tracer:   otel.Tracer("stagehand/graph"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.registry.adoptResolver(h)
	return e
}

// Registry returns the registry this engine records creations in.
func (e *Engine) Registry() *Registry { return e.registry }

// Materialize creates the descriptor's node, first materializing every
// descriptor reachable through its parent and input references.
// Idempotent: a descriptor that already has a cached reference returns
// it unchanged. A failure leaves already-materialized dependencies in
// place; there is no rollback.
func (e *Engine) Materialize(ctx context.Context, d *Descriptor) (host.Object, error) {
	return e.materialize(ctx, d, nil, make(map[*Descriptor]bool))
}

// MaterializeChain creates a chain's elements in sequence order and
// returns the ordered descriptor/object pairs.
func (e *Engine) MaterializeChain(ctx context.Context, c *Chain) ([]Created, error) {
	return e.materializeChain(ctx, c, make(map[*Descriptor]bool))
}

func (e *Engine) materializeChain(ctx context.Context, c *Chain, visiting map[*Descriptor]bool) ([]Created, error) {
	out := make([]Created, 0, len(c.elements))
	for i, d := range c.elements {
		obj, err := e.materialize(ctx, d, c.wiring[i], visiting)
		if err != nil {
			return nil, err
		}
		out = append(out, Created{Descriptor: d, Object: obj})
	}
	return out, nil
}

// materialize is the recursive creation walk. wiring overrides the
// descriptor's declared inputs when the descriptor is created as a chain
// element; nil means use the declared inputs. visiting is the set of
// descriptors currently on the recursion stack, used to detect true
// circular dependencies.
func (e *Engine) materialize(ctx context.Context, d *Descriptor, wiring []Input, visiting map[*Descriptor]bool) (host.Object, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil descriptor", ErrResolution)
	}
	if d.created != nil {
		return d.created, nil
	}
	if d.wrapped != nil {
		d.created = d.wrapped
		e.registry.Register(d.wrapped.Path(), d)
		return d.created, nil
	}
	if visiting[d] {
		return nil, fmt.Errorf("%w: %s depends on itself", ErrCycle, d.ExpectedPath())
	}
	visiting[d] = true
	defer delete(visiting, d)

	ctx, span := e.tracer.Start(ctx, "graph.materialize",
		trace.WithAttributes(
			attribute.String("node.path", d.ExpectedPath()),
			attribute.String("node.type", d.typeName),
		))
	defer span.End()

	obj, err := e.create(ctx, d, wiring, visiting)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return obj, nil
}

func (e *Engine) create(ctx context.Context, d *Descriptor, wiring []Input, visiting map[*Descriptor]bool) (host.Object, error) {
	log.Debug(log.CatEngine, "materializing", "path", d.ExpectedPath(), "type", d.typeName)

	parentObj, err := e.resolveParent(ctx, d, visiting)
	if err != nil {
		return nil, err
	}

	// Resolve all input sources before touching the host, so dependency
	// creation strictly precedes this node's creation.
	if wiring == nil {
		wiring = d.inputs
	}
	type resolvedInput struct {
		slot   int
		src    host.Object
		output int
	}
	conns := make([]resolvedInput, 0, len(wiring))
	for slot, in := range wiring {
		if in.IsNone() {
			continue
		}
		if in.output < 0 {
			return nil, fmt.Errorf("%w: negative output index %d on input %d of %s",
				ErrValidation, in.output, slot, d.ExpectedPath())
		}
		src, err := e.resolveInput(ctx, in, d, slot, visiting)
		if err != nil {
			return nil, err
		}
		conns = append(conns, resolvedInput{slot: slot, src: src, output: in.output})
	}

	obj, err := e.host.CreateChild(ctx, parentObj, d.typeName, d.name)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", d.ExpectedPath(), err)
	}

	// Apply attributes in sorted key order so failures are deterministic.
	keys := make([]string, 0, len(d.attrs))
	for k := range d.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := e.host.SetParameter(ctx, obj, k, d.attrs[k]); err != nil {
			return nil, fmt.Errorf("setting %s on %s: %w", k, d.ExpectedPath(), err)
		}
	}

	for _, cn := range conns {
		count, err := e.host.OutputCount(ctx, cn.src)
		if err != nil {
			return nil, fmt.Errorf("output count of %s: %w", cn.src.Path(), err)
		}
		if cn.output >= count {
			return nil, fmt.Errorf("%w: output index %d out of range (%d outputs of %s) on input %d of %s",
				ErrValidation, cn.output, count, cn.src.Path(), cn.slot, d.ExpectedPath())
		}
		if err := e.host.ConnectInput(ctx, obj, cn.slot, cn.src, cn.output); err != nil {
			return nil, fmt.Errorf("connecting input %d of %s: %w", cn.slot, d.ExpectedPath(), err)
		}
	}

	if d.display != nil {
		if err := e.host.SetFlag(ctx, obj, host.FlagDisplay, *d.display); err != nil {
			return nil, fmt.Errorf("setting display flag on %s: %w", d.ExpectedPath(), err)
		}
	}
	if d.render != nil {
		if err := e.host.SetFlag(ctx, obj, host.FlagRender, *d.render); err != nil {
			return nil, fmt.Errorf("setting render flag on %s: %w", d.ExpectedPath(), err)
		}
	}

	d.created = obj
	e.registry.Register(obj.Path(), d)
	log.Debug(log.CatEngine, "materialized", "path", obj.Path())
	return obj, nil
}

func (e *Engine) resolveParent(ctx context.Context, d *Descriptor, visiting map[*Descriptor]bool) (host.Object, error) {
	switch p := d.parent.(type) {
	case Path:
		obj, err := e.host.ResolveByPath(ctx, string(p))
		if err != nil {
			return nil, fmt.Errorf("%w: parent %q of %s: %w", ErrResolution, string(p), d.ExpectedPath(), err)
		}
		return obj, nil
	case *Descriptor:
		obj, err := e.materialize(ctx, p, nil, visiting)
		if err != nil {
			return nil, err
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("%w: %s has no parent", ErrResolution, d.ExpectedPath())
	}
}

func (e *Engine) resolveInput(ctx context.Context, in Input, d *Descriptor, slot int, visiting map[*Descriptor]bool) (host.Object, error) {
	switch in.kind {
	case sourceDescriptor:
		return e.materialize(ctx, in.desc, nil, visiting)
	case sourceChain:
		created, err := e.materializeChain(ctx, in.chain, visiting)
		if err != nil {
			return nil, err
		}
		if len(created) == 0 {
			return nil, fmt.Errorf("%w: on input %d of %s", ErrEmptyChain, slot, d.ExpectedPath())
		}
		return created[len(created)-1].Object, nil
	case sourceObject:
		return in.obj, nil
	case sourcePath:
		obj, err := e.host.ResolveByPath(ctx, in.path)
		if err != nil {
			return nil, fmt.Errorf("%w: input path %q on input %d of %s: %w",
				ErrResolution, in.path, slot, d.ExpectedPath(), err)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("%w: unsupported input source on input %d of %s", ErrResolution, slot, d.ExpectedPath())
	}
}
