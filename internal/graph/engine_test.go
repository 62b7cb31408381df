package graph

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/stagehand/internal/host"
)

// recordingHost is a minimal in-package host that records operation
// order, for asserting dependency-first creation.
type recordingHost struct {
	ops     []string
	nodes   map[string]bool
	outputs map[string]int // per type, default 1

	failCreateType string
	failParmName   string
}

func newRecordingHost() *recordingHost {
	return &recordingHost{
		nodes:   map[string]bool{"/": true, "/obj": true, "/out": true},
		outputs: map[string]int{},
	}
}

type recObject string

func (o recObject) Path() string { return string(o) }

func (h *recordingHost) CreateChild(ctx context.Context, parent host.Object, typeName, name string) (host.Object, error) {
	if typeName == h.failCreateType {
		return nil, fmt.Errorf("type %q not installed", typeName)
	}
	path := parent.Path() + "/" + name
	if parent.Path() == "/" {
		path = "/" + name
	}
	h.nodes[path] = true
	h.ops = append(h.ops, "create "+path)
	// Track type for output counts keyed by path.
	h.outputs[path] = h.typeOutputs(typeName)
	return recObject(path), nil
}

func (h *recordingHost) typeOutputs(typeName string) int {
	if c, ok := h.outputs["type:"+typeName]; ok {
		return c
	}
	return 1
}

func (h *recordingHost) setTypeOutputs(typeName string, count int) {
	h.outputs["type:"+typeName] = count
}

func (h *recordingHost) SetParameter(ctx context.Context, obj host.Object, name string, value any) error {
	if name == h.failParmName {
		return fmt.Errorf("unknown parameter %q", name)
	}
	h.ops = append(h.ops, fmt.Sprintf("parm %s %s=%v", obj.Path(), name, value))
	return nil
}

func (h *recordingHost) ConnectInput(ctx context.Context, obj host.Object, input int, source host.Object, sourceOutput int) error {
	h.ops = append(h.ops, fmt.Sprintf("connect %s[%d] <- %s:%d", obj.Path(), input, source.Path(), sourceOutput))
	return nil
}

func (h *recordingHost) SetFlag(ctx context.Context, obj host.Object, kind host.FlagKind, enabled bool) error {
	h.ops = append(h.ops, fmt.Sprintf("flag %s %s=%v", obj.Path(), kind, enabled))
	return nil
}

func (h *recordingHost) ResolveByPath(ctx context.Context, path string) (host.Object, error) {
	if !h.nodes[path] {
		return nil, fmt.Errorf("%w: %s", host.ErrNotFound, path)
	}
	return recObject(path), nil
}

func (h *recordingHost) OutputCount(ctx context.Context, obj host.Object) (int, error) {
	if c, ok := h.outputs[obj.Path()]; ok {
		return c, nil
	}
	return 1, nil
}

var _ host.Host = (*recordingHost)(nil)

func newTestEngine(h host.Host) *Engine {
	return NewEngine(h, WithRegistry(NewRegistry()))
}

func TestMaterializeCreatesDependenciesFirst(t *testing.T) {
	h := newRecordingHost()
	e := newTestEngine(h)

	src := New(Path("/obj"), "box", WithName("src"))
	sink := New(Path("/obj"), "xform", WithName("sink"),
		WithInputs(FromDescriptor(src)))

	obj, err := e.Materialize(context.Background(), sink)
	require.NoError(t, err)
	require.Equal(t, "/obj/sink", obj.Path())

	require.Equal(t, []string{
		"create /obj/src",
		"create /obj/sink",
		"connect /obj/sink[0] <- /obj/src:0",
	}, h.ops)
}

func TestMaterializeIsIdempotent(t *testing.T) {
	h := newRecordingHost()
	e := newTestEngine(h)

	d := New(Path("/obj"), "box", WithName("b"))

	first, err := e.Materialize(context.Background(), d)
	require.NoError(t, err)
	second, err := e.Materialize(context.Background(), d)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Len(t, h.ops, 1, "second call must not touch the host")
}

func TestSharedDependencyCreatedOnce(t *testing.T) {
	h := newRecordingHost()
	e := newTestEngine(h)

	shared := New(Path("/obj"), "box", WithName("shared"))
	left := New(Path("/obj"), "xform", WithName("left"), WithInputs(FromDescriptor(shared)))
	right := New(Path("/obj"), "xform", WithName("right"), WithInputs(FromDescriptor(shared)))

	_, err := e.Materialize(context.Background(), left)
	require.NoError(t, err)
	_, err = e.Materialize(context.Background(), right)
	require.NoError(t, err)

	creates := 0
	for _, op := range h.ops {
		if op == "create /obj/shared" {
			creates++
		}
	}
	require.Equal(t, 1, creates)
}

func TestMaterializeParentDescriptorFirst(t *testing.T) {
	h := newRecordingHost()
	e := newTestEngine(h)

	geo := New(Path("/obj"), "geo", WithName("g"))
	box := New(geo, "box", WithName("b"))

	obj, err := e.Materialize(context.Background(), box)
	require.NoError(t, err)
	require.Equal(t, "/obj/g/b", obj.Path())
	require.Equal(t, []string{"create /obj/g", "create /obj/g/b"}, h.ops)
}

func TestMaterializeAttributesAppliedInSortedOrder(t *testing.T) {
	h := newRecordingHost()
	e := newTestEngine(h)

	d := New(Path("/obj"), "box", WithName("b"),
		WithAttrs(map[string]any{"sizez": 3, "sizex": 1, "sizey": 2}))

	_, err := e.Materialize(context.Background(), d)
	require.NoError(t, err)

	require.Equal(t, []string{
		"create /obj/b",
		"parm /obj/b sizex=1",
		"parm /obj/b sizey=2",
		"parm /obj/b sizez=3",
	}, h.ops)
}

func TestMaterializeFlags(t *testing.T) {
	h := newRecordingHost()
	e := newTestEngine(h)

	d := New(Path("/obj"), "box", WithName("b"), WithDisplay(true), WithRender(false))

	_, err := e.Materialize(context.Background(), d)
	require.NoError(t, err)

	require.Contains(t, h.ops, "flag /obj/b display=true")
	require.Contains(t, h.ops, "flag /obj/b render=false")
}

func TestMaterializeSparseInputs(t *testing.T) {
	h := newRecordingHost()
	e := newTestEngine(h)

	a := New(Path("/obj"), "box", WithName("a"))
	b := New(Path("/obj"), "box", WithName("b"))
	sink := New(Path("/obj"), "merge", WithName("m"),
		WithInputs(FromDescriptor(a), NoInput(), FromDescriptor(b)))

	_, err := e.Materialize(context.Background(), sink)
	require.NoError(t, err)

	require.Contains(t, h.ops, "connect /obj/m[0] <- /obj/a:0")
	require.Contains(t, h.ops, "connect /obj/m[2] <- /obj/b:0")
	for _, op := range h.ops {
		require.NotContains(t, op, "m[1]", "skipped slot must stay unconnected")
	}
}

func TestMaterializeSelectsOutputIndex(t *testing.T) {
	h := newRecordingHost()
	h.setTypeOutputs("split", 3)
	e := newTestEngine(h)

	src := New(Path("/obj"), "split", WithName("s"))
	sink := New(Path("/obj"), "xform", WithName("x"),
		WithInputs(FromDescriptor(src).WithOutput(2)))

	_, err := e.Materialize(context.Background(), sink)
	require.NoError(t, err)
	require.Contains(t, h.ops, "connect /obj/x[0] <- /obj/s:2")
}

func TestMaterializeOutputIndexOutOfRange(t *testing.T) {
	h := newRecordingHost()
	e := newTestEngine(h)

	src := New(Path("/obj"), "box", WithName("s"))
	sink := New(Path("/obj"), "xform", WithName("x"),
		WithInputs(FromDescriptor(src).WithOutput(5)))

	_, err := e.Materialize(context.Background(), sink)
	require.ErrorIs(t, err, ErrValidation)
}

func TestMaterializeNegativeOutputIndex(t *testing.T) {
	h := newRecordingHost()
	e := newTestEngine(h)

	src := New(Path("/obj"), "box", WithName("s"))
	sink := New(Path("/obj"), "xform", WithName("x"),
		WithInputs(FromDescriptor(src).WithOutput(-1)))

	_, err := e.Materialize(context.Background(), sink)
	require.ErrorIs(t, err, ErrValidation)
}

func TestMaterializeUnresolvableParentPath(t *testing.T) {
	h := newRecordingHost()
	e := newTestEngine(h)

	d := New(Path("/missing"), "box", WithName("b"))

	_, err := e.Materialize(context.Background(), d)
	require.ErrorIs(t, err, ErrResolution)
	require.ErrorIs(t, err, host.ErrNotFound)
}

func TestMaterializeUnresolvableInputPath(t *testing.T) {
	h := newRecordingHost()
	e := newTestEngine(h)

	d := New(Path("/obj"), "xform", WithName("x"),
		WithInputs(FromPath("/obj/nope")))

	_, err := e.Materialize(context.Background(), d)
	require.ErrorIs(t, err, ErrResolution)
}

func TestMaterializeHostErrorPropagates(t *testing.T) {
	h := newRecordingHost()
	h.failCreateType = "bogus"
	e := newTestEngine(h)

	dep := New(Path("/obj"), "box", WithName("dep"))
	d := New(Path("/obj"), "bogus", WithName("b"), WithInputs(FromDescriptor(dep)))

	_, err := e.Materialize(context.Background(), d)
	require.Error(t, err)
	require.Contains(t, err.Error(), "creating /obj/b")

	// No rollback: the dependency stays materialized and cached.
	created, ok := dep.Created()
	require.True(t, ok)
	require.Equal(t, "/obj/dep", created.Path())
}

func TestMaterializeParameterErrorNamesAttribute(t *testing.T) {
	h := newRecordingHost()
	h.failParmName = "frobnicate"
	e := newTestEngine(h)

	d := New(Path("/obj"), "box", WithName("b"), WithAttr("frobnicate", 1))

	_, err := e.Materialize(context.Background(), d)
	require.Error(t, err)
	require.Contains(t, err.Error(), "frobnicate")
	require.Contains(t, err.Error(), "/obj/b")
}

func TestMaterializeCycleFailsFast(t *testing.T) {
	h := newRecordingHost()
	e := newTestEngine(h)

	a := New(Path("/obj"), "box", WithName("a"))
	b := New(Path("/obj"), "box", WithName("b"), WithInputs(FromDescriptor(a)))
	// Close the loop directly; the public API cannot express a cycle
	// without a later rewire.
	a.inputs = append(a.inputs, FromDescriptor(b))

	_, err := e.Materialize(context.Background(), a)
	require.ErrorIs(t, err, ErrCycle)
	require.Empty(t, h.ops, "nothing may be created once a cycle is found")
}

func TestMaterializeSelfCycle(t *testing.T) {
	h := newRecordingHost()
	e := newTestEngine(h)

	a := New(Path("/obj"), "box", WithName("a"))
	a.inputs = append(a.inputs, FromDescriptor(a))

	_, err := e.Materialize(context.Background(), a)
	require.ErrorIs(t, err, ErrCycle)
}

func TestMaterializeNilDescriptor(t *testing.T) {
	e := newTestEngine(newRecordingHost())

	_, err := e.Materialize(context.Background(), nil)
	require.ErrorIs(t, err, ErrResolution)
}

func TestMaterializeChainInSequence(t *testing.T) {
	h := newRecordingHost()
	e := newTestEngine(h)

	chain := NewChain(
		New(Path("/obj"), "box", WithName("a")),
		New(Path("/obj"), "xform", WithName("b")),
		New(Path("/obj"), "output", WithName("c")),
	)

	created, err := e.MaterializeChain(context.Background(), chain)
	require.NoError(t, err)
	require.Len(t, created, 3)
	require.Equal(t, "/obj/a", created[0].Object.Path())
	require.Equal(t, "/obj/c", created[2].Object.Path())

	require.Equal(t, []string{
		"create /obj/a",
		"create /obj/b",
		"connect /obj/b[0] <- /obj/a:0",
		"create /obj/c",
		"connect /obj/c[0] <- /obj/b:0",
	}, h.ops)
}

func TestMaterializeChainWiringDoesNotMutateDescriptors(t *testing.T) {
	h := newRecordingHost()
	e := newTestEngine(h)

	a := New(Path("/obj"), "box", WithName("a"))
	b := New(Path("/obj"), "xform", WithName("b"))
	chain := NewChain(a, b)

	_, err := e.MaterializeChain(context.Background(), chain)
	require.NoError(t, err)

	require.Empty(t, b.Inputs(), "auto-wiring lives on the chain, not the descriptor")
}

func TestMaterializeChainAsInput(t *testing.T) {
	h := newRecordingHost()
	e := newTestEngine(h)

	chain := NewChain(
		New(Path("/obj"), "box", WithName("a")),
		New(Path("/obj"), "xform", WithName("b")),
	)
	sink := New(Path("/obj"), "merge", WithName("m"),
		WithInputs(FromChain(chain)))

	_, err := e.Materialize(context.Background(), sink)
	require.NoError(t, err)
	require.Contains(t, h.ops, "connect /obj/m[0] <- /obj/b:0",
		"a chain input resolves to its last element")
}

func TestMaterializeEmptyChainInput(t *testing.T) {
	e := newTestEngine(newRecordingHost())

	sink := New(Path("/obj"), "merge", WithName("m"),
		WithInputs(FromChain(NewChain())))

	_, err := e.Materialize(context.Background(), sink)
	require.ErrorIs(t, err, ErrEmptyChain)
}

func TestMaterializeObjectInput(t *testing.T) {
	h := newRecordingHost()
	e := newTestEngine(h)

	h.nodes["/obj/existing"] = true
	sink := New(Path("/obj"), "xform", WithName("x"),
		WithInputs(FromObject(recObject("/obj/existing"))))

	_, err := e.Materialize(context.Background(), sink)
	require.NoError(t, err)
	require.Contains(t, h.ops, "connect /obj/x[0] <- /obj/existing:0")
}

func TestMaterializeWrappedObjectFastPath(t *testing.T) {
	h := newRecordingHost()
	reg := NewRegistry()
	e := NewEngine(h, WithRegistry(reg))

	h.nodes["/obj/wrapped"] = true
	d := reg.Wrap(recObject("/obj/wrapped"))

	obj, err := e.Materialize(context.Background(), d)
	require.NoError(t, err)
	require.Equal(t, "/obj/wrapped", obj.Path())
	require.Empty(t, h.ops, "wrapped objects are never re-created")
}

func TestMaterializeRegistersCreations(t *testing.T) {
	h := newRecordingHost()
	reg := NewRegistry()
	e := NewEngine(h, WithRegistry(reg))

	d := New(Path("/obj"), "box", WithName("b"))
	obj, err := e.Materialize(context.Background(), d)
	require.NoError(t, err)

	got, ok := reg.Lookup(context.Background(), obj)
	require.True(t, ok)
	require.Same(t, d, got)
}

func TestMaterializeContextPropagates(t *testing.T) {
	h := newRecordingHost()
	e := newTestEngine(h)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The recording host ignores ctx; this only checks nothing panics on
	// a canceled context and errors still unwrap cleanly.
	d := New(Path("/missing"), "box", WithName("b"))
	_, err := e.Materialize(ctx, d)
	require.True(t, errors.Is(err, ErrResolution))
}
