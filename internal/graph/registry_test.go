package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/stagehand/internal/host/memhost"
)

func TestRegistryReverseLookup(t *testing.T) {
	h := memhost.New()
	reg := NewRegistry()
	e := NewEngine(h, WithRegistry(reg))

	d := New(Path("/obj"), "geo", WithName("g"))
	obj, err := e.Materialize(context.Background(), d)
	require.NoError(t, err)

	got, ok := reg.Lookup(context.Background(), obj)
	require.True(t, ok)
	require.Same(t, d, got)

	got, ok = reg.LookupPath(context.Background(), "/obj/g")
	require.True(t, ok)
	require.Same(t, d, got)
}

func TestRegistryLookupUnknownPath(t *testing.T) {
	reg := NewRegistry()

	_, ok := reg.LookupPath(context.Background(), "/obj/nothing")
	require.False(t, ok)
}

func TestRegistryEvictsStaleEntries(t *testing.T) {
	h := memhost.New()
	reg := NewRegistry()
	e := NewEngine(h, WithRegistry(reg))

	d := New(Path("/obj"), "geo", WithName("g"))
	obj, err := e.Materialize(context.Background(), d)
	require.NoError(t, err)

	require.NoError(t, h.Delete(obj.Path()))

	_, ok := reg.Lookup(context.Background(), obj)
	require.False(t, ok, "a dead host object must not resolve")

	// The stale entry is gone even if the node reappears later under the
	// same path.
	_, ok = reg.LookupPath(context.Background(), "/obj/g")
	require.False(t, ok)
}

func TestRegistryForgetAndFlush(t *testing.T) {
	reg := NewRegistry()
	d := New(Path("/obj"), "geo", WithName("g"))

	reg.Register("/obj/g", d)
	reg.Forget("/obj/g")
	_, ok := reg.LookupPath(context.Background(), "/obj/g")
	require.False(t, ok)

	reg.Register("/obj/g", d)
	reg.Flush()
	_, ok = reg.LookupPath(context.Background(), "/obj/g")
	require.False(t, ok)
}

func TestRegistryTTL(t *testing.T) {
	reg := NewRegistry(WithTTL(10 * time.Millisecond))
	d := New(Path("/obj"), "geo", WithName("g"))
	reg.Register("/obj/g", d)

	time.Sleep(20 * time.Millisecond)

	_, ok := reg.LookupPath(context.Background(), "/obj/g")
	require.False(t, ok)
}

func TestWrapPrefersOriginalDescriptor(t *testing.T) {
	h := memhost.New()
	reg := NewRegistry()
	e := NewEngine(h, WithRegistry(reg))

	d := New(Path("/obj"), "geo", WithName("g"))
	obj, err := e.Materialize(context.Background(), d)
	require.NoError(t, err)

	require.Same(t, d, reg.Wrap(obj))
}

func TestWrapUnknownObjectBuildsWrapper(t *testing.T) {
	h := memhost.New()
	reg := NewRegistry()

	obj, err := h.ResolveByPath(context.Background(), "/obj")
	require.NoError(t, err)
	node, err := h.CreateChild(context.Background(), obj, "geo", "handmade")
	require.NoError(t, err)

	w := reg.Wrap(node)
	require.NotNil(t, w)
	require.Equal(t, "handmade", w.Name())
	require.Equal(t, "/obj/handmade", w.ExpectedPath())

	// Wrapping again agrees on the same descriptor.
	require.Same(t, w, reg.Wrap(node))
}

func TestWrappedDescriptorUsableAsInput(t *testing.T) {
	h := memhost.New()
	reg := NewRegistry()
	e := NewEngine(h, WithRegistry(reg))

	obj, err := h.ResolveByPath(context.Background(), "/obj")
	require.NoError(t, err)
	existing, err := h.CreateChild(context.Background(), obj, "geo", "src")
	require.NoError(t, err)

	w := reg.Wrap(existing)
	sink := New(Path("/obj"), "geo", WithName("sink"), WithInputs(FromDescriptor(w)))

	created, err := e.Materialize(context.Background(), sink)
	require.NoError(t, err)

	node, ok := created.(*memhost.Node)
	require.True(t, ok)
	conn, ok := node.Input(0)
	require.True(t, ok)
	require.Equal(t, "/obj/src", conn.Source.Path())
}

func TestWrapNil(t *testing.T) {
	reg := NewRegistry()
	require.Nil(t, reg.Wrap(nil))
}
