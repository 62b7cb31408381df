package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewGeneratesStableName(t *testing.T) {
	d := New(Path("/obj"), "box")

	require.True(t, strings.HasPrefix(d.Name(), "box_"))
	require.Equal(t, d.Name(), d.Name(), "name must not drift between calls")
	require.Equal(t, "/obj/"+d.Name(), d.ExpectedPath())
}

func TestNewExplicitName(t *testing.T) {
	d := New(Path("/obj"), "geo", WithName("ball"))

	require.Equal(t, "ball", d.Name())
	require.Equal(t, "/obj/ball", d.ExpectedPath())
}

func TestExpectedPathNesting(t *testing.T) {
	geo := New(Path("/obj"), "geo", WithName("ball"))
	box := New(geo, "box", WithName("core"))

	require.Equal(t, "/obj/ball/core", box.ExpectedPath())
}

func TestExpectedPathRootParent(t *testing.T) {
	d := New(Path("/"), "obj", WithName("scene"))
	require.Equal(t, "/scene", d.ExpectedPath())
}

func TestWithAttrsMerges(t *testing.T) {
	d := New(Path("/obj"), "box",
		WithAttr("sizex", 1),
		WithAttrs(map[string]any{"sizey": 2, "sizex": 3}))

	require.Equal(t, map[string]any{"sizex": 3, "sizey": 2}, d.Attributes())
}

func TestCopyMergesAttributesWithoutMutatingBase(t *testing.T) {
	base := New(Path("/obj"), "box", WithAttrs(map[string]any{"sizex": 1, "sizey": 1}))

	variant := base.Copy(WithAttrs(map[string]any{"sizex": 2, "sizez": 3}))

	require.Equal(t, map[string]any{"sizex": 2, "sizey": 1, "sizez": 3}, variant.Attributes())
	require.Equal(t, map[string]any{"sizex": 1, "sizey": 1}, base.Attributes())
}

func TestCopyInheritsNameTypeAndFlags(t *testing.T) {
	base := New(Path("/obj"), "box", WithName("b"), WithDisplay(true))

	variant := base.Copy()

	require.Equal(t, "b", variant.Name())
	require.Equal(t, "box", variant.TypeName())
	require.NotNil(t, variant.display)
	require.True(t, *variant.display)
}

func TestCopyNeverTransfersCreatedIdentity(t *testing.T) {
	base := New(Path("/obj"), "box")
	base.created = memObject("/obj/box1")

	variant := base.Copy()

	_, ok := variant.Created()
	require.False(t, ok, "a copy must start without a materialized reference")
	_, ok = base.Created()
	require.True(t, ok)
}

func TestWithInputAtPadsWithSkips(t *testing.T) {
	src := New(Path("/obj"), "box")
	d := New(Path("/obj"), "merge", WithInputAt(2, FromDescriptor(src)))

	inputs := d.Inputs()
	require.Len(t, inputs, 3)
	require.True(t, inputs[0].IsNone())
	require.True(t, inputs[1].IsNone())
	require.True(t, inputs[2].refersTo(src))
}

func TestWithInputAtReplacesExistingSlot(t *testing.T) {
	a := New(Path("/obj"), "box")
	b := New(Path("/obj"), "sphere")
	base := New(Path("/obj"), "merge", WithInputs(FromDescriptor(a)))

	variant := base.Copy(WithInputAt(0, FromDescriptor(b)))

	require.True(t, variant.Inputs()[0].refersTo(b))
	require.True(t, base.Inputs()[0].refersTo(a), "base wiring must be untouched")
}

func TestAttributesReturnsCopy(t *testing.T) {
	d := New(Path("/obj"), "box", WithAttr("sizex", 1))

	attrs := d.Attributes()
	attrs["sizex"] = 99

	require.Equal(t, map[string]any{"sizex": 1}, d.Attributes())
}

func TestFirstLastAreSelf(t *testing.T) {
	d := New(Path("/obj"), "box")
	require.Same(t, d, d.First())
	require.Same(t, d, d.Last())
}

// memObject is a minimal host.Object for wiring tests.
type memObject string

func (o memObject) Path() string { return string(o) }
