// Package memhost is an in-memory Host implementation backed by a scene
// tree. It mirrors the naming and connection behavior of a real
// authoring host closely enough for unit tests and the playground: child
// names are de-duplicated with numeric suffixes, inputs are sparse
// slots, and output counts come from a per-type table.
package memhost

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/zjrosen/stagehand/internal/host"
)

// Node is a node in the in-memory scene tree. It implements host.Object.
type Node struct {
	path     string
	typeName string
	name     string
	parms    map[string]any
	inputs   map[int]Connection
	flags    map[host.FlagKind]bool
	children map[string]*Node
}

// Connection records a wired input slot.
type Connection struct {
	Source *Node
	Output int
}

// Path returns the node's absolute path.
func (n *Node) Path() string { return n.path }

// Type returns the node's type name.
func (n *Node) Type() string { return n.typeName }

// Name returns the node's leaf name.
func (n *Node) Name() string { return n.name }

// Parm returns a parameter value previously set on the node.
func (n *Node) Parm(name string) (any, bool) {
	v, ok := n.parms[name]
	return v, ok
}

// Input returns the connection wired at the given slot, if any.
func (n *Node) Input(slot int) (Connection, bool) {
	c, ok := n.inputs[slot]
	return c, ok
}

// Flag returns whether the given flag is enabled.
func (n *Node) Flag(kind host.FlagKind) bool { return n.flags[kind] }

// Host is an in-memory scene tree. The zero value is not usable; use New.
type Host struct {
	mu           sync.Mutex
	root         *Node
	byPath       map[string]*Node
	outputCounts map[string]int
	strictParms  map[string]map[string]bool
}

// New creates an in-memory host with the standard network roots ("/obj",
// "/out") already present.
func New() *Host {
	h := &Host{
		byPath:       make(map[string]*Node),
		outputCounts: make(map[string]int),
	}
	h.root = &Node{path: "/", typeName: "root", name: "/", children: make(map[string]*Node)}
	h.byPath["/"] = h.root
	for _, name := range []string{"obj", "out"} {
		n := newNode("/"+name, name, name)
		h.root.children[name] = n
		h.byPath[n.path] = n
	}
	return h
}

func newNode(path, typeName, name string) *Node {
	return &Node{
		path:     path,
		typeName: typeName,
		name:     name,
		parms:    make(map[string]any),
		inputs:   make(map[int]Connection),
		flags:    make(map[host.FlagKind]bool),
		children: make(map[string]*Node),
	}
}

// SetOutputCount overrides the number of outputs reported for a node
// type. Types without an entry report one output.
func (h *Host) SetOutputCount(typeName string, count int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outputCounts[typeName] = count
}

// RestrictParameters makes SetParameter reject any parameter not listed
// for the given type, mimicking hosts that fail on unknown parameter
// names. Types without a restriction accept everything.
func (h *Host) RestrictParameters(typeName string, names ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.strictParms == nil {
		h.strictParms = make(map[string]map[string]bool)
	}
	allowed := make(map[string]bool, len(names))
	for _, n := range names {
		allowed[n] = true
	}
	h.strictParms[typeName] = allowed
}

// Delete removes a node and its subtree from the scene, so later path
// lookups fail. Used to simulate objects dying under the registry.
func (h *Host) Delete(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, ok := h.byPath[path]
	if !ok {
		return host.ErrNotFound
	}
	parentPath := parentOf(path)
	if parent, ok := h.byPath[parentPath]; ok {
		delete(parent.children, n.name)
	}
	h.forget(n)
	return nil
}

func (h *Host) forget(n *Node) {
	delete(h.byPath, n.path)
	for _, child := range n.children {
		h.forget(child)
	}
}

func parentOf(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

// CreateChild creates a node under parent, suffixing the name with a
// counter when it is already taken (box, box1, box2, ...). An empty name
// derives one from the type.
func (h *Host) CreateChild(ctx context.Context, parent host.Object, typeName, name string) (host.Object, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if typeName == "" {
		return nil, fmt.Errorf("memhost: empty type name")
	}
	parentNode, err := h.lookup(parent)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = typeName
	}
	unique := h.uniqueName(parentNode, name)

	path := parentNode.path + "/" + unique
	if parentNode.path == "/" {
		path = "/" + unique
	}
	n := newNode(path, typeName, unique)
	parentNode.children[unique] = n
	h.byPath[path] = n
	return n, nil
}

func (h *Host) uniqueName(parent *Node, name string) string {
	if _, taken := parent.children[name]; !taken {
		return name
	}
	base := strings.TrimRight(name, "0123456789")
	start := 1
	if base != name {
		if n, err := strconv.Atoi(name[len(base):]); err == nil {
			start = n + 1
		}
	}
	for i := start; ; i++ {
		candidate := fmt.Sprintf("%s%d", base, i)
		if _, taken := parent.children[candidate]; !taken {
			return candidate
		}
	}
}

// SetParameter records a parameter value on the node.
func (h *Host) SetParameter(ctx context.Context, obj host.Object, name string, value any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := h.lookup(obj)
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("memhost: empty parameter name on %s", n.path)
	}
	if allowed, strict := h.strictParms[n.typeName]; strict && !allowed[name] {
		return fmt.Errorf("memhost: unknown parameter %q on %s", name, n.path)
	}
	n.parms[name] = value
	return nil
}

// ConnectInput wires source's output into obj's input slot.
func (h *Host) ConnectInput(ctx context.Context, obj host.Object, input int, source host.Object, sourceOutput int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := h.lookup(obj)
	if err != nil {
		return err
	}
	src, err := h.lookup(source)
	if err != nil {
		return err
	}
	if input < 0 {
		return fmt.Errorf("memhost: input index %d out of range on %s", input, n.path)
	}
	if sourceOutput < 0 || sourceOutput >= h.outputCountLocked(src) {
		return fmt.Errorf("memhost: output index %d out of range on %s", sourceOutput, src.path)
	}
	n.inputs[input] = Connection{Source: src, Output: sourceOutput}
	return nil
}

// SetFlag toggles a node flag.
func (h *Host) SetFlag(ctx context.Context, obj host.Object, kind host.FlagKind, enabled bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := h.lookup(obj)
	if err != nil {
		return err
	}
	n.flags[kind] = enabled
	return nil
}

// ResolveByPath looks up a node by absolute path.
func (h *Host) ResolveByPath(ctx context.Context, path string) (host.Object, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, ok := h.byPath[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", host.ErrNotFound, path)
	}
	return n, nil
}

// OutputCount reports the node type's declared output count (default 1).
func (h *Host) OutputCount(ctx context.Context, obj host.Object) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := h.lookup(obj)
	if err != nil {
		return 0, err
	}
	return h.outputCountLocked(n), nil
}

func (h *Host) outputCountLocked(n *Node) int {
	if c, ok := h.outputCounts[n.typeName]; ok {
		return c
	}
	return 1
}

// lookup re-resolves an object through its path, rejecting handles to
// nodes that have been deleted since they were handed out.
func (h *Host) lookup(obj host.Object) (*Node, error) {
	if obj == nil {
		return nil, fmt.Errorf("%w: <nil>", host.ErrNotFound)
	}
	n, ok := h.byPath[obj.Path()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", host.ErrNotFound, obj.Path())
	}
	return n, nil
}

// Compile-time check that Host implements host.Host.
var _ host.Host = (*Host)(nil)
