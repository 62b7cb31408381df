package graph

import (
	"context"
	"fmt"
)

// Member is anything a chain can be built from: a *Descriptor, another
// *Chain (spliced flat), or a wrapped host object (via Wrap, which
// returns a *Descriptor).
type Member interface {
	isMember()
}

func (*Chain) isMember() {}

// A Descriptor is a chain member, a copy selector, and a parent.
func (*Descriptor) isMember() {}

// Chain is an ordered, auto-wired sequence of descriptors. Between
// consecutive elements an implicit primary-input (slot 0) connection
// from predecessor to successor is established unless the successor
// declares any input of its own; chain-level inputs attach to the first
// element. Chains share member descriptors by identity: the same
// descriptor may appear in several chains (views, copies) without being
// duplicated.
type Chain struct {
	elements []*Descriptor
	byName   map[string]int
	// wiring holds the effective input list per position: the element's
	// declared inputs plus any auto-wired predecessor or chain-level
	// inputs. Stored on the chain, never written back to the shared
	// descriptors.
	wiring [][]Input
	inputs []Input
}

// NewChain builds a chain from the given members. Nested chains are
// spliced: their element sequences are inlined in place, never nested.
// A spliced chain contributes only its elements; its own chain-level
// inputs do not carry over.
func NewChain(members ...Member) *Chain {
	c := &Chain{}
	for _, m := range members {
		switch v := m.(type) {
		case *Descriptor:
			c.elements = append(c.elements, v)
		case *Chain:
			c.elements = append(c.elements, v.elements...)
		}
	}
	c.indexNames()
	c.computeWiring()
	return c
}

// WithInputs returns a chain like c with external inputs attached to the
// first element, exactly as at construction: they follow the first
// element's effective inputs, replacing any chain-level inputs c already
// carried. The rest of the wiring table is preserved as computed, so
// inputs can be attached to a Copy result without undoing its rewiring.
func (c *Chain) WithInputs(inputs ...Input) *Chain {
	out := &Chain{
		elements: append([]*Descriptor(nil), c.elements...),
		inputs:   append([]Input(nil), inputs...),
		wiring:   make([][]Input, len(c.elements)),
	}
	out.indexNames()
	copy(out.wiring, c.wiring)
	if len(out.elements) > 0 {
		base := c.wiring[0][:len(c.wiring[0])-len(c.inputs)]
		head := make([]Input, 0, len(base)+len(inputs))
		head = append(head, base...)
		head = append(head, inputs...)
		out.wiring[0] = head
	}
	return out
}

func (c *Chain) indexNames() {
	c.byName = make(map[string]int, len(c.elements))
	for i, d := range c.elements {
		if _, taken := c.byName[d.Name()]; !taken {
			c.byName[d.Name()] = i
		}
	}
}

// computeWiring derives the effective input list for every position. An
// element with no declared inputs gets its predecessor auto-wired at
// slot 0; any declared input (including an explicit none at slot 0)
// counts as an override and suppresses auto-wiring. Chain-level inputs
// fill the first element's unset slots, or follow its declared inputs.
func (c *Chain) computeWiring() {
	c.wiring = make([][]Input, len(c.elements))
	for i, d := range c.elements {
		eff := d.Inputs()
		switch {
		case i == 0:
			eff = append(eff, c.inputs...)
		case len(eff) == 0:
			eff = []Input{FromDescriptor(c.elements[i-1])}
		}
		c.wiring[i] = eff
	}
}

// Len returns the number of elements in the flattened chain.
func (c *Chain) Len() int { return len(c.elements) }

// Elements returns the flattened element sequence. The returned slice is
// a copy; the descriptors are shared.
func (c *Chain) Elements() []*Descriptor {
	return append([]*Descriptor(nil), c.elements...)
}

// At returns the element at the given position. Negative positions count
// from the end.
func (c *Chain) At(i int) (*Descriptor, error) {
	idx, ok := c.normalize(i)
	if !ok {
		return nil, fmt.Errorf("%w: chain index %d out of range (len %d)", ErrValidation, i, len(c.elements))
	}
	return c.elements[idx], nil
}

// Named returns the first element whose name matches.
func (c *Chain) Named(name string) (*Descriptor, error) {
	idx, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: no chain element named %q", ErrResolution, name)
	}
	return c.elements[idx], nil
}

// Slice returns a contiguous range [from, to) of the chain as a view:
// the same underlying descriptors with their existing wiring preserved,
// including the first in-range element's auto-wired predecessor. Not a
// deep copy. Negative bounds count from the end; out-of-range bounds are
// clamped.
func (c *Chain) Slice(from, to int) *Chain {
	from = clampBound(from, len(c.elements))
	to = clampBound(to, len(c.elements))
	if from > to {
		from = to
	}
	view := &Chain{
		elements: c.elements[from:to],
		wiring:   c.wiring[from:to],
	}
	view.indexNames()
	return view
}

func clampBound(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func (c *Chain) normalize(i int) (int, bool) {
	if i < 0 {
		i += len(c.elements)
	}
	if i < 0 || i >= len(c.elements) {
		return 0, false
	}
	return i, true
}

// First returns the first element, or nil for an empty chain.
func (c *Chain) First() *Descriptor {
	if len(c.elements) == 0 {
		return nil
	}
	return c.elements[0]
}

// Last returns the last element, or nil for an empty chain. An input
// built from a chain resolves to this element.
func (c *Chain) Last() *Descriptor {
	if len(c.elements) == 0 {
		return nil
	}
	return c.elements[len(c.elements)-1]
}

// Create materializes the chain's elements in sequence order through the
// engine, each auto-wired predecessor before its successor, and returns
// the ordered descriptor/object pairs.
func (c *Chain) Create(ctx context.Context, e *Engine) ([]Created, error) {
	return e.MaterializeChain(ctx, c)
}

// Selector picks elements for Chain.Copy: ByIndex, ByName, or a
// brand-new *Descriptor to insert.
type Selector interface {
	isSelector()
}

type indexSelector int

func (indexSelector) isSelector() {}

type nameSelector string

func (nameSelector) isSelector() {}

func (*Descriptor) isSelector() {}

// ByIndex selects the element at a position in the original chain.
// Negative positions count from the end.
func ByIndex(i int) Selector { return indexSelector(i) }

// ByName selects the first element in the original chain with the given
// name.
func ByName(name string) Selector { return nameSelector(name) }

// Copy builds a new chain by resolving each selector against the
// original chain — never against positions already placed in the new
// sequence — so repeating a selector duplicates the same underlying
// descriptor at a new position. With no selectors the copy preserves the
// original order and descriptor identities.
//
// Wiring: a newly adjacent pair whose neighbor relationship matches the
// original keeps the original wiring; where the neighborhood changed,
// auto-wiring is recomputed and declared inputs referencing the
// displaced predecessor are replaced by the new one (or dropped to an
// explicit none at the head of the chain). External inputs attach to
// the copy via WithInputs, which keeps this rewiring intact.
func (c *Chain) Copy(selectors ...Selector) (*Chain, error) {
	type placed struct {
		d       *Descriptor
		origPos int // -1 for inserted descriptors
	}

	var seq []placed
	if len(selectors) == 0 {
		for i, d := range c.elements {
			seq = append(seq, placed{d: d, origPos: i})
		}
	} else {
		for _, sel := range selectors {
			switch s := sel.(type) {
			case indexSelector:
				idx, ok := c.normalize(int(s))
				if !ok {
					return nil, fmt.Errorf("%w: copy selector %d out of range (len %d)", ErrValidation, int(s), len(c.elements))
				}
				seq = append(seq, placed{d: c.elements[idx], origPos: idx})
			case nameSelector:
				idx, ok := c.byName[string(s)]
				if !ok {
					return nil, fmt.Errorf("%w: no chain element named %q", ErrResolution, string(s))
				}
				seq = append(seq, placed{d: c.elements[idx], origPos: idx})
			case *Descriptor:
				seq = append(seq, placed{d: s, origPos: -1})
			}
		}
	}

	out := &Chain{elements: make([]*Descriptor, len(seq))}
	for i, p := range seq {
		out.elements[i] = p.d
	}
	out.indexNames()

	out.wiring = make([][]Input, len(seq))
	for j, p := range seq {
		var newPrev *Descriptor
		if j > 0 {
			newPrev = seq[j-1].d
		}
		if p.origPos >= 0 {
			var origPrev *Descriptor
			if p.origPos > 0 {
				origPrev = c.elements[p.origPos-1]
			}
			if origPrev == newPrev {
				// Neighborhood unchanged: preserve the original wiring.
				out.wiring[j] = c.wiring[p.origPos]
				continue
			}
			out.wiring[j] = rewire(p.d, origPrev, newPrev)
			continue
		}
		out.wiring[j] = rewire(p.d, nil, newPrev)
	}
	return out, nil
}

// rewire recomputes the effective inputs for an element whose neighbors
// changed. Declared inputs that referenced the displaced predecessor are
// redirected to the new one, keeping their slot and output index; at the
// head of a chain they become explicit skips. An element with no
// remaining declared inputs is auto-wired to its new predecessor.
func rewire(d *Descriptor, oldPrev, newPrev *Descriptor) []Input {
	declared := d.Inputs()
	eff := make([]Input, 0, len(declared))
	for _, in := range declared {
		if oldPrev != nil && in.refersTo(oldPrev) {
			if newPrev != nil {
				eff = append(eff, FromDescriptor(newPrev).WithOutput(in.Output()))
			} else {
				eff = append(eff, NoInput())
			}
			continue
		}
		eff = append(eff, in)
	}
	if len(eff) == 0 && newPrev != nil {
		eff = []Input{FromDescriptor(newPrev)}
	}
	return eff
}

// WiringAt exposes the effective input list at a position, mainly for
// inspection and tests. The returned slice is a copy.
func (c *Chain) WiringAt(i int) ([]Input, error) {
	idx, ok := c.normalize(i)
	if !ok {
		return nil, fmt.Errorf("%w: chain index %d out of range (len %d)", ErrValidation, i, len(c.elements))
	}
	return append([]Input(nil), c.wiring[idx]...), nil
}
