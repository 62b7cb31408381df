package graph

import "github.com/zjrosen/stagehand/internal/host"

// sourceKind discriminates the accepted input source shapes.
type sourceKind int

const (
	sourceNone sourceKind = iota
	sourceDescriptor
	sourceChain
	sourceObject
	sourcePath
)

// Input is one entry in a descriptor's ordered input list. Its position
// in the list is the input slot it connects to; the output index selects
// which output of the source feeds that slot (default 0). The zero value
// is an explicit none, leaving its slot unconnected.
type Input struct {
	kind   sourceKind
	desc   *Descriptor
	chain  *Chain
	obj    host.Object
	path   string
	output int
}

// FromDescriptor uses another descriptor's node as the input source. The
// descriptor does not have to be created yet; it is materialized on
// demand.
func FromDescriptor(d *Descriptor) Input {
	return Input{kind: sourceDescriptor, desc: d}
}

// FromChain uses a chain's last element as the input source. The whole
// chain is materialized on demand.
func FromChain(c *Chain) Input {
	return Input{kind: sourceChain, chain: c}
}

// FromObject uses an already-materialized host object as the input
// source.
func FromObject(obj host.Object) Input {
	return Input{kind: sourceObject, obj: obj}
}

// FromPath uses the host object at the given path as the input source.
// The path is resolved at creation time.
func FromPath(path string) Input {
	return Input{kind: sourcePath, path: path}
}

// NoInput is an explicit skip: the slot at this position stays
// unconnected.
func NoInput() Input {
	return Input{kind: sourceNone}
}

// WithOutput returns a copy of the input reading from the given output
// index of its source. Bounds are checked against the source's declared
// output count at creation time, not here.
func (in Input) WithOutput(index int) Input {
	in.output = index
	return in
}

// Output returns the selected output index.
func (in Input) Output() int { return in.output }

// IsNone reports whether the input is an explicit skip.
func (in Input) IsNone() bool { return in.kind == sourceNone }

// refersTo reports whether the input's source is the given descriptor,
// either directly or as the last element of a chain source. Chain copy
// uses this to find explicit wiring to a displaced neighbor.
func (in Input) refersTo(d *Descriptor) bool {
	switch in.kind {
	case sourceDescriptor:
		return in.desc == d
	case sourceChain:
		return in.chain.Last() == d
	default:
		return false
	}
}
