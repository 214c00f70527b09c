package graph

import "slices"

// Bus holds one block of stereo audio.
type Bus [Channels][]float64

func newBus() Bus {
	var b Bus
	for ch := range b {
		b[ch] = make([]float64, RenderQuantum)
	}
	return b
}

func (b *Bus) zero() {
	for ch := range b {
		clear(b[ch])
	}
}

func (b *Bus) add(o *Bus) {
	for ch := range b {
		dst, src := b[ch], o[ch]
		for i := range dst {
			dst[i] += src[i]
		}
	}
}

// AudioNode is anything that can be the target of a connection.
type AudioNode interface {
	base() *Node
}

type processor interface {
	process(in, out *Bus, t0 float64)
}

// cycleBreaker is implemented by processors that can produce a block from
// past input only. Such nodes may close a feedback loop.
type cycleBreaker interface {
	readAhead(out *Bus, t0 float64)
	writeBehind(in *Bus)
}

// Node is the connection and rendering core shared by all node types.
type Node struct {
	ctx  *Context
	kind string
	proc processor

	inputs       []*Node
	outputs      []*Node
	paramOutputs []*Param
	params       []*Param

	in, out Bus

	renderedAt uint64
	rendering  bool

	cycleVersion uint64
	cyclic       bool
}

func newNode(ctx *Context, kind string, proc processor, params ...*Param) *Node {
	n := &Node{
		ctx:    ctx,
		kind:   kind,
		proc:   proc,
		params: params,
		in:     newBus(),
		out:    newBus(),
	}
	for _, p := range params {
		p.owner = n
	}
	return n
}

func (n *Node) base() *Node { return n }

// Context returns the owning context.
func (n *Node) Context() *Context { return n.ctx }

// Kind returns the node type name.
func (n *Node) Kind() string { return n.kind }

// Connect routes the output of n into dst and returns dst for chaining.
// Connecting the same pair twice is a no-op.
func (n *Node) Connect(dst AudioNode) AudioNode {
	d := dst.base()
	if slices.Contains(n.outputs, d) {
		return dst
	}
	n.outputs = append(n.outputs, d)
	d.inputs = append(d.inputs, n)
	n.ctx.topology++
	return dst
}

// ConnectParam routes the first channel of n into p as audio-rate modulation.
func (n *Node) ConnectParam(p *Param) {
	if slices.Contains(n.paramOutputs, p) {
		return
	}
	n.paramOutputs = append(n.paramOutputs, p)
	p.inputs = append(p.inputs, n)
	n.ctx.topology++
}

// Disconnect removes every outgoing connection of n.
func (n *Node) Disconnect() {
	for _, d := range n.outputs {
		d.inputs = slices.DeleteFunc(d.inputs, func(x *Node) bool { return x == n })
	}
	for _, p := range n.paramOutputs {
		p.inputs = slices.DeleteFunc(p.inputs, func(x *Node) bool { return x == n })
	}
	n.outputs = nil
	n.paramOutputs = nil
	n.ctx.topology++
}

// NumInputs reports the number of connected upstream nodes.
func (n *Node) NumInputs() int { return len(n.inputs) }

// NumOutputs reports the number of connections leaving n, param connections included.
func (n *Node) NumOutputs() int { return len(n.outputs) + len(n.paramOutputs) }

// inCycle reports whether n can reach itself through its outputs.
func (n *Node) inCycle() bool {
	if n.cycleVersion == n.ctx.topology && n.cycleVersion != 0 {
		return n.cyclic
	}
	seen := map[*Node]bool{}
	stack := n.successors(nil)
	found := false
	for len(stack) > 0 && !found {
		m := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if m == n {
			found = true
			break
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		stack = m.successors(stack)
	}
	n.cycleVersion = n.ctx.topology
	n.cyclic = found
	return found
}

func (n *Node) successors(dst []*Node) []*Node {
	dst = append(dst, n.outputs...)
	for _, p := range n.paramOutputs {
		if p.owner != nil {
			dst = append(dst, p.owner)
		}
	}
	return dst
}

// pull renders n for block q, memoized per block. A cycle breaker inside
// a feedback loop renders from past input first and consumes the current
// input after the rest of the block has been rendered.
func (n *Node) pull(q uint64, t0 float64) *Bus {
	if n.renderedAt == q {
		return &n.out
	}
	if cb, ok := n.proc.(cycleBreaker); ok && n.inCycle() {
		cb.readAhead(&n.out, t0)
		n.renderedAt = q
		n.ctx.deferred = append(n.ctx.deferred, n)
		return &n.out
	}
	if n.rendering {
		n.ctx.logger.Debug("graph: cycle without delay renders silence", "node", n.kind)
		return &n.ctx.silence
	}

	n.rendering = true
	n.gather(q, t0)
	n.proc.process(&n.in, &n.out, t0)
	n.rendering = false
	n.renderedAt = q
	return &n.out
}

func (n *Node) gather(q uint64, t0 float64) {
	n.in.zero()
	for _, src := range n.inputs {
		n.in.add(src.pull(q, t0))
	}
	for _, p := range n.params {
		p.render(q, t0)
	}
}

// finishDeferred feeds the current block into a cycle breaker that
// already produced its output.
func (n *Node) finishDeferred(q uint64, t0 float64) {
	n.rendering = true
	n.gather(q, t0)
	n.proc.(cycleBreaker).writeBehind(&n.in)
	n.rendering = false
}
