package display

// Plan accumulates operations while a command or event runs, so the whole
// batch reaches the adapter in one write.
type Plan struct {
	Ops []Op
}

// Add appends operations to the plan.
func (p *Plan) Add(ops ...Op) {
	p.Ops = append(p.Ops, ops...)
}

// Merge appends another plan.
func (p *Plan) Merge(other Plan) {
	p.Ops = append(p.Ops, other.Ops...)
}

// Empty reports whether the plan holds no operations.
func (p *Plan) Empty() bool { return len(p.Ops) == 0 }

// Coalesce drops every bar operation shadowed by a later one for the same
// monitor. Handlers redraw bars after each step they take; only the final
// contents need to reach the adapter.
func (p *Plan) Coalesce() {
	last := make(map[int]int)
	for i, op := range p.Ops {
		if op.Kind == OpBar && op.Bar != nil {
			last[op.Bar.Monitor] = i
		}
	}
	if len(last) == 0 {
		return
	}
	out := p.Ops[:0]
	for i, op := range p.Ops {
		if op.Kind == OpBar && op.Bar != nil && last[op.Bar.Monitor] != i {
			continue
		}
		out = append(out, op)
	}
	p.Ops = out
}

// Reset drops the accumulated operations.
func (p *Plan) Reset() { p.Ops = nil }

// Kinds lists the operation kinds in order, for logs and tests.
func (p *Plan) Kinds() []OpKind {
	kinds := make([]OpKind, len(p.Ops))
	for i, op := range p.Ops {
		kinds[i] = op.Kind
	}
	return kinds
}
