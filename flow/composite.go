package flow

// Sequence ticks children in order, returning Running or Failure as soon
// as one does, and Success only once every child has succeeded on this
// pass. Per-depth "which child are we on" state lets the same Sequence
// instance be re-entered at a deeper call depth (via SubTree) without
// corrupting an in-progress evaluation at a shallower depth.
type Sequence struct {
	children []Node
	cursor   []int
}

// NewSequence creates a Sequence over the given children, evaluated
// left to right.
func NewSequence(children ...Node) *Sequence {
	return &Sequence{children: children, cursor: make([]int, callDepthSlots)}
}

func (s *Sequence) at(depth int) *int {
	return &s.cursor[depth]
}

func (s *Sequence) Tick(ctx *Context) Status {
	depth := ctx.Depth()
	cursor := s.at(depth)

	for *cursor < len(s.children) {
		result := s.children[*cursor].Tick(ctx)
		switch result {
		case Running:
			return Running
		case Failure:
			*cursor = 0
			return Failure
		default: // Success
			*cursor++
		}
	}
	*cursor = 0
	return Success
}

func (s *Sequence) Reset(ctx *Context, fireExitEvents bool) {
	s.cursor = make([]int, callDepthSlots)
	for _, c := range s.children {
		c.Reset(ctx, fireExitEvents)
	}
}

// Selector ticks children in order, returning Running or Success as soon
// as one does, and Failure only once every child has failed.
type Selector struct {
	children []Node
	cursor   []int
}

// NewSelector creates a Selector over the given children.
func NewSelector(children ...Node) *Selector {
	return &Selector{children: children, cursor: make([]int, callDepthSlots)}
}

func (s *Selector) at(depth int) *int {
	return &s.cursor[depth]
}

func (s *Selector) Tick(ctx *Context) Status {
	depth := ctx.Depth()
	cursor := s.at(depth)

	for *cursor < len(s.children) {
		result := s.children[*cursor].Tick(ctx)
		switch result {
		case Running:
			return Running
		case Success:
			*cursor = 0
			return Success
		default: // Failure
			*cursor++
		}
	}
	*cursor = 0
	return Failure
}

func (s *Selector) Reset(ctx *Context, fireExitEvents bool) {
	s.cursor = make([]int, callDepthSlots)
	for _, c := range s.children {
		c.Reset(ctx, fireExitEvents)
	}
}

// ParallelPolicy selects how Parallel aggregates its children's results.
type ParallelPolicy int

const (
	// AllSuccess requires every child to succeed for Parallel to succeed;
	// any single failure fails the whole node immediately.
	AllSuccess ParallelPolicy = iota
	// AnySuccess succeeds as soon as any child succeeds; fails only once
	// every child has failed.
	AnySuccess
	// Configurable succeeds once at least MinSuccesses children have
	// succeeded, failing if enough children have failed that the
	// threshold can no longer be reached.
	Configurable
)

// Parallel ticks every child every Tick until that child settles, then —
// like Join — stops re-ticking it and remembers its result, so a child
// that already returned Success or Failure is never re-executed from
// scratch while its siblings are still Running. Aggregates by Policy.
// Per-depth "settled" state lets Parallel be safely re-entered at a new
// call depth mid-evaluation.
type Parallel struct {
	children     []Node
	policy       ParallelPolicy
	minSuccesses int

	done   [][]bool
	result [][]Status
}

// NewParallel creates a Parallel node over children with the given
// aggregation policy. minSuccesses is only consulted under Configurable.
func NewParallel(policy ParallelPolicy, minSuccesses int, children ...Node) *Parallel {
	p := &Parallel{children: children, policy: policy, minSuccesses: minSuccesses}
	p.allocState()
	return p
}

func (p *Parallel) allocState() {
	p.done = make([][]bool, callDepthSlots)
	p.result = make([][]Status, callDepthSlots)
	for i := range p.done {
		p.done[i] = make([]bool, len(p.children))
		p.result[i] = make([]Status, len(p.children))
	}
}

func (p *Parallel) at(depth int) ([]bool, []Status) {
	return p.done[depth], p.result[depth]
}

func (p *Parallel) Tick(ctx *Context) Status {
	depth := ctx.Depth()
	done, result := p.at(depth)

	successes, failures := 0, 0
	for i, c := range p.children {
		if done[i] {
			if result[i] == Success {
				successes++
			} else {
				failures++
			}
			continue
		}
		switch r := c.Tick(ctx); r {
		case Success:
			done[i], result[i] = true, Success
			successes++
		case Failure:
			done[i], result[i] = true, Failure
			failures++
		}
	}

	settle := func(s Status) Status {
		for i := range done {
			done[i] = false
		}
		return s
	}

	switch p.policy {
	case AllSuccess:
		if failures > 0 {
			return settle(Failure)
		}
		if successes == len(p.children) {
			return settle(Success)
		}
		return Running
	case AnySuccess:
		if successes > 0 {
			return settle(Success)
		}
		if failures == len(p.children) {
			return settle(Failure)
		}
		return Running
	default: // Configurable
		if successes >= p.minSuccesses {
			return settle(Success)
		}
		if len(p.children)-failures < p.minSuccesses {
			return settle(Failure)
		}
		return Running
	}
}

func (p *Parallel) Reset(ctx *Context, fireExitEvents bool) {
	p.allocState()
	for _, c := range p.children {
		c.Reset(ctx, fireExitEvents)
	}
}

// Race ticks every child every tick and settles as soon as the first one
// returns a non-Running result, propagating that result. Every child is
// still ticked in the round that settles; if several settle in the same
// round, the earliest in child order decides. Per-depth
// "already settled" state lets Race be safely re-entered at a new call
// depth mid-evaluation.
type Race struct {
	children []Node
	settled  []bool
}

// NewRace creates a Race node: the first child to finish decides the
// result.
func NewRace(children ...Node) *Race {
	return &Race{children: children, settled: make([]bool, callDepthSlots)}
}

func (r *Race) at(depth int) *bool {
	return &r.settled[depth]
}

func (r *Race) Tick(ctx *Context) Status {
	depth := ctx.Depth()
	settled := r.at(depth)
	if *settled {
		*settled = false
	}

	first := Running
	for _, c := range r.children {
		if result := c.Tick(ctx); result != Running && first == Running {
			first = result
		}
	}
	if first != Running {
		*settled = true
	}
	return first
}

func (r *Race) Reset(ctx *Context, fireExitEvents bool) {
	r.settled = make([]bool, callDepthSlots)
	for _, c := range r.children {
		c.Reset(ctx, fireExitEvents)
	}
}

// Join ticks every child every tick and only settles once all children
// have finished: Success if every child succeeded, Failure if any did.
// Per-child-per-depth "failed" state persists across calls (alongside
// "done"), so a child that fails on a tick where siblings are still
// Running is not forgotten by the time they finally settle.
type Join struct {
	children []Node
	done     [][]bool
	failed   [][]bool
}

// NewJoin creates a Join node: every child must finish before Join
// settles.
func NewJoin(children ...Node) *Join {
	j := &Join{children: children}
	j.allocState()
	return j
}

func (j *Join) allocState() {
	j.done = make([][]bool, callDepthSlots)
	j.failed = make([][]bool, callDepthSlots)
	for i := range j.done {
		j.done[i] = make([]bool, len(j.children))
		j.failed[i] = make([]bool, len(j.children))
	}
}

func (j *Join) at(depth int) ([]bool, []bool) {
	return j.done[depth], j.failed[depth]
}

func (j *Join) Tick(ctx *Context) Status {
	depth := ctx.Depth()
	done, failed := j.at(depth)

	allDone := true
	for i, c := range j.children {
		if done[i] {
			continue
		}
		switch c.Tick(ctx) {
		case Running:
			allDone = false
		case Failure:
			done[i] = true
			failed[i] = true
		case Success:
			done[i] = true
		}
	}

	if !allDone {
		return Running
	}

	anyFailed := false
	for i := range done {
		anyFailed = anyFailed || failed[i]
		done[i] = false
		failed[i] = false
	}
	if anyFailed {
		return Failure
	}
	return Success
}

func (j *Join) Reset(ctx *Context, fireExitEvents bool) {
	j.allocState()
	for _, c := range j.children {
		c.Reset(ctx, fireExitEvents)
	}
}
