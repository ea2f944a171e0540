package flow

// action wraps a plain function as a leaf node. The node keeps no state
// of its own between ticks: whatever Status the function returns,
// Running included, is reported as is (Wait/WaitUntil below are the
// built-in leaves that track progress across ticks).
type action struct {
	fn func(*Context) Status
}

// NewAction creates a leaf that calls fn on every tick and returns its
// result directly.
func NewAction(fn func(*Context) Status) Node {
	return &action{fn: fn}
}

func (a *action) Tick(ctx *Context) Status { return a.fn(ctx) }
func (a *action) Reset(ctx *Context, fireExitEvents bool) {}

// condition is a zero-state leaf: Success if the predicate holds this
// tick, Failure otherwise. Never returns Running.
type condition struct {
	pred func(*Context) bool
}

// NewCondition creates a leaf evaluating pred fresh on every tick.
func NewCondition(pred func(*Context) bool) Node {
	return &condition{pred: pred}
}

func (c *condition) Tick(ctx *Context) Status {
	if c.pred(ctx) {
		return Success
	}
	return Failure
}
func (c *condition) Reset(ctx *Context, fireExitEvents bool) {}

// waitState is Wait's per-call-depth state: ticks elapsed since this
// invocation started waiting.
type waitState struct {
	elapsed int64
}

// Wait returns Running until Ticks ticks have elapsed since it started
// running, then Success. Wait(seconds) in the node palette is realized
// here in ticks; the host converts at tree-build time.
type Wait struct {
	ticks int64
	state []waitState
}

// NewWait creates a Wait(ticks) leaf.
func NewWait(ticks int64) *Wait {
	return &Wait{ticks: ticks, state: make([]waitState, callDepthSlots)}
}

func (w *Wait) at(depth int) *waitState {
	return &w.state[depth]
}

func (w *Wait) Tick(ctx *Context) Status {
	st := w.at(ctx.Depth())
	st.elapsed += ctx.DeltaTicks
	if st.elapsed >= w.ticks {
		st.elapsed = 0
		return Success
	}
	return Running
}

func (w *Wait) Reset(ctx *Context, fireExitEvents bool) {
	w.state = make([]waitState, callDepthSlots)
}

// WaitUntil returns Running until Predicate holds, then Success. It is a
// leaf, never a decorator, so it never wraps a child.
type WaitUntil struct {
	predicate func(*Context) bool
}

// NewWaitUntil creates a WaitUntil leaf over predicate.
func NewWaitUntil(predicate func(*Context) bool) *WaitUntil {
	return &WaitUntil{predicate: predicate}
}

func (w *WaitUntil) Tick(ctx *Context) Status {
	if w.predicate(ctx) {
		return Success
	}
	return Running
}

func (w *WaitUntil) Reset(ctx *Context, fireExitEvents bool) {}

// yieldLeaf returns Running on every tick it is reached, regardless of
// call depth. It never returns Success or Failure, so a Sequence or
// Selector that reaches it stays suspended at it until that composite is
// reset.
type yieldLeaf struct{}

// Yield is the shared stateless Yield leaf instance; Yield never needs
// per-depth state so one value is safe to reference from any number of
// trees.
var Yield Node = yieldLeaf{}

func (yieldLeaf) Tick(ctx *Context) Status              { return Running }
func (yieldLeaf) Reset(ctx *Context, fireExitEvents bool) {}

// fixedResult is a stateless leaf that always reports the same Status —
// the backing implementation for the Return/Success/Failure leaves.
type fixedResult struct {
	status Status
}

// NewReturn creates a leaf that always reports status, regardless of
// context. Used to hard-code a terminal outcome at a position in the
// tree (e.g. as a Selector's final fallback child).
func NewReturn(status Status) Node {
	return fixedResult{status: status}
}

// SuccessLeaf is the shared stateless leaf that always succeeds.
var SuccessLeaf Node = fixedResult{status: Success}

// FailureLeaf is the shared stateless leaf that always fails.
var FailureLeaf Node = fixedResult{status: Failure}

func (f fixedResult) Tick(ctx *Context) Status               { return f.status }
func (f fixedResult) Reset(ctx *Context, fireExitEvents bool) {}
