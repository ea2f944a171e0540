package flow

import "github.com/pkg/errors"

// Inverter flips Success and Failure, passing Running through unchanged.
type Inverter struct {
	child Node
}

// NewInverter wraps child, inverting its terminal result.
func NewInverter(child Node) *Inverter { return &Inverter{child: child} }

func (d *Inverter) Tick(ctx *Context) Status {
	switch d.child.Tick(ctx) {
	case Success:
		return Failure
	case Failure:
		return Success
	default:
		return Running
	}
}

func (d *Inverter) Reset(ctx *Context, fireExitEvents bool) {
	d.child.Reset(ctx, fireExitEvents)
}

// Succeeder ticks its child and always reports Success once the child
// settles, masking Failure. Running still passes through.
type Succeeder struct {
	child Node
}

func NewSucceeder(child Node) *Succeeder { return &Succeeder{child: child} }

func (d *Succeeder) Tick(ctx *Context) Status {
	if d.child.Tick(ctx) == Running {
		return Running
	}
	return Success
}

func (d *Succeeder) Reset(ctx *Context, fireExitEvents bool) {
	d.child.Reset(ctx, fireExitEvents)
}

// Failer is Succeeder's mirror: always reports Failure once the child
// settles.
type Failer struct {
	child Node
}

func NewFailer(child Node) *Failer { return &Failer{child: child} }

func (d *Failer) Tick(ctx *Context) Status {
	if d.child.Tick(ctx) == Running {
		return Running
	}
	return Failure
}

func (d *Failer) Reset(ctx *Context, fireExitEvents bool) {
	d.child.Reset(ctx, fireExitEvents)
}

// repeatState is Repeat's per-call-depth state: how many times the child
// has succeeded so far this round.
type repeatState struct {
	iteration int
}

// Repeat ticks its child to completion N times, succeeding once the Nth
// success lands; any child Failure resets the count and fails the node
// immediately. N must be positive; NewRepeat panics on a non-positive
// count per spec.md §7's "constructor-time contract violation" error
// class for flow-tree node constructors.
type Repeat struct {
	child Node
	n     int
	state []repeatState
}

// NewRepeat creates a Repeat(n) decorator. Panics if n <= 0.
func NewRepeat(n int, child Node) *Repeat {
	if n <= 0 {
		panic(errors.Errorf("flow: Repeat count must be positive, got %d", n))
	}
	return &Repeat{child: child, n: n, state: make([]repeatState, callDepthSlots)}
}

func (d *Repeat) at(depth int) *repeatState {
	return &d.state[depth]
}

func (d *Repeat) Tick(ctx *Context) Status {
	depth := ctx.Depth()
	st := d.at(depth)

	result := d.child.Tick(ctx)
	if result == Running {
		return Running
	}
	d.child.Reset(ctx, false)

	if result == Failure {
		st.iteration = 0
		return Failure
	}

	st.iteration++
	if st.iteration >= d.n {
		st.iteration = 0
		return Success
	}
	return Running
}

func (d *Repeat) Reset(ctx *Context, fireExitEvents bool) {
	d.state = make([]repeatState, callDepthSlots)
	d.child.Reset(ctx, fireExitEvents)
}

// retryState is Retry's per-call-depth state: how many failed attempts
// have been made so far this round.
type retryState struct {
	attempts int
}

// Retry re-attempts a failed child up to N times, succeeding as soon as
// one attempt succeeds, and failing only after the Nth failed attempt.
// N must be positive.
type Retry struct {
	child Node
	n     int
	state []retryState
}

// NewRetry creates a Retry(n) decorator. Panics if n <= 0.
func NewRetry(n int, child Node) *Retry {
	if n <= 0 {
		panic(errors.Errorf("flow: Retry count must be positive, got %d", n))
	}
	return &Retry{child: child, n: n, state: make([]retryState, callDepthSlots)}
}

func (d *Retry) at(depth int) *retryState {
	return &d.state[depth]
}

func (d *Retry) Tick(ctx *Context) Status {
	depth := ctx.Depth()
	st := d.at(depth)

	result := d.child.Tick(ctx)
	if result == Running {
		return Running
	}
	d.child.Reset(ctx, false)

	if result == Success {
		st.attempts = 0
		return Success
	}

	st.attempts++
	if st.attempts >= d.n {
		st.attempts = 0
		return Failure
	}
	return Running
}

func (d *Retry) Reset(ctx *Context, fireExitEvents bool) {
	d.state = make([]retryState, callDepthSlots)
	d.child.Reset(ctx, fireExitEvents)
}

// RepeatUntilSuccess re-ticks its child indefinitely, resetting it after
// every Failure, until it succeeds.
type RepeatUntilSuccess struct {
	child Node
}

func NewRepeatUntilSuccess(child Node) *RepeatUntilSuccess {
	return &RepeatUntilSuccess{child: child}
}

func (d *RepeatUntilSuccess) Tick(ctx *Context) Status {
	result := d.child.Tick(ctx)
	switch result {
	case Success:
		return Success
	case Failure:
		d.child.Reset(ctx, false)
		return Running
	default:
		return Running
	}
}

func (d *RepeatUntilSuccess) Reset(ctx *Context, fireExitEvents bool) {
	d.child.Reset(ctx, fireExitEvents)
}

// RepeatUntilFail is RepeatUntilSuccess's mirror: re-ticks indefinitely,
// resetting after every Success, until the child fails.
type RepeatUntilFail struct {
	child Node
}

func NewRepeatUntilFail(child Node) *RepeatUntilFail {
	return &RepeatUntilFail{child: child}
}

func (d *RepeatUntilFail) Tick(ctx *Context) Status {
	result := d.child.Tick(ctx)
	switch result {
	case Failure:
		return Failure
	case Success:
		d.child.Reset(ctx, false)
		return Running
	default:
		return Running
	}
}

func (d *RepeatUntilFail) Reset(ctx *Context, fireExitEvents bool) {
	d.child.Reset(ctx, fireExitEvents)
}

// timeoutState is Timeout's per-call-depth state: ticks elapsed since this
// invocation of the child started running.
type timeoutState struct {
	elapsed int64
	started bool
}

// Timeout fails the node if its child has not settled within Ticks ticks
// of DeltaTicks accumulation, per spec.md §5 "Flow Tree Timeout nodes
// enforce per-node tick budgets, returning Failure on expiry."
type Timeout struct {
	child Node
	ticks int64
	state []timeoutState
}

// NewTimeout creates a Timeout(ticks) decorator. Panics if ticks <= 0.
func NewTimeout(ticks int64, child Node) *Timeout {
	if ticks <= 0 {
		panic(errors.Errorf("flow: Timeout ticks must be positive, got %d", ticks))
	}
	return &Timeout{child: child, ticks: ticks, state: make([]timeoutState, callDepthSlots)}
}

func (d *Timeout) at(depth int) *timeoutState {
	return &d.state[depth]
}

func (d *Timeout) Tick(ctx *Context) Status {
	depth := ctx.Depth()
	st := d.at(depth)

	if !st.started {
		st.started = true
		st.elapsed = 0
	}

	result := d.child.Tick(ctx)
	if result != Running {
		*st = timeoutState{}
		return result
	}

	st.elapsed += ctx.DeltaTicks
	if st.elapsed >= d.ticks {
		d.child.Reset(ctx, true)
		*st = timeoutState{}
		return Failure
	}
	return Running
}

func (d *Timeout) Reset(ctx *Context, fireExitEvents bool) {
	d.state = make([]timeoutState, callDepthSlots)
	d.child.Reset(ctx, fireExitEvents)
}

// delayState is Delay's per-call-depth state: ticks elapsed since this
// invocation started waiting.
type delayState struct {
	elapsed int64
	started bool
}

// Delay waits DelayTicks ticks before ticking its child for the first
// time, then passes through the child's result on every subsequent tick.
// Delay(seconds) in the spec's node palette is realized here in ticks,
// matching spec.md §3's "delta_ticks is the authoritative monotonic time
// unit; delta_seconds is a derived convenience" — the host converts a
// seconds-denominated authoring value to ticks at build time.
type Delay struct {
	child      Node
	delayTicks int64
	state      []delayState
}

// NewDelay creates a Delay(delayTicks) decorator.
func NewDelay(delayTicks int64, child Node) *Delay {
	return &Delay{child: child, delayTicks: delayTicks, state: make([]delayState, callDepthSlots)}
}

func (d *Delay) at(depth int) *delayState {
	return &d.state[depth]
}

func (d *Delay) Tick(ctx *Context) Status {
	depth := ctx.Depth()
	st := d.at(depth)

	if !st.started {
		st.started = true
	}
	if st.elapsed < d.delayTicks {
		st.elapsed += ctx.DeltaTicks
		if st.elapsed < d.delayTicks {
			return Running
		}
	}

	result := d.child.Tick(ctx)
	if result != Running {
		*st = delayState{}
	}
	return result
}

func (d *Delay) Reset(ctx *Context, fireExitEvents bool) {
	d.state = make([]delayState, callDepthSlots)
	d.child.Reset(ctx, fireExitEvents)
}

// Guard ticks its child only while Predicate holds; while the predicate is
// false, Guard reports Failure without ticking the child at all.
type Guard struct {
	child     Node
	predicate func(*Context) bool
}

// NewGuard creates a Guard decorator gating child on predicate.
func NewGuard(predicate func(*Context) bool, child Node) *Guard {
	return &Guard{child: child, predicate: predicate}
}

func (d *Guard) Tick(ctx *Context) Status {
	if !d.predicate(ctx) {
		return Failure
	}
	return d.child.Tick(ctx)
}

func (d *Guard) Reset(ctx *Context, fireExitEvents bool) {
	d.child.Reset(ctx, fireExitEvents)
}

// eventState is Event's per-call-depth state: whether on_enter has fired
// for this invocation without a matching on_exit yet.
type eventState struct {
	entered bool
}

// Event fires OnEnter the first tick a previously-not-running child starts
// running or settles, and fires OnExit once the child leaves the running
// state (or on Reset with fireExitEvents=true, per spec.md §4.G, in which
// case OnExit is invoked as though the child had just failed).
type Event struct {
	child   Node
	onEnter func(*Context)
	onExit  func(*Context, Status)
	state   []eventState
}

// NewEvent creates an Event decorator. Either callback may be nil.
func NewEvent(onEnter func(*Context), onExit func(*Context, Status), child Node) *Event {
	return &Event{child: child, onEnter: onEnter, onExit: onExit, state: make([]eventState, callDepthSlots)}
}

func (d *Event) at(depth int) *eventState {
	return &d.state[depth]
}

func (d *Event) Tick(ctx *Context) Status {
	depth := ctx.Depth()
	st := d.at(depth)

	if !st.entered {
		st.entered = true
		if d.onEnter != nil {
			d.onEnter(ctx)
		}
	}

	result := d.child.Tick(ctx)
	if result != Running {
		st.entered = false
		if d.onExit != nil {
			d.onExit(ctx, result)
		}
	}
	return result
}

func (d *Event) Reset(ctx *Context, fireExitEvents bool) {
	for i := range d.state {
		if d.state[i].entered && fireExitEvents && d.onExit != nil {
			d.onExit(ctx, Failure)
		}
	}
	d.state = make([]eventState, callDepthSlots)
	d.child.Reset(ctx, fireExitEvents)
}
