package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceRunsChildrenInOrderUntilFailure(t *testing.T) {
	var log []string
	record := func(name string, status Status) Node {
		return NewAction(func(ctx *Context) Status {
			log = append(log, name)
			return status
		})
	}

	seq := NewSequence(record("a", Success), record("b", Failure), record("c", Success))
	ctx := NewContext(nil)

	assert.Equal(t, Failure, seq.Tick(ctx))
	assert.Equal(t, []string{"a", "b"}, log, "c must not run once b fails")

	// A subsequent tick from a failed sequence restarts at the first child.
	log = nil
	assert.Equal(t, Failure, seq.Tick(ctx))
	assert.Equal(t, []string{"a", "b"}, log)
}

func TestSelectorSucceedsOnFirstSuccess(t *testing.T) {
	var log []string
	record := func(name string, status Status) Node {
		return NewAction(func(ctx *Context) Status {
			log = append(log, name)
			return status
		})
	}

	sel := NewSelector(record("a", Failure), record("b", Success), record("c", Success))
	ctx := NewContext(nil)

	assert.Equal(t, Success, sel.Tick(ctx))
	assert.Equal(t, []string{"a", "b"}, log)
}

func TestResetClearsAllDepths(t *testing.T) {
	child := NewWait(3)
	ctx := NewContext(nil)

	// Advance depth 0's wait partway.
	ctx.DeltaTicks = 1
	child.Tick(ctx)
	child.Tick(ctx)
	require.Equal(t, int64(2), child.state[0].elapsed)

	// Advance depth 1's wait (simulating a SubTree invocation) partway too.
	require.True(t, ctx.Push(Frame{}))
	child.Tick(ctx)
	ctx.Pop()
	require.Equal(t, int64(1), child.state[1].elapsed)

	child.Reset(ctx, false)
	assert.Equal(t, int64(0), child.state[0].elapsed, "reset must clear per-depth state for every depth, not just the current one")
	assert.Equal(t, int64(0), child.state[1].elapsed)
}

func TestEventFiresExitOnResetWhenRequested(t *testing.T) {
	var entered, exitedWith []Status
	ev := NewEvent(
		func(ctx *Context) { entered = append(entered, Running) },
		func(ctx *Context, s Status) { exitedWith = append(exitedWith, s) },
		NewWaitUntil(func(ctx *Context) bool { return false }),
	)
	ctx := NewContext(nil)

	assert.Equal(t, Running, ev.Tick(ctx))
	assert.Len(t, entered, 1)
	assert.Empty(t, exitedWith, "on_exit must not fire while the child is still running")

	ev.Reset(ctx, true)
	require.Len(t, exitedWith, 1)
	assert.Equal(t, Failure, exitedWith[0], "reset with fireExitEvents must report Failure for an entered-but-unexited node")
}

// TestSelfRecursiveSubTreeWithRepeat is spec.md §8 end-to-end scenario 6:
// a tree containing a SubTree node referencing itself, gated by Repeat(3),
// must keep each call depth's Repeat counter independent.
func TestSelfRecursiveSubTreeWithRepeat(t *testing.T) {
	reg := NewRegistry()

	invocations := 0
	leaf := NewAction(func(ctx *Context) Status {
		invocations++
		if ctx.Depth() >= 2 {
			return Success // base case: stop recursing at depth 2
		}
		return Success
	})

	sub := NewSubTree(reg, "recur")
	repeat := NewRepeat(3, NewSelector(
		NewGuard(func(ctx *Context) bool { return ctx.Depth() < 2 }, sub),
		leaf,
	))
	tree := NewTree("recur", repeat)
	reg.Register(tree)

	ctx := NewContext(nil)
	ticks := 0
	for {
		result := tree.Tick(ctx)
		ticks++
		if result != Running {
			break
		}
		if ticks > 1000 {
			t.Fatal("tree did not converge")
		}
	}

	// Depth 2's Repeat(3) converges directly against the leaf (Guard
	// blocks recursion past depth 2) in 3 ticks. Depth 1's Repeat(3) needs
	// 3 successes from depth 2's full cycle, so 3*3=9 ticks. Depth 0's
	// Repeat(3) needs 3 successes from depth 1's full cycle, so 3*9=27
	// ticks — the same fractal shape as the total leaf invocation count,
	// since exactly one leaf call happens per external tick.
	assert.Equal(t, 27, invocations)
	assert.Equal(t, 27, ticks)
	assert.Equal(t, 0, repeat.state[0].iteration, "depth 0's counter must have reset after completing its 3 iterations")
	assert.Equal(t, 0, repeat.state[1].iteration, "depth 1's counter must be independent of depth 0's and also have reset")
	assert.Equal(t, 0, repeat.state[2].iteration, "depth 2's counter must be independent of depths 0 and 1")
}

func TestTimeoutFailsAfterBudgetExpires(t *testing.T) {
	never := NewWaitUntil(func(ctx *Context) bool { return false })
	timeout := NewTimeout(5, never)
	ctx := NewContext(nil)
	ctx.DeltaTicks = 2

	assert.Equal(t, Running, timeout.Tick(ctx))
	assert.Equal(t, Running, timeout.Tick(ctx))
	assert.Equal(t, Failure, timeout.Tick(ctx), "cumulative elapsed ticks (6) must exceed the 5-tick budget")
}

func TestRepeatRequiresPositiveCount(t *testing.T) {
	assert.Panics(t, func() {
		NewRepeat(0, SuccessLeaf)
	})
}

// countingRunner ticks Running for runTicks invocations, then reports
// result and stops counting further ticks. It exists to prove a
// settled child is never re-invoked — a plain stub node that tracks
// every call it receives.
type countingRunner struct {
	calls    int
	runTicks int
	result   Status
	settled  bool
}

func newCountingRunner(runTicks int, result Status) *countingRunner {
	return &countingRunner{runTicks: runTicks, result: result}
}

func (c *countingRunner) Tick(ctx *Context) Status {
	c.calls++
	if c.settled {
		return c.result
	}
	if c.calls <= c.runTicks {
		return Running
	}
	c.settled = true
	return c.result
}

func (c *countingRunner) Reset(ctx *Context, fireExitEvents bool) {
	c.calls = 0
	c.settled = false
}

func TestParallelDoesNotReTickASettledChild(t *testing.T) {
	// fast succeeds on its very first tick; slow stays Running for two
	// ticks before succeeding. Under AllSuccess, Parallel must stop
	// calling fast.Tick once it has settled, even though the node as a
	// whole keeps returning Running while slow catches up.
	fast := newCountingRunner(0, Success)
	slow := newCountingRunner(2, Success)
	p := NewParallel(AllSuccess, 0, fast, slow)
	ctx := NewContext(nil)

	assert.Equal(t, Running, p.Tick(ctx))
	assert.Equal(t, 1, fast.calls, "fast settled on the first tick and must not be ticked again")
	assert.Equal(t, 1, slow.calls)

	assert.Equal(t, Running, p.Tick(ctx))
	assert.Equal(t, 1, fast.calls, "fast must still not have been re-ticked")
	assert.Equal(t, 2, slow.calls)

	assert.Equal(t, Success, p.Tick(ctx))
	assert.Equal(t, 1, fast.calls, "fast must never be re-ticked across the whole evaluation")
	assert.Equal(t, 3, slow.calls)
}

func TestParallelAnySuccessSettlesAsSoonAsOneChildSucceeds(t *testing.T) {
	a := newCountingRunner(0, Failure)
	b := newCountingRunner(1, Success)
	p := NewParallel(AnySuccess, 0, a, b)
	ctx := NewContext(nil)

	assert.Equal(t, Running, p.Tick(ctx))
	assert.Equal(t, Success, p.Tick(ctx))
	assert.Equal(t, 1, a.calls, "a settled Failure on tick 1 and must not be re-ticked while b is still running")
	assert.Equal(t, 2, b.calls)
}

func TestParallelConfigurableSettlesOnThreshold(t *testing.T) {
	a := newCountingRunner(0, Success)
	b := newCountingRunner(0, Success)
	c := newCountingRunner(0, Failure)
	p := NewParallel(Configurable, 2, a, b, c)
	ctx := NewContext(nil)

	assert.Equal(t, Success, p.Tick(ctx))
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, 1, c.calls)
}

func TestParallelResetClearsSettledState(t *testing.T) {
	fast := newCountingRunner(0, Success)
	slow := newCountingRunner(1, Success)
	p := NewParallel(AllSuccess, 0, fast, slow)
	ctx := NewContext(nil)

	p.Tick(ctx)
	p.Reset(ctx, false)
	assert.Equal(t, []bool{false, false}, p.done[0], "reset clears depth-0 settled state")
	assert.Equal(t, []Status{Running, Running}, p.result[0])

	fast.calls, slow.calls = 0, 0
	assert.Equal(t, Running, p.Tick(ctx))
	assert.Equal(t, 1, fast.calls, "after reset a re-settled child should be ticked fresh, not skipped via stale state")
}

func TestRaceSettlesOnFirstNonRunningChild(t *testing.T) {
	var log []string
	record := func(name string, status Status) Node {
		return NewAction(func(ctx *Context) Status {
			log = append(log, name)
			return status
		})
	}

	r := NewRace(record("a", Running), record("b", Success), record("c", Running))
	ctx := NewContext(nil)

	assert.Equal(t, Success, r.Tick(ctx))
	assert.Equal(t, []string{"a", "b", "c"}, log, "every child ticks every round until one settles")
}

func TestRaceStaysRunningUntilAnyChildSettles(t *testing.T) {
	a := newCountingRunner(5, Success)
	b := newCountingRunner(5, Failure)
	r := NewRace(a, b)
	ctx := NewContext(nil)

	assert.Equal(t, Running, r.Tick(ctx))
	assert.Equal(t, Running, r.Tick(ctx))
	assert.Equal(t, 2, a.calls)
	assert.Equal(t, 2, b.calls)
}

func TestJoinWaitsForAllChildrenAndDoesNotReTickSettled(t *testing.T) {
	fast := newCountingRunner(0, Success)
	slow := newCountingRunner(2, Failure)
	j := NewJoin(fast, slow)
	ctx := NewContext(nil)

	assert.Equal(t, Running, j.Tick(ctx))
	assert.Equal(t, 1, fast.calls, "fast settled immediately and must not be ticked again")

	assert.Equal(t, Running, j.Tick(ctx))
	assert.Equal(t, 1, fast.calls)

	assert.Equal(t, Failure, j.Tick(ctx), "any child failing fails the whole Join once all children are done")
	assert.Equal(t, 1, fast.calls)
	assert.Equal(t, 3, slow.calls)
}

func TestJoinRemembersAnEarlySettledFailureAcrossTicks(t *testing.T) {
	// quick fails on its very first call, well before slow settles. A
	// call-local "any failed this call" flag would forget quick's failure
	// by the time slow finally settles on a later call; Join must still
	// report Failure once every child is done.
	quick := newCountingRunner(0, Failure)
	slow := newCountingRunner(2, Success)
	j := NewJoin(quick, slow)
	ctx := NewContext(nil)

	assert.Equal(t, Running, j.Tick(ctx), "quick has failed but slow is still running")
	assert.Equal(t, 1, quick.calls, "quick settled on the first tick and must not be ticked again")

	assert.Equal(t, Running, j.Tick(ctx))
	assert.Equal(t, 1, quick.calls)

	assert.Equal(t, Failure, j.Tick(ctx), "quick's earlier failure must not be forgotten once slow settles Success")
	assert.Equal(t, 1, quick.calls)
	assert.Equal(t, 3, slow.calls)
}

func TestRetrySucceedsWithinBudgetWithoutExhaustingAttempts(t *testing.T) {
	attempts := 0
	child := NewAction(func(ctx *Context) Status {
		attempts++
		if attempts < 2 {
			return Failure
		}
		return Success
	})
	retry := NewRetry(3, child)
	ctx := NewContext(nil)

	assert.Equal(t, Running, retry.Tick(ctx), "first failed attempt must not exhaust the retry budget")
	assert.Equal(t, Success, retry.Tick(ctx))
	assert.Equal(t, 2, attempts)
}

func TestRetryFailsAfterExhaustingAttempts(t *testing.T) {
	child := NewReturn(Failure)
	retry := NewRetry(2, child)
	ctx := NewContext(nil)

	assert.Equal(t, Running, retry.Tick(ctx))
	assert.Equal(t, Failure, retry.Tick(ctx), "second straight failure exhausts a Retry(2) budget")
}

func TestRetryRequiresPositiveCount(t *testing.T) {
	assert.Panics(t, func() {
		NewRetry(0, SuccessLeaf)
	})
}

func TestRepeatUntilSuccessResetsChildAfterEveryFailure(t *testing.T) {
	attempts := 0
	child := NewAction(func(ctx *Context) Status {
		attempts++
		if attempts < 3 {
			return Failure
		}
		return Success
	})
	r := NewRepeatUntilSuccess(child)
	ctx := NewContext(nil)

	assert.Equal(t, Running, r.Tick(ctx))
	assert.Equal(t, Running, r.Tick(ctx))
	assert.Equal(t, Success, r.Tick(ctx))
	assert.Equal(t, 3, attempts)
}

func TestRepeatUntilFailResetsChildAfterEverySuccess(t *testing.T) {
	attempts := 0
	child := NewAction(func(ctx *Context) Status {
		attempts++
		if attempts < 3 {
			return Success
		}
		return Failure
	})
	r := NewRepeatUntilFail(child)
	ctx := NewContext(nil)

	assert.Equal(t, Running, r.Tick(ctx))
	assert.Equal(t, Running, r.Tick(ctx))
	assert.Equal(t, Failure, r.Tick(ctx))
	assert.Equal(t, 3, attempts)
}

func TestDelayWithholdsChildUntilDelayElapses(t *testing.T) {
	ticked := 0
	child := NewAction(func(ctx *Context) Status {
		ticked++
		return Success
	})
	d := NewDelay(3, child)
	ctx := NewContext(nil)
	ctx.DeltaTicks = 1

	assert.Equal(t, Running, d.Tick(ctx))
	assert.Equal(t, Running, d.Tick(ctx))
	assert.Equal(t, 0, ticked, "child must not be ticked before the delay budget elapses")

	assert.Equal(t, Success, d.Tick(ctx))
	assert.Equal(t, 1, ticked)
}

func TestDelayPassesThroughChildResultOnceElapsed(t *testing.T) {
	child := NewReturn(Failure)
	d := NewDelay(1, child)
	ctx := NewContext(nil)
	ctx.DeltaTicks = 1

	assert.Equal(t, Failure, d.Tick(ctx))
}
