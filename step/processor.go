// Package step implements the bounded drain-to-fixpoint loop described in
// spec.md §4.D: repeatedly promote each queue's pending buffer into current
// and execute it, until no queue has anything left pending, or a configured
// depth ceiling is hit. Grounded on the teacher's
// engine/clock_scheduler.go, whose dispatchAndProcessEvents settles the
// event queue with an iteration cap, and whose processTick numbers its
// settling phases explicitly.
package step

import (
	"github.com/lixenwraith/tickframe/constant"
	"github.com/lixenwraith/tickframe/handle"
	"github.com/lixenwraith/tickframe/status"
	"github.com/pkg/errors"
)

// ErrStepDepthExceeded is returned when a drain loop fails to reach a
// fixpoint within the configured depth ceiling. Per spec.md §4.D this is a
// fatal condition surfaced to the caller, never silently swallowed.
var ErrStepDepthExceeded = errors.New("step: max step depth exceeded without reaching a fixpoint")

// Queue is the subset of command.Queue's behavior the processor needs:
// report whether another step is warranted, promote pending into current,
// and execute current against an entity. command.Queue satisfies this
// directly.
type Queue interface {
	HasPending() bool
	MergePendingToCurrent()
	Execute(h handle.Handle)
}

// Processor drives one or more Queues to a fixpoint for a single entity.
// MaxDepth bounds the number of promote/execute rounds; zero selects
// constant.MaxStepDepth. Status is optional; when set, the processor
// writes the "step.count" and "queue.pending" gauges promised by the
// substrate's metrics facade (see status.Registry).
type Processor struct {
	MaxDepth int
	Status   *status.Registry

	statStepCount    *status.AtomicFloat
	statQueuePending *status.AtomicFloat
	statPtrsCached   bool
}

// NewProcessor creates a Processor using the default step depth ceiling
// and no metrics wiring.
func NewProcessor() *Processor {
	return &Processor{MaxDepth: constant.MaxStepDepth}
}

// NewProcessorWithStatus creates a Processor using the default step depth
// ceiling, writing its gauges into reg on every ProcessAllSteps call.
func NewProcessorWithStatus(reg *status.Registry) *Processor {
	return &Processor{MaxDepth: constant.MaxStepDepth, Status: reg}
}

func (p *Processor) cacheStatPtrs() {
	if p.statPtrsCached {
		return
	}
	if p.Status != nil {
		p.statStepCount = p.Status.Floats.Get("step.count")
		p.statQueuePending = p.Status.Floats.Get("queue.pending")
	}
	p.statPtrsCached = true
}

// ProcessAllSteps drives queues for h until none of them report pending
// work, returning the number of steps taken. A step is: promote every
// queue's pending buffer into current, then execute every queue's current
// buffer, in the order queues are given. If depth exceeds the processor's
// ceiling without reaching a fixpoint, ProcessAllSteps returns
// ErrStepDepthExceeded along with the step count reached.
func (p *Processor) ProcessAllSteps(h handle.Handle, queues []Queue) (int, error) {
	p.cacheStatPtrs()

	maxDepth := p.MaxDepth
	if maxDepth <= 0 {
		maxDepth = constant.MaxStepDepth
	}

	depth := 0
	for {
		pending := countPending(queues)
		if p.statQueuePending != nil {
			p.statQueuePending.Set(float64(pending))
		}
		if pending == 0 {
			if p.statStepCount != nil {
				p.statStepCount.Add(float64(depth))
			}
			return depth, nil
		}

		depth++
		if depth > maxDepth {
			if p.statStepCount != nil {
				p.statStepCount.Add(float64(depth))
			}
			return depth, errors.Wrapf(ErrStepDepthExceeded, "entity %+v stuck after %d steps", h, depth)
		}

		for _, q := range queues {
			q.MergePendingToCurrent()
			q.Execute(h)
		}
	}
}

// countPending returns how many of queues currently report pending work —
// the "queue.pending" gauge's value for this step round.
func countPending(queues []Queue) int {
	n := 0
	for _, q := range queues {
		if q.HasPending() {
			n++
		}
	}
	return n
}
