// Package command implements the per-entity, per-queue-kind command queue
// described in spec.md §4.C: a pooled, priority-sorted, signal-deduplicated
// triple buffer (current/pending/nextFrame) with step-to-convergence
// semantics.
package command

import "github.com/lixenwraith/tickframe/handle"

// Command is the pooled, executable unit of deferred state change. A
// concrete command type implements Execute to apply itself to an entity
// and ResetToDefault to return every mutable field to its zero/default
// value before the instance goes back to its pool — the hand-rolled
// equivalent of the source's generated reset routine (spec.md §4.C).
type Command interface {
	// Execute applies the command to the entity addressed by h.
	Execute(h handle.Handle)
	// ResetToDefault clears all non-static fields. Called by the pool
	// immediately before an instance is recycled.
	ResetToDefault()
}

// Timing selects which buffer an enqueued command lands in.
type Timing int

const (
	// NextStep schedules the command for the next step of the current
	// frame's Message phase.
	NextStep Timing = iota
	// NextFrame defers the command to the first step of the next frame's
	// Message phase.
	NextFrame
)
