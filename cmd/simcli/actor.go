// Command simcli is a demo host exercising the tickframe substrate end to
// end: it spawns a handful of actor entities, wires a command queue and a
// flow tree to each, runs the Frame Orchestrator for N ticks, and prints a
// snapshot digest of the resulting state. It stands in the same
// cmd/* -to- engine/ relationship the teacher repo's cmd/lixen-map and
// cmd/focus-catalog tools have to its engine package: a host, not part of
// the core.
package main

import (
	"github.com/lixenwraith/tickframe/arena"
	"github.com/lixenwraith/tickframe/command"
	"github.com/lixenwraith/tickframe/flow"
	"github.com/lixenwraith/tickframe/handle"
)

// ActorKind is the one entity kind this demo declares.
const ActorKind handle.Kind = 1

// ActorData is the per-slot payload stored in the actor arena: an
// authoritative position, mutated only by MoveCommand during the Message
// phase per spec.md §5's mutation-window rule.
type ActorData struct {
	X, Y float64
}

// MoveCommand displaces an actor by (DX, DY). Arena is the "static" field
// ResetToDefault leaves untouched (set once at pool-construction time);
// DX/DY are the per-use fields cleared before the instance returns to its
// pool.
type MoveCommand struct {
	Arena  *arena.Arena[ActorData]
	DX, DY float64
}

func (c *MoveCommand) Execute(h handle.Handle) {
	c.Arena.GetMut(h, func(d *ActorData) {
		d.X += c.DX
		d.Y += c.DY
	})
}

func (c *MoveCommand) ResetToDefault() {
	c.DX, c.DY = 0, 0
}

// buildPatrolTree returns a fresh flow tree for one actor: wait
// waitTicks, then step by (dx, dy), forever. Each actor gets its own node
// instances (Wait's and Sequence's per-depth state lives on the node, not
// keyed by entity) so two actors patrolling concurrently never alias each
// other's progress.
func buildPatrolTree(waitTicks int64, dx, dy float64, queue *command.Queue, pool *command.Pool[*MoveCommand]) flow.Node {
	step := flow.NewAction(func(ctx *flow.Context) flow.Status {
		command.Enqueue(queue, pool, 0, false, command.NextStep, func(c *MoveCommand) {
			c.DX, c.DY = dx, dy
		})
		return flow.Success
	})
	return flow.NewSequence(flow.NewWait(waitTicks), step)
}
