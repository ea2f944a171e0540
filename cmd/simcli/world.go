package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lixenwraith/tickframe/arena"
	"github.com/lixenwraith/tickframe/command"
	"github.com/lixenwraith/tickframe/constant"
	"github.com/lixenwraith/tickframe/entity"
	"github.com/lixenwraith/tickframe/flow"
	"github.com/lixenwraith/tickframe/frame"
	"github.com/lixenwraith/tickframe/handle"
	"github.com/lixenwraith/tickframe/pipeline"
	"github.com/lixenwraith/tickframe/status"
	"github.com/lixenwraith/tickframe/step"
)

const movementQueueName = "movement"

// actorState is the per-actor bundle of substrate objects the world's
// systems and step processor need: its handle, its patrol tree and the
// flow.Context driving it, and a stable UUID identifying the actor across
// runs (spec.md §4 domain stack: google/uuid wired into demo resource/
// entity identifiers).
type actorState struct {
	id     string
	handle handle.Handle
	queue  *command.Queue
	tree   flow.Node
	ctx    *flow.Context
}

// World wires one instance of the full substrate together: a registry,
// one arena, an orchestrator with systems in the Decision and Message
// phases, and a small set of patrolling actors.
type World struct {
	registry     *entity.Registry
	arena        *arena.Arena[ActorData]
	orchestrator *frame.Orchestrator
	movePool     *command.Pool[*MoveCommand]
	status       *status.Registry
	actors       []*actorState
}

// NewWorld spawns n actors, each waiting a staggered number of ticks
// before stepping one unit along an alternating axis, and wires the
// Decision-phase tree-ticking system and Message-phase step draining
// needed to run it.
func NewWorld(n int) *World {
	reg := entity.NewRegistry()
	reg.DeclareKind(ActorKind)

	a := arena.New[ActorData](ActorKind, nil, nil)
	movePool := command.NewPool[*MoveCommand](constant.DefaultCommandPoolCapacity, func() *MoveCommand {
		return &MoveCommand{Arena: a}
	})

	statusReg := status.NewRegistry()

	w := &World{
		registry: reg,
		arena:    a,
		movePool: movePool,
		status:   statusReg,
	}

	for i := 0; i < n; i++ {
		h := a.Create()
		reg.Register(h)

		queue := command.NewQueue(movementQueueName, true)
		entCtx, _ := reg.TryGetContext(h)
		entCtx.Queues[movementQueueName] = queue

		dx, dy := 1.0, 0.0
		if i%2 == 1 {
			dx, dy = 0.0, 1.0
		}
		waitTicks := int64(2 + i%3)

		as := &actorState{
			id:     uuid.NewString(),
			handle: h,
			queue:  queue,
			tree:   buildPatrolTree(waitTicks, dx, dy, queue, movePool),
			ctx:    flow.NewContext(h),
		}
		as.ctx.DeltaTicks = 1
		w.actors = append(w.actors, as)
	}

	w.orchestrator = frame.NewOrchestrator(frame.Options{
		Registry: reg,
		QueuesOf: w.queuesOf,
		Destroy:  func(h handle.Handle) { a.Destroy(h) },
		Status:   statusReg,
	})
	w.orchestrator.AddSystem(frame.Decision, &patrolSystem{world: w})

	return w
}

func (w *World) queuesOf(h handle.Handle) []step.Queue {
	entCtx, ok := w.registry.TryGetContext(h)
	if !ok {
		return nil
	}
	q, ok := entCtx.Queues[movementQueueName].(*command.Queue)
	if !ok {
		return nil
	}
	return []step.Queue{q}
}

// patrolSystem ticks every actor's flow tree once per frame, in the
// Decision phase. It runs as a MessageQueue-mode system: the world's own
// actor list, not a registry query, is the thing being iterated, matching
// spec.md §4.E's carve-out for systems that drive shared state rather
// than per-entity state.
type patrolSystem struct {
	world *World
}

func (s *patrolSystem) Name() string               { return "patrol" }
func (s *patrolSystem) Priority() int              { return 0 }
func (s *patrolSystem) Mode() pipeline.DispatchMode { return pipeline.MessageQueue }
func (s *patrolSystem) Query() *pipeline.Query      { return nil }
func (s *patrolSystem) Enabled() bool              { return true }

func (s *patrolSystem) Update(ctx context.Context, _ handle.Handle) error {
	for _, a := range s.world.actors {
		a.tree.Tick(a.ctx)
	}
	return nil
}

// RunTicks advances the world n frames, returning the number of frames
// actually completed before any error (spec.md §7: step non-convergence
// is fatal and surfaces the offending step count via the wrapped error).
func (w *World) RunTicks(ctx context.Context, n int) (int, error) {
	for i := 0; i < n; i++ {
		if err := w.orchestrator.Tick(ctx); err != nil {
			return i, errors.Wrapf(err, "simcli: frame %d", i)
		}
	}
	return n, nil
}

// Digest renders a deterministic, human-readable summary of every live
// actor's position, sorted by id so output does not depend on arena slot
// order.
func (w *World) Digest() string {
	type row struct {
		id   string
		x, y float64
	}
	rows := make([]row, 0, len(w.actors))
	for _, a := range w.actors {
		data, ok := w.arena.Get(a.handle)
		if !ok {
			continue
		}
		rows = append(rows, row{id: a.id, x: data.X, y: data.Y})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].id < rows[j].id })

	var b strings.Builder
	fmt.Fprintf(&b, "frame=%d actors=%d\n", w.orchestrator.FrameNumber(), len(rows))
	for _, r := range rows {
		fmt.Fprintf(&b, "%s x=%.1f y=%.1f\n", r.id, r.x, r.y)
	}
	for _, s := range w.status.Snapshot() {
		fmt.Fprintf(&b, "metric %s=%s\n", s.Name, s.Value)
	}
	return b.String()
}
