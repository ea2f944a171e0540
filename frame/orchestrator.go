// Package frame implements the fixed six-phase frame loop described in
// spec.md §4.F: Collision, Message, Decision, Execution, Reconciliation,
// Cleanup. Grounded on the teacher's engine/clock_scheduler.go processTick,
// whose numbered comments ("1. Sync Time", "2. Initial Settling", ...) are
// the direct model for the phase list, and whose RunSafe-wrapped body is
// the model for running the whole frame under one update lock.
package frame

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/tickframe/entity"
	"github.com/lixenwraith/tickframe/handle"
	"github.com/lixenwraith/tickframe/pipeline"
	"github.com/lixenwraith/tickframe/status"
	"github.com/lixenwraith/tickframe/step"
)

// Phase names one of the six fixed stages of a frame.
type Phase string

const (
	Collision      Phase = "collision"
	Message        Phase = "message"
	Decision       Phase = "decision"
	Execution      Phase = "execution"
	Reconciliation Phase = "reconciliation"
	Cleanup        Phase = "cleanup"
)

// phaseOrder is the fixed, non-configurable phase sequence.
var phaseOrder = [...]Phase{Collision, Message, Decision, Execution, Reconciliation, Cleanup}

// StepQueuesOf returns the command queues an entity owns, for step-draining
// during the Message phase. Supplied by the host application, since only it
// knows how an entity's queues are organized.
type StepQueuesOf func(h handle.Handle) []step.Queue

// Destroyer actually removes an entity from its owning arena. Supplied by
// the host application; the orchestrator only knows which handles are
// pending destruction, not which arena owns them.
type Destroyer func(h handle.Handle)

// Orchestrator runs one entity registry through the fixed six-phase frame
// loop, once per Tick (or per Update/LateUpdate pair). All mutation happens under a single update
// lock, mirroring the teacher's RunSafe/updateMutex critical section.
type Orchestrator struct {
	updateMu sync.Mutex

	registry  *entity.Registry
	pipelines map[Phase]*pipeline.Pipeline

	stepProcessor *step.Processor
	queuesOf      StepQueuesOf
	destroy       Destroyer

	frameNumber uint64

	statFrameNumber *status.AtomicFloat
	statEntityCount *atomic.Int64
}

// Options configures a new Orchestrator. Registry is required; QueuesOf,
// Destroy, StepProcessor, and Status may be left zero (a nil QueuesOf
// skips the Message-phase queue drain).
type Options struct {
	Registry      *entity.Registry
	QueuesOf      StepQueuesOf
	Destroy       Destroyer
	StepProcessor *step.Processor
	Status        *status.Registry
}

// NewOrchestrator builds an Orchestrator with one empty pipeline per phase.
func NewOrchestrator(opts Options) *Orchestrator {
	sp := opts.StepProcessor
	if sp == nil {
		sp = step.NewProcessorWithStatus(opts.Status)
	}

	o := &Orchestrator{
		registry:      opts.Registry,
		pipelines:     make(map[Phase]*pipeline.Pipeline, len(phaseOrder)),
		stepProcessor: sp,
		queuesOf:      opts.QueuesOf,
		destroy:       opts.Destroy,
	}
	for _, p := range phaseOrder {
		o.pipelines[p] = pipeline.NewPipeline(0)
	}
	if opts.Status != nil {
		o.statFrameNumber = opts.Status.Floats.Get("frame.number")
		o.statEntityCount = opts.Status.Ints.Get("entity.count")
	}
	return o
}

// AddSystem registers a system under the given phase's pipeline.
func (o *Orchestrator) AddSystem(phase Phase, s pipeline.System) {
	o.pipelines[phase].AddSystem(s)
}

// Pipeline exposes a phase's pipeline directly, for callers that want to
// inspect registered systems.
func (o *Orchestrator) Pipeline(phase Phase) *pipeline.Pipeline {
	return o.pipelines[phase]
}

// FrameNumber returns the number of frames completed so far.
func (o *Orchestrator) FrameNumber() uint64 {
	return o.frameNumber
}

// Update runs the first half of one frame — Collision, Message, Decision,
// Execution — under the orchestrator's single update lock. Per spec.md
// §4.F, Update and LateUpdate are separate entry points so host
// integration may insert rendering or physics between them; the ordering
// within each half is fixed and every call site must follow Update with
// exactly one matching LateUpdate before the next Update.
func (o *Orchestrator) Update(ctx context.Context) error {
	o.updateMu.Lock()
	defer o.updateMu.Unlock()

	if err := o.runPhase(ctx, Collision); err != nil {
		return err
	}
	if err := o.runMessagePhase(ctx); err != nil {
		return err
	}
	if err := o.runPhase(ctx, Decision); err != nil {
		return err
	}
	return o.runPhase(ctx, Execution)
}

// LateUpdate runs the second half of one frame — Reconciliation, Cleanup —
// and completes the tick: the frame counter and entity-count gauge advance
// here, after Cleanup has drained pending destroys.
func (o *Orchestrator) LateUpdate(ctx context.Context) error {
	o.updateMu.Lock()
	defer o.updateMu.Unlock()

	if err := o.runPhase(ctx, Reconciliation); err != nil {
		return err
	}
	if err := o.runCleanupPhase(ctx); err != nil {
		return err
	}

	o.frameNumber++
	if o.statFrameNumber != nil {
		o.statFrameNumber.Set(float64(o.frameNumber))
	}
	if o.statEntityCount != nil {
		o.statEntityCount.Store(int64(len(o.registry.AllEntities())))
	}
	return nil
}

// Tick runs a full frame: Update followed by LateUpdate, for callers that
// have no need to interleave host work between the two halves.
func (o *Orchestrator) Tick(ctx context.Context) error {
	if err := o.Update(ctx); err != nil {
		return err
	}
	return o.LateUpdate(ctx)
}

func (o *Orchestrator) runPhase(ctx context.Context, phase Phase) error {
	return o.pipelines[phase].Run(ctx, o.registry)
}

// runMessagePhase drains every live entity's command queues to a fixpoint
// before running any Message-phase systems, per spec.md §4.F: message
// delivery must settle before decision-making sees it.
func (o *Orchestrator) runMessagePhase(ctx context.Context) error {
	if o.queuesOf != nil {
		for _, h := range o.registry.AllEntities() {
			queues := o.queuesOf(h)
			if len(queues) == 0 {
				continue
			}
			for _, q := range queues {
				if nf, ok := q.(interface{ MergeNextFrameToPending() }); ok {
					nf.MergeNextFrameToPending()
				}
			}
			if _, err := o.stepProcessor.ProcessAllSteps(h, queues); err != nil {
				return err
			}
		}
	}
	return o.runPhase(ctx, Message)
}

// runCleanupPhase runs Cleanup-phase systems, then drains the registry's
// pending-destroy list and hands each handle to the host-supplied
// Destroyer, per spec.md §4.B.
func (o *Orchestrator) runCleanupPhase(ctx context.Context) error {
	if err := o.runPhase(ctx, Cleanup); err != nil {
		return err
	}

	for _, h := range o.registry.DrainPendingDestroys() {
		if o.destroy != nil {
			o.destroy(h)
		}
		o.registry.Unregister(h)
	}
	return nil
}
