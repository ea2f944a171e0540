// Package pipeline implements the system dispatch layer described in
// spec.md §4.E: an ordered list of systems, each with a dispatch mode
// (Serial, Parallel, MessageQueue) and an entity filter, run once per
// frame phase. Grounded on the teacher's engine/world.go (UpdateLocked's
// priority-ordered serial loop) and engine/query.go (the store-intersection
// query builder, generalized here to a single-kind-set Query).
package pipeline

import (
	"context"
	"sort"
	"sync"

	"github.com/lixenwraith/tickframe/entity"
	"github.com/lixenwraith/tickframe/handle"
	"golang.org/x/sync/errgroup"
)

// DispatchMode selects how a System's Update is fanned out across the
// entities matched by its Query.
type DispatchMode int

const (
	// Serial calls Update once per matched entity, in registry order.
	Serial DispatchMode = iota
	// Parallel calls Update once per matched entity, concurrently, bounded
	// by the maxConcurrency given to NewPipeline. The order of those calls
	// across entities is not defined.
	Parallel
	// MessageQueue calls Update exactly once per dispatch, with the zero
	// handle — for systems that drain a shared queue rather than acting on
	// per-entity state. Its Query, if any, is ignored.
	MessageQueue
)

// System is one stage of a pipeline. Lower Priority values run first,
// matching the teacher's "Lower values run first" convention in
// engine/ecs.go.
type System interface {
	Name() string
	Priority() int
	Mode() DispatchMode
	Query() *Query
	// Enabled reports whether this system should run this dispatch. A
	// disabled system is skipped entirely — not even its Query is
	// evaluated — per spec.md §4.E: "If !system.is_enabled, skip."
	Enabled() bool
	Update(ctx context.Context, h handle.Handle) error
}

// Pipeline holds an ordered, priority-sorted set of systems and dispatches
// them against a Registry's live entities.
type Pipeline struct {
	mu             sync.RWMutex
	systems        []System
	maxConcurrency int
}

// NewPipeline creates an empty pipeline. maxConcurrency bounds Parallel
// systems' fan-out; zero or negative selects an unbounded errgroup.
func NewPipeline(maxConcurrency int) *Pipeline {
	return &Pipeline{maxConcurrency: maxConcurrency}
}

// AddSystem appends a system and re-sorts the pipeline by ascending
// priority (stable, so equal-priority systems keep registration order).
func (p *Pipeline) AddSystem(s System) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.systems = append(p.systems, s)
	sort.SliceStable(p.systems, func(i, j int) bool {
		return p.systems[i].Priority() < p.systems[j].Priority()
	})
}

// Systems returns a snapshot of the registered systems in dispatch order.
func (p *Pipeline) Systems() []System {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]System, len(p.systems))
	copy(out, p.systems)
	return out
}

// Run dispatches every system in priority order against reg's live,
// non-cleanup-marked entities. It returns the first error encountered; for
// a Parallel system, that is the first error any of its per-entity calls
// returned, after all its goroutines have finished.
func (p *Pipeline) Run(ctx context.Context, reg *entity.Registry) error {
	for _, s := range p.Systems() {
		if err := p.runOne(ctx, reg, s); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) runOne(ctx context.Context, reg *entity.Registry, s System) error {
	if !s.Enabled() {
		return nil
	}

	if s.Mode() == MessageQueue {
		return s.Update(ctx, handle.Handle{})
	}

	matched := ActiveEntityQuery(reg, s.Query())

	if s.Mode() == Serial {
		for _, h := range matched {
			if err := s.Update(ctx, h); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if p.maxConcurrency > 0 {
		g.SetLimit(p.maxConcurrency)
	}
	for _, h := range matched {
		h := h
		g.Go(func() error { return s.Update(gctx, h) })
	}
	return g.Wait()
}

// ActiveEntityQuery returns every handle in reg that is alive, not marked
// for cleanup, and matches q. A nil query matches every live entity.
func ActiveEntityQuery(reg *entity.Registry, q *Query) []handle.Handle {
	all := reg.AllEntities()
	out := make([]handle.Handle, 0, len(all))
	for _, h := range all {
		ctx, ok := reg.TryGetContext(h)
		if !ok || !ctx.Alive || ctx.MarkedForCleanup {
			continue
		}
		if q != nil && !q.Matches(h) {
			continue
		}
		out = append(out, h)
	}
	return out
}
