package command

import (
	"reflect"
	"sort"
	"sync"

	"github.com/lixenwraith/tickframe/constant"
	"github.com/lixenwraith/tickframe/handle"
)

// entry is one queued command plus its ordering and pool-return metadata.
type entry struct {
	cmd      Command
	priority int
	seq      uint64
	signal   bool
	sigType  reflect.Type
	release  func()
}

// Queue is the triple-buffered, priority-sorted command queue for one
// (entity, queue-kind) pair. All mutation of the three buffers is guarded
// by a mutex, per spec.md §5: "enqueue takes the lock briefly; execute
// runs without the lock on the current buffer (since only the owning
// simulation thread executes)".
type Queue struct {
	mu sync.Mutex

	name              string
	clearAfterExecute bool

	current   []entry
	pending   []entry
	nextFrame []entry

	seq uint64

	// residentPC tracks signal-command types currently present in
	// pending+current; residentNF tracks the same for nextFrame. Spec.md
	// §8 requires "at most one instance of T" across pending+current at
	// any time — nextFrame gets its own window until the frame boundary
	// promotes it into pending.
	residentPC map[reflect.Type]bool
	residentNF map[reflect.Type]bool
}

// NewQueue creates an empty queue. clearAfterExecute controls whether
// Execute returns its current buffer to the pool automatically, or leaves
// it for an explicit Clear.
func NewQueue(name string, clearAfterExecute bool) *Queue {
	return &Queue{
		name:              name,
		clearAfterExecute: clearAfterExecute,
		current:           make([]entry, 0, constant.DefaultQueueBufferCapacity),
		pending:           make([]entry, 0, constant.DefaultQueueBufferCapacity),
		nextFrame:         make([]entry, 0, constant.DefaultQueueBufferCapacity),
		residentPC:        make(map[reflect.Type]bool),
		residentNF:        make(map[reflect.Type]bool),
	}
}

// Name returns the queue-kind name this instance was created for.
func (q *Queue) Name() string { return q.name }

// Enqueue rents a command from pool, configures it via init, and appends
// it to the buffer selected by timing. Returns false without enqueueing
// if isSignal is true and an instance of T is already resident in the
// corresponding buffer window (and the rented instance is returned to the
// pool instead of being leaked). Thread-safe.
func Enqueue[T Command](q *Queue, pool *Pool[T], priority int, isSignal bool, timing Timing, init func(T)) bool {
	cmd := pool.Acquire()
	if init != nil {
		init(cmd)
	}
	sigType := reflect.TypeOf(cmd)

	q.mu.Lock()

	resident := q.residentPC
	if timing == NextFrame {
		resident = q.residentNF
	}
	if isSignal && resident[sigType] {
		q.mu.Unlock()
		pool.Release(cmd)
		return false
	}

	seq := q.seq
	q.seq++

	e := entry{
		cmd:      cmd,
		priority: priority,
		seq:      seq,
		signal:   isSignal,
		sigType:  sigType,
		release:  func() { pool.Release(cmd) },
	}

	switch timing {
	case NextFrame:
		q.nextFrame = append(q.nextFrame, e)
		if isSignal {
			q.residentNF[sigType] = true
		}
	default:
		q.pending = append(q.pending, e)
		if isSignal {
			q.residentPC[sigType] = true
		}
	}
	q.mu.Unlock()
	return true
}

// sortEntries orders by priority descending, ties broken by sequence
// ascending. Sequence numbers are unique and assigned in enqueue order, so
// a stable sort on priority alone already preserves FIFO among equal
// priorities; the explicit seq comparison is kept so the ordering
// contract reads directly from the code.
func sortEntries(es []entry) {
	sort.SliceStable(es, func(i, j int) bool {
		if es[i].priority != es[j].priority {
			return es[i].priority > es[j].priority
		}
		return es[i].seq < es[j].seq
	})
}

// MergePendingToCurrent swaps current and pending (no copy) when pending
// is non-empty, then sorts the new current buffer into priority order. A
// queue with zero pending commands does not re-sort or reallocate —
// spec.md §8 boundary behavior.
func (q *Queue) MergePendingToCurrent() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return
	}
	q.current, q.pending = q.pending, q.current
	sortEntries(q.current)
}

// MergeNextFrameToPending moves nextFrame's entries into pending (a swap
// when pending is empty, an append otherwise), and folds nextFrame's
// signal-residency window into pending+current's. Called once at the
// start of a frame's Message phase, before any MergePendingToCurrent.
func (q *Queue) MergeNextFrameToPending() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.nextFrame) == 0 {
		return
	}
	if len(q.pending) == 0 {
		q.pending, q.nextFrame = q.nextFrame, q.pending
	} else {
		q.pending = append(q.pending, q.nextFrame...)
		q.nextFrame = q.nextFrame[:0]
	}
	for t := range q.residentNF {
		q.residentPC[t] = true
	}
	q.residentNF = make(map[reflect.Type]bool)
}

// HasPending reports whether the pending buffer currently holds commands.
// Used by step.Processor to decide whether another step is required.
func (q *Queue) HasPending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) > 0
}

// Execute runs every current entry's Execute(h) in priority order. The
// loop captures the initial length once and re-reads the live buffer
// length on every iteration, so a concurrent ForceClear mid-execute
// (spec.md §9 open question) shrinks the remaining iteration count instead
// of indexing past a now-shorter slice — force_clear's intended semantic
// is "skip the rest", not "crash".
func (q *Queue) Execute(h handle.Handle) {
	q.mu.Lock()
	n := len(q.current)
	q.mu.Unlock()

	for i := 0; i < n; i++ {
		q.mu.Lock()
		if i >= len(q.current) {
			q.mu.Unlock()
			break
		}
		cmd := q.current[i].cmd
		q.mu.Unlock()

		cmd.Execute(h)
	}

	if !q.clearAfterExecute {
		return
	}

	q.mu.Lock()
	executed := q.current
	q.current = q.current[:0]
	q.mu.Unlock()

	for _, e := range executed {
		q.releasePC(e)
	}
}

// Clear returns pending and nextFrame entries to their pools; it does not
// disturb a current buffer that may still be mid-execute.
func (q *Queue) Clear() {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	nextFrame := q.nextFrame
	q.nextFrame = nil
	q.mu.Unlock()

	for _, e := range pending {
		q.releasePC(e)
	}
	for _, e := range nextFrame {
		q.releaseNF(e)
	}
}

// ForceClear returns all three buffers to their pools. Safe to call while
// Execute is iterating current: Execute re-reads buffer length each
// iteration (see Execute's doc comment) so the in-flight loop simply ends
// early instead of touching freed entries.
func (q *Queue) ForceClear() {
	q.mu.Lock()
	current := q.current
	q.current = nil
	pending := q.pending
	q.pending = nil
	nextFrame := q.nextFrame
	q.nextFrame = nil
	q.mu.Unlock()

	for _, e := range current {
		q.releasePC(e)
	}
	for _, e := range pending {
		q.releasePC(e)
	}
	for _, e := range nextFrame {
		q.releaseNF(e)
	}
}

func (q *Queue) releasePC(e entry) {
	e.release()
	if !e.signal {
		return
	}
	q.mu.Lock()
	delete(q.residentPC, e.sigType)
	q.mu.Unlock()
}

func (q *Queue) releaseNF(e entry) {
	e.release()
	if !e.signal {
		return
	}
	q.mu.Lock()
	delete(q.residentNF, e.sigType)
	q.mu.Unlock()
}

// CurrentLen returns the number of entries in the current buffer. Test
// and diagnostic use.
func (q *Queue) CurrentLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.current)
}

// PendingLen returns the number of entries in the pending buffer.
func (q *Queue) PendingLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// NextFrameLen returns the number of entries in the nextFrame buffer.
func (q *Queue) NextFrameLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.nextFrame)
}
