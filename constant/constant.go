// Package constant holds the fixed-point configuration values for the
// simulation substrate: pool sizing, step bounds, and queue capacities.
package constant

// MaxStepDepth bounds the number of drain-and-promote iterations the step
// processor will run within a single Message phase before treating the
// queue set as non-converging. See step.Processor.
const MaxStepDepth = 100

// DefaultCommandPoolCapacity is the fallback initial capacity for a command
// type's pool when no queue registration requests a larger one.
const DefaultCommandPoolCapacity = 32

// DefaultQueueBufferCapacity is the initial slice capacity reserved for each
// of a command queue's three buffers (current, pending, nextFrame).
const DefaultQueueBufferCapacity = 8

// DefaultArenaCapacity is the initial slot count reserved for a freshly
// created per-kind arena.
const DefaultArenaCapacity = 256

// DefaultCallStackDepth is the initial capacity reserved for a flow
// context's call stack.
const DefaultCallStackDepth = 8

// MaxCallStackDepth bounds SubTree invocation recursion. A tree that pushes
// past this depth (runaway mutual recursion) fails the push rather than
// growing the call stack without bound.
const MaxCallStackDepth = 64
