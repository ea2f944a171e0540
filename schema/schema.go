// Package schema loads a declarative YAML description of entity kinds,
// command-queue kinds, commands, and flow trees, the way
// engine/fsm/loader.go and engine/fsm/file_loader.go load a textual FSM
// description into fsm.Machine[T] in the teacher repo. Per spec.md §9's
// "small build-time generator emitting plain code from a declarative
// schema", entity-kind and command declarations stay data here — a host
// still supplies the generated or hand-written Go types (the handle,
// arena, and queue-accessor code generics require at compile time) and
// uses Document.Validate to catch a misnamed reference before wiring
// them up. Flow trees, which need no compile-time type per entity kind,
// are built directly into a runnable *flow.Registry by this package.
package schema

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/tickframe/flow"
)

// QueueSpec declares one command-queue kind (spec.md §6 "Command-queue
// declaration").
type QueueSpec struct {
	Name              string `yaml:"name"`
	ClearAfterExecute bool   `yaml:"clear_after_execute"`
}

// CommandSpec declares one command type (spec.md §6 "Command
// declaration"): the queue it attaches to, its priority, its pool's
// initial capacity, and whether it deduplicates as a signal.
type CommandSpec struct {
	Name                string `yaml:"name"`
	Queue               string `yaml:"queue"`
	Priority            int    `yaml:"priority"`
	PoolInitialCapacity int    `yaml:"pool_initial_capacity"`
	IsSignal            bool   `yaml:"is_signal"`
}

// EntityKindSpec declares one entity kind (spec.md §6 "Entity kind
// declaration"): its arena's initial capacity, the queue kinds it
// carries, and an optional component-composition set.
type EntityKindSpec struct {
	Name            string   `yaml:"name"`
	InitialCapacity int      `yaml:"initial_capacity"`
	Queues          []string `yaml:"queues"`
	Components      []string `yaml:"components,omitempty"`
}

// FlowNodeSpec describes one node in a flow tree. Type selects which
// flow constructor to invoke; the remaining fields are interpreted
// according to Type (see Loader.BuildFlowRegistry). Leaf and Guard
// nodes resolve Ref against the Loader's action/condition registries,
// the same "string name -> registered function" indirection
// engine/fsm/loader.go uses for OnEnter/OnUpdate/OnExit actions and
// transition guards.
type FlowNodeSpec struct {
	Type     string         `yaml:"type"`
	Ref      string         `yaml:"ref,omitempty"`
	Count    int            `yaml:"count,omitempty"`
	Ticks    int64          `yaml:"ticks,omitempty"`
	Policy   string         `yaml:"policy,omitempty"`
	MinOK    int            `yaml:"min_successes,omitempty"`
	Children []FlowNodeSpec `yaml:"children,omitempty"`
}

// FlowTreeSpec names one flow tree and its root node.
type FlowTreeSpec struct {
	Name string       `yaml:"name"`
	Root FlowNodeSpec `yaml:"root"`
}

// Document is the top-level shape of a schema YAML file.
type Document struct {
	Queues      []QueueSpec      `yaml:"queues"`
	Commands    []CommandSpec    `yaml:"commands"`
	EntityKinds []EntityKindSpec `yaml:"entity_kinds"`
	FlowTrees   []FlowTreeSpec   `yaml:"flow_trees"`
}

// Parse unmarshals data into a Document without validating references.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "schema: failed to unmarshal document")
	}
	return &doc, nil
}

// Validate checks every cross-reference in doc: a command's queue must
// be declared, and every entity kind's queues must be declared. It does
// not validate flow tree node references — those are resolved, and thus
// validated, by Loader.BuildFlowRegistry, since only the loader knows
// which actions and conditions a host has registered.
func (d *Document) Validate() error {
	queueNames := make(map[string]bool, len(d.Queues))
	for _, q := range d.Queues {
		queueNames[q.Name] = true
	}

	for _, c := range d.Commands {
		if !queueNames[c.Queue] {
			return errors.Errorf("schema: command %q references unknown queue %q", c.Name, c.Queue)
		}
	}
	for _, k := range d.EntityKinds {
		for _, q := range k.Queues {
			if !queueNames[q] {
				return errors.Errorf("schema: entity kind %q references unknown queue %q", k.Name, q)
			}
		}
	}
	return nil
}

// QueueByName looks up a declared queue by name.
func (d *Document) QueueByName(name string) (QueueSpec, bool) {
	for _, q := range d.Queues {
		if q.Name == name {
			return q, true
		}
	}
	return QueueSpec{}, false
}

// CommandByName looks up a declared command by name.
func (d *Document) CommandByName(name string) (CommandSpec, bool) {
	for _, c := range d.Commands {
		if c.Name == name {
			return c, true
		}
	}
	return CommandSpec{}, false
}
