package schema

import (
	"github.com/pkg/errors"

	"github.com/lixenwraith/tickframe/flow"
)

// ActionFunc backs an "action" leaf node looked up by name.
type ActionFunc func(*flow.Context) flow.Status

// ConditionFunc backs a "condition" leaf or "guard" decorator looked up
// by name.
type ConditionFunc func(*flow.Context) bool

// EventFunc backs an Event decorator's on_enter callback.
type EventFunc func(*flow.Context)

// EventExitFunc backs an Event decorator's on_exit callback.
type EventExitFunc func(*flow.Context, flow.Status)

// Loader resolves the by-name references a FlowNodeSpec carries (action,
// condition, guard, event callback) against registries a host populates
// before loading, the same resolve-by-registered-name shape
// engine/fsm/loader.go uses for its action/guard registries.
type Loader struct {
	actions    map[string]ActionFunc
	conditions map[string]ConditionFunc
	onEnter    map[string]EventFunc
	onExit     map[string]EventExitFunc
}

// NewLoader creates an empty Loader.
func NewLoader() *Loader {
	return &Loader{
		actions:    make(map[string]ActionFunc),
		conditions: make(map[string]ConditionFunc),
		onEnter:    make(map[string]EventFunc),
		onExit:     make(map[string]EventExitFunc),
	}
}

func (l *Loader) RegisterAction(name string, fn ActionFunc)       { l.actions[name] = fn }
func (l *Loader) RegisterCondition(name string, fn ConditionFunc) { l.conditions[name] = fn }
func (l *Loader) RegisterOnEnter(name string, fn EventFunc)       { l.onEnter[name] = fn }
func (l *Loader) RegisterOnExit(name string, fn EventExitFunc)    { l.onExit[name] = fn }

// BuildFlowRegistry builds every tree in doc.FlowTrees into a single
// *flow.Registry, so SubTree nodes (including self- and mutually-
// recursive ones) can reference any tree in the document by name
// regardless of declaration order: every tree is registered before any
// of them is ticked.
func (l *Loader) BuildFlowRegistry(doc *Document) (*flow.Registry, error) {
	registry := flow.NewRegistry()
	for _, spec := range doc.FlowTrees {
		root, err := l.buildNode(spec.Root, registry)
		if err != nil {
			return nil, errors.Wrapf(err, "schema: building flow tree %q", spec.Name)
		}
		registry.Register(flow.NewTree(spec.Name, root))
	}
	return registry, nil
}

func (l *Loader) buildNode(spec FlowNodeSpec, registry *flow.Registry) (flow.Node, error) {
	children, err := l.buildChildren(spec.Children, registry)
	if err != nil {
		return nil, err
	}

	switch spec.Type {
	case "sequence":
		return flow.NewSequence(children...), nil
	case "selector":
		return flow.NewSelector(children...), nil
	case "parallel":
		policy, err := parsePolicy(spec.Policy)
		if err != nil {
			return nil, err
		}
		return flow.NewParallel(policy, spec.MinOK, children...), nil
	case "race":
		return flow.NewRace(children...), nil
	case "join":
		return flow.NewJoin(children...), nil

	case "inverter":
		child, err := l.requireOneChild(spec, children)
		if err != nil {
			return nil, err
		}
		return flow.NewInverter(child), nil
	case "succeeder":
		child, err := l.requireOneChild(spec, children)
		if err != nil {
			return nil, err
		}
		return flow.NewSucceeder(child), nil
	case "failer":
		child, err := l.requireOneChild(spec, children)
		if err != nil {
			return nil, err
		}
		return flow.NewFailer(child), nil
	case "repeat":
		child, err := l.requireOneChild(spec, children)
		if err != nil {
			return nil, err
		}
		return flow.NewRepeat(spec.Count, child), nil
	case "retry":
		child, err := l.requireOneChild(spec, children)
		if err != nil {
			return nil, err
		}
		return flow.NewRetry(spec.Count, child), nil
	case "repeat_until_success":
		child, err := l.requireOneChild(spec, children)
		if err != nil {
			return nil, err
		}
		return flow.NewRepeatUntilSuccess(child), nil
	case "repeat_until_fail":
		child, err := l.requireOneChild(spec, children)
		if err != nil {
			return nil, err
		}
		return flow.NewRepeatUntilFail(child), nil
	case "timeout":
		child, err := l.requireOneChild(spec, children)
		if err != nil {
			return nil, err
		}
		return flow.NewTimeout(spec.Ticks, child), nil
	case "delay":
		child, err := l.requireOneChild(spec, children)
		if err != nil {
			return nil, err
		}
		return flow.NewDelay(spec.Ticks, child), nil
	case "guard":
		child, err := l.requireOneChild(spec, children)
		if err != nil {
			return nil, err
		}
		pred, ok := l.conditions[spec.Ref]
		if !ok {
			return nil, errors.Errorf("schema: guard references unknown condition %q", spec.Ref)
		}
		return flow.NewGuard(func(ctx *flow.Context) bool { return pred(ctx) }, child), nil
	case "event":
		child, err := l.requireOneChild(spec, children)
		if err != nil {
			return nil, err
		}
		enter := l.onEnter[spec.Ref] // nil is a valid "no callback"
		exit := l.onExit[spec.Ref]
		return flow.NewEvent(
			func(ctx *flow.Context) {
				if enter != nil {
					enter(ctx)
				}
			},
			func(ctx *flow.Context, s flow.Status) {
				if exit != nil {
					exit(ctx, s)
				}
			},
			child,
		), nil

	case "action":
		fn, ok := l.actions[spec.Ref]
		if !ok {
			return nil, errors.Errorf("schema: action node references unknown action %q", spec.Ref)
		}
		return flow.NewAction(fn), nil
	case "condition":
		pred, ok := l.conditions[spec.Ref]
		if !ok {
			return nil, errors.Errorf("schema: condition node references unknown condition %q", spec.Ref)
		}
		return flow.NewCondition(pred), nil
	case "wait":
		return flow.NewWait(spec.Ticks), nil
	case "wait_until":
		pred, ok := l.conditions[spec.Ref]
		if !ok {
			return nil, errors.Errorf("schema: wait_until node references unknown condition %q", spec.Ref)
		}
		return flow.NewWaitUntil(pred), nil
	case "yield":
		return flow.Yield, nil
	case "success":
		return flow.SuccessLeaf, nil
	case "failure":
		return flow.FailureLeaf, nil
	case "subtree":
		if spec.Ref == "" {
			return nil, errors.New("schema: subtree node requires a ref naming the target tree")
		}
		return flow.NewSubTree(registry, spec.Ref), nil

	default:
		return nil, errors.Errorf("schema: unknown flow node type %q", spec.Type)
	}
}

func (l *Loader) buildChildren(specs []FlowNodeSpec, registry *flow.Registry) ([]flow.Node, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	children := make([]flow.Node, 0, len(specs))
	for _, c := range specs {
		node, err := l.buildNode(c, registry)
		if err != nil {
			return nil, err
		}
		children = append(children, node)
	}
	return children, nil
}

func (l *Loader) requireOneChild(spec FlowNodeSpec, children []flow.Node) (flow.Node, error) {
	if len(children) != 1 {
		return nil, errors.Errorf("schema: %q node requires exactly one child, got %d", spec.Type, len(children))
	}
	return children[0], nil
}

func parsePolicy(name string) (flow.ParallelPolicy, error) {
	switch name {
	case "", "all_success":
		return flow.AllSuccess, nil
	case "any_success":
		return flow.AnySuccess, nil
	case "configurable":
		return flow.Configurable, nil
	default:
		return 0, errors.Errorf("schema: unknown parallel policy %q", name)
	}
}
