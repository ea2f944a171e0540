package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/tickframe/flow"
)

const sampleYAML = `
queues:
  - name: combat
    clear_after_execute: true
  - name: movement
    clear_after_execute: false

commands:
  - name: Attack
    queue: combat
    priority: 10
    pool_initial_capacity: 32
    is_signal: false
  - name: Move
    queue: movement
    priority: 5
    pool_initial_capacity: 64
    is_signal: true

entity_kinds:
  - name: Enemy
    initial_capacity: 256
    queues: [combat, movement]
    components: [Health, Transform]

flow_trees:
  - name: patrol
    root:
      type: selector
      children:
        - type: condition
          ref: is_alerted
        - type: action
          ref: walk_waypoint
`

func TestParseAndValidateSucceedsOnWellFormedDocument(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	require.NoError(t, doc.Validate())

	cmd, ok := doc.CommandByName("Attack")
	require.True(t, ok)
	assert.Equal(t, "combat", cmd.Queue)
	assert.Equal(t, 10, cmd.Priority)

	q, ok := doc.QueueByName("movement")
	require.True(t, ok)
	assert.False(t, q.ClearAfterExecute)

	require.Len(t, doc.EntityKinds, 1)
	assert.Equal(t, []string{"combat", "movement"}, doc.EntityKinds[0].Queues)
}

func TestValidateRejectsUnknownQueueReference(t *testing.T) {
	doc, err := Parse([]byte(`
commands:
  - name: Cast
    queue: magic
`))
	require.NoError(t, err)
	assert.Error(t, doc.Validate())
}

func TestBuildFlowRegistryWiresActionAndConditionReferences(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	var alerted bool
	var walked int

	loader := NewLoader()
	loader.RegisterCondition("is_alerted", func(ctx *flow.Context) bool { return alerted })
	loader.RegisterAction("walk_waypoint", func(ctx *flow.Context) flow.Status {
		walked++
		return flow.Success
	})

	registry, err := loader.BuildFlowRegistry(doc)
	require.NoError(t, err)

	tree, ok := registry.Lookup("patrol")
	require.True(t, ok)

	ctx := flow.NewContext(nil)
	assert.Equal(t, flow.Success, tree.Tick(ctx), "is_alerted is false, so the selector falls through to the walk action")
	assert.Equal(t, 1, walked)

	alerted = true
	assert.Equal(t, flow.Success, tree.Tick(ctx), "is_alerted now true, the condition itself succeeds")
	assert.Equal(t, 1, walked, "walk action must not have run again once the condition succeeded")
}

func TestBuildFlowRegistrySupportsSelfRecursiveSubtree(t *testing.T) {
	doc, err := Parse([]byte(`
flow_trees:
  - name: countdown
    root:
      type: selector
      children:
        - type: condition
          ref: done
        - type: subtree
          ref: countdown
`))
	require.NoError(t, err)

	ticks := 0
	loader := NewLoader()
	loader.RegisterCondition("done", func(ctx *flow.Context) bool {
		ticks++
		return ticks >= 3
	})

	registry, err := loader.BuildFlowRegistry(doc)
	require.NoError(t, err)

	tree, ok := registry.Lookup("countdown")
	require.True(t, ok)

	ctx := flow.NewContext(nil)
	assert.Equal(t, flow.Success, tree.Tick(ctx))
	assert.Equal(t, 3, ticks)
}

func TestBuildFlowRegistryReportsUnknownActionReference(t *testing.T) {
	doc, err := Parse([]byte(`
flow_trees:
  - name: broken
    root:
      type: action
      ref: does_not_exist
`))
	require.NoError(t, err)

	_, err = NewLoader().BuildFlowRegistry(doc)
	assert.Error(t, err)
}
