package canvas_test

import (
	"testing"

	"github.com/nodeflip/nodeflip/pkg/canvas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddConnectionGrowsOutputSlots(t *testing.T) {
	store := canvas.NewStore()
	store.AddNode(canvas.Node{ID: "1", Name: "If", Type: "n8n-nodes-base.if"})
	store.AddNode(canvas.Node{ID: "2", Name: "Set", Type: "n8n-nodes-base.set"})

	// Connect from output index 1; index 0 must exist as an empty slot.
	require.NoError(t, store.AddConnection("If", "Set", canvas.ConnectionMain, canvas.ConnectionMain, 1, 0))

	wf := store.Snapshot()
	outputs := wf.Connections["If"][canvas.ConnectionMain]
	require.Len(t, outputs, 2)
	assert.Empty(t, outputs[0])
	require.Len(t, outputs[1], 1)
	assert.Equal(t, canvas.Link{Node: "Set", Type: canvas.ConnectionMain, Index: 0}, outputs[1][0])
}

func TestAddConnectionValidatesBothEndpoints(t *testing.T) {
	store := canvas.NewStore()
	store.AddNode(canvas.Node{ID: "1", Name: "Start", Type: "n8n-nodes-base.start"})

	err := store.AddConnection("Ghost", "Start", canvas.ConnectionMain, canvas.ConnectionMain, 0, 0)
	require.ErrorIs(t, err, canvas.ErrNodeNotFound)
	assert.Contains(t, err.Error(), "Ghost")

	err = store.AddConnection("Start", "Ghost", canvas.ConnectionMain, canvas.ConnectionMain, 0, 0)
	require.ErrorIs(t, err, canvas.ErrNodeNotFound)

	// Failed calls must leave the connection table untouched.
	assert.Empty(t, store.Snapshot().Connections)
}

func TestUpdateNodeParametersShallowMerge(t *testing.T) {
	store := canvas.NewStore()
	store.AddNode(canvas.Node{
		ID:   "1",
		Name: "HTTP Request",
		Type: "n8n-nodes-base.httpRequest",
		Parameters: map[string]any{
			"url":    "https://example.com",
			"method": "GET",
			"options": map[string]any{
				"timeout": 30,
			},
		},
	})

	merged, err := store.UpdateNodeParameters("HTTP Request", map[string]any{
		"method":  "POST",
		"options": map[string]any{"redirect": true},
	})
	require.NoError(t, err)

	// Top-level keys are replaced wholesale, untouched keys survive.
	assert.Equal(t, "https://example.com", merged["url"])
	assert.Equal(t, "POST", merged["method"])
	assert.Equal(t, map[string]any{"redirect": true}, merged["options"])

	node, ok := store.NodeByName("HTTP Request")
	require.True(t, ok)
	assert.Equal(t, merged, node.Parameters)
}

func TestUpdateNodeParametersUnknownNode(t *testing.T) {
	store := canvas.NewStore()

	_, err := store.UpdateNodeParameters("Ghost", map[string]any{"x": 1})
	assert.ErrorIs(t, err, canvas.ErrNodeNotFound)
}

func TestOutgoingCountSpansOutputsAndTypes(t *testing.T) {
	store := canvas.NewStore()
	store.AddNode(canvas.Node{ID: "1", Name: "If", Type: "n8n-nodes-base.if"})
	store.AddNode(canvas.Node{ID: "2", Name: "A", Type: "n8n-nodes-base.set"})
	store.AddNode(canvas.Node{ID: "3", Name: "B", Type: "n8n-nodes-base.set"})

	require.NoError(t, store.AddConnection("If", "A", canvas.ConnectionMain, canvas.ConnectionMain, 0, 0))
	require.NoError(t, store.AddConnection("If", "B", canvas.ConnectionMain, canvas.ConnectionMain, 1, 0))

	assert.Equal(t, 2, store.OutgoingCount("If"))
	assert.Equal(t, 0, store.OutgoingCount("A"))
}

func TestSnapshotIsDetachedFromStore(t *testing.T) {
	store := canvas.NewStore()
	store.AddNode(canvas.Node{
		ID:         "1",
		Name:       "Set",
		Type:       "n8n-nodes-base.set",
		Parameters: map[string]any{"keepOnlySet": false},
		Position:   []float64{100, 100},
	})
	require.NoError(t, store.AddConnection("Set", "Set", canvas.ConnectionMain, canvas.ConnectionMain, 0, 0))

	wf := store.Snapshot()
	wf.Nodes[0].Parameters["keepOnlySet"] = true
	wf.Nodes[0].Position[0] = 999
	wf.Connections["Set"][canvas.ConnectionMain][0][0].Node = "Mutated"

	node, _ := store.NodeByName("Set")
	assert.Equal(t, false, node.Parameters["keepOnlySet"])
	assert.Equal(t, 100.0, node.Position[0])
	assert.Equal(t, "Set", store.Snapshot().Connections["Set"][canvas.ConnectionMain][0][0].Node)
}

func TestNodeByNameReturnsCopy(t *testing.T) {
	store := canvas.NewStore()
	store.AddNode(canvas.Node{ID: "1", Name: "Set", Parameters: map[string]any{"a": 1}})

	node, ok := store.NodeByName("Set")
	require.True(t, ok)
	node.Parameters["a"] = 2

	again, _ := store.NodeByName("Set")
	assert.Equal(t, 1, again.Parameters["a"])
}
