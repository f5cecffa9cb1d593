package canvas

// Node is one workflow node on the canvas. Position is [x, y]; a nil
// position means "not placed yet" and the host session will compute one.
type Node struct {
	ID         string         `json:"id,omitempty"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Position   []float64      `json:"position,omitempty"`
}

// Link is one endpoint reference inside the connection table.
type Link struct {
	Node  string `json:"node"`
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// Connections is the host's connection table, keyed by source node name,
// then output type ("main"), then output index.
type Connections map[string]map[string][][]Link

// Workflow is a serializable snapshot of the canvas graph.
type Workflow struct {
	Nodes       []Node      `json:"nodes"`
	Connections Connections `json:"connections"`
}

// AddedNode is the serializable subset of a node returned across the bridge
// after an add. Full store objects never cross the context boundary.
type AddedNode struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Position []float64 `json:"position"`
}

const (
	// ConnectionMain is the default port type for both ends of an edge.
	ConnectionMain = "main"

	// DefaultNodeType is used when a suggestion arrives without a type.
	DefaultNodeType = "n8n-nodes-base.set"
)
