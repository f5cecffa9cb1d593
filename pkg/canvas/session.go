package canvas

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Layout spacing for nodes chained after an existing one.
const (
	chainXSpacing = 320.0
	chainYSpacing = 120.0
)

// Fallback placement for nodes with no previous-node hint. Each unplaced
// node steps the offset so unrelated nodes never stack at one spot.
const (
	fallbackBaseX   = 250.0
	fallbackBaseY   = 250.0
	fallbackXStride = 50.0
	fallbackYStride = 120.0
)

// zoomDelay is how long the host UI gets to render the new node before the
// zoom-to-fit action runs.
const zoomDelay = 500 * time.Millisecond

// HostSession owns the canvas-side mutation state for one page lifetime:
// the graph store, the known node types and the fallback placement counter.
// Create one per injection, drop it on navigation away.
type HostSession struct {
	store     *Store
	types     *TypeRegistry
	offset    int
	zoomToFit func()
}

func NewHostSession(store *Store, types *TypeRegistry) *HostSession {
	if store == nil {
		store = NewStore()
	}
	if types == nil {
		types = NewTypeRegistry()
	}
	return &HostSession{store: store, types: types}
}

// Store exposes the underlying graph store.
func (h *HostSession) Store() *Store {
	return h.store
}

// Types exposes the node type registry.
func (h *HostSession) Types() *TypeRegistry {
	return h.types
}

// SetZoomToFit installs the UI action triggered after a node is added.
func (h *HostSession) SetZoomToFit(fn func()) {
	h.zoomToFit = fn
}

// AddNode places and commits a node, filling in generated identity and a
// computed position, and returns the serializable subset of the result.
func (h *HostSession) AddNode(cfg Node, previousNodeName string) (AddedNode, error) {
	if cfg.ID == "" {
		cfg.ID = "generated-" + uuid.NewString()
	}
	if cfg.Name == "" {
		cfg.Name = "Node " + cfg.ID
	}
	if cfg.Type == "" {
		cfg.Type = DefaultNodeType
	}

	// Only apply type defaults when the suggestion carries no parameters;
	// parameters the assistant configured must not be overwritten.
	if len(cfg.Parameters) == 0 {
		if def, ok := h.types.Get(cfg.Type); ok {
			if cfg.Parameters == nil {
				cfg.Parameters = make(map[string]any)
			}
			cfg.Parameters = ApplyDefaultParameters(cfg.Parameters, def)
		}
	}
	if cfg.Parameters == nil {
		cfg.Parameters = make(map[string]any)
	}

	if previousNodeName != "" {
		if pos, ok := h.positionAfter(previousNodeName); ok {
			cfg.Position = pos
		} else {
			log.Warn("previous node %q not found, using fallback placement", previousNodeName)
		}
	}

	if len(cfg.Position) != 2 {
		offset := float64(h.offset)
		h.offset++
		cfg.Position = []float64{
			fallbackBaseX + offset*fallbackXStride,
			fallbackBaseY + offset*fallbackYStride,
		}
	}

	h.store.AddNode(cfg)

	added, ok := h.store.NodeByName(cfg.Name)
	if !ok {
		return AddedNode{}, fmt.Errorf("node %s not found after adding", cfg.Name)
	}

	if h.zoomToFit != nil {
		zoom := h.zoomToFit
		time.AfterFunc(zoomDelay, zoom)
	}

	return AddedNode{
		ID:       added.ID,
		Name:     added.Name,
		Type:     added.Type,
		Position: added.Position,
	}, nil
}

// positionAfter derives a position one column to the right of the previous
// node, fanned down by the number of connections it already originates.
func (h *HostSession) positionAfter(previousNodeName string) ([]float64, bool) {
	previous, ok := h.store.NodeByName(previousNodeName)
	if !ok || len(previous.Position) != 2 {
		return nil, false
	}

	siblings := float64(h.store.OutgoingCount(previousNodeName))
	return []float64{
		previous.Position[0] + chainXSpacing,
		previous.Position[1] + siblings*chainYSpacing,
	}, true
}

// AddConnection wires source to target on the given ports.
func (h *HostSession) AddConnection(sourceName, targetName, sourceOutputType, targetInputType string, sourceOutputIndex, targetInputIndex int) error {
	if sourceOutputType == "" {
		sourceOutputType = ConnectionMain
	}
	if targetInputType == "" {
		targetInputType = ConnectionMain
	}
	return h.store.AddConnection(sourceName, targetName, sourceOutputType, targetInputType, sourceOutputIndex, targetInputIndex)
}

// UpdateNode shallow-merges parameters onto the named node.
func (h *HostSession) UpdateNode(name string, parameters map[string]any) (map[string]any, error) {
	return h.store.UpdateNodeParameters(name, parameters)
}

// CurrentWorkflow returns a snapshot of the graph.
func (h *HostSession) CurrentWorkflow() (Workflow, error) {
	return h.store.Snapshot(), nil
}
