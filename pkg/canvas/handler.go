package canvas

import (
	"encoding/json"
	"fmt"

	"github.com/nodeflip/nodeflip/pkg/bridge"
	"github.com/nodeflip/nodeflip/pkg/logger"
)

var log = logger.Component("canvas")

// Frame types understood by the host side.
const (
	AddNodeType        = "n8nStore-addNode"
	AddConnectionType  = "n8nStore-addConnection"
	UpdateNodeType     = "n8nStore-updateNode"
	ExtractCatalogType = "nodeflip-extract-catalog"

	// CatalogResponseType answers catalog extraction with its own pair
	// instead of the standard mutation response.
	CatalogResponseType = "nodeflip-catalog-response"
)

// AddNodeRequest asks the host to place a node, optionally positioned after
// an existing one.
type AddNodeRequest struct {
	NodeConfig       Node   `json:"nodeConfig"`
	PreviousNodeName string `json:"previousNodeName,omitempty"`
}

// AddConnectionRequest asks the host to wire two existing nodes together.
type AddConnectionRequest struct {
	SourceNodeName    string `json:"sourceNodeName"`
	TargetNodeName    string `json:"targetNodeName"`
	SourceOutputType  string `json:"sourceOutputType,omitempty"`
	TargetInputType   string `json:"targetInputType,omitempty"`
	SourceOutputIndex int    `json:"sourceOutputIndex"`
	TargetInputIndex  int    `json:"targetInputIndex"`
}

// ConnectionResult is the serializable reply to a connection add.
type ConnectionResult struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// UpdateNodeRequest asks the host to merge parameters into a named node.
type UpdateNodeRequest struct {
	NodeName   string         `json:"nodeName"`
	Parameters map[string]any `json:"parameters"`
}

// UpdateNodeResult is the serializable reply to a parameter merge.
type UpdateNodeResult struct {
	NodeName   string         `json:"nodeName"`
	Parameters map[string]any `json:"parameters"`
}

// ExtractCatalogRequest asks the host for its node type catalog.
type ExtractCatalogRequest struct {
	CatalogType string `json:"catalogType,omitempty"`
}

// Bind registers the host session's operations on the bridge so inbound
// command frames mutate the canvas and answer with clone-safe results.
func Bind(b *bridge.Bridge, session *HostSession) {
	b.Handle(AddNodeType, func(body json.RawMessage) (any, error) {
		var req AddNodeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, fmt.Errorf("invalid addNode request: %w", err)
		}

		added, err := session.AddNode(req.NodeConfig, req.PreviousNodeName)
		if err != nil {
			log.Error("failed to add node: %v", err)
			return nil, err
		}
		log.Info("added node %s (%s) at %v", added.Name, added.Type, added.Position)
		return added, nil
	})

	b.Handle(AddConnectionType, func(body json.RawMessage) (any, error) {
		var req AddConnectionRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, fmt.Errorf("invalid addConnection request: %w", err)
		}

		err := session.AddConnection(
			req.SourceNodeName,
			req.TargetNodeName,
			req.SourceOutputType,
			req.TargetInputType,
			req.SourceOutputIndex,
			req.TargetInputIndex,
		)
		if err != nil {
			log.Error("failed to add connection: %v", err)
			return nil, err
		}
		log.Info("connected %s -> %s", req.SourceNodeName, req.TargetNodeName)
		return ConnectionResult{Source: req.SourceNodeName, Target: req.TargetNodeName}, nil
	})

	b.Handle(UpdateNodeType, func(body json.RawMessage) (any, error) {
		var req UpdateNodeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, fmt.Errorf("invalid updateNode request: %w", err)
		}

		merged, err := session.UpdateNode(req.NodeName, req.Parameters)
		if err != nil {
			log.Error("failed to update node: %v", err)
			return nil, err
		}
		return UpdateNodeResult{NodeName: req.NodeName, Parameters: merged}, nil
	})

	b.HandleCustom(ExtractCatalogType, CatalogResponseType, "catalog", func(body json.RawMessage) (any, error) {
		var req ExtractCatalogRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return []CatalogEntry{}, fmt.Errorf("invalid catalog request: %w", err)
		}
		if req.CatalogType == "" {
			req.CatalogType = CatalogAll
		}

		catalog, err := session.ExtractCatalog(req.CatalogType)
		if err != nil {
			log.Error("catalog extraction failed: %v", err)
			return []CatalogEntry{}, err
		}
		if catalog == nil {
			catalog = []CatalogEntry{}
		}
		return catalog, nil
	})
}
