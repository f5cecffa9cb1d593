package canvas

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNodeNotFound is returned when an operation names a node that does not
// exist in the current graph.
var ErrNodeNotFound = errors.New("node not found")

// Store holds the canvas graph. It stands in for the host application's
// reactive workflow store: mutations here are what the host UI renders.
type Store struct {
	mu          sync.RWMutex
	nodes       []Node
	connections Connections
}

func NewStore() *Store {
	return &Store{
		nodes:       make([]Node, 0),
		connections: make(Connections),
	}
}

// AddNode commits a node into the graph. The caller is responsible for
// having filled in id, name, type and position.
func (s *Store) AddNode(node Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = append(s.nodes, node)
}

// NodeByName returns a copy of the named node.
func (s *Store) NodeByName(name string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.nodes {
		if n.Name == name {
			return cloneNode(n), true
		}
	}
	return Node{}, false
}

// HasNode reports whether a node with the given name exists.
func (s *Store) HasNode(name string) bool {
	_, ok := s.NodeByName(name)
	return ok
}

// AddConnection registers a directed edge between two existing nodes. Both
// endpoints are validated first; a missing endpoint fails the whole call and
// the connection table is left untouched.
func (s *Store) AddConnection(sourceName, targetName, sourceOutputType, targetInputType string, sourceOutputIndex, targetInputIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasNodeLocked(sourceName) {
		return fmt.Errorf("source %w: %s", ErrNodeNotFound, sourceName)
	}
	if !s.hasNodeLocked(targetName) {
		return fmt.Errorf("target %w: %s", ErrNodeNotFound, targetName)
	}

	byType, ok := s.connections[sourceName]
	if !ok {
		byType = make(map[string][][]Link)
		s.connections[sourceName] = byType
	}

	outputs := byType[sourceOutputType]
	for len(outputs) <= sourceOutputIndex {
		outputs = append(outputs, []Link{})
	}
	outputs[sourceOutputIndex] = append(outputs[sourceOutputIndex], Link{
		Node:  targetName,
		Type:  targetInputType,
		Index: targetInputIndex,
	})
	byType[sourceOutputType] = outputs

	return nil
}

// UpdateNodeParameters shallow-merges params onto the named node's existing
// parameters and returns the merged result. New keys win, unspecified keys
// keep their prior values.
func (s *Store) UpdateNodeParameters(name string, params map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.nodes {
		if s.nodes[i].Name != name {
			continue
		}
		merged := make(map[string]any, len(s.nodes[i].Parameters)+len(params))
		for k, v := range s.nodes[i].Parameters {
			merged[k] = v
		}
		for k, v := range params {
			merged[k] = v
		}
		s.nodes[i].Parameters = merged
		return merged, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, name)
}

// OutgoingCount returns the number of connections originating from any
// output of the named node. Used to fan chained nodes out vertically.
func (s *Store) OutgoingCount(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, outputs := range s.connections[name] {
		for _, links := range outputs {
			count += len(links)
		}
	}
	return count
}

// Snapshot returns a deep copy of the graph safe to hand across the bridge.
func (s *Store) Snapshot() Workflow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]Node, len(s.nodes))
	for i, n := range s.nodes {
		nodes[i] = cloneNode(n)
	}

	connections := make(Connections, len(s.connections))
	for source, byType := range s.connections {
		typeCopy := make(map[string][][]Link, len(byType))
		for outputType, outputs := range byType {
			outputsCopy := make([][]Link, len(outputs))
			for i, links := range outputs {
				linksCopy := make([]Link, len(links))
				copy(linksCopy, links)
				outputsCopy[i] = linksCopy
			}
			typeCopy[outputType] = outputsCopy
		}
		connections[source] = typeCopy
	}

	return Workflow{Nodes: nodes, Connections: connections}
}

// NodeCount returns the number of nodes in the graph.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

func (s *Store) hasNodeLocked(name string) bool {
	for _, n := range s.nodes {
		if n.Name == name {
			return true
		}
	}
	return false
}

func cloneNode(n Node) Node {
	out := n
	if n.Parameters != nil {
		out.Parameters = cloneParams(n.Parameters)
	}
	if n.Position != nil {
		out.Position = append([]float64(nil), n.Position...)
	}
	return out
}

func cloneParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneParams(nested)
			continue
		}
		out[k] = v
	}
	return out
}
