package canvas

import (
	"strings"
	"sync"
)

// PropertyDefinition describes one configurable property of a node type,
// mirroring the host's property-inspector schema closely enough to apply
// defaults and to export a catalog.
type PropertyDefinition struct {
	Name        string               `json:"name"`
	DisplayName string               `json:"displayName,omitempty"`
	Type        string               `json:"type,omitempty"`
	Default     any                  `json:"default,omitempty"`
	Options     []PropertyDefinition `json:"options,omitempty"`
}

// TypeDefinition describes a node type known to the host.
type TypeDefinition struct {
	Name        string               `json:"name"`
	DisplayName string               `json:"displayName,omitempty"`
	Description string               `json:"description,omitempty"`
	Group       []string             `json:"group,omitempty"`
	Version     int                  `json:"version,omitempty"`
	Properties  []PropertyDefinition `json:"properties,omitempty"`
}

// standardTypePrefix marks node types shipped with the host application;
// everything else is treated as a custom/community type.
const standardTypePrefix = "n8n-nodes-base."

// IsStandard reports whether the type belongs to the host's built-in set.
func (d TypeDefinition) IsStandard() bool {
	return strings.HasPrefix(d.Name, standardTypePrefix)
}

// TypeRegistry holds the node type definitions exposed by the host.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]TypeDefinition
}

func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{types: make(map[string]TypeDefinition)}
}

func (r *TypeRegistry) Register(def TypeDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[def.Name] = def
}

func (r *TypeRegistry) Get(name string) (TypeDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.types[name]
	return def, ok
}

// All returns every registered definition.
func (r *TypeRegistry) All() []TypeDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TypeDefinition, 0, len(r.types))
	for _, def := range r.types {
		out = append(out, def)
	}
	return out
}

// ApplyDefaultParameters fills in missing parameters from the type
// definition's property defaults. Collection properties get their nested
// option defaults applied; fixedCollection properties get an empty values
// list when absent or malformed.
func ApplyDefaultParameters(params map[string]any, def TypeDefinition) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	applyPropertyDefaults(def.Properties, out)
	return out
}

func applyPropertyDefaults(properties []PropertyDefinition, params map[string]any) {
	for _, prop := range properties {
		if _, ok := params[prop.Name]; !ok && prop.Default != nil {
			params[prop.Name] = prop.Default
		}

		switch prop.Type {
		case "collection":
			nested, ok := params[prop.Name].(map[string]any)
			if !ok {
				nested = make(map[string]any)
				params[prop.Name] = nested
			}
			applyPropertyDefaults(prop.Options, nested)
		case "fixedCollection":
			nested, ok := params[prop.Name].(map[string]any)
			if !ok {
				params[prop.Name] = map[string]any{"values": []any{}}
				continue
			}
			if _, ok := nested["values"].([]any); !ok {
				nested["values"] = []any{}
			}
		}
	}
}
