package canvas

import "fmt"

// CatalogEntry is the serializable description of one node type, exported
// for backend indexing.
type CatalogEntry struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName,omitempty"`
	Description string   `json:"description,omitempty"`
	Group       []string `json:"group,omitempty"`
	Version     int      `json:"version,omitempty"`
	Properties  []string `json:"properties,omitempty"`
}

// Catalog kinds accepted by ExtractCatalog.
const (
	CatalogStandard = "standard"
	CatalogCustom   = "custom"
	CatalogAll      = "all"
)

// ExtractCatalog lists node types of the requested kind from the registry.
func (h *HostSession) ExtractCatalog(kind string) ([]CatalogEntry, error) {
	switch kind {
	case CatalogStandard, CatalogCustom, CatalogAll:
	default:
		return nil, fmt.Errorf("unknown catalog kind: %s", kind)
	}

	var entries []CatalogEntry
	for _, def := range h.types.All() {
		if kind == CatalogStandard && !def.IsStandard() {
			continue
		}
		if kind == CatalogCustom && def.IsStandard() {
			continue
		}

		props := make([]string, 0, len(def.Properties))
		for _, p := range def.Properties {
			props = append(props, p.Name)
		}

		entries = append(entries, CatalogEntry{
			Name:        def.Name,
			DisplayName: def.DisplayName,
			Description: def.Description,
			Group:       def.Group,
			Version:     def.Version,
			Properties:  props,
		})
	}

	return entries, nil
}
