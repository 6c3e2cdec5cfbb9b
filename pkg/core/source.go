package core

// Sentinel identifiers of the synthetic sources that exist without a catalog entry.
const (
	RestAPISourceID = "null"
	RunJSSourceID   = "runjs"
)

// Built-in kinds the editor treats specially.
const (
	KindRestAPI = "restapi"
	KindRunJS   = "runjs"
)

// Plugin carries plugin-provided source information.
type Plugin struct {
	ID       string  `json:"id" koanf:"id"`
	Defaults Options `json:"defaults,omitempty" koanf:"defaults"`
}

// DataSource describes a selectable source: either a catalog entry or one of
// the synthetic descriptors.
type DataSource struct {
	ID       string  `json:"id" koanf:"id"`
	Kind     string  `json:"kind" koanf:"kind"`
	Name     string  `json:"name" koanf:"name"`
	PluginID string  `json:"plugin_id,omitempty" koanf:"plugin_id"`
	Plugin   *Plugin `json:"plugin,omitempty" koanf:"plugin"`
}

// BoundID returns the id to persist as a query's data source reference.
// Synthetic sources are not bound and yield "".
func (s *DataSource) BoundID() string {
	if s == nil || s.ID == RestAPISourceID || s.ID == RunJSSourceID {
		return ""
	}
	return s.ID
}

// SourceMeta is the schema metadata of a kind.
type SourceMeta struct {
	Kind                   string `json:"kind" koanf:"kind"`
	Name                   string `json:"name" koanf:"name"`
	DisableTransformations bool   `json:"disable_transformations,omitempty" koanf:"disable_transformations"`
}

// FindSourceByID returns the source with the given id, or nil.
func FindSourceByID(sources []DataSource, id string) *DataSource {
	for i := range sources {
		if sources[i].ID == id {
			return &sources[i]
		}
	}
	return nil
}
