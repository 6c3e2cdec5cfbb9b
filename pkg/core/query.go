package core

import (
	"maps"
	"time"
)

// DraftQueryID identifies the ephemeral query that exists between picking a
// source and saving it for the first time.
const DraftQueryID = "draftQuery"

// Well-known option keys.
const (
	// OptionArrayValuesChanged is a transient marker set by list-of-pairs
	// editors. It never carries semantic meaning and is stripped before diffing.
	OptionArrayValuesChanged = "arrayValuesChanged"
	// OptionTransformationLanguage selects the language of the transform stage.
	OptionTransformationLanguage = "transformationLanguage"
	// OptionEnableTransformation toggles the transform stage.
	OptionEnableTransformation = "enableTransformation"
	// OptionEvents holds the event handlers bound to query success/failure.
	OptionEvents = "events"
)

// Options is the open option mapping of a query. Its shape is determined by
// the query kind.
type Options map[string]any

// Clone returns a deep copy of JSON-shaped option values.
// A nil receiver yields an empty, non-nil map.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge returns a copy of o overlaid with the entries of other.
func (o Options) Merge(other Options) Options {
	out := o.Clone()
	maps.Copy(out, other.Clone())
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(Options(t).Clone())
	case Options:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case [][]string:
		out := make([][]string, len(t))
		for i, row := range t {
			out[i] = append([]string(nil), row...)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// Query is a persisted (or draft) query definition.
type Query struct {
	ID           string      `json:"id" koanf:"id"`
	Name         string      `json:"name" koanf:"name"`
	Kind         string      `json:"kind" koanf:"kind"`
	DataSourceID string      `json:"data_source_id,omitempty" koanf:"data_source_id"`
	PluginID     string      `json:"plugin_id,omitempty" koanf:"plugin_id"`
	AppID        string      `json:"app_id,omitempty" koanf:"app_id"`
	VersionID    string      `json:"app_version_id,omitempty" koanf:"app_version_id"`
	Options      Options     `json:"options" koanf:"options"`
	Manifest     *SourceMeta `json:"manifest,omitempty" koanf:"manifest"`
	// UpdatedAt is stamped by the store on every save, including saves that
	// leave the definition unchanged.
	UpdatedAt time.Time `json:"updated_at" koanf:"updated_at"`
}

// IsDraft reports whether q is the unsaved draft query.
func (q *Query) IsDraft() bool {
	return q != nil && q.ID == DraftQueryID
}

// Clone returns a deep copy of q. A nil receiver returns nil.
func (q *Query) Clone() *Query {
	if q == nil {
		return nil
	}
	c := *q
	c.Options = q.Options.Clone()
	if q.Manifest != nil {
		m := *q.Manifest
		c.Manifest = &m
	}
	return &c
}

// FindQueryByID returns the query with the given id, or nil.
func FindQueryByID(queries []Query, id string) *Query {
	for i := range queries {
		if queries[i].ID == id {
			return &queries[i]
		}
	}
	return nil
}

// FindQueryByName returns the query with the given name, or nil.
func FindQueryByName(queries []Query, name string) *Query {
	for i := range queries {
		if queries[i].Name == name {
			return &queries[i]
		}
	}
	return nil
}

// CreateRequest is the payload of a query creation.
type CreateRequest struct {
	AppID     string  `json:"app_id"`
	VersionID string  `json:"app_version_id"`
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Options   Options `json:"options"`
	// DataSourceID is empty for queries without a bound source.
	DataSourceID string `json:"data_source_id,omitempty"`
	PluginID     string `json:"plugin_id,omitempty"`
}

// Query returns the query described by r, without an id.
func (r CreateRequest) Query() *Query {
	return &Query{
		Name:         r.Name,
		Kind:         r.Kind,
		DataSourceID: r.DataSourceID,
		PluginID:     r.PluginID,
		AppID:        r.AppID,
		VersionID:    r.VersionID,
		Options:      r.Options.Clone(),
	}
}
