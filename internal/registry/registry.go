// Package registry provides the closed set of source kinds the query editor
// understands. Each kind maps to its default options template, whether its
// options are schema-less, whether it has a transform stage and, for kinds
// usable without a catalog entry, its synthetic source descriptor.
package registry

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"github.com/leapstack-labs/leapquery/pkg/core"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed kinds.yaml
var kindsYAML []byte

// Kind describes how the editor treats one source kind.
type Kind struct {
	Kind                   string       `yaml:"kind"`
	Name                   string       `yaml:"name"`
	Schemaless             bool         `yaml:"schemaless"`
	Script                 bool         `yaml:"script"`
	DisableTransformations bool         `yaml:"disable_transformations"`
	Defaults               core.Options `yaml:"defaults"`

	// SourceID is set for kinds that have a synthetic source descriptor.
	SourceID string `yaml:"source_id"`
}

// SeedsTransform reports whether new drafts of this kind get the transform
// stage options. Script kinds run code directly and have no transform stage.
func (k Kind) SeedsTransform() bool {
	return !k.Script
}

// Meta returns the schema metadata of the kind.
func (k Kind) Meta() *core.SourceMeta {
	return &core.SourceMeta{
		Kind:                   k.Kind,
		Name:                   k.Name,
		DisableTransformations: k.DisableTransformations,
	}
}

// Synthetic returns the source descriptor that exists without a catalog
// entry, or nil when the kind must be bound to a catalog source.
func (k Kind) Synthetic() *core.DataSource {
	if k.SourceID == "" {
		return nil
	}
	return &core.DataSource{ID: k.SourceID, Kind: k.Kind, Name: k.Name}
}

type document struct {
	Kinds []Kind `yaml:"kinds"`
}

// Registry maps kind tags to their descriptions.
type Registry struct {
	mu     sync.RWMutex
	byKind map[string]Kind
	order  []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byKind: make(map[string]Kind),
	}
}

var loadDefault = sync.OnceValues(func() (*Registry, error) {
	return Load(kindsYAML)
})

// Default returns the built-in registry. It is parsed once per process.
func Default() (*Registry, error) {
	return loadDefault()
}

// Load parses a kinds document.
func Load(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse kinds: %w", err)
	}

	r := New()
	for _, k := range doc.Kinds {
		if k.Kind == "" {
			return nil, fmt.Errorf("kind entry without a kind tag")
		}
		r.Register(k)
	}
	return r, nil
}

// Register adds or replaces a kind. Kinds without a display name get one
// derived from the tag.
func (r *Registry) Register(k Kind) {
	if k.Name == "" {
		k.Name = cases.Title(language.English).String(k.Kind)
	}
	if k.Defaults == nil {
		k.Defaults = core.Options{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byKind[k.Kind]; !exists {
		r.order = append(r.order, k.Kind)
	}
	r.byKind[k.Kind] = k
}

// Lookup returns the description of kind.
func (r *Registry) Lookup(kind string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.byKind[kind]
	return k, ok
}

// Meta returns the schema metadata of kind, or nil for unknown kinds.
func (r *Registry) Meta(kind string) *core.SourceMeta {
	k, ok := r.Lookup(kind)
	if !ok {
		return nil
	}
	return k.Meta()
}

// StaticSources returns the synthetic source descriptors in registration order.
func (r *Registry) StaticSources() []core.DataSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []core.DataSource
	for _, tag := range r.order {
		if s := r.byKind[tag].Synthetic(); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// All returns every kind sorted by tag.
func (r *Registry) All() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Kind, 0, len(r.byKind))
	for _, k := range r.byKind {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Count returns the number of registered kinds.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKind)
}
