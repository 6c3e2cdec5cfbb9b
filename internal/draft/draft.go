// Package draft seeds the unsaved query created when a user picks a source.
package draft

import (
	"github.com/leapstack-labs/leapquery/internal/naming"
	"github.com/leapstack-labs/leapquery/internal/registry"
	"github.com/leapstack-labs/leapquery/pkg/core"
)

// DefaultTransformationLanguage is the transform language of new drafts.
const DefaultTransformationLanguage = "javascript"

// Session is a freshly seeded draft.
type Session struct {
	// Query is the stub registered with the host under core.DraftQueryID.
	Query *core.Query
	// Options is the working copy. It doubles as the diff baseline.
	Options core.Options
	// Source is the descriptor the draft was seeded from.
	Source *core.DataSource
}

// Begin seeds a draft for source. siblings are the queries already defined in
// the app version and are only consulted for name allocation.
func Begin(reg *registry.Registry, source *core.DataSource, siblings []core.Query) Session {
	kind, known := reg.Lookup(source.Kind)
	opts := SeedOptions(kind, known, source)
	name := naming.Allocate(source.Kind, siblings)

	stub := &core.Query{
		ID:           core.DraftQueryID,
		Name:         name,
		Kind:         source.Kind,
		DataSourceID: source.BoundID(),
		PluginID:     source.PluginID,
		Options:      opts.Clone(),
	}
	src := *source
	return Session{Query: stub, Options: opts, Source: &src}
}

// SeedOptions returns the initial options of a draft of kind.
//
// Schema-less kinds start from their template. Other kinds start from the
// plugin's declared defaults, then the registry's defaults, then nothing.
// Every kind with a transform stage also gets the transform options, disabled.
func SeedOptions(kind registry.Kind, known bool, source *core.DataSource) core.Options {
	var opts core.Options
	switch {
	case known && kind.Schemaless:
		opts = kind.Defaults.Clone()
	case source.Plugin != nil && source.Plugin.Defaults != nil:
		opts = source.Plugin.Defaults.Clone()
	case known:
		opts = kind.Defaults.Clone()
	default:
		opts = core.Options{}
	}

	if !known || kind.SeedsTransform() {
		opts[core.OptionTransformationLanguage] = DefaultTransformationLanguage
		opts[core.OptionEnableTransformation] = false
	}
	return opts
}
