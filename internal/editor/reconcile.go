package editor

import (
	"log/slog"
	"maps"

	"github.com/leapstack-labs/leapquery/internal/optdiff"
	"github.com/leapstack-labs/leapquery/pkg/core"
)

// changeSet records which props differ between two updates.
type changeSet struct {
	confirmation   bool
	toggle         bool
	app            bool
	mode           bool
	sources        bool
	queries        bool
	selection      bool
	selectedSource bool
	sourceSelected bool
	paneHeight     bool
	dragging       bool
	unsaved        bool
	darkMode       bool
	running        bool
	preview        bool
	panes          bool
}

func detectChanges(prev, next Props) changeSet {
	return changeSet{
		confirmation:   prev.ShowQueryConfirmation != next.ShowQueryConfirmation,
		toggle:         prev.ToggleQueryEditor != next.ToggleQueryEditor,
		app:            prev.AppID != next.AppID || prev.EditingVersionID != next.EditingVersionID,
		mode:           prev.Mode != next.Mode,
		sources:        !optdiff.Equal(prev.DataSources, next.DataSources),
		queries:        !optdiff.Equal(prev.DataQueries, next.DataQueries),
		selection:      !sameQuery(prev.SelectedQuery, next.SelectedQuery) || !optdiff.Equal(prev.SelectedQuery, next.SelectedQuery),
		selectedSource: !optdiff.Equal(prev.SelectedDataSource, next.SelectedDataSource),
		sourceSelected: prev.IsSourceSelected != next.IsSourceSelected,
		paneHeight:     prev.QueryPaneHeight != next.QueryPaneHeight,
		dragging:       prev.IsQueryPaneDragging != next.IsQueryPaneDragging,
		unsaved:        prev.IsUnsavedQueriesAvailable != next.IsUnsavedQueriesAvailable,
		darkMode:       prev.DarkMode != next.DarkMode,
		running:        !maps.Equal(prev.Running, next.Running),
		preview:        !optdiff.Equal(prev.QueryPreviewData, next.QueryPreviewData),
		panes:          prev.AddingQuery != next.AddingQuery || prev.EditingQuery != next.EditingQuery,
	}
}

func (c changeSet) empty() bool {
	return c == changeSet{}
}

// skipReason returns why an update must not be merged, or "" to merge.
func (c changeSet) skipReason(prev, next Props) string {
	switch {
	case c.empty():
		return "no changes"
	case c.toggle:
		return "editor toggled"
	case c.selection && next.SelectedQuery.IsDraft():
		return "draft selected"
	case !prev.IsUnsavedQueriesAvailable && next.IsUnsavedQueriesAvailable:
		return "unsaved flag raised"
	}
	return ""
}

// Apply reconciles an external update with the local session.
func (e *Editor) Apply(next Props) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.props
	e.props = next
	e.hasProps = true

	if next.LoadingDataSources {
		e.logger.Debug("ignoring update while sources load")
		return
	}

	if prev.ShowQueryConfirmation && !next.ShowQueryConfirmation {
		e.st.IsUpdating = false
		e.st.IsCreating = false
	}

	e.settlePending(next)

	if e.merged {
		changes := detectChanges(prev, next)
		if reason := changes.skipReason(prev, next); reason != "" {
			e.logger.Debug("skipping merge", slog.String("reason", reason))
			return
		}
	}
	e.merge(next)
}

// settlePending advances the pending submission using the execution state
// reported by next.
func (e *Editor) settlePending(next Props) {
	p := e.pending
	if p == nil {
		return
	}
	q := core.FindQueryByID(next.DataQueries, p.QueryID)
	if q == nil {
		return
	}
	isRunning := next.Running[q.Name]
	wasRunning := e.running[q.Name]

	switch {
	case next.SelectedQuery != nil && !sameDefinition(e.st.SelectedQuery, next.SelectedQuery):
		if !isRunning && !wasRunning && !p.RunTriggered {
			e.logger.Debug("running saved query", slog.String("id", q.ID), slog.String("name", q.Name))
			p.RunTriggered = true
			e.host.RunQuery(q.ID, q.Name)
		}
	case wasRunning && !isRunning:
		e.logger.Debug("pending submission settled", slog.String("id", q.ID), slog.Bool("update", p.Update))
		if p.Update {
			e.st.IsUpdating = false
		} else {
			e.st.IsCreating = false
		}
		e.pending = nil
	}
}

// sameDefinition reports whether two selections carry the same saved
// definition. A refreshed copy of an updated query is a different one, even
// when the save left every field as it was, because the store stamps
// UpdatedAt on each save.
func sameDefinition(a, b *core.Query) bool {
	if !sameQuery(a, b) {
		return false
	}
	if a == nil {
		return true
	}
	return a.Name == b.Name &&
		a.Kind == b.Kind &&
		a.DataSourceID == b.DataSourceID &&
		a.PluginID == b.PluginID &&
		a.UpdatedAt.Equal(b.UpdatedAt) &&
		optdiff.Equal(a.Options, b.Options)
}

func (e *Editor) merge(next Props) {
	sel := next.SelectedQuery.Clone()
	prevSel := e.st.SelectedQuery

	var meta *core.SourceMeta
	if sel != nil {
		if sel.PluginID != "" && sel.Manifest != nil {
			m := *sel.Manifest
			meta = &m
		} else {
			meta = e.reg.Meta(sel.Kind)
		}
	}

	paneHeightChanged := e.merged && e.st.QueryPaneHeight != next.QueryPaneHeight
	dragChanged := e.merged && e.st.IsQueryPaneDragging != next.IsQueryPaneDragging
	frozen := paneHeightChanged || dragChanged

	e.st.AppID = next.AppID
	e.st.VersionID = next.EditingVersionID
	e.st.Mode = next.Mode
	e.st.DataSources = append([]core.DataSource(nil), next.DataSources...)
	if len(next.DataQueries) > 0 {
		e.st.DataQueries = append([]core.Query(nil), next.DataQueries...)
	}
	e.st.CurrentTab = core.TabGeneral
	e.st.AddingQuery = next.AddingQuery
	e.st.EditingQuery = next.EditingQuery
	e.st.QueryPaneHeight = next.QueryPaneHeight
	e.st.IsQueryPaneDragging = next.IsQueryPaneDragging
	e.st.PaneHeightChanged = paneHeightChanged
	e.st.DarkMode = next.DarkMode
	e.st.SourceMeta = meta
	e.st.SelectedSource = nil
	if sel != nil {
		e.st.SelectedSource = cloneSource(core.FindSourceByID(next.DataSources, sel.DataSourceID))
	}

	if !e.st.IsFieldsChanged {
		if sel != nil {
			e.st.Options = sel.Options.Clone()
		} else {
			e.st.Options = core.Options{}
		}
	}
	if !frozen {
		e.st.IsSourceSelected = next.IsSourceSelected
		e.st.SelectedDataSource = cloneSource(next.SelectedDataSource)
	}
	if !sameQuery(prevSel, next.SelectedQuery) {
		e.st.PreviewData = nil
		e.token++
	} else {
		e.st.PreviewData = next.QueryPreviewData
	}
	if next.Mode == core.ModeCreate {
		e.st.SelectedQuery = sel
	}
	e.st.IsFieldsChanged = next.IsUnsavedQueriesAvailable
	e.st.IsNameChanged = next.IsUnsavedQueriesAvailable

	pref := e.prefs.Resolve(next.Mode)
	e.st.ButtonLabel = pref.Label
	e.st.AlsoRun = pref.AlsoRun

	e.running = maps.Clone(next.Running)
	if e.running == nil {
		e.running = map[string]bool{}
	}
	e.merged = true

	e.reselect(next, sel, prevSel, paneHeightChanged, frozen)

	e.logger.Debug("merged update",
		slog.String("mode", string(next.Mode)),
		slog.String("selected", queryID(sel)),
		slog.Bool("frozen", frozen),
		slog.Uint64("generation", e.st.SourceGeneration))
}

// reselect resolves the source of the selected query and, in edit mode,
// rebases the session on the selected query without clobbering local edits.
func (e *Editor) reselect(next Props, sel, prevSel *core.Query, paneHeightChanged, frozen bool) {
	var source *core.DataSource
	if sel != nil {
		source = cloneSource(core.FindSourceByID(next.DataSources, sel.DataSourceID))
		if sel.DataSourceID == "" {
			if k, ok := e.reg.Lookup(sel.Kind); ok && k.Synthetic() != nil {
				source = k.Synthetic()
			}
		}
	}

	if next.Mode == core.ModeEdit && sel != nil {
		if sameQuery(prevSel, sel) {
			e.baseline = e.st.Options.Clone()
		} else {
			e.baseline = sel.Options.Clone()
		}
		if !paneHeightChanged && !next.IsUnsavedQueriesAvailable {
			e.st.Options = sel.Options.Clone()
		}
		e.st.SelectedQuery = sel
		if !e.st.IsNameChanged {
			e.st.QueryName = sel.Name
		}
	}

	if frozen {
		return
	}
	e.st.SelectedDataSource = source
	e.st.SourceGeneration++
}
