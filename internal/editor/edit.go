package editor

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapquery/internal/optdiff"
	"github.com/leapstack-labs/leapquery/pkg/core"
)

// SetOptions merges opts into the working copy and recomputes dirtiness
// against the baseline.
func (e *Editor) SetOptions(opts core.Options) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setOptions(opts)
}

// SetOption sets a single option.
func (e *Editor) SetOption(key string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setOption(key, value)
}

// ToggleOption flips a boolean option. Missing options count as false.
func (e *Editor) ToggleOption(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setOption(key, !truthy(e.st.Options[key]))
}

// SetEvents replaces the event handlers of the query.
func (e *Editor) SetEvents(events []any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setOption(core.OptionEvents, events)
}

func (e *Editor) setOption(key string, value any) {
	opts := e.st.Options.Clone()
	opts[key] = value
	e.setOptions(opts)
}

func (e *Editor) setOptions(opts core.Options) {
	headersChanged := optdiff.HeadersChanged(opts)

	dirty := false
	if sel := e.st.SelectedQuery; sel != nil {
		dirty = optdiff.IsDirty(opts, e.baseline, sel.Kind, headersChanged)
	} else if e.props.Mode == core.ModeCreate {
		dirty = true
	}

	e.st.Options = e.st.Options.Merge(optdiff.Strip(opts))
	e.st.IsFieldsChanged = dirty
	e.st.HeadersChanged = headersChanged
	if dirty != e.props.IsUnsavedQueriesAvailable {
		e.host.SetStateOfUnsavedQueries(dirty)
	}
}

// SetQueryName updates the working name. The first rename away from the
// selected query's name marks the session dirty.
func (e *Editor) SetQueryName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sel := e.st.SelectedQuery
	if (sel == nil || name != sel.Name) && !e.st.IsNameChanged {
		e.st.QueryName = name
		e.st.IsFieldsChanged = true
		e.st.IsNameChanged = true
		e.host.SetStateOfUnsavedQueries(true)
		return
	}
	e.st.QueryName = name
}

// SwitchTab selects the visible editor tab.
func (e *Editor) SwitchTab(tab core.Tab) error {
	if tab != core.TabGeneral && tab != core.TabAdvanced {
		return fmt.Errorf("unknown tab %d", tab)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.st.CurrentTab = tab
	return nil
}

// SetButtonAction stores the primary button choice of the current mode.
func (e *Editor) SetButtonAction(ctx context.Context, label string, alsoRun bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.prefs.Save(ctx, e.mode(), label, alsoRun); err != nil {
		return fmt.Errorf("failed to save button preference: %w", err)
	}
	e.st.ButtonLabel = label
	e.st.AlsoRun = alsoRun
	return nil
}

// ButtonActions lists the choices of the primary button's secondary menu.
func (e *Editor) ButtonActions() []core.ButtonPreference {
	e.mu.Lock()
	defer e.mu.Unlock()

	base := "Create"
	if e.mode() == core.ModeEdit {
		base = "Save"
	}
	return []core.ButtonPreference{
		{Label: base, AlsoRun: false},
		{Label: base + " & Run", AlsoRun: true},
	}
}

func (e *Editor) mode() core.Mode {
	if e.st.Mode != "" {
		return e.st.Mode
	}
	if e.props.Mode != "" {
		return e.props.Mode
	}
	return core.ModeCreate
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}
