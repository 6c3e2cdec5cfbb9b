package editor

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapquery/internal/draft"
	"github.com/leapstack-labs/leapquery/pkg/core"
)

// Sources returns the catalog followed by the synthetic descriptors.
func (e *Editor) Sources() []core.DataSource {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sources()
}

func (e *Editor) sources() []core.DataSource {
	out := append([]core.DataSource(nil), e.props.DataSources...)
	return append(out, e.reg.StaticSources()...)
}

// BeginDraft starts a new unsaved query on the source with the given id and
// registers it with the host.
func (e *Editor) BeginDraft(sourceID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	source := core.FindSourceByID(e.sources(), sourceID)
	if source == nil {
		return fmt.Errorf("failed to begin draft: %w: %s", core.ErrUnknownSource, sourceID)
	}

	s := draft.Begin(e.reg, source, e.props.DataQueries)
	e.baseline = s.Options.Clone()
	e.st.SelectedDataSource = s.Source
	e.st.SelectedSource = cloneSource(s.Source)
	e.st.QueryName = s.Query.Name
	e.st.Options = s.Options
	e.st.SourceGeneration++
	e.token++

	e.logger.Debug("began draft",
		slog.String("source", source.ID),
		slog.String("kind", source.Kind),
		slog.String("name", s.Query.Name))
	e.host.CreateDraftQuery(s.Query, cloneSource(s.Source))
	return nil
}

// EndDraft discards the draft and resets the source selection.
func (e *Editor) EndDraft() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.endDraft()
}

func (e *Editor) endDraft() {
	e.host.ClearDraftQuery()
	e.st.IsSourceSelected = false
	e.st.SelectedSource = nil
	e.st.SelectedDataSource = nil
	e.st.Options = core.Options{}
	e.token++
}

// Back leaves the editor. Dirty sessions ask the host for a confirmation
// first and hand it the state to apply once confirmed.
func (e *Editor) Back() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st.IsFieldsChanged {
		e.host.SetSaveConfirmation(true)
		e.host.SetCancelData(CancelData{
			IsSourceSelected: false,
			SelectedQuery:    &core.Query{},
		})
		return
	}
	e.endDraft()
}

// CloseSourceList marks a source as chosen and drops any preview.
func (e *Editor) CloseSourceList() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.st.IsSourceSelected = true
	e.st.PreviewData = nil
}
