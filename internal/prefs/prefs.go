// Package prefs persists the user's preferred primary-button behaviour per
// editing mode.
//
// The preferences record is stored as JSON under PreferencesKey with the shape
//
//	{"buttonConfig": {"createMode": {"text": ..., "shouldRunQuery": ...},
//	                  "editMode":   {"text": ..., "shouldRunQuery": ...}}}
//
// Older installations kept the button config alone under LegacyButtonConfigKey;
// it is folded into the record on load.
package prefs

import (
	"context"
	"fmt"
	"log/slog"

	json "github.com/goccy/go-json"
	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapquery/pkg/core"
)

// Storage keys.
const (
	PreferencesKey        = "queryManagerPreferences"
	LegacyButtonConfigKey = "queryManagerButtonConfig"
	TransformDraftKey     = "transformation"
)

const buttonConfigField = "buttonConfig"

// Default button labels.
const (
	DefaultCreateLabel = "Create & Run"
	DefaultEditLabel   = "Save & Run"
)

// Storage is a string key/value store with localStorage semantics.
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// ModeConfig is the persisted entry of one mode. Missing fields fall back to
// the built-in defaults individually.
type ModeConfig struct {
	Text           *string `json:"text,omitempty" mapstructure:"text"`
	ShouldRunQuery *bool   `json:"shouldRunQuery,omitempty" mapstructure:"shouldRunQuery"`
}

// ButtonConfig holds the per-mode entries.
type ButtonConfig struct {
	CreateMode *ModeConfig `json:"createMode,omitempty" mapstructure:"createMode"`
	EditMode   *ModeConfig `json:"editMode,omitempty" mapstructure:"editMode"`
}

// Store reads the preferences once and writes every change through.
type Store struct {
	storage Storage
	logger  *slog.Logger

	// record keeps unrelated keys of the preferences record intact on write.
	record  map[string]any
	buttons ButtonConfig
}

// New creates a Store and loads (and if needed migrates) the persisted record.
func New(ctx context.Context, storage Storage, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{
		storage: storage,
		logger:  logger,
	}
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads the preferences record. A legacy button config, when present,
// replaces the record's buttonConfig section, is written under the new key and
// erased. Running Load again after a migration is a no-op.
func (s *Store) Load(ctx context.Context) error {
	record, err := s.readRecord(ctx)
	if err != nil {
		return err
	}

	legacy, ok, err := s.storage.GetItem(ctx, LegacyButtonConfigKey)
	if err != nil {
		return fmt.Errorf("failed to read legacy preferences: %w", err)
	}
	if ok {
		var section any
		if err := json.Unmarshal([]byte(legacy), &section); err != nil {
			return fmt.Errorf("failed to decode legacy preferences: %w", err)
		}
		record[buttonConfigField] = section
		if err := s.writeRecord(ctx, record); err != nil {
			return err
		}
		if err := s.storage.RemoveItem(ctx, LegacyButtonConfigKey); err != nil {
			return fmt.Errorf("failed to remove legacy preferences: %w", err)
		}
		s.logger.Info("migrated legacy button preferences", "from", LegacyButtonConfigKey, "to", PreferencesKey)
	}

	var buttons ButtonConfig
	if section, ok := record[buttonConfigField]; ok && section != nil {
		if err := mapstructure.Decode(section, &buttons); err != nil {
			return fmt.Errorf("failed to decode button preferences: %w", err)
		}
	}

	s.record = record
	s.buttons = buttons
	return nil
}

// Save replaces the entry of mode and writes the whole record back. The other
// mode's entry is left untouched.
func (s *Store) Save(ctx context.Context, mode core.Mode, label string, alsoRun bool) error {
	entry := &ModeConfig{Text: &label, ShouldRunQuery: &alsoRun}
	buttons := s.buttons
	if mode == core.ModeEdit {
		buttons.EditMode = entry
	} else {
		buttons.CreateMode = entry
	}

	record := make(map[string]any, len(s.record)+1)
	for k, v := range s.record {
		record[k] = v
	}
	record[buttonConfigField] = buttons
	if err := s.writeRecord(ctx, record); err != nil {
		return err
	}

	s.record = record
	s.buttons = buttons
	s.logger.Debug("saved button preference", "mode", mode, "label", label, "also_run", alsoRun)
	return nil
}

// Resolve returns the preference for mode, falling back to the defaults.
func (s *Store) Resolve(mode core.Mode) core.ButtonPreference {
	pref := Default(mode)
	entry := s.buttons.CreateMode
	if mode == core.ModeEdit {
		entry = s.buttons.EditMode
	}
	if entry == nil {
		return pref
	}
	if entry.Text != nil {
		pref.Label = *entry.Text
	}
	if entry.ShouldRunQuery != nil {
		pref.AlsoRun = *entry.ShouldRunQuery
	}
	return pref
}

// Buttons returns the stored button config.
func (s *Store) Buttons() ButtonConfig {
	return s.buttons
}

// DiscardTransformDraft drops the transform editor's cached draft.
func (s *Store) DiscardTransformDraft(ctx context.Context) error {
	if err := s.storage.RemoveItem(ctx, TransformDraftKey); err != nil {
		return fmt.Errorf("failed to discard transformation draft: %w", err)
	}
	return nil
}

// Default returns the built-in preference of mode.
func Default(mode core.Mode) core.ButtonPreference {
	if mode == core.ModeEdit {
		return core.ButtonPreference{Label: DefaultEditLabel, AlsoRun: true}
	}
	return core.ButtonPreference{Label: DefaultCreateLabel, AlsoRun: true}
}

func (s *Store) readRecord(ctx context.Context) (map[string]any, error) {
	raw, ok, err := s.storage.GetItem(ctx, PreferencesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	record := map[string]any{}
	if !ok || raw == "" || raw == "null" {
		return record, nil
	}
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("failed to decode preferences: %w", err)
	}
	if record == nil {
		record = map[string]any{}
	}
	return record, nil
}

func (s *Store) writeRecord(ctx context.Context, record map[string]any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := s.storage.SetItem(ctx, PreferencesKey, string(data)); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}
