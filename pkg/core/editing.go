package core

// Mode is the editing mode of the query manager.
type Mode string

// Editing modes.
const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeCreate || m == ModeEdit
}

// Tab selects the visible section of the editor.
type Tab int

// Editor tabs.
const (
	TabGeneral  Tab = 1
	TabAdvanced Tab = 2
)

// ButtonPreference is the user's choice for the primary action button.
type ButtonPreference struct {
	Label   string `json:"text"`
	AlsoRun bool   `json:"shouldRunQuery"`
}
