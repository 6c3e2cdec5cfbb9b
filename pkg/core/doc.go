// Package core defines the shared language of the leapquery system.
//
// This package contains:
//   - Domain entities (Query, DataSource, SourceMeta, ButtonPreference)
//   - Editing vocabulary (Mode, Tab, sentinel identifiers)
//   - Error types shared by the editor, the query service and its client
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
