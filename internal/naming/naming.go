// Package naming allocates and validates query names.
package naming

import (
	"regexp"
	"strconv"

	"github.com/leapstack-labs/leapquery/pkg/core"
)

// InvalidNameMessage is shown to the user when a name fails validation.
const InvalidNameMessage = "Invalid query name. Should be unique and only include letters, numbers and underscore."

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]*$`)

// MatchesPattern reports whether name only uses letters, digits, '_' and '-'.
func MatchesPattern(name string) bool {
	return namePattern.MatchString(name)
}

// Allocate returns the first free name of the form "<kind><n>", starting at
// one past the number of siblings that already share the kind.
func Allocate(kind string, siblings []core.Query) string {
	taken := make(map[string]struct{}, len(siblings))
	n := 1
	for _, q := range siblings {
		taken[q.Name] = struct{}{}
		if q.Kind == kind {
			n++
		}
	}

	for {
		candidate := kind + strconv.Itoa(n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
		n++
	}
}

// IsValidName reports whether name may be used for the query being edited.
// In edit mode a collision with the query's own current name is allowed.
func IsValidName(name string, mode core.Mode, siblings []core.Query, currentID string) bool {
	existing := core.FindQueryByName(siblings, name)
	if mode == core.ModeCreate {
		return existing == nil && MatchesPattern(name)
	}
	if existing != nil {
		return existing.ID == currentID && MatchesPattern(name)
	}
	return MatchesPattern(name)
}
