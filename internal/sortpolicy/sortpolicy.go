// Package sortpolicy produces the deterministic child ordering used by the
// flattened tree: directories first, then files, each group sorted by
// case-insensitive name with a byte-wise tiebreak.
package sortpolicy

import (
	"sort"
	"strings"

	"github.com/scto/Orbit-VFMS/internal/models"
)

// Policy orders a directory's children for display. Implementations must be
// pure over their input: no filesystem access, no mutation of the argument.
type Policy func(entries []models.Entry) []models.Entry

// Default filters hidden entries (leading dot) and orders the rest. This is
// the display-facing listing. An empty input yields an empty result.
func Default(entries []models.Entry) []models.Entry {
	visible := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name, ".") {
			continue
		}
		visible = append(visible, e)
	}
	order(visible)
	return visible
}

// Unfiltered orders all entries, hidden included. Used by non-display
// collaborators such as path bars.
func Unfiltered(entries []models.Entry) []models.Entry {
	out := make([]models.Entry, len(entries))
	copy(out, entries)
	order(out)
	return out
}

func order(entries []models.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return less(entries[i], entries[j])
	})
}

// less sorts directory-kind before file-kind, then case-insensitively by
// name, with a byte-wise comparison breaking case-only ties so the order is
// deterministic.
func less(a, b models.Entry) bool {
	aDir := a.Kind == models.KindDirectory
	bDir := b.Kind == models.KindDirectory
	if aDir != bDir {
		return aDir
	}
	la, lb := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if la != lb {
		return la < lb
	}
	return a.Name < b.Name
}
