package batch

import (
	"errors"
	"fmt"
	"slices"

	"github.com/voxstudio/gridparity/internal/catalog"
	"github.com/voxstudio/gridparity/internal/config"
	"github.com/voxstudio/gridparity/internal/suite"
)

// Target selects which models a batch run covers. At most one selector
// may be set; they are checked in the order Explicit, Suite, All2D, All.
type Target struct {
	// Explicit lists model names given directly by the caller.
	Explicit []string

	// Suite runs a named model collection.
	Suite *suite.Suite

	// All2D covers every 2D catalog model not in a skip list.
	All2D bool

	// All covers every catalog model not in a skip list.
	All bool
}

// Resolve expands the target against the catalog, in catalog order for
// the all forms.
//
// The all and all-2d forms drop skip-listed models. Explicit names and
// suite entries are taken as deliberate, so a skip-listed model can
// still be verified by naming it; they are only checked for existence,
// which catches a typo before minutes of engine time are spent on it.
func Resolve(tgt Target, models []catalog.Model, skip config.Skip) ([]string, error) {
	known := make(map[string]struct{}, len(models))
	for _, m := range models {
		known[m.Name] = struct{}{}
	}

	switch {
	case len(tgt.Explicit) > 0:
		for _, name := range tgt.Explicit {
			if _, ok := known[name]; !ok {
				return nil, fmt.Errorf("unknown model %q", name)
			}
		}
		return slices.Clone(tgt.Explicit), nil

	case tgt.Suite != nil:
		for _, name := range tgt.Suite.Models {
			if _, ok := known[name]; !ok {
				return nil, fmt.Errorf("suite %s: unknown model %q", tgt.Suite.Name, name)
			}
		}
		return slices.Clone(tgt.Suite.Models), nil

	case tgt.All2D:
		var out []string
		for _, m := range models {
			if !m.Is3D && !skip.Excluded(m.Name) {
				out = append(out, m.Name)
			}
		}
		return out, nil

	case tgt.All:
		var out []string
		for _, m := range models {
			if !skip.Excluded(m.Name) {
				out = append(out, m.Name)
			}
		}
		return out, nil

	default:
		return nil, errors.New("no models selected")
	}
}
