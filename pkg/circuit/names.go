package circuit

import (
	"fmt"
	"sort"
	"strings"
)

// MergeNames gives every net of n's group one name. Preference goes to a
// name over none, a fixed name over a free one, and an explicit name over a
// generated one. Otherwise the first name wins and a warning is returned for
// each name dropped.
func (n *Net) MergeNames() ([]string, error) {
	nets, _ := n.traverse()
	if len(nets) < 2 {
		return nil, nil
	}

	var warnings []string
	best := nets[0]
	for _, m := range nets[1:] {
		sel, warn, err := selectName(best, m)
		if err != nil {
			return warnings, err
		}
		if warn != "" {
			warnings = append(warnings, warn)
		}
		best = sel
	}
	if w := tieWarning(nets, best); w != "" {
		warnings = append(warnings, w)
	}

	for _, m := range nets {
		if m.name == best.name {
			continue
		}
		if m.circuit != nil {
			m.circuit.netNames.release(m.name)
			m.circuit.netNames.add(best.name)
		}
		m.name = best.name
	}
	if n.circuit != nil {
		for _, w := range warnings {
			n.circuit.log.Warn(w)
		}
	}
	return warnings, nil
}

// selectName picks the preferred of two nets' names.
func selectName(a, b *Net) (*Net, string, error) {
	switch {
	case b.name == "" || a.name == b.name:
		return a, "", nil
	case a.name == "":
		return b, "", nil
	case a.fixed && b.fixed:
		return a, "", fmt.Errorf("%w: %s and %s", ErrNameConflict, a.name, b.name)
	case a.fixed:
		return a, "", nil
	case b.fixed:
		return b, "", nil
	case b.IsImplicit():
		return a, "", nil
	case a.IsImplicit():
		return b, "", nil
	}
	return a, fmt.Sprintf("merging two named nets (%s and %s) into %s", a.name, b.name, a.name), nil
}

// tieWarning reports three or more explicit names of equal rank competing in
// one group, which pairwise selection would otherwise resolve silently.
func tieWarning(nets []*Net, best *Net) string {
	if best.fixed {
		return ""
	}
	seen := make(map[string]bool)
	for _, m := range nets {
		if m.name != "" && !m.IsImplicit() {
			seen[m.name] = true
		}
	}
	if len(seen) < 3 {
		return ""
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("%d equally ranked names for one net (%s), keeping %s",
		len(names), strings.Join(names, ", "), best.name)
}
