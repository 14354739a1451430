package circuit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// searchMode restricts which pin attributes a lookup consults.
type searchMode int

const (
	searchAll searchMode = iota
	searchNumbers
	searchNames
)

// pinIndex maps lowercased identifiers to pins in part order.
type pinIndex struct {
	byNum   map[string][]*Pin
	byAlias map[string][]*Pin
	byName  map[string][]*Pin
}

func buildIndex(pins []*Pin) pinIndex {
	idx := pinIndex{
		byNum:   make(map[string][]*Pin),
		byAlias: make(map[string][]*Pin),
		byName:  make(map[string][]*Pin),
	}
	for _, p := range pins {
		idx.byNum[strings.ToLower(p.Num)] = append(idx.byNum[strings.ToLower(p.Num)], p)
		if p.Name != "" {
			idx.byName[strings.ToLower(p.Name)] = append(idx.byName[strings.ToLower(p.Name)], p)
		}
		for _, a := range p.aliasSet() {
			key := strings.ToLower(a)
			if !containsPin(idx.byAlias[key], p) {
				idx.byAlias[key] = append(idx.byAlias[key], p)
			}
		}
	}
	return idx
}

func containsPin(pins []*Pin, p *Pin) bool {
	for _, x := range pins {
		if x == p {
			return true
		}
	}
	return false
}

// resolver looks pins up by identifier over a fixed pin set.
type resolver struct {
	pins       []*Pin
	idx        pinIndex
	matchRegex bool
	mode       searchMode
}

// resolve returns the pins selected by ids, in id order without duplicates.
// Each id takes the first non-empty match of: number, alias, name, then alias
// and name patterns when pattern matching is on. No ids selects every pin.
func (r resolver) resolve(ids []any) ([]*Pin, error) {
	if len(ids) == 0 {
		return append([]*Pin(nil), r.pins...), nil
	}
	lo, hi := r.numRange()
	flat, err := flattenIDs(lo, hi, ids)
	if err != nil {
		return nil, err
	}

	var out []*Pin
	seen := make(map[*Pin]bool)
	add := func(pins []*Pin) {
		for _, p := range pins {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	for _, id := range flat {
		switch t := id.(type) {
		case int:
			if r.mode != searchNames {
				add(r.idx.byNum[strconv.Itoa(t)])
			}
		case string:
			add(r.lookup(t))
		case *regexp.Regexp:
			add(r.match(t))
		}
	}
	return out, nil
}

func (r resolver) lookup(id string) []*Pin {
	key := strings.ToLower(id)
	if r.mode != searchNames {
		if pins := r.idx.byNum[key]; len(pins) > 0 {
			return pins
		}
	}
	if r.mode == searchNumbers {
		return nil
	}
	if pins := r.idx.byAlias[key]; len(pins) > 0 {
		return pins
	}
	if pins := r.idx.byName[key]; len(pins) > 0 {
		return pins
	}
	if !r.matchRegex {
		return nil
	}
	re, err := regexp.Compile("(?i)^(?:" + id + ")$")
	if err != nil {
		return nil
	}
	return r.match(re)
}

// match applies a pattern to aliases, then to names. Number-only lookups
// match pin numbers instead.
func (r resolver) match(re *regexp.Regexp) []*Pin {
	var out []*Pin
	if r.mode == searchNumbers {
		for _, p := range r.pins {
			if re.MatchString(p.Num) {
				out = append(out, p)
			}
		}
		return out
	}
	for _, p := range r.pins {
		for _, a := range p.aliasSet() {
			if re.MatchString(a) {
				out = append(out, p)
				break
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, p := range r.pins {
		if re.MatchString(p.Name) {
			out = append(out, p)
		}
	}
	return out
}

// numRange returns the smallest and largest numeric pin numbers.
func (r resolver) numRange() (int, int) {
	lo, hi, found := 0, -1, false
	for _, p := range r.pins {
		n, err := strconv.Atoi(p.Num)
		if err != nil {
			continue
		}
		if !found || n < lo {
			lo = n
		}
		if !found || n > hi {
			hi = n
		}
		found = true
	}
	return lo, hi
}

// one narrows a lookup result to a single pin.
func one(owner string, id any, pins []*Pin) (*Pin, error) {
	switch len(pins) {
	case 0:
		return nil, fmt.Errorf("%w: %s has no pin %v", ErrIndex, owner, id)
	case 1:
		return pins[0], nil
	default:
		return nil, fmt.Errorf("%w: %v matches %d pins of %s", ErrCardinality, id, len(pins), owner)
	}
}
