package circuit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// IndexSeparator splits several identifiers given in one string.
const IndexSeparator = ","

// IndexRange is an inclusive range of indices. From may be greater than To
// for a descending range.
type IndexRange struct {
	From, To int
	all      bool
}

// Span returns the inclusive range from..to.
func Span(from, to int) IndexRange { return IndexRange{From: from, To: to} }

// All selects every index.
var All = IndexRange{all: true}

// expand lists the indices of r within [lo, hi].
func (r IndexRange) expand(lo, hi int) ([]int, error) {
	if r.all {
		if hi < lo {
			return nil, nil
		}
		return seq(lo, hi), nil
	}
	if r.From < lo || r.From > hi || r.To < lo || r.To > hi {
		return nil, fmt.Errorf("%w: %d:%d outside %d:%d", ErrIndex, r.From, r.To, lo, hi)
	}
	return seq(r.From, r.To), nil
}

func seq(from, to int) []int {
	step := 1
	if from > to {
		step = -1
	}
	out := make([]int, 0, abs(to-from)+1)
	for i := from; ; i += step {
		out = append(out, i)
		if i == to {
			break
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

var busNotation = regexp.MustCompile(`^(.+)\[([0-9]+):([0-9]+)\](.*)$`)

// explode expands bus notation such as "D[0:3]" into D0, D1, D2, D3. A
// string without bus notation is returned alone.
func explode(id string) []string {
	m := busNotation.FindStringSubmatch(id)
	if m == nil {
		return []string{id}
	}
	from, _ := strconv.Atoi(m[2])
	to, _ := strconv.Atoi(m[3])
	var out []string
	for _, i := range seq(from, to) {
		out = append(out, m[1]+strconv.Itoa(i)+m[4])
	}
	return out
}

// splitIDs splits a string on IndexSeparator and expands bus notation.
func splitIDs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, IndexSeparator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, explode(part)...)
	}
	return out
}

// flattenIDs expands nested identifier lists into ints, strings and patterns.
// Ranges are expanded against [lo, hi].
func flattenIDs(lo, hi int, ids []any) ([]any, error) {
	var out []any
	for _, id := range ids {
		switch t := id.(type) {
		case int:
			out = append(out, t)
		case IndexRange:
			idx, err := t.expand(lo, hi)
			if err != nil {
				return nil, err
			}
			for _, i := range idx {
				out = append(out, i)
			}
		case string:
			for _, s := range splitIDs(t) {
				out = append(out, s)
			}
		case []string:
			for _, s := range t {
				out = append(out, splitIDsAny(s)...)
			}
		case []int:
			for _, i := range t {
				out = append(out, i)
			}
		case *regexp.Regexp:
			out = append(out, t)
		case []any:
			sub, err := flattenIDs(lo, hi, t)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		default:
			return nil, fmt.Errorf("%w: index of type %T", ErrIllegalOperand, id)
		}
	}
	return out, nil
}

func splitIDsAny(s string) []any {
	var out []any
	for _, x := range splitIDs(s) {
		out = append(out, x)
	}
	return out
}
