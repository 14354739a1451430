package circuit

import "fmt"

// Group is an ordered list of pins and nets that connects element by element.
type Group []Endpoint

// GroupOf expands items into one group.
func GroupOf(items ...Connectable) Group {
	var g Group
	for _, item := range items {
		if item == nil {
			continue
		}
		g = append(g, item.Endpoints()...)
	}
	return g
}

// Endpoints implements Connectable.
func (g Group) Endpoints() []Endpoint { return g }

// Len returns the number of endpoints.
func (g Group) Len() int { return len(g) }

// Connect pairs the endpoints of g with those of items. Equal widths connect
// one to one; a width of 1 on either side fans out to every endpoint of the
// other. Any other combination is a cardinality error and nothing is connected.
func (g Group) Connect(items ...Connectable) error {
	for _, item := range items {
		if item == nil {
			return fmt.Errorf("%w: nil", ErrIllegalOperand)
		}
	}
	src := GroupOf(items...)
	switch {
	case len(g) == len(src):
		for i := range g {
			if err := connectPair(g[i], src[i]); err != nil {
				return err
			}
		}
	case len(src) == 1:
		for _, ep := range g {
			if err := connectPair(ep, src[0]); err != nil {
				return err
			}
		}
	case len(g) == 1:
		for _, ep := range src {
			if err := connectPair(g[0], ep); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %d != %d", ErrCardinality, len(g), len(src))
	}
	return nil
}

// Nets returns the nets in the group.
func (g Group) Nets() []*Net {
	var out []*Net
	for _, ep := range g {
		if n, ok := ep.(*Net); ok {
			out = append(out, n)
		}
	}
	return out
}

// Pins returns the pins in the group.
func (g Group) Pins() []*Pin {
	var out []*Pin
	for _, ep := range g {
		if p, ok := ep.(*Pin); ok {
			out = append(out, p)
		}
	}
	return out
}
