package circuit

import "fmt"

// Unit is a named subset of a part's pins, such as one gate of a quad NAND.
// Pins are shared with the parent part.
type Unit struct {
	Label string
	Num   int

	parent *Part
	pins   []*Pin
	idx    pinIndex
}

// MakeUnit creates or replaces the unit with the given label from the pins
// selected by ids.
func (p *Part) MakeUnit(label string, ids ...any) (*Unit, error) {
	if label == "" {
		return nil, fmt.Errorf("circuit: unit label is empty")
	}
	pins, err := p.Get(ids...)
	if err != nil {
		return nil, err
	}
	if p.circuit != nil {
		if hits, _ := p.ByName(label); len(hits) > 0 {
			p.circuit.log.Warn("unit label matches a pin name or alias", "part", p.String(), "unit", label)
		}
	}

	u := &Unit{Label: label, parent: p, pins: pins}
	u.reindex()
	for i, old := range p.units {
		if old.Label == label {
			u.Num = old.Num
			p.units[i] = u
			return u, nil
		}
	}
	u.Num = len(p.units) + 1
	p.units = append(p.units, u)
	return u, nil
}

// Unit returns the unit with the given label.
func (p *Part) Unit(label string) *Unit {
	for _, u := range p.units {
		if u.Label == label {
			return u
		}
	}
	return nil
}

// Units returns the units in creation order.
func (p *Part) Units() []*Unit { return append([]*Unit(nil), p.units...) }

// Parent returns the part the unit belongs to.
func (u *Unit) Parent() *Part { return u.parent }

// Ref returns the parent reference joined with the unit label.
func (u *Unit) Ref() string { return u.parent.ref + HierSep + u.Label }

// Pins returns the unit's pins.
func (u *Unit) Pins() []*Pin { return append([]*Pin(nil), u.pins...) }

// Endpoints implements Connectable.
func (u *Unit) Endpoints() []Endpoint {
	out := make([]Endpoint, len(u.pins))
	for i, p := range u.pins {
		out[i] = p
	}
	return out
}

// Get resolves ids against the unit's pins only.
func (u *Unit) Get(ids ...any) ([]*Pin, error) {
	r := resolver{pins: u.pins, idx: u.idx, matchRegex: u.parent.MatchRegex}
	return r.resolve(ids)
}

// Pin returns the single unit pin selected by id.
func (u *Unit) Pin(id any) (*Pin, error) {
	pins, err := u.Get(id)
	if err != nil {
		return nil, err
	}
	return one(u.Ref(), id, pins)
}

func (u *Unit) reindex() {
	u.idx = buildIndex(u.pins)
}
