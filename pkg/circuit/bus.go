package circuit

import (
	"fmt"
	"regexp"
	"strconv"
)

// Bus is an ordered list of nets. It refers to nets but does not own them.
type Bus struct {
	name      string
	nets      []*Net
	circuit   *Circuit
	hierarchy string
}

// NewBus creates a bus in the circuit. Items may be:
//   - int: that many new nets
//   - *Net: the net itself
//   - *Pin: the pin's net, or a new net connected to the pin
//   - *Bus: the nets of the other bus
//   - []any: any of the above
func (c *Circuit) NewBus(name string, items ...any) (*Bus, error) {
	if err := c.checkBusItems(items); err != nil {
		return nil, err
	}
	b := &Bus{circuit: c, hierarchy: c.active.Path()}
	b.name = c.busNames.claim(BusPrefix, name)
	c.buses = append(c.buses, b)
	if err := b.Extend(items...); err != nil {
		c.dropBus(b)
		b.circuit = nil
		return nil, err
	}
	return b, nil
}

// Name returns the bus name.
func (b *Bus) Name() string { return b.name }

func (b *Bus) String() string { return b.name }

// SetName renames the bus.
func (b *Bus) SetName(name string) {
	if b.circuit == nil {
		b.name = name
		return
	}
	b.circuit.busNames.release(b.name)
	b.name = b.circuit.busNames.claim(BusPrefix, name)
}

// Circuit returns the owning circuit.
func (b *Bus) Circuit() *Circuit { return b.circuit }

// Hierarchy returns the hierarchy path recorded for the bus.
func (b *Bus) Hierarchy() string { return b.hierarchy }

// Len returns the bus width.
func (b *Bus) Len() int { return len(b.nets) }

// Nets returns the nets in order.
func (b *Bus) Nets() []*Net { return append([]*Net(nil), b.nets...) }

// Line returns the net at index i, or nil when i is out of range.
func (b *Bus) Line(i int) *Net {
	if i < 0 || i >= len(b.nets) {
		return nil
	}
	return b.nets[i]
}

// Endpoints implements Connectable.
func (b *Bus) Endpoints() []Endpoint {
	out := make([]Endpoint, len(b.nets))
	for i, n := range b.nets {
		out[i] = n
	}
	return out
}

// Connect connects the bus lines to items with the width rules of Group.
func (b *Bus) Connect(items ...Connectable) error {
	return Group(b.Endpoints()).Connect(items...)
}

// IsMovable reports whether every net of the bus could move.
func (b *Bus) IsMovable() bool {
	for _, n := range b.nets {
		if !n.IsMovable() {
			return false
		}
	}
	return true
}

// Extend appends items to the end of the bus.
func (b *Bus) Extend(items ...any) error {
	return b.Insert(len(b.nets), items...)
}

// Insert places the nets described by items before index. Nets with
// generated names are renamed after the bus and their position in it.
func (b *Bus) Insert(index int, items ...any) error {
	if b.circuit == nil {
		return fmt.Errorf("%w: bus %s belongs to no circuit", ErrIllegalOperand, b.name)
	}
	if index < 0 || index > len(b.nets) {
		return fmt.Errorf("%w: insert at %d into bus of width %d", ErrIndex, index, len(b.nets))
	}
	if err := b.circuit.checkBusItems(items); err != nil {
		return err
	}
	nets, err := b.circuit.busNets(items)
	if err != nil {
		return err
	}

	tail := append(nets, b.nets[index:]...)
	b.nets = append(b.nets[:index:index], tail...)

	sep := ""
	if endsInDigit(b.name) {
		sep = "_"
	}
	for i, n := range b.nets {
		if n.IsImplicit() && !n.fixed && n.Valid() {
			b.circuit.renameNet(n, b.name+sep+strconv.Itoa(i))
		}
	}
	return nil
}

// checkBusItems rejects anything busNets cannot turn into nets, before any
// net is created.
func (c *Circuit) checkBusItems(items []any) error {
	for _, item := range items {
		switch t := item.(type) {
		case int:
			if t < 0 {
				return fmt.Errorf("%w: negative bus width %d", ErrIllegalOperand, t)
			}
		case *Net:
			if t == nil || t.nc {
				return fmt.Errorf("%w: bus line must be a normal net", ErrIllegalOperand)
			}
			if err := t.checkMutable(); err != nil {
				return err
			}
			if t.circuit != c {
				return fmt.Errorf("net %s: %w", t.name, ErrCrossCircuit)
			}
		case *Pin:
			if t == nil {
				return fmt.Errorf("%w: nil pin", ErrIllegalOperand)
			}
			if pc := t.Circuit(); pc != nil && pc != c {
				return fmt.Errorf("pin %s: %w", t, ErrCrossCircuit)
			}
		case *Bus:
			if t == nil {
				return fmt.Errorf("%w: nil bus", ErrIllegalOperand)
			}
			if t.circuit != c {
				return fmt.Errorf("bus %s: %w", t.name, ErrCrossCircuit)
			}
		case []any:
			if err := c.checkBusItems(t); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: bus item of type %T", ErrIllegalOperand, item)
		}
	}
	return nil
}

func (c *Circuit) busNets(items []any) ([]*Net, error) {
	var nets []*Net
	for _, item := range items {
		switch t := item.(type) {
		case int:
			for range t {
				nets = append(nets, c.NewNet(""))
			}
		case *Net:
			nets = append(nets, t)
		case *Pin:
			if n := t.normalNet(); n != nil {
				nets = append(nets, n)
				continue
			}
			n := c.NewNet("")
			if err := n.Connect(t); err != nil {
				return nil, err
			}
			nets = append(nets, n)
		case *Bus:
			nets = append(nets, t.nets...)
		case []any:
			sub, err := c.busNets(t)
			if err != nil {
				return nil, err
			}
			nets = append(nets, sub...)
		}
	}
	return nets, nil
}

// Get returns the lines selected by ids: integer indices, IndexRange values
// (inclusive, descending when From > To), net names with optional bus
// notation, or lists of these. An empty group means nothing matched.
func (b *Bus) Get(ids ...any) (Group, error) {
	flat, err := flattenIDs(0, len(b.nets)-1, ids)
	if err != nil {
		return nil, err
	}
	var g Group
	for _, id := range flat {
		switch t := id.(type) {
		case int:
			if t < 0 || t >= len(b.nets) {
				return nil, fmt.Errorf("%w: %d in bus %s of width %d", ErrIndex, t, b.name, len(b.nets))
			}
			g = append(g, b.nets[t])
		case string:
			found := false
			for _, n := range b.nets {
				if n.name == t {
					g = append(g, n)
					found = true
				}
			}
			if !found {
				if i, err := strconv.Atoi(t); err == nil && i >= 0 && i < len(b.nets) {
					g = append(g, b.nets[i])
				}
			}
		case *regexp.Regexp:
			for _, n := range b.nets {
				if t.MatchString(n.name) {
					g = append(g, n)
				}
			}
		}
	}
	return g, nil
}

// Copy creates count new buses of the same width with fresh nets. Only
// buses whose nets have no pins can be copied.
func (b *Bus) Copy(count int) ([]*Bus, error) {
	if b.circuit == nil {
		return nil, fmt.Errorf("%w: bus %s belongs to no circuit", ErrCopyPrecondition, b.name)
	}
	for _, n := range b.nets {
		if len(n.pins) > 0 {
			return nil, fmt.Errorf("%w: bus %s line %s has pins", ErrCopyPrecondition, b.name, n.name)
		}
	}
	if count < 0 {
		return nil, fmt.Errorf("circuit: negative copy count %d", count)
	}
	out := make([]*Bus, 0, count)
	for range count {
		cp, err := b.circuit.NewBus(b.name, len(b.nets))
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}
