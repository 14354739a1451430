package circuit

import (
	"fmt"
	"strings"
)

// Name prefixes of generated names.
const (
	NetPrefix    = "N$"
	BusPrefix    = "B$"
	NoConnectNet = "__NOCONNECT"
)

// Net is a named connection point. Nets joined by Connect stay separate
// objects linked through a shared pin; Pins and Nets walk the whole group.
type Net struct {
	DoERC bool

	name      string
	fixed     bool
	drive     Drive
	pins      []*Pin
	circuit   *Circuit
	hierarchy string
	nc        bool

	// retired nets were folded into forward by Circuit.MergeNets.
	retired bool
	forward *Net
}

// NetOption configures a net created by Circuit.NewNet.
type NetOption func(*Net)

// Fixed marks the requested name as fixed, so name merging never replaces it.
func Fixed() NetOption {
	return func(n *Net) { n.fixed = true }
}

// WithDrive sets the initial drive of the net.
func WithDrive(d Drive) NetOption {
	return func(n *Net) { n.drive = d }
}

func newNet(c *Circuit) *Net {
	return &Net{DoERC: true, drive: DriveNone, circuit: c}
}

// Name returns the net name.
func (n *Net) Name() string { return n.name }

// String returns the net name.
func (n *Net) String() string { return n.name }

// IsFixed reports whether the name is fixed.
func (n *Net) IsFixed() bool { return n.fixed }

// IsNoConnect reports whether n is the circuit's no-connect net.
func (n *Net) IsNoConnect() bool { return n.nc }

// Circuit returns the circuit that owns the net.
func (n *Net) Circuit() *Circuit { return n.circuit }

// Hierarchy returns the hierarchy path recorded when the net joined its circuit.
func (n *Net) Hierarchy() string { return n.hierarchy }

// Valid reports whether the net can still be mutated.
func (n *Net) Valid() bool { return !n.retired }

// IsImplicit reports whether the net carries a generated name.
func (n *Net) IsImplicit() bool {
	return n.name == "" || strings.HasPrefix(n.name, NetPrefix) || strings.HasPrefix(n.name, BusPrefix)
}

// IsMovable reports whether the net may change circuits.
func (n *Net) IsMovable() bool {
	return n.circuit == nil || len(n.pins) == 0
}

// SetName renames the net, keeping names unique within its circuit.
func (n *Net) SetName(name string) error {
	if err := n.checkMutable(); err != nil {
		return err
	}
	if n.nc {
		return fmt.Errorf("%w: the no-connect net cannot be renamed", ErrIllegalMutation)
	}
	if n.circuit == nil {
		n.name = name
		return nil
	}
	n.circuit.renameNet(n, name)
	return nil
}

// SetFixed sets or clears the fixed-name flag.
func (n *Net) SetFixed(fixed bool) { n.fixed = fixed }

// Drive returns the strongest drive assigned to any net of the group.
func (n *Net) Drive() Drive {
	if n.nc {
		return DriveNoConnect
	}
	nets, _ := n.traverse()
	d := n.drive
	for _, m := range nets {
		d = max(d, m.drive)
	}
	return d
}

// SetDrive raises the drive of every net in the group to d. A drive never
// decreases; lower values are ignored.
func (n *Net) SetDrive(d Drive) error {
	if n.nc {
		return fmt.Errorf("%w: drive of the no-connect net is fixed", ErrIllegalMutation)
	}
	if err := n.checkMutable(); err != nil {
		return err
	}
	nets, _ := n.traverse()
	for _, m := range nets {
		m.drive = max(m.drive, d)
	}
	return nil
}

// Endpoints implements Connectable.
func (n *Net) Endpoints() []Endpoint { return []Endpoint{n} }

func (*Net) endpoint() {}

// Connect attaches pins and merges nets into n. Buses and groups connect
// every one of their lines to n.
func (n *Net) Connect(items ...Connectable) error {
	if err := n.checkMutable(); err != nil {
		return err
	}
	for _, item := range items {
		if item == nil {
			return fmt.Errorf("%w: nil", ErrIllegalOperand)
		}
		for _, ep := range item.Endpoints() {
			var err error
			switch t := ep.(type) {
			case *Pin:
				if t == nil {
					return fmt.Errorf("%w: nil pin", ErrIllegalOperand)
				}
				err = n.attach(t)
			case *Net:
				if t == nil {
					return fmt.Errorf("%w: nil net", ErrIllegalOperand)
				}
				err = n.join(t)
			default:
				err = fmt.Errorf("%w: %T", ErrIllegalOperand, ep)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// attach adds a pin to this net.
func (n *Net) attach(p *Pin) error {
	if pc := p.Circuit(); pc != nil && pc != n.circuit {
		return fmt.Errorf("attach %s to net %s: %w", p, n.name, ErrCrossCircuit)
	}
	if p.part == nil && !p.tie && n.circuit != nil {
		n.circuit.log.Warn("attaching a pin with no part", "net", n.name, "pin", p.Num)
	}
	if p.onNet(n) {
		return nil
	}

	if n.nc {
		if p.IsConnected() {
			return fmt.Errorf("%w: pin %s is already connected to net %s", ErrNoConnect, p, p.normalNet().name)
		}
		n.pins = append(n.pins, p)
		p.nets = append(p.nets, n)
		p.ncMarked = true
		return nil
	}

	p.evictNC()
	n.pins = append(n.pins, p)
	p.nets = append(p.nets, n)
	return nil
}

// join links two nets through a pin they share. When neither net has a pin
// yet, a tie pin is created to hold the link.
func (n *Net) join(o *Net) error {
	if o == n {
		return nil
	}
	if err := o.checkMutable(); err != nil {
		return err
	}
	if n.nc || o.nc {
		return fmt.Errorf("%w: cannot join with the no-connect net", ErrNoConnect)
	}
	if o.circuit != n.circuit {
		return fmt.Errorf("join nets %s and %s: %w", n.name, o.name, ErrCrossCircuit)
	}
	if n.linked(o) {
		return nil
	}

	switch {
	case len(n.pins) > 0:
		link(n.pins[0], o)
	case len(o.pins) > 0:
		link(o.pins[0], n)
	default:
		tie := newTiePin()
		link(tie, n)
		link(tie, o)
	}
	return nil
}

// linked reports whether a pin of n is already attached directly to o.
func (n *Net) linked(o *Net) bool {
	for _, p := range n.pins {
		if p.onNet(o) {
			return true
		}
	}
	return false
}

func link(p *Pin, n *Net) {
	if p.onNet(n) {
		return
	}
	n.pins = append(n.pins, p)
	p.nets = append(p.nets, n)
}

// Disconnect detaches p from this net only.
func (n *Net) Disconnect(p *Pin) error {
	if err := n.checkMutable(); err != nil {
		return err
	}
	if !p.onNet(n) {
		return fmt.Errorf("%w: pin %s is not on net %s", ErrIllegalOperand, p, n.name)
	}
	n.removePin(p)
	kept := p.nets[:0]
	for _, m := range p.nets {
		if m != n {
			kept = append(kept, m)
		}
	}
	p.nets = kept
	return nil
}

func (n *Net) removePin(p *Pin) {
	for i, x := range n.pins {
		if x == p {
			n.pins = append(n.pins[:i], n.pins[i+1:]...)
			return
		}
	}
}

// Copy creates count new nets in the same circuit with the same settings.
// Only nets without pins can be copied.
func (n *Net) Copy(count int) ([]*Net, error) {
	if err := n.checkMutable(); err != nil {
		return nil, err
	}
	if n.nc {
		return nil, fmt.Errorf("%w: the no-connect net cannot be copied", ErrCopyPrecondition)
	}
	if len(n.pins) > 0 {
		return nil, fmt.Errorf("%w: net %s has %d pins", ErrCopyPrecondition, n.name, len(n.pins))
	}
	if count < 0 {
		return nil, fmt.Errorf("circuit: negative copy count %d", count)
	}
	if n.circuit == nil {
		return nil, fmt.Errorf("%w: net %s belongs to no circuit", ErrCopyPrecondition, n.name)
	}

	copies := make([]*Net, 0, count)
	for range count {
		cp := n.circuit.NewNet(n.name, WithDrive(n.drive))
		cp.DoERC = n.DoERC
		copies = append(copies, cp)
	}
	return copies, nil
}

// DirectPins returns the pins attached to this net object itself, without
// following merges.
func (n *Net) DirectPins() []*Pin {
	return realPins(n.pins)
}

// Pins returns every pin electrically connected to n.
func (n *Net) Pins() []*Pin {
	_, pins := n.traverse()
	return realPins(pins)
}

// Nets returns every net merged with n, n's group first.
func (n *Net) Nets() []*Net {
	nets, _ := n.traverse()
	return nets
}

// Len returns the number of connected pins.
func (n *Net) Len() int { return len(n.Pins()) }

// IsAttached reports whether the pin or net is part of n's group.
func (n *Net) IsAttached(ep Endpoint) bool {
	nets, pins := n.traverse()
	switch t := ep.(type) {
	case *Pin:
		for _, p := range pins {
			if p == t {
				return true
			}
		}
	case *Net:
		for _, m := range nets {
			if m == t {
				return true
			}
		}
	}
	return false
}

func (n *Net) checkMutable() error {
	if n.retired {
		return fmt.Errorf("net %s: %w", n.name, ErrInvalidNet)
	}
	return nil
}

func realPins(pins []*Pin) []*Pin {
	out := make([]*Pin, 0, len(pins))
	for _, p := range pins {
		if !p.tie {
			out = append(out, p)
		}
	}
	return out
}
