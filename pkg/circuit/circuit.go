package circuit

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Circuit owns parts, nets and buses. It keeps their names unique, records
// where in the hierarchy each one was created and holds the shared no-connect net.
//
// Circuit methods are not synchronized. Callers that share a circuit between
// goroutines wrap mutations in Write and queries in Read.
type Circuit struct {
	Name string

	parts []*Part
	nets  []*Net
	buses []*Bus

	partRefs nameSpace
	netNames nameSpace
	busNames nameSpace

	nc     *Net
	root   *Node
	active *Node
	log    *slog.Logger
	mu     sync.RWMutex
}

// Option configures a Circuit.
type Option func(*Circuit)

// WithLogger sets the logger that receives circuit warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Circuit) {
		if l != nil {
			c.log = l
		}
	}
}

// WithName sets the circuit name, which is also the name of the hierarchy root.
func WithName(name string) Option {
	return func(c *Circuit) { c.Name = name }
}

// New creates an empty circuit.
func New(opts ...Option) *Circuit {
	c := &Circuit{Name: "top", log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	c.Reset()
	return c
}

// Reset removes every member and starts a fresh hierarchy. Parts are
// disconnected so they can be added to another circuit.
func (c *Circuit) Reset() {
	for _, p := range c.parts {
		p.Disconnect()
		p.circuit, p.node = nil, nil
	}
	for _, n := range c.nets {
		n.circuit = nil
	}
	for _, b := range c.buses {
		b.circuit = nil
	}
	c.parts, c.nets, c.buses = nil, nil, nil
	c.partRefs, c.netNames, c.busNames = nameSpace{}, nameSpace{}, nameSpace{}

	c.root = newNode(c.Name, nil)
	c.active = c.root
	c.nc = &Net{name: NoConnectNet, nc: true, drive: DriveNoConnect, circuit: c, hierarchy: c.root.Path()}
}

// NC returns the circuit's no-connect net.
func (c *Circuit) NC() *Net { return c.nc }

// Logger returns the logger used for circuit warnings.
func (c *Circuit) Logger() *slog.Logger { return c.log }

// Read runs fn while holding the circuit's read lock.
func (c *Circuit) Read(fn func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn()
}

// Write runs fn while holding the circuit's write lock.
func (c *Circuit) Write(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn()
}

// NewNet creates a net in the circuit. An empty name gets a generated one.
func (c *Circuit) NewNet(name string, opts ...NetOption) *Net {
	n := newNet(c)
	for _, opt := range opts {
		opt(n)
	}
	c.registerNet(n, name)
	return n
}

func (c *Circuit) registerNet(n *Net, name string) {
	n.circuit = c
	n.name = c.netNames.claim(NetPrefix, name)
	n.hierarchy = c.active.Path()
	c.nets = append(c.nets, n)
}

func (c *Circuit) renameNet(n *Net, name string) {
	c.netNames.release(n.name)
	n.name = c.netNames.claim(NetPrefix, name)
}

// Instantiate copies a template part into the circuit under the requested reference.
func (c *Circuit) Instantiate(tmpl *Part, ref string) (*Part, error) {
	p := tmpl.Copy()
	p.ref = ref
	if err := c.AddParts(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Member is a part, net or bus.
type Member interface {
	IsMovable() bool
}

// Add adds parts, nets and buses to the circuit.
func (c *Circuit) Add(members ...Member) error {
	for _, m := range members {
		var err error
		switch t := m.(type) {
		case *Part:
			err = c.AddParts(t)
		case *Net:
			err = c.AddNets(t)
		case *Bus:
			err = c.AddBuses(t)
		default:
			err = fmt.Errorf("%w: cannot add %T to a circuit", ErrIllegalOperand, m)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Remove removes parts, nets and buses from the circuit.
func (c *Circuit) Remove(members ...Member) error {
	for _, m := range members {
		var err error
		switch t := m.(type) {
		case *Part:
			err = c.RemoveParts(t)
		case *Net:
			err = c.RemoveNets(t)
		case *Bus:
			err = c.RemoveBuses(t)
		default:
			err = fmt.Errorf("%w: cannot remove %T from a circuit", ErrIllegalOperand, m)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// AddParts moves parts into the circuit. A part already connected inside
// another circuit cannot move.
func (c *Circuit) AddParts(parts ...*Part) error {
	for _, p := range parts {
		if p == nil {
			return fmt.Errorf("%w: nil part", ErrIllegalOperand)
		}
		if p.circuit == c {
			continue
		}
		if !p.IsMovable() {
			return fmt.Errorf("part %s: %w", p, ErrUnmovable)
		}
		for _, pin := range p.pins {
			if n := pin.normalNet(); n != nil && n.circuit != c {
				return fmt.Errorf("part %s is wired to net %s of another circuit: %w", p, n.name, ErrUnmovable)
			}
		}
		if p.circuit != nil {
			p.Disconnect()
			p.circuit.dropPart(p)
		}

		prefix := p.RefPrefix
		if prefix == "" {
			prefix = DefaultRefPrefix
		}
		p.circuit = c
		p.node = c.active
		p.hierarchy = c.active.Path()
		p.ref = c.partRefs.claim(prefix, p.ref)
		if p.tag == "" {
			p.tag = uuid.New().String()
		}
		c.parts = append(c.parts, p)
		c.active.parts = append(c.active.parts, p)
	}
	return nil
}

// AddNets moves nets into the circuit. Nets with attached pins cannot move.
func (c *Circuit) AddNets(nets ...*Net) error {
	for _, n := range nets {
		if n == nil {
			return fmt.Errorf("%w: nil net", ErrIllegalOperand)
		}
		if n.nc {
			return fmt.Errorf("%w: the no-connect net cannot be moved", ErrUnmovable)
		}
		if err := n.checkMutable(); err != nil {
			return err
		}
		if n.circuit == c {
			continue
		}
		if !n.IsMovable() {
			return fmt.Errorf("net %s: %w", n.name, ErrUnmovable)
		}
		if n.circuit != nil {
			n.circuit.dropNet(n)
		}
		c.registerNet(n, n.name)
	}
	return nil
}

// AddBuses moves buses and their nets into the circuit.
func (c *Circuit) AddBuses(buses ...*Bus) error {
	for _, b := range buses {
		if b == nil {
			return fmt.Errorf("%w: nil bus", ErrIllegalOperand)
		}
		if b.circuit == c {
			continue
		}
		if !b.IsMovable() {
			return fmt.Errorf("bus %s: %w", b.name, ErrUnmovable)
		}
		if err := c.AddNets(b.nets...); err != nil {
			return err
		}
		if b.circuit != nil {
			b.circuit.dropBus(b)
		}
		b.circuit = c
		b.hierarchy = c.active.Path()
		b.name = c.busNames.claim(BusPrefix, b.name)
		c.buses = append(c.buses, b)
	}
	return nil
}

// RemoveParts disconnects parts and takes them out of the circuit.
func (c *Circuit) RemoveParts(parts ...*Part) error {
	for _, p := range parts {
		if p == nil || p.circuit != c {
			return fmt.Errorf("part %v: %w", p, ErrNotMember)
		}
		p.Disconnect()
		c.dropPart(p)
		p.circuit, p.node, p.hierarchy = nil, nil, ""
	}
	return nil
}

// RemoveNets takes pinless nets out of the circuit.
func (c *Circuit) RemoveNets(nets ...*Net) error {
	for _, n := range nets {
		if n == nil || n.circuit != c || n.nc || n.retired {
			return fmt.Errorf("net %v: %w", n, ErrNotMember)
		}
		if len(n.pins) > 0 {
			return fmt.Errorf("net %s has pins: %w", n.name, ErrUnmovable)
		}
		c.dropNet(n)
		n.circuit, n.hierarchy = nil, ""
	}
	return nil
}

// RemoveBuses takes buses and their nets out of the circuit. Every net of the
// bus must be free of pins.
func (c *Circuit) RemoveBuses(buses ...*Bus) error {
	for _, b := range buses {
		if b == nil || b.circuit != c {
			return fmt.Errorf("bus %v: %w", b, ErrNotMember)
		}
		if !b.IsMovable() {
			return fmt.Errorf("bus %s: %w", b.name, ErrUnmovable)
		}
		for _, n := range b.nets {
			if n.circuit == c {
				if err := c.RemoveNets(n); err != nil {
					return err
				}
			}
		}
		c.dropBus(b)
		b.circuit, b.hierarchy = nil, ""
	}
	return nil
}

func (c *Circuit) dropPart(p *Part) {
	c.parts = without(c.parts, p)
	c.partRefs.release(p.ref)
	if p.node != nil {
		p.node.parts = without(p.node.parts, p)
	}
}

func (c *Circuit) dropNet(n *Net) {
	c.nets = without(c.nets, n)
	c.netNames.release(n.name)
}

func (c *Circuit) dropBus(b *Bus) {
	c.buses = without(c.buses, b)
	c.busNames.release(b.name)
}

func without[T comparable](list []T, x T) []T {
	for i, v := range list {
		if v == x {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

// Parts returns the parts in insertion order.
func (c *Circuit) Parts() []*Part { return append([]*Part(nil), c.parts...) }

// Buses returns the buses in insertion order.
func (c *Circuit) Buses() []*Bus { return append([]*Bus(nil), c.buses...) }

// AllNets returns every net object, including merged segments and nets with
// no pins. The no-connect net is not included.
func (c *Circuit) AllNets() []*Net { return append([]*Net(nil), c.nets...) }

// Nets returns one net per group of merged nets, skipping groups without pins.
func (c *Circuit) Nets() []*Net {
	seen := make(map[*Net]bool)
	var out []*Net
	for _, n := range c.nets {
		if seen[n] {
			continue
		}
		nets, pins := n.traverse()
		for _, m := range nets {
			seen[m] = true
		}
		if len(realPins(pins)) == 0 {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Part returns the part with the given reference.
func (c *Circuit) Part(ref string) *Part {
	for _, p := range c.parts {
		if p.ref == ref {
			return p
		}
	}
	return nil
}

// Net returns the first net with the given name.
func (c *Circuit) Net(name string) *Net {
	if name == NoConnectNet {
		return c.nc
	}
	for _, n := range c.nets {
		if n.name == name {
			return n
		}
	}
	return nil
}

// Bus returns the bus with the given name.
func (c *Circuit) Bus(name string) *Bus {
	for _, b := range c.buses {
		if b.name == name {
			return b
		}
	}
	return nil
}

// MergeNetNames runs Net.MergeNames once for every group of merged nets and
// returns the collected warnings.
func (c *Circuit) MergeNetNames() ([]string, error) {
	var warnings []string
	var errs []error
	seen := make(map[*Net]bool)
	for _, n := range c.nets {
		if seen[n] {
			continue
		}
		for _, m := range n.Nets() {
			seen[m] = true
		}
		w, err := n.MergeNames()
		warnings = append(warnings, w...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return warnings, errors.Join(errs...)
}

// MergeNets folds each group of merged nets into its first net. Pins move to
// that net and tie pins are dropped. The other nets leave the circuit and are
// marked invalid; they still answer queries for the group they joined.
func (c *Circuit) MergeNets() error {
	if _, err := c.MergeNetNames(); err != nil {
		return err
	}

	seen := make(map[*Net]bool)
	for _, n := range append([]*Net(nil), c.nets...) {
		if seen[n] {
			continue
		}
		nets, pins := n.traverse()
		for _, m := range nets {
			seen[m] = true
		}
		if len(nets) < 2 {
			continue
		}

		rep := nets[0]
		for _, m := range nets[1:] {
			rep.drive = max(rep.drive, m.drive)
			rep.fixed = rep.fixed || m.fixed
			rep.DoERC = rep.DoERC && m.DoERC
			c.dropNet(m)
			m.pins = nil
			m.retired = true
			m.forward = rep
		}
		rep.pins = rep.pins[:0]
		for _, p := range realPins(pins) {
			kept := p.nets[:0]
			for _, x := range p.nets {
				if x.nc {
					kept = append(kept, x)
				}
			}
			p.nets = append(kept, rep)
			rep.pins = append(rep.pins, p)
		}
	}

	for _, b := range c.buses {
		for i, n := range b.nets {
			b.nets[i] = n.anchor()
		}
	}
	return nil
}

// CullUnconnectedParts removes parts whose pins are all unconnected.
func (c *Circuit) CullUnconnectedParts() []*Part {
	var culled []*Part
	for _, p := range append([]*Part(nil), c.parts...) {
		if len(p.pins) > 0 && !p.IsConnected() {
			p.Disconnect()
			c.dropPart(p)
			p.circuit, p.node, p.hierarchy = nil, nil, ""
			culled = append(culled, p)
		}
	}
	return culled
}
