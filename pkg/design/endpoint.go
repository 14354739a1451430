package design

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceNet/pkg/circuit"
)

const (
	netPrefix = "net:"
	busPrefix = "bus:"
)

// scope maps the names a script uses to the objects it created. A circuit may
// rename an object to keep names unique, so lookups go through the scope
// chain before falling back to the circuit itself.
type scope struct {
	parent *scope
	parts  map[string]*circuit.Part
	nets   map[string]*circuit.Net
	buses  map[string]*circuit.Bus
	// implicit holds nets created by a "net:" reference before any net
	// block declared them.
	implicit map[string]bool
}

func newScope(parent *scope) *scope {
	return &scope{
		parent: parent,
		parts:  make(map[string]*circuit.Part),
		nets:   make(map[string]*circuit.Net),
		buses:  make(map[string]*circuit.Bus),

		implicit: make(map[string]bool),
	}
}

func (s *scope) part(c *circuit.Circuit, ref string) *circuit.Part {
	for x := s; x != nil; x = x.parent {
		if p := x.parts[ref]; p != nil {
			return p
		}
	}
	return c.Part(ref)
}

// net finds a net by name, creating it in s when no scope or the circuit has
// one.
func (s *scope) net(c *circuit.Circuit, name string) *circuit.Net {
	for x := s; x != nil; x = x.parent {
		if n := x.nets[name]; n != nil {
			return n
		}
	}
	if n := c.Net(name); n != nil {
		return n
	}
	n := c.NewNet(name)
	s.nets[name] = n
	s.implicit[name] = true
	return n
}

func (s *scope) bus(c *circuit.Circuit, name string) *circuit.Bus {
	for x := s; x != nil; x = x.parent {
		if b := x.buses[name]; b != nil {
			return b
		}
	}
	return c.Bus(name)
}

// target is a resolved endpoint string.
type target struct {
	spec  string
	items circuit.Connectable
	node  circuit.Networker
}

func (t target) networker() (circuit.Networker, error) {
	if t.node == nil {
		return nil, fmt.Errorf("%q selects %d endpoints, a series or parallel node needs 1 or 2", t.spec, len(t.items.Endpoints()))
	}
	return t.node, nil
}

var busIndex = regexp.MustCompile(`^([^\[\]]+)(?:\[([0-9]+)(?::([0-9]+))?\])?$`)

func (s *scope) resolve(c *circuit.Circuit, spec string) (target, error) {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "":
		return target{}, fmt.Errorf("empty endpoint")
	case strings.HasPrefix(spec, netPrefix):
		name := strings.TrimPrefix(spec, netPrefix)
		if name == "" {
			return target{}, fmt.Errorf("endpoint %q: missing net name", spec)
		}
		n := s.net(c, name)
		return target{spec: spec, items: n, node: n}, nil
	case strings.HasPrefix(spec, busPrefix):
		return s.resolveBus(c, spec)
	}

	ref, ids, hasIDs := strings.Cut(spec, circuit.HierSep)
	p := s.part(c, ref)
	if p == nil {
		return target{}, fmt.Errorf("endpoint %q: no part %s", spec, ref)
	}
	if !hasIDs {
		t := target{spec: spec, items: pinGroup(p.Pins())}
		if len(p.Pins()) == 2 {
			t.node = p
		}
		return t, nil
	}
	if u := p.Unit(ids); u != nil {
		t := target{spec: spec, items: u}
		if len(u.Pins()) == 2 {
			t.node = u
		}
		return t, nil
	}

	pins, err := p.Get(ids)
	if err != nil {
		return target{}, fmt.Errorf("endpoint %q: %w", spec, err)
	}
	if len(pins) == 0 {
		return target{}, fmt.Errorf("endpoint %q: %w: no pin %s on %s", spec, circuit.ErrIndex, ids, p)
	}
	t := target{spec: spec, items: pinGroup(pins)}
	switch len(pins) {
	case 1:
		t.node = pins[0]
	case 2:
		t.node = circuit.Network{pins[0], pins[1]}
	}
	return t, nil
}

func (s *scope) resolveBus(c *circuit.Circuit, spec string) (target, error) {
	m := busIndex.FindStringSubmatch(strings.TrimPrefix(spec, busPrefix))
	if m == nil {
		return target{}, fmt.Errorf("endpoint %q: malformed bus reference", spec)
	}
	b := s.bus(c, m[1])
	if b == nil {
		return target{}, fmt.Errorf("endpoint %q: no bus %s", spec, m[1])
	}

	var g circuit.Group
	var err error
	switch {
	case m[2] == "":
		g = circuit.GroupOf(b)
	case m[3] == "":
		i, _ := strconv.Atoi(m[2])
		if i >= b.Len() {
			return target{}, fmt.Errorf("endpoint %q: %w: %d in bus of width %d", spec, circuit.ErrIndex, i, b.Len())
		}
		g = circuit.Group{b.Line(i)}
	default:
		from, _ := strconv.Atoi(m[2])
		to, _ := strconv.Atoi(m[3])
		g, err = b.Get(circuit.Span(from, to))
	}
	if err != nil {
		return target{}, fmt.Errorf("endpoint %q: %w", spec, err)
	}

	t := target{spec: spec, items: g}
	if len(g) == 1 {
		t.node = g[0].(*circuit.Net)
	}
	return t, nil
}

func pinGroup(pins []*circuit.Pin) circuit.Group {
	g := make(circuit.Group, len(pins))
	for i, pin := range pins {
		g[i] = pin
	}
	return g
}
