package circuit

import "fmt"

// Network is a one- or two-terminal view of a pin, net or two-pin part, used
// to wire components in series and in parallel.
type Network []Endpoint

// Networker is anything that can present itself as a Network.
type Networker interface {
	Network() (Network, error)
}

// Network returns the pin as a one-terminal network.
func (p *Pin) Network() (Network, error) { return Network{p}, nil }

// Network returns the net as a one-terminal network.
func (n *Net) Network() (Network, error) { return Network{n}, nil }

// Network returns a two-pin part as a two-terminal network.
func (p *Part) Network() (Network, error) {
	if len(p.pins) != 2 {
		return nil, fmt.Errorf("%w: part %s has %d pins, a network needs 2", ErrIllegalOperand, p, len(p.pins))
	}
	return Network{p.pins[0], p.pins[1]}, nil
}

// Network returns a two-pin unit as a two-terminal network.
func (u *Unit) Network() (Network, error) {
	if len(u.pins) != 2 {
		return nil, fmt.Errorf("%w: unit %s has %d pins, a network needs 2", ErrIllegalOperand, u.Ref(), len(u.pins))
	}
	return Network{u.pins[0], u.pins[1]}, nil
}

// Network checks the terminal count and returns n.
func (n Network) Network() (Network, error) {
	if len(n) < 1 || len(n) > 2 {
		return nil, fmt.Errorf("%w: network with %d terminals", ErrIllegalOperand, len(n))
	}
	return n, nil
}

// Endpoints implements Connectable.
func (n Network) Endpoints() []Endpoint { return n }

// First returns the input terminal.
func (n Network) First() Endpoint { return n[0] }

// Last returns the output terminal.
func (n Network) Last() Endpoint { return n[len(n)-1] }

// SeriesWith connects the last terminal of n to the first terminal of o and
// returns the combined network.
func (n Network) SeriesWith(o Networker) (Network, error) {
	a, err := n.Network()
	if err != nil {
		return nil, err
	}
	b, err := networkOf(o)
	if err != nil {
		return nil, err
	}
	if err := connectPair(a.Last(), b.First()); err != nil {
		return nil, err
	}
	return Network{a.First(), b.Last()}, nil
}

// ParallelWith connects first to first and last to last and returns the
// combined network.
func (n Network) ParallelWith(o Networker) (Network, error) {
	a, err := n.Network()
	if err != nil {
		return nil, err
	}
	b, err := networkOf(o)
	if err != nil {
		return nil, err
	}
	if err := connectPair(a.First(), b.First()); err != nil {
		return nil, err
	}
	if err := connectPair(a.Last(), b.Last()); err != nil {
		return nil, err
	}
	return Network{a.First(), a.Last()}, nil
}

// Series wires nodes one after another.
func Series(nodes ...Networker) (Network, error) {
	return reduce(nodes, Network.SeriesWith)
}

// Parallel wires nodes side by side.
func Parallel(nodes ...Networker) (Network, error) {
	return reduce(nodes, Network.ParallelWith)
}

func reduce(nodes []Networker, op func(Network, Networker) (Network, error)) (Network, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: empty network", ErrIllegalOperand)
	}
	acc, err := networkOf(nodes[0])
	if err != nil {
		return nil, err
	}
	for _, node := range nodes[1:] {
		if acc, err = op(acc, node); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func networkOf(x Networker) (Network, error) {
	if x == nil {
		return nil, fmt.Errorf("%w: nil network", ErrIllegalOperand)
	}
	n, err := x.Network()
	if err != nil {
		return nil, err
	}
	return n.Network()
}
