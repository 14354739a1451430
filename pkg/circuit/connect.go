package circuit

import "fmt"

// Connectable is anything that expands into an ordered list of endpoints:
// pins, nets, buses, groups and part units.
type Connectable interface {
	Endpoints() []Endpoint
}

// Endpoint is a single pin or net. It is implemented only by *Pin and *Net.
type Endpoint interface {
	Connectable
	endpoint()
}

// connectPair joins two endpoints, whichever kind they are.
func connectPair(a, b Endpoint) error {
	switch t := a.(type) {
	case *Pin:
		if t == nil {
			return fmt.Errorf("%w: nil pin", ErrIllegalOperand)
		}
		return t.connectOne(b)
	case *Net:
		if t == nil {
			return fmt.Errorf("%w: nil net", ErrIllegalOperand)
		}
		return t.Connect(b)
	default:
		return fmt.Errorf("%w: %T", ErrIllegalOperand, a)
	}
}

// Connect joins a to every endpoint of b, the way a single pin or net fans out
// over a bus.
func Connect(a Endpoint, items ...Connectable) error {
	for _, item := range items {
		if item == nil {
			return fmt.Errorf("%w: nil", ErrIllegalOperand)
		}
		for _, ep := range item.Endpoints() {
			if err := connectPair(a, ep); err != nil {
				return err
			}
		}
	}
	return nil
}
