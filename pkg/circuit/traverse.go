package circuit

// traverse collects every net and pin reachable from n by alternating between
// the pins of each newly found net and the nets of each newly found pin. Tie
// pins are included; callers filter them.
func (n *Net) traverse() ([]*Net, []*Pin) {
	start := n.anchor()
	if start.nc {
		return []*Net{start}, append([]*Pin(nil), start.pins...)
	}

	seenNets := map[*Net]bool{start: true}
	seenPins := make(map[*Pin]bool)
	nets := []*Net{start}
	var pins []*Pin

	for i := 0; i < len(nets); i++ {
		for _, p := range nets[i].pins {
			if seenPins[p] {
				continue
			}
			seenPins[p] = true
			pins = append(pins, p)
			for _, m := range p.nets {
				if m.nc || seenNets[m] {
					continue
				}
				seenNets[m] = true
				nets = append(nets, m)
			}
		}
	}
	return nets, pins
}

// anchor follows the forwarding chain of retired nets to a live one.
func (n *Net) anchor() *Net {
	for n.retired && n.forward != nil {
		n = n.forward
	}
	return n
}
