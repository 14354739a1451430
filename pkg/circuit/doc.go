// Package circuit builds the connectivity graph of an electronic design:
// pins grouped into parts, nets that pins attach to, and buses of nets, all
// owned by a Circuit.
//
// # Connections
//
// Everything that can be wired implements Connectable. Pins and nets are the
// endpoints; buses, groups, units and networks expand into endpoints.
//
//	c := circuit.New()
//	gnd := c.NewNet("GND", circuit.Fixed())
//	r, _ := c.Instantiate(resistor, "R1")
//	pin, _ := r.Pin(2)
//	_ = gnd.Connect(pin)
//
// Connecting two nets does not fuse them. One pin of either net is attached
// to the other, or a hidden tie pin is shared when both are empty. Net.Pins
// and Net.Nets walk the resulting graph breadth first, alternating between
// the pins of each net found and the nets of each pin found.
//
// # Names
//
// Parts, nets and buses have circuit-unique names. Omitted names are
// generated from a prefix (U, N$, B$) and the smallest free number. A
// requested name that is taken gets a _1, _2... suffix. Circuit.MergeNetNames
// gives each group of merged nets a single name before checking or export.
//
// # Errors
//
// Operations fail immediately with an error that matches one of the Err*
// sentinels through errors.Is. Nothing is rolled back.
package circuit
