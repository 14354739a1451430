package circuit

import (
	"errors"
	"testing"
)

func TestBusFromFreshNets(t *testing.T) {
	c := newTestCircuit()
	b, err := c.NewBus("DATA", 4)
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != 4 {
		t.Fatalf("width = %d, want 4", b.Len())
	}
	for i, want := range []string{"DATA0", "DATA1", "DATA2", "DATA3"} {
		if got := b.Line(i).Name(); got != want {
			t.Errorf("line %d = %s, want %s", i, got, want)
		}
	}
	if b.Line(4) != nil || b.Line(-1) != nil {
		t.Error("Line out of range returned a net")
	}
}

func TestBusNameEndingInDigit(t *testing.T) {
	c := newTestCircuit()
	b, err := c.NewBus("PORT2", 2)
	if err != nil {
		t.Fatal(err)
	}
	if b.Line(1).Name() != "PORT2_1" {
		t.Errorf("line name = %s", b.Line(1).Name())
	}
}

func TestBusFromMixedPieces(t *testing.T) {
	c := newTestCircuit()
	r := makePart(t, c, "R", 2, Passive)
	clk := c.NewNet("CLK")
	other, err := c.NewBus("ADDR", 3)
	if err != nil {
		t.Fatal(err)
	}

	b, err := c.NewBus("MIX", 2, clk, r.Pins()[0], other)
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != 7 {
		t.Fatalf("width = %d, want 7", b.Len())
	}
	if b.Line(2) != clk {
		t.Error("existing net not used as a line")
	}
	if b.Line(3).Pins()[0] != r.Pins()[0] {
		t.Error("pin line not connected to the pin")
	}
	if b.Line(4) != other.Line(0) {
		t.Error("bus lines not spliced")
	}
	if clk.Name() != "CLK" || other.Line(0).Name() != "ADDR0" {
		t.Error("explicit names were overwritten")
	}

	if _, err := c.NewBus("BAD", "x"); !errors.Is(err, ErrIllegalOperand) {
		t.Errorf("string width: got %v", err)
	}
	if c.Bus("BAD") != nil {
		t.Error("failed bus was registered")
	}
}

func TestBusIndexing(t *testing.T) {
	c := newTestCircuit()
	b, err := c.NewBus("D", 8)
	if err != nil {
		t.Fatal(err)
	}

	g, err := b.Get(Span(7, 4))
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 4 || g.Nets()[0] != b.Line(7) || g.Nets()[3] != b.Line(4) {
		t.Errorf("descending slice = %v", g.Nets())
	}

	g, err = b.Get("D2", 5, []any{All})
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 10 || g.Nets()[0] != b.Line(2) || g.Nets()[1] != b.Line(5) {
		t.Errorf("mixed index = %v", g.Nets())
	}

	g, err = b.Get("D[0:1]")
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 2 || g.Nets()[1] != b.Line(1) {
		t.Errorf("bus notation = %v", g.Nets())
	}

	g, err = b.Get("NOPE")
	if err != nil || g.Len() != 0 {
		t.Errorf("unknown name: %v %v", g, err)
	}

	if _, err := b.Get(8); !errors.Is(err, ErrIndex) {
		t.Errorf("index 8: got %v", err)
	}
	if _, err := b.Get(Span(0, 8)); !errors.Is(err, ErrIndex) {
		t.Errorf("slice past end: got %v", err)
	}
}

func TestBusConnectWidths(t *testing.T) {
	c := newTestCircuit()
	u := makePart(t, c, "U", 4, Input)
	b, err := c.NewBus("A", 4)
	if err != nil {
		t.Fatal(err)
	}

	if err := b.Connect(GroupOf(pinsConnectable(u.Pins())...)); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		pins := b.Line(i).Pins()
		if len(pins) != 1 || pins[0] != u.Pins()[i] {
			t.Errorf("line %d pins = %v", i, pins)
		}
	}

	three := makePart(t, c, "U", 3, Input)
	err = b.Connect(GroupOf(pinsConnectable(three.Pins())...))
	if !errors.Is(err, ErrCardinality) {
		t.Errorf("4 to 3: got %v, want ErrCardinality", err)
	}
	for _, p := range three.Pins() {
		if p.IsConnected() {
			t.Error("mismatched connect left a partial connection")
		}
	}
}

func TestBusBroadcast(t *testing.T) {
	c := newTestCircuit()
	b, err := c.NewBus("A", 3)
	if err != nil {
		t.Fatal(err)
	}
	gnd := c.NewNet("GND")
	if err := b.Connect(gnd); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if !gnd.IsAttached(b.Line(i)) {
			t.Errorf("line %d not tied to GND", i)
		}
	}
}

func TestBusInsertAndCopy(t *testing.T) {
	c := newTestCircuit()
	b, err := c.NewBus("Q", 2)
	if err != nil {
		t.Fatal(err)
	}
	x := c.NewNet("X")
	if err := b.Insert(1, x); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 3 || b.Line(1) != x {
		t.Errorf("insert result = %v", b.Nets())
	}
	if err := b.Insert(9, 1); !errors.Is(err, ErrIndex) {
		t.Errorf("insert past end: got %v", err)
	}

	copies, err := b.Copy(1)
	if err != nil {
		t.Fatal(err)
	}
	if copies[0].Len() != 3 || copies[0].Name() != "Q_1" {
		t.Errorf("copy = %s width %d", copies[0].Name(), copies[0].Len())
	}
}

func TestFailedBusIsNotRegistered(t *testing.T) {
	c := newTestCircuit()
	other := newTestCircuit()
	foreign := other.NewNet("FOREIGN")

	if _, err := c.NewBus("D", 2, []any{foreign}); !errors.Is(err, ErrCrossCircuit) {
		t.Fatalf("got %v, want ErrCrossCircuit", err)
	}
	if len(c.Buses()) != 0 || c.Bus("D") != nil {
		t.Errorf("failed bus left registered: %v", c.Buses())
	}
	b, err := c.NewBus("D", 1)
	if err != nil {
		t.Fatal(err)
	}
	if b.Name() != "D" {
		t.Errorf("name of retried bus = %s, want D", b.Name())
	}
}
