package circuit

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
)

type fataler interface {
	Fatalf(format string, args ...any)
}

func newTestCircuit() *Circuit {
	return New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// makeTemplate builds a part template with pins numbered 1..n named P1..Pn.
func makeTemplate(t fataler, name string, n int, fn PinFunc) *Part {
	pins := make([]*Pin, n)
	for i := range pins {
		pins[i] = NewPin(strconv.Itoa(i+1), fmt.Sprintf("P%d", i+1), fn)
	}
	tmpl, err := NewPart(name, pins...)
	if err != nil {
		t.Fatalf("NewPart(%s): %v", name, err)
	}
	return tmpl
}

// makePart instantiates a fresh n-pin part in c.
func makePart(t fataler, c *Circuit, name string, n int, fn PinFunc) *Part {
	p, err := c.Instantiate(makeTemplate(t, name, n, fn), "")
	if err != nil {
		t.Fatalf("Instantiate(%s): %v", name, err)
	}
	return p
}

func pinSet(pins []*Pin) map[*Pin]bool {
	set := make(map[*Pin]bool, len(pins))
	for _, p := range pins {
		set[p] = true
	}
	return set
}

func sameSet(a, b []*Pin) bool {
	sa, sb := pinSet(a), pinSet(b)
	if len(sa) != len(sb) {
		return false
	}
	for p := range sa {
		if !sb[p] {
			return false
		}
	}
	return true
}
