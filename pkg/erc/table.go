package erc

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceNet/pkg/circuit"
)

// Level is the severity of a finding.
type Level int

// Severity levels.
const (
	OK Level = iota
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case OK:
		return "ok"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// MarshalText encodes the level by name, so JSON reports read "error".
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts the names ParseLevel accepts.
func (l *Level) UnmarshalText(b []byte) error {
	v, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// ParseLevel converts "ok", "warning" or "error" into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ok", "none":
		return OK, nil
	case "warning", "warn":
		return Warning, nil
	case "error", "err":
		return Error, nil
	}
	return OK, fmt.Errorf("erc: unknown level %q", s)
}

type cell struct {
	level Level
	msg   string
}

// Table is the symmetric pin-function compatibility matrix.
type Table struct {
	cells [][]cell
}

// NewTable returns a table where every combination is OK.
func NewTable() *Table {
	n := len(circuit.PinFuncs())
	t := &Table{cells: make([][]cell, n)}
	for i := range t.cells {
		t.cells[i] = make([]cell, n)
	}
	return t
}

// Set assigns a level and optional message to a pair of functions in both
// directions.
func (t *Table) Set(a, b circuit.PinFunc, level Level, msg string) {
	t.cells[a][b] = cell{level, msg}
	t.cells[b][a] = cell{level, msg}
}

// Lookup returns the level and message for a pair of functions. A missing
// message is built from the function names.
func (t *Table) Lookup(a, b circuit.PinFunc) (Level, string) {
	if !a.Valid() || !b.Valid() {
		return OK, ""
	}
	c := t.cells[a][b]
	if c.level == OK {
		return OK, ""
	}
	if c.msg == "" {
		return c.level, fmt.Sprintf("%s connected to %s", a, b)
	}
	return c.level, c.msg
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	cp := NewTable()
	for i := range t.cells {
		copy(cp.cells[i], t.cells[i])
	}
	return cp
}

// DefaultTable returns the standard compatibility rules.
func DefaultTable() *Table {
	t := NewTable()
	set := func(level Level, a circuit.PinFunc, others ...circuit.PinFunc) {
		for _, b := range others {
			t.Set(a, b, level, "")
		}
	}

	set(Error, circuit.Output, circuit.Output)
	set(Warning, circuit.Tristate, circuit.Output)
	set(Warning, circuit.Unspec,
		circuit.Input, circuit.Output, circuit.Bidir, circuit.Tristate,
		circuit.Passive, circuit.PullUp, circuit.PullDown, circuit.Unspec)
	set(Warning, circuit.PowerIn, circuit.Tristate, circuit.Unspec)
	set(Error, circuit.PowerOut, circuit.Output, circuit.Tristate, circuit.PowerOut)
	set(Warning, circuit.PowerOut, circuit.Bidir, circuit.Unspec)
	for _, oc := range []circuit.PinFunc{circuit.OpenCollector, circuit.OpenEmitter} {
		set(Error, oc, circuit.Output, circuit.Tristate, circuit.PowerOut)
		set(Warning, oc, circuit.Bidir, circuit.Unspec)
	}
	for _, f := range circuit.PinFuncs() {
		if f != circuit.Free {
			t.Set(circuit.NoConnect, f, Error, "")
		}
	}

	t.Set(circuit.PullUp, circuit.PullUp, Warning, "Multiple pull-ups connected.")
	t.Set(circuit.PullDown, circuit.PullDown, Warning, "Multiple pull-downs connected.")
	t.Set(circuit.PullUp, circuit.PullDown, Error, "Pull-up connected to pull-down.")
	return t
}
