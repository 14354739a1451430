package circuit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Pin is one electrical terminal of a part.
type Pin struct {
	Num     string
	Name    string
	Func    PinFunc
	Aliases []string
	DoERC   bool

	drive    Drive
	hasDrive bool
	part     *Part
	nets     []*Net
	tie      bool
	ncMarked bool
}

// NewPin creates a pin with the given number, name and function. It is not
// attached to a part until added with Part.AddPins.
func NewPin(num, name string, fn PinFunc) *Pin {
	return &Pin{Num: num, Name: name, Func: fn, DoERC: true}
}

// newTiePin creates the partless pin used to record that two empty nets were merged.
func newTiePin() *Pin {
	return &Pin{Num: "~", Name: "~", Func: Passive, tie: true}
}

// Part returns the owning part, or nil for a free-standing pin.
func (p *Pin) Part() *Part { return p.part }

// Circuit returns the circuit of the owning part.
func (p *Pin) Circuit() *Circuit {
	if p.part == nil {
		return nil
	}
	return p.part.circuit
}

// Drive returns the pin's drive: an explicit override or the function default.
func (p *Pin) Drive() Drive {
	if p.hasDrive {
		return p.drive
	}
	return p.Func.Info().Drive
}

// SetDrive overrides the drive implied by the pin function.
func (p *Pin) SetDrive(d Drive) {
	p.drive = d
	p.hasDrive = true
}

// Nets returns the nets the pin is attached to directly.
func (p *Pin) Nets() []*Net {
	out := make([]*Net, len(p.nets))
	copy(out, p.nets)
	return out
}

// Net returns the first attached net, or nil.
func (p *Pin) Net() *Net {
	if len(p.nets) == 0 {
		return nil
	}
	return p.nets[0]
}

// IsConnected reports whether the pin sits on at least one normal net. Pins
// attached only to the no-connect net are not connected.
func (p *Pin) IsConnected() bool {
	for _, n := range p.nets {
		if !n.nc {
			return true
		}
	}
	return false
}

// IsNoConnect reports whether the pin was marked unconnected, either by its
// function or by being attached to the no-connect net.
func (p *Pin) IsNoConnect() bool {
	return p.Func == NoConnect || p.ncMarked
}

// Endpoints implements Connectable.
func (p *Pin) Endpoints() []Endpoint { return []Endpoint{p} }

func (*Pin) endpoint() {}

// Connect attaches the pin to each item in turn. Pin to pin reuses an existing
// net on either side or creates a new one; pin to net delegates to Net.Connect.
func (p *Pin) Connect(items ...Connectable) error {
	for _, item := range items {
		if item == nil {
			return fmt.Errorf("%w: nil", ErrIllegalOperand)
		}
		for _, ep := range item.Endpoints() {
			if err := p.connectOne(ep); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pin) connectOne(ep Endpoint) error {
	switch t := ep.(type) {
	case *Net:
		return t.Connect(p)
	case *Pin:
		if t == p {
			return nil
		}
		if pc, tc := p.Circuit(), t.Circuit(); pc != nil && tc != nil && pc != tc {
			return fmt.Errorf("connect %s to %s: %w", p, t, ErrCrossCircuit)
		}
		if n := p.normalNet(); n != nil {
			return n.Connect(t)
		}
		if n := t.normalNet(); n != nil {
			return n.Connect(p)
		}
		c := p.Circuit()
		if c == nil {
			c = t.Circuit()
		}
		if c == nil {
			return fmt.Errorf("%w: pins %s and %s belong to no circuit", ErrIllegalOperand, p, t)
		}
		return c.NewNet("").Connect(p, t)
	default:
		return fmt.Errorf("%w: %T", ErrIllegalOperand, ep)
	}
}

// normalNet returns the first attached net that is not the no-connect net.
func (p *Pin) normalNet() *Net {
	for _, n := range p.nets {
		if !n.nc {
			return n
		}
	}
	return nil
}

// Disconnect removes the pin from every net it is attached to. Other pins on
// those nets are left alone. The no-connect mark is cleared.
func (p *Pin) Disconnect() {
	p.detach()
	p.ncMarked = false
}

func (p *Pin) detach() {
	for _, n := range p.nets {
		n.removePin(p)
	}
	p.nets = nil
}

// evictNC removes the pin from the no-connect net, keeping the mark.
func (p *Pin) evictNC() {
	kept := p.nets[:0]
	for _, n := range p.nets {
		if n.nc {
			n.removePin(p)
			continue
		}
		kept = append(kept, n)
	}
	p.nets = kept
}

func (p *Pin) onNet(n *Net) bool {
	for _, x := range p.nets {
		if x == n {
			return true
		}
	}
	return false
}

// IDs returns every identifier the pin answers to: number, name, p<num> and aliases.
func (p *Pin) IDs() []string {
	ids := []string{p.Num}
	if p.Name != "" {
		ids = append(ids, p.Name)
	}
	ids = append(ids, "p"+p.Num)
	return append(ids, p.Aliases...)
}

// AddAlias adds alternate names for the pin. The owning part's lookup index is
// refreshed.
func (p *Pin) AddAlias(aliases ...string) {
	for _, a := range aliases {
		if a == "" || p.hasAlias(a) {
			continue
		}
		p.Aliases = append(p.Aliases, a)
	}
	if p.part != nil {
		p.part.reindex()
	}
}

func (p *Pin) hasAlias(a string) bool {
	for _, x := range p.Aliases {
		if strings.EqualFold(x, a) {
			return true
		}
	}
	return false
}

// aliasSet is the set searched by alias lookups: explicit aliases plus p<num>.
func (p *Pin) aliasSet() []string {
	return append([]string{"p" + p.Num}, p.Aliases...)
}

// copyFor duplicates the pin for a new part without any connections.
func (p *Pin) copyFor(part *Part) *Pin {
	cp := *p
	cp.Aliases = append([]string(nil), p.Aliases...)
	cp.part = part
	cp.nets = nil
	cp.ncMarked = false
	return &cp
}

// String returns "ref/num/name/func", the form used in ERC messages.
func (p *Pin) String() string {
	owner := "?"
	if p.part != nil {
		owner = p.part.ERCDesc()
	}
	return fmt.Sprintf("%s/%s/%s/%s", owner, p.Num, p.Name, p.Func)
}

// ERCDesc describes the pin for ERC messages.
func (p *Pin) ERCDesc() string {
	owner := "no part"
	if p.part != nil {
		owner = p.part.ERCDesc()
	}
	return fmt.Sprintf("%s pin %s/%s of %s", p.Func, p.Num, p.Name, owner)
}

var bgaNum = regexp.MustCompile(`^([A-Za-z]*)(\d+)$`)

// SortKey returns a key that orders pin numbers naturally, so BGA balls sort
// as A1, A2, A10, B1 and plain numbers sort numerically.
func (p *Pin) SortKey() string {
	m := bgaNum.FindStringSubmatch(p.Num)
	if m == nil {
		return "~" + p.Num
	}
	n, _ := strconv.Atoi(m[2])
	return fmt.Sprintf("%-4s%08d", strings.ToUpper(m[1]), n)
}
