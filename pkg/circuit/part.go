package circuit

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultRefPrefix is used for parts without a reference prefix.
const DefaultRefPrefix = "U"

var tagPattern = regexp.MustCompile(`^[a-zA-Z0-9\-_]+$`)

// Part is a component with an ordered list of pins. A part created with
// NewPart is a template outside any circuit; Circuit.AddParts or
// Circuit.Instantiate puts it in one and assigns a unique reference.
type Part struct {
	Name        string
	Description string
	Footprint   string
	Datasheet   string
	RefPrefix   string
	Fields      map[string]string
	Aliases     []string
	DoERC       bool

	// MatchRegex enables pattern lookups of pin names and aliases.
	MatchRegex bool

	value     string
	pins      []*Pin
	units     []*Unit
	idx       pinIndex
	ref       string
	tag       string
	circuit   *Circuit
	node      *Node
	hierarchy string
}

// NewPart creates a part template with the given pins.
func NewPart(name string, pins ...*Pin) (*Part, error) {
	p := &Part{Name: name, RefPrefix: DefaultRefPrefix, Fields: make(map[string]string), DoERC: true}
	if err := p.AddPins(pins...); err != nil {
		return nil, err
	}
	return p, nil
}

// Ref returns the part reference, such as "R3".
func (p *Part) Ref() string { return p.ref }

// SetRef sets the part reference. Inside a circuit the reference is made
// unique.
func (p *Part) SetRef(ref string) {
	if p.circuit == nil {
		p.ref = ref
		return
	}
	prefix := p.RefPrefix
	if prefix == "" {
		prefix = DefaultRefPrefix
	}
	p.circuit.partRefs.release(p.ref)
	p.ref = p.circuit.partRefs.claim(prefix, ref)
}

// Value returns the part value, which defaults to the part name.
func (p *Part) Value() string {
	if p.value == "" {
		return p.Name
	}
	return p.value
}

// SetValue sets the part value.
func (p *Part) SetValue(v string) { p.value = v }

// Tag returns the identifier that ties the part to its footprint.
func (p *Part) Tag() string { return p.tag }

// SetTag replaces the tag. Tags contain only letters, digits, '-' and '_'.
func (p *Part) SetTag(tag string) error {
	if !tagPattern.MatchString(tag) {
		return fmt.Errorf("circuit: invalid part tag %q", tag)
	}
	p.tag = tag
	return nil
}

// Circuit returns the circuit the part belongs to.
func (p *Part) Circuit() *Circuit { return p.circuit }

// Node returns the hierarchy node the part was added under.
func (p *Part) Node() *Node { return p.node }

// Hierarchy returns the hierarchy path of the part.
func (p *Part) Hierarchy() string { return p.hierarchy }

// HierarchicalName returns the hierarchy path joined with the part tag.
func (p *Part) HierarchicalName() string {
	return p.hierarchy + HierSep + p.tag
}

// ERCDesc returns "name/ref" for diagnostics.
func (p *Part) ERCDesc() string {
	return p.Name + "/" + p.ref
}

// String returns the reference, or the name for a part outside a circuit.
func (p *Part) String() string {
	if p.ref != "" {
		return p.ref
	}
	return p.Name
}

// Pins returns all pins in order.
func (p *Part) Pins() []*Pin { return append([]*Pin(nil), p.pins...) }

// AddPins appends pins to the part. A pin owned by another part is rejected.
func (p *Part) AddPins(pins ...*Pin) error {
	for _, pin := range pins {
		if pin == nil {
			return fmt.Errorf("%w: nil pin", ErrIllegalOperand)
		}
		if pin.part != nil && pin.part != p {
			return fmt.Errorf("%w: pin %s already belongs to %s", ErrIllegalMutation, pin.Num, pin.part)
		}
		pin.part = p
		p.pins = append(p.pins, pin)
	}
	p.reindex()
	return nil
}

// RemovePins deletes the selected pins. Connected pins cannot be removed.
func (p *Part) RemovePins(ids ...any) error {
	if err := p.checkPinsMutable("remove pins"); err != nil {
		return err
	}
	pins, err := p.Get(ids...)
	if err != nil {
		return err
	}
	for _, pin := range pins {
		if pin.IsConnected() {
			return fmt.Errorf("%w: pin %s is connected", ErrIllegalMutation, pin)
		}
	}
	for _, pin := range pins {
		pin.Disconnect()
		pin.part = nil
		p.pins = without(p.pins, pin)
		for _, u := range p.units {
			u.pins = without(u.pins, pin)
		}
	}
	p.reindex()
	return nil
}

// RenamePin changes the name of the pin selected by id.
func (p *Part) RenamePin(id any, name string) error {
	if err := p.checkPinsMutable("rename pin"); err != nil {
		return err
	}
	pin, err := p.Pin(id)
	if err != nil {
		return err
	}
	pin.Name = name
	p.reindex()
	return nil
}

// RenumberPin changes the number of the pin selected by id.
func (p *Part) RenumberPin(id any, num string) error {
	if err := p.checkPinsMutable("renumber pin"); err != nil {
		return err
	}
	pin, err := p.Pin(id)
	if err != nil {
		return err
	}
	pin.Num = num
	p.reindex()
	return nil
}

// SwapPins exchanges the names and aliases of two pins.
func (p *Part) SwapPins(a, b any) error {
	if err := p.checkPinsMutable("swap pins"); err != nil {
		return err
	}
	pa, err := p.Pin(a)
	if err != nil {
		return err
	}
	pb, err := p.Pin(b)
	if err != nil {
		return err
	}
	pa.Name, pb.Name = pb.Name, pa.Name
	pa.Aliases, pb.Aliases = pb.Aliases, pa.Aliases
	p.reindex()
	return nil
}

// checkPinsMutable refuses pin edits on a part wired inside a circuit.
func (p *Part) checkPinsMutable(op string) error {
	if p.circuit != nil && p.IsConnected() {
		return fmt.Errorf("%w: %s on connected part %s", ErrIllegalMutation, op, p)
	}
	return nil
}

// SplitPinNames adds the pieces of compound pin names such as "PA0/ADC0" as
// aliases. Any character in delims splits a name.
func (p *Part) SplitPinNames(delims string) {
	if delims == "" {
		return
	}
	for _, pin := range p.pins {
		pieces := strings.FieldsFunc(pin.Name, func(r rune) bool {
			return strings.ContainsRune(delims, r)
		})
		if len(pieces) > 1 {
			pin.AddAlias(pieces...)
		}
	}
	p.reindex()
}

func (p *Part) reindex() {
	p.idx = buildIndex(p.pins)
	for _, u := range p.units {
		u.reindex()
	}
}

func (p *Part) resolver(mode searchMode) resolver {
	return resolver{pins: p.pins, idx: p.idx, matchRegex: p.MatchRegex, mode: mode}
}

// Get returns the pins selected by ids. An id is a pin number (int or
// string), name, alias, IndexRange over pin numbers, *regexp.Regexp, or a
// list of these. Strings may hold several ids separated by commas and bus
// notation such as "D[0:7]". No ids selects every pin.
func (p *Part) Get(ids ...any) ([]*Pin, error) {
	pins, err := p.resolver(searchAll).resolve(ids)
	if err == nil && len(pins) == 0 && p.circuit != nil {
		p.circuit.log.Warn("no pins found", "part", p.String(), "ids", fmt.Sprint(ids...))
	}
	return pins, err
}

// ByNumber looks pins up by number only.
func (p *Part) ByNumber(ids ...any) ([]*Pin, error) {
	return p.resolver(searchNumbers).resolve(ids)
}

// ByName looks pins up by name and alias only.
func (p *Part) ByName(ids ...any) ([]*Pin, error) {
	return p.resolver(searchNames).resolve(ids)
}

// Pin returns the single pin selected by id.
func (p *Part) Pin(id any) (*Pin, error) {
	pins, err := p.resolver(searchAll).resolve([]any{id})
	if err != nil {
		return nil, err
	}
	return one(p.String(), id, pins)
}

// Connect connects the pins selected by id to items, with the width rules of Group.
func (p *Part) Connect(id any, items ...Connectable) error {
	pins, err := p.Get(id)
	if err != nil {
		return err
	}
	if len(pins) == 0 {
		return fmt.Errorf("%w: %s has no pin %v", ErrIndex, p, id)
	}
	return GroupOf(pinsConnectable(pins)...).Connect(items...)
}

// IsConnected reports whether any pin is connected. A part without pins
// counts as connected.
func (p *Part) IsConnected() bool {
	if len(p.pins) == 0 {
		return true
	}
	for _, pin := range p.pins {
		if pin.IsConnected() {
			return true
		}
	}
	return false
}

// IsMovable reports whether the part can change circuits.
func (p *Part) IsMovable() bool {
	return p.circuit == nil || len(p.pins) == 0 || !p.IsConnected()
}

// Disconnect detaches every pin.
func (p *Part) Disconnect() {
	for _, pin := range p.pins {
		pin.Disconnect()
	}
}

// Copy duplicates the part: pins are copied without connections and units
// are rebuilt on the copies. The copy belongs to no circuit and has no
// reference or tag.
func (p *Part) Copy() *Part {
	cp := &Part{
		Name:        p.Name,
		Description: p.Description,
		Footprint:   p.Footprint,
		Datasheet:   p.Datasheet,
		RefPrefix:   p.RefPrefix,
		Fields:      make(map[string]string, len(p.Fields)),
		Aliases:     append([]string(nil), p.Aliases...),
		DoERC:       p.DoERC,
		MatchRegex:  p.MatchRegex,
		value:       p.value,
	}
	for k, v := range p.Fields {
		cp.Fields[k] = v
	}
	pos := make(map[*Pin]int, len(p.pins))
	for i, pin := range p.pins {
		pos[pin] = i
		cp.pins = append(cp.pins, pin.copyFor(cp))
	}
	cp.reindex()
	for _, u := range p.units {
		cu := &Unit{Label: u.Label, Num: u.Num, parent: cp}
		for _, pin := range u.pins {
			cu.pins = append(cu.pins, cp.pins[pos[pin]])
		}
		cu.reindex()
		cp.units = append(cp.units, cu)
	}
	return cp
}

// Copies returns n copies of the part.
func (p *Part) Copies(n int) ([]*Part, error) {
	if n < 0 {
		return nil, fmt.Errorf("circuit: negative copy count %d", n)
	}
	out := make([]*Part, n)
	for i := range out {
		out[i] = p.Copy()
	}
	return out, nil
}

// Similar reports whether two parts are interchangeable: same name, value,
// footprint and pin set.
func (p *Part) Similar(o *Part) bool {
	if p.Name != o.Name || p.Value() != o.Value() || p.Footprint != o.Footprint || len(p.pins) != len(o.pins) {
		return false
	}
	for i, pin := range p.pins {
		q := o.pins[i]
		if pin.Num != q.Num || pin.Name != q.Name || pin.Func != q.Func {
			return false
		}
	}
	return true
}

func pinsConnectable(pins []*Pin) []Connectable {
	out := make([]Connectable, len(pins))
	for i, p := range pins {
		out[i] = p
	}
	return out
}
