package bsdl

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceNet/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/library"
)

// PinMapType is the constant type holding physical pin maps.
const PinMapType = "PIN_MAP_STRING"

// Loader reads .bsd, .bsdl and .bsm files. Each file holds one entity and
// becomes a library with a single template.
type Loader struct{}

var _ library.Loader = Loader{}

func (Loader) Extensions() []string { return []string{".bsd", ".bsdl", ".bsm"} }

func (Loader) Parse(r io.Reader, name string) (*library.Library, error) {
	p, err := defaultParser()
	if err != nil {
		return nil, err
	}
	f, err := p.Parse(r, name)
	if err != nil {
		return nil, err
	}
	t, err := Template(f)
	if err != nil {
		return nil, fmt.Errorf("bsdl: %s: %w", name, err)
	}
	lib := library.New(t.Name)
	if err := lib.Add(t); err != nil {
		return nil, err
	}
	return lib, nil
}

// Template turns an entity into a part template. Every physical pad of
// the selected pin map becomes a pin named after its port; vector ports
// give names like "PA(3)". Without a pin map, ports are numbered in
// declaration order.
func Template(f *File) (*library.Template, error) {
	e := f.Entity
	if e == nil {
		return nil, fmt.Errorf("no entity")
	}
	if e.EndName != "" && !strings.EqualFold(e.EndName, e.Name) {
		return nil, fmt.Errorf("entity %s closed as %s", e.Name, e.EndName)
	}

	t := &library.Template{
		Name:      e.Name,
		RefPrefix: circuit.DefaultRefPrefix,
		Fields:    make(map[string]string),
	}
	if spec := e.Attribute("IDCODE_REGISTER"); spec != nil {
		t.Fields["IDCODE"] = spec.Value.Text()
		if id, err := ParseIDCode(spec.Value.Text()); err == nil {
			t.Fields["PART_NUMBER"] = fmt.Sprintf("0x%04X", id.PartNumber)
			if name, ok := id.ManufacturerName(); ok {
				t.Fields["MANUFACTURER"] = name
			}
		}
	}

	pkg, pinMap, err := selectPinMap(e)
	if err != nil {
		return nil, err
	}
	if pkg != "" {
		t.Fields["PACKAGE"] = pkg
		t.Footprint = pkg
	}

	if e.Port == nil {
		return t, nil
	}
	num := 0
	for _, port := range e.Port.Ports {
		for _, base := range port.Names {
			fn := portFunc(port.Mode, base).String()
			sigs := signals(base, port.Type)
			pads, mapped := lookup(pinMap, base)
			if mapped && len(sigs) > 1 && len(pads) != len(sigs) {
				return nil, fmt.Errorf("port %s has %d elements but %d pads", base, len(sigs), len(pads))
			}
			for i, sig := range sigs {
				var nums []string
				switch {
				case pinMap == nil:
					num++
					nums = []string{strconv.Itoa(num)}
				case !mapped:
					continue
				case len(sigs) == 1:
					nums = pads
				default:
					nums = pads[i : i+1]
				}
				for _, pad := range nums {
					t.Pins = append(t.Pins, library.PinDef{Num: pad, Name: sig, Func: fn})
				}
			}
		}
	}
	return t, nil
}

// signals expands a port into its scalar signal names.
func signals(base string, typ *PortType) []string {
	if typ == nil || typ.Range == nil {
		return []string{base}
	}
	idx := typ.Range.Indices()
	out := make([]string, len(idx))
	for i, n := range idx {
		out[i] = fmt.Sprintf("%s(%d)", base, n)
	}
	return out
}

func lookup(pinMap map[string][]string, port string) ([]string, bool) {
	if pinMap == nil {
		return nil, false
	}
	pads, ok := pinMap[strings.ToUpper(port)]
	return pads, ok
}

var (
	powerName = regexp.MustCompile(`(?i)^(V(CC|DD|SS|EE|REF|BAT|IO|CORE)\w*|A?GND\w*|AVDD\w*|DVDD\w*)$`)
	ncName    = regexp.MustCompile(`(?i)^(NC|N_C|DNC)(_?\d+)?$`)
)

// portFunc maps a port mode to a pin function. Linkage ports carry no
// boundary cell and are classified by name.
func portFunc(mode, name string) circuit.PinFunc {
	switch strings.ToLower(mode) {
	case "in":
		return circuit.Input
	case "out", "buffer":
		return circuit.Output
	case "inout":
		return circuit.Bidir
	}
	switch {
	case powerName.MatchString(name):
		return circuit.PowerIn
	case ncName.MatchString(name):
		return circuit.NoConnect
	}
	return circuit.Passive
}

// selectPinMap finds the pin map named by the PHYSICAL_PIN_MAP generic,
// falling back to the only PIN_MAP_STRING constant.
func selectPinMap(e *Entity) (string, map[string][]string, error) {
	var want string
	if e.Generic != nil {
		for _, g := range e.Generic.Generics {
			if strings.EqualFold(g.Name, "PHYSICAL_PIN_MAP") && g.Default != nil {
				want = unquote(*g.Default)
			}
		}
	}

	var maps []*Constant
	for _, c := range e.Constants() {
		if strings.EqualFold(c.Type, PinMapType) {
			maps = append(maps, c)
		}
	}

	var chosen *Constant
	switch {
	case want != "":
		for _, c := range maps {
			if strings.EqualFold(c.Name, want) {
				chosen = c
			}
		}
		if chosen == nil {
			return "", nil, fmt.Errorf("pin map %s not defined", want)
		}
	case len(maps) == 1:
		chosen = maps[0]
	case len(maps) > 1:
		return "", nil, fmt.Errorf("%d pin maps and no PHYSICAL_PIN_MAP default", len(maps))
	default:
		return "", nil, nil
	}

	m, err := ParsePinMap(chosen.Value.Text())
	if err != nil {
		return "", nil, fmt.Errorf("pin map %s: %w", chosen.Name, err)
	}
	return chosen.Name, m, nil
}

// ParsePinMap reads "TDI:12, PA:(1,2,3), VDD:(4,5)" into pads per port,
// keyed by upper-case port name. A scalar port may own several pads; a
// vector port lists one pad per element in declaration order.
func ParsePinMap(s string) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, entry := range splitTop(s) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, pads, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("entry %q has no ':'", entry)
		}
		name = strings.ToUpper(strings.TrimSpace(name))
		pads = strings.TrimSpace(pads)
		if name == "" || pads == "" {
			return nil, fmt.Errorf("entry %q is incomplete", entry)
		}
		if strings.HasPrefix(pads, "(") {
			if !strings.HasSuffix(pads, ")") {
				return nil, fmt.Errorf("entry %q: unbalanced parentheses", entry)
			}
			var list []string
			for _, p := range strings.Split(pads[1:len(pads)-1], ",") {
				if p = strings.TrimSpace(p); p != "" {
					list = append(list, p)
				}
			}
			out[name] = list
			continue
		}
		out[name] = []string{pads}
	}
	return out, nil
}

// splitTop splits on commas outside parentheses.
func splitTop(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
