// Package kicad loads KiCad symbol libraries (.kicad_sym) as part
// templates.
package kicad

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceNet/internal/sexp"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/library"
)

// Loader reads .kicad_sym files.
type Loader struct{}

var _ library.Loader = Loader{}

func (Loader) Extensions() []string { return []string{".kicad_sym"} }

// Parse reads a symbol library. Each top-level symbol becomes a template;
// symbols that extend another inherit its pins and units.
func (Loader) Parse(r io.Reader, name string) (*library.Library, error) {
	root, err := sexp.ParseOne(r)
	if err != nil {
		return nil, fmt.Errorf("kicad: %s: %w", name, err)
	}
	if root.Key() != "kicad_symbol_lib" {
		return nil, fmt.Errorf("kicad: %s: not a symbol library (%s)", name, root.Key())
	}

	lib := library.New(strings.TrimSuffix(name, ".kicad_sym"))
	parsed := make(map[string]*library.Template)
	var derived []*sexp.Node

	for _, sym := range root.FindAll("symbol") {
		if sym.Find("extends") != nil {
			derived = append(derived, sym)
			continue
		}
		t, err := parseSymbol(sym)
		if err != nil {
			return nil, fmt.Errorf("kicad: %s: %w", name, err)
		}
		parsed[t.Name] = t
		if err := lib.Add(t); err != nil {
			return nil, err
		}
	}

	for _, sym := range derived {
		parent, ok := parsed[sym.Find("extends").Arg(0)]
		if !ok {
			return nil, fmt.Errorf("kicad: %s: symbol %s extends unknown symbol %s",
				name, sym.Arg(0), sym.Find("extends").Arg(0))
		}
		t := &library.Template{
			Name:  sym.Arg(0),
			Pins:  parent.Pins,
			Units: parent.Units,
		}
		applyProperties(t, sym)
		if t.RefPrefix == "" {
			t.RefPrefix = parent.RefPrefix
		}
		if err := lib.Add(t); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

func parseSymbol(sym *sexp.Node) (*library.Template, error) {
	t := &library.Template{Name: sym.Arg(0)}
	if t.Name == "" {
		return nil, fmt.Errorf("symbol without a name")
	}
	applyProperties(t, sym)

	unitPins := make(map[int][]string)
	var unitOrder []int
	for _, body := range sym.FindAll("symbol") {
		unit, style, err := unitOf(t.Name, body.Arg(0))
		if err != nil {
			return nil, err
		}
		// Alternate body styles repeat the same pins.
		if style > 1 {
			continue
		}
		for _, pin := range body.FindAll("pin") {
			def, err := parsePin(pin)
			if err != nil {
				return nil, fmt.Errorf("symbol %s: %w", t.Name, err)
			}
			t.Pins = append(t.Pins, def)
			if unit > 0 {
				if _, seen := unitPins[unit]; !seen {
					unitOrder = append(unitOrder, unit)
				}
				unitPins[unit] = append(unitPins[unit], def.Num)
			}
		}
	}

	if len(unitOrder) > 1 {
		for _, u := range unitOrder {
			t.Units = append(t.Units, library.UnitDef{Label: UnitLabel(u), Pins: unitPins[u]})
		}
	}
	return t, nil
}

// unitOf splits a body name "<symbol>_<unit>_<style>".
func unitOf(symbol, body string) (int, int, error) {
	if i := strings.LastIndex(symbol, ":"); i >= 0 {
		symbol = symbol[i+1:]
	}
	rest, ok := strings.CutPrefix(body, symbol+"_")
	if !ok {
		return 0, 0, fmt.Errorf("symbol %s: body %q does not belong to it", symbol, body)
	}
	u, s, ok := strings.Cut(rest, "_")
	if !ok {
		return 0, 0, fmt.Errorf("symbol %s: malformed body name %q", symbol, body)
	}
	unit, err := strconv.Atoi(u)
	if err != nil {
		return 0, 0, fmt.Errorf("symbol %s: body %q: %w", symbol, body, err)
	}
	style, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, fmt.Errorf("symbol %s: body %q: %w", symbol, body, err)
	}
	return unit, style, nil
}

// parsePin reads (pin <type> <shape> ... (name "X") (number "1")).
func parsePin(pin *sexp.Node) (library.PinDef, error) {
	def := library.PinDef{Func: pin.Arg(0)}
	if n := pin.Find("number"); n != nil {
		def.Num = n.Arg(0)
	}
	if def.Num == "" {
		return def, fmt.Errorf("pin without a number")
	}
	if n := pin.Find("name"); n != nil && n.Arg(0) != "~" {
		def.Name = n.Arg(0)
	}
	for _, alt := range pin.FindAll("alternate") {
		if a := alt.Arg(0); a != "" {
			def.Aliases = append(def.Aliases, a)
		}
	}
	return def, nil
}

func applyProperties(t *library.Template, sym *sexp.Node) {
	for _, prop := range sym.FindAll("property") {
		key, value := prop.Arg(0), prop.Arg(1)
		switch key {
		case "Reference":
			t.RefPrefix = strings.TrimRight(value, "?0123456789")
		case "Value":
			t.Value = value
		case "Footprint":
			t.Footprint = value
		case "Datasheet":
			if value != "~" {
				t.Datasheet = value
			}
		case "Description", "ki_description":
			t.Description = value
		default:
			if t.Fields == nil {
				t.Fields = make(map[string]string)
			}
			t.Fields[key] = value
		}
	}
}

// UnitLabel names a unit the way schematic tools letter them: 1 is "uA",
// 27 is "uAA".
func UnitLabel(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return "u" + string(b)
}
