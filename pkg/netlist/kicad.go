package netlist

import (
	"bytes"
	"io"
	"sort"
	"strconv"

	"github.com/OpenTraceLab/OpenTraceNet/internal/sexp"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/circuit"
)

// KiCadVersion is the netlist format version written by WriteKiCad.
const KiCadVersion = "E"

var kicadPinTypes = map[string]string{
	circuit.Input.String():         "input",
	circuit.Output.String():        "output",
	circuit.Bidir.String():         "bidirectional",
	circuit.Tristate.String():      "tri_state",
	circuit.Passive.String():       "passive",
	circuit.PullUp.String():        "passive",
	circuit.PullDown.String():      "passive",
	circuit.Unspec.String():        "unspecified",
	circuit.PowerIn.String():       "power_in",
	circuit.PowerOut.String():      "power_out",
	circuit.OpenCollector.String(): "open_collector",
	circuit.OpenEmitter.String():   "open_emitter",
	circuit.NoConnect.String():     "no_connect",
	circuit.Free.String():          "free",
}

// KiCad returns the netlist as an (export ...) s-expression.
func (nl *Netlist) KiCad() *sexp.Node {
	design := sexp.List("design", sexp.List("source", nl.Source))
	if nl.Date != "" {
		design.Append(sexp.List("date", nl.Date))
	}
	design.Append(sexp.List("tool", "otn"))

	comps := sexp.List("components")
	for _, c := range nl.Components {
		comp := sexp.List("comp",
			sexp.List("ref", c.Ref),
			sexp.List("value", c.Value),
		)
		if c.Footprint != "" {
			comp.Append(sexp.List("footprint", c.Footprint))
		}
		if c.Datasheet != "" {
			comp.Append(sexp.List("datasheet", c.Datasheet))
		}
		comp.Append(sexp.List("libsource",
			sexp.List("part", c.Name),
			sexp.List("description", c.Description),
		))
		keys := make([]string, 0, len(c.Fields))
		for k := range c.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			comp.Append(sexp.List("property", sexp.List("name", k), sexp.List("value", c.Fields[k])))
		}
		comp.Append(sexp.List("sheetpath", sexp.List("names", c.Sheet)))
		if c.Tag != "" {
			comp.Append(sexp.List("tstamps", c.Tag))
		}
		comps.Append(comp)
	}

	nets := sexp.List("nets")
	for _, n := range nl.Nets {
		net := sexp.List("net", sexp.List("code", strconv.Itoa(n.Code)), sexp.List("name", n.Name))
		for _, node := range n.Nodes {
			item := sexp.List("node", sexp.List("ref", node.Ref), sexp.List("pin", node.Pin))
			if node.PinName != "" {
				item.Append(sexp.List("pinfunction", node.PinName))
			}
			if t, ok := kicadPinTypes[node.PinFunc]; ok {
				item.Append(sexp.List("pintype", t))
			}
			net.Append(item)
		}
		nets.Append(net)
	}

	return sexp.List("export", sexp.List("version", KiCadVersion), design, comps, nets)
}

// WriteKiCad renders the KiCad netlist.
func (nl *Netlist) WriteKiCad(w io.Writer) error {
	return sexp.Write(w, nl.KiCad())
}

// ExportKiCad renders the KiCad netlist to a string.
func (nl *Netlist) ExportKiCad() (string, error) {
	var buf bytes.Buffer
	if err := nl.WriteKiCad(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
