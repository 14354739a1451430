// Package netlist serializes the connectivity of a circuit. It only reads
// the circuit: nets come from Circuit.Nets and Net.Pins, components from
// the Part accessors.
package netlist

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/OpenTraceLab/OpenTraceNet/pkg/circuit"
)

// Format selects a serializer.
type Format string

const (
	FormatJSON  Format = "json"
	FormatKiCad Format = "kicad"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatKiCad:
		return f, nil
	}
	return "", fmt.Errorf("netlist: unknown format %q", s)
}

// Node is one pin on a net.
type Node struct {
	Ref     string `json:"ref"`
	Pin     string `json:"pin"`
	PinName string `json:"pin_name,omitempty"`
	PinFunc string `json:"pin_func"`
}

// Net is one group of connected pins. Drive is the strongest of the net's
// own drive and its pins' drives.
type Net struct {
	Code  int    `json:"code"`
	Name  string `json:"name"`
	Drive string `json:"drive"`
	Nodes []Node `json:"nodes"`
}

// Component is one part.
type Component struct {
	Ref         string            `json:"ref"`
	Name        string            `json:"name"`
	Value       string            `json:"value"`
	Footprint   string            `json:"footprint,omitempty"`
	Datasheet   string            `json:"datasheet,omitempty"`
	Description string            `json:"description,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
	Tag         string            `json:"tag,omitempty"`
	Sheet       string            `json:"sheet"`
}

// Bus lists the nets of a bus by name.
type Bus struct {
	Name string   `json:"name"`
	Nets []string `json:"nets"`
}

// Netlist is a snapshot of a circuit's connectivity.
type Netlist struct {
	Source     string      `json:"source"`
	Date       string      `json:"date,omitempty"`
	Components []Component `json:"components"`
	Nets       []Net       `json:"nets"`
	Buses      []Bus       `json:"buses,omitempty"`
}

// Option configures Build.
type Option func(*Netlist)

// WithSource records the design file the circuit came from.
func WithSource(src string) Option {
	return func(nl *Netlist) { nl.Source = src }
}

// WithDate stamps the netlist.
func WithDate(t time.Time) Option {
	return func(nl *Netlist) { nl.Date = t.UTC().Format(time.RFC3339) }
}

// Build takes a snapshot of c under its read lock. Components are sorted
// by reference, nets by name, and nodes by reference then pin number.
func Build(c *circuit.Circuit, opts ...Option) *Netlist {
	nl := &Netlist{Source: c.Name}
	for _, opt := range opts {
		opt(nl)
	}
	c.Read(func() {
		nl.Components = components(c)
		nl.Nets = nets(c)
		nl.Buses = buses(c)
	})
	return nl
}

func components(c *circuit.Circuit) []Component {
	parts := c.Parts()
	out := make([]Component, 0, len(parts))
	for _, p := range parts {
		comp := Component{
			Ref:         p.Ref(),
			Name:        p.Name,
			Value:       p.Value(),
			Footprint:   p.Footprint,
			Datasheet:   p.Datasheet,
			Description: p.Description,
			Tag:         p.Tag(),
			Sheet:       p.Hierarchy(),
		}
		if len(p.Fields) > 0 {
			comp.Fields = make(map[string]string, len(p.Fields))
			for k, v := range p.Fields {
				comp.Fields[k] = v
			}
		}
		out = append(out, comp)
	}
	sort.Slice(out, func(i, j int) bool { return refLess(out[i].Ref, out[j].Ref) })
	return out
}

func nets(c *circuit.Circuit) []Net {
	var out []Net
	for _, n := range c.Nets() {
		pins := n.Pins()
		drive := n.Drive()
		for _, p := range pins {
			drive = max(drive, p.Drive())
		}
		net := Net{Name: n.Name(), Drive: drive.String()}
		// Pins without a part have no reference to export.
		pins = slices.DeleteFunc(pins, func(p *circuit.Pin) bool { return p.Part() == nil })
		sort.Slice(pins, func(i, j int) bool {
			a, b := pins[i], pins[j]
			if a.Part().Ref() != b.Part().Ref() {
				return refLess(a.Part().Ref(), b.Part().Ref())
			}
			return a.SortKey() < b.SortKey()
		})
		for _, p := range pins {
			net.Nodes = append(net.Nodes, Node{
				Ref:     p.Part().Ref(),
				Pin:     p.Num,
				PinName: p.Name,
				PinFunc: p.Func.String(),
			})
		}
		out = append(out, net)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	for i := range out {
		out[i].Code = i + 1
	}
	return out
}

func buses(c *circuit.Circuit) []Bus {
	var out []Bus
	for _, b := range c.Buses() {
		bus := Bus{Name: b.Name()}
		for _, n := range b.Nets() {
			bus.Nets = append(bus.Nets, n.Name())
		}
		out = append(out, bus)
	}
	return out
}

// refLess orders references so that R2 sorts before R10.
func refLess(a, b string) bool {
	pa, na := splitRef(a)
	pb, nb := splitRef(b)
	if pa != pb {
		return pa < pb
	}
	if len(na) != len(nb) {
		return len(na) < len(nb)
	}
	return na < nb
}

func splitRef(ref string) (string, string) {
	i := len(ref)
	for i > 0 && ref[i-1] >= '0' && ref[i-1] <= '9' {
		i--
	}
	return ref[:i], ref[i:]
}

// ExportJSON renders the netlist as indented JSON.
func (nl *Netlist) ExportJSON() ([]byte, error) {
	out := struct {
		Version string `json:"version"`
		*Netlist
		NetCount int `json:"net_count"`
	}{
		Version:  "1.0",
		Netlist:  nl,
		NetCount: len(nl.Nets),
	}
	return json.MarshalIndent(out, "", "  ")
}

// Write renders the netlist in the given format.
func (nl *Netlist) Write(w io.Writer, f Format) error {
	switch f {
	case FormatJSON:
		data, err := nl.ExportJSON()
		if err != nil {
			return fmt.Errorf("netlist: %w", err)
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatKiCad:
		return nl.WriteKiCad(w)
	}
	return fmt.Errorf("netlist: unknown format %q", f)
}
