package design

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"

	"github.com/OpenTraceLab/OpenTraceNet/internal/ctxlog"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/circuit"
)

type partBlock struct {
	Lib         string            `hcl:"lib,optional"`
	Name        string            `hcl:"name"`
	Value       *string           `hcl:"value,optional"`
	Footprint   *string           `hcl:"footprint,optional"`
	Datasheet   *string           `hcl:"datasheet,optional"`
	Description *string           `hcl:"description,optional"`
	Prefix      *string           `hcl:"ref_prefix,optional"`
	Tag         *string           `hcl:"tag,optional"`
	ERC         *bool             `hcl:"erc,optional"`
	Fields      map[string]string `hcl:"fields,optional"`
	Pins        []pinBlock        `hcl:"pin,block"`
	Units       []unitBlock       `hcl:"unit,block"`
}

type pinBlock struct {
	Num     string   `hcl:"num,label"`
	Name    string   `hcl:"name,optional"`
	Func    string   `hcl:"func,optional"`
	Drive   *string  `hcl:"drive,optional"`
	Aliases []string `hcl:"aliases,optional"`
	ERC     *bool    `hcl:"erc,optional"`
}

type unitBlock struct {
	Label string   `hcl:"label,label"`
	Pins  []string `hcl:"pins"`
}

type netBlock struct {
	Fixed   bool     `hcl:"fixed,optional"`
	Drive   *string  `hcl:"drive,optional"`
	ERC     *bool    `hcl:"erc,optional"`
	Connect []string `hcl:"connect,optional"`
}

type busBlock struct {
	Width   int      `hcl:"width,optional"`
	Nets    []string `hcl:"nets,optional"`
	Connect []string `hcl:"connect,optional"`
}

type connectBlock struct {
	From []string `hcl:"from"`
	To   []string `hcl:"to"`
}

type networkBlock struct {
	Nodes []string `hcl:"nodes"`
}

type noConnectBlock struct {
	Pins []string `hcl:"pins"`
}

type builder struct {
	circuit    *circuit.Circuit
	parts      PartSource
	overrides  map[string]cty.Value
	matchRegex bool
	eval       *hcl.EvalContext
}

func (b *builder) run(ctx context.Context, body hcl.Body, schema *hcl.BodySchema, sc *scope) error {
	content, diags := body.Content(schema)
	if diags.HasErrors() {
		return diags
	}
	for _, block := range content.Blocks {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch block.Type {
		case "variable":
			continue
		case "part":
			err = b.part(ctx, block, sc)
		case "net":
			err = b.net(block, sc)
		case "bus":
			err = b.bus(block, sc)
		case "connect":
			err = b.connect(block, sc)
		case "series", "parallel":
			err = b.network(block, sc)
		case "no_connect":
			err = b.noConnect(block, sc)
		case "subcircuit":
			err = b.subcircuit(ctx, block, sc)
		}
		if err != nil {
			return blockError(block, err)
		}
	}
	return nil
}

// blockError ties err to the block it came from. Diagnostics already carry a
// range and pass through unchanged.
func blockError(block *hcl.Block, err error) error {
	if diags, ok := err.(hcl.Diagnostics); ok {
		return diags
	}
	return fmt.Errorf("design: %s: %s block: %w", block.DefRange, block.Type, err)
}

func (b *builder) decode(block *hcl.Block, v any) error {
	if diags := gohcl.DecodeBody(block.Body, b.eval, v); diags.HasErrors() {
		return diags
	}
	return nil
}

func (b *builder) part(ctx context.Context, block *hcl.Block, sc *scope) error {
	label := block.Labels[0]
	var pb partBlock
	if err := b.decode(block, &pb); err != nil {
		return err
	}
	if sc.parts[label] != nil {
		return fmt.Errorf("part %q already defined in this scope", label)
	}

	tmpl, err := b.template(ctx, label, &pb)
	if err != nil {
		return err
	}
	tmpl.MatchRegex = tmpl.MatchRegex || b.matchRegex

	p, err := b.circuit.Instantiate(tmpl, label)
	if err != nil {
		return err
	}
	if pb.Value != nil {
		p.SetValue(*pb.Value)
	}
	if pb.Footprint != nil {
		p.Footprint = *pb.Footprint
	}
	if pb.Datasheet != nil {
		p.Datasheet = *pb.Datasheet
	}
	if pb.Description != nil {
		p.Description = *pb.Description
	}
	if pb.ERC != nil {
		p.DoERC = *pb.ERC
	}
	if pb.Tag != nil {
		if err := p.SetTag(*pb.Tag); err != nil {
			return err
		}
	}
	for k, v := range pb.Fields {
		p.Fields[k] = v
	}
	for _, ub := range pb.Units {
		if _, err := p.MakeUnit(ub.Label, ub.Pins); err != nil {
			return err
		}
	}
	sc.parts[label] = p

	if p.Ref() != label {
		ctxlog.FromContext(ctx).Debug("part reference changed", "requested", label, "ref", p.Ref(), "hierarchy", p.Hierarchy())
	}
	return nil
}

// template returns a fresh part to instantiate: from a library when lib is
// set, otherwise from the inline pin blocks.
func (b *builder) template(ctx context.Context, label string, pb *partBlock) (*circuit.Part, error) {
	if pb.Lib != "" {
		if len(pb.Pins) > 0 {
			return nil, fmt.Errorf("part %q: pin blocks cannot be combined with lib", label)
		}
		if b.parts == nil {
			return nil, fmt.Errorf("part %q: no part libraries configured", label)
		}
		return b.parts.Part(ctx, pb.Lib, pb.Name)
	}
	if len(pb.Pins) == 0 {
		return nil, fmt.Errorf("part %q: needs lib or at least one pin block", label)
	}

	pins := make([]*circuit.Pin, 0, len(pb.Pins))
	for _, def := range pb.Pins {
		fn := circuit.Unspec
		if def.Func != "" {
			f, err := circuit.ParsePinFunc(def.Func)
			if err != nil {
				return nil, fmt.Errorf("pin %s: %w", def.Num, err)
			}
			fn = f
		}
		pin := circuit.NewPin(def.Num, def.Name, fn)
		pin.AddAlias(def.Aliases...)
		if def.Drive != nil {
			d, err := circuit.ParseDrive(*def.Drive)
			if err != nil {
				return nil, fmt.Errorf("pin %s: %w", def.Num, err)
			}
			pin.SetDrive(d)
		}
		if def.ERC != nil {
			pin.DoERC = *def.ERC
		}
		pins = append(pins, pin)
	}
	tmpl, err := circuit.NewPart(pb.Name, pins...)
	if err != nil {
		return nil, err
	}
	if pb.Prefix != nil {
		tmpl.RefPrefix = *pb.Prefix
	}
	return tmpl, nil
}

func (b *builder) net(block *hcl.Block, sc *scope) error {
	label := block.Labels[0]
	var nb netBlock
	if err := b.decode(block, &nb); err != nil {
		return err
	}
	n := sc.nets[label]
	switch {
	case n == nil:
		n = b.circuit.NewNet(label)
	case sc.implicit[label]:
		delete(sc.implicit, label)
	default:
		return fmt.Errorf("net %q already defined in this scope", label)
	}

	if nb.Fixed {
		n.SetFixed(true)
	}
	if nb.Drive != nil {
		d, err := circuit.ParseDrive(*nb.Drive)
		if err != nil {
			return err
		}
		if err := n.SetDrive(d); err != nil {
			return err
		}
	}
	if nb.ERC != nil {
		n.DoERC = *nb.ERC
	}
	sc.nets[label] = n

	items, err := b.endpoints(sc, nb.Connect)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return n.Connect(items...)
}

func (b *builder) bus(block *hcl.Block, sc *scope) error {
	label := block.Labels[0]
	var bb busBlock
	if err := b.decode(block, &bb); err != nil {
		return err
	}
	if sc.buses[label] != nil {
		return fmt.Errorf("bus %q already defined in this scope", label)
	}
	if bb.Width < 0 {
		return fmt.Errorf("bus %q: negative width %d", label, bb.Width)
	}

	var items []any
	if bb.Width > 0 {
		items = append(items, bb.Width)
	}
	for _, name := range bb.Nets {
		items = append(items, sc.net(b.circuit, name))
	}
	bus, err := b.circuit.NewBus(label, items...)
	if err != nil {
		return err
	}
	sc.buses[label] = bus

	conn, err := b.endpoints(sc, bb.Connect)
	if err != nil {
		return err
	}
	if len(conn) == 0 {
		return nil
	}
	return bus.Connect(conn...)
}

func (b *builder) connect(block *hcl.Block, sc *scope) error {
	var cb connectBlock
	if err := b.decode(block, &cb); err != nil {
		return err
	}
	from, err := b.endpoints(sc, cb.From)
	if err != nil {
		return err
	}
	to, err := b.endpoints(sc, cb.To)
	if err != nil {
		return err
	}
	return circuit.GroupOf(from...).Connect(to...)
}

func (b *builder) network(block *hcl.Block, sc *scope) error {
	var nb networkBlock
	if err := b.decode(block, &nb); err != nil {
		return err
	}
	if len(nb.Nodes) < 2 {
		return fmt.Errorf("needs at least two nodes, got %d", len(nb.Nodes))
	}
	nodes := make([]circuit.Networker, 0, len(nb.Nodes))
	for _, s := range nb.Nodes {
		t, err := sc.resolve(b.circuit, s)
		if err != nil {
			return err
		}
		node, err := t.networker()
		if err != nil {
			return err
		}
		nodes = append(nodes, node)
	}
	var err error
	if block.Type == "series" {
		_, err = circuit.Series(nodes...)
	} else {
		_, err = circuit.Parallel(nodes...)
	}
	return err
}

func (b *builder) noConnect(block *hcl.Block, sc *scope) error {
	var nb noConnectBlock
	if err := b.decode(block, &nb); err != nil {
		return err
	}
	items, err := b.endpoints(sc, nb.Pins)
	if err != nil {
		return err
	}
	for _, ep := range circuit.GroupOf(items...) {
		if _, ok := ep.(*circuit.Pin); !ok {
			return fmt.Errorf("only pins can be marked no-connect, got net %s", ep)
		}
	}
	return b.circuit.NC().Connect(items...)
}

func (b *builder) subcircuit(ctx context.Context, block *hcl.Block, sc *scope) error {
	node := b.circuit.Enter(block.Labels[0])
	ctxlog.FromContext(ctx).Debug("entering subcircuit", "hierarchy", b.circuit.Hierarchy())
	err := b.run(ctx, block.Body, subSchema, newScope(sc))
	if exitErr := b.circuit.Exit(); err == nil && exitErr != nil {
		err = exitErr
	}
	if err != nil {
		return fmt.Errorf("subcircuit %s: %w", node.Path(), err)
	}
	return nil
}

func (b *builder) endpoints(sc *scope, specs []string) ([]circuit.Connectable, error) {
	items := make([]circuit.Connectable, 0, len(specs))
	for _, s := range specs {
		t, err := sc.resolve(b.circuit, s)
		if err != nil {
			return nil, err
		}
		items = append(items, t.items)
	}
	return items, nil
}
