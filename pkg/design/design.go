// Package design builds circuits from HCL design scripts.
//
// A script is a sequence of blocks that are applied to a circuit in source
// order:
//
//	variable "bits" { default = 4 }
//
//	part "U1" {
//	  lib  = "mcu"
//	  name = "ATTINY"
//	}
//
//	part "R1" {
//	  name  = "R"
//	  value = "10k"
//	  pin "1" { func = "passive" }
//	  pin "2" { func = "passive" }
//	}
//
//	net "VCC" {
//	  drive   = "power"
//	  connect = ["U1.VCC", "R1.1"]
//	}
//
//	bus "DATA" { width = var.bits }
//	connect {
//	  from = ["U1.PB[0:3]"]
//	  to   = ["bus:DATA"]
//	}
//
//	series { nodes = ["net:VCC", "R1", "net:LED"] }
//	no_connect { pins = ["U1.RESET"] }
//
//	subcircuit "filter" {
//	  part "C1" { ... }
//	}
//
// Endpoints are strings: "U1" names a part, "U1.VCC" or "U1.1" a pin, "U1.uA"
// a unit, "U1.D[0:3]" several pins, "net:GND" a net and "bus:DATA[0:3]" a slice
// of a bus. Names are resolved in the enclosing subcircuits first.
package design

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/OpenTraceLab/OpenTraceNet/internal/ctxlog"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/circuit"
)

const tracerName = "github.com/OpenTraceLab/OpenTraceNet/pkg/design"

// PartSource supplies part templates from libraries. *library.Registry
// implements it.
type PartSource interface {
	Part(ctx context.Context, lib, name string) (*circuit.Part, error)
}

// Design is a parsed design script.
type Design struct {
	Filename string

	body      hcl.Body
	variables map[string]variable
}

type variable struct {
	def   *cty.Value
	rng   hcl.Range
	descr string
}

var topSchema = &hcl.BodySchema{
	Blocks: append([]hcl.BlockHeaderSchema{
		{Type: "variable", LabelNames: []string{"name"}},
	}, bodyBlocks...),
}

var subSchema = &hcl.BodySchema{Blocks: bodyBlocks}

var bodyBlocks = []hcl.BlockHeaderSchema{
	{Type: "part", LabelNames: []string{"ref"}},
	{Type: "net", LabelNames: []string{"name"}},
	{Type: "bus", LabelNames: []string{"name"}},
	{Type: "connect"},
	{Type: "series"},
	{Type: "parallel"},
	{Type: "no_connect"},
	{Type: "subcircuit", LabelNames: []string{"name"}},
}

var variableSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "default"},
		{Name: "description"},
	},
}

// ParseFile reads and parses the design script at path.
func ParseFile(path string) (*Design, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("design: %w", err)
	}
	return Parse(src, path)
}

// Parse parses a design script. Variable blocks are decoded here; every
// other block is checked and applied by Build.
func Parse(src []byte, filename string) (*Design, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("design: failed to parse %s: %w", filename, diags)
	}

	content, diags := file.Body.Content(topSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("design: %s: %w", filename, diags)
	}

	d := &Design{Filename: filename, body: file.Body, variables: make(map[string]variable)}
	for _, block := range content.Blocks.OfType("variable") {
		name := block.Labels[0]
		if prev, exists := d.variables[name]; exists {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate variable definition",
				Detail:   fmt.Sprintf("A variable named '%s' was already defined at %s.", name, prev.rng),
				Subject:  &block.DefRange,
			})
			continue
		}
		v, vdiags := decodeVariable(block)
		diags = append(diags, vdiags...)
		d.variables[name] = v
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("design: %s: %w", filename, diags)
	}
	return d, nil
}

func decodeVariable(block *hcl.Block) (variable, hcl.Diagnostics) {
	v := variable{rng: block.DefRange}
	content, diags := block.Body.Content(variableSchema)
	if diags.HasErrors() {
		return v, diags
	}
	if attr, ok := content.Attributes["default"]; ok {
		// Defaults are constants; they cannot refer to other variables.
		val, vdiags := attr.Expr.Value(nil)
		diags = append(diags, vdiags...)
		v.def = &val
	}
	if attr, ok := content.Attributes["description"]; ok {
		val, vdiags := attr.Expr.Value(nil)
		diags = append(diags, vdiags...)
		if !vdiags.HasErrors() && val.Type() == cty.String && val.IsKnown() && !val.IsNull() {
			v.descr = val.AsString()
		}
	}
	return v, diags
}

// Variables returns the declared variable names in sorted order.
func (d *Design) Variables() []string {
	names := make([]string, 0, len(d.variables))
	for name := range d.variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Option configures Build.
type Option func(*builder)

// WithParts sets the source of library parts. Without it, only parts with
// inline pin blocks can be built.
func WithParts(src PartSource) Option {
	return func(b *builder) { b.parts = src }
}

// WithVariables overrides variable defaults. Every key must be declared.
func WithVariables(vars map[string]cty.Value) Option {
	return func(b *builder) {
		for k, v := range vars {
			b.overrides[k] = v
		}
	}
}

// WithMatchRegex turns on pattern lookups of pin names for every part the
// design instantiates.
func WithMatchRegex(on bool) Option {
	return func(b *builder) { b.matchRegex = on }
}

// Build applies the design to c. Blocks run in source order under the
// circuit's write lock; the first failing block stops the build and its
// error carries the block's source range.
func (d *Design) Build(ctx context.Context, c *circuit.Circuit, opts ...Option) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "design.build", trace.WithAttributes(attribute.String("design.file", d.Filename)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	b := &builder{circuit: c, overrides: make(map[string]cty.Value)}
	for _, opt := range opts {
		opt(b)
	}

	evalCtx, err := d.evalContext(b.overrides)
	if err != nil {
		return err
	}
	b.eval = evalCtx

	logger := ctxlog.FromContext(ctx)
	logger.Debug("building design", "file", d.Filename, "variables", len(d.variables))

	err = c.Write(func() error {
		return b.run(ctx, d.body, topSchema, newScope(nil))
	})
	span.SetAttributes(attribute.Int("design.parts", len(c.Parts())))
	return err
}

// evalContext exposes the variables as var.<name>.
func (d *Design) evalContext(overrides map[string]cty.Value) (*hcl.EvalContext, error) {
	vals := make(map[string]cty.Value, len(d.variables))
	for name, v := range d.variables {
		switch {
		case hasKey(overrides, name):
			vals[name] = overrides[name]
		case v.def != nil:
			vals[name] = *v.def
		default:
			return nil, fmt.Errorf("design: %s: variable %q has no default and no value", d.Filename, name)
		}
	}
	for name := range overrides {
		if _, ok := d.variables[name]; !ok {
			return nil, fmt.Errorf("design: %s: value given for undeclared variable %q", d.Filename, name)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": cty.ObjectVal(vals)},
	}, nil
}

func hasKey(m map[string]cty.Value, k string) bool {
	_, ok := m[k]
	return ok
}

// Load parses the script at path and builds it into c.
func Load(ctx context.Context, path string, c *circuit.Circuit, opts ...Option) error {
	d, err := ParseFile(path)
	if err != nil {
		return err
	}
	return d.Build(ctx, c, opts...)
}
