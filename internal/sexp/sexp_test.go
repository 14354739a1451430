package sexp

import (
	"bytes"
	"strings"
	"testing"
)

const symbolLib = `(kicad_symbol_lib (version 20211014) (generator kicad_symbol_editor)
  # comment line
  (symbol "R" (pin_numbers hide) (in_bom yes)
    (property "Reference" "R" (id 0) (at 2.032 0 90))
    (property "Description" "say \"hi\"\nbye")
  )
)`

func TestParseStructure(t *testing.T) {
	root, err := ParseOne(strings.NewReader(symbolLib))
	if err != nil {
		t.Fatalf("ParseOne failed: %v", err)
	}
	if root.Key() != "kicad_symbol_lib" {
		t.Fatalf("key = %q", root.Key())
	}
	if v := root.Find("version").Arg(0); v != "20211014" {
		t.Errorf("version = %q", v)
	}

	sym := root.Find("symbol")
	if sym == nil || sym.Arg(0) != "R" || !sym.Args()[0].Quoted {
		t.Fatalf("symbol node wrong: %v", sym)
	}
	if !sym.Find("pin_numbers").Has("hide") {
		t.Errorf("pin_numbers hide flag missing")
	}
	props := sym.FindAll("property")
	if len(props) != 2 {
		t.Fatalf("got %d properties", len(props))
	}
	if got := props[1].Arg(1); got != "say \"hi\"\nbye" {
		t.Errorf("escaped string = %q", got)
	}
	if sym.Find("missing") != nil {
		t.Errorf("Find returned a node for a missing key")
	}
	if props[0].Arg(9) != "" || props[0].Arg(2) != "" {
		t.Errorf("Arg out of range or on a list should be empty")
	}
}

func TestDoubledQuotes(t *testing.T) {
	nodes, err := Parse(strings.NewReader(`(a "x""y") b`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("got %d nodes", len(nodes))
	}
	if nodes[0].Arg(0) != `x"y` {
		t.Errorf("got %q", nodes[0].Arg(0))
	}
	if nodes[1].IsList() || nodes[1].Value != "b" {
		t.Errorf("bare atom parsed as %v", nodes[1])
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unclosed", "(a (b c)", "line 1: list not closed"},
		{"stray close", "(a))", "unexpected ')'"},
		{"string", "(a \"b)", "unterminated string"},
		{"line number", "(a\n\n))", "line 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want %q", err, tt.want)
			}
		})
	}

	if _, err := ParseOne(strings.NewReader("(a) (b)")); err == nil {
		t.Errorf("ParseOne accepted two expressions")
	}
}

func TestBuildAndWrite(t *testing.T) {
	n := List("export", List("version", Atom("D")),
		List("nets", List("net", List("code", 1), List("name", "GND"))))
	if got := n.String(); got != `(export (version D) (nets (net (code 1) (name "GND"))))` {
		t.Errorf("String() = %s", got)
	}

	var buf bytes.Buffer
	if err := Write(&buf, n); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()
	back, err := ParseOne(strings.NewReader(out))
	if err != nil {
		t.Fatalf("reparse failed: %v\n%s", err, out)
	}
	if back.String() != n.String() {
		t.Errorf("reparsed %s, want %s", back, n)
	}
	if !strings.Contains(out, "\n  (nets") {
		t.Errorf("nested list not indented:\n%s", out)
	}
}

func TestQuoting(t *testing.T) {
	n := List("name", "a \"b\"\\c\n")
	back, err := ParseOne(strings.NewReader(n.String()))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if back.Arg(0) != "a \"b\"\\c\n" {
		t.Errorf("round trip gave %q", back.Arg(0))
	}
}
