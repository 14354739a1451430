// Package sexp reads and writes the s-expression dialect used by KiCad
// files: parenthesized lists of bare atoms and double-quoted strings.
package sexp

import (
	"fmt"
	"io"
	"strings"
)

// Node is an atom, a quoted string or a list.
type Node struct {
	Value    string
	Quoted   bool
	Children []*Node
	list     bool
}

// Atom returns a bare atom.
func Atom(v string) *Node { return &Node{Value: v} }

// String returns a quoted string atom.
func String(v string) *Node { return &Node{Value: v, Quoted: true} }

// List returns a list whose first element is the atom key. Items may be
// *Node, string (quoted), int or other fmt-printable values (bare).
func List(key string, items ...any) *Node {
	n := &Node{list: true, Children: []*Node{Atom(key)}}
	for _, it := range items {
		n.Append(it)
	}
	return n
}

// Append adds an item to a list, converting it as List does. A nil
// *Node is skipped.
func (n *Node) Append(item any) *Node {
	switch v := item.(type) {
	case *Node:
		if v != nil {
			n.Children = append(n.Children, v)
		}
	case string:
		n.Children = append(n.Children, String(v))
	default:
		n.Children = append(n.Children, Atom(fmt.Sprint(v)))
	}
	return n
}

// IsList reports whether n is a list.
func (n *Node) IsList() bool { return n.list }

// Key returns the leading atom of a list, or "".
func (n *Node) Key() string {
	if !n.list || len(n.Children) == 0 || n.Children[0].list {
		return ""
	}
	return n.Children[0].Value
}

// Args returns the list items after the key.
func (n *Node) Args() []*Node {
	if !n.list || len(n.Children) == 0 {
		return nil
	}
	return n.Children[1:]
}

// Arg returns the value of the i-th item after the key, or "" when it is
// missing or a list.
func (n *Node) Arg(i int) string {
	args := n.Args()
	if i < 0 || i >= len(args) || args[i].list {
		return ""
	}
	return args[i].Value
}

// Find returns the first child list with the given key.
func (n *Node) Find(key string) *Node {
	for _, c := range n.Args() {
		if c.Key() == key {
			return c
		}
	}
	return nil
}

// FindAll returns every child list with the given key.
func (n *Node) FindAll(key string) []*Node {
	var out []*Node
	for _, c := range n.Args() {
		if c.Key() == key {
			out = append(out, c)
		}
	}
	return out
}

// Has reports whether a bare atom equal to flag appears among the args,
// as in (pin input line (hide)) or (in_bom yes).
func (n *Node) Has(flag string) bool {
	for _, c := range n.Args() {
		if !c.list && !c.Quoted && c.Value == flag {
			return true
		}
	}
	return false
}

// String renders the node on one line.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b, -1, 0)
	return b.String()
}

// Write renders the node with nested lists on indented lines.
func Write(w io.Writer, n *Node) error {
	var b strings.Builder
	n.write(&b, 0, 2)
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// write renders n. depth < 0 means single line.
func (n *Node) write(b *strings.Builder, depth, indent int) {
	if !n.list {
		if n.Quoted {
			b.WriteString(quote(n.Value))
		} else {
			b.WriteString(n.Value)
		}
		return
	}
	b.WriteByte('(')
	for i, c := range n.Children {
		if i > 0 {
			if depth >= 0 && c.list && hasList(c) {
				b.WriteByte('\n')
				b.WriteString(strings.Repeat(" ", (depth+1)*indent))
			} else {
				b.WriteByte(' ')
			}
		}
		next := depth
		if depth >= 0 {
			next = depth + 1
		}
		c.write(b, next, indent)
	}
	b.WriteByte(')')
}

func hasList(n *Node) bool {
	for _, c := range n.Children {
		if c.list {
			return true
		}
	}
	return false
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)

func quote(s string) string { return `"` + quoter.Replace(s) + `"` }

// Parse reads every top-level expression.
func Parse(r io.Reader) ([]*Node, error) {
	p := &parser{lex: newLexer(r)}
	var out []*Node
	for {
		tok, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		if tok.typ == tokenEOF {
			return out, nil
		}
		n, err := p.node(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
}

// ParseOne reads a document holding exactly one top-level list.
func ParseOne(r io.Reader) (*Node, error) {
	nodes, err := Parse(r)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 || !nodes[0].list {
		return nil, fmt.Errorf("sexp: expected one top-level list, got %d expressions", len(nodes))
	}
	return nodes[0], nil
}

type parser struct {
	lex *lexer
}

func (p *parser) node(tok token) (*Node, error) {
	switch tok.typ {
	case tokenAtom:
		return Atom(tok.value), nil
	case tokenString:
		return String(tok.value), nil
	case tokenClose:
		return nil, fmt.Errorf("sexp: line %d: unexpected ')'", tok.line)
	case tokenOpen:
		n := &Node{list: true}
		for {
			t, err := p.lex.next()
			if err != nil {
				return nil, err
			}
			switch t.typ {
			case tokenClose:
				return n, nil
			case tokenEOF:
				return nil, fmt.Errorf("sexp: line %d: list not closed", tok.line)
			}
			child, err := p.node(t)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		}
	}
	return nil, fmt.Errorf("sexp: line %d: unexpected end of input", tok.line)
}
