package bsdl

import "strings"

// File is a parsed BSDL document.
type File struct {
	Entity *Entity `parser:"@@"`
}

// Entity is "entity NAME is ... end NAME;".
type Entity struct {
	Name    string         `parser:"KwEntity @Ident KwIs"`
	Generic *GenericClause `parser:"@@?"`
	Port    *PortClause    `parser:"@@?"`
	Decls   []*Decl        `parser:"@@*"`
	EndName string         `parser:"KwEnd ( KwEntity )? @Ident? Semicolon"`
}

type Decl struct {
	Use       *UseClause `parser:"  @@"`
	Attribute *Attribute `parser:"| @@"`
}

// GenericClause holds e.g. generic (PHYSICAL_PIN_MAP : string := "LQFP64");
type GenericClause struct {
	Generics []*Generic `parser:"KwGeneric LParen ( @@ ( Semicolon @@ )* )? RParen Semicolon"`
}

type Generic struct {
	Name    string  `parser:"@Ident"`
	Type    string  `parser:"Colon @( Ident | KwString )"`
	Default *string `parser:"( Assign @String )?"`
}

// PortClause lists the logical ports. Several names may share one
// declaration: "A, B : in bit".
type PortClause struct {
	Ports []*Port `parser:"KwPort LParen ( @@ ( Semicolon @@ )* Semicolon? )? RParen Semicolon"`
}

type Port struct {
	Names []string  `parser:"@Ident ( Comma @Ident )*"`
	Mode  string    `parser:"Colon @( KwInout | KwIn | KwOut | KwBuffer | KwLinkage )"`
	Type  *PortType `parser:"@@"`
}

type PortType struct {
	Name  string     `parser:"@( KwBitVector | KwBit )"`
	Range *RangeSpec `parser:"@@?"`
}

// RangeSpec is "(0 to 7)" or "(7 downto 0)".
type RangeSpec struct {
	Start     int    `parser:"LParen @Integer"`
	Direction string `parser:"@Ident"`
	End       int    `parser:"@Integer RParen"`
}

// Indices lists the vector indices in declaration order.
func (r *RangeSpec) Indices() []int {
	step := 1
	if r.End < r.Start {
		step = -1
	}
	var out []int
	for i := r.Start; ; i += step {
		out = append(out, i)
		if i == r.End {
			return out
		}
	}
}

type UseClause struct {
	Package string `parser:"KwUse @Ident"`
	Member  string `parser:"Dot @( Ident | KwAll ) Semicolon"`
}

type Attribute struct {
	Constant *Constant      `parser:"  @@"`
	Spec     *AttributeSpec `parser:"| @@"`
}

// Constant is e.g. constant LQFP64 : PIN_MAP_STRING := "TDI:12," & "TDO:13";
type Constant struct {
	Name  string      `parser:"KwConstant @Ident"`
	Type  string      `parser:"Colon @Ident"`
	Value *Expression `parser:"Assign @@ Semicolon"`
}

// AttributeSpec is e.g. attribute IDCODE_REGISTER of CHIP : entity is "0001...";
type AttributeSpec struct {
	Name  string      `parser:"KwAttribute @Ident"`
	Of    string      `parser:"KwOf @Ident"`
	Class string      `parser:"Colon @( KwEntity | KwConstant | Ident )"`
	Value *Expression `parser:"KwIs @@ Semicolon"`
}

type Expression struct {
	Terms []*Term `parser:"@@ ( Concat @@ )*"`
}

type Term struct {
	String  *string  `parser:"  @String"`
	Real    *float64 `parser:"| @Real"`
	Integer *int     `parser:"| @Integer"`
	Ident   *string  `parser:"| @Ident"`
	Tuple   *Tuple   `parser:"| @@"`
	Boolean *bool    `parser:"| ( @KwTrue | KwFalse )"`
}

// Tuple is e.g. (1.0e6, BOTH).
type Tuple struct {
	Values []*Expression `parser:"LParen @@ ( Comma @@ )* RParen"`
}

// Text joins the string terms of a concatenation without their quotes.
func (e *Expression) Text() string {
	var b strings.Builder
	for _, t := range e.Terms {
		if t.String != nil {
			b.WriteString(unquote(*t.String))
		}
	}
	return b.String()
}

// Ident returns the value of a single identifier expression.
func (e *Expression) Ident() (string, bool) {
	if len(e.Terms) == 1 && e.Terms[0].Ident != nil {
		return *e.Terms[0].Ident, true
	}
	return "", false
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// Constants returns the constant declarations.
func (e *Entity) Constants() []*Constant {
	var out []*Constant
	for _, d := range e.Decls {
		if d.Attribute != nil && d.Attribute.Constant != nil {
			out = append(out, d.Attribute.Constant)
		}
	}
	return out
}

// Attribute returns the attribute specification with the given name,
// compared without regard to case.
func (e *Entity) Attribute(name string) *AttributeSpec {
	for _, d := range e.Decls {
		if d.Attribute != nil && d.Attribute.Spec != nil && strings.EqualFold(d.Attribute.Spec.Name, name) {
			return d.Attribute.Spec
		}
	}
	return nil
}

// Uses returns the "package.member" names of the use clauses.
func (e *Entity) Uses() []string {
	var out []string
	for _, d := range e.Decls {
		if d.Use != nil {
			out = append(out, d.Use.Package+"."+d.Use.Member)
		}
	}
	return out
}
