// Package bsdl loads the logical ports and physical pin map of a BSDL
// (IEEE 1149.1) entity as a part template.
package bsdl

import (
	"fmt"
	"io"
	"sync"

	"github.com/alecthomas/participle/v2"
)

// Parser parses BSDL text. A Parser is safe for concurrent use.
type Parser struct {
	parser *participle.Parser[File]
}

// NewParser builds the grammar.
func NewParser() (*Parser, error) {
	p, err := participle.Build[File](
		participle.Lexer(bsdlLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("bsdl: failed to build parser: %w", err)
	}
	return &Parser{parser: p}, nil
}

// Parse reads one entity. name identifies the source in error positions.
func (p *Parser) Parse(r io.Reader, name string) (*File, error) {
	f, err := p.parser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("bsdl: parse error: %w", err)
	}
	return f, nil
}

// ParseString parses BSDL held in a string.
func (p *Parser) ParseString(name, input string) (*File, error) {
	f, err := p.parser.ParseString(name, input)
	if err != nil {
		return nil, fmt.Errorf("bsdl: parse error: %w", err)
	}
	return f, nil
}

var defaultParser = sync.OnceValues(NewParser)
