package sexp

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenOpen
	tokenClose
	tokenAtom
	tokenString
)

type token struct {
	typ   tokenType
	value string
	line  int
}

// lexer splits KiCad s-expression text into tokens. '#' starts a comment
// running to the end of the line.
type lexer struct {
	r      *bufio.Reader
	peeked rune
	has    bool
	line   int
}

func newLexer(r io.Reader) *lexer {
	return &lexer{r: bufio.NewReader(r), line: 1}
}

func (l *lexer) next() (token, error) {
	for {
		ch, err := l.peek()
		if err == io.EOF {
			return token{typ: tokenEOF, line: l.line}, nil
		}
		if err != nil {
			return token{}, err
		}
		switch {
		case unicode.IsSpace(ch):
			l.read()
		case ch == '#':
			for {
				c, err := l.read()
				if err != nil || c == '\n' {
					break
				}
			}
		default:
			return l.token(ch)
		}
	}
}

func (l *lexer) token(ch rune) (token, error) {
	line := l.line
	switch ch {
	case '(':
		l.read()
		return token{typ: tokenOpen, value: "(", line: line}, nil
	case ')':
		l.read()
		return token{typ: tokenClose, value: ")", line: line}, nil
	case '"':
		s, err := l.quoted()
		return token{typ: tokenString, value: s, line: line}, err
	}

	var b strings.Builder
	for {
		c, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return token{}, err
		}
		if unicode.IsSpace(c) || c == '(' || c == ')' || c == '"' {
			break
		}
		l.read()
		b.WriteRune(c)
	}
	return token{typ: tokenAtom, value: b.String(), line: line}, nil
}

// quoted reads a string. Backslash escapes and doubled quotes are both
// accepted; KiCad writes the former, older tools the latter.
func (l *lexer) quoted() (string, error) {
	start := l.line
	l.read()
	var b strings.Builder
	for {
		ch, err := l.read()
		if err == io.EOF {
			return "", fmt.Errorf("line %d: unterminated string", start)
		}
		if err != nil {
			return "", err
		}
		switch ch {
		case '"':
			if next, err := l.peek(); err == nil && next == '"' {
				l.read()
				b.WriteRune('"')
				continue
			}
			return b.String(), nil
		case '\\':
			esc, err := l.read()
			if err != nil {
				return "", fmt.Errorf("line %d: unterminated escape", l.line)
			}
			switch esc {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case 'r':
				b.WriteRune('\r')
			default:
				b.WriteRune(esc)
			}
		default:
			b.WriteRune(ch)
		}
	}
}

func (l *lexer) peek() (rune, error) {
	if l.has {
		return l.peeked, nil
	}
	ch, _, err := l.r.ReadRune()
	if err != nil {
		return 0, err
	}
	l.peeked, l.has = ch, true
	return ch, nil
}

func (l *lexer) read() (rune, error) {
	ch, err := l.peek()
	if err != nil {
		return 0, err
	}
	l.has = false
	if ch == '\n' {
		l.line++
	}
	return ch, nil
}
