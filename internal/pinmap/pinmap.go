// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package pinmap parses pin assignment lists, as given on the command line
// or in configuration files:
//
//	clock=J3:LVCMOS33, leds[0]=A1, leds[1]=A2
//
// Each assignment binds a bit of a top level port to a package pin, with an
// optional I/O standard. Ports of signal bundles use '$' separated names.
//
package pinmap

import (
	"strconv"
	"unicode"

	"github.com/db47h/hdl/internal/lex"
	"github.com/pkg/errors"
)

// Tokens
const (
	EOF lex.Type = lex.EOF
	Raw lex.Type = iota
	Ident
	BracketOpen
	BracketClose
	Comma
	Int
	Equal
	Colon
)

// Lexer returns a new lexer for pin assignment lists.
//
func Lexer(input string) lex.Interface {
	return lex.New(input, lexInit)
}

func lexInit(l *lex.Lexer) lex.StateFn {
	r := l.Next()
	switch {
	case r == lex.EOF:
		return lexEOF
	case unicode.IsSpace(r):
		l.AcceptWhile(unicode.IsSpace)
		l.Ignore()
	case unicode.IsLetter(r) || r == '_':
		return lexIdent
	case '0' <= r && r <= '9':
		return lexNumber
	case r == '[':
		l.Emit(BracketOpen, "[")
	case r == ']':
		l.Emit(BracketClose, "]")
	case r == ',':
		l.Emit(Comma, ",")
	case r == '=':
		l.Emit(Equal, "=")
	case r == ':':
		l.Emit(Colon, ":")
	default:
		l.Emit(Raw, r)
		return lexEOF
	}
	return nil
}

func lexNumber(l *lex.Lexer) lex.StateFn {
	i := int(l.Current() - '0')
	r := l.Next()
	for '0' <= r && r <= '9' {
		i = i*10 + int(r-'0')
		r = l.Next()
	}
	l.Backup()
	l.Emit(Int, i)
	return nil
}

func lexIdent(l *lex.Lexer) lex.StateFn {
	buf := []rune{l.Current()}
	r := l.Next()
	for unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$' {
		buf = append(buf, r)
		r = l.Next()
	}
	l.Backup()
	l.Emit(Ident, string(buf))
	return nil
}

// lexEOF places the lexer in End-Of-File state.
// Once in this state, the lexer will only emit EOF.
//
func lexEOF(l *lex.Lexer) lex.StateFn {
	l.Emit(lex.EOF, "end of input")
	return lexEOF
}

// Assignment binds bit Index of port Name to the package pin Location.
//
type Assignment struct {
	Name     string
	Index    int
	Location string
	Standard string // I/O standard, empty for the default
}

type parser struct {
	input string
	l     lex.Interface
	i     lex.Item
}

func (p *parser) next() { p.i = p.l.Lex() }

func (p *parser) errorf(msg string) error {
	found := "end of input"
	if p.i.Type != EOF {
		found = describe(p.i)
	}
	return errors.Errorf("in %q at pos %d: %s, found %s", p.input, p.i.Pos+1, msg, found)
}

func describe(i lex.Item) string {
	switch v := i.Value.(type) {
	case rune:
		return strconv.QuoteRune(v)
	case int:
		return strconv.Itoa(v)
	case string:
		return strconv.Quote(v)
	}
	return "token"
}

// Parse parses a comma separated list of pin assignments. An empty list
// returns no assignments.
//
func Parse(s string) ([]Assignment, error) {
	p := &parser{input: s, l: Lexer(s)}
	p.next()
	var out []Assignment
	for p.i.Type != EOF {
		a, err := p.assignment()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
		switch p.i.Type {
		case EOF:
		case Comma:
			p.next()
			if p.i.Type == EOF {
				return nil, p.errorf("expected pin assignment")
			}
		default:
			return nil, p.errorf("expected comma or end of input")
		}
	}
	return out, nil
}

func (p *parser) assignment() (a Assignment, err error) {
	if p.i.Type != Ident {
		return a, p.errorf("expected port name")
	}
	a.Name = p.i.Value.(string)
	p.next()
	if p.i.Type == BracketOpen {
		p.next()
		if p.i.Type != Int {
			return a, p.errorf("expected bit index")
		}
		a.Index = p.i.Value.(int)
		p.next()
		if p.i.Type != BracketClose {
			return a, p.errorf("missing close bracket")
		}
		p.next()
	}
	if p.i.Type != Equal {
		return a, p.errorf("expected '='")
	}
	p.next()
	switch p.i.Type {
	case Ident:
		a.Location = p.i.Value.(string)
	case Int:
		a.Location = strconv.Itoa(p.i.Value.(int))
	default:
		return a, p.errorf("expected pin location")
	}
	p.next()
	if p.i.Type == Colon {
		p.next()
		if p.i.Type != Ident {
			return a, p.errorf("expected I/O standard")
		}
		a.Standard = p.i.Value.(string)
		p.next()
	}
	return a, nil
}
