// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package lex provides a minimal state function based lexer.
//
package lex

import (
	"unicode/utf8"
)

// Type is a token type.
//
type Type int

// EOF is the token type emitted at the end of input, and the rune returned
// by Next at the end of input.
//
const EOF = -1

// Item is a lexed token.
//
type Item struct {
	Type  Type
	Value interface{}
	Line  int
	Pos   int // byte offset of the token in the input
}

// StateFn is a lexer state. A nil StateFn returns the lexer to its initial
// state.
//
type StateFn func(l *Lexer) StateFn

// Interface is implemented by lexers.
//
type Interface interface {
	Lex() Item
}

// Lexer scans a string and emits tokens through state functions.
//
type Lexer struct {
	input string
	start int
	pos   int
	width int
	cur   rune
	line  int
	init  StateFn
	state StateFn
	items []Item
}

// New returns a new lexer for input, starting in state init.
//
func New(input string, init StateFn) *Lexer {
	return &Lexer{input: input, init: init, line: 1}
}

// Next returns the next rune of input, or EOF.
//
func (l *Lexer) Next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		l.cur = EOF
		return EOF
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += w
	l.width = w
	l.cur = r
	if r == '\n' {
		l.line++
	}
	return r
}

// Peek returns the next rune without consuming it.
//
func (l *Lexer) Peek() rune {
	if l.pos >= len(l.input) {
		return EOF
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

// Backup steps back one rune. It can be called only once per call of Next.
//
func (l *Lexer) Backup() {
	if l.width == 0 {
		return
	}
	l.pos -= l.width
	if l.cur == '\n' {
		l.line--
	}
	l.width = 0
}

// Current returns the last rune returned by Next.
//
func (l *Lexer) Current() rune { return l.cur }

// Line returns the current line number.
//
func (l *Lexer) Line() int { return l.line }

// AcceptWhile consumes runes while f returns true.
//
func (l *Lexer) AcceptWhile(f func(rune) bool) {
	r := l.Next()
	for r != EOF && f(r) {
		r = l.Next()
	}
	l.Backup()
}

// Emit emits a token that starts at the end of the previous token, or
// after the last ignored input.
//
func (l *Lexer) Emit(t Type, v interface{}) {
	l.items = append(l.items, Item{Type: t, Value: v, Line: l.line, Pos: l.start})
	l.start = l.pos
}

// Ignore skips the input consumed since the last emitted token.
//
func (l *Lexer) Ignore() { l.start = l.pos }

// Lex returns the next token.
//
func (l *Lexer) Lex() Item {
	for len(l.items) == 0 {
		if l.state == nil {
			l.state = l.init
		}
		l.state = l.state(l)
	}
	it := l.items[0]
	l.items = l.items[1:]
	return it
}
