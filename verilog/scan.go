// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package verilog

import (
	"unicode"

	"github.com/db47h/hdl/internal/lex"
	"github.com/pkg/errors"
)

// Tokens
const (
	tokEOF lex.Type = lex.EOF
	tokRaw lex.Type = iota
	tokIdent
	tokNumber
	tokString
	tokOpen
	tokClose
	tokError
)

func lexer(input string) *lex.Lexer {
	return lex.New(input, lexInit)
}

func lexInit(l *lex.Lexer) lex.StateFn {
	r := l.Next()
	switch {
	case r == lex.EOF:
		return lexEOF
	case unicode.IsSpace(r):
		l.AcceptWhile(unicode.IsSpace)
	case unicode.IsLetter(r) || r == '_' || r == '$' || r == '\\':
		return lexIdent
	case '0' <= r && r <= '9' || r == '\'':
		return lexNumber
	case r == '"':
		return lexString
	case r == '/':
		switch l.Peek() {
		case '/':
			l.AcceptWhile(func(r rune) bool { return r != '\n' })
			return nil
		case '*':
			return lexBlockComment
		}
		l.Emit(tokRaw, r)
	case r == '(' || r == '[' || r == '{':
		l.Emit(tokOpen, r)
	case r == ')' || r == ']' || r == '}':
		l.Emit(tokClose, r)
	default:
		l.Emit(tokRaw, r)
	}
	return nil
}

func lexBlockComment(l *lex.Lexer) lex.StateFn {
	l.Next() // '*'
	for {
		r := l.Next()
		switch r {
		case lex.EOF:
			l.Emit(tokError, "unterminated comment")
			return lexEOF
		case '*':
			if l.Peek() == '/' {
				l.Next()
				return nil
			}
		}
	}
}

func lexString(l *lex.Lexer) lex.StateFn {
	for {
		r := l.Next()
		switch r {
		case lex.EOF, '\n':
			l.Emit(tokError, "unterminated string")
			return lexEOF
		case '\\':
			l.Next()
		case '"':
			l.Emit(tokString, nil)
			return nil
		}
	}
}

func lexNumber(l *lex.Lexer) lex.StateFn {
	// sized and based literals: 8'hff, 'b0, 4'sd3, 8'bz
	l.AcceptWhile(func(r rune) bool {
		return unicode.IsDigit(r) || unicode.IsLetter(r) || r == '\'' || r == '_' || r == '?'
	})
	l.Emit(tokNumber, nil)
	return nil
}

func lexIdent(l *lex.Lexer) lex.StateFn {
	var buf []rune
	buf = append(buf, l.Current())
	if l.Current() == '\\' {
		// escaped identifier, terminated by white space
		r := l.Next()
		for r != lex.EOF && !unicode.IsSpace(r) {
			buf = append(buf, r)
			r = l.Next()
		}
		l.Backup()
		l.Emit(tokIdent, string(buf))
		return nil
	}
	r := l.Next()
	for unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$' {
		buf = append(buf, r)
		r = l.Next()
	}
	l.Backup()
	l.Emit(tokIdent, string(buf))
	return nil
}

// lexEOF places the lexer in End-Of-File state.
// Once in this state, the lexer will only emit EOF.
//
func lexEOF(l *lex.Lexer) lex.StateFn {
	l.Emit(tokEOF, "end of input")
	return lexEOF
}

var closers = map[string]string{
	"begin":    "end",
	"case":     "endcase",
	"casez":    "endcase",
	"casex":    "endcase",
	"module":   "endmodule",
	"function": "endfunction",
	"task":     "endtask",
	"generate": "endgenerate",
	"fork":     "join",
}

var brackets = map[rune]rune{'(': ')', '[': ']', '{': '}'}

// Validate checks that a raw Verilog fragment is lexically sound: comments
// and strings are terminated, and begin/end, case/endcase, module/endmodule
// and the like, as well as parentheses, brackets and braces, are balanced.
//
func Validate(text string) error {
	type open struct {
		want string
		line int
	}
	var stack []open
	l := lexer(text)
	for {
		it := l.Lex()
		switch it.Type {
		case tokEOF:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				return errors.Errorf("line %d: missing %q", top.line, top.want)
			}
			return nil
		case tokError:
			return errors.Errorf("line %d: %s", it.Line, it.Value)
		case tokOpen:
			stack = append(stack, open{string(brackets[it.Value.(rune)]), it.Line})
		case tokClose, tokIdent:
			var tok string
			if it.Type == tokClose {
				tok = string(it.Value.(rune))
			} else {
				tok = it.Value.(string)
				if c, ok := closers[tok]; ok {
					stack = append(stack, open{c, it.Line})
					continue
				}
				if !isCloser(tok) {
					continue
				}
			}
			if len(stack) == 0 || stack[len(stack)-1].want != tok {
				return errors.Errorf("line %d: unexpected %q", it.Line, tok)
			}
			stack = stack[:len(stack)-1]
		}
	}
}

func isCloser(s string) bool {
	for _, c := range closers {
		if c == s {
			return true
		}
	}
	return false
}
