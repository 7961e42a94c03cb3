// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hdl parses the connection descriptions used to wire groups of parts.
//
// A connection description is a comma separated list of connections:
//
//	ALU.out=ACCU_j.in, ACCU_j.out0=ACCU.in:32
//
// Each connection binds a source pin reference (left) to a destination pin
// reference (right). An optional ":width" suffix sets the declared wire width.
//
package hdl

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Token types.
//
const (
	EOF = iota
	Raw
	Ident
	Comma
	Equal
	Colon
	Int
)

// An Item is a lexed token.
//
type Item struct {
	Type  int
	Value string
	Pos   int
}

type lexer struct {
	in    string
	start int
	pos   int
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' || r == '-' || r == '+'
}

func (l *lexer) next() rune {
	if l.pos >= len(l.in) {
		return utf8.RuneError
	}
	r, sz := utf8.DecodeRuneInString(l.in[l.pos:])
	l.pos += sz
	return r
}

func (l *lexer) emit(typ int) Item {
	it := Item{Type: typ, Value: l.in[l.start:l.pos], Pos: l.start}
	l.start = l.pos
	return it
}

// Lex returns the next token.
//
func (l *lexer) Lex() Item {
	for {
		if l.pos >= len(l.in) {
			return Item{Type: EOF, Value: "end of input", Pos: l.pos}
		}
		r := l.next()
		switch {
		case unicode.IsSpace(r):
			l.start = l.pos
			continue
		case r == ',':
			return l.emit(Comma)
		case r == '=':
			return l.emit(Equal)
		case r == ':':
			return l.emit(Colon)
		case '0' <= r && r <= '9':
			return l.lexNumber()
		case isIdentRune(r):
			return l.lexIdent()
		default:
			return l.emit(Raw)
		}
	}
}

func (l *lexer) lexNumber() Item {
	for l.pos < len(l.in) {
		r, sz := utf8.DecodeRuneInString(l.in[l.pos:])
		if '0' <= r && r <= '9' {
			l.pos += sz
			continue
		}
		if isIdentRune(r) {
			// identifiers may start with a digit, like "2nd.out"
			return l.lexIdent()
		}
		break
	}
	return l.emit(Int)
}

func (l *lexer) lexIdent() Item {
	for l.pos < len(l.in) {
		r, sz := utf8.DecodeRuneInString(l.in[l.pos:])
		if !isIdentRune(r) {
			break
		}
		l.pos += sz
	}
	return l.emit(Ident)
}

// A Conn is a parsed connection.
//
type Conn struct {
	From  string
	To    string
	Width uint
}

// ParseConnections parses a connection description.
//
func ParseConnections(conns string) ([]Conn, error) {
	var out []Conn
	l := &lexer{in: conns}

	i := l.Lex()
	if i.Type == EOF {
		return nil, nil
	}
	for {
		var c Conn
		if i.Type != Ident {
			return nil, parseError(conns, i.Pos, "expected source pin")
		}
		c.From = i.Value
		if i = l.Lex(); i.Type != Equal {
			return nil, parseError(conns, i.Pos, "expected '='")
		}
		if i = l.Lex(); i.Type != Ident {
			return nil, parseError(conns, i.Pos, "expected destination pin")
		}
		c.To = i.Value
		i = l.Lex()
		if i.Type == Colon {
			if i = l.Lex(); i.Type != Int {
				return nil, parseError(conns, i.Pos, "missing wire width")
			}
			w, err := strconv.ParseUint(i.Value, 10, 8)
			if err != nil {
				return nil, parseError(conns, i.Pos, "invalid wire width")
			}
			c.Width = uint(w)
			i = l.Lex()
		}
		out = append(out, c)
		switch i.Type {
		case EOF:
			return out, nil
		case Comma:
			i = l.Lex()
		default:
			return nil, parseError(conns, i.Pos, "expected comma or end of input")
		}
	}
}

func parseError(in string, pos int, msg string) error {
	return errors.Errorf("in %q at pos %d: %s", in, pos+1, msg)
}
