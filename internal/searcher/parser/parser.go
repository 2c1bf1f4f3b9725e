// Package parser compiles a tokenised boolean query into an AST by
// recursive descent. The grammar, loosest binding first:
//
//	Query   := AndTerm ( "ANDNOT" Query )?
//	AndTerm := OrTerm  ( "AND" AndTerm )?
//	OrTerm  := Term    ( "OR" OrTerm )?
//	Term    := "(" Query ")" | ATOM
//
// All operators are right-associative and brackets reset precedence.
package parser

import (
	"net/http"

	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/errors"
)

const (
	KeywordAnd    = "AND"
	KeywordOr     = "OR"
	KeywordAndNot = "ANDNOT"
	OpenBracket   = "("
	CloseBracket  = ")"
)

const (
	MsgUnexpectedEnd  = "Unexpected end of input (term)"
	MsgReservedWord   = "Unexpected reserved word"
	MsgMissingBracket = "Missing ) bracket"
	MsgTrailingTokens = "Unexpected token in the end of query"
)

// IsReserved reports whether tok is an operator keyword or a bracket.
func IsReserved(tok string) bool {
	switch tok {
	case KeywordAnd, KeywordOr, KeywordAndNot, OpenBracket, CloseBracket:
		return true
	}
	return false
}

// cursor is the parse position. Productions take a cursor by value and
// return the advanced one.
type cursor struct {
	tokens []string
	pos    int
}

func (c cursor) peek() (string, bool) {
	if c.pos >= len(c.tokens) {
		return "", false
	}
	return c.tokens[c.pos], true
}

func (c cursor) next() cursor {
	return cursor{tokens: c.tokens, pos: c.pos + 1}
}

// at reports whether the current token is tok.
func (c cursor) at(tok string) bool {
	cur, ok := c.peek()
	return ok && cur == tok
}

func (c cursor) done() bool {
	return c.pos >= len(c.tokens)
}

// Parse builds the AST for tokens. Every token must be consumed. On failure
// the returned error wraps apperrors.ErrSyntax and no tree is returned.
func Parse(tokens []string) (*Node, error) {
	root, rest, err := parseQuery(cursor{tokens: tokens})
	if err != nil {
		return nil, err
	}
	if !rest.done() {
		return nil, syntaxError(MsgTrailingTokens)
	}
	return root, nil
}

func parseQuery(c cursor) (*Node, cursor, error) {
	return parseBinary(c, KeywordAndNot, OpAndNot, parseAndTerm, parseQuery)
}

func parseAndTerm(c cursor) (*Node, cursor, error) {
	return parseBinary(c, KeywordAnd, OpAnd, parseOrTerm, parseAndTerm)
}

func parseOrTerm(c cursor) (*Node, cursor, error) {
	return parseBinary(c, KeywordOr, OpOr, parseTerm, parseOrTerm)
}

type production func(cursor) (*Node, cursor, error)

// parseBinary handles `operand ( keyword self )?`.
func parseBinary(c cursor, keyword string, op Op, operand, self production) (*Node, cursor, error) {
	left, c, err := operand(c)
	if err != nil {
		return nil, c, err
	}
	if !c.at(keyword) {
		return left, c, nil
	}
	right, c, err := self(c.next())
	if err != nil {
		return nil, c, err
	}
	return binary(op, left, right), c, nil
}

func parseTerm(c cursor) (*Node, cursor, error) {
	tok, ok := c.peek()
	if !ok {
		return nil, c, syntaxError(MsgUnexpectedEnd)
	}
	if tok == OpenBracket {
		inner, rest, err := parseQuery(c.next())
		if err != nil {
			return nil, rest, err
		}
		if !rest.at(CloseBracket) {
			return nil, rest, syntaxError(MsgMissingBracket)
		}
		return inner, rest.next(), nil
	}
	if IsReserved(tok) {
		return nil, c, syntaxError(MsgReservedWord)
	}
	return term(tok), c.next(), nil
}

func syntaxError(msg string) error {
	return apperrors.New(apperrors.ErrSyntax, http.StatusBadRequest, msg)
}
