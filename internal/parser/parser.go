// Package parser is a concrete implementation of the parser interface
// spec §6 treats as an external collaborator. The core (internal/binding
// onward) only depends on the internal/ast node shapes; this package
// exists so the rest of the repo has a real syntax tree to run against in
// tests, the way a production deployment would plug in a full front end.
//
// Grounded on the teacher's internal/parser (a hand-written recursive
// descent / Pratt parser over internal/lexer tokens, one file per
// statement-or-expression family — statements_control.go,
// expressions_calls.go, etc.); restructured around Python's simpler,
// whitespace-delimited grammar instead of Funxy's operator-rich one.
package parser

import (
	"fmt"

	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/lexer"
	"github.com/oxhq/pyrechk/internal/token"
)

type Parser struct {
	l    *lexer.Lexer
	path string

	cur, peek token.Token
	errors    []error
}

func New(src, path string) *Parser {
	p := &Parser{l: lexer.New(src, path), path: path}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Errorf("%s:%d:%d: %s", p.path, p.cur.Line, p.cur.Column, fmt.Sprintf(format, args...)))
}

func (p *Parser) Errors() []error { return p.errors }

func (p *Parser) rng() ast.Range {
	return ast.Range{Path: p.path, StartLine: p.cur.Line, StartColumn: p.cur.Column, EndLine: p.cur.Line, EndColumn: p.cur.Column}
}

func (p *Parser) isOp(lexeme string) bool {
	return p.cur.Type == token.OP && p.cur.Lexeme == lexeme
}

func (p *Parser) isKeyword(kw string) bool {
	return p.cur.Type == token.KEYWORD && p.cur.Lexeme == kw
}

func (p *Parser) expectOp(lexeme string) bool {
	if !p.isOp(lexeme) {
		p.errorf("expected %q, got %q", lexeme, p.cur.Lexeme)
		return false
	}
	p.next()
	return true
}

func (p *Parser) expectKeyword(kw string) bool {
	if !p.isKeyword(kw) {
		p.errorf("expected keyword %q, got %q", kw, p.cur.Lexeme)
		return false
	}
	p.next()
	return true
}

func (p *Parser) skipNewlines() {
	for p.cur.Type == token.NEWLINE {
		p.next()
	}
}

// ParseModule parses one complete file.
func ParseModule(src, path string) (*ast.Module, []error) {
	p := New(src, path)
	m := &ast.Module{Path: path}
	p.skipNewlines()
	for p.cur.Type != token.EOF {
		stmt := p.parseStatement()
		if stmt != nil {
			m.Body = append(m.Body, stmt)
		}
		p.skipNewlines()
	}
	return m, p.errors
}

// ParseExpr parses src as a single expression, for contexts that reparse
// a string literal's interior text as a forward-referenced type (spec
// §4.2 "Forward references in strings") rather than a whole module.
func ParseExpr(src, path string) (ast.Expr, []error) {
	p := New(src, path)
	p.skipNewlines()
	if p.cur.Type == token.EOF {
		return nil, p.errors
	}
	e := p.parseExprList()
	return e, p.errors
}

// parseSuite parses an indented `:` block (NEWLINE INDENT stmt+ DEDENT) or,
// for a single-line form like `if x: return y`, the simple statements that
// follow the colon directly.
func (p *Parser) parseSuite() []ast.Stmt {
	if !p.expectOp(":") {
		return nil
	}
	if p.cur.Type == token.NEWLINE {
		p.next()
		if p.cur.Type != token.INDENT {
			p.errorf("expected an indented block")
			return nil
		}
		p.next()
		var body []ast.Stmt
		p.skipNewlines()
		for p.cur.Type != token.DEDENT && p.cur.Type != token.EOF {
			s := p.parseStatement()
			if s != nil {
				body = append(body, s)
			}
			p.skipNewlines()
		}
		if p.cur.Type == token.DEDENT {
			p.next()
		}
		return body
	}
	// Simple statement on the same line: `if x: return y`
	var body []ast.Stmt
	s := p.parseSimpleStatement()
	if s != nil {
		body = append(body, s)
	}
	for p.isOp(";") {
		p.next()
		s := p.parseSimpleStatement()
		if s != nil {
			body = append(body, s)
		}
	}
	if p.cur.Type == token.NEWLINE {
		p.next()
	}
	return body
}
