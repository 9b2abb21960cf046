package parser

import (
	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/token"
)

// parsePatterns parses the pattern(s) of one `case` clause, collapsing a
// bare single pattern to itself and a comma-separated list into a
// SequencePattern (open form, no brackets — `case a, b:`).
func (p *Parser) parsePatterns() ast.Pattern {
	first := p.parseOrPattern()
	if !p.isOp(",") {
		return first
	}
	elems := []ast.Pattern{first}
	for p.isOp(",") {
		p.next()
		if p.isOp(":") || p.isKeyword("if") {
			break
		}
		elems = append(elems, p.parseOrPattern())
	}
	return &ast.SequencePattern{Elems: elems}
}

func (p *Parser) parseOrPattern() ast.Pattern {
	first := p.parseAsPattern()
	if !p.isOp("|") {
		return first
	}
	pats := []ast.Pattern{first}
	for p.isOp("|") {
		p.next()
		pats = append(pats, p.parseAsPattern())
	}
	return &ast.OrPattern{Patterns: pats}
}

func (p *Parser) parseAsPattern() ast.Pattern {
	sub := p.parseClosedPattern()
	if p.isKeyword("as") {
		p.next()
		name := p.cur.Lexeme
		p.next()
		return &ast.AsPattern{Sub: sub, Name: name}
	}
	return sub
}

func (p *Parser) parseClosedPattern() ast.Pattern {
	switch {
	case p.isOp("["):
		return p.parseSequencePattern("]")
	case p.isOp("("):
		return p.parseSequencePattern(")")
	case p.isOp("{"):
		return p.parseMappingPattern()
	case p.cur.Type == token.IDENT && (p.peek.Lexeme == "(" || p.peek.Lexeme == "."):
		return p.parseClassOrValuePattern()
	case p.cur.Type == token.IDENT && p.cur.Lexeme == "_" && p.peek.Lexeme != "(" && p.peek.Lexeme != ".":
		p.next()
		return &ast.CapturePattern{Name: ""}
	case p.cur.Type == token.IDENT:
		name := p.cur.Lexeme
		p.next()
		return &ast.CapturePattern{Name: name}
	default:
		return &ast.ValuePattern{Value: p.parseOrTest()}
	}
}

func (p *Parser) parseSequencePattern(closer string) ast.Pattern {
	p.next() // '[' or '('
	var elems []ast.Pattern
	for !p.isOp(closer) {
		if p.isOp("*") {
			p.next()
			name := p.cur.Lexeme
			p.next()
			elems = append(elems, &ast.CapturePattern{Name: name})
		} else {
			elems = append(elems, p.parseOrPattern())
		}
		if p.isOp(",") {
			p.next()
			continue
		}
		break
	}
	p.expectOp(closer)
	return &ast.SequencePattern{Elems: elems}
}

func (p *Parser) parseMappingPattern() ast.Pattern {
	p.next() // '{'
	var entries []ast.MappingEntry
	rest := ""
	for !p.isOp("}") {
		if p.isOp("**") {
			p.next()
			rest = p.cur.Lexeme
			p.next()
		} else {
			key := p.parseOrTest()
			p.expectOp(":")
			entries = append(entries, ast.MappingEntry{Key: key, Pattern: p.parseOrPattern()})
		}
		if p.isOp(",") {
			p.next()
			continue
		}
		break
	}
	p.expectOp("}")
	return &ast.MappingPattern{Entries: entries, Rest: rest}
}

// parseClassOrValuePattern handles `Point(x, y)`, `Point(x=a, y=b)`, and a
// bare dotted value pattern like `Color.RED`.
func (p *Parser) parseClassOrValuePattern() ast.Pattern {
	var cls ast.Expr = &ast.Name{Value: p.cur.Lexeme}
	p.next()
	for p.isOp(".") {
		p.next()
		cls = &ast.Attribute{X: cls, Name: p.cur.Lexeme}
		p.next()
	}
	if !p.isOp("(") {
		return &ast.ValuePattern{Value: cls}
	}
	p.next()
	var positional []ast.Pattern
	var names []string
	var keywordElems []ast.Pattern
	for !p.isOp(")") {
		if p.cur.Type == token.IDENT && p.peek.Lexeme == "=" {
			names = append(names, p.cur.Lexeme)
			p.next()
			p.next()
			keywordElems = append(keywordElems, p.parseOrPattern())
		} else {
			positional = append(positional, p.parseOrPattern())
		}
		if p.isOp(",") {
			p.next()
			continue
		}
		break
	}
	p.expectOp(")")
	if len(names) > 0 {
		return &ast.ClassKeywordPattern{Class: cls, Names: names, Elems: keywordElems}
	}
	return &ast.ClassPositionalPattern{Class: cls, Elems: positional}
}
