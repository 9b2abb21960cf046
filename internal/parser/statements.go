package parser

import (
	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/token"
)

func (p *Parser) parseStatement() ast.Stmt {
	switch {
	case p.isKeyword("def"):
		return p.parseFuncDef(nil, false)
	case p.isKeyword("async"):
		return p.parseAsync()
	case p.isKeyword("class"):
		return p.parseClassDef(nil)
	case p.isOp("@"):
		return p.parseDecorated()
	case p.isKeyword("if"):
		return p.parseIf()
	case p.isKeyword("while"):
		return p.parseWhile()
	case p.isKeyword("for"):
		return p.parseFor(false)
	case p.isKeyword("with"):
		return p.parseWith(false)
	case p.isKeyword("try"):
		return p.parseTry()
	case p.isKeyword("match"):
		return p.parseMatch()
	case p.isKeyword("import"):
		return p.parseImport()
	case p.isKeyword("from"):
		return p.parseImportFrom()
	default:
		return p.parseSimpleStatement()
	}
}

func (p *Parser) parseAsync() ast.Stmt {
	p.next() // consume 'async'
	switch {
	case p.isKeyword("def"):
		return p.parseFuncDef(nil, true)
	case p.isKeyword("for"):
		return p.parseFor(true)
	case p.isKeyword("with"):
		return p.parseWith(true)
	}
	p.errorf("expected def/for/with after async")
	return nil
}

func (p *Parser) parseDecorated() ast.Stmt {
	var decorators []ast.Decorator
	for p.isOp("@") {
		dr := p.rng()
		p.next()
		e := p.parseExpr()
		decorators = append(decorators, ast.Decorator{Expr: e, R: dr})
		for p.cur.Type == token.NEWLINE {
			p.next()
		}
	}
	if p.isKeyword("async") {
		p.next()
		return p.parseFuncDef(decorators, true)
	}
	if p.isKeyword("def") {
		return p.parseFuncDef(decorators, false)
	}
	if p.isKeyword("class") {
		return p.parseClassDef(decorators)
	}
	p.errorf("expected def/class after decorators")
	return nil
}

// parseSimpleStatement handles the statement forms that fit on one
// logical line: pass/break/continue/return/raise/assert/global/nonlocal,
// assignment family, and bare expression statements.
func (p *Parser) parseSimpleStatement() ast.Stmt {
	r := p.rng()
	switch {
	case p.isKeyword("pass"):
		p.next()
		return &ast.Pass{Base: ast.Base{R: r}}
	case p.isKeyword("break"):
		p.next()
		return &ast.Break{Base: ast.Base{R: r}}
	case p.isKeyword("continue"):
		p.next()
		return &ast.Continue{Base: ast.Base{R: r}}
	case p.isKeyword("return"):
		p.next()
		var v ast.Expr
		if p.cur.Type != token.NEWLINE && !p.isOp(";") {
			v = p.parseExprList()
		}
		return &ast.Return{Base: ast.Base{R: r}, Value: v}
	case p.isKeyword("raise"):
		p.next()
		var exc, cause ast.Expr
		if p.cur.Type != token.NEWLINE && !p.isOp(";") {
			exc = p.parseExpr()
			if p.isKeyword("from") {
				p.next()
				cause = p.parseExpr()
			}
		}
		return &ast.Raise{Base: ast.Base{R: r}, Exc: exc, Cause: cause}
	case p.isKeyword("assert"):
		p.next()
		test := p.parseExpr()
		var msg ast.Expr
		if p.isOp(",") {
			p.next()
			msg = p.parseExpr()
		}
		return &ast.Assert{Base: ast.Base{R: r}, Test: test, Msg: msg}
	case p.isKeyword("global"):
		p.next()
		return &ast.Global{Base: ast.Base{R: r}, Names: p.parseNameList()}
	case p.isKeyword("nonlocal"):
		p.next()
		return &ast.Nonlocal{Base: ast.Base{R: r}, Names: p.parseNameList()}
	case p.isKeyword("del"):
		p.next()
		var targets []ast.Expr
		targets = append(targets, p.parseTarget())
		for p.isOp(",") {
			p.next()
			targets = append(targets, p.parseTarget())
		}
		return &ast.Delete{Base: ast.Base{R: r}, Targets: targets}
	case p.isKeyword("type") && p.peek.Type == token.IDENT:
		return p.parseTypeAlias()
	default:
		return p.parseExprOrAssignStatement(r)
	}
}

func (p *Parser) parseNameList() []string {
	var names []string
	names = append(names, p.cur.Lexeme)
	p.next()
	for p.isOp(",") {
		p.next()
		names = append(names, p.cur.Lexeme)
		p.next()
	}
	return names
}
