package parser

import (
	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/token"
)

func (p *Parser) parseIf() *ast.If {
	r := p.rng()
	p.expectKeyword("if")
	test := p.parseExprNoCond()
	body := p.parseSuite()
	var orelse []ast.Stmt
	switch {
	case p.isKeyword("elif"):
		orelse = []ast.Stmt{p.parseElif()}
	case p.isKeyword("else"):
		p.next()
		orelse = p.parseSuite()
	}
	return &ast.If{Base: ast.Base{R: r}, Test: test, Body: body, Orelse: orelse}
}

// parseElif treats `elif` as a nested `if` so the caller's Orelse holds a
// single *ast.If, matching how chained elif clauses compose in spec §4.2.
func (p *Parser) parseElif() ast.Stmt {
	r := p.rng()
	p.expectKeyword("elif")
	test := p.parseExprNoCond()
	body := p.parseSuite()
	var orelse []ast.Stmt
	switch {
	case p.isKeyword("elif"):
		orelse = []ast.Stmt{p.parseElif()}
	case p.isKeyword("else"):
		p.next()
		orelse = p.parseSuite()
	}
	return &ast.If{Base: ast.Base{R: r}, Test: test, Body: body, Orelse: orelse}
}

func (p *Parser) parseWhile() *ast.While {
	r := p.rng()
	p.expectKeyword("while")
	test := p.parseExprNoCond()
	body := p.parseSuite()
	var orelse []ast.Stmt
	if p.isKeyword("else") {
		p.next()
		orelse = p.parseSuite()
	}
	return &ast.While{Base: ast.Base{R: r}, Test: test, Body: body, Orelse: orelse}
}

func (p *Parser) parseFor(isAsync bool) *ast.For {
	r := p.rng()
	p.expectKeyword("for")
	target := p.parseTargetList()
	p.expectKeyword("in")
	iter := p.parseExprList()
	body := p.parseSuite()
	var orelse []ast.Stmt
	if p.isKeyword("else") {
		p.next()
		orelse = p.parseSuite()
	}
	return &ast.For{Base: ast.Base{R: r}, Target: target, Iter: iter, Body: body, Orelse: orelse, IsAsync: isAsync}
}

func (p *Parser) parseWith(isAsync bool) *ast.With {
	r := p.rng()
	p.expectKeyword("with")
	paren := p.isOp("(")
	if paren {
		p.next()
	}
	var items []ast.WithItem
	for {
		ctx := p.parseExprNoCond()
		var target ast.Expr
		if p.isKeyword("as") {
			p.next()
			target = p.parseTarget()
		}
		items = append(items, ast.WithItem{ContextExpr: ctx, Target: target})
		if p.isOp(",") {
			p.next()
			continue
		}
		break
	}
	if paren && p.isOp(")") {
		p.next()
	}
	body := p.parseSuite()
	return &ast.With{Base: ast.Base{R: r}, Items: items, Body: body, IsAsync: isAsync}
}

func (p *Parser) parseTry() *ast.Try {
	r := p.rng()
	p.expectKeyword("try")
	body := p.parseSuite()
	var handlers []ast.ExceptHandler
	for p.isKeyword("except") {
		hr := p.rng()
		p.next()
		isStar := false
		if p.isOp("*") {
			p.next()
			isStar = true
		}
		var typ ast.Expr
		var name string
		if !p.isOp(":") {
			typ = p.parseExpr()
			if p.isKeyword("as") {
				p.next()
				name = p.cur.Lexeme
				p.next()
			}
		}
		hbody := p.parseSuite()
		handlers = append(handlers, ast.ExceptHandler{Type: typ, Name: name, IsStar: isStar, Body: hbody, R: hr})
	}
	var orelse, finally []ast.Stmt
	if p.isKeyword("else") {
		p.next()
		orelse = p.parseSuite()
	}
	if p.isKeyword("finally") {
		p.next()
		finally = p.parseSuite()
	}
	return &ast.Try{Base: ast.Base{R: r}, Body: body, Handlers: handlers, Orelse: orelse, Finally: finally}
}

func (p *Parser) parseMatch() *ast.Match {
	r := p.rng()
	p.expectKeyword("match")
	subject := p.parseExprList()
	p.expectOp(":")
	p.skipNewlines()
	if p.cur.Type != token.INDENT {
		p.errorf("expected an indented block of case clauses")
		return &ast.Match{Base: ast.Base{R: r}, Subject: subject}
	}
	p.next()
	var cases []ast.Case
	p.skipNewlines()
	for p.isKeyword("case") {
		cases = append(cases, p.parseCase())
		p.skipNewlines()
	}
	if p.cur.Type == token.DEDENT {
		p.next()
	}
	return &ast.Match{Base: ast.Base{R: r}, Subject: subject, Cases: cases}
}

func (p *Parser) parseCase() ast.Case {
	r := p.rng()
	p.expectKeyword("case")
	pat := p.parsePatterns()
	var guard ast.Expr
	if p.isKeyword("if") {
		p.next()
		guard = p.parseExpr()
	}
	body := p.parseSuite()
	return ast.Case{Pattern: pat, Guard: guard, Body: body, R: r}
}

func (p *Parser) parseImport() *ast.Import {
	r := p.rng()
	p.expectKeyword("import")
	var names []ast.ImportName
	for {
		nr := p.rng()
		path := p.parseDottedName()
		alias := ""
		if p.isKeyword("as") {
			p.next()
			alias = p.cur.Lexeme
			p.next()
		}
		names = append(names, ast.ImportName{Path: path, Alias: alias, R: nr})
		if p.isOp(",") {
			p.next()
			continue
		}
		break
	}
	return &ast.Import{Base: ast.Base{R: r}, Names: names}
}

func (p *Parser) parseImportFrom() *ast.ImportFrom {
	r := p.rng()
	p.expectKeyword("from")
	level := 0
	for p.isOp(".") || p.isOp("...") {
		if p.isOp("...") {
			level += 3
		} else {
			level++
		}
		p.next()
	}
	module := ""
	if !p.isKeyword("import") {
		module = p.parseDottedName()
	}
	p.expectKeyword("import")
	imp := &ast.ImportFrom{Base: ast.Base{R: r}, Module: module, Level: level}
	if p.isOp("*") {
		p.next()
		imp.Wildcard = true
		return imp
	}
	paren := p.isOp("(")
	if paren {
		p.next()
		p.skipNewlines()
	}
	for {
		nr := p.rng()
		name := p.cur.Lexeme
		p.next()
		alias := ""
		if p.isKeyword("as") {
			p.next()
			alias = p.cur.Lexeme
			p.next()
		}
		imp.Names = append(imp.Names, ast.ImportFromName{Name: name, Alias: alias, R: nr})
		if p.isOp(",") {
			p.next()
			if paren {
				p.skipNewlines()
			}
			continue
		}
		break
	}
	if paren {
		p.skipNewlines()
		p.expectOp(")")
	}
	return imp
}

func (p *Parser) parseDottedName() string {
	name := p.cur.Lexeme
	p.next()
	for p.isOp(".") {
		p.next()
		name += "." + p.cur.Lexeme
		p.next()
	}
	return name
}

func (p *Parser) parseTypeAlias() *ast.Assign {
	r := p.rng()
	p.expectKeyword("type")
	name := p.cur.Lexeme
	nameExpr := &ast.Name{Base: ast.Base{R: r}, Value: name}
	p.next()
	typeParams := p.parseTypeParams()
	p.expectOp("=")
	value := p.parseExpr()
	return &ast.Assign{
		Base: ast.Base{R: r}, Kind: ast.AssignTypeAlias,
		Targets: []ast.Expr{nameExpr}, Value: value, TypeParams: typeParams,
	}
}
