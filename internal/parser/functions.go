package parser

import (
	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/token"
)

func (p *Parser) parseTypeParams() []ast.TypeParamSpec {
	if !p.isOp("[") {
		return nil
	}
	p.next()
	var params []ast.TypeParamSpec
	for !p.isOp("]") && p.cur.Type != 0 {
		tp := ast.TypeParamSpec{R: p.rng()}
		if p.isOp("*") {
			p.next()
			tp.IsTuple = true
		} else if p.isOp("**") {
			p.next()
			tp.IsParamSpec = true
		}
		tp.Name = p.cur.Lexeme
		p.next()
		if p.isOp(":") {
			p.next()
			tp.Bound = p.parseExpr()
		}
		if p.isOp("=") {
			p.next()
			tp.Default = p.parseExpr()
		}
		params = append(params, tp)
		if p.isOp(",") {
			p.next()
			continue
		}
		break
	}
	p.expectOp("]")
	return params
}

func (p *Parser) parseFuncDef(decorators []ast.Decorator, isAsync bool) *ast.FuncDef {
	r := p.rng()
	p.expectKeyword("def")
	name := p.cur.Lexeme
	p.next()
	typeParams := p.parseTypeParams()
	p.expectOp("(")
	var params []ast.Param
	seenStar := false
	for !p.isOp(")") {
		pr := p.rng()
		switch {
		case p.isOp("/"):
			p.next()
		case p.isOp("*") && p.peek.Lexeme == ",":
			p.next()
			seenStar = true
		case p.isOp("*"):
			p.next()
			name := p.cur.Lexeme
			p.next()
			var ann ast.Expr
			if p.isOp(":") {
				p.next()
				ann = p.parseExpr()
			}
			params = append(params, ast.Param{Name: name, Annotation: ann, Kind: ast.ParamVarPositional, R: pr})
			seenStar = true
		case p.isOp("**"):
			p.next()
			name := p.cur.Lexeme
			p.next()
			var ann ast.Expr
			if p.isOp(":") {
				p.next()
				ann = p.parseExpr()
			}
			params = append(params, ast.Param{Name: name, Annotation: ann, Kind: ast.ParamVarKeyword, R: pr})
		default:
			pname := p.cur.Lexeme
			p.next()
			var ann, def ast.Expr
			if p.isOp(":") {
				p.next()
				ann = p.parseExpr()
			}
			if p.isOp("=") {
				p.next()
				def = p.parseExpr()
			}
			kind := ast.ParamPositionalOrKeyword
			if seenStar {
				kind = ast.ParamKeywordOnlyMarker
			}
			params = append(params, ast.Param{Name: pname, Annotation: ann, Default: def, Kind: kind, R: pr})
		}
		if p.isOp(",") {
			p.next()
			continue
		}
		break
	}
	p.expectOp(")")
	var returns ast.Expr
	if p.isOp("->") {
		p.next()
		returns = p.parseExpr()
	}
	body := p.parseSuite()
	doc := docstringOf(body)
	return &ast.FuncDef{
		Base: ast.Base{R: r}, Name: name, Params: params, Returns: returns, Body: body,
		Decorators: decorators, IsAsync: isAsync, TypeParams: typeParams, Docstring: doc,
	}
}

func docstringOf(body []ast.Stmt) string {
	if len(body) == 0 {
		return ""
	}
	if es, ok := body[0].(*ast.ExprStmt); ok {
		if s, ok := es.X.(*ast.StringLit); ok {
			return s.Value
		}
	}
	return ""
}

func (p *Parser) parseClassDef(decorators []ast.Decorator) *ast.ClassDef {
	r := p.rng()
	p.expectKeyword("class")
	name := p.cur.Lexeme
	p.next()
	typeParams := p.parseTypeParams()
	var bases []ast.Expr
	var keywords []ast.KeywordArg
	if p.isOp("(") {
		p.next()
		for !p.isOp(")") {
			if p.cur.Type == token.IDENT && p.peek.Lexeme == "=" {
				kwName := p.cur.Lexeme
				p.next()
				p.next()
				keywords = append(keywords, ast.KeywordArg{Name: kwName, Value: p.parseExpr()})
			} else {
				bases = append(bases, p.parseExpr())
			}
			if p.isOp(",") {
				p.next()
				continue
			}
			break
		}
		p.expectOp(")")
	}
	body := p.parseSuite()
	return &ast.ClassDef{
		Base: ast.Base{R: r}, Name: name, Bases: bases, Keywords: keywords, Body: body,
		Decorators: decorators, TypeParams: typeParams, Docstring: docstringOf(body),
	}
}
