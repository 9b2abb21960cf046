package parser

import (
	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/token"
)

var augOps = map[string]bool{
	"+=": true, "-=": true, "*=": true, "/=": true, "//=": true, "%=": true,
	"**=": true, "&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true,
	"@=": true,
}

// parseExprOrAssignStatement handles everything that starts with an
// expression: a bare expression statement, `x: T` / `x: T = v`
// annotations, `x = y = v` chained assignment, and `x += v` augmented
// assignment.
func (p *Parser) parseExprOrAssignStatement(r ast.Range) ast.Stmt {
	first := p.parseExprList()

	if p.isOp(":") {
		p.next()
		ann := p.parseExpr()
		kind := ast.AssignAnnotatedOnly
		var value ast.Expr
		if p.isOp("=") {
			p.next()
			value = p.parseExprList()
			kind = ast.AssignAnnotated
		}
		return &ast.Assign{Base: ast.Base{R: r}, Kind: kind, Targets: []ast.Expr{first}, Annotation: ann, Value: value}
	}

	if p.cur.Type == token.OP && augOps[p.cur.Lexeme] {
		op := p.cur.Lexeme
		p.next()
		value := p.parseExprList()
		return &ast.AugAssign{Base: ast.Base{R: r}, Target: first, Op: op[:len(op)-1], Value: value}
	}

	if p.isOp("=") {
		targets := []ast.Expr{first}
		var value ast.Expr
		for p.isOp("=") {
			p.next()
			value = p.parseExprList()
			if p.isOp("=") {
				targets = append(targets, value)
			}
		}
		return &ast.Assign{Base: ast.Base{R: r}, Kind: ast.AssignPlain, Targets: targets, Value: value}
	}

	return &ast.ExprStmt{Base: ast.Base{R: r}, X: first}
}
