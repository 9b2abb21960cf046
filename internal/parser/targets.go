package parser

import "github.com/oxhq/pyrechk/internal/ast"

// parseTarget parses one assignment target: a name, attribute, subscript,
// starred target, or a parenthesized/bracketed tuple of targets.
func (p *Parser) parseTarget() ast.Expr {
	if p.isOp("*") {
		r := p.rng()
		p.next()
		return &ast.Starred{Base: ast.Base{R: r}, X: p.parseTarget()}
	}
	if p.isOp("(") || p.isOp("[") {
		return p.parseTargetGroup()
	}
	return p.parsePostfix(p.parseAtom())
}

func (p *Parser) parseTargetGroup() ast.Expr {
	r := p.rng()
	closer := ")"
	if p.isOp("[") {
		closer = "]"
	}
	p.next()
	var elts []ast.Expr
	for !p.isOp(closer) {
		elts = append(elts, p.parseTarget())
		if p.isOp(",") {
			p.next()
			continue
		}
		break
	}
	p.expectOp(closer)
	return &ast.TupleExpr{Base: ast.Base{R: r}, Elts: elts}
}

// parseTargetList parses comma-separated targets used by `for` and
// multi-assignment statements, collapsing a bare single target to itself
// and several into a TupleExpr.
func (p *Parser) parseTargetList() ast.Expr {
	r := p.rng()
	first := p.parseTarget()
	if !p.isOp(",") {
		return first
	}
	elts := []ast.Expr{first}
	for p.isOp(",") {
		p.next()
		if p.isKeyword("in") || p.isOp("=") || p.cur.Type == 0 {
			break
		}
		elts = append(elts, p.parseTarget())
	}
	return &ast.TupleExpr{Base: ast.Base{R: r}, Elts: elts}
}
