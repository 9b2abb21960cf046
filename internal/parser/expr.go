package parser

import (
	"strconv"
	"strings"

	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/token"
)

// parseExprList parses one or more comma-separated expressions, collapsing
// a bare single expression to itself and several (or a single trailing
// comma) into a TupleExpr — covers `return a, b` and `for x in a, b:`.
func (p *Parser) parseExprList() ast.Expr {
	r := p.rng()
	first := p.parseExpr()
	if !p.isOp(",") {
		return first
	}
	elts := []ast.Expr{first}
	for p.isOp(",") {
		p.next()
		if p.exprListEnd() {
			break
		}
		elts = append(elts, p.parseExpr())
	}
	return &ast.TupleExpr{Base: ast.Base{R: r}, Elts: elts}
}

func (p *Parser) exprListEnd() bool {
	if p.cur.Type == token.NEWLINE || p.cur.Type == token.EOF || p.cur.Type == token.DEDENT {
		return true
	}
	if p.isOp(";") || p.isOp(":") || p.isOp(")") || p.isOp("]") || p.isOp("}") {
		return true
	}
	if p.isKeyword("in") {
		return true
	}
	return false
}

// parseExprNoCond parses the expression used as an `if`/`while`/`with`
// test; the grammar carves this out to avoid comma ambiguity with the
// statement body, but since callers already delimit with `:`, a plain
// parseExpr covers the same ground here.
func (p *Parser) parseExprNoCond() ast.Expr {
	return p.parseExpr()
}

// parseExpr parses one expression, in order from loosest to tightest
// binding: lambda, conditional (`a if b else c`), named-expr (`:=`),
// boolean or/and/not, comparisons, bitwise, shifts, arithmetic, unary,
// power, postfix, atom.
func (p *Parser) parseExpr() ast.Expr {
	if p.isKeyword("lambda") {
		return p.parseLambda()
	}
	e := p.parseNamedExpr()
	if p.isKeyword("if") {
		r := p.rng()
		p.next()
		test := p.parseOrTest()
		p.expectKeyword("else")
		orelse := p.parseExpr()
		return &ast.IfExp{Base: ast.Base{R: r}, Test: test, Body: e, Orelse: orelse}
	}
	return e
}

func (p *Parser) parseNamedExpr() ast.Expr {
	e := p.parseOrTest()
	if p.isOp(":=") {
		r := p.rng()
		name, ok := e.(*ast.Name)
		p.next()
		value := p.parseOrTest()
		if !ok {
			p.errorf("left side of := must be a name")
			return value
		}
		return &ast.NamedExpr{Base: ast.Base{R: r}, Target: name, Value: value}
	}
	return e
}

func (p *Parser) parseLambda() ast.Expr {
	r := p.rng()
	p.next() // 'lambda'
	var params []ast.Param
	seenStar := false
	for !p.isOp(":") {
		pr := p.rng()
		switch {
		case p.isOp("*"):
			p.next()
			name := p.cur.Lexeme
			p.next()
			params = append(params, ast.Param{Name: name, Kind: ast.ParamVarPositional, R: pr})
			seenStar = true
		case p.isOp("**"):
			p.next()
			name := p.cur.Lexeme
			p.next()
			params = append(params, ast.Param{Name: name, Kind: ast.ParamVarKeyword, R: pr})
		default:
			name := p.cur.Lexeme
			p.next()
			var def ast.Expr
			if p.isOp("=") {
				p.next()
				def = p.parseOrTest()
			}
			kind := ast.ParamPositionalOrKeyword
			if seenStar {
				kind = ast.ParamKeywordOnlyMarker
			}
			params = append(params, ast.Param{Name: name, Default: def, Kind: kind, R: pr})
		}
		if p.isOp(",") {
			p.next()
			continue
		}
		break
	}
	p.expectOp(":")
	body := p.parseExpr()
	return &ast.Lambda{Base: ast.Base{R: r}, Params: params, Body: body}
}

func (p *Parser) parseOrTest() ast.Expr {
	r := p.rng()
	e := p.parseAndTest()
	if !p.isKeyword("or") {
		return e
	}
	values := []ast.Expr{e}
	for p.isKeyword("or") {
		p.next()
		values = append(values, p.parseAndTest())
	}
	return &ast.BoolOp{Base: ast.Base{R: r}, Op: "or", Values: values}
}

func (p *Parser) parseAndTest() ast.Expr {
	r := p.rng()
	e := p.parseNotTest()
	if !p.isKeyword("and") {
		return e
	}
	values := []ast.Expr{e}
	for p.isKeyword("and") {
		p.next()
		values = append(values, p.parseNotTest())
	}
	return &ast.BoolOp{Base: ast.Base{R: r}, Op: "and", Values: values}
}

func (p *Parser) parseNotTest() ast.Expr {
	if p.isKeyword("not") {
		r := p.rng()
		p.next()
		return &ast.UnaryOp{Base: ast.Base{R: r}, Op: "not", X: p.parseNotTest()}
	}
	return p.parseComparison()
}

var compareOps = map[string]bool{
	"<": true, ">": true, "==": true, ">=": true, "<=": true, "!=": true,
}

func (p *Parser) parseComparison() ast.Expr {
	r := p.rng()
	left := p.parseBitOr()
	var ops []string
	var comparators []ast.Expr
	for {
		op := ""
		switch {
		case p.cur.Type == token.OP && compareOps[p.cur.Lexeme]:
			op = p.cur.Lexeme
			p.next()
		case p.isKeyword("in"):
			op = "in"
			p.next()
		case p.isKeyword("not") && p.peek.Lexeme == "in" && p.peek.Type == token.KEYWORD:
			p.next()
			p.next()
			op = "not in"
		case p.isKeyword("is"):
			p.next()
			if p.isKeyword("not") {
				p.next()
				op = "is not"
			} else {
				op = "is"
			}
		default:
			if len(ops) == 0 {
				return left
			}
			return &ast.Compare{Base: ast.Base{R: r}, Left: left, Ops: ops, Comparators: comparators}
		}
		ops = append(ops, op)
		comparators = append(comparators, p.parseBitOr())
	}
}

func (p *Parser) parseBitOr() ast.Expr {
	e := p.parseBitXor()
	for p.isOp("|") {
		r := p.rng()
		p.next()
		e = &ast.BinOp{Base: ast.Base{R: r}, Op: "|", Left: e, Right: p.parseBitXor()}
	}
	return e
}

func (p *Parser) parseBitXor() ast.Expr {
	e := p.parseBitAnd()
	for p.isOp("^") {
		r := p.rng()
		p.next()
		e = &ast.BinOp{Base: ast.Base{R: r}, Op: "^", Left: e, Right: p.parseBitAnd()}
	}
	return e
}

func (p *Parser) parseBitAnd() ast.Expr {
	e := p.parseShift()
	for p.isOp("&") {
		r := p.rng()
		p.next()
		e = &ast.BinOp{Base: ast.Base{R: r}, Op: "&", Left: e, Right: p.parseShift()}
	}
	return e
}

func (p *Parser) parseShift() ast.Expr {
	e := p.parseArith()
	for p.isOp("<<") || p.isOp(">>") {
		r := p.rng()
		op := p.cur.Lexeme
		p.next()
		e = &ast.BinOp{Base: ast.Base{R: r}, Op: op, Left: e, Right: p.parseArith()}
	}
	return e
}

func (p *Parser) parseArith() ast.Expr {
	e := p.parseTerm()
	for p.isOp("+") || p.isOp("-") {
		r := p.rng()
		op := p.cur.Lexeme
		p.next()
		e = &ast.BinOp{Base: ast.Base{R: r}, Op: op, Left: e, Right: p.parseTerm()}
	}
	return e
}

func (p *Parser) parseTerm() ast.Expr {
	e := p.parseFactor()
	for p.isOp("*") || p.isOp("/") || p.isOp("//") || p.isOp("%") || p.isOp("@") {
		r := p.rng()
		op := p.cur.Lexeme
		p.next()
		e = &ast.BinOp{Base: ast.Base{R: r}, Op: op, Left: e, Right: p.parseFactor()}
	}
	return e
}

func (p *Parser) parseFactor() ast.Expr {
	if p.isOp("+") || p.isOp("-") || p.isOp("~") {
		r := p.rng()
		op := p.cur.Lexeme
		p.next()
		return &ast.UnaryOp{Base: ast.Base{R: r}, Op: op, X: p.parseFactor()}
	}
	return p.parsePower()
}

func (p *Parser) parsePower() ast.Expr {
	e := p.parseAwaitUnary()
	if p.isOp("**") {
		r := p.rng()
		p.next()
		return &ast.BinOp{Base: ast.Base{R: r}, Op: "**", Left: e, Right: p.parseFactor()}
	}
	return e
}

func (p *Parser) parseAwaitUnary() ast.Expr {
	if p.isKeyword("await") {
		r := p.rng()
		p.next()
		return &ast.Await{Base: ast.Base{R: r}, Value: p.parsePostfix(p.parseAtom())}
	}
	return p.parsePostfix(p.parseAtom())
}

// parsePostfix applies `.name`, `(...)`, and `[...]` trailers to a base
// expression left-to-right.
func (p *Parser) parsePostfix(e ast.Expr) ast.Expr {
	for {
		switch {
		case p.isOp("."):
			r := p.rng()
			p.next()
			name := p.cur.Lexeme
			p.next()
			e = &ast.Attribute{Base: ast.Base{R: r}, X: e, Name: name}
		case p.isOp("("):
			e = p.parseCall(e)
		case p.isOp("["):
			e = p.parseSubscript(e)
		default:
			return e
		}
	}
}

func (p *Parser) parseCall(fn ast.Expr) ast.Expr {
	r := p.rng()
	p.next() // '('
	call := &ast.Call{Base: ast.Base{R: r}, Func: fn, Starred: map[int]bool{}}
	for !p.isOp(")") {
		switch {
		case p.isOp("*"):
			p.next()
			call.Starred[len(call.Args)] = true
			call.Args = append(call.Args, p.parseExpr())
		case p.isOp("**"):
			p.next()
			call.Keywords = append(call.Keywords, ast.Keyword{Name: "", Value: p.parseExpr()})
		case p.cur.Type == token.IDENT && p.peek.Type == token.OP && p.peek.Lexeme == "=":
			name := p.cur.Lexeme
			p.next()
			p.next()
			call.Keywords = append(call.Keywords, ast.Keyword{Name: name, Value: p.parseExpr()})
		default:
			call.Args = append(call.Args, p.parseExpr())
		}
		if p.isOp(",") {
			p.next()
			continue
		}
		break
	}
	p.expectOp(")")
	return call
}

func (p *Parser) parseSubscript(x ast.Expr) ast.Expr {
	r := p.rng()
	p.next() // '['
	var slices []ast.Expr
	for !p.isOp("]") {
		slices = append(slices, p.parseSliceItem())
		if p.isOp(",") {
			p.next()
			continue
		}
		break
	}
	p.expectOp("]")
	return &ast.Subscript{Base: ast.Base{R: r}, X: x, Slices: slices}
}

func (p *Parser) parseSliceItem() ast.Expr {
	r := p.rng()
	var lower ast.Expr
	if !p.isOp(":") {
		lower = p.parseExpr()
	}
	if !p.isOp(":") {
		return lower
	}
	p.next()
	var upper, step ast.Expr
	if !p.isOp(":") && !p.isOp("]") && !p.isOp(",") {
		upper = p.parseExpr()
	}
	if p.isOp(":") {
		p.next()
		if !p.isOp("]") && !p.isOp(",") {
			step = p.parseExpr()
		}
	}
	return &ast.SliceExpr{Base: ast.Base{R: r}, Lower: lower, Upper: upper, Step: step}
}

func (p *Parser) parseAtom() ast.Expr {
	r := p.rng()
	switch {
	case p.isOp("*"):
		p.next()
		return &ast.Starred{Base: ast.Base{R: r}, X: p.parseOrTest()}
	case p.isKeyword("yield"):
		return p.parseYield()
	case p.cur.Type == token.IDENT:
		name := p.cur.Lexeme
		p.next()
		return &ast.Name{Base: ast.Base{R: r}, Value: name}
	case p.cur.Type == token.INT:
		v, _ := strconv.ParseInt(strings.ReplaceAll(p.cur.Lexeme, "_", ""), 10, 64)
		p.next()
		return &ast.IntLit{Base: ast.Base{R: r}, Value: v}
	case p.cur.Type == token.STRING:
		val := p.cur.Lexeme
		p.next()
		// adjacent string literal concatenation, e.g. `"a" "b"`
		for p.cur.Type == token.STRING {
			val += p.cur.Lexeme
			p.next()
		}
		return &ast.StringLit{Base: ast.Base{R: r}, Value: val}
	case p.cur.Type == token.BYTES:
		val := []byte(p.cur.Lexeme)
		p.next()
		return &ast.BytesLit{Base: ast.Base{R: r}, Value: val}
	case p.isKeyword("True"):
		p.next()
		return &ast.BoolLit{Base: ast.Base{R: r}, Value: true}
	case p.isKeyword("False"):
		p.next()
		return &ast.BoolLit{Base: ast.Base{R: r}, Value: false}
	case p.isKeyword("None"):
		p.next()
		return &ast.NoneLit{Base: ast.Base{R: r}}
	case p.isOp("..."):
		p.next()
		return &ast.EllipsisLit{Base: ast.Base{R: r}}
	case p.isOp("("):
		return p.parseParenOrTupleOrGenerator()
	case p.isOp("["):
		return p.parseListOrComprehension()
	case p.isOp("{"):
		return p.parseSetOrDictOrComprehension()
	}
	p.errorf("unexpected token %q", p.cur.Lexeme)
	p.next()
	return &ast.NoneLit{Base: ast.Base{R: r}}
}

func (p *Parser) parseYield() ast.Expr {
	r := p.rng()
	p.next()
	if p.isKeyword("from") {
		p.next()
		return &ast.YieldFrom{Base: ast.Base{R: r}, Value: p.parseExpr()}
	}
	if p.exprListEnd() {
		return &ast.Yield{Base: ast.Base{R: r}}
	}
	return &ast.Yield{Base: ast.Base{R: r}, Value: p.parseExprList()}
}

func (p *Parser) parseParenOrTupleOrGenerator() ast.Expr {
	r := p.rng()
	p.next() // '('
	if p.isOp(")") {
		p.next()
		return &ast.TupleExpr{Base: ast.Base{R: r}}
	}
	first := p.parseExpr()
	if clauses := p.tryParseCompClauses(); clauses != nil {
		p.expectOp(")")
		return &ast.Comp{Base: ast.Base{R: r}, Kind: ast.CompGenerator, Elt: first, Clauses: clauses}
	}
	if !p.isOp(",") {
		p.expectOp(")")
		return first
	}
	elts := []ast.Expr{first}
	for p.isOp(",") {
		p.next()
		if p.isOp(")") {
			break
		}
		elts = append(elts, p.parseExpr())
	}
	p.expectOp(")")
	return &ast.TupleExpr{Base: ast.Base{R: r}, Elts: elts}
}

func (p *Parser) parseListOrComprehension() ast.Expr {
	r := p.rng()
	p.next() // '['
	if p.isOp("]") {
		p.next()
		return &ast.ListExpr{Base: ast.Base{R: r}}
	}
	first := p.parseExpr()
	if clauses := p.tryParseCompClauses(); clauses != nil {
		p.expectOp("]")
		return &ast.Comp{Base: ast.Base{R: r}, Kind: ast.CompList, Elt: first, Clauses: clauses}
	}
	elts := []ast.Expr{first}
	for p.isOp(",") {
		p.next()
		if p.isOp("]") {
			break
		}
		elts = append(elts, p.parseExpr())
	}
	p.expectOp("]")
	return &ast.ListExpr{Base: ast.Base{R: r}, Elts: elts}
}

func (p *Parser) parseSetOrDictOrComprehension() ast.Expr {
	r := p.rng()
	p.next() // '{'
	if p.isOp("}") {
		p.next()
		return &ast.DictExpr{Base: ast.Base{R: r}}
	}
	if p.isOp("**") {
		p.next()
		entries := []ast.DictEntry{{Key: nil, Value: p.parseOrTest()}}
		for p.isOp(",") {
			p.next()
			if p.isOp("}") {
				break
			}
			entries = append(entries, p.parseDictEntry())
		}
		p.expectOp("}")
		return &ast.DictExpr{Base: ast.Base{R: r}, Entries: entries}
	}
	first := p.parseExpr()
	if p.isOp(":") {
		p.next()
		val := p.parseExpr()
		if clauses := p.tryParseCompClauses(); clauses != nil {
			p.expectOp("}")
			return &ast.Comp{Base: ast.Base{R: r}, Kind: ast.CompDict, Key: first, Value: val, Clauses: clauses}
		}
		entries := []ast.DictEntry{{Key: first, Value: val}}
		for p.isOp(",") {
			p.next()
			if p.isOp("}") {
				break
			}
			entries = append(entries, p.parseDictEntry())
		}
		p.expectOp("}")
		return &ast.DictExpr{Base: ast.Base{R: r}, Entries: entries}
	}
	if clauses := p.tryParseCompClauses(); clauses != nil {
		p.expectOp("}")
		return &ast.Comp{Base: ast.Base{R: r}, Kind: ast.CompSet, Elt: first, Clauses: clauses}
	}
	elts := []ast.Expr{first}
	for p.isOp(",") {
		p.next()
		if p.isOp("}") {
			break
		}
		elts = append(elts, p.parseExpr())
	}
	p.expectOp("}")
	return &ast.SetExpr{Base: ast.Base{R: r}, Elts: elts}
}

func (p *Parser) parseDictEntry() ast.DictEntry {
	if p.isOp("**") {
		p.next()
		return ast.DictEntry{Key: nil, Value: p.parseOrTest()}
	}
	key := p.parseExpr()
	p.expectOp(":")
	return ast.DictEntry{Key: key, Value: p.parseExpr()}
}

// tryParseCompClauses parses the `for ... in ... [if ...]` clauses of a
// comprehension, returning nil if the next token isn't `for`/`async`.
func (p *Parser) tryParseCompClauses() []ast.Comprehension {
	if !p.isKeyword("for") && !p.isKeyword("async") {
		return nil
	}
	var clauses []ast.Comprehension
	for p.isKeyword("for") || p.isKeyword("async") {
		isAsync := false
		if p.isKeyword("async") {
			p.next()
			isAsync = true
		}
		p.expectKeyword("for")
		target := p.parseTargetList()
		p.expectKeyword("in")
		iter := p.parseOrTest()
		var ifs []ast.Expr
		for p.isKeyword("if") {
			p.next()
			ifs = append(ifs, p.parseOrTest())
		}
		clauses = append(clauses, ast.Comprehension{Target: target, Iter: iter, Ifs: ifs, IsAsync: isAsync})
	}
	return clauses
}
