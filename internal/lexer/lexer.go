// Package lexer tokenizes source text for internal/parser. Grounded on
// the teacher's internal/lexer.Lexer (rune-at-a-time scanning with
// explicit line/column tracking), restructured around an indentation
// stack instead of Funxy's brace-delimited blocks, since the checked
// language uses Python-style significant whitespace.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/oxhq/pyrechk/internal/token"
)

type Lexer struct {
	input        string
	path         string
	position     int
	readPosition int
	ch           rune
	line         int
	column       int

	indents      []int
	pending      []token.Token
	atLineStart  bool
	parenDepth   int
}

func New(input, path string) *Lexer {
	l := &Lexer{input: input, path: path, line: 1, column: 0, indents: []int{0}, atLineStart: true}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) tok(typ token.Type, lexeme string) token.Token {
	return token.Token{Type: typ, Lexeme: lexeme, Line: l.line, Column: l.column}
}

// NextToken returns the next token, synthesizing NEWLINE/INDENT/DEDENT
// from leading whitespace the way Python's own tokenizer does.
func (l *Lexer) NextToken() token.Token {
	if len(l.pending) > 0 {
		t := l.pending[0]
		l.pending = l.pending[1:]
		return t
	}

	if l.atLineStart && l.parenDepth == 0 {
		if t, ok := l.handleIndentation(); ok {
			return t
		}
	}

	l.skipNonNewlineWhitespaceAndComments()

	if l.ch == 0 {
		if l.parenDepth == 0 && len(l.indents) > 1 {
			for len(l.indents) > 1 {
				l.indents = l.indents[:len(l.indents)-1]
				l.pending = append(l.pending, l.tok(token.DEDENT, ""))
			}
			t := l.pending[0]
			l.pending = l.pending[1:]
			return t
		}
		return l.tok(token.EOF, "")
	}

	if l.ch == '\n' {
		l.readChar()
		l.atLineStart = true
		if l.parenDepth > 0 {
			return l.NextToken()
		}
		return token.Token{Type: token.NEWLINE, Line: l.line - 1, Column: l.column}
	}

	switch {
	case l.ch == '#':
		for l.ch != '\n' && l.ch != 0 {
			l.readChar()
		}
		return l.NextToken()
	case isIdentStart(l.ch):
		return l.readIdent()
	case unicode.IsDigit(l.ch):
		return l.readNumber()
	case l.ch == '"' || l.ch == '\'':
		return l.readString(false)
	}

	return l.readOperator()
}

func (l *Lexer) handleIndentation() (token.Token, bool) {
	col := 0
	for l.ch == ' ' || l.ch == '\t' {
		col++
		l.readChar()
	}
	if l.ch == '\n' || l.ch == '#' || l.ch == 0 {
		// blank or comment-only line: no indentation change, consume below.
		l.atLineStart = false
		return token.Token{}, false
	}
	l.atLineStart = false
	top := l.indents[len(l.indents)-1]
	if col > top {
		l.indents = append(l.indents, col)
		return l.tok(token.INDENT, ""), true
	}
	for col < l.indents[len(l.indents)-1] {
		l.indents = l.indents[:len(l.indents)-1]
		l.pending = append(l.pending, l.tok(token.DEDENT, ""))
	}
	if len(l.pending) > 0 {
		t := l.pending[0]
		l.pending = l.pending[1:]
		return t, true
	}
	return token.Token{}, false
}

func (l *Lexer) skipNonNewlineWhitespaceAndComments() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isIdentPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

func (l *Lexer) readIdent() token.Token {
	start := l.position
	line, col := l.line, l.column
	for isIdentPart(l.ch) {
		l.readChar()
	}
	lit := l.input[start:l.position]
	if (lit == "r" || lit == "b" || lit == "rb" || lit == "br" || lit == "f") && (l.ch == '"' || l.ch == '\'') {
		isBytes := strings.ContainsAny(lit, "bB")
		tok := l.readString(isBytes)
		tok.Line, tok.Column = line, col
		return tok
	}
	if typ, ok := token.LookupKeyword(lit); ok {
		return token.Token{Type: typ, Lexeme: lit, Line: line, Column: col}
	}
	return token.Token{Type: token.IDENT, Lexeme: lit, Line: line, Column: col}
}

func (l *Lexer) readNumber() token.Token {
	start := l.position
	line, col := l.line, l.column
	for unicode.IsDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	if l.ch == '.' && unicode.IsDigit(l.peekChar()) {
		l.readChar()
		for unicode.IsDigit(l.ch) {
			l.readChar()
		}
	}
	return token.Token{Type: token.INT, Lexeme: l.input[start:l.position], Line: line, Column: col}
}

func (l *Lexer) readString(isBytes bool) token.Token {
	quote := l.ch
	line, col := l.line, l.column
	l.readChar()
	var sb strings.Builder
	for l.ch != quote && l.ch != 0 {
		if l.ch == '\\' {
			l.readChar()
			sb.WriteRune(unescape(l.ch))
			l.readChar()
			continue
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	l.readChar() // closing quote
	typ := token.STRING
	if isBytes {
		typ = token.BYTES
	}
	return token.Token{Type: typ, Lexeme: sb.String(), Line: line, Column: col}
}

func unescape(ch rune) rune {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	default:
		return ch
	}
}

var threeCharOps = []string{"**=", "//=", "<<=", ">>="}

var twoCharOps = []string{
	"**", "//", "==", "!=", "<=", ">=", "->", ":=", "+=", "-=", "*=", "/=",
	"%=", "&=", "|=", "^=", "<<", ">>", "@=",
}

func (l *Lexer) readOperator() token.Token {
	line, col := l.line, l.column
	ch := l.ch
	if ch == '.' && strings.HasPrefix(l.input[l.position:], "...") {
		l.readChar()
		l.readChar()
		l.readChar()
		return token.Token{Type: token.OP, Lexeme: "...", Line: line, Column: col}
	}
	for _, op := range threeCharOps {
		if strings.HasPrefix(l.input[l.position:], op) {
			l.readChar()
			l.readChar()
			l.readChar()
			return token.Token{Type: token.OP, Lexeme: op, Line: line, Column: col}
		}
	}
	two := string(ch) + string(l.peekChar())
	for _, op := range twoCharOps {
		if two == op {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.OP, Lexeme: op, Line: line, Column: col}
		}
	}
	if strings.ContainsRune("([{", ch) {
		l.parenDepth++
	}
	if strings.ContainsRune(")]}", ch) && l.parenDepth > 0 {
		l.parenDepth--
	}
	l.readChar()
	return token.Token{Type: token.OP, Lexeme: string(ch), Line: line, Column: col}
}
