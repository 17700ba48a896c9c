// Package parser builds a Pinky AST from a token stream. It is
// supplemental front-end scaffolding (spec.md §1 treats the parser as
// an out-of-scope producer); the back end only requires a
// well-formed *ast.Program with accurate spans.
//
// Grounded on the teacher's recursive-descent, precedence-climbing
// Parser (internal/parser/parser.go), adapted to Pinky's much smaller
// grammar: no types, no struct/enum literals, no pattern matching.
package parser

import (
	"strconv"

	"pinky/internal/ast"
	"pinky/internal/diag"
	"pinky/internal/lexer"
	"pinky/internal/source"
	"pinky/internal/stringlit"
)

type Parser struct {
	file  *source.File
	toks  []lexer.Token
	pos   int
	diags *diag.Bag
}

func Parse(file *source.File) (*ast.Program, *diag.Bag) {
	toks, lexDiags := lexer.Lex(file)
	if lexDiags != nil {
		return nil, lexDiags
	}
	p := &Parser{file: file, toks: toks, diags: &diag.Bag{}}
	prog := p.parseProgram()
	if len(p.diags.Items) == 0 {
		return prog, nil
	}
	return prog, p.diags
}

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.at(lexer.TokenEOF) && len(p.diags.Items) == 0 {
		prog.Stmts = append(prog.Stmts, p.parseStmt())
	}
	return prog
}

// parseBlock parses statements until one of the given terminator
// keywords (or EOF) is reached, without consuming the terminator.
func (p *Parser) parseBlock(terminators ...lexer.Kind) []ast.Stmt {
	var out []ast.Stmt
	for !p.atAny(terminators...) && !p.at(lexer.TokenEOF) && len(p.diags.Items) == 0 {
		out = append(out, p.parseStmt())
	}
	return out
}

func (p *Parser) parseStmt() ast.Stmt {
	switch {
	case p.at(lexer.TokenPrint):
		tok := p.advance()
		x := p.parseExpr(0)
		return &ast.PrintStmt{X: x, S: joinSpan(tok.Span, x.Span())}
	case p.at(lexer.TokenPrintln):
		tok := p.advance()
		x := p.parseExpr(0)
		return &ast.PrintlnStmt{X: x, S: joinSpan(tok.Span, x.Span())}
	case p.at(lexer.TokenIf):
		return p.parseIf()
	case p.at(lexer.TokenWhile):
		return p.parseWhile()
	case p.at(lexer.TokenFor):
		return p.parseFor()
	case p.at(lexer.TokenFunc):
		return p.parseFuncDecl()
	case p.at(lexer.TokenRet):
		tok := p.advance()
		x := p.parseExpr(0)
		return &ast.ReturnStmt{X: x, S: joinSpan(tok.Span, x.Span())}
	case p.at(lexer.TokenIdent) && p.peekN(1).Kind == lexer.TokenLocalAssign:
		name := p.advance()
		p.advance() // :=
		x := p.parseExpr(0)
		return &ast.AssignStmt{Name: name.Lexeme, Local: true, X: x, S: joinSpan(name.Span, x.Span())}
	case p.at(lexer.TokenIdent) && p.peekN(1).Kind == lexer.TokenAssign:
		name := p.advance()
		p.advance() // =
		x := p.parseExpr(0)
		return &ast.AssignStmt{Name: name.Lexeme, Local: false, X: x, S: joinSpan(name.Span, x.Span())}
	default:
		x := p.parseExpr(0)
		return &ast.ExpressionStmt{X: x, S: x.Span()}
	}
}

func (p *Parser) parseIf() ast.Stmt {
	ifTok := p.advance()
	cond := p.parseExpr(0)
	p.expect(lexer.TokenThen, "expected 'then'")
	then := p.parseBlock(lexer.TokenElif, lexer.TokenElse, lexer.TokenEnd)

	var elifs []ast.ElifClause
	for p.at(lexer.TokenElif) {
		elifTok := p.advance()
		econd := p.parseExpr(0)
		p.expect(lexer.TokenThen, "expected 'then'")
		ebody := p.parseBlock(lexer.TokenElif, lexer.TokenElse, lexer.TokenEnd)
		elifs = append(elifs, ast.ElifClause{Cond: econd, Body: ebody, S: elifTok.Span})
	}

	var elseBody []ast.Stmt
	hasElse := false
	if p.at(lexer.TokenElse) {
		p.advance()
		hasElse = true
		elseBody = p.parseBlock(lexer.TokenEnd)
	}
	end := p.expect(lexer.TokenEnd, "expected 'end'")
	return &ast.IfStmt{Cond: cond, Then: then, Elifs: elifs, Else: elseBody, HasElse: hasElse, S: joinSpan(ifTok.Span, end.Span)}
}

func (p *Parser) parseWhile() ast.Stmt {
	whileTok := p.advance()
	cond := p.parseExpr(0)
	p.expect(lexer.TokenDo, "expected 'do'")
	body := p.parseBlock(lexer.TokenEnd)
	end := p.expect(lexer.TokenEnd, "expected 'end'")
	return &ast.WhileStmt{Cond: cond, Body: body, S: joinSpan(whileTok.Span, end.Span)}
}

func (p *Parser) parseFor() ast.Stmt {
	forTok := p.advance()
	name := p.expect(lexer.TokenIdent, "expected loop variable name")
	p.expect(lexer.TokenLocalAssign, "expected ':='")
	start := p.parseExpr(0)
	p.expect(lexer.TokenComma, "expected ','")
	stop := p.parseExpr(0)
	var step ast.Expr
	if p.match(lexer.TokenComma) {
		step = p.parseExpr(0)
	}
	p.expect(lexer.TokenDo, "expected 'do'")
	body := p.parseBlock(lexer.TokenEnd)
	end := p.expect(lexer.TokenEnd, "expected 'end'")
	return &ast.ForStmt{Name: name.Lexeme, Start: start, Stop: stop, Step: step, Body: body, S: joinSpan(forTok.Span, end.Span)}
}

func (p *Parser) parseFuncDecl() ast.Stmt {
	funcTok := p.advance()
	name := p.expect(lexer.TokenIdent, "expected function name")
	p.expect(lexer.TokenLParen, "expected '('")
	var params []string
	if !p.at(lexer.TokenRParen) {
		for {
			pname := p.expect(lexer.TokenIdent, "expected parameter name")
			params = append(params, pname.Lexeme)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.expect(lexer.TokenRParen, "expected ')'")
	body := p.parseBlock(lexer.TokenEnd)
	end := p.expect(lexer.TokenEnd, "expected 'end'")
	return &ast.FuncDeclStmt{Name: name.Lexeme, Params: params, Body: body, S: joinSpan(funcTok.Span, end.Span)}
}

// operator precedence table: higher binds tighter.
var binPrec = map[lexer.Kind]int{
	lexer.TokenOr:    1,
	lexer.TokenAnd:   2,
	lexer.TokenEqEq:  3,
	lexer.TokenNotEq: 3,
	lexer.TokenLt:    4,
	lexer.TokenLtEq:  4,
	lexer.TokenGt:    4,
	lexer.TokenGtEq:  4,
	lexer.TokenPlus:  5,
	lexer.TokenMinus: 5,
	lexer.TokenStar:    6,
	lexer.TokenSlash:   6,
	lexer.TokenPercent: 6,
}

var opText = map[lexer.Kind]string{
	lexer.TokenOr: "or", lexer.TokenAnd: "and",
	lexer.TokenEqEq: "==", lexer.TokenNotEq: "~=",
	lexer.TokenLt: "<", lexer.TokenLtEq: "<=", lexer.TokenGt: ">", lexer.TokenGtEq: ">=",
	lexer.TokenPlus: "+", lexer.TokenMinus: "-",
	lexer.TokenStar: "*", lexer.TokenSlash: "/", lexer.TokenPercent: "%",
	lexer.TokenCaret: "^",
}

func (p *Parser) parseExpr(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		k := p.peek().Kind
		prec, ok := binPrec[k]
		if !ok || prec < minPrec {
			return left
		}
		opTok := p.advance()
		nextMin := prec + 1
		if k == lexer.TokenCaret { // right-associative
			nextMin = prec
		}
		right := p.parseExpr(nextMin)
		left = &ast.Binary{Op: opText[opTok.Kind], Left: left, Right: right, S: joinSpan(left.Span(), right.Span())}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.peek().Kind {
	case lexer.TokenPlus, lexer.TokenMinus, lexer.TokenTilde:
		tok := p.advance()
		op := map[lexer.Kind]string{lexer.TokenPlus: "+", lexer.TokenMinus: "-", lexer.TokenTilde: "~"}[tok.Kind]
		x := p.parseUnary()
		return &ast.Unary{Op: op, X: x, S: joinSpan(tok.Span, x.Span())}
	default:
		return p.parsePower()
	}
}

func (p *Parser) parsePower() ast.Expr {
	base := p.parsePrimary()
	if p.at(lexer.TokenCaret) {
		p.advance()
		exp := p.parseUnary()
		return &ast.Binary{Op: "^", Left: base, Right: exp, S: joinSpan(base.Span(), exp.Span())}
	}
	return base
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case lexer.TokenNumber:
		p.advance()
		v, _ := strconv.ParseFloat(tok.Lexeme, 64)
		return &ast.NumberLiteral{Value: v, S: tok.Span}
	case lexer.TokenTrue:
		p.advance()
		return &ast.BooleanLiteral{Value: true, S: tok.Span}
	case lexer.TokenFalse:
		p.advance()
		return &ast.BooleanLiteral{Value: false, S: tok.Span}
	case lexer.TokenNil:
		p.advance()
		return &ast.NilLiteral{S: tok.Span}
	case lexer.TokenString:
		p.advance()
		s, err := stringlit.Decode(tok.Lexeme)
		if err != nil {
			p.errorAt(tok.Span, err.Error())
			s = ""
		}
		return &ast.StringLiteral{Value: s, S: tok.Span}
	case lexer.TokenIdent:
		p.advance()
		if p.at(lexer.TokenLParen) {
			return p.parseCall(tok)
		}
		return &ast.Identifier{Name: tok.Lexeme, S: tok.Span}
	case lexer.TokenLParen:
		p.advance()
		inner := p.parseExpr(0)
		end := p.expect(lexer.TokenRParen, "expected ')'")
		return &ast.Grouping{Inner: inner, S: joinSpan(tok.Span, end.Span)}
	default:
		p.errorAt(tok.Span, "unexpected token in expression")
		p.advance()
		return &ast.NilLiteral{S: tok.Span}
	}
}

func (p *Parser) parseCall(name lexer.Token) ast.Expr {
	p.expect(lexer.TokenLParen, "expected '('")
	var args []ast.Expr
	if !p.at(lexer.TokenRParen) {
		for {
			args = append(args, p.parseExpr(0))
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	end := p.expect(lexer.TokenRParen, "expected ')'")
	return &ast.FunctionCall{Callee: name.Lexeme, Args: args, S: joinSpan(name.Span, end.Span)}
}

func (p *Parser) peek() lexer.Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) peekN(n int) lexer.Token {
	i := p.pos + n
	if i < 0 || i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) at(k lexer.Kind) bool { return p.peek().Kind == k }

func (p *Parser) atAny(ks ...lexer.Kind) bool {
	for _, k := range ks {
		if p.at(k) {
			return true
		}
	}
	return false
}

func (p *Parser) match(k lexer.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(k lexer.Kind, msg string) lexer.Token {
	if p.at(k) {
		return p.advance()
	}
	p.errorAt(p.peek().Span, msg)
	return p.peek()
}

func (p *Parser) errorAt(s source.Span, msg string) {
	p.diags.AddAt(s, msg)
}

func joinSpan(a, b source.Span) source.Span {
	return source.Span{File: a.File, Start: a.Start, End: b.End}
}
