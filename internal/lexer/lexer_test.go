package lexer

import (
	"testing"

	"pinky/internal/source"
)

func lexOK(t *testing.T, src string) []Token {
	t.Helper()
	f := source.NewFile("test.pinky", src)
	toks, diags := Lex(f)
	if !diags.Empty() {
		t.Fatalf("unexpected lex diagnostics for %q: %v", src, diags)
	}
	return toks
}

func TestLexBasic(t *testing.T) {
	toks := lexOK(t, `x := 1 + 2`)
	if len(toks) == 0 || toks[len(toks)-1].Kind != TokenEOF {
		t.Fatalf("expected EOF token")
	}
	if toks[0].Kind != TokenIdent || toks[0].Lexeme != "x" {
		t.Fatalf("expected first token ident 'x', got %v %q", toks[0].Kind, toks[0].Lexeme)
	}
	if toks[1].Kind != TokenLocalAssign {
		t.Fatalf("expected := token, got %v", toks[1].Kind)
	}
}

func TestLexKeywords(t *testing.T) {
	toks := lexOK(t, "true false nil and or if then elif else end while do for func ret print println")
	want := []Kind{
		TokenTrue, TokenFalse, TokenNil, TokenAnd, TokenOr, TokenIf, TokenThen,
		TokenElif, TokenElse, TokenEnd, TokenWhile, TokenDo, TokenFor, TokenFunc,
		TokenRet, TokenPrint, TokenPrintln, TokenEOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Fatalf("token %d: got %v, want %v", i, toks[i].Kind, k)
		}
	}
}

func TestLexOperatorsAndTwoCharPunct(t *testing.T) {
	cases := []struct {
		src  string
		kind Kind
	}{
		{"+", TokenPlus},
		{"-", TokenMinus},
		{"*", TokenStar},
		{"/", TokenSlash},
		{"%", TokenPercent},
		{"^", TokenCaret},
		{"~", TokenTilde},
		{"~=", TokenNotEq},
		{"=", TokenAssign},
		{"==", TokenEqEq},
		{":=", TokenLocalAssign},
		{"<", TokenLt},
		{"<=", TokenLtEq},
		{">", TokenGt},
		{">=", TokenGtEq},
	}
	for _, c := range cases {
		toks := lexOK(t, c.src)
		if toks[0].Kind != c.kind {
			t.Fatalf("lexing %q: got %v, want %v", c.src, toks[0].Kind, c.kind)
		}
		if toks[0].Lexeme != c.src {
			t.Fatalf("lexing %q: lexeme = %q", c.src, toks[0].Lexeme)
		}
	}
}

func TestLexNumberIntegerAndDecimal(t *testing.T) {
	toks := lexOK(t, "42 3.14")
	if toks[0].Kind != TokenNumber || toks[0].Lexeme != "42" {
		t.Fatalf("got %v %q, want number 42", toks[0].Kind, toks[0].Lexeme)
	}
	if toks[1].Kind != TokenNumber || toks[1].Lexeme != "3.14" {
		t.Fatalf("got %v %q, want number 3.14", toks[1].Kind, toks[1].Lexeme)
	}
}

func TestLexNumberDotNotFollowedByDigitStopsAtInteger(t *testing.T) {
	// A dot not followed by a digit is not a valid decimal
	// continuation, so the number token stops before it (the bare dot
	// itself is then an unrelated lex error, not part of this check).
	f := source.NewFile("test.pinky", "1.x")
	toks, _ := Lex(f)
	if toks[0].Kind != TokenNumber || toks[0].Lexeme != "1" {
		t.Fatalf("got %v %q, want number 1", toks[0].Kind, toks[0].Lexeme)
	}
}

func TestLexStringLiteralWithEscapes(t *testing.T) {
	toks := lexOK(t, `"a\nb\"c"`)
	if toks[0].Kind != TokenString {
		t.Fatalf("got %v, want string", toks[0].Kind)
	}
	if toks[0].Lexeme != `"a\nb\"c"` {
		t.Fatalf("unexpected raw lexeme: %q", toks[0].Lexeme)
	}
}

func TestLexUnterminatedStringIsError(t *testing.T) {
	f := source.NewFile("test.pinky", `"unterminated`)
	_, diags := Lex(f)
	if diags.Empty() {
		t.Fatalf("expected diagnostic for unterminated string")
	}
}

func TestLexSkipsHashAndSlashSlashComments(t *testing.T) {
	toks := lexOK(t, "x := 1 # comment\ny := 2 // another\n")
	var idents []string
	for _, tok := range toks {
		if tok.Kind == TokenIdent {
			idents = append(idents, tok.Lexeme)
		}
	}
	if len(idents) != 2 || idents[0] != "x" || idents[1] != "y" {
		t.Fatalf("unexpected idents after stripping comments: %v", idents)
	}
}

func TestLexUnexpectedCharacterIsError(t *testing.T) {
	f := source.NewFile("test.pinky", "@")
	_, diags := Lex(f)
	if diags.Empty() {
		t.Fatalf("expected diagnostic for unexpected character")
	}
}

func TestLexColonWithoutEqualsIsError(t *testing.T) {
	f := source.NewFile("test.pinky", ":")
	_, diags := Lex(f)
	if diags.Empty() {
		t.Fatalf("expected diagnostic for bare ':'")
	}
}
