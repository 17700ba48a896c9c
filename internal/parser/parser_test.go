package parser

import (
	"testing"

	"pinky/internal/ast"
	"pinky/internal/source"
)

func parseOK(t *testing.T, src string) *ast.Program {
	t.Helper()
	f := source.NewFile("test.pinky", src)
	prog, diags := Parse(f)
	if diags != nil && len(diags.Items) > 0 {
		t.Fatalf("unexpected diags for %q: %+v", src, diags.Items)
	}
	return prog
}

func TestParseAssignStmtLocalAndOuter(t *testing.T) {
	prog := parseOK(t, "x := 1\nx = 2")
	if len(prog.Stmts) != 2 {
		t.Fatalf("expected 2 stmts, got %d", len(prog.Stmts))
	}
	a, ok := prog.Stmts[0].(*ast.AssignStmt)
	if !ok || !a.Local || a.Name != "x" {
		t.Fatalf("expected local assign to x, got %#v", prog.Stmts[0])
	}
	b, ok := prog.Stmts[1].(*ast.AssignStmt)
	if !ok || b.Local || b.Name != "x" {
		t.Fatalf("expected outer assign to x, got %#v", prog.Stmts[1])
	}
}

func TestParsePrintAndPrintln(t *testing.T) {
	prog := parseOK(t, `print 1` + "\n" + `println "hi"`)
	if _, ok := prog.Stmts[0].(*ast.PrintStmt); !ok {
		t.Fatalf("expected PrintStmt, got %T", prog.Stmts[0])
	}
	if _, ok := prog.Stmts[1].(*ast.PrintlnStmt); !ok {
		t.Fatalf("expected PrintlnStmt, got %T", prog.Stmts[1])
	}
}

func TestParseIfElifElse(t *testing.T) {
	src := "if 1 < 2 then\n  print 1\nelif 2 < 3 then\n  print 2\nelse\n  print 3\nend"
	prog := parseOK(t, src)
	ifs, ok := prog.Stmts[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected IfStmt, got %T", prog.Stmts[0])
	}
	if len(ifs.Then) != 1 {
		t.Fatalf("expected 1 then stmt, got %d", len(ifs.Then))
	}
	if len(ifs.Elifs) != 1 {
		t.Fatalf("expected 1 elif clause, got %d", len(ifs.Elifs))
	}
	if !ifs.HasElse || len(ifs.Else) != 1 {
		t.Fatalf("expected an else clause with 1 stmt, got HasElse=%v len=%d", ifs.HasElse, len(ifs.Else))
	}
}

func TestParseIfWithoutElse(t *testing.T) {
	prog := parseOK(t, "if 1 < 2 then print 1 end")
	ifs := prog.Stmts[0].(*ast.IfStmt)
	if ifs.HasElse {
		t.Fatalf("expected no else clause")
	}
}

func TestParseWhile(t *testing.T) {
	prog := parseOK(t, "while 1 < 2 do print 1 end")
	w, ok := prog.Stmts[0].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("expected WhileStmt, got %T", prog.Stmts[0])
	}
	if len(w.Body) != 1 {
		t.Fatalf("expected 1 body stmt, got %d", len(w.Body))
	}
}

func TestParseForWithAndWithoutStep(t *testing.T) {
	prog := parseOK(t, "for i := 1, 10 do print i end\nfor j := 10, 1, -1 do print j end")
	f1 := prog.Stmts[0].(*ast.ForStmt)
	if f1.Name != "i" || f1.Step != nil {
		t.Fatalf("expected for i with nil step, got %#v", f1)
	}
	f2 := prog.Stmts[1].(*ast.ForStmt)
	if f2.Name != "j" || f2.Step == nil {
		t.Fatalf("expected for j with an explicit step, got %#v", f2)
	}
}

func TestParseFuncDeclAndRet(t *testing.T) {
	prog := parseOK(t, "func add(a, b)\n  ret a + b\nend")
	fd, ok := prog.Stmts[0].(*ast.FuncDeclStmt)
	if !ok {
		t.Fatalf("expected FuncDeclStmt, got %T", prog.Stmts[0])
	}
	if fd.Name != "add" || len(fd.Params) != 2 || fd.Params[0] != "a" || fd.Params[1] != "b" {
		t.Fatalf("unexpected func decl: %#v", fd)
	}
	if len(fd.Body) != 1 {
		t.Fatalf("expected 1 body stmt, got %d", len(fd.Body))
	}
	if _, ok := fd.Body[0].(*ast.ReturnStmt); !ok {
		t.Fatalf("expected ReturnStmt body, got %T", fd.Body[0])
	}
}

func TestParseFuncDeclNoParams(t *testing.T) {
	prog := parseOK(t, "func f() end")
	fd := prog.Stmts[0].(*ast.FuncDeclStmt)
	if len(fd.Params) != 0 {
		t.Fatalf("expected 0 params, got %d", len(fd.Params))
	}
}

func TestParseFunctionCallExpression(t *testing.T) {
	prog := parseOK(t, "f(1, 2)")
	stmt, ok := prog.Stmts[0].(*ast.ExpressionStmt)
	if !ok {
		t.Fatalf("expected ExpressionStmt, got %T", prog.Stmts[0])
	}
	call, ok := stmt.X.(*ast.FunctionCall)
	if !ok || call.Callee != "f" || len(call.Args) != 2 {
		t.Fatalf("unexpected call: %#v", stmt.X)
	}
}

func TestParseArithmeticPrecedence(t *testing.T) {
	// 1 + 2 * 3 must bind as 1 + (2 * 3).
	prog := parseOK(t, "print 1 + 2 * 3")
	x := prog.Stmts[0].(*ast.PrintStmt).X
	bin, ok := x.(*ast.Binary)
	if !ok || bin.Op != "+" {
		t.Fatalf("expected top-level +, got %#v", x)
	}
	rhs, ok := bin.Right.(*ast.Binary)
	if !ok || rhs.Op != "*" {
		t.Fatalf("expected right operand to be a *, got %#v", bin.Right)
	}
}

func TestParseCaretIsRightAssociative(t *testing.T) {
	// 2 ^ 3 ^ 2 must bind as 2 ^ (3 ^ 2).
	prog := parseOK(t, "print 2 ^ 3 ^ 2")
	x := prog.Stmts[0].(*ast.PrintStmt).X
	bin := x.(*ast.Binary)
	if bin.Op != "^" {
		t.Fatalf("expected top-level ^, got %#v", x)
	}
	if _, ok := bin.Left.(*ast.NumberLiteral); !ok {
		t.Fatalf("expected left operand to be a plain literal, got %#v", bin.Left)
	}
	rhs, ok := bin.Right.(*ast.Binary)
	if !ok || rhs.Op != "^" {
		t.Fatalf("expected right operand to be a ^, got %#v", bin.Right)
	}
}

func TestParseAndOrPrecedence(t *testing.T) {
	// a or b and c must bind as a or (b and c).
	prog := parseOK(t, "print true or false and false")
	bin := prog.Stmts[0].(*ast.PrintStmt).X.(*ast.Binary)
	if bin.Op != "or" {
		t.Fatalf("expected top-level or, got %#v", bin)
	}
	rhs, ok := bin.Right.(*ast.Binary)
	if !ok || rhs.Op != "and" {
		t.Fatalf("expected right operand to be an and, got %#v", bin.Right)
	}
}

func TestParseUnaryMinusAndTilde(t *testing.T) {
	prog := parseOK(t, "print -1\nprint ~true")
	u1 := prog.Stmts[0].(*ast.PrintStmt).X.(*ast.Unary)
	if u1.Op != "-" {
		t.Fatalf("expected unary -, got %q", u1.Op)
	}
	u2 := prog.Stmts[1].(*ast.PrintStmt).X.(*ast.Unary)
	if u2.Op != "~" {
		t.Fatalf("expected unary ~, got %q", u2.Op)
	}
}

func TestParseGroupingOverridesPrecedence(t *testing.T) {
	// (1 + 2) * 3 must bind the parenthesized sum first.
	prog := parseOK(t, "print (1 + 2) * 3")
	bin := prog.Stmts[0].(*ast.PrintStmt).X.(*ast.Binary)
	if bin.Op != "*" {
		t.Fatalf("expected top-level *, got %#v", bin)
	}
	grp, ok := bin.Left.(*ast.Grouping)
	if !ok {
		t.Fatalf("expected left operand to be a grouping, got %#v", bin.Left)
	}
	if inner, ok := grp.Inner.(*ast.Binary); !ok || inner.Op != "+" {
		t.Fatalf("expected grouping to wrap a +, got %#v", grp.Inner)
	}
}

func TestParseLiterals(t *testing.T) {
	prog := parseOK(t, "print 42\nprint true\nprint false\nprint nil\nprint \"s\"")
	wantKinds := []string{"*ast.NumberLiteral", "*ast.BooleanLiteral", "*ast.BooleanLiteral", "*ast.NilLiteral", "*ast.StringLiteral"}
	for i, want := range wantKinds {
		x := prog.Stmts[i].(*ast.PrintStmt).X
		got := typeName(x)
		if got != want {
			t.Fatalf("stmt %d: got %s, want %s", i, got, want)
		}
	}
}

func typeName(x ast.Expr) string {
	switch x.(type) {
	case *ast.NumberLiteral:
		return "*ast.NumberLiteral"
	case *ast.BooleanLiteral:
		return "*ast.BooleanLiteral"
	case *ast.NilLiteral:
		return "*ast.NilLiteral"
	case *ast.StringLiteral:
		return "*ast.StringLiteral"
	default:
		return "unknown"
	}
}

func TestParseStringLiteralDecodesEscapes(t *testing.T) {
	prog := parseOK(t, `print "a\nb"`)
	lit := prog.Stmts[0].(*ast.PrintStmt).X.(*ast.StringLiteral)
	if lit.Value != "a\nb" {
		t.Fatalf("got %q, want decoded escape", lit.Value)
	}
}

func parseErr(t *testing.T, src string) {
	t.Helper()
	f := source.NewFile("test.pinky", src)
	_, diags := Parse(f)
	if diags == nil || len(diags.Items) == 0 {
		t.Fatalf("expected parse error for %q, got none", src)
	}
}

func TestParseMissingThenIsError(t *testing.T) {
	parseErr(t, "if 1 < 2 print 1 end")
}

func TestParseMissingEndIsError(t *testing.T) {
	parseErr(t, "if 1 < 2 then print 1")
}

func TestParseUnexpectedTokenInExpressionIsError(t *testing.T) {
	parseErr(t, "print end")
}

func TestParseInvalidStringEscapeIsError(t *testing.T) {
	parseErr(t, `print "bad\q"`)
}

func TestParseMissingClosingParenIsError(t *testing.T) {
	parseErr(t, "print (1 + 2")
}
