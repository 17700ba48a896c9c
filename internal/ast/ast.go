// Package ast defines the Pinky abstract syntax tree handed from the
// front end (lexer/parser) to the back-end code generator. Every node
// carries a source.Span so the back end can report
// (line, column, length) on compile errors (spec.md §3, §7).
package ast

import "pinky/internal/source"

// Program is the root of a Pinky script: a flat sequence of top-level
// statements, in source order. Function declarations are ordinary
// statements and may appear interleaved with executable code, matching
// Pinky's lack of a separate declaration section.
type Program struct {
	Stmts []Stmt
}

// Expr is any Pinky expression node. Every expression lowers to a
// sequence leaving exactly one boxed pointer on the operand stack
// (spec.md §4.E).
type Expr interface {
	exprNode()
	Span() source.Span
}

// Stmt is any Pinky statement node.
type Stmt interface {
	stmtNode()
	Span() source.Span
}

type NumberLiteral struct {
	Value float64
	S     source.Span
}

func (*NumberLiteral) exprNode()          {}
func (n *NumberLiteral) Span() source.Span { return n.S }

type BooleanLiteral struct {
	Value bool
	S     source.Span
}

func (*BooleanLiteral) exprNode()          {}
func (n *BooleanLiteral) Span() source.Span { return n.S }

type StringLiteral struct {
	Value string
	S     source.Span
}

func (*StringLiteral) exprNode()          {}
func (n *StringLiteral) Span() source.Span { return n.S }

// NilLiteral is Pinky's `nil` keyword.
type NilLiteral struct {
	S source.Span
}

func (*NilLiteral) exprNode()          {}
func (n *NilLiteral) Span() source.Span { return n.S }

type Identifier struct {
	Name string
	S    source.Span
}

func (*Identifier) exprNode()          {}
func (n *Identifier) Span() source.Span { return n.S }

// Grouping is a parenthesized expression, kept as its own node so
// source spans stay accurate even though lowering just recurses.
type Grouping struct {
	Inner Expr
	S     source.Span
}

func (*Grouping) exprNode()          {}
func (n *Grouping) Span() source.Span { return n.S }

// Unary covers `+x`, `-x`, and `~x` (logical not).
type Unary struct {
	Op   string
	X    Expr
	S    source.Span
}

func (*Unary) exprNode()          {}
func (n *Unary) Span() source.Span { return n.S }

// Binary covers arithmetic, comparison, and the `and`/`or` connectives
// (spec.md §4.E lists their distinct lowering rules).
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
	S     source.Span
}

func (*Binary) exprNode()          {}
func (n *Binary) Span() source.Span { return n.S }

// FunctionCall invokes a user-defined function or a built-in type
// predicate exposed as a callable (spec.md §4.E).
type FunctionCall struct {
	Callee string
	Args   []Expr
	S      source.Span
}

func (*FunctionCall) exprNode()          {}
func (n *FunctionCall) Span() source.Span { return n.S }

// PrintStmt / PrintlnStmt evaluate an expression and pass the boxed
// result to the corresponding imported host function.
type PrintStmt struct {
	X Expr
	S source.Span
}

func (*PrintStmt) stmtNode()          {}
func (n *PrintStmt) Span() source.Span { return n.S }

type PrintlnStmt struct {
	X Expr
	S source.Span
}

func (*PrintlnStmt) stmtNode()          {}
func (n *PrintlnStmt) Span() source.Span { return n.S }

// AssignStmt is `name = expr` (search-outward-or-declare-at-top) or,
// when Local is true, `name := expr` (always declare in the top
// scope) — spec.md §3 "Scope stack" and §4.D "declare".
type AssignStmt struct {
	Name  string
	Local bool
	X     Expr
	S     source.Span
}

func (*AssignStmt) stmtNode()          {}
func (n *AssignStmt) Span() source.Span { return n.S }

// ExpressionStmt evaluates an expression for its side effects and
// discards the result (spec.md §4.E: "if its result count > 0, drop").
type ExpressionStmt struct {
	X Expr
	S source.Span
}

func (*ExpressionStmt) stmtNode()          {}
func (n *ExpressionStmt) Span() source.Span { return n.S }

type ReturnStmt struct {
	X Expr
	S source.Span
}

func (*ReturnStmt) stmtNode()          {}
func (n *ReturnStmt) Span() source.Span { return n.S }

// ElifClause is one `elif cond then body` arm of an IfStmt.
type ElifClause struct {
	Cond Expr
	Body []Stmt
	S    source.Span
}

// IfStmt is `if cond then thenBody [elif ...]* [else elseBody] end`.
// Elif branches are lowered right-to-left, nesting each into the
// `else` arm of its predecessor (spec.md §4.E).
type IfStmt struct {
	Cond     Expr
	Then     []Stmt
	Elifs    []ElifClause
	Else     []Stmt // nil when absent
	HasElse  bool
	S        source.Span
}

func (*IfStmt) stmtNode()          {}
func (n *IfStmt) Span() source.Span { return n.S }

// WhileStmt is `while cond do body end`.
type WhileStmt struct {
	Cond Expr
	Body []Stmt
	S    source.Span
}

func (*WhileStmt) stmtNode()          {}
func (n *WhileStmt) Span() source.Span { return n.S }

// ForStmt is the numeric `for name := start, stop[, step] do body end`
// form (spec.md §4.E). Step is nil when the source omits it, in which
// case lowering defaults it to boxed +1.
type ForStmt struct {
	Name  string
	Start Expr
	Stop  Expr
	Step  Expr // nil when omitted
	Body  []Stmt
	S     source.Span
}

func (*ForStmt) stmtNode()          {}
func (n *ForStmt) Span() source.Span { return n.S }

// FuncDeclStmt declares a first-class named function. Parameters are
// boxed i32 locals 0..N-1 in the function's fresh scope; there is no
// lexical access to the enclosing scope (no closures, spec.md §4.D).
type FuncDeclStmt struct {
	Name   string
	Params []string
	Body   []Stmt
	S      source.Span
}

func (*FuncDeclStmt) stmtNode()          {}
func (n *FuncDeclStmt) Span() source.Span { return n.S }
