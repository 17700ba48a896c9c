package codegen

import (
	"fmt"

	"pinky/internal/ast"
	"pinky/internal/diag"
	"pinky/internal/encoding"
)

// lowerExpr translates one expression node into a byte sequence that
// leaves exactly one boxed pointer (i32) on the operand stack
// (spec.md §4.E's invariant).
func (f *funcCtx) lowerExpr(e ast.Expr) ([]byte, *diag.CompilerError) {
	switch n := e.(type) {
	case *ast.NumberLiteral:
		return append(encoding.F64Const(n.Value), encoding.Call(f.c.resolveHelper("box_number"))...), nil

	case *ast.BooleanLiteral:
		v := int32(0)
		if n.Value {
			v = 1
		}
		return append(encoding.I32Const(v), encoding.Call(f.c.resolveHelper("box_bool"))...), nil

	case *ast.NilLiteral:
		return encoding.Call(f.c.resolveHelper("box_nil")), nil

	case *ast.StringLiteral:
		off := f.c.strings.Intern(n.Value)
		out := encoding.I32Const(int32(off))
		out = append(out, encoding.I32Const(int32(len(n.Value)))...)
		out = append(out, encoding.Call(f.c.resolveHelper("box_string"))...)
		return out, nil

	case *ast.Identifier:
		slot, ok := f.scope.Lookup(n.Name)
		if !ok {
			return nil, errorAt(n.S, fmt.Sprintf("undeclared variable: %s", n.Name))
		}
		return encoding.LocalGet(slot), nil

	case *ast.Grouping:
		return f.lowerExpr(n.Inner)

	case *ast.Unary:
		return f.lowerUnary(n)

	case *ast.Binary:
		return f.lowerBinary(n)

	case *ast.FunctionCall:
		return f.lowerCall(n)

	default:
		return nil, internalErrorAt(e.Span(), "unknown expression kind")
	}
}

// lowerUnary implements `+x`, `-x`, `~x` (spec.md §4.E).
//
// `~x` is decided (DESIGN.md, spec.md §9 open question 1) as logical
// not on truthiness rather than a numeric-zero test, so it is well
// defined on every tag: `is_truthy; i32.const 1; i32.xor; call box_bool`.
func (f *funcCtx) lowerUnary(n *ast.Unary) ([]byte, *diag.CompilerError) {
	switch n.Op {
	case "+":
		return f.lowerExpr(n.X)

	case "-":
		if lit, ok := n.X.(*ast.NumberLiteral); ok {
			out := encoding.F64Const(-lit.Value)
			out = append(out, encoding.Call(f.c.resolveHelper("box_number"))...)
			return out, nil
		}
		x, err := f.lowerExpr(n.X)
		if err != nil {
			return nil, err
		}
		out := append([]byte{}, x...)
		out = append(out, encoding.Call(f.c.resolveHelper("unbox_number"))...)
		out = append(out, encoding.OpF64Neg)
		out = append(out, encoding.Call(f.c.resolveHelper("box_number"))...)
		return out, nil

	case "~":
		x, err := f.lowerExpr(n.X)
		if err != nil {
			return nil, err
		}
		out := append([]byte{}, x...)
		out = append(out, encoding.Call(f.c.resolveHelper("is_truthy"))...)
		out = append(out, encoding.I32Const(1)...)
		out = append(out, encoding.OpI32Xor)
		out = append(out, encoding.Call(f.c.resolveHelper("box_bool"))...)
		return out, nil

	default:
		return nil, internalErrorAt(n.S, "unknown unary operator: "+n.Op)
	}
}

var comparisonOps = map[string]byte{
	"<":  encoding.OpF64Lt,
	"<=": encoding.OpF64Le,
	">":  encoding.OpF64Gt,
	">=": encoding.OpF64Ge,
	"==": encoding.OpF64Eq,
	"~=": encoding.OpF64Ne,
}

var arithOps = map[string]byte{
	"-": encoding.OpF64Sub,
	"*": encoding.OpF64Mul,
	"/": encoding.OpF64Div,
}

// lowerBinary implements the arithmetic/comparison/logical operators
// of spec.md §4.E.
func (f *funcCtx) lowerBinary(n *ast.Binary) ([]byte, *diag.CompilerError) {
	switch n.Op {
	case "and":
		return f.lowerShortCircuit(n, true)
	case "or":
		return f.lowerShortCircuit(n, false)
	}

	left, err := f.lowerExpr(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := f.lowerExpr(n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "+":
		return f.lowerPlus(left, right)

	case "%":
		out := append([]byte{}, left...)
		out = append(out, encoding.Call(f.c.resolveHelper("unbox_number"))...)
		out = append(out, right...)
		out = append(out, encoding.Call(f.c.resolveHelper("unbox_number"))...)
		out = append(out, encoding.Call(f.c.resolveHelper("mod"))...)
		out = append(out, encoding.Call(f.c.resolveHelper("box_number"))...)
		return out, nil

	case "^":
		out := append([]byte{}, left...)
		out = append(out, encoding.Call(f.c.resolveHelper("unbox_number"))...)
		out = append(out, right...)
		out = append(out, encoding.Call(f.c.resolveHelper("unbox_number"))...)
		out = append(out, encoding.Call(f.c.resolveHelper("math_pow"))...)
		out = append(out, encoding.Call(f.c.resolveHelper("box_number"))...)
		return out, nil

	default:
		if op, ok := comparisonOps[n.Op]; ok {
			out := append([]byte{}, left...)
			out = append(out, encoding.Call(f.c.resolveHelper("unbox_number"))...)
			out = append(out, right...)
			out = append(out, encoding.Call(f.c.resolveHelper("unbox_number"))...)
			out = append(out, op)
			out = append(out, encoding.Call(f.c.resolveHelper("box_bool"))...)
			return out, nil
		}
		if op, ok := arithOps[n.Op]; ok {
			out := append([]byte{}, left...)
			out = append(out, encoding.Call(f.c.resolveHelper("unbox_number"))...)
			out = append(out, right...)
			out = append(out, encoding.Call(f.c.resolveHelper("unbox_number"))...)
			out = append(out, op)
			out = append(out, encoding.Call(f.c.resolveHelper("box_number"))...)
			return out, nil
		}
		return nil, internalErrorAt(n.S, "unsupported operator: "+n.Op)
	}
}

// lowerPlus implements the `+` dispatch of spec.md §4.E, with the
// boolean and numeric branches folded into one: `+` concatenates when
// either operand is a string — stringifying the other operand via
// to_string first, so `"a" + 1` yields `"a1"` — and otherwise adds
// numerically after passing both operands through to_number (which
// turns booleans into 0/1 and leaves numbers unchanged).
// Each operand is evaluated once into a scratch slot so the tag tests
// can re-read it without recomputing side effects. The two arms are
// lowered as a value-producing `if (result i32)`.
func (f *funcCtx) lowerPlus(left, right []byte) ([]byte, *diag.CompilerError) {
	lSlot := f.scope.ConsumeScratch()
	rSlot := f.scope.ConsumeScratch()

	out := append([]byte{}, left...)
	out = append(out, encoding.LocalSet(lSlot)...)
	out = append(out, right...)
	out = append(out, encoding.LocalSet(rSlot)...)

	// either operand a string -> stringify both sides and concat
	out = append(out, encoding.LocalGet(lSlot)...)
	out = append(out, encoding.Call(f.c.resolveHelper("is_string"))...)
	out = append(out, encoding.LocalGet(rSlot)...)
	out = append(out, encoding.Call(f.c.resolveHelper("is_string"))...)
	out = append(out, encoding.OpI32Or)
	out = append(out, encoding.If(encoding.BlockTypeI32)...)
	out = append(out, encoding.LocalGet(lSlot)...)
	out = append(out, encoding.Call(f.c.resolveHelper("to_string"))...)
	out = append(out, encoding.LocalGet(rSlot)...)
	out = append(out, encoding.Call(f.c.resolveHelper("to_string"))...)
	out = append(out, encoding.Call(f.c.resolveHelper("concat"))...)
	out = append(out, encoding.OpElse)

	// numeric add (also handles the boolean case, since to_number
	// coerces booleans to 0.0/1.0 and passes numbers through unchanged)
	out = append(out, encoding.LocalGet(lSlot)...)
	out = append(out, encoding.Call(f.c.resolveHelper("to_number"))...)
	out = append(out, encoding.Call(f.c.resolveHelper("unbox_number"))...)
	out = append(out, encoding.LocalGet(rSlot)...)
	out = append(out, encoding.Call(f.c.resolveHelper("to_number"))...)
	out = append(out, encoding.Call(f.c.resolveHelper("unbox_number"))...)
	out = append(out, encoding.OpF64Add)
	out = append(out, encoding.Call(f.c.resolveHelper("box_number"))...)
	out = append(out, encoding.OpEnd)
	return out, nil
}

// lowerShortCircuit implements `and`/`or` (spec.md §4.E): the left
// operand is stashed in a scratch slot once, then is_truthy decides
// whether the right operand is evaluated at all. Lowered as a
// value-producing `if (result i32)`.
func (f *funcCtx) lowerShortCircuit(n *ast.Binary, isAnd bool) ([]byte, *diag.CompilerError) {
	left, err := f.lowerExpr(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := f.lowerExpr(n.Right)
	if err != nil {
		return nil, err
	}
	scratch := f.scope.ConsumeScratch()

	out := append([]byte{}, left...)
	out = append(out, encoding.LocalSet(scratch)...)
	out = append(out, encoding.LocalGet(scratch)...)
	out = append(out, encoding.Call(f.c.resolveHelper("is_truthy"))...)
	if !isAnd {
		out = append(out, encoding.OpI32Eqz)
	}
	out = append(out, encoding.If(encoding.BlockTypeI32)...)
	out = append(out, right...)
	out = append(out, encoding.OpElse)
	out = append(out, encoding.LocalGet(scratch)...)
	out = append(out, encoding.OpEnd)
	return out, nil
}

// lowerCall implements FunctionCall (spec.md §4.E): evaluate
// arguments left to right, then call the resolved index.
func (f *funcCtx) lowerCall(n *ast.FunctionCall) ([]byte, *diag.CompilerError) {
	idx, cerr := f.c.resolveCall(n.Callee, len(n.Args), n.S)
	if cerr != nil {
		return nil, cerr
	}
	var out []byte
	for _, a := range n.Args {
		b, err := f.lowerExpr(a)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	out = append(out, encoding.Call(idx)...)
	if isBuiltinPredicate(n.Callee) {
		out = append(out, encoding.Call(f.c.resolveHelper("box_bool"))...)
	}
	return out, nil
}
