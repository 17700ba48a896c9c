package codegen

import (
	"pinky/internal/ast"
	"pinky/internal/diag"
	"pinky/internal/encoding"
)

// lowerBlock lowers a statement sequence inside its own scope
// (spec.md §4.D: if/while/for bodies open a fresh scope). topLevel is
// true only for the Program's own statement list, where a
// FuncDeclStmt is expected and already compiled separately by the
// driver; any other nesting of a function declaration is rejected.
func (f *funcCtx) lowerBlock(stmts []ast.Stmt, topLevel bool) ([]byte, *diag.CompilerError) {
	f.scope.EnterScope()
	defer f.scope.ExitScope()

	var out []byte
	for _, s := range stmts {
		if _, ok := s.(*ast.FuncDeclStmt); ok {
			if topLevel {
				continue // compiled into its own function by the driver
			}
			return nil, errorAt(s.Span(), "function declarations are only allowed at the top level")
		}
		b, err := f.lowerStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

func (f *funcCtx) lowerStmt(s ast.Stmt) ([]byte, *diag.CompilerError) {
	switch n := s.(type) {
	case *ast.PrintStmt:
		x, err := f.lowerExpr(n.X)
		if err != nil {
			return nil, err
		}
		return append(x, encoding.Call(f.c.resolveHelper("print"))...), nil

	case *ast.PrintlnStmt:
		x, err := f.lowerExpr(n.X)
		if err != nil {
			return nil, err
		}
		return append(x, encoding.Call(f.c.resolveHelper("println"))...), nil

	case *ast.AssignStmt:
		x, err := f.lowerExpr(n.X)
		if err != nil {
			return nil, err
		}
		slot := f.scope.Declare(n.Name, n.Local)
		return append(x, encoding.LocalSet(slot)...), nil

	case *ast.ExpressionStmt:
		x, err := f.lowerExpr(n.X)
		if err != nil {
			return nil, err
		}
		return append(x, encoding.OpDrop), nil

	case *ast.ReturnStmt:
		x, err := f.lowerExpr(n.X)
		if err != nil {
			return nil, err
		}
		return append(x, encoding.OpReturn), nil

	case *ast.IfStmt:
		return f.lowerIf(n)

	case *ast.WhileStmt:
		return f.lowerWhile(n)

	case *ast.ForStmt:
		return f.lowerFor(n)

	default:
		return nil, internalErrorAt(s.Span(), "unknown statement kind")
	}
}

// lowerIf lowers `if cond then ... [elif ...]* [else ...] end`. Elif
// branches nest right-to-left, each living in the else arm of its
// predecessor (spec.md §4.E).
func (f *funcCtx) lowerIf(n *ast.IfStmt) ([]byte, *diag.CompilerError) {
	elseBody, err := f.lowerElseChain(n.Elifs, n.Else, n.HasElse)
	if err != nil {
		return nil, err
	}

	cond, err := f.lowerExpr(n.Cond)
	if err != nil {
		return nil, err
	}
	then, err := f.lowerBlock(n.Then, false)
	if err != nil {
		return nil, err
	}

	out := append([]byte{}, cond...)
	out = append(out, encoding.Call(f.c.resolveHelper("is_truthy"))...)
	out = append(out, encoding.If(encoding.BlockTypeEmpty)...)
	out = append(out, then...)
	if elseBody != nil {
		out = append(out, encoding.OpElse)
		out = append(out, elseBody...)
	}
	out = append(out, encoding.OpEnd)
	return out, nil
}

// lowerElseChain builds the (possibly empty) body of the outermost
// `else` arm: the first elif's condition/body wrapped around the
// recursively-nested remainder, terminating in the real else body (if
// any) or nothing.
func (f *funcCtx) lowerElseChain(elifs []ast.ElifClause, elseStmts []ast.Stmt, hasElse bool) ([]byte, *diag.CompilerError) {
	if len(elifs) == 0 {
		if !hasElse {
			return nil, nil
		}
		return f.lowerBlock(elseStmts, false)
	}
	head := elifs[0]
	rest, err := f.lowerElseChain(elifs[1:], elseStmts, hasElse)
	if err != nil {
		return nil, err
	}
	cond, err := f.lowerExpr(head.Cond)
	if err != nil {
		return nil, err
	}
	body, err := f.lowerBlock(head.Body, false)
	if err != nil {
		return nil, err
	}
	out := append([]byte{}, cond...)
	out = append(out, encoding.Call(f.c.resolveHelper("is_truthy"))...)
	out = append(out, encoding.If(encoding.BlockTypeEmpty)...)
	out = append(out, body...)
	if rest != nil {
		out = append(out, encoding.OpElse)
		out = append(out, rest...)
	}
	out = append(out, encoding.OpEnd)
	return out, nil
}

// lowerWhile follows the exact pattern of spec.md §4.E: a counted
// MAX_ITERATIONS guard nested inside block/loop, with br_if 1 exiting
// on a false condition and br 0 looping back.
func (f *funcCtx) lowerWhile(n *ast.WhileStmt) ([]byte, *diag.CompilerError) {
	f.scope.EnterScope()
	defer f.scope.ExitScope()

	counter := f.scope.ConsumeScratch()

	cond, err := f.lowerExpr(n.Cond)
	if err != nil {
		return nil, err
	}
	body, err := f.lowerBlock(n.Body, false)
	if err != nil {
		return nil, err
	}

	var out []byte
	out = append(out, encoding.I32Const(0)...)
	out = append(out, encoding.LocalSet(counter)...)

	out = append(out, encoding.Block(encoding.BlockTypeEmpty)...)
	out = append(out, encoding.Loop(encoding.BlockTypeEmpty)...)

	out = append(out, encoding.LocalGet(counter)...)
	out = append(out, encoding.I32Const(MaxIterations)...)
	out = append(out, encoding.OpI32GeU)
	out = append(out, encoding.If(encoding.BlockTypeEmpty)...)
	out = append(out, encoding.OpUnreachable)
	out = append(out, encoding.OpEnd)

	out = append(out, encoding.LocalGet(counter)...)
	out = append(out, encoding.I32Const(1)...)
	out = append(out, encoding.OpI32Add)
	out = append(out, encoding.LocalSet(counter)...)

	out = append(out, cond...)
	out = append(out, encoding.Call(f.c.resolveHelper("is_truthy"))...)
	out = append(out, encoding.OpI32Eqz)
	out = append(out, encoding.BrIf(1)...)

	out = append(out, body...)
	out = append(out, encoding.Br(0)...)

	out = append(out, encoding.OpEnd) // loop
	out = append(out, encoding.OpEnd) // block
	return out, nil
}

// lowerFor lowers the numeric `for name := start, stop[, step] do
// body end` form (spec.md §4.E). is_descending is computed once from
// the (boxed +1 default) step; the loop tests `i < stop` when
// descending, `i > stop` otherwise, exiting once that comparison
// holds ("crossed"). See DESIGN.md's step-defaulting decision: a
// descending range with no explicit negative step iterates zero times,
// exactly as spec.md documents.
func (f *funcCtx) lowerFor(n *ast.ForStmt) ([]byte, *diag.CompilerError) {
	f.scope.EnterScope()
	defer f.scope.ExitScope()

	loopVar := f.scope.Declare(n.Name, true)
	stopSlot := f.scope.ConsumeScratch()
	stepSlot := f.scope.ConsumeScratch()
	descendingSlot := f.scope.ConsumeScratch()
	counter := f.scope.ConsumeScratch()

	start, err := f.lowerExpr(n.Start)
	if err != nil {
		return nil, err
	}
	stop, err := f.lowerExpr(n.Stop)
	if err != nil {
		return nil, err
	}
	var step []byte
	if n.Step != nil {
		step, err = f.lowerExpr(n.Step)
		if err != nil {
			return nil, err
		}
	} else {
		step = append(encoding.F64Const(1), encoding.Call(f.c.resolveHelper("box_number"))...)
	}
	body, err := f.lowerBlock(n.Body, false)
	if err != nil {
		return nil, err
	}

	var out []byte
	out = append(out, start...)
	out = append(out, encoding.LocalSet(loopVar)...)
	out = append(out, stop...)
	out = append(out, encoding.LocalSet(stopSlot)...)
	out = append(out, step...)
	out = append(out, encoding.LocalSet(stepSlot)...)

	// descending = step < 0
	out = append(out, encoding.LocalGet(stepSlot)...)
	out = append(out, encoding.Call(f.c.resolveHelper("unbox_number"))...)
	out = append(out, encoding.F64Const(0)...)
	out = append(out, encoding.OpF64Lt)
	out = append(out, encoding.LocalSet(descendingSlot)...)

	out = append(out, encoding.I32Const(0)...)
	out = append(out, encoding.LocalSet(counter)...)

	out = append(out, encoding.Block(encoding.BlockTypeEmpty)...)
	out = append(out, encoding.Loop(encoding.BlockTypeEmpty)...)

	out = append(out, encoding.LocalGet(counter)...)
	out = append(out, encoding.I32Const(MaxIterations)...)
	out = append(out, encoding.OpI32GeU)
	out = append(out, encoding.If(encoding.BlockTypeEmpty)...)
	out = append(out, encoding.OpUnreachable)
	out = append(out, encoding.OpEnd)

	out = append(out, encoding.LocalGet(counter)...)
	out = append(out, encoding.I32Const(1)...)
	out = append(out, encoding.OpI32Add)
	out = append(out, encoding.LocalSet(counter)...)

	// crossed = descending ? (i < stop) : (i > stop)
	out = append(out, encoding.LocalGet(descendingSlot)...)
	out = append(out, encoding.If(encoding.BlockTypeI32)...)
	out = append(out, encoding.LocalGet(loopVar)...)
	out = append(out, encoding.Call(f.c.resolveHelper("unbox_number"))...)
	out = append(out, encoding.LocalGet(stopSlot)...)
	out = append(out, encoding.Call(f.c.resolveHelper("unbox_number"))...)
	out = append(out, encoding.OpF64Lt)
	out = append(out, encoding.OpElse)
	out = append(out, encoding.LocalGet(loopVar)...)
	out = append(out, encoding.Call(f.c.resolveHelper("unbox_number"))...)
	out = append(out, encoding.LocalGet(stopSlot)...)
	out = append(out, encoding.Call(f.c.resolveHelper("unbox_number"))...)
	out = append(out, encoding.OpF64Gt)
	out = append(out, encoding.OpEnd)
	out = append(out, encoding.BrIf(1)...) // crossed -> exit outer block

	out = append(out, body...)

	// i <- i + step
	out = append(out, encoding.LocalGet(loopVar)...)
	out = append(out, encoding.Call(f.c.resolveHelper("unbox_number"))...)
	out = append(out, encoding.LocalGet(stepSlot)...)
	out = append(out, encoding.Call(f.c.resolveHelper("unbox_number"))...)
	out = append(out, encoding.OpF64Add)
	out = append(out, encoding.Call(f.c.resolveHelper("box_number"))...)
	out = append(out, encoding.LocalSet(loopVar)...)

	out = append(out, encoding.Br(0)...)
	out = append(out, encoding.OpEnd) // loop
	out = append(out, encoding.OpEnd) // block
	return out, nil
}
