// Package codegen implements AST lowering and the top-level compile
// driver (spec.md §4.E, §6.2): it walks a validated Program and
// produces a complete WASM 1.0 module byte-for-byte, plus the raw
// string-table blob.
//
// Grounded on the teacher's internal/irgen (per-node-kind switch
// lowering, explicit (value, error) propagation instead of
// panic/recover) and internal/codegen/emit_func.go (per-function
// assembly: declare locals, emit body, one function per code-section
// entry). The target shape — WASM binary, boxed dynamic values — has
// no analogue in the teacher's static-C pipeline, so only that shape
// is reused; the bodies are new.
package codegen

import (
	"fmt"

	"pinky/internal/ast"
	"pinky/internal/diag"
	"pinky/internal/runtime"
	"pinky/internal/scope"
	"pinky/internal/source"
	"pinky/internal/strtab"
)

// MaxIterations caps every while/for loop at run time (spec.md §4.E,
// §8): a hard ceiling enforced with `unreachable`, not a compile-time
// bound.
const MaxIterations = 10_000

// funcType is a deduplicated WASM function signature.
type funcType struct {
	Params  []byte
	Results []byte
}

func (t funcType) key() string { return string(t.Params) + "|" + string(t.Results) }

// CompileCtx carries every per-invocation mutable the back end needs:
// the string table, the function-index space, and the dedup type
// table. Never a package-level global (spec.md §5: "a systems-language
// port should pass a CompileCtx by exclusive reference").
type CompileCtx struct {
	file *source.File

	strings *strtab.Table
	imports []runtime.Import
	helpers []runtime.Helper

	userFuncs *scope.FuncRegistry
	userOrder []*ast.FuncDeclStmt // declaration order, matching index assignment

	funcNames map[string]int // reserved import/helper name -> final index; never a user function name
	mainIndex int

	types     []funcType
	typeIndex map[string]int
	funcType  map[int]int // final function index -> type index, imports+helpers+user+main
}

func newCompileCtx(file *source.File) *CompileCtx {
	return &CompileCtx{
		file:      file,
		strings:   strtab.New(),
		imports:   runtime.Imports,
		helpers:   runtime.Catalogue(),
		userFuncs: scope.NewFuncRegistry(),
		funcNames: make(map[string]int),
		typeIndex: make(map[string]int),
		funcType:  make(map[int]int),
	}
}

// isBuiltinPredicate reports whether name is one of the fixed
// single-argument type predicates that a Pinky call site resolves
// directly to a runtime helper (spec.md §4.E), regardless of what
// user functions happen to be declared.
func isBuiltinPredicate(name string) bool {
	switch name {
	case "is_nil", "is_bool", "is_number", "is_string":
		return true
	}
	return false
}

// registerFunctions assigns the three disjoint index spaces (spec.md
// §3): imports 0..I-1, runtime helpers I..I+R-1, user functions
// I+R..I+R+U-1, with the synthetic main body placed last at
// I+R+U. Duplicate top-level function names are a compile error
// caught here, before any body is lowered, so forward references
// between user functions resolve correctly.
//
// c.funcNames is populated with import and helper names only, and is
// never written to again after this loop: it is the shared table
// resolveHelper (called from every runtime.Helper.Build closure, e.g.
// math_pow's `idx("pow")`) and resolveCall's built-in-predicate branch
// both depend on staying pinned to the real import/helper indices.
// Only ordinary identifiers reach lexing as function names — "print"
// and "println" are reserved keywords (internal/lexer/token.go), but
// the remaining ~18 import/helper names are not, so a Pinky program is
// free to write `func pow(a, b) ... end`. Silently overwriting
// c.funcNames["pow"] with that user function's index would redirect
// every internal caller of the real pow import to the user's function
// instead, and mismatch the Import section's recorded type index
// (driver.go). User functions are therefore rejected outright when
// their name collides with a reserved import or helper name, instead
// of ever entering c.funcNames — c.userFuncs is the only table calls
// to user-declared functions resolve through (see resolveCall).
func (c *CompileCtx) registerFunctions(prog *ast.Program) *diag.CompilerError {
	for i, imp := range c.imports {
		c.funcNames[imp.Name] = i
	}
	base := len(c.imports)
	for j, h := range c.helpers {
		c.funcNames[h.Name] = base + j
	}
	base += len(c.helpers)

	for _, stmt := range prog.Stmts {
		fd, ok := stmt.(*ast.FuncDeclStmt)
		if !ok {
			continue
		}
		if _, reserved := c.funcNames[fd.Name]; reserved {
			return errorAt(fd.Span(), fmt.Sprintf("cannot declare function %q: name is reserved for a built-in", fd.Name))
		}
		idx := base + len(c.userOrder)
		if !c.userFuncs.Declare(fd.Name, idx, len(fd.Params)) {
			return errorAt(fd.Span(), fmt.Sprintf("duplicate function definition: %s", fd.Name))
		}
		c.userOrder = append(c.userOrder, fd)
	}
	c.mainIndex = base + len(c.userOrder)
	return nil
}

// typeIndexFor deduplicates (params, results) into the type section
// and returns its index.
func (c *CompileCtx) typeIndexFor(params, results []byte) int {
	t := funcType{Params: params, Results: results}
	key := t.key()
	if idx, ok := c.typeIndex[key]; ok {
		return idx
	}
	idx := len(c.types)
	c.types = append(c.types, t)
	c.typeIndex[key] = idx
	return idx
}

// resolveCall returns the final function index for a call target
// name, checked for existence, and checks the given call arity
// against its declared arity.
func (c *CompileCtx) resolveCall(name string, argc int, span source.Span) (int, *diag.CompilerError) {
	if isBuiltinPredicate(name) {
		if argc != 1 {
			return 0, errorAt(span, fmt.Sprintf("arity mismatch calling %s: expected 1 argument, got %d", name, argc))
		}
		return c.funcNames[name], nil
	}
	fi, ok := c.userFuncs.Lookup(name)
	if !ok {
		return 0, errorAt(span, fmt.Sprintf("undefined function: %s", name))
	}
	if fi.Arity != argc {
		return 0, errorAt(span, fmt.Sprintf("arity mismatch calling %s: expected %d arguments, got %d", name, fi.Arity, argc))
	}
	return fi.Index, nil
}

func errorAt(span source.Span, msg string) *diag.CompilerError {
	_, line, col := span.LocStart()
	return &diag.CompilerError{Message: msg, Line: line, Col: col, Length: span.Length(), Kind: diag.Compile}
}

func internalErrorAt(span source.Span, msg string) *diag.CompilerError {
	_, line, col := span.LocStart()
	return &diag.CompilerError{Message: msg, Line: line, Col: col, Length: span.Length(), Kind: diag.Internal}
}

// funcCtx is the per-function lowering context: shared CompileCtx
// state (strings, function indices) plus a fresh scope.Table, since
// Pinky functions never close over an enclosing scope (spec.md §4.D).
type funcCtx struct {
	c     *CompileCtx
	scope *scope.Table
}

func newFuncCtx(c *CompileCtx) *funcCtx {
	return &funcCtx{c: c, scope: scope.New()}
}

// resolveHelper adapts CompileCtx's name table into the
// runtime.Indexer shape runtime.Helper.Build expects.
func (c *CompileCtx) resolveHelper(name string) int {
	idx, ok := c.funcNames[name]
	if !ok {
		panic("codegen: unresolved runtime helper or import: " + name)
	}
	return idx
}
