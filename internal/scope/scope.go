// Package scope implements the lexical scope stack, local-slot
// allocator, and function-symbol registry the AST-lowering pass uses
// (spec.md §4.D).
//
// Grounded on the teacher's internal/typecheck/scope.go
// push/pop-scope-stack + innermost-out lookup pattern, rewritten
// around raw slot indices instead of type-checked variable bindings —
// Pinky locals carry no static type, only a slot number holding a
// boxed pointer.
package scope

import "pinky/internal/encoding"

// Table is the per-function lexical scope stack and slot allocator.
// Every user-defined function (and the synthetic main body) gets its
// own fresh Table: Pinky has no closures, so nothing is shared across
// function boundaries (spec.md §4.D, §9 "Closures").
type Table struct {
	stack []map[string]int
	next  int
}

func New() *Table {
	return &Table{stack: []map[string]int{{}}}
}

func (t *Table) EnterScope() { t.stack = append(t.stack, map[string]int{}) }

func (t *Table) ExitScope() { t.stack = t.stack[:len(t.stack)-1] }

// Declare assigns a slot to name. When local is true (the `:=` form)
// a new slot is always created in the top scope, shadowing any outer
// binding. When local is false (the `=` form) the outer scopes are
// searched first and the existing slot reused; only when no binding
// exists anywhere is a new slot created in the top scope.
func (t *Table) Declare(name string, local bool) int {
	if !local {
		if slot, ok := t.Lookup(name); ok {
			return slot
		}
	}
	slot := t.alloc()
	t.top()[name] = slot
	return slot
}

// Lookup walks the scope stack innermost-out.
func (t *Table) Lookup(name string) (int, bool) {
	for i := len(t.stack) - 1; i >= 0; i-- {
		if slot, ok := t.stack[i][name]; ok {
			return slot, true
		}
	}
	return 0, false
}

// ConsumeScratch allocates an anonymous local slot for a codegen
// temporary (e.g. the left operand stashed by short-circuit and/or).
func (t *Table) ConsumeScratch() int {
	return t.alloc()
}

// DeclareParam allocates the next slot for a function parameter.
// Callers must invoke this once per parameter, in order, before any
// other allocation, so parameters land on slots 0..N-1.
func (t *Table) DeclareParam(name string) int {
	return t.Declare(name, true)
}

func (t *Table) top() map[string]int { return t.stack[len(t.stack)-1] }

func (t *Table) alloc() int {
	s := t.next
	t.next++
	return s
}

// LocalDecls emits the WASM local-declaration prelude for a function
// body: a single group of `(next-paramCount) x i32` covering every
// slot beyond the parameters (spec.md §4.D). All Pinky locals are
// boxed pointers, so one uniform group always suffices.
func (t *Table) LocalDecls(paramCount int) []byte {
	extra := t.next - paramCount
	if extra <= 0 {
		return encoding.Uleb128(0)
	}
	out := encoding.Uleb128(1)
	out = append(out, encoding.Uleb128(uint64(extra))...)
	out = append(out, encoding.ValTypeI32)
	return out
}

// FuncInfo records a user-defined function's assigned index and
// parameter count for call-site arity checking (spec.md §4.E).
type FuncInfo struct {
	Index int
	Arity int
}

// FuncRegistry is the third disjoint function-index space of spec.md
// §3: user-defined functions, keyed by name.
type FuncRegistry struct {
	funcs map[string]FuncInfo
	order []string
}

func NewFuncRegistry() *FuncRegistry {
	return &FuncRegistry{funcs: make(map[string]FuncInfo)}
}

// Declare registers name at index with the given arity. It returns
// false if name is already declared (spec.md's duplicate-function
// compile error).
func (r *FuncRegistry) Declare(name string, index, arity int) bool {
	if _, exists := r.funcs[name]; exists {
		return false
	}
	r.funcs[name] = FuncInfo{Index: index, Arity: arity}
	r.order = append(r.order, name)
	return true
}

func (r *FuncRegistry) Lookup(name string) (FuncInfo, bool) {
	fi, ok := r.funcs[name]
	return fi, ok
}

// Names returns declared function names in declaration order.
func (r *FuncRegistry) Names() []string {
	return append([]string(nil), r.order...)
}
