// Package runtime hand-authors the fixed catalogue of WASM functions
// that give Pinky's boxed dynamic values their run-time behaviour
// (spec.md §4.C): boxing/unboxing, type predicates, truthiness,
// numeric coercion, string concatenation, modulus and exponentiation.
// Every compiled module carries the same catalogue, in the same
// order, at the same function indices.
//
// Grounded on the boxed-value layout of spec.md §3 and the byte
// builders in internal/encoding; the calling convention (each helper
// a standalone WASM function referenced by symbolic name, resolved to
// a numeric index once at assembly time) mirrors the teacher's
// internal/codegen/emit_func.go, which likewise builds a function
// body against a name→index table rather than hardcoding indices.
package runtime

import "pinky/internal/encoding"

// Tag values for the boxed-value layout (spec.md §3).
const (
	TagNil    = 0
	TagBool   = 1
	TagNumber = 2
	TagString = 3
)

// Byte layout of each boxed value, tag inclusive.
const (
	SizeNil    = 1 // tag
	SizeBool   = 2 // tag + 1 byte payload
	SizeNumber = 9 // tag + 8 byte f64
	SizeString = 9 // tag + 4 byte offset + 4 byte length
)

// Field offsets within a string box.
const (
	StringOffsetField = 1
	StringLenField    = 5
)

// Imported host functions, index space I (spec.md §3, §4.C, §6.4).
// pow, parse_number and format_number cross the host boundary for the
// same reason print/println do: WASM 1.0 has no exponentiation opcode
// and no float/decimal-text conversion primitive in either direction,
// so the coercions that need one are implemented in Go by the host
// shim (internal/hostrun) rather than hand-assembled as WASM byte
// loops. format_number writes its decimal text into the caller's
// scratch buffer at destOff and returns the byte count written, since
// WASM 1.0 functions return only a single value.
var Imports = []Import{
	{Name: "print", Params: []byte{encoding.ValTypeI32}, Results: nil},
	{Name: "println", Params: []byte{encoding.ValTypeI32}, Results: nil},
	{Name: "pow", Params: []byte{encoding.ValTypeF64, encoding.ValTypeF64}, Results: []byte{encoding.ValTypeF64}},
	{Name: "parse_number", Params: []byte{encoding.ValTypeI32, encoding.ValTypeI32}, Results: []byte{encoding.ValTypeF64}},
	{Name: "format_number", Params: []byte{encoding.ValTypeF64, encoding.ValTypeI32}, Results: []byte{encoding.ValTypeI32}},
}

// NumberTextBufSize bounds the scratch buffer to_string allocates
// before asking the host to render a number's decimal text into it.
// Large enough for any float64's shortest round-tripping
// representation, including the longest float 'g'-format exponent
// forms (e.g. "-1.7976931348623157e+308").
const NumberTextBufSize = 32

// Import describes one function imported from the `env` module.
type Import struct {
	Name    string
	Params  []byte
	Results []byte
}

// Indexer resolves a helper or import name to its final function
// index in the assembled module, so a helper's body can `call`
// another helper or an import without knowing indices up front.
type Indexer func(name string) int

// Helper is one entry of the runtime catalogue: a name, signature,
// the extra locals its body needs beyond its parameters, and a body
// builder that receives the fully resolved Indexer.
type Helper struct {
	Name       string
	Params     []byte
	Results    []byte
	ExtraLocal []byte // valtype of each local beyond the parameters
	Build      func(idx Indexer) []byte
}

// heapGlobal is the index of the module's sole global, the heap bump
// pointer (spec.md §6.2: "one mutable i32").
const heapGlobal = 0

// alloc emits `ptr := heap_ptr; heap_ptr += size`, storing ptr into
// local slot ptrSlot and leaving the operand stack empty; callers
// re-read ptrSlot to write the payload and to return the pointer.
func alloc(ptrSlot int, size int) []byte {
	var out []byte
	out = append(out, encoding.GlobalGet(heapGlobal)...)
	out = append(out, encoding.LocalSet(ptrSlot)...)
	out = append(out, encoding.LocalGet(ptrSlot)...)
	out = append(out, encoding.I32Const(int32(size))...)
	out = append(out, encoding.OpI32Add)
	out = append(out, encoding.GlobalSet(heapGlobal)...)
	return out
}

// Catalogue returns the fixed runtime helper list in declaration
// order (spec.md §6.2's "runtime helpers in declaration order").
func Catalogue() []Helper {
	i32 := encoding.ValTypeI32
	f64 := encoding.ValTypeF64

	return []Helper{
		boxNilHelper(i32),
		boxBoolHelper(i32),
		boxNumberHelper(i32, f64),
		boxStringHelper(i32),
		unboxNumberHelper(i32, f64),
		isTagHelper("is_nil", i32, TagNil),
		isTagHelper("is_bool", i32, TagBool),
		isTagHelper("is_number", i32, TagNumber),
		isTagHelper("is_string", i32, TagString),
		isTruthyHelper(i32),
		toNumberHelper(i32, f64),
		toStringHelper(i32, f64),
		concatHelper(i32),
		modHelper(f64),
		mathPowHelper(f64),
	}
}

func boxNilHelper(i32 byte) Helper {
	return Helper{
		Name:       "box_nil",
		Params:     nil,
		Results:    []byte{i32},
		ExtraLocal: []byte{i32}, // local0: ptr
		Build: func(idx Indexer) []byte {
			var out []byte
			out = append(out, alloc(0, SizeNil)...)
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.I32Const(TagNil)...)
			out = append(out, encoding.I32Store8(0)...)
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.OpReturn)
			return out
		},
	}
}

func boxBoolHelper(i32 byte) Helper {
	return Helper{
		Name:       "box_bool",
		Params:     []byte{i32}, // param0: v
		Results:    []byte{i32},
		ExtraLocal: []byte{i32}, // local1: ptr
		Build: func(idx Indexer) []byte {
			var out []byte
			out = append(out, alloc(1, SizeBool)...)
			out = append(out, encoding.LocalGet(1)...)
			out = append(out, encoding.I32Const(TagBool)...)
			out = append(out, encoding.I32Store8(0)...)
			out = append(out, encoding.LocalGet(1)...)
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.I32Store8(1)...)
			out = append(out, encoding.LocalGet(1)...)
			out = append(out, encoding.OpReturn)
			return out
		},
	}
}

func boxNumberHelper(i32, f64 byte) Helper {
	return Helper{
		Name:       "box_number",
		Params:     []byte{f64}, // param0: v
		Results:    []byte{i32},
		ExtraLocal: []byte{i32}, // local1: ptr
		Build: func(idx Indexer) []byte {
			var out []byte
			out = append(out, alloc(1, SizeNumber)...)
			out = append(out, encoding.LocalGet(1)...)
			out = append(out, encoding.I32Const(TagNumber)...)
			out = append(out, encoding.I32Store8(0)...)
			out = append(out, encoding.LocalGet(1)...)
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.F64Store(1)...)
			out = append(out, encoding.LocalGet(1)...)
			out = append(out, encoding.OpReturn)
			return out
		},
	}
}

func boxStringHelper(i32 byte) Helper {
	return Helper{
		Name:       "box_string",
		Params:     []byte{i32, i32}, // param0: offset, param1: len
		Results:    []byte{i32},
		ExtraLocal: []byte{i32}, // local2: ptr
		Build: func(idx Indexer) []byte {
			var out []byte
			out = append(out, alloc(2, SizeString)...)
			out = append(out, encoding.LocalGet(2)...)
			out = append(out, encoding.I32Const(TagString)...)
			out = append(out, encoding.I32Store8(0)...)
			out = append(out, encoding.LocalGet(2)...)
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.I32Store(StringOffsetField)...)
			out = append(out, encoding.LocalGet(2)...)
			out = append(out, encoding.LocalGet(1)...)
			out = append(out, encoding.I32Store(StringLenField)...)
			out = append(out, encoding.LocalGet(2)...)
			out = append(out, encoding.OpReturn)
			return out
		},
	}
}

func unboxNumberHelper(i32, f64 byte) Helper {
	return Helper{
		Name:    "unbox_number",
		Params:  []byte{i32}, // param0: ptr
		Results: []byte{f64},
		Build: func(idx Indexer) []byte {
			var out []byte
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.F64Load(1)...)
			out = append(out, encoding.OpReturn)
			return out
		},
	}
}

// isTagHelper builds one of is_nil/is_bool/is_number/is_string. Per
// spec.md §4.C's table these return a RAW i32 0/1, not a boxed
// boolean — see DESIGN.md's "double-boxing" open-question decision:
// the codegen call site is responsible for wrapping the result in
// box_bool exactly once when a Pinky script calls one of these as a
// built-in function.
func isTagHelper(name string, i32 byte, tag int32) Helper {
	return Helper{
		Name:    name,
		Params:  []byte{i32}, // param0: ptr
		Results: []byte{i32},
		Build: func(idx Indexer) []byte {
			var out []byte
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.I32Load8U(0)...)
			out = append(out, encoding.I32Const(tag)...)
			out = append(out, encoding.OpI32Eq)
			out = append(out, encoding.OpReturn)
			return out
		},
	}
}

// isTruthyHelper: false only when tag=nil, or tag=bool with a zero
// payload (spec.md §4.C).
func isTruthyHelper(i32 byte) Helper {
	return Helper{
		Name:       "is_truthy",
		Params:     []byte{i32}, // param0: ptr
		Results:    []byte{i32},
		ExtraLocal: []byte{i32}, // local1: tag
		Build: func(idx Indexer) []byte {
			var out []byte
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.I32Load8U(0)...)
			out = append(out, encoding.LocalSet(1)...)

			// tag == nil -> return 0
			out = append(out, encoding.LocalGet(1)...)
			out = append(out, encoding.I32Const(TagNil)...)
			out = append(out, encoding.OpI32Eq)
			out = append(out, encoding.If(encoding.BlockTypeEmpty)...)
			out = append(out, encoding.I32Const(0)...)
			out = append(out, encoding.OpReturn)
			out = append(out, encoding.OpEnd)

			// tag == bool -> return payload byte verbatim (already 0/1)
			out = append(out, encoding.LocalGet(1)...)
			out = append(out, encoding.I32Const(TagBool)...)
			out = append(out, encoding.OpI32Eq)
			out = append(out, encoding.If(encoding.BlockTypeEmpty)...)
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.I32Load8U(1)...)
			out = append(out, encoding.OpReturn)
			out = append(out, encoding.OpEnd)

			// number or string: always truthy
			out = append(out, encoding.I32Const(1)...)
			out = append(out, encoding.OpReturn)
			return out
		},
	}
}

// toNumberHelper coerces any boxed value to a boxed number: booleans
// become 0.0/1.0, numbers pass through unchanged, nil becomes 0.0,
// strings are parsed via the imported host helper (NaN on failure).
func toNumberHelper(i32, f64 byte) Helper {
	return Helper{
		Name:       "to_number",
		Params:     []byte{i32}, // param0: ptr
		Results:    []byte{i32},
		ExtraLocal: []byte{i32}, // local1: tag
		Build: func(idx Indexer) []byte {
			var out []byte
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.I32Load8U(0)...)
			out = append(out, encoding.LocalSet(1)...)

			// number: already boxed, pass through
			out = append(out, encoding.LocalGet(1)...)
			out = append(out, encoding.I32Const(TagNumber)...)
			out = append(out, encoding.OpI32Eq)
			out = append(out, encoding.If(encoding.BlockTypeEmpty)...)
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.OpReturn)
			out = append(out, encoding.OpEnd)

			// bool: convert 0/1 payload to f64 then box
			out = append(out, encoding.LocalGet(1)...)
			out = append(out, encoding.I32Const(TagBool)...)
			out = append(out, encoding.OpI32Eq)
			out = append(out, encoding.If(encoding.BlockTypeEmpty)...)
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.I32Load8U(1)...)
			out = append(out, encoding.OpF64ConvertI32U)
			out = append(out, encoding.Call(idx("box_number"))...)
			out = append(out, encoding.OpReturn)
			out = append(out, encoding.OpEnd)

			// string: parse via host, NaN on failure
			out = append(out, encoding.LocalGet(1)...)
			out = append(out, encoding.I32Const(TagString)...)
			out = append(out, encoding.OpI32Eq)
			out = append(out, encoding.If(encoding.BlockTypeEmpty)...)
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.I32Load(StringOffsetField)...)
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.I32Load(StringLenField)...)
			out = append(out, encoding.Call(idx("parse_number"))...)
			out = append(out, encoding.Call(idx("box_number"))...)
			out = append(out, encoding.OpReturn)
			out = append(out, encoding.OpEnd)

			// nil (or anything else): 0.0
			out = append(out, encoding.F64Const(0)...)
			out = append(out, encoding.Call(idx("box_number"))...)
			out = append(out, encoding.OpReturn)
			return out
		},
	}
}

// toStringHelper renders any boxed value as a boxed string (spec.md
// §4.E's "stringify each operand" contract for `+`): strings pass
// through unchanged, numbers are rendered via the host's
// format_number into a scratch buffer, booleans and nil are the
// literal byte sequences "true"/"false"/"nil" written directly by
// i32.store8, all then wrapped with box_string.
func toStringHelper(i32, f64 byte) Helper {
	return Helper{
		Name:       "to_string",
		Params:     []byte{i32}, // param0: ptr
		Results:    []byte{i32},
		ExtraLocal: []byte{i32, i32, i32}, // local1 tag, local2 buf, local3 len
		Build: func(idx Indexer) []byte {
			var out []byte
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.I32Load8U(0)...)
			out = append(out, encoding.LocalSet(1)...)

			// already a string: pass through
			out = append(out, encoding.LocalGet(1)...)
			out = append(out, encoding.I32Const(TagString)...)
			out = append(out, encoding.OpI32Eq)
			out = append(out, encoding.If(encoding.BlockTypeEmpty)...)
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.OpReturn)
			out = append(out, encoding.OpEnd)

			// number: host renders decimal text into a scratch buffer
			out = append(out, encoding.LocalGet(1)...)
			out = append(out, encoding.I32Const(TagNumber)...)
			out = append(out, encoding.OpI32Eq)
			out = append(out, encoding.If(encoding.BlockTypeEmpty)...)
			out = append(out, alloc(2, NumberTextBufSize)...)
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.F64Load(1)...)
			out = append(out, encoding.LocalGet(2)...)
			out = append(out, encoding.Call(idx("format_number"))...)
			out = append(out, encoding.LocalSet(3)...)
			out = append(out, encoding.LocalGet(2)...)
			out = append(out, encoding.LocalGet(3)...)
			out = append(out, encoding.Call(idx("box_string"))...)
			out = append(out, encoding.OpReturn)
			out = append(out, encoding.OpEnd)

			// bool: literal "true" or "false"
			out = append(out, encoding.LocalGet(1)...)
			out = append(out, encoding.I32Const(TagBool)...)
			out = append(out, encoding.OpI32Eq)
			out = append(out, encoding.If(encoding.BlockTypeEmpty)...)
			out = append(out, alloc(2, len("false"))...)
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.I32Load8U(1)...)
			out = append(out, encoding.If(encoding.BlockTypeEmpty)...)
			out = append(out, writeLiteralBytes(2, "true")...)
			out = append(out, encoding.I32Const(int32(len("true")))...)
			out = append(out, encoding.LocalSet(3)...)
			out = append(out, encoding.OpElse)
			out = append(out, writeLiteralBytes(2, "false")...)
			out = append(out, encoding.I32Const(int32(len("false")))...)
			out = append(out, encoding.LocalSet(3)...)
			out = append(out, encoding.OpEnd)
			out = append(out, encoding.LocalGet(2)...)
			out = append(out, encoding.LocalGet(3)...)
			out = append(out, encoding.Call(idx("box_string"))...)
			out = append(out, encoding.OpReturn)
			out = append(out, encoding.OpEnd)

			// nil: literal "nil"
			out = append(out, alloc(2, len("nil"))...)
			out = append(out, writeLiteralBytes(2, "nil")...)
			out = append(out, encoding.LocalGet(2)...)
			out = append(out, encoding.I32Const(int32(len("nil")))...)
			out = append(out, encoding.Call(idx("box_string"))...)
			out = append(out, encoding.OpReturn)
			return out
		},
	}
}

// writeLiteralBytes emits one i32.store8 per byte of s, storing into
// the buffer whose base address already sits in bufSlot.
func writeLiteralBytes(bufSlot int, s string) []byte {
	var out []byte
	for i := 0; i < len(s); i++ {
		out = append(out, encoding.LocalGet(bufSlot)...)
		out = append(out, encoding.I32Const(int32(s[i]))...)
		out = append(out, encoding.I32Store8(i)...)
	}
	return out
}

// concatHelper concatenates two already-string boxed values into a
// freshly heap-allocated string box by copying their raw character
// bytes. Every call site (lowerPlus) first routes each operand through
// to_string, so concat itself only ever sees two string boxes.
func concatHelper(i32 byte) Helper {
	return Helper{
		Name:    "concat",
		Params:  []byte{i32, i32}, // param0: aPtr, param1: bPtr
		Results: []byte{i32},
		// local2 aOff, local3 aLen, local4 bOff, local5 bLen,
		// local6 charStart, local7 i, local8 destBase, local9 srcBase
		ExtraLocal: []byte{i32, i32, i32, i32, i32, i32, i32, i32},
		Build: func(idx Indexer) []byte {
			var out []byte
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.I32Load(StringOffsetField)...)
			out = append(out, encoding.LocalSet(2)...) // aOff
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.I32Load(StringLenField)...)
			out = append(out, encoding.LocalSet(3)...) // aLen
			out = append(out, encoding.LocalGet(1)...)
			out = append(out, encoding.I32Load(StringOffsetField)...)
			out = append(out, encoding.LocalSet(4)...) // bOff
			out = append(out, encoding.LocalGet(1)...)
			out = append(out, encoding.I32Load(StringLenField)...)
			out = append(out, encoding.LocalSet(5)...) // bLen

			out = append(out, encoding.GlobalGet(heapGlobal)...)
			out = append(out, encoding.LocalSet(6)...) // charStart

			// copy A: destBase = charStart, srcBase = aOff, len = aLen
			out = append(out, encoding.LocalGet(6)...)
			out = append(out, encoding.LocalSet(8)...) // destBase
			out = append(out, encoding.LocalGet(2)...)
			out = append(out, encoding.LocalSet(9)...) // srcBase
			out = append(out, copyLoop(7, 8, 9, 3)...)

			// copy B: destBase = charStart + aLen, srcBase = bOff, len = bLen
			out = append(out, encoding.LocalGet(6)...)
			out = append(out, encoding.LocalGet(3)...)
			out = append(out, encoding.OpI32Add)
			out = append(out, encoding.LocalSet(8)...) // destBase
			out = append(out, encoding.LocalGet(4)...)
			out = append(out, encoding.LocalSet(9)...) // srcBase
			out = append(out, copyLoop(7, 8, 9, 5)...)

			// heap_ptr = charStart + aLen + bLen (past the copied chars,
			// box_string bumps it further for the header itself)
			out = append(out, encoding.LocalGet(6)...)
			out = append(out, encoding.LocalGet(3)...)
			out = append(out, encoding.OpI32Add)
			out = append(out, encoding.LocalGet(5)...)
			out = append(out, encoding.OpI32Add)
			out = append(out, encoding.GlobalSet(heapGlobal)...)

			out = append(out, encoding.LocalGet(6)...) // charStart
			out = append(out, encoding.LocalGet(3)...)
			out = append(out, encoding.LocalGet(5)...)
			out = append(out, encoding.OpI32Add) // aLen + bLen
			out = append(out, encoding.Call(idx("box_string"))...)
			out = append(out, encoding.OpReturn)
			return out
		},
	}
}

// copyLoop builds a byte-copy loop: for i in 0..len {
// store8(destBase+i, load8u(srcBase+i)) }, using iSlot as the counter.
func copyLoop(iSlot, destBaseSlot, srcBaseSlot, lenSlot int) []byte {
	var out []byte
	out = append(out, encoding.I32Const(0)...)
	out = append(out, encoding.LocalSet(iSlot)...)

	out = append(out, encoding.Block(encoding.BlockTypeEmpty)...)
	out = append(out, encoding.Loop(encoding.BlockTypeEmpty)...)

	// if i >= len, br 1 (exit block)
	out = append(out, encoding.LocalGet(iSlot)...)
	out = append(out, encoding.LocalGet(lenSlot)...)
	out = append(out, encoding.OpI32GeU)
	out = append(out, encoding.BrIf(1)...)

	// store8(destBase+i, load8u(srcBase+i))
	out = append(out, encoding.LocalGet(destBaseSlot)...)
	out = append(out, encoding.LocalGet(iSlot)...)
	out = append(out, encoding.OpI32Add)
	out = append(out, encoding.LocalGet(srcBaseSlot)...)
	out = append(out, encoding.LocalGet(iSlot)...)
	out = append(out, encoding.OpI32Add)
	out = append(out, encoding.I32Load8U(0)...)
	out = append(out, encoding.I32Store8(0)...)

	// i += 1; br 0 (continue loop)
	out = append(out, encoding.LocalGet(iSlot)...)
	out = append(out, encoding.I32Const(1)...)
	out = append(out, encoding.OpI32Add)
	out = append(out, encoding.LocalSet(iSlot)...)
	out = append(out, encoding.Br(0)...)

	out = append(out, encoding.OpEnd) // loop
	out = append(out, encoding.OpEnd) // block
	return out
}

// modHelper implements floored modulus: `a - floor(a/b)*b`, so the
// result carries the divisor's sign (DESIGN.md's mod decision).
func modHelper(f64 byte) Helper {
	return Helper{
		Name:    "mod",
		Params:  []byte{f64, f64}, // param0: a, param1: b
		Results: []byte{f64},
		Build: func(idx Indexer) []byte {
			var out []byte
			out = append(out, encoding.LocalGet(0)...) // a
			out = append(out, encoding.LocalGet(0)...) // a
			out = append(out, encoding.LocalGet(1)...) // b
			out = append(out, encoding.OpF64Div)
			out = append(out, encoding.OpF64Floor)
			out = append(out, encoding.LocalGet(1)...) // b
			out = append(out, encoding.OpF64Mul)
			out = append(out, encoding.OpF64Sub)
			out = append(out, encoding.OpReturn)
			return out
		},
	}
}

// mathPowHelper delegates to the imported host pow (spec.md §4.C:
// "IEEE-754 exponentiation" — WASM 1.0 has no native pow opcode).
func mathPowHelper(f64 byte) Helper {
	return Helper{
		Name:    "math_pow",
		Params:  []byte{f64, f64},
		Results: []byte{f64},
		Build: func(idx Indexer) []byte {
			var out []byte
			out = append(out, encoding.LocalGet(0)...)
			out = append(out, encoding.LocalGet(1)...)
			out = append(out, encoding.Call(idx("pow"))...)
			out = append(out, encoding.OpReturn)
			return out
		},
	}
}
