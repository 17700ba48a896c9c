// Package encoding provides the primitive WASM 1.0 binary-format
// encoders the rest of the back end builds on (spec.md §4.A): LEB128
// integers, little-endian f64, length-prefixed strings, section
// framing, and the opcode bytes used by codegen.
//
// Grounded on other_examples/tetratelabs-wazero__encoder.go and
// __code.go for the append-length-prefix-after-computing-payload
// idiom; the LEB128 bit manipulation itself is plain stdlib since no
// retrieved third-party library implements DWARF LEB128 encoding.
package encoding

import (
	"encoding/binary"
	"math"
)

// Uleb128 encodes n as an unsigned LEB128 byte sequence.
func Uleb128(n uint64) []byte {
	var out []byte
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if n == 0 {
			return out
		}
	}
}

// Sleb128 encodes n as a signed LEB128 byte sequence.
func Sleb128(n int64) []byte {
	var out []byte
	more := true
	for more {
		b := byte(n & 0x7f)
		n >>= 7
		signBitSet := b&0x40 != 0
		if (n == 0 && !signBitSet) || (n == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

// F64Bytes returns the 8 little-endian bytes of x's IEEE-754 bit
// pattern (no opcode prefix).
func F64Bytes(x float64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(x))
	return buf
}

// F64Const emits `f64.const x`: opcode 0x44 followed by 8
// little-endian bytes.
func F64Const(x float64) []byte {
	return append([]byte{OpF64Const}, F64Bytes(x)...)
}

// I32Const emits `i32.const n`: opcode 0x41 followed by sleb128(n).
func I32Const(n int32) []byte {
	return append([]byte{OpI32Const}, Sleb128(int64(n))...)
}

// EncodeString emits a length-prefixed UTF-8 string:
// uleb128(byte_length(s)) followed by the raw bytes.
func EncodeString(s string) []byte {
	return append(Uleb128(uint64(len(s))), []byte(s)...)
}

// EmitSection wraps payload as `[id, uleb128(len(payload)), payload...]`.
func EmitSection(id byte, payload []byte) []byte {
	out := []byte{id}
	out = append(out, Uleb128(uint64(len(payload)))...)
	out = append(out, payload...)
	return out
}

// LocalGet / LocalSet / LocalTee / Call append the opcode and a
// uleb128 index.
func LocalGet(slot int) []byte { return append([]byte{OpLocalGet}, Uleb128(uint64(slot))...) }
func LocalSet(slot int) []byte { return append([]byte{OpLocalSet}, Uleb128(uint64(slot))...) }
func LocalTee(slot int) []byte { return append([]byte{OpLocalTee}, Uleb128(uint64(slot))...) }
func Call(fnIndex int) []byte  { return append([]byte{OpCall}, Uleb128(uint64(fnIndex))...) }

// GlobalGet / GlobalSet append the opcode and a uleb128 global index.
func GlobalGet(idx int) []byte { return append([]byte{OpGlobalGet}, Uleb128(uint64(idx))...) }
func GlobalSet(idx int) []byte { return append([]byte{OpGlobalSet}, Uleb128(uint64(idx))...) }

// memArg encodes a memory instruction's (align, offset) immediate
// pair. Every load/store below uses natural alignment as a hint;
// WASM engines accept unaligned addresses regardless.
func memArg(align uint32, offset int) []byte {
	out := Uleb128(uint64(align))
	out = append(out, Uleb128(uint64(offset))...)
	return out
}

// Loads and stores used by the runtime library's boxed-value layout
// (spec.md §3): a 1-byte tag followed by a payload. These are not in
// spec.md §6.3's illustrative opcode subset, but boxing/unboxing is
// impossible without them, so they are supplemented here.
func I32Load(offset int) []byte   { return append([]byte{OpI32Load}, memArg(2, offset)...) }
func I32Load8U(offset int) []byte { return append([]byte{OpI32Load8U}, memArg(0, offset)...) }
func F64Load(offset int) []byte   { return append([]byte{OpF64Load}, memArg(3, offset)...) }
func I32Store(offset int) []byte  { return append([]byte{OpI32Store}, memArg(2, offset)...) }
func I32Store8(offset int) []byte { return append([]byte{OpI32Store8}, memArg(0, offset)...) }
func F64Store(offset int) []byte  { return append([]byte{OpF64Store}, memArg(3, offset)...) }

// Br / BrIf append the opcode and a uleb128 relative branch depth.
func Br(depth int) []byte   { return append([]byte{OpBr}, Uleb128(uint64(depth))...) }
func BrIf(depth int) []byte { return append([]byte{OpBrIf}, Uleb128(uint64(depth))...) }

// Block / Loop / If open a structured control construct with the
// given block type (0x40 = empty/"none", 0x7F = i32, 0x7C = f64).
func Block(blockType byte) []byte { return []byte{OpBlock, blockType} }
func Loop(blockType byte) []byte  { return []byte{OpLoop, blockType} }
func If(blockType byte) []byte    { return []byte{OpIf, blockType} }

const (
	BlockTypeEmpty byte = 0x40
	BlockTypeI32   byte = 0x7F
	BlockTypeF64   byte = 0x7C
)

// ValType bytes.
const (
	ValTypeI32 byte = 0x7F
	ValTypeF64 byte = 0x7C
)

// Section IDs, in the fixed emission order spec.md §6.2 mandates.
const (
	SectionType     byte = 1
	SectionImport   byte = 2
	SectionFunction byte = 3
	SectionTable    byte = 4
	SectionMemory   byte = 5
	SectionGlobal   byte = 6
	SectionExport   byte = 7
	SectionStart    byte = 8
	SectionElement  byte = 9
	SectionCode     byte = 10
	SectionData     byte = 11
)

// Opcode constants, spec.md §6.3.
const (
	OpUnreachable byte = 0x00
	OpBlock       byte = 0x02
	OpLoop        byte = 0x03
	OpIf          byte = 0x04
	OpElse        byte = 0x05
	OpEnd         byte = 0x0B
	OpBr          byte = 0x0C
	OpBrIf        byte = 0x0D
	OpReturn      byte = 0x0F
	OpCall        byte = 0x10
	OpDrop        byte = 0x1A
	OpLocalGet    byte = 0x20
	OpLocalSet    byte = 0x21
	OpLocalTee    byte = 0x22
	OpGlobalGet   byte = 0x23
	OpGlobalSet   byte = 0x24

	OpI32Load   byte = 0x28
	OpF64Load   byte = 0x2B
	OpI32Load8U byte = 0x2D
	OpI32Store  byte = 0x36
	OpF64Store  byte = 0x39
	OpI32Store8 byte = 0x3A

	OpI32Const byte = 0x41
	OpF64Const byte = 0x44

	OpF64ConvertI32U byte = 0xB8

	OpI32Eqz byte = 0x45
	OpI32Eq  byte = 0x46
	OpI32Ne  byte = 0x47
	OpI32LtS byte = 0x48
	OpI32GeU byte = 0x4F
	OpI32Or  byte = 0x72
	OpI32And byte = 0x71
	OpI32Xor byte = 0x73
	OpI32Add byte = 0x6A
	OpI32Sub byte = 0x6B

	OpF64Eq  byte = 0x61
	OpF64Ne  byte = 0x62
	OpF64Lt  byte = 0x63
	OpF64Gt  byte = 0x64
	OpF64Le  byte = 0x65
	OpF64Ge  byte = 0x66
	OpF64Floor byte = 0x9C
	OpF64Add byte = 0xA0
	OpF64Sub byte = 0xA1
	OpF64Mul byte = 0xA2
	OpF64Div byte = 0xA3
	OpF64Neg byte = 0x9A
)

// Magic and version header every module opens with (spec.md §8.4).
var Magic = []byte{0x00, 0x61, 0x73, 0x6D}
var Version = []byte{0x01, 0x00, 0x00, 0x00}
