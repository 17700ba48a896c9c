// Package hostrun is the reference runtime host shim (spec.md §6.4):
// it instantiates a compiled Pinky module with wazero, supplies the
// `env` imports the runtime library and codegen driver assume exist
// (`print`, `println`, `pow`, `parse_number`, `format_number`), and
// decodes boxed values straight out of linear memory to collect the
// program's output.
//
// Grounded on other_examples/tetratelabs-wazero__module.go for the
// import/export module shape; this package is the one place in the
// repo that exercises a real WASM execution engine rather than just
// emitting bytes, using github.com/tetratelabs/wazero.
package hostrun

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"pinky/internal/runtime"
)

// Run instantiates the compiled module bytes and calls its exported
// `main`, returning every string the program printed, in emission
// order (spec.md §6.4: "the host collects emitted strings into an
// ordered list").
func Run(ctx context.Context, wasmBytes []byte) ([]string, error) {
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	var output []string
	decode := func(mod api.Module, ptr uint32) string {
		return decodeBoxedValue(mod.Memory(), ptr)
	}

	envBuilder := r.NewHostModuleBuilder("env")
	envBuilder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, ptr uint32) {
			output = append(output, decode(mod, ptr))
		}).
		Export("print")
	envBuilder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, ptr uint32) {
			output = append(output, decode(mod, ptr)+"\n")
		}).
		Export("println")
	envBuilder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, a, b float64) float64 {
			return math.Pow(a, b)
		}).
		Export("pow")
	envBuilder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, off, length uint32) float64 {
			raw, ok := mod.Memory().Read(off, length)
			if !ok {
				return math.NaN()
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
			if err != nil {
				return math.NaN()
			}
			return v
		}).
		Export("parse_number")
	envBuilder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, v float64, destOff uint32) uint32 {
			text := formatNumber(v)
			if !mod.Memory().Write(destOff, []byte(text)) {
				return 0
			}
			return uint32(len(text))
		}).
		Export("format_number")

	if _, err := envBuilder.Instantiate(ctx); err != nil {
		return nil, errors.Wrap(err, "hostrun: instantiate env module")
	}

	mod, err := r.Instantiate(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Wrap(err, "hostrun: instantiate compiled module")
	}

	main := mod.ExportedFunction("main")
	if main == nil {
		return nil, errors.New("hostrun: compiled module exports no \"main\" function")
	}
	if _, err := main.Call(ctx); err != nil {
		return nil, errors.Wrap(err, "hostrun: call main")
	}
	return output, nil
}

// decodeBoxedValue reads the tag at p and renders the boxed value as
// text per spec.md §6.4: nil -> "nil"; bool -> "true"/"false"; number
// -> decimal text; string -> the len bytes at offset.
func decodeBoxedValue(mem api.Memory, p uint32) string {
	tag, ok := mem.ReadByte(p)
	if !ok {
		return ""
	}
	switch tag {
	case runtime.TagNil:
		return "nil"
	case runtime.TagBool:
		v, _ := mem.ReadByte(p + 1)
		if v != 0 {
			return "true"
		}
		return "false"
	case runtime.TagNumber:
		bits, ok := mem.ReadUint64Le(p + 1)
		if !ok {
			return ""
		}
		return formatNumber(math.Float64frombits(bits))
	case runtime.TagString:
		off, _ := mem.ReadUint32Le(p + runtime.StringOffsetField)
		length, _ := mem.ReadUint32Le(p + runtime.StringLenField)
		raw, ok := mem.Read(off, length)
		if !ok {
			return ""
		}
		return string(raw)
	default:
		return fmt.Sprintf("<unknown tag %d>", tag)
	}
}

// formatNumber renders a Pinky number the way a dynamically-typed
// scripting language usually does: integral values below 1e21 in
// magnitude print without a trailing ".0"; larger values use the
// shortest 'g' (exponent) form, so the text always fits
// runtime.NumberTextBufSize.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
