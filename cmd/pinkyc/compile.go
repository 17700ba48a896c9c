package main

import (
	"os"

	"github.com/pkg/errors"

	"pinky/internal/codegen"
	"pinky/internal/diag"
	"pinky/internal/parser"
	"pinky/internal/source"
)

// compileFile mirrors the teacher's load-parse-check-bail flow
// (cmd/vox/main.go's build/run helpers): read the source file, parse
// it, print any diagnostics, then run the back end.
func compileFile(path string) ([]byte, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read %s", path)
	}

	file := source.NewFile(path, string(raw))
	log.Debugf("parsing %s (%d bytes)", path, len(raw))
	prog, diags := parser.Parse(file)
	if !diags.Empty() {
		diag.Print(os.Stderr, diags)
		return nil, nil, errors.New("parse failed")
	}

	log.Debug("lowering to WASM")
	wasmBytes, strTable, cerr := codegen.Compile(file, prog)
	if cerr != nil {
		diag.Print(os.Stderr, &diag.Bag{Items: []diag.Item{{
			Filename: path, Line: cerr.Line, Col: cerr.Col, Length: cerr.Length, Kind: cerr.Kind, Msg: cerr.Message,
		}}})
		return nil, nil, errors.New("compile failed")
	}
	log.Debugf("compiled %d bytes of WASM, %d byte string table", len(wasmBytes), len(strTable))
	return wasmBytes, strTable, nil
}
