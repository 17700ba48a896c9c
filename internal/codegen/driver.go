package codegen

import (
	"pinky/internal/ast"
	"pinky/internal/diag"
	"pinky/internal/encoding"
	"pinky/internal/source"
)

// compiledFunc is one Code-section entry: its final type index and
// already-encoded local-declaration-prelude-plus-instructions body
// (missing only the trailing `end` and the leading body-size prefix,
// both added at assembly time).
type compiledFunc struct {
	typeIdx int
	body    []byte // locals decl + instructions, no size prefix, no trailing end
}

// compileUserFunc lowers one top-level function declaration (spec.md
// §4.E "FunctionDeclStatement"): a fresh scope with parameters
// declared as locals 0..N-1, no lexical access to the enclosing
// program (no closures), and a `call box_nil; return` appended so the
// function always yields a boxed value even on fall-through.
func (c *CompileCtx) compileUserFunc(fd *ast.FuncDeclStmt) (compiledFunc, *diag.CompilerError) {
	fc := newFuncCtx(c)
	for _, p := range fd.Params {
		fc.scope.DeclareParam(p)
	}
	body, err := fc.lowerBlock(fd.Body, false)
	if err != nil {
		return compiledFunc{}, err
	}
	body = append(body, encoding.Call(c.resolveHelper("box_nil"))...)
	body = append(body, encoding.OpReturn)

	locals := fc.scope.LocalDecls(len(fd.Params))
	full := append(append([]byte{}, locals...), body...)

	params := make([]byte, len(fd.Params))
	for i := range params {
		params[i] = encoding.ValTypeI32
	}
	typeIdx := c.typeIndexFor(params, []byte{encoding.ValTypeI32})
	return compiledFunc{typeIdx: typeIdx, body: full}, nil
}

// compileMain lowers the program's top-level statements (function
// declarations excluded — each already compiles into its own
// function) into a synthetic, zero-result, zero-parameter function
// exported as "main" (spec.md §6.2).
func (c *CompileCtx) compileMain(prog *ast.Program) (compiledFunc, *diag.CompilerError) {
	fc := newFuncCtx(c)
	body, err := fc.lowerBlock(prog.Stmts, true)
	if err != nil {
		return compiledFunc{}, err
	}
	locals := fc.scope.LocalDecls(0)
	full := append(append([]byte{}, locals...), body...)
	typeIdx := c.typeIndexFor(nil, nil)
	return compiledFunc{typeIdx: typeIdx, body: full}, nil
}

// Compile is the top-level compile driver (spec.md §2, §6.1): it
// resets all per-invocation state via a fresh CompileCtx, lowers the
// program, and assembles every WASM section in the mandated order —
// Type, Import, Function, Memory, Global, Export, Code, Data.
func Compile(file *source.File, prog *ast.Program) (bytes []byte, strings []byte, cerr *diag.CompilerError) {
	c := newCompileCtx(file)

	if err := c.registerFunctions(prog); err != nil {
		return nil, nil, err
	}

	// Fix each function's type index in final index order: imports,
	// helpers, user functions, main. Import types are registered here
	// even though imports carry no Code-section body.
	for _, imp := range c.imports {
		idx := c.typeIndexFor(imp.Params, imp.Results)
		c.funcType[c.funcNames[imp.Name]] = idx
	}

	compiledHelpers := make([]compiledFunc, len(c.helpers))
	for i, h := range c.helpers {
		typeIdx := c.typeIndexFor(h.Params, h.Results)
		body := h.Build(c.resolveHelper)
		var locals []byte
		if len(h.ExtraLocal) > 0 {
			locals = encoding.Uleb128(1)
			locals = append(locals, encoding.Uleb128(uint64(len(h.ExtraLocal)))...)
			locals = append(locals, h.ExtraLocal[0])
		} else {
			locals = encoding.Uleb128(0)
		}
		compiledHelpers[i] = compiledFunc{typeIdx: typeIdx, body: append(locals, body...)}
		c.funcType[len(c.imports)+i] = typeIdx
	}

	compiledUsers := make([]compiledFunc, len(c.userOrder))
	for i, fd := range c.userOrder {
		cf, err := c.compileUserFunc(fd)
		if err != nil {
			return nil, nil, err
		}
		compiledUsers[i] = cf
		c.funcType[len(c.imports)+len(c.helpers)+i] = cf.typeIdx
	}

	mainFn, err := c.compileMain(prog)
	if err != nil {
		return nil, nil, err
	}
	c.funcType[c.mainIndex] = mainFn.typeIdx

	strBytes := c.strings.Bytes()

	return assembleModule(c, compiledHelpers, compiledUsers, mainFn, strBytes), strBytes, nil
}

func assembleModule(c *CompileCtx, helpers, users []compiledFunc, main compiledFunc, strBytes []byte) []byte {
	// Type section
	var typePayload []byte
	typePayload = append(typePayload, encoding.Uleb128(uint64(len(c.types)))...)
	for _, t := range c.types {
		typePayload = append(typePayload, 0x60) // functype tag
		typePayload = append(typePayload, encoding.Uleb128(uint64(len(t.Params)))...)
		typePayload = append(typePayload, t.Params...)
		typePayload = append(typePayload, encoding.Uleb128(uint64(len(t.Results)))...)
		typePayload = append(typePayload, t.Results...)
	}

	// Import section
	var importPayload []byte
	importPayload = append(importPayload, encoding.Uleb128(uint64(len(c.imports)))...)
	for _, imp := range c.imports {
		importPayload = append(importPayload, encoding.EncodeString("env")...)
		importPayload = append(importPayload, encoding.EncodeString(imp.Name)...)
		importPayload = append(importPayload, 0x00) // import kind: func
		importPayload = append(importPayload, encoding.Uleb128(uint64(c.funcType[c.funcNames[imp.Name]]))...)
	}

	// Function section: type indices for helpers, user funcs, main
	var fnPayload []byte
	total := len(helpers) + len(users) + 1
	fnPayload = append(fnPayload, encoding.Uleb128(uint64(total))...)
	for _, h := range helpers {
		fnPayload = append(fnPayload, encoding.Uleb128(uint64(h.typeIdx))...)
	}
	for _, u := range users {
		fnPayload = append(fnPayload, encoding.Uleb128(uint64(u.typeIdx))...)
	}
	fnPayload = append(fnPayload, encoding.Uleb128(uint64(main.typeIdx))...)

	// Memory section: one memory, limits { min: 16, max: none }
	memPayload := append(encoding.Uleb128(1), 0x00)
	memPayload = append(memPayload, encoding.Uleb128(16)...)

	// Global section: one mutable i32, init = string_table_len + 1
	var globalPayload []byte
	globalPayload = append(globalPayload, encoding.Uleb128(1)...)
	globalPayload = append(globalPayload, encoding.ValTypeI32, 0x01) // mutable
	globalPayload = append(globalPayload, encoding.I32Const(int32(len(strBytes)+1))...)
	globalPayload = append(globalPayload, encoding.OpEnd)

	// Export section: "main" and "memory"
	var exportPayload []byte
	exportPayload = append(exportPayload, encoding.Uleb128(2)...)
	exportPayload = append(exportPayload, encoding.EncodeString("main")...)
	exportPayload = append(exportPayload, 0x00) // export kind: func
	exportPayload = append(exportPayload, encoding.Uleb128(uint64(c.mainIndex))...)
	exportPayload = append(exportPayload, encoding.EncodeString("memory")...)
	exportPayload = append(exportPayload, 0x02) // export kind: memory
	exportPayload = append(exportPayload, encoding.Uleb128(0)...)

	// Code section: helpers, then user functions, then main, in that order
	var codePayload []byte
	codePayload = append(codePayload, encoding.Uleb128(uint64(total))...)
	appendBody := func(cf compiledFunc) {
		full := append(append([]byte{}, cf.body...), encoding.OpEnd)
		codePayload = append(codePayload, encoding.Uleb128(uint64(len(full)))...)
		codePayload = append(codePayload, full...)
	}
	for _, h := range helpers {
		appendBody(h)
	}
	for _, u := range users {
		appendBody(u)
	}
	appendBody(main)

	// Data section: one active segment at memory offset 0
	var dataPayload []byte
	dataPayload = append(dataPayload, encoding.Uleb128(1)...)
	dataPayload = append(dataPayload, 0x00) // active, memory index 0
	dataPayload = append(dataPayload, encoding.I32Const(0)...)
	dataPayload = append(dataPayload, encoding.OpEnd)
	dataPayload = append(dataPayload, encoding.Uleb128(uint64(len(strBytes)))...)
	dataPayload = append(dataPayload, strBytes...)

	var out []byte
	out = append(out, encoding.Magic...)
	out = append(out, encoding.Version...)
	out = append(out, encoding.EmitSection(encoding.SectionType, typePayload)...)
	out = append(out, encoding.EmitSection(encoding.SectionImport, importPayload)...)
	out = append(out, encoding.EmitSection(encoding.SectionFunction, fnPayload)...)
	out = append(out, encoding.EmitSection(encoding.SectionMemory, memPayload)...)
	out = append(out, encoding.EmitSection(encoding.SectionGlobal, globalPayload)...)
	out = append(out, encoding.EmitSection(encoding.SectionExport, exportPayload)...)
	out = append(out, encoding.EmitSection(encoding.SectionCode, codePayload)...)
	out = append(out, encoding.EmitSection(encoding.SectionData, dataPayload)...)
	return out
}
