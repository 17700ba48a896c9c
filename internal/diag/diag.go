// Package diag collects positioned diagnostics produced while lexing,
// parsing, and compiling a Pinky program.
package diag

import (
	"fmt"
	"io"
	"sort"

	"pinky/internal/source"
)

// Kind distinguishes user-visible compile errors (spec: undeclared
// variable, undefined function, arity mismatch, duplicate function,
// unsupported operator) from internal errors that indicate a bug in
// the compiler itself (missing function body, unknown node kind).
type Kind int

const (
	Compile Kind = iota
	Internal
)

type Item struct {
	Filename string
	Line     int
	Col      int
	Length   int
	Kind     Kind
	Msg      string
}

type Bag struct {
	Items []Item
}

func (b *Bag) Add(filename string, line, col, length int, kind Kind, msg string) {
	b.Items = append(b.Items, Item{Filename: filename, Line: line, Col: col, Length: length, Kind: kind, Msg: msg})
}

// AddAt records a compile-kind error located at span; the lexer and
// parser report their diagnostics through it.
func (b *Bag) AddAt(span source.Span, msg string) {
	filename, line, col := span.LocStart()
	b.Add(filename, line, col, span.Length(), Compile, msg)
}

func (b *Bag) Empty() bool { return b == nil || len(b.Items) == 0 }

func Print(w io.Writer, b *Bag) {
	if b.Empty() {
		return
	}
	items := make([]Item, len(b.Items))
	copy(items, b.Items)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Filename != items[j].Filename {
			return items[i].Filename < items[j].Filename
		}
		if items[i].Line != items[j].Line {
			return items[i].Line < items[j].Line
		}
		return items[i].Col < items[j].Col
	})
	for _, it := range items {
		fmt.Fprintf(w, "%s:%d:%d: error: %s\n", it.Filename, it.Line, it.Col, it.Msg)
	}
}

// CompilerError is the single error the back end returns from Compile
// (spec.md §6.1): message plus source position and token length.
type CompilerError struct {
	Message string
	Line    int
	Col     int
	Length  int
	Kind    Kind
}

func (e *CompilerError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Message)
}

// FirstError converts the first item in the bag (if any) into a
// CompilerError. The back end aborts lowering on the first offending
// node, so a bag ever holds at most one compile-time item by the time
// it reaches this boundary.
func FirstError(b *Bag) *CompilerError {
	if b.Empty() {
		return nil
	}
	it := b.Items[0]
	return &CompilerError{Message: it.Msg, Line: it.Line, Col: it.Col, Length: it.Length, Kind: it.Kind}
}
