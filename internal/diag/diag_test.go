package diag

import (
	"bytes"
	"strings"
	"testing"

	"pinky/internal/source"
)

func TestBagEmpty(t *testing.T) {
	var b *Bag
	if !b.Empty() {
		t.Fatalf("nil bag should be empty")
	}
	b = &Bag{}
	if !b.Empty() {
		t.Fatalf("bag with no items should be empty")
	}
	b.Add("f.pinky", 1, 1, 1, Compile, "boom")
	if b.Empty() {
		t.Fatalf("bag with an item should not be empty")
	}
}

func TestBagAddAtUsesSpanLocation(t *testing.T) {
	f := source.NewFile("f.pinky", "x := 1\ny := 2\n")
	b := &Bag{}
	b.AddAt(source.Span{File: f, Start: 7, End: 8}, "undeclared variable: y")
	if len(b.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(b.Items))
	}
	it := b.Items[0]
	if it.Filename != "f.pinky" || it.Line != 2 || it.Col != 1 || it.Kind != Compile {
		t.Fatalf("unexpected item: %+v", it)
	}
}

func TestPrintSortsByFilenameLineCol(t *testing.T) {
	f := source.NewFile("f.pinky", "")
	b := &Bag{}
	b.Add("f.pinky", 5, 1, 1, Compile, "later line")
	b.Add("f.pinky", 1, 3, 1, Compile, "earlier line, later col")
	b.Add("f.pinky", 1, 1, 1, Compile, "earliest")
	_ = f

	var buf bytes.Buffer
	Print(&buf, b)
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), out)
	}
	if !strings.Contains(lines[0], "earliest") || !strings.Contains(lines[1], "earlier line") || !strings.Contains(lines[2], "later line") {
		t.Fatalf("diagnostics not sorted by line/col: %q", out)
	}
}

func TestPrintOnEmptyBagWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, &Bag{})
	if buf.Len() != 0 {
		t.Fatalf("expected no output for empty bag, got %q", buf.String())
	}
}

func TestFirstErrorReturnsFirstItem(t *testing.T) {
	b := &Bag{}
	if FirstError(b) != nil {
		t.Fatalf("expected nil for empty bag")
	}
	b.Add("f.pinky", 3, 4, 2, Internal, "missing body")
	b.Add("f.pinky", 1, 1, 1, Compile, "second item, still first in slice order")
	cerr := FirstError(b)
	if cerr == nil {
		t.Fatalf("expected non-nil error")
	}
	if cerr.Message != "missing body" || cerr.Line != 3 || cerr.Col != 4 || cerr.Kind != Internal {
		t.Fatalf("unexpected error: %+v", cerr)
	}
}

func TestCompilerErrorErrorString(t *testing.T) {
	cerr := &CompilerError{Message: "undefined function: f", Line: 2, Col: 5}
	if cerr.Error() != "2:5: undefined function: f" {
		t.Fatalf("unexpected Error() string: %q", cerr.Error())
	}
}
