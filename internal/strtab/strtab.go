// Package strtab implements the interned string table that becomes
// the module's Data section (spec.md §4.B): an append-only pool of
// literal strings, keyed by content, whose materialised byte blob is
// placed at memory offset 0.
package strtab

// Table interns literal strings and tracks their offsets within the
// eventual data-segment blob.
type Table struct {
	offsets map[string]int
	buf     []byte
}

func New() *Table {
	return &Table{offsets: make(map[string]int)}
}

// Intern returns s's offset within the table, appending its UTF-8
// bytes the first time s is seen. Repeated interning of the same
// string is idempotent (spec.md §8 property 5).
func (t *Table) Intern(s string) int {
	if off, ok := t.offsets[s]; ok {
		return off
	}
	off := len(t.buf)
	t.offsets[s] = off
	t.buf = append(t.buf, s...)
	return off
}

// Bytes returns the final data-segment blob.
func (t *Table) Bytes() []byte {
	return t.buf
}

// Len reports the current byte length of the table, used to seed the
// heap-pointer global's initial value (spec.md §3: strictly greater
// than the highest string-table offset).
func (t *Table) Len() int {
	return len(t.buf)
}
