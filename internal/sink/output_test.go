package sink

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
)

// memSink is a minimal in-memory io.ReadWriteSeeker, standing in for
// the *os.File the CLI hands Output in production.
type memSink struct {
	buf []byte
	pos int64
}

func (m *memSink) Write(p []byte) (int, error) {
	if m.pos < int64(len(m.buf)) {
		n := copy(m.buf[m.pos:], p)
		if n < len(p) {
			m.buf = append(m.buf, p[n:]...)
		}
	} else {
		m.buf = append(m.buf, p...)
	}
	m.pos += int64(len(p))
	return len(p), nil
}

func (m *memSink) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memSink) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = m.pos
	case io.SeekEnd:
		base = int64(len(m.buf))
	}
	m.pos = base + offset
	return m.pos, nil
}

func TestLiteralFormEscapesUnbalancedParens(t *testing.T) {
	got := string(literalForm([]byte("a(b)c")))
	if got != "(a(b)c)" {
		t.Errorf("balanced parens should not be escaped, got %q", got)
	}
	got = string(literalForm([]byte("a(b")))
	if got != "(a\\(b)" {
		t.Errorf("unmatched open paren should be escaped, got %q", got)
	}
	got = string(literalForm([]byte("a)b")))
	if got != "(a\\)b)" {
		t.Errorf("unmatched close paren should be escaped, got %q", got)
	}
}

func TestLiteralFormEscapesBackslash(t *testing.T) {
	got := string(literalForm([]byte(`a\b`)))
	if got != `(a\\b)` {
		t.Errorf("backslash should be escaped, got %q", got)
	}
}

func TestLiteralFormPassesNewlineThrough(t *testing.T) {
	got := literalForm([]byte("a\nb"))
	if !bytes.Contains(got, []byte("a\nb")) {
		t.Errorf("embedded newline should pass through raw, got %q", got)
	}
}

func TestHexFormUppercase(t *testing.T) {
	got := string(hexForm([]byte{0xde, 0xad}))
	if got != "<DEAD>" {
		t.Errorf("expected <DEAD>, got %q", got)
	}
}

func TestEmitStringPicksShorterForm(t *testing.T) {
	m := &memSink{}
	o := NewOutput(m, "out.pdf")
	if err := o.EmitString([]byte("hello")); err != nil {
		t.Fatalf("EmitString: %v", err)
	}
	if got := m.buf; string(got) != "(hello)" {
		t.Errorf("expected literal form for plain text, got %q", got)
	}
}

func TestAtomSpacingAndStructuralDelimiters(t *testing.T) {
	m := &memSink{}
	o := NewOutput(m, "out.pdf")
	_ = o.EmitStructural("[")
	_ = o.EmitAtom("1")
	_ = o.EmitAtom("0")
	_ = o.EmitAtom("R")
	_ = o.EmitStructural("]")
	got := string(m.buf)
	want := "[1 0 R]"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLineWrapAtColumn78(t *testing.T) {
	m := &memSink{}
	o := NewOutput(m, "out.pdf")
	_ = o.EmitStructural("[")
	for i := 0; i < 40; i++ {
		_ = o.EmitAtom("123")
	}
	_ = o.EmitStructural("]")
	for _, line := range strings.Split(string(m.buf), "\n") {
		if len(line) > 78 {
			t.Errorf("line exceeds wrap column: %d bytes: %q", len(line), line)
		}
	}
}

func TestWriteXrefAndTrailerRoundTrip(t *testing.T) {
	m := &memSink{}
	o := NewOutput(m, "out.pdf")
	if err := o.WriteHeader([]byte("%PDF-1.4\n"), false); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}

	catalogNum := o.AllocObjNum()
	if err := o.BeginObject(catalogNum); err != nil {
		t.Fatalf("BeginObject: %v", err)
	}
	_ = o.EmitStructural("<<")
	_ = o.EmitName("Type")
	_ = o.EmitName("Catalog")
	_ = o.EmitName("Pages")
	_ = o.EmitRef(1)
	_ = o.EmitStructural(">>")
	if err := o.EndObject(); err != nil {
		t.Fatalf("EndObject: %v", err)
	}

	o.AddPageCount(1)
	o.NoteTopPages(catalogNum) // stand-in top-pages reference for this test

	if err := o.WritePagesRoot(); err != nil {
		t.Fatalf("WritePagesRoot: %v", err)
	}
	trailerPrefix := []byte(fmt.Sprintf("<< /Root %d 0 R ", catalogNum))
	if err := o.WriteXrefAndTrailer(trailerPrefix); err != nil {
		t.Fatalf("WriteXrefAndTrailer: %v", err)
	}

	out := string(m.buf)
	if !strings.HasPrefix(out, "%PDF-1.4\n") {
		t.Errorf("missing header: %q", out[:20])
	}
	if !strings.Contains(out, "xref\n0 3\n") {
		t.Errorf("expected 3 output objects in xref header, got:\n%s", out)
	}
	if !strings.HasSuffix(out, "%%EOF") {
		t.Errorf("output does not end with %%%%EOF")
	}
	if !strings.Contains(out, "/Root 2 0 R") {
		t.Errorf("expected /Root to reference the catalog's output number, got:\n%s", out)
	}
}

func TestWriteXrefAndTrailerOverflowsOnHugeOffset(t *testing.T) {
	m := &memSink{}
	o := NewOutput(m, "out.pdf")
	o.AllocObjNum() // num 2
	o.RecordOffset(2, maxXrefOffset+1)
	err := o.WriteXrefAndTrailer([]byte("<< /Root 2 0 R "))
	if err == nil {
		t.Fatal("expected an overflow error for an offset beyond the 10-digit field width")
	}
}
