// Package sink implements components D and G of pdfconcat: the output
// emitter (pretty-printing tokens with line wrap and compact string
// re-encoding) and the trailer/xref writer. It is ported from the
// shape of github.com/benoitkugler/pdf's model/writer package
// (writeHeader/writeFooter/WriteObject), generalized from "write one
// whole document model" to "re-emit a token stream while tracking
// output offsets", and given the line-wrapping and string-compaction
// discipline spec.md assigns to the emitter that the teacher's
// single-purpose writer never needed.
package sink

import (
	"fmt"
	"io"

	"github.com/benoitkugler/pdfconcat/internal/pdferr"
)

// wrapColumn is the column past which the emitter inserts a line
// break before the next atomic token.
const wrapColumn = 78

// Output is the singleton output-state record for the whole run (spec
// §3's "Output state"). dst is typed as an io.ReadWriteSeeker, but
// Output only ever writes to it, sequentially: the rewritten trailer
// is rendered into a separate buffer by merge.BufferFirstTrailer and
// appended after the xref table by WriteXrefAndTrailer.
type Output struct {
	dst  io.ReadWriteSeeker
	File string

	written int64
	col     int
	prevSelfClosing bool

	// nextObjNum is the output object counter; it starts at 2 because
	// object 1 is reserved for the synthesized top /Pages.
	nextObjNum int
	objOffsets []int64

	startxrefOffset int64
	pageTotal       int
	topPagesNums    []int
	bufferedTrailer []byte
}

// NewOutput wraps dst (normally an *os.File) for a fresh run.
func NewOutput(dst io.ReadWriteSeeker, file string) *Output {
	return &Output{
		dst:        dst,
		File:       file,
		nextObjNum: 2,
		objOffsets: make([]int64, 2), // index 0 unused slot, index 1 reserved
	}
}

// AllocObjNum hands out the next output object number, growing the
// offset table to cover it.
func (o *Output) AllocObjNum() int {
	n := o.nextObjNum
	o.nextObjNum++
	o.growOffsets(n + 1)
	return n
}

// NextObjNum reports the counter without allocating (outobjc).
func (o *Output) NextObjNum() int { return o.nextObjNum }

func (o *Output) growOffsets(size int) {
	for len(o.objOffsets) < size {
		o.objOffsets = append(o.objOffsets, 0)
	}
}

// RecordOffset notes the output byte offset of an emitted object
// number, populating the output xref array (spec §4.D's primitive).
func (o *Output) RecordOffset(num int, offset int64) {
	o.growOffsets(num + 1)
	o.objOffsets[num] = offset
}

// AddPageCount accumulates one input's page count into the merged total.
func (o *Output) AddPageCount(n int) { o.pageTotal += n }

// PageTotal returns the running page total across all inputs.
func (o *Output) PageTotal() int { return o.pageTotal }

// NoteTopPages records the output object number of one input's top
// /Pages node, in input order, for the synthesized root's /Kids array.
func (o *Output) NoteTopPages(num int) { o.topPagesNums = append(o.topPagesNums, num) }

// TopPagesNums returns the per-input top-pages numbers collected so far.
func (o *Output) TopPagesNums() []int { return o.topPagesNums }

func (o *Output) writeBytes(b []byte) error {
	n, err := o.dst.Write(b)
	o.written += int64(n)
	for _, c := range b {
		if c == '\n' {
			o.col = 0
		} else {
			o.col++
		}
	}
	if err != nil {
		return pdferr.New(pdferr.IO, o.File, "writing output: %v", err)
	}
	return nil
}

// EmitAtom writes a number, name, or keyword token, inserting a
// single separating space when the previous token also needs one, or
// a line break in its place if the column would otherwise exceed 78.
func (o *Output) EmitAtom(s string) error {
	sep := ""
	if !o.prevSelfClosing && o.col > 0 {
		sep = " "
	}
	if o.col > 0 && o.col+len(sep)+len(s) > wrapColumn {
		sep = "\n"
	}
	if sep != "" {
		if err := o.writeBytes([]byte(sep)); err != nil {
			return err
		}
	}
	if err := o.writeBytes([]byte(s)); err != nil {
		return err
	}
	o.prevSelfClosing = false
	return nil
}

// EmitName writes a PDF name token, re-adding its leading slash.
func (o *Output) EmitName(name string) error { return o.EmitAtom("/" + name) }

// EmitStructural writes a bracket or dict delimiter verbatim: these
// never need a preceding space, and nothing following them does either.
func (o *Output) EmitStructural(s string) error {
	if o.col > 0 && o.col+len(s) > wrapColumn {
		if err := o.writeBytes([]byte("\n")); err != nil {
			return err
		}
	}
	if err := o.writeBytes([]byte(s)); err != nil {
		return err
	}
	o.prevSelfClosing = true
	return nil
}

// EmitRef writes "<num> 0 R", the canonical generation-0 indirect
// reference every output object uses.
func (o *Output) EmitRef(num int) error {
	if err := o.EmitAtom(fmt.Sprintf("%d", num)); err != nil {
		return err
	}
	if err := o.EmitAtom("0"); err != nil {
		return err
	}
	return o.EmitAtom("R")
}

// EmitString writes a decoded string payload back out in whichever of
// literal or hex form is shorter (ties favor literal).
func (o *Output) EmitString(raw []byte) error {
	lit := literalForm(raw)
	hexed := hexForm(raw)
	chosen := lit
	if len(hexed) < len(lit) {
		chosen = hexed
	}
	return o.writeBytes(chosen)
}

// BeginObject records the offset for num and writes "<num> 0 obj\n".
func (o *Output) BeginObject(num int) error {
	o.RecordOffset(num, o.written)
	if err := o.writeBytes([]byte(fmt.Sprintf("%d 0 obj\n", num))); err != nil {
		return err
	}
	o.prevSelfClosing = true
	return nil
}

// EndObject closes an object body with "endobj\n".
func (o *Output) EndObject() error {
	if err := o.writeBytes([]byte("\nendobj\n")); err != nil {
		return err
	}
	o.prevSelfClosing = true
	return nil
}

// BeginStream writes the "stream" bracket opening a stream body.
func (o *Output) BeginStream() error { return o.writeBytes([]byte("\nstream\n")) }

// EndStream writes the "endstream" bracket closing a stream body.
func (o *Output) EndStream() error { return o.writeBytes([]byte("\nendstream")) }

// StreamWriter exposes the output sink as a plain io.Writer so a
// stream body can be drained into it directly (e.g. via
// pdftoken.Scanner.CopyStreamBody) without materializing the payload.
func (o *Output) StreamWriter() io.Writer { return streamWriter{o} }

// streamWriter adapts Output's offset/column bookkeeping to io.Writer
// so pdftoken.Scanner.CopyStreamBody can drive the bounded stream copy.
type streamWriter struct{ o *Output }

func (s streamWriter) Write(p []byte) (int, error) {
	if err := s.o.writeBytes(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Written returns the total number of bytes emitted so far.
func (o *Output) Written() int64 { return o.written }
