package sink

import (
	"fmt"

	"github.com/benoitkugler/pdfconcat/internal/pdferr"
)

// maxXrefOffset is the largest offset the fixed 10-digit xref field
// can hold (spec's OverflowError trigger).
const maxXrefOffset = 9_999_999_999

func (o *Output) writeRaw(s string) error { return o.writeBytes([]byte(s)) }

// WritePagesRoot synthesizes output object 1, the merged document's
// single top /Pages node, from the page totals and per-input top-pages
// numbers the copier accumulated (component F's final step).
func (o *Output) WritePagesRoot() error {
	if err := o.BeginObject(1); err != nil {
		return err
	}
	steps := []func() error{
		func() error { return o.EmitStructural("<<") },
		func() error { return o.EmitName("Type") },
		func() error { return o.EmitName("Pages") },
		func() error { return o.EmitName("Count") },
		func() error { return o.EmitAtom(fmt.Sprintf("%d", o.pageTotal)) },
		func() error { return o.EmitName("Kids") },
		func() error { return o.EmitStructural("[") },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	for _, n := range o.topPagesNums {
		if err := o.EmitRef(n); err != nil {
			return err
		}
	}
	if err := o.EmitStructural("]"); err != nil {
		return err
	}
	if err := o.EmitStructural(">>"); err != nil {
		return err
	}
	return o.EndObject()
}

// WriteXrefAndTrailer emits the final cross-reference table (fresh,
// single section, no /Prev), then appends trailerPrefix — the
// renumbered first-input trailer dictionary, opened with "<<" but not
// yet closed, as produced by merge.BufferFirstTrailer — followed by
// /Size and the closing delimiter, and the startxref footer.
func (o *Output) WriteXrefAndTrailer(trailerPrefix []byte) error {
	n := o.nextObjNum
	xrefOffset := o.written

	if err := o.writeRaw(fmt.Sprintf("xref\n0 %d\n", n)); err != nil {
		return err
	}
	if err := o.writeRaw("0000000000 65535 f \n"); err != nil {
		return err
	}
	for i := 1; i < n; i++ {
		off := o.objOffsets[i]
		if off > maxXrefOffset {
			return pdferr.New(pdferr.Overflow, o.File, "object %d offset %d exceeds xref field width", i, off)
		}
		if err := o.writeRaw(fmt.Sprintf("%010d 00000 n \n", off)); err != nil {
			return err
		}
	}

	if err := o.writeRaw("trailer\n"); err != nil {
		return err
	}
	if err := o.writeBytes(trailerPrefix); err != nil {
		return err
	}
	if err := o.writeRaw(fmt.Sprintf("/Size %d>>\n", n)); err != nil {
		return err
	}
	return o.writeRaw(fmt.Sprintf("startxref\n%d\n%%%%EOF", xrefOffset))
}
