package merge

import (
	"bytes"
	"io"

	"github.com/benoitkugler/pdfconcat/internal/pdferr"
	"github.com/benoitkugler/pdfconcat/internal/sink"
	"github.com/benoitkugler/pdfconcat/internal/source"
)

// memBuffer is a trivial in-memory io.ReadWriteSeeker, used only to
// render the first input's trailer dictionary off to the side (see
// Run): the spec this follows writes that dictionary to the real
// output file, reads the bytes back, and rewinds, because its origin
// had no second in-memory path available. Go does: rendering directly
// into a throwaway buffer reaches the same externally observable
// result (the rewritten trailer dictionary, byte for byte, deferred
// until after the xref table) without ever touching the real output
// file prematurely.
type memBuffer struct {
	buf bytes.Buffer
	pos int64
}

func (m *memBuffer) Write(p []byte) (int, error) { n, err := m.buf.Write(p); m.pos += int64(n); return n, err }
func (m *memBuffer) Read(p []byte) (int, error)  { return 0, io.EOF } // never read back in this port
func (m *memBuffer) Seek(offset int64, whence int) (int64, error) {
	m.pos = offset
	return m.pos, nil
}

// CopyInput drains the entirety of one input's reachable object graph
// into out: seeds the FIFO from its trailer, then copies every
// reached object, dispatching to the catalog/top-pages rewriters when
// the dequeued offset matches.
func CopyInput(src *source.Source, out *sink.Output) error {
	c := NewCopier(src, out)
	if err := c.seedRefs(source.Value(src.FirstTrailerDict)); err != nil {
		return err
	}

	pagesEntry, err := src.Lookup(src.PagesRef.Num, src.PagesRef.Gen)
	if err != nil {
		return err
	}
	c.enqueue(pagesEntry)

	out.AddPageCount(src.PageCount)

	for len(c.queue) > 0 {
		e := c.dequeue()
		if err := c.copyOne(e); err != nil {
			return err
		}
	}

	out.NoteTopPages(pagesEntry.TargetNum)
	return nil
}

// copyOne copies the single dequeued entry: its offset is checked
// against the input's known catalog and top-pages offsets to decide
// which rewriter applies (spec §4.E's dispatch rule).
func (c *Copier) copyOne(e *source.Entry) error {
	sc, err := c.src.ScannerAt(e.Offset)
	if err != nil {
		return err
	}
	if err := source.VerifyObjectHeader(sc, c.src.File, e.Num, e.Generation); err != nil {
		return err
	}
	if err := c.out.BeginObject(e.TargetNum); err != nil {
		return err
	}

	switch e.Offset {
	case c.src.CatalogOffset:
		val, err := source.ParseValue(sc, c.src.File)
		if err != nil {
			return err
		}
		dict, ok := val.(source.Dict)
		if !ok {
			return pdferr.New(pdferr.TypeMismatch, c.src.File, "catalog object is not a dictionary")
		}
		if err := c.rewriteCatalog(dict); err != nil {
			return err
		}
	case c.src.PagesOffset:
		val, err := source.ParseValue(sc, c.src.File)
		if err != nil {
			return err
		}
		dict, ok := val.(source.Dict)
		if !ok {
			return pdferr.New(pdferr.TypeMismatch, c.src.File, "top /Pages object is not a dictionary")
		}
		if err := c.rewriteTopPages(dict); err != nil {
			return err
		}
	default:
		if err := c.copyGenericObject(sc); err != nil {
			return err
		}
	}

	return c.out.EndObject()
}

// BufferFirstTrailer walks the first input's trailer dictionary (as
// parsed by source.Open, not re-read from the file) a second time
// (component G) and renders every key except /Prev and /Size into a
// standalone buffer, opened with "<<" but deliberately left unclosed:
// the caller appends "/Size <n>>>" once the final output object count
// is known. By the time this runs, the first input's whole reachable
// graph has already been copied, so every reference the trailer
// carries already has a target_num.
func BufferFirstTrailer(src *source.Source) ([]byte, error) {
	mem := &memBuffer{}
	tmp := sink.NewOutput(mem, src.File)
	tc := &Copier{src: src, out: tmp}

	if err := tc.out.EmitStructural("<<"); err != nil {
		return nil, err
	}
	for _, k := range sortedKeys(src.FirstTrailerDict) {
		if k == "Prev" || k == "Size" {
			continue
		}
		if err := tc.out.EmitName(k); err != nil {
			return nil, err
		}
		if err := tc.emitValue(src.FirstTrailerDict[k]); err != nil {
			return nil, err
		}
	}
	return append(mem.buf.Bytes(), ' '), nil
}

// Run concatenates every already-opened input in order into out: it
// writes the header, copies each input's reachable object graph,
// buffers the first input's trailer once its graph is fully copied,
// synthesizes the unified top /Pages, and closes the file with a
// fresh xref and trailer. File-system open/close and CLI argument
// handling live in cmd/pdfconcat, not here.
func Run(inputs []*source.Source, out *sink.Output) error {
	if len(inputs) == 0 {
		return pdferr.New(pdferr.Usage, "", "no input files given")
	}

	if err := out.WriteHeader(inputs[0].HeaderLine, inputs[0].HasBinaryMarker); err != nil {
		return err
	}

	var trailerPrefix []byte
	for i, src := range inputs {
		if err := CopyInput(src, out); err != nil {
			return err
		}
		if i == 0 {
			prefix, err := BufferFirstTrailer(src)
			if err != nil {
				return err
			}
			trailerPrefix = prefix
		}
	}

	if err := out.WritePagesRoot(); err != nil {
		return err
	}
	return out.WriteXrefAndTrailer(trailerPrefix)
}
