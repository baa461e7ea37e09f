// Package source implements components B and C of pdfconcat: the
// xref loader and the object resolver. It is ported from the shape of
// github.com/benoitkugler/pdf's reader/file package (xreftable.go,
// read.go), generalized to keep one Source per input file alive only
// as long as that input is being copied, and enriched with the
// /Prev-loop guard and generation-mismatch checks described in
// original_source/pdfconcat.c.
package source

import (
	"io"

	"github.com/benoitkugler/pdfconcat/internal/pdferr"
)

// MinFileSize is the smallest file this reader will attempt: below
// this, there cannot be a header, a body, and a trailer. Exported so
// the CLI can classify an undersized input as exit code 7 before ever
// calling Open.
const MinFileSize = 32

// Entry is one cross-reference table entry (spec §3's "Input
// cross-reference entry"). TargetNum is mutated by internal/merge
// during reachability traversal; it has no meaning here.
type Entry struct {
	Num        int
	Offset     int64
	Generation int
	Free       bool

	TargetNum int // 0 == not yet reached by the copier
}

// Source holds everything pdfconcat knows about one input file: its
// xref table, the offsets it needs to recognize the catalog and top
// pages object while copying, and the page count it contributes to
// the merged document.
type Source struct {
	RS       io.ReadSeeker
	File     string
	Size     int64

	Xref map[int]*Entry

	// FirstTrailerOffset is the offset of the first (most recent) xref
	// section, whose trailer is FirstTrailerDict. Component G does not
	// re-read the file; it re-walks FirstTrailerDict.
	FirstTrailerOffset int64
	Root               Ref  // the catalog's indirect reference, from the first trailer
	FirstTrailerDict   Dict // the first trailer, verbatim (component G re-walks this to build the output trailer)

	CatalogOffset int64 // byte offset of "<n> <g> obj" for the catalog
	PagesOffset   int64 // byte offset of "<n> <g> obj" for the top /Pages node
	PagesRef      Ref
	PageCount     int

	HeaderLine      []byte // first 9 bytes, expected "%PDF-D.D "
	HasBinaryMarker bool
}

// Open reads the header, the full xref chain (including any /Prev
// subsections), the first trailer, and resolves Catalog -> Pages ->
// Count, without touching any other object.
func Open(rs io.ReadSeeker, file string, size int64) (*Source, error) {
	if size < MinFileSize {
		return nil, pdferr.New(pdferr.IO, file, "file is too small to be a PDF (%d bytes)", size)
	}

	src := &Source{RS: rs, File: file, Size: size, Xref: make(map[int]*Entry)}

	if err := src.readHeader(); err != nil {
		return nil, err
	}

	startOff, err := src.findStartXref()
	if err != nil {
		return nil, err
	}

	if err := src.loadXrefChain(startOff); err != nil {
		return nil, err
	}

	if err := src.resolvePageTree(); err != nil {
		return nil, err
	}

	return src, nil
}
