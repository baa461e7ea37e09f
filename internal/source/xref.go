package source

import (
	"bytes"
	"io"
	"strconv"

	"github.com/benoitkugler/pdfconcat/internal/pdferr"
	"github.com/benoitkugler/pdfconcat/internal/pdflog"
	"github.com/benoitkugler/pdfconcat/internal/pdftoken"
)

const startxrefScanWindow = 256

// readHeader validates the "%PDF-D.D" prefix, remembers the first 9
// bytes verbatim, and records whether the file's leading run of
// comment lines contains any high-bit byte — that decides whether the
// output gets a binary-marker line.
func (src *Source) readHeader() error {
	if _, err := src.RS.Seek(0, io.SeekStart); err != nil {
		return pdferr.New(pdferr.IO, src.File, "seeking to header: %v", err)
	}
	window := 1024
	if int64(window) > src.Size {
		window = int(src.Size)
	}
	buf := make([]byte, window)
	n, err := io.ReadFull(src.RS, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return pdferr.New(pdferr.IO, src.File, "reading header: %v", err)
	}
	buf = buf[:n]

	if len(buf) < 9 || !bytes.HasPrefix(buf, []byte("%PDF-")) {
		return pdferr.New(pdferr.Header, src.File, "missing %%PDF- header")
	}
	if buf[5] < '0' || buf[5] > '9' || buf[6] != '.' || buf[7] < '0' || buf[7] > '9' {
		return pdferr.New(pdferr.Header, src.File, "malformed version line")
	}
	if !isHeaderWS(buf[8]) {
		return pdferr.New(pdferr.Header, src.File, "version line not followed by whitespace")
	}
	src.HeaderLine = append([]byte(nil), buf[:9]...)

	src.HasBinaryMarker = scanBinaryMarker(buf)
	return nil
}

// scanBinaryMarker mirrors original_source/pdfconcat.c's
// r_check_pdf_header: starting from the very first byte (the "%PDF-"
// line is itself a '%'-comment line), it walks every consecutive
// comment line — skipping blank CR/LF separators between them — and
// stops at the first line that does not start with '%'. Any high-bit
// byte on any of those lines marks the file as binary. A single line
// right after the version line is the common case, but nothing in the
// format limits the marker to exactly that position.
func scanBinaryMarker(buf []byte) bool {
	i, n := 0, len(buf)
	binary := false
	for {
		for i < n && (buf[i] == '\n' || buf[i] == '\r') {
			i++
		}
		if i >= n || buf[i] != '%' {
			return binary
		}
		i++
		for i < n && buf[i] != '\n' && buf[i] != '\r' {
			if buf[i] >= 0x80 {
				binary = true
			}
			i++
		}
	}
}

func isHeaderWS(b byte) bool {
	switch b {
	case '\r', '\n', '\t', ' ', 0, '\f':
		return true
	default:
		return false
	}
}

// findStartXref scans the last startxrefScanWindow bytes of the file
// for the literal "startxref" followed by a nonnegative integer.
func (src *Source) findStartXref() (int64, error) {
	window := int64(startxrefScanWindow)
	if window > src.Size {
		window = src.Size
	}
	if _, err := src.RS.Seek(-window, io.SeekEnd); err != nil {
		return 0, pdferr.New(pdferr.IO, src.File, "seeking to tail: %v", err)
	}
	buf := make([]byte, window)
	if _, err := io.ReadFull(src.RS, buf); err != nil {
		return 0, pdferr.New(pdferr.IO, src.File, "reading tail: %v", err)
	}

	i := bytes.LastIndex(buf, []byte("startxref"))
	if i < 0 {
		return 0, pdferr.New(pdferr.Xref, src.File, "startxref not found in last %d bytes", window)
	}
	rest := buf[i+len("startxref"):]
	rest = bytes.TrimLeft(rest, " \t\r\n\f\x00")
	j := 0
	for j < len(rest) && rest[j] >= '0' && rest[j] <= '9' {
		j++
	}
	if j == 0 {
		return 0, pdferr.New(pdferr.Xref, src.File, "startxref not followed by an offset")
	}
	offset, err := strconv.ParseInt(string(rest[:j]), 10, 64)
	if err != nil || offset < 0 || offset >= src.Size {
		return 0, pdferr.New(pdferr.Xref, src.File, "startxref offset %q out of range", rest[:j])
	}
	return offset, nil
}

// loadXrefChain reads the xref section at startOff and every section
// reachable through /Prev. Only the first trailer's dictionary is
// kept; later trailers contribute subsections only (spec invariant
// #3). A /Prev chain that revisits an offset terminates instead of
// looping forever.
func (src *Source) loadXrefChain(startOff int64) error {
	visited := map[int64]bool{}
	offset := startOff
	first := true

	for {
		if visited[offset] {
			pdflog.Warnf("%s: /Prev chain revisits offset %d, stopping", src.File, offset)
			return nil
		}
		visited[offset] = true

		if _, err := src.RS.Seek(offset, io.SeekStart); err != nil {
			return pdferr.At(pdferr.Xref, src.File, offset, "seeking to xref section: %v", err)
		}
		sc, err := pdftoken.NewScanner(src.RS, src.File)
		if err != nil {
			return pdferr.At(pdferr.Xref, src.File, offset, "%v", err)
		}

		kw, err := sc.Next()
		if err != nil {
			return err
		}
		if !kw.IsKeyword("xref") {
			return pdferr.At(pdferr.Xref, src.File, offset, "expected 'xref' keyword, got %s", kw.Kind)
		}

		for {
			peek, err := sc.Peek()
			if err != nil {
				return err
			}
			if peek.IsKeyword("trailer") {
				_, _ = sc.Next()
				break
			}
			if err := src.parseSubsection(sc); err != nil {
				return err
			}
		}

		val, err := ParseValue(sc, src.File)
		if err != nil {
			return pdferr.At(pdferr.Xref, src.File, sc.Pos(), "parsing trailer dict: %v", err)
		}
		dict, ok := val.(Dict)
		if !ok {
			return pdferr.At(pdferr.Xref, src.File, sc.Pos(), "trailer is not a dictionary")
		}

		if first {
			root, ok := dict["Root"].(Ref)
			if !ok {
				if _, present := dict["Root"]; !present {
					return pdferr.At(pdferr.Missing, src.File, offset, "trailer has no /Root")
				}
				return pdferr.At(pdferr.TypeMismatch, src.File, offset, "/Root is not an indirect reference")
			}
			src.Root = root
			src.FirstTrailerOffset = offset
			src.FirstTrailerDict = dict
			first = false
		}

		prev, hasPrev := dict["Prev"]
		if !hasPrev {
			return nil
		}
		n, ok := AsInt(prev)
		if !ok {
			return pdferr.At(pdferr.TypeMismatch, src.File, offset, "/Prev is not a number")
		}
		offset = n
	}
}

// parseSubsection reads one "first count" header and its count
// fixed-format entries, keeping the first (most recent) definition of
// any object number already seen. Free entries are stored with Free
// set; object numbers that no subsection lists get no entry at all, so
// Lookup reports them as not in the xref table.
func (src *Source) parseSubsection(sc *pdftoken.Scanner) error {
	firstTok, err := sc.Next()
	if err != nil {
		return err
	}
	first, err := firstTok.Int()
	if err != nil {
		return pdferr.At(pdferr.Xref, src.File, sc.Pos(), "invalid subsection start: %v", err)
	}
	countTok, err := sc.Next()
	if err != nil {
		return err
	}
	count, err := countTok.Int()
	if err != nil {
		return pdferr.At(pdferr.Xref, src.File, sc.Pos(), "invalid subsection count: %v", err)
	}

	for i := int64(0); i < count; i++ {
		objNum := int(first + i)
		offTok, err := sc.Next()
		if err != nil {
			return err
		}
		offset, err := offTok.Int()
		if err != nil {
			return pdferr.At(pdferr.Xref, src.File, sc.Pos(), "invalid xref offset: %v", err)
		}
		genTok, err := sc.Next()
		if err != nil {
			return err
		}
		gen, err := genTok.Int()
		if err != nil || gen < 0 || gen > 65535 {
			return pdferr.At(pdferr.Xref, src.File, sc.Pos(), "invalid generation number")
		}
		typeTok, err := sc.Next()
		if err != nil {
			return err
		}
		if typeTok.Kind != pdftoken.Keyword || (typeTok.Value != "n" && typeTok.Value != "f") {
			return pdferr.At(pdferr.Xref, src.File, sc.Pos(), "corrupt xref entry type")
		}
		free := typeTok.Value == "f"
		if !free && (offset < 9 || offset >= src.Size) {
			return pdferr.At(pdferr.Xref, src.File, sc.Pos(), "xref offset %d out of bounds", offset)
		}

		if _, exists := src.Xref[objNum]; exists {
			continue
		}
		src.Xref[objNum] = &Entry{Num: objNum, Offset: offset, Generation: int(gen), Free: free}
	}
	return nil
}
