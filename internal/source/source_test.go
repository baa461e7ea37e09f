package source

import (
	"bytes"
	"fmt"
	"testing"
)

// buildMinimalPDF assembles a tiny but complete one-page PDF by hand,
// tracking object offsets as it writes so the xref table is accurate.
// This plays the role the teacher's test/corpus fixtures play in
// github.com/benoitkugler/pdf, without requiring a binary fixture
// file in the repository.
func buildMinimalPDF() []byte {
	var buf bytes.Buffer
	offsets := make([]int, 4) // index 1..3 used

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	offsets[1] = buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = buf.Len()
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = buf.Len()
	buf.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n")

	xrefOffset := buf.Len()
	buf.WriteString("xref\n0 4\n")
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 3; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	buf.WriteString("trailer\n<< /Size 4 /Root 1 0 R >>\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF", xrefOffset)

	return buf.Bytes()
}

func TestOpenMinimalPDF(t *testing.T) {
	data := buildMinimalPDF()
	rs := bytes.NewReader(data)
	src, err := Open(rs, "minimal.pdf", int64(len(data)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if src.PageCount != 1 {
		t.Errorf("expected PageCount 1, got %d", src.PageCount)
	}
	if src.Root != (Ref{Num: 1, Gen: 0}) {
		t.Errorf("expected root 1 0, got %v", src.Root)
	}
	if src.PagesRef != (Ref{Num: 2, Gen: 0}) {
		t.Errorf("expected pages ref 2 0, got %v", src.PagesRef)
	}
	if len(src.Xref) != 4 {
		t.Errorf("expected 4 xref entries (free object 0 plus 3 in use), got %d", len(src.Xref))
	}
	if !src.HasBinaryMarker {
		t.Errorf("expected binary marker to be detected")
	}
	if string(src.HeaderLine) != "%PDF-1.4\n" {
		t.Errorf("unexpected header line %q", src.HeaderLine)
	}
}

func TestScanBinaryMarkerSkipsSeveralCommentLines(t *testing.T) {
	// The marker is on the third comment line, not the one right after
	// the version line: original_source/pdfconcat.c's header check
	// walks every consecutive '%'-prefixed line, not just the first.
	buf := []byte("%PDF-1.4\n%ordinary comment\n%another one\n%\xe2\xe3\xcf\xd3\n1 0 obj\n")
	if !scanBinaryMarker(buf) {
		t.Errorf("expected a binary marker found on a later comment line")
	}
}

func TestScanBinaryMarkerStopsAtFirstNonCommentLine(t *testing.T) {
	buf := []byte("%PDF-1.4\n1 0 obj\n%\xe2\xe3\xcf\xd3\n")
	if scanBinaryMarker(buf) {
		t.Errorf("marker after the first non-comment line must not be detected")
	}
}

func TestOpenRejectsMissingHeader(t *testing.T) {
	data := []byte("not a pdf file at all, just padding to clear the size floor.")
	_, err := Open(bytes.NewReader(data), "bad.pdf", int64(len(data)))
	if err == nil {
		t.Fatal("expected an error for a missing PDF header")
	}
}

func TestOpenRejectsTooSmall(t *testing.T) {
	data := []byte("%PDF-1.4\n")
	_, err := Open(bytes.NewReader(data), "tiny.pdf", int64(len(data)))
	if err == nil {
		t.Fatal("expected an error for an undersized file")
	}
}

func TestPrevChain(t *testing.T) {
	var buf bytes.Buffer
	offsets := make([]int, 4)

	buf.WriteString("%PDF-1.4\n")

	offsets[1] = buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = buf.Len()
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	// first (oldest) xref section, no /Prev
	xref1 := buf.Len()
	buf.WriteString("xref\n0 3\n0000000000 65535 f \n")
	fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[1])
	fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[2])
	buf.WriteString("trailer\n<< /Size 3 /Root 1 0 R >>\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xref1)

	offsets[3] = buf.Len()
	buf.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n")

	xref2 := buf.Len()
	buf.WriteString("xref\n3 1\n")
	fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[3])
	fmt.Fprintf(&buf, "trailer\n<< /Size 4 /Root 1 0 R /Prev %d >>\n", xref1)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF", xref2)

	data := buf.Bytes()
	src, err := Open(bytes.NewReader(data), "chained.pdf", int64(len(data)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(src.Xref) != 4 {
		t.Fatalf("expected 4 entries (free object 0 plus 3 in use) after following /Prev, got %d", len(src.Xref))
	}
	if src.PageCount != 1 {
		t.Errorf("expected PageCount 1, got %d", src.PageCount)
	}
}
