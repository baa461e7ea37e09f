package merge

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/benoitkugler/pdfconcat/internal/sink"
	"github.com/benoitkugler/pdfconcat/internal/source"
)

// buildPDFWithTrailerKey is buildMinimalPDF's shape plus one extra
// trailer key, so seedRefs has something beyond /Root to mine.
func buildPDFWithTrailerKey(trailerExtra string) []byte {
	var buf bytes.Buffer
	offsets := make([]int, 4)

	buf.WriteString("%PDF-1.4\n")

	offsets[1] = buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = buf.Len()
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = buf.Len()
	buf.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n")

	xrefOffset := buf.Len()
	buf.WriteString("xref\n0 4\n0000000000 65535 f \n")
	for i := 1; i <= 3; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 4 /Root 1 0 R %s >>\n", trailerExtra)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF", xrefOffset)

	return buf.Bytes()
}

func TestRunFailsOnDanglingTrailerReference(t *testing.T) {
	data := buildPDFWithTrailerKey("/Bogus 99 0 R")
	rs := &seekableBuffer{data: data}
	src, err := source.Open(rs, "dangling-trailer.pdf", int64(len(data)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	out := &memSinkForTest{}
	o := sink.NewOutput(out, "out.pdf")
	if err := Run([]*source.Source{src}, o); err == nil {
		t.Fatal("expected Run to fail on a trailer reference to a nonexistent object, got nil error")
	}
}

// buildPDFWithDanglingCatalogRef is buildMinimalPDF's shape, but the
// catalog carries an extra key pointing at an object absent from the
// xref table, exercising emitValue's Ref case via rewriteCatalog.
func buildPDFWithDanglingCatalogRef() []byte {
	var buf bytes.Buffer
	offsets := make([]int, 4)

	buf.WriteString("%PDF-1.4\n")

	offsets[1] = buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R /Outlines 99 0 R >>\nendobj\n")

	offsets[2] = buf.Len()
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = buf.Len()
	buf.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n")

	xrefOffset := buf.Len()
	buf.WriteString("xref\n0 4\n0000000000 65535 f \n")
	for i := 1; i <= 3; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	buf.WriteString("trailer\n<< /Size 4 /Root 1 0 R >>\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF", xrefOffset)

	return buf.Bytes()
}

func TestRunFailsOnDanglingCatalogReference(t *testing.T) {
	data := buildPDFWithDanglingCatalogRef()
	rs := &seekableBuffer{data: data}
	src, err := source.Open(rs, "dangling-catalog.pdf", int64(len(data)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	out := &memSinkForTest{}
	o := sink.NewOutput(out, "out.pdf")
	if err := Run([]*source.Source{src}, o); err == nil {
		t.Fatal("expected Run to fail on a catalog reference to a nonexistent object, got nil error")
	}
}
