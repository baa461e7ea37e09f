package source

import (
	"io"

	"github.com/benoitkugler/pdfconcat/internal/pdferr"
	"github.com/benoitkugler/pdfconcat/internal/pdftoken"
)

// Lookup bounds-checks (num, gen) against the xref table and returns
// its entry. Component C: the object resolver.
func (src *Source) Lookup(num, gen int) (*Entry, error) {
	if gen < 0 || gen > 65535 {
		return nil, pdferr.New(pdferr.Xref, src.File, "generation %d out of range", gen)
	}
	e, ok := src.Xref[num]
	if !ok {
		return nil, pdferr.New(pdferr.Xref, src.File, "object %d not in xref table", num)
	}
	if e.Free {
		return nil, pdferr.New(pdferr.Xref, src.File, "object %d is free", num)
	}
	if e.Generation != gen {
		return nil, pdferr.New(pdferr.Xref, src.File, "object %d generation mismatch: xref has %d, requested %d", num, e.Generation, gen)
	}
	return e, nil
}

// ScannerAt seeks to offset and returns a fresh Scanner positioned there.
func (src *Source) ScannerAt(offset int64) (*pdftoken.Scanner, error) {
	if _, err := src.RS.Seek(offset, io.SeekStart); err != nil {
		return nil, pdferr.At(pdferr.IO, src.File, offset, "%v", err)
	}
	return pdftoken.NewScanner(src.RS, src.File)
}

// VerifyObjectHeader reads "num gen obj" at the scanner's current
// position and checks it names exactly (num, gen).
func VerifyObjectHeader(sc *pdftoken.Scanner, file string, num, gen int) error {
	at := sc.Pos()
	numTok, err := sc.Next()
	if err != nil {
		return err
	}
	n, err := numTok.Int()
	if err != nil || int(n) != num {
		return pdferr.At(pdferr.Xref, file, at, "expected object number %d, got %q", num, numTok.Value)
	}
	genTok, err := sc.Next()
	if err != nil {
		return err
	}
	g, err := genTok.Int()
	if err != nil || int(g) != gen {
		return pdferr.At(pdferr.Xref, file, at, "expected generation %d, got %q", gen, genTok.Value)
	}
	objTok, err := sc.Next()
	if err != nil {
		return err
	}
	if !objTok.IsKeyword("obj") {
		return pdferr.At(pdferr.Xref, file, at, "expected 'obj' keyword, got %s", objTok.Kind)
	}
	return nil
}

// ResolveObject seeks to (num, gen)'s offset, verifies its header, and
// parses its value. It is used only for the small objects pdfconcat
// inspects directly (catalog, top pages, and the number behind an
// indirect /Count or stream /Length); bulk object copying never
// materializes a Value tree (see internal/merge).
func (src *Source) ResolveObject(num, gen int) (Value, *Entry, error) {
	e, err := src.Lookup(num, gen)
	if err != nil {
		return nil, nil, err
	}
	sc, err := src.ScannerAt(e.Offset)
	if err != nil {
		return nil, nil, err
	}
	if err := VerifyObjectHeader(sc, src.File, num, gen); err != nil {
		return nil, nil, err
	}
	v, err := ParseValue(sc, src.File)
	if err != nil {
		return nil, nil, err
	}
	return v, e, nil
}

// ResolveInt reads a value that may be either a direct number or an
// indirect reference, following the reference if needed.
func (src *Source) ResolveInt(v Value) (int64, error) {
	switch t := v.(type) {
	case Int:
		return int64(t), nil
	case Real:
		return int64(t), nil
	case Ref:
		val, _, err := src.ResolveObject(t.Num, t.Gen)
		if err != nil {
			return 0, err
		}
		n, ok := AsInt(val)
		if !ok {
			return 0, pdferr.New(pdferr.TypeMismatch, src.File, "object %d is not a number", t.Num)
		}
		return n, nil
	default:
		return 0, pdferr.New(pdferr.TypeMismatch, src.File, "expected a number or indirect reference")
	}
}
