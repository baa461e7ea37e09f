package merge

import (
	"github.com/benoitkugler/pdfconcat/internal/pdferr"
	"github.com/benoitkugler/pdfconcat/internal/pdftoken"
	"github.com/benoitkugler/pdfconcat/internal/source"
)

// copyGenericObject copies an ordinary reachable object (anything
// that is not the catalog or a top /Pages node) straight from the
// input's token stream to the output, renumbering indirect references
// in place and passing any stream payload through untouched. This is
// the token-level counterpart to emitValue: it never builds a Value
// tree, so an object's size in memory never depends on the size of a
// stream payload or a large content array, only on its nesting depth.
func (c *Copier) copyGenericObject(sc *pdftoken.Scanner) error {
	peek, err := sc.Peek()
	if err != nil {
		return err
	}
	if peek.Kind != pdftoken.DictStart {
		return c.copyValueTokens(sc)
	}

	length, hasLength, err := c.copyTopDict(sc)
	if err != nil {
		return err
	}

	peek2, err := sc.Peek()
	if err != nil {
		return err
	}
	if !peek2.IsKeyword("stream") {
		return nil
	}
	if !hasLength {
		return pdferr.At(pdferr.Missing, c.src.File, sc.Pos(), "stream object has no /Length")
	}
	if _, err := sc.Next(); err != nil { // consume "stream"
		return err
	}
	if err := sc.SkipStreamTerminator(); err != nil {
		return err
	}
	if err := c.out.BeginStream(); err != nil {
		return err
	}
	if err := sc.CopyStreamBody(c.out.StreamWriter(), length); err != nil {
		return err
	}
	if err := c.out.EndStream(); err != nil {
		return err
	}

	endTok, err := sc.Next()
	if err != nil {
		return err
	}
	if !endTok.IsKeyword("endstream") {
		return pdferr.At(pdferr.Syntax, c.src.File, sc.Pos(), "expected 'endstream', got %q", endTok.Value)
	}
	return nil
}

// copyTopDict copies a dict, the same as copyValueTokens's DictStart
// case, except it also resolves and returns /Length when present:
// that value is needed by the caller to know how many bytes to copy
// if a stream follows, but it must never be buffered as a Value —
// only its already-known-small numeric payload is kept.
func (c *Copier) copyTopDict(sc *pdftoken.Scanner) (length int64, hasLength bool, err error) {
	if _, err = sc.Next(); err != nil { // consume "<<"
		return 0, false, err
	}
	if err = c.out.EmitStructural("<<"); err != nil {
		return 0, false, err
	}
	for {
		peek, perr := sc.Peek()
		if perr != nil {
			return 0, false, perr
		}
		if peek.Kind == pdftoken.DictEnd {
			_, _ = sc.Next()
			return length, hasLength, c.out.EmitStructural(">>")
		}
		keyTok, kerr := sc.Next()
		if kerr != nil {
			return 0, false, kerr
		}
		if keyTok.Kind != pdftoken.Name {
			return 0, false, pdferr.At(pdferr.Syntax, c.src.File, sc.Pos(), "expected dict key, got %s", keyTok.Kind)
		}
		if err = c.out.EmitName(keyTok.Value); err != nil {
			return 0, false, err
		}
		if keyTok.Value == "Length" {
			n, lerr := c.copyAndResolveLength(sc)
			if lerr != nil {
				return 0, false, lerr
			}
			length, hasLength = n, true
			continue
		}
		if err = c.copyValueTokens(sc); err != nil {
			return 0, false, err
		}
	}
}

// copyAndResolveLength copies /Length's value token(s) to the output
// (renumbering it if it is an indirect reference) and returns its
// resolved integer value for the stream-body copy that follows.
func (c *Copier) copyAndResolveLength(sc *pdftoken.Scanner) (int64, error) {
	tok, err := sc.Peek()
	if err != nil {
		return 0, err
	}
	if tok.Kind != pdftoken.Integer {
		return 0, pdferr.At(pdferr.TypeMismatch, c.src.File, sc.Pos(), "/Length is not a number")
	}
	if isIndirectRef(sc) {
		numTok, _ := sc.Next()
		genTok, _ := sc.Next()
		_, _ = sc.Next() // "R"
		num, _ := numTok.Int()
		gen, _ := genTok.Int()

		// ResolveObject seeks the shared src.RS to the length object and
		// leaves it there; sc's byteReader buffers bytes read from that
		// same io.ReadSeeker and does not know its underlying position
		// just moved, so the outer object's scanner must be restored to
		// its own place in the file before it reads another byte (the
		// stream body that follows is read through sc, not a fresh
		// scanner). original_source/pdfconcat.c's r_seek_dictval_must
		// does the equivalent save/restore around the same resolve.
		resumeAt := sc.Pos()
		val, _, err := c.src.ResolveObject(int(num), int(gen))
		if err != nil {
			return 0, err
		}
		if err := sc.SeekTo(resumeAt); err != nil {
			return 0, err
		}

		n, ok := source.AsInt(val)
		if !ok {
			return 0, pdferr.New(pdferr.TypeMismatch, c.src.File, "indirect /Length object %d is not a number", num)
		}
		if err := c.emitRenumberedRef(int(num), int(gen)); err != nil {
			return 0, err
		}
		return n, nil
	}
	t, _ := sc.Next()
	n, err := t.Int()
	if err != nil {
		return 0, pdferr.At(pdferr.TypeMismatch, c.src.File, sc.Pos(), "/Length is not an integer")
	}
	return n, c.out.EmitAtom(t.Value)
}

// copyPlainDict copies a dict with no special handling of any key: used
// for dicts nested below an object's own top level, where /Length (if
// one even appears) is just ordinary data, not a stream-length hint.
func (c *Copier) copyPlainDict(sc *pdftoken.Scanner) error {
	if _, err := sc.Next(); err != nil { // consume "<<"
		return err
	}
	if err := c.out.EmitStructural("<<"); err != nil {
		return err
	}
	for {
		peek, err := sc.Peek()
		if err != nil {
			return err
		}
		if peek.Kind == pdftoken.DictEnd {
			_, _ = sc.Next()
			return c.out.EmitStructural(">>")
		}
		keyTok, err := sc.Next()
		if err != nil {
			return err
		}
		if keyTok.Kind != pdftoken.Name {
			return pdferr.At(pdferr.Syntax, c.src.File, sc.Pos(), "expected dict key, got %s", keyTok.Kind)
		}
		if err := c.out.EmitName(keyTok.Value); err != nil {
			return err
		}
		if err := c.copyValueTokens(sc); err != nil {
			return err
		}
	}
}

// isIndirectRef reports whether the scanner is positioned at "int int
// R" without consuming anything.
func isIndirectRef(sc *pdftoken.Scanner) bool {
	t1, err1 := sc.PeekAt(1)
	if err1 != nil || t1.Kind != pdftoken.Integer {
		return false
	}
	t2, err2 := sc.PeekAt(2)
	return err2 == nil && t2.IsKeyword("R")
}

// copyValueTokens copies exactly one PDF value (a scalar, a string, or
// a fully-nested array/dict) from sc to the output.
func (c *Copier) copyValueTokens(sc *pdftoken.Scanner) error {
	tok, err := sc.Peek()
	if err != nil {
		return err
	}
	switch tok.Kind {
	case pdftoken.DictStart:
		return c.copyPlainDict(sc)
	case pdftoken.ArrayStart:
		_, _ = sc.Next()
		if err := c.out.EmitStructural("["); err != nil {
			return err
		}
		for {
			peek, perr := sc.Peek()
			if perr != nil {
				return perr
			}
			if peek.Kind == pdftoken.ArrayEnd {
				_, _ = sc.Next()
				return c.out.EmitStructural("]")
			}
			if err := c.copyValueTokens(sc); err != nil {
				return err
			}
		}
	case pdftoken.Integer:
		if isIndirectRef(sc) {
			numTok, _ := sc.Next()
			genTok, _ := sc.Next()
			_, _ = sc.Next() // "R"
			num, _ := numTok.Int()
			gen, _ := genTok.Int()
			return c.emitRenumberedRef(int(num), int(gen))
		}
		t, _ := sc.Next()
		return c.out.EmitAtom(t.Value)
	case pdftoken.Real, pdftoken.Keyword:
		t, _ := sc.Next()
		return c.out.EmitAtom(t.Value)
	case pdftoken.Name:
		t, _ := sc.Next()
		return c.out.EmitName(t.Value)
	case pdftoken.String, pdftoken.Hex:
		t, _ := sc.Next()
		return c.out.EmitString([]byte(t.Value))
	default:
		return pdferr.At(pdferr.Syntax, c.src.File, sc.Pos(), "unexpected token %s in object body", tok.Kind)
	}
}

// emitRenumberedRef resolves (num, gen), enqueueing the target if it
// has not been reached yet, and emits the output-numbered reference in
// its place.
func (c *Copier) emitRenumberedRef(num, gen int) error {
	e, err := c.src.Lookup(num, gen)
	if err != nil {
		return err
	}
	c.enqueue(e)
	return c.out.EmitRef(e.TargetNum)
}
