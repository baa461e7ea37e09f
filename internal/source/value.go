package source

import (
	"github.com/benoitkugler/pdfconcat/internal/pdferr"
	"github.com/benoitkugler/pdfconcat/internal/pdftoken"
)

// Value is a small, in-memory PDF object tree, used only for the
// handful of dictionaries pdfconcat must actually inspect: trailers,
// the catalog, and a top /Pages node. The bulk of each input's object
// graph is never materialized this way — it is walked and copied
// token by token (see internal/merge) to keep memory bounded by the
// xref tables rather than the document body.
type Value interface{ isValue() }

type (
	Int   int64
	Real  float64
	Bool  bool
	Null  struct{}
	Name  string
	Str   string // decoded literal or hex string payload
	Array []Value
	Dict  map[string]Value
	Ref   struct {
		Num int
		Gen int
	}
)

func (Int) isValue()   {}
func (Real) isValue()  {}
func (Bool) isValue()  {}
func (Null) isValue()  {}
func (Name) isValue()  {}
func (Str) isValue()   {}
func (Array) isValue() {}
func (Dict) isValue()  {}
func (Ref) isValue()   {}

// ParseValue reads one PDF object (possibly an indirect reference)
// starting at the scanner's current position.
func ParseValue(sc *pdftoken.Scanner, file string) (Value, error) {
	tok, err := sc.Next()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case pdftoken.Integer:
		n, _ := tok.Int()
		// look ahead for "gen R"
		if t2, err := sc.PeekAt(0); err == nil && t2.Kind == pdftoken.Integer {
			if t3, err := sc.PeekAt(1); err == nil && t3.IsKeyword("R") {
				gen, _ := t2.Int()
				_, _ = sc.Next() // gen
				_, _ = sc.Next() // R
				return Ref{Num: int(n), Gen: int(gen)}, nil
			}
		}
		return Int(n), nil
	case pdftoken.Real:
		f, _ := tok.Float()
		return Real(f), nil
	case pdftoken.Name:
		return Name(tok.Value), nil
	case pdftoken.String, pdftoken.Hex:
		return Str(tok.Value), nil
	case pdftoken.ArrayStart:
		return parseArray(sc, file)
	case pdftoken.DictStart:
		return parseDict(sc, file)
	case pdftoken.Keyword:
		switch tok.Value {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		case "null":
			return Null{}, nil
		default:
			return nil, pdferr.At(pdferr.Syntax, file, sc.Pos(), "unexpected keyword %q", tok.Value)
		}
	default:
		return nil, pdferr.At(pdferr.Syntax, file, sc.Pos(), "unexpected token %s", tok.Kind)
	}
}

func parseArray(sc *pdftoken.Scanner, file string) (Array, error) {
	var out Array
	for {
		tok, err := sc.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == pdftoken.ArrayEnd {
			_, _ = sc.Next()
			return out, nil
		}
		if tok.Kind == pdftoken.EOF {
			return nil, pdferr.At(pdferr.Syntax, file, sc.Pos(), "unterminated array")
		}
		v, err := ParseValue(sc, file)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func parseDict(sc *pdftoken.Scanner, file string) (Dict, error) {
	out := make(Dict)
	for {
		tok, err := sc.Next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == pdftoken.DictEnd {
			return out, nil
		}
		if tok.Kind != pdftoken.Name {
			return nil, pdferr.At(pdferr.Syntax, file, sc.Pos(), "expected dict key, got %s", tok.Kind)
		}
		key := tok.Value
		val, err := ParseValue(sc, file)
		if err != nil {
			return nil, err
		}
		if _, dup := out[key]; dup {
			return nil, pdferr.At(pdferr.Syntax, file, sc.Pos(), "duplicate dictionary key %q", key)
		}
		out[key] = val
	}
}

// AsInt returns o as an integer when it is a direct Int or Real (a
// Real is truncated). It does not follow indirect references.
func AsInt(o Value) (int64, bool) {
	switch v := o.(type) {
	case Int:
		return int64(v), true
	case Real:
		return int64(v), true
	default:
		return 0, false
	}
}
