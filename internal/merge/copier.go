// Package merge implements components E and F of pdfconcat: the
// reachability-driven object copier and the page-tree merger. It is
// grounded on github.com/benoitkugler/pdf's reader/file package for
// the xref-driven traversal shape, generalized from "build one
// in-memory document model" to "copy a reachable object subgraph
// token by token while renumbering it", since the model the teacher
// builds is exactly what the memory-bound resource model here
// forbids materializing for page and content-stream objects.
package merge

import (
	"sort"
	"strconv"

	"github.com/benoitkugler/pdfconcat/internal/pdferr"
	"github.com/benoitkugler/pdfconcat/internal/sink"
	"github.com/benoitkugler/pdfconcat/internal/source"
)

// Copier carries the per-input reachability state: the FIFO of
// objects reached but not yet copied, bound to one source.Source and
// the shared output sink.
type Copier struct {
	src *source.Source
	out *sink.Output

	queue []*source.Entry
}

// NewCopier starts a fresh copier for one input against the run's
// shared output.
func NewCopier(src *source.Source, out *sink.Output) *Copier {
	return &Copier{src: src, out: out}
}

// enqueue assigns a fresh output object number to e the first time it
// is reached (spec invariant #4: target_num assignment is monotonic
// and happens at most once) and appends it to the FIFO.
func (c *Copier) enqueue(e *source.Entry) {
	if e.TargetNum != 0 {
		return
	}
	e.TargetNum = c.out.AllocObjNum()
	c.queue = append(c.queue, e)
}

func (c *Copier) dequeue() *source.Entry {
	e := c.queue[0]
	c.queue = c.queue[1:]
	return e
}

// sortedKeys returns d's keys in a stable order. Go map iteration is
// randomized; the spec's determinism guarantee (contiguous, input-
// ordered object numbers) only holds if every dict we walk visits its
// keys in a repeatable order.
func sortedKeys(d source.Dict) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// seedRefs recursively scans v for indirect references and enqueues
// their targets, without emitting anything. This is how a trailer
// dictionary seeds the initial reachability set (spec §4.E): the
// trailer itself is never copied to the body, only mined for refs. A
// reference the xref table cannot resolve is a malformed-file error,
// exactly as it would be anywhere else a reference is followed
// (original_source/pdfconcat.c's objentry() calls erri(), fatal, for
// the same condition reached from wr_enqueue_struct) — not a
// permissive fallback.
func (c *Copier) seedRefs(v source.Value) error {
	switch t := v.(type) {
	case source.Ref:
		e, err := c.src.Lookup(t.Num, t.Gen)
		if err != nil {
			return err
		}
		c.enqueue(e)
	case source.Array:
		for _, e := range t {
			if err := c.seedRefs(e); err != nil {
				return err
			}
		}
	case source.Dict:
		for _, k := range sortedKeys(t) {
			if err := c.seedRefs(t[k]); err != nil {
				return err
			}
		}
	}
	return nil
}

// emitValue renders a fully in-memory Value (trailer, catalog, or top
// /Pages substructure) to the output, renumbering any indirect
// references it contains and enqueueing their targets if unreached.
func (c *Copier) emitValue(v source.Value) error {
	switch t := v.(type) {
	case source.Int:
		return c.out.EmitAtom(strconv.FormatInt(int64(t), 10))
	case source.Real:
		return c.out.EmitAtom(strconv.FormatFloat(float64(t), 'f', -1, 64))
	case source.Bool:
		if t {
			return c.out.EmitAtom("true")
		}
		return c.out.EmitAtom("false")
	case source.Null:
		return c.out.EmitAtom("null")
	case source.Name:
		return c.out.EmitName(string(t))
	case source.Str:
		return c.out.EmitString([]byte(t))
	case source.Array:
		if err := c.out.EmitStructural("["); err != nil {
			return err
		}
		for _, e := range t {
			if err := c.emitValue(e); err != nil {
				return err
			}
		}
		return c.out.EmitStructural("]")
	case source.Dict:
		if err := c.out.EmitStructural("<<"); err != nil {
			return err
		}
		for _, k := range sortedKeys(t) {
			if err := c.out.EmitName(k); err != nil {
				return err
			}
			if err := c.emitValue(t[k]); err != nil {
				return err
			}
		}
		return c.out.EmitStructural(">>")
	case source.Ref:
		e, err := c.src.Lookup(t.Num, t.Gen)
		if err != nil {
			return err
		}
		c.enqueue(e)
		return c.out.EmitRef(e.TargetNum)
	default:
		return pdferr.New(pdferr.TypeMismatch, c.src.File, "unrecognized value type in dictionary")
	}
}
