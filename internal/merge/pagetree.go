package merge

import "github.com/benoitkugler/pdfconcat/internal/source"

// rewriteCatalog copies every catalog key except /Pages verbatim
// (renumbering any references) and redirects /Pages to the
// synthesized root, "1 0 R". Applied to every input's catalog, not
// only the first: each input reaches its own catalog by way of its
// own trailer's /Root, so every one of them passes through here, even
// though only the first input's trailer ends up as the output
// trailer (component G).
func (c *Copier) rewriteCatalog(d source.Dict) error {
	if err := c.out.EmitStructural("<<"); err != nil {
		return err
	}
	for _, k := range sortedKeys(d) {
		if k == "Pages" {
			if err := c.out.EmitName("Pages"); err != nil {
				return err
			}
			if err := c.out.EmitRef(1); err != nil {
				return err
			}
			continue
		}
		if err := c.out.EmitName(k); err != nil {
			return err
		}
		if err := c.emitValue(d[k]); err != nil {
			return err
		}
	}
	return c.out.EmitStructural(">>")
}

// rewriteTopPages copies an input's top /Pages node, injecting
// "/Parent 1 0 R" unconditionally and dropping any existing /Parent:
// the per-input top pages becomes a mid-level node under the
// synthesized root.
func (c *Copier) rewriteTopPages(d source.Dict) error {
	if err := c.out.EmitStructural("<<"); err != nil {
		return err
	}
	if err := c.out.EmitName("Parent"); err != nil {
		return err
	}
	if err := c.out.EmitRef(1); err != nil {
		return err
	}
	for _, k := range sortedKeys(d) {
		if k == "Parent" {
			continue
		}
		if err := c.out.EmitName(k); err != nil {
			return err
		}
		if err := c.emitValue(d[k]); err != nil {
			return err
		}
	}
	return c.out.EmitStructural(">>")
}
