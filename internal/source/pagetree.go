package source

import "github.com/benoitkugler/pdfconcat/internal/pdferr"

// resolvePageTree walks Catalog -> Pages -> Count, recording the byte
// offsets the copier needs to recognize those two objects, and
// accumulating Count into PageCount.
func (src *Source) resolvePageTree() error {
	catalog, catEntry, err := src.ResolveObject(src.Root.Num, src.Root.Gen)
	if err != nil {
		return err
	}
	catDict, ok := catalog.(Dict)
	if !ok {
		return pdferr.New(pdferr.TypeMismatch, src.File, "catalog object is not a dictionary")
	}
	if err := requireType(catDict, "Catalog", src.File); err != nil {
		return err
	}
	src.CatalogOffset = catEntry.Offset

	pagesVal, present := catDict["Pages"]
	if !present {
		return pdferr.New(pdferr.Missing, src.File, "catalog has no /Pages")
	}
	pagesRef, ok := pagesVal.(Ref)
	if !ok {
		return pdferr.New(pdferr.TypeMismatch, src.File, "/Pages is not an indirect reference")
	}
	src.PagesRef = pagesRef

	pages, pagesEntry, err := src.ResolveObject(pagesRef.Num, pagesRef.Gen)
	if err != nil {
		return err
	}
	pagesDict, ok := pages.(Dict)
	if !ok {
		return pdferr.New(pdferr.TypeMismatch, src.File, "top /Pages object is not a dictionary")
	}
	if err := requireType(pagesDict, "Pages", src.File); err != nil {
		return err
	}
	src.PagesOffset = pagesEntry.Offset

	countVal, present := pagesDict["Count"]
	if !present {
		return pdferr.New(pdferr.Missing, src.File, "top /Pages has no /Count")
	}
	count, err := src.ResolveInt(countVal)
	if err != nil {
		return err
	}
	if count < 0 {
		return pdferr.New(pdferr.TypeMismatch, src.File, "/Count is negative")
	}
	src.PageCount = int(count)
	return nil
}

func requireType(d Dict, want string, file string) error {
	v, present := d["Type"]
	if !present {
		return pdferr.New(pdferr.Missing, file, "missing /Type, expected /%s", want)
	}
	n, ok := v.(Name)
	if !ok || string(n) != want {
		return pdferr.New(pdferr.TypeMismatch, file, "expected /Type /%s, got %v", want, v)
	}
	return nil
}
