package parser

import (
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/dgallion1/docstruct/internal/doc"
)

// The library's Outline() helper drops page numbers, so bookmarks are read
// by walking the raw outline objects and resolving each destination against
// the page tree.

const maxBookmarkItems = 2048

// readBookmarks returns the document's outline as flat (level, title, page)
// entries in outline order. Items without a resolvable page or a title are
// skipped. Malformed outline objects abort the walk rather than the parse.
func readBookmarks(r *pdf.Reader) (entries []doc.BookmarkEntry) {
	defer func() {
		if rec := recover(); rec != nil {
			entries = nil
		}
	}()

	root := r.Trailer().Key("Root")
	outlines := root.Key("Outlines")
	if outlines.IsNull() {
		return nil
	}

	w := &outlineWalker{root: root, idents: pageIdentities(r)}
	w.walk(outlines.Key("First"), 1)
	return w.entries
}

// pageIdentities maps each page object's rendered form to its 1-based page
// number. Indirect references render as "N G R" inside the dict, which
// makes the rendered form a usable identity for the page object when the
// same object is reached again through a destination array.
func pageIdentities(r *pdf.Reader) map[string]int {
	idents := make(map[string]int, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		idents[p.V.String()] = i
	}
	return idents
}

type outlineWalker struct {
	root    pdf.Value
	idents  map[string]int
	entries []doc.BookmarkEntry
	seen    int
}

func (w *outlineWalker) walk(item pdf.Value, level int) {
	for !item.IsNull() {
		if w.seen >= maxBookmarkItems {
			return
		}
		w.seen++

		title := strings.TrimSpace(item.Key("Title").Text())
		page := w.itemPage(item)
		if title != "" && page > 0 {
			w.entries = append(w.entries, doc.BookmarkEntry{Level: level, Title: title, Page: page})
		}

		if first := item.Key("First"); !first.IsNull() {
			w.walk(first, level+1)
		}
		item = item.Key("Next")
	}
}

func (w *outlineWalker) itemPage(item pdf.Value) int {
	dest := item.Key("Dest")
	if dest.IsNull() {
		action := item.Key("A")
		if action.Key("S").Name() == "GoTo" {
			dest = action.Key("D")
		}
	}
	return w.destPage(dest, 0)
}

// destPage resolves an explicit or named destination to a 1-based page.
func (w *outlineWalker) destPage(dest pdf.Value, depth int) int {
	if depth > 4 {
		return 0
	}
	switch dest.Kind() {
	case pdf.Array:
		if dest.Len() == 0 {
			return 0
		}
		first := dest.Index(0)
		if first.Kind() == pdf.Integer {
			// Numeric destinations are 0-based page indices.
			return int(first.Int64()) + 1
		}
		return w.idents[first.String()]
	case pdf.Name:
		return w.destPage(w.lookupNamed(dest.Name()), depth+1)
	case pdf.String:
		return w.destPage(w.lookupNamed(dest.Text()), depth+1)
	case pdf.Dict:
		return w.destPage(dest.Key("D"), depth+1)
	}
	return 0
}

// lookupNamed finds a named destination in the legacy Dests dictionary or
// the Names/Dests name tree.
func (w *outlineWalker) lookupNamed(name string) pdf.Value {
	if name == "" {
		return pdf.Value{}
	}
	if d := w.root.Key("Dests").Key(name); !d.IsNull() {
		return d
	}
	return nameTreeLookup(w.root.Key("Names").Key("Dests"), name, 0)
}

func nameTreeLookup(node pdf.Value, name string, depth int) pdf.Value {
	if node.IsNull() || depth > 32 {
		return pdf.Value{}
	}
	names := node.Key("Names")
	if names.Kind() == pdf.Array {
		for i := 0; i+1 < names.Len(); i += 2 {
			if names.Index(i).Text() == name {
				return names.Index(i + 1)
			}
		}
	}
	kids := node.Key("Kids")
	if kids.Kind() == pdf.Array {
		for i := 0; i < kids.Len(); i++ {
			if v := nameTreeLookup(kids.Index(i), name, depth+1); !v.IsNull() {
				return v
			}
		}
	}
	return pdf.Value{}
}
