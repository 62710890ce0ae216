// Package doc defines the document model shared by the extractor, the
// structure resolver and the segmenter: coordinate-addressed text blocks,
// document metadata and raw outline bookmarks.
package doc

// BoundingBox is an axis-aligned rectangle in page coordinates. The origin
// is the top-left corner of the page, y grows downward, units are PDF
// points. X1 <= X2 and Y1 <= Y2 hold for every box produced by the
// extractor.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

func (b BoundingBox) Width() float64  { return b.X2 - b.X1 }
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }

// Union returns the minimal box covering both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{
		X1: min(b.X1, o.X1),
		Y1: min(b.Y1, o.Y1),
		X2: max(b.X2, o.X2),
		Y2: max(b.Y2, o.Y2),
	}
}

// OverlapsHorizontally reports whether the two boxes share any x extent,
// i.e. whether they could sit in the same column.
func (b BoundingBox) OverlapsHorizontally(o BoundingBox) bool {
	return !(b.X2 < o.X1 || o.X2 < b.X1)
}

// VerticalGap returns the smaller of the two stacking gaps between the
// boxes. Overlapping boxes report the (negative) overlap distance.
func (b BoundingBox) VerticalGap(o BoundingBox) float64 {
	g1 := o.Y1 - b.Y2 // b above o
	g2 := b.Y1 - o.Y2 // o above b
	if abs(g1) < abs(g2) {
		return g1
	}
	return g2
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// TextBlock is one extracted line of text with its geometry and the font
// attributes of its first span. Blocks are immutable once extracted.
type TextBlock struct {
	Text     string      `json:"text"`
	BBox     BoundingBox `json:"bbox"`
	Page     int         `json:"page"` // 1-based
	FontSize float64     `json:"font_size"`
	Font     string      `json:"font"`
	Bold     bool        `json:"is_bold"`
	Italic   bool        `json:"is_italic"`
}

// DocumentMetadata carries the PDF info dictionary, best effort. Any field
// may be empty.
type DocumentMetadata struct {
	Title        string   `json:"title"`
	Authors      []string `json:"authors"`
	Subject      string   `json:"subject,omitempty"`
	Creator      string   `json:"creator,omitempty"`
	Producer     string   `json:"producer,omitempty"`
	CreationDate string   `json:"creation_date,omitempty"`
	ModDate      string   `json:"mod_date,omitempty"`
	PageCount    int      `json:"page_count"`
}

// BookmarkEntry is a raw outline item as reported by the PDF, page 1-based.
type BookmarkEntry struct {
	Level int    `json:"level"`
	Title string `json:"title"`
	Page  int    `json:"page"`
}

// PageSize is the media box extent of one page in points.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ParsedDocument is the extractor output: reading-ordered text blocks plus
// metadata, page geometry and the raw bookmark list. FileHash is the
// SHA-256 hex of the input bytes and doubles as the document ID.
type ParsedDocument struct {
	Metadata  DocumentMetadata `json:"metadata"`
	Blocks    []TextBlock      `json:"text_blocks"`
	PageCount int              `json:"page_count"`
	FileHash  string           `json:"file_hash"`
	Bookmarks []BookmarkEntry  `json:"toc_entries"`
	PageSizes []PageSize       `json:"page_sizes"`
}

// PageBlocks returns the blocks of one page in extraction order.
func (d *ParsedDocument) PageBlocks(page int) []TextBlock {
	var out []TextBlock
	for _, b := range d.Blocks {
		if b.Page == page {
			out = append(out, b)
		}
	}
	return out
}

// PageSize returns the media box of a 1-based page, falling back to US
// Letter when the page was not recorded.
func (d *ParsedDocument) PageSize(page int) PageSize {
	if page >= 1 && page <= len(d.PageSizes) {
		ps := d.PageSizes[page-1]
		if ps.Width > 0 && ps.Height > 0 {
			return ps
		}
	}
	return PageSize{Width: 612, Height: 792}
}
