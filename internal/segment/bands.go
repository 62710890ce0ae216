package segment

import (
	"github.com/dgallion1/docstruct/internal/doc"
	"github.com/dgallion1/docstruct/internal/textnorm"
)

// Band texts shorter or longer than these are never treated as running
// headers; page numbers alone are too short to match reliably and full
// sentences are never bands.
const (
	minBandLength = 3
	maxBandLength = 200
)

// repeatingBands finds the normalized texts that recur in the top or
// bottom margin across enough pages to count as running headers or
// footers. The page extent comes from the lowest block on each page.
func (s *Segmenter) repeatingBands(pages map[int][]doc.TextBlock) map[string]struct{} {
	pagesSeen := make(map[string]map[int]struct{})
	for page, blocks := range pages {
		if len(blocks) == 0 {
			continue
		}
		bottom := 0.0
		for _, b := range blocks {
			if b.BBox.Y2 > bottom {
				bottom = b.BBox.Y2
			}
		}
		for _, b := range blocks {
			top := b.BBox.Y1 < s.cfg.RepeatBandMargin
			foot := b.BBox.Y2 > bottom-s.cfg.RepeatBandMargin
			if !top && !foot {
				continue
			}
			key := textnorm.Key(b.Text)
			if len(key) < minBandLength || len(key) > maxBandLength {
				continue
			}
			if pagesSeen[key] == nil {
				pagesSeen[key] = make(map[int]struct{})
			}
			pagesSeen[key][page] = struct{}{}
		}
	}

	bands := make(map[string]struct{})
	for key, onPages := range pagesSeen {
		if len(onPages) >= s.cfg.RepeatBandMinPages {
			bands[key] = struct{}{}
		}
	}
	return bands
}

// dropBands removes the blocks whose normalized text is a repeating band.
func dropBands(blocks []doc.TextBlock, bands map[string]struct{}) []doc.TextBlock {
	if len(bands) == 0 {
		return blocks
	}
	out := make([]doc.TextBlock, 0, len(blocks))
	for _, b := range blocks {
		if _, ok := bands[textnorm.Key(b.Text)]; ok {
			continue
		}
		out = append(out, b)
	}
	return out
}
