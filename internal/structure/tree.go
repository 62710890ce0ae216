package structure

// assignEndPages gives every entry an inclusive 0-based end page by
// scanning forward for the next entry at the same or a higher level. The
// last entry of a level runs to the end of the document, and an end page
// never precedes its own start page.
func assignEndPages(entries []*Entry, pageCount int) {
	last := pageCount - 1
	if last < 0 {
		last = 0
	}
	for i, e := range entries {
		e.NextSameOrHigher = -1
		end := last
		for j := i + 1; j < len(entries); j++ {
			if entries[j].Level <= e.Level {
				e.NextSameOrHigher = j
				end = entries[j].StartPage - 1
				break
			}
		}
		if end < e.StartPage {
			end = e.StartPage
		}
		e.EndPage = end
	}
}

// buildTree nests a flat level-ordered entry list using a stack of open
// ancestors. An entry deeper than its predecessor becomes a child; one at
// the same or a shallower level pops back to the matching ancestor.
func buildTree(entries []*Entry) []*Entry {
	var roots []*Entry
	var stack []*Entry
	for _, e := range entries {
		for len(stack) > 0 && stack[len(stack)-1].Level >= e.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, e)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, e)
		}
		stack = append(stack, e)
	}
	return roots
}

// ownIntervals is the entry's page range minus every descendant's range,
// at page granularity.
func ownIntervals(e *Entry) [][2]int {
	intervals := [][2]int{{e.StartPage, e.EndPage}}
	for _, c := range descendantIntervals(e) {
		intervals = subtractInterval(intervals, c[0], c[1])
	}
	return intervals
}

func descendantIntervals(e *Entry) [][2]int {
	var acc [][2]int
	for _, c := range e.Children {
		acc = append(acc, [2]int{c.StartPage, c.EndPage})
		acc = append(acc, descendantIntervals(c)...)
	}
	return acc
}

func subtractInterval(intervals [][2]int, lo, hi int) [][2]int {
	if lo > hi {
		return intervals
	}
	var out [][2]int
	for _, iv := range intervals {
		if hi < iv[0] || lo > iv[1] {
			out = append(out, iv)
			continue
		}
		if iv[0] < lo {
			out = append(out, [2]int{iv[0], lo - 1})
		}
		if iv[1] > hi {
			out = append(out, [2]int{hi + 1, iv[1]})
		}
	}
	return out
}
