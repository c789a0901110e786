package paging

import "duallist/internal/domain"

// MergeFunc combines the items already held with a freshly fetched page.
// offset is the page's offset; offset 0 means the page starts a new list.
type MergeFunc func(existing, page []domain.Item, offset int) []domain.Item

// Append replaces on offset 0 and concatenates otherwise.
func Append(existing, page []domain.Item, offset int) []domain.Item {
	if offset == 0 {
		return append([]domain.Item(nil), page...)
	}
	merged := make([]domain.Item, 0, len(existing)+len(page))
	merged = append(merged, existing...)
	return append(merged, page...)
}

// Dedupe is Append followed by collapsing repeated ids. Each id keeps the
// position of its first occurrence and the value of its last one, so an
// item that shifted across a page boundary between fetches shows once.
func Dedupe(existing, page []domain.Item, offset int) []domain.Item {
	return dedupeByID(Append(existing, page, offset))
}

func dedupeByID(items []domain.Item) []domain.Item {
	index := make(map[int]int, len(items))
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if pos, seen := index[it.ID]; seen {
			out[pos] = it
			continue
		}
		index[it.ID] = len(out)
		out = append(out, it)
	}
	return out
}
