package catalog

import (
	"sort"
	"strings"
)

const (
	rankName = 1
	rankTag  = 2
	rankRest = 3
)

// fold lowers s the way ILIKE compares, so every row the query returned is
// ranked on the same match it was selected by.
func fold(s string) string {
	return strings.ToLower(s)
}

// Rank scores a product for term: 1 for a name hit, 2 for a tag hit when the
// name missed, 3 for anything else the search matched on.
func Rank(term string, p Product) int {
	t := fold(strings.TrimSpace(term))
	switch {
	case strings.Contains(fold(p.Name), t):
		return rankName
	case strings.Contains(fold(p.Tags), t):
		return rankTag
	default:
		return rankRest
	}
}

// RankResults orders search rows by rank, then by sales descending. Rows of
// equal rank and sales keep their incoming order.
func RankResults(term string, rows []Product) []Product {
	ranks := make(map[int64]int, len(rows))
	for _, p := range rows {
		ranks[p.ID] = Rank(term, p)
	}
	out := make([]Product, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := ranks[out[i].ID], ranks[out[j].ID]
		if ri != rj {
			return ri < rj
		}
		return out[i].Sales > out[j].Sales
	})
	return out
}
