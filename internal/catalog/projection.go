package catalog

import (
	"slices"
	"strings"

	"product-catalog-client/internal/domain"
)

// Project returns the visible subsequence of all: products whose name contains
// search case-insensitively, favorites first. Order within the favorite and
// non-favorite groups follows all.
func Project(all []domain.Product, search string) []domain.Product {
	needle := strings.ToLower(search)
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if needle == "" || strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, favoritesFirst)
	return out
}

func favoritesFirst(a, b domain.Product) int {
	switch {
	case a.IsFavorite == b.IsFavorite:
		return 0
	case a.IsFavorite:
		return -1
	default:
		return 1
	}
}
