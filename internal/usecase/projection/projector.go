// Package projection merges the server's raw cart with the fetched catalog
// into renderable view items.
package projection

import (
	"fmt"
	"strings"

	"example.com/storefront/internal/domain/cart"
	"example.com/storefront/internal/domain/catalog"
)

// Project joins each raw cart entry with its catalog product. The result
// always has the same length and order as rawCart and is a fresh slice;
// the inputs are never mutated, so it is safe to call on every render.
//
// An entry whose product id has no catalog match is not dropped: it is
// emitted as a placeholder (id and qty kept, display fields zero, Missing
// set) and the returned error wraps cart.ErrProjectionInconsistency with
// the offending ids. Callers render the placeholder and surface a warning.
func Project(rawCart []cart.RawEntry, products []catalog.Product) ([]cart.ViewItem, error) {
	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]cart.ViewItem, 0, len(rawCart))
	var missing []string
	for _, entry := range rawCart {
		item := cart.ViewItem{RawEntry: entry}
		if p, ok := byID[entry.ProductID]; ok {
			item.Name = p.Name
			item.Category = p.Category
			item.Cost = p.Cost
			item.Rating = p.Rating
			item.Image = p.Image
		} else {
			item.Missing = true
			missing = append(missing, entry.ProductID)
		}
		items = append(items, item)
	}

	if len(missing) > 0 {
		return items, fmt.Errorf("%w: %s", cart.ErrProjectionInconsistency, strings.Join(missing, ", "))
	}
	return items, nil
}
