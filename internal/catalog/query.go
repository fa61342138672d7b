package catalog

import (
	"slices"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"storefront/internal/domain"
)

const DefaultPageSize = 12

type Result struct {
	Items      []domain.Product `json:"items"`
	TotalCount int              `json:"totalCount"`
	TotalPages int              `json:"totalPages"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
}

// TotalPages is never below 1, so an empty result still has a first page.
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if count <= 0 {
		return 1
	}
	return (count + pageSize - 1) / pageSize
}

// ClampPage moves page into [1, totalPages].
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Query filters, sorts and paginates the catalog. The catalog slice is only
// read; filtering works on a fresh slice so callers may share it freely.
func Query(products []domain.Product, f FacetState, pageSize int) Result {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	matched := Filter(products, f)
	Sort(matched, f.Sort)

	total := len(matched)
	pages := TotalPages(total, pageSize)
	page := ClampPage(f.Page, pages)

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	items := []domain.Product{}
	if start < end {
		items = slices.Clone(matched[start:end])
	}
	return Result{Items: items, TotalCount: total, TotalPages: pages, Page: page, PageSize: pageSize}
}

// Count is the number of products matching every active filter.
func Count(products []domain.Product, f FacetState) int {
	n := 0
	for _, p := range products {
		if Matches(p, f) {
			n++
		}
	}
	return n
}

// Filter keeps catalog order.
func Filter(products []domain.Product, f FacetState) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if Matches(p, f) {
			out = append(out, p)
		}
	}
	return out
}

// Matches reports whether p satisfies every active predicate of f.
func Matches(p domain.Product, f FacetState) bool {
	if !equalsFacet(p.Category, f.Category) ||
		!equalsFacet(p.SubCategory, f.SubCategory) ||
		!tagFacet(p.Tags, f.Tag) {
		return false
	}
	if !textMatch(p, f.Query) {
		return false
	}
	if !inPriceRange(p.Price, f.MinPrice, f.MaxPrice) {
		return false
	}
	if !anyOf([]string{p.Brand}, f.Brands) || !anyOf(p.Sizes, f.Sizes) || !anyOf(p.Colors, f.Colors) {
		return false
	}
	return inCollections(p, f.Collections)
}

func equalsFacet(field, want string) bool {
	want = fold(want)
	if want == "" {
		return true
	}
	return fold(field) == want
}

func tagFacet(tags []string, want string) bool {
	want = fold(want)
	if want == "" {
		return true
	}
	for _, t := range tags {
		if fold(t) == want {
			return true
		}
	}
	return false
}

func textMatch(p domain.Product, q string) bool {
	q = fold(q)
	if q == "" {
		return true
	}
	fields := append([]string{p.Title, p.Brand, p.Category, p.SubCategory}, p.Tags...)
	for _, s := range fields {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// A zero range (0, 0) is unconstrained; otherwise both bounds are inclusive.
func inPriceRange(price decimal.Decimal, lo, hi int) bool {
	if lo == 0 && hi == 0 {
		return true
	}
	return price.GreaterThanOrEqual(decimal.NewFromInt(int64(lo))) &&
		price.LessThanOrEqual(decimal.NewFromInt(int64(hi)))
}

// anyOf is true when selected is empty or has at least one value in have.
func anyOf(have, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		s = fold(s)
		if s == "" {
			continue
		}
		for _, h := range have {
			if fold(h) == s {
				return true
			}
		}
	}
	return false
}

func inCollections(p domain.Product, selected []string) bool {
	active := make([]string, 0, len(selected))
	for _, s := range selected {
		if s = fold(s); s != "" && s != CollectionAll {
			active = append(active, s)
		}
	}
	if len(active) == 0 {
		return true
	}
	have := append([]string{p.Category, p.SubCategory}, p.Tags...)
	return anyOf(have, active)
}

// Sort reorders products in place; SortDefault keeps the given order.
func Sort(products []domain.Product, key SortKey) {
	switch key {
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price.LessThan(products[j].Price) })
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price.GreaterThan(products[j].Price) })
	case SortNameAsc, SortNameDesc:
		// Collators keep internal buffers; one per call.
		col := collate.New(language.English, collate.IgnoreCase)
		desc := key == SortNameDesc
		sort.SliceStable(products, func(i, j int) bool {
			c := col.CompareString(products[i].Title, products[j].Title)
			if desc {
				return c > 0
			}
			return c < 0
		})
	case SortRating:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Rating > products[j].Rating })
	}
}
