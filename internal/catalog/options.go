package catalog

import (
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// Options lists the values each facet can take in a catalog, used to render
// filter controls.
type Options struct {
	Categories    []string        `json:"categories"`
	SubCategories []string        `json:"subCategories"`
	Tags          []string        `json:"tags"`
	Brands        []string        `json:"brands"`
	Sizes         []string        `json:"sizes"`
	Colors        []string        `json:"colors"`
	MinPrice      decimal.Decimal `json:"minPrice"`
	MaxPrice      decimal.Decimal `json:"maxPrice"`
}

func BuildOptions(products []domain.Product) Options {
	var o Options
	var cats, subs, tags, brands, sizes, colors []string
	for i, p := range products {
		cats = append(cats, p.Category)
		subs = append(subs, p.SubCategory)
		tags = append(tags, p.Tags...)
		brands = append(brands, p.Brand)
		sizes = append(sizes, p.Sizes...)
		colors = append(colors, p.Colors...)
		if i == 0 || p.Price.LessThan(o.MinPrice) {
			o.MinPrice = p.Price
		}
		if i == 0 || p.Price.GreaterThan(o.MaxPrice) {
			o.MaxPrice = p.Price
		}
	}
	o.Categories = orEmpty(cleanSet(cats))
	o.SubCategories = orEmpty(cleanSet(subs))
	o.Tags = orEmpty(cleanSet(tags))
	o.Brands = orEmpty(cleanSet(brands))
	o.Sizes = orEmpty(cleanSet(sizes))
	o.Colors = orEmpty(cleanSet(colors))
	return o
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Fit widens the codec's default price bounds so the unfiltered state covers
// every product's price. Bounds that already cover the catalog are kept.
func (c Codec) Fit(products []domain.Product) Codec {
	if len(products) == 0 {
		return c
	}
	o := BuildOptions(products)
	if lo := int(o.MinPrice.Floor().IntPart()); lo < c.MinPrice {
		c.MinPrice = lo
	}
	if hi := int(o.MaxPrice.Ceil().IntPart()); hi > c.MaxPrice {
		c.MaxPrice = hi
	}
	return c
}
