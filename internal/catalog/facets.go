package catalog

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

type SortKey string

const (
	SortDefault   SortKey = "default"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortNameAsc   SortKey = "name-asc"
	SortNameDesc  SortKey = "name-desc"
	SortRating    SortKey = "rating"
)

// SortKeys lists the accepted sort orders in display order.
var SortKeys = []SortKey{SortDefault, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc, SortRating}

// ParseSort returns SortDefault for anything it does not recognise.
func ParseSort(s string) SortKey {
	k := SortKey(strings.TrimSpace(s))
	if slices.Contains(SortKeys, k) {
		return k
	}
	return SortDefault
}

// URL parameter names.
const (
	ParamQuery       = "q"
	ParamCategory    = "category"
	ParamSubCategory = "subCategory"
	ParamTag         = "tag"
	ParamBrand       = "brand"
	ParamSize        = "size"
	ParamColor       = "color"
	ParamCollection  = "collection"
	ParamMinPrice    = "minPrice"
	ParamMaxPrice    = "maxPrice"
	ParamSort        = "sort"
	ParamPage        = "page"
)

// CollectionAll never constrains the collections facet.
const CollectionAll = "all"

// FacetState is the current catalog query.
type FacetState struct {
	Query       string
	Category    string
	SubCategory string
	Tag         string
	MinPrice    int
	MaxPrice    int
	Brands      []string
	Sizes       []string
	Colors      []string
	Collections []string
	Sort        SortKey
	Page        int
}

// Codec maps FacetState to and from URL query values. The price bounds are
// the catalog-wide defaults, left out of the URL when unchanged.
type Codec struct {
	MinPrice int
	MaxPrice int
}

var DefaultCodec = Codec{MinPrice: 1, MaxPrice: 1000}

// Default is the state of an unfiltered first page.
func (c Codec) Default() FacetState {
	return FacetState{MinPrice: c.MinPrice, MaxPrice: c.MaxPrice, Sort: SortDefault, Page: 1}
}

func (c Codec) Encode(s FacetState) url.Values {
	v := url.Values{}
	setSingle(v, ParamQuery, s.Query)
	setSingle(v, ParamCategory, s.Category)
	setSingle(v, ParamSubCategory, s.SubCategory)
	setSingle(v, ParamTag, s.Tag)
	for _, b := range s.Brands {
		v.Add(ParamBrand, b)
	}
	for _, z := range s.Sizes {
		v.Add(ParamSize, z)
	}
	for _, col := range s.Colors {
		v.Add(ParamColor, col)
	}
	for _, col := range s.Collections {
		v.Add(ParamCollection, col)
	}
	if s.MinPrice != c.MinPrice {
		v.Set(ParamMinPrice, strconv.Itoa(s.MinPrice))
	}
	if s.MaxPrice != c.MaxPrice {
		v.Set(ParamMaxPrice, strconv.Itoa(s.MaxPrice))
	}
	if s.Sort != "" && s.Sort != SortDefault {
		v.Set(ParamSort, string(s.Sort))
	}
	if s.Page > 1 {
		v.Set(ParamPage, strconv.Itoa(s.Page))
	}
	return v
}

// Decode never fails: malformed values fall back to their defaults.
func (c Codec) Decode(v url.Values) FacetState {
	s := c.Default()
	s.Query = strings.TrimSpace(v.Get(ParamQuery))
	s.Category = strings.TrimSpace(v.Get(ParamCategory))
	s.SubCategory = strings.TrimSpace(v.Get(ParamSubCategory))
	s.Tag = strings.TrimSpace(v.Get(ParamTag))
	s.Brands = cleanSet(v[ParamBrand])
	s.Sizes = cleanSet(v[ParamSize])
	s.Colors = cleanSet(v[ParamColor])
	s.Collections = cleanSet(v[ParamCollection])
	s.MinPrice = parseBound(v.Get(ParamMinPrice), c.MinPrice)
	s.MaxPrice = parseBound(v.Get(ParamMaxPrice), c.MaxPrice)
	s.Sort = ParseSort(v.Get(ParamSort))
	if n, err := strconv.Atoi(strings.TrimSpace(v.Get(ParamPage))); err == nil && n >= 1 {
		s.Page = n
	}
	return s
}

// ParseQuery decodes a raw query string; a malformed string yields the
// default state rather than an error.
func (c Codec) ParseQuery(raw string) FacetState {
	v, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return c.Default()
	}
	return c.Decode(v)
}

func setSingle(v url.Values, key, val string) {
	if val = strings.TrimSpace(val); val != "" {
		v.Set(key, val)
	}
}

func parseBound(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// cleanSet trims values and drops blanks and case-insensitive duplicates,
// keeping first-seen order.
func cleanSet(in []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, raw := range in {
		s := strings.TrimSpace(raw)
		k := fold(s)
		if s == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
