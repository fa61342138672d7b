package catalog

import (
	"net/url"
	"slices"
	"strings"
)

// Update is a partial change to a FacetState.
type Update struct {
	apply    func(*FacetState)
	pageOnly bool
}

func SetQuery(q string) Update {
	return Update{apply: func(s *FacetState) { s.Query = strings.TrimSpace(q) }}
}

func SetCategory(v string) Update {
	return Update{apply: func(s *FacetState) { s.Category = strings.TrimSpace(v) }}
}

func SetSubCategory(v string) Update {
	return Update{apply: func(s *FacetState) { s.SubCategory = strings.TrimSpace(v) }}
}

func SetTag(v string) Update {
	return Update{apply: func(s *FacetState) { s.Tag = strings.TrimSpace(v) }}
}

func SetPriceRange(lo, hi int) Update {
	return Update{apply: func(s *FacetState) { s.MinPrice, s.MaxPrice = lo, hi }}
}

func ToggleBrand(v string) Update {
	return Update{apply: func(s *FacetState) { s.Brands = toggle(s.Brands, v) }}
}

func ToggleSize(v string) Update {
	return Update{apply: func(s *FacetState) { s.Sizes = toggle(s.Sizes, v) }}
}

func ToggleColor(v string) Update {
	return Update{apply: func(s *FacetState) { s.Colors = toggle(s.Colors, v) }}
}

func ToggleCollection(v string) Update {
	return Update{apply: func(s *FacetState) { s.Collections = toggle(s.Collections, v) }}
}

func SetSort(k SortKey) Update {
	return Update{apply: func(s *FacetState) { s.Sort = ParseSort(string(k)) }}
}

// SetPage is the only update that keeps the current page selection.
func SetPage(n int) Update {
	return Update{apply: func(s *FacetState) { s.Page = n }, pageOnly: true}
}

// ClearFilters keeps the search text and sort order.
func ClearFilters(c Codec) Update {
	return Update{apply: func(s *FacetState) {
		d := c.Default()
		d.Query, d.Sort = s.Query, s.Sort
		*s = d
	}}
}

func toggle(set []string, v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return set
	}
	out := make([]string, 0, len(set)+1)
	found := false
	for _, s := range set {
		if fold(s) == fold(v) {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Manager owns the facet state of one listing. The URL encoding is the source
// of truth: every accepted update is encoded and decoded again before it
// becomes the current state.
type Manager struct {
	codec    Codec
	pageSize int
	count    func(FacetState) int
	state    FacetState
}

// NewManager decodes values and clamps the page against count, which reports
// how many products match a state.
func NewManager(codec Codec, values url.Values, pageSize int, count func(FacetState) int) *Manager {
	m := &Manager{codec: codec, pageSize: pageSize, count: count}
	m.state = m.settle(codec.Decode(values))
	return m
}

func (m *Manager) Codec() Codec { return m.codec }

func (m *Manager) State() FacetState {
	s := m.state
	s.Brands = slices.Clone(s.Brands)
	s.Sizes = slices.Clone(s.Sizes)
	s.Colors = slices.Clone(s.Colors)
	s.Collections = slices.Clone(s.Collections)
	return s
}

// Values is the canonical URL form of the current state.
func (m *Manager) Values() url.Values { return m.codec.Encode(m.state) }

// Apply commits u and returns the new canonical URL values.
func (m *Manager) Apply(u Update) url.Values {
	m.state = m.next(u)
	return m.Values()
}

// Preview returns the URL values u would produce without committing it.
func (m *Manager) Preview(u Update) url.Values {
	return m.codec.Encode(m.next(u))
}

func (m *Manager) next(u Update) FacetState {
	s := m.State()
	if u.apply != nil {
		u.apply(&s)
	}
	if !u.pageOnly {
		s.Page = 1
	}
	return m.settle(m.codec.Decode(m.codec.Encode(s)))
}

func (m *Manager) settle(s FacetState) FacetState {
	if m.count != nil {
		s.Page = ClampPage(s.Page, TotalPages(m.count(s), m.pageSize))
	}
	return s
}
